package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"guardian-backend/internal/models"
)

type AlertConfigRepo struct {
	pool *pgxpool.Pool
}

func NewAlertConfigRepo(pool *pgxpool.Pool) *AlertConfigRepo {
	return &AlertConfigRepo{pool: pool}
}

func (r *AlertConfigRepo) Upsert(ctx context.Context, cfg models.AlertConfig) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO alert_configs (child_id, email, leave_threshold_minutes, play_while_work_threshold_minutes, enable_email, enable_sound, enable_push, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (child_id) DO UPDATE SET
			email = EXCLUDED.email,
			leave_threshold_minutes = EXCLUDED.leave_threshold_minutes,
			play_while_work_threshold_minutes = EXCLUDED.play_while_work_threshold_minutes,
			enable_email = EXCLUDED.enable_email,
			enable_sound = EXCLUDED.enable_sound,
			enable_push = EXCLUDED.enable_push,
			updated_at = NOW()
	`,
		cfg.ChildID,
		cfg.Email,
		cfg.LeaveMinutes,
		cfg.PlayWhileWorkMinutes,
		cfg.EnableEmail,
		cfg.EnableSound,
		cfg.EnablePush,
	)
	return err
}

// ListAll loads every stored config, used to warm the alert engine at startup.
func (r *AlertConfigRepo) ListAll(ctx context.Context) ([]models.AlertConfig, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT child_id, email, leave_threshold_minutes, play_while_work_threshold_minutes, enable_email, enable_sound, enable_push
		FROM alert_configs
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []models.AlertConfig
	for rows.Next() {
		var cfg models.AlertConfig
		if err := rows.Scan(
			&cfg.ChildID,
			&cfg.Email,
			&cfg.LeaveMinutes,
			&cfg.PlayWhileWorkMinutes,
			&cfg.EnableEmail,
			&cfg.EnableSound,
			&cfg.EnablePush,
		); err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}
