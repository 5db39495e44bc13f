package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"guardian-backend/internal/models"
)

type AlertEventRepo struct {
	pool *pgxpool.Pool
}

func NewAlertEventRepo(pool *pgxpool.Pool) *AlertEventRepo {
	return &AlertEventRepo{pool: pool}
}

func (r *AlertEventRepo) Insert(ctx context.Context, e models.AlertEvent) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO alert_events (session_id, child_id, kind, details, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.SessionID, e.ChildID, e.Kind, e.Details, createdAt)
	return err
}

func (r *AlertEventRepo) ListByChildBetween(ctx context.Context, childID string, from, to time.Time) ([]models.AlertEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT session_id, child_id, kind, details, created_at
		FROM alert_events
		WHERE child_id = $1
		  AND created_at >= $2
		  AND created_at < $3
		ORDER BY created_at ASC
	`, childID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.AlertEvent
	for rows.Next() {
		var e models.AlertEvent
		if err := rows.Scan(&e.SessionID, &e.ChildID, &e.Kind, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
