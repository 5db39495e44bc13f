package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"guardian-backend/internal/models"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) Create(ctx context.Context, s models.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO monitor_sessions (session_id, child_id, start_time, is_active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (session_id) DO NOTHING
	`, s.SessionID, s.ChildID, s.StartTime)
	return err
}

// End freezes the session row with its final accumulators and alert list.
func (r *SessionRepo) End(ctx context.Context, status models.SessionStatus) error {
	alerts, err := json.Marshal(status.AlertsSent)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE monitor_sessions
		SET end_time = CASE WHEN end_time IS NULL THEN NOW() ELSE end_time END,
			is_active = FALSE,
			away_seconds = $2,
			play_seconds = $3,
			alerts_sent = $4
		WHERE session_id = $1
	`, status.SessionID, status.AwaySeconds, status.PlaySeconds, alerts)
	return err
}

func (r *SessionRepo) GetByID(ctx context.Context, sessionID string) (*models.Session, error) {
	var (
		s         models.Session
		rawAlerts []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT session_id, child_id, start_time, end_time, is_active, away_seconds, play_seconds, alerts_sent
		FROM monitor_sessions
		WHERE session_id = $1
	`, sessionID).Scan(
		&s.SessionID,
		&s.ChildID,
		&s.StartTime,
		&s.EndTime,
		&s.IsActive,
		&s.AwaySeconds,
		&s.PlaySeconds,
		&rawAlerts,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(rawAlerts, &s.AlertsSent); err != nil {
		s.AlertsSent = []models.AlertKind{}
	}
	return &s, nil
}
