package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"guardian-backend/internal/models"
)

type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

func (r *ActivityRepo) InsertSample(ctx context.Context, s models.ActivitySample) error {
	recordedAt := s.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO activity_samples (session_id, child_id, activity, confidence, duration_seconds, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.SessionID, s.ChildID, s.Activity, s.Confidence, s.DurationSeconds, recordedAt)
	return err
}

// DayTotals returns seconds spent per activity label for one child-day.
func (r *ActivityRepo) DayTotals(ctx context.Context, childID string, day time.Time) (map[models.ActivityLabel]int, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	rows, err := r.pool.Query(ctx, `
		SELECT activity, COALESCE(SUM(duration_seconds), 0)
		FROM activity_samples
		WHERE child_id = $1
		  AND recorded_at >= $2
		  AND recorded_at < $3
		GROUP BY activity
	`, childID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[models.ActivityLabel]int)
	for rows.Next() {
		var (
			activity models.ActivityLabel
			seconds  int
		)
		if err := rows.Scan(&activity, &seconds); err != nil {
			return nil, err
		}
		totals[activity] = seconds
	}
	return totals, rows.Err()
}

// StudySecondsByDay returns per-day studying totals over [from, to), used by
// the weekly report.
func (r *ActivityRepo) StudySecondsByDay(ctx context.Context, childID string, from, to time.Time) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DATE(recorded_at AT TIME ZONE 'UTC')::TEXT AS day, COALESCE(SUM(duration_seconds), 0)
		FROM activity_samples
		WHERE child_id = $1
		  AND activity = $2
		  AND recorded_at >= $3
		  AND recorded_at < $4
		GROUP BY day
	`, childID, models.ActivityStudying, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var (
			day     string
			seconds int
		)
		if err := rows.Scan(&day, &seconds); err != nil {
			return nil, err
		}
		totals[day] = seconds
	}
	return totals, rows.Err()
}
