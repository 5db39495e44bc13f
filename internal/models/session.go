package models

import "time"

// AlertConfig holds per-child alert thresholds and channel flags. The alert
// engine reads it as a whole-value snapshot; updates replace the stored copy.
type AlertConfig struct {
	ChildID              string `json:"child_id"`
	Email                string `json:"email"`
	LeaveMinutes         int    `json:"leave_threshold_minutes"`
	PlayWhileWorkMinutes int    `json:"play_while_work_threshold_minutes"`
	EnableEmail          bool   `json:"enable_email"`
	EnableSound          bool   `json:"enable_sound"`
	EnablePush           bool   `json:"enable_push"`
}

// Session identifies one monitoring run for a child.
type Session struct {
	SessionID   string      `json:"session_id"`
	ChildID     string      `json:"child_id"`
	StartTime   time.Time   `json:"start_time"`
	EndTime     *time.Time  `json:"end_time,omitempty"`
	IsActive    bool        `json:"is_active"`
	AwaySeconds int         `json:"away_seconds"`
	PlaySeconds int         `json:"play_seconds"`
	AlertsSent  []AlertKind `json:"alerts_sent"`
}

// SessionStatus is the read-only view returned by the alert engine. An
// unknown session yields the zero value with only SessionID set.
type SessionStatus struct {
	SessionID   string      `json:"session_id"`
	ChildID     string      `json:"child_id"`
	IsActive    bool        `json:"is_active"`
	AwaySeconds int         `json:"away_seconds"`
	PlaySeconds int         `json:"play_seconds"`
	AlertsSent  []AlertKind `json:"alerts_sent"`
}

// ActivitySample is one recorded activity tick, kept for reports.
type ActivitySample struct {
	SessionID       string        `json:"session_id"`
	ChildID         string        `json:"child_id"`
	Activity        ActivityLabel `json:"activity"`
	Confidence      float64       `json:"confidence"`
	DurationSeconds int           `json:"duration_seconds"`
	RecordedAt      time.Time     `json:"recorded_at"`
}

// AlertEvent records one fired alert for audit and report queries.
type AlertEvent struct {
	SessionID string    `json:"session_id"`
	ChildID   string    `json:"child_id"`
	Kind      AlertKind `json:"kind"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
