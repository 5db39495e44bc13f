package models

import (
	"time"

	"github.com/google/uuid"
)

// MetadataRequest is an activity tick reported directly by a device that
// already classified the activity on its side.
type MetadataRequest struct {
	SessionID       string        `json:"session_id"`
	ChildID         string        `json:"child_id"`
	Timestamp       time.Time     `json:"timestamp"`
	Activity        ActivityLabel `json:"activity"`
	Confidence      float64       `json:"confidence"`
	DurationSeconds int           `json:"duration_seconds"`
	DeviceID        string        `json:"device_id"`
	Tags            []string      `json:"tags,omitempty"`
}

// FrameBatchRequest is a batch of raw detection snapshots covering
// DurationSeconds of wall time. Classification happens server-side.
type FrameBatchRequest struct {
	SessionID       string              `json:"session_id"`
	ChildID         string              `json:"child_id"`
	DeviceID        string              `json:"device_id"`
	DurationSeconds int                 `json:"duration_seconds"`
	Snapshots       []DetectionSnapshot `json:"snapshots"`
}

// AnalysisJob is the queued unit of work for the frame analysis worker pool.
type AnalysisJob struct {
	ID              uuid.UUID  `json:"id"`
	SessionID       string     `json:"session_id"`
	ChildID         string     `json:"child_id"`
	BatchPath       string     `json:"batch_path"`
	DurationSeconds int        `json:"duration_seconds"`
	Status          string     `json:"status"` // "pending" | "processing" | "completed" | "failed"
	RetryCount      int        `json:"retry_count"`
	ErrorMessage    *string    `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// DailyReport summarizes one child-day of recorded activity.
type DailyReport struct {
	ChildID           string                `json:"child_id"`
	Date              string                `json:"date"`
	TotalStudySeconds int                   `json:"total_study_time"`
	FocusScore        float64               `json:"focus_score"`
	Activities        map[ActivityLabel]int `json:"activities"`
	Alerts            []AlertEvent          `json:"alerts"`
	GeneratedAt       time.Time             `json:"generated_at"`
}

type DayStudyTotal struct {
	Date         string `json:"date"`
	StudySeconds int    `json:"study_seconds"`
}

type WeeklyReport struct {
	ChildID             string          `json:"child_id"`
	WeekStart           string          `json:"week_start"`
	WeekEnd             string          `json:"week_end"`
	TotalStudySeconds   int             `json:"total_study_time"`
	DailyAverageSeconds int             `json:"daily_average"`
	Trend               string          `json:"trend"` // "improving" | "declining" | "steady"
	Days                []DayStudyTotal `json:"days"`
	GeneratedAt         time.Time       `json:"generated_at"`
}

// WebSocket message types pushed to connected clients.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type SoundAlertEvent struct {
	Kind AlertKind `json:"kind"`
}

type AlertPush struct {
	Kind      AlertKind `json:"kind"`
	SessionID string    `json:"session_id"`
	Details   string    `json:"details"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
