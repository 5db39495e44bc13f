package alert

import (
	"fmt"
	"log"
	"sync"
	"time"

	"guardian-backend/internal/models"
	"guardian-backend/internal/notify"
)

// Notifier is the dispatcher-facing hand-off. It must never block: the
// engine calls it from the evaluation path.
type Notifier interface {
	Dispatch(n notify.Notification) notify.DispatchResult
}

// Engine is the per-session alert state machine. It owns the session map and
// the per-child alert configs; sessions move NotStarted → Active → Ended and
// each alert kind fires at most once per session.
//
// Missing sessions and configs are silent no-ops everywhere: alerting must
// never fail telemetry ingestion, and activity ticks racing session
// start/end under network jitter are expected.
type Engine struct {
	mu       sync.Mutex
	sessions map[string]*sessionState

	configMu sync.RWMutex
	configs  map[string]models.AlertConfig

	notifier Notifier
}

// sessionState carries its own lock so unrelated sessions never serialize
// on each other.
type sessionState struct {
	mu          sync.Mutex
	sessionID   string
	childID     string
	startTime   time.Time
	endTime     *time.Time
	isActive    bool
	awaySeconds int
	playSeconds int
	alertsSent  map[models.AlertKind]bool
	sentOrder   []models.AlertKind
}

func NewEngine(notifier Notifier) *Engine {
	return &Engine{
		sessions: make(map[string]*sessionState),
		configs:  make(map[string]models.AlertConfig),
		notifier: notifier,
	}
}

// InvalidConfigError rejects a structurally bad alert config at the
// UpdateConfig boundary; the stored config is left untouched.
type InvalidConfigError struct {
	Fields map[string]string
}

func (e *InvalidConfigError) Error() string { return "invalid alert config" }

// UpdateConfig validates and stores the config for config.ChildID. The new
// value takes effect for subsequent evaluations; evaluations already holding
// a snapshot keep it.
func (e *Engine) UpdateConfig(config models.AlertConfig) error {
	fields := make(map[string]string)
	if config.ChildID == "" {
		fields["child_id"] = "child_id is required"
	}
	if config.LeaveMinutes <= 0 {
		fields["leave_threshold_minutes"] = "must be positive"
	}
	if config.PlayWhileWorkMinutes <= 0 {
		fields["play_while_work_threshold_minutes"] = "must be positive"
	}
	if config.EnableEmail && config.Email == "" {
		fields["email"] = "recipient is required when email alerts are enabled"
	}
	if len(fields) > 0 {
		return &InvalidConfigError{Fields: fields}
	}

	e.configMu.Lock()
	e.configs[config.ChildID] = config
	e.configMu.Unlock()

	log.Printf("alert: config updated for child %s", config.ChildID)
	return nil
}

// Config returns the stored config snapshot for a child.
func (e *Engine) Config(childID string) (models.AlertConfig, bool) {
	e.configMu.RLock()
	defer e.configMu.RUnlock()
	config, ok := e.configs[childID]
	return config, ok
}

// StartSession creates a new active session with zero accumulators. Starting
// an already-known session is a no-op: an ended session stays ended. When
// the child has a config with email enabled, a session-start notification is
// handed off fire-and-forget.
func (e *Engine) StartSession(sessionID, childID string) models.Session {
	e.mu.Lock()
	state, exists := e.sessions[sessionID]
	if !exists {
		state = &sessionState{
			sessionID:  sessionID,
			childID:    childID,
			startTime:  time.Now().UTC(),
			isActive:   true,
			alertsSent: make(map[models.AlertKind]bool),
		}
		e.sessions[sessionID] = state
	}
	e.mu.Unlock()

	if !exists {
		if config, ok := e.Config(childID); ok && config.EnableEmail {
			e.notifier.Dispatch(notify.Notification{
				Kind:      models.AlertSessionStart,
				SessionID: sessionID,
				ChildID:   childID,
				Recipient: config.Email,
				Channels:  notify.Channels{Email: true},
			})
		}
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return state.snapshot()
}

// CheckAndTrigger accumulates an activity tick against the session and
// returns the alert kinds that fired on this tick. A single tick can fire
// zero, one, or both kinds since the away and play axes are independent.
//
// Unconfigured children and unknown or ended sessions return nil without
// touching any state.
func (e *Engine) CheckAndTrigger(sessionID, childID string, activity models.ActivityLabel, durationSeconds int) []models.AlertKind {
	config, ok := e.Config(childID)
	if !ok {
		return nil
	}

	e.mu.Lock()
	state, ok := e.sessions[sessionID]
	e.mu.Unlock()
	if !ok {
		return nil
	}

	state.mu.Lock()
	if !state.isActive {
		state.mu.Unlock()
		return nil
	}

	var triggered []models.AlertKind

	if activity == models.ActivityAway {
		state.awaySeconds += durationSeconds
		if state.awaySeconds >= config.LeaveMinutes*60 && !state.alertsSent[models.AlertLeaveTooLong] {
			state.alertsSent[models.AlertLeaveTooLong] = true
			state.sentOrder = append(state.sentOrder, models.AlertLeaveTooLong)
			triggered = append(triggered, models.AlertLeaveTooLong)
		}
	} else {
		// Recovery: the accumulator restarts from zero. The sent-set is
		// deliberately left alone, so the kind will not re-fire within this
		// session even if the condition recurs.
		state.awaySeconds = 0
	}

	if activity == models.ActivityPlaying || activity == models.ActivityDistracted {
		state.playSeconds += durationSeconds
		if state.playSeconds >= config.PlayWhileWorkMinutes*60 && !state.alertsSent[models.AlertPlayWhileWork] {
			state.alertsSent[models.AlertPlayWhileWork] = true
			state.sentOrder = append(state.sentOrder, models.AlertPlayWhileWork)
			triggered = append(triggered, models.AlertPlayWhileWork)
		}
	} else {
		state.playSeconds = 0
	}

	awayMinutes := state.awaySeconds / 60
	playMinutes := state.playSeconds / 60
	state.mu.Unlock()

	for _, kind := range triggered {
		details := ""
		switch kind {
		case models.AlertLeaveTooLong:
			details = fmt.Sprintf("Away for %d minutes.", awayMinutes)
		case models.AlertPlayWhileWork:
			details = fmt.Sprintf("Playing for %d minutes.", playMinutes)
		}

		e.notifier.Dispatch(notify.Notification{
			Kind:      kind,
			SessionID: sessionID,
			ChildID:   childID,
			Recipient: config.Email,
			Channels: notify.Channels{
				Email: config.EnableEmail,
				Sound: config.EnableSound,
				Push:  config.EnablePush,
			},
			Details: details,
		})
	}

	return triggered
}

// EndSession marks the session inactive and freezes its accumulators for
// report reads. Idempotent; unknown sessions are a no-op.
func (e *Engine) EndSession(sessionID string) {
	e.mu.Lock()
	state, ok := e.sessions[sessionID]
	e.mu.Unlock()
	if !ok {
		return
	}

	state.mu.Lock()
	if state.endTime != nil {
		state.mu.Unlock()
		return
	}
	now := time.Now().UTC()
	state.endTime = &now
	state.isActive = false
	childID := state.childID
	state.mu.Unlock()

	if config, ok := e.Config(childID); ok && config.EnableEmail {
		e.notifier.Dispatch(notify.Notification{
			Kind:      models.AlertSessionEnd,
			SessionID: sessionID,
			ChildID:   childID,
			Recipient: config.Email,
			Channels:  notify.Channels{Email: true},
		})
	}
}

// GetStatus returns a read-only snapshot. Unknown sessions yield a zero
// value with only the session id set, never an error.
func (e *Engine) GetStatus(sessionID string) models.SessionStatus {
	e.mu.Lock()
	state, ok := e.sessions[sessionID]
	e.mu.Unlock()
	if !ok {
		return models.SessionStatus{SessionID: sessionID, AlertsSent: []models.AlertKind{}}
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return models.SessionStatus{
		SessionID:   state.sessionID,
		ChildID:     state.childID,
		IsActive:    state.isActive,
		AwaySeconds: state.awaySeconds,
		PlaySeconds: state.playSeconds,
		AlertsSent:  append([]models.AlertKind{}, state.sentOrder...),
	}
}

// snapshot must be called with state.mu held.
func (s *sessionState) snapshot() models.Session {
	return models.Session{
		SessionID:   s.sessionID,
		ChildID:     s.childID,
		StartTime:   s.startTime,
		EndTime:     s.endTime,
		IsActive:    s.isActive,
		AwaySeconds: s.awaySeconds,
		PlaySeconds: s.playSeconds,
		AlertsSent:  append([]models.AlertKind{}, s.sentOrder...),
	}
}
