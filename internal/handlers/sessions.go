package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"guardian-backend/internal/alert"
	"guardian-backend/internal/models"
	"guardian-backend/internal/monitor"
	"guardian-backend/internal/repository"
)

type SessionHandler struct {
	engine      *alert.Engine
	aggregator  *monitor.Aggregator
	sessionRepo *repository.SessionRepo
}

func NewSessionHandler(engine *alert.Engine, aggregator *monitor.Aggregator, sessionRepo *repository.SessionRepo) *SessionHandler {
	return &SessionHandler{
		engine:      engine,
		aggregator:  aggregator,
		sessionRepo: sessionRepo,
	}
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		ChildID   string `json:"child_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.ChildID == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"child_id": "child_id is required"}, r))
		return
	}

	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	session := h.engine.StartSession(req.SessionID, req.ChildID)

	if h.sessionRepo != nil {
		if err := h.sessionRepo.Create(context.Background(), session); err != nil {
			log.Printf("failed to persist session %s: %v", session.SessionID, err)
		}
	}

	writeJSON(w, http.StatusCreated, session)
}

func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	h.engine.EndSession(sessionID)
	status := h.engine.GetStatus(sessionID)

	if h.sessionRepo != nil {
		if err := h.sessionRepo.End(context.Background(), status); err != nil {
			log.Printf("failed to persist session end for %s: %v", sessionID, err)
		}
	}

	// The session's rolling window has no further use
	h.aggregator.Reset(sessionID)

	writeJSON(w, http.StatusOK, status)
}

func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	status := h.engine.GetStatus(sessionID)

	// The engine forgets sessions on restart; fall back to the persisted row
	// so status reads keep working for sessions that ended before it.
	if status.ChildID == "" && h.sessionRepo != nil {
		if persisted, err := h.sessionRepo.GetByID(r.Context(), sessionID); err == nil {
			status = models.SessionStatus{
				SessionID:   persisted.SessionID,
				ChildID:     persisted.ChildID,
				IsActive:    persisted.IsActive,
				AwaySeconds: persisted.AwaySeconds,
				PlaySeconds: persisted.PlaySeconds,
				AlertsSent:  persisted.AlertsSent,
			}
		}
	}

	activity := h.aggregator.CurrentStatus(sessionID)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":  status,
		"activity": activity,
	})
}
