package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"guardian-backend/internal/alert"
	"guardian-backend/internal/models"
	"guardian-backend/internal/repository"
)

type AlertHandler struct {
	engine              *alert.Engine
	configRepo          *repository.AlertConfigRepo
	defaultLeaveMinutes int
	defaultPlayMinutes  int
}

func NewAlertHandler(engine *alert.Engine, configRepo *repository.AlertConfigRepo, defaultLeaveMinutes, defaultPlayMinutes int) *AlertHandler {
	return &AlertHandler{
		engine:              engine,
		configRepo:          configRepo,
		defaultLeaveMinutes: defaultLeaveMinutes,
		defaultPlayMinutes:  defaultPlayMinutes,
	}
}

func (h *AlertHandler) SetConfig(w http.ResponseWriter, r *http.Request) {
	var req models.AlertConfig
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	// Omitted thresholds fall back to server defaults
	if req.LeaveMinutes == 0 {
		req.LeaveMinutes = h.defaultLeaveMinutes
	}
	if req.PlayWhileWorkMinutes == 0 {
		req.PlayWhileWorkMinutes = h.defaultPlayMinutes
	}

	if err := h.engine.UpdateConfig(req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	// Persistence is best-effort; the in-memory engine is authoritative and
	// the database copy only warms it back up on restart.
	if h.configRepo != nil {
		if err := h.configRepo.Upsert(context.Background(), req); err != nil {
			log.Printf("failed to persist alert config for child %s: %v", req.ChildID, err)
		}
	}

	writeJSON(w, http.StatusOK, req)
}

func (h *AlertHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	childID := chi.URLParam(r, "childID")

	config, ok := h.engine.Config(childID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No alert config for this child", r))
		return
	}

	writeJSON(w, http.StatusOK, config)
}

// Status reports the session's alert-side view: accumulators and which alert
// kinds have already fired.
func (h *AlertHandler) Status(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	writeJSON(w, http.StatusOK, h.engine.GetStatus(sessionID))
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *alert.InvalidConfigError:
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", e.Fields, r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
