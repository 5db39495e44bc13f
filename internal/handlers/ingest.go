package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"guardian-backend/internal/alert"
	"guardian-backend/internal/middleware"
	"guardian-backend/internal/models"
	"guardian-backend/internal/repository"
	"guardian-backend/internal/worker"
)

type IngestHandler struct {
	engine       *alert.Engine
	redis        *redis.Client
	jobRepo      *repository.JobRepo
	activityRepo *repository.ActivityRepo
	eventRepo    *repository.AlertEventRepo
	storagePath  string
}

func NewIngestHandler(
	engine *alert.Engine,
	redisClient *redis.Client,
	jobRepo *repository.JobRepo,
	activityRepo *repository.ActivityRepo,
	eventRepo *repository.AlertEventRepo,
	storagePath string,
) *IngestHandler {
	return &IngestHandler{
		engine:       engine,
		redis:        redisClient,
		jobRepo:      jobRepo,
		activityRepo: activityRepo,
		eventRepo:    eventRepo,
		storagePath:  storagePath,
	}
}

// Metadata accepts an activity tick that was already classified on the
// device. The tick runs through the alert engine synchronously so the
// response can report which alerts it fired.
func (h *IngestHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	var req models.MetadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := make(map[string]string)
	if req.SessionID == "" {
		fields["session_id"] = "session_id is required"
	}
	if req.ChildID == "" {
		fields["child_id"] = "child_id is required"
	}
	if !models.ValidActivityLabel(req.Activity) {
		fields["activity"] = "unrecognized activity label"
	}
	if req.DurationSeconds <= 0 {
		fields["duration_seconds"] = "must be positive"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	triggered := h.engine.CheckAndTrigger(req.SessionID, req.ChildID, req.Activity, req.DurationSeconds)
	if triggered == nil {
		triggered = []models.AlertKind{}
	}

	if h.activityRepo != nil {
		recordedAt := req.Timestamp
		if recordedAt.IsZero() {
			recordedAt = time.Now().UTC()
		}
		sample := models.ActivitySample{
			SessionID:       req.SessionID,
			ChildID:         req.ChildID,
			Activity:        req.Activity,
			Confidence:      req.Confidence,
			DurationSeconds: req.DurationSeconds,
			RecordedAt:      recordedAt,
		}
		if err := h.activityRepo.InsertSample(context.Background(), sample); err != nil {
			log.Printf("failed to record activity sample for session %s: %v", req.SessionID, err)
		}
	}

	if h.eventRepo != nil {
		for _, kind := range triggered {
			event := models.AlertEvent{
				SessionID: req.SessionID,
				ChildID:   req.ChildID,
				Kind:      kind,
			}
			if err := h.eventRepo.Insert(context.Background(), event); err != nil {
				log.Printf("failed to record alert event %s for session %s: %v", kind, req.SessionID, err)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "recorded",
		"alerts_triggered": triggered,
	})
}

// Frames accepts a raw snapshot batch, stages it on disk, and queues an
// analysis job for the worker pool. Classification happens off the request
// path.
func (h *IngestHandler) Frames(w http.ResponseWriter, r *http.Request) {
	var req models.FrameBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := make(map[string]string)
	if req.SessionID == "" {
		fields["session_id"] = "session_id is required"
	}
	if req.ChildID == "" {
		fields["child_id"] = "child_id is required"
	}
	if len(req.Snapshots) == 0 {
		fields["snapshots"] = "at least one snapshot is required"
	}
	if req.DurationSeconds <= 0 {
		fields["duration_seconds"] = "must be positive"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	// The authenticated client is the device; when the body omits the device
	// id the token identity fills it in before the batch is staged.
	if req.DeviceID == "" {
		req.DeviceID = middleware.GetClientID(r.Context())
	}

	jobID := uuid.New()

	batchDir := filepath.Join(h.storagePath, "batches")
	if err := os.MkdirAll(batchDir, 0o755); err != nil {
		log.Printf("failed to create batch directory: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to stage batch", r))
		return
	}

	batchPath := filepath.Join(batchDir, fmt.Sprintf("%s.json", jobID))
	batchBytes, err := json.Marshal(req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to stage batch", r))
		return
	}
	if err := os.WriteFile(batchPath, batchBytes, 0o644); err != nil {
		log.Printf("failed to write batch file: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to stage batch", r))
		return
	}

	job := models.AnalysisJob{
		ID:              jobID,
		SessionID:       req.SessionID,
		ChildID:         req.ChildID,
		BatchPath:       batchPath,
		DurationSeconds: req.DurationSeconds,
	}

	ctx := r.Context()
	if h.jobRepo != nil {
		if err := h.jobRepo.Create(ctx, &job); err != nil {
			log.Printf("failed to persist analysis job %s: %v", job.ID, err)
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to queue analysis", r))
			return
		}
	} else {
		job.Status = "pending"
	}

	jobBytes, _ := json.Marshal(job)
	if err := h.redis.LPush(ctx, worker.QueueName(), string(jobBytes)).Err(); err != nil {
		log.Printf("failed to enqueue analysis job %s: %v", job.ID, err)
		if h.jobRepo != nil {
			h.jobRepo.UpdateStatus(ctx, job.ID, "failed")
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to queue analysis", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": "queued",
	})
}
