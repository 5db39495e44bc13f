package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"guardian-backend/internal/alert"
	"guardian-backend/internal/classifier"
	"guardian-backend/internal/models"
	"guardian-backend/internal/monitor"
	"guardian-backend/internal/repository"
)

const (
	analysisQueue = "queue:frame-analysis"
	maxRetries    = 3
)

// Pool drains the frame analysis queue. Each job references a batch file on
// disk holding raw detection snapshots; workers classify them, feed the
// rolling window, and run the alert check for the covered interval.
type Pool struct {
	redis        *redis.Client
	classifier   *classifier.Classifier
	aggregator   *monitor.Aggregator
	engine       *alert.Engine
	jobRepo      *repository.JobRepo
	activityRepo *repository.ActivityRepo
	eventRepo    *repository.AlertEventRepo
	workerCount  int
	stopChan     chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	cls *classifier.Classifier,
	agg *monitor.Aggregator,
	engine *alert.Engine,
	jobRepo *repository.JobRepo,
	activityRepo *repository.ActivityRepo,
	eventRepo *repository.AlertEventRepo,
	workerCount int,
) *Pool {
	return &Pool{
		redis:        redisClient,
		classifier:   cls,
		aggregator:   agg,
		engine:       engine,
		jobRepo:      jobRepo,
		activityRepo: activityRepo,
		eventRepo:    eventRepo,
		workerCount:  workerCount,
		stopChan:     make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, analysisQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.AnalysisJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (session: %s)", id, job.ID, job.SessionID)

		p.jobRepo.UpdateStatus(ctx, job.ID, "processing")

		if processErr := p.processFrameBatch(ctx, &job); processErr != nil {
			p.handleFailure(ctx, &job, processErr)
		} else {
			p.handleSuccess(ctx, &job)
		}

		// Release lock
		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) processFrameBatch(ctx context.Context, job *models.AnalysisJob) error {
	data, err := os.ReadFile(job.BatchPath)
	if err != nil {
		return fmt.Errorf("failed to read batch file: %w", err)
	}

	var batch models.FrameBatchRequest
	if err := json.Unmarshal(data, &batch); err != nil {
		return fmt.Errorf("failed to parse batch file: %w", err)
	}

	if len(batch.Snapshots) == 0 {
		return errors.New("batch contains no snapshots")
	}

	status := p.classifyBatch(job.SessionID, batch.Snapshots)

	triggered := p.engine.CheckAndTrigger(job.SessionID, job.ChildID, status.Status, job.DurationSeconds)

	if p.activityRepo != nil {
		sample := models.ActivitySample{
			SessionID:       job.SessionID,
			ChildID:         job.ChildID,
			Activity:        status.Status,
			Confidence:      status.Confidence,
			DurationSeconds: job.DurationSeconds,
			RecordedAt:      time.Now().UTC(),
		}
		if err := p.activityRepo.InsertSample(ctx, sample); err != nil {
			log.Printf("failed to record activity sample for session %s: %v", job.SessionID, err)
		}
	}

	if p.eventRepo != nil {
		for _, kind := range triggered {
			event := models.AlertEvent{
				SessionID: job.SessionID,
				ChildID:   job.ChildID,
				Kind:      kind,
			}
			if err := p.eventRepo.Insert(ctx, event); err != nil {
				log.Printf("failed to record alert event %s for session %s: %v", kind, job.SessionID, err)
			}
		}
	}

	// Batch file is consumed; leftover files only waste disk
	if err := os.Remove(job.BatchPath); err != nil {
		log.Printf("failed to remove batch file %s: %v", job.BatchPath, err)
	}

	return nil
}

// classifyBatch runs every snapshot through the rule classifier and the
// rolling window, returning the smoothed status after the whole batch.
// Malformed snapshots degrade to an unknown observation instead of failing
// the batch.
func (p *Pool) classifyBatch(sessionID string, snapshots []models.DetectionSnapshot) models.StatusSnapshot {
	for _, snap := range snapshots {
		result, err := p.classifier.Classify(snap)
		if err != nil {
			result = models.ClassificationResult{Label: models.ActivityUnknown, Confidence: 0}
		}
		p.aggregator.Observe(sessionID, result)
	}

	return p.aggregator.CurrentStatus(sessionID)
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.AnalysisJob) {
	p.jobRepo.UpdateStatus(ctx, job.ID, "completed")
	log.Printf("Job %s completed successfully", job.ID)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.AnalysisJob, err error) {
	job.RetryCount++
	errMsg := err.Error()

	if job.RetryCount < maxRetries {
		// Re-queue with backoff
		log.Printf("Job %s failed (attempt %d): %s, retrying", job.ID, job.RetryCount, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "pending")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), analysisQueue, string(jobBytes))
		})
	} else {
		log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "failed")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)
	}
}

// QueueName is the redis list the ingest handler pushes analysis jobs onto.
func QueueName() string {
	return analysisQueue
}
