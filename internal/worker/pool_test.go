package worker

import (
	"testing"

	"guardian-backend/internal/classifier"
	"guardian-backend/internal/models"
	"guardian-backend/internal/monitor"
)

func testPool() *Pool {
	return &Pool{
		classifier: classifier.New(),
		aggregator: monitor.NewAggregator(),
	}
}

func pt(x, y, z float64) *models.Point3D {
	return &models.Point3D{X: x, Y: y, Z: z}
}

func leaningSnapshot() models.DetectionSnapshot {
	return models.DetectionSnapshot{
		PersonDetected: true,
		Pose: &models.PoseKeypoints{
			Nose:          pt(0.5, 0.3, -0.2),
			LeftShoulder:  pt(0.4, 0.5, 0),
			RightShoulder: pt(0.6, 0.5, 0),
		},
	}
}

func absentSnapshot() models.DetectionSnapshot {
	return models.DetectionSnapshot{PersonDetected: false}
}

func TestClassifyBatchSmoothsToStudying(t *testing.T) {
	p := testPool()

	snapshots := make([]models.DetectionSnapshot, 0, 30)
	for i := 0; i < 24; i++ {
		snapshots = append(snapshots, leaningSnapshot())
	}
	for i := 0; i < 6; i++ {
		snapshots = append(snapshots, absentSnapshot())
	}

	status := p.classifyBatch("session-1", snapshots)
	if status.Status != models.ActivityStudying {
		t.Fatalf("expected studying, got %s", status.Status)
	}
}

func TestClassifyBatchDominantAbsence(t *testing.T) {
	p := testPool()

	snapshots := make([]models.DetectionSnapshot, 0, 30)
	for i := 0; i < 25; i++ {
		snapshots = append(snapshots, absentSnapshot())
	}
	for i := 0; i < 5; i++ {
		snapshots = append(snapshots, leaningSnapshot())
	}

	status := p.classifyBatch("session-2", snapshots)
	if status.Status != models.ActivityAway {
		t.Fatalf("expected away, got %s", status.Status)
	}
}

func TestClassifyBatchMalformedSnapshotsDegradeToUnknown(t *testing.T) {
	p := testPool()

	// Pose present but missing keypoints fails validation; the batch must
	// still produce a status instead of erroring out.
	malformed := models.DetectionSnapshot{
		PersonDetected: true,
		Pose:           &models.PoseKeypoints{Nose: pt(0.5, 0.3, 0)},
	}

	status := p.classifyBatch("session-3", []models.DetectionSnapshot{malformed, malformed})
	if status.Status != models.ActivityIdle {
		t.Fatalf("expected idle fallback, got %s", status.Status)
	}
	if status.Confidence != 0 {
		t.Fatalf("expected zero confidence, got %f", status.Confidence)
	}
	if status.Ratios[models.ActivityUnknown] != 1.0 {
		t.Fatalf("expected unknown ratio 1.0, got %f", status.Ratios[models.ActivityUnknown])
	}
}

func TestClassifyBatchKeepsSessionsSeparate(t *testing.T) {
	p := testPool()

	p.classifyBatch("session-a", []models.DetectionSnapshot{absentSnapshot()})
	status := p.classifyBatch("session-b", []models.DetectionSnapshot{leaningSnapshot()})

	if status.Status == models.ActivityAway {
		t.Fatal("session-b window should not see session-a observations")
	}
}
