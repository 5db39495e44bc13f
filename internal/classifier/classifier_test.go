package classifier

import (
	"errors"
	"testing"

	"guardian-backend/internal/models"
)

func pt(x, y, z float64) *models.Point3D {
	return &models.Point3D{X: x, Y: y, Z: z}
}

func uprightPose() *models.PoseKeypoints {
	return &models.PoseKeypoints{
		Nose:          pt(0.5, 0.3, 0.0),
		LeftShoulder:  pt(0.4, 0.5, 0.0),
		RightShoulder: pt(0.6, 0.5, 0.0),
	}
}

func leaningPose() *models.PoseKeypoints {
	p := uprightPose()
	p.Nose.Z = -0.2
	return p
}

func TestClassify_NoPersonIsAway(t *testing.T) {
	c := New()

	tests := []struct {
		name string
		snap models.DetectionSnapshot
	}{
		{"empty snapshot", models.DetectionSnapshot{}},
		{"with stale pose data", models.DetectionSnapshot{PersonDetected: false, Pose: leaningPose()}},
		{"with stale hand data", models.DetectionSnapshot{
			PersonDetected: false,
			Hands:          []models.HandObservation{{Wrist: models.Point3D{X: 0.5, Y: 0.2}}},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := c.Classify(tc.snap)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Label != models.ActivityAway {
				t.Errorf("expected away, got %s", result.Label)
			}
			if result.Confidence != 0.9 {
				t.Errorf("expected confidence 0.9, got %v", result.Confidence)
			}
		})
	}
}

func TestClassify_PersonWithoutPoseIsUnknown(t *testing.T) {
	c := New()

	result, err := c.Classify(models.DetectionSnapshot{PersonDetected: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Label != models.ActivityUnknown || result.Confidence != 0.5 {
		t.Errorf("expected (unknown, 0.5), got (%s, %v)", result.Label, result.Confidence)
	}
}

func TestClassify_HandRaisedNearFaceIsPlaying(t *testing.T) {
	c := New()

	snap := models.DetectionSnapshot{
		PersonDetected: true,
		Pose:           leaningPose(), // the playing rule must win over forward lean
		Hands: []models.HandObservation{
			// Below shoulders: ignored.
			{Wrist: models.Point3D{X: 0.5, Y: 0.8}},
			// Raised and near the nose: matches.
			{Wrist: models.Point3D{X: 0.55, Y: 0.35}},
		},
	}

	result, err := c.Classify(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Label != models.ActivityPlaying || result.Confidence != 0.85 {
		t.Errorf("expected (playing, 0.85), got (%s, %v)", result.Label, result.Confidence)
	}
}

func TestClassify_RaisedHandFarFromFaceIsNotPlaying(t *testing.T) {
	c := New()

	snap := models.DetectionSnapshot{
		PersonDetected: true,
		Pose:           uprightPose(),
		Hands: []models.HandObservation{
			// Raised but 0.4 away from the nose horizontally.
			{Wrist: models.Point3D{X: 0.9, Y: 0.2}},
		},
	}

	result, err := c.Classify(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Label != models.ActivityIdle {
		t.Errorf("expected idle, got %s", result.Label)
	}
}

func TestClassify_ForwardLeanIsStudying(t *testing.T) {
	c := New()

	result, err := c.Classify(models.DetectionSnapshot{PersonDetected: true, Pose: leaningPose()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Label != models.ActivityStudying || result.Confidence != 0.8 {
		t.Errorf("expected (studying, 0.8), got (%s, %v)", result.Label, result.Confidence)
	}
}

func TestClassify_UprightNoHandsIsIdle(t *testing.T) {
	c := New()

	result, err := c.Classify(models.DetectionSnapshot{PersonDetected: true, Pose: uprightPose()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Label != models.ActivityIdle || result.Confidence != 0.6 {
		t.Errorf("expected (idle, 0.6), got (%s, %v)", result.Label, result.Confidence)
	}
}

func TestClassify_MissingKeypointsIsInvalid(t *testing.T) {
	c := New()

	tests := []struct {
		name string
		pose *models.PoseKeypoints
	}{
		{"missing nose", &models.PoseKeypoints{LeftShoulder: pt(0.4, 0.5, 0), RightShoulder: pt(0.6, 0.5, 0)}},
		{"missing left shoulder", &models.PoseKeypoints{Nose: pt(0.5, 0.3, 0), RightShoulder: pt(0.6, 0.5, 0)}},
		{"missing right shoulder", &models.PoseKeypoints{Nose: pt(0.5, 0.3, 0), LeftShoulder: pt(0.4, 0.5, 0)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Classify(models.DetectionSnapshot{PersonDetected: true, Pose: tc.pose})
			if !errors.Is(err, ErrInvalidSnapshot) {
				t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := New()
	snap := models.DetectionSnapshot{PersonDetected: true, Pose: leaningPose()}

	first, err := c.Classify(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := c.Classify(snap)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again != first {
			t.Fatalf("classification changed between calls: %+v vs %+v", first, again)
		}
	}
}
