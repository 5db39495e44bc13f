package monitor

import (
	"testing"

	"guardian-backend/internal/models"
)

func observeN(a *Aggregator, streamID string, label models.ActivityLabel, confidence float64, n int) {
	for i := 0; i < n; i++ {
		a.Observe(streamID, models.ClassificationResult{Label: label, Confidence: confidence})
	}
}

func TestCurrentStatus_EmptyWindow(t *testing.T) {
	a := NewAggregator()

	status := a.CurrentStatus("s1")
	if status.Status != models.ActivityUnknown {
		t.Errorf("expected unknown, got %s", status.Status)
	}
	if status.Confidence != 0 {
		t.Errorf("expected confidence 0, got %v", status.Confidence)
	}
}

func TestCurrentStatus_StudyingMajority(t *testing.T) {
	a := NewAggregator()

	// 21 studying + 9 idle out of 30: studying ratio 0.7 > 0.5.
	observeN(a, "s1", models.ActivityStudying, 0.8, 21)
	observeN(a, "s1", models.ActivityIdle, 0.6, 9)

	status := a.CurrentStatus("s1")
	if status.Status != models.ActivityStudying {
		t.Errorf("expected studying, got %s", status.Status)
	}
	if got := status.Ratios[models.ActivityStudying]; got != 0.7 {
		t.Errorf("expected studying ratio 0.7, got %v", got)
	}
}

func TestCurrentStatus_AwayDominates(t *testing.T) {
	a := NewAggregator()

	// 22/30 away: ratio ~0.73 > 0.7 even with studying mixed in.
	observeN(a, "s1", models.ActivityAway, 0.9, 22)
	observeN(a, "s1", models.ActivityStudying, 0.8, 8)

	if status := a.CurrentStatus("s1"); status.Status != models.ActivityAway {
		t.Errorf("expected away, got %s", status.Status)
	}
}

func TestCurrentStatus_PlayingAndDistractedCombine(t *testing.T) {
	a := NewAggregator()

	// playing 0.2 + distracted 0.2 = 0.4 > 0.3, beats the studying majority check.
	observeN(a, "s1", models.ActivityPlaying, 0.85, 6)
	observeN(a, "s1", models.ActivityDistracted, 0.85, 6)
	observeN(a, "s1", models.ActivityStudying, 0.8, 18)

	if status := a.CurrentStatus("s1"); status.Status != models.ActivityPlaying {
		t.Errorf("expected playing, got %s", status.Status)
	}
}

func TestCurrentStatus_FallsBackToIdle(t *testing.T) {
	a := NewAggregator()

	observeN(a, "s1", models.ActivityIdle, 0.6, 15)
	observeN(a, "s1", models.ActivityStudying, 0.8, 10)
	observeN(a, "s1", models.ActivityUnknown, 0.5, 5)

	if status := a.CurrentStatus("s1"); status.Status != models.ActivityIdle {
		t.Errorf("expected idle, got %s", status.Status)
	}
}

func TestCurrentStatus_OnlyTrailingWindowCounts(t *testing.T) {
	a := NewAggregator()

	// Fill far beyond capacity with away, then 30 studying ticks. The status
	// window only sees the trailing 30, so the away history is irrelevant.
	observeN(a, "s1", models.ActivityAway, 0.9, 150)
	observeN(a, "s1", models.ActivityStudying, 0.8, 30)

	status := a.CurrentStatus("s1")
	if status.Status != models.ActivityStudying {
		t.Errorf("expected studying, got %s", status.Status)
	}
	if got := status.Ratios[models.ActivityAway]; got != 0 {
		t.Errorf("expected away ratio 0 in trailing window, got %v", got)
	}
}

func TestCurrentStatus_ConfidenceFromLastTen(t *testing.T) {
	a := NewAggregator()

	observeN(a, "s1", models.ActivityStudying, 0.95, 20)
	observeN(a, "s1", models.ActivityStudying, 0.4, 10)

	// The 0.95 entries fall outside the confidence sub-window of 10.
	if status := a.CurrentStatus("s1"); status.Confidence != 0.4 {
		t.Errorf("expected confidence 0.4, got %v", status.Confidence)
	}
}

func TestCurrentStatus_ShortWindow(t *testing.T) {
	a := NewAggregator()

	a.Observe("s1", models.ClassificationResult{Label: models.ActivityStudying, Confidence: 0.8})

	status := a.CurrentStatus("s1")
	if status.Status != models.ActivityStudying {
		t.Errorf("expected studying from a single-entry window, got %s", status.Status)
	}
	if got := status.Ratios[models.ActivityStudying]; got != 1.0 {
		t.Errorf("expected ratio 1.0, got %v", got)
	}
	if status.Confidence != 0.8 {
		t.Errorf("expected confidence 0.8, got %v", status.Confidence)
	}
}

func TestStreamsAreIndependent(t *testing.T) {
	a := NewAggregator()

	observeN(a, "s1", models.ActivityAway, 0.9, 30)
	observeN(a, "s2", models.ActivityStudying, 0.8, 30)

	if status := a.CurrentStatus("s1"); status.Status != models.ActivityAway {
		t.Errorf("s1: expected away, got %s", status.Status)
	}
	if status := a.CurrentStatus("s2"); status.Status != models.ActivityStudying {
		t.Errorf("s2: expected studying, got %s", status.Status)
	}
}

func TestReset(t *testing.T) {
	a := NewAggregator()

	observeN(a, "s1", models.ActivityStudying, 0.8, 30)
	a.Reset("s1")

	if status := a.CurrentStatus("s1"); status.Status != models.ActivityUnknown {
		t.Errorf("expected unknown after reset, got %s", status.Status)
	}
}
