package monitor

import (
	"sync"

	"guardian-backend/internal/models"
)

const (
	// How many classifications each stream retains.
	defaultWindowCapacity = 100
	// Trailing sub-window the smoothed status is computed from.
	statusWindowSize = 30
	// Trailing sub-window the confidence is taken from.
	confidenceWindowSize = 10
)

// Aggregator smooths a noisy per-instant classification stream into a stable
// status. Each stream owns a bounded FIFO of recent results; oldest entries
// are evicted once the capacity is reached.
type Aggregator struct {
	mu       sync.Mutex
	capacity int
	streams  map[string]*window
}

type window struct {
	results []models.ClassificationResult
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		capacity: defaultWindowCapacity,
		streams:  make(map[string]*window),
	}
}

// Observe appends a classification to the stream's window.
func (a *Aggregator) Observe(streamID string, result models.ClassificationResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	w, ok := a.streams[streamID]
	if !ok {
		w = &window{results: make([]models.ClassificationResult, 0, a.capacity)}
		a.streams[streamID] = w
	}

	w.results = append(w.results, result)
	if len(w.results) > a.capacity {
		w.results = w.results[1:]
	}
}

// CurrentStatus computes the smoothed status of a stream. The status is
// selected by priority, not pure majority: sustained absence dominates,
// then playing, then studying. An empty or unknown stream yields
// (unknown, 0).
func (a *Aggregator) CurrentStatus(streamID string) models.StatusSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	w, ok := a.streams[streamID]
	if !ok || len(w.results) == 0 {
		return models.StatusSnapshot{
			Status: models.ActivityUnknown,
			Ratios: map[models.ActivityLabel]float64{},
		}
	}

	recent := tail(w.results, statusWindowSize)
	total := float64(len(recent))

	counts := make(map[models.ActivityLabel]int)
	for _, r := range recent {
		counts[r.Label]++
	}

	ratios := make(map[models.ActivityLabel]float64, len(counts))
	for label, count := range counts {
		ratios[label] = float64(count) / total
	}

	var status models.ActivityLabel
	switch {
	case ratios[models.ActivityAway] > 0.7:
		status = models.ActivityAway
	case ratios[models.ActivityPlaying]+ratios[models.ActivityDistracted] > 0.3:
		status = models.ActivityPlaying
	case ratios[models.ActivityStudying] > 0.5:
		status = models.ActivityStudying
	default:
		status = models.ActivityIdle
	}

	confidence := 0.0
	for _, r := range tail(recent, confidenceWindowSize) {
		if r.Confidence > confidence {
			confidence = r.Confidence
		}
	}

	return models.StatusSnapshot{Status: status, Ratios: ratios, Confidence: confidence}
}

// Reset drops a stream's window, typically when its session ends.
func (a *Aggregator) Reset(streamID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.streams, streamID)
}

func tail(results []models.ClassificationResult, n int) []models.ClassificationResult {
	if len(results) <= n {
		return results
	}
	return results[len(results)-n:]
}
