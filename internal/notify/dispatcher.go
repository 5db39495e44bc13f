package notify

import (
	"log"
	"sync"
	"time"

	"guardian-backend/internal/models"
)

const (
	// Two dispatches of the same alert kind inside this window collapse to
	// one, regardless of session boundaries. The alert engine already
	// de-duplicates per session; this additionally covers rapid session
	// restarts and direct triggers that bypass the engine.
	alertCooldown = 60 * time.Second

	defaultQueueSize = 64
)

type Channels struct {
	Email bool `json:"email"`
	Sound bool `json:"sound"`
	Push  bool `json:"push"`
}

// Notification is one alert hand-off from the evaluation path to the
// delivery worker.
type Notification struct {
	Kind      models.AlertKind
	SessionID string
	ChildID   string
	Recipient string
	Channels  Channels
	Details   string
}

type Outcome string

const (
	OutcomeQueued      Outcome = "queued"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeDropped     Outcome = "dropped"
)

// DispatchResult reports, per channel, what happened at hand-off time.
// Actual delivery runs on the worker and is logged, never retried.
type DispatchResult struct {
	Email Outcome `json:"email"`
	Sound Outcome `json:"sound"`
	Push  Outcome `json:"push"`
}

type EmailSender interface {
	SendAlertEmail(to string, kind models.AlertKind, childID, details string) error
}

type SoundSender interface {
	PlayAlert(childID string, kind models.AlertKind) error
}

type PushSender interface {
	PushAlert(childID string, kind models.AlertKind, sessionID, details string) error
}

// Dispatcher rate-limits alerts per kind and fans them out to the configured
// channels on a worker goroutine. Enqueueing never blocks; when the queue is
// full the notification is dropped and logged, because alert delivery is
// best-effort and must not backpressure the monitoring hot path.
type Dispatcher struct {
	email EmailSender
	sound SoundSender
	push  PushSender

	queue    chan Notification
	stopChan chan struct{}

	mu       sync.Mutex
	lastSent map[models.AlertKind]time.Time
	cooldown time.Duration
	now      func() time.Time
}

func NewDispatcher(email EmailSender, sound SoundSender, push PushSender, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Dispatcher{
		email:    email,
		sound:    sound,
		push:     push,
		queue:    make(chan Notification, queueSize),
		stopChan: make(chan struct{}),
		lastSent: make(map[models.AlertKind]time.Time),
		cooldown: alertCooldown,
		now:      time.Now,
	}
}

func (d *Dispatcher) Start() {
	go d.worker()
}

func (d *Dispatcher) Stop() {
	select {
	case <-d.stopChan:
		return
	default:
		close(d.stopChan)
	}
}

// Dispatch hands a notification to the delivery worker. The returned result
// reflects what will happen per channel; disabled channels are skipped,
// and the whole notification is collapsed when the kind is in cooldown.
func (d *Dispatcher) Dispatch(n Notification) DispatchResult {
	result := DispatchResult{
		Email: enabledOutcome(n.Channels.Email),
		Sound: enabledOutcome(n.Channels.Sound),
		Push:  enabledOutcome(n.Channels.Push),
	}

	if !n.Channels.Email && !n.Channels.Sound && !n.Channels.Push {
		return result
	}

	if !d.allow(n.Kind) {
		log.Printf("notify: %s for child %s collapsed by %s cooldown", n.Kind, n.ChildID, d.cooldown)
		return result.overrideQueued(OutcomeRateLimited)
	}

	select {
	case d.queue <- n:
	default:
		log.Printf("notify: queue full, dropping %s for child %s", n.Kind, n.ChildID)
		return result.overrideQueued(OutcomeDropped)
	}

	return result
}

// allow records the dispatch time for the kind and reports whether it is
// outside the cooldown window. The timestamp is recorded whether or not the
// eventual delivery succeeds.
func (d *Dispatcher) allow(kind models.AlertKind) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, ok := d.lastSent[kind]; ok && now.Sub(last) < d.cooldown {
		return false
	}
	d.lastSent[kind] = now
	return true
}

func (d *Dispatcher) worker() {
	for {
		select {
		case <-d.stopChan:
			return
		case n := <-d.queue:
			d.deliver(n)
		}
	}
}

// deliver sends on each enabled channel independently; one channel failing
// never blocks or fails the others.
func (d *Dispatcher) deliver(n Notification) {
	if n.Channels.Email && d.email != nil {
		if err := d.email.SendAlertEmail(n.Recipient, n.Kind, n.ChildID, n.Details); err != nil {
			log.Printf("notify: email delivery of %s to %s failed: %v", n.Kind, n.Recipient, err)
		}
	}
	if n.Channels.Sound && d.sound != nil {
		if err := d.sound.PlayAlert(n.ChildID, n.Kind); err != nil {
			log.Printf("notify: sound delivery of %s for child %s failed: %v", n.Kind, n.ChildID, err)
		}
	}
	if n.Channels.Push && d.push != nil {
		if err := d.push.PushAlert(n.ChildID, n.Kind, n.SessionID, n.Details); err != nil {
			log.Printf("notify: push delivery of %s for child %s failed: %v", n.Kind, n.ChildID, err)
		}
	}
}

func enabledOutcome(enabled bool) Outcome {
	if enabled {
		return OutcomeQueued
	}
	return OutcomeSkipped
}

func (r DispatchResult) overrideQueued(o Outcome) DispatchResult {
	if r.Email == OutcomeQueued {
		r.Email = o
	}
	if r.Sound == OutcomeQueued {
		r.Sound = o
	}
	if r.Push == OutcomeQueued {
		r.Push = o
	}
	return r
}
