package notify

import (
	"errors"
	"testing"
	"time"

	"guardian-backend/internal/models"
)

type sentAlert struct {
	to      string
	kind    models.AlertKind
	childID string
}

type fakeEmailSender struct {
	calls chan sentAlert
	err   error
}

func (f *fakeEmailSender) SendAlertEmail(to string, kind models.AlertKind, childID, details string) error {
	f.calls <- sentAlert{to: to, kind: kind, childID: childID}
	return f.err
}

type fakeSoundSender struct {
	calls chan sentAlert
}

func (f *fakeSoundSender) PlayAlert(childID string, kind models.AlertKind) error {
	f.calls <- sentAlert{kind: kind, childID: childID}
	return nil
}

type fakePushSender struct {
	calls chan sentAlert
}

func (f *fakePushSender) PushAlert(childID string, kind models.AlertKind, sessionID, details string) error {
	f.calls <- sentAlert{kind: kind, childID: childID}
	return nil
}

func newFakes() (*fakeEmailSender, *fakeSoundSender, *fakePushSender) {
	return &fakeEmailSender{calls: make(chan sentAlert, 16)},
		&fakeSoundSender{calls: make(chan sentAlert, 16)},
		&fakePushSender{calls: make(chan sentAlert, 16)}
}

func waitForCall(t *testing.T, ch chan sentAlert) sentAlert {
	t.Helper()
	select {
	case call := <-ch:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sender call")
		return sentAlert{}
	}
}

func expectNoCall(t *testing.T, ch chan sentAlert) {
	t.Helper()
	select {
	case call := <-ch:
		t.Fatalf("unexpected sender call: %+v", call)
	case <-time.After(100 * time.Millisecond):
	}
}

func allChannels() Channels {
	return Channels{Email: true, Sound: true, Push: true}
}

func TestDispatch_FansOutToAllEnabledChannels(t *testing.T) {
	email, sound, push := newFakes()
	d := NewDispatcher(email, sound, push, 8)
	d.Start()
	defer d.Stop()

	result := d.Dispatch(Notification{
		Kind:      models.AlertLeaveTooLong,
		ChildID:   "child_001",
		Recipient: "parent@example.com",
		Channels:  allChannels(),
	})

	if result.Email != OutcomeQueued || result.Sound != OutcomeQueued || result.Push != OutcomeQueued {
		t.Fatalf("expected all channels queued, got %+v", result)
	}

	if call := waitForCall(t, email.calls); call.to != "parent@example.com" {
		t.Errorf("email sent to %q, expected parent@example.com", call.to)
	}
	waitForCall(t, sound.calls)
	waitForCall(t, push.calls)
}

func TestDispatch_DisabledChannelsSkipped(t *testing.T) {
	email, sound, push := newFakes()
	d := NewDispatcher(email, sound, push, 8)
	d.Start()
	defer d.Stop()

	result := d.Dispatch(Notification{
		Kind:      models.AlertPlayWhileWork,
		ChildID:   "child_001",
		Recipient: "parent@example.com",
		Channels:  Channels{Email: true},
	})

	if result.Email != OutcomeQueued {
		t.Errorf("expected email queued, got %s", result.Email)
	}
	if result.Sound != OutcomeSkipped || result.Push != OutcomeSkipped {
		t.Errorf("expected sound/push skipped, got %+v", result)
	}

	waitForCall(t, email.calls)
	expectNoCall(t, sound.calls)
	expectNoCall(t, push.calls)
}

func TestDispatch_CooldownCollapsesRepeats(t *testing.T) {
	email, sound, push := newFakes()
	d := NewDispatcher(email, sound, push, 8)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	d.Start()
	defer d.Stop()

	n := Notification{
		Kind:      models.AlertLeaveTooLong,
		ChildID:   "child_001",
		Recipient: "parent@example.com",
		Channels:  allChannels(),
	}

	first := d.Dispatch(n)
	if first.Email != OutcomeQueued {
		t.Fatalf("first dispatch should queue, got %+v", first)
	}

	now = now.Add(30 * time.Second)
	second := d.Dispatch(n)
	if second.Email != OutcomeRateLimited || second.Sound != OutcomeRateLimited {
		t.Fatalf("second dispatch inside cooldown should be rate limited, got %+v", second)
	}

	// Exactly one delivery attempt per channel.
	waitForCall(t, email.calls)
	waitForCall(t, sound.calls)
	waitForCall(t, push.calls)
	expectNoCall(t, email.calls)
	expectNoCall(t, sound.calls)
	expectNoCall(t, push.calls)
}

func TestDispatch_CooldownExpires(t *testing.T) {
	email, sound, push := newFakes()
	d := NewDispatcher(email, sound, push, 8)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	d.Start()
	defer d.Stop()

	n := Notification{Kind: models.AlertPlayWhileWork, ChildID: "child_001", Channels: Channels{Sound: true}}

	d.Dispatch(n)
	now = now.Add(61 * time.Second)
	if result := d.Dispatch(n); result.Sound != OutcomeQueued {
		t.Fatalf("dispatch after cooldown should queue, got %+v", result)
	}

	waitForCall(t, sound.calls)
	waitForCall(t, sound.calls)
}

func TestDispatch_CooldownIsPerKind(t *testing.T) {
	email, sound, push := newFakes()
	d := NewDispatcher(email, sound, push, 8)
	d.Start()
	defer d.Stop()

	d.Dispatch(Notification{Kind: models.AlertLeaveTooLong, ChildID: "c", Channels: Channels{Sound: true}})
	result := d.Dispatch(Notification{Kind: models.AlertPlayWhileWork, ChildID: "c", Channels: Channels{Sound: true}})

	if result.Sound != OutcomeQueued {
		t.Fatalf("different kind should not share cooldown, got %+v", result)
	}
}

func TestDispatch_QueueOverflowDrops(t *testing.T) {
	email, sound, push := newFakes()
	// Worker not started, queue of one: second dispatch overflows.
	d := NewDispatcher(email, sound, push, 1)

	first := d.Dispatch(Notification{Kind: models.AlertLeaveTooLong, ChildID: "c", Channels: Channels{Email: true}})
	if first.Email != OutcomeQueued {
		t.Fatalf("first dispatch should queue, got %+v", first)
	}

	second := d.Dispatch(Notification{Kind: models.AlertPlayWhileWork, ChildID: "c", Channels: Channels{Email: true}})
	if second.Email != OutcomeDropped {
		t.Fatalf("overflow dispatch should drop, got %+v", second)
	}
}

func TestDeliver_EmailFailureDoesNotBlockOtherChannels(t *testing.T) {
	email, sound, push := newFakes()
	email.err = errors.New("smtp unreachable")

	d := NewDispatcher(email, sound, push, 8)
	d.Start()
	defer d.Stop()

	d.Dispatch(Notification{
		Kind:      models.AlertLeaveTooLong,
		ChildID:   "child_001",
		Recipient: "parent@example.com",
		Channels:  allChannels(),
	})

	waitForCall(t, email.calls)
	waitForCall(t, sound.calls)
	waitForCall(t, push.calls)
}

func TestDispatch_NoEnabledChannelsIsNoop(t *testing.T) {
	email, sound, push := newFakes()
	d := NewDispatcher(email, sound, push, 8)
	d.Start()
	defer d.Stop()

	result := d.Dispatch(Notification{Kind: models.AlertLeaveTooLong, ChildID: "c"})
	if result.Email != OutcomeSkipped || result.Sound != OutcomeSkipped || result.Push != OutcomeSkipped {
		t.Fatalf("expected all skipped, got %+v", result)
	}

	expectNoCall(t, email.calls)
}
