package verifywatch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"shelbyadmin/pkg/domain"
)

type fakeBroadcast struct {
	ch      chan string
	stopped atomic.Int32
}

func newFakeBroadcast() *fakeBroadcast {
	return &fakeBroadcast{ch: make(chan string, 4)}
}

func (f *fakeBroadcast) Subscribe(ctx context.Context) (<-chan string, func()) {
	return f.ch, func() { f.stopped.Add(1) }
}

func statusSequence(statuses ...domain.VerificationStatus) StatusFunc {
	var calls atomic.Int64
	return func(ctx context.Context, email string) (domain.VerificationStatus, error) {
		n := calls.Add(1)
		if int(n) > len(statuses) {
			return statuses[len(statuses)-1], nil
		}
		return statuses[n-1], nil
	}
}

func TestPollingDetectsVerification(t *testing.T) {
	broadcast := newFakeBroadcast()
	w := New(statusSequence(domain.VerificationPending, domain.VerificationVerified), broadcast, 10*time.Millisecond)

	h := w.Start("user@example.com")
	defer h.Stop()

	select {
	case ev := <-h.Events():
		if ev.Email != "user@example.com" || ev.Source != SourcePoll {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("poll never detected verification")
	}
}

func TestBroadcastDetectsVerificationCaseInsensitively(t *testing.T) {
	broadcast := newFakeBroadcast()
	w := New(statusSequence(domain.VerificationPending), broadcast, time.Hour)

	h := w.Start("User@Example.com")
	defer h.Stop()

	broadcast.ch <- "other@example.com" // ignored
	broadcast.ch <- "user@EXAMPLE.com"

	select {
	case ev := <-h.Events():
		if ev.Source != SourceBroadcast {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("broadcast never detected verification")
	}
}

func TestBothTriggersFireExactlyOneEvent(t *testing.T) {
	broadcast := newFakeBroadcast()
	w := New(statusSequence(domain.VerificationVerified), broadcast, 5*time.Millisecond)

	h := w.Start("user@example.com")
	defer h.Stop()
	broadcast.ch <- "user@example.com"

	var events int
	deadline := time.After(300 * time.Millisecond)
	for {
		select {
		case <-h.Events():
			events++
		case <-deadline:
			if events != 1 {
				t.Fatalf("got %d events, want exactly 1", events)
			}
			return
		}
	}
}

func TestStatusErrorsKeepPolling(t *testing.T) {
	broadcast := newFakeBroadcast()
	var calls atomic.Int64
	status := func(ctx context.Context, email string) (domain.VerificationStatus, error) {
		if calls.Add(1) < 3 {
			return "", context.DeadlineExceeded
		}
		return domain.VerificationVerified, nil
	}
	w := New(status, broadcast, 5*time.Millisecond)
	h := w.Start("user@example.com")
	defer h.Stop()

	select {
	case <-h.Events():
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher gave up after status errors")
	}
	if calls.Load() < 3 {
		t.Fatalf("expected repeated polls, got %d", calls.Load())
	}
}

func TestStopIsIdempotentAndReleasesBroadcast(t *testing.T) {
	broadcast := newFakeBroadcast()
	w := New(statusSequence(domain.VerificationPending), broadcast, time.Hour)

	h := w.Start("user@example.com")
	h.Stop()
	h.Stop()

	// The run loop exits on cancellation and releases the subscription.
	deadline := time.Now().Add(time.Second)
	for broadcast.stopped.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("broadcast subscription never released")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
