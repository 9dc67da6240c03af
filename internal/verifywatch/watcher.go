// Package verifywatch detects, from inside a login session, that an email
// verification completed somewhere else: either by polling the status
// endpoint or by observing the shared-store broadcast another session wrote.
package verifywatch

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"shelbyadmin/pkg/domain"
)

// Source identifies which trigger observed the verification first.
type Source string

const (
	SourcePoll      Source = "poll"
	SourceBroadcast Source = "broadcast"
)

// Event is the single notification a watch produces.
type Event struct {
	Email  string
	Source Source
}

// StatusFunc checks the current verification status for an email.
type StatusFunc func(ctx context.Context, email string) (domain.VerificationStatus, error)

// Broadcast is the subscribe side of the shared verified-announcement channel.
type Broadcast interface {
	Subscribe(ctx context.Context) (<-chan string, func())
}

// Watcher owns the polling cadence and broadcast wiring for verification
// watches. One Watcher can start any number of independent handles.
type Watcher struct {
	status    StatusFunc
	broadcast Broadcast
	interval  time.Duration
}

// New builds a watcher. interval is the polling period; zero means 3s.
func New(status StatusFunc, broadcast Broadcast, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Watcher{status: status, broadcast: broadcast, interval: interval}
}

// Start begins watching for email's verification. The returned handle emits
// at most one event; both triggers feed the same consuming loop, so whichever
// fires first wins and the other is stopped as a side effect.
func (w *Watcher) Start(email string) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		events: make(chan Event, 1),
		cancel: cancel,
	}
	broadcastCh, stopBroadcast := w.broadcast.Subscribe(ctx)
	go w.run(ctx, email, h, broadcastCh, stopBroadcast)
	return h
}

func (w *Watcher) run(ctx context.Context, email string, h *Handle, broadcastCh <-chan string, stopBroadcast func()) {
	defer stopBroadcast()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status, err := w.status(ctx, email)
			if err != nil {
				// Best-effort check; keep polling.
				slog.Debug("verification status check failed", "email", email, "err", err)
				continue
			}
			if status == domain.VerificationVerified {
				h.deliver(Event{Email: email, Source: SourcePoll})
				return
			}
		case announced, ok := <-broadcastCh:
			if !ok {
				broadcastCh = nil
				continue
			}
			if strings.EqualFold(announced, email) {
				h.deliver(Event{Email: announced, Source: SourceBroadcast})
				return
			}
		}
	}
}

// Handle is one active watch. Stop is safe to call repeatedly and when
// nothing is active anymore.
type Handle struct {
	events chan Event
	cancel context.CancelFunc
	once   sync.Once
}

// Events returns the single-slot notification channel. It never closes; a
// consumer selects on it alongside its own teardown signal.
func (h *Handle) Events() <-chan Event {
	return h.events
}

// Stop tears the watch down: the poll timer stops and the broadcast
// subscription is released.
func (h *Handle) Stop() {
	h.once.Do(h.cancel)
}

func (h *Handle) deliver(ev Event) {
	select {
	case h.events <- ev:
	default:
	}
	h.Stop()
}
