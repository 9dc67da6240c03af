package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"shelbyadmin/internal/apiclient"
	"shelbyadmin/internal/localstore"
	"shelbyadmin/pkg/domain"
)

// reviewMessageTTL is how long a review-action message stays on screen.
const reviewMessageTTL = 3 * time.Second

// InboxController drives the admin verification-review screen. Approving a
// request also announces it on the shared broadcast so a session waiting on
// that email picks it up without polling.
type InboxController struct {
	client    *apiclient.Client
	broadcast *localstore.VerifiedBroadcast

	mu       sync.Mutex
	loading  bool
	busy     bool
	requests []domain.VerificationRequest
	errMsg   string
	okMsg    string
	msgTimer *time.Timer
	loadSeq  uint64
}

// NewInboxController builds the admin review controller.
func NewInboxController(client *apiclient.Client, broadcast *localstore.VerifiedBroadcast) *InboxController {
	return &InboxController{client: client, broadcast: broadcast}
}

// Load fetches every verification request. Stale completions of superseded
// loads are discarded.
func (c *InboxController) Load(ctx context.Context) {
	if c.sessionGone() {
		return
	}
	c.mu.Lock()
	c.loading = true
	c.errMsg = ""
	c.loadSeq++
	seq := c.loadSeq
	c.mu.Unlock()

	requests, err := c.client.AdminAllVerifications(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.loadSeq {
		return
	}
	c.loading = false
	if err != nil {
		c.errMsg = apiclient.Message(err, fallbackLoad)
		return
	}
	c.requests = requests
}

// Approve marks a request verified and announces it.
func (c *InboxController) Approve(ctx context.Context, email string) {
	c.review(ctx, email, "Request approved", func() error {
		if err := c.client.AdminApproveVerification(ctx, email); err != nil {
			return err
		}
		// Waiting sessions hear about it right away; the next poll would
		// catch it regardless.
		if err := c.broadcast.Publish(ctx, email); err != nil {
			slog.Warn("verified broadcast failed", "email", email, "err", err)
		}
		return nil
	})
}

// Reject declines a request.
func (c *InboxController) Reject(ctx context.Context, email string) {
	c.review(ctx, email, "Request rejected", func() error {
		return c.client.AdminRejectVerification(ctx, email)
	})
}

// Cancel removes a pending request. Nothing is issued unless the caller
// confirmed the action.
func (c *InboxController) Cancel(ctx context.Context, email string, confirmed bool) {
	if !confirmed {
		return
	}
	c.review(ctx, email, "Request cancelled", func() error {
		return c.client.AdminCancelVerification(ctx, email)
	})
}

func (c *InboxController) review(ctx context.Context, email, okMsg string, action func() error) {
	if c.sessionGone() {
		return
	}
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return
	}
	c.busy = true
	c.mu.Unlock()

	err := action()

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.errMsg = apiclient.Message(err, fallbackReview)
		c.mu.Unlock()
		return
	}
	if c.msgTimer != nil {
		c.msgTimer.Stop()
	}
	c.okMsg = okMsg
	c.msgTimer = time.AfterFunc(reviewMessageTTL, func() {
		c.mu.Lock()
		if c.okMsg == okMsg {
			c.okMsg = ""
		}
		c.mu.Unlock()
	})
	c.mu.Unlock()

	c.Load(ctx)
}

// sessionGone preempts calls the backend is guaranteed to 401: the admin
// endpoints are useless without a live session token.
func (c *InboxController) sessionGone() bool {
	if !c.client.SessionExpired() {
		return false
	}
	c.mu.Lock()
	c.errMsg = "Your session has expired. Please log in again."
	c.mu.Unlock()
	return true
}

// InboxState is a consistent read of the review screen state.
type InboxState struct {
	Loading  bool
	Busy     bool
	Requests []domain.VerificationRequest
	Error    string
	Success  string
}

// State returns a snapshot for rendering.
func (c *InboxController) State() InboxState {
	c.mu.Lock()
	defer c.mu.Unlock()
	requests := make([]domain.VerificationRequest, len(c.requests))
	copy(requests, c.requests)
	return InboxState{
		Loading:  c.loading,
		Busy:     c.busy,
		Requests: requests,
		Error:    c.errMsg,
		Success:  c.okMsg,
	}
}

// Close releases the message timer. Safe to call repeatedly.
func (c *InboxController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.msgTimer != nil {
		c.msgTimer.Stop()
		c.msgTimer = nil
	}
}
