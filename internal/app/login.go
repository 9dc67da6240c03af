package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"shelbyadmin/internal/apiclient"
	"shelbyadmin/internal/localstore"
	"shelbyadmin/internal/verifywatch"
)

// LoginController drives the login screen, including the blocked-on-
// verification continuation: when a login fails because the email is not
// verified, the credentials are parked in the shared store and a watch is
// started; the first verified event (poll or broadcast) replays the login.
type LoginController struct {
	client        *apiclient.Client
	pending       *localstore.PendingAuthStore
	watcher       *verifywatch.Watcher
	redirectDelay time.Duration
	onRedirect    func()

	mu            sync.Mutex
	username      string
	authenticated bool
	waiting       bool
	errMsg        string
	infoMsg       string
	handle        *verifywatch.Handle
	redirectTimer *time.Timer

	closed    chan struct{}
	closeOnce sync.Once
}

// NewLoginController wires the login flow. onRedirect runs redirectDelay
// after a successful login, once the success animation has had its moment.
func NewLoginController(client *apiclient.Client, pending *localstore.PendingAuthStore, watcher *verifywatch.Watcher, redirectDelay time.Duration, onRedirect func()) *LoginController {
	if onRedirect == nil {
		onRedirect = func() {}
	}
	return &LoginController{
		client:        client,
		pending:       pending,
		watcher:       watcher,
		redirectDelay: redirectDelay,
		onRedirect:    onRedirect,
		closed:        make(chan struct{}),
	}
}

// Login attempts to authenticate. The not-verified failure parks the
// credentials and starts the verification watch instead of surfacing an
// error.
func (l *LoginController) Login(ctx context.Context, identifier, password string) {
	user, err := l.client.Login(ctx, identifier, password)
	if err == nil {
		l.mu.Lock()
		l.username = user.Username
		l.authenticated = true
		l.errMsg = ""
		l.infoMsg = ""
		l.scheduleRedirectLocked()
		l.mu.Unlock()
		return
	}

	var notVerified *apiclient.EmailNotVerifiedError
	if errors.As(err, &notVerified) {
		email := strings.TrimSpace(notVerified.Email)
		if email == "" {
			// Login was attempted with the email itself.
			email = strings.TrimSpace(identifier)
		}
		if saveErr := l.pending.Save(ctx, localstore.PendingAuth{Email: email, Password: password}); saveErr != nil {
			slog.Warn("could not park pending credentials", "err", saveErr)
		}
		l.startWatch(email)
		return
	}

	l.mu.Lock()
	l.errMsg = apiclient.Message(err, fallbackLogin)
	l.mu.Unlock()
}

func (l *LoginController) startWatch(email string) {
	l.mu.Lock()
	if l.handle != nil {
		l.handle.Stop()
	}
	handle := l.watcher.Start(email)
	l.handle = handle
	l.waiting = true
	l.errMsg = ""
	l.infoMsg = "Your email is not verified yet. Waiting for verification…"
	l.mu.Unlock()

	go l.consume(handle)
}

func (l *LoginController) consume(handle *verifywatch.Handle) {
	select {
	case ev := <-handle.Events():
		l.resume(ev)
	case <-l.closed:
	}
}

// resume is the VerifiedDetected transition: consume the parked credentials
// and replay the login, or tell the user to log in manually.
func (l *LoginController) resume(ev verifywatch.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pending, ok, err := l.pending.Load(ctx)
	if err != nil {
		slog.Warn("pending credentials unreadable", "err", err)
		ok = false
	}

	l.mu.Lock()
	l.waiting = false
	if l.handle != nil {
		l.handle.Stop()
	}
	l.mu.Unlock()

	if !ok {
		l.setInfo("Email verified. Please log in.")
		return
	}
	if !strings.EqualFold(pending.Email, ev.Email) {
		// The event belongs to someone else's verification; the parked
		// credentials are consumed without a login attempt.
		_ = l.pending.Clear(ctx)
		l.setInfo("Email verified. Please log in.")
		return
	}

	user, loginErr := l.client.Login(ctx, pending.Email, pending.Password)
	if clearErr := l.pending.Clear(ctx); clearErr != nil {
		slog.Warn("could not clear pending credentials", "err", clearErr)
	}
	if loginErr != nil {
		l.mu.Lock()
		l.errMsg = apiclient.Message(loginErr, fallbackAutoLogin)
		l.infoMsg = ""
		l.mu.Unlock()
		return
	}

	l.mu.Lock()
	l.username = user.Username
	l.authenticated = true
	l.errMsg = ""
	l.infoMsg = "Email verified. Welcome back."
	l.scheduleRedirectLocked()
	l.mu.Unlock()
}

func (l *LoginController) scheduleRedirectLocked() {
	if l.redirectTimer != nil {
		l.redirectTimer.Stop()
	}
	l.redirectTimer = time.AfterFunc(l.redirectDelay, l.onRedirect)
}

func (l *LoginController) setInfo(msg string) {
	l.mu.Lock()
	l.infoMsg = msg
	l.errMsg = ""
	l.mu.Unlock()
}

// RequestVerification files a verification request for an email address.
func (l *LoginController) RequestVerification(ctx context.Context, email string) {
	if _, err := l.client.RequestVerification(ctx, email); err != nil {
		l.mu.Lock()
		l.errMsg = apiclient.Message(err, fallbackReview)
		l.mu.Unlock()
		return
	}
	l.setInfo("Verification requested. Check your inbox.")
}

// ResendVerification re-sends the verification mail for a pending request.
func (l *LoginController) ResendVerification(ctx context.Context, email string) {
	if _, err := l.client.ResendVerification(ctx, email); err != nil {
		l.mu.Lock()
		l.errMsg = apiclient.Message(err, fallbackReview)
		l.mu.Unlock()
		return
	}
	l.setInfo("Verification mail sent again.")
}

// LoginState is a consistent read of the login screen state.
type LoginState struct {
	Username      string
	Authenticated bool
	Waiting       bool
	Error         string
	Info          string
}

// State returns a snapshot for rendering.
func (l *LoginController) State() LoginState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LoginState{
		Username:      l.username,
		Authenticated: l.authenticated,
		Waiting:       l.waiting,
		Error:         l.errMsg,
		Info:          l.infoMsg,
	}
}

// Close tears the flow down: the watch stops, the redirect timer is
// cancelled, the consumer goroutine exits. Idempotent.
func (l *LoginController) Close() {
	l.closeOnce.Do(func() {
		close(l.closed)
		l.mu.Lock()
		if l.handle != nil {
			l.handle.Stop()
		}
		if l.redirectTimer != nil {
			l.redirectTimer.Stop()
		}
		l.waiting = false
		l.mu.Unlock()
	})
}
