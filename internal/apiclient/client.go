package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Client calls the council backend over HTTP. A single client is shared by
// every resource; the session token set after login is attached to all
// subsequent requests.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.Mutex
	token string
}

// APIError represents a backend error response.
type APIError struct {
	Status  int
	Message string
	Code    string
	// Email is set on the email-not-verified error shape when the backend
	// resolves a username login to its account email.
	Email string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// TransportError wraps a network-level failure: the request never produced an
// HTTP status (the "status 0" case).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewClient constructs a backend client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// SetSessionToken stores the bearer token attached to subsequent requests.
// An empty token clears the session.
func (c *Client) SetSessionToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

// SessionToken returns the current bearer token, if any.
func (c *Client) SessionToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// do issues one request and returns the raw response body for 2xx statuses.
// Error responses are decoded into *APIError; network failures are wrapped
// in *TransportError.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if token := c.SessionToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
			Code    string `json:"code"`
			Email   string `json:"email"`
		}
		_ = json.Unmarshal(raw, &errResp)
		msg := errResp.Error
		if msg == "" {
			msg = errResp.Message
		}
		return nil, &APIError{
			Status:  resp.StatusCode,
			Message: msg,
			Code:    strings.TrimSpace(errResp.Code),
			Email:   strings.TrimSpace(errResp.Email),
		}
	}
	return raw, nil
}

// doJSON issues a request and decodes the (data-unwrapped) response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	raw, err := c.do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(unwrapData(raw), out)
}

// Kind classifies an error per the failure taxonomy the controllers act on.
type Kind int

const (
	KindNone Kind = iota
	KindTransport
	KindAuth
	KindConflict
	KindServer
	KindDomain
)

// Classify maps an error returned by this package to its taxonomy kind.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	var te *TransportError
	if errors.As(err, &te) {
		return KindTransport
	}
	var ae *APIError
	if !errors.As(err, &ae) {
		return KindTransport
	}
	switch {
	case ae.Status == http.StatusUnauthorized,
		ae.Status == http.StatusNotFound,
		ae.Status == http.StatusTooManyRequests:
		return KindAuth
	case ae.Status == http.StatusConflict:
		return KindConflict
	case ae.Status >= 500:
		return KindServer
	default:
		return KindDomain
	}
}

// Message returns the server-supplied message verbatim when present, else the
// fallback. Transport failures never carry a user-facing message.
func Message(err error, fallback string) string {
	var ae *APIError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return fallback
}
