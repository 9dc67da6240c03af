package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoginStoresSessionToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["identifier"] != "tommy" || body["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "session-token",
			"user":  map[string]any{"id": 1, "username": "tommy", "email": "tommy@shelby.co"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	user, err := c.Login(context.Background(), "tommy", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Username != "tommy" {
		t.Fatalf("user = %+v", user)
	}
	if c.SessionToken() != "session-token" {
		t.Fatalf("session token not stored, got %q", c.SessionToken())
	}

	_, err = c.Login(context.Background(), "tommy", "wrong")
	if err == nil {
		t.Fatalf("expected auth error")
	}
	if Classify(err) != KindAuth {
		t.Fatalf("Classify = %v, want KindAuth", Classify(err))
	}
}

func TestLoginDetectsEmailNotVerified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "email not verified",
			"code":  "EMAIL_NOT_VERIFIED",
			"email": "tommy@shelby.co",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Login(context.Background(), "tommy", "pw")
	var notVerified *EmailNotVerifiedError
	if !errors.As(err, &notVerified) {
		t.Fatalf("expected EmailNotVerifiedError, got %v", err)
	}
	if notVerified.Email != "tommy@shelby.co" {
		t.Fatalf("carried email = %q", notVerified.Email)
	}
	if c.SessionToken() != "" {
		t.Fatalf("no token should be stored on failure")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	c := NewClient("http://localhost:0")
	c.SetSessionToken("tok")
	c.Logout()
	if c.SessionToken() != "" {
		t.Fatalf("logout must clear the token")
	}
}
