package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"

	"shelbyadmin/internal/apiclient"
	"shelbyadmin/internal/localstore"
)

func liveSessionToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// adminBackend fakes the admin verification endpoints and counts the calls
// that reach it.
type adminBackend struct {
	mu       sync.Mutex
	lists    int
	approved []string
	rejected []string
	canceled []string
}

func (b *adminBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/user-verification/admin/all", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.lists++
		b.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"requests": []map[string]any{
				{"email": "ada@shelby.co", "status": "pending", "attempts": 1, "maxAttempts": 3},
			},
		})
	})
	record := func(slot *[]string, prefix string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			email := strings.TrimPrefix(r.URL.Path, prefix)
			b.mu.Lock()
			*slot = append(*slot, email)
			b.mu.Unlock()
			w.WriteHeader(http.StatusOK)
		}
	}
	mux.HandleFunc("/api/user-verification/admin/approve/", record(&b.approved, "/api/user-verification/admin/approve/"))
	mux.HandleFunc("/api/user-verification/admin/reject/", record(&b.rejected, "/api/user-verification/admin/reject/"))
	mux.HandleFunc("/api/user-verification/admin/cancel/", record(&b.canceled, "/api/user-verification/admin/cancel/"))
	return mux
}

func newInboxFixture(t *testing.T) (*InboxController, *adminBackend, *localstore.VerifiedBroadcast) {
	t.Helper()
	backend := &adminBackend{}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	broadcast := localstore.NewVerifiedBroadcast(mr.Addr(), "")

	client := apiclient.NewClient(srv.URL)
	client.SetSessionToken(liveSessionToken(t))

	ctrl := NewInboxController(client, broadcast)
	t.Cleanup(ctrl.Close)
	return ctrl, backend, broadcast
}

func TestInboxLoadListsRequests(t *testing.T) {
	ctrl, _, _ := newInboxFixture(t)

	ctrl.Load(context.Background())

	st := ctrl.State()
	if st.Error != "" {
		t.Fatalf("error = %q", st.Error)
	}
	if len(st.Requests) != 1 || st.Requests[0].Email != "ada@shelby.co" {
		t.Fatalf("requests = %+v", st.Requests)
	}
}

func TestApproveAnnouncesAndReloads(t *testing.T) {
	ctrl, backend, broadcast := newInboxFixture(t)
	ctrl.Load(context.Background())

	ctrl.Approve(context.Background(), "ada@shelby.co")

	backend.mu.Lock()
	approved, lists := backend.approved, backend.lists
	backend.mu.Unlock()
	if len(approved) != 1 || approved[0] != "ada@shelby.co" {
		t.Fatalf("approved = %v", approved)
	}
	if lists != 2 {
		t.Fatalf("list fetched %d times, want reload after approve", lists)
	}

	last, ok, err := broadcast.Last(context.Background())
	if err != nil || !ok {
		t.Fatalf("broadcast marker: ok=%v err=%v", ok, err)
	}
	if last != "ada@shelby.co" {
		t.Fatalf("broadcast marker = %q", last)
	}
	if st := ctrl.State(); st.Success != "Request approved" {
		t.Fatalf("success = %q", st.Success)
	}
}

func TestRejectDoesNotAnnounce(t *testing.T) {
	ctrl, backend, broadcast := newInboxFixture(t)

	ctrl.Reject(context.Background(), "ada@shelby.co")

	backend.mu.Lock()
	rejected := backend.rejected
	backend.mu.Unlock()
	if len(rejected) != 1 {
		t.Fatalf("rejected = %v", rejected)
	}
	if _, ok, _ := broadcast.Last(context.Background()); ok {
		t.Fatalf("reject must not announce a verification")
	}
}

func TestCancelRequiresConfirmation(t *testing.T) {
	ctrl, backend, _ := newInboxFixture(t)

	ctrl.Cancel(context.Background(), "ada@shelby.co", false)
	backend.mu.Lock()
	declined := len(backend.canceled)
	backend.mu.Unlock()
	if declined != 0 {
		t.Fatalf("declined cancel reached the network")
	}

	ctrl.Cancel(context.Background(), "ada@shelby.co", true)
	backend.mu.Lock()
	canceled := backend.canceled
	backend.mu.Unlock()
	if len(canceled) != 1 || canceled[0] != "ada@shelby.co" {
		t.Fatalf("canceled = %v", canceled)
	}
}

func TestExpiredSessionPreemptsAdminCalls(t *testing.T) {
	backend := &adminBackend{}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	mr := miniredis.RunT(t)

	client := apiclient.NewClient(srv.URL) // no session token at all
	ctrl := NewInboxController(client, localstore.NewVerifiedBroadcast(mr.Addr(), ""))
	t.Cleanup(ctrl.Close)

	ctrl.Load(context.Background())
	ctrl.Approve(context.Background(), "ada@shelby.co")

	backend.mu.Lock()
	lists, approved := backend.lists, len(backend.approved)
	backend.mu.Unlock()
	if lists != 0 || approved != 0 {
		t.Fatalf("expired session still reached the backend: lists=%d approved=%d", lists, approved)
	}
	if st := ctrl.State(); st.Error == "" {
		t.Fatalf("expected a session-expired message")
	}
}
