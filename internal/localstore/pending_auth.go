package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// pendingAuthKey is the fixed name the pending credentials live under. Every
// session of the app reads and writes the same slot.
const pendingAuthKey = "shelby:admin:pendingauth"

// PendingAuth holds the credentials captured when a login attempt was blocked
// on email verification, kept verbatim so the login can be replayed.
type PendingAuth struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PendingAuthStore persists the single pending auto-login slot in the shared
// key-value store.
type PendingAuthStore struct {
	client *redis.Client
}

// NewPendingAuthStore builds a store against the shared Redis instance.
func NewPendingAuthStore(addr, password string) *PendingAuthStore {
	return &PendingAuthStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

// Save writes the pending credentials, replacing any previous slot.
func (s *PendingAuthStore) Save(ctx context.Context, pending PendingAuth) error {
	if pending.Email == "" {
		return errors.New("pending auth requires an email")
	}
	raw, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Set(ctx, pendingAuthKey, raw, 0).Err()
}

// Load reads the pending credentials. A missing or malformed slot reads as
// "nothing pending" rather than an error.
func (s *PendingAuthStore) Load(ctx context.Context) (PendingAuth, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	raw, err := s.client.Get(ctx, pendingAuthKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return PendingAuth{}, false, nil
	}
	if err != nil {
		return PendingAuth{}, false, err
	}
	var pending PendingAuth
	if err := json.Unmarshal(raw, &pending); err != nil || pending.Email == "" {
		return PendingAuth{}, false, nil
	}
	return pending, true, nil
}

// Clear deletes the slot. Clearing an absent slot is a no-op.
func (s *PendingAuthStore) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.client.Del(ctx, pendingAuthKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
