package localstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	verifiedChannel = "shelby:admin:verified"
	verifiedLastKey = "shelby:admin:verified:last"

	// How long the marker survives for sessions that subscribe late.
	verifiedMarkerTTL = time.Minute
)

// VerifiedBroadcast is the cross-session notification channel for completed
// email verifications: the session that completes one publishes the email,
// every other session observes it.
type VerifiedBroadcast struct {
	client *redis.Client
}

// NewVerifiedBroadcast builds a broadcast handle on the shared Redis instance.
func NewVerifiedBroadcast(addr, password string) *VerifiedBroadcast {
	return &VerifiedBroadcast{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

// Publish announces that email's verification completed.
func (b *VerifiedBroadcast) Publish(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := b.client.Set(ctx, verifiedLastKey, email, verifiedMarkerTTL).Err(); err != nil {
		return err
	}
	return b.client.Publish(ctx, verifiedChannel, email).Err()
}

// Last reads the most recent marker, for sessions that started listening
// after the event fired. Missing marker reads as "no event".
func (b *VerifiedBroadcast) Last(ctx context.Context) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	email, err := b.client.Get(ctx, verifiedLastKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return email, true, nil
}

// Subscribe starts listening for verification announcements. The returned
// stop function is idempotent; after it runs the channel is closed.
func (b *VerifiedBroadcast) Subscribe(ctx context.Context) (<-chan string, func()) {
	sub := b.client.Subscribe(ctx, verifiedChannel)
	out := make(chan string, 1)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			select {
			case out <- msg.Payload:
			default:
				// single-slot: an undelivered event is still pending
			}
		}
	}()
	stop := sync.OnceFunc(func() {
		_ = sub.Close()
	})
	return out, stop
}
