package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"gm-ticket-service/internal/model"

	"github.com/redis/go-redis/v9"
)

// Event is a ticket lifecycle event broadcast to GM tooling.
type Event struct {
	Kind      string         `json:"kind"` // created, closed, deleted, system_on, system_off
	Owner     model.PlayerID `json:"owner,omitempty"`
	Text      string         `json:"text,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Announcer broadcasts ticket lifecycle events. A nil *RedisAnnouncer is a
// valid no-op announcer, so callers never need to nil-check.
type Announcer interface {
	Announce(ctx context.Context, event Event)
}

// RedisAnnouncer publishes events as JSON on a redis pub/sub channel. This
// replaces the in-world "new ticket" whisper to GMs: GM dashboards and bots
// subscribe to the channel instead.
type RedisAnnouncer struct {
	client  *redis.Client
	channel string
}

// NewRedisAnnouncer creates an announcer publishing on the given channel.
// Returns an error if redis is unreachable.
func NewRedisAnnouncer(client *redis.Client, channel string) (*RedisAnnouncer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Printf("[RedisAnnouncer] Publishing ticket events on channel %q", channel)
	return &RedisAnnouncer{client: client, channel: channel}, nil
}

// Announce publishes the event. Publish failures are logged and dropped;
// announcements are advisory and never block ticket operations.
func (a *RedisAnnouncer) Announce(ctx context.Context, event Event) {
	if a == nil {
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[RedisAnnouncer] Failed to marshal %s event: %v", event.Kind, err)
		return
	}

	if err := a.client.Publish(ctx, a.channel, payload).Err(); err != nil {
		log.Printf("[RedisAnnouncer] Failed to publish %s event: %v", event.Kind, err)
	}
}

// Close closes the underlying redis client.
func (a *RedisAnnouncer) Close() error {
	if a == nil {
		return nil
	}
	return a.client.Close()
}

// Ensure RedisAnnouncer implements Announcer
var _ Announcer = (*RedisAnnouncer)(nil)
