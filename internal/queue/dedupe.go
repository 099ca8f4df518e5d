package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper remembers Slack event IDs so redelivered events are enqueued once.
type Deduper interface {
	// FirstDelivery reports whether eventID has not been seen within the TTL.
	FirstDelivery(ctx context.Context, eventID string) (bool, error)
	// Forget releases eventID so a redelivery is accepted again.
	Forget(ctx context.Context, eventID string) error
}

type redisDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, prefix string, ttl time.Duration) Deduper {
	if prefix == "" {
		prefix = "slackbridge:event"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &redisDeduper{client: client, prefix: prefix, ttl: ttl}
}

func (d *redisDeduper) FirstDelivery(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return true, nil
	}
	ok, err := d.client.SetNX(ctx, d.key(eventID), 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", eventID, err)
	}
	return ok, nil
}

func (d *redisDeduper) Forget(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}
	if err := d.client.Del(ctx, d.key(eventID)).Err(); err != nil {
		return fmt.Errorf("del %s: %w", eventID, err)
	}
	return nil
}

func (d *redisDeduper) key(eventID string) string {
	return d.prefix + ":" + eventID
}
