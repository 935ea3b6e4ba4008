package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func ownerChannel(ownerID string) string {
	return "documents:user:" + ownerID
}

var _ Notifier = (*RedisNotifier)(nil)

// RedisNotifier publishes events to a per-owner redis pub/sub channel.
// Subscribers (the SSE endpoint, other server replicas) receive the events
// without any acknowledgment back to the publisher.
type RedisNotifier struct {
	rdb *redis.Client
}

func NewRedisNotifier(rdb *redis.Client) (*RedisNotifier, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisNotifier{rdb: rdb}, nil
}

func (n *RedisNotifier) Notify(ctx context.Context, ownerID string, event Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, ownerChannel(ownerID), raw).Err()
}

// Subscribe returns a channel of events published for the owner. The caller
// must invoke the returned stop function when done.
func (n *RedisNotifier) Subscribe(ctx context.Context, ownerID string) (<-chan Event, func(), error) {
	sub := n.rdb.Subscribe(ctx, ownerChannel(ownerID))

	// ensures the subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis subscribe: %w", err)
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
					logrus.Warnf("bad notify payload on %s: %v", m.Channel, err)
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	stop := func() {
		_ = sub.Close()
	}

	return events, stop, nil
}
