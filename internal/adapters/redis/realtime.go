// Package redis implements the realtime push side channel over Redis
// pub/sub. Backends publish "something changed" pings on named channels;
// the client subscribes to the channel set from its latest response and
// resubmits on every event.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/lattice/internal/logging"
)

// Realtime is a ports.RealtimeSource backed by Redis pub/sub. It also
// carries the publisher half so background workers can push state and
// wake every subscribed client.
type Realtime struct {
	client *backend.Client
	prefix string
	logger *slog.Logger
}

// Option configures Realtime.
type Option func(*Realtime)

// WithPrefix sets the channel key prefix.
func WithPrefix(prefix string) Option {
	return func(r *Realtime) { r.prefix = prefix }
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Realtime) { r.logger = logger }
}

// New creates a Realtime bridge with its own client.
func New(address, password string, db int, opts ...Option) *Realtime {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Realtime bridge from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Realtime {
	r := &Realtime{
		client: client,
		prefix: "lattice:state:",
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Realtime) key(channel string) string {
	return r.prefix + channel
}

// Subscribe opens a pub/sub subscription for the given channels and
// returns a coalescing event stream: one pending tick at most, since the
// only meaning of an event is "resubmit". The stream closes when ctx is
// canceled or the connection dies.
func (r *Realtime) Subscribe(ctx context.Context, channels []string) (<-chan struct{}, error) {
	if len(channels) == 0 {
		out := make(chan struct{})
		close(out)
		return out, nil
	}

	keys := make([]string, len(channels))
	for i, ch := range channels {
		keys[i] = r.key(ch)
	}

	pubsub := r.client.Subscribe(ctx, keys...)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	r.logger.Debug("realtime subscribed", "channels", channels)

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer pubsub.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				r.logger.Debug("realtime unsubscribed", "channels", channels)
				return
			case msg, ok := <-msgs:
				if !ok {
					// stream failure degrades to user-driven interaction
					r.logger.Warn("realtime stream closed")
					return
				}
				select {
				case out <- struct{}{}:
				default:
					// a tick is already pending; coalesce
				}
				_ = msg
			}
		}
	}()
	return out, nil
}

// Publish stores value under the channel key (with optional expiry) and
// pings every subscriber. The stored value is what Pull returns; the ping
// payload is just the publish timestamp.
func (r *Realtime) Publish(ctx context.Context, channel string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal channel value: %w", err)
	}

	key := r.key(channel)
	pipe := r.client.Pipeline()
	pipe.Set(ctx, key, data, ttl)
	pipe.Publish(ctx, key, fmt.Sprintf("%d", time.Now().UnixMilli()))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}

	r.logger.Info("publish", "channel", key)
	return nil
}

// Pull reads the last stored value for each channel, nil where a channel
// has no value or holds malformed JSON.
func (r *Realtime) Pull(ctx context.Context, channels []string) ([]any, error) {
	out := make([]any, len(channels))
	for i, ch := range channels {
		val, err := r.client.Get(ctx, r.key(ch)).Result()
		if err != nil {
			if err == backend.Nil {
				continue
			}
			return nil, fmt.Errorf("failed to read channel %s: %w", ch, err)
		}
		var decoded any
		if err := json.Unmarshal([]byte(val), &decoded); err != nil {
			continue
		}
		out[i] = decoded
	}
	return out, nil
}

// Close closes the underlying client.
func (r *Realtime) Close() error {
	return r.client.Close()
}
