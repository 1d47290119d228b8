// Package redis provides Redis-backed session persistence: a state store
// for snapshots and a distributed lock for cross-process session access.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Store implements ports.StateStore on Redis. Snapshots are JSON values
// under <prefix>session:<id>, with an optional TTL.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ ports.StateStore = (*Store)(nil)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStorePrefix overrides the key prefix (default "lattice:").
func WithStorePrefix(prefix string) StoreOption {
	return func(s *Store) { s.prefix = prefix }
}

// WithTTL expires snapshots after d. Zero keeps them forever.
func WithTTL(d time.Duration) StoreOption {
	return func(s *Store) { s.ttl = d }
}

// NewStore creates a Store on an existing client.
func NewStore(client *backend.Client, opts ...StoreOption) *Store {
	s := &Store{client: client, prefix: "lattice:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(sessionID string) string {
	return s.prefix + "session:" + sessionID
}

// Save persists a snapshot.
func (s *Store) Save(ctx context.Context, sessionID string, state domain.SessionState) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis error saving session: %w", err)
	}
	return nil
}

// Load retrieves a snapshot, or domain.ErrSessionNotFound.
func (s *Store) Load(ctx context.Context, sessionID string) (domain.SessionState, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID cannot be empty")
	}
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis error loading session: %w", err)
	}
	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return state, nil
}

// Delete removes a snapshot. Missing is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis error deleting session: %w", err)
	}
	return nil
}

// List returns stored session IDs by scanning the key space.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var sessions []string
	pattern := s.key("*")
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		sessions = append(sessions, iter.Val()[len(s.prefix)+len("session:"):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis error listing sessions: %w", err)
	}
	return sessions, nil
}
