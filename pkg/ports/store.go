package ports

import (
	"context"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
)

// StateStore persists session state snapshots between page visits. The
// backend remains authoritative: a restored snapshot is only the opening
// submission of the next visit.
type StateStore interface {
	Save(ctx context.Context, sessionID string, state domain.SessionState) error
	Load(ctx context.Context, sessionID string) (domain.SessionState, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

// UnlockFunc releases a held lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes session access across processes.
type DistributedLocker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
