package ports

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
)

// Backend is the submission transport. One call per submission cycle: the
// full state snapshot goes out, a fresh tree/state pair comes back.
//
// Implementations must not retry silently; a transport failure surfaces to
// the caller, which leaves the form idle with local edits intact.
type Backend interface {
	Submit(ctx context.Context, sub domain.Submission) (*domain.Response, error)
}

// BackendFunc adapts a plain function to the Backend interface.
type BackendFunc func(ctx context.Context, sub domain.Submission) (*domain.Response, error)

// Submit implements Backend.
func (f BackendFunc) Submit(ctx context.Context, sub domain.Submission) (*domain.Response, error) {
	return f(ctx, sub)
}
