package ports

import "context"

// RealtimeSource delivers server push events for a named set of channels.
// Each event is opaque: its only meaning is "something changed, resubmit".
//
// Subscribe replaces any previous subscription with the given channel set
// (the set comes from the latest backend response). The returned channel is
// closed when the subscription ends or the stream fails; consumers treat a
// closed stream as "no channel" and degrade to user-driven interaction.
type RealtimeSource interface {
	Subscribe(ctx context.Context, channels []string) (<-chan struct{}, error)
}
