package domain

import "errors"

// ErrSubmissionInFlight is returned when a submission is requested while
// one is already outstanding on the same form.
var ErrSubmissionInFlight = errors.New("submission already in flight")

// ErrNoBackend is returned when a form has no backend transport configured.
var ErrNoBackend = errors.New("no backend configured")

// ErrChannelClosed is returned when the realtime stream is gone. Callers
// degrade to pure user-driven interaction.
var ErrChannelClosed = errors.New("realtime channel closed")

// ErrSessionNotFound is returned by state stores when no snapshot exists
// for the requested session ID.
var ErrSessionNotFound = errors.New("session not found")
