/*
Package runtime implements the change/submit orchestrator: the per-form
state machine that decides, for every change event, whether to debounce,
submit immediately, or wait for focus loss, then packages the session
state into one outgoing submission and applies the response wholesale.

All event handling is serialized under the form's lock — the Go analogue
of the single-threaded event loop the protocol assumes. Debounce timers
and network completions re-enter through the same lock, so field mutations
are strictly ordered by arrival.
*/
package runtime
