package domain

// SessionState is the flat field-name → value map shared by reference
// across one render cycle. Every widget bound to key k reads and writes the
// same underlying slot, so two widgets bound to the same key stay
// consistent within a render without explicit wiring.
//
// Lifecycle: created fresh from each backend Response (merged with any
// locally pending edits not yet acknowledged), mutated in place by widget
// bindings and by the submit orchestrator, then discarded when the next
// Response arrives.
type SessionState map[string]any

// Clone returns a shallow copy. Used to snapshot the state for an outgoing
// submission so in-flight edits cannot mutate the request payload.
func (s SessionState) Clone() SessionState {
	out := make(SessionState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge shallow-merges partial into s, in place.
func (s SessionState) Merge(partial map[string]any) {
	for k, v := range partial {
		s[k] = v
	}
}

// ReplaceByKey overwrites every existing key of s with the value from full
// (nil when absent). Keys only present in full are not added; this mirrors
// the replace-by-key contract of the set_session_state surface.
func (s SessionState) ReplaceByKey(full map[string]any) {
	for k := range s {
		s[k] = full[k]
	}
}
