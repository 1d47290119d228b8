package domain

// Submission is one outgoing request: the full state snapshot plus the
// side-channel information the receiver needs to decode it field by field.
type Submission struct {
	// State is the snapshot taken at submit time. Values are raw control
	// values (strings, JSON-encoded strings); the receiver applies the
	// Transforms manifest to decode them.
	State SessionState `json:"state"`

	// Transforms maps field name → declared input kind, rebuilt once per
	// tree. Fields absent from the manifest pass through unchanged.
	Transforms map[string]string `json:"transforms,omitempty"`

	// SubmitterName/SubmitterValue identify the control (e.g. a named
	// button) that performed the submit, attached under its own field name
	// distinct from ordinary field deltas. Empty when the submission was
	// not button-originated.
	SubmitterName  string `json:"-"`
	SubmitterValue any    `json:"-"`
}

// Response is the backend payload that fully replaces the client's tree and
// state. An absent Children slice means "render nothing".
type Response struct {
	Children []TreeNode     `json:"children,omitempty"`
	State    SessionState   `json:"state"`
	Channels []string       `json:"channels,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}
