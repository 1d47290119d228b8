package domain

// Well-known node names. The backend's vocabulary evolves independently of
// the client release, so these are hints for dispatch, never an exhaustive
// enum. Unknown names must render a diagnostic fallback, not fail.
const (
	NodeFragment = ""      // transparent wrapper, renders children only
	NodeInput    = "input" // further dispatched on Props["type"]
)

// PropName is the props key that binds a node to a SessionState slot.
const PropName = "name"

// TreeNode is one node of the declarative UI tree emitted by the backend.
// The tree is immutable for the duration of a render cycle: it is replaced
// wholesale by the next Response, never patched in place.
type TreeNode struct {
	Name     string         `json:"name"`
	Props    map[string]any `json:"props,omitempty"`
	Children []TreeNode     `json:"children,omitempty"`
}

// Prop returns the raw prop value for key, or nil when absent.
func (n TreeNode) Prop(key string) any {
	if n.Props == nil {
		return nil
	}
	return n.Props[key]
}

// PropString returns the prop value for key as a string, or "" when the
// prop is absent or not a string.
func (n TreeNode) PropString(key string) string {
	s, _ := n.Prop(key).(string)
	return s
}

// PropBool reports whether the prop is present and truthy. Presence with a
// non-false value counts, mirroring HTML boolean attributes.
func (n TreeNode) PropBool(key string) bool {
	switch v := n.Prop(key).(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	default:
		return true
	}
}

// FieldName returns the SessionState key this node binds to, or "" for
// nodes that carry no binding.
func (n TreeNode) FieldName() string {
	return n.PropString(PropName)
}

// InputType returns the control type of an input node ("text", "checkbox",
// "number", ...). Empty for non-input nodes.
func (n TreeNode) InputType() string {
	if n.Name != NodeInput {
		return ""
	}
	return n.PropString("type")
}

// Walk visits n and every descendant in document order. Missing children
// are treated as an empty sequence. The visitor returning false prunes the
// subtree below the current node.
func (n TreeNode) Walk(visit func(TreeNode) bool) {
	if !visit(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(visit)
	}
}

// WalkAll visits every node of a forest in document order.
func WalkAll(nodes []TreeNode, visit func(TreeNode) bool) {
	for _, n := range nodes {
		n.Walk(visit)
	}
}
