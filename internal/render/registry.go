package render

import (
	"encoding/json"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
)

// RendererFunc builds the element for one node. Renderers for container
// kinds call rc back through RenderChildren.
type RendererFunc func(rc *Context, node domain.TreeNode) *Element

// Registry maps node names to renderer factories. It replaces dynamic
// dispatch over node names with an explicit, overridable table; resolution
// of an unregistered name falls back to a diagnostic renderer so an
// unknown kind never crashes the tree.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]RendererFunc
	fallback  RendererFunc
}

// NewRegistry creates an empty registry with the raw-dump fallback.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]RendererFunc),
		fallback:  renderUnknown,
	}
}

// Register adds a renderer for a node name. An existing entry for the same
// name is overwritten, which lets hosts shadow the builtins.
func (r *Registry) Register(name string, fn RendererFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = fn
}

// Resolve returns the renderer for a node name, or the fallback.
func (r *Registry) Resolve(name string) RendererFunc {
	r.mu.RLock()
	fn, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return r.fallback
	}
	return fn
}

// renderUnknown is the diagnostic fallback: a raw JSON dump of the node.
// Sibling rendering is unaffected.
func renderUnknown(rc *Context, node domain.TreeNode) *Element {
	data, err := json.Marshal(node)
	if err != nil {
		data = []byte(`{"name":` + quote(node.Name) + `}`)
	}
	rc.logger().Warn("unknown node kind, rendering raw dump", "name", node.Name)
	return &Element{
		Kind: "unknown",
		Text: string(data),
		Node: node,
	}
}

func quote(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}
