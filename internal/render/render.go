package render

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
)

// Render dispatches one node through the registry. It is a pure function
// of (node, rc.OnChange, rc.State) apart from the side effects of leaf
// bindings; containers re-enter it over their children with the same
// context, never a copy.
func (r *Registry) Render(rc *Context, node domain.TreeNode) *Element {
	if rc.reg == nil {
		rc.reg = r
	}
	el := r.Resolve(node.Name)(rc, node)
	if el == nil {
		el = &Element{Kind: node.Name, Node: node}
	}
	return el
}

// RenderAll renders a forest, assigning each child its identity key:
// named inputs key on "input:<name>:<value>" so a control whose identity
// flips (e.g. a radio option's checked value) re-initializes instead of
// retaining stale binding state; everything else keys on position.
func (r *Registry) RenderAll(rc *Context, children []domain.TreeNode) []*Element {
	elements := make([]*Element, 0, len(children))
	for idx, node := range children {
		el := r.Render(rc, node)
		el.Key = childKey(node, idx)
		elements = append(elements, el)
	}
	return elements
}

// RenderTree renders a whole response tree in one binding cycle: bindings
// used this cycle survive, the rest are released.
func (r *Registry) RenderTree(rc *Context, children []domain.TreeNode) []*Element {
	if rc.Bindings != nil {
		rc.Bindings.BeginCycle()
		defer rc.Bindings.EndCycle()
	}
	return r.RenderAll(rc, children)
}

func childKey(node domain.TreeNode, idx int) string {
	if name := node.FieldName(); name != "" {
		return inputKey(node.Props)
	}
	return fmt.Sprintf("idx:%d", idx)
}

// inputKey builds the identity key for a named control. The value is part
// of the key on purpose: it forces a fresh binding when the control's own
// identity changes.
func inputKey(props map[string]any) string {
	return fmt.Sprintf("input:%v:%v", props[domain.PropName], props["value"])
}
