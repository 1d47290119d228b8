package render

import (
	"context"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
)

var (
	builtinsOnce sync.Once
	builtins     *Registry
)

// Builtins returns the shared registry with every built-in node kind.
// Hosts that need to shadow or extend kinds should build their own with
// NewBuiltins.
func Builtins() *Registry {
	builtinsOnce.Do(func() { builtins = NewBuiltins() })
	return builtins
}

// NewBuiltins builds a fresh registry containing the built-in kinds.
func NewBuiltins() *Registry {
	r := NewRegistry()

	// transparent and generic containers
	r.Register(domain.NodeFragment, renderContainer("fragment"))
	r.Register("div", renderContainer("div"))
	r.Register("ul", renderContainer("ul"))
	r.Register("nav-tabs", renderContainer("nav-tabs"))
	r.Register("nav-item", renderContainer("nav-item"))
	r.Register("nav-tab-content", renderContainer("nav-tab-content"))
	r.Register("countdown-timer", renderContainer("countdown-timer"))
	r.Register("tag", renderContainer("tag"))

	// display leaves
	r.Register("pre", renderBody("pre"))
	r.Register("markdown", renderBody("markdown"))
	r.Register("html", renderBody("html"))
	r.Register("img", renderMedia("img"))
	r.Register("video", renderMedia("video"))
	r.Register("audio", renderMedia("audio"))
	r.Register("json", renderJSON)
	r.Register("link", renderLink)
	r.Register("Link", renderLink)
	r.Register("data-table", renderDataTable)
	r.Register("option", renderOption)

	// compound widgets
	r.Register("tabs", renderTabs)
	r.Register("expander", renderExpander)

	// interactive controls
	r.Register(domain.NodeInput, renderInput)
	r.Register("textarea", renderTextarea)
	r.Register("select", renderSelect)
	r.Register("switch", renderSwitch)
	r.Register("gui-button", renderButton)
	r.Register("download-button", renderLink)

	// server-supplied script, behind the sandboxed runner
	r.Register("script", renderScript)

	return r
}

// renderContainer builds a structural element and recurses over children
// with the same context.
func renderContainer(kind string) RendererFunc {
	return func(rc *Context, node domain.TreeNode) *Element {
		return &Element{
			Kind:     kind,
			Props:    node.Props,
			Node:     node,
			Children: rc.RenderChildren(node.Children),
		}
	}
}

// renderBody builds a display leaf whose text comes from the body prop.
func renderBody(kind string) RendererFunc {
	return func(rc *Context, node domain.TreeNode) *Element {
		var props displayProps
		decodeProps(node, &props)
		return &Element{Kind: kind, Props: node.Props, Text: props.Body, Node: node}
	}
}

func renderMedia(kind string) RendererFunc {
	return func(rc *Context, node domain.TreeNode) *Element {
		var props displayProps
		decodeProps(node, &props)
		return &Element{Kind: kind, Props: node.Props, Text: props.Caption, Node: node}
	}
}

func renderJSON(rc *Context, node domain.TreeNode) *Element {
	return &Element{Kind: "json", Props: node.Props, Node: node}
}

func renderLink(rc *Context, node domain.TreeNode) *Element {
	var props displayProps
	decodeProps(node, &props)
	return &Element{
		Kind:     "link",
		Props:    node.Props,
		Text:     props.Label,
		Node:     node,
		Children: rc.RenderChildren(node.Children),
	}
}

func renderDataTable(rc *Context, node domain.TreeNode) *Element {
	// heavy grid widgets are external; the core only carries the props
	return &Element{Kind: "data-table", Props: node.Props, Node: node}
}

func renderOption(rc *Context, node domain.TreeNode) *Element {
	var props displayProps
	decodeProps(node, &props)
	return &Element{Kind: "option", Props: node.Props, Text: props.Label, Node: node}
}

// renderTabs renders the tab strip: each child contributes a label and a
// panel, all sharing the dispatcher's state and handler.
func renderTabs(rc *Context, node domain.TreeNode) *Element {
	el := &Element{Kind: "tabs", Props: node.Props, Node: node}
	for _, tab := range node.Children {
		var props displayProps
		decodeProps(tab, &props)
		panel := &Element{
			Kind:     "tab-panel",
			Props:    tab.Props,
			Text:     props.Label,
			Node:     tab,
			Children: rc.RenderChildren(tab.Children),
		}
		el.Children = append(el.Children, panel)
	}
	return el
}

// ExpanderControl drives the accordion header. Open state lives in the
// session state under the expander's name ("yes" when open), so the server
// can open or collapse it too.
type ExpanderControl struct {
	state    domain.SessionState
	field    string
	onChange ChangeHandler
}

// Field implements Control.
func (c *ExpanderControl) Field() string { return c.field }

// Value implements Control.
func (c *ExpanderControl) Value() any { return c.state[c.field] }

// Open reports whether the body is shown.
func (c *ExpanderControl) Open() bool {
	v, _ := c.state[c.field].(string)
	return v != ""
}

// Toggle flips the expander and submits immediately.
func (c *ExpanderControl) Toggle() {
	if c.Open() {
		c.state[c.field] = ""
	} else {
		c.state[c.field] = "yes"
	}
	c.onChange(ChangeEvent{Field: c.field, Kind: "expander", Value: c.state[c.field]})
}

func renderExpander(rc *Context, node domain.TreeNode) *Element {
	var props displayProps
	decodeProps(node, &props)
	if props.Open {
		rc.State[props.Name] = "yes"
	}
	return &Element{
		Kind:     "expander",
		Props:    node.Props,
		Text:     props.Label,
		Node:     node,
		Children: rc.RenderChildren(node.Children),
		Control: &ExpanderControl{
			state:    rc.State,
			field:    props.Name,
			onChange: rc.OnChange,
		},
	}
}

// renderSwitch is a styled checkbox; same binding, immediate submit.
func renderSwitch(rc *Context, node domain.TreeNode) *Element {
	var props inputProps
	decodeProps(node, &props)
	binding := BindChecked(rc, inputKey(node.Props), props.Name, nil, props.DefaultChecked)
	return &Element{
		Kind:  "switch",
		Props: node.Props,
		Node:  node,
		Control: &CheckedControl{
			binding:        binding,
			kind:           "switch",
			submitDisabled: props.SubmitDisabled,
			onChange:       rc.OnChange,
		},
	}
}

// renderScript evaluates a backend-supplied script node through the
// configured sandboxed runner. Failures are logged and swallowed; a bad
// script must not take the tree down.
func renderScript(rc *Context, node domain.TreeNode) *Element {
	var props scriptProps
	decodeProps(node, &props)
	if props.Src != "" {
		if err := rc.scripts().Run(context.Background(), props.Src, props.Args); err != nil {
			rc.logger().Warn("script node failed", "err", err)
		}
	}
	return &Element{Kind: "script", Props: node.Props, Node: node}
}
