package render

import (
	"log/slog"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// ChangeEvent describes one user (or side-channel) edit flowing from a
// control to the submit orchestrator.
type ChangeEvent struct {
	Field string // state key, "" for unnamed controls
	Kind  string // control kind: "text", "checkbox", "number", "button", ...
	Value any    // raw control value as it will be submitted

	// Focused marks edits made while the control still has focus. Numeric
	// steppers use it to postpone submission until focus is lost.
	Focused bool

	// Submitter marks a control whose identity is attached to the outgoing
	// payload (e.g. a named button).
	Submitter bool

	// SubmitDisabled suppresses submission for this edit entirely.
	SubmitDisabled bool
}

// ChangeHandler receives every change event. The dispatcher threads one
// handler reference through the whole tree; identity is stable within a
// render cycle.
type ChangeHandler func(ChangeEvent)

// Context carries the per-cycle dependencies every renderer needs. The
// State map and OnChange handler are shared by reference across the whole
// tree for one submission cycle.
type Context struct {
	State    domain.SessionState
	OnChange ChangeHandler

	// OnBlur reports focus loss for a field. Numeric steppers submit here.
	OnBlur func(field string)

	// DebouncePending reports whether the owning form has a debounced edit
	// scheduled. String bindings skip resync from server state while it is
	// set, so in-progress typing is never overwritten by a server echo.
	DebouncePending func() bool

	Bindings *BindingCache
	Scripts  ports.ScriptRunner
	Logger   *slog.Logger

	// reg is the registry currently driving the walk; set on entry so
	// container renderers recurse through the same dispatch table.
	reg *Registry
}

// RenderChildren re-enters the dispatcher over a node's children,
// forwarding this same context (same state, same handler references).
func (rc *Context) RenderChildren(children []domain.TreeNode) []*Element {
	if rc.reg == nil {
		rc.reg = Builtins()
	}
	return rc.reg.RenderAll(rc, children)
}

func (rc *Context) logger() *slog.Logger {
	if rc.Logger != nil {
		return rc.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (rc *Context) scripts() ports.ScriptRunner {
	if rc.Scripts != nil {
		return rc.Scripts
	}
	return ports.NopScriptRunner{}
}

// Element is one node of the rendered output tree. It is the abstract
// render target: host drivers (terminal, tests) walk it; leaf input
// elements expose their Control for interaction.
type Element struct {
	Kind     string // renderer kind, usually the node name
	Key      string // stable identity key among siblings
	Props    map[string]any
	Text     string // display text for leaf display kinds (pre, markdown, ...)
	Children []*Element

	// Control is non-nil for interactive leaf elements.
	Control Control

	// Node is the source node, kept for diagnostics and fallback dumps.
	Node domain.TreeNode
}

// Find returns the first descendant (including e) with the given field
// name bound, or nil.
func (e *Element) Find(field string) *Element {
	if e.Control != nil && e.Control.Field() == field {
		return e
	}
	for _, c := range e.Children {
		if found := c.Find(field); found != nil {
			return found
		}
	}
	return nil
}

// FindKind returns the first descendant (including e) of the given kind.
func (e *Element) FindKind(kind string) *Element {
	if e.Kind == kind {
		return e
	}
	for _, c := range e.Children {
		if found := c.FindKind(kind); found != nil {
			return found
		}
	}
	return nil
}

// Control is the interaction surface of a leaf input element.
type Control interface {
	// Field is the SessionState key this control is bound to.
	Field() string
	// Value is the control's currently displayed value.
	Value() any
}
