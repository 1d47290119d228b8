package render

import (
	"encoding/json"

	"github.com/aretw0/lattice/pkg/domain"
)

// renderInput sub-dispatches "input" nodes on their type prop.
func renderInput(rc *Context, node domain.TreeNode) *Element {
	var props inputProps
	decodeProps(node, &props)
	key := inputKey(node.Props)

	switch props.Type {
	case "checkbox":
		return newCheckedElement(rc, node, props, key, "checkbox")
	case "radio":
		return newCheckedElement(rc, node, props, key, "radio")
	case "number":
		return newNumberElement(rc, node, props, key)
	case "range":
		return newRangeElement(rc, node, props, key)
	case "file":
		return newFileElement(rc, node, props, key)
	case "hidden":
		return newHiddenElement(rc, node, props, key)
	default:
		// text, email, url, password, ... all behave text-like
		return newTextElement(rc, node, props, key, "input")
	}
}

func renderTextarea(rc *Context, node domain.TreeNode) *Element {
	var props inputProps
	decodeProps(node, &props)
	props.Type = "textarea"
	return newTextElement(rc, node, props, inputKey(node.Props), "textarea")
}

// TextControl drives a text-like control: every keystroke lands in the
// shared state and fires the debounced change path.
type TextControl struct {
	binding        *StringBinding
	kind           string
	submitDisabled bool
	onChange       ChangeHandler
}

// Field implements Control.
func (c *TextControl) Field() string { return c.binding.Field() }

// Value implements Control.
func (c *TextControl) Value() any { return c.binding.Value() }

// Input records one edit with the control's current full text.
func (c *TextControl) Input(v string) {
	c.binding.SetValue(v)
	c.onChange(ChangeEvent{
		Field:          c.Field(),
		Kind:           c.kind,
		Value:          v,
		SubmitDisabled: c.submitDisabled,
	})
}

func newTextElement(rc *Context, node domain.TreeNode, props inputProps, key, elemKind string) *Element {
	binding := BindString(rc, key, props.Name, toStringOr(props.DefaultValue, ""))
	kind := props.Type
	if kind == "" {
		kind = "text"
	}
	return &Element{
		Kind:  elemKind,
		Props: node.Props,
		Node:  node,
		Control: &TextControl{
			binding:        binding,
			kind:           kind,
			submitDisabled: props.SubmitDisabled,
			onChange:       rc.OnChange,
		},
	}
}

// NumberControl drives a numeric stepper. Edits while focused are
// postponed: the orchestrator submits once on blur.
type NumberControl struct {
	binding        *StringBinding
	submitDisabled bool
	onChange       ChangeHandler
	onBlur         func(string)
}

// Field implements Control.
func (c *NumberControl) Field() string { return c.binding.Field() }

// Value implements Control.
func (c *NumberControl) Value() any { return c.binding.Value() }

// Input records one edit while the control still has focus.
func (c *NumberControl) Input(v string) {
	c.binding.SetValue(v)
	c.onChange(ChangeEvent{
		Field:          c.Field(),
		Kind:           "number",
		Value:          v,
		Focused:        true,
		SubmitDisabled: c.submitDisabled,
	})
}

// Blur reports focus loss; a postponed edit submits here.
func (c *NumberControl) Blur() {
	if c.onBlur != nil {
		c.onBlur(c.Field())
	}
}

func newNumberElement(rc *Context, node domain.TreeNode, props inputProps, key string) *Element {
	binding := BindString(rc, key, props.Name, toStringOr(props.DefaultValue, ""))
	return &Element{
		Kind:  "input",
		Props: node.Props,
		Node:  node,
		Control: &NumberControl{
			binding:        binding,
			submitDisabled: props.SubmitDisabled,
			onChange:       rc.OnChange,
			onBlur:         rc.OnBlur,
		},
	}
}

// RangeControl drives the paired slider/number control. Slider moves are
// instantaneous submits.
type RangeControl struct {
	binding        *StringBinding
	submitDisabled bool
	onChange       ChangeHandler
}

// Field implements Control.
func (c *RangeControl) Field() string { return c.binding.Field() }

// Value implements Control.
func (c *RangeControl) Value() any { return c.binding.Value() }

// Slide records a slider move.
func (c *RangeControl) Slide(v string) {
	c.binding.SetValue(v)
	c.onChange(ChangeEvent{
		Field:          c.Field(),
		Kind:           "range",
		Value:          v,
		SubmitDisabled: c.submitDisabled,
	})
}

func newRangeElement(rc *Context, node domain.TreeNode, props inputProps, key string) *Element {
	binding := BindString(rc, key, props.Name, toStringOr(props.DefaultValue, ""))
	return &Element{
		Kind:  "input",
		Props: node.Props,
		Node:  node,
		Control: &RangeControl{
			binding:        binding,
			submitDisabled: props.SubmitDisabled,
			onChange:       rc.OnChange,
		},
	}
}

// CheckedControl drives checkboxes and radios; toggles submit immediately.
type CheckedControl struct {
	binding        *CheckedBinding
	kind           string
	submitDisabled bool
	onChange       ChangeHandler
}

// Field implements Control.
func (c *CheckedControl) Field() string { return c.binding.Field() }

// Value implements Control.
func (c *CheckedControl) Value() any { return c.binding.Checked() }

// Checked is the displayed flag.
func (c *CheckedControl) Checked() bool { return c.binding.Checked() }

// SetChecked records a toggle with its raw form value.
func (c *CheckedControl) SetChecked(checked bool) {
	c.binding.SetChecked(checked)
	c.onChange(ChangeEvent{
		Field:          c.Field(),
		Kind:           c.kind,
		Value:          c.binding.state[c.binding.field],
		SubmitDisabled: c.submitDisabled,
	})
}

// Toggle flips the displayed flag.
func (c *CheckedControl) Toggle() { c.SetChecked(!c.Checked()) }

func newCheckedElement(rc *Context, node domain.TreeNode, props inputProps, key, kind string) *Element {
	var optionValue any
	if kind == "radio" {
		optionValue = props.Value
	}
	binding := BindChecked(rc, key, props.Name, optionValue, props.DefaultChecked)
	return &Element{
		Kind:  "input",
		Props: node.Props,
		Node:  node,
		Control: &CheckedControl{
			binding:        binding,
			kind:           kind,
			submitDisabled: props.SubmitDisabled,
			onChange:       rc.OnChange,
		},
	}
}

// SelectControl drives a select widget. The raw state value is the
// JSON-encoded selection, decoded by the "select" transform at submit.
type SelectControl struct {
	state          domain.SessionState
	field          string
	submitDisabled bool
	onChange       ChangeHandler
}

// Field implements Control.
func (c *SelectControl) Field() string { return c.field }

// Value implements Control.
func (c *SelectControl) Value() any { return c.state[c.field] }

// Choose records a selection (scalar for single, slice for multi).
func (c *SelectControl) Choose(selection any) {
	raw := ""
	if selection != nil {
		if data, err := json.Marshal(selection); err == nil {
			raw = string(data)
		}
	}
	c.state[c.field] = raw
	c.onChange(ChangeEvent{
		Field:          c.field,
		Kind:           "select",
		Value:          raw,
		SubmitDisabled: c.submitDisabled,
	})
}

func renderSelect(rc *Context, node domain.TreeNode) *Element {
	var props inputProps
	decodeProps(node, &props)
	return &Element{
		Kind:     "select",
		Props:    node.Props,
		Node:     node,
		Children: rc.RenderChildren(node.Children),
		Control: &SelectControl{
			state:          rc.State,
			field:          props.Name,
			submitDisabled: props.SubmitDisabled,
			onChange:       rc.OnChange,
		},
	}
}

// ButtonControl is a named submitter: clicking attaches the button's
// name/value pair to the outgoing payload and submits immediately.
type ButtonControl struct {
	field          string
	value          any
	submitDisabled bool
	onChange       ChangeHandler
}

// Field implements Control.
func (c *ButtonControl) Field() string { return c.field }

// Value implements Control.
func (c *ButtonControl) Value() any { return c.value }

// Click performs the submit action.
func (c *ButtonControl) Click() {
	c.onChange(ChangeEvent{
		Field:          c.field,
		Kind:           "button",
		Value:          c.value,
		Submitter:      c.field != "",
		SubmitDisabled: c.submitDisabled,
	})
}

func renderButton(rc *Context, node domain.TreeNode) *Element {
	var props inputProps
	decodeProps(node, &props)
	return &Element{
		Kind:  "button",
		Props: node.Props,
		Text:  props.Label,
		Node:  node,
		Control: &ButtonControl{
			field:          props.Name,
			value:          props.Value,
			submitDisabled: props.SubmitDisabled,
			onChange:       rc.OnChange,
		},
	}
}

// FileControl is the hidden carrier input behind a file widget. Its value
// is the JSON-encoded URL list written by the upload side channel; the
// control itself only exposes it.
type FileControl struct {
	state domain.SessionState
	field string
}

// Field implements Control.
func (c *FileControl) Field() string { return c.field }

// Value implements Control.
func (c *FileControl) Value() any { return c.state[c.field] }

func newFileElement(rc *Context, node domain.TreeNode, props inputProps, key string) *Element {
	// seed the carrier with the server value so an untouched field
	// round-trips unchanged
	if _, ok := rc.State[props.Name]; !ok && props.DefaultValue != nil {
		if data, err := json.Marshal(props.DefaultValue); err == nil {
			rc.State[props.Name] = string(data)
		}
	}
	return &Element{
		Kind:    "input",
		Props:   node.Props,
		Node:    node,
		Control: &FileControl{state: rc.State, field: props.Name},
	}
}

func newHiddenElement(rc *Context, node domain.TreeNode, props inputProps, key string) *Element {
	return &Element{
		Kind:    "input",
		Props:   node.Props,
		Node:    node,
		Control: &FileControl{state: rc.State, field: props.Name},
	}
}

func toStringOr(v any, fallback string) string {
	if v == nil {
		return fallback
	}
	return toString(v)
}
