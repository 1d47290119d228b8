package render

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
)

// BindingCache keeps one binding per control identity key across render
// cycles. A key that disappears for a cycle (node gone, or its identity
// key changed) has its binding released, so re-rendering the same tree
// reuses in-progress edit state while a changed control starts fresh.
type BindingCache struct {
	entries map[string]*cacheEntry
	cycle   uint64
}

type cacheEntry struct {
	binding any
	seen    uint64
}

// NewBindingCache creates an empty cache.
func NewBindingCache() *BindingCache {
	return &BindingCache{entries: make(map[string]*cacheEntry)}
}

// BeginCycle starts a render cycle; lookups during the cycle mark their
// entries live.
func (c *BindingCache) BeginCycle() { c.cycle++ }

// EndCycle evicts every binding not looked up since BeginCycle. This is
// the scoped acquisition/release discipline: unmounted controls must not
// leak their bindings.
func (c *BindingCache) EndCycle() {
	for key, e := range c.entries {
		if e.seen != c.cycle {
			delete(c.entries, key)
		}
	}
}

// Len reports live bindings, for tests.
func (c *BindingCache) Len() int { return len(c.entries) }

func (c *BindingCache) lookup(key string, create func() any) any {
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{binding: create()}
		c.entries[key] = e
	}
	e.seen = c.cycle
	return e.binding
}

// StringBinding connects one text-like control to one state key. Two
// coupled values exist at once: the authoritative server value
// (state[field]) and the possibly newer value the user is typing. Resync
// pulls from the server value only while no debounce is pending, so an
// in-progress edit is never overwritten by a server echo.
type StringBinding struct {
	state   domain.SessionState
	pending func() bool
	field   string
	def     string
	local   string
}

// BindString resolves (or creates) the string binding for a control
// identity key and resyncs it against the current cycle's state.
func BindString(rc *Context, key, field, defaultValue string) *StringBinding {
	if rc.Bindings == nil {
		rc.Bindings = NewBindingCache()
	}
	b := rc.Bindings.lookup(key, func() any {
		init := defaultValue
		if v := rc.State[field]; v != nil {
			if s := toString(v); s != "" {
				init = s
			}
		}
		return &StringBinding{field: field, def: defaultValue, local: init}
	}).(*StringBinding)
	b.state = rc.State
	b.pending = rc.DebouncePending
	b.resync()
	return b
}

// Value is the displayed value: at rest it equals state[field].
func (b *StringBinding) Value() string { return b.local }

// Field is the bound state key.
func (b *StringBinding) Field() string { return b.field }

// SetValue records a user edit: the local value and the shared state slot
// move together.
func (b *StringBinding) SetValue(v string) {
	b.local = v
	b.state[b.field] = v
}

func (b *StringBinding) resync() {
	if b.pending != nil && b.pending() {
		return
	}
	want := b.def
	if v := b.state[b.field]; v != nil {
		if s := toString(v); s != "" {
			want = s
		}
	}
	if want != b.local {
		b.local = want
	}
}

// CheckedBinding connects a checkbox/radio-like control to one state key.
// These controls have no debounce window, so the displayed flag is forced
// to match the state whenever it diverges.
type CheckedBinding struct {
	state domain.SessionState
	field string
	// value is the radio option value; empty for plain checkboxes.
	value   any
	def     bool
	checked bool
}

// BindChecked resolves (or creates) the checked binding for a control
// identity key. For radios, value is the option's own value and the bound
// state slot holds the selected option.
func BindChecked(rc *Context, key, field string, value any, defaultChecked bool) *CheckedBinding {
	if rc.Bindings == nil {
		rc.Bindings = NewBindingCache()
	}
	b := rc.Bindings.lookup(key, func() any {
		return &CheckedBinding{field: field, value: value, def: defaultChecked, checked: defaultChecked}
	}).(*CheckedBinding)
	b.state = rc.State
	b.resync()
	return b
}

// Checked is the displayed flag.
func (b *CheckedBinding) Checked() bool { return b.checked }

// Field is the bound state key.
func (b *CheckedBinding) Field() string { return b.field }

// Value implements the Control value surface.
func (b *CheckedBinding) Value() any { return b.checked }

// SetChecked records a user toggle into binding and shared state. The raw
// state value follows form semantics: "on" when checked, empty otherwise;
// for radios the selected option value is stored instead.
func (b *CheckedBinding) SetChecked(checked bool) {
	b.checked = checked
	if b.value != nil {
		if checked {
			b.state[b.field] = b.value
		}
		return
	}
	if checked {
		b.state[b.field] = "on"
	} else {
		b.state[b.field] = ""
	}
}

func (b *CheckedBinding) resync() {
	want := b.stateChecked()
	if want != b.checked {
		b.checked = want
	}
}

func (b *CheckedBinding) stateChecked() bool {
	v, ok := b.state[b.field]
	if !ok {
		return b.def
	}
	if b.value != nil {
		return fmt.Sprintf("%v", v) == fmt.Sprintf("%v", b.value)
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != ""
	case nil:
		return false
	default:
		return true
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
