// Package transform implements the per-input-kind encode/decode rules that
// round-trip raw control values (strings) to typed JSON values at
// submission time. The registry is rebuilt once per tree and applied only
// when submitting, never at display time.
package transform

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// Map is the per-field manifest of declared input kinds, derived by walking
// the tree once per response. Keys absent from the map pass through
// unchanged (identity transform).
type Map map[string]string

// Build walks a forest and records each named field's declared kind:
// "input" nodes map to their type prop, every other named node maps to the
// node name itself.
func Build(children []domain.TreeNode) Map {
	m := make(Map)
	domain.WalkAll(children, func(n domain.TreeNode) bool {
		field := n.FieldName()
		if field == "" {
			return true
		}
		if n.Name == domain.NodeInput {
			m[field] = n.PropString("type")
		} else {
			m[field] = n.Name
		}
		return true
	})
	return m
}

// Apply decodes every field of state in place according to the manifest.
// Fields without a manifest entry are left untouched.
func (m Map) Apply(state domain.SessionState) {
	for field, kind := range m {
		raw, ok := state[field]
		if !ok {
			continue
		}
		state[field] = Decode(raw, kind)
	}
}

// Decode converts one raw control value into its typed JSON representation.
// Unknown kinds are the identity. Decode never fails: a corrupt field falls
// back to a safe default rather than blocking the rest of the submission.
func Decode(raw any, kind string) any {
	switch kind {
	case "checkbox", "switch":
		return truthy(raw)
	case "number", "range":
		return ParseIntFloat(raw)
	case "select", "file":
		return decodeJSONField(raw)
	default:
		return raw
	}
}

// Encode is the inverse of Decode, used for carrier fields and round-trip
// checks: structured values are JSON-encoded, booleans become the usual
// form presence marker.
func Encode(v any, kind string) any {
	switch kind {
	case "checkbox", "switch":
		if truthy(v) {
			return "on"
		}
		return ""
	case "number", "range":
		return fmt.Sprintf("%v", v)
	case "select", "file":
		if v == nil {
			return ""
		}
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	default:
		return v
	}
}

// ParseIntFloat applies the numeric disambiguation rule: parse the value as
// both integer and float; when the two agree numerically, emit the integer;
// when the float parse fails entirely, emit 0; otherwise emit the float.
// An empty or nil value decodes to nil.
func ParseIntFloat(raw any) any {
	switch v := raw.(type) {
	case nil:
		return nil
	case int:
		return v
	case int64:
		return v
	case float64:
		if v == float64(int64(v)) {
			return int64(v)
		}
		return v
	}

	s := strings.TrimSpace(fmt.Sprintf("%v", raw))
	if s == "" {
		return nil
	}

	floatVal, floatOK := parseLeadingFloat(s)
	intVal, intOK := parseLeadingInt(s)
	switch {
	case floatOK && intOK && floatVal == float64(intVal):
		return intVal
	case !floatOK:
		return int64(0)
	default:
		return floatVal
	}
}

// parseLeadingInt mimics a lenient integer parse: an optional sign followed
// by as many decimal digits as possible. "3.5" parses as 3.
func parseLeadingInt(s string) (int64, bool) {
	i := 0
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	start := i
	var n int64
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		n = n*10 + int64(s[i]-'0')
		i++
	}
	if i == start {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// parseLeadingFloat parses the longest numeric prefix, including an
// optional fraction and exponent. "3.5abc" parses as 3.5.
func parseLeadingFloat(s string) (float64, bool) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	// optional exponent, only consumed when well-formed
	if j := i; j < len(s) && (s[j] == 'e' || s[j] == 'E') {
		j++
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expDigits := 0
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
			expDigits++
		}
		if expDigits > 0 {
			i = j
		}
	}
	var f float64
	if _, err := fmt.Sscanf(s[:i], "%g", &f); err != nil {
		return 0, false
	}
	return f, true
}

// decodeJSONField decodes a JSON-encoded string back into its structured
// value (array, object, scalar or nil), tolerating empty and malformed
// input by emitting nil.
func decodeJSONField(raw any) any {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		var out any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil
		}
		return out
	default:
		// already structured (e.g. written programmatically)
		return raw
	}
}

// truthy mirrors form-value boolean coercion: presence of a non-empty,
// non-false value counts as true.
func truthy(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	default:
		return true
	}
}
