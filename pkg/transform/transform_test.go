package transform

import (
	"reflect"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
)

func TestParseIntFloat(t *testing.T) {
	cases := []struct {
		in   any
		want any
	}{
		{"3", int64(3)},
		{"3.5", 3.5},
		{"3.0", int64(3)},
		{"-12", int64(-12)},
		{"-0.25", -0.25},
		{"abc", int64(0)},
		{"", nil},
		{nil, nil},
		{"  42 ", int64(42)},
		{"3.5abc", 3.5},
		{"1e3", float64(1000)},
		{float64(7), int64(7)},
		{7.25, 7.25},
	}
	for _, tc := range cases {
		got := ParseIntFloat(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseIntFloat(%#v) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}

func TestDecode(t *testing.T) {
	t.Run("checkbox presence", func(t *testing.T) {
		if Decode("on", "checkbox") != true {
			t.Error("'on' should decode to true")
		}
		if Decode("", "checkbox") != false {
			t.Error("empty string should decode to false")
		}
		if Decode(nil, "switch") != false {
			t.Error("nil should decode to false")
		}
	})

	t.Run("select json", func(t *testing.T) {
		got := Decode(`["a","b"]`, "select")
		want := []any{"a", "b"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("select decode = %#v, want %#v", got, want)
		}
		if Decode("", "file") != nil {
			t.Error("empty file field should decode to nil")
		}
	})

	t.Run("malformed json falls back", func(t *testing.T) {
		// a corrupt field must not block the rest of the submission
		if got := Decode("{not json", "select"); got != nil {
			t.Errorf("malformed JSON should decode to nil, got %#v", got)
		}
	})

	t.Run("unknown kind is identity", func(t *testing.T) {
		if got := Decode("raw", "markdown"); got != "raw" {
			t.Errorf("identity decode = %#v", got)
		}
	})
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		kind string
		val  any
	}{
		{"checkbox", true},
		{"checkbox", false},
		{"switch", true},
		{"number", int64(3)},
		{"number", 3.5},
		{"range", int64(0)},
		{"select", []any{"x", "y"}},
		{"file", nil},
		{"text", "hello"},
	}
	for _, tc := range cases {
		got := Decode(Encode(tc.val, tc.kind), tc.kind)
		if !reflect.DeepEqual(got, tc.val) {
			t.Errorf("decode(encode(%#v)) [%s] = %#v", tc.val, tc.kind, got)
		}
	}
}

func TestBuild(t *testing.T) {
	tree := []domain.TreeNode{
		{Name: "div", Children: []domain.TreeNode{
			{Name: "input", Props: map[string]any{"type": "text", "name": "q"}},
			{Name: "input", Props: map[string]any{"type": "checkbox", "name": "agree"}},
			{Name: "select", Props: map[string]any{"name": "choice"}},
			{Name: "markdown", Props: map[string]any{"body": "# hi"}},
		}},
	}

	m := Build(tree)
	want := Map{"q": "text", "agree": "checkbox", "choice": "select"}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("Build = %v, want %v", m, want)
	}

	t.Run("apply leaves unmapped keys alone", func(t *testing.T) {
		state := domain.SessionState{
			"q":       "hello",
			"agree":   "on",
			"choice":  `["a"]`,
			"orphan":  "untouched",
			"missing": nil,
		}
		m.Apply(state)
		if state["q"] != "hello" {
			t.Errorf("text field changed: %#v", state["q"])
		}
		if state["agree"] != true {
			t.Errorf("checkbox not decoded: %#v", state["agree"])
		}
		if !reflect.DeepEqual(state["choice"], []any{"a"}) {
			t.Errorf("select not decoded: %#v", state["choice"])
		}
		if state["orphan"] != "untouched" {
			t.Error("identity transform must leave unmapped keys unchanged")
		}
	})
}
