package domain

import (
	"reflect"
	"testing"
)

func TestTreeNode_Walk(t *testing.T) {
	tree := TreeNode{
		Name: "div",
		Children: []TreeNode{
			{Name: "input", Props: map[string]any{"type": "text", "name": "q"}},
			{Name: "div", Children: []TreeNode{
				{Name: "input", Props: map[string]any{"type": "checkbox", "name": "agree"}},
			}},
		},
	}

	var names []string
	tree.Walk(func(n TreeNode) bool {
		names = append(names, n.Name)
		return true
	})
	want := []string{"div", "input", "div", "input"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Walk order = %v, want %v", names, want)
	}

	t.Run("prune", func(t *testing.T) {
		var count int
		tree.Walk(func(n TreeNode) bool {
			count++
			return n.Name != "div" || count == 1 // stop below the nested div
		})
		if count != 3 {
			t.Errorf("expected pruned walk to visit 3 nodes, got %d", count)
		}
	})

	t.Run("missing children", func(t *testing.T) {
		leaf := TreeNode{Name: "pre"}
		visited := 0
		leaf.Walk(func(TreeNode) bool { visited++; return true })
		if visited != 1 {
			t.Errorf("leaf walk visited %d nodes, want 1", visited)
		}
	})
}

func TestTreeNode_Props(t *testing.T) {
	n := TreeNode{Name: "input", Props: map[string]any{
		"type":     "number",
		"name":     "count",
		"multiple": true,
		"label":    "",
	}}

	if got := n.InputType(); got != "number" {
		t.Errorf("InputType = %q, want %q", got, "number")
	}
	if got := n.FieldName(); got != "count" {
		t.Errorf("FieldName = %q, want %q", got, "count")
	}
	if !n.PropBool("multiple") {
		t.Error("PropBool(multiple) = false, want true")
	}
	if n.PropBool("label") {
		t.Error("PropBool on empty string should be false")
	}
	if n.PropBool("missing") {
		t.Error("PropBool on absent prop should be false")
	}

	// nil props must never panic
	empty := TreeNode{Name: "div"}
	if empty.Prop("x") != nil || empty.FieldName() != "" {
		t.Error("nil props should read as absent")
	}
}

func TestSessionState_Helpers(t *testing.T) {
	s := SessionState{"a": 1, "b": "two"}

	clone := s.Clone()
	clone["a"] = 99
	if s["a"] != 1 {
		t.Error("Clone must not share storage with the original")
	}

	s.Merge(map[string]any{"b": "new", "c": true})
	if s["b"] != "new" || s["c"] != true {
		t.Errorf("Merge result = %v", s)
	}

	s.ReplaceByKey(map[string]any{"a": 7})
	if s["a"] != 7 {
		t.Errorf("ReplaceByKey should overwrite existing keys, got %v", s["a"])
	}
	if s["b"] != nil || s["c"] != nil {
		t.Errorf("ReplaceByKey should nil out keys missing from replacement, got %v", s)
	}
}
