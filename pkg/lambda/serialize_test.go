package lambda

import (
	"strings"
	"testing"
)

// TestSerialize tests surface rendering of graphs.
func TestSerialize(t *testing.T) {
	t.Run("round trips compiled terms", func(t *testing.T) {
		inputs := []string{
			"()",
			"z",
			"(() #0)",
			"(() (() (#1 #0)))",
			"((1 z) (1 z))",
			"(() (#0 #0))",
		}
		for _, input := range inputs {
			g, root, err := CompileString(NewGraph(), input, nil)
			if err != nil {
				t.Fatalf("CompileString(%q): %v", input, err)
			}
			out, err := Serialize(g, root)
			if err != nil {
				t.Fatalf("Serialize(%q): %v", input, err)
			}
			if out != input {
				t.Errorf("Serialize(%q) = %q", input, out)
			}
		}
	})

	t.Run("named lambdas print anonymously", func(t *testing.T) {
		g, root, err := CompileString(NewGraph(), "(x (x y))", nil)
		if err != nil {
			t.Fatalf("CompileString: %v", err)
		}
		out, _ := Serialize(g, root)
		if out != "(() (#0 y))" {
			t.Errorf("got %q, want %q", out, "(() (#0 y))")
		}
	})

	t.Run("bound slots print their value", func(t *testing.T) {
		g := NewGraph()
		g, z := g.AddNode(SymbolNode{Name: "z"})
		g, b := g.AddNode(BinderNode{Value: z})
		g, s := g.AddNode(SlotNode{Binder: b})
		out, err := Serialize(g, s)
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}
		if out != "z" {
			t.Errorf("got %q, want %q", out, "z")
		}
	})

	t.Run("out of scope slots print a placeholder", func(t *testing.T) {
		g := NewGraph()
		g, b := g.AddNode(BinderNode{})
		g, s := g.AddNode(SlotNode{Binder: b})
		out, err := Serialize(g, s)
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}
		if out != "#?" {
			t.Errorf("got %q, want %q", out, "#?")
		}
	})

	t.Run("cycles print a marker instead of hanging", func(t *testing.T) {
		g := NewGraph()
		g, a := g.AddNode(SymbolNode{Name: "a"})
		g, p := g.AddNode(PairNode{Left: a, Right: a})
		g, err := g.UpdateNode(p, func(n Node) Node {
			pair := n.(PairNode)
			pair.Left = p
			return pair
		})
		if err != nil {
			t.Fatalf("UpdateNode: %v", err)
		}
		out, err := Serialize(g, p)
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}
		if out != "(#cycle a)" {
			t.Errorf("got %q, want %q", out, "(#cycle a)")
		}
	})

	t.Run("sharing does not trip the cycle detector", func(t *testing.T) {
		// One shared leaf appears twice; that is a DAG, not a cycle.
		g := NewGraph()
		g, a := g.AddNode(SymbolNode{Name: "a"})
		g, p := g.AddNode(PairNode{Left: a, Right: a})
		out, err := Serialize(g, p)
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}
		if strings.Contains(out, "#cycle") {
			t.Fatalf("shared leaf reported as cycle: %q", out)
		}
		if out != "(a a)" {
			t.Errorf("got %q, want %q", out, "(a a)")
		}
	})

	t.Run("fails on dangling references", func(t *testing.T) {
		g := NewGraph()
		g, p := g.AddNode(PairNode{Left: 98, Right: 99})
		if _, err := Serialize(g, p); err == nil {
			t.Error("expected an error on dangling children")
		}
	})
}
