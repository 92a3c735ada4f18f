package lambda

import (
	"errors"
	"strings"
	"testing"
)

// testResolver resolves names from a fixed table of surface-syntax bodies.
type testResolver struct {
	defs map[string]string
}

func (r testResolver) Resolves(name string) bool {
	_, ok := r.defs[name]
	return ok
}

func (r testResolver) Resolve(g *Graph, name string) (*Graph, NodeID, error) {
	return CompileString(g, r.defs[name], nil)
}

// TestCompile tests translation of surface forms into graph structure.
func TestCompile(t *testing.T) {
	t.Run("anonymous identity", func(t *testing.T) {
		g, root, err := CompileString(NewGraph(), "(() #0)", nil)
		if err != nil {
			t.Fatalf("CompileString: %v", err)
		}
		if !IsLambda(g, root) {
			t.Fatal("expected a lambda")
		}
		n, _ := g.GetNode(root)
		pair := n.(PairNode)
		body, _ := g.GetNode(pair.Right)
		slot, ok := body.(SlotNode)
		if !ok || slot.Binder != pair.Left {
			t.Errorf("body should be a slot on the lambda's binder, got %s", body)
		}
	})

	t.Run("named lambda binds by name", func(t *testing.T) {
		g, root, err := CompileString(NewGraph(), "(x (x x))", nil)
		if err != nil {
			t.Fatalf("CompileString: %v", err)
		}
		out, err := Serialize(g, root)
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}
		if out != "(() (#0 #0))" {
			t.Errorf("got %q, want %q", out, "(() (#0 #0))")
		}
	})

	t.Run("unknown names become symbols", func(t *testing.T) {
		// The numeric head keeps the pair an application, so the free
		// name q lands in argument position as an inert symbol.
		g, root, err := CompileString(NewGraph(), "(() (1 q))", nil)
		if err != nil {
			t.Fatalf("CompileString: %v", err)
		}
		out, _ := Serialize(g, root)
		if out != "(() (1 q))" {
			t.Errorf("got %q, want %q", out, "(() (1 q))")
		}
	})

	t.Run("free name in head position opens an abstraction", func(t *testing.T) {
		g, root, err := CompileString(NewGraph(), "(() (q q))", nil)
		if err != nil {
			t.Fatalf("CompileString: %v", err)
		}
		out, _ := Serialize(g, root)
		if out != "(() (() #0))" {
			t.Errorf("got %q, want %q", out, "(() (() #0))")
		}
	})

	t.Run("nested depth references", func(t *testing.T) {
		g, root, err := CompileString(NewGraph(), "(() (() (#1 #0)))", nil)
		if err != nil {
			t.Fatalf("CompileString: %v", err)
		}
		out, _ := Serialize(g, root)
		if out != "(() (() (#1 #0)))" {
			t.Errorf("got %q, want %q", out, "(() (() (#1 #0)))")
		}
	})

	t.Run("depth reference out of range", func(t *testing.T) {
		for _, input := range []string{"#0", "(() #1)", "(() (() #2))"} {
			if _, _, err := CompileString(NewGraph(), input, nil); !errors.Is(err, ErrUnboundSlot) {
				t.Errorf("CompileString(%q): expected ErrUnboundSlot, got %v", input, err)
			}
		}
	})

	t.Run("numbers compile as named symbols", func(t *testing.T) {
		g, root, err := CompileString(NewGraph(), "42", nil)
		if err != nil {
			t.Fatalf("CompileString: %v", err)
		}
		n, _ := g.GetNode(root)
		if sym, ok := n.(SymbolNode); !ok || sym.Name != "42" {
			t.Errorf("expected symbol 42, got %s", n)
		}
	})

	t.Run("lists need zero or two elements", func(t *testing.T) {
		for _, input := range []string{"(a)", "(a b c)"} {
			if _, _, err := CompileString(NewGraph(), input, nil); err == nil {
				t.Errorf("CompileString(%q) should fail", input)
			}
		}
	})
}

// TestMarkerDisambiguation tests how a name in head position is read: it
// marks an abstraction only while nothing else resolves it.
func TestMarkerDisambiguation(t *testing.T) {
	res := testResolver{defs: map[string]string{"I": "(() #0)"}}

	t.Run("resolvable head is an application", func(t *testing.T) {
		g, root, err := CompileString(NewGraph(), "(I z)", res)
		if err != nil {
			t.Fatalf("CompileString: %v", err)
		}
		if IsLambda(g, root) {
			t.Fatal("(I z) with I defined should be an application")
		}
		n, _ := g.GetNode(root)
		pair := n.(PairNode)
		if !IsLambda(g, pair.Left) {
			t.Error("the resolver should have inlined I as a lambda")
		}
	})

	t.Run("unresolvable head is an abstraction", func(t *testing.T) {
		g, root, err := CompileString(NewGraph(), "(I z)", nil)
		if err != nil {
			t.Fatalf("CompileString: %v", err)
		}
		if !IsLambda(g, root) {
			t.Fatal("(I z) without definitions should be a lambda named I")
		}
		n, _ := g.GetNode(root)
		binder, _ := g.GetNode(n.(PairNode).Left)
		if binder.(BinderNode).Name != "I" {
			t.Errorf("binder name = %q, want %q", binder.(BinderNode).Name, "I")
		}
	})

	t.Run("a parameter in head position applies the parameter", func(t *testing.T) {
		// The inner (x z) sits under a binder named x, so its head is the
		// parameter and the form is an application rather than a nested
		// abstraction.
		g, root, err := CompileString(NewGraph(), "(x (x z))", nil)
		if err != nil {
			t.Fatalf("CompileString: %v", err)
		}
		out, _ := Serialize(g, root)
		if out != "(() (#0 z))" {
			t.Errorf("got %q, want %q", out, "(() (#0 z))")
		}
	})

	t.Run("empty head is always an abstraction", func(t *testing.T) {
		g, root, err := CompileString(NewGraph(), "(() I)", res)
		if err != nil {
			t.Fatalf("CompileString: %v", err)
		}
		if !IsLambda(g, root) {
			t.Fatal("(() body) must compile as a lambda")
		}
		// The body mention of I still resolves.
		n, _ := g.GetNode(root)
		if !IsLambda(g, n.(PairNode).Right) {
			t.Error("body should be the inlined lambda for I")
		}
	})
}

// TestCompileThreading tests that compiling an application threads the
// graph sequentially and never loses nodes.
func TestCompileThreading(t *testing.T) {
	// Numeric heads keep both inner pairs applications of symbols.
	g, root, err := CompileString(NewGraph(), "((1 b) (2 d))", nil)
	if err != nil {
		t.Fatalf("CompileString: %v", err)
	}
	// Four symbols and three pairs.
	if g.Size() != 7 {
		t.Errorf("graph size = %d, want 7", g.Size())
	}
	out, _ := Serialize(g, root)
	if out != "((1 b) (2 d))" {
		t.Errorf("got %q, want %q", out, "((1 b) (2 d))")
	}
	if strings.Contains(out, "#") {
		t.Errorf("free names should serialize as symbols: %q", out)
	}
}
