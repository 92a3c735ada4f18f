package lambda

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

// TestSnapshot tests the exported node/edge view.
func TestSnapshot(t *testing.T) {
	t.Run("captures reachable nodes and derived edges", func(t *testing.T) {
		g, root, err := CompileString(NewGraph(), "((() #0) z)", nil)
		if err != nil {
			t.Fatalf("CompileString: %v", err)
		}
		snap, err := NewSnapshot(g, root, "initial", NoNode)
		if err != nil {
			t.Fatalf("NewSnapshot: %v", err)
		}
		// Lambda pair, binder, slot, symbol, application pair.
		if len(snap.Graph.Nodes) != 5 {
			t.Errorf("%d nodes, want 5", len(snap.Graph.Nodes))
		}
		kinds := map[string]int{}
		for _, e := range snap.Graph.Edges {
			kinds[e.Kind]++
		}
		if kinds["child"] != 4 {
			t.Errorf("%d child edges, want 4", kinds["child"])
		}
		if kinds["reentry"] != 1 {
			t.Errorf("%d reentry edges, want 1", kinds["reentry"])
		}
		if kinds["value"] != 0 {
			t.Errorf("%d value edges, want 0", kinds["value"])
		}
		if snap.RootID != root {
			t.Errorf("RootID = %d, want %d", snap.RootID, root)
		}
	})

	t.Run("bound binders export a value edge", func(t *testing.T) {
		g := NewGraph()
		g, z := g.AddNode(SymbolNode{Name: "z"})
		g, b := g.AddNode(BinderNode{Name: "x", Value: z})
		g, s := g.AddNode(SlotNode{Binder: b})

		snap, err := NewSnapshot(g, s, "", NoNode)
		if err != nil {
			t.Fatalf("NewSnapshot: %v", err)
		}
		var found bool
		for _, e := range snap.Graph.Edges {
			if e.Kind == "value" && e.From == b && e.To == z {
				found = true
			}
		}
		if !found {
			t.Error("missing binder value edge")
		}
		for _, n := range snap.Graph.Nodes {
			if n.ID == b && (!n.Bound || n.Name != "x") {
				t.Errorf("binder node exported as %+v", n)
			}
		}
	})

	t.Run("JSON round trips", func(t *testing.T) {
		g, root, err := CompileString(NewGraph(), "(x (x x))", nil)
		if err != nil {
			t.Fatalf("CompileString: %v", err)
		}
		snap, err := NewSnapshot(g, root, "note", root)
		if err != nil {
			t.Fatalf("NewSnapshot: %v", err)
		}
		data, err := snap.JSON()
		if err != nil {
			t.Fatalf("JSON: %v", err)
		}
		var decoded Snapshot
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if decoded.RootID != root || decoded.Note != "note" {
			t.Errorf("decoded %+v", decoded)
		}
		if len(decoded.Graph.Nodes) != len(snap.Graph.Nodes) {
			t.Errorf("decoded %d nodes, want %d", len(decoded.Graph.Nodes), len(snap.Graph.Nodes))
		}
	})
}

// TestTracer tests snapshot accumulation through a run.
func TestTracer(t *testing.T) {
	lib := combinatorLibrary(t)
	var tracer Tracer
	opts := DefaultRunOptions()
	opts.Observer = tracer.StepObserver()

	g, root, err := EvaluateString(context.Background(), "((K a) b)", lib, opts)
	if err != nil {
		t.Fatalf("EvaluateString: %v", err)
	}
	if out, _ := Serialize(g, root); out != "a" {
		t.Fatalf("got %q, want %q", out, "a")
	}

	if tracer.Err != nil {
		t.Fatalf("tracer error: %v", tracer.Err)
	}
	if len(tracer.Snapshots) != 2 {
		t.Fatalf("%d snapshots, want 2", len(tracer.Snapshots))
	}
	for i, snap := range tracer.Snapshots {
		if snap.Note == "" {
			t.Errorf("snapshot %d has no note", i)
		}
		if snap.Focus == NoNode {
			t.Errorf("snapshot %d has no focus", i)
		}
	}

	var buf bytes.Buffer
	if err := tracer.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var decoded []Snapshot
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded) != 2 {
		t.Errorf("decoded %d snapshots, want 2", len(decoded))
	}
}
