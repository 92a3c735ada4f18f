// Package lambda provides snapshot output.
// This file implements the export format consumed by external visualizers
// and trace viewers. Snapshots are output-only: the machine never reads
// the format back. Nodes carry kind-specific fields; edges are derived
// from the pointer relations (pair children become indexed "child" edges,
// slot -> binder a "reentry" edge, binder -> value a "value" edge).
package lambda

import (
	"encoding/json"
	"fmt"
	"io"
)

// SnapshotNode describes one node for export.
type SnapshotNode struct {
	ID   NodeID `json:"id"`
	Kind string `json:"kind"`

	// Name is set for symbols and named binders.
	Name string `json:"name,omitempty"`

	// Bound is set for binders whose value cell is filled.
	Bound bool `json:"bound,omitempty"`
}

// SnapshotEdge describes one derived edge.
type SnapshotEdge struct {
	From NodeID `json:"from"`
	To   NodeID `json:"to"`

	// Kind is "child", "reentry" or "value".
	Kind string `json:"kind"`

	// Index orders child edges (0 left, 1 right).
	Index int `json:"index"`
}

// SnapshotGraph is the exported node/edge view of a graph.
type SnapshotGraph struct {
	Nodes []SnapshotNode `json:"nodes"`
	Edges []SnapshotEdge `json:"edges"`
}

// Snapshot is one exported machine state.
type Snapshot struct {
	Graph  SnapshotGraph `json:"graph"`
	RootID NodeID        `json:"rootId"`
	Note   string        `json:"note,omitempty"`
	Focus  NodeID        `json:"focus,omitempty"`
}

// NewSnapshot captures the nodes reachable from root. note and focus are
// free-form annotations for the consumer; focus typically names the node
// the most recent event rewrote.
func NewSnapshot(g *Graph, root NodeID, note string, focus NodeID) (*Snapshot, error) {
	reachable, err := reachableSet(g, root)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	snap := &Snapshot{RootID: root, Note: note, Focus: focus}
	for _, id := range sortedIDs(reachable) {
		n, err := g.GetNode(id)
		if err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		sn := SnapshotNode{ID: id, Kind: n.Kind().String()}
		switch node := n.(type) {
		case PairNode:
			snap.Graph.Edges = append(snap.Graph.Edges,
				SnapshotEdge{From: id, To: node.Left, Kind: "child", Index: 0},
				SnapshotEdge{From: id, To: node.Right, Kind: "child", Index: 1},
			)
		case BinderNode:
			sn.Name = node.Name
			sn.Bound = node.Bound()
			if node.Bound() {
				snap.Graph.Edges = append(snap.Graph.Edges,
					SnapshotEdge{From: id, To: node.Value, Kind: "value"})
			}
		case SlotNode:
			snap.Graph.Edges = append(snap.Graph.Edges,
				SnapshotEdge{From: id, To: node.Binder, Kind: "reentry"})
		case SymbolNode:
			sn.Name = node.Name
		case EmptyNode:
			// No extra fields.
		default:
			return nil, fmt.Errorf("snapshot node %d: %w", id, ErrUnsupportedNodeKind)
		}
		snap.Graph.Nodes = append(snap.Graph.Nodes, sn)
	}
	return snap, nil
}

// JSON renders the snapshot.
func (s *Snapshot) JSON() ([]byte, error) {
	return json.Marshal(s)
}

// Tracer accumulates one snapshot per applied event through the runner's
// observer callback.
type Tracer struct {
	Snapshots []*Snapshot

	// Err records the first snapshot failure; tracing must not influence
	// the reduction, so the callback swallows errors here.
	Err error
}

// StepObserver returns a callback for RunOptions.Observer.
func (t *Tracer) StepObserver() StepObserver {
	return func(step int, g *Graph, root NodeID, ev *Event) {
		if t.Err != nil {
			return
		}
		note := fmt.Sprintf("step %d: %s at node %d", step, ev.Kind, ev.Node)
		snap, err := NewSnapshot(g, root, note, ev.Node)
		if err != nil {
			t.Err = err
			return
		}
		t.Snapshots = append(t.Snapshots, snap)
	}
}

// WriteJSON writes the accumulated snapshots as a JSON array.
func (t *Tracer) WriteJSON(w io.Writer) error {
	if t.Err != nil {
		return t.Err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t.Snapshots)
}
