// Package lambda provides the persistent node substrate.
// This file implements the Graph store with efficient copy-on-write state
// management.
//
// # Architecture
//
// A Graph value is immutable. Each mutation (AddNode, UpdateNode) returns a
// new Graph that records the single changed node and points at its parent:
//
//	Graph3 -> node 7 updated   (parent: Graph2)
//	Graph2 -> node 9 added     (parent: Graph1)
//	Graph1 -> base map         (parent: nil)
//
// Lookup walks the chain newest-first, so derived graphs see their own
// changes while every previously observed Graph value keeps resolving
// exactly the nodes it resolved before. "Copying" the store at each
// reduction step is therefore O(1). To keep lookup bounded the chain is
// flattened into a fresh base map once it grows past a threshold; the
// flattened layer is a new value and ancestors are never touched.
//
// Node ids are assigned from a counter carried by the graph value and are
// never reused, including across cloning and compaction.
package lambda

import (
	"fmt"
	"sort"
)

// flattenDepth bounds the overlay chain length above a base layer.
const flattenDepth = 512

// Graph is a persistent, append-only store of nodes addressed by NodeID.
// The zero value is not usable; call NewGraph.
//
// Graph values are safe to share between independently explored reduction
// branches: no operation mutates an existing value.
type Graph struct {
	// parent is the previous layer, nil for a base layer.
	parent *Graph

	// id and node record the single entry this overlay adds or replaces.
	// Meaningful only when parent is non-nil.
	id   NodeID
	node Node

	// base holds the materialized store on base layers (parent == nil).
	base map[NodeID]Node

	// next is the next fresh NodeID.
	next NodeID

	// depth counts overlays above the nearest base layer.
	depth int
}

// NewGraph returns an empty graph. The first node added receives id 1.
func NewGraph() *Graph {
	return &Graph{base: map[NodeID]Node{}, next: 1}
}

// AddNode appends a node under a fresh id and returns the derived graph
// together with the id. The receiver is unchanged.
func (g *Graph) AddNode(n Node) (*Graph, NodeID) {
	id := g.next
	ng := &Graph{parent: g, id: id, node: n, next: id + 1, depth: g.depth + 1}
	if ng.depth >= flattenDepth {
		ng = ng.flatten()
	}
	return ng, id
}

// GetNode resolves an id to its node. It fails with ErrUnknownNode when the
// id does not name a node in this graph value.
func (g *Graph) GetNode(id NodeID) (Node, error) {
	for cur := g; cur != nil; cur = cur.parent {
		if cur.base != nil {
			if n, ok := cur.base[id]; ok {
				return n, nil
			}
			return nil, fmt.Errorf("get node %d: %w", id, ErrUnknownNode)
		}
		if cur.id == id {
			return cur.node, nil
		}
	}
	return nil, fmt.Errorf("get node %d: %w", id, ErrUnknownNode)
}

// UpdateNode returns a derived graph in which id resolves to fn(old).
// It fails with ErrUnknownNode when id is absent. The receiver is
// unchanged; previously observed graph values keep the old node.
func (g *Graph) UpdateNode(id NodeID, fn func(Node) Node) (*Graph, error) {
	old, err := g.GetNode(id)
	if err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}
	ng := &Graph{parent: g, id: id, node: fn(old), next: g.next, depth: g.depth + 1}
	if ng.depth >= flattenDepth {
		ng = ng.flatten()
	}
	return ng, nil
}

// flatten materializes the overlay chain into a fresh base layer.
// Ancestors are read, never written.
func (g *Graph) flatten() *Graph {
	// Collect overlays newest-first, find the base.
	var overlays []*Graph
	cur := g
	for cur.base == nil {
		overlays = append(overlays, cur)
		cur = cur.parent
	}
	m := make(map[NodeID]Node, len(cur.base)+len(overlays))
	for id, n := range cur.base {
		m[id] = n
	}
	// Apply oldest-first so later overlays win.
	for i := len(overlays) - 1; i >= 0; i-- {
		m[overlays[i].id] = overlays[i].node
	}
	return &Graph{base: m, next: g.next}
}

// IDs returns every id that resolves in this graph value, ascending.
func (g *Graph) IDs() []NodeID {
	seen := map[NodeID]bool{}
	for cur := g; cur != nil; cur = cur.parent {
		if cur.base != nil {
			for id := range cur.base {
				seen[id] = true
			}
			break
		}
		seen[cur.id] = true
	}
	ids := make([]NodeID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Size returns the number of nodes stored in this graph value, including
// any that are no longer reachable from a root. Compaction is the only
// operation that shrinks it.
func (g *Graph) Size() int {
	return len(g.IDs())
}

// CloneOptions selects which pointer relations CloneSubgraph follows when
// collecting the subgraph to copy. Pair children are always followed.
type CloneOptions struct {
	// FollowBinderValues copies the subterm bound into a binder's value
	// cell when the binder is part of the clone. The machine enables this
	// so that a cloned body never aliases the structure an earlier
	// application bound into it.
	FollowBinderValues bool

	// FollowSlotBinders additionally pulls a slot's binder into the clone
	// even when the binder is not reachable through pair children. Left
	// off, a slot bound by an enclosing lambda keeps pointing at the
	// original (shared) binder, which is what application requires.
	FollowSlotBinders bool
}

// CloneSubgraph deep-copies every node reachable from root under fresh ids
// and returns the derived graph with the id of the copied root. Pointer
// fields between copied nodes are rewired to the fresh ids; references to
// nodes outside the copied set are left untouched and remain shared.
//
// Cloning exists specifically so that a lambda body or argument can be
// rewritten in one future branch without aliasing another. Traversal is
// cycle-safe; cyclic subgraphs clone into cyclic subgraphs.
func (g *Graph) CloneSubgraph(root NodeID, opts CloneOptions) (*Graph, NodeID, error) {
	if _, err := g.GetNode(root); err != nil {
		return nil, NoNode, fmt.Errorf("clone subgraph: %w", err)
	}

	// Collect the reachable set.
	visited := map[NodeID]bool{}
	stack := []NodeID{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		n, err := g.GetNode(id)
		if err != nil {
			return nil, NoNode, fmt.Errorf("clone subgraph: %w", err)
		}
		switch node := n.(type) {
		case PairNode:
			stack = append(stack, node.Left, node.Right)
		case BinderNode:
			if opts.FollowBinderValues && node.Value != NoNode {
				stack = append(stack, node.Value)
			}
		case SlotNode:
			if opts.FollowSlotBinders {
				stack = append(stack, node.Binder)
			}
		case SymbolNode, EmptyNode:
			// Leaves.
		default:
			return nil, NoNode, fmt.Errorf("clone subgraph node %d: %w", id, ErrUnsupportedNodeKind)
		}
	}

	// Assign fresh ids in a deterministic order.
	olds := make([]NodeID, 0, len(visited))
	for id := range visited {
		olds = append(olds, id)
	}
	sort.Slice(olds, func(i, j int) bool { return olds[i] < olds[j] })

	remap := make(map[NodeID]NodeID, len(olds))
	ng := g
	for _, old := range olds {
		var id NodeID
		// Placeholder body; the rewired node replaces it below once the
		// whole mapping is known (copied sets may be cyclic).
		ng, id = ng.AddNode(EmptyNode{})
		remap[old] = id
	}

	rewire := func(id NodeID) NodeID {
		if fresh, ok := remap[id]; ok {
			return fresh
		}
		return id
	}
	for _, old := range olds {
		n, err := g.GetNode(old)
		if err != nil {
			return nil, NoNode, fmt.Errorf("clone subgraph: %w", err)
		}
		var copied Node
		switch node := n.(type) {
		case PairNode:
			copied = PairNode{Left: rewire(node.Left), Right: rewire(node.Right)}
		case BinderNode:
			value := node.Value
			if value != NoNode {
				value = rewire(value)
			}
			copied = BinderNode{Name: node.Name, Value: value}
		case SlotNode:
			copied = SlotNode{Binder: rewire(node.Binder)}
		case SymbolNode:
			copied = node
		case EmptyNode:
			copied = node
		default:
			return nil, NoNode, fmt.Errorf("clone subgraph node %d: %w", old, ErrUnsupportedNodeKind)
		}
		ng, err = ng.UpdateNode(remap[old], func(Node) Node { return copied })
		if err != nil {
			return nil, NoNode, fmt.Errorf("clone subgraph: %w", err)
		}
	}

	return ng, remap[root], nil
}
