// Package lambda provides explicit graph compaction.
// This file implements the only node-deleting operation in the package.
// Reduction never reclaims the garbage that cloning leaves behind; callers
// running long or many reduction sequences invoke Compact at points of
// their choosing. The pass is strictly behavior-preserving:
// Serialize(Compact(g, r)) equals Serialize(g, r) for every input, and the
// returned root (possibly redirected) names the equivalent term.
//
// Modes build on each other:
//
//	CompactNone    prune nodes unreachable from the root
//	CompactIntern  additionally merge interchangeable leaves: all Empty
//	               nodes, Symbols sharing a name, Slots sharing a binder
//	CompactFull    additionally inline a bound slot by its value when the
//	               value is stable (Empty, a declared-inert Symbol, or a
//	               lambda), since such a value's outward shape can never
//	               later be replaced in place by a local rewrite
package lambda

import (
	"fmt"
	"sort"
)

// CompactMode selects how aggressively Compact rewrites the store.
type CompactMode int

const (
	// CompactNone prunes unreachable nodes only.
	CompactNone CompactMode = iota

	// CompactIntern also merges interchangeable Empty, Symbol and Slot
	// nodes via a redirect map.
	CompactIntern

	// CompactFull also inlines bound slots at stable values.
	CompactFull
)

// String returns the mode name.
func (m CompactMode) String() string {
	switch m {
	case CompactNone:
		return "none"
	case CompactIntern:
		return "intern"
	case CompactFull:
		return "full"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// CompactOptions configures a compaction pass.
type CompactOptions struct {
	Mode CompactMode

	// InertSymbols names symbols the caller declares will never be
	// expanded. CompactFull may inline a bound slot whose value is such
	// a symbol; expandable symbols are not stable, since expansion
	// replaces their shape in place.
	InertSymbols map[string]bool
}

// Compact rebuilds the store with garbage removed and returns the derived
// graph with the (possibly redirected) root. The input graph value remains
// valid and unchanged.
func Compact(g *Graph, root NodeID, opts CompactOptions) (*Graph, NodeID, error) {
	reachable, err := reachableSet(g, root)
	if err != nil {
		return nil, NoNode, fmt.Errorf("compact: %w", err)
	}

	redirects := map[NodeID]NodeID{}
	if opts.Mode >= CompactIntern {
		if err := internRedirects(g, reachable, redirects); err != nil {
			return nil, NoNode, fmt.Errorf("compact: %w", err)
		}
	}
	if opts.Mode >= CompactFull {
		if err := inlineRedirects(g, reachable, opts.InertSymbols, redirects); err != nil {
			return nil, NoNode, fmt.Errorf("compact: %w", err)
		}
	}

	resolve := func(id NodeID) NodeID { return resolveRedirect(redirects, id) }

	// Rebuild the surviving nodes with pointer fields mapped through the
	// resolved redirects. Ids are preserved; the counter carries over so
	// ids are never reused.
	base := make(map[NodeID]Node, len(reachable))
	for id := range reachable {
		if _, redirected := redirects[id]; redirected {
			continue
		}
		n, err := g.GetNode(id)
		if err != nil {
			return nil, NoNode, fmt.Errorf("compact: %w", err)
		}
		switch node := n.(type) {
		case PairNode:
			base[id] = PairNode{Left: resolve(node.Left), Right: resolve(node.Right)}
		case BinderNode:
			value := node.Value
			if value != NoNode {
				value = resolve(value)
			}
			base[id] = BinderNode{Name: node.Name, Value: value}
		case SlotNode:
			base[id] = SlotNode{Binder: resolve(node.Binder)}
		case SymbolNode, EmptyNode:
			base[id] = node
		default:
			return nil, NoNode, fmt.Errorf("compact node %d: %w", id, ErrUnsupportedNodeKind)
		}
	}

	compacted := &Graph{base: base, next: g.next}
	newRoot := resolve(root)

	// Merging can orphan nodes that were only reachable through a
	// redirected slot; a final prune pass removes them.
	final, err := reachableSet(compacted, newRoot)
	if err != nil {
		return nil, NoNode, fmt.Errorf("compact: %w", err)
	}
	if len(final) != len(base) {
		pruned := make(map[NodeID]Node, len(final))
		for id := range final {
			pruned[id] = base[id]
		}
		compacted = &Graph{base: pruned, next: g.next}
	}

	return compacted, newRoot, nil
}

// reachableSet walks from root following pair children, slot -> binder and
// binder -> value edges. Traversal is cycle-safe.
func reachableSet(g *Graph, root NodeID) (map[NodeID]bool, error) {
	reachable := map[NodeID]bool{}
	stack := []NodeID{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reachable[id] {
			continue
		}
		reachable[id] = true
		n, err := g.GetNode(id)
		if err != nil {
			return nil, err
		}
		switch node := n.(type) {
		case PairNode:
			stack = append(stack, node.Left, node.Right)
		case SlotNode:
			stack = append(stack, node.Binder)
		case BinderNode:
			if node.Value != NoNode {
				stack = append(stack, node.Value)
			}
		case SymbolNode, EmptyNode:
			// Leaves.
		default:
			return nil, fmt.Errorf("reachability at node %d: %w", id, ErrUnsupportedNodeKind)
		}
	}
	return reachable, nil
}

// internRedirects merges interchangeable leaves: every Empty into one
// canonical instance, Symbols by name, Slots by binder. The lowest
// reachable id of each class is canonical, which keeps the pass
// deterministic.
func internRedirects(g *Graph, reachable map[NodeID]bool, redirects map[NodeID]NodeID) error {
	var canonicalEmpty NodeID
	canonicalSymbol := map[string]NodeID{}
	canonicalSlot := map[NodeID]NodeID{}

	for _, id := range sortedIDs(reachable) {
		n, err := g.GetNode(id)
		if err != nil {
			return err
		}
		switch node := n.(type) {
		case EmptyNode:
			if canonicalEmpty == NoNode {
				canonicalEmpty = id
			} else {
				redirects[id] = canonicalEmpty
			}
		case SymbolNode:
			if canon, ok := canonicalSymbol[node.Name]; ok {
				redirects[id] = canon
			} else {
				canonicalSymbol[node.Name] = id
			}
		case SlotNode:
			// Occurrences of one binder's variable are interchangeable.
			if canon, ok := canonicalSlot[node.Binder]; ok {
				redirects[id] = canon
			} else {
				canonicalSlot[node.Binder] = id
			}
		case PairNode, BinderNode:
			// Structural nodes are never merged.
		default:
			return fmt.Errorf("intern at node %d: %w", id, ErrUnsupportedNodeKind)
		}
	}
	return nil
}

// inlineRedirects redirects bound slots to their value's root when the
// value is stable. inert marks symbols the caller promises never to
// expand.
func inlineRedirects(g *Graph, reachable map[NodeID]bool, inert map[string]bool, redirects map[NodeID]NodeID) error {
	for _, id := range sortedIDs(reachable) {
		n, err := g.GetNode(id)
		if err != nil {
			return err
		}
		slot, ok := n.(SlotNode)
		if !ok {
			continue
		}
		bn, err := g.GetNode(slot.Binder)
		if err != nil {
			return err
		}
		binder, ok := bn.(BinderNode)
		if !ok {
			return fmt.Errorf("inline at slot %d: binder %d: %w", id, slot.Binder, ErrUnsupportedNodeKind)
		}
		if !binder.Bound() {
			continue
		}
		stable, err := isStableValue(g, binder.Value, inert)
		if err != nil {
			return err
		}
		if stable {
			redirects[id] = binder.Value
		}
	}
	return nil
}

// isStableValue reports whether the node's outward shape can never later
// be replaced in place by a local rewrite: Empty, an inert Symbol, or a
// lambda pair.
func isStableValue(g *Graph, id NodeID, inert map[string]bool) (bool, error) {
	n, err := g.GetNode(id)
	if err != nil {
		return false, err
	}
	switch node := n.(type) {
	case EmptyNode:
		return true, nil
	case SymbolNode:
		return inert[node.Name], nil
	case PairNode:
		return IsLambda(g, id), nil
	default:
		return false, nil
	}
}

// resolveRedirect follows the redirect map to a canonical id. The walk is
// bounded by the map size, so a malformed cyclic redirect chain cannot
// hang it.
func resolveRedirect(redirects map[NodeID]NodeID, id NodeID) NodeID {
	for i := 0; i <= len(redirects); i++ {
		next, ok := redirects[id]
		if !ok {
			return id
		}
		id = next
	}
	return id
}

func sortedIDs(set map[NodeID]bool) []NodeID {
	ids := make([]NodeID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
