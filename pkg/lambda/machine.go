// Package lambda provides the reduction machine.
// This file implements redex observation and event application.
//
// # How a step works
//
// Observation walks the term depth-first from the root, left child before
// right, and classifies each node against three local rewrite rules:
//
//	Expand    a Symbol whose name the resolver recognizes
//	Collapse  a Pair whose dereferenced head is Empty; the right child
//	          survives and the pair disappears
//	Apply     a Pair whose dereferenced head is a lambda; a fresh clone
//	          of the lambda's binder is bound to the argument and the
//	          cloned body replaces the pair
//
// "Dereferenced head" means following bound Slot -> Binder -> value chains
// until a non-slot shape appears, with a visited-binder set so the lookup
// terminates even on cyclic structures. Dereferencing lets a rule see
// through layers of already-resolved bindings.
//
// Events are small records located by a Path of parent frames. Search
// never performs expansion side effects; an event mutates nothing until it
// is applied, and application re-derives the event against the current
// graph first, rejecting stale replays with ErrInvalidEvent.
package lambda

import "fmt"

// EventKind tags the rewrite rules.
type EventKind int

const (
	// EventExpand replaces a recognized Symbol with its definition.
	EventExpand EventKind = iota

	// EventCollapse discards a pair whose head dereferences to Empty,
	// keeping the right child.
	EventCollapse

	// EventApply performs indirection-based beta reduction.
	EventApply
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventExpand:
		return "expand"
	case EventCollapse:
		return "collapse"
	case EventApply:
		return "apply"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// PathFrameKind tags the two parent-pointer shapes a path can thread.
type PathFrameKind int

const (
	// FramePairChild descends into a pair's child slot (0 left, 1 right).
	FramePairChild PathFrameKind = iota

	// FrameBinderValue descends into a binder's value cell.
	FrameBinderValue
)

// PathFrame is one step of a path from the root to a redex. Parent names
// the node holding the pointer being followed.
type PathFrame struct {
	Kind   PathFrameKind
	Parent NodeID
	Child  int // FramePairChild only
}

// Path locates a redex as the sequence of parent frames from the root.
// An empty path means the redex is the root itself. Splicing a replacement
// rewrites exactly one parent pointer: the innermost frame's.
type Path []PathFrame

// Event is an enabled rewrite found by observation. Events are plain data;
// they are valid only against the graph they were derived from, which
// ApplyEvent enforces.
type Event struct {
	Kind EventKind

	// Node is the redex node the rule applies at.
	Node NodeID

	// Name is the symbol name (Expand only).
	Name string

	// Replacement is the surviving right child (Collapse only).
	Replacement NodeID

	// Lambda is the dereferenced lambda pair and Arg the argument
	// (Apply only).
	Lambda NodeID
	Arg    NodeID

	// Path locates Node from the root.
	Path Path
}

// derefHead follows bound Slot -> Binder -> value chains starting at id and
// returns the first id whose node is not a bound slot. A binder revisit
// stops the walk, so the lookup terminates on cyclic bindings.
func derefHead(g *Graph, id NodeID) (NodeID, error) {
	seen := map[NodeID]bool{}
	for {
		n, err := g.GetNode(id)
		if err != nil {
			return NoNode, err
		}
		slot, ok := n.(SlotNode)
		if !ok {
			return id, nil
		}
		bn, err := g.GetNode(slot.Binder)
		if err != nil {
			return NoNode, err
		}
		binder, ok := bn.(BinderNode)
		if !ok {
			return NoNode, fmt.Errorf("slot %d references non-binder %d: %w", id, slot.Binder, ErrUnsupportedNodeKind)
		}
		if !binder.Bound() || seen[slot.Binder] {
			return id, nil
		}
		seen[slot.Binder] = true
		id = binder.Value
	}
}

// ObserveOptions configures redex observation.
type ObserveOptions struct {
	// ReduceUnderLambdas lets observation descend into lambda bodies.
	// Off, a lambda whose head position enables no rule is a normal form
	// for the current phase.
	ReduceUnderLambdas bool

	// Resolver recognizes expandable symbols. May be nil, in which case
	// no Expand events are emitted.
	Resolver Resolver
}

// workItem is one pending visit on the observer's explicit DFS stack.
// seenBinders is private to the branch that created it; extending a branch
// copies the set rather than sharing it.
type workItem struct {
	id          NodeID
	path        Path
	seenBinders map[NodeID]bool
}

// Observer finds enabled events in deterministic leftmost-outermost order.
// A single Next call returns the first event found; repeated calls resume
// the walk rather than restarting it. Resumability is an optimization
// only: after any applied event the caller must discard the observer and
// start a fresh one from the new root, since the residual stack describes
// the old graph.
type Observer struct {
	g     *Graph
	opts  ObserveOptions
	stack []workItem
}

// NewObserver starts an observation at root.
func NewObserver(g *Graph, root NodeID, opts ObserveOptions) *Observer {
	return &Observer{
		g:     g,
		opts:  opts,
		stack: []workItem{{id: root}},
	}
}

// Next returns the next enabled event in schedule order, or nil when the
// remaining term is in normal form for the current phase.
func (o *Observer) Next() (*Event, error) {
	for len(o.stack) > 0 {
		it := o.stack[len(o.stack)-1]
		o.stack = o.stack[:len(o.stack)-1]

		n, err := o.g.GetNode(it.id)
		if err != nil {
			return nil, fmt.Errorf("observe: %w", err)
		}

		switch node := n.(type) {
		case SymbolNode:
			// Expansion has the highest priority at a node, but search
			// itself never resolves; that happens at apply time.
			if o.opts.Resolver != nil && o.opts.Resolver.Resolves(node.Name) {
				return &Event{Kind: EventExpand, Node: it.id, Name: node.Name, Path: it.path}, nil
			}

		case PairNode:
			head, err := derefHead(o.g, node.Left)
			if err != nil {
				return nil, fmt.Errorf("observe: %w", err)
			}
			hn, err := o.g.GetNode(head)
			if err != nil {
				return nil, fmt.Errorf("observe: %w", err)
			}
			if _, isEmpty := hn.(EmptyNode); isEmpty {
				return &Event{Kind: EventCollapse, Node: it.id, Replacement: node.Right, Path: it.path}, nil
			}
			if IsLambda(o.g, head) {
				return &Event{Kind: EventApply, Node: it.id, Lambda: head, Arg: node.Right, Path: it.path}, nil
			}
			if IsLambda(o.g, it.id) {
				// The pair is itself a lambda. Its body is reducible
				// only in the full phase.
				if o.opts.ReduceUnderLambdas {
					o.push(node.Right, extendPath(it.path, PathFrame{Kind: FramePairChild, Parent: it.id, Child: 1}), it.seenBinders)
				}
				continue
			}
			// Right pushed first so the left child pops, and is visited,
			// first.
			o.push(node.Right, extendPath(it.path, PathFrame{Kind: FramePairChild, Parent: it.id, Child: 1}), it.seenBinders)
			o.push(node.Left, extendPath(it.path, PathFrame{Kind: FramePairChild, Parent: it.id, Child: 0}), it.seenBinders)

		case SlotNode:
			bn, err := o.g.GetNode(node.Binder)
			if err != nil {
				return nil, fmt.Errorf("observe: %w", err)
			}
			binder, ok := bn.(BinderNode)
			if !ok {
				return nil, fmt.Errorf("observe slot %d: binder %d: %w", it.id, node.Binder, ErrUnsupportedNodeKind)
			}
			if binder.Bound() && !it.seenBinders[node.Binder] {
				seen := copyBinderSet(it.seenBinders)
				seen[node.Binder] = true
				o.stack = append(o.stack, workItem{
					id:          binder.Value,
					path:        extendPath(it.path, PathFrame{Kind: FrameBinderValue, Parent: node.Binder}),
					seenBinders: seen,
				})
			}

		case BinderNode, EmptyNode:
			// Leaves for observation purposes.

		default:
			return nil, fmt.Errorf("observe node %d: %w", it.id, ErrUnsupportedNodeKind)
		}
	}
	return nil, nil
}

func (o *Observer) push(id NodeID, path Path, seen map[NodeID]bool) {
	o.stack = append(o.stack, workItem{id: id, path: path, seenBinders: seen})
}

// extendPath returns a fresh path; sibling branches must not share backing
// storage.
func extendPath(p Path, frame PathFrame) Path {
	np := make(Path, len(p)+1)
	copy(np, p)
	np[len(p)] = frame
	return np
}

func copyBinderSet(m map[NodeID]bool) map[NodeID]bool {
	cp := make(map[NodeID]bool, len(m)+1)
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// ObserveEvent returns the first enabled event under the deterministic
// schedule, or nil when the term is in normal form for the phase.
func ObserveEvent(g *Graph, root NodeID, opts ObserveOptions) (*Event, error) {
	return NewObserver(g, root, opts).Next()
}

// CollectEnabledEvents records every enabled event under the same
// traversal and priority rules as ObserveEvent, in schedule order. It is
// the candidate generator for alternative schedulers; like ObserveEvent it
// performs no expansion side effects.
func CollectEnabledEvents(g *Graph, root NodeID, opts ObserveOptions) ([]Event, error) {
	obs := NewObserver(g, root, opts)
	var events []Event
	for {
		ev, err := obs.Next()
		if err != nil {
			return nil, err
		}
		if ev == nil {
			return events, nil
		}
		events = append(events, *ev)
	}
}

// ApplyOptions configures event application.
type ApplyOptions struct {
	// Resolver materializes definitions for Expand events. Required when
	// applying an Expand.
	Resolver Resolver

	// CloneArguments clones the argument subtree on Apply. Disabling it
	// trades aliasing risk for structural sharing.
	CloneArguments bool
}

// ApplyEvent applies an event and returns the derived (graph, root). It is
// a pure function; the input graph and root remain valid.
//
// The event is first re-derived against the current graph: the path must
// thread intact from root to the event's node and the rule must still be
// enabled with the same participants. Any mismatch fails with
// ErrInvalidEvent, which prevents replaying an event computed against a
// stale snapshot.
func ApplyEvent(g *Graph, root NodeID, ev *Event, opts ApplyOptions) (*Graph, NodeID, error) {
	if err := verifyPath(g, root, ev); err != nil {
		return nil, NoNode, err
	}

	ng := g
	var replacement NodeID

	switch ev.Kind {
	case EventExpand:
		n, err := g.GetNode(ev.Node)
		if err != nil {
			return nil, NoNode, fmt.Errorf("apply expand: %w", err)
		}
		sym, ok := n.(SymbolNode)
		if !ok || sym.Name != ev.Name {
			return nil, NoNode, fmt.Errorf("apply expand at %d: %w", ev.Node, ErrInvalidEvent)
		}
		if opts.Resolver == nil || !opts.Resolver.Resolves(ev.Name) {
			return nil, NoNode, fmt.Errorf("apply expand %q: no resolver recognizes it: %w", ev.Name, ErrInvalidEvent)
		}
		ng, replacement, err = opts.Resolver.Resolve(ng, ev.Name)
		if err != nil {
			return nil, NoNode, fmt.Errorf("apply expand %q: %w", ev.Name, err)
		}

	case EventCollapse:
		pair, head, err := derivePairHead(g, ev.Node)
		if err != nil {
			return nil, NoNode, err
		}
		hn, err := g.GetNode(head)
		if err != nil {
			return nil, NoNode, fmt.Errorf("apply collapse: %w", err)
		}
		if _, isEmpty := hn.(EmptyNode); !isEmpty || pair.Right != ev.Replacement {
			return nil, NoNode, fmt.Errorf("apply collapse at %d: %w", ev.Node, ErrInvalidEvent)
		}
		replacement = ev.Replacement

	case EventApply:
		pair, head, err := derivePairHead(g, ev.Node)
		if err != nil {
			return nil, NoNode, err
		}
		if head != ev.Lambda || !IsLambda(g, head) || pair.Right != ev.Arg {
			return nil, NoNode, fmt.Errorf("apply beta at %d: %w", ev.Node, ErrInvalidEvent)
		}

		// Clone the lambda so repeated applications of the same lambda
		// value never alias mutable state.
		var lamID NodeID
		ng, lamID, err = ng.CloneSubgraph(ev.Lambda, CloneOptions{FollowBinderValues: true})
		if err != nil {
			return nil, NoNode, fmt.Errorf("apply beta: %w", err)
		}
		ln, err := ng.GetNode(lamID)
		if err != nil {
			return nil, NoNode, fmt.Errorf("apply beta: %w", err)
		}
		lam, ok := ln.(PairNode)
		if !ok {
			return nil, NoNode, fmt.Errorf("apply beta: cloned lambda %d: %w", lamID, ErrInvalidEvent)
		}

		argID := ev.Arg
		if opts.CloneArguments {
			ng, argID, err = ng.CloneSubgraph(ev.Arg, CloneOptions{FollowBinderValues: true})
			if err != nil {
				return nil, NoNode, fmt.Errorf("apply beta: %w", err)
			}
		}

		ng, err = ng.UpdateNode(lam.Left, func(n Node) Node {
			binder := n.(BinderNode)
			binder.Value = argID
			return binder
		})
		if err != nil {
			return nil, NoNode, fmt.Errorf("apply beta: %w", err)
		}
		replacement = lam.Right

	default:
		return nil, NoNode, fmt.Errorf("apply: event kind %d: %w", ev.Kind, ErrUnsupportedNodeKind)
	}

	return splice(ng, root, ev.Path, replacement)
}

// derivePairHead fetches the pair at id and its dereferenced head.
func derivePairHead(g *Graph, id NodeID) (PairNode, NodeID, error) {
	n, err := g.GetNode(id)
	if err != nil {
		return PairNode{}, NoNode, fmt.Errorf("apply: %w", err)
	}
	pair, ok := n.(PairNode)
	if !ok {
		return PairNode{}, NoNode, fmt.Errorf("apply at %d: not a pair: %w", id, ErrInvalidEvent)
	}
	head, err := derefHead(g, pair.Left)
	if err != nil {
		return PairNode{}, NoNode, fmt.Errorf("apply: %w", err)
	}
	return pair, head, nil
}

// verifyPath checks that the event's path still threads from root to the
// event's node in the current graph.
func verifyPath(g *Graph, root NodeID, ev *Event) error {
	cur := root
	for i, frame := range ev.Path {
		if frame.Kind == FrameBinderValue && frame.Parent != cur {
			// Observation reaches a binder's value cell standing on a
			// slot while the frame names the binder; make the same hop.
			n, err := g.GetNode(cur)
			if err != nil {
				return fmt.Errorf("path frame %d: %w", i, err)
			}
			if slot, ok := n.(SlotNode); ok && slot.Binder == frame.Parent {
				cur = frame.Parent
			}
		}
		if frame.Parent != cur {
			return fmt.Errorf("path frame %d expects parent %d, at %d: %w", i, frame.Parent, cur, ErrInvalidEvent)
		}
		n, err := g.GetNode(frame.Parent)
		if err != nil {
			return fmt.Errorf("path frame %d: %w", i, err)
		}
		switch frame.Kind {
		case FramePairChild:
			pair, ok := n.(PairNode)
			if !ok {
				return fmt.Errorf("path frame %d: node %d is %s, not pair: %w", i, frame.Parent, n.Kind(), ErrInvalidEvent)
			}
			switch frame.Child {
			case 0:
				cur = pair.Left
			case 1:
				cur = pair.Right
			default:
				return fmt.Errorf("path frame %d: child index %d: %w", i, frame.Child, ErrInvalidEvent)
			}
		case FrameBinderValue:
			binder, ok := n.(BinderNode)
			if !ok || !binder.Bound() {
				return fmt.Errorf("path frame %d: node %d is not a bound binder: %w", i, frame.Parent, ErrInvalidEvent)
			}
			cur = binder.Value
		default:
			return fmt.Errorf("path frame %d: kind %d: %w", i, frame.Kind, ErrUnsupportedNodeKind)
		}
	}
	if cur != ev.Node {
		return fmt.Errorf("path leads to %d, event targets %d: %w", cur, ev.Node, ErrInvalidEvent)
	}
	return nil
}

// splice rewrites the single parent pointer named by the innermost path
// frame to reference replacement. An empty path replaces the root.
func splice(g *Graph, root NodeID, path Path, replacement NodeID) (*Graph, NodeID, error) {
	if len(path) == 0 {
		return g, replacement, nil
	}
	frame := path[len(path)-1]
	switch frame.Kind {
	case FramePairChild:
		ng, err := g.UpdateNode(frame.Parent, func(n Node) Node {
			pair := n.(PairNode)
			if frame.Child == 0 {
				pair.Left = replacement
			} else {
				pair.Right = replacement
			}
			return pair
		})
		if err != nil {
			return nil, NoNode, fmt.Errorf("splice: %w", err)
		}
		return ng, root, nil
	case FrameBinderValue:
		ng, err := g.UpdateNode(frame.Parent, func(n Node) Node {
			binder := n.(BinderNode)
			binder.Value = replacement
			return binder
		})
		if err != nil {
			return nil, NoNode, fmt.Errorf("splice: %w", err)
		}
		return ng, root, nil
	default:
		return nil, NoNode, fmt.Errorf("splice: frame kind %d: %w", frame.Kind, ErrUnsupportedNodeKind)
	}
}
