// Package lambda implements a pointer-graph reduction machine for a minimal
// lambda-calculus term language. Variable binding is realized through
// explicit indirection cells rather than textual substitution: a lambda's
// parameter is a Binder node owning a value cell, each occurrence of the
// variable is a Slot node pointing back at its binder, and application
// fills a freshly cloned binder's cell instead of rewriting the body.
//
// The package is organized leaf-first:
//
//   - node.go, graph.go    substrate: node kinds and the persistent store
//   - patterns.go          structural shape predicates
//   - parser.go, compile.go  surface syntax and the term compiler
//   - machine.go           redex observation and event application
//   - runner.go            fixed-point driver with two-phase scheduling
//   - compact.go           explicit, behavior-preserving garbage collection
//   - serialize.go         graph back to surface syntax (debug oracle)
//
// All operations are pure functions over explicit (graph, root) values.
// Graphs are persistent: every mutation yields a new graph value and prior
// values remain valid, so independent reduction branches never alias.
package lambda

import "fmt"

// NodeID identifies a node in a Graph. Identifiers are unique within a
// graph lineage and are never reused, including across cloning and
// compaction. The zero value is reserved and never names a node.
type NodeID int64

// NoNode is the reserved zero NodeID. A Binder whose Value is NoNode is
// unbound.
const NoNode NodeID = 0

// NodeKind tags the closed set of node kinds.
type NodeKind int

const (
	// KindPair is an ordered pair of two child references. Pairs serve
	// both as application nodes and, structurally, as lambda nodes: a
	// lambda is exactly a Pair whose left child is a Binder.
	KindPair NodeKind = iota

	// KindBinder represents a lambda's bound parameter. It owns an
	// indirection cell, empty until an application binds it.
	KindBinder

	// KindSlot is a variable occurrence holding a back-reference to the
	// binder that binds it.
	KindSlot

	// KindSymbol is a free named reference, resolved only through an
	// externally supplied Resolver, never by the machine itself.
	KindSymbol

	// KindEmpty is the canonical "no value" leaf.
	KindEmpty
)

// String returns the kind name used in snapshots and error messages.
func (k NodeKind) String() string {
	switch k {
	case KindPair:
		return "pair"
	case KindBinder:
		return "binder"
	case KindSlot:
		return "slot"
	case KindSymbol:
		return "symbol"
	case KindEmpty:
		return "empty"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is the closed sum of node kinds stored in a Graph. The set is
// closed: only the five concrete types in this file implement it, and
// traversal code dispatches exhaustively on the concrete type. Nodes are
// immutable values; the substrate replaces whole nodes rather than
// mutating fields in place.
type Node interface {
	// Kind returns the node's kind tag.
	Kind() NodeKind

	// String returns a short human-readable description of the node in
	// isolation (child ids, not child contents).
	String() string

	// sealed restricts implementations to this package.
	sealed()
}

// PairNode is an ordered pair of two child node references.
type PairNode struct {
	Left  NodeID
	Right NodeID
}

// Kind returns KindPair.
func (PairNode) Kind() NodeKind { return KindPair }

// String returns a description of the pair's child ids.
func (p PairNode) String() string { return fmt.Sprintf("pair(%d, %d)", p.Left, p.Right) }

func (PairNode) sealed() {}

// BinderNode represents a lambda's bound parameter. Value is the
// indirection cell: NoNode while unbound, otherwise the id of the bound
// subterm. Name is optional, kept for debugging; reduction ignores it.
type BinderNode struct {
	Name  string
	Value NodeID
}

// Kind returns KindBinder.
func (BinderNode) Kind() NodeKind { return KindBinder }

// Bound reports whether the binder's value cell has been set.
func (b BinderNode) Bound() bool { return b.Value != NoNode }

// String returns a description of the binder and its cell.
func (b BinderNode) String() string {
	if b.Value == NoNode {
		return fmt.Sprintf("binder(%q)", b.Name)
	}
	return fmt.Sprintf("binder(%q := %d)", b.Name, b.Value)
}

func (BinderNode) sealed() {}

// SlotNode is a variable occurrence. Binder is a back-reference to the
// owning BinderNode; the slot does not own the binder.
type SlotNode struct {
	Binder NodeID
}

// Kind returns KindSlot.
func (SlotNode) Kind() NodeKind { return KindSlot }

// String returns a description of the slot's binder reference.
func (s SlotNode) String() string { return fmt.Sprintf("slot(%d)", s.Binder) }

func (SlotNode) sealed() {}

// SymbolNode is a free named reference.
type SymbolNode struct {
	Name string
}

// Kind returns KindSymbol.
func (SymbolNode) Kind() NodeKind { return KindSymbol }

// String returns the symbol's name.
func (s SymbolNode) String() string { return fmt.Sprintf("symbol(%q)", s.Name) }

func (SymbolNode) sealed() {}

// EmptyNode is the canonical "no value" leaf.
type EmptyNode struct{}

// Kind returns KindEmpty.
func (EmptyNode) Kind() NodeKind { return KindEmpty }

// String returns "empty".
func (EmptyNode) String() string { return "empty" }

func (EmptyNode) sealed() {}
