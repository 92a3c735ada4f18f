// Package lambda provides structural shape predicates.
// This file implements the pattern checks the machine and the compiler use
// to classify nodes. "Lambda" is a derived structural property, not stored
// state: a term is a lambda exactly when it is a Pair whose left child is
// a Binder.
package lambda

import "fmt"

// IsPair reports whether the node is a Pair.
func IsPair(n Node) bool {
	_, ok := n.(PairNode)
	return ok
}

// AssertPair returns the node as a PairNode after validating its shape:
// it must be a Pair and both children must resolve in the graph. A child
// that does not resolve fails with ErrInvalidPairShape.
func AssertPair(g *Graph, n Node) (PairNode, error) {
	p, ok := n.(PairNode)
	if !ok {
		return PairNode{}, fmt.Errorf("expected pair, got %s: %w", n.Kind(), ErrInvalidPairShape)
	}
	if _, err := g.GetNode(p.Left); err != nil {
		return PairNode{}, fmt.Errorf("pair left child %d dangling: %w", p.Left, ErrInvalidPairShape)
	}
	if _, err := g.GetNode(p.Right); err != nil {
		return PairNode{}, fmt.Errorf("pair right child %d dangling: %w", p.Right, ErrInvalidPairShape)
	}
	return p, nil
}

// IsLambda reports whether id names a lambda abstraction: a Pair whose
// left child resolves to a Binder. An unknown id is simply not a lambda;
// no error is reported.
func IsLambda(g *Graph, id NodeID) bool {
	n, err := g.GetNode(id)
	if err != nil {
		return false
	}
	p, ok := n.(PairNode)
	if !ok {
		return false
	}
	left, err := g.GetNode(p.Left)
	if err != nil {
		return false
	}
	_, ok = left.(BinderNode)
	return ok
}
