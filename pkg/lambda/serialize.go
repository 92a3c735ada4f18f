// Package lambda provides the debug serializer.
// This file renders a (graph, root) back to parenthesized surface syntax.
// The serializer is read-only and is not part of evaluation; it exists for
// debugging and as the oracle behind the compaction contract. Lambdas
// print with the anonymous () marker, a bound slot prints its dereferenced
// value, an unresolved slot prints its De Bruijn depth as #n, and a
// detected cycle prints as #cycle.
package lambda

import (
	"fmt"
	"strconv"
	"strings"
)

// Serialize renders the term rooted at root in surface syntax.
func Serialize(g *Graph, root NodeID) (string, error) {
	var sb strings.Builder
	err := serializeNode(g, root, nil, map[NodeID]bool{}, &sb)
	if err != nil {
		return "", fmt.Errorf("serialize: %w", err)
	}
	return sb.String(), nil
}

// serializeNode walks the term. binderStack carries the enclosing binders
// (innermost last) for De Bruijn rendering; visiting holds the ids of the
// current descent path for cycle detection.
func serializeNode(g *Graph, id NodeID, binderStack []NodeID, visiting map[NodeID]bool, sb *strings.Builder) error {
	if visiting[id] {
		sb.WriteString("#cycle")
		return nil
	}
	n, err := g.GetNode(id)
	if err != nil {
		return err
	}
	visiting[id] = true
	defer delete(visiting, id)

	switch node := n.(type) {
	case EmptyNode:
		sb.WriteString("()")

	case SymbolNode:
		sb.WriteString(node.Name)

	case PairNode:
		if IsLambda(g, id) {
			sb.WriteString("(() ")
			err := serializeNode(g, node.Right, append(binderStack, node.Left), visiting, sb)
			if err != nil {
				return err
			}
			sb.WriteString(")")
			return nil
		}
		sb.WriteString("(")
		if err := serializeNode(g, node.Left, binderStack, visiting, sb); err != nil {
			return err
		}
		sb.WriteString(" ")
		if err := serializeNode(g, node.Right, binderStack, visiting, sb); err != nil {
			return err
		}
		sb.WriteString(")")

	case SlotNode:
		bn, err := g.GetNode(node.Binder)
		if err != nil {
			return err
		}
		binder, ok := bn.(BinderNode)
		if !ok {
			return fmt.Errorf("slot %d references non-binder %d: %w", id, node.Binder, ErrUnsupportedNodeKind)
		}
		if binder.Bound() {
			return serializeNode(g, binder.Value, binderStack, visiting, sb)
		}
		for i := len(binderStack) - 1; i >= 0; i-- {
			if binderStack[i] == node.Binder {
				sb.WriteString("#" + strconv.Itoa(len(binderStack)-1-i))
				return nil
			}
		}
		// Unbound and out of scope; compile-produced graphs never reach
		// this, but partial graphs under inspection can.
		sb.WriteString("#?")

	case BinderNode:
		// A binder only prints when inspected outside its lambda.
		sb.WriteString("#binder")

	default:
		return fmt.Errorf("serialize node %d: %w", id, ErrUnsupportedNodeKind)
	}
	return nil
}
