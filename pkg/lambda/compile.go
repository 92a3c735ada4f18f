// Package lambda provides the term compiler.
// This file turns parsed surface syntax into substrate nodes, resolving
// variable references into Slot -> Binder relations against an ordered
// binder stack. Compilation threads the graph sequentially: compiling an
// application compiles the argument against the graph produced by
// compiling the function.
//
// Marker disambiguation: a two-element form whose first element is () is
// always an abstraction. A two-element form whose first element is a name
// is an abstraction only when the name is not otherwise resolvable (not on
// the binder stack and not recognized by the resolver); a resolvable name
// in head position denotes application. This keeps (I z) an application
// while (x (x x)) introduces a named parameter.
package lambda

import (
	"fmt"
	"strconv"
)

// Resolver is the symbol-resolution capability supplied per call. It is
// threaded explicitly through the compiler and the machine instead of
// living in global state, preserving purity and deterministic tests.
//
// Resolves must be free of side effects; the machine consults it during
// redex search without ever materializing a definition. Resolve is invoked
// only when a definition is actually needed: at compile time for inlining,
// or when an Expand event is applied.
type Resolver interface {
	// Resolves reports whether the resolver recognizes name.
	Resolves(name string) bool

	// Resolve materializes the definition of name into g and returns the
	// derived graph with the definition's root id.
	Resolve(g *Graph, name string) (*Graph, NodeID, error)
}

// binderFrame is one entry of the compiler's binder stack. The innermost
// binder is the last element.
type binderFrame struct {
	id   NodeID
	name string
}

// Compile translates a parsed term into graph nodes and returns the
// derived graph with the term's root id. res may be nil; recognized names
// are then left as Symbol nodes for later expansion by the machine.
//
// Failure modes: a #<n> reference deeper than the enclosing binders or a
// surface form outside the grammar fail the compile; nothing is added as a
// silent free-variable placeholder.
func Compile(g *Graph, form *Form, res Resolver) (*Graph, NodeID, error) {
	return compileForm(g, form, nil, res)
}

// CompileString parses input and compiles it in one step.
func CompileString(g *Graph, input string, res Resolver) (*Graph, NodeID, error) {
	form, err := ParseForm(input)
	if err != nil {
		return nil, NoNode, err
	}
	return Compile(g, form, res)
}

func compileForm(g *Graph, form *Form, stack []binderFrame, res Resolver) (*Graph, NodeID, error) {
	switch form.Kind {
	case FormList:
		switch len(form.Items) {
		case 0:
			ng, id := g.AddNode(EmptyNode{})
			return ng, id, nil
		case 2:
			if name, ok := abstractionMarker(form.Items[0], stack, res); ok {
				return compileAbstraction(g, name, form.Items[1], stack, res)
			}
			return compileApplication(g, form.Items[0], form.Items[1], stack, res)
		default:
			return nil, NoNode, fmt.Errorf("compile: expected () or a two-element form, got %d elements in %s", len(form.Items), form)
		}

	case FormDepthRef:
		// Depth 0 names the innermost enclosing binder.
		idx := len(stack) - 1 - form.Depth
		if idx < 0 {
			return nil, NoNode, fmt.Errorf("compile: depth reference #%d exceeds %d enclosing binders: %w", form.Depth, len(stack), ErrUnboundSlot)
		}
		ng, id := g.AddNode(SlotNode{Binder: stack[idx].id})
		return ng, id, nil

	case FormName:
		return compileName(g, form.Name, stack, res)

	case FormNumber:
		// Numeric literals are free references named by their decimal
		// text; a resolver may bind them to encoded numerals.
		return compileName(g, strconv.FormatInt(form.Number, 10), stack, res)

	default:
		return nil, NoNode, fmt.Errorf("compile: form kind %d: %w", form.Kind, ErrUnsupportedNodeKind)
	}
}

// abstractionMarker reports whether head is a lambda marker in the current
// scope, returning the parameter name ("" for anonymous).
func abstractionMarker(head *Form, stack []binderFrame, res Resolver) (string, bool) {
	if head.IsEmptyList() {
		return "", true
	}
	if head.Kind != FormName {
		return "", false
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].name != "" && stack[i].name == head.Name {
			return "", false
		}
	}
	if res != nil && res.Resolves(head.Name) {
		return "", false
	}
	return head.Name, true
}

func compileAbstraction(g *Graph, name string, body *Form, stack []binderFrame, res Resolver) (*Graph, NodeID, error) {
	ng, binderID := g.AddNode(BinderNode{Name: name})
	ng, bodyID, err := compileForm(ng, body, append(stack, binderFrame{id: binderID, name: name}), res)
	if err != nil {
		return nil, NoNode, err
	}
	ng, id := ng.AddNode(PairNode{Left: binderID, Right: bodyID})
	return ng, id, nil
}

func compileApplication(g *Graph, fn, arg *Form, stack []binderFrame, res Resolver) (*Graph, NodeID, error) {
	ng, fnID, err := compileForm(g, fn, stack, res)
	if err != nil {
		return nil, NoNode, err
	}
	ng, argID, err := compileForm(ng, arg, stack, res)
	if err != nil {
		return nil, NoNode, err
	}
	ng, id := ng.AddNode(PairNode{Left: fnID, Right: argID})
	return ng, id, nil
}

func compileName(g *Graph, name string, stack []binderFrame, res Resolver) (*Graph, NodeID, error) {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].name != "" && stack[i].name == name {
			ng, id := g.AddNode(SlotNode{Binder: stack[i].id})
			return ng, id, nil
		}
	}
	if res != nil && res.Resolves(name) {
		ng, id, err := res.Resolve(g, name)
		if err != nil {
			return nil, NoNode, fmt.Errorf("compile %q: %w", name, err)
		}
		return ng, id, nil
	}
	ng, id := g.AddNode(SymbolNode{Name: name})
	return ng, id, nil
}
