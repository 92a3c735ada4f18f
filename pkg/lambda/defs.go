// Package lambda provides the definition library.
// This file implements the (def ...) / (defn ...) file syntax and the
// Library type, which serves as the Resolver capability for both
// compile-time inlining and run-time Expand events.
//
// Definition bodies compile through a deferred view of the library: inner
// names are recognized (so markers disambiguate) but stay Symbol nodes,
// expanding one layer per Expand event at run time. That makes recursive
// definitions expressible without unbounded compile-time inlining.
package lambda

import (
	"fmt"
	"sort"
)

// Library is an ordered collection of named definitions. It implements
// Resolver. The zero value is not usable; call NewLibrary or
// ParseDefinitions.
type Library struct {
	defs map[string]*Form
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{defs: map[string]*Form{}}
}

// ParseDefinitions reads a sequence of top-level definition forms:
//
//	(def name body)
//	(defn name (p1 p2 ...) body)
//
// defn desugars its parameter list into nested single-parameter lambdas,
// the last parameter innermost. Redefining a name is an error.
func ParseDefinitions(src string) (*Library, error) {
	forms, err := ParseForms(src)
	if err != nil {
		return nil, err
	}
	lib := NewLibrary()
	for _, form := range forms {
		if err := lib.addForm(form); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

func (l *Library) addForm(form *Form) error {
	if form.Kind != FormList || len(form.Items) < 1 || form.Items[0].Kind != FormName {
		return fmt.Errorf("defs: expected (def ...) or (defn ...), got %s", form)
	}
	switch form.Items[0].Name {
	case "def":
		if len(form.Items) != 3 || form.Items[1].Kind != FormName {
			return fmt.Errorf("defs: def requires a name and a body: %s", form)
		}
		return l.Define(form.Items[1].Name, form.Items[2])

	case "defn":
		if len(form.Items) != 4 || form.Items[1].Kind != FormName || form.Items[2].Kind != FormList {
			return fmt.Errorf("defs: defn requires a name, a parameter list and a body: %s", form)
		}
		body := form.Items[3]
		params := form.Items[2].Items
		for i := len(params) - 1; i >= 0; i-- {
			if params[i].Kind != FormName {
				return fmt.Errorf("defs: defn parameter must be a name: %s", params[i])
			}
			body = &Form{Kind: FormList, Items: []*Form{params[i], body}}
		}
		return l.Define(form.Items[1].Name, body)

	default:
		return fmt.Errorf("defs: unknown top-level form %q in %s", form.Items[0].Name, form)
	}
}

// Define adds a definition. Redefinition is rejected.
func (l *Library) Define(name string, body *Form) error {
	if name == "" {
		return fmt.Errorf("defs: empty definition name")
	}
	if _, exists := l.defs[name]; exists {
		return fmt.Errorf("defs: %q is already defined", name)
	}
	l.defs[name] = body
	return nil
}

// Names returns the defined names, sorted.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.defs))
	for name := range l.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolves reports whether name is defined. It has no side effects.
func (l *Library) Resolves(name string) bool {
	_, ok := l.defs[name]
	return ok
}

// Resolve compiles the definition of name into g and returns the derived
// graph with the definition's root. Inner references to other definitions
// compile through the deferred resolver, so they stay Symbol nodes and
// expand lazily.
func (l *Library) Resolve(g *Graph, name string) (*Graph, NodeID, error) {
	body, ok := l.defs[name]
	if !ok {
		return nil, NoNode, fmt.Errorf("defs: %q is not defined", name)
	}
	ng, id, err := Compile(g, body, deferredResolver{l})
	if err != nil {
		return nil, NoNode, fmt.Errorf("defs: compile %q: %w", name, err)
	}
	return ng, id, nil
}

// Deferred returns a resolver that recognizes the library's names but
// materializes each as a Symbol node instead of inlining its definition.
// Recognition still disambiguates abstraction markers from applications,
// while the actual definition is pulled in only when an Expand event is
// applied. Compile a term against Deferred and run it against the Library
// to get fully lazy expansion.
func (l *Library) Deferred() Resolver {
	return deferredResolver{l}
}

// deferredResolver recognizes library names without inlining them.
type deferredResolver struct {
	lib *Library
}

func (r deferredResolver) Resolves(name string) bool {
	return r.lib.Resolves(name)
}

func (r deferredResolver) Resolve(g *Graph, name string) (*Graph, NodeID, error) {
	if !r.lib.Resolves(name) {
		return nil, NoNode, fmt.Errorf("defs: %q is not defined", name)
	}
	ng, id := g.AddNode(SymbolNode{Name: name})
	return ng, id, nil
}
