// Package lambda provides the surface-syntax reader.
// This file implements a small s-expression parser for the term language:
//
//	()            the empty term
//	(a b)         a two-element form: abstraction or application
//	#<n>          a De Bruijn depth reference (0 = nearest binder)
//	42            a numeric literal
//	name          a named reference
//
// Line comments start with ';' and run to end of line. The reader produces
// Form trees; the compiler in compile.go turns Forms into graph nodes.
package lambda

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// FormKind tags the surface-syntax tree.
type FormKind int

const (
	// FormList is a parenthesized list of sub-forms. The empty list is
	// the empty term; two-element lists denote abstraction or
	// application.
	FormList FormKind = iota

	// FormNumber is a numeric literal atom.
	FormNumber

	// FormDepthRef is a #<n> De Bruijn reference atom.
	FormDepthRef

	// FormName is a bare name atom.
	FormName
)

// Form is a node of the parsed surface syntax.
type Form struct {
	Kind   FormKind
	Items  []*Form // FormList
	Number int64   // FormNumber
	Depth  int     // FormDepthRef
	Name   string  // FormName
}

// String renders the form back in surface syntax.
func (f *Form) String() string {
	switch f.Kind {
	case FormList:
		parts := make([]string, len(f.Items))
		for i, item := range f.Items {
			parts[i] = item.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	case FormNumber:
		return strconv.FormatInt(f.Number, 10)
	case FormDepthRef:
		return "#" + strconv.Itoa(f.Depth)
	case FormName:
		return f.Name
	default:
		return "<invalid form>"
	}
}

// IsEmptyList reports whether the form is ().
func (f *Form) IsEmptyList() bool {
	return f.Kind == FormList && len(f.Items) == 0
}

type formParser struct {
	input []rune
	pos   int
}

// ParseForm parses a single term from input. Trailing content after the
// term is an error.
func ParseForm(input string) (*Form, error) {
	p := &formParser{input: []rune(input)}
	p.skipSpace()
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("parse: empty input")
	}
	form, err := p.parseForm()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return nil, fmt.Errorf("parse: unexpected input after term at position %d", p.pos)
	}
	return form, nil
}

// ParseForms parses a sequence of top-level terms, as found in definition
// files. An input with only whitespace and comments yields no forms.
func ParseForms(input string) ([]*Form, error) {
	p := &formParser{input: []rune(input)}
	var forms []*Form
	for {
		p.skipSpace()
		if p.pos >= len(p.input) {
			return forms, nil
		}
		form, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
}

func (p *formParser) parseForm() (*Form, error) {
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("parse: unexpected end of input")
	}
	switch p.input[p.pos] {
	case '(':
		return p.parseList()
	case ')':
		return nil, fmt.Errorf("parse: unexpected ')' at position %d", p.pos)
	default:
		return p.parseAtom()
	}
}

func (p *formParser) parseList() (*Form, error) {
	p.pos++ // consume '('
	items := []*Form{}
	for {
		p.skipSpace()
		if p.pos >= len(p.input) {
			return nil, fmt.Errorf("parse: unclosed list")
		}
		if p.input[p.pos] == ')' {
			p.pos++
			return &Form{Kind: FormList, Items: items}, nil
		}
		item, err := p.parseForm()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

func (p *formParser) parseAtom() (*Form, error) {
	start := p.pos
	for p.pos < len(p.input) && !isFormDelimiter(p.input[p.pos]) {
		p.pos++
	}
	token := string(p.input[start:p.pos])
	if token == "" {
		return nil, fmt.Errorf("parse: unexpected character %q at position %d", p.input[start], start)
	}

	if strings.HasPrefix(token, "#") {
		depth, err := strconv.Atoi(token[1:])
		if err != nil || depth < 0 {
			return nil, fmt.Errorf("parse: invalid depth reference %q at position %d", token, start)
		}
		return &Form{Kind: FormDepthRef, Depth: depth}, nil
	}

	if n, err := strconv.ParseInt(token, 10, 64); err == nil {
		return &Form{Kind: FormNumber, Number: n}, nil
	}

	return &Form{Kind: FormName, Name: token}, nil
}

func (p *formParser) skipSpace() {
	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		if ch == ';' {
			for p.pos < len(p.input) && p.input[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		if !unicode.IsSpace(ch) {
			return
		}
		p.pos++
	}
}

func isFormDelimiter(ch rune) bool {
	return unicode.IsSpace(ch) || ch == '(' || ch == ')' || ch == ';'
}
