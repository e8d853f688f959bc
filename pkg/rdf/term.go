// Package rdf provides the statement model shared by the store and bundle
// packages: terms, triples, quads, query patterns and the canonical
// serialization used for content addressing.
package rdf

import (
	"fmt"
	"strings"
)

// Term is a component of a statement. Concrete types are IRI, Literal and
// Variable. All concrete terms are comparable values, so triples can be used
// as map keys.
type Term interface {
	// NTriples renders the term in its canonical N-Triples form
	NTriples() string

	isTerm()
}

// IRI is an absolute IRI reference.
type IRI string

func (i IRI) isTerm() {}

// NTriples renders the IRI enclosed in angle brackets
func (i IRI) NTriples() string {
	return "<" + string(i) + ">"
}

func (i IRI) String() string {
	return string(i)
}

// Literal is a string value with an optional datatype or language tag.
type Literal struct {
	Value    string
	Datatype IRI
	Language string
}

func (l Literal) isTerm() {}

// NTriples renders the literal with its escaped lexical form and any
// datatype or language qualifier
func (l Literal) NTriples() string {
	var b strings.Builder
	b.WriteByte('"')
	b.WriteString(escapeLiteral(l.Value))
	b.WriteByte('"')
	switch {
	case l.Language != "":
		b.WriteByte('@')
		b.WriteString(l.Language)
	case l.Datatype != "":
		b.WriteString("^^")
		b.WriteString(l.Datatype.NTriples())
	}
	return b.String()
}

func (l Literal) String() string {
	return l.Value
}

// Text builds a plain literal
func Text(value string) Literal {
	return Literal{Value: value}
}

// Variable is an unresolved statement component. Statements containing a
// variable are not ground and are excluded from canonical serialization.
type Variable string

func (v Variable) isTerm() {}

// NTriples renders the variable with a leading question mark
func (v Variable) NTriples() string {
	return "?" + string(v)
}

func (v Variable) String() string {
	return string(v)
}

// IsGround reports whether the term is fully resolved, i.e. not a variable.
// A nil term is not ground.
func IsGround(t Term) bool {
	if t == nil {
		return false
	}
	_, variable := t.(Variable)
	return !variable
}

func escapeLiteral(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func unescapeLiteral(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("truncated escape sequence in literal %q", s)
		}
		switch s[i] {
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			return "", fmt.Errorf("unknown escape sequence \\%c in literal %q", s[i], s)
		}
	}
	return b.String(), nil
}
