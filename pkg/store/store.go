// Package store defines the query surface shared by every statement store in
// graphknit, the configuration tree used to open nested store compositions,
// and the registry resolving configuration kinds to implementations.
package store

import (
	"sort"

	"github.com/graphknit/graphknit/pkg/rdf"
)

// Binding associates a namespace prefix with its namespace IRI.
type Binding struct {
	Prefix    string
	Namespace string
}

// CtxTriple is a query result: one triple plus the identifiers of the
// contexts it was found in, sorted.
type CtxTriple struct {
	Triple   rdf.Triple
	Contexts []string
}

// Store is the query surface over a set of statements partitioned into
// contexts. The empty string stands for "all contexts" wherever a context
// identifier is accepted.
//
// Read-only implementations reject every mutating method.
type Store interface {
	// Open prepares the store from its configuration
	Open(cfg Config) error
	// Close releases all resources held by the store, recursively for
	// compositions
	Close() error

	// ContextAware reports whether the store partitions statements by
	// context. Federation requires it.
	ContextAware() bool
	// SupportsRangeQueries reports whether ordered range scans are
	// supported
	SupportsRangeQueries() bool

	// Triples returns all triples matching the pattern, optionally scoped
	// to one context
	Triples(pat rdf.Pattern, contextID string) ([]CtxTriple, error)
	// TriplesChoices is Triples with one pattern component carrying a list
	// of alternatives
	TriplesChoices(pat rdf.ChoicePattern, contextID string) ([]CtxTriple, error)
	// Contexts returns all context identifiers, or with a triple given, the
	// contexts containing that triple
	Contexts(triple *rdf.Triple) ([]string, error)
	// Len returns the number of statements, scoped to one context when a
	// non-empty identifier is given
	Len(contextID string) (int, error)

	Add(t rdf.Triple, contextID string) error
	AddQuads(quads []rdf.Quad) error
	Remove(pat rdf.Pattern, contextID string) error
	RemoveContext(contextID string) error
	Commit() error
	Rollback() error

	// Prefix returns the prefix bound to a namespace, or ""
	Prefix(namespace string) (string, error)
	// Namespace returns the namespace bound to a prefix, or ""
	Namespace(prefix string) (string, error)
	Namespaces() ([]Binding, error)
	Bind(prefix, namespace string) error
}

// SortContexts sorts a context identifier list in place and returns it
func SortContexts(ids []string) []string {
	sort.Strings(ids)
	return ids
}

// Intersect returns the sorted intersection of a sorted identifier list with
// a membership set
func Intersect(ids []string, members map[string]struct{}) []string {
	var out []string
	for _, id := range ids {
		if _, ok := members[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
