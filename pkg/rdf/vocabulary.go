package rdf

// Namespace is the base IRI prefix for graphknit vocabulary terms.
const Namespace = "https://graphknit.dev/schema/core/"

// Core vocabulary predicates.
const (
	// ContextImports declares that the content of one context depends on
	// the content of another. Statements with this predicate live in a
	// designated imports context and form a directed, possibly cyclic,
	// graph over context identifiers.
	ContextImports = IRI(Namespace + "contextImports")
)

// ImportsContext is the default identifier of the context holding import
// edges
const ImportsContext = Namespace + "imports"
