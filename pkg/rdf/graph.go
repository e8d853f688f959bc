package rdf

import (
	"sort"
)

// Graph is a mutable working set of named contexts. It is the in-process
// representation handed to the installer: statements are grouped by the
// identifier of the context they belong to.
//
// Graph is not safe for concurrent mutation.
type Graph struct {
	contexts map[string]map[Triple]struct{}
}

// NewGraph creates an empty working graph
func NewGraph() *Graph {
	return &Graph{contexts: make(map[string]map[Triple]struct{})}
}

// Add records one statement in the named context
func (g *Graph) Add(contextID string, t Triple) {
	ctx, ok := g.contexts[contextID]
	if !ok {
		ctx = make(map[Triple]struct{})
		g.contexts[contextID] = ctx
	}
	ctx[t] = struct{}{}
}

// AddQuad records the statement in the context named by the quad
func (g *Graph) AddQuad(q Quad) {
	g.Add(q.Context, q.Triple)
}

// Context returns the statements of one context in canonical order. The
// result is a copy; mutating it does not affect the graph.
func (g *Graph) Context(contextID string) []Triple {
	ctx := g.contexts[contextID]
	triples := make([]Triple, 0, len(ctx))
	for t := range ctx {
		triples = append(triples, t)
	}
	sort.Slice(triples, func(i, j int) bool {
		return triples[i].NTriples() < triples[j].NTriples()
	})
	return triples
}

// ContextIDs returns the identifiers of all non-empty contexts, sorted
func (g *Graph) ContextIDs() []string {
	ids := make([]string, 0, len(g.contexts))
	for id, triples := range g.contexts {
		if len(triples) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Len returns the total number of statements across all contexts
func (g *Graph) Len() int {
	n := 0
	for _, ctx := range g.contexts {
		n += len(ctx)
	}
	return n
}

// Context is a staged statement holder: an identified set of statements plus
// the declared imports of other contexts. It accumulates statements in memory
// until they are saved into a Graph or ingested by a context store.
type Context struct {
	id           string
	statements   []Triple
	imports      []*Context
	triplesSaved int
}

// NewContext creates an empty staged context
func NewContext(id string) *Context {
	return &Context{id: id}
}

// Identifier returns the context identifier
func (c *Context) Identifier() string {
	return c.id
}

// AddStatement stages one statement
func (c *Context) AddStatement(t Triple) {
	c.statements = append(c.statements, t)
}

// RemoveStatement drops a previously staged statement
func (c *Context) RemoveStatement(t Triple) {
	for i, s := range c.statements {
		if s == t {
			c.statements = append(c.statements[:i], c.statements[i+1:]...)
			return
		}
	}
}

// AddImport declares that this context depends on another context's content
func (c *Context) AddImport(imported *Context) {
	c.imports = append(c.imports, imported)
}

// Imports returns the directly imported contexts in declaration order
func (c *Context) Imports() []*Context {
	return c.imports
}

// ContentsTriples returns the staged statements in staging order
func (c *Context) ContentsTriples() []Triple {
	return c.statements
}

// Len returns the number of staged statements
func (c *Context) Len() int {
	return len(c.statements)
}

// Clear drops all staged statements
func (c *Context) Clear() {
	c.statements = nil
}

// SaveContext writes the context's ground statements into the destination
// graph. With inlineImports set, the ground statements of every transitively
// imported context are written as well, each under its own context
// identifier. Import cycles are tolerated.
//
// The number of statements written is available from TriplesSaved until the
// next save. Statements with a variable component are skipped and not
// counted.
func (c *Context) SaveContext(dest *Graph, inlineImports bool) {
	c.triplesSaved = 0
	seen := make(map[string]struct{})
	c.save(dest, inlineImports, seen)
}

func (c *Context) save(dest *Graph, inlineImports bool, seen map[string]struct{}) {
	if _, ok := seen[c.id]; ok {
		return
	}
	seen[c.id] = struct{}{}
	for _, t := range c.statements {
		if !t.Ground() {
			continue
		}
		dest.Add(c.id, t)
		c.triplesSaved++
	}
	if !inlineImports {
		return
	}
	for _, imported := range c.imports {
		saved := imported.saveInto(dest, seen)
		c.triplesSaved += saved
	}
}

func (c *Context) saveInto(dest *Graph, seen map[string]struct{}) int {
	if _, ok := seen[c.id]; ok {
		return 0
	}
	seen[c.id] = struct{}{}
	saved := 0
	for _, t := range c.statements {
		if !t.Ground() {
			continue
		}
		dest.Add(c.id, t)
		saved++
	}
	for _, imported := range c.imports {
		saved += imported.saveInto(dest, seen)
	}
	return saved
}

// TriplesSaved reports how many ground statements the last SaveContext wrote
func (c *Context) TriplesSaved() int {
	return c.triplesSaved
}

// SaveImports records one ContextImports statement per transitive import
// edge into the destination context, which is conventionally the designated
// imports context of a working graph.
func (c *Context) SaveImports(dest *Context) {
	seen := make(map[*Context]struct{})
	c.saveImports(dest, seen)
}

func (c *Context) saveImports(dest *Context, seen map[*Context]struct{}) {
	if _, ok := seen[c]; ok {
		return
	}
	seen[c] = struct{}{}
	for _, imported := range c.imports {
		dest.AddStatement(Triple{
			Subject:   IRI(c.id),
			Predicate: ContextImports,
			Object:    IRI(imported.id),
		})
		imported.saveImports(dest, seen)
	}
}
