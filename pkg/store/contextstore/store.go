// Package contextstore provides the query-side view of a staged context.
//
// Store serves the statements staged on a context and those of its
// transitively imported contexts. When configured with a backing store the
// staged view is layered over stored statements, served through RDFStore,
// which restricts the backing store to the transitive import closure of
// one context.
package contextstore

import (
	"sort"

	"github.com/graphknit/graphknit/pkg/rdf"
	"github.com/graphknit/graphknit/pkg/store"
	"github.com/graphknit/graphknit/pkg/store/memory"
	"github.com/graphknit/graphknit/pkg/store/status"
)

// Store serves the staged statements of one context and its imports. It is
// query-only: every mutator fails.
type Store struct {
	ctx     *rdf.Context
	mem     *memory.Store
	overlay *RDFStore
}

// Option overrides store defaults
type Option func(*options)

type options struct {
	backing    store.Store
	importsCtx string
}

// WithBacking layers the staged view over a backing store restricted to
// the context's transitive import closure
func WithBacking(backing store.Store) Option {
	return func(o *options) {
		o.backing = backing
	}
}

// WithImportsContext names the context holding import edges, both for the
// staged ingestion seed and for closure lookups against the backing store
func WithImportsContext(contextID string) Option {
	return func(o *options) {
		o.importsCtx = contextID
	}
}

// New ingests the context's staged statements and, recursively, those of
// its imported contexts. Only ground statements are ingested. Import
// cycles are tolerated.
func New(ctx *rdf.Context, opts ...Option) *Store {
	var o options
	for _, apply := range opts {
		apply(&o)
	}
	s := &Store{
		ctx: ctx,
		mem: memory.New(),
	}
	if o.backing != nil {
		s.overlay = NewRDF(o.backing, ctx.Identifier(), WithRDFImportsContext(o.importsCtx))
	}
	s.ingest(ctx, map[string]struct{}{})
	return s
}

func (s *Store) ingest(ctx *rdf.Context, seen map[string]struct{}) {
	id := ctx.Identifier()
	if _, ok := seen[id]; ok {
		return
	}
	seen[id] = struct{}{}
	for _, t := range ctx.ContentsTriples() {
		if !t.Ground() {
			continue
		}
		_ = s.mem.Add(t, id)
	}
	for _, imported := range ctx.Imports() {
		s.ingest(imported, seen)
	}
}

// Open reports whether the store was built around a context. The staged
// view is constructed with New, not from a configuration.
func (s *Store) Open(store.Config) error {
	if s.ctx == nil {
		return status.ErrBadConfig.WrapMessage("context store has no context")
	}
	return nil
}

func (s *Store) Close() error {
	s.ctx = nil
	s.mem = nil
	s.overlay = nil
	return nil
}

// ContextAware reports true: results carry context identifiers
func (s *Store) ContextAware() bool { return true }

func (s *Store) SupportsRangeQueries() bool {
	if s.overlay != nil {
		return s.overlay.SupportsRangeQueries()
	}
	return true
}

func (s *Store) Triples(pat rdf.Pattern, contextID string) ([]store.CtxTriple, error) {
	if s.mem == nil {
		return nil, status.ErrNotOpen
	}
	out, err := s.mem.Triples(pat, contextID)
	if err != nil {
		return nil, err
	}
	if s.overlay != nil {
		stored, err := s.overlay.Triples(pat, contextID)
		if err != nil {
			return nil, err
		}
		out = append(out, stored...)
	}
	return out, nil
}

func (s *Store) TriplesChoices(pat rdf.ChoicePattern, contextID string) ([]store.CtxTriple, error) {
	if s.mem == nil {
		return nil, status.ErrNotOpen
	}
	out, err := s.mem.TriplesChoices(pat, contextID)
	if err != nil {
		return nil, err
	}
	if s.overlay != nil {
		stored, err := s.overlay.TriplesChoices(pat, contextID)
		if err != nil {
			return nil, err
		}
		out = append(out, stored...)
	}
	return out, nil
}

func (s *Store) Contexts(triple *rdf.Triple) ([]string, error) {
	if s.mem == nil {
		return nil, status.ErrNotOpen
	}
	staged, err := s.mem.Contexts(triple)
	if err != nil {
		return nil, err
	}
	if s.overlay == nil {
		return staged, nil
	}
	stored, err := s.overlay.Contexts(triple)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(staged)+len(stored))
	var out []string
	for _, id := range append(staged, stored...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return store.SortContexts(out), nil
}

// Len counts staged statements. With a backing store layered in, staged
// and stored statements may overlap and an accurate count would require a
// full scan, so the count is refused.
func (s *Store) Len(contextID string) (int, error) {
	if s.mem == nil {
		return 0, status.ErrNotOpen
	}
	if s.overlay != nil {
		return 0, status.ErrLenUnsupported
	}
	return s.mem.Len(contextID)
}

// Add fails: this is a query-only store
func (s *Store) Add(rdf.Triple, string) error {
	return status.ErrReadOnly
}

// AddQuads fails: this is a query-only store
func (s *Store) AddQuads([]rdf.Quad) error {
	return status.ErrReadOnly
}

// Remove fails: this is a query-only store
func (s *Store) Remove(rdf.Pattern, string) error {
	return status.ErrReadOnly
}

// RemoveContext fails: this is a query-only store
func (s *Store) RemoveContext(string) error {
	return status.ErrReadOnly
}

func (s *Store) Commit() error   { return nil }
func (s *Store) Rollback() error { return nil }

func (s *Store) Prefix(namespace string) (string, error) {
	if s.mem == nil {
		return "", status.ErrNotOpen
	}
	return s.mem.Prefix(namespace)
}

func (s *Store) Namespace(prefix string) (string, error) {
	if s.mem == nil {
		return "", status.ErrNotOpen
	}
	return s.mem.Namespace(prefix)
}

func (s *Store) Namespaces() ([]store.Binding, error) {
	if s.mem == nil {
		return nil, status.ErrNotOpen
	}
	return s.mem.Namespaces()
}

func (s *Store) Bind(prefix, namespace string) error {
	if s.mem == nil {
		return status.ErrNotOpen
	}
	return s.mem.Bind(prefix, namespace)
}

func sortedIDs(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sortCtxTriples(cts []store.CtxTriple) {
	sort.Slice(cts, func(i, j int) bool {
		return cts[i].Triple.NTriples() < cts[j].Triple.NTriples()
	})
}
