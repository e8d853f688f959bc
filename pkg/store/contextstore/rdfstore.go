package contextstore

import (
	"github.com/graphknit/graphknit/pkg/rdf"
	"github.com/graphknit/graphknit/pkg/store"
	"github.com/graphknit/graphknit/pkg/store/status"
)

// RDFStore restricts a backing store to the transitive import closure of
// one context. Queries see only statements in contexts reachable from the
// root context over import edges; a query against a context outside the
// closure returns nothing.
//
// The closure and the query plan are computed lazily on first use and held
// for the store's lifetime.
type RDFStore struct {
	backing        store.Store
	contextID      string
	importsCtx     string
	includeImports bool

	closure map[string]struct{}
	// perCtx selects the plan for unconstrained wildcard queries: query
	// each closure context in series when the closure holds fewer
	// statements than the whole backing store, otherwise scan once and
	// filter
	perCtx bool
	inited bool
}

// RDFOption overrides RDFStore defaults
type RDFOption func(*RDFStore)

// WithRDFImportsContext names the context holding import edges
func WithRDFImportsContext(contextID string) RDFOption {
	return func(s *RDFStore) {
		s.importsCtx = contextID
	}
}

// WithoutImports restricts the view to the root context alone
func WithoutImports() RDFOption {
	return func(s *RDFStore) {
		s.includeImports = false
	}
}

// NewRDF builds a closure-restricted view of the backing store rooted at
// contextID. An empty contextID exposes every context unrestricted.
func NewRDF(backing store.Store, contextID string, opts ...RDFOption) *RDFStore {
	s := &RDFStore{
		backing:        backing,
		contextID:      contextID,
		includeImports: true,
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

func (s *RDFStore) initContexts() error {
	if s.inited {
		return nil
	}
	switch {
	case s.contextID == "":
		all, err := s.backing.Contexts(nil)
		if err != nil {
			return err
		}
		s.closure = make(map[string]struct{}, len(all))
		for _, id := range all {
			s.closure[id] = struct{}{}
		}
	case s.includeImports:
		closure, err := store.TransitiveClosure(s.backing, s.contextID, rdf.ContextImports, s.importsCtx)
		if err != nil {
			return err
		}
		s.closure = closure
	default:
		s.closure = map[string]struct{}{s.contextID: {}}
	}

	total, err := s.backing.Len("")
	if err != nil {
		return err
	}
	inClosure := 0
	for id := range s.closure {
		n, err := s.backing.Len(id)
		if err != nil {
			return err
		}
		inClosure += n
	}
	s.perCtx = total > inClosure
	s.inited = true
	return nil
}

// determineContext maps the caller's context constraint into the closure.
// The bool result is false when the constraint falls outside the closure,
// which must yield an empty result rather than an error.
func (s *RDFStore) determineContext(contextID string) (string, bool) {
	if contextID != "" {
		if _, ok := s.closure[contextID]; !ok {
			return "", false
		}
		return contextID, true
	}
	if len(s.closure) == 1 {
		for id := range s.closure {
			return id, true
		}
	}
	return "", true
}

// Open fails: an RDFStore is built around a live backing store, not from a
// configuration
func (s *RDFStore) Open(store.Config) error {
	return status.ErrBadConfig.WrapMessage("an import-closure store cannot be opened from a configuration")
}

func (s *RDFStore) Close() error {
	s.backing = nil
	s.closure = nil
	s.inited = false
	return nil
}

// ContextAware reports true: results carry context identifiers
func (s *RDFStore) ContextAware() bool { return true }

func (s *RDFStore) SupportsRangeQueries() bool {
	return s.backing.SupportsRangeQueries()
}

func (s *RDFStore) Triples(pat rdf.Pattern, contextID string) ([]store.CtxTriple, error) {
	if s.backing == nil {
		return nil, status.ErrNotOpen
	}
	if err := s.initContexts(); err != nil {
		return nil, err
	}
	ctx, ok := s.determineContext(contextID)
	if !ok {
		return nil, nil
	}

	if pat.Wildcard() && ctx == "" && s.perCtx {
		return s.triplesPerContext(pat)
	}

	found, err := s.backing.Triples(pat, ctx)
	if err != nil {
		return nil, err
	}
	return s.filterClosure(found), nil
}

// triplesPerContext queries each closure context in series and merges the
// results per triple
func (s *RDFStore) triplesPerContext(pat rdf.Pattern) ([]store.CtxTriple, error) {
	merged := make(map[rdf.Triple]map[string]struct{})
	for _, ctx := range sortedIDs(s.closure) {
		found, err := s.backing.Triples(pat, ctx)
		if err != nil {
			return nil, err
		}
		for _, ct := range found {
			set, ok := merged[ct.Triple]
			if !ok {
				set = make(map[string]struct{})
				merged[ct.Triple] = set
			}
			for _, id := range store.Intersect(ct.Contexts, s.closure) {
				set[id] = struct{}{}
			}
		}
	}
	out := make([]store.CtxTriple, 0, len(merged))
	for t, set := range merged {
		out = append(out, store.CtxTriple{Triple: t, Contexts: sortedIDs(set)})
	}
	sortCtxTriples(out)
	return out, nil
}

func (s *RDFStore) filterClosure(found []store.CtxTriple) []store.CtxTriple {
	var out []store.CtxTriple
	for _, ct := range found {
		inter := ct.Contexts
		if len(s.closure) != 0 {
			inter = store.Intersect(ct.Contexts, s.closure)
		}
		if len(inter) == 0 {
			continue
		}
		out = append(out, store.CtxTriple{Triple: ct.Triple, Contexts: inter})
	}
	return out
}

func (s *RDFStore) TriplesChoices(pat rdf.ChoicePattern, contextID string) ([]store.CtxTriple, error) {
	if s.backing == nil {
		return nil, status.ErrNotOpen
	}
	if err := s.initContexts(); err != nil {
		return nil, err
	}
	ctx, ok := s.determineContext(contextID)
	if !ok {
		return nil, nil
	}
	found, err := s.backing.TriplesChoices(pat, ctx)
	if err != nil {
		return nil, err
	}
	return s.filterClosure(found), nil
}

func (s *RDFStore) Contexts(triple *rdf.Triple) ([]string, error) {
	if s.backing == nil {
		return nil, status.ErrNotOpen
	}
	if err := s.initContexts(); err != nil {
		return nil, err
	}
	if triple == nil {
		return sortedIDs(s.closure), nil
	}
	found, err := s.Triples(rdf.Pattern{
		Subject:   triple.Subject,
		Predicate: triple.Predicate,
		Object:    triple.Object,
	}, "")
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, ct := range found {
		for _, id := range ct.Contexts {
			set[id] = struct{}{}
		}
	}
	return sortedIDs(set), nil
}

// Len counts statements inside the closure
func (s *RDFStore) Len(contextID string) (int, error) {
	if s.backing == nil {
		return 0, status.ErrNotOpen
	}
	if err := s.initContexts(); err != nil {
		return 0, err
	}
	if contextID != "" {
		if _, ok := s.closure[contextID]; !ok {
			return 0, nil
		}
		return s.backing.Len(contextID)
	}
	n := 0
	for id := range s.closure {
		c, err := s.backing.Len(id)
		if err != nil {
			return 0, err
		}
		n += c
	}
	return n, nil
}

// Add fails: the closure view is read-only
func (s *RDFStore) Add(rdf.Triple, string) error {
	return status.ErrReadOnly
}

// AddQuads fails: the closure view is read-only
func (s *RDFStore) AddQuads([]rdf.Quad) error {
	return status.ErrReadOnly
}

// Remove deletes matching statements from the backing store, restricted to
// contexts inside the closure
func (s *RDFStore) Remove(pat rdf.Pattern, contextID string) error {
	if s.backing == nil {
		return status.ErrNotOpen
	}
	if err := s.initContexts(); err != nil {
		return err
	}
	ctx, ok := s.determineContext(contextID)
	if !ok {
		return nil
	}
	found, err := s.backing.Triples(pat, ctx)
	if err != nil {
		return err
	}
	for _, ct := range s.filterClosure(found) {
		exact := rdf.Pattern{
			Subject:   ct.Triple.Subject,
			Predicate: ct.Triple.Predicate,
			Object:    ct.Triple.Object,
		}
		for _, id := range ct.Contexts {
			if err := s.backing.Remove(exact, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// RemoveContext drops a context from the backing store if it lies inside
// the closure
func (s *RDFStore) RemoveContext(contextID string) error {
	if s.backing == nil {
		return status.ErrNotOpen
	}
	if err := s.initContexts(); err != nil {
		return err
	}
	if _, ok := s.closure[contextID]; !ok {
		return nil
	}
	return s.backing.RemoveContext(contextID)
}

func (s *RDFStore) Commit() error {
	return s.backing.Commit()
}

func (s *RDFStore) Rollback() error {
	return s.backing.Rollback()
}

func (s *RDFStore) Prefix(namespace string) (string, error) {
	return s.backing.Prefix(namespace)
}

func (s *RDFStore) Namespace(prefix string) (string, error) {
	return s.backing.Namespace(prefix)
}

func (s *RDFStore) Namespaces() ([]store.Binding, error) {
	return s.backing.Namespaces()
}

func (s *RDFStore) Bind(prefix, namespace string) error {
	return s.backing.Bind(prefix, namespace)
}
