// Package memory implements an in-memory, context-aware statement store. It
// backs staging views and the loaded representation of bundle graphs.
package memory

import (
	"sort"

	"github.com/graphknit/graphknit/pkg/rdf"
	"github.com/graphknit/graphknit/pkg/store"
	"github.com/graphknit/graphknit/pkg/store/status"
)

func init() {
	store.Register(store.KindMemory, func() store.Store { return New() })
}

var _ store.Store = &Store{}

// Store is a mutable in-memory quad index.
type Store struct {
	contexts map[string]map[rdf.Triple]struct{}
	ns       map[string]string // prefix -> namespace
	readOnly bool
	open     bool
}

// New creates an empty store, immediately usable without Open
func New() *Store {
	return &Store{
		contexts: make(map[string]map[rdf.Triple]struct{}),
		ns:       make(map[string]string),
		open:     true,
	}
}

// Open resets the store from its configuration
func (s *Store) Open(cfg store.Config) error {
	if cfg.Kind != store.KindMemory {
		return status.ErrBadConfig.WrapMessage("kind %q is not %q", cfg.Kind, store.KindMemory)
	}
	s.contexts = make(map[string]map[rdf.Triple]struct{})
	s.ns = make(map[string]string)
	s.readOnly = cfg.ReadOnly
	s.open = true
	return nil
}

// Close releases the index
func (s *Store) Close() error {
	s.contexts = nil
	s.ns = nil
	s.open = false
	return nil
}

// ContextAware is always true for this store
func (s *Store) ContextAware() bool { return true }

// SupportsRangeQueries is true: the index can serve ordered scans
func (s *Store) SupportsRangeQueries() bool { return true }

// SetReadOnly toggles mutation rejection; used by stores layering this index
// over immutable content
func (s *Store) SetReadOnly(ro bool) { s.readOnly = ro }

func (s *Store) Triples(pat rdf.Pattern, contextID string) ([]store.CtxTriple, error) {
	if !s.open {
		return nil, status.ErrNotOpen
	}
	if contextID != "" {
		var out []store.CtxTriple
		for t := range s.contexts[contextID] {
			if pat.Matches(t) {
				out = append(out, store.CtxTriple{Triple: t, Contexts: []string{contextID}})
			}
		}
		sortResults(out)
		return out, nil
	}
	byTriple := make(map[rdf.Triple][]string)
	for ctx, triples := range s.contexts {
		for t := range triples {
			if pat.Matches(t) {
				byTriple[t] = append(byTriple[t], ctx)
			}
		}
	}
	out := make([]store.CtxTriple, 0, len(byTriple))
	for t, ctxs := range byTriple {
		out = append(out, store.CtxTriple{Triple: t, Contexts: store.SortContexts(ctxs)})
	}
	sortResults(out)
	return out, nil
}

func (s *Store) TriplesChoices(pat rdf.ChoicePattern, contextID string) ([]store.CtxTriple, error) {
	if !s.open {
		return nil, status.ErrNotOpen
	}
	var out []store.CtxTriple
	for _, p := range pat.Expand() {
		res, err := s.Triples(p, contextID)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
	}
	return out, nil
}

func (s *Store) Contexts(triple *rdf.Triple) ([]string, error) {
	if !s.open {
		return nil, status.ErrNotOpen
	}
	var out []string
	for ctx, triples := range s.contexts {
		if triple != nil {
			if _, ok := triples[*triple]; !ok {
				continue
			}
		}
		out = append(out, ctx)
	}
	return store.SortContexts(out), nil
}

func (s *Store) Len(contextID string) (int, error) {
	if !s.open {
		return 0, status.ErrNotOpen
	}
	if contextID != "" {
		return len(s.contexts[contextID]), nil
	}
	n := 0
	for _, triples := range s.contexts {
		n += len(triples)
	}
	return n, nil
}

func (s *Store) Add(t rdf.Triple, contextID string) error {
	if !s.open {
		return status.ErrNotOpen
	}
	if s.readOnly {
		return status.ErrReadOnly
	}
	ctx, ok := s.contexts[contextID]
	if !ok {
		ctx = make(map[rdf.Triple]struct{})
		s.contexts[contextID] = ctx
	}
	ctx[t] = struct{}{}
	return nil
}

// AddContext records a context identifier with no statements. Contexts
// created this way show up in context listings and have length zero.
func (s *Store) AddContext(contextID string) error {
	if !s.open {
		return status.ErrNotOpen
	}
	if s.readOnly {
		return status.ErrReadOnly
	}
	if _, ok := s.contexts[contextID]; !ok {
		s.contexts[contextID] = make(map[rdf.Triple]struct{})
	}
	return nil
}

func (s *Store) AddQuads(quads []rdf.Quad) error {
	for _, q := range quads {
		if err := s.Add(q.Triple, q.Context); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Remove(pat rdf.Pattern, contextID string) error {
	if !s.open {
		return status.ErrNotOpen
	}
	if s.readOnly {
		return status.ErrReadOnly
	}
	for ctx, triples := range s.contexts {
		if contextID != "" && ctx != contextID {
			continue
		}
		for t := range triples {
			if pat.Matches(t) {
				delete(triples, t)
			}
		}
	}
	return nil
}

func (s *Store) RemoveContext(contextID string) error {
	if !s.open {
		return status.ErrNotOpen
	}
	if s.readOnly {
		return status.ErrReadOnly
	}
	delete(s.contexts, contextID)
	return nil
}

// Commit is a no-op: the index has no transaction log
func (s *Store) Commit() error { return nil }

// Rollback is a no-op
func (s *Store) Rollback() error { return nil }

func (s *Store) Prefix(namespace string) (string, error) {
	if !s.open {
		return "", status.ErrNotOpen
	}
	var prefixes []string
	for p, ns := range s.ns {
		if ns == namespace {
			prefixes = append(prefixes, p)
		}
	}
	if len(prefixes) == 0 {
		return "", nil
	}
	sort.Strings(prefixes)
	return prefixes[0], nil
}

func (s *Store) Namespace(prefix string) (string, error) {
	if !s.open {
		return "", status.ErrNotOpen
	}
	return s.ns[prefix], nil
}

func (s *Store) Namespaces() ([]store.Binding, error) {
	if !s.open {
		return nil, status.ErrNotOpen
	}
	out := make([]store.Binding, 0, len(s.ns))
	for p, ns := range s.ns {
		out = append(out, store.Binding{Prefix: p, Namespace: ns})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })
	return out, nil
}

func (s *Store) Bind(prefix, namespace string) error {
	if !s.open {
		return status.ErrNotOpen
	}
	s.ns[prefix] = namespace
	return nil
}

func sortResults(res []store.CtxTriple) {
	sort.Slice(res, func(i, j int) bool {
		return res[i].Triple.NTriples() < res[j].Triple.NTriples()
	})
}
