// Package aggregate implements a read-only federation of statement stores:
// N independently opened stores addressable as one. It is the backbone of
// the flattened bundle dependency tree, where nested aggregates mirror the
// dependency structure.
package aggregate

import (
	"github.com/graphknit/graphknit/pkg/rdf"
	"github.com/graphknit/graphknit/pkg/store"
	"github.com/graphknit/graphknit/pkg/store/status"
)

func init() {
	store.Register(store.KindAggregate, func() store.Store { return New() })
}

var _ store.Store = &Store{}

// Store federates child stores opened from a nested configuration. All
// children must be context-aware. Mutating operations are rejected, except
// AddQuads and Commit which are forwarded to the first child by convention
// (the writable staging layer, when there is one).
type Store struct {
	children []store.Store
	excludes map[string]struct{}
	bound    map[string]string
	ranges   bool
	open     bool
}

// New creates an unopened aggregate store
func New() *Store {
	return &Store{bound: make(map[string]string)}
}

// Children returns the child stores in configuration order
func (s *Store) Children() []store.Store {
	out := make([]store.Store, len(s.children))
	copy(out, s.children)
	return out
}

// Open opens every child store from the nested configuration. Any child
// failing to open, or not context-aware, closes the children opened so far
// and fails the whole aggregate.
func (s *Store) Open(cfg store.Config) error {
	if cfg.Kind != store.KindAggregate {
		return status.ErrBadConfig.WrapMessage("kind %q is not %q", cfg.Kind, store.KindAggregate)
	}
	if len(cfg.Conf) == 0 {
		return status.ErrBadConfig.WrapMessage("aggregate with no child configurations")
	}
	children := make([]store.Store, 0, len(cfg.Conf))
	ranges := true
	for _, childCfg := range cfg.Conf {
		child, err := store.Open(childCfg)
		if err != nil {
			closeAll(children)
			return err
		}
		children = append(children, child)
		if !child.ContextAware() {
			closeAll(children)
			return status.ErrNotContextAware
		}
		ranges = ranges && child.SupportsRangeQueries()
	}
	s.children = children
	s.ranges = ranges
	s.excludes = make(map[string]struct{}, len(cfg.Excludes))
	for _, id := range cfg.Excludes {
		s.excludes[id] = struct{}{}
	}
	s.open = true
	return nil
}

// Close closes every child store. All children are closed even if some
// fail; the first failure is returned.
func (s *Store) Close() error {
	err := closeAll(s.children)
	s.children = nil
	s.open = false
	return err
}

func closeAll(children []store.Store) error {
	var firstErr error
	for _, child := range children {
		if err := child.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ContextAware is true: federation is only defined over context-aware
// stores
func (s *Store) ContextAware() bool { return true }

// SupportsRangeQueries is the logical AND across children
func (s *Store) SupportsRangeQueries() bool { return s.ranges }

func (s *Store) excluded(contextID string) bool {
	_, ok := s.excludes[contextID]
	return ok
}

// filterExcludes drops excluded identifiers from a result's context set and
// reports whether anything is left
func (s *Store) filterExcludes(ct store.CtxTriple) (store.CtxTriple, bool) {
	if len(s.excludes) == 0 {
		return ct, true
	}
	kept := make([]string, 0, len(ct.Contexts))
	for _, id := range ct.Contexts {
		if !s.excluded(id) {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		return store.CtxTriple{}, false
	}
	ct.Contexts = kept
	return ct, true
}

func (s *Store) Triples(pat rdf.Pattern, contextID string) ([]store.CtxTriple, error) {
	if !s.open {
		return nil, status.ErrNotOpen
	}
	if contextID != "" && s.excluded(contextID) {
		return nil, nil
	}
	var out []store.CtxTriple
	for _, child := range s.children {
		res, err := child.Triples(pat, contextID)
		if err != nil {
			return nil, err
		}
		for _, ct := range res {
			if kept, ok := s.filterExcludes(ct); ok {
				out = append(out, kept)
			}
		}
	}
	return out, nil
}

func (s *Store) TriplesChoices(pat rdf.ChoicePattern, contextID string) ([]store.CtxTriple, error) {
	if !s.open {
		return nil, status.ErrNotOpen
	}
	if contextID != "" && s.excluded(contextID) {
		return nil, nil
	}
	var out []store.CtxTriple
	for _, child := range s.children {
		res, err := child.TriplesChoices(pat, contextID)
		if err != nil {
			return nil, err
		}
		for _, ct := range res {
			if kept, ok := s.filterExcludes(ct); ok {
				out = append(out, kept)
			}
		}
	}
	return out, nil
}

func (s *Store) Contexts(triple *rdf.Triple) ([]string, error) {
	if !s.open {
		return nil, status.ErrNotOpen
	}
	var out []string
	for _, child := range s.children {
		ids, err := child.Contexts(triple)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if !s.excluded(id) {
				out = append(out, id)
			}
		}
	}
	return out, nil
}

// Len sums the child store lengths
func (s *Store) Len(contextID string) (int, error) {
	if !s.open {
		return 0, status.ErrNotOpen
	}
	if contextID != "" && s.excluded(contextID) {
		return 0, nil
	}
	total := 0
	for _, child := range s.children {
		n, err := child.Len(contextID)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Add is not supported on an aggregated store
func (s *Store) Add(rdf.Triple, string) error {
	return status.ErrUnsupportedAggregateOperation
}

// AddQuads is forwarded to the first child, conventionally the writable
// staging layer
func (s *Store) AddQuads(quads []rdf.Quad) error {
	if !s.open {
		return status.ErrNotOpen
	}
	return s.children[0].AddQuads(quads)
}

// Remove is not supported on an aggregated store
func (s *Store) Remove(rdf.Pattern, string) error {
	return status.ErrUnsupportedAggregateOperation
}

// RemoveContext is not supported on an aggregated store
func (s *Store) RemoveContext(string) error {
	return status.ErrUnsupportedAggregateOperation
}

// Commit is forwarded to the first child
func (s *Store) Commit() error {
	if !s.open {
		return status.ErrNotOpen
	}
	return s.children[0].Commit()
}

// Rollback is not supported on an aggregated store
func (s *Store) Rollback() error {
	return status.ErrUnsupportedAggregateOperation
}

// Prefix queries every child and fails if two children disagree on the
// prefix bound to the namespace. Locally bound namespaces are never
// consulted for prefix lookups.
func (s *Store) Prefix(namespace string) (string, error) {
	if !s.open {
		return "", status.ErrNotOpen
	}
	prefix := ""
	for _, child := range s.children {
		p, err := child.Prefix(namespace)
		if err != nil {
			return "", err
		}
		if p != "" && prefix != "" && p != prefix {
			return "", status.ErrStoresConflict.WrapMessage(
				"multiple prefixes (%s, %s) for namespace %s", prefix, p, namespace)
		}
		if p != "" {
			prefix = p
		}
	}
	return prefix, nil
}

// Namespace queries every child and fails if two children disagree on the
// namespace bound to the prefix. Locally bound namespaces are consulted as
// a fallback only.
func (s *Store) Namespace(prefix string) (string, error) {
	if !s.open {
		return "", status.ErrNotOpen
	}
	namespace := ""
	for _, child := range s.children {
		ns, err := child.Namespace(prefix)
		if err != nil {
			return "", err
		}
		if ns != "" && namespace != "" && ns != namespace {
			return "", status.ErrStoresConflict.WrapMessage(
				"multiple namespaces (%s, %s) for prefix %s", namespace, ns, prefix)
		}
		if ns != "" {
			namespace = ns
		}
	}
	if namespace == "" {
		namespace = s.bound[prefix]
	}
	return namespace, nil
}

// Namespaces concatenates child bindings, then local bindings
func (s *Store) Namespaces() ([]store.Binding, error) {
	if !s.open {
		return nil, status.ErrNotOpen
	}
	var out []store.Binding
	for _, child := range s.children {
		bindings, err := child.Namespaces()
		if err != nil {
			return nil, err
		}
		out = append(out, bindings...)
	}
	for p, ns := range s.bound {
		out = append(out, store.Binding{Prefix: p, Namespace: ns})
	}
	return out, nil
}

// Bind records a local namespace binding, used only as a fallback for
// Namespace lookups
func (s *Store) Bind(prefix, namespace string) error {
	s.bound[prefix] = namespace
	return nil
}
