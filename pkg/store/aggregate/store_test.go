package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphknit/graphknit/pkg/rdf"
	"github.com/graphknit/graphknit/pkg/store"
	"github.com/graphknit/graphknit/pkg/store/memory"
	"github.com/graphknit/graphknit/pkg/store/status"
)

func triple(s, p, o string) rdf.Triple {
	return rdf.Triple{Subject: rdf.IRI(s), Predicate: rdf.IRI(p), Object: rdf.IRI(o)}
}

func openAgg(t *testing.T, cfg store.Config) (*Store, []*memory.Store) {
	t.Helper()
	s := New()
	require.NoError(t, s.Open(cfg))
	var children []*memory.Store
	for _, child := range s.Children() {
		mem, ok := child.(*memory.Store)
		require.True(t, ok)
		children = append(children, mem)
	}
	return s, children
}

func twoChildConfig() store.Config {
	return store.Config{
		Kind: store.KindAggregate,
		Conf: []store.Config{
			{Kind: store.KindMemory},
			{Kind: store.KindMemory},
		},
	}
}

func TestOpenRequiresChildren(t *testing.T) {
	s := New()
	err := s.Open(store.Config{Kind: store.KindAggregate})
	assert.ErrorIs(t, err, status.ErrBadConfig)

	err = s.Open(store.Config{Kind: store.KindMemory})
	assert.ErrorIs(t, err, status.ErrBadConfig)

	err = s.Open(store.Config{
		Kind: store.KindAggregate,
		Conf: []store.Config{{Kind: "no-such-kind"}},
	})
	assert.ErrorIs(t, err, status.ErrUnknownKind)
}

func TestQueriesSpanChildren(t *testing.T) {
	s, children := openAgg(t, twoChildConfig())
	defer func() { _ = s.Close() }()

	t1 := triple("http://ex.org/a", "http://ex.org/p", "http://ex.org/b")
	t2 := triple("http://ex.org/c", "http://ex.org/p", "http://ex.org/d")
	require.NoError(t, children[0].Add(t1, "http://ex.org/ctx1"))
	require.NoError(t, children[1].Add(t2, "http://ex.org/ctx2"))

	found, err := s.Triples(rdf.Pattern{}, "")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, t1, found[0].Triple, "first child results come first")
	assert.Equal(t, t2, found[1].Triple)

	n, err := s.Len("")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ctxs, err := s.Contexts(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://ex.org/ctx1", "http://ex.org/ctx2"}, ctxs)
}

func TestTriplesChoicesSpanChildren(t *testing.T) {
	s, children := openAgg(t, twoChildConfig())
	defer func() { _ = s.Close() }()

	require.NoError(t, children[0].Add(triple("http://ex.org/a", "http://ex.org/p", "http://ex.org/b"), "http://ex.org/ctx1"))
	require.NoError(t, children[1].Add(triple("http://ex.org/c", "http://ex.org/p", "http://ex.org/b"), "http://ex.org/ctx2"))
	require.NoError(t, children[1].Add(triple("http://ex.org/x", "http://ex.org/p", "http://ex.org/b"), "http://ex.org/ctx2"))

	found, err := s.TriplesChoices(rdf.ChoicePattern{
		Choices:  []rdf.Term{rdf.IRI("http://ex.org/a"), rdf.IRI("http://ex.org/c")},
		Position: rdf.SubjectPosition,
	}, "")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestExcludesFilterResults(t *testing.T) {
	cfg := twoChildConfig()
	cfg.Excludes = []string{"http://ex.org/hidden"}
	s, children := openAgg(t, cfg)
	defer func() { _ = s.Close() }()

	t1 := triple("http://ex.org/a", "http://ex.org/p", "http://ex.org/b")
	require.NoError(t, children[0].Add(t1, "http://ex.org/hidden"))
	require.NoError(t, children[1].Add(t1, "http://ex.org/visible"))

	found, err := s.Triples(rdf.Pattern{}, "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, []string{"http://ex.org/visible"}, found[0].Contexts)

	found, err = s.Triples(rdf.Pattern{}, "http://ex.org/hidden")
	require.NoError(t, err)
	assert.Empty(t, found)

	n, err := s.Len("http://ex.org/hidden")
	require.NoError(t, err)
	assert.Zero(t, n)

	ctxs, err := s.Contexts(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://ex.org/visible"}, ctxs)
}

func TestMutatorsRejected(t *testing.T) {
	s, _ := openAgg(t, twoChildConfig())
	defer func() { _ = s.Close() }()

	tr := triple("http://ex.org/a", "http://ex.org/p", "http://ex.org/b")
	assert.ErrorIs(t, s.Add(tr, ""), status.ErrUnsupportedAggregateOperation)
	assert.ErrorIs(t, s.Remove(rdf.Pattern{}, ""), status.ErrUnsupportedAggregateOperation)
	assert.ErrorIs(t, s.RemoveContext("http://ex.org/ctx"), status.ErrUnsupportedAggregateOperation)
	assert.ErrorIs(t, s.Rollback(), status.ErrUnsupportedAggregateOperation)
}

func TestAddQuadsGoesToFirstChild(t *testing.T) {
	s, children := openAgg(t, twoChildConfig())
	defer func() { _ = s.Close() }()

	tr := triple("http://ex.org/a", "http://ex.org/p", "http://ex.org/b")
	require.NoError(t, s.AddQuads([]rdf.Quad{{Triple: tr, Context: "http://ex.org/ctx"}}))
	require.NoError(t, s.Commit())

	n, err := children[0].Len("")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = children[1].Len("")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNamespaceConflicts(t *testing.T) {
	s, children := openAgg(t, twoChildConfig())
	defer func() { _ = s.Close() }()

	require.NoError(t, children[0].Bind("ex", "http://ex.org/"))
	require.NoError(t, children[1].Bind("ex", "http://example.com/"))

	_, err := s.Namespace("ex")
	assert.ErrorIs(t, err, status.ErrStoresConflict)

	_, err = s.Prefix("http://ex.org/")
	require.NoError(t, err, "only one child knows this namespace")

	require.NoError(t, children[1].Bind("ex2", "http://ex.org/"))
	_, err = s.Prefix("http://ex.org/")
	assert.ErrorIs(t, err, status.ErrStoresConflict)
}

func TestLocalBindIsFallbackOnly(t *testing.T) {
	s, children := openAgg(t, twoChildConfig())
	defer func() { _ = s.Close() }()

	require.NoError(t, s.Bind("local", "http://local.example/"))

	ns, err := s.Namespace("local")
	require.NoError(t, err)
	assert.Equal(t, "http://local.example/", ns)

	prefix, err := s.Prefix("http://local.example/")
	require.NoError(t, err)
	assert.Empty(t, prefix, "local bindings do not serve prefix lookups")

	require.NoError(t, children[0].Bind("local", "http://child.example/"))
	ns, err = s.Namespace("local")
	require.NoError(t, err)
	assert.Equal(t, "http://child.example/", ns, "children win over local bindings")
}

func TestNestedAggregates(t *testing.T) {
	cfg := store.Config{
		Kind: store.KindAggregate,
		Conf: []store.Config{
			{Kind: store.KindMemory},
			{
				Kind:     store.KindAggregate,
				Excludes: []string{"http://ex.org/hidden"},
				Conf:     []store.Config{{Kind: store.KindMemory}},
			},
		},
	}
	s := New()
	require.NoError(t, s.Open(cfg))
	defer func() { _ = s.Close() }()

	nested, ok := s.Children()[1].(*Store)
	require.True(t, ok)
	inner, ok := nested.Children()[0].(*memory.Store)
	require.True(t, ok)

	tr := triple("http://ex.org/a", "http://ex.org/p", "http://ex.org/b")
	require.NoError(t, inner.Add(tr, "http://ex.org/hidden"))
	require.NoError(t, inner.Add(tr, "http://ex.org/visible"))

	found, err := s.Triples(rdf.Pattern{}, "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, []string{"http://ex.org/visible"}, found[0].Contexts)
}
