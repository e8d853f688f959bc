package bundlestore

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphknit/graphknit/pkg/model"
	"github.com/graphknit/graphknit/pkg/rdf"
	"github.com/graphknit/graphknit/pkg/store"
	"github.com/graphknit/graphknit/pkg/store/status"
)

const (
	versionDir = "/bundles/example/1"
	ctxA       = "http://example.org/ctxA"
	ctxB       = "http://example.org/ctxB"
)

func triple(s, p, o string) rdf.Triple {
	return rdf.Triple{Subject: rdf.IRI(s), Predicate: rdf.IRI(p), Object: rdf.IRI(o)}
}

// fakeHash stands in for a content hash. The content cache is process
// wide and keyed by hash, so tests scope their fakes by test name.
func fakeHash(t *testing.T, contextID string) string {
	return "hash-" + t.Name() + "-" + filepath.Base(contextID)
}

// lays out a version directory with the given contexts
func writeBundle(t *testing.T, fs afero.Fs, contexts map[string][]rdf.Triple) {
	t.Helper()
	graphsDir := model.GraphsDirectory(versionDir)
	require.NoError(t, fs.MkdirAll(graphsDir, 0755))
	index := ""
	for id, triples := range contexts {
		hash := fakeHash(t, id)
		index += id + " " + hash + "\n"
		content := rdf.EncodeTriples(triples)
		require.NoError(t, afero.WriteFile(fs, filepath.Join(graphsDir, hash+rdf.ContentExt), content, 0644))
	}
	require.NoError(t, afero.WriteFile(fs, filepath.Join(graphsDir, model.IndexFileName), []byte(index), 0644))
}

func openStore(t *testing.T, fs afero.Fs) *Store {
	t.Helper()
	s := New(WithFS(fs))
	require.NoError(t, s.Open(store.Config{Kind: store.KindBundleIndexed, Path: versionDir, ReadOnly: true}))
	return s
}

func TestOpenServesIndexedContexts(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeBundle(t, fs, map[string][]rdf.Triple{
		ctxA: {triple("http://example.org/a", "http://example.org/b", "http://example.org/c")},
		ctxB: {triple("http://example.org/d", "http://example.org/e", "http://example.org/f")},
	})
	s := openStore(t, fs)
	defer func() { _ = s.Close() }()

	n, err := s.Len("")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	found, err := s.Triples(rdf.Pattern{Subject: rdf.IRI("http://example.org/a")}, "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, []string{ctxA}, found[0].Contexts)

	ids, err := s.Contexts(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{ctxA, ctxB}, ids)
}

func TestOpenRecordsEmptyContext(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeBundle(t, fs, map[string][]rdf.Triple{
		ctxA: {},
	})
	s := openStore(t, fs)
	defer func() { _ = s.Close() }()

	ids, err := s.Contexts(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{ctxA}, ids)

	n, err := s.Len(ctxA)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestContextIdentifierMayContainSpaces(t *testing.T) {
	fs := afero.NewMemMapFs()
	spacey := "urn:some context id"
	graphsDir := model.GraphsDirectory(versionDir)
	require.NoError(t, fs.MkdirAll(graphsDir, 0755))
	content := rdf.EncodeTriples([]rdf.Triple{triple("http://example.org/a", "http://example.org/b", "http://example.org/c")})
	require.NoError(t, afero.WriteFile(fs, filepath.Join(graphsDir, "somehash"+rdf.ContentExt), content, 0644))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(graphsDir, model.IndexFileName), []byte(spacey+" somehash\n"), 0644))

	s := openStore(t, fs)
	defer func() { _ = s.Close() }()

	ids, err := s.Contexts(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{spacey}, ids)
}

func TestOpenFailsWithoutIndex(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(model.GraphsDirectory(versionDir), 0755))
	s := New(WithFS(fs))
	err := s.Open(store.Config{Kind: store.KindBundleIndexed, Path: versionDir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "graphs index")
}

func TestOpenFailsOnMalformedIndex(t *testing.T) {
	fs := afero.NewMemMapFs()
	graphsDir := model.GraphsDirectory(versionDir)
	require.NoError(t, fs.MkdirAll(graphsDir, 0755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(graphsDir, model.IndexFileName), []byte("nohashhere\n"), 0644))
	s := New(WithFS(fs))
	err := s.Open(store.Config{Kind: store.KindBundleIndexed, Path: versionDir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed index record")
}

func TestOpenRequiresPath(t *testing.T) {
	s := New(WithFS(afero.NewMemMapFs()))
	err := s.Open(store.Config{Kind: store.KindBundleIndexed})
	assert.ErrorIs(t, err, status.ErrBadConfig)
}

func TestMutatorsRejected(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeBundle(t, fs, map[string][]rdf.Triple{
		ctxA: {triple("http://example.org/a", "http://example.org/b", "http://example.org/c")},
	})
	s := openStore(t, fs)
	defer func() { _ = s.Close() }()

	tr := triple("http://example.org/x", "http://example.org/y", "http://example.org/z")
	assert.ErrorIs(t, s.Add(tr, ctxA), status.ErrReadOnly)
	assert.ErrorIs(t, s.AddQuads([]rdf.Quad{{Triple: tr, Context: ctxA}}), status.ErrReadOnly)
	assert.ErrorIs(t, s.Remove(rdf.Pattern{}, ctxA), status.ErrReadOnly)
	assert.ErrorIs(t, s.RemoveContext(ctxA), status.ErrReadOnly)
	assert.ErrorIs(t, s.Bind("ex", "http://example.org/"), status.ErrReadOnly)
}

func TestQueriesAfterClose(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeBundle(t, fs, map[string][]rdf.Triple{
		ctxA: {triple("http://example.org/a", "http://example.org/b", "http://example.org/c")},
	})
	s := openStore(t, fs)
	require.NoError(t, s.Close())

	_, err := s.Triples(rdf.Pattern{}, "")
	assert.ErrorIs(t, err, status.ErrNotOpen)
	_, err = s.Contexts(nil)
	assert.ErrorIs(t, err, status.ErrNotOpen)
}

func TestContentCacheSharedAcrossStores(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeBundle(t, fs, map[string][]rdf.Triple{
		ctxA: {triple("http://example.org/a", "http://example.org/b", "http://example.org/c")},
	})
	s0 := openStore(t, fs)
	defer func() { _ = s0.Close() }()

	// remove the content file: a second open still succeeds off the cache
	graphsDir := model.GraphsDirectory(versionDir)
	require.NoError(t, fs.Remove(filepath.Join(graphsDir, fakeHash(t, ctxA)+rdf.ContentExt)))

	s1 := openStore(t, fs)
	defer func() { _ = s1.Close() }()
	n, err := s1.Len("")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
