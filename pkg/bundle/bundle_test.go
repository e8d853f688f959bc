package bundle

import (
	"bytes"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphknit/graphknit/pkg/bundle/status"
	"github.com/graphknit/graphknit/pkg/model"
	"github.com/graphknit/graphknit/pkg/rdf"
	"github.com/graphknit/graphknit/pkg/store"
	storestatus "github.com/graphknit/graphknit/pkg/store/status"
)

func TestLatestVersionResolved(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, v := range []string{"1", "2", "3"} {
		require.NoError(t, fs.MkdirAll(filepath.Join(bundlesRoot, "example", v), 0755))
	}
	b := New("example", BundlesDirectory(bundlesRoot), BundleFS(fs))
	dir, err := b.Directory()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(bundlesRoot, "example", "3"), dir)
}

func TestSpecifiedVersionResolved(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, v := range []string{"1", "2", "3"} {
		require.NoError(t, fs.MkdirAll(filepath.Join(bundlesRoot, "example", v), 0755))
	}
	b := New("example", BundlesDirectory(bundlesRoot), BundleFS(fs), BundleVersion(2))
	dir, err := b.Directory()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(bundlesRoot, "example", "2"), dir)
}

func TestNonVersionDirectoriesIgnored(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(filepath.Join(bundlesRoot, "example", "ignore_me"), 0755))
	require.NoError(t, fs.MkdirAll(filepath.Join(bundlesRoot, "example", "5"), 0755))
	b := New("example", BundlesDirectory(bundlesRoot), BundleFS(fs))
	dir, err := b.Directory()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(bundlesRoot, "example", "5"), dir)
}

func TestNoVersionedBundleDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(filepath.Join(bundlesRoot, "example"), 0755))
	b := New("example", BundlesDirectory(bundlesRoot), BundleFS(fs))
	_, err := b.Directory()
	require.ErrorIs(t, err, status.ErrBundleNotFound)
	assert.Contains(t, err.Error(), "no versioned bundle directories")
}

func TestSpecifiedVersionNotInstalled(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(filepath.Join(bundlesRoot, "example", "1"), 0755))
	b := New("example", BundlesDirectory(bundlesRoot), BundleFS(fs), BundleVersion(2))
	_, err := b.Directory()
	require.ErrorIs(t, err, status.ErrBundleNotFound)
	assert.Contains(t, err.Error(), "at version 2")
	assert.Contains(t, err.Error(), "specified version")
}

func TestBundleDirectoryMissing(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(bundlesRoot, 0755))
	b := New("example", BundlesDirectory(bundlesRoot), BundleFS(fs))
	_, err := b.Directory()
	require.ErrorIs(t, err, status.ErrBundleNotFound)
	assert.Contains(t, err.Error(), "bundle directory")
}

const ctx3 = "http://example.org/ctx3"

// installs the descriptor set used by the dependency tree tests:
// test -> dep -> dep_dep, with ctx1 in test, ctx3 in dep and ctx2 in
// dep_dep, and an import edge ctx1 -> ctx3
func installTree(t *testing.T, fs afero.Fs, testDeps []model.DependencyDescriptor) {
	t.Helper()
	g := rdf.NewGraph()
	g.Add(ctx1, triple("http://example.org/a", "http://example.org/b", "http://example.org/c"))
	g.Add(ctx2, triple("http://example.org/d", "http://example.org/e", "http://example.org/f"))
	g.Add(ctx3, triple("http://example.org/g", "http://example.org/h", "http://example.org/i"))
	g.Add(importsCtx, importEdge(ctx1, ctx3))
	bi := newInstaller(fs, g, InstallerImportsContext(importsCtx))

	depDep := model.New("dep_dep")
	depDep.AddInclude(ctx2)
	_, err := bi.Install(depDep)
	require.NoError(t, err)

	dep := model.New("dep")
	dep.AddInclude(ctx3)
	dep.AddDependency(model.DependencyDescriptor{ID: "dep_dep"})
	_, err = bi.Install(dep)
	require.NoError(t, err)

	d := model.New("test")
	d.AddInclude(ctx1)
	d.AddInclude(importsCtx)
	d.Dependencies = testDeps
	_, err = bi.Install(d)
	require.NoError(t, err)
}

func indexed(id string, version int) store.Config {
	return store.Config{
		Kind:     store.KindBundleIndexed,
		Path:     filepath.Join(bundlesRoot, id, strconv.Itoa(version)),
		ReadOnly: true,
	}
}

func TestStoreConfigSharedTransitiveDedup(t *testing.T) {
	fs := afero.NewMemMapFs()
	installTree(t, fs, []model.DependencyDescriptor{
		{ID: "dep"},
		{ID: "dep_dep"},
	})

	b := New("test", BundlesDirectory(bundlesRoot), BundleFS(fs))
	conf, err := b.StoreConfigs()
	require.NoError(t, err)

	expected := []store.Config{
		indexed("test", 1),
		{
			Kind:     store.KindAggregate,
			ReadOnly: true,
			Conf: []store.Config{
				indexed("dep", 1),
				{
					Kind:     store.KindAggregate,
					ReadOnly: true,
					Conf:     []store.Config{indexed("dep_dep", 1)},
				},
			},
		},
	}
	assert.Equal(t, expected, conf, "a transitive dependency already in the tree is not repeated")
}

func TestStoreConfigExcludesSplitEntries(t *testing.T) {
	fs := afero.NewMemMapFs()
	installTree(t, fs, []model.DependencyDescriptor{
		{ID: "dep", Excludes: []string{ctx1}},
		{ID: "dep_dep"},
	})

	b := New("test", BundlesDirectory(bundlesRoot), BundleFS(fs))
	conf, err := b.StoreConfigs()
	require.NoError(t, err)

	expected := []store.Config{
		indexed("test", 1),
		{
			Kind:     store.KindAggregate,
			ReadOnly: true,
			Excludes: []string{ctx1},
			Conf: []store.Config{
				indexed("dep", 1),
				{
					Kind:     store.KindAggregate,
					ReadOnly: true,
					Conf:     []store.Config{indexed("dep_dep", 1)},
				},
			},
		},
		{
			Kind:     store.KindAggregate,
			ReadOnly: true,
			Conf:     []store.Config{indexed("dep_dep", 1)},
		},
	}
	assert.Equal(t, expected, conf,
		"an excluded edge makes the dependency a different coverage, so dep_dep appears twice")
}

func TestOpenQueriesDependencyTriples(t *testing.T) {
	fs := afero.NewMemMapFs()
	installTree(t, fs, []model.DependencyDescriptor{{ID: "dep"}})

	b := New("test", BundlesDirectory(bundlesRoot), BundleFS(fs))
	s, err := b.Open()
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	found, err := s.Triples(rdf.Pattern{Subject: rdf.IRI("http://example.org/d")}, "")
	require.NoError(t, err)
	require.Len(t, found, 1, "dep_dep's ctx2 statement is reachable through the tree")
	assert.Equal(t, []string{ctx2}, found[0].Contexts)

	found, err = s.Triples(rdf.Pattern{Subject: rdf.IRI("http://example.org/a")}, "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, []string{ctx1}, found[0].Contexts)
}

func TestOpenedBundleRejectsMutation(t *testing.T) {
	fs := afero.NewMemMapFs()
	installTree(t, fs, []model.DependencyDescriptor{{ID: "dep"}})

	b := New("test", BundlesDirectory(bundlesRoot), BundleFS(fs))
	s, err := b.Open()
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	err = s.Add(triple("http://example.org/x", "http://example.org/y", "http://example.org/z"), ctx1)
	assert.ErrorIs(t, err, storestatus.ErrUnsupportedAggregateOperation)
}

func TestOpenExcludedContextInvisible(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := rdf.NewGraph()
	g.Add(ctx2, triple("http://example.org/d", "http://example.org/e", "http://example.org/f"))
	bi := newInstaller(fs, g)

	depDep := model.New("dep_dep")
	depDep.AddInclude(ctx2)
	_, err := bi.Install(depDep)
	require.NoError(t, err)

	d := model.New("test")
	d.AddDependency(model.DependencyDescriptor{ID: "dep_dep", Excludes: []string{ctx2}})
	_, err = bi.Install(d)
	require.NoError(t, err)

	b := New("test", BundlesDirectory(bundlesRoot), BundleFS(fs))
	s, err := b.Open()
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	found, err := s.Triples(rdf.Pattern{Subject: rdf.IRI("http://example.org/d")}, "")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestOpenWithTracerRecordsSpans(t *testing.T) {
	fs := afero.NewMemMapFs()
	installTree(t, fs, []model.DependencyDescriptor{{ID: "dep"}})

	tr := mocktracer.New()
	b := New("test", BundlesDirectory(bundlesRoot), BundleFS(fs), BundleTracer(tr))
	s, err := b.Open()
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	_, err = s.Triples(rdf.Pattern{}, "")
	require.NoError(t, err)

	spans := tr.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "test triples", spans[0].OperationName)
}

func TestBundleDescriptor(t *testing.T) {
	fs := afero.NewMemMapFs()
	installTree(t, fs, []model.DependencyDescriptor{{ID: "dep"}})

	b := New("test", BundlesDirectory(bundlesRoot), BundleFS(fs))
	_, err := b.Open()
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	desc, err := b.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, "test", desc.ID)
	assert.Equal(t, 1, desc.Version, "the installed manifest carries the assigned version")
	assert.True(t, desc.IncludesContext(ctx1))
}

func TestRemoteRoundTrip(t *testing.T) {
	r0 := NewRemote("remote")
	var buf bytes.Buffer
	require.NoError(t, r0.Write(&buf))
	r1, err := ReadRemote(&buf)
	require.NoError(t, err)
	assert.Equal(t, r0, r1)
}

func TestRemoteRoundTripWithAccessors(t *testing.T) {
	r0 := NewRemote("remote")
	r0.AddConfig(URLConfig{URL: "http://example.org/bundle_remote0"})
	r0.AddConfig(URLConfig{URL: "http://example.org/bundle_remote1"})
	r0.AddConfig(URLConfig{URL: "http://example.org/bundle_remote1"})
	require.Len(t, r0.Accessors, 2, "duplicate configs are not added")

	var buf bytes.Buffer
	require.NoError(t, r0.Write(&buf))
	r1, err := ReadRemote(&buf)
	require.NoError(t, err)
	assert.Equal(t, r0, r1)
}

func TestGenerateLoadersForFileURL(t *testing.T) {
	r := NewRemote("remote", URLConfig{URL: "file:///somewhere/bundles"})
	loaders := r.GenerateLoaders()
	require.NotEmpty(t, loaders)
	_, ok := loaders[0].(*DirLoader)
	assert.True(t, ok)
}

func TestGenerateLoadersSkipsUnknownSchemes(t *testing.T) {
	r := NewRemote("remote", URLConfig{URL: "gopher://example.org/bundles"})
	assert.Empty(t, r.GenerateLoaders())
}
