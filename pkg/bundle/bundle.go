package bundle

import (
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/graphknit/graphknit/pkg/bundle/status"
	"github.com/graphknit/graphknit/pkg/model"
	"github.com/graphknit/graphknit/pkg/store"
	"github.com/graphknit/graphknit/pkg/store/instrumented"

	// register the store kinds the flattened configuration names
	_ "github.com/graphknit/graphknit/pkg/store/aggregate"
	_ "github.com/graphknit/graphknit/pkg/store/bundlestore"
)

// Bundle is a read handle on an installed bundle: it resolves the version
// directory, flattens the dependency tree and opens the whole tree as one
// aggregate store. Close releases every store in the tree.
type Bundle struct {
	id      string
	version int
	root    string
	remotes []*Remote
	fs      afero.Fs
	log     *zap.Logger
	tracer  opentracing.Tracer

	state *bundleState
}

type bundleState struct {
	dir   string
	desc  *model.Descriptor
	conf  []store.Config
	store store.Store
}

// BundleOption overrides bundle defaults
type BundleOption func(*Bundle)

// BundleVersion pins the bundle version; the default is the latest
// installed
func BundleVersion(version int) BundleOption {
	return func(b *Bundle) {
		b.version = version
	}
}

// BundlesDirectory sets the local bundles root
func BundlesDirectory(root string) BundleOption {
	return func(b *Bundle) {
		b.root = root
	}
}

// BundleRemotes configures remotes used to fetch the bundle or its
// dependencies when absent locally
func BundleRemotes(remotes ...*Remote) BundleOption {
	return func(b *Bundle) {
		b.remotes = remotes
	}
}

// BundleFS substitutes the filesystem, as in tests
func BundleFS(fs afero.Fs) BundleOption {
	return func(b *Bundle) {
		b.fs = fs
	}
}

// BundleLogger sets the logger
func BundleLogger(log *zap.Logger) BundleOption {
	return func(b *Bundle) {
		b.log = log
	}
}

// BundleTracer wraps the opened store tree with opentracing spans
func BundleTracer(tr opentracing.Tracer) BundleOption {
	return func(b *Bundle) {
		b.tracer = tr
	}
}

// New builds an unopened bundle handle
func New(id string, opts ...BundleOption) *Bundle {
	b := &Bundle{
		id:  id,
		fs:  afero.NewOsFs(),
		log: zap.NewNop(),
	}
	for _, apply := range opts {
		apply(b)
	}
	return b
}

// Directory resolves the installed version directory for the bundle
func (b *Bundle) Directory() (string, error) {
	if b.state != nil {
		return b.state.dir, nil
	}
	return directory(b.fs, b.root, b.id, b.version)
}

// StoreConfigs returns the flattened store configuration for the bundle's
// dependency tree, fetching absent bundles through the configured remotes
func (b *Bundle) StoreConfigs() ([]store.Config, error) {
	if b.state != nil {
		return b.state.conf, nil
	}
	r := b.resolver()
	return r.StoreConfigs(b.id, b.version)
}

// Open resolves the bundle, flattens its dependency tree and opens the
// tree as a read-only aggregate store. Opening is all-or-nothing: a child
// failing to open closes everything opened so far.
func (b *Bundle) Open() (store.Store, error) {
	if b.state != nil {
		return b.state.store, nil
	}
	r := b.resolver()
	dir, desc, err := r.resolveBundle(b.id, b.version)
	if err != nil {
		return nil, err
	}
	conf, err := r.flatten(dir, desc, nil, make(map[string]struct{}))
	if err != nil {
		return nil, err
	}
	s, err := store.Open(store.Config{
		Kind:     store.KindAggregate,
		ReadOnly: true,
		Conf:     withFS(conf, b.fs),
	})
	if err != nil {
		return nil, err
	}
	if b.tracer != nil {
		s = instrumented.New(b.id, b.tracer, s)
	}
	b.log.Debug("bundle opened",
		zap.String("bundle", b.id),
		zap.String("directory", dir),
		zap.Int("stores", len(conf)))
	b.state = &bundleState{dir: dir, desc: desc, conf: conf, store: s}
	return s, nil
}

// Descriptor returns the manifest of the resolved bundle. The bundle must
// be open.
func (b *Bundle) Descriptor() (*model.Descriptor, error) {
	if b.state == nil {
		return nil, &status.NotFoundError{ID: b.id, Version: b.version, Reason: "the bundle is not open"}
	}
	return b.state.desc, nil
}

// Close releases every store in the opened tree
func (b *Bundle) Close() error {
	if b.state == nil {
		return nil
	}
	err := b.state.store.Close()
	b.state = nil
	return err
}

// withFS threads the bundle's filesystem down to every leaf store
// configuration before opening. The resolved configuration kept on the
// handle stays filesystem-free so it compares structurally.
func withFS(confs []store.Config, fs afero.Fs) []store.Config {
	out := make([]store.Config, len(confs))
	for i, c := range confs {
		c.FS = fs
		c.Conf = withFS(c.Conf, fs)
		out[i] = c
	}
	return out
}

func (b *Bundle) resolver() *resolver {
	return &resolver{fs: b.fs, root: b.root, remotes: b.remotes, log: b.log}
}

// directory resolves the version directory of an installed bundle. Version
// 0 selects the highest numeric version directory. Filesystem errors other
// than absence propagate unwrapped.
func directory(fs afero.Fs, root, id string, version int) (string, error) {
	bundleDir := model.BundleDirectory(root, id)
	exists, err := afero.DirExists(fs, bundleDir)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", &status.NotFoundError{
			ID: id, Version: version,
			Reason: "bundle directory does not exist",
		}
	}
	if version > 0 {
		versionDir := model.VersionDirectory(root, id, version)
		ok, err := afero.DirExists(fs, versionDir)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", &status.NotFoundError{
				ID: id, Version: version,
				Reason: "the specified version is not installed",
			}
		}
		return versionDir, nil
	}
	latest, err := latestVersion(fs, root, id)
	if err != nil {
		return "", err
	}
	if latest == 0 {
		return "", &status.NotFoundError{
			ID:     id,
			Reason: "no versioned bundle directories exist",
		}
	}
	return model.VersionDirectory(root, id, latest), nil
}
