package bundle

import (
	"sync"

	"go.uber.org/zap"

	"github.com/graphknit/graphknit/pkg/bundle/status"
)

// Loader retrieves bundle versions from elsewhere into a local bundles
// directory
type Loader interface {
	// CanLoad reports whether the loader can retrieve the bundle.
	// Version 0 means any version.
	CanLoad(id string, version int) bool

	// BundleVersions lists the versions retrievable for the bundle
	BundleVersions(id string) ([]int, error)

	// Load populates bundlesRoot with the bundle at the given version,
	// or the latest retrievable version when 0
	Load(id string, version int, bundlesRoot string) error
}

// LoaderFactory builds loaders for the access configs it understands
type LoaderFactory interface {
	CanLoadFrom(ac AccessConfig) bool
	Loader(ac AccessConfig) (Loader, error)
}

// Uploader publishes an installed bundle version directory to a remote
type Uploader interface {
	Upload(versionDir string) error
}

// UploaderFactory builds uploaders for the access configs it understands
type UploaderFactory interface {
	CanUploadTo(ac AccessConfig) bool
	Uploader(ac AccessConfig) (Uploader, error)
}

// Factories are tried in registration order, so the order encodes
// preference.
var (
	factoriesMu       sync.RWMutex
	loaderFactoryList []LoaderFactory
	uploadFactoryList []UploaderFactory
)

// RegisterLoaderFactory appends a loader factory to the candidate list
func RegisterLoaderFactory(f LoaderFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	loaderFactoryList = append(loaderFactoryList, f)
}

// RegisterUploaderFactory appends an uploader factory to the candidate
// list
func RegisterUploaderFactory(f UploaderFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	uploadFactoryList = append(uploadFactoryList, f)
}

func loaderFactories() []LoaderFactory {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	out := make([]LoaderFactory, len(loaderFactoryList))
	copy(out, loaderFactoryList)
	return out
}

func uploaderFactories() []UploaderFactory {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	out := make([]UploaderFactory, len(uploadFactoryList))
	copy(out, uploadFactoryList)
	return out
}

// fetchBundle tries every loader of every remote in order and returns once
// one of them has populated bundlesRoot with the requested bundle
func fetchBundle(remotes []*Remote, id string, version int, bundlesRoot string, log *zap.Logger) error {
	for _, remote := range remotes {
		for _, loader := range remote.GenerateLoaders() {
			if !loader.CanLoad(id, version) {
				continue
			}
			if err := loader.Load(id, version, bundlesRoot); err != nil {
				log.Warn("bundle load failed, trying next loader",
					zap.String("bundle", id),
					zap.Int("version", version),
					zap.String("remote", remote.Name),
					zap.Error(err))
				continue
			}
			log.Debug("bundle fetched",
				zap.String("bundle", id),
				zap.Int("version", version),
				zap.String("remote", remote.Name))
			return nil
		}
	}
	return status.ErrNoLoader.WrapMessage("bundle %q version %d", id, version)
}
