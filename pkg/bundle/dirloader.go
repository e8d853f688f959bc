package bundle

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/graphknit/graphknit/pkg/bundle/status"
	"github.com/graphknit/graphknit/pkg/errors"
	"github.com/graphknit/graphknit/pkg/model"
)

const fileURLPrefix = "file://"

func init() {
	RegisterLoaderFactory(NewDirLoaderFactory())
}

// DirLoaderFactory builds DirLoaders for file:// URL access configs. The
// options are handed to every loader built.
type DirLoaderFactory struct {
	opts []DirLoaderOption
}

// NewDirLoaderFactory builds a factory applying the given options to each
// loader
func NewDirLoaderFactory(opts ...DirLoaderOption) *DirLoaderFactory {
	return &DirLoaderFactory{opts: opts}
}

func (*DirLoaderFactory) CanLoadFrom(ac AccessConfig) bool {
	u, ok := ac.(URLConfig)
	return ok && strings.HasPrefix(u.URL, fileURLPrefix)
}

func (f *DirLoaderFactory) Loader(ac AccessConfig) (Loader, error) {
	u, ok := ac.(URLConfig)
	if !ok || !strings.HasPrefix(u.URL, fileURLPrefix) {
		return nil, status.ErrNotABundlePath.WrapMessage("%v", ac)
	}
	return NewDirLoader(strings.TrimPrefix(u.URL, fileURLPrefix), f.opts...), nil
}

// DirLoader retrieves bundles from another local bundles directory by
// copying version directories wholesale
type DirLoader struct {
	source string
	fs     afero.Fs
}

// DirLoaderOption overrides loader defaults
type DirLoaderOption func(*DirLoader)

// DirLoaderFS substitutes the filesystem, as in tests
func DirLoaderFS(fs afero.Fs) DirLoaderOption {
	return func(l *DirLoader) {
		l.fs = fs
	}
}

// NewDirLoader builds a loader over a local bundles directory
func NewDirLoader(source string, opts ...DirLoaderOption) *DirLoader {
	l := &DirLoader{
		source: source,
		fs:     afero.NewOsFs(),
	}
	for _, apply := range opts {
		apply(l)
	}
	return l
}

func (l *DirLoader) CanLoad(id string, version int) bool {
	if version > 0 {
		ok, err := afero.DirExists(l.fs, model.VersionDirectory(l.source, id, version))
		return err == nil && ok
	}
	versions, err := l.BundleVersions(id)
	return err == nil && len(versions) > 0
}

func (l *DirLoader) BundleVersions(id string) ([]int, error) {
	entries, err := afero.ReadDir(l.fs, model.BundleDirectory(l.source, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var versions []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if v, ok := model.ParseVersionDir(entry.Name()); ok {
			versions = append(versions, v)
		}
	}
	sort.Ints(versions)
	return versions, nil
}

func (l *DirLoader) Load(id string, version int, bundlesRoot string) error {
	if version == 0 {
		versions, err := l.BundleVersions(id)
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			return &status.NotFoundError{ID: id, Reason: "no versioned bundle directories exist at the source"}
		}
		version = versions[len(versions)-1]
	}
	src := model.VersionDirectory(l.source, id, version)
	ok, err := afero.DirExists(l.fs, src)
	if err != nil {
		return err
	}
	if !ok {
		return &status.NotFoundError{ID: id, Version: version, Reason: "the source has no such version"}
	}
	dest := model.VersionDirectory(bundlesRoot, id, version)
	return l.copyTree(src, dest)
}

func (l *DirLoader) copyTree(src, dest string) error {
	return afero.Walk(l.fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if info.IsDir() {
			return l.fs.MkdirAll(target, 0755)
		}
		raw, err := afero.ReadFile(l.fs, path)
		if err != nil {
			return errors.New("cannot read source bundle file").Wrap(err)
		}
		return afero.WriteFile(l.fs, target, raw, info.Mode().Perm())
	})
}
