package bundle

import (
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/graphknit/graphknit/pkg/bundle/status"
	"github.com/graphknit/graphknit/pkg/errors"
	"github.com/graphknit/graphknit/pkg/model"
	"github.com/graphknit/graphknit/pkg/rdf"
)

// Installer writes immutable bundle version directories from a working
// graph and a source directory of auxiliary files.
//
// Install is single-writer per target directory. A failed import
// validation aborts the install but does not roll back content already
// written.
type Installer struct {
	sourceDir   string
	bundlesRoot string
	graph       *rdf.Graph
	importsCtx  string
	remotes     []*Remote
	fs          afero.Fs
	log         *zap.Logger
}

// InstallerOption overrides installer defaults
type InstallerOption func(*Installer)

// InstallerGraph sets the working graph contexts are read from
func InstallerGraph(g *rdf.Graph) InstallerOption {
	return func(i *Installer) {
		i.graph = g
	}
}

// InstallerImportsContext names the context holding import edges
func InstallerImportsContext(contextID string) InstallerOption {
	return func(i *Installer) {
		i.importsCtx = contextID
	}
}

// InstallerRemotes configures remotes used to fetch dependencies absent
// from the local bundles directory
func InstallerRemotes(remotes ...*Remote) InstallerOption {
	return func(i *Installer) {
		i.remotes = remotes
	}
}

// InstallerFS substitutes the filesystem, as in tests
func InstallerFS(fs afero.Fs) InstallerOption {
	return func(i *Installer) {
		i.fs = fs
	}
}

// InstallerLogger sets the logger
func InstallerLogger(log *zap.Logger) InstallerOption {
	return func(i *Installer) {
		i.log = log
	}
}

// NewInstaller builds an installer writing bundles from sourceDir into
// bundlesRoot
func NewInstaller(sourceDir, bundlesRoot string, opts ...InstallerOption) *Installer {
	i := &Installer{
		sourceDir:   sourceDir,
		bundlesRoot: bundlesRoot,
		graph:       rdf.NewGraph(),
		fs:          afero.NewOsFs(),
		log:         zap.NewNop(),
	}
	for _, apply := range opts {
		apply(i)
	}
	return i
}

// Install writes the bundle selected by the descriptor and returns the
// version directory written. The descriptor's version is respected when
// set; otherwise one past the highest installed version is allocated,
// starting at 1.
func (i *Installer) Install(d *model.Descriptor) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	version := d.Version
	if version == 0 {
		latest, err := latestVersion(i.fs, i.bundlesRoot, d.ID)
		if err != nil {
			return "", err
		}
		version = latest + 1
	}
	target := model.VersionDirectory(i.bundlesRoot, d.ID, version)
	exists, err := afero.DirExists(i.fs, target)
	if err != nil {
		return "", err
	}
	if exists {
		empty, err := afero.IsEmpty(i.fs, target)
		if err != nil {
			return "", err
		}
		if !empty {
			return "", status.ErrTargetNotEmpty.WrapMessage("%s", target)
		}
	}
	i.log.Info("installing bundle",
		zap.String("bundle", d.ID),
		zap.Int("version", version),
		zap.String("target", target))

	if err := i.writeContexts(d, target); err != nil {
		return "", err
	}
	if err := i.writeFiles(d, target); err != nil {
		return "", err
	}
	if err := i.validateImports(d); err != nil {
		return "", err
	}

	installed := *d
	installed.Version = version
	if err := i.writeManifest(&installed, target); err != nil {
		return "", err
	}
	return target, nil
}

// writeContexts serializes each included context, content-addresses it and
// records the (context id, hash) pairs in the hashes and index files
func (i *Installer) writeContexts(d *model.Descriptor, target string) error {
	graphsDir := model.GraphsDirectory(target)
	if err := i.fs.MkdirAll(graphsDir, 0755); err != nil {
		return err
	}
	var records []byte
	for _, inc := range d.Includes {
		content := rdf.EncodeTriples(i.graph.Context(inc.ContextID))
		if len(content) == 0 && !inc.Empty {
			return status.ErrEmptyContext.WrapMessage("%s", inc.ContextID)
		}
		hash, err := HashContent(content)
		if err != nil {
			return err
		}
		contentPath := filepath.Join(graphsDir, hash+rdf.ContentExt)
		ok, err := afero.Exists(i.fs, contentPath)
		if err != nil {
			return err
		}
		if !ok {
			if err := afero.WriteFile(i.fs, contentPath, content, 0644); err != nil {
				return err
			}
		}
		records = append(records, []byte(model.FormatIndexRecord(inc.ContextID, hash))...)
	}
	if err := afero.WriteFile(i.fs, filepath.Join(graphsDir, model.HashFileName), records, 0644); err != nil {
		return err
	}
	return afero.WriteFile(i.fs, filepath.Join(graphsDir, model.IndexFileName), records, 0644)
}

// writeFiles copies the files selected by the descriptor into files/ and
// records their content hashes
func (i *Installer) writeFiles(d *model.Descriptor, target string) error {
	filesDir := model.FilesDirectory(target)
	if err := i.fs.MkdirAll(filesDir, 0755); err != nil {
		return err
	}
	selected := append([]string(nil), d.Files.Includes...)
	for _, pattern := range d.Files.Patterns {
		matches, err := afero.Glob(i.fs, filepath.Join(i.sourceDir, pattern))
		if err != nil {
			return errors.New("bad file pattern").WrapMessage("%q: %v", pattern, err)
		}
		for _, match := range matches {
			rel, err := filepath.Rel(i.sourceDir, match)
			if err != nil {
				return err
			}
			selected = append(selected, rel)
		}
	}
	sort.Strings(selected)

	var records []byte
	seen := make(map[string]struct{}, len(selected))
	for _, rel := range selected {
		if _, ok := seen[rel]; ok {
			continue
		}
		seen[rel] = struct{}{}
		raw, err := afero.ReadFile(i.fs, filepath.Join(i.sourceDir, rel))
		if err != nil {
			return errors.New("cannot read bundled file").Wrap(err)
		}
		hash, err := HashContent(raw)
		if err != nil {
			return err
		}
		dest := filepath.Join(filesDir, rel)
		if err := i.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		if err := afero.WriteFile(i.fs, dest, raw, 0644); err != nil {
			return err
		}
		records = append(records, []byte(model.FormatIndexRecord(rel, hash))...)
	}
	return afero.WriteFile(i.fs, filepath.Join(filesDir, model.HashFileName), records, 0644)
}

// validateImports checks that every import edge out of an included context
// lands in a context covered by the bundle's own includes or by the
// excludes-filtered includes of its direct dependencies
func (i *Installer) validateImports(d *model.Descriptor) error {
	if i.importsCtx == "" {
		return nil
	}
	covered := make(map[string]struct{}, len(d.Includes))
	for _, inc := range d.Includes {
		covered[inc.ContextID] = struct{}{}
	}
	for _, dep := range d.Dependencies {
		depCovered, err := i.dependencyCoverage(dep)
		if err != nil {
			return err
		}
		for id := range depCovered {
			covered[id] = struct{}{}
		}
	}

	uncovered := make(map[string]struct{})
	for _, t := range i.graph.Context(i.importsCtx) {
		if t.Predicate != rdf.ContextImports {
			continue
		}
		source, ok := t.Subject.(rdf.IRI)
		if !ok {
			continue
		}
		if !d.IncludesContext(string(source)) {
			continue
		}
		dest, ok := t.Object.(rdf.IRI)
		if !ok {
			continue
		}
		if _, ok := covered[string(dest)]; !ok {
			uncovered[string(dest)] = struct{}{}
		}
	}
	if len(uncovered) != 0 {
		return status.NewUncoveredImports(d.ID, uncovered)
	}
	return nil
}

// dependencyCoverage resolves a direct dependency, fetching it through the
// configured remotes when absent, and returns the contexts it covers:
// its manifest includes minus the dependency edge's excludes
func (i *Installer) dependencyCoverage(dep model.DependencyDescriptor) (map[string]struct{}, error) {
	dir, err := directory(i.fs, i.bundlesRoot, dep.ID, dep.Version)
	if errors.Is(err, status.ErrBundleNotFound) && len(i.remotes) > 0 {
		if ferr := fetchBundle(i.remotes, dep.ID, dep.Version, i.bundlesRoot, i.log); ferr != nil {
			return nil, ferr
		}
		dir, err = directory(i.fs, i.bundlesRoot, dep.ID, dep.Version)
	}
	if err != nil {
		return nil, err
	}
	depDesc, err := loadManifest(i.fs, dir, dep.ID)
	if err != nil {
		return nil, err
	}
	excluded := make(map[string]struct{}, len(dep.Excludes))
	for _, id := range dep.Excludes {
		excluded[id] = struct{}{}
	}
	covered := make(map[string]struct{}, len(depDesc.Includes))
	for _, inc := range depDesc.Includes {
		if _, ok := excluded[inc.ContextID]; ok {
			continue
		}
		covered[inc.ContextID] = struct{}{}
	}
	return covered, nil
}

func (i *Installer) writeManifest(d *model.Descriptor, target string) error {
	f, err := i.fs.Create(model.ManifestPath(target))
	if err != nil {
		return err
	}
	if err := d.Save(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// latestVersion returns the highest installed version of a bundle, 0 when
// none exist
func latestVersion(fs afero.Fs, root, id string) (int, error) {
	entries, err := afero.ReadDir(fs, model.BundleDirectory(root, id))
	if err != nil {
		if exists, eerr := afero.DirExists(fs, model.BundleDirectory(root, id)); eerr == nil && !exists {
			return 0, nil
		}
		return 0, err
	}
	latest := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if v, ok := model.ParseVersionDir(entry.Name()); ok && v > latest {
			latest = v
		}
	}
	return latest, nil
}

// loadManifest reads the manifest of an installed version directory. A
// missing manifest is tolerated and treated as a bare bundle with no
// includes or dependencies.
func loadManifest(fs afero.Fs, versionDir, id string) (*model.Descriptor, error) {
	path := model.ManifestPath(versionDir)
	ok, err := afero.Exists(fs, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return model.New(id), nil
	}
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return model.Load(f)
}
