package bundle

import (
	"sort"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/graphknit/graphknit/pkg/bundle/status"
	"github.com/graphknit/graphknit/pkg/errors"
	"github.com/graphknit/graphknit/pkg/model"
	"github.com/graphknit/graphknit/pkg/store"
)

// resolver flattens a bundle's dependency DAG into the nested store
// configuration consumed by the aggregate store.
type resolver struct {
	fs      afero.Fs
	root    string
	remotes []*Remote
	log     *zap.Logger
}

// StoreConfigs returns the flattened configuration for a bundle: entry 0
// is the bundle's own indexed store, followed by one aggregate entry per
// retained dependency, nested to mirror the dependency tree.
//
// A dependency is retained if its (id, excludes-in-effect) key has not
// been visited anywhere earlier in the build: a diamond dependency appears
// once, but the same bundle reached under different exclusion sets
// represents different coverage and appears once per set. Traversal is
// depth-first in declaration order with one seen set across the whole
// build.
func (r *resolver) StoreConfigs(id string, version int) ([]store.Config, error) {
	dir, desc, err := r.resolveBundle(id, version)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	return r.flatten(dir, desc, nil, seen)
}

func (r *resolver) flatten(dir string, desc *model.Descriptor, inherited []string, seen map[string]struct{}) ([]store.Config, error) {
	out := []store.Config{{
		Kind:     store.KindBundleIndexed,
		Path:     dir,
		ReadOnly: true,
	}}
	for _, dep := range desc.Dependencies {
		effective := mergeExcludes(inherited, dep.Excludes)
		key := model.DependencyDescriptor{ID: dep.ID, Excludes: effective}.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		depDir, depDesc, err := r.resolveBundle(dep.ID, dep.Version)
		if err != nil {
			return nil, err
		}
		nested, err := r.flatten(depDir, depDesc, effective, seen)
		if err != nil {
			return nil, err
		}
		out = append(out, store.Config{
			Kind:     store.KindAggregate,
			ReadOnly: true,
			Conf:     nested,
			Excludes: append([]string(nil), dep.Excludes...),
		})
	}
	return out, nil
}

// resolveBundle locates an installed bundle version directory, fetching
// through the configured remotes when it is absent, and loads its manifest
func (r *resolver) resolveBundle(id string, version int) (string, *model.Descriptor, error) {
	dir, err := directory(r.fs, r.root, id, version)
	if errors.Is(err, status.ErrBundleNotFound) && len(r.remotes) > 0 {
		if ferr := fetchBundle(r.remotes, id, version, r.root, r.log); ferr != nil {
			return "", nil, ferr
		}
		dir, err = directory(r.fs, r.root, id, version)
	}
	if err != nil {
		return "", nil, err
	}
	desc, err := loadManifest(r.fs, dir, id)
	if err != nil {
		return "", nil, err
	}
	return dir, desc, nil
}

func mergeExcludes(inherited, edge []string) []string {
	if len(edge) == 0 {
		return inherited
	}
	set := make(map[string]struct{}, len(inherited)+len(edge))
	for _, id := range inherited {
		set[id] = struct{}{}
	}
	for _, id := range edge {
		set[id] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
