package bundle

import (
	"os"
	"sort"

	"github.com/spf13/afero"

	"github.com/graphknit/graphknit/pkg/model"
)

// Info summarizes one installed bundle
type Info struct {
	ID       string
	Versions []int
	Size     int64 // bytes in the latest version directory
}

// Latest returns the highest installed version, 0 when none exist
func (i Info) Latest() int {
	if len(i.Versions) == 0 {
		return 0
	}
	return i.Versions[len(i.Versions)-1]
}

// ListBundles summarizes every installed bundle under a bundles directory,
// sorted by identifier
func ListBundles(fs afero.Fs, root string) ([]Info, error) {
	entries, err := afero.ReadDir(fs, root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	l := NewDirLoader(root, DirLoaderFS(fs))
	var out []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		versions, err := l.BundleVersions(entry.Name())
		if err != nil {
			return nil, err
		}
		if len(versions) == 0 {
			continue
		}
		info := Info{ID: entry.Name(), Versions: versions}
		latest := model.VersionDirectory(root, info.ID, info.Latest())
		info.Size, err = treeSize(fs, latest)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func treeSize(fs afero.Fs, dir string) (int64, error) {
	var total int64
	err := afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}
