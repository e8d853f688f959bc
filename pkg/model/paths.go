package model

import (
	"path/filepath"
	"strconv"
)

// On-disk names inside an installed bundle version directory
const (
	GraphsDirName    = "graphs"
	FilesDirName     = "files"
	HashFileName     = "hashes"
	IndexFileName    = "index"
	ManifestFileName = "manifest"
)

// BundleDirectory returns the directory holding every installed version of
// a bundle
func BundleDirectory(root, id string) string {
	return filepath.Join(root, id)
}

// VersionDirectory returns the directory of one installed bundle version
func VersionDirectory(root, id string, version int) string {
	return filepath.Join(root, id, strconv.Itoa(version))
}

// GraphsDirectory returns the graphs subdirectory of a version directory
func GraphsDirectory(versionDir string) string {
	return filepath.Join(versionDir, GraphsDirName)
}

// FilesDirectory returns the files subdirectory of a version directory
func FilesDirectory(versionDir string) string {
	return filepath.Join(versionDir, FilesDirName)
}

// ManifestPath returns the manifest location inside a version directory
func ManifestPath(versionDir string) string {
	return filepath.Join(versionDir, ManifestFileName)
}

// ParseVersionDir interprets a directory base name as a bundle version.
// Names that are not positive integers are not versions.
func ParseVersionDir(name string) (int, bool) {
	v, err := strconv.Atoi(name)
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}
