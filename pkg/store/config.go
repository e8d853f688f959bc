package store

import (
	"github.com/spf13/afero"
)

// Store kinds recognized by the registry. Implementations register
// themselves under these names.
const (
	// KindMemory is an in-memory context-aware store
	KindMemory = "memory"

	// KindBundleIndexed is a leaf store reading a bundle version directory
	KindBundleIndexed = "bundle-indexed"

	// KindAggregate is a read-only federation over nested configurations
	KindAggregate = "agg"
)

// Config describes how to open one store. A leaf configuration names a kind
// and its parameters; an aggregate configuration nests child configurations
// under Conf and may carry context identifiers excluded from its
// contribution.
//
// Config values have structural equality so resolved dependency trees can be
// compared directly.
type Config struct {
	Kind string `yaml:"kind"`

	// leaf parameters
	Path     string `yaml:"path,omitempty"`
	ReadOnly bool   `yaml:"readOnly,omitempty"`

	// aggregate parameters
	Conf     []Config `yaml:"conf,omitempty"`
	Excludes []string `yaml:"excludes,omitempty"`

	// FS substitutes the filesystem leaf stores read from, as in tests.
	// Never serialized.
	FS afero.Fs `yaml:"-"`
}
