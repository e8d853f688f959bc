// Package model describes bundle manifests and the on-disk layout of
// installed bundles. It is pure data: no I/O beyond YAML de/serialization.
package model

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

// Descriptor is a bundle manifest: the set of contexts and files packaged
// into a bundle, plus its declared dependencies.
type Descriptor struct {
	ID      string `yaml:"id"`
	Version int    `yaml:"version,omitempty"`

	// Includes selects the contexts packaged into the bundle
	Includes []Include `yaml:"includes,omitempty"`

	// Dependencies is ordered: declaration order drives dependency
	// flattening tie-breaks
	Dependencies []DependencyDescriptor `yaml:"dependencies,omitempty"`

	Files FilesDescriptor `yaml:"files,omitempty"`
}

// Include selects one context for packaging. Empty marks a context which is
// intentionally allowed to contain zero statements.
type Include struct {
	ContextID string
	Empty     bool
}

// DependencyDescriptor names a bundle this bundle depends on. A zero
// Version means "latest installed or loadable". Excludes lists context
// identifiers this dependency edge does not contribute toward import
// coverage.
type DependencyDescriptor struct {
	ID       string   `yaml:"id"`
	Version  int      `yaml:"version,omitempty"`
	Excludes []string `yaml:"excludes,omitempty"`
}

// Same reports manifest-level set membership equality, which is defined on
// (id, version) only. The dependency-flattening dedup key is Key, a
// deliberately different notion of identity.
func (d DependencyDescriptor) Same(other DependencyDescriptor) bool {
	return d.ID == other.ID && d.Version == other.Version
}

// Key returns the dependency-flattening dedup key: the (id, exclusion-set)
// value pair. Two references to the same bundle with different exclusion
// sets represent genuinely different coverage.
func (d DependencyDescriptor) Key() string {
	excludes := append([]string(nil), d.Excludes...)
	sort.Strings(excludes)
	return d.ID + "\x00" + strings.Join(excludes, "\x00")
}

// FilesDescriptor selects auxiliary files for packaging: explicit relative
// paths and glob patterns, both resolved against the install source
// directory.
type FilesDescriptor struct {
	Includes []string `yaml:"includes,omitempty"`
	Patterns []string `yaml:"patterns,omitempty"`
}

// IsZero reports whether no files are selected
func (f FilesDescriptor) IsZero() bool {
	return len(f.Includes) == 0 && len(f.Patterns) == 0
}

// New creates a descriptor for the given bundle identifier
func New(id string) *Descriptor {
	return &Descriptor{ID: id}
}

// Load reads a YAML manifest. Dependency entries may take three shapes: a
// bare identifier, an {id, version} mapping, or an [id, version] pair.
// Include entries are a bare context identifier or an identifier mapped to
// attributes, of which only "empty" is recognized.
func Load(r io.Reader) (*Descriptor, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var d Descriptor
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Make builds a descriptor from a generic map, the shape produced by
// configuration layers. It accepts the same entry shapes as Load.
func Make(fields map[string]interface{}) (*Descriptor, error) {
	raw, err := yaml.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return Load(strings.NewReader(string(raw)))
}

// Save writes the manifest as YAML
func (d *Descriptor) Save(w io.Writer) error {
	raw, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	_, err = w.Write(raw)
	return err
}

// Validate checks structural manifest invariants
func (d *Descriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("bundle id must not be empty")
	}
	if strings.ContainsRune(d.ID, os.PathSeparator) || strings.ContainsRune(d.ID, '/') {
		return fmt.Errorf("bundle id %q must not contain path separators", d.ID)
	}
	if d.Version < 0 {
		return fmt.Errorf("bundle version must be positive, got %d", d.Version)
	}
	for _, dep := range d.Dependencies {
		if dep.ID == "" {
			return fmt.Errorf("dependency id must not be empty")
		}
		if dep.Version < 0 {
			return fmt.Errorf("dependency %q version must be positive, got %d", dep.ID, dep.Version)
		}
	}
	return nil
}

// AddInclude selects a context. Re-adding an already included context is a
// no-op.
func (d *Descriptor) AddInclude(contextID string) {
	d.addInclude(Include{ContextID: contextID})
}

// AddEmptyInclude selects a context that is allowed to be empty
func (d *Descriptor) AddEmptyInclude(contextID string) {
	d.addInclude(Include{ContextID: contextID, Empty: true})
}

func (d *Descriptor) addInclude(inc Include) {
	for i, existing := range d.Includes {
		if existing.ContextID == inc.ContextID {
			d.Includes[i] = inc
			return
		}
	}
	d.Includes = append(d.Includes, inc)
}

// IncludesContext reports whether the context is selected by the manifest
func (d *Descriptor) IncludesContext(contextID string) bool {
	for _, inc := range d.Includes {
		if inc.ContextID == contextID {
			return true
		}
	}
	return false
}

// AddDependency appends a dependency, preserving declaration order.
// Membership is defined by (id, version): re-adding an equal dependency is
// a no-op.
func (d *Descriptor) AddDependency(dep DependencyDescriptor) {
	for _, existing := range d.Dependencies {
		if existing.Same(dep) {
			return
		}
	}
	d.Dependencies = append(d.Dependencies, dep)
}

// HasDependency reports (id, version) membership
func (d *Descriptor) HasDependency(dep DependencyDescriptor) bool {
	for _, existing := range d.Dependencies {
		if existing.Same(dep) {
			return true
		}
	}
	return false
}

// Empties derives the identifiers of contexts declared intentionally empty
func (d *Descriptor) Empties() []string {
	var out []string
	for _, inc := range d.Includes {
		if inc.Empty {
			out = append(out, inc.ContextID)
		}
	}
	return out
}
