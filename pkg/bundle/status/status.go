// Package status exports errors shared across bundle operations.
package status

import (
	"fmt"
	"sort"
	"strings"

	"github.com/graphknit/graphknit/pkg/errors"
)

var (
	// ErrBundleNotFound indicates a bundle could not be resolved to an
	// installed version directory. NotFoundError carries the specifics.
	ErrBundleNotFound = errors.New("bundle not found")

	// ErrTargetNotEmpty indicates an install target directory already has
	// content
	ErrTargetNotEmpty = errors.New("bundle install target is not empty")

	// ErrUncoveredImports indicates included contexts import contexts not
	// covered by the bundle or its dependencies. UncoveredImportsError
	// carries the specifics.
	ErrUncoveredImports = errors.New("uncovered imports")

	// ErrEmptyContext indicates an included context has no ground
	// statements and is not declared empty
	ErrEmptyContext = errors.New("refusing to package an empty context")

	// ErrNoLoader indicates no configured loader could retrieve a bundle
	ErrNoLoader = errors.New("no loader can retrieve the bundle")

	// ErrUnknownAccessor indicates a remote record names an access config
	// type this build does not know
	ErrUnknownAccessor = errors.New("unknown access config type")

	// ErrNotABundlePath indicates a loader source does not point at a
	// bundles directory
	ErrNotABundlePath = errors.New("source is not a bundles directory")
)

// NotFoundError reports a failed bundle directory resolution with a
// reason-specific message. It matches ErrBundleNotFound under errors.Is.
type NotFoundError struct {
	ID      string
	Version int
	Reason  string
}

func (e *NotFoundError) Error() string {
	if e.Version > 0 {
		return fmt.Sprintf("bundle %q at version %d not found: %s", e.ID, e.Version, e.Reason)
	}
	return fmt.Sprintf("bundle %q not found: %s", e.ID, e.Reason)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrBundleNotFound
}

// UncoveredImportsError aggregates every import edge target left uncovered
// by the bundle's includes and its dependency coverage. It matches
// ErrUncoveredImports under errors.Is.
type UncoveredImportsError struct {
	ID      string
	Imports []string
}

// NewUncoveredImports builds the error from the set of uncovered targets
func NewUncoveredImports(id string, imports map[string]struct{}) *UncoveredImportsError {
	ids := make([]string, 0, len(imports))
	for imp := range imports {
		ids = append(ids, imp)
	}
	sort.Strings(ids)
	return &UncoveredImportsError{ID: id, Imports: ids}
}

func (e *UncoveredImportsError) Error() string {
	return fmt.Sprintf("bundle %q has uncovered imports: %s", e.ID, strings.Join(e.Imports, ", "))
}

func (e *UncoveredImportsError) Is(target error) bool {
	return target == ErrUncoveredImports
}
