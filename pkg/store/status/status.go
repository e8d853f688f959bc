// Package status exports errors produced by the store packages.
package status

import (
	"github.com/graphknit/graphknit/pkg/errors"
)

var (
	// ErrNotOpen indicates a read was attempted before the store was opened
	ErrNotOpen = errors.New("store has not been opened")

	// ErrReadOnly indicates a mutation was attempted on a read-only store
	ErrReadOnly = errors.New("store is read-only")

	// ErrUnsupportedAggregateOperation indicates a mutating call on an
	// aggregated (federated, read-only) store
	ErrUnsupportedAggregateOperation = errors.New("operation not supported on an aggregated store")

	// ErrStoresConflict indicates aggregated stores disagree on a prefix or
	// namespace mapping
	ErrStoresConflict = errors.New("aggregated stores conflict")

	// ErrNotContextAware indicates an aggregated child store cannot be
	// partitioned by context
	ErrNotContextAware = errors.New("all aggregated stores must be context aware")

	// ErrUnknownKind indicates a store configuration names an unregistered
	// store kind
	ErrUnknownKind = errors.New("unknown store kind")

	// ErrBadConfig indicates a store configuration is malformed
	ErrBadConfig = errors.New("invalid store configuration")

	// ErrLenUnsupported indicates the statement count cannot be computed
	// cheaply for this store composition
	ErrLenUnsupported = errors.New("length is not defined for this store composition")
)
