package store

import (
	"sync"

	"github.com/graphknit/graphknit/pkg/store/status"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func() Store)
)

// Register makes a store kind available to Open. Implementations call this
// from their package init.
func Register(kind string, factory func() Store) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = factory
}

// New instantiates an unopened store of the given kind
func New(kind string) (Store, error) {
	registryMu.RLock()
	factory, ok := registry[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, status.ErrUnknownKind.WrapMessage("%q", kind)
	}
	return factory(), nil
}

// Open instantiates and opens a store from its configuration
func Open(cfg Config) (Store, error) {
	s, err := New(cfg.Kind)
	if err != nil {
		return nil, err
	}
	if err := s.Open(cfg); err != nil {
		return nil, err
	}
	return s, nil
}
