// Package bundlestore serves the graphs of one installed bundle version
// directory as a read-only context-aware store.
//
// The version directory is read once at Open: the graphs index maps each
// context identifier to the hash of its serialized content, and each
// distinct content file is parsed once. Parsed content is cached
// process-wide keyed by hash, so bundles sharing content do not parse it
// twice.
package bundlestore

import (
	"bytes"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/spf13/afero"

	"github.com/graphknit/graphknit/pkg/errors"
	"github.com/graphknit/graphknit/pkg/model"
	"github.com/graphknit/graphknit/pkg/rdf"
	"github.com/graphknit/graphknit/pkg/store"
	"github.com/graphknit/graphknit/pkg/store/memory"
	"github.com/graphknit/graphknit/pkg/store/status"
)

const contentCacheSize = 128

// contentCache holds parsed content files keyed by content hash. Content
// is immutable once installed, so entries never go stale.
var contentCache *lru.Cache

func init() {
	contentCache, _ = lru.New(contentCacheSize)
	store.Register(store.KindBundleIndexed, func() store.Store { return New() })
}

// Store reads the graphs of an installed bundle version directory
type Store struct {
	fs   afero.Fs
	mem  *memory.Store
	open bool
}

// Option overrides store defaults
type Option func(*Store)

// WithFS substitutes the filesystem, as in tests
func WithFS(fs afero.Fs) Option {
	return func(s *Store) {
		s.fs = fs
	}
}

// New builds an unopened bundle store
func New(opts ...Option) *Store {
	s := &Store{
		fs: afero.NewOsFs(),
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// Open loads the graphs index of the version directory named by cfg.Path
// and parses every referenced content file into memory.
func (s *Store) Open(cfg store.Config) error {
	if cfg.Path == "" {
		return status.ErrBadConfig.WrapMessage("bundle store requires a version directory path")
	}
	if cfg.FS != nil {
		s.fs = cfg.FS
	}
	graphsDir := model.GraphsDirectory(cfg.Path)
	raw, err := afero.ReadFile(s.fs, filepath.Join(graphsDir, model.IndexFileName))
	if err != nil {
		return errors.New("cannot read graphs index").Wrap(err)
	}

	mem := memory.New()
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		contextID, hash, err := model.ParseIndexRecord(line)
		if err != nil {
			return err
		}
		triples, err := s.loadContent(graphsDir, hash)
		if err != nil {
			return err
		}
		if len(triples) == 0 {
			// intentionally empty context: record the id with no triples
			if err := mem.AddContext(contextID); err != nil {
				return err
			}
			continue
		}
		for _, t := range triples {
			if err := mem.Add(t, contextID); err != nil {
				return err
			}
		}
	}
	mem.SetReadOnly(true)

	s.mem = mem
	s.open = true
	return nil
}

func (s *Store) loadContent(graphsDir, hash string) ([]rdf.Triple, error) {
	if cached, ok := contentCache.Get(hash); ok {
		return cached.([]rdf.Triple), nil
	}
	raw, err := afero.ReadFile(s.fs, filepath.Join(graphsDir, hash+rdf.ContentExt))
	if err != nil {
		return nil, errors.New("cannot read context content").Wrap(err)
	}
	triples, err := rdf.DecodeTriples(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.New("corrupt context content").WrapMessage("%s: %v", hash, err)
	}
	contentCache.Add(hash, triples)
	return triples, nil
}

// Close releases the parsed graphs
func (s *Store) Close() error {
	s.mem = nil
	s.open = false
	return nil
}

// ContextAware reports true: results carry context identifiers
func (s *Store) ContextAware() bool { return true }

// SupportsRangeQueries reports true
func (s *Store) SupportsRangeQueries() bool { return true }

func (s *Store) Triples(pat rdf.Pattern, contextID string) ([]store.CtxTriple, error) {
	if !s.open {
		return nil, status.ErrNotOpen
	}
	return s.mem.Triples(pat, contextID)
}

func (s *Store) TriplesChoices(pat rdf.ChoicePattern, contextID string) ([]store.CtxTriple, error) {
	if !s.open {
		return nil, status.ErrNotOpen
	}
	return s.mem.TriplesChoices(pat, contextID)
}

func (s *Store) Contexts(triple *rdf.Triple) ([]string, error) {
	if !s.open {
		return nil, status.ErrNotOpen
	}
	return s.mem.Contexts(triple)
}

func (s *Store) Len(contextID string) (int, error) {
	if !s.open {
		return 0, status.ErrNotOpen
	}
	return s.mem.Len(contextID)
}

// Add fails: installed bundles are immutable
func (s *Store) Add(rdf.Triple, string) error {
	return status.ErrReadOnly
}

// AddQuads fails: installed bundles are immutable
func (s *Store) AddQuads([]rdf.Quad) error {
	return status.ErrReadOnly
}

// Remove fails: installed bundles are immutable
func (s *Store) Remove(rdf.Pattern, string) error {
	return status.ErrReadOnly
}

// RemoveContext fails: installed bundles are immutable
func (s *Store) RemoveContext(string) error {
	return status.ErrReadOnly
}

func (s *Store) Commit() error   { return nil }
func (s *Store) Rollback() error { return nil }

func (s *Store) Prefix(namespace string) (string, error) {
	if !s.open {
		return "", status.ErrNotOpen
	}
	return s.mem.Prefix(namespace)
}

func (s *Store) Namespace(prefix string) (string, error) {
	if !s.open {
		return "", status.ErrNotOpen
	}
	return s.mem.Namespace(prefix)
}

func (s *Store) Namespaces() ([]store.Binding, error) {
	if !s.open {
		return nil, status.ErrNotOpen
	}
	return s.mem.Namespaces()
}

// Bind fails: installed bundles are immutable
func (s *Store) Bind(string, string) error {
	return status.ErrReadOnly
}
