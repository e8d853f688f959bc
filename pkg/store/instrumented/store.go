// Package instrumented decorates a store with opentracing spans, one per
// query or mutation. The decorator is transparent: every call forwards to
// the wrapped store unchanged.
package instrumented

import (
	opentracing "github.com/opentracing/opentracing-go"

	"github.com/graphknit/graphknit/pkg/rdf"
	"github.com/graphknit/graphknit/pkg/store"
)

// New creates an instrumented store
func New(name string, tr opentracing.Tracer, w store.Store, options ...opentracing.StartSpanOption) store.Store {
	return &instrumentedStore{
		tr:      tr,
		w:       w,
		name:    name,
		options: options,
	}
}

type instrumentedStore struct {
	tr      opentracing.Tracer
	w       store.Store
	name    string
	options []opentracing.StartSpanOption
}

func (i *instrumentedStore) traced(operation string, fn func()) {
	sp := i.tr.StartSpan(i.name+" "+operation, i.options...)
	defer sp.Finish()
	fn()
}

func (i *instrumentedStore) Open(cfg store.Config) error { return i.w.Open(cfg) }
func (i *instrumentedStore) Close() error                { return i.w.Close() }

func (i *instrumentedStore) ContextAware() bool         { return i.w.ContextAware() }
func (i *instrumentedStore) SupportsRangeQueries() bool { return i.w.SupportsRangeQueries() }

func (i *instrumentedStore) Triples(pat rdf.Pattern, contextID string) (result []store.CtxTriple, err error) {
	i.traced("triples", func() { result, err = i.w.Triples(pat, contextID) })
	return
}

func (i *instrumentedStore) TriplesChoices(pat rdf.ChoicePattern, contextID string) (result []store.CtxTriple, err error) {
	i.traced("triples choices", func() { result, err = i.w.TriplesChoices(pat, contextID) })
	return
}

func (i *instrumentedStore) Contexts(triple *rdf.Triple) (result []string, err error) {
	i.traced("contexts", func() { result, err = i.w.Contexts(triple) })
	return
}

func (i *instrumentedStore) Len(contextID string) (result int, err error) {
	i.traced("len", func() { result, err = i.w.Len(contextID) })
	return
}

func (i *instrumentedStore) Add(t rdf.Triple, contextID string) (err error) {
	i.traced("add", func() { err = i.w.Add(t, contextID) })
	return
}

func (i *instrumentedStore) AddQuads(quads []rdf.Quad) (err error) {
	i.traced("add quads", func() { err = i.w.AddQuads(quads) })
	return
}

func (i *instrumentedStore) Remove(pat rdf.Pattern, contextID string) (err error) {
	i.traced("remove", func() { err = i.w.Remove(pat, contextID) })
	return
}

func (i *instrumentedStore) RemoveContext(contextID string) (err error) {
	i.traced("remove context", func() { err = i.w.RemoveContext(contextID) })
	return
}

func (i *instrumentedStore) Commit() (err error) {
	i.traced("commit", func() { err = i.w.Commit() })
	return
}

func (i *instrumentedStore) Rollback() (err error) {
	i.traced("rollback", func() { err = i.w.Rollback() })
	return
}

func (i *instrumentedStore) Prefix(namespace string) (string, error) {
	return i.w.Prefix(namespace)
}

func (i *instrumentedStore) Namespace(prefix string) (string, error) {
	return i.w.Namespace(prefix)
}

func (i *instrumentedStore) Namespaces() ([]store.Binding, error) {
	return i.w.Namespaces()
}

func (i *instrumentedStore) Bind(prefix, namespace string) error {
	return i.w.Bind(prefix, namespace)
}
