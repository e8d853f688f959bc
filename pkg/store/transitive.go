package store

import (
	"github.com/graphknit/graphknit/pkg/rdf"
)

// TransitiveClosure walks a predicate relation recorded in one context of
// the store and returns every identifier reachable from the start, start
// included. The relation graph may contain cycles.
func TransitiveClosure(s Store, start string, predicate rdf.IRI, contextID string) (map[string]struct{}, error) {
	closure := map[string]struct{}{start: {}}
	frontier := []string{start}
	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]
		results, err := s.Triples(rdf.Pattern{
			Subject:   rdf.IRI(next),
			Predicate: predicate,
		}, contextID)
		if err != nil {
			return nil, err
		}
		for _, ct := range results {
			target, ok := ct.Triple.Object.(rdf.IRI)
			if !ok {
				continue
			}
			if _, seen := closure[string(target)]; seen {
				continue
			}
			closure[string(target)] = struct{}{}
			frontier = append(frontier, string(target))
		}
	}
	return closure, nil
}
