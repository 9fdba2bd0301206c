package spindle

import mapset "github.com/deckarep/golang-set/v2"

// depGraph maps a source key to the computed keys that read it during
// their most recent evaluation. Edge lists are insertion ordered and
// duplicate free. Edges are additive only: a dependent that stops reading
// a source keeps its edge and keeps getting invalidated.
type depGraph struct {
	edges map[string]*edgeList
}

type edgeList struct {
	ordered []string
	seen    mapset.Set[string]
}

func newDepGraph() *depGraph {
	return &depGraph{edges: map[string]*edgeList{}}
}

// record adds the edge source -> dependent unless it already exists.
func (g *depGraph) record(source, dependent string) {
	el := g.edges[source]
	if el == nil {
		el = &edgeList{seen: mapset.NewThreadUnsafeSet[string]()}
		g.edges[source] = el
	}
	if !el.seen.Add(dependent) {
		return
	}
	el.ordered = append(el.ordered, dependent)
}

// dependents returns source's dependents in insertion order. The returned
// slice is the live list; callers must not mutate it.
func (g *depGraph) dependents(source string) []string {
	el := g.edges[source]
	if el == nil {
		return nil
	}
	return el.ordered
}
