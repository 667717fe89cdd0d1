package routing

import (
	"github.com/tramo-dev/tramo-go/internal/geometry"
	"github.com/tramo-dev/tramo-go/internal/graph"
)

// Neighbour is one surviving edge seen from a vertex of the filtered view.
type Neighbour struct {
	Key    string
	Weight float64
}

// Adjacency is the access-restricted view of a Store under a permitted-tag
// set. It keeps the neighbour lists and the point of every referenced
// vertex, so the search never re-parses keys.
//
// An Adjacency is built per top-level call and discarded afterwards; it is
// never mutated by the search.
type Adjacency struct {
	neighbours map[string][]Neighbour
	points     map[string]geometry.Point
}

// BuildAdjacency derives the filtered view. An edge survives iff its own tag
// is permitted and both endpoint tags are permitted; every surviving edge is
// inserted in both directions.
func BuildAdjacency(store *graph.Store, permitted map[graph.System]bool) *Adjacency {
	adj := &Adjacency{
		neighbours: make(map[string][]Neighbour),
		points:     make(map[string]geometry.Point),
	}

	for _, e := range store.Edges() {
		if !permitted[e.Sys] {
			continue
		}
		fromTag, err := store.VertexTag(e.From.Key)
		if err != nil || !permitted[fromTag] {
			continue
		}
		toTag, err := store.VertexTag(e.To.Key)
		if err != nil || !permitted[toTag] {
			continue
		}

		adj.neighbours[e.From.Key] = append(adj.neighbours[e.From.Key], Neighbour{Key: e.To.Key, Weight: e.Weight})
		adj.neighbours[e.To.Key] = append(adj.neighbours[e.To.Key], Neighbour{Key: e.From.Key, Weight: e.Weight})
		adj.points[e.From.Key] = e.From
		adj.points[e.To.Key] = e.To
	}

	return adj
}

// Neighbours returns the filtered neighbour list of a vertex. Keys never
// referenced by a surviving edge yield an empty list.
func (a *Adjacency) Neighbours(key string) []Neighbour {
	return a.neighbours[key]
}

// Point returns the canonical point of a vertex referenced by the view.
func (a *Adjacency) Point(key string) (geometry.Point, bool) {
	p, ok := a.points[key]
	return p, ok
}

// VertexCount returns the number of vertices touched by a surviving edge.
func (a *Adjacency) VertexCount() int {
	return len(a.neighbours)
}

// EdgeCount returns the number of surviving undirected edges.
func (a *Adjacency) EdgeCount() int {
	total := 0
	for _, nbrs := range a.neighbours {
		total += len(nbrs)
	}
	return total / 2
}
