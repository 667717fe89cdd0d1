package graph

import "sort"

// Store is the immutable in-memory tagged graph.
//
// Vertices are keyed by their canonical point key; edges are indexed both as
// a flat list and by unordered edge key, with a per-vertex incidence index so
// neighbour queries are O(degree) rather than O(edges).
//
// A Store is read-only after construction and safe for concurrent readers.
type Store struct {
	vertices map[string]*Vertex
	edges    []*Edge
	byKey    map[string]*Edge
	incident map[string][]*Edge

	// warnings collects non-fatal inconsistencies found at load time, such
	// as an edge whose tag differs from the tag of either endpoint.
	warnings []string
}

// RawNeighbour is one unfiltered incident edge seen from a vertex.
type RawNeighbour struct {
	Key    string
	Sys    System
	Weight float64
}

// HasVertex reports whether the canonical key is a vertex of the graph.
func (s *Store) HasVertex(key string) bool {
	_, ok := s.vertices[key]
	return ok
}

// Vertex returns the vertex for a canonical key, or nil.
func (s *Store) Vertex(key string) *Vertex {
	return s.vertices[key]
}

// VertexTag returns the subsystem tag of the vertex with the given key.
func (s *Store) VertexTag(key string) (System, error) {
	v, ok := s.vertices[key]
	if !ok {
		return "", &UnknownVertexError{Key: key}
	}
	return v.Sys, nil
}

// NeighboursRaw returns every edge incident to the vertex, unfiltered, as
// (neighbour key, edge tag, weight) entries. Unknown keys yield nil.
func (s *Store) NeighboursRaw(key string) []RawNeighbour {
	edges, ok := s.incident[key]
	if !ok {
		return nil
	}

	result := make([]RawNeighbour, 0, len(edges))
	for _, e := range edges {
		other := e.To.Key
		if other == key {
			other = e.From.Key
		}
		result = append(result, RawNeighbour{Key: other, Sys: e.Sys, Weight: e.Weight})
	}
	return result
}

// EdgeTag returns the subsystem tag of the edge {u, v}.
func (s *Store) EdgeTag(u, v string) (System, error) {
	e, ok := s.byKey[EdgeKey(u, v)]
	if !ok {
		return "", &UnknownEdgeError{Key: EdgeKey(u, v)}
	}
	return e.Sys, nil
}

// Edge returns the edge {u, v}, or nil if no such edge exists.
func (s *Store) Edge(u, v string) *Edge {
	return s.byKey[EdgeKey(u, v)]
}

// Edges returns the edge list. Callers must not mutate it.
func (s *Store) Edges() []*Edge {
	return s.edges
}

// VertexCount returns the number of vertices.
func (s *Store) VertexCount() int {
	return len(s.vertices)
}

// EdgeCount returns the number of edges.
func (s *Store) EdgeCount() int {
	return len(s.edges)
}

// CountBySystem returns per-subsystem vertex and edge counts.
func (s *Store) CountBySystem() (vertices, edges map[System]int) {
	vertices = make(map[System]int)
	edges = make(map[System]int)
	for _, v := range s.vertices {
		vertices[v.Sys]++
	}
	for _, e := range s.edges {
		edges[e.Sys]++
	}
	return vertices, edges
}

// VertexKeys returns every vertex key in sorted order.
func (s *Store) VertexKeys() []string {
	keys := make([]string, 0, len(s.vertices))
	for key := range s.vertices {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Warnings returns non-fatal inconsistencies recorded while loading.
func (s *Store) Warnings() []string {
	return s.warnings
}
