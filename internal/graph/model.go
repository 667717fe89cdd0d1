// Package graph provides the tagged spatial graph model for tramo-go.
//
// It defines the vertex and edge types of the dual-system routing network,
// the immutable in-memory store built from tagged graph files, and the
// bidirectional tramo-id table that names edges for the forbidden set.
package graph

import (
	"fmt"

	"github.com/tramo-dev/tramo-go/internal/geometry"
)

// System identifies which subsystem of the infrastructure a vertex or edge
// belongs to. The set is closed: A and B.
type System string

const (
	SystemA System = "A"
	SystemB System = "B"
)

// ValidSystem reports whether s is one of the known subsystem tags.
func ValidSystem(s System) bool {
	return s == SystemA || s == SystemB
}

// Vertex is a graph vertex: a canonical point plus its subsystem tag.
type Vertex struct {
	Point geometry.Point
	Sys   System
}

// Edge is an undirected edge between two vertices, tagged with a subsystem.
// Weight is the Euclidean distance between the endpoints, computed from the
// canonical numeric values.
type Edge struct {
	From   geometry.Point
	To     geometry.Point
	Sys    System
	Weight float64
}

// Key returns the unordered identity of the edge: the two canonical point
// keys in lexicographic order, joined by "-". Key(u,v) == Key(v,u).
func (e *Edge) Key() string {
	return EdgeKey(e.From.Key, e.To.Key)
}

// EdgeKey builds the unordered edge key for two canonical point keys.
func EdgeKey(u, v string) string {
	if u <= v {
		return u + "-" + v
	}
	return v + "-" + u
}

// GraphMalformedError reports a tagged graph document that violates the
// format's semantic constraints, naming the offending element.
type GraphMalformedError struct {
	Element string
	Reason  string
}

func (e *GraphMalformedError) Error() string {
	return fmt.Sprintf("malformed graph: %s: %s", e.Element, e.Reason)
}

// MappingMalformedError reports a tramo-id map document with an invalid
// entry.
type MappingMalformedError struct {
	Entry  string
	Reason string
}

func (e *MappingMalformedError) Error() string {
	return fmt.Sprintf("malformed tramo map: %s: %s", e.Entry, e.Reason)
}

// UnknownVertexError reports a lookup for a vertex key not present in the
// store.
type UnknownVertexError struct {
	Key string
}

func (e *UnknownVertexError) Error() string {
	return fmt.Sprintf("unknown vertex: %s", e.Key)
}

// UnknownEdgeError reports a lookup for an edge not present in the store.
// It is internal bookkeeping and is never surfaced to the user.
type UnknownEdgeError struct {
	Key string
}

func (e *UnknownEdgeError) Error() string {
	return fmt.Sprintf("unknown edge: %s", e.Key)
}
