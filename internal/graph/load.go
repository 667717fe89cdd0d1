package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/tramo-dev/tramo-go/internal/geometry"
)

// graphSchema describes the tagged graph document of §6.1-style files:
// a "nodes" object keyed by point keys and an "edges" array. Additional
// fields on node and edge objects are permitted and ignored.
var graphSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"nodes", "edges"},
	Properties: map[string]*jsonschema.Schema{
		"nodes": {
			Type: "object",
			AdditionalProperties: &jsonschema.Schema{
				Type:     "object",
				Required: []string{"sys"},
				Properties: map[string]*jsonschema.Schema{
					"sys": {Type: "string", Enum: []any{"A", "B"}},
				},
			},
		},
		"edges": {
			Type: "array",
			Items: &jsonschema.Schema{
				Type:     "object",
				Required: []string{"from", "to", "sys"},
				Properties: map[string]*jsonschema.Schema{
					"from": {Type: "string"},
					"to":   {Type: "string"},
					"sys":  {Type: "string", Enum: []any{"A", "B"}},
				},
			},
		},
	},
}

type graphDoc struct {
	Nodes map[string]nodeDoc `json:"nodes"`
	Edges []edgeDoc          `json:"edges"`
}

type nodeDoc struct {
	Sys string `json:"sys"`
}

type edgeDoc struct {
	From string `json:"from"`
	To   string `json:"to"`
	Sys  string `json:"sys"`
}

// LoadFile reads and validates a tagged graph file.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading graph file: %w", err)
	}

	store, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return store, nil
}

// Load builds a Store from the raw bytes of a tagged graph document.
//
// The document shape is checked against graphSchema first, then the semantic
// constraints are enforced: every key canonicalises, every edge endpoint is a
// known vertex, no self-loops, no duplicate unordered edges. Node keys with
// extra precision are canonicalised on ingest. An edge whose tag differs from
// either endpoint's tag is recorded as a warning rather than rejected.
func Load(data []byte) (*Store, error) {
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, &GraphMalformedError{Element: "document", Reason: "invalid JSON: " + err.Error()}
	}

	resolved, err := graphSchema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolving graph schema: %w", err)
	}
	if err := resolved.Validate(generic); err != nil {
		return nil, &GraphMalformedError{Element: "document", Reason: err.Error()}
	}

	var doc graphDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &GraphMalformedError{Element: "document", Reason: err.Error()}
	}

	store := &Store{
		vertices: make(map[string]*Vertex, len(doc.Nodes)),
		byKey:    make(map[string]*Edge, len(doc.Edges)),
		incident: make(map[string][]*Edge),
	}

	for rawKey, node := range doc.Nodes {
		pt, err := parsePointKey(rawKey)
		if err != nil {
			return nil, &GraphMalformedError{Element: "node " + rawKey, Reason: "key does not parse as a point"}
		}
		sys := System(node.Sys)
		if !ValidSystem(sys) {
			return nil, &GraphMalformedError{Element: "node " + rawKey, Reason: "sys must be A or B"}
		}
		if prev, ok := store.vertices[pt.Key]; ok && prev.Sys != sys {
			return nil, &GraphMalformedError{Element: "node " + rawKey, Reason: "canonicalises onto " + pt.Key + " with a different tag"}
		}
		store.vertices[pt.Key] = &Vertex{Point: pt, Sys: sys}
	}

	for i, e := range doc.Edges {
		element := fmt.Sprintf("edge[%d]", i)

		from, err := parsePointKey(e.From)
		if err != nil {
			return nil, &GraphMalformedError{Element: element, Reason: "from does not parse as a point"}
		}
		to, err := parsePointKey(e.To)
		if err != nil {
			return nil, &GraphMalformedError{Element: element, Reason: "to does not parse as a point"}
		}

		fromV, ok := store.vertices[from.Key]
		if !ok {
			return nil, &GraphMalformedError{Element: element, Reason: "from vertex " + from.Key + " is not in nodes"}
		}
		toV, ok := store.vertices[to.Key]
		if !ok {
			return nil, &GraphMalformedError{Element: element, Reason: "to vertex " + to.Key + " is not in nodes"}
		}

		if from.Key == to.Key {
			return nil, &GraphMalformedError{Element: element, Reason: "self-loop at " + from.Key}
		}

		sys := System(e.Sys)
		if !ValidSystem(sys) {
			return nil, &GraphMalformedError{Element: element, Reason: "sys must be A or B"}
		}

		key := EdgeKey(from.Key, to.Key)
		if _, ok := store.byKey[key]; ok {
			return nil, &GraphMalformedError{Element: element, Reason: "duplicate edge " + key}
		}

		if fromV.Sys != sys || toV.Sys != sys {
			store.warnings = append(store.warnings,
				fmt.Sprintf("edge %s tagged %s connects vertices tagged %s/%s", key, sys, fromV.Sys, toV.Sys))
		}

		edge := &Edge{
			From:   fromV.Point,
			To:     toV.Point,
			Sys:    sys,
			Weight: geometry.Distance(fromV.Point, toV.Point),
		}
		store.edges = append(store.edges, edge)
		store.byKey[key] = edge
		store.incident[from.Key] = append(store.incident[from.Key], edge)
		store.incident[to.Key] = append(store.incident[to.Key], edge)
	}

	// Deterministic edge order regardless of document order.
	sort.Slice(store.edges, func(i, j int) bool {
		return store.edges[i].Key() < store.edges[j].Key()
	})

	return store, nil
}

// parsePointKey accepts a canonical key directly, or a looser "(x, y, z)"
// form with arbitrary precision which is canonicalised on ingest.
func parsePointKey(key string) (geometry.Point, error) {
	if geometry.IsCanonicalKey(key) {
		return geometry.Parse(key)
	}

	trimmed := strings.TrimSpace(key)
	if !strings.HasPrefix(trimmed, "(") || !strings.HasSuffix(trimmed, ")") {
		return geometry.Point{}, &geometry.BadCoordinateError{Input: key, Reason: "not a point key"}
	}

	parts := strings.Split(trimmed[1:len(trimmed)-1], ",")
	if len(parts) != 3 {
		return geometry.Point{}, &geometry.BadCoordinateError{Input: key, Reason: "expected 3 components"}
	}

	var vals [3]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return geometry.Point{}, &geometry.BadCoordinateError{Input: key, Reason: "component is not a number"}
		}
		vals[i] = v
	}

	return geometry.New(vals[0], vals[1], vals[2])
}
