package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// EdgeEndpoints are the two canonical point keys of an unordered edge, with
// U <= V lexicographically.
type EdgeEndpoints struct {
	U, V string
}

// TramoMap is the invertible table assigning a stable positive integer (the
// tramo id) to every unordered edge. It is loaded from a tramo-id map file
// or generated from a Store, and is read-only afterwards.
type TramoMap struct {
	byID  map[int]EdgeEndpoints
	byKey map[string]int
}

// LoadTramoMapFile reads and validates a tramo-id map file.
func LoadTramoMapFile(path string) (*TramoMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tramo map: %w", err)
	}

	tm, err := LoadTramoMap(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return tm, nil
}

// LoadTramoMap builds a TramoMap from the raw bytes of a tramo-id map
// document: a JSON object from "keyU-keyV" edge keys to unique positive
// integers. Keys whose halves are in the wrong lexicographic order are
// canonicalised by swapping; duplicates after canonicalisation are rejected.
func LoadTramoMap(data []byte) (*TramoMap, error) {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &MappingMalformedError{Entry: "document", Reason: "invalid JSON: " + err.Error()}
	}

	tm := &TramoMap{
		byID:  make(map[int]EdgeEndpoints, len(raw)),
		byKey: make(map[string]int, len(raw)),
	}

	for entry, id := range raw {
		u, v, err := splitEdgeKey(entry)
		if err != nil {
			return nil, &MappingMalformedError{Entry: entry, Reason: err.Error()}
		}
		if id <= 0 {
			return nil, &MappingMalformedError{Entry: entry, Reason: fmt.Sprintf("tramo id %d is not positive", id)}
		}

		key := EdgeKey(u, v)
		if _, ok := tm.byKey[key]; ok {
			return nil, &MappingMalformedError{Entry: entry, Reason: "duplicate edge " + key}
		}
		if prev, ok := tm.byID[id]; ok {
			return nil, &MappingMalformedError{
				Entry:  entry,
				Reason: fmt.Sprintf("tramo id %d already assigned to %s-%s", id, prev.U, prev.V),
			}
		}

		if u > v {
			u, v = v, u
		}
		tm.byKey[key] = id
		tm.byID[id] = EdgeEndpoints{U: u, V: v}
	}

	return tm, nil
}

// GenerateTramoMap assigns sequential ids starting at 1 over the store's
// edges in lexicographic edge-key order, so regeneration from the same graph
// is reproducible.
func GenerateTramoMap(store *Store) *TramoMap {
	keys := make([]string, 0, store.EdgeCount())
	for _, e := range store.Edges() {
		keys = append(keys, e.Key())
	}
	sort.Strings(keys)

	tm := &TramoMap{
		byID:  make(map[int]EdgeEndpoints, len(keys)),
		byKey: make(map[string]int, len(keys)),
	}
	for i, key := range keys {
		u, v, _ := splitEdgeKey(key)
		tm.byKey[key] = i + 1
		tm.byID[i+1] = EdgeEndpoints{U: u, V: v}
	}
	return tm
}

// IDForEdge returns the tramo id of the unordered edge {u, v}.
func (tm *TramoMap) IDForEdge(u, v string) (int, bool) {
	id, ok := tm.byKey[EdgeKey(u, v)]
	return id, ok
}

// EdgeForID returns the endpoints registered under a tramo id.
func (tm *TramoMap) EdgeForID(id int) (EdgeEndpoints, bool) {
	e, ok := tm.byID[id]
	return e, ok
}

// Len returns the number of registered edges.
func (tm *TramoMap) Len() int {
	return len(tm.byKey)
}

// MarshalJSON renders the map back into the file format, keys sorted.
func (tm *TramoMap) MarshalJSON() ([]byte, error) {
	out := make(map[string]int, len(tm.byKey))
	for key, id := range tm.byKey {
		out[key] = id
	}
	return json.MarshalIndent(out, "", "  ")
}

// LoadForbiddenFile reads a forbidden-sections file: a JSON array of tramo
// ids the search must not traverse.
func LoadForbiddenFile(path string) (map[int]struct{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading forbidden sections: %w", err)
	}

	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, &MappingMalformedError{Entry: path, Reason: "forbidden sections must be a JSON array of tramo ids"}
	}

	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// splitEdgeKey splits "keyU-keyV" at the ")-(" boundary. A plain split on
// "-" would break on negative coordinates.
func splitEdgeKey(key string) (string, string, error) {
	i := strings.Index(key, ")-(")
	if i < 0 {
		return "", "", fmt.Errorf("not an edge key")
	}

	u := key[:i+1]
	v := key[i+2:]
	if !strings.HasPrefix(u, "(") || !strings.HasSuffix(v, ")") {
		return "", "", fmt.Errorf("not an edge key")
	}
	return u, v, nil
}
