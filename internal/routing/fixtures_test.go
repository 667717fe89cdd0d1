package routing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tramo-dev/tramo-go/internal/graph"
)

// crossSystemGraph is the scenario graph of the direct/cross-system cases:
// a line 0-1-2 in system A extended by 2-3 in system B.
const crossSystemGraph = `{
  "nodes": {
    "(0.000, 0.000, 0.000)": {"sys": "A"},
    "(1.000, 0.000, 0.000)": {"sys": "A"},
    "(2.000, 0.000, 0.000)": {"sys": "A"},
    "(3.000, 0.000, 0.000)": {"sys": "B"}
  },
  "edges": [
    {"from": "(0.000, 0.000, 0.000)", "to": "(1.000, 0.000, 0.000)", "sys": "A"},
    {"from": "(1.000, 0.000, 0.000)", "to": "(2.000, 0.000, 0.000)", "sys": "A"},
    {"from": "(2.000, 0.000, 0.000)", "to": "(3.000, 0.000, 0.000)", "sys": "B"}
  ]
}`

// gridGraph is a 3x3 unit grid in system A with six equal-length shortest
// paths between opposite corners, for tie-break determinism cases.
const gridGraph = `{
  "nodes": {
    "(0.000, 0.000, 0.000)": {"sys": "A"},
    "(1.000, 0.000, 0.000)": {"sys": "A"},
    "(2.000, 0.000, 0.000)": {"sys": "A"},
    "(0.000, 1.000, 0.000)": {"sys": "A"},
    "(1.000, 1.000, 0.000)": {"sys": "A"},
    "(2.000, 1.000, 0.000)": {"sys": "A"},
    "(0.000, 2.000, 0.000)": {"sys": "A"},
    "(1.000, 2.000, 0.000)": {"sys": "A"},
    "(2.000, 2.000, 0.000)": {"sys": "A"}
  },
  "edges": [
    {"from": "(0.000, 0.000, 0.000)", "to": "(1.000, 0.000, 0.000)", "sys": "A"},
    {"from": "(1.000, 0.000, 0.000)", "to": "(2.000, 0.000, 0.000)", "sys": "A"},
    {"from": "(0.000, 1.000, 0.000)", "to": "(1.000, 1.000, 0.000)", "sys": "A"},
    {"from": "(1.000, 1.000, 0.000)", "to": "(2.000, 1.000, 0.000)", "sys": "A"},
    {"from": "(0.000, 2.000, 0.000)", "to": "(1.000, 2.000, 0.000)", "sys": "A"},
    {"from": "(1.000, 2.000, 0.000)", "to": "(2.000, 2.000, 0.000)", "sys": "A"},
    {"from": "(0.000, 0.000, 0.000)", "to": "(0.000, 1.000, 0.000)", "sys": "A"},
    {"from": "(0.000, 1.000, 0.000)", "to": "(0.000, 2.000, 0.000)", "sys": "A"},
    {"from": "(1.000, 0.000, 0.000)", "to": "(1.000, 1.000, 0.000)", "sys": "A"},
    {"from": "(1.000, 1.000, 0.000)", "to": "(1.000, 2.000, 0.000)", "sys": "A"},
    {"from": "(2.000, 0.000, 0.000)", "to": "(2.000, 1.000, 0.000)", "sys": "A"},
    {"from": "(2.000, 1.000, 0.000)", "to": "(2.000, 2.000, 0.000)", "sys": "A"}
  ]
}`

func loadTestGraph(t *testing.T, doc string) *graph.Store {
	t.Helper()
	store, err := graph.Load([]byte(doc))
	require.NoError(t, err)
	return store
}

// dijkstraLength is the reference implementation used to cross-check A*
// optimality: plain Dijkstra over the same adjacency minus forbidden edges.
func dijkstraLength(adj *Adjacency, src, dst string, forbidden map[int]struct{}, tramos *graph.TramoMap) (float64, bool) {
	if src == dst {
		return 0, true
	}

	dist := map[string]float64{src: 0}
	done := make(map[string]bool)

	for {
		best := ""
		bestDist := 0.0
		for key, d := range dist {
			if done[key] {
				continue
			}
			if best == "" || d < bestDist {
				best, bestDist = key, d
			}
		}
		if best == "" {
			return 0, false
		}
		if best == dst {
			return bestDist, true
		}
		done[best] = true

		for _, nbr := range adj.Neighbours(best) {
			if tramos != nil {
				if id, ok := tramos.IDForEdge(best, nbr.Key); ok {
					if _, bad := forbidden[id]; bad {
						continue
					}
				}
			}
			next := bestDist + nbr.Weight
			if d, seen := dist[nbr.Key]; !seen || next < d {
				dist[nbr.Key] = next
			}
		}
	}
}
