package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tramo-dev/tramo-go/internal/geometry"
	"github.com/tramo-dev/tramo-go/internal/graph"
)

func TestAStar(t *testing.T) {
	t.Parallel()

	t.Run("DirectIntraA", func(t *testing.T) {
		t.Parallel()
		store := loadTestGraph(t, crossSystemGraph)
		adj := BuildAdjacency(store, Permitted(CableA))

		path, explored, ok := AStar(adj, "(0.000, 0.000, 0.000)", "(2.000, 0.000, 0.000)", nil, nil)

		require.True(t, ok)
		assert.Equal(t, []string{
			"(0.000, 0.000, 0.000)",
			"(1.000, 0.000, 0.000)",
			"(2.000, 0.000, 0.000)",
		}, path)
		assert.Equal(t, 2, explored)
	})

	t.Run("SourceEqualsDestination", func(t *testing.T) {
		t.Parallel()
		store := loadTestGraph(t, crossSystemGraph)
		adj := BuildAdjacency(store, Permitted(CableA))

		path, explored, ok := AStar(adj, "(0.000, 0.000, 0.000)", "(0.000, 0.000, 0.000)", nil, nil)

		require.True(t, ok)
		assert.Equal(t, []string{"(0.000, 0.000, 0.000)"}, path)
		assert.Zero(t, explored)
	})

	t.Run("NoPathAcrossFilteredBoundary", func(t *testing.T) {
		t.Parallel()
		store := loadTestGraph(t, crossSystemGraph)
		adj := BuildAdjacency(store, Permitted(CableA))

		_, _, ok := AStar(adj, "(0.000, 0.000, 0.000)", "(3.000, 0.000, 0.000)", nil, nil)
		assert.False(t, ok)
	})

	t.Run("CrossSystemViaCableC", func(t *testing.T) {
		t.Parallel()
		store := loadTestGraph(t, crossSystemGraph)
		adj := BuildAdjacency(store, Permitted(CableC))

		path, _, ok := AStar(adj, "(0.000, 0.000, 0.000)", "(3.000, 0.000, 0.000)", nil, nil)

		require.True(t, ok)
		assert.Len(t, path, 4)
	})

	t.Run("ForbiddenEdgeForcesDetour", func(t *testing.T) {
		t.Parallel()
		store := loadTestGraph(t, gridGraph)
		adj := BuildAdjacency(store, Permitted(CableA))
		tramos := graph.GenerateTramoMap(store)

		src := "(0.000, 0.000, 0.000)"
		dst := "(1.000, 0.000, 0.000)"
		id, ok := tramos.IDForEdge(src, dst)
		require.True(t, ok)
		forbidden := map[int]struct{}{id: {}}

		path, _, found := AStar(adj, src, dst, forbidden, tramos)

		require.True(t, found)
		// Direct edge forbidden: must go around, e.g. via (0,1) and (1,1).
		assert.Len(t, path, 4)
		assert.Equal(t, src, path[0])
		assert.Equal(t, dst, path[len(path)-1])
	})

	t.Run("AllIncidentEdgesForbidden", func(t *testing.T) {
		t.Parallel()
		store := loadTestGraph(t, crossSystemGraph)
		adj := BuildAdjacency(store, Permitted(CableA))
		tramos := graph.GenerateTramoMap(store)

		src := "(0.000, 0.000, 0.000)"
		id, ok := tramos.IDForEdge(src, "(1.000, 0.000, 0.000)")
		require.True(t, ok)

		_, _, found := AStar(adj, src, "(2.000, 0.000, 0.000)", map[int]struct{}{id: {}}, tramos)
		assert.False(t, found)
	})

	t.Run("DoesNotMutateForbidden", func(t *testing.T) {
		t.Parallel()
		store := loadTestGraph(t, gridGraph)
		adj := BuildAdjacency(store, Permitted(CableA))
		tramos := graph.GenerateTramoMap(store)

		forbidden := map[int]struct{}{1: {}, 2: {}}
		AStar(adj, "(0.000, 0.000, 0.000)", "(2.000, 2.000, 0.000)", forbidden, tramos)

		assert.Equal(t, map[int]struct{}{1: {}, 2: {}}, forbidden)
	})
}

// A* optimality: the returned path length equals a reference Dijkstra over
// the same adjacency minus forbidden edges, for every vertex pair.
func TestAStarMatchesDijkstra(t *testing.T) {
	t.Parallel()

	store := loadTestGraph(t, gridGraph)
	adj := BuildAdjacency(store, Permitted(CableA))
	tramos := graph.GenerateTramoMap(store)
	forbidden := map[int]struct{}{3: {}, 7: {}}

	var keys []string
	for _, e := range store.Edges() {
		keys = append(keys, e.From.Key, e.To.Key)
	}

	for _, src := range keys {
		for _, dst := range keys {
			path, _, ok := AStar(adj, src, dst, forbidden, tramos)
			refLength, refOK := dijkstraLength(adj, src, dst, forbidden, tramos)

			require.Equal(t, refOK, ok, "%s -> %s reachability mismatch", src, dst)
			if !ok {
				continue
			}

			var pts []geometry.Point
			for _, k := range path {
				pts = append(pts, geometry.MustParse(k))
			}
			assert.InDelta(t, refLength, geometry.PathLength(pts), 1e-9, "%s -> %s", src, dst)
		}
	}
}

// Determinism: identical inputs give identical paths and explored counts,
// even with multiple equal-length shortest paths in the graph.
func TestAStarDeterminism(t *testing.T) {
	t.Parallel()

	store := loadTestGraph(t, gridGraph)
	adj := BuildAdjacency(store, Permitted(CableA))

	src, dst := "(0.000, 0.000, 0.000)", "(2.000, 2.000, 0.000)"

	firstPath, firstExplored, ok := AStar(adj, src, dst, nil, nil)
	require.True(t, ok)

	for i := 0; i < 10; i++ {
		path, explored, ok := AStar(adj, src, dst, nil, nil)
		require.True(t, ok)
		assert.Equal(t, firstPath, path)
		assert.Equal(t, firstExplored, explored)
	}
}
