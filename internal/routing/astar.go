package routing

import (
	"container/heap"

	"github.com/tramo-dev/tramo-go/internal/geometry"
	"github.com/tramo-dev/tramo-go/internal/graph"
)

// searchItem is one open-set entry. seq is a monotonically increasing
// insertion counter: ties on f are broken by smaller g, then FIFO, which
// makes explored counts reproducible run to run.
type searchItem struct {
	key  string
	f, g float64
	seq  int
}

type openSet []searchItem

func (o openSet) Len() int { return len(o) }

func (o openSet) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	if o[i].g != o[j].g {
		return o[i].g < o[j].g
	}
	return o[i].seq < o[j].seq
}

func (o openSet) Swap(i, j int) { o[i], o[j] = o[j], o[i] }

func (o *openSet) Push(x any) { *o = append(*o, x.(searchItem)) }

func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	item := old[n-1]
	*o = old[:n-1]
	return item
}

// AStar runs a constrained A* search over the filtered adjacency.
//
// The heuristic is the Euclidean distance to dst, which is consistent for
// Euclidean edge weights, so a vertex is final the first time it is popped
// and no re-opening is needed. Edges whose tramo id is in forbidden are
// never traversed; when tramos is nil the forbidden set is ignored.
//
// Returns the path of canonical keys from src to dst and the number of
// vertices popped and expanded. Neither adj nor forbidden is mutated.
func AStar(adj *Adjacency, src, dst string, forbidden map[int]struct{}, tramos *graph.TramoMap) ([]string, int, bool) {
	if src == dst {
		return []string{src}, 0, true
	}

	dstPoint, ok := pointOf(adj, dst)
	if !ok {
		// dst has no canonical point anywhere; it cannot be reached.
		return nil, 0, false
	}

	gScore := map[string]float64{src: 0}
	cameFrom := make(map[string]string)
	closed := make(map[string]bool)

	open := &openSet{}
	heap.Init(open)
	seq := 0
	srcPoint, _ := pointOf(adj, src)
	heap.Push(open, searchItem{key: src, f: geometry.Distance(srcPoint, dstPoint), g: 0, seq: seq})

	explored := 0
	for open.Len() > 0 {
		current := heap.Pop(open).(searchItem)
		if closed[current.key] {
			continue
		}
		if current.key == dst {
			return reconstructPath(cameFrom, src, dst), explored, true
		}
		closed[current.key] = true
		explored++

		currentPoint, _ := pointOf(adj, current.key)
		for _, nbr := range adj.Neighbours(current.key) {
			if closed[nbr.Key] {
				continue
			}
			if tramos != nil && len(forbidden) > 0 {
				if id, ok := tramos.IDForEdge(current.key, nbr.Key); ok {
					if _, bad := forbidden[id]; bad {
						continue
					}
				}
			}

			tentative := gScore[current.key] + nbr.Weight
			if best, seen := gScore[nbr.Key]; seen && tentative >= best {
				continue
			}
			gScore[nbr.Key] = tentative
			cameFrom[nbr.Key] = current.key

			nbrPoint, ok := adj.Point(nbr.Key)
			if !ok {
				nbrPoint = currentPoint
			}
			seq++
			heap.Push(open, searchItem{
				key: nbr.Key,
				f:   tentative + geometry.Distance(nbrPoint, dstPoint),
				g:   tentative,
				seq: seq,
			})
		}
	}

	return nil, explored, false
}

// reconstructPath walks the parent map back from dst and reverses in place.
func reconstructPath(cameFrom map[string]string, src, dst string) []string {
	path := []string{dst}
	for current := dst; current != src; {
		current = cameFrom[current]
		path = append(path, current)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// pointOf resolves a vertex key to its point, falling back to parsing the
// canonical key when the vertex is not referenced by any surviving edge.
func pointOf(adj *Adjacency, key string) (geometry.Point, bool) {
	if p, ok := adj.Point(key); ok {
		return p, true
	}
	p, err := geometry.Parse(key)
	if err != nil {
		return geometry.Point{}, false
	}
	return p, true
}
