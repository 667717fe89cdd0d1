package routing

import (
	"fmt"

	"github.com/tramo-dev/tramo-go/internal/geometry"
	"github.com/tramo-dev/tramo-go/internal/graph"
)

// Segment records the outcome of one A* call inside a route.
type Segment struct {
	Index    int
	From     string
	To       string
	Points   int
	Explored int
}

// Route is the assembled result of a multi-waypoint plan.
type Route struct {
	Keys     []string
	Points   []geometry.Point
	Segments []Segment
	Explored int
	Length   float64
	Warnings []string
}

// Planner sequences constrained A* calls across an ordered waypoint list.
//
// The forbidden set is owned by the caller; the planner borrows it for the
// duration of one Route call and guarantees it is set-equal on return, on
// every exit path. Forward-path mode temporarily adds the tramo id of the
// previous segment's last edge while searching the next segment.
type Planner struct {
	adj       *Adjacency
	tramos    *graph.TramoMap
	forbidden map[int]struct{}
}

// NewPlanner creates a planner over a filtered adjacency. tramos may be nil
// when no tramo map is loaded; forbidden may be nil for an empty set.
func NewPlanner(adj *Adjacency, tramos *graph.TramoMap, forbidden map[int]struct{}) *Planner {
	if forbidden == nil {
		forbidden = make(map[int]struct{})
	}
	return &Planner{adj: adj, tramos: tramos, forbidden: forbidden}
}

// Route plans across the waypoint sequence w0..wm (source first, destination
// last). With forwardPath set, each segment after the first is searched with
// the previous segment's final edge forbidden, so the route cannot U-turn at
// a waypoint.
func (p *Planner) Route(waypoints []string, forwardPath bool) (*Route, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("need at least source and destination, got %d waypoints", len(waypoints))
	}

	route := &Route{}
	var lastEdge *graph.EdgeEndpoints

	for i := 1; i < len(waypoints); i++ {
		from, to := waypoints[i-1], waypoints[i]

		var forbidID int
		forbid := false
		if forwardPath && i >= 2 && lastEdge != nil {
			id, ok := p.tramoID(lastEdge.U, lastEdge.V)
			if ok {
				forbidID, forbid = id, true
			} else {
				route.Warnings = append(route.Warnings,
					fmt.Sprintf("segment %d: last edge %s has no tramo id; forward-path cannot forbid it", i-1,
						graph.EdgeKey(lastEdge.U, lastEdge.V)))
			}
		}

		path, explored, ok := p.searchSegment(from, to, forbidID, forbid)
		if !ok {
			return nil, &NoPathError{Segment: i, From: from, To: to}
		}

		route.Segments = append(route.Segments, Segment{
			Index:    i,
			From:     from,
			To:       to,
			Points:   len(path),
			Explored: explored,
		})
		route.Explored += explored

		// Waypoints appear exactly once at segment boundaries.
		if i == 1 {
			route.Keys = append(route.Keys, path...)
		} else {
			route.Keys = append(route.Keys, path[1:]...)
		}

		if len(path) >= 2 {
			lastEdge = &graph.EdgeEndpoints{U: path[len(path)-2], V: path[len(path)-1]}
		} else {
			// Zero-hop segment: nothing to forbid on the next boundary.
			lastEdge = nil
		}
	}

	for _, key := range route.Keys {
		pt, ok := pointOf(p.adj, key)
		if !ok {
			return nil, fmt.Errorf("path vertex %s has no canonical point", key)
		}
		route.Points = append(route.Points, pt)
	}
	route.Length = geometry.PathLength(route.Points)

	return route, nil
}

// searchSegment runs one A* call, optionally with one extra forbidden tramo
// id scoped to exactly this call. The deferred restore runs on success and
// failure alike, so the caller-owned set is never left mutated.
func (p *Planner) searchSegment(from, to string, forbidID int, forbid bool) ([]string, int, bool) {
	if forbid {
		if _, present := p.forbidden[forbidID]; !present {
			p.forbidden[forbidID] = struct{}{}
			defer delete(p.forbidden, forbidID)
		}
	}
	return AStar(p.adj, from, to, p.forbidden, p.tramos)
}

func (p *Planner) tramoID(u, v string) (int, bool) {
	if p.tramos == nil {
		return 0, false
	}
	return p.tramos.IDForEdge(u, v)
}

// Plan is the top-level routing call: it resolves the cable policy,
// validates every waypoint against it, builds the filtered adjacency and
// runs the segment planner.
//
// The forbidden set is borrowed from the caller and returned set-equal.
func Plan(store *graph.Store, tramos *graph.TramoMap, cable Cable, forbidden map[int]struct{},
	waypoints []geometry.Point, forwardPath bool) (*Route, error) {

	if len(waypoints) < 2 {
		return nil, fmt.Errorf("need at least source and destination, got %d waypoints", len(waypoints))
	}

	permitted := Permitted(cable)
	for i, wp := range waypoints {
		which := fmt.Sprintf("waypoint %d", i)
		switch i {
		case 0:
			which = "source"
		case len(waypoints) - 1:
			which = "destination"
		}
		if err := ValidateEndpoint(store, wp.Key, which, permitted); err != nil {
			return nil, err
		}
	}

	adj := BuildAdjacency(store, permitted)

	keys := make([]string, len(waypoints))
	for i, wp := range waypoints {
		keys[i] = wp.Key
	}

	return NewPlanner(adj, tramos, forbidden).Route(keys, forwardPath)
}
