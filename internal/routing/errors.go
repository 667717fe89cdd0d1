package routing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tramo-dev/tramo-go/internal/graph"
)

// EndpointNotInGraphError reports a route endpoint whose canonical key is
// absent from the graph.
type EndpointNotInGraphError struct {
	Which string
	Key   string
}

func (e *EndpointNotInGraphError) Error() string {
	return fmt.Sprintf("%s %s is not in the graph", e.Which, e.Key)
}

// EndpointInForbiddenSystemError reports a route endpoint present in the
// graph but tagged with a subsystem the cable class may not enter.
type EndpointInForbiddenSystemError struct {
	Which     string
	Key       string
	ActualTag graph.System
	Permitted map[graph.System]bool
}

func (e *EndpointInForbiddenSystemError) Error() string {
	var perms []string
	for sys := range e.Permitted {
		perms = append(perms, string(sys))
	}
	sort.Strings(perms)
	return fmt.Sprintf("%s %s is in system %s, outside the permitted system(s) {%s}",
		e.Which, e.Key, e.ActualTag, strings.Join(perms, ", "))
}

// NoPathError reports an exhausted search on one segment of a route.
type NoPathError struct {
	Segment int
	From    string
	To      string
}

func (e *NoPathError) Error() string {
	return fmt.Sprintf("no path for segment %d: %s -> %s", e.Segment, e.From, e.To)
}
