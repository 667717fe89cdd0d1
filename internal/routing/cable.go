// Package routing implements the cable access policy, the filtered
// adjacency view, the constrained A* engine and the multi-waypoint segment
// planner of tramo-go.
package routing

import (
	"fmt"
	"sort"

	"github.com/tramo-dev/tramo-go/internal/graph"
)

// Cable is the cable class selecting which subsystems a route may enter.
type Cable string

const (
	CableA Cable = "A"
	CableB Cable = "B"
	CableC Cable = "C"
)

// allowed is the fixed cable → permitted-subsystem policy. Not configurable.
var allowed = map[Cable]map[graph.System]bool{
	CableA: {graph.SystemA: true},
	CableB: {graph.SystemB: true},
	CableC: {graph.SystemA: true, graph.SystemB: true},
}

// ParseCable validates a cable class selector.
func ParseCable(s string) (Cable, error) {
	c := Cable(s)
	if _, ok := allowed[c]; !ok {
		return "", fmt.Errorf("unknown cable class %q (want A, B or C)", s)
	}
	return c, nil
}

// Permitted returns the subsystem tags the cable may traverse.
func Permitted(c Cable) map[graph.System]bool {
	perms := make(map[graph.System]bool, len(allowed[c]))
	for sys := range allowed[c] {
		perms[sys] = true
	}
	return perms
}

// PermittedList returns the permitted tags in sorted order, for messages.
func PermittedList(c Cable) []string {
	var tags []string
	for sys := range allowed[c] {
		tags = append(tags, string(sys))
	}
	sort.Strings(tags)
	return tags
}

// CompatibleCables returns every cable class whose permitted set contains the
// tag, in sorted order.
func CompatibleCables(tag graph.System) []Cable {
	var cables []Cable
	for _, c := range []Cable{CableA, CableB, CableC} {
		if allowed[c][tag] {
			cables = append(cables, c)
		}
	}
	return cables
}

// CablesSpanning returns every cable class whose permitted set contains all
// of the given tags.
func CablesSpanning(tags ...graph.System) []Cable {
	var cables []Cable
	for _, c := range []Cable{CableA, CableB, CableC} {
		ok := true
		for _, tag := range tags {
			if !allowed[c][tag] {
				ok = false
				break
			}
		}
		if ok {
			cables = append(cables, c)
		}
	}
	return cables
}

// ValidateEndpoint checks that the vertex exists and its tag is permitted.
// which names the endpoint role in errors ("source", "destination",
// "waypoint 2", ...).
func ValidateEndpoint(store *graph.Store, key, which string, permitted map[graph.System]bool) error {
	tag, err := store.VertexTag(key)
	if err != nil {
		return &EndpointNotInGraphError{Which: which, Key: key}
	}
	if !permitted[tag] {
		return &EndpointInForbiddenSystemError{Which: which, Key: key, ActualTag: tag, Permitted: permitted}
	}
	return nil
}
