package report

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tramo-dev/tramo-go/internal/diagnose"
	"github.com/tramo-dev/tramo-go/internal/geometry"
	"github.com/tramo-dev/tramo-go/internal/graph"
	"github.com/tramo-dev/tramo-go/internal/routing"
)

func sampleRoute(t *testing.T) *routing.Route {
	t.Helper()
	keys := []string{
		"(0.000, 0.000, 0.000)",
		"(1.000, 0.000, 0.000)",
		"(2.000, 0.000, 0.000)",
	}
	route := &routing.Route{
		Keys:     keys,
		Explored: 2,
		Length:   2.0,
		Segments: []routing.Segment{
			{Index: 1, From: keys[0], To: keys[1], Points: 2, Explored: 1},
			{Index: 2, From: keys[1], To: keys[2], Points: 2, Explored: 1},
		},
	}
	for _, k := range keys {
		route.Points = append(route.Points, geometry.MustParse(k))
	}
	return route
}

func TestRoute(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Route(&buf, sampleRoute(t))

	out := buf.String()
	assert.Contains(t, out, "Route found")
	assert.Contains(t, out, "Points:          3")
	assert.Contains(t, out, "Length:          2.000")
	assert.Contains(t, out, "Nodes explored:  2")
	assert.Contains(t, out, "Segments:")
}

func TestPolyline(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Polyline(&buf, sampleRoute(t))

	assert.Contains(t, buf.String(), "1. (0.000, 0.000, 0.000)")
	assert.Contains(t, buf.String(), "3. (2.000, 0.000, 0.000)")
}

func TestFailure(t *testing.T) {
	t.Parallel()

	err := &routing.NoPathError{Segment: 2, From: "(1.000, 0.000, 0.000)", To: "(0.000, 0.000, 0.000)"}
	findings := &diagnose.Findings{
		Source:      geometry.MustParse("(1.000, 0.000, 0.000)"),
		Destination: geometry.MustParse("(0.000, 0.000, 0.000)"),
		Outcome:     diagnose.OutcomeBothFound,
	}

	var buf bytes.Buffer
	Failure(&buf, err, findings)

	out := buf.String()
	assert.Contains(t, out, "segment 2")
	assert.Contains(t, out, "Endpoint diagnosis")
}

func TestFindings(t *testing.T) {
	t.Parallel()

	f := &diagnose.Findings{
		Source:      geometry.MustParse("(0.000, 0.000, 0.000)"),
		Destination: geometry.MustParse("(3.000, 0.000, 0.000)"),
		Outcome:     diagnose.OutcomeBothFound,
		PerGraph: []diagnose.GraphFinding{
			{
				File: "g2.json",
				Src:  diagnose.Presence{Found: true, Tag: graph.SystemA},
				Dst:  diagnose.Presence{Found: true, Tag: graph.SystemB},
			},
			{File: "broken.json", LoadErr: "invalid JSON"},
		},
		RecommendedGraphs: []string{"g2.json"},
		RecommendedCables: []routing.Cable{routing.CableC},
		SuggestedCommand:  "tramo-go direct g2.json 0 0 0 3 0 0 --cable C",
	}

	var buf bytes.Buffer
	Findings(&buf, f)

	out := buf.String()
	assert.Contains(t, out, "source in system A, destination in system B")
	assert.Contains(t, out, "unreadable")
	assert.Contains(t, out, "Feasible cables: [C]")
	assert.Contains(t, out, "Try: tramo-go direct")
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, ExitOK, ExitCode(nil))

	assert.Equal(t, ExitBadInput, ExitCode(&graph.GraphMalformedError{Element: "x", Reason: "y"}))
	assert.Equal(t, ExitBadInput, ExitCode(fmt.Errorf("loading: %w", &graph.MappingMalformedError{Entry: "x", Reason: "y"})))
	assert.Equal(t, ExitRouteFail, ExitCode(&routing.NoPathError{Segment: 1}))
	assert.Equal(t, ExitRouteFail, ExitCode(&routing.EndpointNotInGraphError{Which: "source", Key: "k"}))
	assert.Equal(t, ExitRouteFail, ExitCode(fmt.Errorf("boom")))
}
