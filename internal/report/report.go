// Package report renders routing results and failures for the CLI.
//
// Formatting only: all decisions about what happened live in the routing and
// diagnose packages; this package turns their structured results into text.
package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/tramo-dev/tramo-go/internal/diagnose"
	"github.com/tramo-dev/tramo-go/internal/graph"
	"github.com/tramo-dev/tramo-go/internal/routing"
)

// Exit codes distinguishing the failure classes the CLI can hit.
const (
	ExitOK        = 0
	ExitRouteFail = 1
	ExitBadArgs   = 2
	ExitBadInput  = 3
)

// Route prints a successful route: totals first, then the per-segment
// breakdown and any planner warnings.
func Route(w io.Writer, route *routing.Route) {
	color.New(color.FgGreen).Fprintln(w, "✓ Route found")
	fmt.Fprintf(w, "  Points:          %d\n", len(route.Keys))
	fmt.Fprintf(w, "  Length:          %.3f\n", route.Length)
	fmt.Fprintf(w, "  Nodes explored:  %d\n", route.Explored)

	if len(route.Segments) > 1 {
		fmt.Fprintln(w, "  Segments:")
		for _, seg := range route.Segments {
			fmt.Fprintf(w, "    %d. %s -> %s  (%d points, %d explored)\n",
				seg.Index, seg.From, seg.To, seg.Points, seg.Explored)
		}
	}

	for _, warn := range route.Warnings {
		color.New(color.FgYellow).Fprintf(w, "  warning: %s\n", warn)
	}
}

// Polyline prints the full vertex sequence of a route.
func Polyline(w io.Writer, route *routing.Route) {
	for i, key := range route.Keys {
		fmt.Fprintf(w, "  %3d. %s\n", i+1, key)
	}
}

// Failure prints a routing failure and, when available, the diagnoser's
// findings beneath it.
func Failure(w io.Writer, err error, findings *diagnose.Findings) {
	color.New(color.FgRed).Fprintf(w, "✗ %s\n", describe(err))

	if findings != nil {
		fmt.Fprintln(w)
		Findings(w, findings)
	}
}

// Findings prints the per-graph endpoint table and the recommendations.
func Findings(w io.Writer, f *diagnose.Findings) {
	fmt.Fprintf(w, "Endpoint diagnosis (%s)\n", f.Outcome)
	fmt.Fprintf(w, "  Source:      %s\n", f.Source.Key)
	fmt.Fprintf(w, "  Destination: %s\n", f.Destination.Key)

	for _, row := range f.PerGraph {
		if row.LoadErr != "" {
			fmt.Fprintf(w, "  %s: unreadable (%s)\n", row.File, row.LoadErr)
			continue
		}
		fmt.Fprintf(w, "  %s: source %s, destination %s\n",
			row.File, presence(row.Src), presence(row.Dst))
	}

	if len(f.RecommendedCables) > 0 {
		fmt.Fprintf(w, "  Feasible cables: %v\n", f.RecommendedCables)
		fmt.Fprintf(w, "  Feasible graphs: %v\n", f.RecommendedGraphs)
	}
	if f.SuggestedCommand != "" {
		fmt.Fprintf(w, "  Try: %s\n", f.SuggestedCommand)
	}
}

func presence(p diagnose.Presence) string {
	if !p.Found {
		return "absent"
	}
	return "in system " + string(p.Tag)
}

// describe expands the error kinds that benefit from extra context.
func describe(err error) string {
	var noPath *routing.NoPathError
	if errors.As(err, &noPath) {
		return fmt.Sprintf("no path on segment %d (%s -> %s) within the permitted systems without forbidden sections",
			noPath.Segment, noPath.From, noPath.To)
	}
	return err.Error()
}

// ExitCode maps an error to the CLI's exit code classes.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var graphErr *graph.GraphMalformedError
	var mapErr *graph.MappingMalformedError
	if errors.As(err, &graphErr) || errors.As(err, &mapErr) {
		return ExitBadInput
	}
	return ExitRouteFail
}
