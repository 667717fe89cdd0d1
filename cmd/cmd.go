// Package cmd provides CLI command implementations for tramo-go.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/tramo-dev/tramo-go/internal/diagnose"
	"github.com/tramo-dev/tramo-go/internal/geometry"
	"github.com/tramo-dev/tramo-go/internal/graph"
	"github.com/tramo-dev/tramo-go/internal/pool"
	"github.com/tramo-dev/tramo-go/internal/report"
	"github.com/tramo-dev/tramo-go/internal/routing"
	"github.com/tramo-dev/tramo-go/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// routeOpts are the selectors shared by every routing subcommand.
type routeOpts struct {
	Cable     string `required:"" enum:"A,B,C" help:"Cable class: A, B or C"`
	Tramos    string `help:"Tramo-id map file" type:"existingfile"`
	Forbidden string `help:"Forbidden sections file (JSON array of tramo ids)" type:"existingfile"`
	ShowPath  bool   `help:"Print the full polyline"`
	Verbose   bool   `short:"v" help:"Print graph statistics while loading"`
}

// routeInputs holds everything a routing command loads before planning.
type routeInputs struct {
	store     *graph.Store
	tramos    *graph.TramoMap
	forbidden map[int]struct{}
	cable     routing.Cable
}

func (o *routeOpts) load(graphPath string) (*routeInputs, error) {
	cable, err := routing.ParseCable(o.Cable)
	if err != nil {
		return nil, err
	}

	if o.Forbidden != "" && o.Tramos == "" {
		return nil, fmt.Errorf("--forbidden requires --tramos to resolve tramo ids")
	}

	store, err := graph.LoadFile(graphPath)
	if err != nil {
		return nil, err
	}

	in := &routeInputs{store: store, cable: cable}

	if o.Tramos != "" {
		in.tramos, err = graph.LoadTramoMapFile(o.Tramos)
		if err != nil {
			return nil, err
		}
	}
	if o.Forbidden != "" {
		in.forbidden, err = graph.LoadForbiddenFile(o.Forbidden)
		if err != nil {
			return nil, err
		}
	}

	if o.Verbose {
		vertices, edges := store.CountBySystem()
		fmt.Printf("Loaded graph: %d nodes, %d edges (A: %d/%d, B: %d/%d)\n",
			store.VertexCount(), store.EdgeCount(),
			vertices[graph.SystemA], edges[graph.SystemA],
			vertices[graph.SystemB], edges[graph.SystemB])
		if in.tramos != nil {
			fmt.Printf("Loaded tramo map: %d edge mappings\n", in.tramos.Len())
		}
		if len(in.forbidden) > 0 {
			fmt.Printf("Forbidden sections: %d tramo ids\n", len(in.forbidden))
		}
		for _, warn := range store.Warnings() {
			color.Yellow("warning: %s", warn)
		}
	}

	return in, nil
}

// runRoute plans across the waypoints and renders the outcome. On endpoint
// and no-path failures the diagnoser annotates the error before it is
// surfaced.
func runRoute(graphPath string, in *routeInputs, waypoints []geometry.Point, forwardPath bool, showPath bool) error {
	route, err := routing.Plan(in.store, in.tramos, in.cable, in.forbidden, waypoints, forwardPath)
	if err != nil {
		if findings := diagnoseRoutingFailure(err, waypoints, []string{graphPath}); findings != nil {
			report.Findings(os.Stdout, findings)
		}
		return err
	}

	report.Route(os.Stdout, route)
	if showPath {
		report.Polyline(os.Stdout, route)
	}
	return nil
}

// diagnoseRoutingFailure runs the endpoint diagnoser for the error kinds it
// can explain. Other failures return nil findings.
func diagnoseRoutingFailure(err error, waypoints []geometry.Point, files []string) *diagnose.Findings {
	var notInGraph *routing.EndpointNotInGraphError
	var forbiddenSys *routing.EndpointInForbiddenSystemError
	var noPath *routing.NoPathError

	if errors.As(err, &notInGraph) || errors.As(err, &forbiddenSys) || errors.As(err, &noPath) {
		return diagnose.Run(waypoints[0], waypoints[len(waypoints)-1], files, diagnose.NewFileSource())
	}
	return nil
}

// tripleAt converts three consecutive CLI floats into a canonical point.
func tripleAt(coords []float64, i int) (geometry.Point, error) {
	return geometry.New(coords[i], coords[i+1], coords[i+2])
}

// waypointsFromCoords splits a flat coordinate list into canonical points.
func waypointsFromCoords(coords []float64) ([]geometry.Point, error) {
	if len(coords)%3 != 0 {
		return nil, fmt.Errorf("coordinates must come in x y z triples, got %d values", len(coords))
	}
	if len(coords) < 6 {
		return nil, fmt.Errorf("need at least source and destination triples")
	}

	waypoints := make([]geometry.Point, 0, len(coords)/3)
	for i := 0; i < len(coords); i += 3 {
		pt, err := tripleAt(coords, i)
		if err != nil {
			return nil, err
		}
		waypoints = append(waypoints, pt)
	}
	return waypoints, nil
}

// DirectCmd routes between two points with no intermediate waypoints.
type DirectCmd struct {
	Graph string  `arg:"" help:"Tagged graph file" type:"existingfile"`
	SrcX  float64 `arg:"" name:"src-x"`
	SrcY  float64 `arg:"" name:"src-y"`
	SrcZ  float64 `arg:"" name:"src-z"`
	DstX  float64 `arg:"" name:"dst-x"`
	DstY  float64 `arg:"" name:"dst-y"`
	DstZ  float64 `arg:"" name:"dst-z"`

	routeOpts
}

// Run executes the direct command.
func (c *DirectCmd) Run() error {
	in, err := c.load(c.Graph)
	if err != nil {
		return err
	}

	waypoints, err := waypointsFromCoords([]float64{c.SrcX, c.SrcY, c.SrcZ, c.DstX, c.DstY, c.DstZ})
	if err != nil {
		return err
	}

	return runRoute(c.Graph, in, waypoints, false, c.ShowPath)
}

// PpoCmd routes through one mandatory waypoint.
type PpoCmd struct {
	Graph  string    `arg:"" help:"Tagged graph file" type:"existingfile"`
	Coords []float64 `arg:"" help:"src(x y z) ppo(x y z) dst(x y z)"`

	routeOpts
}

// Run executes the ppo command.
func (c *PpoCmd) Run() error {
	if len(c.Coords) != 9 {
		return fmt.Errorf("ppo takes exactly 9 coordinates (src, ppo, dst), got %d", len(c.Coords))
	}

	in, err := c.load(c.Graph)
	if err != nil {
		return err
	}

	waypoints, err := waypointsFromCoords(c.Coords)
	if err != nil {
		return err
	}

	return runRoute(c.Graph, in, waypoints, false, c.ShowPath)
}

// MultiPpoCmd routes through an ordered list of mandatory waypoints.
type MultiPpoCmd struct {
	Graph  string    `arg:"" help:"Tagged graph file" type:"existingfile"`
	Coords []float64 `arg:"" help:"src(x y z) ppo1(x y z) ... ppoK(x y z) dst(x y z)"`

	routeOpts
}

// Run executes the multi-ppo command.
func (c *MultiPpoCmd) Run() error {
	if len(c.Coords) < 9 {
		return fmt.Errorf("multi-ppo needs a source, at least one PPO and a destination")
	}

	in, err := c.load(c.Graph)
	if err != nil {
		return err
	}

	waypoints, err := waypointsFromCoords(c.Coords)
	if err != nil {
		return err
	}

	return runRoute(c.Graph, in, waypoints, false, c.ShowPath)
}

// ForwardPathCmd routes through waypoints while forbidding an immediate
// U-turn at each of them.
type ForwardPathCmd struct {
	Graph  string    `arg:"" help:"Tagged graph file" type:"existingfile"`
	Coords []float64 `arg:"" help:"src(x y z) ppo(x y z) ... dst(x y z)"`

	routeOpts
}

// Run executes the forward-path command.
func (c *ForwardPathCmd) Run() error {
	if len(c.Coords) < 9 {
		return fmt.Errorf("forward-path needs a source, at least one PPO and a destination")
	}

	in, err := c.load(c.Graph)
	if err != nil {
		return err
	}
	if in.tramos == nil {
		color.Yellow("warning: no --tramos map given; forward-path cannot name edges and degrades to plain PPO routing")
	}

	waypoints, err := waypointsFromCoords(c.Coords)
	if err != nil {
		return err
	}

	return runRoute(c.Graph, in, waypoints, true, c.ShowPath)
}

// DiagnoseCmd locates two endpoints across a pool of graph files.
type DiagnoseCmd struct {
	SrcX   float64  `arg:"" name:"src-x"`
	SrcY   float64  `arg:"" name:"src-y"`
	SrcZ   float64  `arg:"" name:"src-z"`
	DstX   float64  `arg:"" name:"dst-x"`
	DstY   float64  `arg:"" name:"dst-y"`
	DstZ   float64  `arg:"" name:"dst-z"`
	Graphs []string `arg:"" help:"Candidate graph files" type:"existingfile"`

	PoolCache string `help:"Directory for a persistent badger index of the graph pool" type:"path"`
}

// Run executes the diagnose command.
func (c *DiagnoseCmd) Run() error {
	src, err := geometry.New(c.SrcX, c.SrcY, c.SrcZ)
	if err != nil {
		return err
	}
	dst, err := geometry.New(c.DstX, c.DstY, c.DstZ)
	if err != nil {
		return err
	}

	source, closeSource, err := c.source()
	if err != nil {
		return err
	}
	defer closeSource()

	findings := diagnose.Run(src, dst, c.Graphs, source)
	report.Findings(os.Stdout, findings)
	return nil
}

// source picks the pool-cached lookup when --pool-cache is set, otherwise a
// direct file parser.
func (c *DiagnoseCmd) source() (diagnose.Source, func(), error) {
	if c.PoolCache == "" {
		return diagnose.NewFileSource(), func() {}, nil
	}

	ix, err := pool.Open(c.PoolCache)
	if err != nil {
		return nil, nil, err
	}
	return ix, func() { _ = ix.Close() }, nil
}

// GenTramosCmd writes a tramo-id map for a tagged graph.
type GenTramosCmd struct {
	Graph string `arg:"" help:"Tagged graph file" type:"existingfile"`
	Out   string `short:"o" required:"" help:"Output tramo map file" type:"path"`
}

// Run executes the gen-tramos command.
func (c *GenTramosCmd) Run() error {
	store, err := graph.LoadFile(c.Graph)
	if err != nil {
		return err
	}

	tm := graph.GenerateTramoMap(store)
	data, err := json.Marshal(tm)
	if err != nil {
		return fmt.Errorf("encoding tramo map: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(c.Out, data, 0o644); err != nil {
		return fmt.Errorf("writing tramo map: %w", err)
	}

	color.Green("✓ Wrote %d tramo ids to %s", tm.Len(), c.Out)
	return nil
}

// EdgesCmd inspects a graph's edges and resolves tramo ids.
type EdgesCmd struct {
	Graph  string `arg:"" help:"Tagged graph file" type:"existingfile"`
	Tramos string `help:"Tramo-id map file" type:"existingfile"`
	ID     int    `help:"Resolve a tramo id to its edge"`
}

// Run executes the edges command.
func (c *EdgesCmd) Run() error {
	store, err := graph.LoadFile(c.Graph)
	if err != nil {
		return err
	}

	vertices, edges := store.CountBySystem()
	fmt.Printf("Graph: %d nodes, %d edges\n", store.VertexCount(), store.EdgeCount())
	fmt.Printf("  System A: %d nodes, %d edges\n", vertices[graph.SystemA], edges[graph.SystemA])
	fmt.Printf("  System B: %d nodes, %d edges\n", vertices[graph.SystemB], edges[graph.SystemB])

	if c.Tramos == "" {
		return nil
	}

	tm, err := graph.LoadTramoMapFile(c.Tramos)
	if err != nil {
		return err
	}
	fmt.Printf("Tramo map: %d edge mappings\n", tm.Len())

	if c.ID != 0 {
		endpoints, ok := tm.EdgeForID(c.ID)
		if !ok {
			return fmt.Errorf("tramo id %d is not in the map", c.ID)
		}
		fmt.Printf("Tramo %d: %s - %s\n", c.ID, endpoints.U, endpoints.V)
		if e := store.Edge(endpoints.U, endpoints.V); e != nil {
			fmt.Printf("  System %s, length %.3f\n", e.Sys, e.Weight)
		} else {
			color.Yellow("  Edge is not present in this graph")
		}
	}

	return nil
}

// ServeCmd starts the MCP server (stdio transport) over one graph.
type ServeCmd struct {
	Graph  string `required:"" help:"Tagged graph file" type:"existingfile"`
	Tramos string `help:"Tramo-id map file" type:"existingfile"`
}

// Run executes the serve command.
func (c *ServeCmd) Run() error {
	store, err := graph.LoadFile(c.Graph)
	if err != nil {
		return err
	}

	var tramos *graph.TramoMap
	if c.Tramos != "" {
		tramos, err = graph.LoadTramoMapFile(c.Tramos)
		if err != nil {
			return err
		}
	}

	server := mcp.NewServer(c.Graph, store, tramos)

	// Note: No output to stdout besides JSON-RPC; MCP uses stdio framing.
	fmt.Fprintln(os.Stderr, "Starting MCP server...")
	return server.Run(context.Background(), os.Stdin, os.Stdout)
}

// CLI is the root Kong command structure.
type CLI struct {
	Version kong.VersionFlag `help:"Show version information"`

	Direct      DirectCmd      `cmd:"" help:"Route directly between two points"`
	Ppo         PpoCmd         `cmd:"" help:"Route through one mandatory waypoint"`
	MultiPpo    MultiPpoCmd    `cmd:"" help:"Route through an ordered list of waypoints"`
	ForwardPath ForwardPathCmd `cmd:"" help:"Route through waypoints, forbidding U-turns at each"`
	Diagnose    DiagnoseCmd    `cmd:"" help:"Locate endpoints across a pool of graph files"`
	GenTramos   GenTramosCmd   `cmd:"" help:"Generate a tramo-id map for a tagged graph"`
	Edges       EdgesCmd       `cmd:"" help:"Inspect a graph's edges and tramo ids"`
	Watch       WatchCmd       `cmd:"" help:"Re-run a route whenever the graph file changes"`
	Serve       ServeCmd       `cmd:"" help:"Start MCP server (stdio transport)"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
// Argument errors caught by kong's parser exit with report.ExitBadArgs;
// errors returned by a command's Run, including its own argument checks,
// are returned to the caller.
func (c *CLI) Execute(args []string) error {
	parser, err := kong.New(c,
		kong.Name("tramo-go"),
		kong.Description("Constrained shortest paths over dual-system cable routing graphs"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
		kong.Exit(func(code int) {
			if code != 0 {
				code = report.ExitBadArgs
			}
			os.Exit(code)
		}),
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		parser.FatalIfErrorf(err)
		return err
	}

	return kongCtx.Run()
}
