package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"

	"github.com/tramo-dev/tramo-go/internal/geometry"
	"github.com/tramo-dev/tramo-go/internal/report"
	"github.com/tramo-dev/tramo-go/internal/routing"
)

// debounceWindow batches rapid rewrites (CAD exporters write graph files in
// several chunks) into a single re-route.
const debounceWindow = 2 * time.Second

// WatchCmd re-runs a direct route every time the graph file is rewritten.
type WatchCmd struct {
	Graph string  `arg:"" help:"Tagged graph file" type:"existingfile"`
	SrcX  float64 `arg:"" name:"src-x"`
	SrcY  float64 `arg:"" name:"src-y"`
	SrcZ  float64 `arg:"" name:"src-z"`
	DstX  float64 `arg:"" name:"dst-x"`
	DstY  float64 `arg:"" name:"dst-y"`
	DstZ  float64 `arg:"" name:"dst-z"`

	routeOpts
}

// Run executes the watch command. Blocks until interrupted.
func (c *WatchCmd) Run() error {
	waypoints, err := waypointsFromCoords([]float64{c.SrcX, c.SrcY, c.SrcZ, c.DstX, c.DstY, c.DstZ})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-osSignalChannel()
		fmt.Println("\nStopping watch mode...")
		cancel()
	}()

	fmt.Printf("Watching %s for changes (Ctrl+C to stop)\n\n", c.Graph)

	// First run before any change arrives.
	c.reroute(waypoints)

	err = c.watchLoop(ctx, waypoints)
	if err != nil && err != context.Canceled {
		return fmt.Errorf("watch error: %w", err)
	}

	fmt.Println("Watch mode stopped.")
	return nil
}

// watchLoop watches the parent directories of the graph (and tramo map, if
// any), since editors and exporters replace files by rename.
func (c *WatchCmd) watchLoop(ctx context.Context, waypoints []geometry.Point) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	watched := map[string]bool{
		mustAbs(c.Graph): true,
	}
	if c.Tramos != "" {
		watched[mustAbs(c.Tramos)] = true
	}
	if c.Forbidden != "" {
		watched[mustAbs(c.Forbidden)] = true
	}

	dirs := make(map[string]bool)
	for file := range watched {
		dirs[filepath.Dir(file)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	batchTimer := time.NewTimer(debounceWindow)
	batchTimer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[mustAbs(event.Name)] {
				continue
			}
			pending = true
			batchTimer.Reset(debounceWindow)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)

		case <-batchTimer.C:
			if pending {
				pending = false
				fmt.Printf("\n--- %s changed, re-routing ---\n", filepath.Base(c.Graph))
				c.reroute(waypoints)
			}
		}
	}
}

// reroute reloads everything and runs one plan. Watch mode reports failures
// but keeps watching.
func (c *WatchCmd) reroute(waypoints []geometry.Point) {
	in, err := c.load(c.Graph)
	if err != nil {
		color.Red("✗ %v", err)
		return
	}

	route, err := routing.Plan(in.store, in.tramos, in.cable, in.forbidden, waypoints, false)
	if err != nil {
		findings := diagnoseRoutingFailure(err, waypoints, []string{c.Graph})
		report.Failure(os.Stdout, err, findings)
		return
	}

	report.Route(os.Stdout, route)
	if c.ShowPath {
		report.Polyline(os.Stdout, route)
	}
}

func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// osSignalChannel returns a channel that receives OS signals for graceful shutdown.
func osSignalChannel() <-chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return sigChan
}
