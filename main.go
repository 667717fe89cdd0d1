// tramo-go - Constrained shortest paths over dual-system cable routing graphs.
//
// tramo-go loads tagged 3D spatial graphs exported from cable-tray CAD
// models and answers cable-class-constrained routing queries over them,
// including mandatory waypoints, forbidden sections and forward-path
// (no U-turn) planning.
package main

import (
	"fmt"
	"os"

	"github.com/tramo-dev/tramo-go/cmd"
	"github.com/tramo-dev/tramo-go/internal/report"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(report.ExitCode(err))
	}
}
