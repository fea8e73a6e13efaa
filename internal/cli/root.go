// Package cli implements the starmap command-line interface.
//
// The CLI renders Planet Wars match logs as territory maps, lists the
// Voronoi cells of a turn, browses territories interactively, serves the
// HTTP API and manages the diagram cache. It is built using cobra and logs
// through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - render: Generate SVG, PNG, PDF, JSON or adjacency graphs for a turn
//   - cells: Print the cells of a turn as a table
//   - inspect: Browse cells and territories per turn and layer
//   - serve: Run the HTTP API
//   - cache: Manage the diagram and artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
//
// # Example
//
//	func main() {
//	    if err := cli.Execute(ctx); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"os"
)

// Execute runs the starmap CLI with logs on stderr.
func Execute(ctx context.Context) error {
	c := New(os.Stderr, LogInfo)
	return c.RootCommand().ExecuteContext(ctx)
}
