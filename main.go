// =============================================================================
// tabmerge - Main Entry Point
// =============================================================================
//
// This is the main entry point for the tabmerge CLI application. It delegates
// command execution to the cmd package.
//
// USAGE:
//   tabmerge process [files...] - Merge the sources and write both reports
//   tabmerge validate           - Check the configuration and every source
//   tabmerge version            - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : Cobra command definitions
//   - internal/      : Core logic (sources, reconciliation, reports, sink)
//   - pkg/           : Shared filesystem utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/tabmerge/cmd"
)

func main() {
	cmd.Execute()
}
