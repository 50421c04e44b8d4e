// Package main is the entry point for the tvpilot hub CLI.
//
// Usage:
//
//	tvpilot [flags] <command> [args]
//
// Commands:
//
//	serve      - Run the hub server
//	journal    - Inspect the voice exchange journal
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/hearthware/tvpilot/cmd/tvpilot/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
