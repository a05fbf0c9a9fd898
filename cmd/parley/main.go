// Parley plays dialogue-driven quest content written in Lua.
// Usage: parley [play] [--plain] [--script <file>] [--trace] [--config <file>] [game_directory]
package main

import (
	"fmt"
	"os"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
