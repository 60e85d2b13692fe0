// Command player runs a WebAssembly game script in the terminal.
//
// Usage:
//
//	player [game-folder] [flags]
//
// The game folder holds game.toml and the script. Every flag can also be
// set in player.toml or through PLAYER_* environment variables.
package main

import (
	"fmt"
	"os"
	"runtime"
)

// The event pump must run on the main OS thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
