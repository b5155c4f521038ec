// Command petra runs the voice assistant device in a terminal.
//
// Usage:
//
//	petra run [--config petra.yaml] [--headless]
//	petra version
//
// Press space or enter to toggle push-to-talk, q to quit.
package main

import (
	"fmt"
	"os"

	"petra/cmd/petra/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
