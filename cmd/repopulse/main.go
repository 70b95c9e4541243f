// main is the entry point for the repopulse CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/repopulse/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
