// Command gridctl renders search result envelopes as grids in the terminal.
package main

import (
	"os"

	"github.com/kailas-cloud/resultgrid/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
