// Package main is the entry point for pgedge-portfolio-etl.
package main

import (
	"fmt"
	"os"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/cli"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/logging"
)

func main() {
	if err := cli.Execute(); err != nil {
		logging.Error().Stack().Err(err).Msg("Command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
