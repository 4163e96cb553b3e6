package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/pipeline"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/warehouse"
)

var loadCmd = &cobra.Command{
	Use:   "load [dimension...]",
	Short: "Load dimensions from the flat files",
	Long: `Load the named dimensions (all of them when none are named) from the
flat files in the data directory. Rows whose natural key already exists
are skipped. The whole invocation is recorded as a single audited run.

Example:
  pgedge-portfolio-etl load
  pgedge-portfolio-etl load portfolio --data-dir /srv/etl/raw`,
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return warehouse.List(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateLoad(); err != nil {
		return err
	}
	dims, err := warehouse.Select(args...)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	pool, err := connectWarehouse(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := requireInitialized(ctx, pool); err != nil {
		return err
	}

	if _, err := pipeline.New(pool).Run(ctx, "load", loadSteps(dims)...); err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	return nil
}

// loadSteps returns one pipeline step per dimension.
func loadSteps(dims []*warehouse.Dimension) []pipeline.Step {
	steps := make([]pipeline.Step, 0, len(dims))
	for _, d := range dims {
		steps = append(steps, pipeline.LoadStep(cfg.DataDir, d))
	}
	return steps
}
