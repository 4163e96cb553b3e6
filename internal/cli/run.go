package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/config"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/logging"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/pipeline"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/warehouse"
)

var (
	runGenerateFirst bool
	runNoReap        bool
	runTimeout       time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline as one audited run",
	Long: `Run the full pipeline against an initialized warehouse: report the
current dimension row counts, load every dimension from the flat files,
and backfill the date dimension. All of it is recorded as a single run
in dw.etl_run_audit.

Runs left RUNNING by a crashed process are marked FAIL-TIMEOUT first,
unless --no-reap is given.

--start-date and --end-date set both the generated price history and the
date dimension range, so the two always cover the same days.

Example:
  pgedge-portfolio-etl run
  pgedge-portfolio-etl run --generate --seed 7 --portfolios 500
  pgedge-portfolio-etl run --timeout 30m`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runGenerateFirst, "generate", false,
		"generate the flat files before loading")
	runCmd.Flags().BoolVar(&runNoReap, "no-reap", false,
		"do not fail stale RUNNING runs before starting")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0,
		"abort the run after this long (0 = no limit)")
	addGenerateFlags(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	applyDateFlags(cfg, genStartDate, genEndDate)

	if runGenerateFirst {
		if err := runGenerate(); err != nil {
			return err
		}
	}

	// Validate configuration
	if err := cfg.ValidateLoad(); err != nil {
		return err
	}
	start, end, err := cfg.DateRange()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if runTimeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, runTimeout)
		defer timeoutCancel()
		logging.Info().Dur("timeout", runTimeout).Msg("Run time limit set")
	}

	pool, err := connectWarehouse(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := requireInitialized(ctx, pool); err != nil {
		return err
	}

	p := pipeline.New(pool)
	if cfg.Audit.ReapOnStart && !runNoReap {
		if _, err := p.Reap(ctx, cfg.Audit.StaleAfter); err != nil {
			return fmt.Errorf("failed to reap stale runs: %w", err)
		}
	}

	steps := []pipeline.Step{pipeline.SmokeStep("dw.dim_portfolio", "dw.dim_risk_profile")}
	steps = append(steps, loadSteps(warehouse.All())...)
	steps = append(steps, pipeline.DatesStep(start, end))

	logging.Info().
		Str("data_dir", cfg.DataDir).
		Strs("dimensions", warehouse.List()).
		Msg("Starting pipeline run")

	if _, err := p.Run(ctx, "run", steps...); err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}
	return nil
}

// applyDateFlags points both the price history and the date dimension at
// the dates given on the command line.
func applyDateFlags(c *config.Config, start, end string) {
	if start != "" {
		c.Generate.StartDate = start
		c.Dates.StartDate = start
	}
	if end != "" {
		c.Generate.EndDate = end
		c.Dates.EndDate = end
	}
}
