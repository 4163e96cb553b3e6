package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/pipeline"
)

var (
	backfillStartDate string
	backfillEndDate   string
)

var backfillCmd = &cobra.Command{
	Use:   "backfill-dates",
	Short: "Populate the date dimension",
	Long: `Insert one dw.dim_date row per calendar day in the configured range.
Days already present are skipped, so overlapping ranges are safe.

Example:
  pgedge-portfolio-etl backfill-dates --start-date 2024-01-01 --end-date 2026-02-20`,
	RunE: runBackfill,
}

func init() {
	backfillCmd.Flags().StringVar(&backfillStartDate, "start-date", "",
		"first day, YYYY-MM-DD (default: 2024-01-01)")
	backfillCmd.Flags().StringVar(&backfillEndDate, "end-date", "",
		"last day, YYYY-MM-DD (default: 2026-02-20)")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	if backfillStartDate != "" {
		cfg.Dates.StartDate = backfillStartDate
	}
	if backfillEndDate != "" {
		cfg.Dates.EndDate = backfillEndDate
	}
	if err := cfg.ValidateWarehouse(); err != nil {
		return err
	}
	start, end, err := cfg.DateRange()
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

	if _, err := pipeline.New(pool).Run(ctx, "backfill-dates", pipeline.DatesStep(start, end)); err != nil {
		return fmt.Errorf("date backfill failed: %w", err)
	}
	return nil
}
