package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/audit"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/logging"
)

var (
	auditLimit     int
	auditOlderThan time.Duration
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and maintain the run audit log",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent ETL runs",
	RunE:  runAuditList,
}

var auditReapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Mark stale RUNNING runs as FAIL-TIMEOUT",
	Long: `Mark runs that have been RUNNING for longer than --older-than as FAIL
with a FAIL-TIMEOUT error message. Use this after a process was killed
before it could record its outcome.`,
	RunE: runAuditReap,
}

func init() {
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 20,
		"number of runs to show")
	auditReapCmd.Flags().DurationVar(&auditOlderThan, "older-than", 0,
		"age after which a RUNNING run is stale (default: audit.stale_after)")

	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditReapCmd)
}

func runAuditList(cmd *cobra.Command, args []string) error {
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

	runs, err := audit.NewStore(pool).Recent(ctx, auditLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tSTARTED\tDURATION\tEXTRACTED\tLOADED\tERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, deref(r.Name), r.Status,
			humanize.Time(r.StartedAt),
			runDuration(r),
			count(r.RecordsExtracted), count(r.RecordsLoaded),
			deref(r.ErrorMessage))
	}
	return w.Flush()
}

func runAuditReap(cmd *cobra.Command, args []string) error {
	olderThan := auditOlderThan
	if olderThan == 0 {
		olderThan = cfg.Audit.StaleAfter
	}
	if olderThan <= 0 {
		return fmt.Errorf("--older-than must be positive")
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

	n, err := audit.NewStore(pool).ReapStale(ctx, olderThan)
	if err != nil {
		return fmt.Errorf("failed to reap stale runs: %w", err)
	}
	logging.Info().Int64("runs", n).Dur("older_than", olderThan).Msg("Reap complete")
	return nil
}

func runDuration(r *audit.Run) string {
	if r.EndedAt == nil {
		return "-"
	}
	return r.EndedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
}

func count(n *int64) string {
	if n == nil {
		return "-"
	}
	return humanize.Comma(*n)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
