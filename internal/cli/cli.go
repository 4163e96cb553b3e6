//-------------------------------------------------------------------------
//
// pgEdge Portfolio ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-portfolio-etl.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/config"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/db"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/logging"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/warehouse"
	"github.com/pgEdge/pgedge-portfolio-etl/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	dataDir    string
	logLevel   string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "pgedge-portfolio-etl",
		Short: "Batch ETL for a portfolio-management data warehouse",
		Long: `pgedge-portfolio-etl synthesizes portfolio-management data (assets,
portfolios, holdings, prices and target allocations), writes it to flat
CSV files, and loads the dimension tables of a PostgreSQL star-schema
warehouse.

Every load is idempotent: rows whose natural key already exists are
skipped. Each load runs as an audited unit of work recorded in
dw.etl_run_audit.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./pgedge-portfolio-etl.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"warehouse connection URL or DSN (overrides the warehouse section)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"directory holding the flat files (default: data/raw)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(dimensionsCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: logging.IsTerminal(os.Stderr),
	})

	return nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logging.Info().
				Str("signal", sig.String()).
				Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// connectWarehouse opens a pool to the configured warehouse.
func connectWarehouse(ctx context.Context) (*pgxpool.Pool, error) {
	if err := cfg.ValidateWarehouse(); err != nil {
		return nil, err
	}
	connStr, err := cfg.ConnString()
	if err != nil {
		return nil, err
	}

	logging.Debug().Str("warehouse", db.Redact(connStr)).Msg("Using warehouse")

	pool, err := db.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	return pool, nil
}

// requireInitialized fails unless init has run against the warehouse.
func requireInitialized(ctx context.Context, conn db.DB) error {
	err := db.CheckInitialized(ctx, conn)
	if errors.Is(err, db.ErrNotInitialized) {
		return fmt.Errorf("warehouse has not been initialized; run 'pgedge-portfolio-etl init' first")
	}
	return err
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

var dimensionsCmd = &cobra.Command{
	Use:   "dimensions",
	Short: "List loadable dimensions",
	Long: `List the dimensions the load command can populate, in load order,
with the flat file each one reads and the table it writes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("Available dimensions (in load order):")
		cmd.Println()
		for _, d := range warehouse.All() {
			cmd.Printf("  %-13s %s\n", d.Name, d.Description)
			cmd.Printf("  %-13s %s -> %s (key %s)\n", "", d.File, d.Table, d.Key)
		}
		cmd.Println()
		cmd.Println("The date dimension is populated by 'pgedge-portfolio-etl backfill-dates'.")
	},
}
