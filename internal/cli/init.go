package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/db"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/logging"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/warehouse"
)

var initDropExisting bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the warehouse schema",
	Long: `Create the dw schema with its dimension and audit tables, and record
initialization metadata. Running init again is harmless; existing tables
and rows are kept unless --drop-existing is given.

Example:
  pgedge-portfolio-etl init --connection "postgres://etl@localhost/portfolio_dw"`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initDropExisting, "drop-existing", false,
		"drop existing warehouse tables before initialization")
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	pool, err := connectWarehouse(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Refuse to build on a layout from another schema version
	existing, err := db.MetadataExists(ctx, pool)
	if err != nil {
		return fmt.Errorf("failed to check metadata: %w", err)
	}
	if existing && !initDropExisting {
		if err := db.CheckInitialized(ctx, pool); err != nil {
			return err
		}
	}

	// Drop existing schema if requested
	if initDropExisting {
		logging.Warn().Msg("Dropping existing warehouse tables")
		if err := warehouse.DropSchema(ctx, pool); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
		if err := db.DropMetadata(ctx, pool); err != nil {
			logging.Debug().Err(err).Msg("No metadata table to drop")
		}
	}

	// Create schema
	logging.Info().Msg("Creating warehouse schema")
	if err := warehouse.CreateSchema(ctx, pool); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Save metadata
	if err := db.SaveMetadata(ctx, pool); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logging.Info().
		Str("schema_version", db.SchemaVersion).
		Msg("Warehouse initialization complete")

	return nil
}
