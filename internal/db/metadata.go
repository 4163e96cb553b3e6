//-------------------------------------------------------------------------
//
// pgEdge Portfolio ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/logging"
	"github.com/pgEdge/pgedge-portfolio-etl/pkg/version"
)

// SchemaVersion identifies the warehouse layout written by init.
const SchemaVersion = "1"

const metadataTable = "dw.etl_metadata"

// ErrNotInitialized is returned when the warehouse has no metadata.
var ErrNotInitialized = errors.New("warehouse has not been initialized")

// createMetadataTableSQL creates the metadata table if it doesn't exist.
const createMetadataTableSQL = `
CREATE SCHEMA IF NOT EXISTS dw;
CREATE TABLE IF NOT EXISTS dw.etl_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

// SaveMetadata records initialization metadata in the warehouse.
func SaveMetadata(ctx context.Context, db DB) error {
	// Create table if it doesn't exist
	_, err := db.Exec(ctx, createMetadataTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	// Insert or update metadata
	metadata := map[string]string{
		"schema_version": SchemaVersion,
		"version":        version.Short(),
		"initialized_at": time.Now().UTC().Format(time.RFC3339),
	}

	for key, value := range metadata {
		_, err := db.Exec(ctx, `
            INSERT INTO dw.etl_metadata (key, value) VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
        `, key, value)
		if err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	logging.Debug().
		Str("schema_version", SchemaVersion).
		Msg("Saved metadata")

	return nil
}

// GetMetadataValue retrieves a single metadata value by key.
func GetMetadataValue(ctx context.Context, db DB, key string) (string, error) {
	var value string
	err := db.QueryRow(ctx, `
        SELECT value FROM dw.etl_metadata WHERE key = $1
    `, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// CheckInitialized returns ErrNotInitialized unless init has recorded a
// schema version matching this build.
func CheckInitialized(ctx context.Context, db DB) error {
	exists, err := MetadataExists(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to check metadata: %w", err)
	}
	if !exists {
		return ErrNotInitialized
	}

	v, err := GetMetadataValue(ctx, db, "schema_version")
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotInitialized
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if v != SchemaVersion {
		return fmt.Errorf("warehouse schema version %s does not match expected %s; "+
			"re-run init with --drop-existing", v, SchemaVersion)
	}
	return nil
}

// DropMetadata drops the metadata table.
func DropMetadata(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", metadataTable))
	return err
}

// MetadataExists checks if the metadata table exists.
func MetadataExists(ctx context.Context, db DB) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT FROM information_schema.tables
            WHERE table_schema = 'dw' AND table_name = 'etl_metadata'
        )
    `).Scan(&exists)
	return exists, err
}
