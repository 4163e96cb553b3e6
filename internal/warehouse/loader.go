//-------------------------------------------------------------------------
//
// pgEdge Portfolio ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/datagen"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/db"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/flatfile"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/logging"
)

// ErrMissingColumn is returned when a flat file lacks a column the
// dimension needs.
var ErrMissingColumn = flatfile.ErrMissingColumn

// Dimension describes how one flat file maps onto one dimension table.
type Dimension struct {
	// Name identifies the dimension on the command line.
	Name string

	// Description is a human-readable description.
	Description string

	// File is the flat file name within the data directory.
	File string

	// Table is the schema-qualified target table.
	Table string

	// Key is the natural key column. Rows whose key already exists are
	// skipped.
	Key string

	// Columns are the target columns, in the order Args returns values.
	Columns []string

	// Required are the flat file columns that must be present.
	Required []string

	// Args converts one flat file record into insert arguments.
	Args func(rec flatfile.Record) ([]any, error)
}

// InsertSQL returns the insert-or-skip statement for one row.
func (d *Dimension) InsertSQL() string {
	placeholders := make([]string, len(d.Columns))
	for i := range d.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO NOTHING",
		d.Table, strings.Join(d.Columns, ", "), strings.Join(placeholders, ", "), d.Key)
}

// LoadResult reports the outcome of one load.
type LoadResult struct {
	Dimension string

	// Extracted is the number of candidate rows read.
	Extracted int64

	// Inserted is the number of rows new to the table.
	Inserted int64

	// Total is the table row count after the load.
	Total int64
}

// Extract reads and converts every row of the dimension's flat file.
func (d *Dimension) Extract(dataDir string) ([][]any, error) {
	path := filepath.Join(dataDir, d.File)
	r, err := flatfile.Open(path, d.Required...)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		args, err := d.Args(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "%s line %d", path, rec.Line)
		}
		rows = append(rows, args)
	}
	return rows, nil
}

// LoadDimension inserts every row of the dimension's flat file whose
// natural key is not yet in the table. All rows are inserted in one
// transaction: either every new row lands or none do.
func LoadDimension(ctx context.Context, conn db.DB, dataDir string, dim *Dimension) (LoadResult, error) {
	res := LoadResult{Dimension: dim.Name}

	rows, err := dim.Extract(dataDir)
	if err != nil {
		return res, errors.WithMessagef(err, "extracting %s", dim.Name)
	}
	res.Extracted = int64(len(rows))

	logging.Info().
		Str("dimension", dim.Name).
		Str("file", dim.File).
		Int64("rows", res.Extracted).
		Msg("Loading dimension")

	err = pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		inserted, err := insertRows(ctx, tx, dim.Table, dim.InsertSQL(), rows)
		if err != nil {
			return err
		}
		res.Inserted = inserted

		res.Total, err = CountRows(ctx, tx, dim.Table)
		return err
	})
	if err != nil {
		return LoadResult{Dimension: dim.Name, Extracted: res.Extracted},
			errors.WithMessagef(err, "loading %s", dim.Name)
	}

	logging.Info().
		Str("dimension", dim.Name).
		Str("inserted", humanize.Comma(res.Inserted)).
		Str("total", humanize.Comma(res.Total)).
		Str("table", dim.Table).
		Msg("Dimension loaded")

	return res, nil
}

// insertRows queues one statement per row in batches and sums the rows
// each statement inserted. A conflicting key inserts nothing.
func insertRows(ctx context.Context, tx pgx.Tx, table, sql string, rows [][]any) (int64, error) {
	cfg := datagen.DefaultBatchConfig()
	progress := datagen.NewProgressReporter(table, int64(len(rows)), cfg.ProgressInterval)

	var inserted int64
	for start := 0; start < len(rows); start += cfg.BatchSize {
		end := min(start+cfg.BatchSize, len(rows))

		batch := &pgx.Batch{}
		for _, args := range rows[start:end] {
			batch.Queue(sql, args...)
		}

		br := tx.SendBatch(ctx, batch)
		for i := start; i < end; i++ {
			tag, err := br.Exec()
			if err != nil {
				br.Close()
				return 0, errors.Wrapf(err, "inserting row %d into %s", i+1, table)
			}
			inserted += tag.RowsAffected()
		}
		if err := br.Close(); err != nil {
			return 0, errors.Wrapf(err, "closing batch for %s", table)
		}
		progress.Update(int64(end - start))
	}
	return inserted, nil
}

// CountRows returns the number of rows in table.
func CountRows(ctx context.Context, conn db.DB, table string) (int64, error) {
	var n int64
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, errors.Wrapf(err, "counting %s", table)
	}
	return n, nil
}
