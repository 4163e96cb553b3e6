//-------------------------------------------------------------------------
//
// pgEdge Portfolio ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package pipeline runs warehouse loads as audited units of work.
package pipeline

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/audit"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/db"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/logging"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/warehouse"
)

// Store records audit runs and reaps stale ones.
type Store interface {
	audit.RunStore
	ReapStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Step is one load executed inside an audited run.
type Step struct {
	Name string
	Run  func(ctx context.Context, conn db.DB) (warehouse.LoadResult, error)
}

// LoadStep loads dim from the flat files in dataDir.
func LoadStep(dataDir string, dim *warehouse.Dimension) Step {
	return Step{
		Name: dim.Name,
		Run: func(ctx context.Context, conn db.DB) (warehouse.LoadResult, error) {
			return warehouse.LoadDimension(ctx, conn, dataDir, dim)
		},
	}
}

// DatesStep backfills the date dimension from start to end.
func DatesStep(start, end time.Time) Step {
	return Step{
		Name: "date",
		Run: func(ctx context.Context, conn db.DB) (warehouse.LoadResult, error) {
			return warehouse.BackfillDates(ctx, conn, start, end)
		},
	}
}

// SmokeStep logs the row count of tables, confirming the warehouse is
// reachable and initialized before anything is loaded.
func SmokeStep(tables ...string) Step {
	return Step{
		Name: "smoke",
		Run: func(ctx context.Context, conn db.DB) (warehouse.LoadResult, error) {
			for _, table := range tables {
				n, err := warehouse.CountRows(ctx, conn, table)
				if err != nil {
					return warehouse.LoadResult{}, err
				}
				logging.Info().Str("table", table).Str("rows", humanize.Comma(n)).Msg("Table row count")
			}
			return warehouse.LoadResult{}, nil
		},
	}
}

// Result summarizes an audited run.
type Result struct {
	RunID    int64
	Loads    []warehouse.LoadResult
	Duration time.Duration
}

// Counts totals the rows extracted and inserted across every load.
func (r *Result) Counts() audit.Counts {
	var c audit.Counts
	for _, l := range r.Loads {
		c.Extracted += l.Extracted
		c.Loaded += l.Inserted
	}
	return c
}

// Pipeline runs steps against one warehouse.
type Pipeline struct {
	conn    db.DB
	store   Store
	tracker *audit.Tracker
}

// New creates a pipeline recording runs in the warehouse audit table.
func New(conn db.DB) *Pipeline {
	return NewWithStore(conn, audit.NewStore(conn))
}

// NewWithStore creates a pipeline recording runs in store.
func NewWithStore(conn db.DB, store Store) *Pipeline {
	return &Pipeline{conn: conn, store: store, tracker: audit.NewTracker(store)}
}

// Reap fails runs left RUNNING for longer than staleAfter.
func (p *Pipeline) Reap(ctx context.Context, staleAfter time.Duration) (int64, error) {
	n, err := p.store.ReapStale(ctx, staleAfter)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.Warn().Int64("runs", n).Dur("stale_after", staleAfter).Msg("Reaped stale ETL runs")
	}
	return n, nil
}

// Run executes steps in order as a single audited run named name. The
// first failing step stops the run; loads already committed by earlier
// steps stay in place.
func (p *Pipeline) Run(ctx context.Context, name string, steps ...Step) (*Result, error) {
	if len(steps) == 0 {
		return nil, errors.New("nothing to run")
	}

	start := time.Now()
	res := &Result{}
	id, err := p.tracker.Run(ctx, name, func(ctx context.Context) (audit.Counts, error) {
		for _, s := range steps {
			lr, err := s.Run(ctx, p.conn)
			if err != nil {
				return res.Counts(), errors.WithMessagef(err, "step %s", s.Name)
			}
			// Steps that load nothing report no dimension
			if lr.Dimension != "" {
				res.Loads = append(res.Loads, lr)
			}
		}
		return res.Counts(), nil
	})
	res.RunID = id
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}

	logSummary(name, res)
	return res, nil
}

func logSummary(name string, res *Result) {
	for _, l := range res.Loads {
		logging.Info().
			Str("dimension", l.Dimension).
			Str("extracted", humanize.Comma(l.Extracted)).
			Str("inserted", humanize.Comma(l.Inserted)).
			Str("total", humanize.Comma(l.Total)).
			Msg("Load summary")
	}
	c := res.Counts()
	logging.Info().
		Str("run", name).
		Int64("etl_run_id", res.RunID).
		Str("extracted", humanize.Comma(c.Extracted)).
		Str("loaded", humanize.Comma(c.Loaded)).
		Str("duration", res.Duration.Round(time.Millisecond).String()).
		Msgf("Inserted %s new rows", humanize.Comma(c.Loaded))
}
