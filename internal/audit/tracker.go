//-------------------------------------------------------------------------
//
// pgEdge Portfolio ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package audit

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/xid"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/logging"
)

// Counts are the row counts reported by a unit of work.
type Counts struct {
	Extracted int64
	Loaded    int64
}

// Work is one audited unit of ETL work.
type Work func(ctx context.Context) (Counts, error)

// Tracker wraps units of work in audit runs.
type Tracker struct {
	store RunStore
}

// NewTracker creates a tracker recording runs in store.
func NewTracker(store RunStore) *Tracker {
	return &Tracker{store: store}
}

// Run opens a RUNNING audit row, runs work, and closes the row as SUCCESS
// with work's counts or FAIL with its error. It returns the run id and
// work's error.
//
// The failure is recorded in a transaction of its own after work has
// returned. If that write fails too, it is logged and the row stays
// RUNNING until ReapStale closes it.
func (t *Tracker) Run(ctx context.Context, name string, work Work) (runID int64, err error) {
	log := logging.With().
		Str("run", name).
		Str("invocation", xid.New().String()).
		Logger()

	runID, err = t.store.Start(ctx, name)
	if err != nil {
		return 0, err
	}
	log = log.With().Int64("etl_run_id", runID).Logger()
	log.Info().Msg("ETL run started")

	defer func() {
		if p := recover(); p != nil {
			perr := errors.Errorf("panic: %v", p)
			t.recordFailure(ctx, runID, perr)
			panic(p)
		}
	}()

	counts, err := work(ctx)
	if err != nil {
		log.Error().Stack().Err(err).Msg("ETL run failed")
		t.recordFailure(ctx, runID, err)
		return runID, err
	}

	if err := t.store.Finish(ctx, runID, Succeeded(counts.Extracted, counts.Loaded)); err != nil {
		return runID, errors.WithMessage(err, "recording successful run")
	}

	log.Info().
		Int64("records_extracted", counts.Extracted).
		Int64("records_loaded", counts.Loaded).
		Msg("ETL run marked SUCCESS")

	return runID, nil
}

// recordFailure marks runID FAIL, even if ctx was canceled.
func (t *Tracker) recordFailure(ctx context.Context, runID int64, cause error) {
	err := t.store.Finish(context.WithoutCancel(ctx), runID, Failed(cause))
	if err != nil {
		logging.Error().
			Stack().
			Err(err).
			Int64("etl_run_id", runID).
			Str("cause", cause.Error()).
			Msg("Failed to update audit table after failure")
		return
	}
	logging.Warn().Int64("etl_run_id", runID).Msg("ETL run marked FAIL")
}
