//-------------------------------------------------------------------------
//
// pgEdge Portfolio ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package audit records each ETL unit of work in dw.etl_run_audit.
//
// A run moves from RUNNING to exactly one of SUCCESS or FAIL. Every write
// commits in its own transaction, so recording a failure never depends on
// the transaction of the work that failed.
package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/db"
)

// Status is the state of an audited run.
type Status string

// Run statuses.
const (
	StatusRunning Status = "RUNNING"
	StatusSuccess Status = "SUCCESS"
	StatusFail    Status = "FAIL"
)

// Terminal reports whether s ends a run.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFail
}

// TimeoutPrefix starts the error message of runs closed by the reaper.
const TimeoutPrefix = "FAIL-TIMEOUT"

var (
	// ErrRunNotFound is returned when no audit row has the given id.
	ErrRunNotFound = errors.New("audit run not found")

	// ErrNotTerminal is returned when a run is finished with a status
	// other than SUCCESS or FAIL.
	ErrNotTerminal = errors.New("status is not terminal")
)

// Run is one row of dw.etl_run_audit.
type Run struct {
	ID               int64
	Name             *string
	Status           Status
	StartedAt        time.Time
	EndedAt          *time.Time
	RecordsExtracted *int64
	RecordsLoaded    *int64
	ErrorMessage     *string
}

// Outcome closes a run. Nil counters leave any recorded value untouched;
// Error always replaces the stored message, so a nil Error clears it.
type Outcome struct {
	Status    Status
	Extracted *int64
	Loaded    *int64
	Error     *string
}

// Succeeded returns a SUCCESS outcome with both counters set.
func Succeeded(extracted, loaded int64) Outcome {
	return Outcome{Status: StatusSuccess, Extracted: &extracted, Loaded: &loaded}
}

// Failed returns a FAIL outcome carrying err's text and no counters.
func Failed(err error) Outcome {
	msg := err.Error()
	return Outcome{Status: StatusFail, Error: &msg}
}

// RunStore persists audit runs.
type RunStore interface {
	Start(ctx context.Context, name string) (int64, error)
	Finish(ctx context.Context, id int64, out Outcome) error
}

const (
	startRunSQL = `
INSERT INTO dw.etl_run_audit (run_name, status, run_start_ts)
VALUES ($1, 'RUNNING', now())
RETURNING etl_run_id`

	finishRunSQL = `
UPDATE dw.etl_run_audit
SET status            = $2,
    run_end_ts        = now(),
    records_extracted = COALESCE($3, records_extracted),
    records_loaded    = COALESCE($4, records_loaded),
    error_message     = $5
WHERE etl_run_id = $1`

	selectRunSQL = `
SELECT etl_run_id, run_name, status, run_start_ts, run_end_ts,
       records_extracted, records_loaded, error_message
FROM dw.etl_run_audit`

	reapStaleSQL = `
UPDATE dw.etl_run_audit
SET status        = 'FAIL',
    run_end_ts    = now(),
    error_message = $2
WHERE status = 'RUNNING' AND run_start_ts < now() - make_interval(secs => $1)`
)

// Store reads and writes audit runs.
type Store struct {
	conn db.DB
}

// NewStore creates a store on conn.
func NewStore(conn db.DB) *Store {
	return &Store{conn: conn}
}

// Start records a new RUNNING run and returns its id.
func (s *Store) Start(ctx context.Context, name string) (int64, error) {
	var id int64
	err := pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, startRunSQL, nullable(name)).Scan(&id)
	})
	if err != nil {
		return 0, errors.Wrap(err, "starting audit run")
	}
	return id, nil
}

// Finish closes run id with out. Finishing twice overwrites the first
// outcome.
func (s *Store) Finish(ctx context.Context, id int64, out Outcome) error {
	if !out.Status.Terminal() {
		return errors.Wrapf(ErrNotTerminal, "finishing run %d with %s", id, out.Status)
	}
	err := pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, finishRunSQL, id, string(out.Status), out.Extracted, out.Loaded, out.Error)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errors.Wrapf(ErrRunNotFound, "run %d", id)
		}
		return nil
	})
	if err != nil {
		return errors.WithMessagef(err, "finishing audit run %d", id)
	}
	return nil
}

// Get returns run id.
func (s *Store) Get(ctx context.Context, id int64) (*Run, error) {
	row := s.conn.QueryRow(ctx, selectRunSQL+" WHERE etl_run_id = $1", id)
	r, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrapf(ErrRunNotFound, "run %d", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading audit run %d", id)
	}
	return r, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := s.conn.Query(ctx, selectRunSQL+" ORDER BY etl_run_id DESC LIMIT $1", limit)
	if err != nil {
		return nil, errors.Wrap(err, "listing audit runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning audit run")
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "listing audit runs")
	}
	return runs, nil
}

// ReapStale fails every run still RUNNING that started more than
// olderThan ago and returns how many were closed.
func (s *Store) ReapStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.Errorf("stale threshold must be positive, got %s", olderThan)
	}
	msg := TimeoutPrefix + ": run did not finish within " + olderThan.String()

	var reaped int64
	err := pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, reapStaleSQL, olderThan.Seconds(), msg)
		if err != nil {
			return err
		}
		reaped = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "reaping stale audit runs")
	}
	return reaped, nil
}

func scanRun(row pgx.Row) (*Run, error) {
	var r Run
	var status string
	err := row.Scan(&r.ID, &r.Name, &status, &r.StartedAt, &r.EndedAt,
		&r.RecordsExtracted, &r.RecordsLoaded, &r.ErrorMessage)
	if err != nil {
		return nil, err
	}
	r.Status = Status(status)
	return &r, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
