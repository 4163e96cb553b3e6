//-------------------------------------------------------------------------
//
// pgEdge Portfolio ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

//go:build integration
// +build integration

// Integration tests for the audit store.
// Run with: go test -tags=integration ./internal/audit/...
// Requires PostgreSQL to be available.
// Set PMETL_TEST_CONN environment variable to override connection string.

package audit_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-portfolio-etl/internal/audit"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/testutil"
	"github.com/pgEdge/pgedge-portfolio-etl/internal/warehouse"
)

func newStore(t *testing.T) (*audit.Store, func(sql string, args ...any)) {
	t.Helper()
	pool := testutil.NewTestDB(t, "audit")
	require.NoError(t, warehouse.CreateSchema(context.Background(), pool))
	return audit.NewStore(pool), func(sql string, args ...any) {
		testutil.MustExec(t, pool, sql, args...)
	}
}

func int64p(v int64) *int64 { return &v }

func TestStartFinishSuccess(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	id, err := store.Start(ctx, "load")
	require.NoError(t, err)

	run, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, audit.StatusRunning, run.Status)
	assert.Nil(t, run.EndedAt)
	require.NotNil(t, run.Name)
	assert.Equal(t, "load", *run.Name)

	require.NoError(t, store.Finish(ctx, id, audit.Succeeded(2030, 2030)))

	run, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, audit.StatusSuccess, run.Status)
	require.NotNil(t, run.EndedAt)
	assert.False(t, run.EndedAt.Before(run.StartedAt))
	assert.Equal(t, int64p(2030), run.RecordsExtracted)
	assert.Equal(t, int64p(2030), run.RecordsLoaded)
	assert.Nil(t, run.ErrorMessage)
}

func TestFinishFailPreservesCounts(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	id, err := store.Start(ctx, "load")
	require.NoError(t, err)

	// Counts recorded earlier survive a FAIL that supplies none
	require.NoError(t, store.Finish(ctx, id, audit.Succeeded(100, 40)))
	require.NoError(t, store.Finish(ctx, id, audit.Failed(errors.New("disk full"))))

	run, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, audit.StatusFail, run.Status)
	assert.Equal(t, int64p(100), run.RecordsExtracted)
	assert.Equal(t, int64p(40), run.RecordsLoaded)
	require.NotNil(t, run.ErrorMessage)
	assert.Equal(t, "disk full", *run.ErrorMessage)
}

func TestFinishFailWithoutCounts(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	id, err := store.Start(ctx, "load")
	require.NoError(t, err)
	require.NoError(t, store.Finish(ctx, id, audit.Failed(errors.New("boom"))))

	run, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, audit.StatusFail, run.Status)
	assert.Nil(t, run.RecordsExtracted)
	assert.Nil(t, run.RecordsLoaded)
	require.NotNil(t, run.ErrorMessage)
	assert.Equal(t, "boom", *run.ErrorMessage)
}

func TestFinishSuccessClearsError(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	id, err := store.Start(ctx, "load")
	require.NoError(t, err)
	require.NoError(t, store.Finish(ctx, id, audit.Failed(errors.New("transient"))))
	require.NoError(t, store.Finish(ctx, id, audit.Succeeded(1, 1)))

	run, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, audit.StatusSuccess, run.Status)
	assert.Nil(t, run.ErrorMessage)
}

func TestFinishRejects(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	err := store.Finish(ctx, 424242, audit.Succeeded(0, 0))
	assert.True(t, errors.Is(err, audit.ErrRunNotFound))

	id, err := store.Start(ctx, "load")
	require.NoError(t, err)
	err = store.Finish(ctx, id, audit.Outcome{Status: audit.StatusRunning})
	assert.True(t, errors.Is(err, audit.ErrNotTerminal))

	_, err = store.Get(ctx, 424242)
	assert.True(t, errors.Is(err, audit.ErrRunNotFound))
}

func TestRecent(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 4; i++ {
		id, err := store.Start(ctx, "load")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[3], runs[0].ID)
	assert.Equal(t, ids[1], runs[2].ID)
}

func TestReapStale(t *testing.T) {
	store, exec := newStore(t)
	ctx := context.Background()

	stale, err := store.Start(ctx, "load")
	require.NoError(t, err)
	fresh, err := store.Start(ctx, "load")
	require.NoError(t, err)
	done, err := store.Start(ctx, "load")
	require.NoError(t, err)
	require.NoError(t, store.Finish(ctx, done, audit.Succeeded(5, 5)))

	exec(`UPDATE dw.etl_run_audit SET run_start_ts = now() - interval '7 hours'
          WHERE etl_run_id = ANY($1)`, []int64{stale, done})

	reaped, err := store.ReapStale(ctx, 6*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reaped)

	run, err := store.Get(ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, audit.StatusFail, run.Status)
	require.NotNil(t, run.ErrorMessage)
	assert.True(t, strings.HasPrefix(*run.ErrorMessage, audit.TimeoutPrefix))
	assert.NotNil(t, run.EndedAt)

	run, err = store.Get(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, audit.StatusRunning, run.Status)

	run, err = store.Get(ctx, done)
	require.NoError(t, err)
	assert.Equal(t, audit.StatusSuccess, run.Status)

	reaped, err = store.ReapStale(ctx, 6*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reaped)
}

func TestTrackerAgainstWarehouse(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	tracker := audit.NewTracker(store)

	id, err := tracker.Run(ctx, "smoke", func(context.Context) (audit.Counts, error) {
		return audit.Counts{Extracted: 3, Loaded: 2}, nil
	})
	require.NoError(t, err)
	run, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, audit.StatusSuccess, run.Status)
	assert.Equal(t, int64p(2), run.RecordsLoaded)

	id, err = tracker.Run(ctx, "smoke", func(context.Context) (audit.Counts, error) {
		return audit.Counts{}, errors.New("relation dw.fact_holding does not exist")
	})
	require.Error(t, err)
	run, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, audit.StatusFail, run.Status)
	require.NotNil(t, run.ErrorMessage)
	assert.Contains(t, *run.ErrorMessage, "fact_holding")
}
