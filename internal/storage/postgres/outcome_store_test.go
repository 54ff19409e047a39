package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fulfillment-mutation-lab/internal/domain"
	"fulfillment-mutation-lab/internal/storage"
)

func testOutcome(runID string, createdAt int64) *domain.MutationOutcome {
	return &domain.MutationOutcome{
		RunID:         runID,
		FailureMode:   "SIGNATURE_TRUNCATED",
		EntryPoint:    "FULFILL",
		OrderIndex:    0,
		ResolverIndex: -1,
		Status:        domain.ExecStatusRevert,
		RevertReason:  "InvalidSignature",
		DurationMs:    120,
		CreatedAt:     createdAt,
	}
}

func TestOutcomeStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testOutcome("run-1", 1000)))

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, "SIGNATURE_TRUNCATED", got.FailureMode)
	require.Equal(t, "InvalidSignature", got.RevertReason)
	require.Equal(t, -1, got.ResolverIndex)
}

func TestOutcomeStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testOutcome("run-1", 1000)))
	err := store.Insert(ctx, testOutcome("run-1", 2000))
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestOutcomeStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(pool)
	_, err := store.GetByRunID(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOutcomeStore_InsertBulkAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testOutcome("run-2", 1000)))

	batch := []*domain.MutationOutcome{
		testOutcome("run-1", 1000),
		testOutcome("run-2", 2000), // duplicate
	}
	err := store.InsertBulk(ctx, batch)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	_, err = store.GetByRunID(ctx, "run-1")
	require.ErrorIs(t, err, storage.ErrNotFound, "failed bulk insert left partial data")
}

func TestOutcomeStore_GetByFailureModeAndTimeRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(pool)
	ctx := context.Background()

	a := testOutcome("run-a", 1000)
	b := testOutcome("run-b", 2000)
	c := testOutcome("run-c", 3000)
	c.FailureMode = "ORDER_EXPIRED"
	require.NoError(t, store.InsertBulk(ctx, []*domain.MutationOutcome{a, b, c}))

	byMode, err := store.GetByFailureMode(ctx, "SIGNATURE_TRUNCATED")
	require.NoError(t, err)
	require.Len(t, byMode, 2)
	require.Equal(t, "run-a", byMode[0].RunID)
	require.Equal(t, "run-b", byMode[1].RunID)

	byTime, err := store.GetByTimeRange(ctx, 2000, 3000)
	require.NoError(t, err)
	require.Len(t, byTime, 2)
	require.Equal(t, "run-b", byTime[0].RunID)
}

func TestOutcomeStore_Summarize(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(pool)
	ctx := context.Background()

	a := testOutcome("run-1", 1000)
	a.DurationMs = 100
	b := testOutcome("run-2", 2000)
	b.DurationMs = 200
	c := testOutcome("run-3", 3000)
	c.Status = domain.ExecStatusSuccess
	c.RevertReason = ""
	require.NoError(t, store.InsertBulk(ctx, []*domain.MutationOutcome{a, b, c}))

	summaries, err := store.Summarize(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, domain.ExecStatusRevert, summaries[0].Status)
	require.EqualValues(t, 2, summaries[0].Count)
	require.InDelta(t, 150, summaries[0].AvgDurationMs, 0.01)
}
