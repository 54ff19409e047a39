package storage

import (
	"context"

	"fulfillment-mutation-lab/internal/domain"
)

// OutcomeStore provides access to mutation_outcomes storage.
type OutcomeStore interface {
	// Insert adds a new outcome. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, o *domain.MutationOutcome) error

	// InsertBulk adds multiple outcomes atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, outcomes []*domain.MutationOutcome) error

	// GetByRunID retrieves an outcome by its run ID. Returns ErrNotFound if not exists.
	GetByRunID(ctx context.Context, runID string) (*domain.MutationOutcome, error)

	// GetByFailureMode retrieves all outcomes for a failure mode, ordered by created_at ASC.
	GetByFailureMode(ctx context.Context, failureMode string) ([]*domain.MutationOutcome, error)

	// GetByTimeRange retrieves outcomes created within [start, end] (inclusive, unix ms).
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.MutationOutcome, error)

	// Summarize aggregates stored outcomes per (failure_mode, entry_point, status),
	// ordered by failure_mode, entry_point, status.
	Summarize(ctx context.Context) ([]*domain.OutcomeSummary, error)
}

// OrderStatusStore provides access to order_statuses storage.
type OrderStatusStore interface {
	// Put inserts or replaces the status snapshot for an order hash.
	Put(ctx context.Context, orderHash string, status domain.OrderStatus) error

	// Get retrieves the status snapshot for an order hash. Returns ErrNotFound if not exists.
	Get(ctx context.Context, orderHash string) (domain.OrderStatus, error)
}
