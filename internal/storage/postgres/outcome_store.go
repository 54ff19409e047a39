package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"fulfillment-mutation-lab/internal/domain"
	"fulfillment-mutation-lab/internal/storage"
)

// OutcomeStore implements storage.OutcomeStore using PostgreSQL.
type OutcomeStore struct {
	pool *Pool
}

// NewOutcomeStore creates a new OutcomeStore.
func NewOutcomeStore(pool *Pool) *OutcomeStore {
	return &OutcomeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OutcomeStore = (*OutcomeStore)(nil)

const outcomeColumns = `
	run_id, failure_mode, entry_point, order_index, resolver_index,
	status, revert_reason, duration_ms, created_at
`

// Insert adds a new outcome. Returns ErrDuplicateKey if run_id exists.
func (s *OutcomeStore) Insert(ctx context.Context, o *domain.MutationOutcome) (err error) {
	start := time.Now()
	defer func() { observe("outcome_insert", start, err) }()

	query := `
		INSERT INTO mutation_outcomes (
			run_id, failure_mode, entry_point, order_index, resolver_index,
			status, revert_reason, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.pool.Exec(ctx, query,
		o.RunID,
		o.FailureMode,
		o.EntryPoint,
		o.OrderIndex,
		o.ResolverIndex,
		o.Status,
		o.RevertReason,
		o.DurationMs,
		o.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// InsertBulk adds multiple outcomes atomically. Fails entire batch on any duplicate.
func (s *OutcomeStore) InsertBulk(ctx context.Context, outcomes []*domain.MutationOutcome) (err error) {
	if len(outcomes) == 0 {
		return nil
	}

	start := time.Now()
	defer func() { observe("outcome_insert_bulk", start, err) }()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO mutation_outcomes (
			run_id, failure_mode, entry_point, order_index, resolver_index,
			status, revert_reason, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, o := range outcomes {
		_, err := tx.Exec(ctx, query,
			o.RunID,
			o.FailureMode,
			o.EntryPoint,
			o.OrderIndex,
			o.ResolverIndex,
			o.Status,
			o.RevertReason,
			o.DurationMs,
			o.CreatedAt,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("bulk insert outcome: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetByRunID retrieves an outcome by its run ID. Returns ErrNotFound if not exists.
func (s *OutcomeStore) GetByRunID(ctx context.Context, runID string) (_ *domain.MutationOutcome, err error) {
	start := time.Now()
	defer func() { observe("outcome_get_by_run_id", start, err) }()

	query := `
		SELECT ` + outcomeColumns + `
		FROM mutation_outcomes
		WHERE run_id = $1
	`

	row := s.pool.QueryRow(ctx, query, runID)
	o, err := scanOutcome(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get outcome by run id: %w", err)
	}
	return o, nil
}

// GetByFailureMode retrieves all outcomes for a failure mode, ordered by created_at ASC.
func (s *OutcomeStore) GetByFailureMode(ctx context.Context, failureMode string) (_ []*domain.MutationOutcome, err error) {
	start := time.Now()
	defer func() { observe("outcome_get_by_failure_mode", start, err) }()

	query := `
		SELECT ` + outcomeColumns + `
		FROM mutation_outcomes
		WHERE failure_mode = $1
		ORDER BY created_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, failureMode)
	if err != nil {
		return nil, fmt.Errorf("get outcomes by failure mode: %w", err)
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

// GetByTimeRange retrieves outcomes created within [start, end] (inclusive, unix ms).
func (s *OutcomeStore) GetByTimeRange(ctx context.Context, start, end int64) (_ []*domain.MutationOutcome, err error) {
	began := time.Now()
	defer func() { observe("outcome_get_by_time_range", began, err) }()

	query := `
		SELECT ` + outcomeColumns + `
		FROM mutation_outcomes
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get outcomes by time range: %w", err)
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

// Summarize aggregates stored outcomes per (failure_mode, entry_point, status).
func (s *OutcomeStore) Summarize(ctx context.Context) (_ []*domain.OutcomeSummary, err error) {
	start := time.Now()
	defer func() { observe("outcome_summarize", start, err) }()

	query := `
		SELECT failure_mode, entry_point, status, COUNT(*), AVG(duration_ms)
		FROM mutation_outcomes
		GROUP BY failure_mode, entry_point, status
		ORDER BY failure_mode ASC, entry_point ASC, status ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("summarize outcomes: %w", err)
	}
	defer rows.Close()

	var summaries []*domain.OutcomeSummary
	for rows.Next() {
		var sum domain.OutcomeSummary
		if err := rows.Scan(&sum.FailureMode, &sum.EntryPoint, &sum.Status, &sum.Count, &sum.AvgDurationMs); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, &sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return summaries, nil
}

// scanOutcome scans a single row into a MutationOutcome.
func scanOutcome(row pgx.Row) (*domain.MutationOutcome, error) {
	var o domain.MutationOutcome
	err := row.Scan(
		&o.RunID,
		&o.FailureMode,
		&o.EntryPoint,
		&o.OrderIndex,
		&o.ResolverIndex,
		&o.Status,
		&o.RevertReason,
		&o.DurationMs,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// scanOutcomes scans multiple rows into a slice of MutationOutcome.
func scanOutcomes(rows pgx.Rows) ([]*domain.MutationOutcome, error) {
	var outcomes []*domain.MutationOutcome
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}
