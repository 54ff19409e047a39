package clickhouse

import (
	"context"
	"fmt"

	"fulfillment-mutation-lab/internal/domain"
	"fulfillment-mutation-lab/internal/storage"
)

// OutcomeStore implements storage.OutcomeStore using ClickHouse.
type OutcomeStore struct {
	conn *Conn
}

// NewOutcomeStore creates a new OutcomeStore.
func NewOutcomeStore(conn *Conn) *OutcomeStore {
	return &OutcomeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.OutcomeStore = (*OutcomeStore)(nil)

const outcomeColumns = `
	run_id, failure_mode, entry_point, order_index, resolver_index,
	status, revert_reason, duration_ms, created_at
`

// Insert adds a new outcome. Returns ErrDuplicateKey if run_id exists.
// MergeTree doesn't enforce uniqueness, so existence is checked explicitly.
func (s *OutcomeStore) Insert(ctx context.Context, o *domain.MutationOutcome) error {
	if o == nil || o.RunID == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, o.RunID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO mutation_outcomes (
			run_id, failure_mode, entry_point, order_index, resolver_index,
			status, revert_reason, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	err = s.conn.Exec(ctx, query,
		o.RunID, o.FailureMode, o.EntryPoint, int32(o.OrderIndex), int32(o.ResolverIndex),
		o.Status, o.RevertReason, o.DurationMs, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// InsertBulk adds multiple outcomes. Fails entire batch on any duplicate.
func (s *OutcomeStore) InsertBulk(ctx context.Context, outcomes []*domain.MutationOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(outcomes))
	for _, o := range outcomes {
		if o == nil || o.RunID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[o.RunID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[o.RunID] = struct{}{}
	}

	for _, o := range outcomes {
		exists, err := s.exists(ctx, o.RunID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO mutation_outcomes (
			run_id, failure_mode, entry_point, order_index, resolver_index,
			status, revert_reason, duration_ms, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for _, o := range outcomes {
		err = batch.Append(
			o.RunID, o.FailureMode, o.EntryPoint, int32(o.OrderIndex), int32(o.ResolverIndex),
			o.Status, o.RevertReason, o.DurationMs, o.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRunID retrieves an outcome by its run ID. Returns ErrNotFound if not exists.
func (s *OutcomeStore) GetByRunID(ctx context.Context, runID string) (*domain.MutationOutcome, error) {
	query := `
		SELECT ` + outcomeColumns + `
		FROM mutation_outcomes
		WHERE run_id = ?
		LIMIT 1
	`

	var o domain.MutationOutcome
	var orderIndex, resolverIndex int32
	row := s.conn.QueryRow(ctx, query, runID)
	err := row.Scan(
		&o.RunID, &o.FailureMode, &o.EntryPoint, &orderIndex, &resolverIndex,
		&o.Status, &o.RevertReason, &o.DurationMs, &o.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get outcome by run id: %w", err)
	}
	o.OrderIndex = int(orderIndex)
	o.ResolverIndex = int(resolverIndex)
	return &o, nil
}

// GetByFailureMode retrieves all outcomes for a failure mode, ordered by created_at ASC.
func (s *OutcomeStore) GetByFailureMode(ctx context.Context, failureMode string) ([]*domain.MutationOutcome, error) {
	query := `
		SELECT ` + outcomeColumns + `
		FROM mutation_outcomes
		WHERE failure_mode = ?
		ORDER BY created_at ASC, run_id ASC
	`
	return s.query(ctx, query, failureMode)
}

// GetByTimeRange retrieves outcomes created within [start, end] (inclusive, unix ms).
func (s *OutcomeStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.MutationOutcome, error) {
	query := `
		SELECT ` + outcomeColumns + `
		FROM mutation_outcomes
		WHERE created_at >= ? AND created_at <= ?
		ORDER BY created_at ASC, run_id ASC
	`
	return s.query(ctx, query, start, end)
}

// Summarize aggregates stored outcomes per (failure_mode, entry_point, status).
func (s *OutcomeStore) Summarize(ctx context.Context) ([]*domain.OutcomeSummary, error) {
	query := `
		SELECT failure_mode, entry_point, status, count(), avg(duration_ms)
		FROM mutation_outcomes
		GROUP BY failure_mode, entry_point, status
		ORDER BY failure_mode ASC, entry_point ASC, status ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("summarize outcomes: %w", err)
	}
	defer rows.Close()

	var summaries []*domain.OutcomeSummary
	for rows.Next() {
		var sum domain.OutcomeSummary
		var count uint64
		if err := rows.Scan(&sum.FailureMode, &sum.EntryPoint, &sum.Status, &count, &sum.AvgDurationMs); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sum.Count = int64(count)
		summaries = append(summaries, &sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return summaries, nil
}

func (s *OutcomeStore) exists(ctx context.Context, runID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count() FROM mutation_outcomes WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *OutcomeStore) query(ctx context.Context, query string, args ...any) ([]*domain.MutationOutcome, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []*domain.MutationOutcome
	for rows.Next() {
		var o domain.MutationOutcome
		var orderIndex, resolverIndex int32
		err := rows.Scan(
			&o.RunID, &o.FailureMode, &o.EntryPoint, &orderIndex, &resolverIndex,
			&o.Status, &o.RevertReason, &o.DurationMs, &o.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.OrderIndex = int(orderIndex)
		o.ResolverIndex = int(resolverIndex)
		outcomes = append(outcomes, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}
