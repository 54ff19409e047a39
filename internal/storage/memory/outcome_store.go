package memory

import (
	"context"
	"sort"
	"sync"

	"fulfillment-mutation-lab/internal/domain"
	"fulfillment-mutation-lab/internal/storage"
)

// OutcomeStore is an in-memory implementation of storage.OutcomeStore.
type OutcomeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MutationOutcome // keyed by run_id
}

// NewOutcomeStore creates a new in-memory outcome store.
func NewOutcomeStore() *OutcomeStore {
	return &OutcomeStore{
		data: make(map[string]*domain.MutationOutcome),
	}
}

// Compile-time interface check.
var _ storage.OutcomeStore = (*OutcomeStore)(nil)

// Insert adds a new outcome. Returns ErrDuplicateKey if run_id exists.
func (s *OutcomeStore) Insert(_ context.Context, o *domain.MutationOutcome) error {
	if o == nil || o.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[o.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *o
	s.data[o.RunID] = &copy
	return nil
}

// InsertBulk adds multiple outcomes atomically. Fails entire batch on any duplicate.
func (s *OutcomeStore) InsertBulk(_ context.Context, outcomes []*domain.MutationOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(outcomes))
	for _, o := range outcomes {
		if o == nil || o.RunID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[o.RunID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[o.RunID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[o.RunID] = struct{}{}
	}

	for _, o := range outcomes {
		copy := *o
		s.data[o.RunID] = &copy
	}
	return nil
}

// GetByRunID retrieves an outcome by its run ID. Returns ErrNotFound if not exists.
func (s *OutcomeStore) GetByRunID(_ context.Context, runID string) (*domain.MutationOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	copy := *o
	return &copy, nil
}

// GetByFailureMode retrieves all outcomes for a failure mode, ordered by created_at ASC.
func (s *OutcomeStore) GetByFailureMode(_ context.Context, failureMode string) ([]*domain.MutationOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MutationOutcome
	for _, o := range s.data {
		if o.FailureMode == failureMode {
			copy := *o
			result = append(result, &copy)
		}
	}
	sortOutcomes(result)
	return result, nil
}

// GetByTimeRange retrieves outcomes created within [start, end] (inclusive).
func (s *OutcomeStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.MutationOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MutationOutcome
	for _, o := range s.data {
		if o.CreatedAt >= start && o.CreatedAt <= end {
			copy := *o
			result = append(result, &copy)
		}
	}
	sortOutcomes(result)
	return result, nil
}

// Summarize aggregates stored outcomes per (failure_mode, entry_point, status).
func (s *OutcomeStore) Summarize(_ context.Context) ([]*domain.OutcomeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct {
		mode, entry, status string
	}
	counts := make(map[key]*domain.OutcomeSummary)
	totals := make(map[key]int64)

	for _, o := range s.data {
		k := key{o.FailureMode, o.EntryPoint, o.Status}
		sum, exists := counts[k]
		if !exists {
			sum = &domain.OutcomeSummary{
				FailureMode: o.FailureMode,
				EntryPoint:  o.EntryPoint,
				Status:      o.Status,
			}
			counts[k] = sum
		}
		sum.Count++
		totals[k] += o.DurationMs
	}

	var result []*domain.OutcomeSummary
	for k, sum := range counts {
		sum.AvgDurationMs = float64(totals[k]) / float64(sum.Count)
		result = append(result, sum)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].FailureMode != result[j].FailureMode {
			return result[i].FailureMode < result[j].FailureMode
		}
		if result[i].EntryPoint != result[j].EntryPoint {
			return result[i].EntryPoint < result[j].EntryPoint
		}
		return result[i].Status < result[j].Status
	})
	return result, nil
}

func sortOutcomes(outcomes []*domain.MutationOutcome) {
	sort.Slice(outcomes, func(i, j int) bool {
		if outcomes[i].CreatedAt != outcomes[j].CreatedAt {
			return outcomes[i].CreatedAt < outcomes[j].CreatedAt
		}
		return outcomes[i].RunID < outcomes[j].RunID
	})
}
