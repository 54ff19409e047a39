package eligibility

import (
	"fulfillment-mutation-lab/internal/domain"
)

// Inscribed-status and cancellation filters.

// OrderAlreadyCancelledEligible reports whether inscribing a cancelled flag
// for the order can surface. Aggregate entry points skip cancelled orders
// silently, and contract-bound orders cannot be cancelled through this
// path, so neither can surface the failure.
func (f *Filters) OrderAlreadyCancelledEligible(s *domain.Scenario, i int) bool {
	if unavailable(s, i) {
		return false
	}
	if !perOrderRevertReachable(s.EntryPoint) {
		return false
	}
	return !s.Orders[i].OrderType.Contract()
}

// OrderAlreadyFilledEligible reports whether inscribing a fully-filled
// fraction for the order can surface. Contract-bound orders carry no
// persisted fill, and aggregate entry points skip filled orders silently.
func (f *Filters) OrderAlreadyFilledEligible(s *domain.Scenario, i int) bool {
	if unavailable(s, i) {
		return false
	}
	if !perOrderRevertReachable(s.EntryPoint) {
		return false
	}
	return !s.Orders[i].OrderType.Contract()
}

// CallerCannotCancelEligible reports whether shifting the caller away from
// the offerer can surface a cannot-cancel failure. Only the cancel entry
// point performs that check, and contract-bound orders are rejected for a
// different reason before the caller comparison.
func (f *Filters) CallerCannotCancelEligible(s *domain.Scenario, i int) bool {
	if s.EntryPoint != domain.EntryCancel {
		return false
	}
	if !orderInBounds(s, i) {
		return false
	}
	return !s.Orders[i].OrderType.Contract()
}
