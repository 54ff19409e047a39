package eligibility

import (
	"fulfillment-mutation-lab/internal/domain"
)

// Fill-fraction filters. Only the advanced entry points ever reach
// fraction validation: the plain fulfill paths, the basic path, and plain
// match force a full fill and never inspect the requested fraction, so
// every fraction mutation is blanket-ineligible there.

// ZeroFillFractionEligible reports whether zeroing the numerator can
// surface a fraction failure. The advanced aggregate entry point treats a
// zero-fill order as silently skippable rather than an error, which masks
// the outcome.
func (f *Filters) ZeroFillFractionEligible(s *domain.Scenario, i int) bool {
	if unavailable(s, i) {
		return false
	}
	if !s.EntryPoint.ValidatesFractions() {
		return false
	}
	return s.EntryPoint != domain.EntryFulfillAvailableAdvanced
}

// OverfillFractionEligible reports whether requesting more than the whole
// order (numerator above denominator, e.g. 2/1) can surface a fraction
// failure.
func (f *Filters) OverfillFractionEligible(s *domain.Scenario, i int) bool {
	if unavailable(s, i) {
		return false
	}
	return s.EntryPoint.ValidatesFractions()
}

// IrreducibleFillFractionEligible reports whether a fraction that reduces,
// but not to the fully-filled ratio (e.g. 6/9), can surface. This probes
// contract-order partial-fill arithmetic, so the target must be a
// contract-bound order.
func (f *Filters) IrreducibleFillFractionEligible(s *domain.Scenario, i int) bool {
	if unavailable(s, i) {
		return false
	}
	if !s.EntryPoint.ValidatesFractions() {
		return false
	}
	return s.Orders[i].OrderType.Contract()
}
