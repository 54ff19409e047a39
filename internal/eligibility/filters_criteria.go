package eligibility

import (
	"fulfillment-mutation-lab/internal/domain"
)

// Criteria filters. Non-advanced entry points never process criteria
// resolvers, so everything here requires a criteria-capable entry point.
// The merkle and wildcard proof mutations partition on whether the targeted
// resolver's existing proof is empty; they are never both eligible for the
// same resolver.

// CriteriaProofBitFlippedEligible reports whether flipping a bit in an
// existing merkle proof element can surface a proof failure. Requires a
// non-empty proof and a reachable owning order.
func (f *Filters) CriteriaProofBitFlippedEligible(s *domain.Scenario, r int) bool {
	if !s.EntryPoint.Advanced() {
		return false
	}
	if !resolverInBounds(s, r) {
		return false
	}
	res := s.Resolvers[r]
	if res.Wildcard() {
		return false
	}
	return !unavailable(s, res.OrderIndex)
}

// WildcardProofNotEmptyEligible reports whether replacing an empty
// (wildcard) proof with a placeholder element can surface. Requires the
// resolver to currently take the wildcard path.
func (f *Filters) WildcardProofNotEmptyEligible(s *domain.Scenario, r int) bool {
	if !s.EntryPoint.Advanced() {
		return false
	}
	if !resolverInBounds(s, r) {
		return false
	}
	res := s.Resolvers[r]
	if !res.Wildcard() {
		return false
	}
	return !unavailable(s, res.OrderIndex)
}

// CriteriaOnUncriteriedItemEligible reports whether appending a resolver
// for an item slot that never declared criteria can surface. The order
// needs at least one such slot on either side.
func (f *Filters) CriteriaOnUncriteriedItemEligible(s *domain.Scenario, i int) bool {
	if !s.EntryPoint.Advanced() {
		return false
	}
	if unavailable(s, i) {
		return false
	}
	o := &s.Orders[i]
	for _, item := range o.Offer {
		if !item.Type.HasCriteria() {
			return true
		}
	}
	for _, item := range o.Consideration {
		if !item.Type.HasCriteria() {
			return true
		}
	}
	return false
}

// CriteriaResolverOutOfRangeEligible reports whether appending a resolver
// indexed strictly past the end of the order list can surface. Any
// criteria-capable call with at least one order qualifies.
func (f *Filters) CriteriaResolverOutOfRangeEligible(s *domain.Scenario) bool {
	return s.EntryPoint.Advanced() && len(s.Orders) > 0
}

// UnresolvedCriteriaEligible reports whether dropping resolver r leaves its
// declared criteria item unresolved. The owning order must be reachable,
// otherwise the missing resolution is never noticed.
func (f *Filters) UnresolvedCriteriaEligible(s *domain.Scenario, r int) bool {
	if !s.EntryPoint.Advanced() {
		return false
	}
	if !resolverInBounds(s, r) {
		return false
	}
	return !unavailable(s, s.Resolvers[r].OrderIndex)
}
