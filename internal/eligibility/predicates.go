package eligibility

import (
	"fulfillment-mutation-lab/internal/domain"
)

// Base predicates shared across filters. Filters compose these rather than
// restating the checks.

// orderInBounds reports whether i names an existing order.
func orderInBounds(s *domain.Scenario, i int) bool {
	return i >= 0 && i < len(s.Orders)
}

// unavailable reports whether order i is out of bounds or not expected to
// participate in execution. A mutation against an unavailable order is
// inert: the order is skipped before the targeted check runs.
func unavailable(s *domain.Scenario, i int) bool {
	return !orderInBounds(s, i) || !s.OrderAvailable(i)
}

// transferring reports whether the entry point moves items at all. Cancel
// and validate never execute transfers, so transfer-dependent mutations can
// not surface there.
func transferring(e domain.EntryPoint) bool {
	return e != domain.EntryCancel && e != domain.EntryValidate
}

// perOrderRevertReachable reports whether a failure confined to a single
// order can revert the call: aggregate entry points swallow per-order
// failures by skipping the order, which masks the intended outcome.
func perOrderRevertReachable(e domain.EntryPoint) bool {
	return transferring(e) && !e.Aggregate()
}

// offererItems returns the resolved offer list for order i, falling back to
// the raw order when no details are cached.
func offererItems(s *domain.Scenario, i int) []domain.Item {
	if i < len(s.OrderDetails) && s.OrderDetails[i].Offer != nil {
		return s.OrderDetails[i].Offer
	}
	return s.Orders[i].Offer
}

// considerationItems returns the resolved consideration list for order i.
func considerationItems(s *domain.Scenario, i int) []domain.Item {
	if i < len(s.OrderDetails) && s.OrderDetails[i].Consideration != nil {
		return s.OrderDetails[i].Consideration
	}
	return s.Orders[i].Consideration
}

// hasUnexemptItem reports whether any item in the list still requires an
// approval check for order i's routing.
func (f *Filters) hasUnexemptItem(s *domain.Scenario, i int, items []domain.Item) bool {
	o := &s.Orders[i]
	for _, item := range items {
		if !f.deriver.IsFilteredOrNative(item, o.Offerer, o.ConduitKey) {
			return true
		}
	}
	return false
}

// orderHash returns the cached hash for order i, empty when absent.
func orderHash(s *domain.Scenario, i int) string {
	if i < 0 || i >= len(s.OrderHashes) {
		return ""
	}
	return s.OrderHashes[i]
}

// resolverInBounds reports whether r names an existing criteria resolver
// whose order index lands inside the order list.
func resolverInBounds(s *domain.Scenario, r int) bool {
	if r < 0 || r >= len(s.Resolvers) {
		return false
	}
	idx := s.Resolvers[r].OrderIndex
	return idx >= 0 && idx < len(s.Orders)
}
