package eligibility

import (
	"fulfillment-mutation-lab/internal/domain"
)

// OffererApprovalRevokedEligible reports whether revoking the offerer's
// approval on an offered item can surface a missing-approval failure. At
// least one offered item must still require an approval check: native items
// never do, and items routed through a pre-approved conduit are already
// covered.
func (f *Filters) OffererApprovalRevokedEligible(s *domain.Scenario, i int) bool {
	if unavailable(s, i) {
		return false
	}
	if !transferring(s.EntryPoint) {
		return false
	}
	return f.hasUnexemptItem(s, i, offererItems(s, i))
}

// CallerApprovalRevokedEligible reports whether revoking the caller's
// approval on a requested item can surface. Match entry points take nothing
// from the caller, so they are never eligible. On the basic path, when the
// first offered item is a fungible token the offerer-side token transfer
// covers the caller's payment and only the first consideration item is
// collected from the caller; only that item counts then.
func (f *Filters) CallerApprovalRevokedEligible(s *domain.Scenario, i int) bool {
	if unavailable(s, i) {
		return false
	}
	if !transferring(s.EntryPoint) || s.EntryPoint.Match() {
		return false
	}

	items := considerationItems(s, i)
	if s.EntryPoint.Basic() {
		offer := offererItems(s, i)
		if len(offer) > 0 && offer[0].Type == domain.ItemFungible {
			if len(items) == 0 {
				return false
			}
			items = items[:1]
		}
	}
	return f.hasUnexemptItem(s, i, items)
}

// InsufficientNativeValueEligible reports whether supplying one unit below
// the minimum required native value can surface an insufficient-value
// failure. The minimum must be nonzero, no implied native transfer may
// already be zero, and no native transfer may be implied at all: once one
// is, the failure surfaces at transfer time instead, which is
// NativeTransferFails territory. The two filters partition on that and are
// never both eligible.
func (f *Filters) InsufficientNativeValueEligible(s *domain.Scenario) bool {
	if s.EntryPoint.Match() || !transferring(s.EntryPoint) {
		return false
	}
	if f.deriver.MinimumNativeValue(s) == 0 {
		return false
	}
	for _, amt := range s.ImpliedNativeTransfers {
		if amt == 0 {
			return false
		}
	}
	return len(s.ImpliedNativeTransfers) == 0
}

// NativeTransferFailsEligible reports whether a generic native transfer
// failure can surface. Requires the same nonzero minimum with no
// zero-amount implied transfer, plus at least one implied native transfer
// to fail at transfer time.
func (f *Filters) NativeTransferFailsEligible(s *domain.Scenario) bool {
	if s.EntryPoint.Match() || !transferring(s.EntryPoint) {
		return false
	}
	if f.deriver.MinimumNativeValue(s) == 0 {
		return false
	}
	for _, amt := range s.ImpliedNativeTransfers {
		if amt == 0 {
			return false
		}
	}
	return len(s.ImpliedNativeTransfers) > 0
}

// UnregisteredConduitKeyEligible reports whether substituting an
// unregistered conduit key on order i would actually be exercised. The
// order needs a nonzero conduit key, and at least one non-native transfer
// must route through the substituted key: an item filtered out by other
// rules never reaches the conduit. That is established by speculatively
// rewriting the key, re-deriving executions, and scanning the explicit and
// implicit post-execution transfers; the original key is restored on every
// exit path, including a panicking deriver.
func (f *Filters) UnregisteredConduitKeyEligible(s *domain.Scenario, i int) (eligible bool) {
	if unavailable(s, i) {
		return false
	}
	if !transferring(s.EntryPoint) {
		return false
	}
	o := &s.Orders[i]
	if o.ConduitKey == "" {
		return false
	}

	original := o.ConduitKey
	o.ConduitKey = domain.UnregisteredConduitKey
	defer func() {
		o.ConduitKey = original
		if recover() != nil {
			eligible = false
		}
	}()

	der, err := f.deriver.DeriveExecutions(s, s.NativeValue)
	if err != nil {
		return false
	}
	for _, list := range [][]domain.Execution{der.Explicit, der.ImplicitPost} {
		for _, e := range list {
			if e.ConduitKey == domain.UnregisteredConduitKey && e.Item.Type != domain.ItemNative {
				return true
			}
		}
	}
	return false
}

// OrderNotYetStartedEligible reports whether shifting the start time past
// now can surface a timing failure. Aggregate entry points treat an
// unstarted order as skippable, which masks the outcome.
func (f *Filters) OrderNotYetStartedEligible(s *domain.Scenario, i int) bool {
	return !unavailable(s, i) && perOrderRevertReachable(s.EntryPoint)
}

// OrderExpiredEligible reports whether shifting the end time before now can
// surface a timing failure. Same aggregate masking as OrderNotYetStarted.
func (f *Filters) OrderExpiredEligible(s *domain.Scenario, i int) bool {
	return !unavailable(s, i) && perOrderRevertReachable(s.EntryPoint)
}
