// Package eligibility decides, per failure mode, whether a mutation can be
// applied to the current scenario without triggering a different failure
// first. Every filter is read-only over the scenario: the one filter that
// temporarily rewrites state (the conduit substitution probe) restores it on
// every exit path before returning.
//
// Filters absorb collaborator errors: a failed state read or offerer probe
// makes the mode ineligible, it never propagates.
package eligibility

import (
	"context"

	"fulfillment-mutation-lab/internal/domain"
	"fulfillment-mutation-lab/internal/protocol"
)

// Deriver is the execution-derivation collaborator filters consult.
type Deriver interface {
	// DeriveExecutions computes the transfers expected for the scenario
	// under the given supplied native value.
	DeriveExecutions(s *domain.Scenario, value uint64) (domain.Derivations, error)

	// MinimumNativeValue returns the least native value the caller must
	// supply.
	MinimumNativeValue(s *domain.Scenario) uint64

	// IsFilteredOrNative reports whether an item needs no approval check.
	IsFilteredOrNative(item domain.Item, offerer, conduitKey string) bool

	// ApprovalTarget returns the spender needing approval for an order.
	ApprovalTarget(s *domain.Scenario, order *domain.Order) string
}

// Filters evaluates eligibility for every failure mode.
type Filters struct {
	deriver Deriver
	state   protocol.StateReader
	probe   protocol.OffererProbe
}

// New creates a filter set over the given collaborators.
func New(deriver Deriver, state protocol.StateReader, probe protocol.OffererProbe) *Filters {
	return &Filters{deriver: deriver, state: state, probe: probe}
}

// Eligible evaluates the filter for one failure mode against a target.
// Order-granular modes read target.OrderIndex, resolver-granular modes read
// target.ResolverIndex, scenario-granular modes ignore the target.
func (f *Filters) Eligible(ctx context.Context, mode domain.FailureMode, s *domain.Scenario, target domain.MutationTarget) bool {
	switch mode {
	case domain.FailureSignatureTruncated:
		return f.SignatureTruncatedEligible(ctx, s, target.OrderIndex)
	case domain.FailureSignatureBitFlipped:
		return f.SignatureBitFlippedEligible(ctx, s, target.OrderIndex)
	case domain.FailureSignatureBadRecovery:
		return f.SignatureBadRecoveryEligible(ctx, s, target.OrderIndex)
	case domain.FailureSaltChanged:
		return f.SaltChangedEligible(ctx, s, target.OrderIndex)
	case domain.FailureContractOffererRejects:
		return f.ContractOffererRejectsEligible(s, target.OrderIndex)
	case domain.FailureOffererApprovalRevoked:
		return f.OffererApprovalRevokedEligible(s, target.OrderIndex)
	case domain.FailureCallerApprovalRevoked:
		return f.CallerApprovalRevokedEligible(s, target.OrderIndex)
	case domain.FailureInsufficientNativeValue:
		return f.InsufficientNativeValueEligible(s)
	case domain.FailureNativeTransferFails:
		return f.NativeTransferFailsEligible(s)
	case domain.FailureUnregisteredConduitKey:
		return f.UnregisteredConduitKeyEligible(s, target.OrderIndex)
	case domain.FailureCriteriaProofBitFlipped:
		return f.CriteriaProofBitFlippedEligible(s, target.ResolverIndex)
	case domain.FailureWildcardProofNotEmpty:
		return f.WildcardProofNotEmptyEligible(s, target.ResolverIndex)
	case domain.FailureCriteriaOnUncriteriedItem:
		return f.CriteriaOnUncriteriedItemEligible(s, target.OrderIndex)
	case domain.FailureCriteriaResolverOutOfRange:
		return f.CriteriaResolverOutOfRangeEligible(s)
	case domain.FailureUnresolvedCriteria:
		return f.UnresolvedCriteriaEligible(s, target.ResolverIndex)
	case domain.FailureOrderNotYetStarted:
		return f.OrderNotYetStartedEligible(s, target.OrderIndex)
	case domain.FailureOrderExpired:
		return f.OrderExpiredEligible(s, target.OrderIndex)
	case domain.FailureZeroFillFraction:
		return f.ZeroFillFractionEligible(s, target.OrderIndex)
	case domain.FailureOverfillFraction:
		return f.OverfillFractionEligible(s, target.OrderIndex)
	case domain.FailureIrreducibleFillFraction:
		return f.IrreducibleFillFractionEligible(s, target.OrderIndex)
	case domain.FailureOrderAlreadyCancelled:
		return f.OrderAlreadyCancelledEligible(s, target.OrderIndex)
	case domain.FailureOrderAlreadyFilled:
		return f.OrderAlreadyFilledEligible(s, target.OrderIndex)
	case domain.FailureCallerCannotCancel:
		return f.CallerCannotCancelEligible(s, target.OrderIndex)
	default:
		return false
	}
}
