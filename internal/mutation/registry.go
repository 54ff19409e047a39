package mutation

import (
	"context"
	"fmt"

	"fulfillment-mutation-lab/internal/domain"
	"fulfillment-mutation-lab/internal/eligibility"
	"fulfillment-mutation-lab/internal/observability"
)

// Registry pairs each failure mode with its eligibility filter and its
// applicator. The catalog is closed over domain.AllFailureModes; dispatch is
// by enumeration value, not by string key.
type Registry struct {
	filters *eligibility.Filters
	apps    *Applicators
}

// NewRegistry creates a registry over the given filter and applicator sets.
func NewRegistry(filters *eligibility.Filters, apps *Applicators) *Registry {
	return &Registry{filters: filters, apps: apps}
}

// GranularityOf returns the target granularity of a failure mode.
func GranularityOf(mode domain.FailureMode) domain.Granularity {
	switch mode {
	case domain.FailureInsufficientNativeValue,
		domain.FailureNativeTransferFails,
		domain.FailureCriteriaResolverOutOfRange:
		return domain.GranularityScenario
	case domain.FailureCriteriaProofBitFlipped,
		domain.FailureWildcardProofNotEmpty,
		domain.FailureUnresolvedCriteria:
		return domain.GranularityResolver
	default:
		return domain.GranularityOrder
	}
}

// Eligible evaluates the filter for one failure mode against a target.
func (r *Registry) Eligible(ctx context.Context, mode domain.FailureMode, s *domain.Scenario, target domain.MutationTarget) bool {
	eligible := r.filters.Eligible(ctx, mode, s, target)
	observability.RecordFilterEvaluation(mode.String(), eligible)
	return eligible
}

// Apply runs the applicator for one failure mode against a target, then
// drives execution and returns the raw outcome. Callers are expected to
// have confirmed eligibility first; applying an ineligible mutation yields
// an outcome that masks the intended failure.
func (r *Registry) Apply(ctx context.Context, mode domain.FailureMode, s *domain.Scenario, target domain.MutationTarget) (domain.ExecOutcome, error) {
	observability.RecordMutationApplied(mode.String())
	switch mode {
	case domain.FailureSignatureTruncated:
		return r.apps.TruncateSignature(ctx, s, target.OrderIndex)
	case domain.FailureSignatureBitFlipped:
		return r.apps.FlipSignatureBit(ctx, s, target.OrderIndex)
	case domain.FailureSignatureBadRecovery:
		return r.apps.CorruptRecoveryByte(ctx, s, target.OrderIndex)
	case domain.FailureSaltChanged:
		return r.apps.FlipSaltBit(ctx, s, target.OrderIndex)
	case domain.FailureContractOffererRejects:
		return r.apps.ForceContractOffererRejection(ctx, s, target.OrderIndex)
	case domain.FailureOffererApprovalRevoked:
		return r.apps.RevokeOffererApproval(ctx, s, target.OrderIndex)
	case domain.FailureCallerApprovalRevoked:
		return r.apps.RevokeCallerApproval(ctx, s, target.OrderIndex)
	case domain.FailureInsufficientNativeValue:
		return r.apps.UndersupplyNativeValue(ctx, s)
	case domain.FailureNativeTransferFails:
		return r.apps.StarveImpliedNativeTransfer(ctx, s)
	case domain.FailureUnregisteredConduitKey:
		return r.apps.SubstituteUnregisteredConduit(ctx, s, target.OrderIndex)
	case domain.FailureCriteriaProofBitFlipped:
		return r.apps.FlipCriteriaProofBit(ctx, s, target.ResolverIndex)
	case domain.FailureWildcardProofNotEmpty:
		return r.apps.CorruptWildcardProof(ctx, s, target.ResolverIndex)
	case domain.FailureCriteriaOnUncriteriedItem:
		return r.apps.AppendUncriteriedResolver(ctx, s, target.OrderIndex)
	case domain.FailureCriteriaResolverOutOfRange:
		return r.apps.AppendOutOfRangeResolver(ctx, s)
	case domain.FailureUnresolvedCriteria:
		return r.apps.DropResolver(ctx, s, target.ResolverIndex)
	case domain.FailureOrderNotYetStarted:
		return r.apps.PostponeStart(ctx, s, target.OrderIndex)
	case domain.FailureOrderExpired:
		return r.apps.ExpireOrder(ctx, s, target.OrderIndex)
	case domain.FailureZeroFillFraction:
		return r.apps.ZeroFillFraction(ctx, s, target.OrderIndex)
	case domain.FailureOverfillFraction:
		return r.apps.OverfillFraction(ctx, s, target.OrderIndex)
	case domain.FailureIrreducibleFillFraction:
		return r.apps.IrreducibleFillFraction(ctx, s, target.OrderIndex)
	case domain.FailureOrderAlreadyCancelled:
		return r.apps.InscribeCancelled(ctx, s, target.OrderIndex)
	case domain.FailureOrderAlreadyFilled:
		return r.apps.InscribeFullyFilled(ctx, s, target.OrderIndex)
	case domain.FailureCallerCannotCancel:
		return r.apps.ShiftCallerOffOfferer(ctx, s, target.OrderIndex)
	default:
		return domain.ExecOutcome{}, fmt.Errorf("%w: %d", ErrUnknownFailureMode, mode)
	}
}

// Candidate is one selectable (failure mode, target) pair.
type Candidate struct {
	Mode   domain.FailureMode
	Target domain.MutationTarget
}

// EligibleSet evaluates every filter against every target the scenario
// offers and returns the candidates whose filter reports eligible. Order-
// granular modes produce one candidate per order index, resolver-granular
// modes one per resolver index.
func (r *Registry) EligibleSet(ctx context.Context, s *domain.Scenario) []Candidate {
	var out []Candidate
	for _, mode := range domain.AllFailureModes {
		switch GranularityOf(mode) {
		case domain.GranularityScenario:
			if r.Eligible(ctx, mode, s, domain.NoTarget) {
				out = append(out, Candidate{Mode: mode, Target: domain.NoTarget})
			}
		case domain.GranularityOrder:
			for i := range s.Orders {
				target := domain.OrderTarget(i)
				if r.Eligible(ctx, mode, s, target) {
					out = append(out, Candidate{Mode: mode, Target: target})
				}
			}
		case domain.GranularityResolver:
			for i := range s.Resolvers {
				target := domain.ResolverTarget(i)
				if r.Eligible(ctx, mode, s, target) {
					out = append(out, Candidate{Mode: mode, Target: target})
				}
			}
		}
	}
	observability.RecordEligibleSetSize(len(out))
	return out
}
