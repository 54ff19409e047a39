package domain

// FailureMode identifies one protocol failure a mutation is designed to
// provoke. The catalog is closed: every mode has exactly one eligibility
// filter and one applicator registered for it.
type FailureMode int

// Failure mode constants.
const (
	// Signature family.
	FailureSignatureTruncated FailureMode = iota
	FailureSignatureBitFlipped
	FailureSignatureBadRecovery
	FailureSaltChanged
	FailureContractOffererRejects

	// Approval family.
	FailureOffererApprovalRevoked
	FailureCallerApprovalRevoked

	// Native value family.
	FailureInsufficientNativeValue
	FailureNativeTransferFails

	// Conduit.
	FailureUnregisteredConduitKey

	// Criteria family.
	FailureCriteriaProofBitFlipped
	FailureWildcardProofNotEmpty
	FailureCriteriaOnUncriteriedItem
	FailureCriteriaResolverOutOfRange
	FailureUnresolvedCriteria

	// Timing.
	FailureOrderNotYetStarted
	FailureOrderExpired

	// Fill fraction.
	FailureZeroFillFraction
	FailureOverfillFraction
	FailureIrreducibleFillFraction

	// Inscribed order status.
	FailureOrderAlreadyCancelled
	FailureOrderAlreadyFilled

	// Cancellation.
	FailureCallerCannotCancel
)

// AllFailureModes lists every failure mode. Registry completeness and
// exhaustive dispatch are checked against this slice.
var AllFailureModes = []FailureMode{
	FailureSignatureTruncated,
	FailureSignatureBitFlipped,
	FailureSignatureBadRecovery,
	FailureSaltChanged,
	FailureContractOffererRejects,
	FailureOffererApprovalRevoked,
	FailureCallerApprovalRevoked,
	FailureInsufficientNativeValue,
	FailureNativeTransferFails,
	FailureUnregisteredConduitKey,
	FailureCriteriaProofBitFlipped,
	FailureWildcardProofNotEmpty,
	FailureCriteriaOnUncriteriedItem,
	FailureCriteriaResolverOutOfRange,
	FailureUnresolvedCriteria,
	FailureOrderNotYetStarted,
	FailureOrderExpired,
	FailureZeroFillFraction,
	FailureOverfillFraction,
	FailureIrreducibleFillFraction,
	FailureOrderAlreadyCancelled,
	FailureOrderAlreadyFilled,
	FailureCallerCannotCancel,
}

// ParseFailureMode maps a label back to its failure mode.
func ParseFailureMode(s string) (FailureMode, bool) {
	for _, m := range AllFailureModes {
		if m.String() == s {
			return m, true
		}
	}
	return 0, false
}

// String returns the failure mode label.
func (m FailureMode) String() string {
	switch m {
	case FailureSignatureTruncated:
		return "SIGNATURE_TRUNCATED"
	case FailureSignatureBitFlipped:
		return "SIGNATURE_BIT_FLIPPED"
	case FailureSignatureBadRecovery:
		return "SIGNATURE_BAD_RECOVERY"
	case FailureSaltChanged:
		return "SALT_CHANGED"
	case FailureContractOffererRejects:
		return "CONTRACT_OFFERER_REJECTS"
	case FailureOffererApprovalRevoked:
		return "OFFERER_APPROVAL_REVOKED"
	case FailureCallerApprovalRevoked:
		return "CALLER_APPROVAL_REVOKED"
	case FailureInsufficientNativeValue:
		return "INSUFFICIENT_NATIVE_VALUE"
	case FailureNativeTransferFails:
		return "NATIVE_TRANSFER_FAILS"
	case FailureUnregisteredConduitKey:
		return "UNREGISTERED_CONDUIT_KEY"
	case FailureCriteriaProofBitFlipped:
		return "CRITERIA_PROOF_BIT_FLIPPED"
	case FailureWildcardProofNotEmpty:
		return "WILDCARD_PROOF_NOT_EMPTY"
	case FailureCriteriaOnUncriteriedItem:
		return "CRITERIA_ON_UNCRITERIED_ITEM"
	case FailureCriteriaResolverOutOfRange:
		return "CRITERIA_RESOLVER_OUT_OF_RANGE"
	case FailureUnresolvedCriteria:
		return "UNRESOLVED_CRITERIA"
	case FailureOrderNotYetStarted:
		return "ORDER_NOT_YET_STARTED"
	case FailureOrderExpired:
		return "ORDER_EXPIRED"
	case FailureZeroFillFraction:
		return "ZERO_FILL_FRACTION"
	case FailureOverfillFraction:
		return "OVERFILL_FRACTION"
	case FailureIrreducibleFillFraction:
		return "IRREDUCIBLE_FILL_FRACTION"
	case FailureOrderAlreadyCancelled:
		return "ORDER_ALREADY_CANCELLED"
	case FailureOrderAlreadyFilled:
		return "ORDER_ALREADY_FILLED"
	case FailureCallerCannotCancel:
		return "CALLER_CANNOT_CANCEL"
	default:
		return "UNKNOWN"
	}
}

// Granularity describes what kind of target a failure mode mutates.
type Granularity int

// Granularity constants.
const (
	// GranularityScenario mutates scenario-level state (caller, value).
	GranularityScenario Granularity = iota
	// GranularityOrder mutates one order.
	GranularityOrder
	// GranularityResolver mutates one criteria resolver or the resolver list.
	GranularityResolver
)

// String returns the granularity label.
func (g Granularity) String() string {
	switch g {
	case GranularityScenario:
		return "SCENARIO"
	case GranularityOrder:
		return "ORDER"
	case GranularityResolver:
		return "RESOLVER"
	default:
		return "UNKNOWN"
	}
}
