package domain

// EntryPoint identifies which marketplace operation a scenario targets.
type EntryPoint int

// Entry point constants.
const (
	// EntryFulfill fulfills a single order.
	EntryFulfill EntryPoint = iota
	// EntryFulfillAdvanced fulfills a single order with criteria resolution
	// and partial-fill support.
	EntryFulfillAdvanced
	// EntryFulfillBasic fulfills a single order through the gas-optimized
	// basic path.
	EntryFulfillBasic
	// EntryFulfillAvailable fulfills a batch, silently skipping orders that
	// fail individually.
	EntryFulfillAvailable
	// EntryFulfillAvailableAdvanced is the criteria-capable batch variant.
	EntryFulfillAvailableAdvanced
	// EntryMatch matches complementary orders against each other; the caller
	// supplies no funds or approvals.
	EntryMatch
	// EntryMatchAdvanced is the criteria-capable match variant.
	EntryMatchAdvanced
	// EntryCancel cancels orders on behalf of their offerer.
	EntryCancel
	// EntryValidate marks orders as validated on-chain.
	EntryValidate
)

// AllEntryPoints lists every entry point.
var AllEntryPoints = []EntryPoint{
	EntryFulfill,
	EntryFulfillAdvanced,
	EntryFulfillBasic,
	EntryFulfillAvailable,
	EntryFulfillAvailableAdvanced,
	EntryMatch,
	EntryMatchAdvanced,
	EntryCancel,
	EntryValidate,
}

// ParseEntryPoint maps a label back to its entry point.
func ParseEntryPoint(s string) (EntryPoint, bool) {
	for _, e := range AllEntryPoints {
		if e.String() == s {
			return e, true
		}
	}
	return 0, false
}

// String returns the entry point label.
func (e EntryPoint) String() string {
	switch e {
	case EntryFulfill:
		return "FULFILL"
	case EntryFulfillAdvanced:
		return "FULFILL_ADVANCED"
	case EntryFulfillBasic:
		return "FULFILL_BASIC"
	case EntryFulfillAvailable:
		return "FULFILL_AVAILABLE"
	case EntryFulfillAvailableAdvanced:
		return "FULFILL_AVAILABLE_ADVANCED"
	case EntryMatch:
		return "MATCH"
	case EntryMatchAdvanced:
		return "MATCH_ADVANCED"
	case EntryCancel:
		return "CANCEL"
	case EntryValidate:
		return "VALIDATE"
	default:
		return "UNKNOWN"
	}
}

// Aggregate reports whether the entry point swallows per-order failures
// instead of reverting the whole call.
func (e EntryPoint) Aggregate() bool {
	return e == EntryFulfillAvailable || e == EntryFulfillAvailableAdvanced
}

// Match reports whether the entry point matches orders against each other.
// Match operations never take funds or approvals from the caller.
func (e EntryPoint) Match() bool {
	return e == EntryMatch || e == EntryMatchAdvanced
}

// Basic reports whether the entry point is a basic-order path.
func (e EntryPoint) Basic() bool {
	return e == EntryFulfillBasic
}

// Advanced reports whether the entry point processes criteria resolvers.
func (e EntryPoint) Advanced() bool {
	switch e {
	case EntryFulfillAdvanced, EntryFulfillAvailableAdvanced, EntryMatchAdvanced:
		return true
	default:
		return false
	}
}

// ValidatesFractions reports whether the entry point reaches fill-fraction
// validation. The non-advanced fulfill paths and match force a full fill and
// never inspect the requested fraction.
func (e EntryPoint) ValidatesFractions() bool {
	switch e {
	case EntryFulfillAdvanced, EntryFulfillAvailableAdvanced, EntryMatchAdvanced:
		return true
	default:
		return false
	}
}
