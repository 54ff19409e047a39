package domain

// OrderType classifies how an order may be filled and validated.
type OrderType int

// Order type constants.
const (
	// OrderTypeFull must be filled in its entirety.
	OrderTypeFull OrderType = iota
	// OrderTypePartialOpen supports partial fills with no fulfiller restriction.
	OrderTypePartialOpen
	// OrderTypePartialRestricted supports partial fills, restricted fulfillers.
	OrderTypePartialRestricted
	// OrderTypeContract is offered by a contract account that validates the
	// order itself; it carries no offerer signature and cannot be cancelled
	// through the normal cancel path.
	OrderTypeContract
)

// String returns the order type label.
func (t OrderType) String() string {
	switch t {
	case OrderTypeFull:
		return "FULL"
	case OrderTypePartialOpen:
		return "PARTIAL_OPEN"
	case OrderTypePartialRestricted:
		return "PARTIAL_RESTRICTED"
	case OrderTypeContract:
		return "CONTRACT"
	default:
		return "UNKNOWN"
	}
}

// Partial reports whether the order supports partial fills.
func (t OrderType) Partial() bool {
	return t == OrderTypePartialOpen || t == OrderTypePartialRestricted
}

// Contract reports whether the order is contract-bound.
func (t OrderType) Contract() bool {
	return t == OrderTypeContract
}

// UnregisteredConduitKey is a routing key guaranteed to be absent from any
// conduit registry. Conduit mutations substitute it to force routing
// through a conduit that does not exist.
const UnregisteredConduitKey = "UNREGISTERED-CONDUIT"

// Order is a signed declaration of offered and requested items with timing,
// type, and routing constraints.
type Order struct {
	Offerer   string // base58 account address
	Signature []byte // offerer signature over the order hash; empty for CONTRACT
	Salt      uint64 // entropy mixed into the order hash

	// Fill fraction requested for this execution.
	Numerator   uint64
	Denominator uint64

	// Validity window, unix milliseconds.
	StartTime int64
	EndTime   int64

	OrderType  OrderType
	ConduitKey string // routing key; empty routes transfers directly

	Offer         []Item // items moving from the offerer
	Consideration []Item // items the offerer requires in return
}
