package domain

// ItemType classifies an order item.
type ItemType int

// Item type constants.
const (
	// ItemNative is the chain's native currency. Needs no approval.
	ItemNative ItemType = iota
	// ItemFungible is a fungible token identified by Token.
	ItemFungible
	// ItemNonFungible is a unique token identified by (Token, Identifier).
	ItemNonFungible
	// ItemFungibleCriteria is a criteria-based fungible item: Identifier
	// holds a criteria root until a resolver supplies a concrete identifier.
	ItemFungibleCriteria
	// ItemNonFungibleCriteria is a criteria-based non-fungible item.
	ItemNonFungibleCriteria
)

// String returns the item type label.
func (t ItemType) String() string {
	switch t {
	case ItemNative:
		return "NATIVE"
	case ItemFungible:
		return "FUNGIBLE"
	case ItemNonFungible:
		return "NON_FUNGIBLE"
	case ItemFungibleCriteria:
		return "FUNGIBLE_CRITERIA"
	case ItemNonFungibleCriteria:
		return "NON_FUNGIBLE_CRITERIA"
	default:
		return "UNKNOWN"
	}
}

// HasCriteria reports whether the item declares a criteria slot that must be
// resolved before execution.
func (t ItemType) HasCriteria() bool {
	return t == ItemFungibleCriteria || t == ItemNonFungibleCriteria
}

// Item is a single offered or requested item on an order.
type Item struct {
	Type       ItemType
	Token      string // base58 token contract address; empty for NATIVE
	Identifier uint64 // token identifier, or criteria root for criteria items
	Amount     uint64 // quantity in base units
}
