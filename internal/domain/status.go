package domain

// OrderStatus is the persisted protocol state for one order hash.
type OrderStatus struct {
	Validated         bool
	Cancelled         bool
	FilledNumerator   uint64
	FilledDenominator uint64
}

// FullyFilled reports whether the order has no remaining fillable amount.
func (s OrderStatus) FullyFilled() bool {
	return s.FilledDenominator != 0 && s.FilledNumerator >= s.FilledDenominator
}
