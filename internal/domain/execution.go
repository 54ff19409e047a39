package domain

// Execution is one expected value transfer derived from a scenario.
type Execution struct {
	Item       Item
	From       string // account the item moves out of
	To         string // account the item moves into
	ConduitKey string // routing key used for the transfer; empty is direct
}

// Derivations groups the transfers expected from executing a scenario.
// Explicit transfers come from fulfillment data; implicit transfers are the
// protocol's own movements before and after fulfillment.
type Derivations struct {
	Explicit     []Execution
	ImplicitPre  []Execution
	ImplicitPost []Execution
}

// NativeAmounts returns the amounts of every native-currency transfer across
// all three lists, in derivation order.
func (d Derivations) NativeAmounts() []uint64 {
	var amounts []uint64
	for _, list := range [][]Execution{d.ImplicitPre, d.Explicit, d.ImplicitPost} {
		for _, e := range list {
			if e.Item.Type == ItemNative {
				amounts = append(amounts, e.Item.Amount)
			}
		}
	}
	return amounts
}
