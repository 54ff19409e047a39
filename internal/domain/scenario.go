package domain

// OrderDetails holds an order's item lists after criteria resolution.
type OrderDetails struct {
	Offer         []Item
	Consideration []Item
}

// Scenario is the mutable context threaded through filtering, mutation, and
// execution. It is created once per test iteration by the external generator,
// mutated in place by exactly one applicator, and discarded after the
// iteration's checks complete. It is exclusively owned by its iteration;
// nothing here is safe for concurrent use.
type Scenario struct {
	Orders []Order

	// Caller is the account invoking the entry point; NativeValue is the
	// native currency it supplies with the call.
	Caller      string
	NativeValue uint64

	EntryPoint EntryPoint

	// Available marks, per order, whether the generator expects the order to
	// participate in execution. Unavailable orders are known up front to be
	// skipped (already filled, cancelled, or outside their window).
	Available []bool

	Resolvers []CriteriaResolver

	// Derived caches populated by the generator.
	OrderHashes            []string       // stable identifiers for status queries
	OrderDetails           []OrderDetails // item lists after criteria resolution
	ImpliedNativeTransfers []uint64       // native amounts implied by execution
}

// MutationTarget carries the order and/or resolver index chosen by the
// selection step for a mutation. Unused indices are -1.
type MutationTarget struct {
	OrderIndex    int
	ResolverIndex int
}

// NoTarget is the target for scenario-granularity mutations.
var NoTarget = MutationTarget{OrderIndex: -1, ResolverIndex: -1}

// OrderTarget returns a target naming a single order.
func OrderTarget(orderIndex int) MutationTarget {
	return MutationTarget{OrderIndex: orderIndex, ResolverIndex: -1}
}

// ResolverTarget returns a target naming a single criteria resolver.
func ResolverTarget(resolverIndex int) MutationTarget {
	return MutationTarget{OrderIndex: -1, ResolverIndex: resolverIndex}
}

// OrderAvailable reports whether order i is expected to participate.
// Indices outside the availability vector are unavailable.
func (s *Scenario) OrderAvailable(i int) bool {
	if i < 0 || i >= len(s.Available) {
		return false
	}
	return s.Available[i]
}

// ResolverOrder returns the order owning resolver r and its index, or nil if
// the resolver points outside the order list.
func (s *Scenario) ResolverOrder(r int) (*Order, int) {
	if r < 0 || r >= len(s.Resolvers) {
		return nil, -1
	}
	idx := s.Resolvers[r].OrderIndex
	if idx < 0 || idx >= len(s.Orders) {
		return nil, -1
	}
	return &s.Orders[idx], idx
}
