package domain

// Side selects the offer or consideration list of an order.
type Side int

// Side constants.
const (
	SideOffer Side = iota
	SideConsideration
)

// String returns the side label.
func (s Side) String() string {
	switch s {
	case SideOffer:
		return "OFFER"
	case SideConsideration:
		return "CONSIDERATION"
	default:
		return "UNKNOWN"
	}
}

// CriteriaResolver maps one criteria-based item slot to a concrete
// identifier, proven by a merkle membership proof. An empty proof signals a
// wildcard resolution (the criteria root accepts any identifier).
type CriteriaResolver struct {
	OrderIndex int
	Side       Side
	ItemIndex  int
	Identifier uint64
	Proof      [][]byte // merkle proof elements; empty for wildcard
}

// Wildcard reports whether the resolver takes the wildcard path.
func (r CriteriaResolver) Wildcard() bool {
	return len(r.Proof) == 0
}
