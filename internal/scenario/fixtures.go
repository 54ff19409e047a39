// Package scenario builds valid scenario fixtures. The real scenario
// generator lives outside this module; these fixtures stand in for it in
// tests and single-iteration CLI runs.
package scenario

import (
	"time"

	"fulfillment-mutation-lab/internal/domain"
	"fulfillment-mutation-lab/internal/idhash"
	"fulfillment-mutation-lab/internal/identity"
)

// Window half-width applied around now for fixture orders.
const validWindow = time.Hour

// Address returns a deterministic base58 address derived from seed, with
// the requested curve membership. On-curve addresses stand for code-less
// accounts, off-curve addresses for code-bearing ones.
func Address(seed byte, onCurve bool) string {
	raw := make([]byte, identity.AddressLen)
	raw[0] = seed
	for i := 0; i < 256; i++ {
		raw[identity.AddressLen-1] = byte(i)
		addr, err := identity.Encode(raw)
		if err != nil {
			continue
		}
		if identity.OnCurve(addr) == onCurve {
			return addr
		}
	}
	// 256 candidates always contain both kinds; not reached.
	panic("scenario: no address found")
}

// SingleOrder builds a valid one-order scenario for the given entry point:
// a code-less offerer offering one fungible item against one native
// consideration item, currently inside its validity window, marked
// available, with derived caches populated.
func SingleOrder(entry domain.EntryPoint) *domain.Scenario {
	now := time.Now().UnixMilli()
	offerer := Address(1, true)
	caller := Address(2, true)

	order := domain.Order{
		Offerer:     offerer,
		Signature:   []byte{0x01, 0x02, 0x03, 0x04, 0x1b},
		Salt:        7,
		Numerator:   1,
		Denominator: 1,
		StartTime:   now - validWindow.Milliseconds(),
		EndTime:     now + validWindow.Milliseconds(),
		OrderType:   domain.OrderTypeFull,
		Offer: []domain.Item{
			{Type: domain.ItemFungible, Token: Address(10, false), Amount: 100},
		},
		Consideration: []domain.Item{
			{Type: domain.ItemNative, Amount: 50},
		},
	}

	s := &domain.Scenario{
		Orders:      []domain.Order{order},
		Caller:      caller,
		NativeValue: 50,
		EntryPoint:  entry,
		Available:   []bool{true},
	}
	Finalize(s)
	return s
}

// CriteriaOrder builds a valid one-order scenario whose offer item declares
// criteria, resolved by a merkle-proof resolver. Pass wildcard to get an
// empty-proof resolution instead. The entry point is always
// criteria-capable.
func CriteriaOrder(entry domain.EntryPoint, wildcard bool) *domain.Scenario {
	s := SingleOrder(entry)
	s.Orders[0].Offer[0] = domain.Item{
		Type:       domain.ItemNonFungibleCriteria,
		Token:      Address(11, false),
		Identifier: 9000, // criteria root
		Amount:     1,
	}

	resolver := domain.CriteriaResolver{
		OrderIndex: 0,
		Side:       domain.SideOffer,
		ItemIndex:  0,
		Identifier: 42,
	}
	if !wildcard {
		resolver.Proof = [][]byte{{0xaa, 0xbb}, {0xcc, 0xdd}}
	}
	s.Resolvers = []domain.CriteriaResolver{resolver}

	Finalize(s)
	s.OrderDetails[0].Offer[0] = domain.Item{
		Type:       domain.ItemNonFungible,
		Token:      s.Orders[0].Offer[0].Token,
		Identifier: resolver.Identifier,
		Amount:     1,
	}
	return s
}

// MatchPair builds a valid two-order match scenario: each order offers what
// the other requests.
func MatchPair(entry domain.EntryPoint) *domain.Scenario {
	now := time.Now().UnixMilli()
	tokenA := Address(10, false)
	tokenB := Address(11, false)

	orders := []domain.Order{
		{
			Offerer:       Address(1, true),
			Signature:     []byte{0x11, 0x12, 0x13, 0x1b},
			Salt:          1,
			Numerator:     1,
			Denominator:   1,
			StartTime:     now - validWindow.Milliseconds(),
			EndTime:       now + validWindow.Milliseconds(),
			OrderType:     domain.OrderTypeFull,
			Offer:         []domain.Item{{Type: domain.ItemFungible, Token: tokenA, Amount: 100}},
			Consideration: []domain.Item{{Type: domain.ItemFungible, Token: tokenB, Amount: 200}},
		},
		{
			Offerer:       Address(3, true),
			Signature:     []byte{0x21, 0x22, 0x23, 0x1b},
			Salt:          2,
			Numerator:     1,
			Denominator:   1,
			StartTime:     now - validWindow.Milliseconds(),
			EndTime:       now + validWindow.Milliseconds(),
			OrderType:     domain.OrderTypeFull,
			Offer:         []domain.Item{{Type: domain.ItemFungible, Token: tokenB, Amount: 200}},
			Consideration: []domain.Item{{Type: domain.ItemFungible, Token: tokenA, Amount: 100}},
		},
	}

	s := &domain.Scenario{
		Orders:     orders,
		Caller:     Address(2, true),
		EntryPoint: entry,
		Available:  []bool{true, true},
	}
	Finalize(s)
	return s
}

// Finalize recomputes the derived caches (order hashes and order details)
// from the current order list. Callers that mutate orders directly use it
// to re-derive dependent data.
func Finalize(s *domain.Scenario) {
	s.OrderHashes = make([]string, len(s.Orders))
	s.OrderDetails = make([]domain.OrderDetails, len(s.Orders))
	for i := range s.Orders {
		s.OrderHashes[i] = idhash.ComputeOrderHash(&s.Orders[i])
		s.OrderDetails[i] = domain.OrderDetails{
			Offer:         append([]domain.Item(nil), s.Orders[i].Offer...),
			Consideration: append([]domain.Item(nil), s.Orders[i].Consideration...),
		}
	}
}
