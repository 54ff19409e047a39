// Package derivation computes the concrete value transfers a scenario is
// expected to produce, the minimum native currency the caller must supply,
// and which items are exempt from approval checks.
package derivation

import (
	"errors"

	"fulfillment-mutation-lab/internal/domain"
)

// Deriver errors.
var (
	ErrNoOrders = errors.New("scenario has no orders")
)

// Deriver derives expected executions for a scenario. It is configured with
// the marketplace address (the default approval spender), the conduit
// registry, and the set of pre-approved conduit keys whose transfers need no
// direct approval.
type Deriver struct {
	// MarketplaceAddr is the spender for transfers routed directly.
	MarketplaceAddr string

	// Conduits maps registered conduit keys to conduit addresses.
	Conduits map[string]string

	// Preapproved marks conduit keys whose routed items skip approval checks.
	Preapproved map[string]bool
}

// New creates a Deriver.
func New(marketplaceAddr string, conduits map[string]string, preapproved map[string]bool) *Deriver {
	if conduits == nil {
		conduits = make(map[string]string)
	}
	if preapproved == nil {
		preapproved = make(map[string]bool)
	}
	return &Deriver{
		MarketplaceAddr: marketplaceAddr,
		Conduits:        conduits,
		Preapproved:     preapproved,
	}
}

// DeriveExecutions computes the transfers expected from executing the
// scenario with the given supplied native value. Only available orders
// contribute. For fulfill entry points, offer items move from the offerer to
// the caller through the order's conduit, and consideration items move from
// the caller to the offerer directly (native consideration is covered by the
// supplied value). For match entry points the caller supplies nothing and
// both sides route through the order's conduit. Excess supplied value
// produces an implicit post-execution native return to the caller.
func (d *Deriver) DeriveExecutions(s *domain.Scenario, value uint64) (domain.Derivations, error) {
	if len(s.Orders) == 0 {
		return domain.Derivations{}, ErrNoOrders
	}

	var der domain.Derivations
	required := uint64(0)

	for i := range s.Orders {
		if !s.OrderAvailable(i) {
			continue
		}
		o := &s.Orders[i]
		offer, consideration := d.resolvedItems(s, i)

		for _, item := range offer {
			to := s.Caller
			if s.EntryPoint.Match() {
				// Matched offer items settle against the counterparty's
				// consideration; the caller receives nothing.
				to = d.MarketplaceAddr
			}
			der.Explicit = append(der.Explicit, domain.Execution{
				Item:       item,
				From:       o.Offerer,
				To:         to,
				ConduitKey: o.ConduitKey,
			})
		}

		for _, item := range consideration {
			from := s.Caller
			conduit := ""
			if s.EntryPoint.Match() {
				from = d.MarketplaceAddr
				conduit = o.ConduitKey
			} else if item.Type == domain.ItemNative {
				required += item.Amount
			}
			der.Explicit = append(der.Explicit, domain.Execution{
				Item:       item,
				From:       from,
				To:         o.Offerer,
				ConduitKey: conduit,
			})
		}
	}

	if !s.EntryPoint.Match() && value > required {
		der.ImplicitPost = append(der.ImplicitPost, domain.Execution{
			Item: domain.Item{Type: domain.ItemNative, Amount: value - required},
			From: d.MarketplaceAddr,
			To:   s.Caller,
		})
	}

	return der, nil
}

// MinimumNativeValue returns the smallest native value the caller must
// supply for the scenario to execute. Match, cancel, and validate calls
// take no value from the caller.
func (d *Deriver) MinimumNativeValue(s *domain.Scenario) uint64 {
	switch {
	case s.EntryPoint.Match():
		return 0
	case s.EntryPoint == domain.EntryCancel, s.EntryPoint == domain.EntryValidate:
		return 0
	}

	total := uint64(0)
	for i := range s.Orders {
		if !s.OrderAvailable(i) {
			continue
		}
		_, consideration := d.resolvedItems(s, i)
		for _, item := range consideration {
			if item.Type == domain.ItemNative {
				total += item.Amount
			}
		}
	}
	return total
}

// IsFilteredOrNative reports whether an item needs no approval check:
// native currency never does, and items routed through a pre-approved
// conduit are covered by the conduit's standing approval.
func (d *Deriver) IsFilteredOrNative(item domain.Item, _ string, conduitKey string) bool {
	if item.Type == domain.ItemNative {
		return true
	}
	return conduitKey != "" && d.Preapproved[conduitKey]
}

// ApprovalTarget returns the spender that must hold approvals for an
// order's transfers: the registered conduit for conduit-routed orders,
// otherwise the marketplace itself.
func (d *Deriver) ApprovalTarget(_ *domain.Scenario, order *domain.Order) string {
	if order != nil && order.ConduitKey != "" {
		if addr, ok := d.Conduits[order.ConduitKey]; ok {
			return addr
		}
	}
	return d.MarketplaceAddr
}

// resolvedItems returns order i's item lists, preferring the cached
// post-resolution details when the generator populated them.
func (d *Deriver) resolvedItems(s *domain.Scenario, i int) ([]domain.Item, []domain.Item) {
	if i < len(s.OrderDetails) {
		det := s.OrderDetails[i]
		if det.Offer != nil || det.Consideration != nil {
			return det.Offer, det.Consideration
		}
	}
	return s.Orders[i].Offer, s.Orders[i].Consideration
}
