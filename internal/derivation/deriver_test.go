package derivation

import (
	"errors"
	"testing"

	"fulfillment-mutation-lab/internal/domain"
	"fulfillment-mutation-lab/internal/scenario"
)

func newTestDeriver() *Deriver {
	return New("marketplace-addr",
		map[string]string{"conduit-1": "conduit-1-addr"},
		map[string]bool{"conduit-pre": true})
}

func TestDeriveExecutionsFulfill(t *testing.T) {
	d := newTestDeriver()
	s := scenario.SingleOrder(domain.EntryFulfill)

	der, err := d.DeriveExecutions(s, 50)
	if err != nil {
		t.Fatalf("DeriveExecutions: %v", err)
	}
	if len(der.Explicit) != 2 {
		t.Fatalf("expected 2 explicit transfers, got %d", len(der.Explicit))
	}

	offer := der.Explicit[0]
	if offer.From != s.Orders[0].Offerer || offer.To != s.Caller {
		t.Errorf("offer transfer endpoints wrong: %+v", offer)
	}
	if offer.Item.Type != domain.ItemFungible || offer.Item.Amount != 100 {
		t.Errorf("offer item wrong: %+v", offer.Item)
	}

	consideration := der.Explicit[1]
	if consideration.From != s.Caller || consideration.To != s.Orders[0].Offerer {
		t.Errorf("consideration transfer endpoints wrong: %+v", consideration)
	}
	if consideration.ConduitKey != "" {
		t.Errorf("consideration should transfer directly, got conduit %q", consideration.ConduitKey)
	}

	// Supplied value exactly covers the native consideration.
	if len(der.ImplicitPost) != 0 {
		t.Errorf("expected no implicit return, got %+v", der.ImplicitPost)
	}
}

func TestDeriveExecutionsExcessValueReturns(t *testing.T) {
	d := newTestDeriver()
	s := scenario.SingleOrder(domain.EntryFulfill)

	der, err := d.DeriveExecutions(s, 80)
	if err != nil {
		t.Fatalf("DeriveExecutions: %v", err)
	}
	if len(der.ImplicitPost) != 1 {
		t.Fatalf("expected 1 implicit return, got %d", len(der.ImplicitPost))
	}
	ret := der.ImplicitPost[0]
	if ret.Item.Type != domain.ItemNative || ret.Item.Amount != 30 {
		t.Errorf("return amount wrong: %+v", ret.Item)
	}
	if ret.To != s.Caller {
		t.Errorf("return should go to the caller, got %s", ret.To)
	}
}

func TestDeriveExecutionsMatch(t *testing.T) {
	d := newTestDeriver()
	s := scenario.MatchPair(domain.EntryMatch)

	der, err := d.DeriveExecutions(s, 0)
	if err != nil {
		t.Fatalf("DeriveExecutions: %v", err)
	}
	if len(der.Explicit) != 4 {
		t.Fatalf("expected 4 explicit transfers, got %d", len(der.Explicit))
	}
	for _, e := range der.Explicit {
		if e.From == s.Caller || e.To == s.Caller {
			t.Errorf("match transfer touches the caller: %+v", e)
		}
	}
	if len(der.ImplicitPost) != 0 {
		t.Errorf("match should produce no implicit return, got %+v", der.ImplicitPost)
	}
}

func TestDeriveExecutionsSkipsUnavailable(t *testing.T) {
	d := newTestDeriver()
	s := scenario.MatchPair(domain.EntryMatch)
	s.Available[1] = false

	der, err := d.DeriveExecutions(s, 0)
	if err != nil {
		t.Fatalf("DeriveExecutions: %v", err)
	}
	if len(der.Explicit) != 2 {
		t.Errorf("unavailable order contributed transfers: %d", len(der.Explicit))
	}
	for _, e := range der.Explicit {
		if e.From != s.Orders[0].Offerer && e.To != s.Orders[0].Offerer {
			t.Errorf("transfer not from the available order: %+v", e)
		}
	}
}

func TestDeriveExecutionsNoOrders(t *testing.T) {
	d := newTestDeriver()
	s := &domain.Scenario{EntryPoint: domain.EntryFulfill}

	if _, err := d.DeriveExecutions(s, 0); !errors.Is(err, ErrNoOrders) {
		t.Errorf("expected ErrNoOrders, got %v", err)
	}
}

func TestDeriveExecutionsUsesResolvedDetails(t *testing.T) {
	d := newTestDeriver()
	s := scenario.CriteriaOrder(domain.EntryFulfillAdvanced, false)

	der, err := d.DeriveExecutions(s, 50)
	if err != nil {
		t.Fatalf("DeriveExecutions: %v", err)
	}
	// The offer item carries criteria; derivation must see the resolved
	// identifier, not the criteria root.
	offer := der.Explicit[0]
	if offer.Item.Type != domain.ItemNonFungible || offer.Item.Identifier != 42 {
		t.Errorf("derivation ignored resolved details: %+v", offer.Item)
	}
}

func TestMinimumNativeValue(t *testing.T) {
	d := newTestDeriver()

	if got := d.MinimumNativeValue(scenario.SingleOrder(domain.EntryFulfill)); got != 50 {
		t.Errorf("fulfill minimum = %d, want 50", got)
	}
	if got := d.MinimumNativeValue(scenario.MatchPair(domain.EntryMatch)); got != 0 {
		t.Errorf("match minimum = %d, want 0", got)
	}
	if got := d.MinimumNativeValue(scenario.SingleOrder(domain.EntryCancel)); got != 0 {
		t.Errorf("cancel minimum = %d, want 0", got)
	}

	s := scenario.SingleOrder(domain.EntryFulfill)
	s.Available[0] = false
	if got := d.MinimumNativeValue(s); got != 0 {
		t.Errorf("unavailable order counted: %d", got)
	}
}

func TestIsFilteredOrNative(t *testing.T) {
	d := newTestDeriver()
	offerer := scenario.Address(1, true)

	native := domain.Item{Type: domain.ItemNative, Amount: 10}
	if !d.IsFilteredOrNative(native, offerer, "") {
		t.Error("native item should be exempt")
	}

	fungible := domain.Item{Type: domain.ItemFungible, Token: scenario.Address(10, false), Amount: 10}
	if d.IsFilteredOrNative(fungible, offerer, "") {
		t.Error("direct fungible item should not be exempt")
	}
	if !d.IsFilteredOrNative(fungible, offerer, "conduit-pre") {
		t.Error("pre-approved conduit item should be exempt")
	}
	if d.IsFilteredOrNative(fungible, offerer, "conduit-1") {
		t.Error("registered but not pre-approved conduit should not exempt")
	}
}

func TestApprovalTarget(t *testing.T) {
	d := newTestDeriver()
	s := scenario.SingleOrder(domain.EntryFulfill)

	if got := d.ApprovalTarget(s, &s.Orders[0]); got != "marketplace-addr" {
		t.Errorf("direct order spender = %s, want marketplace", got)
	}

	s.Orders[0].ConduitKey = "conduit-1"
	if got := d.ApprovalTarget(s, &s.Orders[0]); got != "conduit-1-addr" {
		t.Errorf("conduit order spender = %s, want conduit address", got)
	}

	s.Orders[0].ConduitKey = "unknown-key"
	if got := d.ApprovalTarget(s, &s.Orders[0]); got != "marketplace-addr" {
		t.Errorf("unregistered conduit spender = %s, want marketplace", got)
	}
}
