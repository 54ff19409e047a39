package mutation

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"fulfillment-mutation-lab/internal/derivation"
	"fulfillment-mutation-lab/internal/domain"
	"fulfillment-mutation-lab/internal/protocol/stub"
	"fulfillment-mutation-lab/internal/scenario"
)

// execRecorder counts driver invocations and returns a fixed outcome.
type execRecorder struct {
	calls   int
	outcome domain.ExecOutcome
}

func (e *execRecorder) Exec(_ context.Context, _ *domain.Scenario) (domain.ExecOutcome, error) {
	e.calls++
	return e.outcome, nil
}

type testRig struct {
	apps   *Applicators
	exec   *execRecorder
	state  *stub.State
	tokens *stub.TokenController
	probe  *stub.OffererProbe
}

func newTestRig() *testRig {
	deriver := derivation.New(scenario.Address(99, false), nil, nil)
	state := stub.NewState()
	tokens := stub.NewTokenController()
	probe := stub.NewOffererProbe()
	exec := &execRecorder{outcome: domain.ExecOutcome{Status: domain.ExecStatusRevert, RevertReason: "expected"}}
	return &testRig{
		apps:   NewApplicators(deriver, state, tokens, probe, nil, exec),
		exec:   exec,
		state:  state,
		tokens: tokens,
		probe:  probe,
	}
}

func TestTruncateSignature(t *testing.T) {
	rig := newTestRig()
	s := scenario.SingleOrder(domain.EntryFulfill)

	out, err := rig.apps.TruncateSignature(context.Background(), s, 0)
	if err != nil {
		t.Fatalf("TruncateSignature failed: %v", err)
	}
	if len(s.Orders[0].Signature) != 0 {
		t.Error("signature not truncated")
	}
	if rig.exec.calls != 1 {
		t.Errorf("expected 1 exec call, got %d", rig.exec.calls)
	}
	if out.RevertReason != "expected" {
		t.Errorf("outcome not surfaced: %+v", out)
	}
}

func TestFlipSignatureBit(t *testing.T) {
	rig := newTestRig()
	s := scenario.SingleOrder(domain.EntryFulfill)
	orig := s.Orders[0].Signature[0]

	if _, err := rig.apps.FlipSignatureBit(context.Background(), s, 0); err != nil {
		t.Fatalf("FlipSignatureBit failed: %v", err)
	}
	if s.Orders[0].Signature[0] != orig^0x01 {
		t.Errorf("first byte %x, want %x", s.Orders[0].Signature[0], orig^0x01)
	}
}

func TestCorruptRecoveryByte(t *testing.T) {
	rig := newTestRig()
	s := scenario.SingleOrder(domain.EntryFulfill)

	if _, err := rig.apps.CorruptRecoveryByte(context.Background(), s, 0); err != nil {
		t.Fatalf("CorruptRecoveryByte failed: %v", err)
	}
	sig := s.Orders[0].Signature
	if sig[len(sig)-1] != 0xff {
		t.Errorf("recovery byte %x, want ff", sig[len(sig)-1])
	}
}

func TestFlipSaltBitLeavesSignatureAndCachedHash(t *testing.T) {
	rig := newTestRig()
	s := scenario.SingleOrder(domain.EntryFulfill)
	origSig := append([]byte(nil), s.Orders[0].Signature...)
	origHash := s.OrderHashes[0]
	origSalt := s.Orders[0].Salt

	if _, err := rig.apps.FlipSaltBit(context.Background(), s, 0); err != nil {
		t.Fatalf("FlipSaltBit failed: %v", err)
	}
	if s.Orders[0].Salt == origSalt {
		t.Error("salt unchanged")
	}
	if !reflect.DeepEqual(s.Orders[0].Signature, origSig) {
		t.Error("signature must stay untouched")
	}
	if s.OrderHashes[0] != origHash {
		t.Error("cached order hash must stay stale")
	}
}

func TestRevokeOffererApproval(t *testing.T) {
	rig := newTestRig()
	s := scenario.SingleOrder(domain.EntryFulfill)
	token := s.Orders[0].Offer[0].Token
	offerer := s.Orders[0].Offerer
	spender := scenario.Address(99, false) // marketplace, no conduit registered
	rig.tokens.Approve(token, offerer, spender)

	if _, err := rig.apps.RevokeOffererApproval(context.Background(), s, 0); err != nil {
		t.Fatalf("RevokeOffererApproval failed: %v", err)
	}
	if rig.tokens.Approved(token, offerer, spender) {
		t.Error("approval still in place")
	}
	if len(rig.tokens.Revoked()) != 1 {
		t.Errorf("expected 1 revocation, got %d", len(rig.tokens.Revoked()))
	}
}

func TestRevokeOffererApprovalNoMutableItem(t *testing.T) {
	rig := newTestRig()
	s := scenario.SingleOrder(domain.EntryFulfill)
	s.Orders[0].Offer[0] = domain.Item{Type: domain.ItemNative, Amount: 100}

	_, err := rig.apps.RevokeOffererApproval(context.Background(), s, 0)
	if !errors.Is(err, ErrNoMutableItem) {
		t.Errorf("expected ErrNoMutableItem, got %v", err)
	}
	if rig.exec.calls != 0 {
		t.Error("exec must not run when the mutation cannot apply")
	}
}

func TestUndersupplyNativeValue(t *testing.T) {
	rig := newTestRig()
	s := scenario.SingleOrder(domain.EntryFulfill) // minimum is 50

	if _, err := rig.apps.UndersupplyNativeValue(context.Background(), s); err != nil {
		t.Fatalf("UndersupplyNativeValue failed: %v", err)
	}
	if s.NativeValue != 49 {
		t.Errorf("native value %d, want 49", s.NativeValue)
	}
}

func TestStarveImpliedNativeTransfer(t *testing.T) {
	rig := newTestRig()
	s := scenario.SingleOrder(domain.EntryFulfill)
	s.ImpliedNativeTransfers = []uint64{30, 10, 20}

	if _, err := rig.apps.StarveImpliedNativeTransfer(context.Background(), s); err != nil {
		t.Fatalf("StarveImpliedNativeTransfer failed: %v", err)
	}
	if s.NativeValue != 40 {
		t.Errorf("native value %d, want 40 (50 minus smallest implied 10)", s.NativeValue)
	}
}

func TestDropResolverPreservesOrder(t *testing.T) {
	rig := newTestRig()
	s := scenario.CriteriaOrder(domain.EntryFulfillAdvanced, false)
	s.Resolvers = append(s.Resolvers, domain.CriteriaResolver{
		OrderIndex: 0,
		Side:       domain.SideConsideration,
		ItemIndex:  0,
		Identifier: 77,
	})
	first := s.Resolvers[0]

	if _, err := rig.apps.DropResolver(context.Background(), s, 1); err != nil {
		t.Fatalf("DropResolver failed: %v", err)
	}
	if len(s.Resolvers) != 1 {
		t.Fatalf("expected 1 resolver left, got %d", len(s.Resolvers))
	}
	if !reflect.DeepEqual(s.Resolvers[0], first) {
		t.Error("remaining resolver must equal the original first entry")
	}
}

func TestAppendOutOfRangeResolver(t *testing.T) {
	rig := newTestRig()
	s := scenario.SingleOrder(domain.EntryFulfillAdvanced)

	if _, err := rig.apps.AppendOutOfRangeResolver(context.Background(), s); err != nil {
		t.Fatalf("AppendOutOfRangeResolver failed: %v", err)
	}
	appended := s.Resolvers[len(s.Resolvers)-1]
	if appended.OrderIndex != len(s.Orders) {
		t.Errorf("appended order index %d, want %d (strictly past the end)", appended.OrderIndex, len(s.Orders))
	}
}

func TestAppendUncriteriedResolver(t *testing.T) {
	rig := newTestRig()
	s := scenario.SingleOrder(domain.EntryFulfillAdvanced)

	if _, err := rig.apps.AppendUncriteriedResolver(context.Background(), s, 0); err != nil {
		t.Fatalf("AppendUncriteriedResolver failed: %v", err)
	}
	appended := s.Resolvers[len(s.Resolvers)-1]
	if appended.OrderIndex != 0 || appended.Side != domain.SideOffer || appended.ItemIndex != 0 {
		t.Errorf("unexpected resolver target: %+v", appended)
	}
}

func TestCorruptWildcardProof(t *testing.T) {
	rig := newTestRig()
	s := scenario.CriteriaOrder(domain.EntryFulfillAdvanced, true)

	if _, err := rig.apps.CorruptWildcardProof(context.Background(), s, 0); err != nil {
		t.Fatalf("CorruptWildcardProof failed: %v", err)
	}
	proof := s.Resolvers[0].Proof
	if len(proof) != 1 {
		t.Fatalf("expected single placeholder element, got %d", len(proof))
	}
	for _, b := range proof[0] {
		if b != 0 {
			t.Error("placeholder element must be zero-valued")
		}
	}
}

func TestFlipCriteriaProofBit(t *testing.T) {
	rig := newTestRig()
	s := scenario.CriteriaOrder(domain.EntryFulfillAdvanced, false)
	orig := s.Resolvers[0].Proof[0][0]

	if _, err := rig.apps.FlipCriteriaProofBit(context.Background(), s, 0); err != nil {
		t.Fatalf("FlipCriteriaProofBit failed: %v", err)
	}
	if s.Resolvers[0].Proof[0][0] != orig^0x01 {
		t.Error("proof bit not flipped")
	}
}

func TestPostponeStartAndExpire(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	s := scenario.SingleOrder(domain.EntryFulfill)
	if _, err := rig.apps.PostponeStart(ctx, s, 0); err != nil {
		t.Fatalf("PostponeStart failed: %v", err)
	}
	now := time.Now().UnixMilli()
	if s.Orders[0].StartTime <= now {
		t.Error("start time not in the future")
	}
	if s.Orders[0].EndTime <= s.Orders[0].StartTime {
		t.Error("window inverted after postpone")
	}

	s = scenario.SingleOrder(domain.EntryFulfill)
	if _, err := rig.apps.ExpireOrder(ctx, s, 0); err != nil {
		t.Fatalf("ExpireOrder failed: %v", err)
	}
	if s.Orders[0].EndTime >= now {
		t.Error("end time not in the past")
	}
	if s.Orders[0].StartTime >= s.Orders[0].EndTime {
		t.Error("window inverted after expiry")
	}
}

func TestInscribeCancelled(t *testing.T) {
	rig := newTestRig()
	s := scenario.SingleOrder(domain.EntryFulfill)
	ctx := context.Background()

	if _, err := rig.apps.InscribeCancelled(ctx, s, 0); err != nil {
		t.Fatalf("InscribeCancelled failed: %v", err)
	}
	status, err := rig.state.OrderStatus(ctx, s.OrderHashes[0])
	if err != nil {
		t.Fatalf("OrderStatus failed: %v", err)
	}
	if !status.Cancelled {
		t.Error("cancelled flag not inscribed")
	}
}

func TestInscribeFullyFilled(t *testing.T) {
	rig := newTestRig()
	s := scenario.SingleOrder(domain.EntryFulfill)
	ctx := context.Background()

	if _, err := rig.apps.InscribeFullyFilled(ctx, s, 0); err != nil {
		t.Fatalf("InscribeFullyFilled failed: %v", err)
	}
	status, _ := rig.state.OrderStatus(ctx, s.OrderHashes[0])
	if !status.FullyFilled() {
		t.Errorf("expected fully filled status, got %+v", status)
	}
}

func TestShiftCallerOffOfferer(t *testing.T) {
	rig := newTestRig()
	s := scenario.SingleOrder(domain.EntryCancel)

	if _, err := rig.apps.ShiftCallerOffOfferer(context.Background(), s, 0); err != nil {
		t.Fatalf("ShiftCallerOffOfferer failed: %v", err)
	}
	if s.Caller == s.Orders[0].Offerer {
		t.Error("caller must differ from offerer")
	}
}

func TestForceContractOffererRejection(t *testing.T) {
	rig := newTestRig()
	s := scenario.SingleOrder(domain.EntryFulfillAdvanced)
	s.Orders[0].OrderType = domain.OrderTypeContract

	if _, err := rig.apps.ForceContractOffererRejection(context.Background(), s, 0); err != nil {
		t.Fatalf("ForceContractOffererRejection failed: %v", err)
	}
	rejections := rig.probe.Rejections()
	if len(rejections) != 1 || rejections[0] != s.Orders[0].Offerer {
		t.Errorf("unexpected rejections: %v", rejections)
	}
}

func TestBadTargetIsStructuralError(t *testing.T) {
	rig := newTestRig()
	s := scenario.SingleOrder(domain.EntryFulfill)

	if _, err := rig.apps.TruncateSignature(context.Background(), s, 5); !errors.Is(err, ErrNoTargetOrder) {
		t.Errorf("expected ErrNoTargetOrder, got %v", err)
	}
	if _, err := rig.apps.DropResolver(context.Background(), s, 0); !errors.Is(err, ErrNoTargetResolver) {
		t.Errorf("expected ErrNoTargetResolver, got %v", err)
	}
	if rig.exec.calls != 0 {
		t.Error("exec must not run on structural errors")
	}
}

func TestInscribeRequiresCachedHash(t *testing.T) {
	rig := newTestRig()
	s := scenario.SingleOrder(domain.EntryFulfill)
	s.OrderHashes = nil

	if _, err := rig.apps.InscribeCancelled(context.Background(), s, 0); !errors.Is(err, ErrNoTargetOrder) {
		t.Errorf("InscribeCancelled: expected ErrNoTargetOrder, got %v", err)
	}
	if _, err := rig.apps.InscribeFullyFilled(context.Background(), s, 0); !errors.Is(err, ErrNoTargetOrder) {
		t.Errorf("InscribeFullyFilled: expected ErrNoTargetOrder, got %v", err)
	}
	if rig.exec.calls != 0 {
		t.Error("exec must not run without a cached order hash")
	}
}
