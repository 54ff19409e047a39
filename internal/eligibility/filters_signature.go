package eligibility

import (
	"context"

	"fulfillment-mutation-lab/internal/domain"
	"fulfillment-mutation-lab/internal/identity"
)

// Signature-family filters form a chain: signatureFailurePossible gates all
// of them, then each variant narrows by offerer account kind. Code-less
// (on-curve) offerers take the recovery-based variants; code-bearing
// offerers validate signatures themselves and are probed live before a
// mutation is attempted against them.

// signatureFailurePossible is the shared gate: the order must be reachable,
// must actually carry an offerer signature to corrupt, and the signature
// must still be checked at execution time. Contract-bound orders carry no
// signature; an offerer fulfilling its own order skips verification; an
// order already validated on-chain is never re-verified; cancel never
// verifies signatures.
func (f *Filters) signatureFailurePossible(ctx context.Context, s *domain.Scenario, i int) bool {
	if unavailable(s, i) {
		return false
	}
	if s.EntryPoint == domain.EntryCancel {
		return false
	}
	o := &s.Orders[i]
	if o.OrderType.Contract() {
		return false
	}
	if o.Offerer == s.Caller {
		return false
	}
	status, err := f.state.OrderStatus(ctx, orderHash(s, i))
	if err != nil {
		return false
	}
	return !status.Validated
}

// offererCodeless reports whether the offerer is a code-less account, i.e.
// its address is a valid curve point.
func offererCodeless(o *domain.Order) bool {
	return identity.OnCurve(o.Offerer)
}

// SignatureTruncatedEligible reports whether truncating the offerer
// signature to empty can fail verification. Works for both account kinds;
// code-bearing offerers are probed first to confirm they currently report
// valid signatures, since corrupting input to an already-failing validator
// proves nothing. A probe error counts as a negative probe.
func (f *Filters) SignatureTruncatedEligible(ctx context.Context, s *domain.Scenario, i int) bool {
	if !f.signatureFailurePossible(ctx, s, i) {
		return false
	}
	o := &s.Orders[i]
	if offererCodeless(o) {
		return true
	}
	ok, err := f.probe.ValidSignature(ctx, o.Offerer, orderHash(s, i), o.Signature)
	if err != nil {
		return false
	}
	return ok
}

// SignatureBitFlippedEligible reports whether flipping a low bit of the
// first signature byte can fail verification. Only meaningful for code-less
// offerers, where verification recovers a signer from the bytes.
func (f *Filters) SignatureBitFlippedEligible(ctx context.Context, s *domain.Scenario, i int) bool {
	if !f.signatureFailurePossible(ctx, s, i) {
		return false
	}
	o := &s.Orders[i]
	return offererCodeless(o) && len(o.Signature) > 0
}

// SignatureBadRecoveryEligible reports whether corrupting the trailing
// recovery byte can fail verification. Code-less offerers only.
func (f *Filters) SignatureBadRecoveryEligible(ctx context.Context, s *domain.Scenario, i int) bool {
	if !f.signatureFailurePossible(ctx, s, i) {
		return false
	}
	o := &s.Orders[i]
	return offererCodeless(o) && len(o.Signature) > 0
}

// SaltChangedEligible reports whether flipping a salt bit can make recovery
// yield an unintended signer. The signature itself stays intact; the order
// hash underneath it moves. Code-less offerers only.
func (f *Filters) SaltChangedEligible(ctx context.Context, s *domain.Scenario, i int) bool {
	if !f.signatureFailurePossible(ctx, s, i) {
		return false
	}
	o := &s.Orders[i]
	return offererCodeless(o) && len(o.Signature) > 0
}

// ContractOffererRejectsEligible reports whether forcing the offerer's
// validation callback to fail can surface. Requires a reachable
// contract-bound order; its rejection reverts even batch calls, so
// aggregate entry points stay eligible.
func (f *Filters) ContractOffererRejectsEligible(s *domain.Scenario, i int) bool {
	if unavailable(s, i) {
		return false
	}
	if !transferring(s.EntryPoint) {
		return false
	}
	return s.Orders[i].OrderType.Contract()
}
