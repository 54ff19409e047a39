// Package mutation applies targeted perturbations to valid scenarios and
// hands them to the execution driver. Each applicator performs exactly one
// semantically named change; outcome assertion belongs to the external
// checker, never to an applicator.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fulfillment-mutation-lab/internal/domain"
	"fulfillment-mutation-lab/internal/eligibility"
	"fulfillment-mutation-lab/internal/idhash"
	"fulfillment-mutation-lab/internal/identity"
	"fulfillment-mutation-lab/internal/protocol"
)

// Applicator errors. These indicate targets the matching filter would have
// rejected: hitting one is a programmer error in the selection wiring, not
// an expected outcome.
var (
	ErrNoTargetOrder      = errors.New("mutation: target order out of range")
	ErrNoTargetResolver   = errors.New("mutation: target resolver out of range")
	ErrNoMutableItem      = errors.New("mutation: no item satisfies the mutation's precondition")
	ErrEmptySignature     = errors.New("mutation: order carries no signature to corrupt")
	ErrUnknownFailureMode = errors.New("mutation: unknown failure mode")
)

// Exec drives the scenario's entry point after a mutation.
type Exec interface {
	Exec(ctx context.Context, s *domain.Scenario) (domain.ExecOutcome, error)
}

// Signer re-signs an order when a mutation changes what the offerer signs.
// The collaborator is external; applicators that do not change signed fields
// never use it.
type Signer interface {
	Sign(ctx context.Context, offerer, orderHash string) ([]byte, error)
}

// Timing shift applied when moving an order outside its validity window.
const windowShift = time.Hour

// Applicators holds the collaborators mutations act through.
type Applicators struct {
	deriver eligibility.Deriver
	state   protocol.StateWriter
	tokens  protocol.TokenController
	probe   protocol.OffererProbe
	signer  Signer
	exec    Exec
}

// NewApplicators creates the applicator set. signer may be nil when no
// mutation requiring a re-sign will run (contract orders, unsigned flows).
func NewApplicators(deriver eligibility.Deriver, state protocol.StateWriter, tokens protocol.TokenController, probe protocol.OffererProbe, signer Signer, exec Exec) *Applicators {
	return &Applicators{
		deriver: deriver,
		state:   state,
		tokens:  tokens,
		probe:   probe,
		signer:  signer,
		exec:    exec,
	}
}

func (a *Applicators) targetOrder(s *domain.Scenario, i int) (*domain.Order, error) {
	if i < 0 || i >= len(s.Orders) {
		return nil, fmt.Errorf("%w: %d of %d", ErrNoTargetOrder, i, len(s.Orders))
	}
	return &s.Orders[i], nil
}

// targetOrderHash returns the cached hash for order i. The hash cache can be
// shorter than the order list; an order without a cached hash is as
// untargetable as one out of bounds.
func (a *Applicators) targetOrderHash(s *domain.Scenario, i int) (string, error) {
	if i < 0 || i >= len(s.Orders) || i >= len(s.OrderHashes) {
		return "", fmt.Errorf("%w: %d of %d hashed", ErrNoTargetOrder, i, len(s.OrderHashes))
	}
	return s.OrderHashes[i], nil
}

func (a *Applicators) targetResolver(s *domain.Scenario, r int) (*domain.CriteriaResolver, error) {
	if r < 0 || r >= len(s.Resolvers) {
		return nil, fmt.Errorf("%w: %d of %d", ErrNoTargetResolver, r, len(s.Resolvers))
	}
	return &s.Resolvers[r], nil
}

// TruncateSignature empties the offerer signature.
func (a *Applicators) TruncateSignature(ctx context.Context, s *domain.Scenario, i int) (domain.ExecOutcome, error) {
	o, err := a.targetOrder(s, i)
	if err != nil {
		return domain.ExecOutcome{}, err
	}
	o.Signature = nil
	return a.exec.Exec(ctx, s)
}

// FlipSignatureBit flips the lowest bit of the first signature byte.
func (a *Applicators) FlipSignatureBit(ctx context.Context, s *domain.Scenario, i int) (domain.ExecOutcome, error) {
	o, err := a.targetOrder(s, i)
	if err != nil {
		return domain.ExecOutcome{}, err
	}
	if len(o.Signature) == 0 {
		return domain.ExecOutcome{}, ErrEmptySignature
	}
	o.Signature[0] ^= 0x01
	return a.exec.Exec(ctx, s)
}

// CorruptRecoveryByte sets the final signature byte (the recovery id) to a
// value no recovery scheme accepts.
func (a *Applicators) CorruptRecoveryByte(ctx context.Context, s *domain.Scenario, i int) (domain.ExecOutcome, error) {
	o, err := a.targetOrder(s, i)
	if err != nil {
		return domain.ExecOutcome{}, err
	}
	if len(o.Signature) == 0 {
		return domain.ExecOutcome{}, ErrEmptySignature
	}
	o.Signature[len(o.Signature)-1] = 0xff
	return a.exec.Exec(ctx, s)
}

// FlipSaltBit flips one salt bit, leaving the signature untouched: the
// order hash underneath the signature moves, so recovery yields an
// unintended signer. The cached order hash is deliberately left stale; it
// identifies the original order for status queries.
func (a *Applicators) FlipSaltBit(ctx context.Context, s *domain.Scenario, i int) (domain.ExecOutcome, error) {
	o, err := a.targetOrder(s, i)
	if err != nil {
		return domain.ExecOutcome{}, err
	}
	o.Salt ^= 1
	return a.exec.Exec(ctx, s)
}

// ForceContractOffererRejection makes a contract-bound offerer's validation
// callback report failure for this one call.
func (a *Applicators) ForceContractOffererRejection(ctx context.Context, s *domain.Scenario, i int) (domain.ExecOutcome, error) {
	o, err := a.targetOrder(s, i)
	if err != nil {
		return domain.ExecOutcome{}, err
	}
	if err := a.probe.ForceRejection(ctx, o.Offerer); err != nil {
		return domain.ExecOutcome{}, fmt.Errorf("force offerer rejection: %w", err)
	}
	return a.exec.Exec(ctx, s)
}

// RevokeOffererApproval revokes the offerer's approval for the first offer
// item still requiring one, impersonating the offerer.
func (a *Applicators) RevokeOffererApproval(ctx context.Context, s *domain.Scenario, i int) (domain.ExecOutcome, error) {
	o, err := a.targetOrder(s, i)
	if err != nil {
		return domain.ExecOutcome{}, err
	}
	spender := a.deriver.ApprovalTarget(s, o)
	for _, item := range o.Offer {
		if a.deriver.IsFilteredOrNative(item, o.Offerer, o.ConduitKey) {
			continue
		}
		if err := a.tokens.RevokeApproval(ctx, item.Token, o.Offerer, spender); err != nil {
			return domain.ExecOutcome{}, fmt.Errorf("revoke offerer approval: %w", err)
		}
		return a.exec.Exec(ctx, s)
	}
	return domain.ExecOutcome{}, ErrNoMutableItem
}

// RevokeCallerApproval revokes the caller's approval for the first
// consideration item still requiring one, impersonating the caller. On the
// basic path with a fungible first offer item only the first consideration
// item is collected from the caller, so only that one is considered.
func (a *Applicators) RevokeCallerApproval(ctx context.Context, s *domain.Scenario, i int) (domain.ExecOutcome, error) {
	o, err := a.targetOrder(s, i)
	if err != nil {
		return domain.ExecOutcome{}, err
	}
	items := o.Consideration
	if s.EntryPoint.Basic() && len(o.Offer) > 0 && o.Offer[0].Type == domain.ItemFungible {
		if len(items) == 0 {
			return domain.ExecOutcome{}, ErrNoMutableItem
		}
		items = items[:1]
	}
	spender := a.deriver.ApprovalTarget(s, nil)
	for _, item := range items {
		if a.deriver.IsFilteredOrNative(item, o.Offerer, o.ConduitKey) {
			continue
		}
		if err := a.tokens.RevokeApproval(ctx, item.Token, s.Caller, spender); err != nil {
			return domain.ExecOutcome{}, fmt.Errorf("revoke caller approval: %w", err)
		}
		return a.exec.Exec(ctx, s)
	}
	return domain.ExecOutcome{}, ErrNoMutableItem
}

// UndersupplyNativeValue reduces the supplied native value to one unit
// below the computed minimum.
func (a *Applicators) UndersupplyNativeValue(ctx context.Context, s *domain.Scenario) (domain.ExecOutcome, error) {
	required := a.deriver.MinimumNativeValue(s)
	if required == 0 {
		return domain.ExecOutcome{}, ErrNoMutableItem
	}
	s.NativeValue = required - 1
	return a.exec.Exec(ctx, s)
}

// StarveImpliedNativeTransfer removes exactly enough supplied value to
// cover the smallest implied native transfer: the upfront minimum check
// still passes, and the failure surfaces at transfer time.
func (a *Applicators) StarveImpliedNativeTransfer(ctx context.Context, s *domain.Scenario) (domain.ExecOutcome, error) {
	if len(s.ImpliedNativeTransfers) == 0 {
		return domain.ExecOutcome{}, ErrNoMutableItem
	}
	smallest := s.ImpliedNativeTransfers[0]
	for _, amt := range s.ImpliedNativeTransfers[1:] {
		if amt < smallest {
			smallest = amt
		}
	}
	if smallest > s.NativeValue {
		s.NativeValue = 0
	} else {
		s.NativeValue -= smallest
	}
	return a.exec.Exec(ctx, s)
}

// SubstituteUnregisteredConduit replaces the order's conduit key with one
// guaranteed to be unregistered, re-signs the order (the key is a signed
// field), and re-derives the dependent caches.
func (a *Applicators) SubstituteUnregisteredConduit(ctx context.Context, s *domain.Scenario, i int) (domain.ExecOutcome, error) {
	o, err := a.targetOrder(s, i)
	if err != nil {
		return domain.ExecOutcome{}, err
	}
	o.ConduitKey = domain.UnregisteredConduitKey

	hash := idhash.ComputeOrderHash(o)
	if i < len(s.OrderHashes) {
		s.OrderHashes[i] = hash
	}
	if a.signer != nil && !o.OrderType.Contract() {
		sig, err := a.signer.Sign(ctx, o.Offerer, hash)
		if err != nil {
			return domain.ExecOutcome{}, fmt.Errorf("re-sign after conduit substitution: %w", err)
		}
		o.Signature = sig
	}
	if der, err := a.deriver.DeriveExecutions(s, s.NativeValue); err == nil {
		s.ImpliedNativeTransfers = der.NativeAmounts()
	}
	return a.exec.Exec(ctx, s)
}

// FlipCriteriaProofBit flips one bit in the first element of an existing
// merkle membership proof.
func (a *Applicators) FlipCriteriaProofBit(ctx context.Context, s *domain.Scenario, r int) (domain.ExecOutcome, error) {
	res, err := a.targetResolver(s, r)
	if err != nil {
		return domain.ExecOutcome{}, err
	}
	if len(res.Proof) == 0 || len(res.Proof[0]) == 0 {
		return domain.ExecOutcome{}, ErrNoMutableItem
	}
	res.Proof[0][0] ^= 0x01
	return a.exec.Exec(ctx, s)
}

// CorruptWildcardProof replaces an empty (wildcard) proof with a single
// zero-valued placeholder element, forcing the merkle path on a resolver
// that must take the wildcard path.
func (a *Applicators) CorruptWildcardProof(ctx context.Context, s *domain.Scenario, r int) (domain.ExecOutcome, error) {
	res, err := a.targetResolver(s, r)
	if err != nil {
		return domain.ExecOutcome{}, err
	}
	res.Proof = [][]byte{make([]byte, 32)}
	return a.exec.Exec(ctx, s)
}

// AppendUncriteriedResolver appends a resolver for the first item slot on
// the order that never declared criteria.
func (a *Applicators) AppendUncriteriedResolver(ctx context.Context, s *domain.Scenario, i int) (domain.ExecOutcome, error) {
	o, err := a.targetOrder(s, i)
	if err != nil {
		return domain.ExecOutcome{}, err
	}
	side, slot := domain.SideOffer, -1
	for idx, item := range o.Offer {
		if !item.Type.HasCriteria() {
			slot = idx
			break
		}
	}
	if slot < 0 {
		side = domain.SideConsideration
		for idx, item := range o.Consideration {
			if !item.Type.HasCriteria() {
				slot = idx
				break
			}
		}
	}
	if slot < 0 {
		return domain.ExecOutcome{}, ErrNoMutableItem
	}
	s.Resolvers = append(s.Resolvers, domain.CriteriaResolver{
		OrderIndex: i,
		Side:       side,
		ItemIndex:  slot,
	})
	return a.exec.Exec(ctx, s)
}

// AppendOutOfRangeResolver appends a resolver whose order index is strictly
// past the end of the order list. This is a deliberately invalid new entry;
// no existing entry is touched.
func (a *Applicators) AppendOutOfRangeResolver(ctx context.Context, s *domain.Scenario) (domain.ExecOutcome, error) {
	s.Resolvers = append(s.Resolvers, domain.CriteriaResolver{
		OrderIndex: len(s.Orders),
		Side:       domain.SideOffer,
	})
	return a.exec.Exec(ctx, s)
}

// DropResolver removes resolver r, leaving its criteria item unresolved.
// The relative order of the remaining resolvers is preserved.
func (a *Applicators) DropResolver(ctx context.Context, s *domain.Scenario, r int) (domain.ExecOutcome, error) {
	if _, err := a.targetResolver(s, r); err != nil {
		return domain.ExecOutcome{}, err
	}
	s.Resolvers = append(s.Resolvers[:r], s.Resolvers[r+1:]...)
	return a.exec.Exec(ctx, s)
}

// PostponeStart shifts the order's start time past now.
func (a *Applicators) PostponeStart(ctx context.Context, s *domain.Scenario, i int) (domain.ExecOutcome, error) {
	o, err := a.targetOrder(s, i)
	if err != nil {
		return domain.ExecOutcome{}, err
	}
	now := time.Now().UnixMilli()
	o.StartTime = now + windowShift.Milliseconds()
	if o.EndTime <= o.StartTime {
		o.EndTime = o.StartTime + windowShift.Milliseconds()
	}
	return a.exec.Exec(ctx, s)
}

// ExpireOrder shifts the order's end time before now.
func (a *Applicators) ExpireOrder(ctx context.Context, s *domain.Scenario, i int) (domain.ExecOutcome, error) {
	o, err := a.targetOrder(s, i)
	if err != nil {
		return domain.ExecOutcome{}, err
	}
	now := time.Now().UnixMilli()
	o.EndTime = now - windowShift.Milliseconds()
	if o.StartTime >= o.EndTime {
		o.StartTime = o.EndTime - windowShift.Milliseconds()
	}
	return a.exec.Exec(ctx, s)
}

// ZeroFillFraction sets the requested fill to 0/denominator.
func (a *Applicators) ZeroFillFraction(ctx context.Context, s *domain.Scenario, i int) (domain.ExecOutcome, error) {
	o, err := a.targetOrder(s, i)
	if err != nil {
		return domain.ExecOutcome{}, err
	}
	o.Numerator = 0
	return a.exec.Exec(ctx, s)
}

// OverfillFraction sets the requested fill above the whole order (2/1).
func (a *Applicators) OverfillFraction(ctx context.Context, s *domain.Scenario, i int) (domain.ExecOutcome, error) {
	o, err := a.targetOrder(s, i)
	if err != nil {
		return domain.ExecOutcome{}, err
	}
	o.Numerator, o.Denominator = 2, 1
	return a.exec.Exec(ctx, s)
}

// IrreducibleFillFraction sets a fraction that reduces, but not to the
// fully-filled ratio (6/9), probing contract-order partial-fill
// arithmetic.
func (a *Applicators) IrreducibleFillFraction(ctx context.Context, s *domain.Scenario, i int) (domain.ExecOutcome, error) {
	o, err := a.targetOrder(s, i)
	if err != nil {
		return domain.ExecOutcome{}, err
	}
	o.Numerator, o.Denominator = 6, 9
	return a.exec.Exec(ctx, s)
}

// InscribeCancelled forces the order's persisted status to cancelled via
// the privileged inscription call.
func (a *Applicators) InscribeCancelled(ctx context.Context, s *domain.Scenario, i int) (domain.ExecOutcome, error) {
	hash, err := a.targetOrderHash(s, i)
	if err != nil {
		return domain.ExecOutcome{}, err
	}
	if err := a.state.InscribeCancelled(ctx, hash, true); err != nil {
		return domain.ExecOutcome{}, fmt.Errorf("inscribe cancelled: %w", err)
	}
	return a.exec.Exec(ctx, s)
}

// InscribeFullyFilled forces the order's persisted fill to the fully-filled
// fraction via the privileged inscription call.
func (a *Applicators) InscribeFullyFilled(ctx context.Context, s *domain.Scenario, i int) (domain.ExecOutcome, error) {
	hash, err := a.targetOrderHash(s, i)
	if err != nil {
		return domain.ExecOutcome{}, err
	}
	if err := a.state.InscribeFill(ctx, hash, 1, 1); err != nil {
		return domain.ExecOutcome{}, fmt.Errorf("inscribe fill: %w", err)
	}
	return a.exec.Exec(ctx, s)
}

// ShiftCallerOffOfferer moves the caller to the address one below the
// offerer's, guaranteed distinct from it.
func (a *Applicators) ShiftCallerOffOfferer(ctx context.Context, s *domain.Scenario, i int) (domain.ExecOutcome, error) {
	o, err := a.targetOrder(s, i)
	if err != nil {
		return domain.ExecOutcome{}, err
	}
	caller, err := identity.Decrement(o.Offerer)
	if err != nil {
		return domain.ExecOutcome{}, fmt.Errorf("shift caller: %w", err)
	}
	s.Caller = caller
	return a.exec.Exec(ctx, s)
}
