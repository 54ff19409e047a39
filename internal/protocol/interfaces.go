// Package protocol defines the interface boundary to the marketplace
// protocol under test: its callable entry points, its persisted order state,
// the privileged inscription calls that force that state directly, and the
// token/offerer surfaces the mutation engine touches. Implementations live
// in protocol/stub (in-process, scripted) and chainrpc (live node).
package protocol

import (
	"context"

	"fulfillment-mutation-lab/internal/domain"
)

// Call carries the caller identity and supplied native value for an entry
// point invocation.
type Call struct {
	Caller      string
	NativeValue uint64
}

// Marketplace exposes the protocol's entry points. Returned errors are
// transport-level only; protocol rejections surface as REVERT outcomes with
// the revert reason intact.
type Marketplace interface {
	// Fulfill fulfills a single order.
	Fulfill(ctx context.Context, call Call, order domain.Order) (domain.ExecOutcome, error)

	// FulfillAdvanced fulfills a single order with criteria resolution and
	// partial-fill support.
	FulfillAdvanced(ctx context.Context, call Call, order domain.Order, resolvers []domain.CriteriaResolver) (domain.ExecOutcome, error)

	// FulfillBasic fulfills a single order through the basic path.
	FulfillBasic(ctx context.Context, call Call, order domain.Order) (domain.ExecOutcome, error)

	// FulfillAvailable fulfills a batch, skipping individually failing orders.
	FulfillAvailable(ctx context.Context, call Call, orders []domain.Order) (domain.ExecOutcome, error)

	// FulfillAvailableAdvanced is the criteria-capable batch variant.
	FulfillAvailableAdvanced(ctx context.Context, call Call, orders []domain.Order, resolvers []domain.CriteriaResolver) (domain.ExecOutcome, error)

	// Match matches complementary orders.
	Match(ctx context.Context, call Call, orders []domain.Order) (domain.ExecOutcome, error)

	// MatchAdvanced is the criteria-capable match variant.
	MatchAdvanced(ctx context.Context, call Call, orders []domain.Order, resolvers []domain.CriteriaResolver) (domain.ExecOutcome, error)

	// Cancel cancels orders on behalf of their offerer.
	Cancel(ctx context.Context, call Call, orders []domain.Order) (domain.ExecOutcome, error)

	// Validate marks orders as validated on-chain.
	Validate(ctx context.Context, call Call, orders []domain.Order) (domain.ExecOutcome, error)
}

// StateReader reads persisted protocol order state.
type StateReader interface {
	// OrderStatus returns the persisted status for an order hash. Unknown
	// hashes return a zero status, not an error.
	OrderStatus(ctx context.Context, orderHash string) (domain.OrderStatus, error)
}

// StateWriter is the privileged inscription surface: it forces persisted
// order state directly, bypassing normal state transitions. Used only by
// applicators that need a pre-existing cancelled/filled state.
type StateWriter interface {
	// InscribeValidated sets the validated flag for an order hash.
	InscribeValidated(ctx context.Context, orderHash string, validated bool) error

	// InscribeCancelled sets the cancelled flag for an order hash.
	InscribeCancelled(ctx context.Context, orderHash string, cancelled bool) error

	// InscribeFill sets the filled fraction for an order hash.
	InscribeFill(ctx context.Context, orderHash string, numerator, denominator uint64) error
}

// TokenController manipulates token approvals under an impersonated owner
// identity.
type TokenController interface {
	// RevokeApproval revokes owner's approval of spender on token,
	// impersonating owner.
	RevokeApproval(ctx context.Context, token, owner, spender string) error
}

// OffererProbe performs live capability checks against code-bearing
// offerers and controls their scripted behavior.
type OffererProbe interface {
	// ValidSignature asks the offerer account whether it currently reports
	// successful signature validation for the given order hash. Errors from
	// the callee are returned as-is; callers treat them as a negative probe,
	// never as a failure to propagate.
	ValidSignature(ctx context.Context, offerer, orderHash string, signature []byte) (bool, error)

	// ForceRejection makes the offerer's validation callback report failure
	// for its next invocation. Used against contract-bound offerers.
	ForceRejection(ctx context.Context, offerer string) error
}
