// Package stub provides in-process, scripted implementations of the
// protocol interfaces for tests and single-iteration CLI runs.
package stub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fulfillment-mutation-lab/internal/domain"
	"fulfillment-mutation-lab/internal/protocol"
	"fulfillment-mutation-lab/internal/storage"
	"fulfillment-mutation-lab/internal/storage/memory"
)

// Marketplace is a scripted protocol.Marketplace. Every entry point records
// the invocation and returns the configured outcome. OutcomeFn, when set,
// overrides Outcome per call.
type Marketplace struct {
	mu sync.Mutex

	Outcome   domain.ExecOutcome
	Err       error
	OutcomeFn func(entry domain.EntryPoint, call protocol.Call) domain.ExecOutcome

	calls []RecordedCall
}

// RecordedCall is one recorded entry point invocation.
type RecordedCall struct {
	Entry     domain.EntryPoint
	Call      protocol.Call
	Orders    []domain.Order
	Resolvers []domain.CriteriaResolver
}

// NewMarketplace creates a stub marketplace that reports success.
func NewMarketplace() *Marketplace {
	return &Marketplace{Outcome: domain.ExecOutcome{Status: domain.ExecStatusSuccess}}
}

// Calls returns the recorded invocations.
func (m *Marketplace) Calls() []RecordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *Marketplace) record(entry domain.EntryPoint, call protocol.Call, orders []domain.Order, resolvers []domain.CriteriaResolver) (domain.ExecOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, RecordedCall{Entry: entry, Call: call, Orders: orders, Resolvers: resolvers})
	if m.Err != nil {
		return domain.ExecOutcome{}, m.Err
	}
	if m.OutcomeFn != nil {
		return m.OutcomeFn(entry, call), nil
	}
	return m.Outcome, nil
}

// Fulfill implements protocol.Marketplace.
func (m *Marketplace) Fulfill(_ context.Context, call protocol.Call, order domain.Order) (domain.ExecOutcome, error) {
	return m.record(domain.EntryFulfill, call, []domain.Order{order}, nil)
}

// FulfillAdvanced implements protocol.Marketplace.
func (m *Marketplace) FulfillAdvanced(_ context.Context, call protocol.Call, order domain.Order, resolvers []domain.CriteriaResolver) (domain.ExecOutcome, error) {
	return m.record(domain.EntryFulfillAdvanced, call, []domain.Order{order}, resolvers)
}

// FulfillBasic implements protocol.Marketplace.
func (m *Marketplace) FulfillBasic(_ context.Context, call protocol.Call, order domain.Order) (domain.ExecOutcome, error) {
	return m.record(domain.EntryFulfillBasic, call, []domain.Order{order}, nil)
}

// FulfillAvailable implements protocol.Marketplace.
func (m *Marketplace) FulfillAvailable(_ context.Context, call protocol.Call, orders []domain.Order) (domain.ExecOutcome, error) {
	return m.record(domain.EntryFulfillAvailable, call, orders, nil)
}

// FulfillAvailableAdvanced implements protocol.Marketplace.
func (m *Marketplace) FulfillAvailableAdvanced(_ context.Context, call protocol.Call, orders []domain.Order, resolvers []domain.CriteriaResolver) (domain.ExecOutcome, error) {
	return m.record(domain.EntryFulfillAvailableAdvanced, call, orders, resolvers)
}

// Match implements protocol.Marketplace.
func (m *Marketplace) Match(_ context.Context, call protocol.Call, orders []domain.Order) (domain.ExecOutcome, error) {
	return m.record(domain.EntryMatch, call, orders, nil)
}

// MatchAdvanced implements protocol.Marketplace.
func (m *Marketplace) MatchAdvanced(_ context.Context, call protocol.Call, orders []domain.Order, resolvers []domain.CriteriaResolver) (domain.ExecOutcome, error) {
	return m.record(domain.EntryMatchAdvanced, call, orders, resolvers)
}

// Cancel implements protocol.Marketplace.
func (m *Marketplace) Cancel(_ context.Context, call protocol.Call, orders []domain.Order) (domain.ExecOutcome, error) {
	return m.record(domain.EntryCancel, call, orders, nil)
}

// Validate implements protocol.Marketplace.
func (m *Marketplace) Validate(_ context.Context, call protocol.Call, orders []domain.Order) (domain.ExecOutcome, error) {
	return m.record(domain.EntryValidate, call, orders, nil)
}

// State is a StateReader + StateWriter over an order-status store. The mutex
// makes each inscription's read-modify-write atomic.
type State struct {
	mu       sync.Mutex
	statuses storage.OrderStatusStore
}

// NewState creates a state surface over a fresh in-memory store.
func NewState() *State {
	return NewStateWith(memory.NewOrderStatusStore())
}

// NewStateWith creates a state surface over the given store, so tests and
// CLI runs can share one status store between the protocol side and the
// persistence side.
func NewStateWith(statuses storage.OrderStatusStore) *State {
	return &State{statuses: statuses}
}

// OrderStatus implements protocol.StateReader. Unknown hashes report a zero
// status, not an error.
func (s *State) OrderStatus(ctx context.Context, orderHash string) (domain.OrderStatus, error) {
	st, err := s.statuses.Get(ctx, orderHash)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.OrderStatus{}, nil
	}
	return st, err
}

// InscribeValidated implements protocol.StateWriter.
func (s *State) InscribeValidated(ctx context.Context, orderHash string, validated bool) error {
	return s.update(ctx, orderHash, func(st *domain.OrderStatus) {
		st.Validated = validated
	})
}

// InscribeCancelled implements protocol.StateWriter.
func (s *State) InscribeCancelled(ctx context.Context, orderHash string, cancelled bool) error {
	return s.update(ctx, orderHash, func(st *domain.OrderStatus) {
		st.Cancelled = cancelled
	})
}

// InscribeFill implements protocol.StateWriter.
func (s *State) InscribeFill(ctx context.Context, orderHash string, numerator, denominator uint64) error {
	return s.update(ctx, orderHash, func(st *domain.OrderStatus) {
		st.FilledNumerator = numerator
		st.FilledDenominator = denominator
	})
}

func (s *State) update(ctx context.Context, orderHash string, mutate func(*domain.OrderStatus)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.statuses.Get(ctx, orderHash)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	mutate(&st)
	return s.statuses.Put(ctx, orderHash, st)
}

// TokenController is an in-memory protocol.TokenController tracking
// approvals keyed by (token, owner, spender).
type TokenController struct {
	mu        sync.Mutex
	approvals map[string]bool
	revoked   []string
}

// NewTokenController creates a controller with no approvals.
func NewTokenController() *TokenController {
	return &TokenController{approvals: make(map[string]bool)}
}

func approvalKey(token, owner, spender string) string {
	return fmt.Sprintf("%s|%s|%s", token, owner, spender)
}

// Approve grants an approval, for test setup.
func (c *TokenController) Approve(token, owner, spender string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.approvals[approvalKey(token, owner, spender)] = true
}

// Approved reports whether an approval is in place.
func (c *TokenController) Approved(token, owner, spender string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.approvals[approvalKey(token, owner, spender)]
}

// RevokeApproval implements protocol.TokenController.
func (c *TokenController) RevokeApproval(_ context.Context, token, owner, spender string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := approvalKey(token, owner, spender)
	delete(c.approvals, key)
	c.revoked = append(c.revoked, key)
	return nil
}

// Revoked returns the revocations performed, in order.
func (c *TokenController) Revoked() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.revoked))
	copy(out, c.revoked)
	return out
}

// OffererProbe is a scripted protocol.OffererProbe.
type OffererProbe struct {
	mu       sync.Mutex
	valid    map[string]bool
	errs     map[string]error
	rejected []string
}

// NewOffererProbe creates a probe with no scripted offerers; unscripted
// offerers report invalid signatures.
func NewOffererProbe() *OffererProbe {
	return &OffererProbe{
		valid: make(map[string]bool),
		errs:  make(map[string]error),
	}
}

// ScriptValid scripts the probe result for an offerer.
func (p *OffererProbe) ScriptValid(offerer string, valid bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.valid[offerer] = valid
}

// ScriptError scripts a probe error for an offerer.
func (p *OffererProbe) ScriptError(offerer string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[offerer] = err
}

// ValidSignature implements protocol.OffererProbe.
func (p *OffererProbe) ValidSignature(_ context.Context, offerer, _ string, _ []byte) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.errs[offerer]; err != nil {
		return false, err
	}
	return p.valid[offerer], nil
}

// ForceRejection implements protocol.OffererProbe.
func (p *OffererProbe) ForceRejection(_ context.Context, offerer string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejected = append(p.rejected, offerer)
	return nil
}

// Rejections returns offerers forced to reject, in order.
func (p *OffererProbe) Rejections() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.rejected))
	copy(out, p.rejected)
	return out
}
