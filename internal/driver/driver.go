// Package driver dispatches a scenario to its marketplace entry point and
// surfaces the raw execution outcome. The driver never interprets the
// outcome; asserting that a mutation produced its intended failure belongs
// to the external checker.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fulfillment-mutation-lab/internal/domain"
	"fulfillment-mutation-lab/internal/observability"
	"fulfillment-mutation-lab/internal/protocol"
)

// Driver errors.
var (
	ErrNoOrders          = errors.New("driver: scenario has no orders")
	ErrUnknownEntryPoint = errors.New("driver: unknown entry point")
)

// Driver executes scenarios against a marketplace.
type Driver struct {
	market protocol.Marketplace
}

// New creates a driver over the given marketplace.
func New(market protocol.Marketplace) *Driver {
	return &Driver{market: market}
}

// Exec dispatches the scenario's entry point with the scenario's caller and
// native value. Single-order entry points take the first order; the rest
// take the whole list. The returned outcome is the marketplace's verdict,
// unmodified.
func (d *Driver) Exec(ctx context.Context, s *domain.Scenario) (domain.ExecOutcome, error) {
	if len(s.Orders) == 0 {
		return domain.ExecOutcome{}, ErrNoOrders
	}
	call := protocol.Call{Caller: s.Caller, NativeValue: s.NativeValue}

	start := time.Now()
	out, err := d.dispatch(ctx, call, s)
	observability.RecordExecOutcome(s.EntryPoint.String(), execStatus(out, err), time.Since(start).Seconds())
	return out, err
}

func (d *Driver) dispatch(ctx context.Context, call protocol.Call, s *domain.Scenario) (domain.ExecOutcome, error) {
	switch s.EntryPoint {
	case domain.EntryFulfill:
		return d.market.Fulfill(ctx, call, s.Orders[0])
	case domain.EntryFulfillAdvanced:
		return d.market.FulfillAdvanced(ctx, call, s.Orders[0], s.Resolvers)
	case domain.EntryFulfillBasic:
		return d.market.FulfillBasic(ctx, call, s.Orders[0])
	case domain.EntryFulfillAvailable:
		return d.market.FulfillAvailable(ctx, call, s.Orders)
	case domain.EntryFulfillAvailableAdvanced:
		return d.market.FulfillAvailableAdvanced(ctx, call, s.Orders, s.Resolvers)
	case domain.EntryMatch:
		return d.market.Match(ctx, call, s.Orders)
	case domain.EntryMatchAdvanced:
		return d.market.MatchAdvanced(ctx, call, s.Orders, s.Resolvers)
	case domain.EntryCancel:
		return d.market.Cancel(ctx, call, s.Orders)
	case domain.EntryValidate:
		return d.market.Validate(ctx, call, s.Orders)
	default:
		return domain.ExecOutcome{}, fmt.Errorf("%w: %d", ErrUnknownEntryPoint, s.EntryPoint)
	}
}

func execStatus(out domain.ExecOutcome, err error) string {
	if err != nil {
		return "error"
	}
	return out.Status
}

// BuildOutcome assembles the persistable record of one mutation run.
func BuildOutcome(runID string, mode domain.FailureMode, s *domain.Scenario, target domain.MutationTarget, out domain.ExecOutcome, elapsed time.Duration) domain.MutationOutcome {
	return domain.MutationOutcome{
		RunID:         runID,
		FailureMode:   mode.String(),
		EntryPoint:    s.EntryPoint.String(),
		OrderIndex:    target.OrderIndex,
		ResolverIndex: target.ResolverIndex,
		Status:        out.Status,
		RevertReason:  out.RevertReason,
		DurationMs:    elapsed.Milliseconds(),
		CreatedAt:     time.Now().UnixMilli(),
	}
}
