package postgres

import (
	"context"
	"fmt"
	"time"

	"fulfillment-mutation-lab/internal/domain"
	"fulfillment-mutation-lab/internal/storage"
)

// OrderStatusStore implements storage.OrderStatusStore using PostgreSQL.
type OrderStatusStore struct {
	pool *Pool
}

// NewOrderStatusStore creates a new OrderStatusStore.
func NewOrderStatusStore(pool *Pool) *OrderStatusStore {
	return &OrderStatusStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OrderStatusStore = (*OrderStatusStore)(nil)

// Put inserts or replaces the status snapshot for an order hash.
func (s *OrderStatusStore) Put(ctx context.Context, orderHash string, status domain.OrderStatus) (err error) {
	if orderHash == "" {
		return storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() { observe("order_status_put", start, err) }()

	query := `
		INSERT INTO order_statuses (
			order_hash, validated, cancelled, filled_numerator, filled_denominator
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_hash) DO UPDATE SET
			validated = EXCLUDED.validated,
			cancelled = EXCLUDED.cancelled,
			filled_numerator = EXCLUDED.filled_numerator,
			filled_denominator = EXCLUDED.filled_denominator
	`

	_, err = s.pool.Exec(ctx, query,
		orderHash,
		status.Validated,
		status.Cancelled,
		int64(status.FilledNumerator),
		int64(status.FilledDenominator),
	)
	if err != nil {
		return fmt.Errorf("put order status: %w", err)
	}
	return nil
}

// Get retrieves the status snapshot for an order hash. Returns ErrNotFound if not exists.
func (s *OrderStatusStore) Get(ctx context.Context, orderHash string) (_ domain.OrderStatus, err error) {
	start := time.Now()
	defer func() { observe("order_status_get", start, err) }()

	query := `
		SELECT validated, cancelled, filled_numerator, filled_denominator
		FROM order_statuses
		WHERE order_hash = $1
	`

	var status domain.OrderStatus
	var numerator, denominator int64
	err = s.pool.QueryRow(ctx, query, orderHash).Scan(
		&status.Validated,
		&status.Cancelled,
		&numerator,
		&denominator,
	)
	if err != nil {
		if isNotFoundError(err) {
			return domain.OrderStatus{}, storage.ErrNotFound
		}
		return domain.OrderStatus{}, fmt.Errorf("get order status: %w", err)
	}
	status.FilledNumerator = uint64(numerator)
	status.FilledDenominator = uint64(denominator)
	return status, nil
}
