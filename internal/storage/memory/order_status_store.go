package memory

import (
	"context"
	"sync"

	"fulfillment-mutation-lab/internal/domain"
	"fulfillment-mutation-lab/internal/storage"
)

// OrderStatusStore is an in-memory implementation of storage.OrderStatusStore.
type OrderStatusStore struct {
	mu   sync.RWMutex
	data map[string]domain.OrderStatus // keyed by order_hash
}

// NewOrderStatusStore creates a new in-memory order status store.
func NewOrderStatusStore() *OrderStatusStore {
	return &OrderStatusStore{
		data: make(map[string]domain.OrderStatus),
	}
}

// Compile-time interface check.
var _ storage.OrderStatusStore = (*OrderStatusStore)(nil)

// Put inserts or replaces the status snapshot for an order hash.
func (s *OrderStatusStore) Put(_ context.Context, orderHash string, status domain.OrderStatus) error {
	if orderHash == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[orderHash] = status
	return nil
}

// Get retrieves the status snapshot for an order hash. Returns ErrNotFound if not exists.
func (s *OrderStatusStore) Get(_ context.Context, orderHash string) (domain.OrderStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, exists := s.data[orderHash]
	if !exists {
		return domain.OrderStatus{}, storage.ErrNotFound
	}
	return status, nil
}
