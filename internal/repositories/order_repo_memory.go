package repositories

import (
	"context"
	"fmt"
	"sync"

	"marketplace/internal/models"
)

// MemoryOrderRepository is an in-memory implementation of OrderRepository.
type MemoryOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMemoryOrderRepository creates a new instance of MemoryOrderRepository.
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Create adds a new order. A zero CreatedAt is set to now.
func (r *MemoryOrderRepository) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = newID()
	}
	if _, ok := r.orders[order.ID]; ok {
		return &models.StoreError{Op: "create order", Err: fmt.Errorf("id %s already exists", order.ID)}
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now()
	}
	order.UpdatedAt = now()
	r.orders[order.ID] = *order
	return nil
}

// GetByID returns an order by its ID.
func (r *MemoryOrderRepository) GetByID(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, models.NotFound("order", id)
	}
	return &order, nil
}

// Find returns matching orders, newest first.
func (r *MemoryOrderRepository) Find(_ context.Context, filter OrderFilter) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if filter.Matches(&order) {
			orderList = append(orderList, order)
		}
	}
	sortOrdersNewestFirst(orderList)
	return orderList, nil
}

// Update replaces an existing order.
func (r *MemoryOrderRepository) Update(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.orders[order.ID]
	if !ok {
		return models.NotFound("order", order.ID)
	}
	order.CreatedAt = existing.CreatedAt
	order.UpdatedAt = now()
	r.orders[order.ID] = *order
	return nil
}

// UpdateState overwrites the state of an order.
func (r *MemoryOrderRepository) UpdateState(_ context.Context, id string, state string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, models.NotFound("order", id)
	}
	order.State = state
	order.UpdatedAt = now()
	r.orders[id] = order
	return &order, nil
}

// Delete removes an order by its ID.
func (r *MemoryOrderRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return models.NotFound("order", id)
	}
	delete(r.orders, id)
	return nil
}
