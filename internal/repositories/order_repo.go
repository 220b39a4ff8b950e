package repositories

import (
	"context"
	"slices"

	"marketplace/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// Find returns matching orders, newest first.
	Find(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	UpdateState(ctx context.Context, id string, state string) (*models.Order, error)
	Delete(ctx context.Context, id string) error
}

// OrderFilter selects orders. A nil IDs slice matches every order, a non-nil
// empty one matches none.
type OrderFilter struct {
	IDs   []string
	State string
}

// Matches reports whether o satisfies the filter.
func (f OrderFilter) Matches(o *models.Order) bool {
	if f.IDs != nil && !slices.Contains(f.IDs, o.ID) {
		return false
	}
	return f.State == "" || o.State == f.State
}
