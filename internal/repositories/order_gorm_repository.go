package repositories

import (
	"context"
	"errors"

	"marketplace/internal/models"

	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// Create inserts an order. A zero CreatedAt is filled in by GORM.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = newID()
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return storeErr("create order", err)
	}
	return nil
}

// GetByID retrieves an order by its ID.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	if !validID(id) {
		return nil, models.NotFound("order", id)
	}
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NotFound("order", id)
		}
		return nil, storeErr("get order", err)
	}
	return &order, nil
}

// Find retrieves matching orders, newest first.
func (r *GORMOrderRepository) Find(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.IDs != nil {
		q = q.Where("id IN ?", filter.IDs)
	}
	if filter.State != "" {
		q = q.Where("state = ?", filter.State)
	}
	var orders []models.Order
	if err := q.Order("created_at DESC, id ASC").Find(&orders).Error; err != nil {
		return nil, storeErr("find orders", err)
	}
	return orders, nil
}

// Update writes every field of an existing order.
func (r *GORMOrderRepository) Update(ctx context.Context, order *models.Order) error {
	res := r.db.WithContext(ctx).Model(order).Select("*").Omit("id", "created_at").Updates(order)
	if res.Error != nil {
		return storeErr("update order", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NotFound("order", order.ID)
	}
	return nil
}

// UpdateState overwrites the state column and returns the updated order.
func (r *GORMOrderRepository) UpdateState(ctx context.Context, id string, state string) (*models.Order, error) {
	if !validID(id) {
		return nil, models.NotFound("order", id)
	}
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).
		Updates(map[string]any{"state": state, "updated_at": now()})
	if res.Error != nil {
		return nil, storeErr("update order state", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NotFound("order", id)
	}
	return r.GetByID(ctx, id)
}

// Delete deletes an order by its ID.
func (r *GORMOrderRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return models.NotFound("order", id)
	}
	res := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return storeErr("delete order", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NotFound("order", id)
	}
	return nil
}
