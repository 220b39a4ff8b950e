package repositories

import (
	"context"
	"fmt"
	"sync"

	"marketplace/internal/models"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
type MemoryProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

// Create adds a new product.
func (r *MemoryProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = newID()
	}
	if _, ok := r.products[product.ID]; ok {
		return &models.StoreError{Op: "create product", Err: fmt.Errorf("id %s already exists", product.ID)}
	}
	product.EnsureCollections()
	product.CreatedAt = now()
	product.UpdatedAt = product.CreatedAt
	r.products[product.ID] = product.Clone()
	return nil
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, models.NotFound("product", id)
	}
	out := product.Clone()
	return &out, nil
}

// Find returns all products matching filter, oldest first.
func (r *MemoryProductRepository) Find(_ context.Context, filter ProductFilter) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if filter.Matches(&p) {
			productList = append(productList, p.Clone())
		}
	}
	sortProducts(productList)
	return productList, nil
}

// Update modifies an existing product.
func (r *MemoryProductRepository) Update(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		return models.NotFound("product", product.ID)
	}
	product.EnsureCollections()
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = now()
	r.products[product.ID] = product.Clone()
	return nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return models.NotFound("product", id)
	}
	delete(r.products, id)
	return nil
}

// AddRating appends a rating unless the rater already rated this product.
func (r *MemoryProductRepository) AddRating(_ context.Context, productID string, rating models.Rating) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[productID]
	if !ok {
		return nil, models.NotFound("product", productID)
	}
	if p.Ratings.HasRater(rating.RaterID) {
		return nil, models.ErrDuplicateRating
	}
	p = p.Clone()
	p.Ratings = append(p.Ratings, rating)
	p.AverageRating = models.AverageRating(p.Ratings)
	p.UpdatedAt = now()
	r.products[productID] = p
	out := p.Clone()
	return &out, nil
}
