package repositories

import (
	"context"
	"slices"
	"strings"

	"marketplace/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Find(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error

	// AddRating appends r unless r.RaterID already rated this product
	// (models.ErrDuplicateRating) and refreshes the average.
	AddRating(ctx context.Context, productID string, r models.Rating) (*models.Product, error)
}

// ProductFilter selects products. Zero fields match everything; a non-nil
// empty IDs slice matches nothing.
type ProductFilter struct {
	IDs        []string
	SellerID   string
	Categories []string // any of
	Colors     []string // any of
	MinPrice   *float64
	MaxPrice   *float64
	Keyword    string // case-insensitive substring of name or description
}

// Matches reports whether p satisfies the filter.
func (f ProductFilter) Matches(p *models.Product) bool {
	if f.IDs != nil && !slices.Contains(f.IDs, p.ID) {
		return false
	}
	if f.SellerID != "" && p.SellerID != f.SellerID {
		return false
	}
	if len(f.Categories) > 0 && !p.Categories.ContainsAny(f.Categories) {
		return false
	}
	if len(f.Colors) > 0 && !p.Colors.ContainsAny(f.Colors) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.Keyword != "" {
		kw := strings.ToLower(f.Keyword)
		if !strings.Contains(strings.ToLower(p.Name), kw) && !strings.Contains(strings.ToLower(p.Description), kw) {
			return false
		}
	}
	return true
}
