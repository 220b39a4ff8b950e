package repositories

import (
	"context"
	"errors"
	"strings"

	"marketplace/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = newID()
	}
	product.EnsureCollections()
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return storeErr("create product", err)
	}
	return nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	if !validID(id) {
		return nil, models.NotFound("product", id)
	}
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NotFound("product", id)
		}
		return nil, storeErr("get product", err)
	}
	return &product, nil
}

// Find retrieves products matching filter, oldest first. Scalar conditions
// run in SQL; list membership is checked on the decoded rows since the lists
// are stored as JSON text.
func (r *GORMProductRepository) Find(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.IDs != nil {
		q = q.Where("id IN ?", filter.IDs)
	}
	if filter.SellerID != "" {
		q = q.Where("seller_id = ?", filter.SellerID)
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.Keyword != "" {
		like := "%" + strings.ToLower(filter.Keyword) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}

	var rows []models.Product
	if err := q.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, storeErr("find products", err)
	}
	products := make([]models.Product, 0, len(rows))
	for i := range rows {
		if filter.Matches(&rows[i]) {
			products = append(products, rows[i])
		}
	}
	return products, nil
}

// Update writes every field of an existing product.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	product.EnsureCollections()
	res := r.db.WithContext(ctx).Model(product).Select("*").Omit("id", "created_at").Updates(product)
	if res.Error != nil {
		return storeErr("update product", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NotFound("product", product.ID)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return models.NotFound("product", id)
	}
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return storeErr("delete product", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NotFound("product", id)
	}
	return nil
}

// AddRating appends a rating under a row lock unless the rater already rated
// this product.
func (r *GORMProductRepository) AddRating(ctx context.Context, productID string, rating models.Rating) (*models.Product, error) {
	if !validID(productID) {
		return nil, models.NotFound("product", productID)
	}
	var out models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NotFound("product", productID)
			}
			return storeErr("lock product", err)
		}
		if p.Ratings.HasRater(rating.RaterID) {
			return models.ErrDuplicateRating
		}
		p.Ratings = append(p.Ratings, rating)
		p.AverageRating = models.AverageRating(p.Ratings)
		if err := tx.Model(&p).Select("ratings", "average_rating", "updated_at").Updates(&p).Error; err != nil {
			return storeErr("update product", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
