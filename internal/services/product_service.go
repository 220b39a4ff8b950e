package services

import (
	"context"
	"log/slog"

	"marketplace/internal/models"
	"marketplace/internal/repositories"
)

// ProductIndex is a full-text index over product name and description.
type ProductIndex interface {
	IndexProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	// SearchProducts returns the ids of products matching keyword.
	SearchProducts(ctx context.Context, keyword string) ([]string, error)
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo     repositories.ProductRepository
	userRepo repositories.UserRepository
	index    ProductIndex
	logger   *slog.Logger
}

// NewProductService creates a new ProductService. index may be nil, in which
// case search scans the store.
func NewProductService(repo repositories.ProductRepository, userRepo repositories.UserRepository, index ProductIndex, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:     repo,
		userRepo: userRepo,
		index:    index,
		logger:   logger,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.Find(ctx, repositories.ProductFilter{})
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct lists a product for the calling seller.
func (s *ProductService) CreateProduct(ctx context.Context, caller Principal, product *models.Product) error {
	if !caller.IsSeller() {
		return models.ErrForbidden
	}
	if product.SellerID == "" {
		product.SellerID = caller.UserID
	}
	if product.SellerID != caller.UserID {
		return models.ErrForbidden
	}
	product.Ratings = nil
	product.AverageRating = 0
	if err := s.repo.Create(ctx, product); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "product created", "product_id", product.ID, "seller_id", product.SellerID)
	if s.index != nil {
		if err := s.index.IndexProduct(ctx, product); err != nil {
			s.logger.WarnContext(ctx, "failed to index product", "product_id", product.ID, "error", err)
		}
	}
	return nil
}

// ProductsByCategory returns products listing category among their categories.
func (s *ProductService) ProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return s.repo.Find(ctx, repositories.ProductFilter{Categories: []string{category}})
}

// FilterProducts returns products matching filter.
func (s *ProductService) FilterProducts(ctx context.Context, filter repositories.ProductFilter) ([]models.Product, error) {
	return s.repo.Find(ctx, filter)
}

// SearchProducts matches keyword against name and description, optionally
// restricted to ids. It uses the index when one is configured and falls back
// to a store scan when the index is absent or fails.
func (s *ProductService) SearchProducts(ctx context.Context, keyword string, ids []string) ([]models.Product, error) {
	if s.index != nil && keyword != "" {
		hits, err := s.index.SearchProducts(ctx, keyword)
		if err == nil {
			return s.repo.Find(ctx, repositories.ProductFilter{IDs: intersect(hits, ids)})
		}
		s.logger.WarnContext(ctx, "product index search failed, scanning store", "error", err)
	}
	return s.repo.Find(ctx, repositories.ProductFilter{Keyword: keyword, IDs: ids})
}

// intersect keeps the ids of hits that appear in allowed. A nil allowed keeps
// everything.
func intersect(hits, allowed []string) []string {
	out := make([]string, 0, len(hits))
	if allowed == nil {
		return append(out, hits...)
	}
	set := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		set[id] = struct{}{}
	}
	for _, id := range hits {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// ProductsBySeller returns the seller's listings.
func (s *ProductService) ProductsBySeller(ctx context.Context, sellerID string) ([]models.Product, error) {
	if _, err := s.userRepo.GetByID(ctx, sellerID); err != nil {
		return nil, err
	}
	return s.repo.Find(ctx, repositories.ProductFilter{SellerID: sellerID})
}

// DeleteSellerProduct deletes one of the seller's products. A product owned
// by someone else is reported as not found.
func (s *ProductService) DeleteSellerProduct(ctx context.Context, sellerID, productID string) error {
	product, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product.SellerID != sellerID {
		return models.NotFound("product", productID)
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.DeleteProduct(ctx, productID); err != nil {
			s.logger.WarnContext(ctx, "failed to remove product from index", "product_id", productID, "error", err)
		}
	}
	return nil
}
