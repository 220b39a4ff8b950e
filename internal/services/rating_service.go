package services

import (
	"context"
	"log/slog"
	"time"

	"marketplace/internal/models"
	"marketplace/internal/repositories"
)

// RatingService records ratings on sellers and products.
type RatingService struct {
	userRepo    repositories.UserRepository
	productRepo repositories.ProductRepository
	events      EventPublisher
	logger      *slog.Logger
}

// NewRatingService creates a new RatingService.
func NewRatingService(userRepo repositories.UserRepository, productRepo repositories.ProductRepository, events EventPublisher, logger *slog.Logger) *RatingService {
	if events == nil {
		events = NopPublisher{}
	}
	return &RatingService{userRepo: userRepo, productRepo: productRepo, events: events, logger: logger}
}

type ratingEvent struct {
	Target   string  `json:"target"`
	TargetID string  `json:"targetId"`
	RaterID  string  `json:"userId"`
	Score    float64 `json:"rating"`
	Average  float64 `json:"averageRating"`
}

// SubmitSellerRating appends a rating to a seller. The score is stored as
// given.
func (s *RatingService) SubmitSellerRating(ctx context.Context, sellerID, raterID string, score float64) (*models.RatingSummary, error) {
	if _, err := s.userRepo.GetByID(ctx, raterID); err != nil {
		return nil, err
	}
	seller, err := s.userRepo.AddRating(ctx, sellerID, models.Rating{RaterID: raterID, Score: score, Timestamp: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, s.logger, EventRatingSubmitted, ratingEvent{
		Target: "seller", TargetID: sellerID, RaterID: raterID, Score: score, Average: seller.AverageRating,
	})
	return &models.RatingSummary{AverageRating: seller.AverageRating, NumberOfRatings: len(seller.Ratings)}, nil
}

// SubmitProductRating appends a rating to a product.
func (s *RatingService) SubmitProductRating(ctx context.Context, productID, raterID string, score float64) (*models.RatingSummary, error) {
	if _, err := s.userRepo.GetByID(ctx, raterID); err != nil {
		return nil, err
	}
	product, err := s.productRepo.AddRating(ctx, productID, models.Rating{RaterID: raterID, Score: score, Timestamp: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, s.logger, EventRatingSubmitted, ratingEvent{
		Target: "product", TargetID: productID, RaterID: raterID, Score: score, Average: product.AverageRating,
	})
	return &models.RatingSummary{AverageRating: product.AverageRating, NumberOfRatings: len(product.Ratings)}, nil
}

// SellerRating returns the seller's rating summary.
func (s *RatingService) SellerRating(ctx context.Context, sellerID string) (*models.RatingSummary, error) {
	seller, err := s.userRepo.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return &models.RatingSummary{AverageRating: seller.AverageRating, NumberOfRatings: len(seller.Ratings)}, nil
}

// ProductRating returns the product's rating summary.
func (s *RatingService) ProductRating(ctx context.Context, productID string) (*models.RatingSummary, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &models.RatingSummary{AverageRating: product.AverageRating, NumberOfRatings: len(product.Ratings)}, nil
}
