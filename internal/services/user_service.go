package services

import (
	"context"

	"marketplace/internal/models"
	"marketplace/internal/repositories"
)

// UserService serves user and seller lookups and the liked list.
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ListUsers returns every user.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.Find(ctx, repositories.UserFilter{})
}

// ListSellers returns users with the seller role.
func (s *UserService) ListSellers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.Find(ctx, repositories.UserFilter{Role: models.RoleSeller})
}

// GetUser retrieves a user by id.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// LikedProducts returns the ids in the user's liked list.
func (s *UserService) LikedProducts(ctx context.Context, userID string) ([]string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Liked, nil
}

// ToggleLike removes the first occurrence of productID from the liked list,
// or appends it. It reports true when the product ends up liked.
func (s *UserService) ToggleLike(ctx context.Context, userID, productID string) (bool, error) {
	if productID == "" {
		return false, &models.ValidationError{Field: "productId", Reason: "is required"}
	}
	return s.userRepo.ToggleLike(ctx, userID, productID)
}
