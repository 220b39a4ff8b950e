package repositories

import (
	"context"

	"marketplace/internal/models"
)

// UserRepository defines the interface for user data access.
//
// ToggleLike, PushOrder, PullOrder and AddRating are single atomic
// read-modify-write steps: concurrent callers never observe or overwrite each
// other's intermediate state.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Find(ctx context.Context, filter UserFilter) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error

	// ToggleLike removes the first occurrence of productID from the user's
	// liked list or appends it, reporting true when it was appended.
	ToggleLike(ctx context.Context, userID, productID string) (bool, error)
	// PushOrder appends orderID to the user's orders.
	PushOrder(ctx context.Context, userID, orderID string) error
	// PullOrder removes every occurrence of orderID from the user's orders.
	PullOrder(ctx context.Context, userID, orderID string) error
	// AddRating appends r unless r.RaterID already rated this user
	// (models.ErrDuplicateRating) and refreshes the average.
	AddRating(ctx context.Context, userID string, r models.Rating) (*models.User, error)
}

// UserFilter selects users by field equality. Zero fields match everything.
type UserFilter struct {
	Role string
}

// Matches reports whether u satisfies the filter.
func (f UserFilter) Matches(u *models.User) bool {
	return f.Role == "" || u.Role == f.Role
}
