package repositories

import (
	"context"
	"errors"

	"marketplace/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = newID()
	}
	user.EnsureCollections()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return storeErr("create user", err)
	}
	return nil
}

func (r *GORMUserRepository) first(ctx context.Context, column, value string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, column+" = ?", value).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NotFound("user", value)
		}
		return nil, storeErr("get user by "+column, err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, models.NotFound("user", id)
	}
	return r.first(ctx, "id", id)
}

// GetByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username", username)
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email", email)
}

// Find retrieves users matching filter, oldest first.
func (r *GORMUserRepository) Find(ctx context.Context, filter UserFilter) ([]models.User, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	var users []models.User
	if err := q.Order("created_at ASC, id ASC").Find(&users).Error; err != nil {
		return nil, storeErr("find users", err)
	}
	return users, nil
}

// Update writes every field of an existing user.
func (r *GORMUserRepository) Update(ctx context.Context, user *models.User) error {
	user.EnsureCollections()
	res := r.db.WithContext(ctx).Model(user).Select("*").Omit("id", "created_at").Updates(user)
	if res.Error != nil {
		return storeErr("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NotFound("user", user.ID)
	}
	return nil
}

// Delete deletes a user by its ID from the database.
func (r *GORMUserRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return models.NotFound("user", id)
	}
	res := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return storeErr("delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NotFound("user", id)
	}
	return nil
}

// mutate runs fn on a row-locked copy of the user inside a transaction and
// writes back the given columns.
func (r *GORMUserRepository) mutate(ctx context.Context, id string, fn func(u *models.User) error, columns ...string) (*models.User, error) {
	if !validID(id) {
		return nil, models.NotFound("user", id)
	}
	var out models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NotFound("user", id)
			}
			return storeErr("lock user", err)
		}
		if err := fn(&u); err != nil {
			return err
		}
		if err := tx.Model(&u).Select(append(columns, "updated_at")).Updates(&u).Error; err != nil {
			return storeErr("update user", err)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ToggleLike flips productID in the user's liked list.
func (r *GORMUserRepository) ToggleLike(ctx context.Context, userID, productID string) (bool, error) {
	var liked bool
	_, err := r.mutate(ctx, userID, func(u *models.User) error {
		u.Liked, liked = u.Liked.Toggle(productID)
		return nil
	}, "liked")
	return liked, err
}

// PushOrder appends orderID to the user's orders.
func (r *GORMUserRepository) PushOrder(ctx context.Context, userID, orderID string) error {
	_, err := r.mutate(ctx, userID, func(u *models.User) error {
		u.Orders = append(u.Orders, orderID)
		return nil
	}, "orders")
	return err
}

// PullOrder removes every occurrence of orderID from the user's orders.
func (r *GORMUserRepository) PullOrder(ctx context.Context, userID, orderID string) error {
	_, err := r.mutate(ctx, userID, func(u *models.User) error {
		u.Orders = u.Orders.Without(orderID)
		return nil
	}, "orders")
	return err
}

// AddRating appends a rating unless the rater already rated this user.
func (r *GORMUserRepository) AddRating(ctx context.Context, userID string, rating models.Rating) (*models.User, error) {
	return r.mutate(ctx, userID, func(u *models.User) error {
		if u.Ratings.HasRater(rating.RaterID) {
			return models.ErrDuplicateRating
		}
		u.Ratings = append(u.Ratings, rating)
		u.AverageRating = models.AverageRating(u.Ratings)
		return nil
	}, "ratings", "average_rating")
}
