package repositories

import (
	"context"
	"fmt"
	"sync"

	"marketplace/internal/models"
)

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMemoryUserRepository creates a new instance of MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]models.User),
	}
}

// uniqueViolation must be called with the lock held.
func (r *MemoryUserRepository) uniqueViolation(u *models.User) error {
	for id, existing := range r.users {
		if id == u.ID {
			continue
		}
		if existing.Username == u.Username {
			return &models.DuplicateKeyError{Field: "username"}
		}
	}
	for id, existing := range r.users {
		if id == u.ID {
			continue
		}
		if existing.Email == u.Email {
			return &models.DuplicateKeyError{Field: "email"}
		}
	}
	return nil
}

// Create adds a new user.
func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = newID()
	}
	if _, ok := r.users[user.ID]; ok {
		return &models.StoreError{Op: "create user", Err: fmt.Errorf("id %s already exists", user.ID)}
	}
	if err := r.uniqueViolation(user); err != nil {
		return err
	}
	user.EnsureCollections()
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user.Clone()
	return nil
}

// GetByID returns a user by its ID.
func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, models.NotFound("user", id)
	}
	out := user.Clone()
	return &out, nil
}

// GetByUsername returns a user by username.
func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			out := u.Clone()
			return &out, nil
		}
	}
	return nil, models.NotFound("user", username)
}

// GetByEmail returns a user by email.
func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			out := u.Clone()
			return &out, nil
		}
	}
	return nil, models.NotFound("user", email)
}

// Find returns all users matching filter, oldest first.
func (r *MemoryUserRepository) Find(_ context.Context, filter UserFilter) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		if filter.Matches(&u) {
			out = append(out, u.Clone())
		}
	}
	sortUsers(out)
	return out, nil
}

// Update replaces an existing user.
func (r *MemoryUserRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return models.NotFound("user", user.ID)
	}
	if err := r.uniqueViolation(user); err != nil {
		return err
	}
	user.EnsureCollections()
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = now()
	r.users[user.ID] = user.Clone()
	return nil
}

// Delete removes a user by its ID.
func (r *MemoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return models.NotFound("user", id)
	}
	delete(r.users, id)
	return nil
}

// mutate applies fn to a stored user under the write lock.
func (r *MemoryUserRepository) mutate(id string, fn func(u *models.User) error) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, models.NotFound("user", id)
	}
	u = u.Clone()
	if err := fn(&u); err != nil {
		return nil, err
	}
	u.UpdatedAt = now()
	r.users[id] = u
	out := u.Clone()
	return &out, nil
}

// ToggleLike flips productID in the user's liked list.
func (r *MemoryUserRepository) ToggleLike(_ context.Context, userID, productID string) (bool, error) {
	var liked bool
	_, err := r.mutate(userID, func(u *models.User) error {
		u.Liked, liked = u.Liked.Toggle(productID)
		return nil
	})
	return liked, err
}

// PushOrder appends orderID to the user's orders.
func (r *MemoryUserRepository) PushOrder(_ context.Context, userID, orderID string) error {
	_, err := r.mutate(userID, func(u *models.User) error {
		u.Orders = append(u.Orders, orderID)
		return nil
	})
	return err
}

// PullOrder removes every occurrence of orderID from the user's orders.
func (r *MemoryUserRepository) PullOrder(_ context.Context, userID, orderID string) error {
	_, err := r.mutate(userID, func(u *models.User) error {
		u.Orders = u.Orders.Without(orderID)
		return nil
	})
	return err
}

// AddRating appends a rating unless the rater already rated this user.
func (r *MemoryUserRepository) AddRating(_ context.Context, userID string, rating models.Rating) (*models.User, error) {
	return r.mutate(userID, func(u *models.User) error {
		if u.Ratings.HasRater(rating.RaterID) {
			return models.ErrDuplicateRating
		}
		u.Ratings = append(u.Ratings, rating)
		u.AverageRating = models.AverageRating(u.Ratings)
		return nil
	})
}
