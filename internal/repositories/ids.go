package repositories

import (
	"slices"
	"strings"
	"time"

	"marketplace/internal/models"

	"github.com/google/uuid"
)

// newID returns a fresh identifier.
func newID() string {
	return uuid.New().String()
}

// validID reports whether id has the shape of a generated identifier. Stores
// answer NotFound for anything else without touching the backend.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func now() time.Time {
	return time.Now().UTC()
}

// duplicateField extracts which unique user field a driver error refers to.
// sqlite: "UNIQUE constraint failed: users.email"; postgres: "duplicate key
// value violates unique constraint \"idx_users_email\""; mongo: "E11000
// duplicate key error ... index: email_unique".
func duplicateField(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique") && !strings.Contains(msg, "duplicate") {
		return "", false
	}
	// mongo appends the colliding value, which may itself mention a field
	if i := strings.Index(msg, "dup key"); i >= 0 {
		msg = msg[:i]
	}
	for _, field := range uniqueUserFields {
		for _, token := range []string{field + "_unique", "users." + field, "idx_users_" + field} {
			if strings.Contains(msg, token) {
				return field, true
			}
		}
	}
	for _, field := range uniqueUserFields {
		if strings.Contains(msg, field) {
			return field, true
		}
	}
	return "", false
}

var uniqueUserFields = []string{"username", "email"}

// storeErr wraps driver errors, translating uniqueness violations.
func storeErr(op string, err error) error {
	if field, ok := duplicateField(err); ok {
		return &models.DuplicateKeyError{Field: field}
	}
	return &models.StoreError{Op: op, Err: err}
}

func sortOrdersNewestFirst(orders []models.Order) {
	slices.SortStableFunc(orders, func(a, b models.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func sortProducts(products []models.Product) {
	slices.SortStableFunc(products, func(a, b models.Product) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func sortUsers(users []models.User) {
	slices.SortStableFunc(users, func(a, b models.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
