package models

import (
	"slices"
	"time"
)

// RoleSeller is the role allowed to list products and receive orders.
const RoleSeller = "seller"

// User is a marketplace account, buyer or seller.
type User struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Username      string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null" bson:"username"`
	Email         string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null" bson:"email"`
	Password      string    `json:"-" gorm:"type:varchar(255);not null" bson:"password"`
	Role          string    `json:"role" gorm:"type:varchar(32);index" bson:"role"`
	Liked         IDList    `json:"liked" gorm:"type:text" bson:"liked"`
	Orders        IDList    `json:"orders" gorm:"type:text" bson:"orders"`
	Ratings       Ratings   `json:"ratings" gorm:"type:text" bson:"ratings"`
	AverageRating float64   `json:"averageRating" bson:"averageRating"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// EnsureCollections replaces nil sequences with empty ones so stores never
// persist null where an array is expected.
func (u *User) EnsureCollections() {
	if u.Liked == nil {
		u.Liked = IDList{}
	}
	if u.Orders == nil {
		u.Orders = IDList{}
	}
	if u.Ratings == nil {
		u.Ratings = Ratings{}
	}
}

// Clone returns a deep copy of the user.
func (u User) Clone() User {
	u.Liked = slices.Clone(u.Liked)
	u.Orders = slices.Clone(u.Orders)
	u.Ratings = slices.Clone(u.Ratings)
	return u
}

// IsSeller reports whether the user may sell.
func (u *User) IsSeller() bool {
	return u.Role == RoleSeller
}
