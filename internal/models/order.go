package models

import "time"

// Order states known to seller statistics. State is a free-form string; any
// other value is stored as given.
const (
	OrderStatePending   = "pending"
	OrderStateCompleted = "completed"
	OrderStateShipped   = "shipped"
	OrderStateCancelled = "cancelled"
)

// Order represents a purchase of one product by a buyer.
type Order struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);index" bson:"userId"`
	ProductID string    `json:"productId" gorm:"type:varchar(36);index" bson:"productId"`
	Size      string    `json:"size" bson:"size"`
	Color     string    `json:"color" bson:"color"`
	Material  string    `json:"material" bson:"material"`
	Quantity  int       `json:"quantity" bson:"quantity"`
	Total     float64   `json:"total" bson:"total"`
	State     string    `json:"state" gorm:"type:varchar(32);index" bson:"state"`
	Address   string    `json:"address" bson:"address"`
	Phone     string    `json:"phone" bson:"phone"`
	CreatedAt time.Time `json:"createdAt" gorm:"index" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
