package models

import (
	"slices"
	"time"
)

// Product is a listing owned by a seller.
type Product struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	SellerID      string     `json:"sellerId" gorm:"type:varchar(36);index" bson:"sellerId"`
	Price         float64    `json:"price" bson:"price" validate:"required,gt=0"`
	Name          string     `json:"name" gorm:"type:varchar(200)" bson:"name" validate:"required,min=1,max=200"`
	Description   string     `json:"description" bson:"description" validate:"required"`
	Colors        StringList `json:"colors" gorm:"type:text" bson:"colors"`
	Materials     StringList `json:"materials" gorm:"type:text" bson:"materials"`
	Sizes         StringList `json:"sizes" gorm:"type:text" bson:"sizes"`
	Photos        StringList `json:"photos" gorm:"type:text" bson:"photos"`
	Categories    StringList `json:"categories" gorm:"type:text" bson:"categories"`
	Ratings       Ratings    `json:"ratings" gorm:"type:text" bson:"ratings"`
	AverageRating float64    `json:"averageRating" bson:"averageRating"`
	CreatedAt     time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// EnsureCollections replaces nil sequences with empty ones.
func (p *Product) EnsureCollections() {
	for _, l := range []*StringList{&p.Colors, &p.Materials, &p.Sizes, &p.Photos, &p.Categories} {
		if *l == nil {
			*l = StringList{}
		}
	}
	if p.Ratings == nil {
		p.Ratings = Ratings{}
	}
}

// Clone returns a deep copy of the product.
func (p Product) Clone() Product {
	p.Colors = slices.Clone(p.Colors)
	p.Materials = slices.Clone(p.Materials)
	p.Sizes = slices.Clone(p.Sizes)
	p.Photos = slices.Clone(p.Photos)
	p.Categories = slices.Clone(p.Categories)
	p.Ratings = slices.Clone(p.Ratings)
	return p
}
