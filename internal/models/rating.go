package models

import (
	"database/sql/driver"
	"time"
)

// Rating is one score left by a user on a seller or a product.
type Rating struct {
	RaterID   string    `json:"userId" bson:"userId"`
	Score     float64   `json:"rating" bson:"rating"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Ratings is the embedded rating history of a user or product.
type Ratings []Rating

// Value implements driver.Valuer.
func (rs Ratings) Value() (driver.Value, error) {
	return jsonValue([]Rating(rs))
}

// Scan implements sql.Scanner.
func (rs *Ratings) Scan(src any) error {
	var out []Rating
	if err := scanJSON(src, &out); err != nil {
		return err
	}
	*rs = Ratings(out)
	return nil
}

// HasRater reports whether raterID already left a rating.
func (rs Ratings) HasRater(raterID string) bool {
	for _, r := range rs {
		if r.RaterID == raterID {
			return true
		}
	}
	return false
}

// AverageRating returns the arithmetic mean of all scores, or 0 when there are none.
func AverageRating(ratings []Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var total float64
	for _, r := range ratings {
		total += r.Score
	}
	return total / float64(len(ratings))
}

// RatingSummary is what the rating endpoints report for a seller or product.
type RatingSummary struct {
	AverageRating   float64 `json:"averageRating"`
	NumberOfRatings int     `json:"numberOfRatings"`
}
