package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is appended to a counselor when a completed booking carries a rating.
type Review struct {
	BookingID  string    `bson:"bookingId" json:"bookingId"`
	UserID     string    `bson:"userId" json:"userId"`
	Rating     int       `bson:"rating" json:"rating"`
	Comment    string    `bson:"comment,omitempty" json:"comment,omitempty"`
	IsVerified bool      `bson:"isVerified" json:"isVerified"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// Completion is the statistics delta produced by one completed booking.
type Completion struct {
	BookingID string
	// Review is nil when the booking was completed without a rating.
	Review *Review
	// Rating and TotalReviews are the recomputed values; ignored when Review is nil.
	Rating       float64
	TotalReviews int
	At           time.Time
}
