package domain

import (
	"time"
)

// Review rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review represents a product review submitted by a user. Each user may
// review a product at most once.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title,omitempty"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewSummary holds the aggregate rating for a product: the mean rating
// rounded to one decimal, the review count, and how many reviews landed on
// each star.
type ReviewSummary struct {
	AverageRating float64     `json:"average_rating"`
	TotalCount    int         `json:"total_count"`
	Distribution  map[int]int `json:"distribution,omitempty"`
}
