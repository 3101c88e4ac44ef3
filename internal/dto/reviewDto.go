package dto

import (
	"time"

	"reviewhub/internal/models"
)

// CreateReviewDTO for creating a review. Author and title come from the
// request context, never from the body.
type CreateReviewDTO struct {
	Text string `json:"text" binding:"required"`
	// score range is validated in the service so out-of-range values get
	// their specific too-low/too-high message
	Score int `json:"score"`
}

// UpdateReviewDTO for partial review updates.
type UpdateReviewDTO struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

// ReviewResponse for returning review information
type ReviewResponse struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

// FromModelToReviewResponse converts a Review model to ReviewResponse DTO
func FromModelToReviewResponse(review *models.Review) *ReviewResponse {
	return &ReviewResponse{
		ID:      review.ID,
		Text:    review.Text,
		Author:  review.Author.Username,
		Score:   review.Score,
		PubDate: review.PubDate,
	}
}
