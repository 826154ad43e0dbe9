package reviews

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/veoxhq/veox-backend/pkg/db/models"
)

// CreateReviewRequest is the payload the customer submits after the job is done.
type CreateReviewRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
	Rating  int       `json:"rating" validate:"required,min=1,max=5"`
	Comment *string   `json:"comment,omitempty"`
}

// ReviewDTO is the transport shape for a single review.
type ReviewDTO struct {
	ID           uuid.UUID `json:"id"`
	OrderID      uuid.UUID `json:"order_id"`
	ReviewerID   uuid.UUID `json:"reviewer_id"`
	ReviewerName string    `json:"reviewer_name,omitempty"`
	RevieweeID   uuid.UUID `json:"reviewee_id"`
	Rating       int       `json:"rating"`
	Comment      *string   `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RatingSummaryDTO aggregates a performer's reviews.
type RatingSummaryDTO struct {
	Rating float64 `json:"rating"`
	Count  int64   `json:"count"`
}

func fromModel(review *models.Review) *ReviewDTO {
	if review == nil {
		return nil
	}
	dto := &ReviewDTO{
		ID:         review.ID,
		OrderID:    review.OrderID,
		ReviewerID: review.ReviewerID,
		RevieweeID: review.RevieweeID,
		Rating:     review.Rating,
		Comment:    review.Comment,
		CreatedAt:  review.CreatedAt,
	}
	if review.Reviewer != nil {
		dto.ReviewerName = review.Reviewer.FullName
	}
	return dto
}

func roundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}
