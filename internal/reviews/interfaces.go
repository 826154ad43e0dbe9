package reviews

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veoxhq/veox-backend/pkg/db/models"
)

// Repository defines persistence operations for the reviews table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
	ExistsForOrderAndReviewer(ctx context.Context, orderID, reviewerID uuid.UUID) (bool, error)
	ListByReviewee(ctx context.Context, revieweeID uuid.UUID, limit int) ([]models.Review, error)
	RatingSummary(ctx context.Context, revieweeID uuid.UUID) (float64, int64, error)
	ListOrdersAwaitingReview(ctx context.Context, completedBefore time.Time) ([]models.Order, error)
}
