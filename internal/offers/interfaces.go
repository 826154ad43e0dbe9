package offers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veoxhq/veox-backend/pkg/db/models"
)

// Repository defines persistence operations for the offers table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	FindByOrderAndPerformer(ctx context.Context, orderID, performerID uuid.UUID) (*models.Offer, error)
	FindAcceptedByOrder(ctx context.Context, orderID uuid.UUID) (*models.Offer, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Offer, error)
	AcceptPending(ctx context.Context, offerID uuid.UUID) (bool, error)
	RejectPendingSiblings(ctx context.Context, orderID, acceptedOfferID uuid.UUID) (int64, error)
}
