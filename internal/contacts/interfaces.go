package contacts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veoxhq/veox-backend/pkg/db/models"
)

// Repository defines persistence operations for contact purchases.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, purchase *models.ContactPurchase) (*models.ContactPurchase, error)
	FindBySessionID(ctx context.Context, sessionID string) (*models.ContactPurchase, error)
	HasCompleted(ctx context.Context, orderID, performerID uuid.UUID) (bool, error)
	CompletePending(ctx context.Context, sessionID string, paymentIntentID *string) (bool, error)
	ExpirePending(ctx context.Context, sessionID string) (bool, error)
}
