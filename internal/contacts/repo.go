package contacts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veoxhq/veox-backend/pkg/db/models"
	"github.com/veoxhq/veox-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a contact purchases repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, purchase *models.ContactPurchase) (*models.ContactPurchase, error) {
	if err := r.db.WithContext(ctx).Create(purchase).Error; err != nil {
		return nil, err
	}
	return purchase, nil
}

func (r *repository) FindBySessionID(ctx context.Context, sessionID string) (*models.ContactPurchase, error) {
	var purchase models.ContactPurchase
	err := r.db.WithContext(ctx).
		Where("stripe_checkout_session_id = ?", sessionID).
		First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) HasCompleted(ctx context.Context, orderID, performerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ContactPurchase{}).
		Where("order_id = ? AND performer_id = ? AND status = ?", orderID, performerID, enums.PurchaseStatusCompleted).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CompletePending flips a pending purchase to completed. Zero rows means the
// purchase was already reconciled; webhook retries treat that as a no-op.
func (r *repository) CompletePending(ctx context.Context, sessionID string, paymentIntentID *string) (bool, error) {
	updates := map[string]any{"status": enums.PurchaseStatusCompleted}
	if paymentIntentID != nil {
		updates["stripe_payment_intent_id"] = *paymentIntentID
	}
	result := r.db.WithContext(ctx).
		Model(&models.ContactPurchase{}).
		Where("stripe_checkout_session_id = ? AND status = ?", sessionID, enums.PurchaseStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ExpirePending marks a pending purchase as expired once its checkout session
// lapsed. A purchase that already completed is left alone.
func (r *repository) ExpirePending(ctx context.Context, sessionID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ContactPurchase{}).
		Where("stripe_checkout_session_id = ? AND status = ?", sessionID, enums.PurchaseStatusPending).
		Update("status", enums.PurchaseStatusExpired)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
