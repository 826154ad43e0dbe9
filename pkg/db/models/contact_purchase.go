package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veoxhq/veox-backend/pkg/enums"
)

// ContactPurchase is the paid unlock token for a (order, performer) pair.
// Only the Stripe webhook path may move it to completed.
type ContactPurchase struct {
	ID                      uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID                 uuid.UUID            `gorm:"column:order_id;type:uuid;not null"`
	PerformerID             uuid.UUID            `gorm:"column:performer_id;type:uuid;not null"`
	StripeCheckoutSessionID string               `gorm:"column:stripe_checkout_session_id;type:text;not null;uniqueIndex"`
	StripePaymentIntentID   *string              `gorm:"column:stripe_payment_intent_id;type:text"`
	Amount                  decimal.Decimal      `gorm:"column:amount;type:numeric(12,2);not null"`
	Status                  enums.PurchaseStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt               time.Time            `gorm:"column:created_at;autoCreateTime"`
}
