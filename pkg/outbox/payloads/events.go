package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OfferCreatedEvent tells downstream systems a performer bid on an order.
type OfferCreatedEvent struct {
	OfferID     uuid.UUID        `json:"offer_id"`
	OrderID     uuid.UUID        `json:"order_id"`
	CustomerID  uuid.UUID        `json:"customer_id"`
	PerformerID uuid.UUID        `json:"performer_id"`
	Price       *decimal.Decimal `json:"price,omitempty"`
}

// OfferAcceptedEvent is emitted when a customer accepts an offer.
type OfferAcceptedEvent struct {
	OfferID     uuid.UUID `json:"offer_id"`
	OrderID     uuid.UUID `json:"order_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	PerformerID uuid.UUID `json:"performer_id"`
}

// ContactPurchasedEvent fires after a paid checkout session is reconciled.
type ContactPurchasedEvent struct {
	PurchaseID  uuid.UUID       `json:"purchase_id"`
	OrderID     uuid.UUID       `json:"order_id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	PerformerID uuid.UUID       `json:"performer_id"`
	Amount      decimal.Decimal `json:"amount"`
	PurchasedAt time.Time       `json:"purchased_at"`
}

// ReviewReminderEvent nudges a customer to review a finished order.
type ReviewReminderEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	PerformerID uuid.UUID `json:"performer_id"`
}
