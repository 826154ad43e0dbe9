package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veoxhq/veox-backend/pkg/enums"
)

// Offer is a performer's bid against an order. One offer per
// (order, performer); at most one offer per order ever becomes accepted.
type Offer struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID         `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_offers_order_performer,priority:1"`
	PerformerID uuid.UUID         `gorm:"column:performer_id;type:uuid;not null;uniqueIndex:ux_offers_order_performer,priority:2"`
	Price       *decimal.Decimal  `gorm:"column:price;type:numeric(12,2)"`
	Message     string            `gorm:"column:message;type:text;not null"`
	Status      enums.OfferStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Performer   *User             `gorm:"foreignKey:PerformerID"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
