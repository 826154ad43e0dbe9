package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veoxhq/veox-backend/pkg/enums"
)

// Order is a customer-posted job request.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID  uuid.UUID         `gorm:"column:customer_id;type:uuid;not null"`
	Title       string            `gorm:"column:title;type:text;not null"`
	Description string            `gorm:"column:description;type:text;not null"`
	Location    string            `gorm:"column:location;type:text;not null"`
	Budget      *decimal.Decimal  `gorm:"column:budget;type:numeric(12,2)"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:'open'"`
	Customer    *User             `gorm:"foreignKey:CustomerID"`
	Offers      []Offer           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
