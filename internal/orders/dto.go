package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veoxhq/veox-backend/internal/users"
	"github.com/veoxhq/veox-backend/pkg/db/models"
	"github.com/veoxhq/veox-backend/pkg/enums"
)

// CreateOrderRequest is the payload customers submit to post a new order.
type CreateOrderRequest struct {
	Title       string           `json:"title" validate:"required,max=200"`
	Description string           `json:"description" validate:"required"`
	Location    string           `json:"location" validate:"required,max=200"`
	Budget      *decimal.Decimal `json:"budget,omitempty"`
}

// OrderSummary is the list-view shape without offers or contacts.
type OrderSummary struct {
	ID          uuid.UUID         `json:"id"`
	CustomerID  uuid.UUID         `json:"customer_id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Location    string            `json:"location"`
	Budget      *decimal.Decimal  `json:"budget,omitempty"`
	Status      enums.OrderStatus `json:"status"`
	OfferCount  int               `json:"offer_count"`
	CreatedAt   time.Time         `json:"created_at"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OfferView is the offer shape embedded in an order detail.
type OfferView struct {
	ID          uuid.UUID         `json:"id"`
	PerformerID uuid.UUID         `json:"performer_id"`
	Performer   *users.UserDTO    `json:"performer,omitempty"`
	Price       *decimal.Decimal  `json:"price,omitempty"`
	Message     string            `json:"message"`
	Status      enums.OfferStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// OrderDetail is the full order view. Contact is only populated when the
// caller has contact access on the order.
type OrderDetail struct {
	ID          uuid.UUID         `json:"id"`
	CustomerID  uuid.UUID         `json:"customer_id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Location    string            `json:"location"`
	Budget      *decimal.Decimal  `json:"budget,omitempty"`
	Status      enums.OrderStatus `json:"status"`
	Offers      []OfferView       `json:"offers"`
	Contact     *users.ContactDTO `json:"contact,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func summaryFromModel(order models.Order) OrderSummary {
	return OrderSummary{
		ID:          order.ID,
		CustomerID:  order.CustomerID,
		Title:       order.Title,
		Description: order.Description,
		Location:    order.Location,
		Budget:      order.Budget,
		Status:      order.Status,
		OfferCount:  len(order.Offers),
		CreatedAt:   order.CreatedAt,
	}
}

func offerViewFromModel(offer models.Offer) OfferView {
	return OfferView{
		ID:          offer.ID,
		PerformerID: offer.PerformerID,
		Performer:   users.FromModel(offer.Performer),
		Price:       offer.Price,
		Message:     offer.Message,
		Status:      offer.Status,
		CreatedAt:   offer.CreatedAt,
	}
}
