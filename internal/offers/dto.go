package offers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veoxhq/veox-backend/internal/users"
	"github.com/veoxhq/veox-backend/pkg/db/models"
	"github.com/veoxhq/veox-backend/pkg/enums"
)

// CreateOfferRequest is the payload a performer submits to bid on an order.
type CreateOfferRequest struct {
	OrderID uuid.UUID        `json:"order_id" validate:"required"`
	Price   *decimal.Decimal `json:"price,omitempty"`
	Message string           `json:"message" validate:"required"`
}

// OfferDTO is the transport shape for a single offer.
type OfferDTO struct {
	ID          uuid.UUID         `json:"id"`
	OrderID     uuid.UUID         `json:"order_id"`
	PerformerID uuid.UUID         `json:"performer_id"`
	Performer   *users.UserDTO    `json:"performer,omitempty"`
	Price       *decimal.Decimal  `json:"price,omitempty"`
	Message     string            `json:"message"`
	Status      enums.OfferStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func fromModel(offer *models.Offer) *OfferDTO {
	if offer == nil {
		return nil
	}
	return &OfferDTO{
		ID:          offer.ID,
		OrderID:     offer.OrderID,
		PerformerID: offer.PerformerID,
		Performer:   users.FromModel(offer.Performer),
		Price:       offer.Price,
		Message:     offer.Message,
		Status:      offer.Status,
		CreatedAt:   offer.CreatedAt,
		UpdatedAt:   offer.UpdatedAt,
	}
}
