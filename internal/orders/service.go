package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/veoxhq/veox-backend/internal/users"
	"github.com/veoxhq/veox-backend/pkg/db/models"
	"github.com/veoxhq/veox-backend/pkg/enums"
	pkgerrors "github.com/veoxhq/veox-backend/pkg/errors"
	"github.com/veoxhq/veox-backend/pkg/pagination"
)

type contactAccessChecker interface {
	HasAccess(ctx context.Context, orderID, userID uuid.UUID) (bool, error)
}

// Actor identifies the authenticated caller for gating decisions.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Service exposes order creation and read paths.
type Service interface {
	Create(ctx context.Context, customerID uuid.UUID, req CreateOrderRequest) (*OrderSummary, error)
	ListOpen(ctx context.Context, params pagination.Params) (*OrderList, error)
	ListMine(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error)
	Detail(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDetail, error)
}

type service struct {
	repo   Repository
	access contactAccessChecker
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, access contactAccessChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if access == nil {
		return nil, fmt.Errorf("contact access checker required")
	}
	return &service{repo: repo, access: access}, nil
}

func (s *service) Create(ctx context.Context, customerID uuid.UUID, req CreateOrderRequest) (*OrderSummary, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if strings.TrimSpace(req.Location) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location is required")
	}
	if req.Budget != nil && req.Budget.Cmp(decimal.Zero) <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "budget must be positive")
	}

	order, err := s.repo.Create(ctx, &models.Order{
		CustomerID:  customerID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		Budget:      req.Budget,
		Status:      enums.OrderStatusOpen,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}

	summary := summaryFromModel(*order)
	return &summary, nil
}

func (s *service) ListOpen(ctx context.Context, params pagination.Params) (*OrderList, error) {
	list, err := s.repo.ListOpen(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list open orders")
	}
	return list, nil
}

func (s *service) ListMine(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	list, err := s.repo.ListByCustomer(ctx, customerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list customer orders")
	}
	return list, nil
}

func (s *service) Detail(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDetail, error) {
	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	isOwner := order.CustomerID == actor.UserID

	detail := &OrderDetail{
		ID:          order.ID,
		CustomerID:  order.CustomerID,
		Title:       order.Title,
		Description: order.Description,
		Location:    order.Location,
		Budget:      order.Budget,
		Status:      order.Status,
		Offers:      make([]OfferView, 0, len(order.Offers)),
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}

	// The owner sees every offer. Anyone else only sees their own bids.
	for _, offer := range order.Offers {
		if !isOwner && offer.PerformerID != actor.UserID {
			continue
		}
		detail.Offers = append(detail.Offers, offerViewFromModel(offer))
	}

	hasAccess := isOwner
	if !isOwner {
		hasAccess, err = s.access.HasAccess(ctx, order.ID, actor.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check contact access")
		}
	}
	if hasAccess {
		detail.Contact = users.ContactFromModel(order.Customer)
	}

	return detail, nil
}
