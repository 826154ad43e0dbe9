package offers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/veoxhq/veox-backend/internal/notifications"
	"github.com/veoxhq/veox-backend/internal/orders"
	dbpkg "github.com/veoxhq/veox-backend/pkg/db"
	"github.com/veoxhq/veox-backend/pkg/db/models"
	"github.com/veoxhq/veox-backend/pkg/enums"
	pkgerrors "github.com/veoxhq/veox-backend/pkg/errors"
	"github.com/veoxhq/veox-backend/pkg/outbox"
	"github.com/veoxhq/veox-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, input notifications.NotifyInput) error
}

// Actor identifies the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Service covers the offer lifecycle: bidding, acceptance, listing.
type Service interface {
	Create(ctx context.Context, performer Actor, req CreateOfferRequest) (*OfferDTO, error)
	Accept(ctx context.Context, caller Actor, offerID uuid.UUID) (*OfferDTO, error)
	ListForOrder(ctx context.Context, caller Actor, orderID uuid.UUID) ([]OfferDTO, error)
}

type service struct {
	repo       Repository
	ordersRepo orders.Repository
	tx         txRunner
	outbox     outboxPublisher
	notifier   notifier
}

// NewService builds the offer lifecycle service.
func NewService(repo Repository, ordersRepo orders.Repository, tx txRunner, outboxSvc outboxPublisher, notify notifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{
		repo:       repo,
		ordersRepo: ordersRepo,
		tx:         tx,
		outbox:     outboxSvc,
		notifier:   notify,
	}, nil
}

func (s *service) Create(ctx context.Context, performer Actor, req CreateOfferRequest) (*OfferDTO, error) {
	if performer.Role != enums.UserRolePerformer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only performers can create offers")
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}
	if req.Price != nil && req.Price.Cmp(decimal.Zero) <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	order, err := s.ordersRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.CustomerID == performer.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot bid on your own order")
	}
	if order.Status != enums.OrderStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is not open")
	}

	var created *models.Offer
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		offer, err := s.repo.WithTx(tx).Create(ctx, &models.Offer{
			OrderID:     order.ID,
			PerformerID: performer.UserID,
			Price:       req.Price,
			Message:     message,
			Status:      enums.OfferStatusPending,
		})
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_offers_order_performer") {
				return pkgerrors.New(pkgerrors.CodeConflict, "you have already responded to this order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create offer")
		}

		link := orderLink(order.ID)
		if err := s.notifier.Notify(ctx, tx, notifications.NotifyInput{
			UserID:  order.CustomerID,
			Type:    enums.NotificationTypeNewOffer,
			Title:   "Новый отклик на ваш заказ",
			Message: fmt.Sprintf("Исполнитель откликнулся на ваш заказ %q.", order.Title),
			Link:    &link,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "notify customer")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOfferCreated,
			AggregateType: enums.AggregateOffer,
			AggregateID:   offer.ID,
			Actor:         &outbox.ActorRef{UserID: performer.UserID, Role: performer.Role.String()},
			Data: payloads.OfferCreatedEvent{
				OfferID:     offer.ID,
				OrderID:     order.ID,
				CustomerID:  order.CustomerID,
				PerformerID: performer.UserID,
				Price:       req.Price,
			},
			Version: 1,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit offer created")
		}

		created = offer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fromModel(created), nil
}

// Accept resolves an order's winner. The whole transition runs in one
// transaction guarded by two conditional updates, so under concurrent accepts
// exactly one offer per order ever reaches accepted.
func (s *service) Accept(ctx context.Context, caller Actor, offerID uuid.UUID) (*OfferDTO, error) {
	offer, err := s.repo.FindByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load offer")
	}

	order, err := s.ordersRepo.FindByID(ctx, offer.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.CustomerID != caller.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the order's customer can accept offers")
	}
	if offer.Status != enums.OfferStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "offer is not pending")
	}
	if order.Status != enums.OrderStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is not open")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersTx := s.ordersRepo.WithTx(tx)
		offersTx := s.repo.WithTx(tx)

		claimed, err := ordersTx.ClaimForAcceptance(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim order")
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already has an accepted offer")
		}

		accepted, err := offersTx.AcceptPending(ctx, offer.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "accept offer")
		}
		if !accepted {
			// Rolls the order claim back with the transaction.
			return pkgerrors.New(pkgerrors.CodeConflict, "offer is no longer pending")
		}

		if _, err := offersTx.RejectPendingSiblings(ctx, order.ID, offer.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reject sibling offers")
		}

		link := orderLink(order.ID)
		if err := s.notifier.Notify(ctx, tx, notifications.NotifyInput{
			UserID:  offer.PerformerID,
			Type:    enums.NotificationTypeOfferAccepted,
			Title:   "Ваше предложение принято",
			Message: "Заказчик принял ваше предложение на заказ. Теперь вы можете получить контакты заказчика.",
			Link:    &link,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "notify performer")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOfferAccepted,
			AggregateType: enums.AggregateOffer,
			AggregateID:   offer.ID,
			Actor:         &outbox.ActorRef{UserID: caller.UserID, Role: caller.Role.String()},
			Data: payloads.OfferAcceptedEvent{
				OfferID:     offer.ID,
				OrderID:     order.ID,
				CustomerID:  order.CustomerID,
				PerformerID: offer.PerformerID,
			},
			Version: 1,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit offer accepted")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	offer.Status = enums.OfferStatusAccepted
	return fromModel(offer), nil
}

func (s *service) ListForOrder(ctx context.Context, caller Actor, orderID uuid.UUID) ([]OfferDTO, error) {
	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list offers")
	}

	isOwner := order.CustomerID == caller.UserID
	result := make([]OfferDTO, 0, len(rows))
	for i := range rows {
		if !isOwner && rows[i].PerformerID != caller.UserID {
			continue
		}
		result = append(result, *fromModel(&rows[i]))
	}
	return result, nil
}

func orderLink(orderID uuid.UUID) string {
	return fmt.Sprintf("/orders/%s", orderID)
}
