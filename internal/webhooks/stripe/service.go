package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/veoxhq/veox-backend/internal/contacts"
	"github.com/veoxhq/veox-backend/internal/notifications"
	"github.com/veoxhq/veox-backend/internal/orders"
	"github.com/veoxhq/veox-backend/pkg/enums"
	pkgerrors "github.com/veoxhq/veox-backend/pkg/errors"
	"github.com/veoxhq/veox-backend/pkg/logger"
	pkgoutbox "github.com/veoxhq/veox-backend/pkg/outbox"
	"github.com/veoxhq/veox-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event pkgoutbox.DomainEvent) error
}

type notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, input notifications.NotifyInput) error
}

type eventGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// ServiceParams bundles the reconciliation dependencies.
type ServiceParams struct {
	ContactsRepo      contacts.Repository
	OrdersRepo        orders.Repository
	TransactionRunner txRunner
	Outbox            outboxPublisher
	Notifier          notifier
	Guard             eventGuard
	Logger            *logger.Logger
}

// Service reconciles Stripe checkout events against contact purchases.
type Service struct {
	contactsRepo contacts.Repository
	ordersRepo   orders.Repository
	txRunner     txRunner
	outbox       outboxPublisher
	notifier     notifier
	guard        eventGuard
	logg         *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.ContactsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "contacts repo required")
	}
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox publisher required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifier required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	return &Service{
		contactsRepo: params.ContactsRepo,
		ordersRepo:   params.OrdersRepo,
		txRunner:     params.TransactionRunner,
		outbox:       params.Outbox,
		notifier:     params.Notifier,
		guard:        params.Guard,
		logg:         params.Logger,
	}, nil
}

// HandleEvent processes a verified Stripe event. Signature verification
// happens at the controller; by the time an event reaches here it is trusted.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	var handler func(context.Context, *stripe.Event) error
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		handler = s.handleCheckoutCompleted
	case stripe.EventTypeCheckoutSessionExpired:
		handler = s.handleCheckoutExpired
	default:
		return nil
	}

	seen, err := s.guard.CheckAndMark(ctx, event.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check event idempotency")
	}
	if seen {
		s.logInfo(ctx, event.ID, "duplicate stripe event skipped")
		return nil
	}

	if err := handler(ctx, event); err != nil {
		// Release the guard so the provider's retry can try again.
		if delErr := s.guard.Delete(ctx, event.ID); delErr != nil {
			s.logWarn(ctx, event.ID, "release idempotency key failed")
		}
		return err
	}
	return nil
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session")
	}
	if session.Metadata["purpose"] != contacts.MetadataPurpose {
		return nil
	}

	var paymentIntentID *string
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		paymentIntentID = &session.PaymentIntent.ID
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		contactsTx := s.contactsRepo.WithTx(tx)

		purchase, err := contactsTx.FindBySessionID(ctx, session.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Ack so the provider does not retry-storm an unknown session.
				s.logWarn(ctx, event.ID, "contact purchase not found for session")
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load contact purchase")
		}

		completed, err := contactsTx.CompletePending(ctx, session.ID, paymentIntentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete contact purchase")
		}
		if !completed {
			s.logInfo(ctx, event.ID, "contact purchase already reconciled")
			return nil
		}

		order, err := s.ordersRepo.WithTx(tx).FindByID(ctx, purchase.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}

		link := "/orders/" + order.ID.String()
		if err := s.notifier.Notify(ctx, tx, notifications.NotifyInput{
			UserID:  order.CustomerID,
			Type:    enums.NotificationTypeContactPurchased,
			Title:   "Кто-то купил доступ к вашим контактам",
			Message: "Исполнитель получил доступ к вашим контактным данным для заказа \"" + order.Title + "\".",
			Link:    &link,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "notify customer")
		}

		return s.outbox.Emit(ctx, tx, pkgoutbox.DomainEvent{
			EventType:     enums.EventContactPurchased,
			AggregateType: enums.AggregatePurchase,
			AggregateID:   purchase.ID,
			Actor:         &pkgoutbox.ActorRef{UserID: purchase.PerformerID, Role: enums.UserRolePerformer.String()},
			Data: payloads.ContactPurchasedEvent{
				PurchaseID:  purchase.ID,
				OrderID:     order.ID,
				CustomerID:  order.CustomerID,
				PerformerID: purchase.PerformerID,
				Amount:      purchase.Amount,
				PurchasedAt: time.Now().UTC(),
			},
			Version: 1,
		})
	})
}

func (s *Service) handleCheckoutExpired(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session")
	}
	if session.Metadata["purpose"] != contacts.MetadataPurpose {
		return nil
	}

	expired, err := s.contactsRepo.ExpirePending(ctx, session.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "expire contact purchase")
	}
	if expired {
		s.logInfo(ctx, event.ID, "contact purchase expired")
	}
	return nil
}

func (s *Service) logInfo(ctx context.Context, eventID, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"stripe_event_id": eventID}), msg)
}

func (s *Service) logWarn(ctx context.Context, eventID, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"stripe_event_id": eventID}), msg)
}
