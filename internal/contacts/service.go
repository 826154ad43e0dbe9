package contacts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/veoxhq/veox-backend/internal/offers"
	"github.com/veoxhq/veox-backend/internal/orders"
	"github.com/veoxhq/veox-backend/pkg/config"
	"github.com/veoxhq/veox-backend/pkg/db/models"
	"github.com/veoxhq/veox-backend/pkg/enums"
	pkgerrors "github.com/veoxhq/veox-backend/pkg/errors"
)

// MetadataPurpose tags checkout sessions created for contact unlocks.
const MetadataPurpose = "contact_purchase"

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service gates the customer's contact details behind a paid unlock.
type Service interface {
	InitiatePurchase(ctx context.Context, performerID, orderID uuid.UUID) (*CheckoutSessionDTO, error)
	HasAccess(ctx context.Context, orderID, userID uuid.UUID) (bool, error)
}

type service struct {
	repo       Repository
	ordersRepo orders.Repository
	offersRepo offers.Repository
	stripe     StripeCheckoutClient
	users      userFinder
	appCfg     config.AppConfig
}

// NewService builds the contact unlock service.
func NewService(repo Repository, ordersRepo orders.Repository, offersRepo offers.Repository, stripeClient StripeCheckoutClient, users userFinder, appCfg config.AppConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("contacts repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if offersRepo == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	if stripeClient == nil {
		return nil, fmt.Errorf("stripe checkout client required")
	}
	if users == nil {
		return nil, fmt.Errorf("user finder required")
	}
	return &service{
		repo:       repo,
		ordersRepo: ordersRepo,
		offersRepo: offersRepo,
		stripe:     stripeClient,
		users:      users,
		appCfg:     appCfg,
	}, nil
}

func (s *service) InitiatePurchase(ctx context.Context, performerID, orderID uuid.UUID) (*CheckoutSessionDTO, error) {
	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	offer, err := s.offersRepo.FindByOrderAndPerformer(ctx, orderID, performerID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load offer")
	}
	if offer == nil || offer.Status != enums.OfferStatusAccepted {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "your offer must be accepted by the customer first")
	}

	purchased, err := s.repo.HasCompleted(ctx, orderID, performerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing purchase")
	}
	if purchased {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "contact access already purchased")
	}

	performer, err := s.users.FindByID(ctx, performerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load performer")
	}

	locale := performer.Locale.OrDefault()
	successURL := fmt.Sprintf("%s/%s/performer/orders/%s/payment-success?session_id={CHECKOUT_SESSION_ID}", s.appCfg.BaseURL, locale, orderID)
	cancelURL := fmt.Sprintf("%s/%s/performer/orders/%s/purchase", s.appCfg.BaseURL, locale, orderID)

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(ContactPriceCurrency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("Доступ к контактам заказчика: %s", order.Title)),
						Description: stripe.String("Покупка доступа к контактным данным заказчика"),
					},
					UnitAmount: stripe.Int64(ContactPriceCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:    stripe.String(successURL),
		CancelURL:     stripe.String(cancelURL),
		CustomerEmail: stripe.String(performer.Email),
	}
	params.AddMetadata("order_id", orderID.String())
	params.AddMetadata("performer_id", performerID.String())
	params.AddMetadata("purpose", MetadataPurpose)

	session, err := s.stripe.CreateSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}

	if _, err := s.repo.Create(ctx, &models.ContactPurchase{
		OrderID:                 orderID,
		PerformerID:             performerID,
		StripeCheckoutSessionID: session.ID,
		Amount:                  ContactPrice,
		Status:                  enums.PurchaseStatusPending,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record pending purchase")
	}

	return &CheckoutSessionDTO{
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	}, nil
}

// HasAccess reports whether the user may see the order's contact details:
// the order's own customer always can, anyone else needs a completed purchase.
func (s *service) HasAccess(ctx context.Context, orderID, userID uuid.UUID) (bool, error) {
	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if order.CustomerID == userID {
		return true, nil
	}
	return s.repo.HasCompleted(ctx, orderID, userID)
}
