package contacts

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/veoxhq/veox-backend/internal/offers"
	"github.com/veoxhq/veox-backend/internal/orders"
	"github.com/veoxhq/veox-backend/pkg/config"
	"github.com/veoxhq/veox-backend/pkg/db/models"
	"github.com/veoxhq/veox-backend/pkg/enums"
	pkgerrors "github.com/veoxhq/veox-backend/pkg/errors"
)

type stubContactsRepo struct {
	Repository
	completed map[string]bool
	created   *models.ContactPurchase
}

func pairKey(orderID, performerID uuid.UUID) string {
	return orderID.String() + "|" + performerID.String()
}

func (s *stubContactsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubContactsRepo) Create(ctx context.Context, purchase *models.ContactPurchase) (*models.ContactPurchase, error) {
	purchase.ID = uuid.New()
	s.created = purchase
	return purchase, nil
}

func (s *stubContactsRepo) HasCompleted(ctx context.Context, orderID, performerID uuid.UUID) (bool, error) {
	return s.completed[pairKey(orderID, performerID)], nil
}

type stubContactOrders struct {
	orders.Repository
	rows map[uuid.UUID]*models.Order
}

func (s *stubContactOrders) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubContactOrders) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := s.rows[id]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubContactOffers struct {
	offers.Repository
	rows map[string]*models.Offer
}

func (s *stubContactOffers) WithTx(tx *gorm.DB) offers.Repository { return s }

func (s *stubContactOffers) FindByOrderAndPerformer(ctx context.Context, orderID, performerID uuid.UUID) (*models.Offer, error) {
	if offer, ok := s.rows[pairKey(orderID, performerID)]; ok {
		return offer, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubCheckoutClient struct {
	params  *stripe.CheckoutSessionParams
	session *stripe.CheckoutSession
	err     error
}

func (s *stubCheckoutClient) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

type stubUserFinder struct {
	rows map[uuid.UUID]*models.User
}

func (s *stubUserFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.rows[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type contactsTestSetup struct {
	service   Service
	repo      *stubContactsRepo
	orders    *stubContactOrders
	offers    *stubContactOffers
	stripe    *stubCheckoutClient
	users     *stubUserFinder
	order     *models.Order
	performer *models.User
}

func newContactsTestSetup(t *testing.T) *contactsTestSetup {
	t.Helper()
	order := &models.Order{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Title:      "Fix kitchen sink",
		Status:     enums.OrderStatusInProgress,
	}
	performer := &models.User{
		ID:     uuid.New(),
		Email:  "mati@example.com",
		Role:   enums.UserRolePerformer,
		Locale: enums.LocaleEstonian,
	}

	repo := &stubContactsRepo{completed: map[string]bool{}}
	orderStore := &stubContactOrders{rows: map[uuid.UUID]*models.Order{order.ID: order}}
	offerStore := &stubContactOffers{rows: map[string]*models.Offer{}}
	checkout := &stubCheckoutClient{session: &stripe.CheckoutSession{
		ID:  "cs_test_abc",
		URL: "https://checkout.stripe.com/pay/cs_test_abc",
	}}
	userFinder := &stubUserFinder{rows: map[uuid.UUID]*models.User{performer.ID: performer}}

	svc, err := NewService(repo, orderStore, offerStore, checkout, userFinder, config.AppConfig{BaseURL: "http://localhost:3000"})
	require.NoError(t, err)

	return &contactsTestSetup{
		service:   svc,
		repo:      repo,
		orders:    orderStore,
		offers:    offerStore,
		stripe:    checkout,
		users:     userFinder,
		order:     order,
		performer: performer,
	}
}

func (s *contactsTestSetup) acceptOffer() {
	s.offers.rows[pairKey(s.order.ID, s.performer.ID)] = &models.Offer{
		ID:          uuid.New(),
		OrderID:     s.order.ID,
		PerformerID: s.performer.ID,
		Status:      enums.OfferStatusAccepted,
	}
}

func TestInitiatePurchaseHappyPath(t *testing.T) {
	setup := newContactsTestSetup(t)
	setup.acceptOffer()

	dto, err := setup.service.InitiatePurchase(context.Background(), setup.performer.ID, setup.order.ID)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_abc", dto.SessionID)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_abc", dto.CheckoutURL)

	created := setup.repo.created
	require.NotNil(t, created)
	assert.Equal(t, enums.PurchaseStatusPending, created.Status)
	assert.Equal(t, "cs_test_abc", created.StripeCheckoutSessionID)
	assert.True(t, ContactPrice.Equal(created.Amount))

	params := setup.stripe.params
	require.NotNil(t, params)
	assert.Equal(t, setup.order.ID.String(), params.Metadata["order_id"])
	assert.Equal(t, setup.performer.ID.String(), params.Metadata["performer_id"])
	assert.Equal(t, MetadataPurpose, params.Metadata["purpose"])
	require.Len(t, params.LineItems, 1)
	assert.EqualValues(t, ContactPriceCents, *params.LineItems[0].PriceData.UnitAmount)
	assert.Contains(t, *params.SuccessURL, "/et/performer/orders/")
}

func TestInitiatePurchaseRequiresAcceptedOffer(t *testing.T) {
	setup := newContactsTestSetup(t)

	_, err := setup.service.InitiatePurchase(context.Background(), setup.performer.ID, setup.order.ID)
	assertContactsCode(t, err, pkgerrors.CodeForbidden)

	setup.offers.rows[pairKey(setup.order.ID, setup.performer.ID)] = &models.Offer{
		Status: enums.OfferStatusPending,
	}
	_, err = setup.service.InitiatePurchase(context.Background(), setup.performer.ID, setup.order.ID)
	assertContactsCode(t, err, pkgerrors.CodeForbidden)
}

func TestInitiatePurchaseAlreadyPurchased(t *testing.T) {
	setup := newContactsTestSetup(t)
	setup.acceptOffer()
	setup.repo.completed[pairKey(setup.order.ID, setup.performer.ID)] = true

	_, err := setup.service.InitiatePurchase(context.Background(), setup.performer.ID, setup.order.ID)
	assertContactsCode(t, err, pkgerrors.CodeConflict)
}

func TestInitiatePurchaseOrderNotFound(t *testing.T) {
	setup := newContactsTestSetup(t)

	_, err := setup.service.InitiatePurchase(context.Background(), setup.performer.ID, uuid.New())
	assertContactsCode(t, err, pkgerrors.CodeNotFound)
}

func TestInitiatePurchaseStripeFailure(t *testing.T) {
	setup := newContactsTestSetup(t)
	setup.acceptOffer()
	setup.stripe.err = fmt.Errorf("stripe unavailable")

	_, err := setup.service.InitiatePurchase(context.Background(), setup.performer.ID, setup.order.ID)
	assertContactsCode(t, err, pkgerrors.CodeDependency)
	assert.Nil(t, setup.repo.created, "no purchase row without a session")
}

func TestHasAccessCustomerAndPurchaser(t *testing.T) {
	setup := newContactsTestSetup(t)

	has, err := setup.service.HasAccess(context.Background(), setup.order.ID, setup.order.CustomerID)
	require.NoError(t, err)
	assert.True(t, has, "the customer always sees their own contacts")

	has, err = setup.service.HasAccess(context.Background(), setup.order.ID, setup.performer.ID)
	require.NoError(t, err)
	assert.False(t, has)

	setup.repo.completed[pairKey(setup.order.ID, setup.performer.ID)] = true
	has, err = setup.service.HasAccess(context.Background(), setup.order.ID, setup.performer.ID)
	require.NoError(t, err)
	assert.True(t, has)
}

func assertContactsCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
}
