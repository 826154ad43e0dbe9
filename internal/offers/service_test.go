package offers

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/veoxhq/veox-backend/internal/notifications"
	"github.com/veoxhq/veox-backend/internal/orders"
	"github.com/veoxhq/veox-backend/pkg/db/models"
	"github.com/veoxhq/veox-backend/pkg/enums"
	pkgerrors "github.com/veoxhq/veox-backend/pkg/errors"
	"github.com/veoxhq/veox-backend/pkg/outbox"
)

type stubOffersRepo struct {
	Repository
	offers      map[uuid.UUID]*models.Offer
	createErr   error
	acceptOK    bool
	rejectCount int64
	rejectedFor []uuid.UUID
	listRows    []models.Offer
}

func newStubOffersRepo() *stubOffersRepo {
	return &stubOffersRepo{offers: map[uuid.UUID]*models.Offer{}, acceptOK: true}
}

func (s *stubOffersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOffersRepo) Create(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	offer.ID = uuid.New()
	s.offers[offer.ID] = offer
	return offer, nil
}

func (s *stubOffersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	if offer, ok := s.offers[id]; ok {
		return offer, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOffersRepo) AcceptPending(ctx context.Context, offerID uuid.UUID) (bool, error) {
	return s.acceptOK, nil
}

func (s *stubOffersRepo) RejectPendingSiblings(ctx context.Context, orderID, acceptedOfferID uuid.UUID) (int64, error) {
	s.rejectedFor = append(s.rejectedFor, orderID)
	return s.rejectCount, nil
}

func (s *stubOffersRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Offer, error) {
	return s.listRows, nil
}

type stubOrderStore struct {
	orders.Repository
	orders  map[uuid.UUID]*models.Order
	claimOK bool
}

func newStubOrderStore() *stubOrderStore {
	return &stubOrderStore{orders: map[uuid.UUID]*models.Order{}, claimOK: true}
}

func (s *stubOrderStore) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrderStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := s.orders[id]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderStore) ClaimForAcceptance(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return s.claimOK, nil
}

type stubOfferTxRunner struct{}

func (stubOfferTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type recordingOutbox struct {
	events []outbox.DomainEvent
}

func (r *recordingOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	r.events = append(r.events, event)
	return nil
}

type recordingNotifier struct {
	inputs []notifications.NotifyInput
}

func (r *recordingNotifier) Notify(ctx context.Context, tx *gorm.DB, input notifications.NotifyInput) error {
	r.inputs = append(r.inputs, input)
	return nil
}

type offersTestSetup struct {
	service  Service
	repo     *stubOffersRepo
	orders   *stubOrderStore
	outbox   *recordingOutbox
	notifier *recordingNotifier
}

func newOffersTestSetup(t *testing.T) *offersTestSetup {
	t.Helper()
	repo := newStubOffersRepo()
	orderStore := newStubOrderStore()
	events := &recordingOutbox{}
	notify := &recordingNotifier{}
	svc, err := NewService(repo, orderStore, stubOfferTxRunner{}, events, notify)
	require.NoError(t, err)
	return &offersTestSetup{service: svc, repo: repo, orders: orderStore, outbox: events, notifier: notify}
}

func (s *offersTestSetup) seedOrder(status enums.OrderStatus) *models.Order {
	order := &models.Order{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Title:      "Fix kitchen sink",
		Status:     status,
	}
	s.orders.orders[order.ID] = order
	return order
}

func performerActor() Actor {
	return Actor{UserID: uuid.New(), Role: enums.UserRolePerformer}
}

func TestCreateOfferHappyPath(t *testing.T) {
	setup := newOffersTestSetup(t)
	order := setup.seedOrder(enums.OrderStatusOpen)
	actor := performerActor()
	price := decimal.NewFromInt(50)

	dto, err := setup.service.Create(context.Background(), actor, CreateOfferRequest{
		OrderID: order.ID,
		Price:   &price,
		Message: "  I can do this tomorrow ",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OfferStatusPending, dto.Status)
	assert.Equal(t, "I can do this tomorrow", dto.Message)

	require.Len(t, setup.notifier.inputs, 1)
	note := setup.notifier.inputs[0]
	assert.Equal(t, order.CustomerID, note.UserID)
	assert.Equal(t, enums.NotificationTypeNewOffer, note.Type)
	require.NotNil(t, note.Link)
	assert.Equal(t, fmt.Sprintf("/orders/%s", order.ID), *note.Link)

	require.Len(t, setup.outbox.events, 1)
	assert.Equal(t, enums.EventOfferCreated, setup.outbox.events[0].EventType)
	assert.Equal(t, dto.ID, setup.outbox.events[0].AggregateID)
}

func TestCreateOfferRequiresPerformerRole(t *testing.T) {
	setup := newOffersTestSetup(t)
	order := setup.seedOrder(enums.OrderStatusOpen)

	_, err := setup.service.Create(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}, CreateOfferRequest{
		OrderID: order.ID,
		Message: "hi",
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestCreateOfferOrderNotOpen(t *testing.T) {
	setup := newOffersTestSetup(t)
	order := setup.seedOrder(enums.OrderStatusInProgress)

	_, err := setup.service.Create(context.Background(), performerActor(), CreateOfferRequest{
		OrderID: order.ID,
		Message: "hi",
	})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestCreateOfferOrderNotFound(t *testing.T) {
	setup := newOffersTestSetup(t)

	_, err := setup.service.Create(context.Background(), performerActor(), CreateOfferRequest{
		OrderID: uuid.New(),
		Message: "hi",
	})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreateOfferNoSelfBid(t *testing.T) {
	setup := newOffersTestSetup(t)
	order := setup.seedOrder(enums.OrderStatusOpen)

	_, err := setup.service.Create(context.Background(), Actor{UserID: order.CustomerID, Role: enums.UserRolePerformer}, CreateOfferRequest{
		OrderID: order.ID,
		Message: "hi",
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateOfferDuplicateBecomesConflict(t *testing.T) {
	setup := newOffersTestSetup(t)
	order := setup.seedOrder(enums.OrderStatusOpen)
	setup.repo.createErr = fmt.Errorf(`duplicate key value violates unique constraint "ux_offers_order_performer"`)

	_, err := setup.service.Create(context.Background(), performerActor(), CreateOfferRequest{
		OrderID: order.ID,
		Message: "hi",
	})
	assertCode(t, err, pkgerrors.CodeConflict)
	assert.Empty(t, setup.outbox.events)
}

func acceptFixture(setup *offersTestSetup) (*models.Order, *models.Offer) {
	order := setup.seedOrder(enums.OrderStatusOpen)
	offer := &models.Offer{
		ID:          uuid.New(),
		OrderID:     order.ID,
		PerformerID: uuid.New(),
		Message:     "pick me",
		Status:      enums.OfferStatusPending,
	}
	setup.repo.offers[offer.ID] = offer
	return order, offer
}

func TestAcceptOfferHappyPath(t *testing.T) {
	setup := newOffersTestSetup(t)
	order, offer := acceptFixture(setup)
	setup.repo.rejectCount = 2

	dto, err := setup.service.Accept(context.Background(), Actor{UserID: order.CustomerID, Role: enums.UserRoleCustomer}, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OfferStatusAccepted, dto.Status)
	assert.Equal(t, []uuid.UUID{order.ID}, setup.repo.rejectedFor)

	require.Len(t, setup.notifier.inputs, 1)
	assert.Equal(t, offer.PerformerID, setup.notifier.inputs[0].UserID)
	assert.Equal(t, enums.NotificationTypeOfferAccepted, setup.notifier.inputs[0].Type)

	require.Len(t, setup.outbox.events, 1)
	assert.Equal(t, enums.EventOfferAccepted, setup.outbox.events[0].EventType)
}

func TestAcceptOfferOnlyOrderCustomer(t *testing.T) {
	setup := newOffersTestSetup(t)
	_, offer := acceptFixture(setup)

	_, err := setup.service.Accept(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}, offer.ID)
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestAcceptOfferLosesOrderClaimRace(t *testing.T) {
	setup := newOffersTestSetup(t)
	order, offer := acceptFixture(setup)
	setup.orders.claimOK = false

	_, err := setup.service.Accept(context.Background(), Actor{UserID: order.CustomerID, Role: enums.UserRoleCustomer}, offer.ID)
	assertCode(t, err, pkgerrors.CodeConflict)
	assert.Empty(t, setup.outbox.events)
	assert.Empty(t, setup.notifier.inputs)
}

func TestAcceptOfferLosesOfferRace(t *testing.T) {
	setup := newOffersTestSetup(t)
	order, offer := acceptFixture(setup)
	setup.repo.acceptOK = false

	_, err := setup.service.Accept(context.Background(), Actor{UserID: order.CustomerID, Role: enums.UserRoleCustomer}, offer.ID)
	assertCode(t, err, pkgerrors.CodeConflict)
	assert.Empty(t, setup.outbox.events)
}

func TestAcceptOfferNotPending(t *testing.T) {
	setup := newOffersTestSetup(t)
	order, offer := acceptFixture(setup)
	offer.Status = enums.OfferStatusRejected

	_, err := setup.service.Accept(context.Background(), Actor{UserID: order.CustomerID, Role: enums.UserRoleCustomer}, offer.ID)
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestListForOrderScopesToCaller(t *testing.T) {
	setup := newOffersTestSetup(t)
	order := setup.seedOrder(enums.OrderStatusOpen)
	performerID := uuid.New()
	rows := []models.Offer{
		{ID: uuid.New(), OrderID: order.ID, PerformerID: performerID, Status: enums.OfferStatusPending},
		{ID: uuid.New(), OrderID: order.ID, PerformerID: uuid.New(), Status: enums.OfferStatusPending},
	}
	setup.repo.listRows = rows

	all, err := setup.service.ListForOrder(context.Background(), Actor{UserID: order.CustomerID, Role: enums.UserRoleCustomer}, order.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := setup.service.ListForOrder(context.Background(), Actor{UserID: performerID, Role: enums.UserRolePerformer}, order.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, performerID, own[0].PerformerID)
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
}
