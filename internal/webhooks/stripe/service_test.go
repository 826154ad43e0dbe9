package stripewebhook

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/veoxhq/veox-backend/internal/contacts"
	"github.com/veoxhq/veox-backend/internal/notifications"
	"github.com/veoxhq/veox-backend/internal/orders"
	"github.com/veoxhq/veox-backend/pkg/db/models"
	"github.com/veoxhq/veox-backend/pkg/enums"
	pkgerrors "github.com/veoxhq/veox-backend/pkg/errors"
	pkgoutbox "github.com/veoxhq/veox-backend/pkg/outbox"
)

type stubWebhookContacts struct {
	contacts.Repository

	purchase       *models.ContactPurchase
	completeOK     bool
	completedWith  *string
	completedCalls int
	expiredCalls   int
}

func (s *stubWebhookContacts) WithTx(tx *gorm.DB) contacts.Repository { return s }

func (s *stubWebhookContacts) FindBySessionID(ctx context.Context, sessionID string) (*models.ContactPurchase, error) {
	if s.purchase == nil || s.purchase.StripeCheckoutSessionID != sessionID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.purchase, nil
}

func (s *stubWebhookContacts) CompletePending(ctx context.Context, sessionID string, paymentIntentID *string) (bool, error) {
	s.completedCalls++
	s.completedWith = paymentIntentID
	return s.completeOK, nil
}

func (s *stubWebhookContacts) ExpirePending(ctx context.Context, sessionID string) (bool, error) {
	s.expiredCalls++
	if s.purchase == nil || s.purchase.StripeCheckoutSessionID != sessionID {
		return false, nil
	}
	if s.purchase.Status != enums.PurchaseStatusPending {
		return false, nil
	}
	s.purchase.Status = enums.PurchaseStatusExpired
	return true, nil
}

type stubWebhookOrders struct {
	orders.Repository

	order *models.Order
}

func (s *stubWebhookOrders) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubWebhookOrders) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

type stubWebhookTxRunner struct{}

func (stubWebhookTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type recordingWebhookNotifier struct {
	inputs []notifications.NotifyInput
	err    error
}

func (r *recordingWebhookNotifier) Notify(ctx context.Context, tx *gorm.DB, input notifications.NotifyInput) error {
	if r.err != nil {
		return r.err
	}
	r.inputs = append(r.inputs, input)
	return nil
}

type recordingWebhookOutbox struct {
	events []pkgoutbox.DomainEvent
}

func (r *recordingWebhookOutbox) Emit(ctx context.Context, tx *gorm.DB, event pkgoutbox.DomainEvent) error {
	r.events = append(r.events, event)
	return nil
}

type stubGuard struct {
	seen    map[string]bool
	deleted []string
}

func (s *stubGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[eventID] {
		return true, nil
	}
	s.seen[eventID] = true
	return false, nil
}

func (s *stubGuard) Delete(ctx context.Context, eventID string) error {
	s.deleted = append(s.deleted, eventID)
	delete(s.seen, eventID)
	return nil
}

type webhookSetup struct {
	service  *Service
	contacts *stubWebhookContacts
	orders   *stubWebhookOrders
	notifier *recordingWebhookNotifier
	outbox   *recordingWebhookOutbox
	guard    *stubGuard
}

func newWebhookSetup(t *testing.T) *webhookSetup {
	t.Helper()

	customerID := uuid.New()
	order := &models.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Title:      "Покраска забора",
		Status:     enums.OrderStatusInProgress,
	}
	purchase := &models.ContactPurchase{
		ID:                      uuid.New(),
		OrderID:                 order.ID,
		PerformerID:             uuid.New(),
		StripeCheckoutSessionID: "cs_test_123",
		Amount:                  decimal.New(500, -2),
		Status:                  enums.PurchaseStatusPending,
	}

	setup := &webhookSetup{
		contacts: &stubWebhookContacts{purchase: purchase, completeOK: true},
		orders:   &stubWebhookOrders{order: order},
		notifier: &recordingWebhookNotifier{},
		outbox:   &recordingWebhookOutbox{},
		guard:    &stubGuard{},
	}

	service, err := NewService(ServiceParams{
		ContactsRepo:      setup.contacts,
		OrdersRepo:        setup.orders,
		TransactionRunner: stubWebhookTxRunner{},
		Outbox:            setup.outbox,
		Notifier:          setup.notifier,
		Guard:             setup.guard,
	})
	require.NoError(t, err)
	setup.service = service
	return setup
}

func checkoutCompletedEvent(t *testing.T, sessionID string, metadata map[string]string) *stripe.Event {
	t.Helper()

	raw, err := json.Marshal(map[string]any{
		"id":             sessionID,
		"payment_intent": "pi_test_456",
		"metadata":       metadata,
	})
	require.NoError(t, err)

	return &stripe.Event{
		ID:   "evt_" + uuid.NewString(),
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
}

func checkoutExpiredEvent(t *testing.T, sessionID string, metadata map[string]string) *stripe.Event {
	t.Helper()

	raw, err := json.Marshal(map[string]any{
		"id":       sessionID,
		"metadata": metadata,
	})
	require.NoError(t, err)

	return &stripe.Event{
		ID:   "evt_" + uuid.NewString(),
		Type: stripe.EventTypeCheckoutSessionExpired,
		Data: &stripe.EventData{Raw: raw},
	}
}

func purchaseMetadata(setup *webhookSetup) map[string]string {
	return map[string]string{
		"purpose":      contacts.MetadataPurpose,
		"order_id":     setup.orders.order.ID.String(),
		"performer_id": setup.contacts.purchase.PerformerID.String(),
	}
}

func TestHandleEventCompletesPurchase(t *testing.T) {
	setup := newWebhookSetup(t)
	event := checkoutCompletedEvent(t, "cs_test_123", purchaseMetadata(setup))

	require.NoError(t, setup.service.HandleEvent(context.Background(), event))

	require.Equal(t, 1, setup.contacts.completedCalls)
	require.NotNil(t, setup.contacts.completedWith)
	require.Equal(t, "pi_test_456", *setup.contacts.completedWith)

	require.Len(t, setup.notifier.inputs, 1)
	notification := setup.notifier.inputs[0]
	require.Equal(t, setup.orders.order.CustomerID, notification.UserID)
	require.Equal(t, enums.NotificationTypeContactPurchased, notification.Type)
	require.Equal(t, "Кто-то купил доступ к вашим контактам", notification.Title)
	require.NotNil(t, notification.Link)
	require.Equal(t, "/orders/"+setup.orders.order.ID.String(), *notification.Link)

	require.Len(t, setup.outbox.events, 1)
	require.Equal(t, enums.EventContactPurchased, setup.outbox.events[0].EventType)
	require.Equal(t, enums.AggregatePurchase, setup.outbox.events[0].AggregateType)
	require.Equal(t, setup.contacts.purchase.ID, setup.outbox.events[0].AggregateID)
}

func TestHandleEventDuplicateDeliveryIsNoOp(t *testing.T) {
	setup := newWebhookSetup(t)
	event := checkoutCompletedEvent(t, "cs_test_123", purchaseMetadata(setup))

	require.NoError(t, setup.service.HandleEvent(context.Background(), event))
	require.NoError(t, setup.service.HandleEvent(context.Background(), event))

	require.Equal(t, 1, setup.contacts.completedCalls)
	require.Len(t, setup.notifier.inputs, 1)
	require.Len(t, setup.outbox.events, 1)
}

func TestHandleEventAlreadyReconciledSkipsSideEffects(t *testing.T) {
	setup := newWebhookSetup(t)
	setup.contacts.completeOK = false
	event := checkoutCompletedEvent(t, "cs_test_123", purchaseMetadata(setup))

	require.NoError(t, setup.service.HandleEvent(context.Background(), event))

	require.Empty(t, setup.notifier.inputs)
	require.Empty(t, setup.outbox.events)
}

func TestHandleEventUnknownSessionAcks(t *testing.T) {
	setup := newWebhookSetup(t)
	event := checkoutCompletedEvent(t, "cs_unknown", purchaseMetadata(setup))

	require.NoError(t, setup.service.HandleEvent(context.Background(), event))

	require.Zero(t, setup.contacts.completedCalls)
	require.Empty(t, setup.notifier.inputs)
}

func TestHandleEventIgnoresOtherPurposes(t *testing.T) {
	setup := newWebhookSetup(t)
	event := checkoutCompletedEvent(t, "cs_test_123", map[string]string{"purpose": "subscription"})

	require.NoError(t, setup.service.HandleEvent(context.Background(), event))

	require.Zero(t, setup.contacts.completedCalls)
	require.Empty(t, setup.notifier.inputs)
	require.Empty(t, setup.outbox.events)
}

func TestHandleEventExpiredSessionMarksPurchaseExpired(t *testing.T) {
	setup := newWebhookSetup(t)
	event := checkoutExpiredEvent(t, "cs_test_123", purchaseMetadata(setup))

	require.NoError(t, setup.service.HandleEvent(context.Background(), event))

	require.Equal(t, 1, setup.contacts.expiredCalls)
	require.Equal(t, enums.PurchaseStatusExpired, setup.contacts.purchase.Status)
	require.Zero(t, setup.contacts.completedCalls)
	require.Empty(t, setup.notifier.inputs)
	require.Empty(t, setup.outbox.events)
}

func TestHandleEventExpiredAfterCompletionIsNoOp(t *testing.T) {
	setup := newWebhookSetup(t)
	setup.contacts.purchase.Status = enums.PurchaseStatusCompleted
	event := checkoutExpiredEvent(t, "cs_test_123", purchaseMetadata(setup))

	require.NoError(t, setup.service.HandleEvent(context.Background(), event))

	require.Equal(t, enums.PurchaseStatusCompleted, setup.contacts.purchase.Status)
	require.Empty(t, setup.notifier.inputs)
	require.Empty(t, setup.outbox.events)
}

func TestHandleEventIgnoresOtherEventTypes(t *testing.T) {
	setup := newWebhookSetup(t)
	event := &stripe.Event{
		ID:   "evt_other",
		Type: stripe.EventTypePaymentIntentSucceeded,
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}

	require.NoError(t, setup.service.HandleEvent(context.Background(), event))

	require.Empty(t, setup.guard.seen)
	require.Zero(t, setup.contacts.completedCalls)
}

func TestHandleEventFailureReleasesIdempotencyKey(t *testing.T) {
	setup := newWebhookSetup(t)
	setup.notifier.err = pkgerrors.New(pkgerrors.CodeInternal, "write failed")
	event := checkoutCompletedEvent(t, "cs_test_123", purchaseMetadata(setup))

	require.Error(t, setup.service.HandleEvent(context.Background(), event))
	require.Contains(t, setup.guard.deleted, event.ID)

	// Retry succeeds once the downstream recovers.
	setup.notifier.err = nil
	require.NoError(t, setup.service.HandleEvent(context.Background(), event))
	require.Len(t, setup.notifier.inputs, 1)
}
