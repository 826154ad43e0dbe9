package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veoxhq/veox-backend/internal/notifications"
	"github.com/veoxhq/veox-backend/pkg/db/models"
	"github.com/veoxhq/veox-backend/pkg/enums"
	"github.com/veoxhq/veox-backend/pkg/logger"
	"github.com/veoxhq/veox-backend/pkg/outbox"
	"github.com/veoxhq/veox-backend/pkg/outbox/payloads"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeAwaitingReader struct {
	cutoff time.Time
	orders []models.Order
}

func (f *fakeAwaitingReader) ListOrdersAwaitingReview(ctx context.Context, completedBefore time.Time) ([]models.Order, error) {
	f.cutoff = completedBefore
	return f.orders, nil
}

type fakeOfferFinder struct {
	offers map[uuid.UUID]*models.Offer
}

func (f *fakeOfferFinder) FindAcceptedByOrder(ctx context.Context, orderID uuid.UUID) (*models.Offer, error) {
	offer, ok := f.offers[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return offer, nil
}

type fakeOutboxService struct {
	events []outbox.DomainEvent
}

func (f *fakeOutboxService) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeOutboxRepo struct {
	exists map[uuid.UUID]bool
}

func (f *fakeOutboxRepo) Exists(eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID) (bool, error) {
	return f.exists[aggregateID], nil
}

type fakeNotifier struct {
	inputs []notifications.NotifyInput
}

func (f *fakeNotifier) Notify(ctx context.Context, tx *gorm.DB, input notifications.NotifyInput) error {
	f.inputs = append(f.inputs, input)
	return nil
}

type reminderJobTestHelper struct {
	job        *reviewReminderJob
	outboxSvc  *fakeOutboxService
	outboxRepo *fakeOutboxRepo
	notifier   *fakeNotifier
	reader     *fakeAwaitingReader
	offers     *fakeOfferFinder
}

func newReminderJobTest(t *testing.T, orders []models.Order, offers map[uuid.UUID]*models.Offer) *reminderJobTestHelper {
	t.Helper()
	helper := &reminderJobTestHelper{
		outboxSvc:  &fakeOutboxService{},
		outboxRepo: &fakeOutboxRepo{exists: map[uuid.UUID]bool{}},
		notifier:   &fakeNotifier{},
		reader:     &fakeAwaitingReader{orders: orders},
		offers:     &fakeOfferFinder{offers: offers},
	}
	jobIface, err := NewReviewReminderJob(ReviewReminderJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         fakeTxRunner{},
		Orders:     helper.reader,
		Offers:     helper.offers,
		Outbox:     helper.outboxSvc,
		OutboxRepo: helper.outboxRepo,
		Notifier:   helper.notifier,
	})
	if err != nil {
		t.Fatalf("NewReviewReminderJob: %v", err)
	}
	job, ok := jobIface.(*reviewReminderJob)
	if !ok {
		t.Fatalf("expected reviewReminderJob, got %T", jobIface)
	}
	helper.job = job
	return helper
}

func TestReviewReminderJob_emitsReminderOnce(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	order := models.Order{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Title:      "Ремонт велосипеда",
		Status:     enums.OrderStatusCompleted,
	}
	offer := &models.Offer{
		ID:          uuid.New(),
		OrderID:     order.ID,
		PerformerID: uuid.New(),
		Status:      enums.OfferStatusAccepted,
	}
	helper := newReminderJobTest(t, []models.Order{order}, map[uuid.UUID]*models.Offer{order.ID: offer})
	helper.job.now = func() time.Time { return now }

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantCutoff := now.Add(-reviewReminderAfterDays * 24 * time.Hour)
	if !helper.reader.cutoff.Equal(wantCutoff) {
		t.Fatalf("unexpected cutoff: %s", helper.reader.cutoff)
	}
	if len(helper.outboxSvc.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(helper.outboxSvc.events))
	}
	event := helper.outboxSvc.events[0]
	if event.EventType != enums.EventReviewReminder {
		t.Fatalf("unexpected event type: %s", event.EventType)
	}
	payload, ok := event.Data.(payloads.ReviewReminderEvent)
	if !ok {
		t.Fatal("expected review reminder payload")
	}
	if payload.OrderID != order.ID || payload.PerformerID != offer.PerformerID {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if len(helper.notifier.inputs) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(helper.notifier.inputs))
	}
	notification := helper.notifier.inputs[0]
	if notification.UserID != order.CustomerID {
		t.Fatalf("unexpected recipient: %s", notification.UserID)
	}
	if notification.Type != enums.NotificationTypeReviewReminder {
		t.Fatalf("unexpected type: %s", notification.Type)
	}
}

func TestReviewReminderJob_skipsAlreadyReminded(t *testing.T) {
	order := models.Order{ID: uuid.New(), CustomerID: uuid.New(), Status: enums.OrderStatusCompleted}
	offer := &models.Offer{ID: uuid.New(), OrderID: order.ID, PerformerID: uuid.New()}
	helper := newReminderJobTest(t, []models.Order{order}, map[uuid.UUID]*models.Offer{order.ID: offer})
	helper.outboxRepo.exists[order.ID] = true

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.outboxSvc.events) != 0 {
		t.Fatalf("expected no events, got %d", len(helper.outboxSvc.events))
	}
	if len(helper.notifier.inputs) != 0 {
		t.Fatalf("expected no notifications, got %d", len(helper.notifier.inputs))
	}
}

func TestReviewReminderJob_skipsOrderWithoutAcceptedOffer(t *testing.T) {
	order := models.Order{ID: uuid.New(), CustomerID: uuid.New(), Status: enums.OrderStatusCompleted}
	helper := newReminderJobTest(t, []models.Order{order}, map[uuid.UUID]*models.Offer{})

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(helper.outboxSvc.events) != 0 {
		t.Fatalf("expected no events, got %d", len(helper.outboxSvc.events))
	}
}
