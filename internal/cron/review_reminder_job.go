package cron

import (
	"context"
	"errors"
	"fmt"
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

const reviewReminderAfterDays = 7

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type awaitingReviewReader interface {
	ListOrdersAwaitingReview(ctx context.Context, completedBefore time.Time) ([]models.Order, error)
}

type acceptedOfferFinder interface {
	FindAcceptedByOrder(ctx context.Context, orderID uuid.UUID) (*models.Offer, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type outboxExistenceChecker interface {
	Exists(eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID) (bool, error)
}

type reminderNotifier interface {
	Notify(ctx context.Context, tx *gorm.DB, input notifications.NotifyInput) error
}

// ReviewReminderJobParams configure the review reminder job.
type ReviewReminderJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Orders     awaitingReviewReader
	Offers     acceptedOfferFinder
	Outbox     outboxEmitter
	OutboxRepo outboxExistenceChecker
	Notifier   reminderNotifier
	AfterDays  int
}

// NewReviewReminderJob builds the job that nudges customers to review
// finished orders. Each order gets at most one reminder; the outbox row
// doubles as the sent marker.
func NewReviewReminderJob(params ReviewReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders reader required")
	}
	if params.Offers == nil {
		return nil, fmt.Errorf("offers reader required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.OutboxRepo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	afterDays := params.AfterDays
	if afterDays <= 0 {
		afterDays = reviewReminderAfterDays
	}
	return &reviewReminderJob{
		logg:       params.Logger,
		db:         params.DB,
		orders:     params.Orders,
		offers:     params.Offers,
		outbox:     params.Outbox,
		outboxRepo: params.OutboxRepo,
		notifier:   params.Notifier,
		afterDays:  afterDays,
		now:        time.Now,
	}, nil
}

type reviewReminderJob struct {
	logg       *logger.Logger
	db         txRunner
	orders     awaitingReviewReader
	offers     acceptedOfferFinder
	outbox     outboxEmitter
	outboxRepo outboxExistenceChecker
	notifier   reminderNotifier
	afterDays  int
	now        func() time.Time
}

func (j *reviewReminderJob) Name() string { return "review-reminder" }

func (j *reviewReminderJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.afterDays) * 24 * time.Hour)
	orders, err := j.orders.ListOrdersAwaitingReview(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query orders awaiting review: %w", err)
	}
	count := 0
	for _, order := range orders {
		sent, err := j.remindOrder(ctx, order)
		if err != nil {
			return err
		}
		if sent {
			count++
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "review reminder loop complete")
	return nil
}

func (j *reviewReminderJob) remindOrder(ctx context.Context, order models.Order) (bool, error) {
	exists, err := j.outboxRepo.Exists(enums.EventReviewReminder, enums.AggregateOrder, order.ID)
	if err != nil {
		return false, fmt.Errorf("check reminder existence: %w", err)
	}
	if exists {
		return false, nil
	}

	offer, err := j.offers.FindAcceptedByOrder(ctx, order.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logCtx := j.logg.WithField(ctx, "order_id", order.ID.String())
			j.logg.Warn(logCtx, "completed order has no accepted offer; skipping reminder")
			return false, nil
		}
		return false, fmt.Errorf("find accepted offer: %w", err)
	}

	err = j.db.WithTx(ctx, func(tx *gorm.DB) error {
		link := "/orders/" + order.ID.String()
		if err := j.notifier.Notify(ctx, tx, notifications.NotifyInput{
			UserID:  order.CustomerID,
			Type:    enums.NotificationTypeReviewReminder,
			Title:   "Оставьте отзыв о выполненном заказе",
			Message: fmt.Sprintf("Заказ %q был выполнен. Пожалуйста, оставьте отзыв о работе исполнителя.", order.Title),
			Link:    &link,
		}); err != nil {
			return err
		}
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewReminder,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			OccurredAt:    j.now().UTC(),
			Data: payloads.ReviewReminderEvent{
				OrderID:     order.ID,
				CustomerID:  order.CustomerID,
				PerformerID: offer.PerformerID,
			},
		})
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
