package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veoxhq/veox-backend/pkg/db/models"
	"github.com/veoxhq/veox-backend/pkg/enums"
	"github.com/veoxhq/veox-backend/pkg/logger"
	"github.com/veoxhq/veox-backend/pkg/mailer"
	"github.com/veoxhq/veox-backend/pkg/metrics"
	"github.com/veoxhq/veox-backend/pkg/outbox"
	"github.com/veoxhq/veox-backend/pkg/outbox/idempotency"
	"github.com/veoxhq/veox-backend/pkg/outbox/payloads"
)

const mailerConsumer = "mailer"

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type orderReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// MailConsumerParams configure the mailer worker consumer.
type MailConsumerParams struct {
	Subscription *pubsub.Subscriber
	Idempotency  *idempotency.Manager
	Users        userReader
	Orders       orderReader
	Sender       mailer.Sender
	BaseURL      string
	Metrics      *metrics.MailerMetrics
	Logger       *logger.Logger
}

// MailConsumer turns committed domain events into transactional emails.
// Delivery is at-least-once; the idempotency manager collapses redeliveries.
type MailConsumer struct {
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	users        userReader
	orders       orderReader
	sender       mailer.Sender
	baseURL      string
	metrics      *metrics.MailerMetrics
	logg         *logger.Logger
}

func NewMailConsumer(params MailConsumerParams) (*MailConsumer, error) {
	if params.Subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if params.BaseURL == "" {
		return nil, fmt.Errorf("base url required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &MailConsumer{
		subscription: params.Subscription,
		idempotency:  params.Idempotency,
		users:        params.Users,
		orders:       params.Orders,
		sender:       params.Sender,
		baseURL:      params.BaseURL,
		metrics:      params.Metrics,
		logg:         params.Logger,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *MailConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *MailConsumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	rawType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	})

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		c.logg.Info(logCtx, "skipping unknown event type")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, mailerConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handleEvent(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "email delivery failed", err)
		_ = c.idempotency.Delete(ctx, mailerConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *MailConsumer) handleEvent(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventOfferCreated:
		var payload payloads.OfferCreatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse offer created payload: %w", err)
		}
		return c.deliver(ctx, enums.NotificationTypeNewOffer, payload.CustomerID, payload.OrderID, payload.Price, logCtx)
	case enums.EventOfferAccepted:
		var payload payloads.OfferAcceptedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse offer accepted payload: %w", err)
		}
		return c.deliver(ctx, enums.NotificationTypeOfferAccepted, payload.PerformerID, payload.OrderID, nil, logCtx)
	case enums.EventContactPurchased:
		var payload payloads.ContactPurchasedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse contact purchased payload: %w", err)
		}
		return c.deliver(ctx, enums.NotificationTypeContactPurchased, payload.CustomerID, payload.OrderID, nil, logCtx)
	case enums.EventReviewReminder:
		var payload payloads.ReviewReminderEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse review reminder payload: %w", err)
		}
		return c.deliver(ctx, enums.NotificationTypeReviewReminder, payload.CustomerID, payload.OrderID, nil, logCtx)
	default:
		c.logg.Info(logCtx, "event type has no email template")
		return nil
	}
}

func (c *MailConsumer) deliver(ctx context.Context, notificationType enums.NotificationType, recipientID, orderID uuid.UUID, price *decimal.Decimal, logCtx context.Context) error {
	recipient, err := c.users.FindByID(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}
	order, err := c.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}

	rendered, err := mailer.Render(notificationType, recipient.Locale, mailer.TemplateData{
		BaseURL:    c.baseURL,
		OrderID:    order.ID.String(),
		OrderTitle: order.Title,
		Price:      price,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	err = c.sender.Send(ctx, mailer.Email{
		To:      recipient.Email,
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
	})
	c.observeSend(notificationType, recipient.Locale, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
		"notification_type": notificationType,
		"locale":            recipient.Locale,
	}), "email delivered")
	return nil
}

func (c *MailConsumer) observeSend(notificationType enums.NotificationType, locale enums.Locale, duration time.Duration, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveSendDuration(string(notificationType), duration)
	if err != nil {
		c.metrics.IncFailed(string(notificationType), string(locale))
		return
	}
	c.metrics.IncSent(string(notificationType), string(locale))
}
