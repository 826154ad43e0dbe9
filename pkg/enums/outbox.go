package enums

import "fmt"

// OutboxEventType names a domain event queued for asynchronous delivery.
type OutboxEventType string

const (
	EventOfferCreated     OutboxEventType = "offer.created"
	EventOfferAccepted    OutboxEventType = "offer.accepted"
	EventContactPurchased OutboxEventType = "contact.purchased"
	EventReviewReminder   OutboxEventType = "review.reminder"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOfferCreated,
	EventOfferAccepted,
	EventContactPurchased,
	EventReviewReminder,
}

// IsValid reports whether the value is a known OutboxEventType.
func (t OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder    OutboxAggregateType = "order"
	AggregateOffer    OutboxAggregateType = "offer"
	AggregatePurchase OutboxAggregateType = "contact_purchase"
)
