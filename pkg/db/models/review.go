package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is the customer's verdict on the performer whose offer won the order.
// Creating one is what completes the order.
type Review struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_reviews_order_reviewer,priority:1"`
	ReviewerID uuid.UUID `gorm:"column:reviewer_id;type:uuid;not null;uniqueIndex:ux_reviews_order_reviewer,priority:2"`
	RevieweeID uuid.UUID `gorm:"column:reviewee_id;type:uuid;not null"`
	Rating     int       `gorm:"column:rating;not null"`
	Comment    *string   `gorm:"column:comment;type:text"`
	Reviewer   *User     `gorm:"foreignKey:ReviewerID"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
