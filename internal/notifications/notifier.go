package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veoxhq/veox-backend/pkg/db/models"
	"github.com/veoxhq/veox-backend/pkg/enums"
)

// NotifyInput describes one in-app notification row.
type NotifyInput struct {
	UserID  uuid.UUID
	Type    enums.NotificationType
	Title   string
	Message string
	Link    *string
}

// Notifier writes notification rows inside the caller's transaction so the
// row commits or rolls back together with the primary state change.
type Notifier struct {
	repo Repository
}

// NewNotifier builds a transactional notification writer.
func NewNotifier(repo Repository) (*Notifier, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &Notifier{repo: repo}, nil
}

func (n *Notifier) Notify(ctx context.Context, tx *gorm.DB, input NotifyInput) error {
	if input.UserID == uuid.Nil {
		return fmt.Errorf("notification user id required")
	}
	if !input.Type.IsValid() {
		return fmt.Errorf("invalid notification type %q", input.Type)
	}
	return n.repo.WithTx(tx).Create(ctx, &models.Notification{
		UserID:  input.UserID,
		Type:    input.Type,
		Title:   input.Title,
		Message: input.Message,
		Link:    input.Link,
	})
}
