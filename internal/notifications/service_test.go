package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/veoxhq/veox-backend/pkg/db/models"
	"github.com/veoxhq/veox-backend/pkg/enums"
	pkgerrors "github.com/veoxhq/veox-backend/pkg/errors"
	"github.com/veoxhq/veox-backend/pkg/pagination"
)

type stubNotificationsRepo struct {
	created     []*models.Notification
	listRows    []models.Notification
	listNext    *pagination.Cursor
	listParams  listNotificationsParams
	markResult  notificationMarkResult
	markAllRows int64
	unread      int64
}

func (s *stubNotificationsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubNotificationsRepo) Create(ctx context.Context, notification *models.Notification) error {
	s.created = append(s.created, notification)
	return nil
}

func (s *stubNotificationsRepo) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	s.listParams = params
	return s.listRows, s.listNext, nil
}

func (s *stubNotificationsRepo) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
	return s.markResult, nil
}

func (s *stubNotificationsRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	return s.markAllRows, nil
}

func (s *stubNotificationsRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.unread, nil
}

func (s *stubNotificationsRepo) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func TestServiceListEncodesNextCursor(t *testing.T) {
	next := &pagination.Cursor{CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), ID: uuid.New()}
	repo := &stubNotificationsRepo{
		listRows: []models.Notification{{ID: uuid.New()}},
		listNext: next,
	}
	svc, err := NewService(repo)
	require.NoError(t, err)

	result, err := svc.List(context.Background(), ListParams{UserID: uuid.New(), Limit: 1, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.NotEmpty(t, result.Cursor)
	assert.True(t, repo.listParams.UnreadOnly)

	decoded, err := pagination.ParseCursor(result.Cursor)
	require.NoError(t, err)
	assert.Equal(t, next.ID, decoded.ID)
}

func TestServiceListRejectsBadCursor(t *testing.T) {
	svc, err := NewService(&stubNotificationsRepo{})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), ListParams{UserID: uuid.New(), Cursor: "not-base64!"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceMarkReadNotFound(t *testing.T) {
	repo := &stubNotificationsRepo{markResult: notificationMarkResult{Found: false}}
	svc, err := NewService(repo)
	require.NoError(t, err)

	err = svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestServiceMarkReadAlreadyReadIsIdempotent(t *testing.T) {
	repo := &stubNotificationsRepo{markResult: notificationMarkResult{Found: true, Updated: false}}
	svc, err := NewService(repo)
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(context.Background(), uuid.New(), uuid.New()))
}

func TestNotifierWritesRow(t *testing.T) {
	repo := &stubNotificationsRepo{}
	notifier, err := NewNotifier(repo)
	require.NoError(t, err)

	link := "/orders/123"
	err = notifier.Notify(context.Background(), nil, NotifyInput{
		UserID:  uuid.New(),
		Type:    enums.NotificationTypeNewOffer,
		Title:   "Новый отклик на ваш заказ",
		Message: "Исполнитель откликнулся на ваш заказ.",
		Link:    &link,
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, enums.NotificationTypeNewOffer, repo.created[0].Type)
	assert.Nil(t, repo.created[0].ReadAt)
}

func TestNotifierRejectsInvalidType(t *testing.T) {
	notifier, err := NewNotifier(&stubNotificationsRepo{})
	require.NoError(t, err)

	err = notifier.Notify(context.Background(), nil, NotifyInput{
		UserID: uuid.New(),
		Type:   enums.NotificationType("bogus"),
	})
	require.Error(t, err)
}
