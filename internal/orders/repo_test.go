package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/veoxhq/veox-backend/pkg/db/models"
	"github.com/veoxhq/veox-backend/pkg/enums"
	"github.com/veoxhq/veox-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:orders_%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  full_name TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL,
  locale TEXT NOT NULL DEFAULT 'ru',
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  location TEXT NOT NULL,
  budget NUMERIC,
  status TEXT NOT NULL DEFAULT 'open',
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS offers (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  performer_id TEXT NOT NULL,
  price NUMERIC,
  message TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (order_id, performer_id)
);`}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, customerID uuid.UUID, status enums.OrderStatus, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:          uuid.New(),
		CustomerID:  customerID,
		Title:       "Fix kitchen sink",
		Description: "Leaking pipe under the sink",
		Location:    "Tallinn",
		Status:      status,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryListOpenPaginates(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	customerID := uuid.New()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var newest *models.Order
	for i := 0; i < 3; i++ {
		newest = seedOrder(t, db, customerID, enums.OrderStatusOpen, base.Add(time.Duration(i)*time.Minute))
	}
	seedOrder(t, db, customerID, enums.OrderStatusInProgress, base.Add(time.Hour))

	page, err := repo.ListOpen(context.Background(), pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	assert.Equal(t, newest.ID, page.Orders[0].ID)
	require.NotEmpty(t, page.NextCursor)

	rest, err := repo.ListOpen(context.Background(), pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Orders, 1)
	assert.Empty(t, rest.NextCursor)
	for _, summary := range append(page.Orders, rest.Orders...) {
		assert.Equal(t, enums.OrderStatusOpen, summary.Status)
	}
}

func TestRepositoryListOpenCountsOffers(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := seedOrder(t, db, uuid.New(), enums.OrderStatusOpen, time.Now().UTC())
	for i := 0; i < 2; i++ {
		require.NoError(t, db.Create(&models.Offer{
			ID:          uuid.New(),
			OrderID:     order.ID,
			PerformerID: uuid.New(),
			Message:     "I can do this",
			Status:      enums.OfferStatusPending,
		}).Error)
	}

	page, err := repo.ListOpen(context.Background(), pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, 2, page.Orders[0].OfferCount)
}

func TestRepositoryListByCustomerScopes(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	mine := uuid.New()
	theirs := uuid.New()

	seedOrder(t, db, mine, enums.OrderStatusOpen, time.Now().UTC())
	seedOrder(t, db, mine, enums.OrderStatusCompleted, time.Now().UTC().Add(time.Minute))
	seedOrder(t, db, theirs, enums.OrderStatusOpen, time.Now().UTC())

	page, err := repo.ListByCustomer(context.Background(), mine, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	for _, summary := range page.Orders {
		assert.Equal(t, mine, summary.CustomerID)
	}
}

func TestRepositoryClaimForAcceptance(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := seedOrder(t, db, uuid.New(), enums.OrderStatusOpen, time.Now().UTC())

	claimed, err := repo.ClaimForAcceptance(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	again, err := repo.ClaimForAcceptance(context.Background(), order.ID)
	require.NoError(t, err)
	assert.False(t, again, "second claim must lose the race")

	reloaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusInProgress, reloaded.Status)
}

func TestRepositoryCompleteFromReview(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	open := seedOrder(t, db, uuid.New(), enums.OrderStatusOpen, time.Now().UTC())
	inProgress := seedOrder(t, db, uuid.New(), enums.OrderStatusInProgress, time.Now().UTC())

	done, err := repo.CompleteFromReview(context.Background(), inProgress.ID)
	require.NoError(t, err)
	assert.True(t, done)

	skipped, err := repo.CompleteFromReview(context.Background(), open.ID)
	require.NoError(t, err)
	assert.False(t, skipped, "open orders cannot jump to completed")

	repeat, err := repo.CompleteFromReview(context.Background(), inProgress.ID)
	require.NoError(t, err)
	assert.False(t, repeat)
}

func TestRepositoryFindDetailPreloadsOffers(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	customer := &models.User{
		ID:           uuid.New(),
		Email:        "anna@example.com",
		PasswordHash: "hash",
		FullName:     "Anna Ivanova",
		Role:         enums.UserRoleCustomer,
		Locale:       enums.LocaleRussian,
	}
	require.NoError(t, db.Create(customer).Error)

	order := seedOrder(t, db, customer.ID, enums.OrderStatusOpen, time.Now().UTC())
	performer := &models.User{
		ID:           uuid.New(),
		Email:        "mati@example.com",
		PasswordHash: "hash",
		FullName:     "Mati Tamm",
		Role:         enums.UserRolePerformer,
		Locale:       enums.LocaleEstonian,
	}
	require.NoError(t, db.Create(performer).Error)
	require.NoError(t, db.Create(&models.Offer{
		ID:          uuid.New(),
		OrderID:     order.ID,
		PerformerID: performer.ID,
		Message:     "Tere, saan aidata",
		Status:      enums.OfferStatusPending,
	}).Error)

	detail, err := repo.FindDetail(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Customer)
	assert.Equal(t, customer.Email, detail.Customer.Email)
	require.Len(t, detail.Offers, 1)
	require.NotNil(t, detail.Offers[0].Performer)
	assert.Equal(t, performer.FullName, detail.Offers[0].Performer.FullName)
}
