package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/veoxhq/veox-backend/internal/auth"
	"github.com/veoxhq/veox-backend/internal/contacts"
	"github.com/veoxhq/veox-backend/internal/notifications"
	"github.com/veoxhq/veox-backend/internal/offers"
	"github.com/veoxhq/veox-backend/internal/orders"
	"github.com/veoxhq/veox-backend/internal/reviews"
	pkgauth "github.com/veoxhq/veox-backend/pkg/auth"
	"github.com/veoxhq/veox-backend/pkg/config"
	"github.com/veoxhq/veox-backend/pkg/enums"
	"github.com/veoxhq/veox-backend/pkg/logger"
	"github.com/veoxhq/veox-backend/pkg/pagination"
	"github.com/veoxhq/veox-backend/pkg/redis"
)

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{}, nil
}

type stubRegisterService struct{}

func (stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.RegisterResponse, error) {
	return &auth.RegisterResponse{}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) Create(ctx context.Context, customerID uuid.UUID, req orders.CreateOrderRequest) (*orders.OrderSummary, error) {
	return &orders.OrderSummary{}, nil
}

func (stubOrdersService) ListOpen(ctx context.Context, params pagination.Params) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (stubOrdersService) ListMine(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (stubOrdersService) Detail(ctx context.Context, orderID uuid.UUID, actor orders.Actor) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

type stubOffersService struct{}

func (stubOffersService) Create(ctx context.Context, performer offers.Actor, req offers.CreateOfferRequest) (*offers.OfferDTO, error) {
	return &offers.OfferDTO{}, nil
}

func (stubOffersService) Accept(ctx context.Context, caller offers.Actor, offerID uuid.UUID) (*offers.OfferDTO, error) {
	return &offers.OfferDTO{}, nil
}

func (stubOffersService) ListForOrder(ctx context.Context, caller offers.Actor, orderID uuid.UUID) ([]offers.OfferDTO, error) {
	return nil, nil
}

type stubContactsService struct{}

func (stubContactsService) InitiatePurchase(ctx context.Context, performerID, orderID uuid.UUID) (*contacts.CheckoutSessionDTO, error) {
	return &contacts.CheckoutSessionDTO{}, nil
}

func (stubContactsService) HasAccess(ctx context.Context, orderID, userID uuid.UUID) (bool, error) {
	return false, nil
}

type stubReviewsService struct{}

func (stubReviewsService) Create(ctx context.Context, reviewerID uuid.UUID, req reviews.CreateReviewRequest) (*reviews.ReviewDTO, error) {
	return &reviews.ReviewDTO{}, nil
}

func (stubReviewsService) ListForPerformer(ctx context.Context, performerID uuid.UUID, limit int) ([]reviews.ReviewDTO, error) {
	return nil, nil
}

func (stubReviewsService) RatingSummary(ctx context.Context, performerID uuid.UUID) (*reviews.RatingSummaryDTO, error) {
	return &reviews.RatingSummaryDTO{}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		(*redis.Client)(nil),
		stubAuthService{},
		stubRegisterService{},
		stubOrdersService{},
		stubOffersService{},
		stubContactsService{},
		stubReviewsService{},
		stubNotificationsService{},
		nil, // stripe client
		nil, // stripe webhook service
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		Locale: enums.LocaleRussian,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestOpenOrdersArePublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public list got %d", resp.Code)
	}
}

func TestPerformerReviewsArePublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/performers/"+uuid.NewString()+"/rating", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public rating got %d", resp.Code)
	}
}

func TestOrderDetailRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestCreateOrderRequiresCustomerRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	performer := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	performer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRolePerformer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, performer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for performer got %d", resp.Code)
	}
}

func TestCreateOfferRequiresPerformerRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodPost, "/api/v1/offers", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}
}

func TestContactPurchaseRequiresPerformerRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	orderID := uuid.NewString()

	customer := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID+"/contacts/purchase", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	performer := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID+"/contacts/purchase", nil)
	performer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRolePerformer))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, performer)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for performer got %d", resp.Code)
	}
}

func TestNotificationsRequireAuth(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	anonymous := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/unread-count", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, anonymous)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}

	authed := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/unread-count", nil)
	authed.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authed)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d", resp.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(testConfig())
	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}
