package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/veoxhq/veox-backend/api/controllers"
	webhookcontrollers "github.com/veoxhq/veox-backend/api/controllers/webhooks"
	"github.com/veoxhq/veox-backend/api/middleware"
	"github.com/veoxhq/veox-backend/internal/auth"
	"github.com/veoxhq/veox-backend/internal/contacts"
	"github.com/veoxhq/veox-backend/internal/notifications"
	"github.com/veoxhq/veox-backend/internal/offers"
	"github.com/veoxhq/veox-backend/internal/orders"
	"github.com/veoxhq/veox-backend/internal/reviews"
	stripewebhook "github.com/veoxhq/veox-backend/internal/webhooks/stripe"
	"github.com/veoxhq/veox-backend/pkg/config"
	"github.com/veoxhq/veox-backend/pkg/enums"
	"github.com/veoxhq/veox-backend/pkg/logger"
	"github.com/veoxhq/veox-backend/pkg/redis"
	"github.com/veoxhq/veox-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	authService auth.Service,
	registerService auth.RegisterService,
	ordersService orders.Service,
	offersService offers.Service,
	contactsService contacts.Service,
	reviewsService reviews.Service,
	notificationsService notifications.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.Login(authService, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.Register(registerService, logg))
		})

		// Browsing open orders and performer reputation is public.
		r.Get("/orders", controllers.ListOpenOrders(ordersService, logg))
		r.Route("/performers/{performerId}", func(r chi.Router) {
			r.Get("/reviews", controllers.ListPerformerReviews(reviewsService, logg))
			r.Get("/rating", controllers.GetPerformerRating(reviewsService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.With(middleware.RequireRole(enums.UserRoleCustomer.String(), logg)).Post("/orders", controllers.CreateOrder(ordersService, logg))
			r.With(middleware.RequireRole(enums.UserRoleCustomer.String(), logg)).Get("/orders/my", controllers.ListMyOrders(ordersService, logg))
			r.Get("/orders/{orderId}", controllers.GetOrder(ordersService, logg))
			r.Get("/orders/{orderId}/offers", controllers.ListOrderOffers(offersService, logg))

			r.With(middleware.RequireRole(enums.UserRolePerformer.String(), logg)).
				Post("/orders/{orderId}/contacts/purchase", controllers.PurchaseContacts(contactsService, logg))
			r.Get("/orders/{orderId}/contacts/access", controllers.ContactAccess(contactsService, logg))

			r.With(middleware.RequireRole(enums.UserRolePerformer.String(), logg)).Post("/offers", controllers.CreateOffer(offersService, logg))
			r.With(middleware.RequireRole(enums.UserRoleCustomer.String(), logg)).Post("/offers/{offerId}/accept", controllers.AcceptOffer(offersService, logg))

			r.With(middleware.RequireRole(enums.UserRoleCustomer.String(), logg)).Post("/reviews", controllers.CreateReview(reviewsService, logg))

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(notificationsService, logg))
				r.Get("/unread-count", controllers.CountUnreadNotifications(notificationsService, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
			})
		})
	})

	return r
}
