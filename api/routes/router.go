package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quadmarket/quadmarket-backend/api/controllers"
	"github.com/quadmarket/quadmarket-backend/api/middleware"
	"github.com/quadmarket/quadmarket-backend/internal/cart"
	"github.com/quadmarket/quadmarket-backend/internal/listings"
	"github.com/quadmarket/quadmarket-backend/internal/notifications"
	"github.com/quadmarket/quadmarket-backend/internal/orders"
	"github.com/quadmarket/quadmarket-backend/pkg/config"
	"github.com/quadmarket/quadmarket-backend/pkg/logger"
	"github.com/quadmarket/quadmarket-backend/pkg/metrics"
	"github.com/quadmarket/quadmarket-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	Redis         *redis.Client
	HTTPMetrics   *metrics.HTTPMetrics
	Readiness     map[string]controllers.ReadinessChecker
	Listings      listings.Service
	Cart          cart.Service
	Orders        orders.Service
	Notifications notifications.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)
	if deps.HTTPMetrics != nil {
		r.Use(deps.HTTPMetrics.Middleware)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})

	if deps.HTTPMetrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.HTTPMetrics.Handler())
	}

	// delivery codes are short secrets; keep guesses expensive
	otpPolicy := middleware.NewRateLimitPolicy("otp", time.Minute, 30, 10)

	var idemStore redis.IdempotencyStore
	otpGuard := func(next http.Handler) http.Handler { return next }
	if deps.Redis != nil {
		idemStore = deps.Redis
		otpGuard = middleware.RateLimit(otpPolicy, deps.Redis, logg)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", controllers.ListListings(deps.Listings, logg))
			r.Post("/", controllers.CreateListing(deps.Listings, logg))
			r.Get("/{listingID}", controllers.GetListing(deps.Listings, logg))
			r.Patch("/{listingID}", controllers.UpdateListing(deps.Listings, logg))
			r.Delete("/{listingID}", controllers.DisableListing(deps.Listings, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.Cart, logg))
			r.Post("/", controllers.AddCartLine(deps.Cart, logg))
			r.Patch("/{lineID}", controllers.UpdateCartLine(deps.Cart, logg))
			r.Delete("/{lineID}", controllers.RemoveCartLine(deps.Cart, logg))
			r.Post("/{lineID}/bargain", controllers.ProposeBargain(deps.Cart, logg))
			r.Post("/{lineID}/bargain/decision", controllers.DecideBargain(deps.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Post("/", controllers.PlaceOrders(deps.Orders, logg))
			r.Get("/{orderID}", controllers.GetOrder(deps.Orders, logg))
			r.With(otpGuard).Post("/{orderID}/confirm-delivery", controllers.ConfirmDelivery(deps.Orders, logg))
			r.With(otpGuard).Post("/{orderID}/regenerate-otp", controllers.RegenerateOTP(deps.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.CancelOrder(deps.Orders, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})
	})

	return r
}
