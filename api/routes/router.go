package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/glowmart/storefront-backend/api/controllers"
	ordercontrollers "github.com/glowmart/storefront-backend/api/controllers/orders"
	paymentcontrollers "github.com/glowmart/storefront-backend/api/controllers/payments"
	"github.com/glowmart/storefront-backend/api/middleware"
	"github.com/glowmart/storefront-backend/internal/orders"
	"github.com/glowmart/storefront-backend/internal/payments"
	"github.com/glowmart/storefront-backend/pkg/config"
	"github.com/glowmart/storefront-backend/pkg/db"
	"github.com/glowmart/storefront-backend/pkg/enums"
	"github.com/glowmart/storefront-backend/pkg/logger"
	pkgredis "github.com/glowmart/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	registry *prometheus.Registry,
	ordersSvc *orders.Service,
	paymentsSvc *payments.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// The method catalog is storefront chrome; checkout pages read it
	// before the buyer signs in.
	r.Get("/api/v1/payments/methods", paymentcontrollers.Methods(logg))

	// Gateway notifications arrive unauthenticated; the reconciler
	// treats every claim as untrusted and verifies server to server.
	r.Route("/api/v1/payments/callback", func(r chi.Router) {
		r.Use(middleware.RateLimit(redisClient, "gateway-callback", cfg.RateLimit.CallbackLimit, cfg.RateLimit.CallbackWindow, logg))
		r.Post("/success", paymentcontrollers.Callback(paymentsSvc, enums.ClaimChannelRedirect, enums.ClaimStatusSuccess, logg))
		r.Post("/fail", paymentcontrollers.Callback(paymentsSvc, enums.ClaimChannelRedirect, enums.ClaimStatusFailed, logg))
		r.Post("/cancel", paymentcontrollers.Callback(paymentsSvc, enums.ClaimChannelRedirect, enums.ClaimStatusCancelled, logg))
		r.Post("/ipn", paymentcontrollers.IPN(paymentsSvc, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(ordersSvc, logg))
			r.Get("/", ordercontrollers.List(ordersSvc, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(ordersSvc, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(ordersSvc, logg))
			r.Post("/{orderId}/cod", ordercontrollers.ConfirmCOD(ordersSvc, logg))
		})

		r.Post("/payments/init", paymentcontrollers.Init(paymentsSvc, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.MemberRoleAdmin.String(), logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.AdminList(ordersSvc, logg))
			r.Put("/{orderId}/status", ordercontrollers.UpdateStatus(ordersSvc, logg))
			r.Get("/{orderId}/payment-history", paymentcontrollers.History(paymentsSvc, logg))
		})
	})

	return r
}
