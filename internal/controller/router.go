package controller

import (
	"time"

	"github.com/cassiomorais/webpay/internal/infrastructure/config"
	"github.com/cassiomorais/webpay/internal/infrastructure/observability"
	customMW "github.com/cassiomorais/webpay/internal/middleware"
	"github.com/cassiomorais/webpay/internal/session"
	"github.com/cassiomorais/webpay/internal/solitude"
	"github.com/cassiomorais/webpay/internal/tasks"
	"github.com/cassiomorais/webpay/internal/webhook"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type RouterDeps struct {
	Config      *config.Config
	Logger      zerolog.Logger
	RedisClient *redis.Client
	Metrics     *observability.Metrics
	Solitude    *solitude.Client
	Provider    solitude.ProviderClient
	Producer    tasks.Producer
	Sessions    *session.Store
	Processor   *webhook.Processor
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(customMW.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: deps.Config.Server.CORS.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.RedisClient, deps.Config.Solitude.Enabled())
	webhookH := NewWebhookController(deps.Processor, deps.Sessions, deps.Producer,
		deps.Config.Payment.FakePayments, deps.Logger)
	payH := NewPayController(deps.Solitude, deps.Provider, deps.Sessions,
		deps.Config.Payment, deps.Logger)
	buyerH := NewBuyerController(deps.Solitude, deps.Logger)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	// Provider callbacks. The redirects are authenticated by the
	// buyer's session; the event postback by Basic auth credentials
	// the backend verifies.
	r.Route("/callback", func(r chi.Router) {
		r.Get("/success", webhookH.Success)
		r.Get("/error", webhookH.Error)
		r.With(customMW.RequireBasicAuth(deps.Config.Domain)).Post("/notification", webhookH.Notification)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.With(customMW.RateLimit(deps.Config.Server.RateLimit)).Post("/pay", payH.Start)
		r.Get("/buyers/{uuid}/status", buyerH.Status)
		r.Get("/transactions/{uuid}", payH.Transaction)
	})

	return r
}
