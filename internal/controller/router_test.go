package controller

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cassiomorais/webpay/internal/infrastructure/config"
	"github.com/cassiomorais/webpay/internal/infrastructure/observability"
	"github.com/cassiomorais/webpay/internal/session"
	"github.com/cassiomorais/webpay/internal/solitude"
	"github.com/cassiomorais/webpay/internal/tasks"
	"github.com/cassiomorais/webpay/internal/testutil"
	"github.com/cassiomorais/webpay/internal/webhook"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router   *chi.Mux
	backend  *testutil.FakeBackend
	producer *testutil.MockProducer
	sessions *session.Store
}

func newTestEnv(t *testing.T, fakePayments bool) *testEnv {
	t.Helper()

	backend := testutil.NewFakeBackend()
	t.Cleanup(backend.Close)

	cfg := &config.Config{
		Domain: "marketplace.firefox.com",
		Server: config.ServerConfig{
			RateLimit: 1000,
			CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
		},
		Solitude: config.SolitudeConfig{
			URL:     backend.Server.URL,
			Key:     "k",
			Secret:  "s",
			Timeout: 2 * time.Second,
		},
		Payment: config.PaymentConfig{
			Provider:     "bango",
			FakePayments: fakePayments,
			SuccessURL:   "http://localhost/callback/success",
			ErrorURL:     "http://localhost/callback/error",
		},
		Session: config.SessionConfig{
			Secret:     "0123456789abcdef0123456789abcdef",
			TTL:        time.Hour,
			CookieName: "webpay_session",
		},
	}

	client := solitude.New(&cfg.Solitude, testutil.NewMemoryStore(), zerolog.Nop(), nil)
	require.NotNil(t, client)

	producer := testutil.NewMockProducer()
	sessions := session.NewStore(&cfg.Session)
	processor := webhook.NewProcessor(client, producer, zerolog.Nop(), nil)

	var producerIface tasks.Producer = producer
	router := NewRouter(RouterDeps{
		Config:    cfg,
		Logger:    zerolog.Nop(),
		Metrics:   observability.NewMetrics("test", prometheus.NewRegistry()),
		Solitude:  client,
		Provider:  solitude.SelectProvider(client, &cfg.Payment),
		Producer:  producerIface,
		Sessions:  sessions,
		Processor: processor,
	})

	return &testEnv{router: router, backend: backend, producer: producer, sessions: sessions}
}

// sessionCookie returns a request cookie holding a signed session.
func (e *testEnv) sessionCookie(t *testing.T, sess *session.Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, e.sessions.Write(rec, sess))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}
