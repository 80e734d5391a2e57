package solitude

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/cassiomorais/webpay/internal/cache"
	"github.com/cassiomorais/webpay/internal/infrastructure/config"
	"github.com/cassiomorais/webpay/internal/infrastructure/observability"
	"github.com/cassiomorais/webpay/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, backend *testutil.FakeBackend, store cache.Store) *Client {
	t.Helper()
	if store == nil {
		store = testutil.NewMemoryStore()
	}
	cfg := &config.SolitudeConfig{
		URL:     backend.Server.URL,
		Key:     "test-key",
		Secret:  "test-secret",
		Timeout: 2 * time.Second,
	}
	c := New(cfg, store, zerolog.Nop(), nil)
	require.NotNil(t, c)
	return c
}

func TestClient_DisabledWhenNotConfigured(t *testing.T) {
	cfg := &config.SolitudeConfig{}
	c := New(cfg, testutil.NewMemoryStore(), zerolog.Nop(), nil)
	assert.Nil(t, c)

	_, err := c.GetBuyer(context.Background(), "buyer-uuid", true)
	assert.ErrorIs(t, err, ErrClientDisabled)
}

func TestClient_SignsEveryRequest(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.JSON(http.MethodGet, "/generic/buyer/", http.StatusOK,
		`{"objects": [{"resource_pk": 1, "uuid": "u"}]}`)

	c := newTestClient(t, backend, nil)
	_, err := c.GetBuyer(context.Background(), "u", true)
	require.NoError(t, err)

	reqs := backend.Requests()
	require.Len(t, reqs, 1)
	auth := reqs[0].Header.Get("Authorization")
	assert.Contains(t, auth, `OAuth key="test-key"`)
	assert.Contains(t, auth, "sig=")
}

func TestClient_ClientErrorCarriesStatusAndBody(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.JSON(http.MethodPost, "/bango/billing/", http.StatusBadRequest, `{"detail": "nope"}`)

	c := newTestClient(t, backend, nil)
	_, err := c.do(context.Background(), http.MethodPost, "/bango/billing/", requestOpts{body: map[string]any{}})

	var clientErr *HTTPClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, http.StatusBadRequest, clientErr.StatusCode)
	assert.Contains(t, clientErr.Body, "nope")
}

func TestClient_SafeDoPassesFormErrorsThrough(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.JSON(http.MethodPost, "/generic/buyer/", http.StatusBadRequest,
		`{"errors": {"pin": ["PIN must be exactly 4 numbers long"]}}`)

	c := newTestClient(t, backend, nil)
	ent, err := c.safeDo(context.Background(), http.MethodPost, "/generic/buyer/",
		requestOpts{body: map[string]any{"uuid": "u", "pin": "bad"}})

	require.NoError(t, err)
	assert.True(t, ent.HasErrors())
}

func TestClient_GetObjectMissing(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.JSON(http.MethodGet, "/generic/seller/", http.StatusOK,
		`{"meta": {"total_count": 0}, "objects": []}`)

	c := newTestClient(t, backend, nil)
	_, err := c.getObject(context.Background(), "/generic/seller/", map[string]string{"uuid": "s"})

	assert.ErrorIs(t, err, ErrObjectDoesNotExist)
}

func TestClient_BreakerOpensAfterRepeatedServerErrors(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.JSON(http.MethodGet, "/generic/buyer/", http.StatusBadGateway, `oops`)

	m := observability.NewMetrics("test", prometheus.NewRegistry())
	cfg := &config.SolitudeConfig{
		URL:     backend.Server.URL,
		Key:     "test-key",
		Secret:  "test-secret",
		Timeout: 2 * time.Second,
	}
	c := New(cfg, testutil.NewMemoryStore(), zerolog.Nop(), m)
	require.NotNil(t, c)

	assert.Equal(t, float64(0),
		promtestutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("solitude")))

	for i := 0; i < 10; i++ {
		_, err := c.GetBuyer(context.Background(), "u", false)
		require.Error(t, err)
	}

	_, err := c.GetBuyer(context.Background(), "u", false)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Equal(t, float64(2),
		promtestutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("solitude")))
}

func TestClient_ServerErrorIsNotAClientError(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.JSON(http.MethodGet, "/generic/buyer/", http.StatusBadGateway, `oops`)

	c := newTestClient(t, backend, nil)
	_, err := c.GetBuyer(context.Background(), "u", true)

	require.Error(t, err)
	var clientErr *HTTPClientError
	assert.False(t, errors.As(err, &clientErr))
}
