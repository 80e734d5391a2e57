package webhook

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/cassiomorais/webpay/internal/infrastructure/config"
	"github.com/cassiomorais/webpay/internal/infrastructure/observability"
	"github.com/cassiomorais/webpay/internal/solitude"
	"github.com/cassiomorais/webpay/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProcessor(t *testing.T, backend *testutil.FakeBackend, producer *testutil.MockProducer) *Processor {
	t.Helper()
	var client *solitude.Client
	if backend != nil {
		client = solitude.New(&config.SolitudeConfig{
			URL:     backend.Server.URL,
			Key:     "k",
			Secret:  "s",
			Timeout: 2 * time.Second,
		}, testutil.NewMemoryStore(), zerolog.Nop(), nil)
		require.NotNil(t, client)
	}
	return NewProcessor(client, producer, zerolog.Nop(), nil)
}

func okParams() CallbackParams {
	return CallbackParams{
		ResponseCode:    CodeOK,
		TransactionID:   "webpay:tx-1",
		BillingConfigID: "bcid-1",
		ProviderTransID: "bango-55",
		Signature:       "sig",
		Price:           "0.99",
		Currency:        "USD",
	}
}

func TestProcessSuccess_RecordsAndDispatches(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.JSON(http.MethodPost, "/bango/notification/", http.StatusCreated, `{"resource_pk": 1}`)

	producer := testutil.NewMockProducer()
	p := newProcessor(t, backend, producer)

	res := p.ProcessSuccess(context.Background(), okParams(), "webpay:tx-1")

	assert.Equal(t, Result{State: StateDispatched}, res)
	assert.Equal(t, 1, backend.Count(http.MethodPost, "/bango/notification/"))

	jobs := producer.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "webpay:tx-1", jobs[0].TransactionID)
}

func TestProcessSuccess_MissingSessionStillRecords(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.JSON(http.MethodPost, "/bango/notification/", http.StatusCreated, `{"resource_pk": 1}`)

	producer := testutil.NewMockProducer()
	p := newProcessor(t, backend, producer)

	// The redirect back from the provider arrived without the session
	// cookie. The callback carries a transaction id, so it is still
	// recorded and dispatched.
	res := p.ProcessSuccess(context.Background(), okParams(), "")

	assert.Equal(t, Result{State: StateDispatched}, res)
	assert.Equal(t, 1, backend.Count(http.MethodPost, "/bango/notification/"))
	require.Len(t, producer.Jobs(), 1)
}

func TestProcessSuccess_RejectedCallbackNeverTouchesBackend(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()

	producer := testutil.NewMockProducer()
	p := newProcessor(t, backend, producer)

	params := okParams()
	params.TransactionID = "webpay:tx-other"
	res := p.ProcessSuccess(context.Background(), params, "webpay:tx-1")

	assert.Equal(t, Result{State: StateRejected, Code: NoActiveTrans}, res)
	assert.Empty(t, backend.Requests())
	assert.Empty(t, producer.Jobs())
}

func TestProcessSuccess_BackendRejectionStopsDispatch(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.JSON(http.MethodPost, "/bango/notification/", http.StatusBadRequest,
		`{"errors": {"moz_signature": ["Invalid signature"]}}`)

	producer := testutil.NewMockProducer()
	p := newProcessor(t, backend, producer)

	res := p.ProcessSuccess(context.Background(), okParams(), "webpay:tx-1")

	assert.Equal(t, Result{State: StateFailed, Code: NoticeError}, res)
	assert.Empty(t, producer.Jobs())
}

func TestProcessSuccess_EnqueueFailure(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.JSON(http.MethodPost, "/bango/notification/", http.StatusCreated, `{"resource_pk": 1}`)

	producer := testutil.NewMockProducer()
	producer.EnqueuePaymentNotifyFunc = func(ctx context.Context, transactionID string) error {
		return errors.New("stream unavailable")
	}
	p := newProcessor(t, backend, producer)

	res := p.ProcessSuccess(context.Background(), okParams(), "webpay:tx-1")
	assert.Equal(t, Result{State: StateFailed, Code: NoticeError}, res)
}

func TestProcessSuccess_BackendDisabled(t *testing.T) {
	p := newProcessor(t, nil, testutil.NewMockProducer())

	res := p.ProcessSuccess(context.Background(), okParams(), "webpay:tx-1")
	assert.Equal(t, Result{State: StateFailed, Code: BackendDisabled}, res)
}

func TestProcessError_CancellationIsNotRecorded(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()

	producer := testutil.NewMockProducer()
	p := newProcessor(t, backend, producer)

	params := okParams()
	params.ResponseCode = CodeCancel
	res := p.ProcessError(context.Background(), params, "webpay:tx-1")

	assert.Equal(t, Result{State: StateValidated, Code: UserCancelled}, res)
	assert.Empty(t, backend.Requests())
	assert.Empty(t, producer.Jobs())
}

func TestProcessError_NotSupported(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.JSON(http.MethodPost, "/bango/notification/", http.StatusCreated, `{"resource_pk": 1}`)

	p := newProcessor(t, backend, testutil.NewMockProducer())

	params := okParams()
	params.ResponseCode = CodeNotSupported
	res := p.ProcessError(context.Background(), params, "webpay:tx-1")

	assert.Equal(t, Result{State: StateRecorded, Code: UnsupportedPay}, res)
	assert.Equal(t, 1, backend.Count(http.MethodPost, "/bango/notification/"))
}

func TestProcessError_GenericProviderError(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.JSON(http.MethodPost, "/bango/notification/", http.StatusCreated, `{"resource_pk": 1}`)

	p := newProcessor(t, backend, testutil.NewMockProducer())

	params := okParams()
	params.ResponseCode = "INTERNAL_ERROR"
	res := p.ProcessError(context.Background(), params, "webpay:tx-1")

	assert.Equal(t, Result{State: StateRecorded, Code: ProviderError}, res)
}

func TestProcessError_MarksOpenTransactionFailed(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.JSON(http.MethodPost, "/bango/notification/", http.StatusCreated, `{"resource_pk": 1}`)
	backend.JSON(http.MethodGet, "/generic/transaction/", http.StatusOK,
		`{"meta": {"total_count": 1}, "objects": [{"resource_pk": 3, "uuid": "webpay:tx-1", "status": 6}]}`)
	backend.JSON(http.MethodPatch, "/generic/transaction/3/", http.StatusAccepted, `{}`)

	p := newProcessor(t, backend, testutil.NewMockProducer())

	params := okParams()
	params.ResponseCode = "INTERNAL_ERROR"
	res := p.ProcessError(context.Background(), params, "webpay:tx-1")

	assert.Equal(t, Result{State: StateRecorded, Code: ProviderError}, res)
	require.Equal(t, 1, backend.Count(http.MethodPatch, "/generic/transaction/3/"))
	for _, req := range backend.Requests() {
		if req.Method == http.MethodPatch {
			assert.Contains(t, string(req.Body), `"status":4`)
		}
	}
}

func TestProcessError_SettledTransactionLeftAlone(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.JSON(http.MethodPost, "/bango/notification/", http.StatusCreated, `{"resource_pk": 1}`)
	backend.JSON(http.MethodGet, "/generic/transaction/", http.StatusOK,
		`{"meta": {"total_count": 1}, "objects": [{"resource_pk": 3, "uuid": "webpay:tx-1", "status": 1}]}`)

	p := newProcessor(t, backend, testutil.NewMockProducer())

	params := okParams()
	params.ResponseCode = "INTERNAL_ERROR"
	res := p.ProcessError(context.Background(), params, "webpay:tx-1")

	assert.Equal(t, Result{State: StateRecorded, Code: ProviderError}, res)
	assert.Equal(t, 0, backend.Count(http.MethodPatch, "/generic/transaction/3/"))
}

func TestProcessSuccess_ObservesCallbacks(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.JSON(http.MethodPost, "/bango/notification/", http.StatusCreated, `{"resource_pk": 1}`)

	m := observability.NewMetrics("test", prometheus.NewRegistry())
	client := solitude.New(&config.SolitudeConfig{
		URL:     backend.Server.URL,
		Key:     "k",
		Secret:  "s",
		Timeout: 2 * time.Second,
	}, testutil.NewMemoryStore(), zerolog.Nop(), nil)
	require.NotNil(t, client)
	p := NewProcessor(client, testutil.NewMockProducer(), zerolog.Nop(), m)

	p.ProcessSuccess(context.Background(), okParams(), "webpay:tx-1")

	assert.Equal(t, float64(1),
		promtestutil.ToFloat64(m.CallbacksTotal.WithLabelValues("success", "ok")))
	assert.Equal(t, 1, promtestutil.CollectAndCount(m.CallbackDuration))
}

func TestForwardEvent(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.JSON(http.MethodPost, "/bango/event/", http.StatusCreated, `{}`)

	p := newProcessor(t, backend, testutil.NewMockProducer())
	err := p.ForwardEvent(context.Background(), "<notice/>", "user", "pass")
	assert.NoError(t, err)
}

func TestForwardEvent_BackendRejects(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.JSON(http.MethodPost, "/bango/event/", http.StatusBadRequest,
		`{"errors": {"username": ["Invalid credentials"]}}`)

	p := newProcessor(t, backend, testutil.NewMockProducer())
	err := p.ForwardEvent(context.Background(), "<notice/>", "user", "wrong")
	assert.Error(t, err)
}
