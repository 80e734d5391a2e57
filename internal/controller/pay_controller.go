package controller

import (
	"net/http"

	"github.com/cassiomorais/webpay/internal/infrastructure/config"
	"github.com/cassiomorais/webpay/internal/session"
	"github.com/cassiomorais/webpay/internal/solitude"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Transaction id prefixes. The prefix makes fake transactions
// recognizable everywhere downstream.
const (
	transPrefix     = "webpay:"
	fakeTransPrefix = "fakepay:"
)

// PayController starts payment flows and exposes transaction state.
type PayController struct {
	client   *solitude.Client
	provider solitude.ProviderClient
	sessions *session.Store
	payment  config.PaymentConfig
	log      zerolog.Logger
}

func NewPayController(client *solitude.Client, provider solitude.ProviderClient, sessions *session.Store, payment config.PaymentConfig, logger zerolog.Logger) *PayController {
	return &PayController{
		client:   client,
		provider: provider,
		sessions: sessions,
		payment:  payment,
		log:      logger.With().Str("component", "pay_controller").Logger(),
	}
}

// Start begins a payment: it mints the transaction id, binds it to the
// buyer's session and configures the product with the provider. With
// fake payments on the provider step is skipped entirely.
func (h *PayController) Start(w http.ResponseWriter, r *http.Request) {
	var req PayRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	providerName := req.Provider
	if providerName == "" {
		providerName = h.payment.Provider
	}
	provider, ok := solitude.ProviderByName(providerName)
	if !ok {
		writeError(w, &ValidationError{Field: "provider", Message: "unknown provider " + providerName})
		return
	}

	prefix := transPrefix
	if h.payment.FakePayments {
		prefix = fakeTransPrefix
	}
	transID := prefix + uuid.NewString()

	payload := req.PayPayload
	if payload == nil {
		payload = map[string]any{"id": req.ProductID, "name": req.ProductName}
	}
	sess := &session.Session{
		TransactionID: transID,
		Notes: session.Notes{
			PayRequest: payload,
			IssuerKey:  req.IssuerKey,
		},
	}
	if err := h.sessions.Write(w, sess); err != nil {
		writeError(w, err)
		return
	}

	if h.payment.FakePayments {
		h.log.Info().Str("transaction_id", transID).Msg("fake payment started")
		writeJSON(w, http.StatusCreated, PayResponse{TransactionID: transID, FakePayment: true})
		return
	}

	prices := make([]solitude.Price, 0, len(req.Prices))
	for _, p := range req.Prices {
		prices = append(prices, solitude.Price{Amount: p.Amount, Currency: p.Currency})
	}
	billingID, sellerID, err := h.provider.ConfigureProductForBilling(r.Context(), solitude.BillingRequest{
		TransactionUUID:      transID,
		SellerUUID:           req.SellerUUID,
		ProductID:            req.ProductID,
		ProductName:          req.ProductName,
		RedirectURLOnSuccess: h.payment.SuccessURL,
		RedirectURLOnError:   h.payment.ErrorURL,
		Prices:               prices,
		IconURL:              req.IconURL,
		UserUUID:             req.UserUUID,
		ApplicationSize:      req.ApplicationSize,
		Source:               req.Source,
		Provider:             req.Provider,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.log.Info().
		Str("transaction_id", transID).
		Str("billing_id", billingID).
		Str("seller", req.SellerUUID).
		Str("provider", provider.String()).
		Msg("payment configured")
	writeJSON(w, http.StatusCreated, PayResponse{
		TransactionID: transID,
		BillingID:     billingID,
		SellerID:      sellerID,
		Provider:      provider.String(),
	})
}

// Transaction returns the backend's view of one transaction.
func (h *PayController) Transaction(w http.ResponseWriter, r *http.Request) {
	transID := chi.URLParam(r, "uuid")

	ent, err := h.client.GetTransaction(r.Context(), transID)
	if err != nil {
		writeError(w, err)
		return
	}

	status := solitude.StatusOf(ent)
	writeJSON(w, http.StatusOK, TransactionResponse{
		UUID:       ent.String("uuid"),
		Status:     status.String(),
		StatusCode: int(status),
		Terminal:   status.IsTerminal(),
		Retryable:  status.CanRetry(),
	})
}
