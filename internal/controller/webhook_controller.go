package controller

import (
	"net/http"

	"github.com/cassiomorais/webpay/internal/middleware"
	"github.com/cassiomorais/webpay/internal/session"
	"github.com/cassiomorais/webpay/internal/tasks"
	"github.com/cassiomorais/webpay/internal/webhook"
	"github.com/rs/zerolog"
)

// WebhookController serves the provider's redirect and server-to-server
// callbacks.
type WebhookController struct {
	processor    *webhook.Processor
	sessions     *session.Store
	producer     tasks.Producer
	fakePayments bool
	log          zerolog.Logger
}

func NewWebhookController(processor *webhook.Processor, sessions *session.Store, producer tasks.Producer, fakePayments bool, logger zerolog.Logger) *WebhookController {
	return &WebhookController{
		processor:    processor,
		sessions:     sessions,
		producer:     producer,
		fakePayments: fakePayments,
		log:          logger.With().Str("component", "webhook_controller").Logger(),
	}
}

func (h *WebhookController) sessionTransID(r *http.Request) (string, session.Notes) {
	sess := h.sessions.Read(r)
	if sess == nil {
		return "", session.Notes{}
	}
	return sess.TransactionID, sess.Notes
}

// Success handles the provider's success redirect. With fake payments
// on there is no provider and no real callback to verify; the
// notification job is synthesized from the session instead.
func (h *WebhookController) Success(w http.ResponseWriter, r *http.Request) {
	transID, notes := h.sessionTransID(r)

	if h.fakePayments {
		if transID == "" {
			writeJSON(w, http.StatusBadRequest, CallbackPage{Status: "error", Code: webhook.NoActiveTrans})
			return
		}
		if err := h.producer.EnqueueFakePaymentNotify(r.Context(), transID, notes.PayRequest, notes.IssuerKey); err != nil {
			h.log.Error().Err(err).Str("transaction_id", transID).Msg("failed to enqueue fake payment notify")
			writeJSON(w, http.StatusBadGateway, CallbackPage{Status: "error", Code: webhook.NoticeError})
			return
		}
		writeJSON(w, http.StatusOK, CallbackPage{Status: "success", TransactionID: transID})
		return
	}

	params := webhook.ParamsFromQuery(r.URL.Query())
	res := h.processor.ProcessSuccess(r.Context(), params, transID)
	writeCallbackPage(w, "success", params.TransactionID, res)
}

// Error handles the provider's error redirect.
func (h *WebhookController) Error(w http.ResponseWriter, r *http.Request) {
	transID, _ := h.sessionTransID(r)
	params := webhook.ParamsFromQuery(r.URL.Query())
	res := h.processor.ProcessError(r.Context(), params, transID)

	if res.Code == webhook.UserCancelled {
		// The flow is over; the session no longer binds a transaction.
		h.sessions.Clear(w)
		writeJSON(w, http.StatusOK, CallbackPage{
			Status:        "cancelled",
			Code:          res.Code,
			TransactionID: params.TransactionID,
		})
		return
	}
	writeCallbackPage(w, "error", params.TransactionID, res)
}

func writeCallbackPage(w http.ResponseWriter, endpoint, transID string, res webhook.Result) {
	switch res.State {
	case webhook.StateRejected:
		writeJSON(w, http.StatusBadRequest, CallbackPage{Status: "error", Code: res.Code})
	case webhook.StateFailed:
		writeJSON(w, http.StatusBadGateway, CallbackPage{Status: "error", Code: res.Code})
	default:
		writeJSON(w, http.StatusOK, CallbackPage{
			Status:        endpoint,
			Code:          res.Code,
			TransactionID: transID,
		})
	}
}

// Notification handles the provider's server-to-server event postback.
// The provider retries on anything but a literal "OK" body, so replies
// are plain text, not JSON.
func (h *WebhookController) Notification(w http.ResponseWriter, r *http.Request) {
	creds, ok := middleware.GetCredentials(r.Context())
	if !ok {
		http.Error(w, "Not OK", http.StatusForbidden)
		return
	}

	notice := r.PostFormValue("XML")
	if notice == "" {
		http.Error(w, "Not OK", http.StatusBadRequest)
		return
	}

	if err := h.processor.ForwardEvent(r.Context(), notice, creds.Username, creds.Password); err != nil {
		h.log.Error().Err(err).Msg("failed to forward event notification")
		http.Error(w, "Not OK", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("OK"))
}
