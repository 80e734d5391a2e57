package solitude

import (
	"context"
	"net/http"
)

// Notification is the payment outcome reported by the provider's
// server-to-server callback, relayed to the backend for verification
// and recording. The signature is checked backend-side against the
// secret shared with the provider.
type Notification struct {
	Signature       string `json:"moz_signature"`
	TransactionUUID string `json:"moz_transaction"`
	BillingConfigID string `json:"billing_config_id"`
	ResponseCode    string `json:"bango_response_code"`
	ResponseMessage string `json:"bango_response_message"`
	ProviderTransID string `json:"bango_trans_id"`
	Token           string `json:"bango_token"`
	Amount          string `json:"amount,omitempty"`
	Currency        string `json:"currency,omitempty"`
}

// RecordNotification submits a payment notification for verification.
// The backend returns field errors as an error Entity when the
// signature or transaction does not check out.
func (c *Client) RecordNotification(ctx context.Context, n Notification) (Entity, error) {
	return c.safeDo(ctx, http.MethodPost, "/bango/notification/", requestOpts{body: n})
}

// RecordEvent forwards a raw provider event notice together with the
// Basic auth credentials it arrived with; the backend owns credential
// verification.
func (c *Client) RecordEvent(ctx context.Context, notice, username, password string) (Entity, error) {
	return c.safeDo(ctx, http.MethodPost, "/bango/event/", requestOpts{body: map[string]any{
		"notification": notice,
		"username":     username,
		"password":     password,
	}})
}
