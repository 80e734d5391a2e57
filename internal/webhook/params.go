package webhook

import "net/url"

// CallbackParams are the fields the provider sends on its redirect
// callbacks, under its own query parameter names.
type CallbackParams struct {
	ResponseCode    string
	ResponseMessage string
	TransactionID   string
	BillingConfigID string
	ProviderTransID string
	Token           string
	Price           string
	Currency        string
	Signature       string
	Network         string
}

// ParamsFromQuery maps the provider's query names onto CallbackParams.
// Unknown parameters are ignored.
func ParamsFromQuery(q url.Values) CallbackParams {
	return CallbackParams{
		ResponseCode:    q.Get("ResponseCode"),
		ResponseMessage: q.Get("ResponseMessage"),
		TransactionID:   q.Get("MerchantTransactionId"),
		BillingConfigID: q.Get("BillingConfigurationId"),
		ProviderTransID: q.Get("BangoTransactionId"),
		Token:           q.Get("Token"),
		Price:           q.Get("Price"),
		Currency:        q.Get("Currency"),
		Signature:       q.Get("MozSignature"),
		Network:         q.Get("Network"),
	}
}

// Validate checks a callback against the transaction bound to the
// buyer's session. wantSuccess selects the success callback's rules.
//
// The success callback accepts only an OK response code; the error
// callback rejects OK (a success report on the error URL is bogus) and
// treats CANCEL as the buyer backing out, which short-circuits before
// any transaction matching so the cancellation page always shows.
func Validate(p CallbackParams, sessionTransID string, wantSuccess bool) Result {
	if wantSuccess {
		if p.ResponseCode != CodeOK {
			return Result{State: StateRejected, Code: BadProviderCode}
		}
	} else {
		if p.ResponseCode == CodeOK {
			return Result{State: StateRejected, Code: BadProviderCode}
		}
		if p.ResponseCode == CodeCancel {
			return Result{State: StateValidated, Code: UserCancelled}
		}
	}

	if p.TransactionID == "" {
		return Result{State: StateRejected, Code: NoActiveTrans}
	}
	// The session cookie can be lost on the redirect back from the
	// provider; the notification is still recorded then. When a
	// session-bound transaction exists it must match.
	if sessionTransID != "" && p.TransactionID != sessionTransID {
		return Result{State: StateRejected, Code: NoActiveTrans}
	}
	return Result{State: StateValidated}
}
