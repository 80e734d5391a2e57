package controller

// PriceDTO is one price point for a product.
type PriceDTO struct {
	Amount   string `json:"amount" validate:"required"`
	Currency string `json:"currency" validate:"required,len=3"`
}

// PayRequest starts a payment flow for one product.
type PayRequest struct {
	ProductID       string         `json:"product_id" validate:"required"`
	ProductName     string         `json:"product_name" validate:"required,max=255"`
	SellerUUID      string         `json:"seller_uuid" validate:"required"`
	UserUUID        string         `json:"user_uuid" validate:"required"`
	Prices          []PriceDTO     `json:"prices" validate:"required,min=1,dive"`
	IconURL         string         `json:"icon_url" validate:"omitempty,url"`
	ApplicationSize int64          `json:"application_size" validate:"omitempty,min=0"`
	Source          string         `json:"source"`
	IssuerKey       string         `json:"issuer_key" validate:"required"`
	Provider        string         `json:"provider" validate:"omitempty,oneof=bango reference boku"`
	PayPayload      map[string]any `json:"pay_request"`
}

// PayResponse is the started payment flow.
type PayResponse struct {
	TransactionID string `json:"transaction_id"`
	BillingID     string `json:"billing_id,omitempty"`
	SellerID      string `json:"seller_id,omitempty"`
	Provider      string `json:"provider,omitempty"`
	FakePayment   bool   `json:"fake_payment,omitempty"`
}

// BuyerStatusResponse describes the buyer's PIN state.
type BuyerStatusResponse struct {
	UUID            string `json:"uuid"`
	Exists          bool   `json:"exists"`
	HasPIN          bool   `json:"has_pin"`
	PinIsLockedOut  bool   `json:"pin_is_locked_out"`
	PinWasLockedOut bool   `json:"pin_was_locked_out"`
	NeedsPinReset   bool   `json:"needs_pin_reset"`
}

// TransactionResponse is a backend transaction.
type TransactionResponse struct {
	UUID       string `json:"uuid"`
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Terminal   bool   `json:"terminal"`
	Retryable  bool   `json:"retryable"`
}

// CallbackPage is what the buyer's browser lands on after the provider
// redirects back.
type CallbackPage struct {
	Status        string `json:"status"`
	Code          string `json:"code,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// ErrorResponse is the error envelope for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
