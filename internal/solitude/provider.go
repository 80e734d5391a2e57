package solitude

import (
	"context"

	"github.com/cassiomorais/webpay/internal/infrastructure/config"
)

// Price is one amount/currency pair offered for a product.
type Price struct {
	Amount   string `json:"price"`
	Currency string `json:"currency"`
}

// BillingRequest carries everything needed to set up one payment flow
// with a provider.
type BillingRequest struct {
	TransactionUUID      string
	SellerUUID           string
	ProductID            string
	ProductName          string
	RedirectURLOnSuccess string
	RedirectURLOnError   string
	Prices               []Price
	IconURL              string
	UserUUID             string
	ApplicationSize      int64
	Source               string

	// Provider overrides the configured default for this one request.
	// Empty means use the default.
	Provider string
}

// ProviderClient abstracts over payment providers. ConfigureProductForBilling
// runs the whole pre-payment setup for one transaction and returns the
// provider's billing token plus the seller identifier; CreateProduct
// registers a product with the provider on first sale.
type ProviderClient interface {
	ConfigureProductForBilling(ctx context.Context, req BillingRequest) (billingID, sellerID string, err error)
	CreateProduct(ctx context.Context, externalID, name string, seller Entity) (Entity, error)
}

// SelectProvider picks the provider client implied by configuration.
// The universal flag routes every provider through the backend's
// provider-generic API instead of the Bango-specific one.
func SelectProvider(c *Client, cfg *config.PaymentConfig) ProviderClient {
	if cfg.UniversalProvider {
		return NewUniversalClient(c, cfg.Provider)
	}
	return NewBangoClient(c)
}
