package solitude

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// BangoClient drives the backend's Bango-specific API.
type BangoClient struct {
	client *Client
}

func NewBangoClient(c *Client) *BangoClient {
	return &BangoClient{client: c}
}

// getSeller resolves the seller record for the app developer. A missing
// seller is a configuration problem on the marketplace side, not a
// buyer-facing error.
func (b *BangoClient) getSeller(ctx context.Context, sellerUUID string) (Entity, error) {
	seller, err := b.client.getObject(ctx, "/generic/seller/", map[string]string{"uuid": sellerUUID})
	if errors.Is(err, ErrObjectDoesNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSellerNotConfigured, sellerUUID)
	}
	return seller, err
}

// getProduct finds the Bango product registered for this seller and
// external id, or reports ErrObjectDoesNotExist.
func (b *BangoClient) getProduct(ctx context.Context, sellerID, externalID string) (Entity, error) {
	return b.client.getObject(ctx, "/bango/product/", map[string]string{
		"seller_product__seller":      sellerID,
		"seller_product__external_id": externalID,
	})
}

// ConfigureProductForBilling sets up one Bango payment: it resolves the
// seller, registers the product on first sale, and asks Bango for a
// billing configuration the payment screen is keyed on.
func (b *BangoClient) ConfigureProductForBilling(ctx context.Context, req BillingRequest) (string, string, error) {
	seller, err := b.getSeller(ctx, req.SellerUUID)
	if err != nil {
		return "", "", err
	}

	product, err := b.getProduct(ctx, seller.ID(), req.ProductID)
	if errors.Is(err, ErrObjectDoesNotExist) {
		b.client.log.Info().
			Str("external_id", req.ProductID).
			Str("seller", req.SellerUUID).
			Msg("product not yet registered with provider, creating")
		product, err = b.CreateProduct(ctx, req.ProductID, req.ProductName, seller)
	}
	if err != nil {
		return "", "", err
	}

	source := req.Source
	if source == "" {
		source = "unknown"
	}
	res, err := b.client.do(ctx, http.MethodPost, "/bango/billing/", requestOpts{body: map[string]any{
		"pageTitle":              req.ProductName,
		"prices":                 req.Prices,
		"transaction_uuid":       req.TransactionUUID,
		"seller_product_bango":   product.String("resource_uri"),
		"redirect_url_onsuccess": req.RedirectURLOnSuccess,
		"redirect_url_onerror":   req.RedirectURLOnError,
		"icon_url":               req.IconURL,
		"user_uuid":              req.UserUUID,
		"application_size":       req.ApplicationSize,
		"source":                 source,
	}})
	if err != nil {
		return "", "", err
	}
	return res.String("billingConfigurationId"), seller.ID(), nil
}

// CreateProduct registers a product with Bango. Four backend writes run
// in sequence with no rollback: a failure part way through leaves
// partial records behind, which the next attempt will surface as a 4xx.
func (b *BangoClient) CreateProduct(ctx context.Context, externalID, name string, seller Entity) (Entity, error) {
	account, ok := seller["bango"].(map[string]any)
	if !ok || len(account) == 0 {
		return nil, fmt.Errorf("%w: seller %s", ErrNoBillingAccount, seller.ID())
	}
	bango := Entity(account)

	product, err := b.client.do(ctx, http.MethodPost, "/generic/product/", requestOpts{body: map[string]any{
		"external_id": externalID,
		"seller":      bango.String("seller"),
		"public_id":   uuid.NewString(),
		"access":      AccessPurchase,
	}})
	if err != nil {
		return nil, fmt.Errorf("create generic product: %w", err)
	}

	bangoProduct, err := b.client.do(ctx, http.MethodPost, "/bango/product/", requestOpts{body: map[string]any{
		"seller_bango":   bango.String("resource_uri"),
		"seller_product": product.String("resource_uri"),
		"name":           name,
		"categoryId":     1,
		"packageId":      account["package_id"],
		"secret":         "n",
	}})
	if err != nil {
		return nil, fmt.Errorf("create bango product: %w", err)
	}

	_, err = b.client.do(ctx, http.MethodPost, "/bango/premium/", requestOpts{body: map[string]any{
		"bango":                bangoProduct.String("bango_id"),
		"seller_product_bango": bangoProduct.String("resource_uri"),
		"price":                "0.99",
		"currencyIso":          "USD",
	}})
	if err != nil {
		return nil, fmt.Errorf("make premium: %w", err)
	}

	for _, rating := range []map[string]any{
		{"rating": "UNIVERSAL", "ratingScheme": "GLOBAL"},
		{"rating": "GENERAL", "ratingScheme": "USA"},
	} {
		rating["bango"] = bangoProduct.String("bango_id")
		rating["seller_product_bango"] = bangoProduct.String("resource_uri")
		if _, err := b.client.do(ctx, http.MethodPost, "/bango/rating/", requestOpts{body: rating}); err != nil {
			return nil, fmt.Errorf("update rating: %w", err)
		}
	}

	return bangoProduct, nil
}
