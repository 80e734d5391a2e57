package solitude

import (
	"context"
	"fmt"
)

// UniversalClient routes billing through the backend's provider-generic
// API under /provider/{name}/, so new providers need no code here. The
// generic endpoints are still being stood up backend-side; until then
// the configured operations fail with ErrNotImplemented rather than
// silently falling back to the Bango path.
type UniversalClient struct {
	client          *Client
	defaultProvider string
	provider        string
}

func NewUniversalClient(c *Client, defaultProvider string) *UniversalClient {
	u := &UniversalClient{client: c, defaultProvider: defaultProvider}
	u.SetProvider("")
	return u
}

// SetProvider selects the provider for subsequent calls, falling back
// to the configured default when name is empty.
func (u *UniversalClient) SetProvider(name string) {
	if name == "" {
		name = u.defaultProvider
	}
	u.provider = name
}

func (u *UniversalClient) basePath() (string, error) {
	if u.provider == "" {
		return "", ErrProviderNotSet
	}
	return fmt.Sprintf("/provider/%s", u.provider), nil
}

func (u *UniversalClient) ConfigureProductForBilling(ctx context.Context, req BillingRequest) (string, string, error) {
	if req.Provider != "" {
		u.SetProvider(req.Provider)
	}
	base, err := u.basePath()
	if err != nil {
		return "", "", err
	}
	return "", "", fmt.Errorf("%w: configure billing via %s", ErrNotImplemented, base)
}

func (u *UniversalClient) CreateProduct(ctx context.Context, externalID, name string, seller Entity) (Entity, error) {
	base, err := u.basePath()
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: create product via %s", ErrNotImplemented, base)
}
