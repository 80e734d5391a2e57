package solitude

import (
	"context"
	"fmt"
	"net/http"
)

// CreateBuyer registers a buyer, with an optional PIN that the backend
// hashes. The reply is cached when it carries a version token.
func (c *Client) CreateBuyer(ctx context.Context, uuid, pin string) (Entity, error) {
	body := map[string]any{"uuid": uuid}
	if pin != "" {
		body["pin"] = pin
	} else {
		body["pin"] = nil
	}
	ent, err := c.safeDo(ctx, http.MethodPost, "/generic/buyer/", requestOpts{body: body})
	if err != nil {
		return nil, err
	}
	if !ent.HasErrors() {
		c.buyers.Put(ctx, uuid, ent.Etag(), ent)
	}
	return ent, nil
}

// GetBuyer retrieves a buyer by uuid through the conditional cache.
// Pass useCache=false to force an unconditional fetch.
func (c *Client) GetBuyer(ctx context.Context, uuid string, useCache bool) (Entity, error) {
	if c == nil {
		return nil, ErrClientDisabled
	}
	return c.getCached(ctx, c.buyers, "buyer", uuid, "/generic/buyer/",
		map[string]string{"uuid": uuid}, useCache)
}

// patchBuyer applies a conditional partial update guarded by the
// version token. The backend's field errors pass through unchanged; an
// empty Entity means the update was accepted.
func (c *Client) patchBuyer(ctx context.Context, uuid string, fields map[string]any, etag string) (Entity, error) {
	buyer, err := c.GetBuyer(ctx, uuid, true)
	if err != nil {
		return nil, err
	}
	if buyer.HasErrors() {
		return buyer, nil
	}

	path := fmt.Sprintf("/generic/buyer/%s/", buyer.ID())
	headers := map[string]string{}
	if etag != "" {
		headers["If-Match"] = etag
	}
	ent, err := c.safeDo(ctx, http.MethodPatch, path, requestOpts{body: fields, headers: headers})
	if err != nil {
		return nil, err
	}
	if ent.HasErrors() {
		return ent, nil
	}
	return Entity{}, nil
}

// SetNeedsPinReset flags whether the buyer goes through the PIN reset
// flow on next log in.
func (c *Client) SetNeedsPinReset(ctx context.Context, uuid string, value bool, etag string) (Entity, error) {
	return c.patchBuyer(ctx, uuid, map[string]any{"needs_pin_reset": value, "new_pin": nil}, etag)
}

// UnsetWasLocked clears the flag that shows the was-locked screen.
func (c *Client) UnsetWasLocked(ctx context.Context, uuid, etag string) (Entity, error) {
	return c.patchBuyer(ctx, uuid, map[string]any{"pin_was_locked_out": false}, etag)
}

// ChangePIN sets a PIN on a buyer that exists without one.
func (c *Client) ChangePIN(ctx context.Context, uuid, pin, etag string) (Entity, error) {
	return c.patchBuyer(ctx, uuid, map[string]any{"pin": pin}, etag)
}

// SetNewPIN stages the new PIN for a buyer resetting theirs.
func (c *Client) SetNewPIN(ctx context.Context, uuid, newPIN, etag string) (Entity, error) {
	return c.patchBuyer(ctx, uuid, map[string]any{"new_pin": newPIN}, etag)
}

// ConfirmPIN confirms the buyer's PIN, marking it confirmed in the backend.
func (c *Client) ConfirmPIN(ctx context.Context, uuid, pin string) (bool, error) {
	ent, err := c.safeDo(ctx, http.MethodPost, "/generic/confirm_pin/",
		requestOpts{body: map[string]any{"uuid": uuid, "pin": pin}})
	if err != nil {
		return false, err
	}
	return ent.Bool("confirmed"), nil
}

// ResetConfirmPIN confirms the staged new PIN during the reset flow.
func (c *Client) ResetConfirmPIN(ctx context.Context, uuid, pin string) (bool, error) {
	ent, err := c.safeDo(ctx, http.MethodPost, "/generic/reset_confirm_pin/",
		requestOpts{body: map[string]any{"uuid": uuid, "pin": pin}})
	if err != nil {
		return false, err
	}
	return ent.Bool("confirmed"), nil
}

// VerifyPIN checks the buyer's PIN against the backend.
func (c *Client) VerifyPIN(ctx context.Context, uuid, pin string) (Entity, error) {
	return c.safeDo(ctx, http.MethodPost, "/generic/verify_pin/",
		requestOpts{body: map[string]any{"uuid": uuid, "pin": pin}})
}

// GetActiveProduct retrieves an active seller product by its public id.
func (c *Client) GetActiveProduct(ctx context.Context, publicID string) (Entity, error) {
	return c.getObject(ctx, "/generic/product/", map[string]string{
		"seller__active": "true",
		"public_id":      publicID,
	})
}
