package solitude

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
)

// TransactionStatus is the backend's transaction state machine. The
// values are wire constants and must not be renumbered.
type TransactionStatus int

const (
	StatusPending   TransactionStatus = 0
	StatusCompleted TransactionStatus = 1
	StatusChecked   TransactionStatus = 2
	StatusReceived  TransactionStatus = 3
	StatusFailed    TransactionStatus = 4
	StatusCancelled TransactionStatus = 5
	StatusStarted   TransactionStatus = 6
	StatusErrored   TransactionStatus = 7
)

// IsTerminal reports whether the transaction can no longer change state.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusErrored:
		return true
	}
	return false
}

// CanRetry reports whether a buyer may start the flow over for this
// transaction. Completed and errored transactions stay closed.
func (s TransactionStatus) CanRetry() bool {
	return s == StatusFailed || s == StatusCancelled
}

func (s TransactionStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCompleted:
		return "completed"
	case StatusChecked:
		return "checked"
	case StatusReceived:
		return "received"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	case StatusStarted:
		return "started"
	case StatusErrored:
		return "errored"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// Provider identifies a payment provider on the wire.
type Provider int

const (
	ProviderBango     Provider = 1
	ProviderReference Provider = 2
	ProviderBoku      Provider = 3
)

func (p Provider) String() string {
	switch p {
	case ProviderBango:
		return "bango"
	case ProviderReference:
		return "reference"
	case ProviderBoku:
		return "boku"
	default:
		return "unknown(" + strconv.Itoa(int(p)) + ")"
	}
}

// ProviderByName maps a configured provider name to its wire value.
func ProviderByName(name string) (Provider, bool) {
	switch name {
	case "bango":
		return ProviderBango, true
	case "reference":
		return ProviderReference, true
	case "boku":
		return ProviderBoku, true
	}
	return 0, false
}

// Product access level for purchasable products.
const AccessPurchase = 1

// GetTransaction retrieves a transaction by its uuid. The free-form
// notes field is stored as a JSON string; it is unpacked into a map
// under the same key when it parses.
func (c *Client) GetTransaction(ctx context.Context, uuid string) (Entity, error) {
	ent, err := c.getObject(ctx, "/generic/transaction/", map[string]string{"uuid": uuid})
	if err != nil {
		return nil, err
	}
	if raw := ent.String("notes"); raw != "" {
		var notes map[string]any
		if json.Unmarshal([]byte(raw), &notes) == nil {
			ent["notes"] = notes
		}
	}
	return ent, nil
}

// StatusOf extracts the transaction status from an entity.
func StatusOf(ent Entity) TransactionStatus {
	switch v := ent["status"].(type) {
	case float64:
		return TransactionStatus(v)
	case int:
		return TransactionStatus(v)
	}
	return StatusPending
}

// UpdateTransactionStatus moves a transaction to the given status.
func (c *Client) UpdateTransactionStatus(ctx context.Context, ent Entity, status TransactionStatus) error {
	path := "/generic/transaction/" + ent.ID() + "/"
	_, err := c.do(ctx, http.MethodPatch, path, requestOpts{
		body: map[string]any{"status": int(status)},
	})
	return err
}
