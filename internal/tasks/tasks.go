package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NotifyStream is the stream carrying payment notification jobs.
const NotifyStream = "webpay:notify"

// Job kinds.
const (
	JobPaymentNotify     = "payment-notify"
	JobFakePaymentNotify = "fake-payment-notify"
)

// Job is one asynchronous unit of work. PayRequest and IssuerKey are
// only set for fake payments, where no backend transaction exists to
// look them up from.
type Job struct {
	Kind          string         `json:"kind"`
	TransactionID string         `json:"transaction_id"`
	PayRequest    map[string]any `json:"pay_request,omitempty"`
	IssuerKey     string         `json:"issuer_key,omitempty"`
}

// Producer enqueues jobs for the worker. Dispatch is fire-and-forget;
// callers treat enqueue failures as processing failures, not retries.
type Producer interface {
	EnqueuePaymentNotify(ctx context.Context, transactionID string) error
	EnqueueFakePaymentNotify(ctx context.Context, transactionID string, payRequest map[string]any, issuerKey string) error
}

// JobFromMessage decodes a stream message back into a Job.
func JobFromMessage(msg redis.XMessage) (Job, error) {
	raw, ok := msg.Values["job"].(string)
	if !ok {
		return Job{}, fmt.Errorf("message %s has no job payload", msg.ID)
	}
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return Job{}, fmt.Errorf("decode job from message %s: %w", msg.ID, err)
	}
	return job, nil
}
