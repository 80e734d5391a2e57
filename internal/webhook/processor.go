package webhook

import (
	"context"
	"errors"
	"time"

	"github.com/cassiomorais/webpay/internal/infrastructure/observability"
	"github.com/cassiomorais/webpay/internal/solitude"
	"github.com/cassiomorais/webpay/internal/tasks"
	"github.com/rs/zerolog"
)

// Processor runs provider callbacks through validate, record and
// dispatch. Recording writes the notification to the payment backend,
// which owns signature verification; dispatch hands the postback work
// to the worker and never blocks on the app developer's server.
type Processor struct {
	client  *solitude.Client
	tasks   tasks.Producer
	log     zerolog.Logger
	metrics *observability.Metrics
}

func NewProcessor(client *solitude.Client, producer tasks.Producer, logger zerolog.Logger, metrics *observability.Metrics) *Processor {
	return &Processor{
		client:  client,
		tasks:   producer,
		log:     logger.With().Str("component", "webhook").Logger(),
		metrics: metrics,
	}
}

// ProcessSuccess handles the provider's success redirect.
func (p *Processor) ProcessSuccess(ctx context.Context, params CallbackParams, sessionTransID string) Result {
	start := time.Now()
	res := Validate(params, sessionTransID, true)
	if res.State == StateRejected {
		p.reject("success", start, params, res)
		return res
	}

	if res = p.record(ctx, params); res.State == StateFailed {
		return p.observe("success", start, res)
	}
	if err := p.tasks.EnqueuePaymentNotify(ctx, params.TransactionID); err != nil {
		p.log.Error().Err(err).
			Str("transaction_id", params.TransactionID).
			Msg("failed to enqueue payment notify")
		return p.observe("success", start, Result{State: StateFailed, Code: NoticeError})
	}
	return p.observe("success", start, Result{State: StateDispatched})
}

// ProcessError handles the provider's error redirect. A cancellation
// is recorded nowhere; the page simply tells the buyer they backed
// out. Everything else is recorded so support can trace the failure.
func (p *Processor) ProcessError(ctx context.Context, params CallbackParams, sessionTransID string) Result {
	start := time.Now()
	res := Validate(params, sessionTransID, false)
	if res.State == StateRejected {
		p.reject("error", start, params, res)
		return res
	}
	if res.Code == UserCancelled {
		return p.observe("error", start, res)
	}

	if rec := p.record(ctx, params); rec.State == StateFailed {
		return p.observe("error", start, rec)
	}
	p.markFailed(ctx, params.TransactionID)

	code := ProviderError
	if params.ResponseCode == CodeNotSupported {
		code = UnsupportedPay
	}
	p.log.Warn().
		Str("response_code", params.ResponseCode).
		Str("response_message", params.ResponseMessage).
		Str("transaction_id", params.TransactionID).
		Msg("provider reported a payment error")
	return p.observe("error", start, Result{State: StateRecorded, Code: code})
}

// ForwardEvent relays a provider event notice to the backend, which
// verifies the credentials it arrived with.
func (p *Processor) ForwardEvent(ctx context.Context, notice, username, password string) error {
	ent, err := p.client.RecordEvent(ctx, notice, username, password)
	if err != nil {
		return err
	}
	if ent.HasErrors() {
		return errors.New("backend rejected event notification")
	}
	return nil
}

// record writes the notification to the backend for verification.
func (p *Processor) record(ctx context.Context, params CallbackParams) Result {
	ent, err := p.client.RecordNotification(ctx, solitude.Notification{
		Signature:       params.Signature,
		TransactionUUID: params.TransactionID,
		BillingConfigID: params.BillingConfigID,
		ResponseCode:    params.ResponseCode,
		ResponseMessage: params.ResponseMessage,
		ProviderTransID: params.ProviderTransID,
		Token:           params.Token,
		Amount:          params.Price,
		Currency:        params.Currency,
	})
	switch {
	case errors.Is(err, solitude.ErrClientDisabled):
		return Result{State: StateFailed, Code: BackendDisabled}
	case err != nil:
		p.log.Error().Err(err).
			Str("transaction_id", params.TransactionID).
			Msg("failed to record notification")
		return Result{State: StateFailed, Code: NoticeError}
	case ent.HasErrors():
		p.log.Error().
			Interface("errors", ent["errors"]).
			Str("transaction_id", params.TransactionID).
			Msg("backend rejected notification")
		return Result{State: StateFailed, Code: NoticeError}
	}
	return Result{State: StateRecorded}
}

// markFailed moves a still-open transaction to failed after a provider
// error, so the buyer may start the flow over. The notification is
// already recorded at this point; a failure here is only logged.
func (p *Processor) markFailed(ctx context.Context, transID string) {
	trans, err := p.client.GetTransaction(ctx, transID)
	if err != nil {
		p.log.Warn().Err(err).
			Str("transaction_id", transID).
			Msg("could not load transaction to mark it failed")
		return
	}
	if solitude.StatusOf(trans).IsTerminal() {
		return
	}
	if err := p.client.UpdateTransactionStatus(ctx, trans, solitude.StatusFailed); err != nil {
		p.log.Warn().Err(err).
			Str("transaction_id", transID).
			Msg("could not mark transaction failed")
	}
}

func (p *Processor) reject(endpoint string, start time.Time, params CallbackParams, res Result) {
	p.log.Warn().
		Str("endpoint", endpoint).
		Str("code", res.Code).
		Str("response_code", params.ResponseCode).
		Str("transaction_id", params.TransactionID).
		Msg("callback rejected")
	p.observe(endpoint, start, res)
}

func (p *Processor) observe(endpoint string, start time.Time, res Result) Result {
	if p.metrics != nil {
		outcome := res.Code
		if outcome == "" {
			outcome = "ok"
		}
		p.metrics.CallbacksTotal.WithLabelValues(endpoint, outcome).Inc()
		p.metrics.CallbackDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
	return res
}
