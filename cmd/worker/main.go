package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cassiomorais/webpay/internal/bootstrap"
	infraRedis "github.com/cassiomorais/webpay/internal/infrastructure/redis"
	"github.com/cassiomorais/webpay/internal/solitude"
	"github.com/cassiomorais/webpay/internal/tasks"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const lockTTL = 30 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "webpay-worker", "webpay_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	workerCfg := app.Config.Worker
	consumer := tasks.NewStreamConsumer(
		app.Redis,
		tasks.NotifyStream,
		workerCfg.ConsumerGroup,
		app.Config.InstanceID,
		app.Logger,
	)
	if err := consumer.CreateGroup(ctx); err != nil {
		app.Logger.Error().Err(err).Msg("Failed to create consumer group")
		os.Exit(1)
	}

	app.Logger.Info().
		Str("stream", tasks.NotifyStream).
		Str("group", workerCfg.ConsumerGroup).
		Str("consumer", app.Config.InstanceID).
		Msg("Worker started, listening for messages...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runNotifyConsumer(gCtx, app, consumer, workerCfg.BatchSize, workerCfg.BlockDuration)
	})

	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down worker...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	app.Logger.Info().Msg("Worker exited")
}

func runNotifyConsumer(ctx context.Context, app *bootstrap.App, consumer *tasks.StreamConsumer, batchSize int64, block time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msgs, err := consumer.Read(ctx, batchSize, block)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			app.Logger.Error().Err(err).Msg("Failed to read from stream")
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range msgs {
			handleMessage(ctx, app, consumer, msg)
		}
	}
}

// handleMessage processes one notify job. Unparseable messages are
// acked and dropped; transient failures leave the message pending for
// redelivery.
func handleMessage(ctx context.Context, app *bootstrap.App, consumer *tasks.StreamConsumer, msg redis.XMessage) {
	job, err := tasks.JobFromMessage(msg)
	if err != nil {
		app.Logger.Error().Err(err).Str("message_id", msg.ID).Msg("Dropping malformed message")
		_ = consumer.Ack(ctx, msg.ID)
		return
	}

	lock := infraRedis.NewLock(app.Redis, "notify:"+job.TransactionID, lockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil || !acquired {
		app.Logger.Warn().
			Str("transaction_id", job.TransactionID).
			Msg("Could not acquire lock, leaving message pending")
		return
	}
	defer lock.Release(ctx)

	start := time.Now()
	err = processJob(ctx, app, job)
	app.Metrics.WorkerProcessingDuration.WithLabelValues(job.Kind).Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, solitude.ErrObjectDoesNotExist):
		// The transaction never made it to the backend; retrying will
		// not bring it into existence.
		app.Logger.Error().
			Str("transaction_id", job.TransactionID).
			Msg("Transaction unknown to backend, dropping job")
		app.Metrics.WorkerMessagesProcessed.WithLabelValues(job.Kind, "dropped").Inc()
		_ = consumer.Ack(ctx, msg.ID)
	case err != nil:
		app.Logger.Error().Err(err).
			Str("transaction_id", job.TransactionID).
			Msg("Failed to process job, leaving message pending")
		app.Metrics.WorkerMessagesProcessed.WithLabelValues(job.Kind, "error").Inc()
	default:
		app.Metrics.WorkerMessagesProcessed.WithLabelValues(job.Kind, "success").Inc()
		_ = consumer.Ack(ctx, msg.ID)
	}
}

func processJob(ctx context.Context, app *bootstrap.App, job tasks.Job) error {
	switch job.Kind {
	case tasks.JobPaymentNotify:
		trans, err := app.Solitude.GetTransaction(ctx, job.TransactionID)
		if err != nil {
			return err
		}
		status := solitude.StatusOf(trans)
		app.Logger.Info().
			Str("transaction_id", job.TransactionID).
			Str("status", status.String()).
			Msg("Payment notification processed")
		if !status.IsTerminal() {
			app.Logger.Warn().
				Str("transaction_id", job.TransactionID).
				Str("status", status.String()).
				Msg("Transaction not yet settled")
		}
		return nil

	case tasks.JobFakePaymentNotify:
		// Simulated payments have no backend transaction to check.
		app.Logger.Info().
			Str("transaction_id", job.TransactionID).
			Str("issuer_key", job.IssuerKey).
			Msg("Fake payment notification processed")
		return nil

	default:
		app.Logger.Error().Str("kind", job.Kind).Msg("Unknown job kind, dropping")
		return nil
	}
}
