package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cassiomorais/webpay/internal/infrastructure/observability"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// StreamProducer publishes jobs onto a redis stream.
type StreamProducer struct {
	client  *redis.Client
	stream  string
	log     zerolog.Logger
	metrics *observability.Metrics
}

func NewStreamProducer(client *redis.Client, stream string, logger zerolog.Logger, metrics *observability.Metrics) *StreamProducer {
	return &StreamProducer{
		client:  client,
		stream:  stream,
		log:     logger.With().Str("component", "tasks").Logger(),
		metrics: metrics,
	}
}

func (p *StreamProducer) enqueue(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{"job": string(payload)},
	}).Result()
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", job.Kind, err)
	}

	if p.metrics != nil {
		p.metrics.TasksEnqueuedTotal.WithLabelValues(job.Kind).Inc()
	}
	p.log.Debug().
		Str("job", job.Kind).
		Str("transaction_id", job.TransactionID).
		Str("message_id", id).
		Msg("job enqueued")
	return nil
}

func (p *StreamProducer) EnqueuePaymentNotify(ctx context.Context, transactionID string) error {
	return p.enqueue(ctx, Job{Kind: JobPaymentNotify, TransactionID: transactionID})
}

func (p *StreamProducer) EnqueueFakePaymentNotify(ctx context.Context, transactionID string, payRequest map[string]any, issuerKey string) error {
	return p.enqueue(ctx, Job{
		Kind:          JobFakePaymentNotify,
		TransactionID: transactionID,
		PayRequest:    payRequest,
		IssuerKey:     issuerKey,
	})
}

// StreamConsumer reads jobs from a redis stream consumer group.
type StreamConsumer struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	log      zerolog.Logger
}

func NewStreamConsumer(client *redis.Client, stream, group, consumer string, logger zerolog.Logger) *StreamConsumer {
	return &StreamConsumer{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		log:      logger.With().Str("component", "tasks").Str("group", group).Logger(),
	}
}

// CreateGroup ensures the consumer group exists. An already existing
// group is not an error.
func (c *StreamConsumer) CreateGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s: %w", c.group, err)
	}
	return nil
}

// Read blocks for up to the given duration waiting for messages.
// A timeout returns an empty slice, not an error.
func (c *StreamConsumer) Read(ctx context.Context, count int64, block time.Duration) ([]redis.XMessage, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read stream %s: %w", c.stream, err)
	}
	var msgs []redis.XMessage
	for _, s := range streams {
		msgs = append(msgs, s.Messages...)
	}
	return msgs, nil
}

// Ack acknowledges a processed message.
func (c *StreamConsumer) Ack(ctx context.Context, id string) error {
	return c.client.XAck(ctx, c.stream, c.group, id).Err()
}
