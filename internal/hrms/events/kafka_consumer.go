package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	e "github.com/gartstein/hrms/internal/hrms/errors"
	"github.com/gartstein/hrms/internal/hrms/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// OfferResponse is the candidate's answer to a sent offer, published by the
// candidate portal.
type OfferResponse struct {
	ApplicationID uuid.UUID          `json:"applicationId"`
	Decision      models.OfferStatus `json:"decision"`
}

type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader     KafkaReader
	logger     *zap.Logger
	handler    func(context.Context, OfferResponse) error
	newBackOff func() backoff.BackOff
}

// NewConsumer reads offer responses from topic as part of groupID.
func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	return newConsumer(kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   topic,
		Dialer:  kafka.DefaultDialer,
	}), logger)
}

func newConsumer(reader KafkaReader, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader:     reader,
		logger:     logger.Named("kafka_consumer"),
		newBackOff: handlerBackOff,
	}
}

// handlerBackOff never gives up; a response that keeps failing transiently
// holds the partition until the handler recovers or the consumer stops.
func handlerBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

func (c *Consumer) Start(ctx context.Context) {
	go c.run(ctx)
}

// run fetches until ctx is done. A message is committed once handled, when
// the handler rejects it permanently, or when it cannot be parsed at all.
// Commits are cumulative, so a message is never skipped while it can still
// succeed.
func (c *Consumer) run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Failed to fetch message", zap.Error(err))
			continue
		}

		var resp OfferResponse
		if err := json.Unmarshal(msg.Value, &resp); err != nil {
			c.logger.Error("Failed to parse offer response",
				zap.Error(err),
				zap.ByteString("value", msg.Value),
			)
			c.commit(ctx, msg)
			continue
		}

		if err := c.handle(ctx, resp); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Failed to handle offer response",
				zap.Error(err),
				zap.String("application_id", resp.ApplicationID.String()),
				zap.String("decision", string(resp.Decision)),
			)
		}
		c.commit(ctx, msg)
	}
}

// handle retries transient handler failures in place. It returns nil, a
// permanent error, or the context error once ctx is done.
func (c *Consumer) handle(ctx context.Context, resp OfferResponse) error {
	op := func() error {
		err := c.handler(ctx, resp)
		if permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(op, backoff.WithContext(c.newBackOff(), ctx), func(err error, wait time.Duration) {
		c.logger.Warn("Retrying offer response",
			zap.Error(err),
			zap.String("application_id", resp.ApplicationID.String()),
			zap.Duration("retry_in", wait),
		)
	})
}

// permanent reports whether redelivering the response could never succeed.
func permanent(err error) bool {
	for _, sentinel := range []error{
		e.ErrInvalidState, e.ErrNotFound, e.ErrInvalidInput, e.ErrShapeMismatch, e.ErrForbidden,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message",
			zap.Error(err),
			zap.Int64("offset", msg.Offset),
		)
	}
}

func (c *Consumer) RegisterHandler(fn func(context.Context, OfferResponse) error) {
	c.handler = fn
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("Failed to close Kafka reader", zap.Error(err))
	}
}
