package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/ismaiel54/trade-ticket/internal/msg"
	"go.uber.org/zap"
)

// Publisher drains the receipt outbox to Kafka. Publishing is best-effort:
// a failed push is retried on the next tick and never affects the
// submission state the receipt came from.
type Publisher struct {
	store     *Store
	producer  *msg.Producer
	logger    *zap.Logger
	interval  time.Duration
	batchSize int
}

// NewPublisher creates a new outbox publisher
func NewPublisher(store *Store, producer *msg.Producer, logger *zap.Logger) *Publisher {
	return &Publisher{
		store:     store,
		producer:  producer,
		logger:    logger,
		interval:  250 * time.Millisecond,
		batchSize: 100,
	}
}

// Run starts the publisher loop
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.publishBatch(ctx); err != nil {
				p.logger.Error("failed to publish batch", zap.Error(err))
				// Continue - will retry on next tick
			}
		}
	}
}

// publishBatch publishes a batch of unpublished receipts
func (p *Publisher) publishBatch(ctx context.Context) error {
	events, err := p.store.ListUnpublished(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list unpublished events: %w", err)
	}

	if len(events) == 0 {
		return nil
	}

	now := time.Now().UnixMilli()
	published := 0

	for _, event := range events {
		if err := p.producer.Produce(ctx, event.Topic, event.Key, []byte(event.PayloadJSON)); err != nil {
			p.logger.Error("failed to produce receipt",
				zap.Int64("outbox_id", event.ID),
				zap.String("request_id", event.RequestID),
				zap.Error(err),
			)
			// Continue with next event - this one will be retried
			continue
		}

		if err := p.store.MarkPublished(ctx, event.ID, now); err != nil {
			p.logger.Error("failed to mark receipt as published",
				zap.Int64("outbox_id", event.ID),
				zap.Error(err),
			)
			// Continue - worst case we republish (consumers dedupe on journal_id)
			continue
		}

		published++
		p.logger.Debug("published receipt",
			zap.String("request_id", event.RequestID),
			zap.String("journal_id", event.JournalID),
		)
	}

	if published > 0 {
		p.logger.Info("published receipt batch",
			zap.Int("published", published),
			zap.Int("total", len(events)),
		)
	}

	return nil
}
