// Package outbox drains the transactional event_outbox table into Kafka.
// The API process and the standalone consumer share one Poller, and the
// row locks taken by FetchUnpublished let any number of drainers run
// side by side without double-delivering.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pickclub/platform/internal/domain"
	"github.com/pickclub/platform/internal/infra"
	"github.com/pickclub/platform/internal/repository"
)

const (
	DefaultInterval  = 500 * time.Millisecond
	DefaultBatchSize = 100
)

// Poller publishes unpublished outbox rows to Kafka in insertion order.
// Rows stay unpublished until the broker accepts them, so a crash between
// commit and publish loses nothing.
type Poller struct {
	pool      *pgxpool.Pool
	repo      repository.OutboxRepository
	producer  *infra.KafkaProducer
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewPoller creates a poller. Non-positive interval or batchSize fall back
// to the defaults.
func NewPoller(pool *pgxpool.Pool, producer *infra.KafkaProducer, logger *slog.Logger, interval time.Duration, batchSize int) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Poller{
		pool:      pool,
		repo:      repository.NewOutboxRepository(),
		producer:  producer,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Start begins polling in a goroutine. Stops when ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	go p.Run(ctx)
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("outbox poller started", "interval", p.interval, "batch_size", p.batchSize)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox poller stopped")
			return
		case <-ticker.C:
			if _, err := p.DrainOnce(ctx); err != nil {
				p.logger.Error("outbox poll error", "error", err)
			}
		}
	}
}

// DrainOnce fetches one batch inside a transaction, publishes it and marks
// the delivered rows. The row locks held until commit keep concurrent
// drainers off the same batch. Returns the number of rows published.
func (p *Poller) DrainOnce(ctx context.Context) (int, error) {
	var published int

	err := pgx.BeginTxFunc(ctx, p.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		rows, err := p.repo.FetchUnpublished(ctx, tx, p.batchSize)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]int64, 0, len(rows))
		for _, row := range rows {
			if err := p.publish(ctx, row); err != nil {
				// Stop the batch here so later rows cannot overtake this one.
				p.logger.Error("kafka publish failed", "seq_id", row.SeqID, "event_id", row.EventID, "error", err)
				break
			}
			ids = append(ids, row.SeqID)
		}

		if err := p.repo.MarkPublished(ctx, tx, ids); err != nil {
			return fmt.Errorf("mark published: %w", err)
		}
		published = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if published > 0 {
		p.logger.Debug("outbox batch drained", "published", published)
	}
	return published, nil
}

// Event types double as topic names, so consumers subscribe by pattern
// without a routing table. The partition key keeps per-member ordering.
func (p *Poller) publish(ctx context.Context, row domain.OutboxRow) error {
	msg, err := json.Marshal(map[string]interface{}{
		"event_id":       row.EventID,
		"aggregate_type": row.AggregateType,
		"aggregate_id":   row.AggregateID,
		"event_type":     row.EventType,
		"payload":        row.Payload,
		"occurred_at":    row.OccurredAt,
	})
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, string(row.EventType), []byte(row.PartitionKey), msg)
}
