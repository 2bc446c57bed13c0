// Package notify delivers best-effort member notifications. Failures are
// logged and never propagated; a lost notice must not fail a purchase.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pickclub/platform/internal/domain"
	"github.com/pickclub/platform/internal/infra"
)

// Notifier is the outbound notification surface used by the purchase and
// settlement flows.
type Notifier interface {
	PurchaseConfirmed(ctx context.Context, purchase *domain.Purchase, boardIDs []uuid.UUID)
	LowBalance(ctx context.Context, memberID uuid.UUID, balance, threshold int64)
}

// Noop discards all notifications. Used when Kafka is disabled and in tests.
type Noop struct{}

func (Noop) PurchaseConfirmed(context.Context, *domain.Purchase, []uuid.UUID) {}
func (Noop) LowBalance(context.Context, uuid.UUID, int64, int64)             {}

// KafkaNotifier publishes notices to member-facing topics.
type KafkaNotifier struct {
	producer *infra.KafkaProducer
	logger   *slog.Logger
}

// NewKafkaNotifier creates a Kafka-backed notifier.
func NewKafkaNotifier(producer *infra.KafkaProducer, logger *slog.Logger) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, logger: logger}
}

func (n *KafkaNotifier) PurchaseConfirmed(ctx context.Context, purchase *domain.Purchase, boardIDs []uuid.UUID) {
	payload, _ := json.Marshal(map[string]interface{}{
		"purchase_id":   purchase.ID,
		"member_id":     purchase.MemberID,
		"game_id":       purchase.GameID,
		"total_debited": purchase.TotalDebited,
		"board_ids":     boardIDs,
	})
	n.publish(ctx, "club.notice.purchase.confirmed", purchase.MemberID.String(), payload)
}

func (n *KafkaNotifier) LowBalance(ctx context.Context, memberID uuid.UUID, balance, threshold int64) {
	payload, _ := json.Marshal(map[string]interface{}{
		"member_id": memberID,
		"balance":   balance,
		"threshold": threshold,
	})
	n.publish(ctx, "club.notice.balance.low", memberID.String(), payload)
}

func (n *KafkaNotifier) publish(ctx context.Context, topic, key string, payload []byte) {
	if err := n.producer.Publish(ctx, topic, []byte(key), payload); err != nil {
		n.logger.Error("notification publish failed", "topic", topic, "key", key, "error", err)
	}
}
