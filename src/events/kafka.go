package events

import (
	"context"
	"encoding/json"
	"time"

	"wealthpilot-market/src/models"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------
// AlertPublisher hands triggered-alert events to downstream consumers
// (email notification, report pipeline) over Kafka. Publishing is best
// effort: a broker outage is logged and never blocks the evaluator.
// -----------------------------------------------------------------------------

type AlertPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// -----------------------------------------------------------------------------

func NewAlertPublisher(cfg models.MKafkaConfig, log *zap.Logger) *AlertPublisher {
	return &AlertPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
		},
		logger: log,
	}
}

// -----------------------------------------------------------------------------

// PublishAlert writes one event, keyed by user so one user's alerts stay
// ordered within a partition.
func (p *AlertPublisher) PublishAlert(ctx context.Context, ev *models.MAlertEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("failed to marshal alert event", zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(ev.UserID),
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish alert event",
			zap.Int64("condition_id", ev.ConditionID),
			zap.Error(err))
	}
}

// -----------------------------------------------------------------------------

func (p *AlertPublisher) Close() error {
	return p.writer.Close()
}
