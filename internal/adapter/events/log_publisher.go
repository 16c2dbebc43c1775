package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/rl1809/garage-ledger/internal/core/domain"
)

// LogPublisher writes alerts to the log. It stands in when no broker is configured.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) PublishStockAlert(ctx context.Context, alert domain.StockAlert) error {
	event := NewStockCriticalEvent(alert)
	p.log.Warn("stock critical",
		zap.String("event_id", event.EventID),
		zap.String("item_id", alert.ItemID),
		zap.String("name", alert.Name),
		zap.Int("quantity", alert.Quantity),
		zap.Int("minimum_quantity", alert.MinimumQuantity),
		zap.Int("reorder_quantity", alert.Reorder),
	)
	return nil
}
