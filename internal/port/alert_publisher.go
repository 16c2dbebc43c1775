package port

import (
	"context"

	"github.com/rl1809/garage-ledger/internal/core/domain"
)

type AlertPublisher interface {
	PublishStockAlert(ctx context.Context, alert domain.StockAlert) error
}
