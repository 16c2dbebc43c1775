package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/garage-ledger/internal/core/domain"
	"github.com/rl1809/garage-ledger/internal/core/ledger"
	"github.com/rl1809/garage-ledger/internal/metrics"
	"github.com/rl1809/garage-ledger/internal/port"
)

type InventoryInput struct {
	Name            string
	Batch           string
	ExpiresAt       *time.Time
	Quantity        int
	MinimumQuantity int
	UnitCost        decimal.Decimal
}

// AlertQueue accepts stock alerts for asynchronous delivery.
type AlertQueue interface {
	Enqueue(ctx context.Context, alert domain.StockAlert) error
}

type InventoryService struct {
	db      port.InventoryRepository
	cache   port.CacheRepository
	alerts  AlertQueue
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewInventoryService(db port.InventoryRepository, cache port.CacheRepository, alerts AlertQueue, log *zap.Logger, m *metrics.Metrics) *InventoryService {
	return &InventoryService{
		db:      db,
		cache:   cache,
		alerts:  alerts,
		log:     log,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *InventoryService) Create(ctx context.Context, in InventoryInput) (*domain.InventoryItem, error) {
	now := s.now()
	item := domain.InventoryItem{
		ID:              uuid.NewString(),
		Name:            in.Name,
		Batch:           in.Batch,
		ExpiresAt:       in.ExpiresAt,
		Quantity:        in.Quantity,
		MinimumQuantity: in.MinimumQuantity,
		UnitCost:        in.UnitCost,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	if err := s.db.CreateInventoryItem(ctx, item); err != nil {
		return nil, err
	}

	s.log.Info("inventory item created", zap.String("id", item.ID), zap.String("name", item.Name))
	s.evaluate(ctx, item)
	invalidateDashboard(ctx, s.cache, s.log)
	return &item, nil
}

func (s *InventoryService) Get(ctx context.Context, id string) (*domain.InventoryItem, error) {
	return s.db.GetInventoryItem(ctx, id)
}

func (s *InventoryService) List(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.db.ListInventoryItems(ctx)
}

// Adjust applies a signed stock movement. Quantity never goes below zero.
func (s *InventoryService) Adjust(ctx context.Context, id string, delta int) (*domain.InventoryItem, error) {
	if delta == 0 {
		return nil, domain.Invalid("delta", "must not be zero")
	}

	item, err := s.db.AdjustInventoryQuantity(ctx, id, delta)
	if err != nil {
		return nil, err
	}

	s.metrics.StockAdjusted(delta)
	s.log.Info("stock adjusted", zap.String("id", id), zap.Int("delta", delta), zap.Int("quantity", item.Quantity))
	s.evaluate(ctx, *item)
	invalidateDashboard(ctx, s.cache, s.log)
	return item, nil
}

// evaluate queues an alert the first time an item turns critical and clears
// the mark once it recovers. Cache or queue failures are logged, never returned:
// the stock write has already happened.
func (s *InventoryService) evaluate(ctx context.Context, item domain.InventoryItem) {
	if !item.Critical() {
		if err := s.cache.ClearCritical(ctx, item.ID); err != nil {
			s.log.Warn("clear critical mark failed", zap.String("item_id", item.ID), zap.Error(err))
		}
		return
	}

	first, err := s.cache.MarkCritical(ctx, item.ID)
	if err != nil {
		s.log.Warn("mark critical failed", zap.String("item_id", item.ID), zap.Error(err))
		return
	}
	if !first {
		return
	}

	alert := domain.StockAlert{
		ItemID:          item.ID,
		Name:            item.Name,
		Quantity:        item.Quantity,
		MinimumQuantity: item.MinimumQuantity,
		Reorder:         ledger.ReorderQuantity(item),
		RaisedAt:        s.now(),
	}
	if err := s.alerts.Enqueue(ctx, alert); err != nil {
		s.log.Error("enqueue stock alert failed", zap.String("item_id", item.ID), zap.Error(err))
		if clearErr := s.cache.ClearCritical(ctx, item.ID); clearErr != nil {
			s.log.Warn("clear critical mark failed", zap.String("item_id", item.ID), zap.Error(clearErr))
		}
	}
}
