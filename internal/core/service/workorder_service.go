package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/garage-ledger/internal/core/domain"
	"github.com/rl1809/garage-ledger/internal/metrics"
	"github.com/rl1809/garage-ledger/internal/port"
)

type WorkOrderInput struct {
	Vehicle    string
	Plate      string
	MechanicID string
	PartsValue decimal.Decimal
	LaborValue decimal.Decimal
	Commission domain.CommissionModel
	Status     domain.WorkOrderStatus
	CreatedAt  time.Time
}

type WorkOrderService struct {
	db      port.WorkOrderRepository
	cache   port.CacheRepository
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewWorkOrderService(db port.WorkOrderRepository, cache port.CacheRepository, log *zap.Logger, m *metrics.Metrics) *WorkOrderService {
	return &WorkOrderService{
		db:      db,
		cache:   cache,
		log:     log,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new work order. A non-empty requestKey makes the call
// idempotent: a second call with the same key returns ErrDuplicateRequest.
func (s *WorkOrderService) Create(ctx context.Context, requestKey string, in WorkOrderInput) (*domain.WorkOrder, error) {
	now := s.now()
	order := domain.WorkOrder{
		ID:         uuid.NewString(),
		Vehicle:    in.Vehicle,
		Plate:      in.Plate,
		MechanicID: in.MechanicID,
		PartsValue: in.PartsValue,
		LaborValue: in.LaborValue,
		Commission: in.Commission,
		Status:     in.Status,
		CreatedAt:  in.CreatedAt,
		UpdatedAt:  now,
	}
	if order.Status == "" {
		order.Status = domain.WorkOrderStatusPending
	}
	if order.Commission.Kind == "" {
		order.Commission.Kind = domain.CommissionFlat
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	idempotencyKey := ""
	if requestKey != "" {
		idempotencyKey = "workorder:" + requestKey
		ok, err := s.cache.SetIdempotency(ctx, idempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, domain.ErrDuplicateRequest
		}
	}

	if err := s.db.CreateWorkOrder(ctx, order); err != nil {
		if idempotencyKey != "" {
			if releaseErr := s.cache.ReleaseIdempotency(ctx, idempotencyKey); releaseErr != nil {
				s.log.Error("release idempotency key failed",
					zap.String("key", idempotencyKey), zap.Error(releaseErr))
			}
		}
		return nil, err
	}

	s.metrics.WorkOrderCreated()
	s.log.Info("work order created", zap.String("id", order.ID), zap.String("plate", order.Plate))
	invalidateDashboard(ctx, s.cache, s.log)
	return &order, nil
}

func (s *WorkOrderService) Get(ctx context.Context, id string) (*domain.WorkOrder, error) {
	return s.db.GetWorkOrder(ctx, id)
}

func (s *WorkOrderService) List(ctx context.Context) ([]domain.WorkOrder, error) {
	return s.db.ListWorkOrders(ctx)
}

func (s *WorkOrderService) UpdateStatus(ctx context.Context, id string, status domain.WorkOrderStatus) (*domain.WorkOrder, error) {
	if status == "" {
		return nil, domain.Invalid("status", "is required")
	}
	if err := s.db.UpdateWorkOrderStatus(ctx, id, status); err != nil {
		return nil, err
	}
	invalidateDashboard(ctx, s.cache, s.log)
	return s.db.GetWorkOrder(ctx, id)
}

func (s *WorkOrderService) UpdateCommission(ctx context.Context, id string, commission domain.CommissionModel) (*domain.WorkOrder, error) {
	if commission.Kind == "" {
		commission.Kind = domain.CommissionFlat
	}
	if err := commission.Validate(); err != nil {
		return nil, err
	}
	if err := s.db.UpdateWorkOrderCommission(ctx, id, commission); err != nil {
		return nil, err
	}
	invalidateDashboard(ctx, s.cache, s.log)
	return s.db.GetWorkOrder(ctx, id)
}

// invalidateDashboard drops cached dashboard snapshots after a write. A
// failure only delays freshness until the snapshot TTL expires.
func invalidateDashboard(ctx context.Context, cache port.CacheRepository, log *zap.Logger) {
	if err := cache.InvalidateSnapshots(ctx); err != nil {
		log.Warn("invalidate dashboard snapshots failed", zap.Error(err))
	}
}
