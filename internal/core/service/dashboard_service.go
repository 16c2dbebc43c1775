package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/garage-ledger/internal/core/domain"
	"github.com/rl1809/garage-ledger/internal/core/ledger"
	"github.com/rl1809/garage-ledger/internal/metrics"
	"github.com/rl1809/garage-ledger/internal/port"
)

const (
	summarySnapshot  = "summary"
	criticalSnapshot = "critical"
)

type FinancialReport struct {
	Summary     ledger.Summary `json:"summary"`
	Statuses    map[string]int `json:"statuses"`
	Period      Period         `json:"period"`
	GeneratedAt time.Time      `json:"generated_at"`
}

type StockReport struct {
	Items       []domain.InventoryItem `json:"items"`
	StockValue  decimal.Decimal        `json:"stock_value"`
	GeneratedAt time.Time              `json:"generated_at"`
}

type DashboardService struct {
	orders       port.WorkOrderRepository
	items        port.InventoryRepository
	cache        port.CacheRepository
	financeRoles []domain.Role
	cacheTTL     time.Duration
	log          *zap.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewDashboardService(
	orders port.WorkOrderRepository,
	items port.InventoryRepository,
	cache port.CacheRepository,
	financeRoles []domain.Role,
	cacheTTL time.Duration,
	log *zap.Logger,
	m *metrics.Metrics,
) *DashboardService {
	return &DashboardService{
		orders:       orders,
		items:        items,
		cache:        cache,
		financeRoles: financeRoles,
		cacheTTL:     cacheTTL,
		log:          log,
		metrics:      m,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *DashboardService) CanViewFinancials(caller domain.Session) bool {
	return domain.HasRole(caller, s.financeRoles...)
}

// Summary reports revenue, parts cost, commission and net profit. Only
// finance roles may read it. The unbounded report is served from cache.
func (s *DashboardService) Summary(ctx context.Context, caller domain.Session, period Period) (*FinancialReport, error) {
	if !s.CanViewFinancials(caller) {
		return nil, domain.ErrForbidden
	}

	var gen int64
	cacheable := false
	if period.Open() {
		var cached FinancialReport
		if s.loadSnapshot(ctx, summarySnapshot, &cached) {
			return &cached, nil
		}
		gen, cacheable = s.snapshotGeneration(ctx)
	}

	orders, err := s.orders.ListWorkOrders(ctx)
	if err != nil {
		return nil, err
	}
	orders = ledger.InPeriod(orders, period.From, period.To)

	report := &FinancialReport{
		Summary:     ledger.Summarize(orders),
		Statuses:    ledger.StatusBreakdown(orders),
		Period:      period,
		GeneratedAt: s.now(),
	}
	if cacheable {
		s.storeSnapshot(ctx, summarySnapshot, report, gen)
	}
	return report, nil
}

// Payouts totals commission per mechanic. Only finance roles may read it.
func (s *DashboardService) Payouts(ctx context.Context, caller domain.Session, period Period) ([]ledger.Payout, error) {
	if !s.CanViewFinancials(caller) {
		return nil, domain.ErrForbidden
	}

	orders, err := s.orders.ListWorkOrders(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.MechanicPayouts(ledger.InPeriod(orders, period.From, period.To)), nil
}

// OrderEarnings splits one order. Finance roles see any order; a mechanic
// sees the orders assigned to them.
func (s *DashboardService) OrderEarnings(ctx context.Context, caller domain.Session, id string) (*ledger.Split, error) {
	order, err := s.orders.GetWorkOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.CanViewFinancials(caller) && !(caller.Role == domain.RoleMechanic && order.MechanicID == caller.UserID) {
		return nil, domain.ErrForbidden
	}

	split := ledger.Earnings(*order)
	return &split, nil
}

// CriticalStock lists items at or below their reorder threshold. Any
// authenticated role may read it.
func (s *DashboardService) CriticalStock(ctx context.Context) (*StockReport, error) {
	var cached StockReport
	if s.loadSnapshot(ctx, criticalSnapshot, &cached) {
		return &cached, nil
	}
	gen, cacheable := s.snapshotGeneration(ctx)

	items, err := s.items.ListInventoryItems(ctx)
	if err != nil {
		return nil, err
	}

	critical := ledger.CriticalStock(items)
	s.metrics.SetCriticalItems(len(critical))

	report := &StockReport{
		Items:       critical,
		StockValue:  ledger.StockValue(items),
		GeneratedAt: s.now(),
	}
	if cacheable {
		s.storeSnapshot(ctx, criticalSnapshot, report, gen)
	}
	return report, nil
}

// loadSnapshot fills dst from cache. Cache errors count as misses.
func (s *DashboardService) loadSnapshot(ctx context.Context, name string, dst any) bool {
	if s.cacheTTL <= 0 {
		return false
	}

	payload, ok, err := s.cache.GetSnapshot(ctx, name)
	if err != nil {
		s.log.Warn("read dashboard snapshot failed", zap.String("snapshot", name), zap.Error(err))
		ok = false
	}
	if ok {
		if err := json.Unmarshal(payload, dst); err != nil {
			s.log.Warn("decode dashboard snapshot failed", zap.String("snapshot", name), zap.Error(err))
			ok = false
		}
	}
	s.metrics.SnapshotLookup(name, ok)
	return ok
}

// snapshotGeneration reads the invalidation counter before a report is
// built. ok is false when caching is off or the counter cannot be read.
func (s *DashboardService) snapshotGeneration(ctx context.Context) (int64, bool) {
	if s.cacheTTL <= 0 {
		return 0, false
	}

	gen, err := s.cache.SnapshotGeneration(ctx)
	if err != nil {
		s.log.Warn("read snapshot generation failed", zap.Error(err))
		return 0, false
	}
	return gen, true
}

// storeSnapshot caches v unless an invalidation landed after gen was read.
func (s *DashboardService) storeSnapshot(ctx context.Context, name string, v any, gen int64) {

	payload, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("encode dashboard snapshot failed", zap.String("snapshot", name), zap.Error(err))
		return
	}
	stored, err := s.cache.SetSnapshot(ctx, name, payload, s.cacheTTL, gen)
	if err != nil {
		s.log.Warn("write dashboard snapshot failed", zap.String("snapshot", name), zap.Error(err))
		return
	}
	if !stored {
		s.log.Debug("dashboard snapshot outdated by a write, not cached", zap.String("snapshot", name))
	}
}
