package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rl1809/garage-ledger/internal/core/domain"
)

var errBackend = errors.New("backend down")

// Mock CacheRepository
type mockCacheRepo struct {
	mu             sync.Mutex
	idempotencySet map[string]bool
	snapshots      map[string][]byte
	critical       map[string]bool
	invalidations  int
	generation     int64
	failSnapshots  bool
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{
		idempotencySet: make(map[string]bool),
		snapshots:      make(map[string][]byte),
		critical:       make(map[string]bool),
	}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.idempotencySet, key)
	return nil
}

func (m *mockCacheRepo) GetSnapshot(ctx context.Context, name string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSnapshots {
		return nil, false, errBackend
	}
	payload, ok := m.snapshots[name]
	return payload, ok, nil
}

func (m *mockCacheRepo) SnapshotGeneration(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSnapshots {
		return 0, errBackend
	}
	return m.generation, nil
}

func (m *mockCacheRepo) SetSnapshot(ctx context.Context, name string, payload []byte, ttl time.Duration, generation int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSnapshots {
		return false, errBackend
	}
	if generation != m.generation {
		return false, nil
	}
	m.snapshots[name] = payload
	return true, nil
}

func (m *mockCacheRepo) InvalidateSnapshots(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidations++
	m.generation++
	m.snapshots = make(map[string][]byte)
	return nil
}

func (m *mockCacheRepo) hasSnapshot(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.snapshots[name]
	return ok
}

// The critical set calls fail on a done context, as go-redis does.
func (m *mockCacheRepo) MarkCritical(ctx context.Context, itemID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.critical[itemID] {
		return false, nil
	}
	m.critical[itemID] = true
	return true, nil
}

func (m *mockCacheRepo) ClearCritical(ctx context.Context, itemID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.critical, itemID)
	return nil
}

func (m *mockCacheRepo) isCritical(itemID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.critical[itemID]
}

// Mock DatabaseRepository, in memory
type mockStore struct {
	mu        sync.Mutex
	orders    []domain.WorkOrder
	items     []domain.InventoryItem
	users     []domain.User
	failWrite bool
	listCalls int
	onList    func()
}

func newMockStore() *mockStore {
	return &mockStore{}
}

func (m *mockStore) CreateWorkOrder(ctx context.Context, order domain.WorkOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return errBackend
	}
	for _, o := range m.orders {
		if o.ID == order.ID {
			return domain.ErrDuplicateKey
		}
	}
	m.orders = append(m.orders, order)
	return nil
}

func (m *mockStore) GetWorkOrder(ctx context.Context, id string) (*domain.WorkOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			found := o
			return &found, nil
		}
	}
	return nil, fmt.Errorf("work order %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) ListWorkOrders(ctx context.Context) ([]domain.WorkOrder, error) {
	m.mu.Lock()
	m.listCalls++
	orders := append([]domain.WorkOrder{}, m.orders...)
	hook := m.onList
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return orders, nil
}

func (m *mockStore) UpdateWorkOrderStatus(ctx context.Context, id string, status domain.WorkOrderStatus) error {
	return m.updateOrder(id, func(o *domain.WorkOrder) { o.Status = status })
}

func (m *mockStore) UpdateWorkOrderCommission(ctx context.Context, id string, c domain.CommissionModel) error {
	return m.updateOrder(id, func(o *domain.WorkOrder) { o.Commission = c })
}

func (m *mockStore) updateOrder(id string, apply func(*domain.WorkOrder)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID == id {
			apply(&m.orders[i])
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) CreateInventoryItem(ctx context.Context, item domain.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return errBackend
	}
	m.items = append(m.items, item)
	return nil
}

func (m *mockStore) GetInventoryItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListInventoryItems(ctx context.Context) ([]domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	return append([]domain.InventoryItem{}, m.items...), nil
}

func (m *mockStore) AdjustInventoryQuantity(ctx context.Context, id string, delta int) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID != id {
			continue
		}
		if m.items[i].Quantity+delta < 0 {
			return nil, domain.ErrInsufficientStock
		}
		m.items[i].Quantity += delta
		found := m.items[i]
		return &found, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) CreateUser(ctx context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, domain.ErrDuplicateKey)
		}
	}
	m.users = append(m.users, user)
	return nil
}

func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.User{}, m.users...), nil
}

func (m *mockStore) UpdateUserRole(ctx context.Context, id string, role domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			m.users[i].Role = role
			return nil
		}
	}
	return domain.ErrNotFound
}

// Mock AlertQueue that records alerts synchronously
type recordingQueue struct {
	mu     sync.Mutex
	alerts []domain.StockAlert
	err    error
}

func (q *recordingQueue) Enqueue(ctx context.Context, alert domain.StockAlert) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.alerts = append(q.alerts, alert)
	return nil
}

func (q *recordingQueue) recorded() []domain.StockAlert {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]domain.StockAlert{}, q.alerts...)
}

// Mock AlertPublisher
type mockPublisher struct {
	mu        sync.Mutex
	published []domain.StockAlert
	fail      bool
	stall     bool
}

func (p *mockPublisher) PublishStockAlert(ctx context.Context, alert domain.StockAlert) error {
	if p.stall {
		<-ctx.Done()
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errBackend
	}
	p.published = append(p.published, alert)
	return nil
}

func (p *mockPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}
