// Package porttest provides in-memory implementations of the ports for tests
// of the transport and command layers.
package porttest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rl1809/garage-ledger/internal/core/domain"
	"github.com/rl1809/garage-ledger/internal/port"
)

var (
	_ port.DatabaseRepository = (*Store)(nil)
	_ port.CacheRepository    = (*Cache)(nil)
)

type Store struct {
	mu     sync.Mutex
	orders []domain.WorkOrder
	items  []domain.InventoryItem
	users  []domain.User
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) CreateWorkOrder(ctx context.Context, order domain.WorkOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == order.ID {
			return fmt.Errorf("work order %s: %w", order.ID, domain.ErrDuplicateKey)
		}
	}
	s.orders = append(s.orders, order)
	return nil
}

func (s *Store) GetWorkOrder(ctx context.Context, id string) (*domain.WorkOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			found := o
			return &found, nil
		}
	}
	return nil, fmt.Errorf("work order %s: %w", id, domain.ErrNotFound)
}

func (s *Store) ListWorkOrders(ctx context.Context) ([]domain.WorkOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.WorkOrder{}, s.orders...), nil
}

func (s *Store) UpdateWorkOrderStatus(ctx context.Context, id string, status domain.WorkOrderStatus) error {
	return s.updateOrder(id, func(o *domain.WorkOrder) { o.Status = status })
}

func (s *Store) UpdateWorkOrderCommission(ctx context.Context, id string, c domain.CommissionModel) error {
	return s.updateOrder(id, func(o *domain.WorkOrder) { o.Commission = c })
}

func (s *Store) updateOrder(id string, apply func(*domain.WorkOrder)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			apply(&s.orders[i])
			s.orders[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("work order %s: %w", id, domain.ErrNotFound)
}

func (s *Store) CreateInventoryItem(ctx context.Context, item domain.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
	return nil
}

func (s *Store) GetInventoryItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, fmt.Errorf("inventory item %s: %w", id, domain.ErrNotFound)
}

func (s *Store) ListInventoryItems(ctx context.Context) ([]domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.InventoryItem{}, s.items...), nil
}

func (s *Store) AdjustInventoryQuantity(ctx context.Context, id string, delta int) (*domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		if s.items[i].Quantity+delta < 0 {
			return nil, fmt.Errorf("item %s: %w", id, domain.ErrInsufficientStock)
		}
		s.items[i].Quantity += delta
		found := s.items[i]
		return &found, nil
	}
	return nil, fmt.Errorf("inventory item %s: %w", id, domain.ErrNotFound)
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, domain.ErrDuplicateKey)
		}
	}
	s.users = append(s.users, user)
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.User{}, s.users...), nil
}

func (s *Store) UpdateUserRole(ctx context.Context, id string, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i].Role = role
			return nil
		}
	}
	return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
}

// Cache keeps idempotency keys, snapshots and critical marks in maps. TTLs are ignored.
type Cache struct {
	mu         sync.Mutex
	keys       map[string]bool
	snapshots  map[string][]byte
	generation int64
	critical   map[string]bool
}

func NewCache() *Cache {
	return &Cache{
		keys:      make(map[string]bool),
		snapshots: make(map[string][]byte),
		critical:  make(map[string]bool),
	}
}

func (c *Cache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys[key] {
		return false, nil
	}
	c.keys[key] = true
	return true, nil
}

func (c *Cache) ReleaseIdempotency(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, key)
	return nil
}

func (c *Cache) GetSnapshot(ctx context.Context, name string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.snapshots[name]
	return payload, ok, nil
}

func (c *Cache) SnapshotGeneration(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, nil
}

func (c *Cache) SetSnapshot(ctx context.Context, name string, payload []byte, ttl time.Duration, generation int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return false, nil
	}
	c.snapshots[name] = payload
	return true, nil
}

func (c *Cache) InvalidateSnapshots(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.snapshots = make(map[string][]byte)
	return nil
}

func (c *Cache) MarkCritical(ctx context.Context, itemID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.critical[itemID] {
		return false, nil
	}
	c.critical[itemID] = true
	return true, nil
}

func (c *Cache) ClearCritical(ctx context.Context, itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.critical, itemID)
	return nil
}

// Alerts collects queued stock alerts.
type Alerts struct {
	mu     sync.Mutex
	queued []domain.StockAlert
}

func (a *Alerts) Enqueue(ctx context.Context, alert domain.StockAlert) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queued = append(a.queued, alert)
	return nil
}

func (a *Alerts) Queued() []domain.StockAlert {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.StockAlert{}, a.queued...)
}
