package port

import (
	"context"

	"github.com/rl1809/garage-ledger/internal/core/domain"
)

type WorkOrderRepository interface {
	// CreateWorkOrder persists a new work order; the ID must be unique
	CreateWorkOrder(ctx context.Context, order domain.WorkOrder) error

	// GetWorkOrder returns domain.ErrNotFound when the ID is unknown
	GetWorkOrder(ctx context.Context, id string) (*domain.WorkOrder, error)

	// ListWorkOrders returns every work order, oldest first
	ListWorkOrders(ctx context.Context) ([]domain.WorkOrder, error)

	UpdateWorkOrderStatus(ctx context.Context, id string, status domain.WorkOrderStatus) error

	UpdateWorkOrderCommission(ctx context.Context, id string, commission domain.CommissionModel) error
}

type InventoryRepository interface {
	CreateInventoryItem(ctx context.Context, item domain.InventoryItem) error

	GetInventoryItem(ctx context.Context, id string) (*domain.InventoryItem, error)

	// ListInventoryItems returns every item in insertion order
	ListInventoryItems(ctx context.Context) ([]domain.InventoryItem, error)

	// AdjustInventoryQuantity applies a signed delta and returns the updated item.
	// It fails with domain.ErrInsufficientStock instead of going below zero.
	AdjustInventoryQuantity(ctx context.Context, id string, delta int) (*domain.InventoryItem, error)
}

type UserRepository interface {
	// CreateUser fails with domain.ErrDuplicateKey when the email is taken
	CreateUser(ctx context.Context, user domain.User) error

	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	ListUsers(ctx context.Context) ([]domain.User, error)

	UpdateUserRole(ctx context.Context, id string, role domain.Role) error
}

// DatabaseRepository is the single record store shared by every service.
type DatabaseRepository interface {
	WorkOrderRepository
	InventoryRepository
	UserRepository
}
