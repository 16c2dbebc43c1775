package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/rl1809/garage-ledger/internal/core/domain"
)

const mysqlErrDuplicateEntry = 1062

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenMySQL parses dsn and forces the options the adapter relies on: parsed
// time columns in UTC, and found-rows counts so an update that changes
// nothing still reports its match.
func OpenMySQL(ctx context.Context, dsn string, pool PoolOptions) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}

	db := sql.OpenDB(connector)
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

func isDuplicateEntry(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry
}

// expectOneRow turns a zero-row update into domain.ErrNotFound.
func expectOneRow(result sql.Result, what, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %s: %w", what, id, domain.ErrNotFound)
	}
	return nil
}

// Work orders

const workOrderColumns = `id, vehicle, plate, mechanic_id, parts_value, labor_value,
	commission_kind, commission_flat, commission_percent, commission_bonus,
	status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkOrder(row rowScanner) (domain.WorkOrder, error) {
	var (
		o                    domain.WorkOrder
		parts, labor         decimal.NullDecimal
		flat, percent, bonus decimal.NullDecimal
		kind, status         string
	)
	err := row.Scan(&o.ID, &o.Vehicle, &o.Plate, &o.MechanicID, &parts, &labor,
		&kind, &flat, &percent, &bonus, &status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return o, err
	}

	o.PartsValue = domain.NullAmount(parts)
	o.LaborValue = domain.NullAmount(labor)
	o.Commission = domain.CommissionModel{
		Kind:    domain.CommissionKind(kind),
		Flat:    domain.NullAmount(flat),
		Percent: domain.NullAmount(percent),
		Bonus:   domain.NullAmount(bonus),
	}
	o.Status = domain.WorkOrderStatus(status)
	return o, nil
}

func (m *MySQLAdapter) CreateWorkOrder(ctx context.Context, o domain.WorkOrder) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO work_orders (`+workOrderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.Vehicle, o.Plate, o.MechanicID, o.PartsValue, o.LaborValue,
		string(o.Commission.Kind), o.Commission.Flat, o.Commission.Percent, o.Commission.Bonus,
		string(o.Status), o.CreatedAt, o.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return fmt.Errorf("work order %s: %w", o.ID, domain.ErrDuplicateKey)
	}
	if err != nil {
		return fmt.Errorf("insert work order: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetWorkOrder(ctx context.Context, id string) (*domain.WorkOrder, error) {
	row := m.db.QueryRowContext(ctx, `SELECT `+workOrderColumns+` FROM work_orders WHERE id = ?`, id)
	o, err := scanWorkOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("work order %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query work order: %w", err)
	}
	return &o, nil
}

func (m *MySQLAdapter) ListWorkOrders(ctx context.Context) ([]domain.WorkOrder, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT `+workOrderColumns+` FROM work_orders ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query work orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.WorkOrder, 0)
	for rows.Next() {
		o, err := scanWorkOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan work order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (m *MySQLAdapter) UpdateWorkOrderStatus(ctx context.Context, id string, status domain.WorkOrderStatus) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE work_orders SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update work order status: %w", err)
	}
	return expectOneRow(result, "work order", id)
}

func (m *MySQLAdapter) UpdateWorkOrderCommission(ctx context.Context, id string, c domain.CommissionModel) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE work_orders
		SET commission_kind = ?, commission_flat = ?, commission_percent = ?, commission_bonus = ?, updated_at = ?
		WHERE id = ?`,
		string(c.Kind), c.Flat, c.Percent, c.Bonus, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update work order commission: %w", err)
	}
	return expectOneRow(result, "work order", id)
}

// Inventory

const inventoryColumns = `id, name, batch, expires_at, quantity, minimum_quantity, unit_cost, created_at, updated_at`

func scanInventoryItem(row rowScanner) (domain.InventoryItem, error) {
	var (
		item     domain.InventoryItem
		expires  sql.NullTime
		unitCost decimal.NullDecimal
	)
	err := row.Scan(&item.ID, &item.Name, &item.Batch, &expires, &item.Quantity,
		&item.MinimumQuantity, &unitCost, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return item, err
	}
	if expires.Valid {
		t := expires.Time
		item.ExpiresAt = &t
	}
	item.UnitCost = domain.NullAmount(unitCost)
	return item, nil
}

func (m *MySQLAdapter) CreateInventoryItem(ctx context.Context, item domain.InventoryItem) error {
	var expires sql.NullTime
	if item.ExpiresAt != nil {
		expires = sql.NullTime{Time: *item.ExpiresAt, Valid: true}
	}

	_, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory_items (`+inventoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, item.Batch, expires, item.Quantity, item.MinimumQuantity,
		item.UnitCost, item.CreatedAt, item.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return fmt.Errorf("inventory item %s: %w", item.ID, domain.ErrDuplicateKey)
	}
	if err != nil {
		return fmt.Errorf("insert inventory item: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetInventoryItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	row := m.db.QueryRowContext(ctx, `SELECT `+inventoryColumns+` FROM inventory_items WHERE id = ?`, id)
	item, err := scanInventoryItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("inventory item %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory item: %w", err)
	}
	return &item, nil
}

func (m *MySQLAdapter) ListInventoryItems(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT `+inventoryColumns+` FROM inventory_items ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query inventory items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.InventoryItem, 0)
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (m *MySQLAdapter) AdjustInventoryQuantity(ctx context.Context, id string, delta int) (*domain.InventoryItem, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx, `SELECT quantity FROM inventory_items WHERE id = ? FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("inventory item %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock inventory item: %w", err)
	}

	if current+delta < 0 {
		return nil, fmt.Errorf("item %s has %d, adjustment %d: %w", id, current, delta, domain.ErrInsufficientStock)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE inventory_items SET quantity = quantity + ?, updated_at = ? WHERE id = ?`,
		delta, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update inventory item: %w", err)
	}

	item, err := scanInventoryItem(tx.QueryRowContext(ctx, `SELECT `+inventoryColumns+` FROM inventory_items WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("reload inventory item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &item, nil
}

// Users

func (m *MySQLAdapter) CreateUser(ctx context.Context, u domain.User) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, job_title, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.JobTitle, string(u.Role), u.CreatedAt,
	)
	if isDuplicateEntry(err) {
		return fmt.Errorf("user %s: %w", u.Email, domain.ErrDuplicateKey)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, email, job_title, role, created_at FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.JobTitle, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func (m *MySQLAdapter) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT id, name, email, job_title, role, created_at FROM users ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var (
			u    domain.User
			role string
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.JobTitle, &role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Role = domain.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (m *MySQLAdapter) UpdateUserRole(ctx context.Context, id string, role domain.Role) error {
	result, err := m.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, string(role), id)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	return expectOneRow(result, "user", id)
}
