package storage

import (
	"context"
	"fmt"
)

// schema is applied one statement at a time; the driver runs without multiStatements.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         CHAR(36)     NOT NULL PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		email      VARCHAR(255) NOT NULL,
		job_title  VARCHAR(255) NOT NULL DEFAULT '',
		role       VARCHAR(32)  NOT NULL,
		created_at DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		UNIQUE KEY uq_users_email (email)
	)`,
	`CREATE TABLE IF NOT EXISTS work_orders (
		id                 CHAR(36)      NOT NULL PRIMARY KEY,
		vehicle            VARCHAR(255)  NOT NULL DEFAULT '',
		plate              VARCHAR(32)   NOT NULL DEFAULT '',
		mechanic_id        VARCHAR(64)   NOT NULL DEFAULT '',
		parts_value        DECIMAL(14,4) NULL DEFAULT 0,
		labor_value        DECIMAL(14,4) NULL DEFAULT 0,
		commission_kind    VARCHAR(32)   NOT NULL DEFAULT 'flat',
		commission_flat    DECIMAL(14,4) NULL DEFAULT 0,
		commission_percent DECIMAL(7,4)  NULL DEFAULT 0,
		commission_bonus   DECIMAL(14,4) NULL DEFAULT 0,
		status             VARCHAR(64)   NOT NULL DEFAULT 'Pending',
		created_at         DATETIME(6)   NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at         DATETIME(6)   NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		KEY idx_work_orders_created_at (created_at),
		KEY idx_work_orders_mechanic (mechanic_id)
	)`,
	`CREATE TABLE IF NOT EXISTS inventory_items (
		id               CHAR(36)      NOT NULL PRIMARY KEY,
		name             VARCHAR(255)  NOT NULL,
		batch            VARCHAR(64)   NOT NULL DEFAULT '',
		expires_at       DATE          NULL,
		quantity         INT           NOT NULL DEFAULT 0,
		minimum_quantity INT           NOT NULL DEFAULT 0,
		unit_cost        DECIMAL(14,4) NULL DEFAULT 0,
		created_at       DATETIME(6)   NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at       DATETIME(6)   NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		KEY idx_inventory_items_created_at (created_at),
		CONSTRAINT chk_inventory_quantity CHECK (quantity >= 0)
	)`,
}

// Migrate creates any missing tables. It is safe to run on every start.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
