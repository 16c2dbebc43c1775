package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InventoryItem struct {
	ID              string
	Name            string
	Batch           string
	ExpiresAt       *time.Time
	Quantity        int
	MinimumQuantity int // reorder threshold
	UnitCost        decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Critical reports whether on-hand stock has fallen to or below the reorder threshold.
func (i InventoryItem) Critical() bool {
	return i.Quantity <= i.MinimumQuantity
}

func (i InventoryItem) Validate() error {
	if i.Name == "" {
		return Invalid("name", "is required")
	}
	if i.Quantity < 0 {
		return Invalid("quantity", "must not be negative")
	}
	if i.MinimumQuantity < 0 {
		return Invalid("minimum_quantity", "must not be negative")
	}
	return CheckAmount("unit_cost", i.UnitCost, MaxAmount)
}

// StockAlert is emitted when an item first crosses into critical stock.
type StockAlert struct {
	ItemID          string    `json:"item_id"`
	Name            string    `json:"name"`
	Quantity        int       `json:"quantity"`
	MinimumQuantity int       `json:"minimum_quantity"`
	Reorder         int       `json:"reorder_quantity"`
	RaisedAt        time.Time `json:"raised_at"`
}
