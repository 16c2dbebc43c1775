// Package ledger derives the shop's financial figures and stock alerts from
// already-fetched records. Every function is pure: inputs are never mutated
// and nothing is read from or written to storage.
package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/garage-ledger/internal/core/domain"
)

// Summary holds the financial totals over a set of work orders at full precision.
type Summary struct {
	GrossRevenue    decimal.Decimal `json:"gross_revenue"`
	PartsCost       decimal.Decimal `json:"parts_cost"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	NetProfit       decimal.Decimal `json:"net_profit"`
	OrderCount      int             `json:"order_count"`
}

// Rounded returns a copy with every amount rounded to cents, for display.
func (s Summary) Rounded() Summary {
	return Summary{
		GrossRevenue:    s.GrossRevenue.Round(2),
		PartsCost:       s.PartsCost.Round(2),
		TotalCommission: s.TotalCommission.Round(2),
		NetProfit:       s.NetProfit.Round(2),
		OrderCount:      s.OrderCount,
	}
}

// Split is the division of one order's total value.
type Split struct {
	Total         decimal.Decimal `json:"total_value"`
	MechanicShare decimal.Decimal `json:"mechanic_share"`
	CompanyShare  decimal.Decimal `json:"company_share"`
}

type Payout struct {
	MechanicID string          `json:"mechanic_id"`
	Orders     int             `json:"orders"`
	Labor      decimal.Decimal `json:"labor_value"`
	Commission decimal.Decimal `json:"commission"`
}

// Summarize computes gross revenue, parts cost, commission and net profit.
// An empty input gives an all-zero summary.
func Summarize(orders []domain.WorkOrder) Summary {
	parts := decimal.Zero
	labor := decimal.Zero
	commission := decimal.Zero
	for _, o := range orders {
		parts = parts.Add(o.PartsValue)
		labor = labor.Add(o.LaborValue)
		commission = commission.Add(o.CommissionAmount())
	}

	gross := parts.Add(labor)
	return Summary{
		GrossRevenue:    gross,
		PartsCost:       parts,
		TotalCommission: commission,
		NetProfit:       gross.Sub(parts).Sub(commission),
		OrderCount:      len(orders),
	}
}

// Earnings splits an order between mechanic and shop. The company share is
// negative when the commission exceeds the order's total value.
func Earnings(order domain.WorkOrder) Split {
	total := order.TotalValue()
	mechanic := order.CommissionAmount()
	return Split{
		Total:         total,
		MechanicShare: mechanic,
		CompanyShare:  total.Sub(mechanic),
	}
}

// CriticalStock returns the items at or below their reorder threshold in
// input order. The result is never nil.
func CriticalStock(items []domain.InventoryItem) []domain.InventoryItem {
	critical := make([]domain.InventoryItem, 0)
	for _, item := range items {
		if item.Critical() {
			critical = append(critical, item)
		}
	}
	return critical
}

// ReorderQuantity is how many units bring a critical item back above its threshold.
func ReorderQuantity(item domain.InventoryItem) int {
	if !item.Critical() {
		return 0
	}
	return item.MinimumQuantity - item.Quantity + 1
}

// StockValue is the purchase value of everything on hand.
func StockValue(items []domain.InventoryItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// InPeriod keeps orders created in [from, to). A zero bound is open.
func InPeriod(orders []domain.WorkOrder, from, to time.Time) []domain.WorkOrder {
	if from.IsZero() && to.IsZero() {
		return orders
	}
	kept := make([]domain.WorkOrder, 0, len(orders))
	for _, o := range orders {
		if !from.IsZero() && o.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !o.CreatedAt.Before(to) {
			continue
		}
		kept = append(kept, o)
	}
	return kept
}

// MechanicPayouts totals commission per mechanic, sorted by mechanic ID.
// Orders without a mechanic are grouped under the empty ID.
func MechanicPayouts(orders []domain.WorkOrder) []Payout {
	byMechanic := make(map[string]*Payout)
	for _, o := range orders {
		p, ok := byMechanic[o.MechanicID]
		if !ok {
			p = &Payout{MechanicID: o.MechanicID, Labor: decimal.Zero, Commission: decimal.Zero}
			byMechanic[o.MechanicID] = p
		}
		p.Orders++
		p.Labor = p.Labor.Add(o.LaborValue)
		p.Commission = p.Commission.Add(o.CommissionAmount())
	}

	payouts := make([]Payout, 0, len(byMechanic))
	for _, p := range byMechanic {
		payouts = append(payouts, *p)
	}
	sort.Slice(payouts, func(i, j int) bool {
		return payouts[i].MechanicID < payouts[j].MechanicID
	})
	return payouts
}

// StatusBreakdown counts orders per status text.
func StatusBreakdown(orders []domain.WorkOrder) map[string]int {
	counts := make(map[string]int)
	for _, o := range orders {
		counts[string(o.Status)]++
	}
	return counts
}
