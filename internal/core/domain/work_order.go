package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkOrderStatus is free text in practice; these are the values the shop uses.
type WorkOrderStatus string

const (
	WorkOrderStatusPending    WorkOrderStatus = "Pending"
	WorkOrderStatusInProgress WorkOrderStatus = "InProgress"
	WorkOrderStatusDone       WorkOrderStatus = "Done"
)

// CommissionKind selects how the mechanic's payout is derived for one order.
type CommissionKind string

const (
	CommissionFlat             CommissionKind = "flat"
	CommissionPercentPlusBonus CommissionKind = "percent_plus_bonus"
)

var hundred = decimal.NewFromInt(100)

// CommissionModel is a tagged variant: Flat is used by CommissionFlat,
// Percent and Bonus by CommissionPercentPlusBonus. Percent is in percentage
// points (30 means 30% of labor).
type CommissionModel struct {
	Kind    CommissionKind
	Flat    decimal.Decimal
	Percent decimal.Decimal
	Bonus   decimal.Decimal
}

func FlatCommission(amount decimal.Decimal) CommissionModel {
	return CommissionModel{Kind: CommissionFlat, Flat: amount}
}

func PercentPlusBonus(percent, bonus decimal.Decimal) CommissionModel {
	return CommissionModel{Kind: CommissionPercentPlusBonus, Percent: percent, Bonus: bonus}
}

// Amount resolves the commission against the order's labor value. An empty
// kind is treated as flat.
func (c CommissionModel) Amount(laborValue decimal.Decimal) decimal.Decimal {
	if c.Kind == CommissionPercentPlusBonus {
		return laborValue.Mul(c.Percent).Div(hundred).Add(c.Bonus)
	}
	return c.Flat
}

func (c CommissionModel) Validate() error {
	switch c.Kind {
	case "", CommissionFlat:
		return CheckAmount("commission.flat", c.Flat, MaxAmount)
	case CommissionPercentPlusBonus:
		if err := CheckAmount("commission.percent", c.Percent, MaxPercent); err != nil {
			return err
		}
		return CheckAmount("commission.bonus", c.Bonus, MaxAmount)
	default:
		return Invalid("commission.kind", "unknown commission kind "+string(c.Kind))
	}
}

type WorkOrder struct {
	ID         string
	Vehicle    string
	Plate      string
	MechanicID string
	PartsValue decimal.Decimal
	LaborValue decimal.Decimal
	Commission CommissionModel
	Status     WorkOrderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (o WorkOrder) TotalValue() decimal.Decimal {
	return o.PartsValue.Add(o.LaborValue)
}

func (o WorkOrder) CommissionAmount() decimal.Decimal {
	return o.Commission.Amount(o.LaborValue)
}

func (o WorkOrder) Validate() error {
	if err := CheckAmount("parts_value", o.PartsValue, MaxAmount); err != nil {
		return err
	}
	if err := CheckAmount("labor_value", o.LaborValue, MaxAmount); err != nil {
		return err
	}
	return o.Commission.Validate()
}
