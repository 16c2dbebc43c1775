package handler

import (
	"bytes"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/garage-ledger/internal/core/domain"
	"github.com/rl1809/garage-ledger/internal/core/ledger"
	"github.com/rl1809/garage-ledger/internal/core/service"
)

const dateLayout = time.DateOnly

// amount accepts a JSON number or string. Missing, null or malformed values
// decode to zero instead of failing the request.
type amount decimal.Decimal

func (a *amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = amount(decimal.Zero)
		return nil
	}
	*a = amount(domain.ParseAmount(strings.Trim(string(b), `"`)))
	return nil
}

func (a amount) Decimal() decimal.Decimal {
	return decimal.Decimal(a)
}

type commissionRequest struct {
	Kind    string `json:"kind"`
	Flat    amount `json:"flat"`
	Percent amount `json:"percent"`
	Bonus   amount `json:"bonus"`
}

func (r commissionRequest) model() domain.CommissionModel {
	return domain.CommissionModel{
		Kind:    domain.CommissionKind(r.Kind),
		Flat:    r.Flat.Decimal(),
		Percent: r.Percent.Decimal(),
		Bonus:   r.Bonus.Decimal(),
	}
}

type createWorkOrderRequest struct {
	Vehicle    string            `json:"vehicle"`
	Plate      string            `json:"plate" binding:"required"`
	MechanicID string            `json:"mechanic_id"`
	PartsValue amount            `json:"parts_value"`
	LaborValue amount            `json:"labor_value"`
	Commission commissionRequest `json:"commission"`
	Status     string            `json:"status"`
	Date       string            `json:"date"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type createItemRequest struct {
	Name            string `json:"name" binding:"required"`
	Batch           string `json:"batch"`
	ExpiresAt       string `json:"expires_at"`
	Quantity        int    `json:"quantity" binding:"min=0"`
	MinimumQuantity int    `json:"minimum_quantity" binding:"min=0"`
	UnitCost        amount `json:"unit_cost"`
}

type adjustRequest struct {
	Delta int `json:"delta" binding:"required"`
}

type createUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	JobTitle string `json:"job_title"`
	Role     string `json:"role" binding:"required"`
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type commissionResponse struct {
	Kind    string `json:"kind"`
	Flat    string `json:"flat"`
	Percent string `json:"percent"`
	Bonus   string `json:"bonus"`
}

type workOrderResponse struct {
	ID         string             `json:"id"`
	Vehicle    string             `json:"vehicle"`
	Plate      string             `json:"plate"`
	MechanicID string             `json:"mechanic_id"`
	PartsValue string             `json:"parts_value"`
	LaborValue string             `json:"labor_value"`
	TotalValue string             `json:"total_value"`
	Commission commissionResponse `json:"commission"`
	Status     string             `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func newWorkOrderResponse(o domain.WorkOrder) workOrderResponse {
	return workOrderResponse{
		ID:         o.ID,
		Vehicle:    o.Vehicle,
		Plate:      o.Plate,
		MechanicID: o.MechanicID,
		PartsValue: o.PartsValue.String(),
		LaborValue: o.LaborValue.String(),
		TotalValue: o.TotalValue().String(),
		Commission: commissionResponse{
			Kind:    string(o.Commission.Kind),
			Flat:    o.Commission.Flat.String(),
			Percent: o.Commission.Percent.String(),
			Bonus:   o.Commission.Bonus.String(),
		},
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

type itemResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Batch           string     `json:"batch,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	Quantity        int        `json:"quantity"`
	MinimumQuantity int        `json:"minimum_quantity"`
	UnitCost        string     `json:"unit_cost"`
	Critical        bool       `json:"critical"`
	ReorderQuantity int        `json:"reorder_quantity"`
}

func newItemResponse(item domain.InventoryItem) itemResponse {
	return itemResponse{
		ID:              item.ID,
		Name:            item.Name,
		Batch:           item.Batch,
		ExpiresAt:       item.ExpiresAt,
		Quantity:        item.Quantity,
		MinimumQuantity: item.MinimumQuantity,
		UnitCost:        item.UnitCost.String(),
		Critical:        item.Critical(),
		ReorderQuantity: ledger.ReorderQuantity(item),
	}
}

func newItemResponses(items []domain.InventoryItem) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, newItemResponse(item))
	}
	return out
}

type moneyFigures struct {
	GrossRevenue    string `json:"gross_revenue"`
	PartsCost       string `json:"parts_cost"`
	TotalCommission string `json:"total_commission"`
	NetProfit       string `json:"net_profit"`
}

type summaryResponse struct {
	moneyFigures
	OrderCount  int            `json:"order_count"`
	Display     moneyFigures   `json:"display"`
	Statuses    map[string]int `json:"statuses"`
	From        string         `json:"from,omitempty"`
	To          string         `json:"to,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
}

func displayFigures(rounded ledger.Summary) moneyFigures {
	return moneyFigures{
		GrossRevenue:    domain.Display(rounded.GrossRevenue),
		PartsCost:       domain.Display(rounded.PartsCost),
		TotalCommission: domain.Display(rounded.TotalCommission),
		NetProfit:       domain.Display(rounded.NetProfit),
	}
}

func newSummaryResponse(r *service.FinancialReport) summaryResponse {
	s := r.Summary
	resp := summaryResponse{
		moneyFigures: moneyFigures{
			GrossRevenue:    s.GrossRevenue.String(),
			PartsCost:       s.PartsCost.String(),
			TotalCommission: s.TotalCommission.String(),
			NetProfit:       s.NetProfit.String(),
		},
		OrderCount:  s.OrderCount,
		Display:     displayFigures(s.Rounded()),
		Statuses:    r.Statuses,
		GeneratedAt: r.GeneratedAt,
	}
	if !r.Period.From.IsZero() {
		resp.From = r.Period.From.Format(dateLayout)
	}
	if last := r.Period.LastDay(); !last.IsZero() {
		resp.To = last.Format(dateLayout)
	}
	return resp
}

type criticalStockResponse struct {
	Items       []itemResponse `json:"items"`
	StockValue  string         `json:"stock_value"`
	GeneratedAt time.Time      `json:"generated_at"`
}

type earningsResponse struct {
	TotalValue    string `json:"total_value"`
	MechanicShare string `json:"mechanic_share"`
	CompanyShare  string `json:"company_share"`
}

func newEarningsResponse(s ledger.Split) earningsResponse {
	return earningsResponse{
		TotalValue:    s.Total.String(),
		MechanicShare: s.MechanicShare.String(),
		CompanyShare:  s.CompanyShare.String(),
	}
}

type payoutResponse struct {
	MechanicID string `json:"mechanic_id"`
	Orders     int    `json:"orders"`
	LaborValue string `json:"labor_value"`
	Commission string `json:"commission"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	JobTitle  string    `json:"job_title"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		JobTitle:  u.JobTitle,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
