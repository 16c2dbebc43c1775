package ledger

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/garage-ledger/internal/core/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func flatOrder(parts, labor, commission string) domain.WorkOrder {
	return domain.WorkOrder{
		PartsValue: dec(parts),
		LaborValue: dec(labor),
		Commission: domain.FlatCommission(dec(commission)),
	}
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, got.Equal(dec(want)), "expected %s, got %s", want, got)
}

func TestSummarize_SingleOrder(t *testing.T) {
	s := Summarize([]domain.WorkOrder{flatOrder("100", "200", "50")})

	assertDec(t, "300", s.GrossRevenue)
	assertDec(t, "100", s.PartsCost)
	assertDec(t, "50", s.TotalCommission)
	assertDec(t, "150", s.NetProfit)
	assert.Equal(t, 1, s.OrderCount)
}

func TestSummarize_Empty(t *testing.T) {
	for _, orders := range [][]domain.WorkOrder{nil, {}} {
		s := Summarize(orders)
		assert.True(t, s.GrossRevenue.IsZero())
		assert.True(t, s.PartsCost.IsZero())
		assert.True(t, s.TotalCommission.IsZero())
		assert.True(t, s.NetProfit.IsZero())
		assert.Zero(t, s.OrderCount)
	}
}

func TestSummarize_MixedCommissionModels(t *testing.T) {
	orders := []domain.WorkOrder{
		flatOrder("100", "200", "50"),
		{
			PartsValue: dec("40"),
			LaborValue: dec("300"),
			Commission: domain.PercentPlusBonus(dec("20"), dec("15")),
		},
	}

	s := Summarize(orders)
	assertDec(t, "640", s.GrossRevenue)
	assertDec(t, "140", s.PartsCost)
	assertDec(t, "125", s.TotalCommission) // 50 + (300*20% + 15)
	assertDec(t, "375", s.NetProfit)
}

func TestSummarize_OrderIndependentAndConsistent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	orders := make([]domain.WorkOrder, 50)
	partsSum, laborSum := decimal.Zero, decimal.Zero
	for i := range orders {
		parts := decimal.New(rng.Int63n(100000), -2)
		labor := decimal.New(rng.Int63n(100000), -2)
		partsSum = partsSum.Add(parts)
		laborSum = laborSum.Add(labor)
		orders[i] = domain.WorkOrder{
			PartsValue: parts,
			LaborValue: labor,
			Commission: domain.PercentPlusBonus(decimal.New(rng.Int63n(5000), -2), decimal.New(rng.Int63n(1000), -1)),
		}
	}

	s := Summarize(orders)
	assert.True(t, s.GrossRevenue.Equal(partsSum.Add(laborSum)))
	assert.True(t, s.NetProfit.Equal(s.GrossRevenue.Sub(s.PartsCost).Sub(s.TotalCommission)))

	shuffled := append([]domain.WorkOrder(nil), orders...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	again := Summarize(shuffled)
	assert.True(t, again.GrossRevenue.Equal(s.GrossRevenue))
	assert.True(t, again.TotalCommission.Equal(s.TotalCommission))
	assert.True(t, again.NetProfit.Equal(s.NetProfit))
}

func TestSummarize_KeepsPrecision(t *testing.T) {
	orders := []domain.WorkOrder{
		flatOrder("0.005", "0", "0"),
		flatOrder("0.005", "0", "0"),
	}
	s := Summarize(orders)
	assertDec(t, "0.01", s.PartsCost)
	assertDec(t, "0.01", s.Rounded().PartsCost)

	rounded := Summarize([]domain.WorkOrder{flatOrder("10.126", "0", "0")}).Rounded()
	assertDec(t, "10.13", rounded.GrossRevenue)
}

func TestCriticalStock(t *testing.T) {
	items := []domain.InventoryItem{
		{ID: "a", Quantity: 2, MinimumQuantity: 5},
		{ID: "b", Quantity: 10, MinimumQuantity: 5},
	}

	critical := CriticalStock(items)
	require.Len(t, critical, 1)
	assert.Equal(t, "a", critical[0].ID)
}

func TestCriticalStock_BoundaryAndOrder(t *testing.T) {
	items := []domain.InventoryItem{
		{ID: "c", Quantity: 5, MinimumQuantity: 5},
		{ID: "d", Quantity: 6, MinimumQuantity: 5},
		{ID: "e", Quantity: 0, MinimumQuantity: 0},
		{ID: "f", Quantity: 1, MinimumQuantity: 3},
	}

	critical := CriticalStock(items)
	ids := make([]string, 0, len(critical))
	for _, item := range critical {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"c", "e", "f"}, ids)

	assert.Equal(t, critical, CriticalStock(items))
	assert.Equal(t, critical, CriticalStock(critical))
}

func TestCriticalStock_EmptyIsNotNil(t *testing.T) {
	assert.NotNil(t, CriticalStock(nil))
	assert.Empty(t, CriticalStock(nil))
	assert.Empty(t, CriticalStock([]domain.InventoryItem{{Quantity: 9, MinimumQuantity: 1}}))
}

func TestCriticalStock_DoesNotMutateInput(t *testing.T) {
	items := []domain.InventoryItem{{ID: "x", Quantity: 1, MinimumQuantity: 2}}
	critical := CriticalStock(items)
	critical[0].Quantity = 99
	assert.Equal(t, 1, items[0].Quantity)
}

func TestEarnings_Flat(t *testing.T) {
	split := Earnings(flatOrder("100", "200", "50"))
	assertDec(t, "300", split.Total)
	assertDec(t, "50", split.MechanicShare)
	assertDec(t, "250", split.CompanyShare)
}

func TestEarnings_PercentPlusBonus(t *testing.T) {
	order := domain.WorkOrder{
		PartsValue: dec("80"),
		LaborValue: dec("250"),
		Commission: domain.PercentPlusBonus(dec("40"), dec("5")),
	}
	split := Earnings(order)
	assertDec(t, "105", split.MechanicShare)
	assertDec(t, "225", split.CompanyShare)
}

func TestEarnings_NegativeCompanyShare(t *testing.T) {
	split := Earnings(flatOrder("40", "60", "150"))
	assertDec(t, "100", split.Total)
	assertDec(t, "-50", split.CompanyShare)
}

func TestReorderQuantity(t *testing.T) {
	assert.Equal(t, 4, ReorderQuantity(domain.InventoryItem{Quantity: 2, MinimumQuantity: 5}))
	assert.Equal(t, 1, ReorderQuantity(domain.InventoryItem{Quantity: 5, MinimumQuantity: 5}))
	assert.Equal(t, 0, ReorderQuantity(domain.InventoryItem{Quantity: 6, MinimumQuantity: 5}))
}

func TestStockValue(t *testing.T) {
	items := []domain.InventoryItem{
		{Quantity: 3, UnitCost: dec("12.50")},
		{Quantity: 0, UnitCost: dec("99")},
		{Quantity: 2, UnitCost: dec("0.25")},
	}
	assertDec(t, "38", StockValue(items))
	assert.True(t, StockValue(nil).IsZero())
}

func TestInPeriod(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 3, d, 12, 0, 0, 0, time.UTC) }
	orders := []domain.WorkOrder{
		{ID: "1", CreatedAt: day(1)},
		{ID: "2", CreatedAt: day(10)},
		{ID: "3", CreatedAt: day(20)},
	}

	ids := func(os []domain.WorkOrder) []string {
		out := []string{}
		for _, o := range os {
			out = append(out, o.ID)
		}
		return out
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(InPeriod(orders, time.Time{}, time.Time{})))
	assert.Equal(t, []string{"2", "3"}, ids(InPeriod(orders, day(10), time.Time{})))
	assert.Equal(t, []string{"1"}, ids(InPeriod(orders, time.Time{}, day(10))))
	assert.Equal(t, []string{"2"}, ids(InPeriod(orders, day(2), day(20))))
}

func TestMechanicPayouts(t *testing.T) {
	orders := []domain.WorkOrder{
		{MechanicID: "zeca", LaborValue: dec("100"), Commission: domain.FlatCommission(dec("30"))},
		{MechanicID: "ana", LaborValue: dec("200"), Commission: domain.PercentPlusBonus(dec("10"), dec("5"))},
		{MechanicID: "zeca", LaborValue: dec("50"), Commission: domain.FlatCommission(dec("10"))},
	}

	payouts := MechanicPayouts(orders)
	require.Len(t, payouts, 2)

	assert.Equal(t, "ana", payouts[0].MechanicID)
	assert.Equal(t, 1, payouts[0].Orders)
	assertDec(t, "25", payouts[0].Commission)

	assert.Equal(t, "zeca", payouts[1].MechanicID)
	assert.Equal(t, 2, payouts[1].Orders)
	assertDec(t, "150", payouts[1].Labor)
	assertDec(t, "40", payouts[1].Commission)

	assert.Empty(t, MechanicPayouts(nil))
}

func TestStatusBreakdown(t *testing.T) {
	orders := []domain.WorkOrder{
		{Status: domain.WorkOrderStatusPending},
		{Status: domain.WorkOrderStatusDone},
		{Status: domain.WorkOrderStatusPending},
		{Status: "Waiting parts"},
	}
	assert.Equal(t, map[string]int{"Pending": 2, "Done": 1, "Waiting parts": 1}, StatusBreakdown(orders))
}
