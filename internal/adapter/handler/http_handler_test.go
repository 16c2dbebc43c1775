package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/garage-ledger/internal/core/domain"
	"github.com/rl1809/garage-ledger/internal/core/ledger"
	"github.com/rl1809/garage-ledger/internal/core/service"
	"github.com/rl1809/garage-ledger/internal/metrics"
	"github.com/rl1809/garage-ledger/internal/port/porttest"
)

const (
	ownerEmail    = "owner@shop.test"
	mechanicEmail = "mech@shop.test"
)

type fixture struct {
	store     *porttest.Store
	alerts    *porttest.Alerts
	users     *service.UserService
	dashboard *service.DashboardService
	router    *gin.Engine
	mechanic  *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := porttest.NewStore()
	cache := porttest.NewCache()
	alerts := &porttest.Alerts{}
	log := zap.NewNop()
	m := metrics.New("garage_test")

	users := service.NewUserService(store, log)
	dashboard := service.NewDashboardService(store, store, cache,
		[]domain.Role{domain.RoleOwner, domain.RoleManager}, time.Minute, log, m)
	h := NewHTTPHandler(
		service.NewWorkOrderService(store, cache, log, m),
		service.NewInventoryService(store, cache, alerts, log, m),
		users,
		dashboard,
		log,
		m,
	)

	ctx := context.Background()
	_, err := users.Register(ctx, service.UserInput{Name: "Owner", Email: ownerEmail, Role: domain.RoleOwner})
	require.NoError(t, err)
	mech, err := users.Register(ctx, service.UserInput{Name: "Mech", Email: mechanicEmail, Role: domain.RoleMechanic})
	require.NoError(t, err)

	return &fixture{
		store:     store,
		alerts:    alerts,
		users:     users,
		dashboard: dashboard,
		router:    h.Router(),
		mechanic:  mech,
	}
}

func (f *fixture) do(method, target, email string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.Header.Set(HeaderUserEmail, email)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "garage_test_http_requests_total")
}

func TestAuthentication(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/work-orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/api/work-orders", "stranger@shop.test", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/api/work-orders", ownerEmail, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateWorkOrder_TolerantMoney(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/work-orders", ownerEmail, `{
		"vehicle": "Civic",
		"plate": "ABC-1234",
		"mechanic_id": "m-1",
		"parts_value": "100,50",
		"labor_value": "oops",
		"commission": {"kind": "percent_plus_bonus", "percent": 10, "bonus": "5"}
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got workOrderResponse
	decode(t, rec, &got)
	assert.Equal(t, "100.5", got.PartsValue)
	assert.Equal(t, "0", got.LaborValue)
	assert.Equal(t, string(domain.WorkOrderStatusPending), got.Status)
	assert.Equal(t, "percent_plus_bonus", got.Commission.Kind)
	assert.NotEmpty(t, got.ID)
}

func TestCreateWorkOrder_Errors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/work-orders", ownerEmail, `{"vehicle": "no plate"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/work-orders", ownerEmail, `{"plate": "X", "date": "31/01/2026"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorResponse
	decode(t, rec, &body)
	assert.Equal(t, "date", body.Field)

	rec = f.do(http.MethodPost, "/api/work-orders", ownerEmail, `{"plate": "X", "parts_value": -5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/work-orders", ownerEmail,
		`{"plate": "X", "commission": {"kind": "percent_plus_bonus", "percent": "1000"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, "commission.percent", body.Field)

	rec = f.do(http.MethodPost, "/api/work-orders", ownerEmail, `{"plate": "X", "parts_value": "10.12345"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, "parts_value", body.Field)
}

func TestCreateWorkOrder_IdempotencyKey(t *testing.T) {
	f := newFixture(t)
	body := map[string]any{"plate": "XYZ-0001", "labor_value": 50}

	rec := f.do(http.MethodPost, "/api/work-orders", ownerEmail, body, HeaderIdempotencyKey, "req-1")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(http.MethodPost, "/api/work-orders", ownerEmail, body, HeaderIdempotencyKey, "req-1")
	assert.Equal(t, http.StatusConflict, rec.Code)

	orders, err := f.store.ListWorkOrders(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestWorkOrderLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/work-orders", ownerEmail, map[string]any{
		"plate":       "P-1",
		"mechanic_id": f.mechanic.ID,
		"parts_value": 40,
		"labor_value": 60,
		"commission":  map[string]any{"kind": "flat", "flat": 150},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created workOrderResponse
	decode(t, rec, &created)

	rec = f.do(http.MethodPatch, "/api/work-orders/"+created.ID+"/status", ownerEmail, map[string]any{"status": "Done"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/work-orders/"+created.ID, ownerEmail, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched workOrderResponse
	decode(t, rec, &fetched)
	assert.Equal(t, "Done", fetched.Status)
	assert.Equal(t, "100", fetched.TotalValue)

	// flat 150 on a 100 order leaves the company negative
	rec = f.do(http.MethodGet, "/api/work-orders/"+created.ID+"/earnings", mechanicEmail, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var split earningsResponse
	decode(t, rec, &split)
	assert.Equal(t, "150", split.MechanicShare)
	assert.Equal(t, "-50", split.CompanyShare)

	rec = f.do(http.MethodPatch, "/api/work-orders/"+created.ID+"/commission", ownerEmail,
		map[string]any{"kind": "percent_plus_bonus", "percent": "10", "bonus": "5"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/work-orders/"+created.ID+"/earnings", ownerEmail, nil)
	decode(t, rec, &split)
	assert.Equal(t, "11", split.MechanicShare)
	assert.Equal(t, "89", split.CompanyShare)

	rec = f.do(http.MethodGet, "/api/work-orders/missing", ownerEmail, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInventoryRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/inventory", ownerEmail, map[string]any{
		"name":             "Brake pad",
		"batch":            "L-77",
		"expires_at":       "2027-06-30",
		"quantity":         5,
		"minimum_quantity": 3,
		"unit_cost":        "12.50",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var item itemResponse
	decode(t, rec, &item)
	assert.False(t, item.Critical)
	require.NotNil(t, item.ExpiresAt)

	rec = f.do(http.MethodPost, "/api/inventory/"+item.ID+"/adjust", ownerEmail, map[string]any{"delta": -9})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(http.MethodPost, "/api/inventory/"+item.ID+"/adjust", ownerEmail, map[string]any{"delta": -3})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &item)
	assert.Equal(t, 2, item.Quantity)
	assert.True(t, item.Critical)
	assert.Equal(t, 2, item.ReorderQuantity)
	assert.Len(t, f.alerts.Queued(), 1)

	rec = f.do(http.MethodGet, "/api/inventory/critical", mechanicEmail, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report criticalStockResponse
	decode(t, rec, &report)
	require.Len(t, report.Items, 1)
	assert.Equal(t, item.ID, report.Items[0].ID)
	assert.Equal(t, "25", report.StockValue)

	rec = f.do(http.MethodGet, "/api/inventory", ownerEmail, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []itemResponse
	decode(t, rec, &items)
	assert.Len(t, items, 1)
}

func TestCriticalStock_EmptyIsArray(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/inventory/critical", ownerEmail, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"items":[]`)
}

func TestSummaryResponse_DisplayRoundsToCents(t *testing.T) {
	resp := newSummaryResponse(&service.FinancialReport{
		Summary: ledger.Summary{
			GrossRevenue: decimal.RequireFromString("10.125"),
			NetProfit:    decimal.RequireFromString("-0.004"),
			OrderCount:   1,
		},
	})

	assert.Equal(t, "10.125", resp.GrossRevenue)
	assert.Equal(t, "10.13", resp.Display.GrossRevenue)
	assert.Equal(t, "0.00", resp.Display.NetProfit)
	assert.Equal(t, "0.00", resp.Display.PartsCost)
}

func TestDashboardSummary(t *testing.T) {
	f := newFixture(t)

	for _, o := range []map[string]any{
		{"plate": "A", "parts_value": 100, "labor_value": 200, "commission": map[string]any{"flat": 50}, "date": "2026-01-10"},
		{"plate": "B", "parts_value": 10, "labor_value": 20, "commission": map[string]any{"flat": 5}, "date": "2026-02-10"},
	} {
		rec := f.do(http.MethodPost, "/api/work-orders", ownerEmail, o)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := f.do(http.MethodGet, "/api/dashboard/summary", ownerEmail, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all summaryResponse
	decode(t, rec, &all)
	assert.Equal(t, "330", all.GrossRevenue)
	assert.Equal(t, "110", all.PartsCost)
	assert.Equal(t, "55", all.TotalCommission)
	assert.Equal(t, "165", all.NetProfit)
	assert.Equal(t, "165.00", all.Display.NetProfit)
	assert.Equal(t, 2, all.OrderCount)

	rec = f.do(http.MethodGet, "/api/dashboard/summary?from=2026-01-01&to=2026-01-31", ownerEmail, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var jan summaryResponse
	decode(t, rec, &jan)
	assert.Equal(t, "300", jan.GrossRevenue)
	assert.Equal(t, "2026-01-31", jan.To)

	rec = f.do(http.MethodGet, "/api/dashboard/summary?from=2026-02-01&to=2026-01-01", ownerEmail, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/dashboard/summary", mechanicEmail, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDashboardPayouts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/work-orders", ownerEmail, map[string]any{
		"plate": "A", "mechanic_id": f.mechanic.ID, "labor_value": 100, "commission": map[string]any{"flat": 30},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(http.MethodGet, "/api/dashboard/payouts", ownerEmail, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var payouts []payoutResponse
	decode(t, rec, &payouts)
	require.Len(t, payouts, 1)
	assert.Equal(t, f.mechanic.ID, payouts[0].MechanicID)
	assert.Equal(t, "30", payouts[0].Commission)
}

func TestUserRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/users", ownerEmail, map[string]any{
		"name": "Ana", "email": "ana@shop.test", "role": "manager",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ana userResponse
	decode(t, rec, &ana)

	rec = f.do(http.MethodPost, "/api/users", ownerEmail, map[string]any{
		"name": "Ana again", "email": "ANA@shop.test", "role": "mechanic",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPost, "/api/users", "ana@shop.test", map[string]any{
		"name": "Rui", "email": "rui@shop.test", "role": "mechanic",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodGet, "/api/users", "ana@shop.test", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []userResponse
	decode(t, rec, &users)
	assert.Len(t, users, 3)

	rec = f.do(http.MethodPatch, "/api/users/"+ana.ID+"/role", ownerEmail, map[string]any{"role": "attendant"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodPatch, "/api/users/"+ana.ID+"/role", ownerEmail, map[string]any{"role": "boss"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAmountDecoding(t *testing.T) {
	cases := map[string]string{
		`12.5`:    "12.5",
		`"12,5"`:  "12.5",
		`"abc"`:   "0",
		`null`:    "0",
		`""`:      "0",
		`"1e2"`:   "100",
		`-3.25`:   "-3.25",
		`"  7  "`: "7",
	}
	for raw, want := range cases {
		var a amount
		require.NoError(t, json.Unmarshal([]byte(raw), &a), raw)
		assert.Equal(t, want, a.Decimal().String(), raw)
	}
}
