package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rl1809/garage-ledger/internal/core/domain"
	"github.com/rl1809/garage-ledger/internal/core/service"
	"github.com/rl1809/garage-ledger/internal/metrics"
)

type HTTPHandler struct {
	orders    *service.WorkOrderService
	inventory *service.InventoryService
	users     *service.UserService
	dashboard *service.DashboardService
	log       *zap.Logger
	metrics   *metrics.Metrics
}

func NewHTTPHandler(
	orders *service.WorkOrderService,
	inventory *service.InventoryService,
	users *service.UserService,
	dashboard *service.DashboardService,
	log *zap.Logger,
	m *metrics.Metrics,
) *HTTPHandler {
	return &HTTPHandler{
		orders:    orders,
		inventory: inventory,
		users:     users,
		dashboard: dashboard,
		log:       log,
		metrics:   m,
	}
}

// Router builds the gin engine with every route registered.
func (h *HTTPHandler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(h.log, h.metrics))

	r.GET("/health", h.HealthCheck)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	api := r.Group("/api", Authenticate(h.users))

	orders := api.Group("/work-orders")
	orders.POST("", h.CreateWorkOrder)
	orders.GET("", h.ListWorkOrders)
	orders.GET("/:id", h.GetWorkOrder)
	orders.PATCH("/:id/status", h.UpdateWorkOrderStatus)
	orders.PATCH("/:id/commission", h.UpdateWorkOrderCommission)
	orders.GET("/:id/earnings", h.OrderEarnings)

	inventory := api.Group("/inventory")
	inventory.POST("", h.CreateItem)
	inventory.GET("", h.ListItems)
	inventory.GET("/critical", h.CriticalStock)
	inventory.POST("/:id/adjust", h.AdjustItem)

	dashboard := api.Group("/dashboard")
	dashboard.GET("/summary", h.Summary)
	dashboard.GET("/payouts", h.Payouts)

	users := api.Group("/users")
	users.POST("", h.CreateUser)
	users.GET("", h.ListUsers)
	users.PATCH("/:id/role", h.SetUserRole)

	return r
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) CreateWorkOrder(c *gin.Context) {
	var req createWorkOrderRequest
	if !h.bind(c, &req) {
		return
	}
	created, err := domain.ParseDate("date", req.Date)
	if err != nil {
		h.fail(c, err)
		return
	}

	order, err := h.orders.Create(c.Request.Context(), c.GetHeader(HeaderIdempotencyKey), service.WorkOrderInput{
		Vehicle:    req.Vehicle,
		Plate:      req.Plate,
		MechanicID: req.MechanicID,
		PartsValue: req.PartsValue.Decimal(),
		LaborValue: req.LaborValue.Decimal(),
		Commission: req.Commission.model(),
		Status:     domain.WorkOrderStatus(req.Status),
		CreatedAt:  created,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newWorkOrderResponse(*order))
}

func (h *HTTPHandler) ListWorkOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]workOrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, newWorkOrderResponse(o))
	}
	c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) GetWorkOrder(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newWorkOrderResponse(*order))
}

func (h *HTTPHandler) UpdateWorkOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if !h.bind(c, &req) {
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), domain.WorkOrderStatus(req.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newWorkOrderResponse(*order))
}

func (h *HTTPHandler) UpdateWorkOrderCommission(c *gin.Context) {
	var req commissionRequest
	if !h.bind(c, &req) {
		return
	}
	order, err := h.orders.UpdateCommission(c.Request.Context(), c.Param("id"), req.model())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newWorkOrderResponse(*order))
}

func (h *HTTPHandler) OrderEarnings(c *gin.Context) {
	split, err := h.dashboard.OrderEarnings(c.Request.Context(), sessionOf(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newEarningsResponse(*split))
}

func (h *HTTPHandler) CreateItem(c *gin.Context) {
	var req createItemRequest
	if !h.bind(c, &req) {
		return
	}
	in := service.InventoryInput{
		Name:            req.Name,
		Batch:           req.Batch,
		Quantity:        req.Quantity,
		MinimumQuantity: req.MinimumQuantity,
		UnitCost:        req.UnitCost.Decimal(),
	}
	if req.ExpiresAt != "" {
		expires, err := domain.ParseDate("expires_at", req.ExpiresAt)
		if err != nil {
			h.fail(c, err)
			return
		}
		in.ExpiresAt = &expires
	}

	item, err := h.inventory.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newItemResponse(*item))
}

func (h *HTTPHandler) ListItems(c *gin.Context) {
	items, err := h.inventory.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newItemResponses(items))
}

func (h *HTTPHandler) AdjustItem(c *gin.Context) {
	var req adjustRequest
	if !h.bind(c, &req) {
		return
	}
	item, err := h.inventory.Adjust(c.Request.Context(), c.Param("id"), req.Delta)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newItemResponse(*item))
}

func (h *HTTPHandler) CriticalStock(c *gin.Context) {
	report, err := h.dashboard.CriticalStock(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, criticalStockResponse{
		Items:       newItemResponses(report.Items),
		StockValue:  report.StockValue.String(),
		GeneratedAt: report.GeneratedAt,
	})
}

func (h *HTTPHandler) Summary(c *gin.Context) {
	period, err := periodFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	report, err := h.dashboard.Summary(c.Request.Context(), sessionOf(c), period)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSummaryResponse(report))
}

func (h *HTTPHandler) Payouts(c *gin.Context) {
	period, err := periodFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	payouts, err := h.dashboard.Payouts(c.Request.Context(), sessionOf(c), period)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]payoutResponse, 0, len(payouts))
	for _, p := range payouts {
		out = append(out, payoutResponse{
			MechanicID: p.MechanicID,
			Orders:     p.Orders,
			LaborValue: p.Labor.String(),
			Commission: p.Commission.String(),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !h.bind(c, &req) {
		return
	}
	user, err := h.users.Create(c.Request.Context(), sessionOf(c), service.UserInput{
		Name:     req.Name,
		Email:    req.Email,
		JobTitle: req.JobTitle,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(*user))
}

func (h *HTTPHandler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), sessionOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) SetUserRole(c *gin.Context) {
	var req setRoleRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.users.SetRole(c.Request.Context(), sessionOf(c), c.Param("id"), domain.Role(req.Role)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Success: false, Message: "invalid request body"})
		return false
	}
	return true
}

func (h *HTTPHandler) fail(c *gin.Context, err error) {
	status, resp := newErrorResponse(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request error", zap.String("route", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, resp)
}

func periodFromQuery(c *gin.Context) (service.Period, error) {
	return service.PeriodFromDates(c.Query("from"), c.Query("to"))
}
