package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/port"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/transport/http/middleware"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/usecase"
)

// OrdersHandler exposes the order lifecycle endpoints.
type OrdersHandler struct {
	orders *usecase.OrderService
}

// NewOrdersHandler constructs OrdersHandler.
func NewOrdersHandler(orders *usecase.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// RegisterRoutes binds order routes. Access scoping beyond the session check
// happens inside the service; status transitions, cancellation included, sit
// behind the supplied re-auth gates.
func (h *OrdersHandler) RegisterRoutes(r *gin.RouterGroup, gates ...gin.HandlerFunc) {
	r.POST("/orders", middleware.RequireSession(), h.create)
	r.GET("/orders", middleware.RequireSession(), h.list)
	r.GET("/orders/:id", middleware.RequireSession(), h.get)

	status := []gin.HandlerFunc{middleware.RequireSession()}
	status = append(status, gates...)
	status = append(status, h.updateStatus)
	r.PUT("/orders/:id/status", status...)
}

func (h *OrdersHandler) create(c *gin.Context) {
	var req OrderCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid order payload"))
		return
	}

	lines := make([]usecase.OrderLineInput, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, usecase.OrderLineInput{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			Notes:      item.Notes,
		})
	}

	customer := middleware.CurrentAccount(c)
	order, err := h.orders.Create(c.Request.Context(), customer, req.TableNumber, lines, middleware.Meta(c))
	if err != nil {
		h.respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewOrderResponse(order))
}

func (h *OrdersHandler) list(c *gin.Context) {
	filter := port.OrderFilter{
		Status: domain.OrderStatus(c.Query("status")),
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}

	actor := middleware.CurrentAccount(c)
	orders, err := h.orders.List(c.Request.Context(), actor, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "could not list orders"))
		return
	}

	rows := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		rows = append(rows, NewOrderResponse(&orders[i]))
	}

	c.JSON(http.StatusOK, gin.H{"orders": rows})
}

func (h *OrdersHandler) get(c *gin.Context) {
	actor := middleware.CurrentAccount(c)
	order, err := h.orders.Get(c.Request.Context(), actor, c.Param("id"), middleware.Meta(c))
	if err != nil {
		h.respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewOrderResponse(order))
}

func (h *OrdersHandler) updateStatus(c *gin.Context) {
	var req OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	actor := middleware.CurrentAccount(c)
	order, err := h.orders.UpdateStatus(c.Request.Context(), actor, c.Param("id"), domain.OrderStatus(req.Status), middleware.Meta(c))
	if err != nil {
		h.respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewOrderResponse(order))
}

func (h *OrdersHandler) respondOrderError(c *gin.Context, err error) {
	RespondWithMappedError(c, err, []ErrorCase{
		{Err: usecase.ErrOrderNotFound, Status: http.StatusNotFound, Message: "order not found"},
		{Err: usecase.ErrInvalidOrder, Status: http.StatusBadRequest, Message: "invalid order"},
		{Err: usecase.ErrItemUnavailable, Status: http.StatusConflict, Message: "a requested dish is unavailable"},
		{Err: usecase.ErrIllegalTransition, Status: http.StatusConflict, Message: "status change not allowed"},
	}, http.StatusInternalServerError, "order operation failed")
}
