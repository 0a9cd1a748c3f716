package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/port"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/transport/http/middleware"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/usecase"
)

// MenuHandler exposes the dish catalog endpoints.
type MenuHandler struct {
	menu *usecase.MenuService
}

// NewMenuHandler constructs MenuHandler.
func NewMenuHandler(menu *usecase.MenuService) *MenuHandler {
	return &MenuHandler{menu: menu}
}

// RegisterRoutes binds catalog routes. Reads are open to every signed-in
// role; writes are limited to managers and admins. Deletion is destructive
// and sits behind the supplied re-auth gates as well.
func (h *MenuHandler) RegisterRoutes(r *gin.RouterGroup, gates ...gin.HandlerFunc) {
	r.GET("/menu", middleware.RequireSession(), h.list)
	r.GET("/menu/:id", middleware.RequireSession(), h.get)

	staff := middleware.RequireRole(domain.RoleManager, domain.RoleAdmin)
	r.POST("/menu", middleware.RequireSession(), staff, h.create)
	r.PUT("/menu/:id", middleware.RequireSession(), staff, h.update)

	del := []gin.HandlerFunc{middleware.RequireSession(), staff}
	del = append(del, gates...)
	del = append(del, h.delete)
	r.DELETE("/menu/:id", del...)
}

func (h *MenuHandler) list(c *gin.Context) {
	filter := port.MenuFilter{
		Category: domain.MenuCategory(c.Query("category")),
	}

	// Customers never see unavailable dishes.
	account := middleware.CurrentAccount(c)
	if !account.IsPrivileged() {
		filter.AvailableOnly = true
	}

	items, err := h.menu.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "could not list menu"))
		return
	}

	rows := make([]MenuItemResponse, 0, len(items))
	for i := range items {
		rows = append(rows, NewMenuItemResponse(&items[i]))
	}

	c.JSON(http.StatusOK, gin.H{"items": rows})
}

func (h *MenuHandler) get(c *gin.Context) {
	item, err := h.menu.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondMenuError(c, err)
		return
	}

	account := middleware.CurrentAccount(c)
	if !account.IsPrivileged() && !item.IsAvailable {
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "menu item not found"))
		return
	}

	c.JSON(http.StatusOK, NewMenuItemResponse(item))
}

func (h *MenuHandler) create(c *gin.Context) {
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid menu item payload"))
		return
	}

	actor := middleware.CurrentAccount(c)
	item, err := h.menu.Create(c.Request.Context(), actor.ID, menuInput(req), middleware.Meta(c))
	if err != nil {
		h.respondMenuError(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewMenuItemResponse(item))
}

func (h *MenuHandler) update(c *gin.Context) {
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid menu item payload"))
		return
	}

	actor := middleware.CurrentAccount(c)
	item, err := h.menu.Update(c.Request.Context(), actor.ID, c.Param("id"), menuInput(req), middleware.Meta(c))
	if err != nil {
		h.respondMenuError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewMenuItemResponse(item))
}

func (h *MenuHandler) delete(c *gin.Context) {
	actor := middleware.CurrentAccount(c)
	if err := h.menu.Delete(c.Request.Context(), actor.ID, c.Param("id"), middleware.Meta(c)); err != nil {
		h.respondMenuError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "menu item deleted"})
}

func (h *MenuHandler) respondMenuError(c *gin.Context, err error) {
	RespondWithMappedError(c, err, []ErrorCase{
		{Err: usecase.ErrMenuItemNotFound, Status: http.StatusNotFound, Message: "menu item not found"},
		{Err: usecase.ErrMenuItemInUse, Status: http.StatusConflict, Message: "menu item is referenced by orders"},
		{Err: usecase.ErrInvalidMenuItem, Status: http.StatusBadRequest, Message: "invalid menu item"},
	}, http.StatusInternalServerError, "menu operation failed")
}

func menuInput(req MenuItemRequest) usecase.MenuItemInput {
	return usecase.MenuItemInput{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Category:    req.Category,
		Tags:        req.Tags,
		IsAvailable: req.IsAvailable,
	}
}
