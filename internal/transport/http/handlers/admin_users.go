package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/port"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/transport/http/middleware"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/usecase"
)

// AdminUsersHandler exposes account administration endpoints.
type AdminUsersHandler struct {
	users *usecase.UserService
}

// NewAdminUsersHandler constructs AdminUsersHandler.
func NewAdminUsersHandler(users *usecase.UserService) *AdminUsersHandler {
	return &AdminUsersHandler{users: users}
}

// RegisterRoutes binds admin account routes. The caller wraps the group in
// the admin role gate; role changes additionally demand a fresh password
// entry through the supplied gates.
func (h *AdminUsersHandler) RegisterRoutes(r *gin.RouterGroup, gates ...gin.HandlerFunc) {
	r.GET("/users", h.list)
	r.GET("/users/:id", h.get)

	chain := append([]gin.HandlerFunc{}, gates...)
	chain = append(chain, h.changeRole)
	r.PUT("/users/:id/role", chain...)
}

func (h *AdminUsersHandler) list(c *gin.Context) {
	filter := port.AccountFilter{
		Role:   domain.Role(c.Query("role")),
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}

	accounts, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "could not list accounts"))
		return
	}

	summaries := make([]AccountSummary, 0, len(accounts))
	for i := range accounts {
		summaries = append(summaries, NewAccountSummary(&accounts[i]))
	}

	c.JSON(http.StatusOK, gin.H{"accounts": summaries})
}

func (h *AdminUsersHandler) get(c *gin.Context) {
	account, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "could not load account")
		return
	}

	c.JSON(http.StatusOK, NewAccountSummary(account))
}

func (h *AdminUsersHandler) changeRole(c *gin.Context) {
	var req RoleChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	actor := middleware.CurrentAccount(c)
	err := h.users.ChangeRole(c.Request.Context(), actor.ID, c.Param("id"), domain.Role(req.Role), middleware.Meta(c))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUnknownRole, Status: http.StatusBadRequest, Message: "unknown role"},
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
			{Err: usecase.ErrLastAdmin, Status: http.StatusConflict, Message: "cannot demote the last administrator"},
		}, http.StatusInternalServerError, "could not change role")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "role updated"})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
