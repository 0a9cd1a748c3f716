package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/transport/http/middleware"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/usecase"
)

// PasswordHandler exposes the authenticated password change endpoint.
type PasswordHandler struct {
	passwords *usecase.PasswordService
}

// NewPasswordHandler constructs PasswordHandler.
func NewPasswordHandler(passwords *usecase.PasswordService) *PasswordHandler {
	return &PasswordHandler{passwords: passwords}
}

// RegisterRoutes binds the password change route behind the supplied gate
// middleware, normally session plus fresh re-auth.
func (h *PasswordHandler) RegisterRoutes(r *gin.RouterGroup, gates ...gin.HandlerFunc) {
	chain := append([]gin.HandlerFunc{}, gates...)
	chain = append(chain, h.change)
	r.POST("/password", chain...)
}

func (h *PasswordHandler) change(c *gin.Context) {
	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	account := middleware.CurrentAccount(c)
	err := h.passwords.Change(c.Request.Context(), account.ID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword, middleware.Meta(c))
	if err != nil {
		var policyErr *usecase.PolicyError
		if errors.As(err, &policyErr) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, policyErr.Error()))
			return
		}

		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "current password is incorrect"},
		}, http.StatusInternalServerError, "password change failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password changed"})
}
