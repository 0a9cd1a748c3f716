package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/transport/http/middleware"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/usecase"
)

// AccountHandler exposes self-service profile endpoints.
type AccountHandler struct {
	users *usecase.UserService
}

// NewAccountHandler constructs AccountHandler.
func NewAccountHandler(users *usecase.UserService) *AccountHandler {
	return &AccountHandler{users: users}
}

// RegisterRoutes binds profile routes. The security question update takes
// the same gate chain as the password change.
func (h *AccountHandler) RegisterRoutes(r *gin.RouterGroup, gates ...gin.HandlerFunc) {
	r.GET("/me", middleware.RequireSession(), h.me)

	chain := append([]gin.HandlerFunc{}, gates...)
	chain = append(chain, h.setSecurityQuestion)
	r.PUT("/me/security-question", chain...)
}

func (h *AccountHandler) me(c *gin.Context) {
	account := middleware.CurrentAccount(c)
	c.JSON(http.StatusOK, NewAccountSummary(account))
}

func (h *AccountHandler) setSecurityQuestion(c *gin.Context) {
	var req SecurityQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	account := middleware.CurrentAccount(c)
	err := h.users.SetSecurityQuestion(c.Request.Context(), account.ID, req.Question, req.Answer, middleware.Meta(c))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidSecurityAnswer, Status: http.StatusBadRequest, Message: "question or answer rejected"},
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "could not update security question")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "security question updated"})
}
