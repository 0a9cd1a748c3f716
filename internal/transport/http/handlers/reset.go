package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/infra/config"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/transport/http/middleware"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/usecase"
)

// resetStartMessage is returned from the first step regardless of whether
// the username exists or has a recovery question.
const resetStartMessage = "if the account exists and has a recovery question, continue to the next step"

// ResetHandler drives the three-step password recovery flow. Flow state
// lives in an anonymous server-side session, so the steps cannot be reordered
// by crafting requests.
type ResetHandler struct {
	auth    *usecase.AuthService
	reset   *usecase.PasswordResetService
	session config.SessionSettings
}

// NewResetHandler constructs ResetHandler.
func NewResetHandler(auth *usecase.AuthService, reset *usecase.PasswordResetService, session config.SessionSettings) *ResetHandler {
	return &ResetHandler{
		auth:    auth,
		reset:   reset,
		session: session,
	}
}

// RegisterRoutes binds the recovery flow routes.
func (h *ResetHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/reset/start", h.start)
	r.GET("/reset/question", h.question)
	r.POST("/reset/answer", h.answer)
	r.POST("/reset/complete", h.complete)
}

func (h *ResetHandler) start(c *gin.Context) {
	var req ResetStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	session, err := h.ensureSession(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "could not start recovery"))
		return
	}

	if err := h.reset.Start(c.Request.Context(), session, req.Username, middleware.Meta(c)); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "could not start recovery"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: resetStartMessage})
}

func (h *ResetHandler) question(c *gin.Context) {
	session := middleware.CurrentSession(c)

	question, err := h.reset.Question(c.Request.Context(), session)
	if err != nil {
		h.respondResetError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"question": question})
}

func (h *ResetHandler) answer(c *gin.Context) {
	var req ResetAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	session := middleware.CurrentSession(c)
	if err := h.reset.Answer(c.Request.Context(), session, req.Answer, middleware.Meta(c)); err != nil {
		h.respondResetError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "answer accepted"})
}

func (h *ResetHandler) complete(c *gin.Context) {
	var req ResetCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	session := middleware.CurrentSession(c)
	if err := h.reset.Complete(c.Request.Context(), session, req.NewPassword, req.ConfirmPassword, middleware.Meta(c)); err != nil {
		var policyErr *usecase.PolicyError
		if errors.As(err, &policyErr) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, policyErr.Error()))
			return
		}
		h.respondResetError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password reset"})
}

func (h *ResetHandler) respondResetError(c *gin.Context, err error) {
	RespondWithMappedError(c, err, []ErrorCase{
		{Err: usecase.ErrResetNotReady, Status: http.StatusConflict, Message: "recovery flow must start from the beginning"},
		{Err: usecase.ErrSecurityAnswerMismatch, Status: http.StatusUnauthorized, Message: "answer does not match"},
	}, http.StatusInternalServerError, "recovery failed")
}

// ensureSession returns the bound session, creating an anonymous one when
// the request carries none.
func (h *ResetHandler) ensureSession(c *gin.Context) (*domain.Session, error) {
	if session := middleware.CurrentSession(c); session != nil {
		return session, nil
	}

	session, err := h.auth.StartSession(c.Request.Context(), "")
	if err != nil {
		return nil, err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.session.CookieName, session.ID, int(h.session.TTL.Seconds()), "/", "", h.session.Secure, true)

	return session, nil
}
