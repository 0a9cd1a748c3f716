package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/infra/config"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/transport/http/middleware"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/usecase"
)

// AuthHandler exposes login, logout, and password re-entry endpoints.
type AuthHandler struct {
	auth    *usecase.AuthService
	session config.SessionSettings
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, session config.SessionSettings) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		session: session,
	}
}

// RegisterRoutes binds authentication routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/login", h.login)
	r.POST("/logout", middleware.RequireSession(), h.logout)
	r.POST("/reauth", middleware.RequireSession(), h.reauth)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	account, lastUse, err := h.auth.Login(c.Request.Context(), req.Username, req.Password, middleware.Meta(c))
	if err != nil {
		h.respondLoginError(c, err)
		return
	}

	// The old session, if any, is discarded so a login always starts fresh.
	if old := middleware.CurrentSession(c); old != nil {
		_ = h.auth.EndSession(c.Request.Context(), old, middleware.Meta(c))
	}

	session, err := h.auth.StartSession(c.Request.Context(), account.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "could not start session"))
		return
	}

	h.setSessionCookie(c, session.ID)

	resp := LoginResponse{Account: NewAccountSummary(account)}
	if banner := lastUse.Banner(); banner != nil {
		summary := &LastUseSummary{Outcome: "success", At: banner.At}
		if banner.Failed {
			summary.Outcome = "failed"
			summary.IP = banner.IP
		}
		resp.LastUse = summary
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) respondLoginError(c *gin.Context, err error) {
	var lockout *usecase.LockoutError
	if errors.As(err, &lockout) {
		c.JSON(http.StatusForbidden, NewErrorResponse(c, lockout.Error()))
		return
	}

	RespondWithMappedError(c, err, []ErrorCase{
		{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid username or password"},
	}, http.StatusInternalServerError, "login failed")
}

func (h *AuthHandler) logout(c *gin.Context) {
	session := middleware.CurrentSession(c)
	if err := h.auth.EndSession(c.Request.Context(), session, middleware.Meta(c)); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "logout failed"))
		return
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) reauth(c *gin.Context) {
	var req ReauthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	session := middleware.CurrentSession(c)
	if err := h.auth.Reauthenticate(c.Request.Context(), session, req.Password, middleware.Meta(c)); err != nil {
		h.respondLoginError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password confirmed"})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, sessionID string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.session.CookieName, sessionID, int(h.session.TTL.Seconds()), "/", "", h.session.Secure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.session.CookieName, "", -1, "/", "", h.session.Secure, true)
}
