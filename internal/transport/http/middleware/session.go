package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/usecase"
)

const (
	sessionContextKey = "session"
	accountContextKey = "account"
)

// Session resolves the session cookie, if any, and binds the session and its
// account to the request. It never aborts; gating is left to RequireSession
// and RequireRole.
func Session(auth *usecase.AuthService, users *usecase.UserService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(cookieName)
		if err != nil || sid == "" {
			c.Next()
			return
		}

		session, err := auth.ResumeSession(c.Request.Context(), sid)
		if err != nil {
			c.Next()
			return
		}

		c.Set(sessionContextKey, session)

		if session.Authenticated() {
			account, err := users.Get(c.Request.Context(), session.AccountID)
			if err == nil {
				c.Set(accountContextKey, account)
			}
		}

		c.Next()
	}
}

// RequireSession aborts with 401 unless an authenticated session is bound.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := CurrentSession(c)
		if !session.Authenticated() || CurrentAccount(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// RequireRole aborts with 403 unless the account holds one of the roles.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		account := CurrentAccount(c)
		if account == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !allowed[account.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient privileges"})
			return
		}
		c.Next()
	}
}

// RequireFreshReauth aborts with 403 unless the session's last password
// re-entry falls inside the configured window. The response names the
// re-auth endpoint so clients can route the user there and back.
func RequireFreshReauth(auth *usecase.AuthService, reauthPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := CurrentSession(c)
		if !session.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		if err := auth.RequireFreshReauth(session); err != nil {
			if errors.Is(err, usecase.ErrReauthRequired) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error":      "recent password confirmation required",
					"reauth_url": reauthPath,
					"next":       c.Request.URL.Path,
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Next()
	}
}

// CurrentSession returns the bound session, nil when anonymous.
func CurrentSession(c *gin.Context) *domain.Session {
	if v, exists := c.Get(sessionContextKey); exists {
		if session, ok := v.(*domain.Session); ok {
			return session
		}
	}
	return nil
}

// CurrentAccount returns the bound account, nil when anonymous.
func CurrentAccount(c *gin.Context) *domain.Account {
	if v, exists := c.Get(accountContextKey); exists {
		if account, ok := v.(*domain.Account); ok {
			return account
		}
	}
	return nil
}

// Meta extracts client attribution for audit entries.
func Meta(c *gin.Context) usecase.RequestMeta {
	reqCtx := GetRequestContext(c)
	return usecase.RequestMeta{
		IP:        reqCtx.IP,
		UserAgent: reqCtx.UserAgent,
	}
}
