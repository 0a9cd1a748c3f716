package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/port"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/usecase"
)

// AuditHandler exposes the admin audit trail viewer.
type AuditHandler struct {
	audit *usecase.AuditRecorder
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(audit *usecase.AuditRecorder) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// RegisterRoutes binds the audit viewer route. The caller wraps the group in
// the admin role gate.
func (h *AuditHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/audit", h.list)
}

func (h *AuditHandler) list(c *gin.Context) {
	filter := port.AuditFilter{
		AccountID: c.Query("account_id"),
		Outcome:   domain.AuditOutcome(c.Query("outcome")),
		Limit:     intQuery(c, "limit", 100),
		Offset:    intQuery(c, "offset", 0),
	}

	if raw := c.Query("since"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.Since = t
		}
	}
	if raw := c.Query("until"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.Until = t
		}
	}

	entries, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "could not list audit entries"))
		return
	}

	rows := make([]AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, AuditEntryResponse{
			ID:        entry.ID,
			AccountID: entry.AccountID,
			Action:    entry.Action,
			Outcome:   string(entry.Outcome),
			IP:        entry.IP,
			UserAgent: entry.UserAgent,
			CreatedAt: entry.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"entries": rows})
}
