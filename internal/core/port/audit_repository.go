package port

import (
	"context"
	"time"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
)

// AuditFilter narrows audit listings for the admin viewer.
type AuditFilter struct {
	AccountID string
	Outcome   domain.AuditOutcome
	Since     time.Time
	Until     time.Time
	Limit     int
	Offset    int
}

// AuditRepository appends and lists audit entries.
type AuditRepository interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]domain.AuditEntry, error)
}
