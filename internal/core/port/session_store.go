package port

import (
	"context"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
)

// SessionStore holds per-browser session state server-side. Implementations
// must apply an idle TTL so abandoned flows expire on their own.
type SessionStore interface {
	Create(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
	Delete(ctx context.Context, id string) error
}
