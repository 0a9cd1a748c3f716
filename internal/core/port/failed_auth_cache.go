package port

import (
	"context"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
)

// FailedAuthCache remembers the last failed login per username for the
// "last account use" banner. Keyed by the literal submitted username, fixed
// TTL, best-effort: lost updates are acceptable and errors are ignorable.
type FailedAuthCache interface {
	Set(ctx context.Context, marker domain.FailedAuthMarker) error
	Get(ctx context.Context, username string) (*domain.FailedAuthMarker, error)
}
