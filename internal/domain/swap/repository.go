package swap

import (
	"context"
	"time"
)

// SwapRepository defines data access for shift swap requests.
type SwapRepository interface {
	Create(ctx context.Context, s SwapRequest) (SwapRequest, error)

	GetByID(ctx context.Context, id string) (SwapRequest, error)

	// Update persists the request iff its stored status still equals
	// expected (compare-and-swap).
	Update(ctx context.Context, s SwapRequest, expected Status) error

	List(ctx context.Context, filter SwapFilter) ([]SwapRequest, int64, error)

	// ExistsOpenForAssignment reports whether a PENDING or ACCEPTED request
	// already involves the assignment, on either side of the trade.
	ExistsOpenForAssignment(ctx context.Context, assignmentID string) (bool, error)

	// MarkExpired flips open requests whose expiry passed before cutoff to
	// EXPIRED and returns how many were flipped.
	MarkExpired(ctx context.Context, cutoff time.Time) (int, error)
}
