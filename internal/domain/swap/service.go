package swap

import (
	"context"
	"time"

	"github.com/classboard/backoffice-go/internal/domain/actor"
)

// SwapService defines the shift swap workflow: an employee offers to trade
// an upcoming shift, the target employee responds, and a manager decides.
type SwapService interface {
	// CreateSwapRequest files a swap offer for two scheduled assignments
	// sharing a template. The caller must own the requester assignment.
	CreateSwapRequest(ctx context.Context, caller actor.Actor, req CreateSwapRequest) (SwapResponse, error)

	GetSwapRequest(ctx context.Context, id string) (SwapResponse, error)

	ListSwapRequests(ctx context.Context, filter SwapFilter) (ListSwapsResponse, error)

	// RespondToSwap records the target employee's acceptance or rejection
	// of a PENDING request.
	RespondToSwap(ctx context.Context, caller actor.Actor, req RespondSwapRequest) (SwapResponse, error)

	// DecideSwap applies a manager decision. Approval exchanges the
	// employees on the two assignments; decline closes the request.
	DecideSwap(ctx context.Context, caller actor.Actor, req DecideSwapRequest) (SwapResponse, error)

	// CancelSwapRequest withdraws an open request; requester only.
	CancelSwapRequest(ctx context.Context, caller actor.Actor, id string) (SwapResponse, error)

	// ExpireOverdue flips open requests whose earlier shift already started
	// to EXPIRED. Idempotent sweep entry point.
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}
