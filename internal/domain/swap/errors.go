package swap

import "errors"

// Shift swap domain errors
var (
	ErrSwapNotFound = errors.New("shift swap request not found")

	ErrSwapNotOwned         = errors.New("swap request belongs to another employee")
	ErrNotSwapTarget        = errors.New("caller is not the target of this swap request")
	ErrSwapSelf             = errors.New("cannot request a swap with your own assignment")
	ErrSwapTemplateMismatch = errors.New("assignments must share the same shift template")
	ErrSwapNotScheduled     = errors.New("both assignments must still be scheduled")
	ErrSwapPendingExists    = errors.New("an open swap request already exists for one of the assignments")
	ErrSwapWindowPassed     = errors.New("one of the shifts has already started")
	ErrSwapNotPending       = errors.New("swap request is no longer awaiting the target's response")
	ErrSwapNotAccepted      = errors.New("swap request must be accepted by the target before approval")
	ErrSwapClosed           = errors.New("swap request has already been closed")
	ErrSwapExpired          = errors.New("swap request has expired")
	ErrStaleState           = errors.New("swap request was modified concurrently")
)
