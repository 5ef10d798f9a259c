package assignment

import "errors"

// Shift assignment domain errors
var (
	ErrAssignmentNotFound = errors.New("shift assignment not found")

	// Transition errors
	ErrInvalidTransition    = errors.New("invalid assignment status transition")
	ErrNotCheckedIn         = errors.New("assignment has no recorded check-in")
	ErrAlreadyCheckedIn     = errors.New("assignment is already checked in")
	ErrAlreadyFinished      = errors.New("assignment is already in a terminal state")
	ErrCancelReasonRequired = errors.New("cancellation reason is required")

	// ErrStaleState signals a lost compare-and-swap: the stored status no
	// longer matches the expected prior state. Callers should re-fetch and
	// retry.
	ErrStaleState = errors.New("assignment was modified concurrently")
)
