package schedule

import "errors"

// Shift schedule domain errors
var (
	ErrScheduleNotFound = errors.New("shift schedule not found")

	ErrScheduleNotDraft      = errors.New("only draft schedules may be edited or deleted")
	ErrScheduleNotEmpty      = errors.New("schedule still owns assignments and cannot be deleted")
	ErrInvalidTransition     = errors.New("invalid schedule status transition")
	ErrCancelReasonRequired  = errors.New("cancellation reason is required")
	ErrScheduleHasConflicts  = errors.New("schedule has conflicting assignments and cannot be published")
	ErrScheduleTerminal      = errors.New("schedule is archived or cancelled and is read-only")
	ErrStaleState            = errors.New("schedule was modified concurrently")
	ErrEmptyGenerationResult = errors.New("generation mapping produced no assignments")
)
