package violation

import "errors"

// Attendance violation domain errors
var (
	ErrViolationNotFound   = errors.New("attendance violation not found")
	ErrExplanationNotFound = errors.New("violation explanation not found")
	ErrEvidenceNotFound    = errors.New("explanation evidence not found")

	ErrInvalidTransition       = errors.New("invalid violation status transition")
	ErrExplanationPendingExist = errors.New("a pending explanation already exists for this violation")
	ErrExplanationReviewed     = errors.New("explanation has already been reviewed")
	ErrExplanationNotOwned     = errors.New("explanation belongs to another employee")
	ErrViolationNotOwned       = errors.New("violation belongs to another employee")
	ErrReviewNotesRequired     = errors.New("review notes are required")
	ErrStaleState              = errors.New("violation was modified concurrently")
)
