package response

import (
	"errors"
	"net/http"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/assignment"
	"github.com/classboard/backoffice-go/internal/domain/payroll"
	"github.com/classboard/backoffice-go/internal/domain/schedule"
	"github.com/classboard/backoffice-go/internal/domain/swap"
	"github.com/classboard/backoffice-go/internal/domain/template"
	"github.com/classboard/backoffice-go/internal/domain/violation"
	"github.com/classboard/backoffice-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Scheduling conflicts carry the offending entries with them.
	var conflictErr *assignment.ConflictError
	if errors.As(err, &conflictErr) {
		ConflictWithData(w, "Shift window conflicts with existing entries", conflictErr.Conflicts)
		return
	}

	switch {
	// Actor errors
	case errors.Is(err, actor.ErrActorMissing):
		Unauthorized(w, "Authentication required")
	case errors.Is(err, actor.ErrForbidden):
		Forbidden(w, "Insufficient permissions for this operation")

	// Template domain errors
	case errors.Is(err, template.ErrTemplateNotFound):
		NotFound(w, "Shift template not found")
	case errors.Is(err, template.ErrTemplateNameExists):
		Conflict(w, "Shift template name already exists")
	case errors.Is(err, template.ErrTemplateInactive):
		Conflict(w, "Shift template is deactivated")

	// Schedule domain errors
	case errors.Is(err, schedule.ErrScheduleNotFound):
		NotFound(w, "Shift schedule not found")
	case errors.Is(err, schedule.ErrScheduleNotDraft):
		Conflict(w, "Only draft schedules may be edited or deleted")
	case errors.Is(err, schedule.ErrScheduleNotEmpty):
		Conflict(w, "Schedule still owns assignments and cannot be deleted")
	case errors.Is(err, schedule.ErrScheduleHasConflicts):
		Conflict(w, "Schedule has conflicting assignments and cannot be published")
	case errors.Is(err, schedule.ErrScheduleTerminal):
		Conflict(w, "Schedule is archived or cancelled and is read-only")
	case errors.Is(err, schedule.ErrEmptyGenerationResult):
		BadRequest(w, "Generation mapping produced no assignments", nil)
	case errors.Is(err, schedule.ErrInvalidTransition):
		Conflict(w, "Invalid schedule status transition")
	case errors.Is(err, schedule.ErrCancelReasonRequired):
		BadRequest(w, "Cancellation reason is required", nil)
	case errors.Is(err, schedule.ErrStaleState):
		Conflict(w, "Schedule was modified concurrently, please retry")

	// Assignment domain errors
	case errors.Is(err, assignment.ErrAssignmentNotFound):
		NotFound(w, "Shift assignment not found")
	case errors.Is(err, assignment.ErrAlreadyCheckedIn):
		Conflict(w, "Assignment is already checked in")
	case errors.Is(err, assignment.ErrNotCheckedIn):
		Conflict(w, "Assignment has no recorded check-in")
	case errors.Is(err, assignment.ErrAlreadyFinished):
		Conflict(w, "Assignment is already in a terminal state")
	case errors.Is(err, assignment.ErrInvalidTransition):
		Conflict(w, "Invalid assignment status transition")
	case errors.Is(err, assignment.ErrCancelReasonRequired):
		BadRequest(w, "Cancellation reason is required", nil)
	case errors.Is(err, assignment.ErrStaleState):
		Conflict(w, "Assignment was modified concurrently, please retry")

	// Violation domain errors
	case errors.Is(err, violation.ErrViolationNotFound):
		NotFound(w, "Attendance violation not found")
	case errors.Is(err, violation.ErrExplanationNotFound):
		NotFound(w, "Violation explanation not found")
	case errors.Is(err, violation.ErrEvidenceNotFound):
		NotFound(w, "Explanation evidence not found")
	case errors.Is(err, violation.ErrViolationNotOwned):
		Forbidden(w, "Violation belongs to another employee")
	case errors.Is(err, violation.ErrExplanationNotOwned):
		Forbidden(w, "Explanation belongs to another employee")
	case errors.Is(err, violation.ErrExplanationPendingExist):
		Conflict(w, "A pending explanation already exists for this violation")
	case errors.Is(err, violation.ErrExplanationReviewed):
		Conflict(w, "Explanation has already been reviewed")
	case errors.Is(err, violation.ErrReviewNotesRequired):
		BadRequest(w, "Review notes are required", nil)
	case errors.Is(err, violation.ErrInvalidTransition):
		Conflict(w, "Invalid violation status transition")
	case errors.Is(err, violation.ErrStaleState):
		Conflict(w, "Violation was modified concurrently, please retry")

	// Shift swap domain errors
	case errors.Is(err, swap.ErrSwapNotFound):
		NotFound(w, "Shift swap request not found")
	case errors.Is(err, swap.ErrSwapNotOwned):
		Forbidden(w, "Swap request belongs to another employee")
	case errors.Is(err, swap.ErrNotSwapTarget):
		Forbidden(w, "Only the target employee may respond to this swap")
	case errors.Is(err, swap.ErrSwapSelf):
		BadRequest(w, "Cannot request a swap with your own assignment", nil)
	case errors.Is(err, swap.ErrSwapTemplateMismatch):
		Conflict(w, "Assignments must share the same shift template")
	case errors.Is(err, swap.ErrSwapNotScheduled):
		Conflict(w, "Both assignments must still be scheduled")
	case errors.Is(err, swap.ErrSwapPendingExists):
		Conflict(w, "An open swap request already exists for one of the assignments")
	case errors.Is(err, swap.ErrSwapWindowPassed):
		Conflict(w, "One of the shifts has already started")
	case errors.Is(err, swap.ErrSwapNotPending):
		Conflict(w, "Swap request is no longer awaiting the target's response")
	case errors.Is(err, swap.ErrSwapNotAccepted):
		Conflict(w, "Swap request must be accepted by the target before approval")
	case errors.Is(err, swap.ErrSwapClosed):
		Conflict(w, "Swap request has already been closed")
	case errors.Is(err, swap.ErrSwapExpired):
		Conflict(w, "Swap request has expired")
	case errors.Is(err, swap.ErrStaleState):
		Conflict(w, "Swap request was modified concurrently, please retry")

	// Payroll domain errors
	case errors.Is(err, payroll.ErrPayrollNotFound):
		NotFound(w, "Payroll not found")
	case errors.Is(err, payroll.ErrSalaryNotFound):
		NotFound(w, "Base salary not found for employee")
	case errors.Is(err, payroll.ErrPayrollNotEditable):
		Conflict(w, "Payroll is approved or paid and cannot be recalculated")
	case errors.Is(err, payroll.ErrPayrollPaid):
		Conflict(w, "Payroll is already paid and immutable")
	case errors.Is(err, payroll.ErrInvalidTransition):
		Conflict(w, "Invalid payroll status transition")
	case errors.Is(err, payroll.ErrCancelReasonRequired):
		BadRequest(w, "Cancellation reason is required", nil)
	case errors.Is(err, payroll.ErrStaleState):
		Conflict(w, "Payroll was modified concurrently, please retry")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
