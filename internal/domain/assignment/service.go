package assignment

import (
	"context"
	"time"

	"github.com/classboard/backoffice-go/internal/domain/actor"
)

// ConflictDetector answers whether a proposed shift window collides with an
// employee's existing assignments or approved absences on the same date.
type ConflictDetector interface {
	// Check returns every conflicting entry for the proposed window. A clean
	// window yields HasConflict=false and an empty slice.
	Check(ctx context.Context, employeeID string, date time.Time, window Window) (ConflictCheckResult, error)

	// CheckExcludingSchedule behaves like Check but ignores assignments that
	// belong to the given schedule; used when publishing a draft schedule so
	// its own rows do not collide with themselves.
	CheckExcludingSchedule(ctx context.Context, employeeID string, date time.Time, window Window, scheduleID string) (ConflictCheckResult, error)
}

// CriticalSection serializes work on one (employee, date) pair so the
// conflict check and the insert it guards cannot interleave with a
// concurrent request for the same pair. The postgres implementation runs
// fn inside a transaction holding an advisory lock; the in-memory one
// uses a keyed mutex.
type CriticalSection interface {
	Locked(ctx context.Context, employeeID string, date time.Time, fn func(ctx context.Context) error) error
}

// AssignmentService defines business logic for the shift assignment
// lifecycle.
type AssignmentService interface {
	// CreateAssignment validates, detects conflicts, derives the planned
	// window from the template, and persists a SCHEDULED assignment. A
	// *ConflictError is returned when the window is taken.
	CreateAssignment(ctx context.Context, caller actor.Actor, req CreateAssignmentRequest) (AssignmentResponse, error)

	// BulkCreateAssignments creates many assignments with per-item outcomes.
	// With Atomic set, any failure rolls back the whole batch.
	BulkCreateAssignments(ctx context.Context, caller actor.Actor, req BulkCreateAssignmentsRequest) (BulkCreateResponse, error)

	GetAssignment(ctx context.Context, id string) (AssignmentResponse, error)

	ListAssignments(ctx context.Context, filter AssignmentFilter) (ListAssignmentsResponse, error)

	// CheckIn records the employee's arrival. Only a SCHEDULED assignment
	// accepts a check-in, and only by the assigned employee.
	CheckIn(ctx context.Context, caller actor.Actor, req CheckInRequest) (AssignmentResponse, error)

	// CheckOut records departure, computes worked minutes and the overtime
	// flag, and completes the assignment.
	CheckOut(ctx context.Context, caller actor.Actor, req CheckOutRequest) (AssignmentResponse, error)

	// CancelAssignment cancels a not-yet-finished assignment. A reason is
	// mandatory and lands in the audit trail.
	CancelAssignment(ctx context.Context, caller actor.Actor, req CancelAssignmentRequest) (AssignmentResponse, error)

	// MarkNoShows sweeps SCHEDULED assignments whose planned end plus the
	// grace period has passed and flips them to NO_SHOW. Returns the number
	// of assignments marked.
	MarkNoShows(ctx context.Context, now time.Time) (int, error)
}
