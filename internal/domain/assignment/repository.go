package assignment

import (
	"context"
	"time"
)

// AssignmentRepository defines data access for shift assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, a ShiftAssignment) (ShiftAssignment, error)

	GetByID(ctx context.Context, id string) (ShiftAssignment, error)

	// Update persists the assignment iff its stored status still equals
	// expected (compare-and-swap). Returns ErrStaleState when the row was
	// modified concurrently.
	Update(ctx context.Context, a ShiftAssignment, expected Status) error

	// ListActiveByEmployeeAndDate retrieves every non-cancelled assignment
	// for the employee on the given date; the conflict detector's read set.
	ListActiveByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) ([]ShiftAssignment, error)

	ListByScheduleID(ctx context.Context, scheduleID string) ([]ShiftAssignment, error)

	List(ctx context.Context, filter AssignmentFilter) ([]ShiftAssignment, int64, error)

	// ListCompletedInPeriod retrieves COMPLETED assignments for the employee
	// with dates in [from,to]; the payroll aggregation's read set.
	ListCompletedInPeriod(ctx context.Context, employeeID string, from, to time.Time) ([]ShiftAssignment, error)

	// ListOverdueScheduled retrieves SCHEDULED assignments whose planned end
	// is before the deadline; the NO_SHOW sweep's read set.
	ListOverdueScheduled(ctx context.Context, deadline time.Time) ([]ShiftAssignment, error)

	// ListFinishedInRange retrieves COMPLETED and NO_SHOW assignments with
	// dates in [from,to]; the violation detector's read set.
	ListFinishedInRange(ctx context.Context, from, to time.Time) ([]ShiftAssignment, error)
}
