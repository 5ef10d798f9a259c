package schedule

import (
	"context"
	"time"
)

// ScheduleRepository defines data access for shift schedules.
type ScheduleRepository interface {
	Create(ctx context.Context, s ShiftSchedule) (ShiftSchedule, error)

	GetByID(ctx context.Context, id string) (ShiftSchedule, error)

	// Update persists the schedule iff its stored status still equals
	// expected (compare-and-swap). Returns ErrStaleState when the row was
	// modified concurrently.
	Update(ctx context.Context, s ShiftSchedule, expected Status) error

	Delete(ctx context.Context, id string) error

	List(ctx context.Context, filter ScheduleFilter) ([]ShiftSchedule, int64, error)

	// ListPublishedEndedBefore retrieves PUBLISHED schedules whose end date
	// precedes the cutoff; the auto-archive sweep's read set.
	ListPublishedEndedBefore(ctx context.Context, cutoff time.Time) ([]ShiftSchedule, error)
}
