package schedule

import (
	"context"
	"time"

	"github.com/classboard/backoffice-go/internal/domain/actor"
)

// ScheduleService defines business logic for the shift schedule lifecycle.
type ScheduleService interface {
	// CreateSchedule creates an empty DRAFT schedule.
	CreateSchedule(ctx context.Context, caller actor.Actor, req CreateScheduleRequest) (ScheduleResponse, error)

	// UpdateSchedule edits a DRAFT schedule's name or date range.
	UpdateSchedule(ctx context.Context, caller actor.Actor, req UpdateScheduleRequest) (ScheduleResponse, error)

	// DeleteSchedule removes a DRAFT schedule that owns zero assignments.
	DeleteSchedule(ctx context.Context, caller actor.Actor, id string) error

	GetSchedule(ctx context.Context, id string) (ScheduleResponse, error)

	ListSchedules(ctx context.Context, filter ScheduleFilter) (ListSchedulesResponse, error)

	// PublishSchedule re-validates every contained assignment against other
	// schedules' assignments and moves the schedule to PUBLISHED. Fails with
	// ErrScheduleHasConflicts listing the offending assignments.
	PublishSchedule(ctx context.Context, caller actor.Actor, id string) (ScheduleResponse, error)

	// ArchiveSchedule moves a PUBLISHED schedule to ARCHIVED.
	ArchiveSchedule(ctx context.Context, caller actor.Actor, id string) (ScheduleResponse, error)

	// CancelSchedule moves a DRAFT or PUBLISHED schedule to CANCELLED and
	// soft-cancels every non-terminal assignment it owns. The cascade is
	// per-item: one assignment's failure is logged and does not abort the
	// rest.
	CancelSchedule(ctx context.Context, caller actor.Actor, req CancelScheduleRequest) (ScheduleResponse, error)

	// GenerateSchedule expands a weekday mapping over the date range into a
	// new DRAFT schedule full of SCHEDULED assignments. Conflicting items
	// are skipped and reported, never silently dropped.
	GenerateSchedule(ctx context.Context, caller actor.Actor, req GenerateScheduleRequest) (GenerateResult, error)

	// CopySchedule clones the source schedule's weekday/template mapping
	// onto a new date range, landing in DRAFT.
	CopySchedule(ctx context.Context, caller actor.Actor, req CopyScheduleRequest) (GenerateResult, error)

	// AutoArchive moves PUBLISHED schedules whose end date is more than
	// retainDays in the past to ARCHIVED. Returns the number archived.
	AutoArchive(ctx context.Context, now time.Time, retainDays int) (int, error)
}
