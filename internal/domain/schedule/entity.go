package schedule

import "time"

type Type string

const (
	TypeWeekly  Type = "WEEKLY"
	TypeMonthly Type = "MONTHLY"
	TypeCustom  Type = "CUSTOM"
)

var TypeValues = []string{
	string(TypeWeekly),
	string(TypeMonthly),
	string(TypeCustom),
}

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusArchived  Status = "ARCHIVED"
	StatusCancelled Status = "CANCELLED"
)

var StatusValues = []string{
	string(StatusDraft),
	string(StatusPublished),
	string(StatusArchived),
	string(StatusCancelled),
}

func (s Status) Terminal() bool {
	return s == StatusArchived || s == StatusCancelled
}

// ShiftSchedule groups assignments under one named plan with a
// draft/publish lifecycle. Only DRAFT schedules accept structural edits;
// PUBLISHED schedules move only to ARCHIVED or CANCELLED.
type ShiftSchedule struct {
	ID           string
	Name         string
	Type         Type
	Status       Status
	StartDate    time.Time
	EndDate      time.Time
	CreatedBy    string
	PublishedAt  *time.Time
	CancelReason *string

	StatusChangedBy *string
	StatusChangedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanTransitionTo encodes the schedule state machine.
func (s ShiftSchedule) CanTransitionTo(next Status) bool {
	switch s.Status {
	case StatusDraft:
		return next == StatusPublished || next == StatusCancelled
	case StatusPublished:
		return next == StatusArchived || next == StatusCancelled
	default:
		return false
	}
}
