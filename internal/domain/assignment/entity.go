package assignment

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusCheckedOut Status = "CHECKED_OUT"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusNoShow     Status = "NO_SHOW"
)

var StatusValues = []string{
	string(StatusScheduled),
	string(StatusCheckedIn),
	string(StatusCheckedOut),
	string(StatusCompleted),
	string(StatusCancelled),
	string(StatusNoShow),
}

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// Window is a half-open [Start,End) time interval on one date.
type Window struct {
	Start time.Time
	End   time.Time
}

// Overlaps implements the half-open interval rule: [a1,a2) and [b1,b2)
// conflict iff a1 < b2 AND b1 < a2. Touching boundaries (a2 == b1) do not
// overlap, which allows back-to-back shifts.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

func (w Window) Minutes() int {
	return int(w.End.Sub(w.Start).Minutes())
}

// ShiftAssignment is one employee's commitment to work one template-shaped
// shift on one date. The planned window is derived from template + date at
// creation time and is immutable afterwards, so later template edits never
// rewrite history.
type ShiftAssignment struct {
	ID           string
	EmployeeID   string
	ScheduleID   *string
	TemplateID   string
	Date         time.Time
	PlannedStart time.Time
	PlannedEnd   time.Time
	Status       Status

	CheckInTime      *time.Time
	CheckInLocation  *string
	CheckOutTime     *time.Time
	CheckOutLocation *string

	WorkedMinutes *int
	IsOvertime    bool

	CancelReason *string

	// Audit trail: actor and timestamp of the last status transition.
	StatusChangedBy *string
	StatusChangedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlannedWindow returns the derived [PlannedStart,PlannedEnd) interval.
func (a ShiftAssignment) PlannedWindow() Window {
	return Window{Start: a.PlannedStart, End: a.PlannedEnd}
}

// ConflictKind distinguishes assignment overlaps from absence coverage.
type ConflictKind string

const (
	ConflictKindAssignment ConflictKind = "assignment"
	ConflictKindAbsence    ConflictKind = "absence"
)

// ConflictRef identifies one conflicting entry for a proposed window.
type ConflictRef struct {
	Kind         ConflictKind `json:"kind"`
	AssignmentID string       `json:"assignment_id,omitempty"`
	AbsenceID    string       `json:"absence_id,omitempty"`
	ScheduleID   *string      `json:"schedule_id,omitempty"`
	Window       Window       `json:"window"`
}

// ConflictError reports every overlap found for a proposed window, not just
// the first.
type ConflictError struct {
	EmployeeID string
	Date       time.Time
	Conflicts  []ConflictRef
}

func (e *ConflictError) Error() string {
	refs := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		if c.Kind == ConflictKindAbsence {
			refs = append(refs, "absence "+c.AbsenceID)
		} else {
			refs = append(refs, "assignment "+c.AssignmentID)
		}
	}
	return fmt.Sprintf("employee %s has %d conflicting entries on %s: %s",
		e.EmployeeID, len(e.Conflicts), e.Date.Format("2006-01-02"), strings.Join(refs, ", "))
}
