package conflict

import (
	"context"
	"fmt"
	"time"

	"github.com/classboard/backoffice-go/internal/domain/absence"
	"github.com/classboard/backoffice-go/internal/domain/assignment"
)

type DetectorImpl struct {
	assignmentRepo assignment.AssignmentRepository
	absenceRepo    absence.Repository
}

func NewDetector(
	assignmentRepo assignment.AssignmentRepository,
	absenceRepo absence.Repository,
) assignment.ConflictDetector {
	return &DetectorImpl{
		assignmentRepo: assignmentRepo,
		absenceRepo:    absenceRepo,
	}
}

// Check implements assignment.ConflictDetector.
func (d *DetectorImpl) Check(ctx context.Context, employeeID string, date time.Time, window assignment.Window) (assignment.ConflictCheckResult, error) {
	return d.check(ctx, employeeID, date, window, "")
}

// CheckExcludingSchedule implements assignment.ConflictDetector.
func (d *DetectorImpl) CheckExcludingSchedule(ctx context.Context, employeeID string, date time.Time, window assignment.Window, scheduleID string) (assignment.ConflictCheckResult, error) {
	return d.check(ctx, employeeID, date, window, scheduleID)
}

func (d *DetectorImpl) check(ctx context.Context, employeeID string, date time.Time, window assignment.Window, excludeScheduleID string) (assignment.ConflictCheckResult, error) {
	var conflicts []assignment.ConflictRef

	existing, err := d.assignmentRepo.ListActiveByEmployeeAndDate(ctx, employeeID, date)
	if err != nil {
		return assignment.ConflictCheckResult{}, fmt.Errorf("failed to load existing assignments: %w", err)
	}

	for _, a := range existing {
		if excludeScheduleID != "" && a.ScheduleID != nil && *a.ScheduleID == excludeScheduleID {
			continue
		}
		if window.Overlaps(a.PlannedWindow()) {
			conflicts = append(conflicts, assignment.ConflictRef{
				Kind:         assignment.ConflictKindAssignment,
				AssignmentID: a.ID,
				ScheduleID:   a.ScheduleID,
				Window:       a.PlannedWindow(),
			})
		}
	}

	// An approved absence blocks the whole day regardless of the window.
	absences, err := d.absenceRepo.ListApprovedByEmployeeAndDate(ctx, employeeID, date)
	if err != nil {
		return assignment.ConflictCheckResult{}, fmt.Errorf("failed to load approved absences: %w", err)
	}

	for _, ab := range absences {
		dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		conflicts = append(conflicts, assignment.ConflictRef{
			Kind:      assignment.ConflictKindAbsence,
			AbsenceID: ab.ID,
			Window:    assignment.Window{Start: dayStart, End: dayStart.AddDate(0, 0, 1)},
		})
	}

	return assignment.ConflictCheckResult{
		HasConflict: len(conflicts) > 0,
		Conflicts:   conflicts,
	}, nil
}
