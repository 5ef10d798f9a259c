package conflict

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classboard/backoffice-go/internal/domain/absence"
	"github.com/classboard/backoffice-go/internal/domain/assignment"
	"github.com/classboard/backoffice-go/internal/repository/memory"
)

func seedAssignment(t *testing.T, repo *memory.AssignmentRepository, employeeID string, date time.Time, startHour, endHour int) assignment.ShiftAssignment {
	t.Helper()
	created, err := repo.Create(context.Background(), assignment.ShiftAssignment{
		EmployeeID:   employeeID,
		TemplateID:   "tpl-1",
		Date:         date,
		PlannedStart: time.Date(date.Year(), date.Month(), date.Day(), startHour, 0, 0, 0, time.UTC),
		PlannedEnd:   time.Date(date.Year(), date.Month(), date.Day(), endHour, 0, 0, 0, time.UTC),
		Status:       assignment.StatusScheduled,
	})
	require.NoError(t, err)
	return created
}

func windowOn(date time.Time, startHour, endHour int) assignment.Window {
	return assignment.Window{
		Start: time.Date(date.Year(), date.Month(), date.Day(), startHour, 0, 0, 0, time.UTC),
		End:   time.Date(date.Year(), date.Month(), date.Day(), endHour, 0, 0, 0, time.UTC),
	}
}

func TestDetector_Check_NoConflictOnEmptyDay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	detector := NewDetector(memory.NewAssignmentRepository(), memory.NewAbsenceRepository())
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	result, err := detector.Check(ctx, "emp-1", date, windowOn(date, 8, 16))
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
	assert.Empty(t, result.Conflicts)
}

func TestDetector_Check_TouchingBoundariesDoNotConflict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	assignmentRepo := memory.NewAssignmentRepository()
	detector := NewDetector(assignmentRepo, memory.NewAbsenceRepository())
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	// Existing morning shift 08:00-12:00; proposed 12:00-16:00 touches it.
	seedAssignment(t, assignmentRepo, "emp-1", date, 8, 12)

	result, err := detector.Check(ctx, "emp-1", date, windowOn(date, 12, 16))
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
}

func TestDetector_Check_OverlapReturnsAllConflicts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	assignmentRepo := memory.NewAssignmentRepository()
	detector := NewDetector(assignmentRepo, memory.NewAbsenceRepository())
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	first := seedAssignment(t, assignmentRepo, "emp-1", date, 8, 12)
	second := seedAssignment(t, assignmentRepo, "emp-1", date, 12, 16)

	// 11:00-13:00 overlaps both existing shifts.
	result, err := detector.Check(ctx, "emp-1", date, windowOn(date, 11, 13))
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
	require.Len(t, result.Conflicts, 2)

	ids := []string{result.Conflicts[0].AssignmentID, result.Conflicts[1].AssignmentID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
}

func TestDetector_Check_CancelledAssignmentsIgnored(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	assignmentRepo := memory.NewAssignmentRepository()
	detector := NewDetector(assignmentRepo, memory.NewAbsenceRepository())
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	existing := seedAssignment(t, assignmentRepo, "emp-1", date, 8, 16)
	existing.Status = assignment.StatusCancelled
	require.NoError(t, assignmentRepo.Update(ctx, existing, assignment.StatusScheduled))

	result, err := detector.Check(ctx, "emp-1", date, windowOn(date, 9, 17))
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
}

func TestDetector_Check_OtherEmployeeDoesNotConflict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	assignmentRepo := memory.NewAssignmentRepository()
	detector := NewDetector(assignmentRepo, memory.NewAbsenceRepository())
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	seedAssignment(t, assignmentRepo, "emp-2", date, 8, 16)

	result, err := detector.Check(ctx, "emp-1", date, windowOn(date, 8, 16))
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
}

func TestDetector_Check_ApprovedAbsenceBlocksWholeDay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	absenceRepo := memory.NewAbsenceRepository()
	detector := NewDetector(memory.NewAssignmentRepository(), absenceRepo)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	ab := absenceRepo.Add(absence.ApprovedAbsence{
		EmployeeID: "emp-1",
		StartDate:  date,
		EndDate:    date.AddDate(0, 0, 2),
		Reason:     "sick leave",
	})

	result, err := detector.Check(ctx, "emp-1", date, windowOn(date, 22, 23))
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, assignment.ConflictKindAbsence, result.Conflicts[0].Kind)
	assert.Equal(t, ab.ID, result.Conflicts[0].AbsenceID)
}

func TestDetector_CheckExcludingSchedule_IgnoresOwnRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	assignmentRepo := memory.NewAssignmentRepository()
	detector := NewDetector(assignmentRepo, memory.NewAbsenceRepository())
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	scheduleID := "11111111-1111-1111-1111-111111111111"
	owned, err := assignmentRepo.Create(ctx, assignment.ShiftAssignment{
		EmployeeID:   "emp-1",
		ScheduleID:   &scheduleID,
		TemplateID:   "tpl-1",
		Date:         date,
		PlannedStart: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		PlannedEnd:   time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC),
		Status:       assignment.StatusScheduled,
	})
	require.NoError(t, err)

	result, err := detector.CheckExcludingSchedule(ctx, "emp-1", date, owned.PlannedWindow(), scheduleID)
	require.NoError(t, err)
	assert.False(t, result.HasConflict)

	// The same window still conflicts when checked without the exclusion.
	result, err = detector.Check(ctx, "emp-1", date, owned.PlannedWindow())
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
}
