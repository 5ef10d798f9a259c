package violation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/assignment"
	"github.com/classboard/backoffice-go/internal/domain/violation"
	"github.com/classboard/backoffice-go/internal/repository/memory"
)

var reviewer = actor.Actor{
	UserID:       "user-rev",
	Capabilities: []actor.Capability{actor.CapabilityViolationReview},
}

type fixture struct {
	svc            violation.ViolationService
	violationRepo  *memory.ViolationRepository
	assignmentRepo *memory.AssignmentRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	violationRepo := memory.NewViolationRepository()
	assignmentRepo := memory.NewAssignmentRepository()
	now := func() time.Time { return time.Date(2026, 3, 3, 2, 0, 0, 0, time.UTC) }

	svc := NewViolationService(violationRepo, memory.NewExplanationRepository(), assignmentRepo, 10, 10, now)

	return &fixture{svc: svc, violationRepo: violationRepo, assignmentRepo: assignmentRepo}
}

func (f *fixture) seedFinished(t *testing.T, employeeID string, status assignment.Status, checkIn, checkOut *time.Time) assignment.ShiftAssignment {
	t.Helper()
	created, err := f.assignmentRepo.Create(context.Background(), assignment.ShiftAssignment{
		EmployeeID:   employeeID,
		TemplateID:   "tpl-1",
		Date:         time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		PlannedStart: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		PlannedEnd:   time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC),
		Status:       status,
		CheckInTime:  checkIn,
		CheckOutTime: checkOut,
	})
	require.NoError(t, err)
	return created
}

func timePtr(t time.Time) *time.Time { return &t }

func sweep(t *testing.T, f *fixture) violation.DetectionResult {
	t.Helper()
	result, err := f.svc.DetectViolations(context.Background(),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return result
}

func TestViolationService_Detect_NoShowBecomesAbsent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := f.seedFinished(t, "emp-1", assignment.StatusNoShow, nil, nil)

	result := sweep(t, f)

	assert.Equal(t, 1, result.Inspected)
	require.Len(t, result.Created, 1)
	created := result.Created[0]
	assert.Equal(t, string(violation.TypeAbsent), created.Type)
	assert.Equal(t, a.ID, created.AssignmentID)
	// The full planned window is charged: 08:00-16:00.
	assert.Equal(t, 480, created.Minutes)
	assert.Equal(t, string(violation.StatusPendingExplanation), created.Status)
}

func TestViolationService_Detect_LateBeyondTolerance(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seedFinished(t, "emp-1", assignment.StatusCompleted,
		timePtr(time.Date(2026, 3, 2, 8, 25, 0, 0, time.UTC)),
		timePtr(time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)))

	result := sweep(t, f)

	require.Len(t, result.Created, 1)
	assert.Equal(t, string(violation.TypeLate), result.Created[0].Type)
	// Charged in full, not tolerance-reduced.
	assert.Equal(t, 25, result.Created[0].Minutes)
}

func TestViolationService_Detect_WithinToleranceIsClean(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seedFinished(t, "emp-1", assignment.StatusCompleted,
		timePtr(time.Date(2026, 3, 2, 8, 10, 0, 0, time.UTC)),
		timePtr(time.Date(2026, 3, 2, 15, 50, 0, 0, time.UTC)))

	result := sweep(t, f)

	assert.Equal(t, 1, result.Inspected)
	assert.Empty(t, result.Created)
}

func TestViolationService_Detect_LateAndEarlyLeaveTogether(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seedFinished(t, "emp-1", assignment.StatusCompleted,
		timePtr(time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)),
		timePtr(time.Date(2026, 3, 2, 15, 15, 0, 0, time.UTC)))

	result := sweep(t, f)

	require.Len(t, result.Created, 2)
	types := []string{result.Created[0].Type, result.Created[1].Type}
	assert.Contains(t, types, string(violation.TypeLate))
	assert.Contains(t, types, string(violation.TypeEarlyLeave))
}

func TestViolationService_Detect_Idempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seedFinished(t, "emp-1", assignment.StatusNoShow, nil, nil)

	first := sweep(t, f)
	require.Len(t, first.Created, 1)

	second := sweep(t, f)
	assert.Empty(t, second.Created)
	assert.Equal(t, 1, second.Skipped)
}

func TestViolationService_Resolve_RequiresNotes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.seedFinished(t, "emp-1", assignment.StatusNoShow, nil, nil)
	created := sweep(t, f).Created[0]

	_, err := f.svc.ResolveViolation(ctx, reviewer, violation.ResolveViolationRequest{ID: created.ID})
	require.Error(t, err)

	resolved, err := f.svc.ResolveViolation(ctx, reviewer, violation.ResolveViolationRequest{
		ID:    created.ID,
		Notes: "hardware failure at the gate, confirmed by facilities",
	})
	require.NoError(t, err)
	assert.Equal(t, string(violation.StatusResolved), resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, "user-rev", *resolved.ResolvedBy)
}

func TestViolationService_Resolve_TwiceRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.seedFinished(t, "emp-1", assignment.StatusNoShow, nil, nil)
	created := sweep(t, f).Created[0]

	_, err := f.svc.ResolveViolation(ctx, reviewer, violation.ResolveViolationRequest{
		ID:    created.ID,
		Notes: "first resolution",
	})
	require.NoError(t, err)

	_, err = f.svc.ResolveViolation(ctx, reviewer, violation.ResolveViolationRequest{
		ID:    created.ID,
		Notes: "second resolution",
	})
	assert.ErrorIs(t, err, violation.ErrInvalidTransition)
}

func TestViolationService_Escalate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.seedFinished(t, "emp-1", assignment.StatusNoShow, nil, nil)
	created := sweep(t, f).Created[0]

	escalated, err := f.svc.EscalateViolation(ctx, reviewer, violation.EscalateViolationRequest{
		ID:    created.ID,
		Notes: "third unexplained absence this month",
	})
	require.NoError(t, err)
	assert.Equal(t, string(violation.StatusEscalated), escalated.Status)
	require.NotNil(t, escalated.EscalatedBy)
	assert.Equal(t, "user-rev", *escalated.EscalatedBy)
	assert.NotNil(t, escalated.EscalatedAt)

	_, err = f.svc.EscalateViolation(ctx, reviewer, violation.EscalateViolationRequest{
		ID:    created.ID,
		Notes: "again",
	})
	assert.ErrorIs(t, err, violation.ErrInvalidTransition)
}

func TestViolationService_FindOverdue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.seedFinished(t, "emp-1", assignment.StatusNoShow, nil, nil)
	created := sweep(t, f).Created[0]

	// Detected 2026-03-03; three days later it is not yet overdue with a
	// 3-day SLA, a week later it is.
	overdue, err := f.svc.FindOverdue(ctx, 3, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, overdue)

	overdue, err = f.svc.FindOverdue(ctx, 3, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, created.ID, overdue[0].ID)
}

func TestViolationService_GetStatistics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.seedFinished(t, "emp-1", assignment.StatusNoShow, nil, nil)
	f.seedFinished(t, "emp-1", assignment.StatusCompleted,
		timePtr(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)),
		timePtr(time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)))
	sweep(t, f)

	stats, err := f.svc.GetStatistics(ctx, "emp-1",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.CountsByType[string(violation.TypeAbsent)])
	assert.Equal(t, 1, stats.CountsByType[string(violation.TypeLate)])
}
