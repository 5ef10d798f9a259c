package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/assignment"
	"github.com/classboard/backoffice-go/internal/domain/template"
	"github.com/classboard/backoffice-go/internal/pkg/locker"
	"github.com/classboard/backoffice-go/internal/repository/memory"
	"github.com/classboard/backoffice-go/internal/service/conflict"
)

var scheduler = actor.Actor{
	UserID:       "user-sched",
	Capabilities: []actor.Capability{actor.CapabilityAssignmentWrite},
}

type fixture struct {
	svc            assignment.AssignmentService
	assignmentRepo *memory.AssignmentRepository
	templateRepo   *memory.TemplateRepository
	clock          *fakeClock
}

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	assignmentRepo := memory.NewAssignmentRepository()
	templateRepo := memory.NewTemplateRepository()
	detector := conflict.NewDetector(assignmentRepo, memory.NewAbsenceRepository())
	clock := &fakeClock{current: time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)}

	svc := NewAssignmentService(assignmentRepo, templateRepo, detector, locker.NewKeyedMutex(), 120, clock.Now)

	return &fixture{
		svc:            svc,
		assignmentRepo: assignmentRepo,
		templateRepo:   templateRepo,
		clock:          clock,
	}
}

func (f *fixture) seedTemplate(t *testing.T, name string, startHour, endHour int, overtimeEligible bool) template.ShiftTemplate {
	t.Helper()
	created, err := f.templateRepo.Create(context.Background(), template.ShiftTemplate{
		Name:             name,
		StartTime:        time.Date(0, 1, 1, startHour, 0, 0, 0, time.UTC),
		EndTime:          time.Date(0, 1, 1, endHour, 0, 0, 0, time.UTC),
		HasBreak:         true,
		BreakMinutes:     60,
		OvertimeEligible: overtimeEligible,
		Active:           true,
	})
	require.NoError(t, err)
	return created
}

func TestAssignmentService_Create_Success(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	tpl := f.seedTemplate(t, "Morning", 8, 16, true)

	created, err := f.svc.CreateAssignment(ctx, scheduler, assignment.CreateAssignmentRequest{
		EmployeeID: "emp-1",
		TemplateID: tpl.ID,
		Date:       "2026-03-02",
	})
	require.NoError(t, err)

	assert.Equal(t, string(assignment.StatusScheduled), created.Status)
	assert.Equal(t, "2026-03-02", created.Date)
	assert.Equal(t, "2026-03-02T08:00:00Z", created.PlannedStart)
	assert.Equal(t, "2026-03-02T16:00:00Z", created.PlannedEnd)
}

func TestAssignmentService_Create_InactiveTemplate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	tpl := f.seedTemplate(t, "Morning", 8, 16, false)

	tpl.Active = false
	require.NoError(t, f.templateRepo.Update(ctx, tpl))

	_, err := f.svc.CreateAssignment(ctx, scheduler, assignment.CreateAssignmentRequest{
		EmployeeID: "emp-1",
		TemplateID: tpl.ID,
		Date:       "2026-03-02",
	})
	assert.ErrorIs(t, err, template.ErrTemplateInactive)
}

// recordingSection wraps a keyed mutex and counts entries so tests can
// assert the guarded path actually runs inside the critical section.
type recordingSection struct {
	inner   *locker.KeyedMutex
	entries int
}

func (r *recordingSection) Locked(ctx context.Context, employeeID string, date time.Time, fn func(ctx context.Context) error) error {
	r.entries++
	return r.inner.Locked(ctx, employeeID, date, fn)
}

func TestAssignmentService_Create_RunsInCriticalSection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	assignmentRepo := memory.NewAssignmentRepository()
	templateRepo := memory.NewTemplateRepository()
	detector := conflict.NewDetector(assignmentRepo, memory.NewAbsenceRepository())
	section := &recordingSection{inner: locker.NewKeyedMutex()}
	clock := &fakeClock{current: time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)}

	svc := NewAssignmentService(assignmentRepo, templateRepo, detector, section, 120, clock.Now)

	tpl, err := templateRepo.Create(ctx, template.ShiftTemplate{
		Name:      "Morning",
		StartTime: time.Date(0, 1, 1, 8, 0, 0, 0, time.UTC),
		EndTime:   time.Date(0, 1, 1, 16, 0, 0, 0, time.UTC),
		Active:    true,
	})
	require.NoError(t, err)

	_, err = svc.CreateAssignment(ctx, scheduler, assignment.CreateAssignmentRequest{
		EmployeeID: "emp-1",
		TemplateID: tpl.ID,
		Date:       "2026-03-02",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, section.entries)

	// The conflicting second create also goes through the section; the
	// conflict is detected inside it.
	_, err = svc.CreateAssignment(ctx, scheduler, assignment.CreateAssignmentRequest{
		EmployeeID: "emp-1",
		TemplateID: tpl.ID,
		Date:       "2026-03-02",
	})
	require.Error(t, err)
	assert.Equal(t, 2, section.entries)
}

func TestAssignmentService_Create_ConflictReportsAllOverlaps(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	morning := f.seedTemplate(t, "Morning", 8, 16, false)
	overlapping := f.seedTemplate(t, "Midday", 10, 18, false)

	first, err := f.svc.CreateAssignment(ctx, scheduler, assignment.CreateAssignmentRequest{
		EmployeeID: "emp-1",
		TemplateID: morning.ID,
		Date:       "2026-03-02",
	})
	require.NoError(t, err)

	_, err = f.svc.CreateAssignment(ctx, scheduler, assignment.CreateAssignmentRequest{
		EmployeeID: "emp-1",
		TemplateID: overlapping.ID,
		Date:       "2026-03-02",
	})
	require.Error(t, err)

	var conflictErr *assignment.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Len(t, conflictErr.Conflicts, 1)
	assert.Equal(t, first.ID, conflictErr.Conflicts[0].AssignmentID)
}

func TestAssignmentService_Create_BackToBackAllowed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	morning := f.seedTemplate(t, "Morning", 8, 12, false)
	afternoon := f.seedTemplate(t, "Afternoon", 12, 16, false)

	_, err := f.svc.CreateAssignment(ctx, scheduler, assignment.CreateAssignmentRequest{
		EmployeeID: "emp-1",
		TemplateID: morning.ID,
		Date:       "2026-03-02",
	})
	require.NoError(t, err)

	_, err = f.svc.CreateAssignment(ctx, scheduler, assignment.CreateAssignmentRequest{
		EmployeeID: "emp-1",
		TemplateID: afternoon.ID,
		Date:       "2026-03-02",
	})
	assert.NoError(t, err)
}

func TestAssignmentService_BulkCreate_PartialFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	tpl := f.seedTemplate(t, "Morning", 8, 16, false)

	resp, err := f.svc.BulkCreateAssignments(ctx, scheduler, assignment.BulkCreateAssignmentsRequest{
		Items: []assignment.CreateAssignmentRequest{
			{EmployeeID: "emp-1", TemplateID: tpl.ID, Date: "2026-03-02"},
			{EmployeeID: "emp-1", TemplateID: tpl.ID, Date: "2026-03-03"},
			// Same employee, same date as the first item: conflict.
			{EmployeeID: "emp-1", TemplateID: tpl.ID, Date: "2026-03-02"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Results, 3)
	assert.True(t, resp.Results[0].Success)
	assert.True(t, resp.Results[1].Success)
	assert.False(t, resp.Results[2].Success)
	assert.NotEmpty(t, resp.Results[2].Conflicts)
}

func TestAssignmentService_BulkCreate_AtomicRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	tpl := f.seedTemplate(t, "Morning", 8, 16, false)

	resp, err := f.svc.BulkCreateAssignments(ctx, scheduler, assignment.BulkCreateAssignmentsRequest{
		Atomic: true,
		Items: []assignment.CreateAssignmentRequest{
			{EmployeeID: "emp-1", TemplateID: tpl.ID, Date: "2026-03-02"},
			{EmployeeID: "emp-1", TemplateID: tpl.ID, Date: "2026-03-02"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)

	// The first item was created and then rolled back to CANCELLED.
	id := resp.Results[0].Assignment.ID
	rolled, err := f.assignmentRepo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusCancelled, rolled.Status)
}

func TestAssignmentService_CheckInCheckOut_ComputesWorkedMinutes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	tpl := f.seedTemplate(t, "Morning", 8, 16, true)

	created, err := f.svc.CreateAssignment(ctx, scheduler, assignment.CreateAssignmentRequest{
		EmployeeID: "emp-1",
		TemplateID: tpl.ID,
		Date:       "2026-03-02",
	})
	require.NoError(t, err)

	worker := actor.Actor{
		UserID:       "user-emp-1",
		EmployeeID:   "emp-1",
		Capabilities: []actor.Capability{actor.CapabilitySelfCheckIn},
	}

	f.clock.current = time.Date(2026, 3, 2, 8, 10, 0, 0, time.UTC)
	location := "main-gate"
	checkedIn, err := f.svc.CheckIn(ctx, worker, assignment.CheckInRequest{ID: created.ID, Location: &location})
	require.NoError(t, err)
	assert.Equal(t, string(assignment.StatusCheckedIn), checkedIn.Status)
	require.NotNil(t, checkedIn.CheckInTime)

	f.clock.current = time.Date(2026, 3, 2, 15, 50, 0, 0, time.UTC)
	completed, err := f.svc.CheckOut(ctx, worker, assignment.CheckOutRequest{ID: created.ID})
	require.NoError(t, err)

	assert.Equal(t, string(assignment.StatusCompleted), completed.Status)
	require.NotNil(t, completed.WorkedMinutes)
	assert.Equal(t, 460, *completed.WorkedMinutes)
	// 460 worked > 420 regular on an overtime-eligible template.
	assert.True(t, completed.IsOvertime)
}

func TestAssignmentService_CheckIn_OnlyOwner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	tpl := f.seedTemplate(t, "Morning", 8, 16, false)

	created, err := f.svc.CreateAssignment(ctx, scheduler, assignment.CreateAssignmentRequest{
		EmployeeID: "emp-1",
		TemplateID: tpl.ID,
		Date:       "2026-03-02",
	})
	require.NoError(t, err)

	other := actor.Actor{
		UserID:       "user-emp-2",
		EmployeeID:   "emp-2",
		Capabilities: []actor.Capability{actor.CapabilitySelfCheckIn},
	}
	_, err = f.svc.CheckIn(ctx, other, assignment.CheckInRequest{ID: created.ID})
	assert.ErrorIs(t, err, actor.ErrForbidden)
}

func TestAssignmentService_CheckIn_Twice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	tpl := f.seedTemplate(t, "Morning", 8, 16, false)

	created, err := f.svc.CreateAssignment(ctx, scheduler, assignment.CreateAssignmentRequest{
		EmployeeID: "emp-1",
		TemplateID: tpl.ID,
		Date:       "2026-03-02",
	})
	require.NoError(t, err)

	worker := actor.Actor{
		UserID:       "user-emp-1",
		EmployeeID:   "emp-1",
		Capabilities: []actor.Capability{actor.CapabilitySelfCheckIn},
	}
	_, err = f.svc.CheckIn(ctx, worker, assignment.CheckInRequest{ID: created.ID})
	require.NoError(t, err)

	_, err = f.svc.CheckIn(ctx, worker, assignment.CheckInRequest{ID: created.ID})
	assert.ErrorIs(t, err, assignment.ErrAlreadyCheckedIn)
}

func TestAssignmentService_CheckOut_WithoutCheckIn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	tpl := f.seedTemplate(t, "Morning", 8, 16, false)

	created, err := f.svc.CreateAssignment(ctx, scheduler, assignment.CreateAssignmentRequest{
		EmployeeID: "emp-1",
		TemplateID: tpl.ID,
		Date:       "2026-03-02",
	})
	require.NoError(t, err)

	worker := actor.Actor{
		UserID:       "user-emp-1",
		EmployeeID:   "emp-1",
		Capabilities: []actor.Capability{actor.CapabilitySelfCheckIn},
	}
	_, err = f.svc.CheckOut(ctx, worker, assignment.CheckOutRequest{ID: created.ID})
	assert.ErrorIs(t, err, assignment.ErrNotCheckedIn)
}

func TestAssignmentService_Cancel_RequiresReason(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	tpl := f.seedTemplate(t, "Morning", 8, 16, false)

	created, err := f.svc.CreateAssignment(ctx, scheduler, assignment.CreateAssignmentRequest{
		EmployeeID: "emp-1",
		TemplateID: tpl.ID,
		Date:       "2026-03-02",
	})
	require.NoError(t, err)

	_, err = f.svc.CancelAssignment(ctx, scheduler, assignment.CancelAssignmentRequest{ID: created.ID})
	require.Error(t, err)

	cancelled, err := f.svc.CancelAssignment(ctx, scheduler, assignment.CancelAssignmentRequest{
		ID:     created.ID,
		Reason: "employee reassigned",
	})
	require.NoError(t, err)
	assert.Equal(t, string(assignment.StatusCancelled), cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "employee reassigned", *cancelled.CancelReason)
}

func TestAssignmentService_Cancel_TerminalRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	tpl := f.seedTemplate(t, "Morning", 8, 16, false)

	created, err := f.svc.CreateAssignment(ctx, scheduler, assignment.CreateAssignmentRequest{
		EmployeeID: "emp-1",
		TemplateID: tpl.ID,
		Date:       "2026-03-02",
	})
	require.NoError(t, err)

	_, err = f.svc.CancelAssignment(ctx, scheduler, assignment.CancelAssignmentRequest{
		ID:     created.ID,
		Reason: "first cancellation",
	})
	require.NoError(t, err)

	_, err = f.svc.CancelAssignment(ctx, scheduler, assignment.CancelAssignmentRequest{
		ID:     created.ID,
		Reason: "second cancellation",
	})
	assert.ErrorIs(t, err, assignment.ErrAlreadyFinished)
}

func TestAssignmentService_MarkNoShows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	tpl := f.seedTemplate(t, "Morning", 8, 16, false)

	stale, err := f.svc.CreateAssignment(ctx, scheduler, assignment.CreateAssignmentRequest{
		EmployeeID: "emp-1",
		TemplateID: tpl.ID,
		Date:       "2026-03-02",
	})
	require.NoError(t, err)
	fresh, err := f.svc.CreateAssignment(ctx, scheduler, assignment.CreateAssignmentRequest{
		EmployeeID: "emp-2",
		TemplateID: tpl.ID,
		Date:       "2026-03-03",
	})
	require.NoError(t, err)

	// 2026-03-02 16:00 end + 120m grace has passed; 2026-03-03 has not.
	marked, err := f.svc.MarkNoShows(ctx, time.Date(2026, 3, 2, 18, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	got, err := f.assignmentRepo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusNoShow, got.Status)

	got, err = f.assignmentRepo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusScheduled, got.Status)

	// Re-running the sweep finds nothing new.
	marked, err = f.svc.MarkNoShows(ctx, time.Date(2026, 3, 2, 18, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, marked)
}
