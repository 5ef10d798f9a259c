package swap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/assignment"
	"github.com/classboard/backoffice-go/internal/domain/swap"
	"github.com/classboard/backoffice-go/internal/pkg/locker"
	"github.com/classboard/backoffice-go/internal/repository/memory"
	"github.com/classboard/backoffice-go/internal/service/conflict"
)

var (
	requester = actor.Actor{
		UserID:       "user-1",
		EmployeeID:   "emp-1",
		Capabilities: []actor.Capability{actor.CapabilitySwapRequest},
	}
	target = actor.Actor{
		UserID:       "user-2",
		EmployeeID:   "emp-2",
		Capabilities: []actor.Capability{actor.CapabilitySwapRequest},
	}
	manager = actor.Actor{
		UserID:       "user-mgr",
		Capabilities: []actor.Capability{actor.CapabilitySwapDecide},
	}
)

type fixture struct {
	svc            swap.SwapService
	swapRepo       *memory.SwapRepository
	assignmentRepo *memory.AssignmentRepository
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

	swapRepo := memory.NewSwapRepository()
	assignmentRepo := memory.NewAssignmentRepository()
	detector := conflict.NewDetector(assignmentRepo, memory.NewAbsenceRepository())
	clock := &fakeClock{current: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	svc := NewSwapService(swapRepo, assignmentRepo, detector, locker.NewKeyedMutex(), clock.Now)

	return &fixture{
		svc:            svc,
		swapRepo:       swapRepo,
		assignmentRepo: assignmentRepo,
		clock:          clock,
	}
}

func (f *fixture) seedAssignment(t *testing.T, employeeID, templateID string, day, startHour, endHour int) assignment.ShiftAssignment {
	t.Helper()
	date := time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC)
	created, err := f.assignmentRepo.Create(context.Background(), assignment.ShiftAssignment{
		EmployeeID:   employeeID,
		TemplateID:   templateID,
		Date:         date,
		PlannedStart: date.Add(time.Duration(startHour) * time.Hour),
		PlannedEnd:   date.Add(time.Duration(endHour) * time.Hour),
		Status:       assignment.StatusScheduled,
	})
	require.NoError(t, err)
	return created
}

func (f *fixture) seedRequest(t *testing.T) (swap.SwapResponse, assignment.ShiftAssignment, assignment.ShiftAssignment) {
	t.Helper()
	mine := f.seedAssignment(t, "emp-1", "tpl-a", 2, 8, 16)
	theirs := f.seedAssignment(t, "emp-2", "tpl-a", 3, 8, 16)

	created, err := f.svc.CreateSwapRequest(context.Background(), requester, swap.CreateSwapRequest{
		RequesterAssignmentID: mine.ID,
		TargetAssignmentID:    theirs.ID,
		Reason:                "family appointment",
	})
	require.NoError(t, err)
	return created, mine, theirs
}

func TestSwapService_Create_Success(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	created, mine, theirs := f.seedRequest(t)

	assert.Equal(t, string(swap.StatusPending), created.Status)
	assert.Equal(t, "emp-1", created.RequesterID)
	assert.Equal(t, "emp-2", created.TargetEmployeeID)
	assert.Equal(t, mine.ID, created.RequesterAssignmentID)
	assert.Equal(t, theirs.ID, created.TargetAssignmentID)
	assert.Equal(t, string(swap.PriorityMedium), created.Priority)
	// Expiry is the earlier of the two planned starts.
	assert.Equal(t, "2026-03-02T08:00:00Z", created.ExpiresAt)
}

func TestSwapService_Create_NotOwned(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	mine := f.seedAssignment(t, "emp-3", "tpl-a", 2, 8, 16)
	theirs := f.seedAssignment(t, "emp-2", "tpl-a", 3, 8, 16)

	_, err := f.svc.CreateSwapRequest(context.Background(), requester, swap.CreateSwapRequest{
		RequesterAssignmentID: mine.ID,
		TargetAssignmentID:    theirs.ID,
		Reason:                "family appointment",
	})
	assert.ErrorIs(t, err, swap.ErrSwapNotOwned)
}

func TestSwapService_Create_SelfSwap(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	mine := f.seedAssignment(t, "emp-1", "tpl-a", 2, 8, 16)
	other := f.seedAssignment(t, "emp-1", "tpl-a", 3, 8, 16)

	_, err := f.svc.CreateSwapRequest(context.Background(), requester, swap.CreateSwapRequest{
		RequesterAssignmentID: mine.ID,
		TargetAssignmentID:    other.ID,
		Reason:                "family appointment",
	})
	assert.ErrorIs(t, err, swap.ErrSwapSelf)
}

func TestSwapService_Create_TemplateMismatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	mine := f.seedAssignment(t, "emp-1", "tpl-a", 2, 8, 16)
	theirs := f.seedAssignment(t, "emp-2", "tpl-b", 3, 14, 22)

	_, err := f.svc.CreateSwapRequest(context.Background(), requester, swap.CreateSwapRequest{
		RequesterAssignmentID: mine.ID,
		TargetAssignmentID:    theirs.ID,
		Reason:                "family appointment",
	})
	assert.ErrorIs(t, err, swap.ErrSwapTemplateMismatch)
}

func TestSwapService_Create_OpenRequestExists(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, mine, _ := f.seedRequest(t)
	third := f.seedAssignment(t, "emp-3", "tpl-a", 4, 8, 16)
	asThird := actor.Actor{
		UserID:       "user-3",
		EmployeeID:   "emp-3",
		Capabilities: []actor.Capability{actor.CapabilitySwapRequest},
	}

	_, err := f.svc.CreateSwapRequest(context.Background(), asThird, swap.CreateSwapRequest{
		RequesterAssignmentID: third.ID,
		TargetAssignmentID:    mine.ID,
		Reason:                "want the Monday shift",
	})
	assert.ErrorIs(t, err, swap.ErrSwapPendingExists)
}

func TestSwapService_Create_CrossConflict(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	mine := f.seedAssignment(t, "emp-1", "tpl-a", 2, 8, 16)
	theirs := f.seedAssignment(t, "emp-2", "tpl-a", 3, 8, 16)
	// The requester already works an overlapping shift on the target's day,
	// so the trade can never be executed.
	blocker := f.seedAssignment(t, "emp-1", "tpl-b", 3, 12, 20)

	_, err := f.svc.CreateSwapRequest(context.Background(), requester, swap.CreateSwapRequest{
		RequesterAssignmentID: mine.ID,
		TargetAssignmentID:    theirs.ID,
		Reason:                "family appointment",
	})

	var conflictErr *assignment.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Len(t, conflictErr.Conflicts, 1)
	assert.Equal(t, blocker.ID, conflictErr.Conflicts[0].AssignmentID)
}

func TestSwapService_Create_WindowPassed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	mine := f.seedAssignment(t, "emp-1", "tpl-a", 2, 8, 16)
	theirs := f.seedAssignment(t, "emp-2", "tpl-a", 3, 8, 16)

	f.clock.current = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	_, err := f.svc.CreateSwapRequest(context.Background(), requester, swap.CreateSwapRequest{
		RequesterAssignmentID: mine.ID,
		TargetAssignmentID:    theirs.ID,
		Reason:                "family appointment",
	})
	assert.ErrorIs(t, err, swap.ErrSwapWindowPassed)
}

func TestSwapService_Respond_Accept(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	created, _, _ := f.seedRequest(t)

	responded, err := f.svc.RespondToSwap(context.Background(), target, swap.RespondSwapRequest{
		ID:     created.ID,
		Accept: true,
	})
	require.NoError(t, err)

	assert.Equal(t, string(swap.StatusAccepted), responded.Status)
	assert.NotNil(t, responded.TargetRespondedAt)
}

func TestSwapService_Respond_Reject(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	created, _, _ := f.seedRequest(t)

	responded, err := f.svc.RespondToSwap(context.Background(), target, swap.RespondSwapRequest{
		ID:     created.ID,
		Accept: false,
		Reason: "already have plans that day",
	})
	require.NoError(t, err)

	assert.Equal(t, string(swap.StatusRejected), responded.Status)
	require.NotNil(t, responded.TargetReason)
	assert.Equal(t, "already have plans that day", *responded.TargetReason)

	// A closed request no longer blocks new swaps on the assignments.
	open, err := f.swapRepo.ExistsOpenForAssignment(context.Background(), created.RequesterAssignmentID)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestSwapService_Respond_NotTarget(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	created, _, _ := f.seedRequest(t)

	_, err := f.svc.RespondToSwap(context.Background(), requester, swap.RespondSwapRequest{
		ID:     created.ID,
		Accept: true,
	})
	assert.ErrorIs(t, err, swap.ErrNotSwapTarget)
}

func TestSwapService_Respond_Expired(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	created, _, _ := f.seedRequest(t)

	f.clock.current = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	_, err := f.svc.RespondToSwap(context.Background(), target, swap.RespondSwapRequest{
		ID:     created.ID,
		Accept: true,
	})
	assert.ErrorIs(t, err, swap.ErrSwapExpired)

	stored, err := f.swapRepo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, swap.StatusExpired, stored.Status)
}

func TestSwapService_Decide_ApproveExecutesSwap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	created, mine, theirs := f.seedRequest(t)

	_, err := f.svc.RespondToSwap(ctx, target, swap.RespondSwapRequest{ID: created.ID, Accept: true})
	require.NoError(t, err)

	decided, err := f.svc.DecideSwap(ctx, manager, swap.DecideSwapRequest{
		ID:      created.ID,
		Approve: true,
	})
	require.NoError(t, err)

	assert.Equal(t, string(swap.StatusApproved), decided.Status)
	require.NotNil(t, decided.DecidedBy)
	assert.Equal(t, "user-mgr", *decided.DecidedBy)

	// The two assignments exchanged employees.
	swappedMine, err := f.assignmentRepo.GetByID(ctx, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "emp-2", swappedMine.EmployeeID)

	swappedTheirs, err := f.assignmentRepo.GetByID(ctx, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", swappedTheirs.EmployeeID)
}

func TestSwapService_Decide_ApproveRequiresAcceptance(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	created, _, _ := f.seedRequest(t)

	_, err := f.svc.DecideSwap(context.Background(), manager, swap.DecideSwapRequest{
		ID:      created.ID,
		Approve: true,
	})
	assert.ErrorIs(t, err, swap.ErrSwapNotAccepted)
}

func TestSwapService_Decide_ApproveRechecksConflicts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	created, mine, theirs := f.seedRequest(t)

	_, err := f.svc.RespondToSwap(ctx, target, swap.RespondSwapRequest{ID: created.ID, Accept: true})
	require.NoError(t, err)

	// A shift picked up between acceptance and approval blocks execution.
	f.seedAssignment(t, "emp-1", "tpl-b", 3, 12, 20)

	_, err = f.svc.DecideSwap(ctx, manager, swap.DecideSwapRequest{
		ID:      created.ID,
		Approve: true,
	})

	var conflictErr *assignment.ConflictError
	require.ErrorAs(t, err, &conflictErr)

	// Nothing moved.
	unchanged, err := f.assignmentRepo.GetByID(ctx, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", unchanged.EmployeeID)
	unchanged, err = f.assignmentRepo.GetByID(ctx, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, "emp-2", unchanged.EmployeeID)
}

func TestSwapService_Decide_Decline(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	created, _, _ := f.seedRequest(t)

	decided, err := f.svc.DecideSwap(context.Background(), manager, swap.DecideSwapRequest{
		ID:      created.ID,
		Approve: false,
		Notes:   "coverage would drop below minimum",
	})
	require.NoError(t, err)

	assert.Equal(t, string(swap.StatusDeclined), decided.Status)
	require.NotNil(t, decided.DecisionNotes)
	assert.Equal(t, "coverage would drop below minimum", *decided.DecisionNotes)
}

func TestSwapService_Decide_RequiresCapability(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	created, _, _ := f.seedRequest(t)

	_, err := f.svc.DecideSwap(context.Background(), target, swap.DecideSwapRequest{
		ID:      created.ID,
		Approve: true,
	})
	assert.ErrorIs(t, err, actor.ErrForbidden)
}

func TestSwapService_Cancel(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	created, _, _ := f.seedRequest(t)

	cancelled, err := f.svc.CancelSwapRequest(context.Background(), requester, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(swap.StatusCancelled), cancelled.Status)

	_, err = f.svc.CancelSwapRequest(context.Background(), requester, created.ID)
	assert.ErrorIs(t, err, swap.ErrSwapClosed)
}

func TestSwapService_Cancel_RequesterOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	created, _, _ := f.seedRequest(t)

	_, err := f.svc.CancelSwapRequest(context.Background(), target, created.ID)
	assert.ErrorIs(t, err, swap.ErrSwapNotOwned)
}

func TestSwapService_ExpireOverdue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	created, _, _ := f.seedRequest(t)

	expired, err := f.svc.ExpireOverdue(ctx, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	stored, err := f.swapRepo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, swap.StatusExpired, stored.Status)

	// Re-running the sweep finds nothing new.
	expired, err = f.svc.ExpireOverdue(ctx, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, expired)
}

func TestSwapService_List_FilterByStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	created, _, _ := f.seedRequest(t)

	_, err := f.svc.RespondToSwap(ctx, target, swap.RespondSwapRequest{ID: created.ID, Accept: true})
	require.NoError(t, err)

	status := string(swap.StatusAccepted)
	result, err := f.svc.ListSwapRequests(ctx, swap.SwapFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, result.Swaps, 1)
	assert.Equal(t, created.ID, result.Swaps[0].ID)

	status = string(swap.StatusPending)
	result, err = f.svc.ListSwapRequests(ctx, swap.SwapFilter{Status: &status})
	require.NoError(t, err)
	assert.Empty(t, result.Swaps)
}
