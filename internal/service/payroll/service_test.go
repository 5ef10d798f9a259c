package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/assignment"
	"github.com/classboard/backoffice-go/internal/domain/payroll"
	"github.com/classboard/backoffice-go/internal/domain/violation"
	"github.com/classboard/backoffice-go/internal/pkg/validator"
	"github.com/classboard/backoffice-go/internal/repository/memory"
)

var (
	accountant = actor.Actor{
		UserID:       "user-acct",
		Capabilities: []actor.Capability{actor.CapabilityPayrollCalculate},
	}
	approver = actor.Actor{
		UserID: "user-appr",
		Capabilities: []actor.Capability{
			actor.CapabilityPayrollCalculate,
			actor.CapabilityPayrollApprove,
		},
	}
)

type fixture struct {
	svc            payroll.PayrollService
	payrollRepo    *memory.PayrollRepository
	assignmentRepo *memory.AssignmentRepository
	violationRepo  *memory.ViolationRepository
	explRepo       *memory.ExplanationRepository
	salaries       *memory.SalaryProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	payrollRepo := memory.NewPayrollRepository()
	assignmentRepo := memory.NewAssignmentRepository()
	violationRepo := memory.NewViolationRepository()
	explRepo := memory.NewExplanationRepository()
	salaries := memory.NewSalaryProvider()

	settings := payroll.Settings{
		DeductionPerMinute:   decimal.NewFromInt(500),
		OvertimePayPerMinute: decimal.NewFromInt(750),
	}
	now := func() time.Time { return time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC) }

	svc := NewPayrollService(payrollRepo, assignmentRepo, violationRepo, explRepo, salaries, settings, now)

	return &fixture{
		svc:            svc,
		payrollRepo:    payrollRepo,
		assignmentRepo: assignmentRepo,
		violationRepo:  violationRepo,
		explRepo:       explRepo,
		salaries:       salaries,
	}
}

func (f *fixture) seedCompleted(t *testing.T, employeeID string, day, worked int, overtime bool) assignment.ShiftAssignment {
	t.Helper()
	created, err := f.assignmentRepo.Create(context.Background(), assignment.ShiftAssignment{
		EmployeeID:    employeeID,
		TemplateID:    "tpl-1",
		Date:          time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC),
		PlannedStart:  time.Date(2026, 3, day, 8, 0, 0, 0, time.UTC),
		PlannedEnd:    time.Date(2026, 3, day, 16, 0, 0, 0, time.UTC),
		Status:        assignment.StatusCompleted,
		WorkedMinutes: &worked,
		IsOvertime:    overtime,
	})
	require.NoError(t, err)
	return created
}

func (f *fixture) seedViolation(t *testing.T, employeeID string, day, minutes int) violation.AttendanceViolation {
	t.Helper()
	created, err := f.violationRepo.Create(context.Background(), violation.AttendanceViolation{
		AssignmentID:  "asg-x",
		EmployeeID:    employeeID,
		Type:          violation.TypeLate,
		ViolationDate: time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC),
		Minutes:       minutes,
		Status:        violation.StatusPendingExplanation,
		DetectedAt:    time.Date(2026, 3, day+1, 2, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return created
}

func march() payroll.CalculateRequest {
	return payroll.CalculateRequest{UserID: "emp-1", Year: 2026, Month: 3}
}

func TestPayrollService_Calculate_Figures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.salaries.SetSalary("emp-1", decimal.NewFromInt(5000000), "mathematics")
	f.seedCompleted(t, "emp-1", 2, 480, false)
	f.seedCompleted(t, "emp-1", 3, 460, false)
	f.seedCompleted(t, "emp-1", 4, 100, true)
	f.seedViolation(t, "emp-1", 5, 25)

	resp, err := f.svc.Calculate(ctx, accountant, march())
	require.NoError(t, err)

	assert.Equal(t, string(payroll.StatusCalculated), resp.Status)
	assert.Equal(t, "2026-03", resp.Period)
	assert.Equal(t, 940, resp.RegularMinutes)
	assert.Equal(t, 100, resp.OvertimeMinutes)
	assert.Equal(t, 25, resp.DeductionMinutes)
	assert.Equal(t, "5000000.00", resp.BaseSalary)
	assert.Equal(t, "75000.00", resp.OvertimePay)
	assert.Equal(t, "12500.00", resp.DeductionTotal)
	assert.Equal(t, "5075000.00", resp.GrossPay)
	assert.Equal(t, "5062500.00", resp.NetPay)
	assert.NotNil(t, resp.CalculatedAt)
}

func TestPayrollService_Calculate_MissingSalary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Calculate(ctx, accountant, march())
	assert.ErrorIs(t, err, payroll.ErrSalaryNotFound)
}

func TestPayrollService_Calculate_OverwritesSameKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.salaries.SetSalary("emp-1", decimal.NewFromInt(5000000), "mathematics")
	f.seedCompleted(t, "emp-1", 2, 480, false)

	first, err := f.svc.Calculate(ctx, accountant, march())
	require.NoError(t, err)

	// New source data arrives; a recalculation replaces the figures in the
	// same record instead of inserting a second one.
	f.seedCompleted(t, "emp-1", 3, 480, false)

	second, err := f.svc.Calculate(ctx, accountant, march())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 960, second.RegularMinutes)
}

func TestPayrollService_Calculate_ApprovedIsNotEditable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.salaries.SetSalary("emp-1", decimal.NewFromInt(5000000), "mathematics")
	f.seedCompleted(t, "emp-1", 2, 480, false)

	calculated, err := f.svc.Calculate(ctx, accountant, march())
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, approver, calculated.ID)
	require.NoError(t, err)

	_, err = f.svc.Calculate(ctx, accountant, march())
	assert.ErrorIs(t, err, payroll.ErrPayrollNotEditable)
}

func TestPayrollService_ApprovedExplanationDropsDeduction(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.salaries.SetSalary("emp-1", decimal.NewFromInt(5000000), "mathematics")
	f.seedCompleted(t, "emp-1", 2, 480, false)
	v := f.seedViolation(t, "emp-1", 5, 25)

	calculated, err := f.svc.Calculate(ctx, accountant, march())
	require.NoError(t, err)
	assert.Equal(t, "12500.00", calculated.DeductionTotal)

	_, err = f.svc.Approve(ctx, approver, calculated.ID)
	require.NoError(t, err)

	// The explanation is approved after payroll approval: the record must be
	// reset before the charge can be dropped.
	_, err = f.explRepo.Create(ctx, violation.ViolationExplanation{
		ViolationID:     v.ID,
		SubmittedBy:     "emp-1",
		ExplanationText: "bus strike",
		SubmittedAt:     time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC),
		Status:          violation.ExplanationApproved,
	})
	require.NoError(t, err)

	_, err = f.svc.Recalculate(ctx, accountant, calculated.ID)
	assert.ErrorIs(t, err, payroll.ErrPayrollNotEditable)

	_, err = f.svc.Reset(ctx, approver, calculated.ID)
	require.NoError(t, err)

	recalculated, err := f.svc.Recalculate(ctx, accountant, calculated.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, recalculated.DeductionMinutes)
	assert.Equal(t, "0.00", recalculated.DeductionTotal)
	assert.Equal(t, "5000000.00", recalculated.NetPay)
}

func TestPayrollService_StateMachine(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.salaries.SetSalary("emp-1", decimal.NewFromInt(5000000), "mathematics")
	f.seedCompleted(t, "emp-1", 2, 480, false)

	calculated, err := f.svc.Calculate(ctx, accountant, march())
	require.NoError(t, err)

	// PAID requires APPROVED first.
	_, err = f.svc.MarkPaid(ctx, approver, calculated.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)

	approved, err := f.svc.Approve(ctx, approver, calculated.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.StatusApproved), approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "user-appr", *approved.ApprovedBy)

	_, err = f.svc.Approve(ctx, approver, calculated.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)

	paid, err := f.svc.MarkPaid(ctx, approver, calculated.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.StatusPaid), paid.Status)
	assert.NotNil(t, paid.PaidAt)

	// Paid payrolls are immutable.
	_, err = f.svc.Reset(ctx, approver, calculated.ID)
	assert.ErrorIs(t, err, payroll.ErrPayrollPaid)
	_, err = f.svc.Cancel(ctx, approver, payroll.CancelPayrollRequest{
		ID:     calculated.ID,
		Reason: "duplicate",
	})
	assert.ErrorIs(t, err, payroll.ErrPayrollPaid)
}

func TestPayrollService_Reset_ReturnsToCalculated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.salaries.SetSalary("emp-1", decimal.NewFromInt(5000000), "mathematics")
	f.seedCompleted(t, "emp-1", 2, 480, false)

	calculated, err := f.svc.Calculate(ctx, accountant, march())
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, approver, calculated.ID)
	require.NoError(t, err)

	reset, err := f.svc.Reset(ctx, approver, calculated.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.StatusCalculated), reset.Status)
	assert.Nil(t, reset.ApprovedBy)
	assert.Nil(t, reset.ApprovedAt)
	// The original calculation timestamp survives the approval rollback.
	assert.NotNil(t, reset.CalculatedAt)

	// CALCULATED can go straight back to APPROVED without recalculating.
	_, err = f.svc.Approve(ctx, approver, calculated.ID)
	assert.NoError(t, err)

	// Resetting twice is a no-op transition.
	_, err = f.svc.Reset(ctx, approver, calculated.ID)
	require.NoError(t, err)
	_, err = f.svc.Reset(ctx, approver, calculated.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)
}

func TestPayrollService_Cancel_RequiresReason(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.salaries.SetSalary("emp-1", decimal.NewFromInt(5000000), "mathematics")
	calculated, err := f.svc.Calculate(ctx, accountant, march())
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, approver, payroll.CancelPayrollRequest{ID: calculated.ID})
	require.Error(t, err)

	cancelled, err := f.svc.Cancel(ctx, approver, payroll.CancelPayrollRequest{
		ID:     calculated.ID,
		Reason: "employee left mid-month",
	})
	require.NoError(t, err)
	assert.Equal(t, string(payroll.StatusCancelled), cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "employee left mid-month", *cancelled.CancelReason)
}

func TestPayrollService_BulkCalculate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.salaries.SetSalary("emp-1", decimal.NewFromInt(5000000), "mathematics")
	f.salaries.SetSalary("emp-2", decimal.NewFromInt(4500000), "science")
	f.seedCompleted(t, "emp-1", 2, 480, false)
	f.seedCompleted(t, "emp-2", 2, 480, false)

	resp, err := f.svc.BulkCalculate(ctx, accountant, payroll.BulkCalculateRequest{Year: 2026, Month: 3})
	require.NoError(t, err)

	assert.Equal(t, "2026-03", resp.Period)
	assert.Equal(t, 2, resp.Succeeded)
	assert.Equal(t, 0, resp.Failed)
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].Success)
	assert.True(t, resp.Results[1].Success)
}

func TestPayrollService_Validate_DetectsDrift(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.salaries.SetSalary("emp-1", decimal.NewFromInt(5000000), "mathematics")
	f.seedCompleted(t, "emp-1", 2, 480, false)

	calculated, err := f.svc.Calculate(ctx, accountant, march())
	require.NoError(t, err)

	result, err := f.svc.Validate(ctx, calculated.ID)
	require.NoError(t, err)
	assert.True(t, result.Match)
	assert.Empty(t, result.Diffs)

	// Late-arriving source data makes the stored record stale.
	f.seedCompleted(t, "emp-1", 3, 120, false)

	result, err = f.svc.Validate(ctx, calculated.ID)
	require.NoError(t, err)
	assert.False(t, result.Match)
	require.NotEmpty(t, result.Diffs)
	assert.Equal(t, "regular_minutes", result.Diffs[0].Field)
	assert.Equal(t, "480", result.Diffs[0].Stored)
	assert.Equal(t, "600", result.Diffs[0].Expected)
}

func TestPayrollService_Statistics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.salaries.SetSalary("emp-1", decimal.NewFromInt(5000000), "mathematics")
	f.salaries.SetSalary("emp-2", decimal.NewFromInt(4000000), "science")
	f.salaries.SetSalary("emp-3", decimal.NewFromInt(3000000), "science")

	for _, userID := range []string{"emp-1", "emp-2", "emp-3"} {
		_, err := f.svc.Calculate(ctx, accountant, payroll.CalculateRequest{UserID: userID, Year: 2026, Month: 3})
		require.NoError(t, err)
	}

	period := payroll.Period{Year: 2026, Month: time.March}

	summary, err := f.svc.PeriodSummary(ctx, period)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.EmployeeCount)
	assert.Equal(t, "12000000.00", summary.TotalNetPay)
	assert.Equal(t, "4000000.00", summary.AverageNetPay)

	departments, err := f.svc.DepartmentSummaries(ctx, period)
	require.NoError(t, err)
	require.Len(t, departments, 2)
	assert.Equal(t, "mathematics", departments[0].Department)
	assert.Equal(t, 1, departments[0].EmployeeCount)
	assert.Equal(t, "science", departments[1].Department)
	assert.Equal(t, 2, departments[1].EmployeeCount)
	assert.Equal(t, "7000000.00", departments[1].TotalNetPay)

	top, err := f.svc.TopEarners(ctx, period, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "emp-1", top[0].UserID)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, "emp-2", top[1].UserID)
	assert.Equal(t, 2, top[1].Rank)
}

func TestPayrollService_Trend_And_Comparison(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.salaries.SetSalary("emp-1", decimal.NewFromInt(5000000), "mathematics")

	_, err := f.svc.Calculate(ctx, accountant, payroll.CalculateRequest{UserID: "emp-1", Year: 2026, Month: 2})
	require.NoError(t, err)
	_, err = f.svc.Calculate(ctx, accountant, payroll.CalculateRequest{UserID: "emp-1", Year: 2026, Month: 3})
	require.NoError(t, err)

	points, err := f.svc.Trend(ctx,
		payroll.Period{Year: 2026, Month: time.January},
		payroll.Period{Year: 2026, Month: time.March})
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "2026-01", points[0].Period)
	assert.Equal(t, 0, points[0].EmployeeCount)
	assert.Equal(t, "2026-03", points[2].Period)
	assert.Equal(t, 1, points[2].EmployeeCount)

	// An inverted range is rejected up front instead of walking forever.
	_, err = f.svc.Trend(ctx,
		payroll.Period{Year: 2026, Month: time.May},
		payroll.Period{Year: 2026, Month: time.January})
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
	assert.Contains(t, validationErrs.ToMap(), "period")

	comparison, err := f.svc.ComparePeriods(ctx, payroll.Period{Year: 2026, Month: time.March})
	require.NoError(t, err)
	assert.Equal(t, "2026-03", comparison.Current.Period)
	assert.Equal(t, "2026-02", comparison.Previous.Period)
	assert.Equal(t, "0.00", comparison.NetPayDelta)
	assert.Equal(t, "0.00", comparison.NetPayPercent)
}
