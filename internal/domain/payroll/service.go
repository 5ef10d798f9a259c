package payroll

import (
	"context"

	"github.com/classboard/backoffice-go/internal/domain/actor"
)

// PayrollService defines business logic for payroll computation and its
// lifecycle.
type PayrollService interface {
	// Calculate derives a payroll from COMPLETED assignments and chargeable
	// violations for the period, creating or overwriting the single record
	// per (user, period) and landing it in CALCULATED. Concurrent runs for
	// the same key are coalesced, never interleaved.
	Calculate(ctx context.Context, caller actor.Actor, req CalculateRequest) (PayrollResponse, error)

	// Recalculate re-derives the figures in place. Permitted only while the
	// record is DRAFT or CALCULATED.
	Recalculate(ctx context.Context, caller actor.Actor, id string) (PayrollResponse, error)

	// Reset moves an APPROVED payroll back to CALCULATED, clearing the
	// approval so it can be recalculated. PAID payrolls are immutable.
	Reset(ctx context.Context, caller actor.Actor, id string) (PayrollResponse, error)

	// Approve moves CALCULATED to APPROVED, recording the reviewer.
	Approve(ctx context.Context, caller actor.Actor, id string) (PayrollResponse, error)

	// MarkPaid moves APPROVED to PAID.
	MarkPaid(ctx context.Context, caller actor.Actor, id string) (PayrollResponse, error)

	// Cancel voids a non-PAID payroll with a reason.
	Cancel(ctx context.Context, caller actor.Actor, req CancelPayrollRequest) (PayrollResponse, error)

	// BulkCalculate runs Calculate for every eligible employee, reporting a
	// per-employee outcome and never failing the batch for one bad input.
	BulkCalculate(ctx context.Context, caller actor.Actor, req BulkCalculateRequest) (BulkCalculateResponse, error)

	// Validate re-derives the expected totals from source assignments and
	// violations and diffs them against the stored record.
	Validate(ctx context.Context, id string) (ValidationResult, error)

	GetPayroll(ctx context.Context, id string) (PayrollResponse, error)

	ListPayrolls(ctx context.Context, filter PayrollFilter) (ListPayrollsResponse, error)

	// Statistics queries over stored payrolls.
	PeriodSummary(ctx context.Context, period Period) (PeriodSummary, error)
	DepartmentSummaries(ctx context.Context, period Period) ([]DepartmentSummary, error)
	TopEarners(ctx context.Context, period Period, limit int) ([]TopEarner, error)
	Trend(ctx context.Context, from, to Period) ([]TrendPoint, error)
	ComparePeriods(ctx context.Context, period Period) (PeriodComparison, error)
}
