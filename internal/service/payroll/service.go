package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/assignment"
	"github.com/classboard/backoffice-go/internal/domain/payroll"
	"github.com/classboard/backoffice-go/internal/domain/violation"
	"github.com/classboard/backoffice-go/internal/pkg/validator"
)

type PayrollServiceImpl struct {
	payrollRepo     payroll.PayrollRepository
	assignmentRepo  assignment.AssignmentRepository
	violationRepo   violation.ViolationRepository
	explanationRepo violation.ExplanationRepository
	salaries        payroll.SalaryProvider
	settings        payroll.Settings

	// calculations coalesces concurrent runs per (user, period) so a
	// second request never interleaves with the first.
	calculations singleflight.Group

	now func() time.Time
}

func NewPayrollService(
	payrollRepo payroll.PayrollRepository,
	assignmentRepo assignment.AssignmentRepository,
	violationRepo violation.ViolationRepository,
	explanationRepo violation.ExplanationRepository,
	salaries payroll.SalaryProvider,
	settings payroll.Settings,
	now func() time.Time,
) payroll.PayrollService {
	if now == nil {
		now = time.Now
	}
	return &PayrollServiceImpl{
		payrollRepo:     payrollRepo,
		assignmentRepo:  assignmentRepo,
		violationRepo:   violationRepo,
		explanationRepo: explanationRepo,
		salaries:        salaries,
		settings:        settings,
		now:             now,
	}
}

// figures is the derived portion of a payroll record.
type figures struct {
	regularMinutes   int
	overtimeMinutes  int
	deductionMinutes int
	baseSalary       decimal.Decimal
	overtimePay      decimal.Decimal
	deductionTotal   decimal.Decimal
	grossPay         decimal.Decimal
	netPay           decimal.Decimal
}

// derive recomputes the payroll figures from source assignments and
// violations. Used by both calculation and validation.
func (s *PayrollServiceImpl) derive(ctx context.Context, userID string, period payroll.Period) (figures, error) {
	var f figures

	baseSalary, err := s.salaries.BaseSalary(ctx, userID)
	if err != nil {
		return f, err
	}
	f.baseSalary = baseSalary

	from, to := period.Bounds()

	completed, err := s.assignmentRepo.ListCompletedInPeriod(ctx, userID, from, to)
	if err != nil {
		return f, fmt.Errorf("failed to load completed assignments: %w", err)
	}
	for _, a := range completed {
		if a.WorkedMinutes == nil {
			continue
		}
		if a.IsOvertime {
			f.overtimeMinutes += *a.WorkedMinutes
		} else {
			f.regularMinutes += *a.WorkedMinutes
		}
	}

	violations, err := s.violationRepo.ListByEmployeeAndPeriod(ctx, userID, from, to)
	if err != nil {
		return f, fmt.Errorf("failed to load violations: %w", err)
	}
	for _, v := range violations {
		latest, err := s.explanationRepo.GetLatestByViolationID(ctx, v.ID)
		var latestPtr *violation.ViolationExplanation
		if err == nil {
			latestPtr = &latest
		} else if !errors.Is(err, violation.ErrExplanationNotFound) {
			return f, fmt.Errorf("failed to load latest explanation: %w", err)
		}
		if v.Chargeable(latestPtr) {
			f.deductionMinutes += v.Minutes
		}
	}

	f.overtimePay = s.settings.OvertimePayPerMinute.Mul(decimal.NewFromInt(int64(f.overtimeMinutes)))
	f.deductionTotal = s.settings.DeductionPerMinute.Mul(decimal.NewFromInt(int64(f.deductionMinutes)))
	f.grossPay = f.baseSalary.Add(f.overtimePay)
	f.netPay = f.grossPay.Sub(f.deductionTotal)

	return f, nil
}

// Calculate implements payroll.PayrollService.
func (s *PayrollServiceImpl) Calculate(ctx context.Context, caller actor.Actor, req payroll.CalculateRequest) (payroll.PayrollResponse, error) {
	if !caller.Can(actor.CapabilityPayrollCalculate) {
		return payroll.PayrollResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return payroll.PayrollResponse{}, err
	}

	period := req.Period()
	key := req.UserID + "|" + period.String()

	result, err, _ := s.calculations.Do(key, func() (interface{}, error) {
		return s.calculate(ctx, req.UserID, period)
	})
	if err != nil {
		return payroll.PayrollResponse{}, err
	}

	return payroll.ToResponse(result.(payroll.Payroll)), nil
}

func (s *PayrollServiceImpl) calculate(ctx context.Context, userID string, period payroll.Period) (payroll.Payroll, error) {
	f, err := s.derive(ctx, userID, period)
	if err != nil {
		return payroll.Payroll{}, err
	}

	now := s.now().UTC()

	existing, err := s.payrollRepo.GetByUserAndPeriod(ctx, userID, period)
	if err != nil && !errors.Is(err, payroll.ErrPayrollNotFound) {
		return payroll.Payroll{}, err
	}

	if err == nil {
		if !existing.Recalculable() {
			return payroll.Payroll{}, payroll.ErrPayrollNotEditable
		}
		prev := existing.Status
		apply(&existing, f)
		existing.Status = payroll.StatusCalculated
		existing.CalculatedAt = &now
		if err := s.payrollRepo.Update(ctx, existing, prev); err != nil {
			return payroll.Payroll{}, err
		}
		slog.Info("Payroll recalculated",
			"payroll_id", existing.ID,
			"user_id", userID,
			"period", period.String())
		return existing, nil
	}

	p := payroll.Payroll{
		UserID:       userID,
		Period:       period,
		Status:       payroll.StatusCalculated,
		CalculatedAt: &now,
	}
	apply(&p, f)

	created, err := s.payrollRepo.Create(ctx, p)
	if err != nil {
		return payroll.Payroll{}, err
	}

	slog.Info("Payroll calculated",
		"payroll_id", created.ID,
		"user_id", userID,
		"period", period.String(),
		"net_pay", created.NetPay.StringFixed(2))

	return created, nil
}

func apply(p *payroll.Payroll, f figures) {
	p.RegularMinutes = f.regularMinutes
	p.OvertimeMinutes = f.overtimeMinutes
	p.DeductionMinutes = f.deductionMinutes
	p.BaseSalary = f.baseSalary
	p.OvertimePay = f.overtimePay
	p.DeductionTotal = f.deductionTotal
	p.GrossPay = f.grossPay
	p.NetPay = f.netPay
}

// Recalculate implements payroll.PayrollService.
func (s *PayrollServiceImpl) Recalculate(ctx context.Context, caller actor.Actor, id string) (payroll.PayrollResponse, error) {
	if !caller.Can(actor.CapabilityPayrollCalculate) {
		return payroll.PayrollResponse{}, actor.ErrForbidden
	}

	p, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	if !p.Recalculable() {
		return payroll.PayrollResponse{}, payroll.ErrPayrollNotEditable
	}

	key := p.UserID + "|" + p.Period.String()
	result, err, _ := s.calculations.Do(key, func() (interface{}, error) {
		return s.calculate(ctx, p.UserID, p.Period)
	})
	if err != nil {
		return payroll.PayrollResponse{}, err
	}

	return payroll.ToResponse(result.(payroll.Payroll)), nil
}

// Reset implements payroll.PayrollService.
func (s *PayrollServiceImpl) Reset(ctx context.Context, caller actor.Actor, id string) (payroll.PayrollResponse, error) {
	if !caller.Can(actor.CapabilityPayrollApprove) {
		return payroll.PayrollResponse{}, actor.ErrForbidden
	}

	p, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	if p.Status == payroll.StatusPaid {
		return payroll.PayrollResponse{}, payroll.ErrPayrollPaid
	}
	if p.Status != payroll.StatusApproved {
		return payroll.PayrollResponse{}, payroll.ErrInvalidTransition
	}

	// The figures themselves are untouched, so the record returns to
	// CALCULATED; only the approval is undone.
	p.Status = payroll.StatusCalculated
	p.ApprovedBy = nil
	p.ApprovedAt = nil

	if err := s.payrollRepo.Update(ctx, p, payroll.StatusApproved); err != nil {
		return payroll.PayrollResponse{}, err
	}

	slog.Info("Payroll approval reset",
		"payroll_id", p.ID,
		"reset_by", caller.UserID)

	return payroll.ToResponse(p), nil
}

// Approve implements payroll.PayrollService.
func (s *PayrollServiceImpl) Approve(ctx context.Context, caller actor.Actor, id string) (payroll.PayrollResponse, error) {
	if !caller.Can(actor.CapabilityPayrollApprove) {
		return payroll.PayrollResponse{}, actor.ErrForbidden
	}

	p, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	if !p.CanTransitionTo(payroll.StatusApproved) {
		return payroll.PayrollResponse{}, payroll.ErrInvalidTransition
	}

	now := s.now().UTC()
	p.Status = payroll.StatusApproved
	p.ApprovedBy = &caller.UserID
	p.ApprovedAt = &now

	if err := s.payrollRepo.Update(ctx, p, payroll.StatusCalculated); err != nil {
		return payroll.PayrollResponse{}, err
	}

	slog.Info("Payroll approved",
		"payroll_id", p.ID,
		"approved_by", caller.UserID)

	return payroll.ToResponse(p), nil
}

// MarkPaid implements payroll.PayrollService.
func (s *PayrollServiceImpl) MarkPaid(ctx context.Context, caller actor.Actor, id string) (payroll.PayrollResponse, error) {
	if !caller.Can(actor.CapabilityPayrollApprove) {
		return payroll.PayrollResponse{}, actor.ErrForbidden
	}

	p, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	if !p.CanTransitionTo(payroll.StatusPaid) {
		return payroll.PayrollResponse{}, payroll.ErrInvalidTransition
	}

	now := s.now().UTC()
	p.Status = payroll.StatusPaid
	p.PaidAt = &now

	if err := s.payrollRepo.Update(ctx, p, payroll.StatusApproved); err != nil {
		return payroll.PayrollResponse{}, err
	}

	slog.Info("Payroll marked paid", "payroll_id", p.ID)

	return payroll.ToResponse(p), nil
}

// Cancel implements payroll.PayrollService.
func (s *PayrollServiceImpl) Cancel(ctx context.Context, caller actor.Actor, req payroll.CancelPayrollRequest) (payroll.PayrollResponse, error) {
	if !caller.Can(actor.CapabilityPayrollApprove) {
		return payroll.PayrollResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return payroll.PayrollResponse{}, err
	}

	p, err := s.payrollRepo.GetByID(ctx, req.ID)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	if p.Status == payroll.StatusPaid {
		return payroll.PayrollResponse{}, payroll.ErrPayrollPaid
	}
	if p.Status == payroll.StatusCancelled {
		return payroll.PayrollResponse{}, payroll.ErrInvalidTransition
	}

	prev := p.Status
	p.Status = payroll.StatusCancelled
	p.CancelReason = &req.Reason

	if err := s.payrollRepo.Update(ctx, p, prev); err != nil {
		return payroll.PayrollResponse{}, err
	}

	slog.Info("Payroll cancelled",
		"payroll_id", p.ID,
		"reason", req.Reason)

	return payroll.ToResponse(p), nil
}

// BulkCalculate implements payroll.PayrollService. Per-employee outcomes;
// one employee's bad input never fails the batch.
func (s *PayrollServiceImpl) BulkCalculate(ctx context.Context, caller actor.Actor, req payroll.BulkCalculateRequest) (payroll.BulkCalculateResponse, error) {
	if !caller.Can(actor.CapabilityPayrollCalculate) {
		return payroll.BulkCalculateResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return payroll.BulkCalculateResponse{}, err
	}

	eligible, err := s.salaries.ListEligible(ctx)
	if err != nil {
		return payroll.BulkCalculateResponse{}, fmt.Errorf("failed to list eligible employees: %w", err)
	}

	period := req.Period()
	resp := payroll.BulkCalculateResponse{
		Period:  period.String(),
		Results: make([]payroll.BulkCalculateItem, 0, len(eligible)),
	}

	for _, userID := range eligible {
		item := payroll.BulkCalculateItem{UserID: userID}

		key := userID + "|" + period.String()
		result, err, _ := s.calculations.Do(key, func() (interface{}, error) {
			return s.calculate(ctx, userID, period)
		})
		if err != nil {
			item.Error = err.Error()
			resp.Failed++
		} else {
			response := payroll.ToResponse(result.(payroll.Payroll))
			item.Success = true
			item.Payroll = &response
			resp.Succeeded++
		}

		resp.Results = append(resp.Results, item)
	}

	return resp, nil
}

// Validate implements payroll.PayrollService. Re-derives the expected
// figures from source data and diffs them against the stored record.
func (s *PayrollServiceImpl) Validate(ctx context.Context, id string) (payroll.ValidationResult, error) {
	p, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.ValidationResult{}, err
	}

	f, err := s.derive(ctx, p.UserID, p.Period)
	if err != nil {
		return payroll.ValidationResult{}, err
	}

	result := payroll.ValidationResult{PayrollID: id, Match: true}

	addDiff := func(field, stored, expected string) {
		if stored != expected {
			result.Match = false
			result.Diffs = append(result.Diffs, payroll.ValidationDiff{
				Field:    field,
				Stored:   stored,
				Expected: expected,
			})
		}
	}

	addDiff("regular_minutes", fmt.Sprint(p.RegularMinutes), fmt.Sprint(f.regularMinutes))
	addDiff("overtime_minutes", fmt.Sprint(p.OvertimeMinutes), fmt.Sprint(f.overtimeMinutes))
	addDiff("deduction_minutes", fmt.Sprint(p.DeductionMinutes), fmt.Sprint(f.deductionMinutes))
	addDiff("base_salary", p.BaseSalary.StringFixed(2), f.baseSalary.StringFixed(2))
	addDiff("overtime_pay", p.OvertimePay.StringFixed(2), f.overtimePay.StringFixed(2))
	addDiff("deduction_total", p.DeductionTotal.StringFixed(2), f.deductionTotal.StringFixed(2))
	addDiff("gross_pay", p.GrossPay.StringFixed(2), f.grossPay.StringFixed(2))
	addDiff("net_pay", p.NetPay.StringFixed(2), f.netPay.StringFixed(2))

	return result, nil
}

// GetPayroll implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetPayroll(ctx context.Context, id string) (payroll.PayrollResponse, error) {
	p, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	return payroll.ToResponse(p), nil
}

// ListPayrolls implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListPayrolls(ctx context.Context, filter payroll.PayrollFilter) (payroll.ListPayrollsResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.ListPayrollsResponse{}, err
	}

	payrolls, total, err := s.payrollRepo.List(ctx, filter)
	if err != nil {
		return payroll.ListPayrollsResponse{}, err
	}

	responses := make([]payroll.PayrollResponse, 0, len(payrolls))
	for _, p := range payrolls {
		responses = append(responses, payroll.ToResponse(p))
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))

	return payroll.ListPayrollsResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Payrolls:   responses,
	}, nil
}

// activeForStats filters out cancelled records so statistics reflect real
// payouts.
func activeForStats(payrolls []payroll.Payroll) []payroll.Payroll {
	var active []payroll.Payroll
	for _, p := range payrolls {
		if p.Status != payroll.StatusCancelled {
			active = append(active, p)
		}
	}
	return active
}

func summarize(period payroll.Period, payrolls []payroll.Payroll) payroll.PeriodSummary {
	summary := payroll.PeriodSummary{Period: period.String()}

	totalGross := decimal.Zero
	totalNet := decimal.Zero
	totalDeductions := decimal.Zero
	totalOvertime := decimal.Zero

	for _, p := range payrolls {
		totalGross = totalGross.Add(p.GrossPay)
		totalNet = totalNet.Add(p.NetPay)
		totalDeductions = totalDeductions.Add(p.DeductionTotal)
		totalOvertime = totalOvertime.Add(p.OvertimePay)
	}

	summary.EmployeeCount = len(payrolls)
	summary.TotalGrossPay = totalGross.StringFixed(2)
	summary.TotalNetPay = totalNet.StringFixed(2)
	summary.TotalDeductions = totalDeductions.StringFixed(2)
	summary.TotalOvertimePay = totalOvertime.StringFixed(2)

	average := decimal.Zero
	if len(payrolls) > 0 {
		average = totalNet.Div(decimal.NewFromInt(int64(len(payrolls)))).Round(2)
	}
	summary.AverageNetPay = average.StringFixed(2)

	return summary
}

// PeriodSummary implements payroll.PayrollService.
func (s *PayrollServiceImpl) PeriodSummary(ctx context.Context, period payroll.Period) (payroll.PeriodSummary, error) {
	payrolls, err := s.payrollRepo.ListByPeriod(ctx, period)
	if err != nil {
		return payroll.PeriodSummary{}, err
	}
	return summarize(period, activeForStats(payrolls)), nil
}

// DepartmentSummaries implements payroll.PayrollService.
func (s *PayrollServiceImpl) DepartmentSummaries(ctx context.Context, period payroll.Period) ([]payroll.DepartmentSummary, error) {
	payrolls, err := s.payrollRepo.ListByPeriod(ctx, period)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		count int
		total decimal.Decimal
	}
	buckets := make(map[string]*bucket)

	for _, p := range activeForStats(payrolls) {
		dept, err := s.salaries.Department(ctx, p.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve department: %w", err)
		}
		b, ok := buckets[dept]
		if !ok {
			b = &bucket{total: decimal.Zero}
			buckets[dept] = b
		}
		b.count++
		b.total = b.total.Add(p.NetPay)
	}

	summaries := make([]payroll.DepartmentSummary, 0, len(buckets))
	for dept, b := range buckets {
		average := b.total.Div(decimal.NewFromInt(int64(b.count))).Round(2)
		summaries = append(summaries, payroll.DepartmentSummary{
			Department:    dept,
			EmployeeCount: b.count,
			TotalNetPay:   b.total.StringFixed(2),
			AverageNetPay: average.StringFixed(2),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Department < summaries[j].Department
	})

	return summaries, nil
}

// TopEarners implements payroll.PayrollService.
func (s *PayrollServiceImpl) TopEarners(ctx context.Context, period payroll.Period, limit int) ([]payroll.TopEarner, error) {
	if limit <= 0 {
		limit = 10
	}

	payrolls, err := s.payrollRepo.ListByPeriod(ctx, period)
	if err != nil {
		return nil, err
	}

	active := activeForStats(payrolls)
	sort.Slice(active, func(i, j int) bool {
		return active[i].NetPay.GreaterThan(active[j].NetPay)
	})
	if len(active) > limit {
		active = active[:limit]
	}

	earners := make([]payroll.TopEarner, 0, len(active))
	for i, p := range active {
		earners = append(earners, payroll.TopEarner{
			UserID: p.UserID,
			NetPay: p.NetPay.StringFixed(2),
			Rank:   i + 1,
		})
	}

	return earners, nil
}

// Trend implements payroll.PayrollService.
func (s *PayrollServiceImpl) Trend(ctx context.Context, from, to payroll.Period) ([]payroll.TrendPoint, error) {
	if from.After(to) {
		return nil, validator.ValidationErrors{
			{Field: "period", Message: "from period must not be after to period"},
		}
	}

	var points []payroll.TrendPoint

	for period := from; !period.After(to); {
		payrolls, err := s.payrollRepo.ListByPeriod(ctx, period)
		if err != nil {
			return nil, err
		}

		active := activeForStats(payrolls)
		total := decimal.Zero
		for _, p := range active {
			total = total.Add(p.NetPay)
		}

		points = append(points, payroll.TrendPoint{
			Period:        period.String(),
			TotalNetPay:   total.StringFixed(2),
			EmployeeCount: len(active),
		})

		next := time.Date(period.Year, period.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		period = payroll.Period{Year: next.Year(), Month: next.Month()}
	}

	return points, nil
}

// ComparePeriods implements payroll.PayrollService.
func (s *PayrollServiceImpl) ComparePeriods(ctx context.Context, period payroll.Period) (payroll.PeriodComparison, error) {
	current, err := s.PeriodSummary(ctx, period)
	if err != nil {
		return payroll.PeriodComparison{}, err
	}

	previous, err := s.PeriodSummary(ctx, period.Previous())
	if err != nil {
		return payroll.PeriodComparison{}, err
	}

	currentNet, _ := decimal.NewFromString(current.TotalNetPay)
	previousNet, _ := decimal.NewFromString(previous.TotalNetPay)

	delta := currentNet.Sub(previousNet)
	percent := decimal.Zero
	if !previousNet.IsZero() {
		percent = delta.Div(previousNet).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return payroll.PeriodComparison{
		Current:       current,
		Previous:      previous,
		NetPayDelta:   delta.StringFixed(2),
		NetPayPercent: percent.StringFixed(2),
	}, nil
}
