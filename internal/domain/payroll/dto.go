package payroll

import (
	"time"

	"github.com/classboard/backoffice-go/internal/pkg/validator"
)

type CalculateRequest struct {
	UserID string `json:"user_id"`
	Year   int    `json:"year"`
	Month  int    `json:"month"`
}

func (r *CalculateRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}

	if !validator.IsValidPeriod(r.Year, r.Month) {
		errs = append(errs, validator.ValidationError{
			Field:   "period",
			Message: "year must be between 2000 and 2100 and month between 1 and 12",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (r *CalculateRequest) Period() Period {
	return Period{Year: r.Year, Month: time.Month(r.Month)}
}

type BulkCalculateRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (r *BulkCalculateRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidPeriod(r.Year, r.Month) {
		errs = append(errs, validator.ValidationError{
			Field:   "period",
			Message: "year must be between 2000 and 2100 and month between 1 and 12",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (r *BulkCalculateRequest) Period() Period {
	return Period{Year: r.Year, Month: time.Month(r.Month)}
}

// BulkCalculateItem is the per-employee outcome of a bulk run.
type BulkCalculateItem struct {
	UserID  string           `json:"user_id"`
	Success bool             `json:"success"`
	Payroll *PayrollResponse `json:"payroll,omitempty"`
	Error   string           `json:"error,omitempty"`
}

type BulkCalculateResponse struct {
	Period    string              `json:"period"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Results   []BulkCalculateItem `json:"results"`
}

type CancelPayrollRequest struct {
	ID     string `json:"-"`
	Reason string `json:"reason"`
}

func (r *CancelPayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "cancellation reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type PayrollFilter struct {
	UserID *string `json:"user_id,omitempty"`
	Status *string `json:"status,omitempty"`
	Year   *int    `json:"year,omitempty"`
	Month  *int    `json:"month,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *PayrollFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil && !validator.IsInSlice(*f.Status, StatusValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: DRAFT, CALCULATED, APPROVED, PAID, CANCELLED",
		})
	}

	if (f.Year != nil) != (f.Month != nil) {
		errs = append(errs, validator.ValidationError{
			Field:   "period",
			Message: "year and month must be provided together",
		})
	}
	if f.Year != nil && f.Month != nil && !validator.IsValidPeriod(*f.Year, *f.Month) {
		errs = append(errs, validator.ValidationError{
			Field:   "period",
			Message: "year must be between 2000 and 2100 and month between 1 and 12",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type PayrollResponse struct {
	ID               string  `json:"id"`
	UserID           string  `json:"user_id"`
	Period           string  `json:"period"`
	Status           string  `json:"status"`
	RegularMinutes   int     `json:"regular_minutes"`
	OvertimeMinutes  int     `json:"overtime_minutes"`
	DeductionMinutes int     `json:"deduction_minutes"`
	BaseSalary       string  `json:"base_salary"`
	OvertimePay      string  `json:"overtime_pay"`
	DeductionTotal   string  `json:"deduction_total"`
	GrossPay         string  `json:"gross_pay"`
	NetPay           string  `json:"net_pay"`
	CalculatedAt     *string `json:"calculated_at,omitempty"`
	ApprovedBy       *string `json:"approved_by,omitempty"`
	ApprovedAt       *string `json:"approved_at,omitempty"`
	PaidAt           *string `json:"paid_at,omitempty"`
	CancelReason     *string `json:"cancel_reason,omitempty"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

func ToResponse(p Payroll) PayrollResponse {
	resp := PayrollResponse{
		ID:               p.ID,
		UserID:           p.UserID,
		Period:           p.Period.String(),
		Status:           string(p.Status),
		RegularMinutes:   p.RegularMinutes,
		OvertimeMinutes:  p.OvertimeMinutes,
		DeductionMinutes: p.DeductionMinutes,
		BaseSalary:       p.BaseSalary.StringFixed(2),
		OvertimePay:      p.OvertimePay.StringFixed(2),
		DeductionTotal:   p.DeductionTotal.StringFixed(2),
		GrossPay:         p.GrossPay.StringFixed(2),
		NetPay:           p.NetPay.StringFixed(2),
		ApprovedBy:       p.ApprovedBy,
		CancelReason:     p.CancelReason,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        p.UpdatedAt.Format(time.RFC3339),
	}
	if p.CalculatedAt != nil {
		formatted := p.CalculatedAt.Format(time.RFC3339)
		resp.CalculatedAt = &formatted
	}
	if p.ApprovedAt != nil {
		formatted := p.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &formatted
	}
	if p.PaidAt != nil {
		formatted := p.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &formatted
	}
	return resp
}

type ListPayrollsResponse struct {
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
	Payrolls   []PayrollResponse `json:"payrolls"`
}

// ValidationResult is the outcome of re-deriving a payroll from its source
// assignments and violations.
type ValidationResult struct {
	PayrollID string           `json:"payroll_id"`
	Match     bool             `json:"match"`
	Diffs     []ValidationDiff `json:"diffs,omitempty"`
}

type ValidationDiff struct {
	Field    string `json:"field"`
	Stored   string `json:"stored"`
	Expected string `json:"expected"`
}

// PeriodSummary aggregates all payrolls of one period.
type PeriodSummary struct {
	Period           string `json:"period"`
	EmployeeCount    int    `json:"employee_count"`
	TotalGrossPay    string `json:"total_gross_pay"`
	TotalNetPay      string `json:"total_net_pay"`
	TotalDeductions  string `json:"total_deductions"`
	TotalOvertimePay string `json:"total_overtime_pay"`
	AverageNetPay    string `json:"average_net_pay"`
}

type DepartmentSummary struct {
	Department    string `json:"department"`
	EmployeeCount int    `json:"employee_count"`
	TotalNetPay   string `json:"total_net_pay"`
	AverageNetPay string `json:"average_net_pay"`
}

type TopEarner struct {
	UserID string `json:"user_id"`
	NetPay string `json:"net_pay"`
	Rank   int    `json:"rank"`
}

// TrendPoint is one period's totals in a multi-period series.
type TrendPoint struct {
	Period        string `json:"period"`
	TotalNetPay   string `json:"total_net_pay"`
	EmployeeCount int    `json:"employee_count"`
}

// PeriodComparison contrasts one period's totals against the previous.
type PeriodComparison struct {
	Current       PeriodSummary `json:"current"`
	Previous      PeriodSummary `json:"previous"`
	NetPayDelta   string        `json:"net_pay_delta"`
	NetPayPercent string        `json:"net_pay_percent"`
}
