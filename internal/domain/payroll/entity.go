package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusCalculated Status = "CALCULATED"
	StatusApproved   Status = "APPROVED"
	StatusPaid       Status = "PAID"
	StatusCancelled  Status = "CANCELLED"
)

var StatusValues = []string{
	string(StatusDraft),
	string(StatusCalculated),
	string(StatusApproved),
	string(StatusPaid),
	string(StatusCancelled),
}

func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// Period is one payroll month.
type Period struct {
	Year  int
	Month time.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Bounds returns the inclusive first and last day of the period.
func (p Period) Bounds() (time.Time, time.Time) {
	first := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}

func (p Period) After(other Period) bool {
	if p.Year != other.Year {
		return p.Year > other.Year
	}
	return p.Month > other.Month
}

func (p Period) Previous() Period {
	first, _ := p.Bounds()
	prev := first.AddDate(0, -1, 0)
	return Period{Year: prev.Year(), Month: prev.Month()}
}

// Payroll is one employee's computed pay for one period. Derived figures
// are replaced on recalculation; id and audit trail survive.
type Payroll struct {
	ID     string
	UserID string
	Period Period
	Status Status

	RegularMinutes   int
	OvertimeMinutes  int
	DeductionMinutes int

	BaseSalary     decimal.Decimal
	OvertimePay    decimal.Decimal
	DeductionTotal decimal.Decimal
	GrossPay       decimal.Decimal
	NetPay         decimal.Decimal

	CalculatedAt *time.Time
	ApprovedBy   *string
	ApprovedAt   *time.Time
	PaidAt       *time.Time
	CancelReason *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanTransitionTo encodes the payroll state machine.
func (p Payroll) CanTransitionTo(next Status) bool {
	switch p.Status {
	case StatusDraft:
		return next == StatusCalculated || next == StatusCancelled
	case StatusCalculated:
		return next == StatusApproved || next == StatusCancelled
	case StatusApproved:
		return next == StatusPaid || next == StatusCancelled
	default:
		return false
	}
}

// Recalculable reports whether derived fields may be overwritten in place.
// APPROVED and PAID payrolls need an explicit reset first.
func (p Payroll) Recalculable() bool {
	return p.Status == StatusDraft || p.Status == StatusCalculated
}

// Settings carries the pay policy rates used by the calculator.
type Settings struct {
	DeductionPerMinute   decimal.Decimal
	OvertimePayPerMinute decimal.Decimal
}
