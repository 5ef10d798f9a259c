package payroll

import (
	"context"

	"github.com/shopspring/decimal"
)

// PayrollRepository defines data access for payroll records. One record
// exists per (user, period).
type PayrollRepository interface {
	Create(ctx context.Context, p Payroll) (Payroll, error)

	GetByID(ctx context.Context, id string) (Payroll, error)

	// GetByUserAndPeriod returns the unique record for the key or
	// ErrPayrollNotFound.
	GetByUserAndPeriod(ctx context.Context, userID string, period Period) (Payroll, error)

	// Update persists the payroll iff its stored status still equals
	// expected (compare-and-swap).
	Update(ctx context.Context, p Payroll, expected Status) error

	List(ctx context.Context, filter PayrollFilter) ([]Payroll, int64, error)

	// ListByPeriod retrieves every record for the period; the statistics
	// queries' read set.
	ListByPeriod(ctx context.Context, period Period) ([]Payroll, error)
}

// SalaryProvider supplies base salary figures from the HR profile system.
type SalaryProvider interface {
	// BaseSalary returns the employee's monthly base salary, or
	// ErrSalaryNotFound.
	BaseSalary(ctx context.Context, userID string) (decimal.Decimal, error)

	// Department returns the employee's department name; used by the
	// by-department statistics rollup. Unknown employees land in "".
	Department(ctx context.Context, userID string) (string, error)

	// ListEligible returns the user ids to include in a bulk calculation.
	ListEligible(ctx context.Context) ([]string, error)
}
