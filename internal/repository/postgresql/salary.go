package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/classboard/backoffice-go/internal/domain/payroll"
	"github.com/classboard/backoffice-go/internal/pkg/database"
)

type salaryProvider struct {
	db *database.DB
}

// NewSalaryProvider reads base salary figures from the employee_profiles
// table, which the HR profile system keeps in sync.
func NewSalaryProvider(db *database.DB) payroll.SalaryProvider {
	return &salaryProvider{db: db}
}

// BaseSalary implements payroll.SalaryProvider.
func (p *salaryProvider) BaseSalary(ctx context.Context, userID string) (decimal.Decimal, error) {
	q := GetQuerier(ctx, p.db)

	query := `SELECT base_salary FROM employee_profiles WHERE user_id = $1`

	var salary decimal.Decimal
	if err := q.QueryRow(ctx, query, userID).Scan(&salary); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, payroll.ErrSalaryNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to get base salary: %w", err)
	}

	return salary, nil
}

// Department implements payroll.SalaryProvider. Unknown employees land in
// the empty department rather than failing the statistics rollup.
func (p *salaryProvider) Department(ctx context.Context, userID string) (string, error) {
	q := GetQuerier(ctx, p.db)

	query := `SELECT department FROM employee_profiles WHERE user_id = $1`

	var department string
	if err := q.QueryRow(ctx, query, userID).Scan(&department); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get department: %w", err)
	}

	return department, nil
}

// ListEligible implements payroll.SalaryProvider.
func (p *salaryProvider) ListEligible(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, p.db)

	query := `SELECT user_id FROM employee_profiles WHERE payroll_eligible ORDER BY user_id`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible employees: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan eligible employee: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate eligible employees: %w", err)
	}

	return ids, nil
}
