package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/classboard/backoffice-go/internal/domain/payroll"
	"github.com/classboard/backoffice-go/internal/pkg/database"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

const payrollColumns = `
	id, user_id, period_year, period_month, status,
	regular_minutes, overtime_minutes, deduction_minutes,
	base_salary, overtime_pay, deduction_total, gross_pay, net_pay,
	calculated_at, approved_by, approved_at, paid_at, cancel_reason,
	created_at, updated_at
`

func scanPayroll(row pgx.Row) (payroll.Payroll, error) {
	var p payroll.Payroll
	var month int
	err := row.Scan(
		&p.ID, &p.UserID, &p.Period.Year, &month, &p.Status,
		&p.RegularMinutes, &p.OvertimeMinutes, &p.DeductionMinutes,
		&p.BaseSalary, &p.OvertimePay, &p.DeductionTotal, &p.GrossPay, &p.NetPay,
		&p.CalculatedAt, &p.ApprovedBy, &p.ApprovedAt, &p.PaidAt, &p.CancelReason,
		&p.CreatedAt, &p.UpdatedAt,
	)
	p.Period.Month = time.Month(month)
	return p, err
}

// Create implements payroll.PayrollRepository.
func (r *payrollRepository) Create(ctx context.Context, p payroll.Payroll) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payrolls (
			user_id, period_year, period_month, status,
			regular_minutes, overtime_minutes, deduction_minutes,
			base_salary, overtime_pay, deduction_total, gross_pay, net_pay,
			calculated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		p.UserID,
		p.Period.Year,
		int(p.Period.Month),
		p.Status,
		p.RegularMinutes,
		p.OvertimeMinutes,
		p.DeductionMinutes,
		p.BaseSalary,
		p.OvertimePay,
		p.DeductionTotal,
		p.GrossPay,
		p.NetPay,
		p.CalculatedAt,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return payroll.Payroll{}, fmt.Errorf("failed to create payroll: %w", err)
	}

	return p, nil
}

// GetByID implements payroll.PayrollRepository.
func (r *payrollRepository) GetByID(ctx context.Context, id string) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payrollColumns + ` FROM payrolls WHERE id = $1`

	p, err := scanPayroll(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payroll{}, payroll.ErrPayrollNotFound
		}
		return payroll.Payroll{}, fmt.Errorf("failed to get payroll: %w", err)
	}

	return p, nil
}

// GetByUserAndPeriod implements payroll.PayrollRepository.
func (r *payrollRepository) GetByUserAndPeriod(ctx context.Context, userID string, period payroll.Period) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + payrollColumns + `
		FROM payrolls
		WHERE user_id = $1 AND period_year = $2 AND period_month = $3
	`

	p, err := scanPayroll(q.QueryRow(ctx, query, userID, period.Year, int(period.Month)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payroll{}, payroll.ErrPayrollNotFound
		}
		return payroll.Payroll{}, fmt.Errorf("failed to get payroll by user and period: %w", err)
	}

	return p, nil
}

// Update implements payroll.PayrollRepository with a status
// compare-and-swap.
func (r *payrollRepository) Update(ctx context.Context, p payroll.Payroll, expected payroll.Status) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payrolls
		SET status = $3, regular_minutes = $4, overtime_minutes = $5,
		    deduction_minutes = $6, base_salary = $7, overtime_pay = $8,
		    deduction_total = $9, gross_pay = $10, net_pay = $11,
		    calculated_at = $12, approved_by = $13, approved_at = $14,
		    paid_at = $15, cancel_reason = $16, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	tag, err := q.Exec(ctx, query,
		p.ID,
		expected,
		p.Status,
		p.RegularMinutes,
		p.OvertimeMinutes,
		p.DeductionMinutes,
		p.BaseSalary,
		p.OvertimePay,
		p.DeductionTotal,
		p.GrossPay,
		p.NetPay,
		p.CalculatedAt,
		p.ApprovedBy,
		p.ApprovedAt,
		p.PaidAt,
		p.CancelReason,
	)
	if err != nil {
		return fmt.Errorf("failed to update payroll: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM payrolls WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check payroll existence: %w", err)
		}
		if !exists {
			return payroll.ErrPayrollNotFound
		}
		return payroll.ErrStaleState
	}

	return nil
}

// List implements payroll.PayrollRepository.
func (r *payrollRepository) List(ctx context.Context, filter payroll.PayrollFilter) ([]payroll.Payroll, int64, error) {
	q := GetQuerier(ctx, r.db)

	var conditions []string
	var args []interface{}
	argPos := 1

	addCondition := func(clause string, value interface{}) {
		conditions = append(conditions, clause+"$"+strconv.Itoa(argPos))
		args = append(args, value)
		argPos++
	}

	if filter.UserID != nil {
		addCondition("user_id = ", *filter.UserID)
	}
	if filter.Status != nil {
		addCondition("status = ", *filter.Status)
	}
	if filter.Year != nil {
		addCondition("period_year = ", *filter.Year)
	}
	if filter.Month != nil {
		addCondition("period_month = ", *filter.Month)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM payrolls`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payrolls: %w", err)
	}

	query := `SELECT ` + payrollColumns + ` FROM payrolls` + where +
		` ORDER BY period_year DESC, period_month DESC, user_id` +
		` LIMIT $` + strconv.Itoa(argPos) + ` OFFSET $` + strconv.Itoa(argPos+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payrolls: %w", err)
	}
	defer rows.Close()

	payrolls, err := collectPayrolls(rows)
	if err != nil {
		return nil, 0, err
	}

	return payrolls, total, nil
}

// ListByPeriod implements payroll.PayrollRepository.
func (r *payrollRepository) ListByPeriod(ctx context.Context, period payroll.Period) ([]payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + payrollColumns + `
		FROM payrolls
		WHERE period_year = $1 AND period_month = $2
		ORDER BY user_id
	`

	rows, err := q.Query(ctx, query, period.Year, int(period.Month))
	if err != nil {
		return nil, fmt.Errorf("failed to list payrolls by period: %w", err)
	}
	defer rows.Close()

	return collectPayrolls(rows)
}

func collectPayrolls(rows pgx.Rows) ([]payroll.Payroll, error) {
	var payrolls []payroll.Payroll
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll: %w", err)
		}
		payrolls = append(payrolls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payrolls: %w", err)
	}
	return payrolls, nil
}
