package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/classboard/backoffice-go/internal/domain/violation"
	"github.com/classboard/backoffice-go/internal/pkg/database"
)

type violationRepository struct {
	db *database.DB
}

func NewViolationRepository(db *database.DB) violation.ViolationRepository {
	return &violationRepository{db: db}
}

const violationColumns = `
	id, assignment_id, employee_id, type, violation_date, minutes,
	status, detected_at, resolved_at, resolved_by, resolution_notes,
	escalated_at, escalated_by, created_at, updated_at
`

func scanViolation(row pgx.Row) (violation.AttendanceViolation, error) {
	var v violation.AttendanceViolation
	err := row.Scan(
		&v.ID, &v.AssignmentID, &v.EmployeeID, &v.Type, &v.ViolationDate, &v.Minutes,
		&v.Status, &v.DetectedAt, &v.ResolvedAt, &v.ResolvedBy, &v.ResolutionNotes,
		&v.EscalatedAt, &v.EscalatedBy, &v.CreatedAt, &v.UpdatedAt,
	)
	return v, err
}

// Create implements violation.ViolationRepository.
func (r *violationRepository) Create(ctx context.Context, v violation.AttendanceViolation) (violation.AttendanceViolation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_violations (
			assignment_id, employee_id, type, violation_date, minutes,
			status, detected_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		v.AssignmentID,
		v.EmployeeID,
		v.Type,
		v.ViolationDate,
		v.Minutes,
		v.Status,
		v.DetectedAt,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)

	if err != nil {
		return violation.AttendanceViolation{}, fmt.Errorf("failed to create attendance violation: %w", err)
	}

	return v, nil
}

// GetByID implements violation.ViolationRepository.
func (r *violationRepository) GetByID(ctx context.Context, id string) (violation.AttendanceViolation, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + violationColumns + ` FROM attendance_violations WHERE id = $1`

	v, err := scanViolation(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return violation.AttendanceViolation{}, violation.ErrViolationNotFound
		}
		return violation.AttendanceViolation{}, fmt.Errorf("failed to get attendance violation: %w", err)
	}

	return v, nil
}

// Update implements violation.ViolationRepository with a status
// compare-and-swap.
func (r *violationRepository) Update(ctx context.Context, v violation.AttendanceViolation, expected violation.Status) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_violations
		SET status = $3, resolved_at = $4, resolved_by = $5,
		    resolution_notes = $6, escalated_at = $7, escalated_by = $8,
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	tag, err := q.Exec(ctx, query,
		v.ID,
		expected,
		v.Status,
		v.ResolvedAt,
		v.ResolvedBy,
		v.ResolutionNotes,
		v.EscalatedAt,
		v.EscalatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance violation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM attendance_violations WHERE id = $1)`, v.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check attendance violation existence: %w", err)
		}
		if !exists {
			return violation.ErrViolationNotFound
		}
		return violation.ErrStaleState
	}

	return nil
}

// ExistsByAssignmentAndType implements violation.ViolationRepository.
func (r *violationRepository) ExistsByAssignmentAndType(ctx context.Context, assignmentID string, t violation.Type) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM attendance_violations WHERE assignment_id = $1 AND type = $2)`,
		assignmentID, t,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check violation existence: %w", err)
	}

	return exists, nil
}

// List implements violation.ViolationRepository.
func (r *violationRepository) List(ctx context.Context, filter violation.ViolationFilter) ([]violation.AttendanceViolation, int64, error) {
	q := GetQuerier(ctx, r.db)

	var conditions []string
	var args []interface{}
	argPos := 1

	addCondition := func(clause string, value interface{}) {
		conditions = append(conditions, clause+"$"+strconv.Itoa(argPos))
		args = append(args, value)
		argPos++
	}

	if filter.EmployeeID != nil {
		addCondition("employee_id = ", *filter.EmployeeID)
	}
	if filter.Type != nil {
		addCondition("type = ", *filter.Type)
	}
	if filter.Status != nil {
		addCondition("status = ", *filter.Status)
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		addCondition("violation_date >= ", *filter.StartDate)
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		addCondition("violation_date <= ", *filter.EndDate)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM attendance_violations`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance violations: %w", err)
	}

	query := `SELECT ` + violationColumns + ` FROM attendance_violations` + where +
		` ORDER BY violation_date DESC, detected_at DESC` +
		` LIMIT $` + strconv.Itoa(argPos) + ` OFFSET $` + strconv.Itoa(argPos+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance violations: %w", err)
	}
	defer rows.Close()

	violations, err := collectViolations(rows)
	if err != nil {
		return nil, 0, err
	}

	return violations, total, nil
}

// ListByEmployeeAndPeriod implements violation.ViolationRepository.
func (r *violationRepository) ListByEmployeeAndPeriod(ctx context.Context, employeeID string, from, to time.Time) ([]violation.AttendanceViolation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + violationColumns + `
		FROM attendance_violations
		WHERE employee_id = $1
		  AND violation_date BETWEEN $2 AND $3
		ORDER BY violation_date
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations by period: %w", err)
	}
	defer rows.Close()

	return collectViolations(rows)
}

// FindOverdue implements violation.ViolationRepository.
func (r *violationRepository) FindOverdue(ctx context.Context, cutoff time.Time) ([]violation.AttendanceViolation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + violationColumns + `
		FROM attendance_violations
		WHERE status IN ('OPEN', 'PENDING_EXPLANATION')
		  AND detected_at < $1
		ORDER BY detected_at
	`

	rows, err := q.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue violations: %w", err)
	}
	defer rows.Close()

	return collectViolations(rows)
}

// CountByEmployeeAndType implements violation.ViolationRepository.
func (r *violationRepository) CountByEmployeeAndType(ctx context.Context, employeeID string, from, to time.Time) (map[violation.Type]int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT type, COUNT(*)
		FROM attendance_violations
		WHERE employee_id = $1
		  AND violation_date BETWEEN $2 AND $3
		GROUP BY type
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to count violations by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[violation.Type]int)
	for rows.Next() {
		var t violation.Type
		var count int
		if err := rows.Scan(&t, &count); err != nil {
			return nil, fmt.Errorf("failed to scan violation count: %w", err)
		}
		counts[t] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate violation counts: %w", err)
	}

	return counts, nil
}

func collectViolations(rows pgx.Rows) ([]violation.AttendanceViolation, error) {
	var violations []violation.AttendanceViolation
	for rows.Next() {
		v, err := scanViolation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance violation: %w", err)
		}
		violations = append(violations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance violations: %w", err)
	}
	return violations, nil
}
