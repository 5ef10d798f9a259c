package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/classboard/backoffice-go/internal/domain/assignment"
	"github.com/classboard/backoffice-go/internal/pkg/database"
)

type assignmentRepository struct {
	db *database.DB
}

func NewAssignmentRepository(db *database.DB) assignment.AssignmentRepository {
	return &assignmentRepository{db: db}
}

const assignmentColumns = `
	id, employee_id, schedule_id, template_id, date,
	planned_start, planned_end, status,
	check_in_time, check_in_location, check_out_time, check_out_location,
	worked_minutes, is_overtime, cancel_reason,
	status_changed_by, status_changed_at, created_at, updated_at
`

func scanAssignment(row pgx.Row) (assignment.ShiftAssignment, error) {
	var a assignment.ShiftAssignment
	err := row.Scan(
		&a.ID, &a.EmployeeID, &a.ScheduleID, &a.TemplateID, &a.Date,
		&a.PlannedStart, &a.PlannedEnd, &a.Status,
		&a.CheckInTime, &a.CheckInLocation, &a.CheckOutTime, &a.CheckOutLocation,
		&a.WorkedMinutes, &a.IsOvertime, &a.CancelReason,
		&a.StatusChangedBy, &a.StatusChangedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

// Create implements assignment.AssignmentRepository.
func (r *assignmentRepository) Create(ctx context.Context, a assignment.ShiftAssignment) (assignment.ShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO shift_assignments (
			employee_id, schedule_id, template_id, date,
			planned_start, planned_end, status,
			status_changed_by, status_changed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		a.EmployeeID,
		a.ScheduleID,
		a.TemplateID,
		a.Date,
		a.PlannedStart,
		a.PlannedEnd,
		a.Status,
		a.StatusChangedBy,
		a.StatusChangedAt,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		return assignment.ShiftAssignment{}, fmt.Errorf("failed to create shift assignment: %w", err)
	}

	return a, nil
}

// GetByID implements assignment.AssignmentRepository.
func (r *assignmentRepository) GetByID(ctx context.Context, id string) (assignment.ShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + assignmentColumns + ` FROM shift_assignments WHERE id = $1`

	a, err := scanAssignment(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return assignment.ShiftAssignment{}, assignment.ErrAssignmentNotFound
		}
		return assignment.ShiftAssignment{}, fmt.Errorf("failed to get shift assignment: %w", err)
	}

	return a, nil
}

// Update implements assignment.AssignmentRepository. The WHERE clause pins
// the prior status so a lost race surfaces as ErrStaleState instead of a
// silent overwrite.
func (r *assignmentRepository) Update(ctx context.Context, a assignment.ShiftAssignment, expected assignment.Status) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shift_assignments
		SET status = $3, check_in_time = $4, check_in_location = $5,
		    check_out_time = $6, check_out_location = $7,
		    worked_minutes = $8, is_overtime = $9, cancel_reason = $10,
		    status_changed_by = $11, status_changed_at = $12, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	tag, err := q.Exec(ctx, query,
		a.ID,
		expected,
		a.Status,
		a.CheckInTime,
		a.CheckInLocation,
		a.CheckOutTime,
		a.CheckOutLocation,
		a.WorkedMinutes,
		a.IsOvertime,
		a.CancelReason,
		a.StatusChangedBy,
		a.StatusChangedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update shift assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a lost race.
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM shift_assignments WHERE id = $1)`, a.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check shift assignment existence: %w", err)
		}
		if !exists {
			return assignment.ErrAssignmentNotFound
		}
		return assignment.ErrStaleState
	}

	return nil
}

// ListActiveByEmployeeAndDate implements assignment.AssignmentRepository.
func (r *assignmentRepository) ListActiveByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) ([]assignment.ShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + assignmentColumns + `
		FROM shift_assignments
		WHERE employee_id = $1
		  AND date = $2
		  AND status != 'CANCELLED'
		ORDER BY planned_start
	`

	rows, err := q.Query(ctx, query, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list active assignments: %w", err)
	}
	defer rows.Close()

	return collectAssignments(rows)
}

// ListByScheduleID implements assignment.AssignmentRepository.
func (r *assignmentRepository) ListByScheduleID(ctx context.Context, scheduleID string) ([]assignment.ShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + assignmentColumns + `
		FROM shift_assignments
		WHERE schedule_id = $1
		ORDER BY date, planned_start
	`

	rows, err := q.Query(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments by schedule: %w", err)
	}
	defer rows.Close()

	return collectAssignments(rows)
}

// List implements assignment.AssignmentRepository.
func (r *assignmentRepository) List(ctx context.Context, filter assignment.AssignmentFilter) ([]assignment.ShiftAssignment, int64, error) {
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
	if filter.ScheduleID != nil {
		addCondition("schedule_id = ", *filter.ScheduleID)
	}
	if filter.TemplateID != nil {
		addCondition("template_id = ", *filter.TemplateID)
	}
	if filter.Status != nil {
		addCondition("status = ", *filter.Status)
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		addCondition("date >= ", *filter.StartDate)
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		addCondition("date <= ", *filter.EndDate)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM shift_assignments` + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count shift assignments: %w", err)
	}

	query := `SELECT ` + assignmentColumns + ` FROM shift_assignments` + where +
		` ORDER BY date DESC, planned_start` +
		` LIMIT $` + strconv.Itoa(argPos) + ` OFFSET $` + strconv.Itoa(argPos+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list shift assignments: %w", err)
	}
	defer rows.Close()

	assignments, err := collectAssignments(rows)
	if err != nil {
		return nil, 0, err
	}

	return assignments, total, nil
}

// ListCompletedInPeriod implements assignment.AssignmentRepository.
func (r *assignmentRepository) ListCompletedInPeriod(ctx context.Context, employeeID string, from, to time.Time) ([]assignment.ShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + assignmentColumns + `
		FROM shift_assignments
		WHERE employee_id = $1
		  AND date BETWEEN $2 AND $3
		  AND status = 'COMPLETED'
		ORDER BY date, planned_start
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed assignments: %w", err)
	}
	defer rows.Close()

	return collectAssignments(rows)
}

// ListOverdueScheduled implements assignment.AssignmentRepository.
func (r *assignmentRepository) ListOverdueScheduled(ctx context.Context, deadline time.Time) ([]assignment.ShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + assignmentColumns + `
		FROM shift_assignments
		WHERE status = 'SCHEDULED'
		  AND planned_end < $1
		ORDER BY planned_end
	`

	rows, err := q.Query(ctx, query, deadline)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue assignments: %w", err)
	}
	defer rows.Close()

	return collectAssignments(rows)
}

// ListFinishedInRange implements assignment.AssignmentRepository.
func (r *assignmentRepository) ListFinishedInRange(ctx context.Context, from, to time.Time) ([]assignment.ShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + assignmentColumns + `
		FROM shift_assignments
		WHERE date BETWEEN $1 AND $2
		  AND status IN ('COMPLETED', 'NO_SHOW')
		ORDER BY date, planned_start
	`

	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list finished assignments: %w", err)
	}
	defer rows.Close()

	return collectAssignments(rows)
}

func collectAssignments(rows pgx.Rows) ([]assignment.ShiftAssignment, error) {
	var assignments []assignment.ShiftAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shift assignments: %w", err)
	}
	return assignments, nil
}
