package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/classboard/backoffice-go/internal/domain/schedule"
	"github.com/classboard/backoffice-go/internal/pkg/database"
)

type scheduleRepository struct {
	db *database.DB
}

func NewScheduleRepository(db *database.DB) schedule.ScheduleRepository {
	return &scheduleRepository{db: db}
}

const scheduleColumns = `
	id, name, type, status, start_date, end_date, created_by,
	published_at, cancel_reason, status_changed_by, status_changed_at,
	created_at, updated_at
`

func scanSchedule(row pgx.Row) (schedule.ShiftSchedule, error) {
	var s schedule.ShiftSchedule
	err := row.Scan(
		&s.ID, &s.Name, &s.Type, &s.Status, &s.StartDate, &s.EndDate, &s.CreatedBy,
		&s.PublishedAt, &s.CancelReason, &s.StatusChangedBy, &s.StatusChangedAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// Create implements schedule.ScheduleRepository.
func (r *scheduleRepository) Create(ctx context.Context, s schedule.ShiftSchedule) (schedule.ShiftSchedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO shift_schedules (
			name, type, status, start_date, end_date, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		s.Name,
		s.Type,
		s.Status,
		s.StartDate,
		s.EndDate,
		s.CreatedBy,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		return schedule.ShiftSchedule{}, fmt.Errorf("failed to create shift schedule: %w", err)
	}

	return s, nil
}

// GetByID implements schedule.ScheduleRepository.
func (r *scheduleRepository) GetByID(ctx context.Context, id string) (schedule.ShiftSchedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + scheduleColumns + ` FROM shift_schedules WHERE id = $1`

	s, err := scanSchedule(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.ShiftSchedule{}, schedule.ErrScheduleNotFound
		}
		return schedule.ShiftSchedule{}, fmt.Errorf("failed to get shift schedule: %w", err)
	}

	return s, nil
}

// Update implements schedule.ScheduleRepository with a status
// compare-and-swap.
func (r *scheduleRepository) Update(ctx context.Context, s schedule.ShiftSchedule, expected schedule.Status) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shift_schedules
		SET name = $3, type = $4, status = $5, start_date = $6, end_date = $7,
		    published_at = $8, cancel_reason = $9,
		    status_changed_by = $10, status_changed_at = $11, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	tag, err := q.Exec(ctx, query,
		s.ID,
		expected,
		s.Name,
		s.Type,
		s.Status,
		s.StartDate,
		s.EndDate,
		s.PublishedAt,
		s.CancelReason,
		s.StatusChangedBy,
		s.StatusChangedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update shift schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM shift_schedules WHERE id = $1)`, s.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check shift schedule existence: %w", err)
		}
		if !exists {
			return schedule.ErrScheduleNotFound
		}
		return schedule.ErrStaleState
	}

	return nil
}

// Delete implements schedule.ScheduleRepository.
func (r *scheduleRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM shift_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shift schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return schedule.ErrScheduleNotFound
	}

	return nil
}

// List implements schedule.ScheduleRepository.
func (r *scheduleRepository) List(ctx context.Context, filter schedule.ScheduleFilter) ([]schedule.ShiftSchedule, int64, error) {
	q := GetQuerier(ctx, r.db)

	var conditions []string
	var args []interface{}
	argPos := 1

	if filter.Status != nil {
		conditions = append(conditions, "status = $"+strconv.Itoa(argPos))
		args = append(args, *filter.Status)
		argPos++
	}
	if filter.Type != nil {
		conditions = append(conditions, "type = $"+strconv.Itoa(argPos))
		args = append(args, *filter.Type)
		argPos++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM shift_schedules`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count shift schedules: %w", err)
	}

	query := `SELECT ` + scheduleColumns + ` FROM shift_schedules` + where +
		` ORDER BY start_date DESC` +
		` LIMIT $` + strconv.Itoa(argPos) + ` OFFSET $` + strconv.Itoa(argPos+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list shift schedules: %w", err)
	}
	defer rows.Close()

	schedules, err := collectSchedules(rows)
	if err != nil {
		return nil, 0, err
	}

	return schedules, total, nil
}

// ListPublishedEndedBefore implements schedule.ScheduleRepository.
func (r *scheduleRepository) ListPublishedEndedBefore(ctx context.Context, cutoff time.Time) ([]schedule.ShiftSchedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + scheduleColumns + `
		FROM shift_schedules
		WHERE status = 'PUBLISHED'
		  AND end_date < $1
		ORDER BY end_date
	`

	rows, err := q.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list archivable schedules: %w", err)
	}
	defer rows.Close()

	return collectSchedules(rows)
}

func collectSchedules(rows pgx.Rows) ([]schedule.ShiftSchedule, error) {
	var schedules []schedule.ShiftSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shift schedules: %w", err)
	}
	return schedules, nil
}
