package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/classboard/backoffice-go/internal/domain/template"
	"github.com/classboard/backoffice-go/internal/pkg/database"
)

type templateRepository struct {
	db *database.DB
}

func NewTemplateRepository(db *database.DB) template.TemplateRepository {
	return &templateRepository{db: db}
}

const templateColumns = `
	id, name, start_time, end_time, has_break, break_minutes,
	overtime_eligible, active, sort_order, created_at, updated_at
`

func scanTemplate(row pgx.Row) (template.ShiftTemplate, error) {
	var t template.ShiftTemplate
	err := row.Scan(
		&t.ID, &t.Name, &t.StartTime, &t.EndTime, &t.HasBreak, &t.BreakMinutes,
		&t.OvertimeEligible, &t.Active, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// Create implements template.TemplateRepository.
func (r *templateRepository) Create(ctx context.Context, t template.ShiftTemplate) (template.ShiftTemplate, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO shift_templates (
			name, start_time, end_time, has_break, break_minutes,
			overtime_eligible, active, sort_order
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		t.Name,
		t.StartTime,
		t.EndTime,
		t.HasBreak,
		t.BreakMinutes,
		t.OvertimeEligible,
		t.Active,
		t.SortOrder,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return template.ShiftTemplate{}, template.ErrTemplateNameExists
		}
		return template.ShiftTemplate{}, fmt.Errorf("failed to create shift template: %w", err)
	}

	return t, nil
}

// GetByID implements template.TemplateRepository.
func (r *templateRepository) GetByID(ctx context.Context, id string) (template.ShiftTemplate, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + templateColumns + ` FROM shift_templates WHERE id = $1`

	t, err := scanTemplate(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return template.ShiftTemplate{}, template.ErrTemplateNotFound
		}
		return template.ShiftTemplate{}, fmt.Errorf("failed to get shift template: %w", err)
	}

	return t, nil
}

// Update implements template.TemplateRepository.
func (r *templateRepository) Update(ctx context.Context, t template.ShiftTemplate) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shift_templates
		SET name = $2, start_time = $3, end_time = $4, has_break = $5,
		    break_minutes = $6, overtime_eligible = $7, active = $8,
		    sort_order = $9, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		t.ID,
		t.Name,
		t.StartTime,
		t.EndTime,
		t.HasBreak,
		t.BreakMinutes,
		t.OvertimeEligible,
		t.Active,
		t.SortOrder,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return template.ErrTemplateNameExists
		}
		return fmt.Errorf("failed to update shift template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return template.ErrTemplateNotFound
	}

	return nil
}

// List implements template.TemplateRepository.
func (r *templateRepository) List(ctx context.Context, activeOnly bool) ([]template.ShiftTemplate, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + templateColumns + ` FROM shift_templates`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY sort_order, name`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list shift templates: %w", err)
	}
	defer rows.Close()

	return collectTemplates(rows)
}

// ListOverlapping implements template.TemplateRepository.
func (r *templateRepository) ListOverlapping(ctx context.Context, start, end time.Time) ([]template.ShiftTemplate, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + templateColumns + `
		FROM shift_templates
		WHERE active = TRUE
		  AND start_time < $2
		  AND $1 < end_time
		ORDER BY sort_order, name
	`

	rows, err := q.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list overlapping templates: %w", err)
	}
	defer rows.Close()

	return collectTemplates(rows)
}

// ListOvertimeEligible implements template.TemplateRepository.
func (r *templateRepository) ListOvertimeEligible(ctx context.Context) ([]template.ShiftTemplate, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + templateColumns + `
		FROM shift_templates
		WHERE active = TRUE AND overtime_eligible = TRUE
		ORDER BY sort_order, name
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list overtime-eligible templates: %w", err)
	}
	defer rows.Close()

	return collectTemplates(rows)
}

func collectTemplates(rows pgx.Rows) ([]template.ShiftTemplate, error) {
	var templates []template.ShiftTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shift templates: %w", err)
	}
	return templates, nil
}
