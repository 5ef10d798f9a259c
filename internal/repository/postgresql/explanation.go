package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/classboard/backoffice-go/internal/domain/violation"
	"github.com/classboard/backoffice-go/internal/pkg/database"
)

type explanationRepository struct {
	db *database.DB
}

func NewExplanationRepository(db *database.DB) violation.ExplanationRepository {
	return &explanationRepository{db: db}
}

const explanationColumns = `
	id, violation_id, submitted_by, explanation_text, submitted_at,
	status, reviewed_by, reviewed_at, review_notes, created_at, updated_at
`

func scanExplanation(row pgx.Row) (violation.ViolationExplanation, error) {
	var e violation.ViolationExplanation
	err := row.Scan(
		&e.ID, &e.ViolationID, &e.SubmittedBy, &e.ExplanationText, &e.SubmittedAt,
		&e.Status, &e.ReviewedBy, &e.ReviewedAt, &e.ReviewNotes, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

// Create implements violation.ExplanationRepository.
func (r *explanationRepository) Create(ctx context.Context, e violation.ViolationExplanation) (violation.ViolationExplanation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO violation_explanations (
			violation_id, submitted_by, explanation_text, submitted_at, status
		) VALUES (
			$1, $2, $3, $4, $5
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		e.ViolationID,
		e.SubmittedBy,
		e.ExplanationText,
		e.SubmittedAt,
		e.Status,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)

	if err != nil {
		return violation.ViolationExplanation{}, fmt.Errorf("failed to create violation explanation: %w", err)
	}

	return e, nil
}

// GetByID implements violation.ExplanationRepository.
func (r *explanationRepository) GetByID(ctx context.Context, id string) (violation.ViolationExplanation, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + explanationColumns + ` FROM violation_explanations WHERE id = $1`

	e, err := scanExplanation(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return violation.ViolationExplanation{}, violation.ErrExplanationNotFound
		}
		return violation.ViolationExplanation{}, fmt.Errorf("failed to get violation explanation: %w", err)
	}

	return e, nil
}

// Update implements violation.ExplanationRepository.
func (r *explanationRepository) Update(ctx context.Context, e violation.ViolationExplanation) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE violation_explanations
		SET explanation_text = $2, submitted_at = $3, status = $4,
		    reviewed_by = $5, reviewed_at = $6, review_notes = $7, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		e.ID,
		e.ExplanationText,
		e.SubmittedAt,
		e.Status,
		e.ReviewedBy,
		e.ReviewedAt,
		e.ReviewNotes,
	)
	if err != nil {
		return fmt.Errorf("failed to update violation explanation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return violation.ErrExplanationNotFound
	}

	return nil
}

// Delete implements violation.ExplanationRepository.
func (r *explanationRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM violation_explanations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete violation explanation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return violation.ErrExplanationNotFound
	}

	return nil
}

// ListByViolationID implements violation.ExplanationRepository.
func (r *explanationRepository) ListByViolationID(ctx context.Context, violationID string) ([]violation.ViolationExplanation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + explanationColumns + `
		FROM violation_explanations
		WHERE violation_id = $1
		ORDER BY submitted_at DESC
	`

	rows, err := q.Query(ctx, query, violationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list violation explanations: %w", err)
	}
	defer rows.Close()

	var explanations []violation.ViolationExplanation
	for rows.Next() {
		e, err := scanExplanation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan violation explanation: %w", err)
		}
		explanations = append(explanations, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate violation explanations: %w", err)
	}

	return explanations, nil
}

// GetLatestByViolationID implements violation.ExplanationRepository.
func (r *explanationRepository) GetLatestByViolationID(ctx context.Context, violationID string) (violation.ViolationExplanation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + explanationColumns + `
		FROM violation_explanations
		WHERE violation_id = $1
		ORDER BY submitted_at DESC
		LIMIT 1
	`

	e, err := scanExplanation(q.QueryRow(ctx, query, violationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return violation.ViolationExplanation{}, violation.ErrExplanationNotFound
		}
		return violation.ViolationExplanation{}, fmt.Errorf("failed to get latest explanation: %w", err)
	}

	return e, nil
}

// GetPendingByViolationID implements violation.ExplanationRepository.
func (r *explanationRepository) GetPendingByViolationID(ctx context.Context, violationID string) (violation.ViolationExplanation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + explanationColumns + `
		FROM violation_explanations
		WHERE violation_id = $1
		  AND status IN ('SUBMITTED', 'NEEDS_MORE_INFO')
		ORDER BY submitted_at DESC
		LIMIT 1
	`

	e, err := scanExplanation(q.QueryRow(ctx, query, violationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return violation.ViolationExplanation{}, violation.ErrExplanationNotFound
		}
		return violation.ViolationExplanation{}, fmt.Errorf("failed to get pending explanation: %w", err)
	}

	return e, nil
}
