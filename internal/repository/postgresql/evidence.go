package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/classboard/backoffice-go/internal/domain/violation"
	"github.com/classboard/backoffice-go/internal/pkg/database"
)

type evidenceRepository struct {
	db *database.DB
}

func NewEvidenceRepository(db *database.DB) violation.EvidenceRepository {
	return &evidenceRepository{db: db}
}

const evidenceColumns = `
	id, explanation_id, file_name, storage_key, description, evidence_type,
	uploaded_at, upload_ip, verified, verified_by, verified_at
`

func scanEvidence(row pgx.Row) (violation.ExplanationEvidence, error) {
	var e violation.ExplanationEvidence
	err := row.Scan(
		&e.ID, &e.ExplanationID, &e.FileName, &e.StorageKey, &e.Description, &e.EvidenceType,
		&e.UploadedAt, &e.UploadIP, &e.Verified, &e.VerifiedBy, &e.VerifiedAt,
	)
	return e, err
}

// Create implements violation.EvidenceRepository.
func (r *evidenceRepository) Create(ctx context.Context, e violation.ExplanationEvidence) (violation.ExplanationEvidence, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO explanation_evidence (
			explanation_id, file_name, storage_key, description, evidence_type,
			uploaded_at, upload_ip, verified
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		) RETURNING id
	`

	err := q.QueryRow(ctx, query,
		e.ExplanationID,
		e.FileName,
		e.StorageKey,
		e.Description,
		e.EvidenceType,
		e.UploadedAt,
		e.UploadIP,
		e.Verified,
	).Scan(&e.ID)

	if err != nil {
		return violation.ExplanationEvidence{}, fmt.Errorf("failed to create explanation evidence: %w", err)
	}

	return e, nil
}

// GetByID implements violation.EvidenceRepository.
func (r *evidenceRepository) GetByID(ctx context.Context, id string) (violation.ExplanationEvidence, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + evidenceColumns + ` FROM explanation_evidence WHERE id = $1`

	e, err := scanEvidence(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return violation.ExplanationEvidence{}, violation.ErrEvidenceNotFound
		}
		return violation.ExplanationEvidence{}, fmt.Errorf("failed to get explanation evidence: %w", err)
	}

	return e, nil
}

// Update implements violation.EvidenceRepository.
func (r *evidenceRepository) Update(ctx context.Context, e violation.ExplanationEvidence) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE explanation_evidence
		SET description = $2, verified = $3, verified_by = $4, verified_at = $5
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		e.ID,
		e.Description,
		e.Verified,
		e.VerifiedBy,
		e.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update explanation evidence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return violation.ErrEvidenceNotFound
	}

	return nil
}

// Delete implements violation.EvidenceRepository.
func (r *evidenceRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM explanation_evidence WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete explanation evidence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return violation.ErrEvidenceNotFound
	}

	return nil
}

// ListByExplanationID implements violation.EvidenceRepository.
func (r *evidenceRepository) ListByExplanationID(ctx context.Context, explanationID string) ([]violation.ExplanationEvidence, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + evidenceColumns + `
		FROM explanation_evidence
		WHERE explanation_id = $1
		ORDER BY uploaded_at
	`

	rows, err := q.Query(ctx, query, explanationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list explanation evidence: %w", err)
	}
	defer rows.Close()

	var evidence []violation.ExplanationEvidence
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan explanation evidence: %w", err)
		}
		evidence = append(evidence, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate explanation evidence: %w", err)
	}

	return evidence, nil
}

// DeleteByExplanationID implements violation.EvidenceRepository.
func (r *evidenceRepository) DeleteByExplanationID(ctx context.Context, explanationID string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM explanation_evidence WHERE explanation_id = $1`, explanationID); err != nil {
		return fmt.Errorf("failed to delete evidence by explanation: %w", err)
	}

	return nil
}
