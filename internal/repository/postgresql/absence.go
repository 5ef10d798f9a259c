package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/classboard/backoffice-go/internal/domain/absence"
	"github.com/classboard/backoffice-go/internal/pkg/database"
)

type absenceRepository struct {
	db *database.DB
}

func NewAbsenceRepository(db *database.DB) absence.Repository {
	return &absenceRepository{db: db}
}

// ListApprovedByEmployeeAndDate implements absence.Repository.
func (r *absenceRepository) ListApprovedByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) ([]absence.ApprovedAbsence, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, start_date, end_date, reason
		FROM approved_absences
		WHERE employee_id = $1
		  AND start_date <= $2
		  AND end_date >= $2
		ORDER BY start_date
	`

	rows, err := q.Query(ctx, query, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved absences: %w", err)
	}
	defer rows.Close()

	var absences []absence.ApprovedAbsence
	for rows.Next() {
		var a absence.ApprovedAbsence
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.StartDate, &a.EndDate, &a.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan approved absence: %w", err)
		}
		absences = append(absences, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate approved absences: %w", err)
	}

	return absences, nil
}
