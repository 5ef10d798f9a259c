package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/classboard/backoffice-go/internal/domain/absence"
)

type AbsenceRepository struct {
	mu       sync.RWMutex
	absences map[string]absence.ApprovedAbsence
}

func NewAbsenceRepository() *AbsenceRepository {
	return &AbsenceRepository{absences: make(map[string]absence.ApprovedAbsence)}
}

// Add seeds an approved absence and returns its generated id.
func (r *AbsenceRepository) Add(a absence.ApprovedAbsence) absence.ApprovedAbsence {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.ID = uuid.NewString()
	r.absences[a.ID] = a
	return a
}

func (r *AbsenceRepository) ListApprovedByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) ([]absence.ApprovedAbsence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []absence.ApprovedAbsence
	for _, a := range r.absences {
		if a.EmployeeID == employeeID && a.Covers(date) {
			matched = append(matched, a)
		}
	}
	return matched, nil
}
