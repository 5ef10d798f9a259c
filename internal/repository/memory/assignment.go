package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/classboard/backoffice-go/internal/domain/assignment"
)

type AssignmentRepository struct {
	mu          sync.RWMutex
	assignments map[string]assignment.ShiftAssignment
}

func NewAssignmentRepository() *AssignmentRepository {
	return &AssignmentRepository{assignments: make(map[string]assignment.ShiftAssignment)}
}

func (r *AssignmentRepository) Create(ctx context.Context, a assignment.ShiftAssignment) (assignment.ShiftAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.ID = uuid.NewString()
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	r.assignments[a.ID] = a
	return a, nil
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (assignment.ShiftAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assignments[id]
	if !ok {
		return assignment.ShiftAssignment{}, assignment.ErrAssignmentNotFound
	}
	return a, nil
}

func (r *AssignmentRepository) Update(ctx context.Context, a assignment.ShiftAssignment, expected assignment.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.assignments[a.ID]
	if !ok {
		return assignment.ErrAssignmentNotFound
	}
	if stored.Status != expected {
		return assignment.ErrStaleState
	}

	a.UpdatedAt = time.Now().UTC()
	r.assignments[a.ID] = a
	return nil
}

func (r *AssignmentRepository) ListActiveByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) ([]assignment.ShiftAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var assignments []assignment.ShiftAssignment
	for _, a := range r.assignments {
		if a.EmployeeID == employeeID && sameDate(a.Date, date) && a.Status != assignment.StatusCancelled {
			assignments = append(assignments, a)
		}
	}
	sortAssignments(assignments)
	return assignments, nil
}

func (r *AssignmentRepository) ListByScheduleID(ctx context.Context, scheduleID string) ([]assignment.ShiftAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var assignments []assignment.ShiftAssignment
	for _, a := range r.assignments {
		if a.ScheduleID != nil && *a.ScheduleID == scheduleID {
			assignments = append(assignments, a)
		}
	}
	sortAssignments(assignments)
	return assignments, nil
}

func (r *AssignmentRepository) List(ctx context.Context, filter assignment.AssignmentFilter) ([]assignment.ShiftAssignment, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []assignment.ShiftAssignment
	for _, a := range r.assignments {
		if filter.EmployeeID != nil && a.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.ScheduleID != nil && (a.ScheduleID == nil || *a.ScheduleID != *filter.ScheduleID) {
			continue
		}
		if filter.TemplateID != nil && a.TemplateID != *filter.TemplateID {
			continue
		}
		if filter.Status != nil && string(a.Status) != *filter.Status {
			continue
		}
		if filter.StartDate != nil && *filter.StartDate != "" && a.Date.Format("2006-01-02") < *filter.StartDate {
			continue
		}
		if filter.EndDate != nil && *filter.EndDate != "" && a.Date.Format("2006-01-02") > *filter.EndDate {
			continue
		}
		matched = append(matched, a)
	}
	sortAssignments(matched)

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *AssignmentRepository) ListCompletedInPeriod(ctx context.Context, employeeID string, from, to time.Time) ([]assignment.ShiftAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var assignments []assignment.ShiftAssignment
	for _, a := range r.assignments {
		if a.EmployeeID != employeeID || a.Status != assignment.StatusCompleted {
			continue
		}
		if a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		assignments = append(assignments, a)
	}
	sortAssignments(assignments)
	return assignments, nil
}

func (r *AssignmentRepository) ListOverdueScheduled(ctx context.Context, deadline time.Time) ([]assignment.ShiftAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var assignments []assignment.ShiftAssignment
	for _, a := range r.assignments {
		if a.Status == assignment.StatusScheduled && a.PlannedEnd.Before(deadline) {
			assignments = append(assignments, a)
		}
	}
	sortAssignments(assignments)
	return assignments, nil
}

func (r *AssignmentRepository) ListFinishedInRange(ctx context.Context, from, to time.Time) ([]assignment.ShiftAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var assignments []assignment.ShiftAssignment
	for _, a := range r.assignments {
		if a.Status != assignment.StatusCompleted && a.Status != assignment.StatusNoShow {
			continue
		}
		if a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		assignments = append(assignments, a)
	}
	sortAssignments(assignments)
	return assignments, nil
}

func sortAssignments(assignments []assignment.ShiftAssignment) {
	sort.Slice(assignments, func(i, j int) bool {
		if !assignments[i].Date.Equal(assignments[j].Date) {
			return assignments[i].Date.Before(assignments[j].Date)
		}
		return assignments[i].PlannedStart.Before(assignments[j].PlannedStart)
	})
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
