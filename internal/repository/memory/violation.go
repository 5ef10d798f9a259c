package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/classboard/backoffice-go/internal/domain/violation"
)

type ViolationRepository struct {
	mu         sync.RWMutex
	violations map[string]violation.AttendanceViolation
}

func NewViolationRepository() *ViolationRepository {
	return &ViolationRepository{violations: make(map[string]violation.AttendanceViolation)}
}

func (r *ViolationRepository) Create(ctx context.Context, v violation.AttendanceViolation) (violation.AttendanceViolation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v.ID = uuid.NewString()
	v.CreatedAt = time.Now().UTC()
	v.UpdatedAt = v.CreatedAt
	r.violations[v.ID] = v
	return v, nil
}

func (r *ViolationRepository) GetByID(ctx context.Context, id string) (violation.AttendanceViolation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.violations[id]
	if !ok {
		return violation.AttendanceViolation{}, violation.ErrViolationNotFound
	}
	return v, nil
}

func (r *ViolationRepository) Update(ctx context.Context, v violation.AttendanceViolation, expected violation.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.violations[v.ID]
	if !ok {
		return violation.ErrViolationNotFound
	}
	if stored.Status != expected {
		return violation.ErrStaleState
	}

	v.UpdatedAt = time.Now().UTC()
	r.violations[v.ID] = v
	return nil
}

func (r *ViolationRepository) ExistsByAssignmentAndType(ctx context.Context, assignmentID string, t violation.Type) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.violations {
		if v.AssignmentID == assignmentID && v.Type == t {
			return true, nil
		}
	}
	return false, nil
}

func (r *ViolationRepository) List(ctx context.Context, filter violation.ViolationFilter) ([]violation.AttendanceViolation, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []violation.AttendanceViolation
	for _, v := range r.violations {
		if filter.EmployeeID != nil && v.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Type != nil && string(v.Type) != *filter.Type {
			continue
		}
		if filter.Status != nil && string(v.Status) != *filter.Status {
			continue
		}
		if filter.StartDate != nil && *filter.StartDate != "" && v.ViolationDate.Format("2006-01-02") < *filter.StartDate {
			continue
		}
		if filter.EndDate != nil && *filter.EndDate != "" && v.ViolationDate.Format("2006-01-02") > *filter.EndDate {
			continue
		}
		matched = append(matched, v)
	}
	sortViolations(matched)

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

func (r *ViolationRepository) ListByEmployeeAndPeriod(ctx context.Context, employeeID string, from, to time.Time) ([]violation.AttendanceViolation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []violation.AttendanceViolation
	for _, v := range r.violations {
		if v.EmployeeID != employeeID {
			continue
		}
		if v.ViolationDate.Before(from) || v.ViolationDate.After(to) {
			continue
		}
		matched = append(matched, v)
	}
	sortViolations(matched)
	return matched, nil
}

func (r *ViolationRepository) FindOverdue(ctx context.Context, cutoff time.Time) ([]violation.AttendanceViolation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []violation.AttendanceViolation
	for _, v := range r.violations {
		awaiting := v.Status == violation.StatusOpen || v.Status == violation.StatusPendingExplanation
		if awaiting && v.DetectedAt.Before(cutoff) {
			matched = append(matched, v)
		}
	}
	sortViolations(matched)
	return matched, nil
}

func (r *ViolationRepository) CountByEmployeeAndType(ctx context.Context, employeeID string, from, to time.Time) (map[violation.Type]int, error) {
	violations, err := r.ListByEmployeeAndPeriod(ctx, employeeID, from, to)
	if err != nil {
		return nil, err
	}

	counts := make(map[violation.Type]int)
	for _, v := range violations {
		counts[v.Type]++
	}
	return counts, nil
}

func sortViolations(violations []violation.AttendanceViolation) {
	sort.Slice(violations, func(i, j int) bool {
		if !violations[i].ViolationDate.Equal(violations[j].ViolationDate) {
			return violations[i].ViolationDate.Before(violations[j].ViolationDate)
		}
		return violations[i].DetectedAt.Before(violations[j].DetectedAt)
	})
}

type ExplanationRepository struct {
	mu           sync.RWMutex
	explanations map[string]violation.ViolationExplanation
}

func NewExplanationRepository() *ExplanationRepository {
	return &ExplanationRepository{explanations: make(map[string]violation.ViolationExplanation)}
}

func (r *ExplanationRepository) Create(ctx context.Context, e violation.ViolationExplanation) (violation.ViolationExplanation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()
	e.UpdatedAt = e.CreatedAt
	r.explanations[e.ID] = e
	return e, nil
}

func (r *ExplanationRepository) GetByID(ctx context.Context, id string) (violation.ViolationExplanation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.explanations[id]
	if !ok {
		return violation.ViolationExplanation{}, violation.ErrExplanationNotFound
	}
	return e, nil
}

func (r *ExplanationRepository) Update(ctx context.Context, e violation.ViolationExplanation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.explanations[e.ID]; !ok {
		return violation.ErrExplanationNotFound
	}
	e.UpdatedAt = time.Now().UTC()
	r.explanations[e.ID] = e
	return nil
}

func (r *ExplanationRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.explanations[id]; !ok {
		return violation.ErrExplanationNotFound
	}
	delete(r.explanations, id)
	return nil
}

func (r *ExplanationRepository) ListByViolationID(ctx context.Context, violationID string) ([]violation.ViolationExplanation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []violation.ViolationExplanation
	for _, e := range r.explanations {
		if e.ViolationID == violationID {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].SubmittedAt.After(matched[j].SubmittedAt)
	})
	return matched, nil
}

func (r *ExplanationRepository) GetLatestByViolationID(ctx context.Context, violationID string) (violation.ViolationExplanation, error) {
	explanations, err := r.ListByViolationID(ctx, violationID)
	if err != nil {
		return violation.ViolationExplanation{}, err
	}
	if len(explanations) == 0 {
		return violation.ViolationExplanation{}, violation.ErrExplanationNotFound
	}
	return explanations[0], nil
}

func (r *ExplanationRepository) GetPendingByViolationID(ctx context.Context, violationID string) (violation.ViolationExplanation, error) {
	explanations, err := r.ListByViolationID(ctx, violationID)
	if err != nil {
		return violation.ViolationExplanation{}, err
	}
	for _, e := range explanations {
		if e.Status.Pending() {
			return e, nil
		}
	}
	return violation.ViolationExplanation{}, violation.ErrExplanationNotFound
}

type EvidenceRepository struct {
	mu       sync.RWMutex
	evidence map[string]violation.ExplanationEvidence
}

func NewEvidenceRepository() *EvidenceRepository {
	return &EvidenceRepository{evidence: make(map[string]violation.ExplanationEvidence)}
}

func (r *EvidenceRepository) Create(ctx context.Context, e violation.ExplanationEvidence) (violation.ExplanationEvidence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.ID = uuid.NewString()
	r.evidence[e.ID] = e
	return e, nil
}

func (r *EvidenceRepository) GetByID(ctx context.Context, id string) (violation.ExplanationEvidence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.evidence[id]
	if !ok {
		return violation.ExplanationEvidence{}, violation.ErrEvidenceNotFound
	}
	return e, nil
}

func (r *EvidenceRepository) Update(ctx context.Context, e violation.ExplanationEvidence) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.evidence[e.ID]; !ok {
		return violation.ErrEvidenceNotFound
	}
	r.evidence[e.ID] = e
	return nil
}

func (r *EvidenceRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.evidence[id]; !ok {
		return violation.ErrEvidenceNotFound
	}
	delete(r.evidence, id)
	return nil
}

func (r *EvidenceRepository) ListByExplanationID(ctx context.Context, explanationID string) ([]violation.ExplanationEvidence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []violation.ExplanationEvidence
	for _, e := range r.evidence {
		if e.ExplanationID == explanationID {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UploadedAt.Before(matched[j].UploadedAt)
	})
	return matched, nil
}

func (r *EvidenceRepository) DeleteByExplanationID(ctx context.Context, explanationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.evidence {
		if e.ExplanationID == explanationID {
			delete(r.evidence, id)
		}
	}
	return nil
}
