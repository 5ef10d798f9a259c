// Package memory provides map-backed repository implementations. They back
// the service tests and honor the same contracts as the postgresql package,
// compare-and-swap semantics included.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/classboard/backoffice-go/internal/domain/template"
)

type TemplateRepository struct {
	mu        sync.RWMutex
	templates map[string]template.ShiftTemplate
}

func NewTemplateRepository() *TemplateRepository {
	return &TemplateRepository{templates: make(map[string]template.ShiftTemplate)}
}

func (r *TemplateRepository) Create(ctx context.Context, t template.ShiftTemplate) (template.ShiftTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.templates {
		if existing.Name == t.Name {
			return template.ShiftTemplate{}, template.ErrTemplateNameExists
		}
	}

	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	r.templates[t.ID] = t
	return t, nil
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (template.ShiftTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[id]
	if !ok {
		return template.ShiftTemplate{}, template.ErrTemplateNotFound
	}
	return t, nil
}

func (r *TemplateRepository) Update(ctx context.Context, t template.ShiftTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.templates[t.ID]; !ok {
		return template.ErrTemplateNotFound
	}
	for id, existing := range r.templates {
		if id != t.ID && existing.Name == t.Name {
			return template.ErrTemplateNameExists
		}
	}

	t.UpdatedAt = time.Now().UTC()
	r.templates[t.ID] = t
	return nil
}

func (r *TemplateRepository) List(ctx context.Context, activeOnly bool) ([]template.ShiftTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var templates []template.ShiftTemplate
	for _, t := range r.templates {
		if activeOnly && !t.Active {
			continue
		}
		templates = append(templates, t)
	}
	sortTemplates(templates)
	return templates, nil
}

func (r *TemplateRepository) ListOverlapping(ctx context.Context, start, end time.Time) ([]template.ShiftTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	startClock := clockMinutes(start)
	endClock := clockMinutes(end)

	var templates []template.ShiftTemplate
	for _, t := range r.templates {
		if !t.Active {
			continue
		}
		tStart := clockMinutes(t.StartTime)
		tEnd := clockMinutes(t.EndTime)
		if tStart < endClock && startClock < tEnd {
			templates = append(templates, t)
		}
	}
	sortTemplates(templates)
	return templates, nil
}

func (r *TemplateRepository) ListOvertimeEligible(ctx context.Context) ([]template.ShiftTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var templates []template.ShiftTemplate
	for _, t := range r.templates {
		if t.Active && t.OvertimeEligible {
			templates = append(templates, t)
		}
	}
	sortTemplates(templates)
	return templates, nil
}

func sortTemplates(templates []template.ShiftTemplate) {
	sort.Slice(templates, func(i, j int) bool {
		if templates[i].SortOrder != templates[j].SortOrder {
			return templates[i].SortOrder < templates[j].SortOrder
		}
		return templates[i].Name < templates[j].Name
	})
}

func clockMinutes(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
