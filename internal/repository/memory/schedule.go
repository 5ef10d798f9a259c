package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/classboard/backoffice-go/internal/domain/schedule"
)

type ScheduleRepository struct {
	mu        sync.RWMutex
	schedules map[string]schedule.ShiftSchedule
}

func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{schedules: make(map[string]schedule.ShiftSchedule)}
}

func (r *ScheduleRepository) Create(ctx context.Context, s schedule.ShiftSchedule) (schedule.ShiftSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.ID = uuid.NewString()
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	r.schedules[s.ID] = s
	return s, nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (schedule.ShiftSchedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schedules[id]
	if !ok {
		return schedule.ShiftSchedule{}, schedule.ErrScheduleNotFound
	}
	return s, nil
}

func (r *ScheduleRepository) Update(ctx context.Context, s schedule.ShiftSchedule, expected schedule.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.schedules[s.ID]
	if !ok {
		return schedule.ErrScheduleNotFound
	}
	if stored.Status != expected {
		return schedule.ErrStaleState
	}

	s.UpdatedAt = time.Now().UTC()
	r.schedules[s.ID] = s
	return nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.schedules[id]; !ok {
		return schedule.ErrScheduleNotFound
	}
	delete(r.schedules, id)
	return nil
}

func (r *ScheduleRepository) List(ctx context.Context, filter schedule.ScheduleFilter) ([]schedule.ShiftSchedule, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []schedule.ShiftSchedule
	for _, s := range r.schedules {
		if filter.Status != nil && string(s.Status) != *filter.Status {
			continue
		}
		if filter.Type != nil && string(s.Type) != *filter.Type {
			continue
		}
		matched = append(matched, s)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartDate.After(matched[j].StartDate)
	})

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

func (r *ScheduleRepository) ListPublishedEndedBefore(ctx context.Context, cutoff time.Time) ([]schedule.ShiftSchedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []schedule.ShiftSchedule
	for _, s := range r.schedules {
		if s.Status == schedule.StatusPublished && s.EndDate.Before(cutoff) {
			matched = append(matched, s)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].EndDate.Before(matched[j].EndDate)
	})
	return matched, nil
}
