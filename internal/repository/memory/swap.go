package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/classboard/backoffice-go/internal/domain/swap"
)

type SwapRepository struct {
	mu    sync.RWMutex
	swaps map[string]swap.SwapRequest
}

func NewSwapRepository() *SwapRepository {
	return &SwapRepository{swaps: make(map[string]swap.SwapRequest)}
}

func (r *SwapRepository) Create(ctx context.Context, s swap.SwapRequest) (swap.SwapRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.ID = uuid.NewString()
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	r.swaps[s.ID] = s
	return s, nil
}

func (r *SwapRepository) GetByID(ctx context.Context, id string) (swap.SwapRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.swaps[id]
	if !ok {
		return swap.SwapRequest{}, swap.ErrSwapNotFound
	}
	return s, nil
}

func (r *SwapRepository) Update(ctx context.Context, s swap.SwapRequest, expected swap.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.swaps[s.ID]
	if !ok {
		return swap.ErrSwapNotFound
	}
	if stored.Status != expected {
		return swap.ErrStaleState
	}

	s.UpdatedAt = time.Now().UTC()
	r.swaps[s.ID] = s
	return nil
}

func (r *SwapRepository) List(ctx context.Context, filter swap.SwapFilter) ([]swap.SwapRequest, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []swap.SwapRequest
	for _, s := range r.swaps {
		if filter.RequesterID != nil && s.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.TargetEmployeeID != nil && s.TargetEmployeeID != *filter.TargetEmployeeID {
			continue
		}
		if filter.Status != nil && string(s.Status) != *filter.Status {
			continue
		}
		matched = append(matched, s)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
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

func (r *SwapRepository) ExistsOpenForAssignment(ctx context.Context, assignmentID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.swaps {
		if !s.Status.Open() {
			continue
		}
		if s.RequesterAssignmentID == assignmentID || s.TargetAssignmentID == assignmentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *SwapRepository) MarkExpired(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expired := 0
	for id, s := range r.swaps {
		if s.Status.Open() && !cutoff.Before(s.ExpiresAt) {
			s.Status = swap.StatusExpired
			s.UpdatedAt = time.Now().UTC()
			r.swaps[id] = s
			expired++
		}
	}
	return expired, nil
}
