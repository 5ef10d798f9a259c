package swap

import (
	"context"
	"log/slog"
	"time"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/assignment"
	"github.com/classboard/backoffice-go/internal/domain/swap"
)

type SwapServiceImpl struct {
	swapRepo       swap.SwapRepository
	assignmentRepo assignment.AssignmentRepository
	detector       assignment.ConflictDetector
	locks          assignment.CriticalSection

	// now is injectable for tests; nil falls back to time.Now.
	now func() time.Time
}

func NewSwapService(
	swapRepo swap.SwapRepository,
	assignmentRepo assignment.AssignmentRepository,
	detector assignment.ConflictDetector,
	locks assignment.CriticalSection,
	now func() time.Time,
) swap.SwapService {
	if now == nil {
		now = time.Now
	}
	return &SwapServiceImpl{
		swapRepo:       swapRepo,
		assignmentRepo: assignmentRepo,
		detector:       detector,
		locks:          locks,
		now:            now,
	}
}

// CreateSwapRequest implements swap.SwapService. The target employee is
// derived from the target assignment, never taken from the request body.
func (s *SwapServiceImpl) CreateSwapRequest(ctx context.Context, caller actor.Actor, req swap.CreateSwapRequest) (swap.SwapResponse, error) {
	if !caller.Can(actor.CapabilitySwapRequest) {
		return swap.SwapResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return swap.SwapResponse{}, err
	}

	mine, err := s.assignmentRepo.GetByID(ctx, req.RequesterAssignmentID)
	if err != nil {
		return swap.SwapResponse{}, err
	}
	if mine.EmployeeID != caller.EmployeeID {
		return swap.SwapResponse{}, swap.ErrSwapNotOwned
	}

	theirs, err := s.assignmentRepo.GetByID(ctx, req.TargetAssignmentID)
	if err != nil {
		return swap.SwapResponse{}, err
	}
	if theirs.EmployeeID == caller.EmployeeID {
		return swap.SwapResponse{}, swap.ErrSwapSelf
	}

	if err := validatePair(mine, theirs); err != nil {
		return swap.SwapResponse{}, err
	}

	expiresAt := mine.PlannedStart
	if theirs.PlannedStart.Before(expiresAt) {
		expiresAt = theirs.PlannedStart
	}
	if !s.now().UTC().Before(expiresAt) {
		return swap.SwapResponse{}, swap.ErrSwapWindowPassed
	}

	for _, id := range []string{mine.ID, theirs.ID} {
		open, err := s.swapRepo.ExistsOpenForAssignment(ctx, id)
		if err != nil {
			return swap.SwapResponse{}, err
		}
		if open {
			return swap.SwapResponse{}, swap.ErrSwapPendingExists
		}
	}

	// Pre-check both directions of the trade so obviously doomed requests
	// never reach the target. The authoritative check re-runs at approval.
	if err := s.checkCrossConflicts(ctx, mine, theirs); err != nil {
		return swap.SwapResponse{}, err
	}

	created, err := s.swapRepo.Create(ctx, swap.SwapRequest{
		RequesterID:           caller.EmployeeID,
		TargetEmployeeID:      theirs.EmployeeID,
		RequesterAssignmentID: mine.ID,
		TargetAssignmentID:    theirs.ID,
		Status:                swap.StatusPending,
		Priority:              swap.Priority(req.Priority),
		Reason:                req.Reason,
		Emergency:             req.Emergency,
		ExpiresAt:             expiresAt,
	})
	if err != nil {
		return swap.SwapResponse{}, err
	}

	slog.Info("Shift swap requested",
		"swap_id", created.ID,
		"requester_id", created.RequesterID,
		"target_employee_id", created.TargetEmployeeID,
		"emergency", created.Emergency)

	return swap.ToResponse(created), nil
}

// GetSwapRequest implements swap.SwapService.
func (s *SwapServiceImpl) GetSwapRequest(ctx context.Context, id string) (swap.SwapResponse, error) {
	sr, err := s.swapRepo.GetByID(ctx, id)
	if err != nil {
		return swap.SwapResponse{}, err
	}
	return swap.ToResponse(sr), nil
}

// ListSwapRequests implements swap.SwapService.
func (s *SwapServiceImpl) ListSwapRequests(ctx context.Context, filter swap.SwapFilter) (swap.ListSwapsResponse, error) {
	if err := filter.Validate(); err != nil {
		return swap.ListSwapsResponse{}, err
	}

	swaps, total, err := s.swapRepo.List(ctx, filter)
	if err != nil {
		return swap.ListSwapsResponse{}, err
	}

	responses := make([]swap.SwapResponse, 0, len(swaps))
	for _, sr := range swaps {
		responses = append(responses, swap.ToResponse(sr))
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))

	return swap.ListSwapsResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Swaps:      responses,
	}, nil
}

// RespondToSwap implements swap.SwapService.
func (s *SwapServiceImpl) RespondToSwap(ctx context.Context, caller actor.Actor, req swap.RespondSwapRequest) (swap.SwapResponse, error) {
	if err := req.Validate(); err != nil {
		return swap.SwapResponse{}, err
	}

	sr, err := s.swapRepo.GetByID(ctx, req.ID)
	if err != nil {
		return swap.SwapResponse{}, err
	}
	if sr.TargetEmployeeID != caller.EmployeeID {
		return swap.SwapResponse{}, swap.ErrNotSwapTarget
	}
	if sr.Status != swap.StatusPending {
		return swap.SwapResponse{}, swap.ErrSwapNotPending
	}

	now := s.now().UTC()
	if expired, err := s.expireIfOverdue(ctx, &sr, now); expired || err != nil {
		if err != nil {
			return swap.SwapResponse{}, err
		}
		return swap.SwapResponse{}, swap.ErrSwapExpired
	}

	prev := sr.Status
	sr.TargetRespondedAt = &now
	if req.Accept {
		sr.Status = swap.StatusAccepted
	} else {
		sr.Status = swap.StatusRejected
		sr.TargetReason = &req.Reason
	}

	if err := s.swapRepo.Update(ctx, sr, prev); err != nil {
		return swap.SwapResponse{}, err
	}

	slog.Info("Shift swap response recorded",
		"swap_id", sr.ID,
		"status", sr.Status)

	return swap.ToResponse(sr), nil
}

// DecideSwap implements swap.SwapService. Approval is the only path that
// touches the assignments themselves.
func (s *SwapServiceImpl) DecideSwap(ctx context.Context, caller actor.Actor, req swap.DecideSwapRequest) (swap.SwapResponse, error) {
	if !caller.Can(actor.CapabilitySwapDecide) {
		return swap.SwapResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return swap.SwapResponse{}, err
	}

	sr, err := s.swapRepo.GetByID(ctx, req.ID)
	if err != nil {
		return swap.SwapResponse{}, err
	}

	now := s.now().UTC()
	prev := sr.Status

	if req.Approve {
		if sr.Status != swap.StatusAccepted {
			return swap.SwapResponse{}, swap.ErrSwapNotAccepted
		}
		if expired, err := s.expireIfOverdue(ctx, &sr, now); expired || err != nil {
			if err != nil {
				return swap.SwapResponse{}, err
			}
			return swap.SwapResponse{}, swap.ErrSwapExpired
		}
		if err := s.executeSwap(ctx, caller, sr); err != nil {
			return swap.SwapResponse{}, err
		}
		sr.Status = swap.StatusApproved
	} else {
		// Decline may close a still-PENDING request.
		if !sr.Status.Open() {
			return swap.SwapResponse{}, swap.ErrSwapClosed
		}
		sr.Status = swap.StatusDeclined
	}

	sr.DecidedBy = &caller.UserID
	sr.DecidedAt = &now
	if req.Notes != "" {
		sr.DecisionNotes = &req.Notes
	}

	if err := s.swapRepo.Update(ctx, sr, prev); err != nil {
		return swap.SwapResponse{}, err
	}

	slog.Info("Shift swap decided",
		"swap_id", sr.ID,
		"status", sr.Status,
		"decided_by", caller.UserID)

	return swap.ToResponse(sr), nil
}

// CancelSwapRequest implements swap.SwapService.
func (s *SwapServiceImpl) CancelSwapRequest(ctx context.Context, caller actor.Actor, id string) (swap.SwapResponse, error) {
	sr, err := s.swapRepo.GetByID(ctx, id)
	if err != nil {
		return swap.SwapResponse{}, err
	}
	if sr.RequesterID != caller.EmployeeID {
		return swap.SwapResponse{}, swap.ErrSwapNotOwned
	}
	if !sr.Status.Open() {
		return swap.SwapResponse{}, swap.ErrSwapClosed
	}

	prev := sr.Status
	sr.Status = swap.StatusCancelled

	if err := s.swapRepo.Update(ctx, sr, prev); err != nil {
		return swap.SwapResponse{}, err
	}

	slog.Info("Shift swap cancelled", "swap_id", sr.ID)

	return swap.ToResponse(sr), nil
}

// ExpireOverdue implements swap.SwapService.
func (s *SwapServiceImpl) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	return s.swapRepo.MarkExpired(ctx, now.UTC())
}

// expireIfOverdue flips the loaded request to EXPIRED when its window has
// passed. Reports whether it expired; a CAS loss means someone else already
// moved it and the caller's state check will catch up on retry.
func (s *SwapServiceImpl) expireIfOverdue(ctx context.Context, sr *swap.SwapRequest, now time.Time) (bool, error) {
	if now.Before(sr.ExpiresAt) {
		return false, nil
	}

	prev := sr.Status
	sr.Status = swap.StatusExpired
	if err := s.swapRepo.Update(ctx, *sr, prev); err != nil {
		return true, err
	}
	return true, nil
}

// executeSwap exchanges the employees on the two assignments. Both
// per-(employee, date) critical sections are taken in deterministic order,
// the scheduled states and conflicts are re-verified inside them, and the
// two updates are compare-and-swapped on SCHEDULED.
func (s *SwapServiceImpl) executeSwap(ctx context.Context, caller actor.Actor, sr swap.SwapRequest) error {
	mine, err := s.assignmentRepo.GetByID(ctx, sr.RequesterAssignmentID)
	if err != nil {
		return err
	}
	theirs, err := s.assignmentRepo.GetByID(ctx, sr.TargetAssignmentID)
	if err != nil {
		return err
	}

	// After the swap the requester works the target's slot and vice versa.
	first := lockTarget{employeeID: sr.RequesterID, date: theirs.Date}
	second := lockTarget{employeeID: sr.TargetEmployeeID, date: mine.Date}
	if second.key() < first.key() {
		first, second = second, first
	}

	return s.locks.Locked(ctx, first.employeeID, first.date, func(ctx context.Context) error {
		return s.locks.Locked(ctx, second.employeeID, second.date, func(ctx context.Context) error {
			if err := validatePair(mine, theirs); err != nil {
				return err
			}
			if err := s.checkCrossConflicts(ctx, mine, theirs); err != nil {
				return err
			}

			now := s.now().UTC()
			mine.EmployeeID = sr.TargetEmployeeID
			theirs.EmployeeID = sr.RequesterID
			mine.StatusChangedBy = &caller.UserID
			mine.StatusChangedAt = &now
			theirs.StatusChangedBy = &caller.UserID
			theirs.StatusChangedAt = &now

			if err := s.assignmentRepo.Update(ctx, mine, assignment.StatusScheduled); err != nil {
				return err
			}
			if err := s.assignmentRepo.Update(ctx, theirs, assignment.StatusScheduled); err != nil {
				// Put the first assignment back so a half-applied trade
				// never survives outside a transactional lock.
				mine.EmployeeID = sr.RequesterID
				if revertErr := s.assignmentRepo.Update(ctx, mine, assignment.StatusScheduled); revertErr != nil {
					slog.Error("Swap revert failed",
						"swap_id", sr.ID,
						"assignment_id", mine.ID,
						"error", revertErr)
				}
				return err
			}

			slog.Info("Shift swap executed",
				"swap_id", sr.ID,
				"requester_assignment_id", mine.ID,
				"target_assignment_id", theirs.ID)
			return nil
		})
	})
}

// checkCrossConflicts verifies each employee is free to work the other's
// slot. The two swapped assignments themselves are excluded from the
// results; they stop conflicting the moment the trade lands.
func (s *SwapServiceImpl) checkCrossConflicts(ctx context.Context, mine, theirs assignment.ShiftAssignment) error {
	exclude := map[string]bool{mine.ID: true, theirs.ID: true}

	if err := s.checkConflictsFor(ctx, mine.EmployeeID, theirs, exclude); err != nil {
		return err
	}
	return s.checkConflictsFor(ctx, theirs.EmployeeID, mine, exclude)
}

func (s *SwapServiceImpl) checkConflictsFor(ctx context.Context, employeeID string, a assignment.ShiftAssignment, exclude map[string]bool) error {
	result, err := s.detector.Check(ctx, employeeID, a.Date, a.PlannedWindow())
	if err != nil {
		return err
	}

	var remaining []assignment.ConflictRef
	for _, c := range result.Conflicts {
		if exclude[c.AssignmentID] {
			continue
		}
		remaining = append(remaining, c)
	}
	if len(remaining) > 0 {
		return &assignment.ConflictError{
			EmployeeID: employeeID,
			Date:       a.Date,
			Conflicts:  remaining,
		}
	}
	return nil
}

func validatePair(mine, theirs assignment.ShiftAssignment) error {
	if mine.Status != assignment.StatusScheduled || theirs.Status != assignment.StatusScheduled {
		return swap.ErrSwapNotScheduled
	}
	if mine.TemplateID != theirs.TemplateID {
		return swap.ErrSwapTemplateMismatch
	}
	return nil
}

type lockTarget struct {
	employeeID string
	date       time.Time
}

func (t lockTarget) key() string {
	return t.employeeID + "|" + t.date.Format("2006-01-02")
}
