package assignment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/assignment"
	"github.com/classboard/backoffice-go/internal/domain/template"
	"github.com/classboard/backoffice-go/internal/pkg/validator"
)

type AssignmentServiceImpl struct {
	assignmentRepo assignment.AssignmentRepository
	templateRepo   template.TemplateRepository
	detector       assignment.ConflictDetector
	locks          assignment.CriticalSection

	noShowGraceMinutes int

	// now is injectable for tests; nil falls back to time.Now.
	now func() time.Time
}

func NewAssignmentService(
	assignmentRepo assignment.AssignmentRepository,
	templateRepo template.TemplateRepository,
	detector assignment.ConflictDetector,
	locks assignment.CriticalSection,
	noShowGraceMinutes int,
	now func() time.Time,
) assignment.AssignmentService {
	if now == nil {
		now = time.Now
	}
	return &AssignmentServiceImpl{
		assignmentRepo:     assignmentRepo,
		templateRepo:       templateRepo,
		detector:           detector,
		locks:              locks,
		noShowGraceMinutes: noShowGraceMinutes,
		now:                now,
	}
}

// CreateAssignment implements assignment.AssignmentService. The conflict
// read and the insert run under one per-(employee, date) critical section
// so two concurrent requests cannot both pass the check.
func (s *AssignmentServiceImpl) CreateAssignment(ctx context.Context, caller actor.Actor, req assignment.CreateAssignmentRequest) (assignment.AssignmentResponse, error) {
	if !caller.Can(actor.CapabilityAssignmentWrite) {
		return assignment.AssignmentResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return assignment.AssignmentResponse{}, err
	}

	date, _ := validator.IsValidDate(req.Date)

	created, err := s.createLocked(ctx, caller, req.EmployeeID, req.TemplateID, req.ScheduleID, date)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}

	return assignment.ToResponse(created), nil
}

func (s *AssignmentServiceImpl) createLocked(ctx context.Context, caller actor.Actor, employeeID, templateID string, scheduleID *string, date time.Time) (assignment.ShiftAssignment, error) {
	t, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		return assignment.ShiftAssignment{}, err
	}
	if !t.Active {
		return assignment.ShiftAssignment{}, template.ErrTemplateInactive
	}

	window := assignment.Window{Start: t.StartOn(date), End: t.EndOn(date)}

	var created assignment.ShiftAssignment
	err = s.locks.Locked(ctx, employeeID, date, func(ctx context.Context) error {
		result, err := s.detector.Check(ctx, employeeID, date, window)
		if err != nil {
			return err
		}
		if result.HasConflict {
			return &assignment.ConflictError{
				EmployeeID: employeeID,
				Date:       date,
				Conflicts:  result.Conflicts,
			}
		}

		now := s.now().UTC()
		created, err = s.assignmentRepo.Create(ctx, assignment.ShiftAssignment{
			EmployeeID:      employeeID,
			ScheduleID:      scheduleID,
			TemplateID:      templateID,
			Date:            date,
			PlannedStart:    window.Start,
			PlannedEnd:      window.End,
			Status:          assignment.StatusScheduled,
			StatusChangedBy: &caller.UserID,
			StatusChangedAt: &now,
		})
		return err
	})
	if err != nil {
		return assignment.ShiftAssignment{}, err
	}

	slog.Info("Shift assignment created",
		"assignment_id", created.ID,
		"employee_id", employeeID,
		"date", date.Format("2006-01-02"))

	return created, nil
}

// BulkCreateAssignments implements assignment.AssignmentService. Each item
// takes and releases its own critical section; with Atomic set, any failure
// cancels the already-created items.
func (s *AssignmentServiceImpl) BulkCreateAssignments(ctx context.Context, caller actor.Actor, req assignment.BulkCreateAssignmentsRequest) (assignment.BulkCreateResponse, error) {
	if !caller.Can(actor.CapabilityAssignmentWrite) {
		return assignment.BulkCreateResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return assignment.BulkCreateResponse{}, err
	}

	resp := assignment.BulkCreateResponse{
		Results: make([]assignment.BulkItemResult, 0, len(req.Items)),
	}
	var createdIDs []string

	for i, item := range req.Items {
		result := assignment.BulkItemResult{Index: i}

		created, err := s.createItem(ctx, caller, item)
		if err != nil {
			result.Error = err.Error()
			if conflictErr, ok := err.(*assignment.ConflictError); ok {
				result.Conflicts = conflictErr.Conflicts
			}
			resp.Failed++
		} else {
			response := assignment.ToResponse(created)
			result.Success = true
			result.Assignment = &response
			createdIDs = append(createdIDs, created.ID)
			resp.Succeeded++
		}

		resp.Results = append(resp.Results, result)
	}

	if req.Atomic && resp.Failed > 0 {
		s.rollbackCreated(ctx, caller, createdIDs)
		resp.Succeeded = 0
	}

	return resp, nil
}

func (s *AssignmentServiceImpl) createItem(ctx context.Context, caller actor.Actor, item assignment.CreateAssignmentRequest) (assignment.ShiftAssignment, error) {
	if err := item.Validate(); err != nil {
		return assignment.ShiftAssignment{}, err
	}
	date, _ := validator.IsValidDate(item.Date)
	return s.createLocked(ctx, caller, item.EmployeeID, item.TemplateID, item.ScheduleID, date)
}

func (s *AssignmentServiceImpl) rollbackCreated(ctx context.Context, caller actor.Actor, ids []string) {
	reason := "rolled back: atomic bulk creation failed"
	now := s.now().UTC()
	for _, id := range ids {
		a, err := s.assignmentRepo.GetByID(ctx, id)
		if err != nil {
			slog.Error("Bulk rollback: failed to load assignment", "assignment_id", id, "error", err)
			continue
		}
		prev := a.Status
		a.Status = assignment.StatusCancelled
		a.CancelReason = &reason
		a.StatusChangedBy = &caller.UserID
		a.StatusChangedAt = &now
		if err := s.assignmentRepo.Update(ctx, a, prev); err != nil {
			slog.Error("Bulk rollback: failed to cancel assignment", "assignment_id", id, "error", err)
		}
	}
}

// GetAssignment implements assignment.AssignmentService.
func (s *AssignmentServiceImpl) GetAssignment(ctx context.Context, id string) (assignment.AssignmentResponse, error) {
	a, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}
	return assignment.ToResponse(a), nil
}

// ListAssignments implements assignment.AssignmentService.
func (s *AssignmentServiceImpl) ListAssignments(ctx context.Context, filter assignment.AssignmentFilter) (assignment.ListAssignmentsResponse, error) {
	if err := filter.Validate(); err != nil {
		return assignment.ListAssignmentsResponse{}, err
	}

	assignments, total, err := s.assignmentRepo.List(ctx, filter)
	if err != nil {
		return assignment.ListAssignmentsResponse{}, err
	}

	responses := make([]assignment.AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		responses = append(responses, assignment.ToResponse(a))
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))

	return assignment.ListAssignmentsResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Assignments: responses,
	}, nil
}

// CheckIn implements assignment.AssignmentService.
func (s *AssignmentServiceImpl) CheckIn(ctx context.Context, caller actor.Actor, req assignment.CheckInRequest) (assignment.AssignmentResponse, error) {
	if !caller.Can(actor.CapabilitySelfCheckIn) {
		return assignment.AssignmentResponse{}, actor.ErrForbidden
	}

	a, err := s.assignmentRepo.GetByID(ctx, req.ID)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}
	if a.EmployeeID != caller.EmployeeID {
		return assignment.AssignmentResponse{}, actor.ErrForbidden
	}

	switch a.Status {
	case assignment.StatusScheduled:
		// proceed
	case assignment.StatusCheckedIn, assignment.StatusCheckedOut:
		return assignment.AssignmentResponse{}, assignment.ErrAlreadyCheckedIn
	default:
		return assignment.AssignmentResponse{}, assignment.ErrInvalidTransition
	}

	now := s.now().UTC()
	a.Status = assignment.StatusCheckedIn
	a.CheckInTime = &now
	a.CheckInLocation = req.Location
	a.StatusChangedBy = &caller.UserID
	a.StatusChangedAt = &now

	if err := s.assignmentRepo.Update(ctx, a, assignment.StatusScheduled); err != nil {
		return assignment.AssignmentResponse{}, err
	}

	slog.Info("Shift check-in recorded",
		"assignment_id", a.ID,
		"employee_id", a.EmployeeID,
		"check_in_time", now)

	return assignment.ToResponse(a), nil
}

// CheckOut implements assignment.AssignmentService. Worked minutes and the
// overtime flag are derived here; the assignment lands directly in
// COMPLETED once both timestamps are finalized.
func (s *AssignmentServiceImpl) CheckOut(ctx context.Context, caller actor.Actor, req assignment.CheckOutRequest) (assignment.AssignmentResponse, error) {
	if !caller.Can(actor.CapabilitySelfCheckIn) {
		return assignment.AssignmentResponse{}, actor.ErrForbidden
	}

	a, err := s.assignmentRepo.GetByID(ctx, req.ID)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}
	if a.EmployeeID != caller.EmployeeID {
		return assignment.AssignmentResponse{}, actor.ErrForbidden
	}

	switch a.Status {
	case assignment.StatusCheckedIn:
		// proceed
	case assignment.StatusScheduled:
		return assignment.AssignmentResponse{}, assignment.ErrNotCheckedIn
	default:
		return assignment.AssignmentResponse{}, assignment.ErrInvalidTransition
	}
	if a.CheckInTime == nil {
		return assignment.AssignmentResponse{}, assignment.ErrNotCheckedIn
	}

	t, err := s.templateRepo.GetByID(ctx, a.TemplateID)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}

	now := s.now().UTC()
	worked := int(now.Sub(*a.CheckInTime).Minutes())

	a.Status = assignment.StatusCompleted
	a.CheckOutTime = &now
	a.CheckOutLocation = req.Location
	a.WorkedMinutes = &worked
	a.IsOvertime = worked > t.RegularMinutes() && t.OvertimeEligible
	a.StatusChangedBy = &caller.UserID
	a.StatusChangedAt = &now

	if err := s.assignmentRepo.Update(ctx, a, assignment.StatusCheckedIn); err != nil {
		return assignment.AssignmentResponse{}, err
	}

	slog.Info("Shift check-out recorded",
		"assignment_id", a.ID,
		"employee_id", a.EmployeeID,
		"worked_minutes", worked,
		"is_overtime", a.IsOvertime)

	return assignment.ToResponse(a), nil
}

// CancelAssignment implements assignment.AssignmentService.
func (s *AssignmentServiceImpl) CancelAssignment(ctx context.Context, caller actor.Actor, req assignment.CancelAssignmentRequest) (assignment.AssignmentResponse, error) {
	if !caller.Can(actor.CapabilityAssignmentWrite) {
		return assignment.AssignmentResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return assignment.AssignmentResponse{}, err
	}

	a, err := s.assignmentRepo.GetByID(ctx, req.ID)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}
	if a.Status.Terminal() {
		return assignment.AssignmentResponse{}, assignment.ErrAlreadyFinished
	}

	now := s.now().UTC()
	prev := a.Status
	a.Status = assignment.StatusCancelled
	a.CancelReason = &req.Reason
	a.StatusChangedBy = &caller.UserID
	a.StatusChangedAt = &now

	if err := s.assignmentRepo.Update(ctx, a, prev); err != nil {
		return assignment.AssignmentResponse{}, err
	}

	slog.Info("Shift assignment cancelled",
		"assignment_id", a.ID,
		"employee_id", a.EmployeeID,
		"reason", req.Reason)

	return assignment.ToResponse(a), nil
}

// MarkNoShows implements assignment.AssignmentService. The sweep is
// idempotent and continues past single-item failures.
func (s *AssignmentServiceImpl) MarkNoShows(ctx context.Context, now time.Time) (int, error) {
	deadline := now.Add(-time.Duration(s.noShowGraceMinutes) * time.Minute)

	overdue, err := s.assignmentRepo.ListOverdueScheduled(ctx, deadline)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue assignments: %w", err)
	}

	marked := 0
	for _, a := range overdue {
		changedAt := now.UTC()
		a.Status = assignment.StatusNoShow
		a.StatusChangedAt = &changedAt
		a.StatusChangedBy = nil

		if err := s.assignmentRepo.Update(ctx, a, assignment.StatusScheduled); err != nil {
			// A concurrent check-in or cancel winning the race is fine.
			slog.Warn("No-show sweep: skipped assignment",
				"assignment_id", a.ID,
				"error", err)
			continue
		}
		marked++
	}

	return marked, nil
}
