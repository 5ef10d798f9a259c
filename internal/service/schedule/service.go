package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/assignment"
	"github.com/classboard/backoffice-go/internal/domain/schedule"
	"github.com/classboard/backoffice-go/internal/domain/template"
	"github.com/classboard/backoffice-go/internal/pkg/validator"
)

type ScheduleServiceImpl struct {
	scheduleRepo   schedule.ScheduleRepository
	assignmentRepo assignment.AssignmentRepository
	templateRepo   template.TemplateRepository
	detector       assignment.ConflictDetector
	locks          assignment.CriticalSection

	now func() time.Time
}

func NewScheduleService(
	scheduleRepo schedule.ScheduleRepository,
	assignmentRepo assignment.AssignmentRepository,
	templateRepo template.TemplateRepository,
	detector assignment.ConflictDetector,
	locks assignment.CriticalSection,
	now func() time.Time,
) schedule.ScheduleService {
	if now == nil {
		now = time.Now
	}
	return &ScheduleServiceImpl{
		scheduleRepo:   scheduleRepo,
		assignmentRepo: assignmentRepo,
		templateRepo:   templateRepo,
		detector:       detector,
		locks:          locks,
		now:            now,
	}
}

// CreateSchedule implements schedule.ScheduleService.
func (s *ScheduleServiceImpl) CreateSchedule(ctx context.Context, caller actor.Actor, req schedule.CreateScheduleRequest) (schedule.ScheduleResponse, error) {
	if !caller.Can(actor.CapabilityScheduleManage) {
		return schedule.ScheduleResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return schedule.ScheduleResponse{}, err
	}

	start, _ := validator.IsValidDate(req.StartDate)
	end, _ := validator.IsValidDate(req.EndDate)

	created, err := s.scheduleRepo.Create(ctx, schedule.ShiftSchedule{
		Name:      req.Name,
		Type:      schedule.Type(req.Type),
		Status:    schedule.StatusDraft,
		StartDate: start,
		EndDate:   end,
		CreatedBy: caller.UserID,
	})
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}

	return schedule.ToResponse(created), nil
}

// UpdateSchedule implements schedule.ScheduleService.
func (s *ScheduleServiceImpl) UpdateSchedule(ctx context.Context, caller actor.Actor, req schedule.UpdateScheduleRequest) (schedule.ScheduleResponse, error) {
	if !caller.Can(actor.CapabilityScheduleManage) {
		return schedule.ScheduleResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return schedule.ScheduleResponse{}, err
	}

	sch, err := s.scheduleRepo.GetByID(ctx, req.ID)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}
	if sch.Status != schedule.StatusDraft {
		return schedule.ScheduleResponse{}, schedule.ErrScheduleNotDraft
	}

	if req.Name != nil {
		sch.Name = *req.Name
	}
	if req.StartDate != nil {
		start, _ := validator.IsValidDate(*req.StartDate)
		sch.StartDate = start
	}
	if req.EndDate != nil {
		end, _ := validator.IsValidDate(*req.EndDate)
		sch.EndDate = end
	}
	if sch.EndDate.Before(sch.StartDate) {
		return schedule.ScheduleResponse{}, validator.ValidationErrors{{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		}}
	}

	if err := s.scheduleRepo.Update(ctx, sch, schedule.StatusDraft); err != nil {
		return schedule.ScheduleResponse{}, err
	}

	return schedule.ToResponse(sch), nil
}

// DeleteSchedule implements schedule.ScheduleService.
func (s *ScheduleServiceImpl) DeleteSchedule(ctx context.Context, caller actor.Actor, id string) error {
	if !caller.Can(actor.CapabilityScheduleManage) {
		return actor.ErrForbidden
	}

	sch, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sch.Status != schedule.StatusDraft {
		return schedule.ErrScheduleNotDraft
	}

	owned, err := s.assignmentRepo.ListByScheduleID(ctx, id)
	if err != nil {
		return err
	}
	if len(owned) > 0 {
		return schedule.ErrScheduleNotEmpty
	}

	return s.scheduleRepo.Delete(ctx, id)
}

// GetSchedule implements schedule.ScheduleService.
func (s *ScheduleServiceImpl) GetSchedule(ctx context.Context, id string) (schedule.ScheduleResponse, error) {
	sch, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}
	return schedule.ToResponse(sch), nil
}

// ListSchedules implements schedule.ScheduleService.
func (s *ScheduleServiceImpl) ListSchedules(ctx context.Context, filter schedule.ScheduleFilter) (schedule.ListSchedulesResponse, error) {
	if err := filter.Validate(); err != nil {
		return schedule.ListSchedulesResponse{}, err
	}

	schedules, total, err := s.scheduleRepo.List(ctx, filter)
	if err != nil {
		return schedule.ListSchedulesResponse{}, err
	}

	responses := make([]schedule.ScheduleResponse, 0, len(schedules))
	for _, sch := range schedules {
		responses = append(responses, schedule.ToResponse(sch))
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))

	return schedule.ListSchedulesResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Schedules:  responses,
	}, nil
}

// PublishSchedule implements schedule.ScheduleService. Conflicts are
// re-validated at publish time since drafts may have been edited while
// other schedules published around them. The schedule's own rows are
// excluded from the check so they do not collide with themselves.
func (s *ScheduleServiceImpl) PublishSchedule(ctx context.Context, caller actor.Actor, id string) (schedule.ScheduleResponse, error) {
	if !caller.Can(actor.CapabilityScheduleManage) {
		return schedule.ScheduleResponse{}, actor.ErrForbidden
	}

	sch, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}
	if !sch.CanTransitionTo(schedule.StatusPublished) {
		return schedule.ScheduleResponse{}, schedule.ErrInvalidTransition
	}

	owned, err := s.assignmentRepo.ListByScheduleID(ctx, id)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}

	for _, a := range owned {
		if a.Status == assignment.StatusCancelled {
			continue
		}
		result, err := s.detector.CheckExcludingSchedule(ctx, a.EmployeeID, a.Date, a.PlannedWindow(), id)
		if err != nil {
			return schedule.ScheduleResponse{}, err
		}
		if result.HasConflict {
			slog.Warn("Schedule publish blocked by conflicts",
				"schedule_id", id,
				"assignment_id", a.ID,
				"conflicts", len(result.Conflicts))
			return schedule.ScheduleResponse{}, schedule.ErrScheduleHasConflicts
		}
	}

	now := s.now().UTC()
	sch.Status = schedule.StatusPublished
	sch.PublishedAt = &now
	sch.StatusChangedBy = &caller.UserID
	sch.StatusChangedAt = &now

	if err := s.scheduleRepo.Update(ctx, sch, schedule.StatusDraft); err != nil {
		return schedule.ScheduleResponse{}, err
	}

	slog.Info("Schedule published",
		"schedule_id", id,
		"assignments", len(owned))

	return schedule.ToResponse(sch), nil
}

// ArchiveSchedule implements schedule.ScheduleService.
func (s *ScheduleServiceImpl) ArchiveSchedule(ctx context.Context, caller actor.Actor, id string) (schedule.ScheduleResponse, error) {
	if !caller.Can(actor.CapabilityScheduleManage) {
		return schedule.ScheduleResponse{}, actor.ErrForbidden
	}

	sch, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}
	if !sch.CanTransitionTo(schedule.StatusArchived) {
		return schedule.ScheduleResponse{}, schedule.ErrInvalidTransition
	}

	now := s.now().UTC()
	sch.Status = schedule.StatusArchived
	sch.StatusChangedBy = &caller.UserID
	sch.StatusChangedAt = &now

	if err := s.scheduleRepo.Update(ctx, sch, schedule.StatusPublished); err != nil {
		return schedule.ScheduleResponse{}, err
	}

	return schedule.ToResponse(sch), nil
}

// CancelSchedule implements schedule.ScheduleService. The cascade is an
// explicit per-item soft-cancel: a single assignment's failure is logged
// and the rest continue.
func (s *ScheduleServiceImpl) CancelSchedule(ctx context.Context, caller actor.Actor, req schedule.CancelScheduleRequest) (schedule.ScheduleResponse, error) {
	if !caller.Can(actor.CapabilityScheduleManage) {
		return schedule.ScheduleResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return schedule.ScheduleResponse{}, err
	}

	sch, err := s.scheduleRepo.GetByID(ctx, req.ID)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}
	if !sch.CanTransitionTo(schedule.StatusCancelled) {
		return schedule.ScheduleResponse{}, schedule.ErrInvalidTransition
	}

	now := s.now().UTC()
	prev := sch.Status
	sch.Status = schedule.StatusCancelled
	sch.CancelReason = &req.Reason
	sch.StatusChangedBy = &caller.UserID
	sch.StatusChangedAt = &now

	if err := s.scheduleRepo.Update(ctx, sch, prev); err != nil {
		return schedule.ScheduleResponse{}, err
	}

	cascaded := s.cascadeCancel(ctx, caller, req.ID, req.Reason)

	slog.Info("Schedule cancelled",
		"schedule_id", req.ID,
		"reason", req.Reason,
		"cascaded_assignments", cascaded)

	return schedule.ToResponse(sch), nil
}

func (s *ScheduleServiceImpl) cascadeCancel(ctx context.Context, caller actor.Actor, scheduleID, reason string) int {
	owned, err := s.assignmentRepo.ListByScheduleID(ctx, scheduleID)
	if err != nil {
		slog.Error("Cancel cascade: failed to list assignments",
			"schedule_id", scheduleID,
			"error", err)
		return 0
	}

	cascadeReason := "schedule cancelled: " + reason
	now := s.now().UTC()
	cancelled := 0

	for _, a := range owned {
		if a.Status.Terminal() {
			continue
		}
		prev := a.Status
		a.Status = assignment.StatusCancelled
		a.CancelReason = &cascadeReason
		a.StatusChangedBy = &caller.UserID
		a.StatusChangedAt = &now

		if err := s.assignmentRepo.Update(ctx, a, prev); err != nil {
			slog.Error("Cancel cascade: failed to cancel assignment",
				"schedule_id", scheduleID,
				"assignment_id", a.ID,
				"error", err)
			continue
		}
		cancelled++
	}

	return cancelled
}

// GenerateSchedule implements schedule.ScheduleService. Each expanded item
// takes its own per-(employee, date) critical section; conflicting items
// are skipped and reported.
func (s *ScheduleServiceImpl) GenerateSchedule(ctx context.Context, caller actor.Actor, req schedule.GenerateScheduleRequest) (schedule.GenerateResult, error) {
	if !caller.Can(actor.CapabilityScheduleManage) {
		return schedule.GenerateResult{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return schedule.GenerateResult{}, err
	}

	start, _ := validator.IsValidDate(req.StartDate)
	end, _ := validator.IsValidDate(req.EndDate)

	sch, err := s.scheduleRepo.Create(ctx, schedule.ShiftSchedule{
		Name:      req.Name,
		Type:      schedule.Type(req.Type),
		Status:    schedule.StatusDraft,
		StartDate: start,
		EndDate:   end,
		CreatedBy: caller.UserID,
	})
	if err != nil {
		return schedule.GenerateResult{}, err
	}

	result := schedule.GenerateResult{Schedule: schedule.ToResponse(sch)}

	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		for _, m := range req.Mappings {
			if int(date.Weekday()) != m.Weekday {
				continue
			}
			for _, employeeID := range m.EmployeeIDs {
				if err := s.generateItem(ctx, caller, sch.ID, employeeID, m.TemplateID, date); err != nil {
					result.SkippedCount++
					result.Skipped = append(result.Skipped, schedule.SkippedItem{
						EmployeeID: employeeID,
						TemplateID: m.TemplateID,
						Date:       date.Format("2006-01-02"),
						Reason:     err.Error(),
					})
					continue
				}
				result.CreatedCount++
			}
		}
	}

	if result.CreatedCount == 0 && result.SkippedCount == 0 {
		return schedule.GenerateResult{}, schedule.ErrEmptyGenerationResult
	}

	slog.Info("Schedule generated",
		"schedule_id", sch.ID,
		"created", result.CreatedCount,
		"skipped", result.SkippedCount)

	return result, nil
}

func (s *ScheduleServiceImpl) generateItem(ctx context.Context, caller actor.Actor, scheduleID, employeeID, templateID string, date time.Time) error {
	t, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		return err
	}
	if !t.Active {
		return template.ErrTemplateInactive
	}

	window := assignment.Window{Start: t.StartOn(date), End: t.EndOn(date)}

	return s.locks.Locked(ctx, employeeID, date, func(ctx context.Context) error {
		check, err := s.detector.Check(ctx, employeeID, date, window)
		if err != nil {
			return err
		}
		if check.HasConflict {
			return &assignment.ConflictError{
				EmployeeID: employeeID,
				Date:       date,
				Conflicts:  check.Conflicts,
			}
		}

		now := s.now().UTC()
		_, err = s.assignmentRepo.Create(ctx, assignment.ShiftAssignment{
			EmployeeID:      employeeID,
			ScheduleID:      &scheduleID,
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
}

// CopySchedule implements schedule.ScheduleService. The source's
// (weekday, template, employee) mapping is derived from its assignments
// and re-expanded over the new range, always landing in DRAFT.
func (s *ScheduleServiceImpl) CopySchedule(ctx context.Context, caller actor.Actor, req schedule.CopyScheduleRequest) (schedule.GenerateResult, error) {
	if !caller.Can(actor.CapabilityScheduleManage) {
		return schedule.GenerateResult{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return schedule.GenerateResult{}, err
	}

	source, err := s.scheduleRepo.GetByID(ctx, req.SourceID)
	if err != nil {
		return schedule.GenerateResult{}, err
	}

	sourceAssignments, err := s.assignmentRepo.ListByScheduleID(ctx, req.SourceID)
	if err != nil {
		return schedule.GenerateResult{}, err
	}

	// Derive the weekday mapping from the source rows, de-duplicated.
	type mappingKey struct {
		weekday    int
		templateID string
		employeeID string
	}
	seen := make(map[mappingKey]bool)
	mappings := make(map[int]map[string][]string) // weekday -> template -> employees
	for _, a := range sourceAssignments {
		if a.Status == assignment.StatusCancelled {
			continue
		}
		key := mappingKey{int(a.Date.Weekday()), a.TemplateID, a.EmployeeID}
		if seen[key] {
			continue
		}
		seen[key] = true
		if mappings[key.weekday] == nil {
			mappings[key.weekday] = make(map[string][]string)
		}
		mappings[key.weekday][key.templateID] = append(mappings[key.weekday][key.templateID], key.employeeID)
	}

	var weekdayMappings []schedule.WeekdayMapping
	for weekday, byTemplate := range mappings {
		for templateID, employees := range byTemplate {
			weekdayMappings = append(weekdayMappings, schedule.WeekdayMapping{
				Weekday:     weekday,
				TemplateID:  templateID,
				EmployeeIDs: employees,
			})
		}
	}

	if len(weekdayMappings) == 0 {
		return schedule.GenerateResult{}, schedule.ErrEmptyGenerationResult
	}

	return s.GenerateSchedule(ctx, caller, schedule.GenerateScheduleRequest{
		Name:      req.Name,
		Type:      string(source.Type),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Mappings:  weekdayMappings,
	})
}

// AutoArchive implements schedule.ScheduleService. Idempotent;
// log-but-continue on a single schedule's failure.
func (s *ScheduleServiceImpl) AutoArchive(ctx context.Context, now time.Time, retainDays int) (int, error) {
	cutoff := now.AddDate(0, 0, -retainDays)

	ended, err := s.scheduleRepo.ListPublishedEndedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list archivable schedules: %w", err)
	}

	archived := 0
	for _, sch := range ended {
		changedAt := now.UTC()
		sch.Status = schedule.StatusArchived
		sch.StatusChangedBy = nil
		sch.StatusChangedAt = &changedAt

		if err := s.scheduleRepo.Update(ctx, sch, schedule.StatusPublished); err != nil {
			slog.Warn("Auto-archive sweep: skipped schedule",
				"schedule_id", sch.ID,
				"error", err)
			continue
		}
		archived++
	}

	return archived, nil
}
