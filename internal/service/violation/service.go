package violation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/assignment"
	"github.com/classboard/backoffice-go/internal/domain/violation"
)

type ViolationServiceImpl struct {
	violationRepo   violation.ViolationRepository
	explanationRepo violation.ExplanationRepository
	assignmentRepo  assignment.AssignmentRepository

	lateToleranceMinutes  int
	earlyToleranceMinutes int

	now func() time.Time
}

func NewViolationService(
	violationRepo violation.ViolationRepository,
	explanationRepo violation.ExplanationRepository,
	assignmentRepo assignment.AssignmentRepository,
	lateToleranceMinutes int,
	earlyToleranceMinutes int,
	now func() time.Time,
) violation.ViolationService {
	if now == nil {
		now = time.Now
	}
	return &ViolationServiceImpl{
		violationRepo:         violationRepo,
		explanationRepo:       explanationRepo,
		assignmentRepo:        assignmentRepo,
		lateToleranceMinutes:  lateToleranceMinutes,
		earlyToleranceMinutes: earlyToleranceMinutes,
		now:                   now,
	}
}

// DetectViolations implements violation.ViolationService. At most one
// violation exists per (assignment, rule); re-running the sweep never
// duplicates and continues past single-item failures.
func (s *ViolationServiceImpl) DetectViolations(ctx context.Context, from, to time.Time) (violation.DetectionResult, error) {
	finished, err := s.assignmentRepo.ListFinishedInRange(ctx, from, to)
	if err != nil {
		return violation.DetectionResult{}, fmt.Errorf("failed to list finished assignments: %w", err)
	}

	result := violation.DetectionResult{Inspected: len(finished)}

	for _, a := range finished {
		for _, candidate := range s.evaluate(a) {
			created, err := s.createIfAbsent(ctx, candidate)
			if err != nil {
				slog.Error("Violation sweep: failed to create violation",
					"assignment_id", a.ID,
					"type", candidate.Type,
					"error", err)
				continue
			}
			if created == nil {
				result.Skipped++
				continue
			}
			result.Created = append(result.Created, violation.ToResponse(*created))
		}
	}

	return result, nil
}

// evaluate applies the detection rules to one finished assignment.
func (s *ViolationServiceImpl) evaluate(a assignment.ShiftAssignment) []violation.AttendanceViolation {
	var candidates []violation.AttendanceViolation

	add := func(t violation.Type, minutes int) {
		candidates = append(candidates, violation.AttendanceViolation{
			AssignmentID:  a.ID,
			EmployeeID:    a.EmployeeID,
			Type:          t,
			ViolationDate: a.Date,
			Minutes:       minutes,
			Status:        violation.StatusPendingExplanation,
			DetectedAt:    s.now().UTC(),
		})
	}

	if a.Status == assignment.StatusNoShow {
		add(violation.TypeAbsent, a.PlannedWindow().Minutes())
		return candidates
	}

	if a.CheckInTime != nil {
		lateBy := int(a.CheckInTime.Sub(a.PlannedStart).Minutes())
		if lateBy > s.lateToleranceMinutes {
			add(violation.TypeLate, lateBy)
		}
	}

	if a.CheckOutTime != nil {
		earlyBy := int(a.PlannedEnd.Sub(*a.CheckOutTime).Minutes())
		if earlyBy > s.earlyToleranceMinutes {
			add(violation.TypeEarlyLeave, earlyBy)
		}
	}

	return candidates
}

func (s *ViolationServiceImpl) createIfAbsent(ctx context.Context, v violation.AttendanceViolation) (*violation.AttendanceViolation, error) {
	exists, err := s.violationRepo.ExistsByAssignmentAndType(ctx, v.AssignmentID, v.Type)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	created, err := s.violationRepo.Create(ctx, v)
	if err != nil {
		return nil, err
	}

	slog.Info("Attendance violation detected",
		"violation_id", created.ID,
		"assignment_id", created.AssignmentID,
		"employee_id", created.EmployeeID,
		"type", created.Type,
		"minutes", created.Minutes)

	return &created, nil
}

// GetViolation implements violation.ViolationService.
func (s *ViolationServiceImpl) GetViolation(ctx context.Context, id string) (violation.ViolationResponse, error) {
	v, err := s.violationRepo.GetByID(ctx, id)
	if err != nil {
		return violation.ViolationResponse{}, err
	}
	return violation.ToResponse(v), nil
}

// ListViolations implements violation.ViolationService.
func (s *ViolationServiceImpl) ListViolations(ctx context.Context, filter violation.ViolationFilter) (violation.ListViolationsResponse, error) {
	if err := filter.Validate(); err != nil {
		return violation.ListViolationsResponse{}, err
	}

	violations, total, err := s.violationRepo.List(ctx, filter)
	if err != nil {
		return violation.ListViolationsResponse{}, err
	}

	responses := make([]violation.ViolationResponse, 0, len(violations))
	for _, v := range violations {
		responses = append(responses, violation.ToResponse(v))
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))

	return violation.ListViolationsResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Violations: responses,
	}, nil
}

// FindOverdue implements violation.ViolationService.
func (s *ViolationServiceImpl) FindOverdue(ctx context.Context, daysSince int, now time.Time) ([]violation.ViolationResponse, error) {
	cutoff := now.AddDate(0, 0, -daysSince)

	overdue, err := s.violationRepo.FindOverdue(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	responses := make([]violation.ViolationResponse, 0, len(overdue))
	for _, v := range overdue {
		responses = append(responses, violation.ToResponse(v))
	}
	return responses, nil
}

// ResolveViolation implements violation.ViolationService.
func (s *ViolationServiceImpl) ResolveViolation(ctx context.Context, caller actor.Actor, req violation.ResolveViolationRequest) (violation.ViolationResponse, error) {
	if !caller.Can(actor.CapabilityViolationReview) {
		return violation.ViolationResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return violation.ViolationResponse{}, err
	}

	v, err := s.violationRepo.GetByID(ctx, req.ID)
	if err != nil {
		return violation.ViolationResponse{}, err
	}
	if v.Status == violation.StatusResolved {
		return violation.ViolationResponse{}, violation.ErrInvalidTransition
	}

	now := s.now().UTC()
	prev := v.Status
	v.Status = violation.StatusResolved
	v.ResolvedAt = &now
	v.ResolvedBy = &caller.UserID
	v.ResolutionNotes = &req.Notes

	if err := s.violationRepo.Update(ctx, v, prev); err != nil {
		return violation.ViolationResponse{}, err
	}

	slog.Info("Violation resolved",
		"violation_id", v.ID,
		"resolved_by", caller.UserID)

	return violation.ToResponse(v), nil
}

// EscalateViolation implements violation.ViolationService.
func (s *ViolationServiceImpl) EscalateViolation(ctx context.Context, caller actor.Actor, req violation.EscalateViolationRequest) (violation.ViolationResponse, error) {
	if !caller.Can(actor.CapabilityViolationReview) {
		return violation.ViolationResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return violation.ViolationResponse{}, err
	}

	v, err := s.violationRepo.GetByID(ctx, req.ID)
	if err != nil {
		return violation.ViolationResponse{}, err
	}
	if v.Status == violation.StatusResolved || v.Status == violation.StatusEscalated {
		return violation.ViolationResponse{}, violation.ErrInvalidTransition
	}

	now := s.now().UTC()
	prev := v.Status
	v.Status = violation.StatusEscalated
	v.ResolutionNotes = &req.Notes
	v.EscalatedAt = &now
	v.EscalatedBy = &caller.UserID

	if err := s.violationRepo.Update(ctx, v, prev); err != nil {
		return violation.ViolationResponse{}, err
	}

	slog.Info("Violation escalated",
		"violation_id", v.ID,
		"escalated_by", caller.UserID)

	return violation.ToResponse(v), nil
}

// GetStatistics implements violation.ViolationService.
func (s *ViolationServiceImpl) GetStatistics(ctx context.Context, employeeID string, from, to time.Time) (violation.ViolationStats, error) {
	counts, err := s.violationRepo.CountByEmployeeAndType(ctx, employeeID, from, to)
	if err != nil {
		return violation.ViolationStats{}, err
	}

	stats := violation.ViolationStats{
		EmployeeID:   employeeID,
		From:         from.Format("2006-01-02"),
		To:           to.Format("2006-01-02"),
		CountsByType: make(map[string]int, len(counts)),
	}
	for t, count := range counts {
		stats.CountsByType[string(t)] = count
		stats.Total += count
	}

	return stats, nil
}
