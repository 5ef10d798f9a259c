package template

import (
	"context"
	"fmt"
	"time"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/template"
	"github.com/classboard/backoffice-go/internal/pkg/validator"
)

type TemplateServiceImpl struct {
	templateRepo template.TemplateRepository
}

func NewTemplateService(templateRepo template.TemplateRepository) template.TemplateService {
	return &TemplateServiceImpl{templateRepo: templateRepo}
}

// CreateTemplate implements template.TemplateService.
func (s *TemplateServiceImpl) CreateTemplate(ctx context.Context, caller actor.Actor, req template.CreateTemplateRequest) (template.TemplateResponse, error) {
	if !caller.Can(actor.CapabilityTemplateManage) {
		return template.TemplateResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return template.TemplateResponse{}, err
	}

	start, _ := validator.IsValidClockTime(req.StartTime)
	end, _ := validator.IsValidClockTime(req.EndTime)

	created, err := s.templateRepo.Create(ctx, template.ShiftTemplate{
		Name:             req.Name,
		StartTime:        start,
		EndTime:          end,
		HasBreak:         req.HasBreak,
		BreakMinutes:     req.BreakMinutes,
		OvertimeEligible: req.OvertimeEligible,
		Active:           true,
		SortOrder:        req.SortOrder,
	})
	if err != nil {
		return template.TemplateResponse{}, err
	}

	return template.ToResponse(created), nil
}

// UpdateTemplate implements template.TemplateService. Edits only change the
// catalog entry; existing assignments keep their derived planned windows.
func (s *TemplateServiceImpl) UpdateTemplate(ctx context.Context, caller actor.Actor, req template.UpdateTemplateRequest) (template.TemplateResponse, error) {
	if !caller.Can(actor.CapabilityTemplateManage) {
		return template.TemplateResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return template.TemplateResponse{}, err
	}

	t, err := s.templateRepo.GetByID(ctx, req.ID)
	if err != nil {
		return template.TemplateResponse{}, err
	}

	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.StartTime != nil {
		start, _ := validator.IsValidClockTime(*req.StartTime)
		t.StartTime = start
	}
	if req.EndTime != nil {
		end, _ := validator.IsValidClockTime(*req.EndTime)
		t.EndTime = end
	}
	if req.HasBreak != nil {
		t.HasBreak = *req.HasBreak
		if !t.HasBreak {
			t.BreakMinutes = 0
		}
	}
	if req.BreakMinutes != nil {
		t.BreakMinutes = *req.BreakMinutes
	}
	if req.OvertimeEligible != nil {
		t.OvertimeEligible = *req.OvertimeEligible
	}
	if req.SortOrder != nil {
		t.SortOrder = *req.SortOrder
	}

	// The merged result must still satisfy the catalog constraints.
	merged := template.CreateTemplateRequest{
		Name:         t.Name,
		StartTime:    t.StartTime.Format("15:04"),
		EndTime:      t.EndTime.Format("15:04"),
		HasBreak:     t.HasBreak,
		BreakMinutes: t.BreakMinutes,
	}
	if err := merged.Validate(); err != nil {
		return template.TemplateResponse{}, err
	}

	if err := s.templateRepo.Update(ctx, t); err != nil {
		return template.TemplateResponse{}, err
	}

	return template.ToResponse(t), nil
}

// DeactivateTemplate implements template.TemplateService.
func (s *TemplateServiceImpl) DeactivateTemplate(ctx context.Context, caller actor.Actor, id string) error {
	if !caller.Can(actor.CapabilityTemplateManage) {
		return actor.ErrForbidden
	}

	t, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !t.Active {
		return nil
	}

	t.Active = false
	if err := s.templateRepo.Update(ctx, t); err != nil {
		return fmt.Errorf("failed to deactivate template: %w", err)
	}

	return nil
}

// GetTemplate implements template.TemplateService.
func (s *TemplateServiceImpl) GetTemplate(ctx context.Context, id string) (template.TemplateResponse, error) {
	t, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return template.TemplateResponse{}, err
	}
	return template.ToResponse(t), nil
}

// ListTemplates implements template.TemplateService.
func (s *TemplateServiceImpl) ListTemplates(ctx context.Context, activeOnly bool) ([]template.TemplateResponse, error) {
	templates, err := s.templateRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	return toResponses(templates), nil
}

// ListOverlapping implements template.TemplateService.
func (s *TemplateServiceImpl) ListOverlapping(ctx context.Context, start, end time.Time) ([]template.TemplateResponse, error) {
	templates, err := s.templateRepo.ListOverlapping(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return toResponses(templates), nil
}

// ListOvertimeEligible implements template.TemplateService.
func (s *TemplateServiceImpl) ListOvertimeEligible(ctx context.Context) ([]template.TemplateResponse, error) {
	templates, err := s.templateRepo.ListOvertimeEligible(ctx)
	if err != nil {
		return nil, err
	}
	return toResponses(templates), nil
}

func toResponses(templates []template.ShiftTemplate) []template.TemplateResponse {
	responses := make([]template.TemplateResponse, 0, len(templates))
	for _, t := range templates {
		responses = append(responses, template.ToResponse(t))
	}
	return responses
}
