package template

import (
	"time"

	"github.com/classboard/backoffice-go/internal/pkg/validator"
)

type CreateTemplateRequest struct {
	Name             string `json:"name"`
	StartTime        string `json:"start_time"` // HH:MM
	EndTime          string `json:"end_time"`   // HH:MM
	HasBreak         bool   `json:"has_break"`
	BreakMinutes     int    `json:"break_minutes"`
	OvertimeEligible bool   `json:"overtime_eligible"`
	SortOrder        int    `json:"sort_order"`
}

func (r *CreateTemplateRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	start, startOK := validator.IsValidClockTime(r.StartTime)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_time",
			Message: "start_time must be in HH:MM format",
		})
	}

	end, endOK := validator.IsValidClockTime(r.EndTime)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must be in HH:MM format",
		})
	}

	if startOK && endOK {
		if !start.Before(end) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_time",
				Message: "end_time must be after start_time within the same day",
			})
		} else if r.HasBreak {
			window := int(end.Sub(start).Minutes())
			if r.BreakMinutes <= 0 {
				errs = append(errs, validator.ValidationError{
					Field:   "break_minutes",
					Message: "break_minutes must be positive when has_break is set",
				})
			} else if r.BreakMinutes >= window {
				errs = append(errs, validator.ValidationError{
					Field:   "break_minutes",
					Message: "break_minutes must be shorter than the shift window",
				})
			}
		}
	}

	if !r.HasBreak && r.BreakMinutes != 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "break_minutes",
			Message: "break_minutes must be zero when has_break is not set",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type UpdateTemplateRequest struct {
	ID               string  `json:"-"`
	Name             *string `json:"name,omitempty"`
	StartTime        *string `json:"start_time,omitempty"`
	EndTime          *string `json:"end_time,omitempty"`
	HasBreak         *bool   `json:"has_break,omitempty"`
	BreakMinutes     *int    `json:"break_minutes,omitempty"`
	OvertimeEligible *bool   `json:"overtime_eligible,omitempty"`
	SortOrder        *int    `json:"sort_order,omitempty"`
}

func (r *UpdateTemplateRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name must not be empty",
		})
	}

	if r.StartTime != nil {
		if _, ok := validator.IsValidClockTime(*r.StartTime); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "start_time",
				Message: "start_time must be in HH:MM format",
			})
		}
	}

	if r.EndTime != nil {
		if _, ok := validator.IsValidClockTime(*r.EndTime); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "end_time",
				Message: "end_time must be in HH:MM format",
			})
		}
	}

	if r.BreakMinutes != nil && *r.BreakMinutes < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "break_minutes",
			Message: "break_minutes must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type TemplateResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	HasBreak         bool   `json:"has_break"`
	BreakMinutes     int    `json:"break_minutes"`
	RegularMinutes   int    `json:"regular_minutes"`
	OvertimeEligible bool   `json:"overtime_eligible"`
	Active           bool   `json:"active"`
	SortOrder        int    `json:"sort_order"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

func ToResponse(t ShiftTemplate) TemplateResponse {
	return TemplateResponse{
		ID:               t.ID,
		Name:             t.Name,
		StartTime:        t.StartTime.Format("15:04"),
		EndTime:          t.EndTime.Format("15:04"),
		HasBreak:         t.HasBreak,
		BreakMinutes:     t.BreakMinutes,
		RegularMinutes:   t.RegularMinutes(),
		OvertimeEligible: t.OvertimeEligible,
		Active:           t.Active,
		SortOrder:        t.SortOrder,
		CreatedAt:        t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        t.UpdatedAt.Format(time.RFC3339),
	}
}

type ListTemplatesRequest struct {
	ActiveOnly bool    `json:"active_only"`
	Overlaps   *string `json:"overlaps,omitempty"` // "HH:MM-HH:MM"
}
