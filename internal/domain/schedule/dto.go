package schedule

import (
	"time"

	"github.com/classboard/backoffice-go/internal/pkg/validator"
)

type CreateScheduleRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

func (r *CreateScheduleRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	if !validator.IsInSlice(r.Type, TypeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: WEEKLY, MONTHLY, CUSTOM",
		})
	}

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}

	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}

	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type UpdateScheduleRequest struct {
	ID        string  `json:"-"`
	Name      *string `json:"name,omitempty"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
}

func (r *UpdateScheduleRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id must be a valid UUID",
		})
	}

	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name must not be empty",
		})
	}

	if r.StartDate != nil {
		if _, ok := validator.IsValidDate(*r.StartDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if r.EndDate != nil {
		if _, ok := validator.IsValidDate(*r.EndDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CancelScheduleRequest struct {
	ID     string `json:"-"`
	Reason string `json:"reason"`
}

func (r *CancelScheduleRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "cancellation reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// WeekdayMapping binds a template to a weekday for a set of employees.
// Weekday follows time.Weekday numbering: 0 is Sunday.
type WeekdayMapping struct {
	Weekday     int      `json:"weekday"`
	TemplateID  string   `json:"template_id"`
	EmployeeIDs []string `json:"employee_ids"`
}

// GenerateScheduleRequest expands a weekday mapping over a date range into
// concrete dated assignments inside a new DRAFT schedule.
type GenerateScheduleRequest struct {
	Name      string           `json:"name"`
	Type      string           `json:"type"`
	StartDate string           `json:"start_date"`
	EndDate   string           `json:"end_date"`
	Mappings  []WeekdayMapping `json:"mappings"`
}

func (r *GenerateScheduleRequest) Validate() error {
	create := CreateScheduleRequest{
		Name:      r.Name,
		Type:      r.Type,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
	}
	if err := create.Validate(); err != nil {
		return err
	}

	var errs validator.ValidationErrors

	if len(r.Mappings) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "mappings",
			Message: "mappings must not be empty",
		})
	}

	for _, m := range r.Mappings {
		if m.Weekday < 0 || m.Weekday > 6 {
			errs = append(errs, validator.ValidationError{
				Field:   "mappings",
				Message: "weekday must be between 0 (Sunday) and 6 (Saturday)",
			})
		}
		if validator.IsEmpty(m.TemplateID) {
			errs = append(errs, validator.ValidationError{
				Field:   "mappings",
				Message: "template_id is required in every mapping",
			})
		}
		if len(m.EmployeeIDs) == 0 {
			errs = append(errs, validator.ValidationError{
				Field:   "mappings",
				Message: "employee_ids must not be empty in any mapping",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// CopyScheduleRequest clones a source schedule's weekday/template mapping
// onto a new date range. The copy always lands in DRAFT.
type CopyScheduleRequest struct {
	SourceID  string `json:"-"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (r *CopyScheduleRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.SourceID) {
		errs = append(errs, validator.ValidationError{
			Field:   "source_id",
			Message: "source_id must be a valid UUID",
		})
	}

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}

	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}

	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ScheduleFilter struct {
	Status *string `json:"status,omitempty"`
	Type   *string `json:"type,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *ScheduleFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil && !validator.IsInSlice(*f.Status, StatusValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: DRAFT, PUBLISHED, ARCHIVED, CANCELLED",
		})
	}

	if f.Type != nil && !validator.IsInSlice(*f.Type, TypeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: WEEKLY, MONTHLY, CUSTOM",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ScheduleResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	CreatedBy    string  `json:"created_by"`
	PublishedAt  *string `json:"published_at,omitempty"`
	CancelReason *string `json:"cancel_reason,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

func ToResponse(s ShiftSchedule) ScheduleResponse {
	resp := ScheduleResponse{
		ID:           s.ID,
		Name:         s.Name,
		Type:         string(s.Type),
		Status:       string(s.Status),
		StartDate:    s.StartDate.Format("2006-01-02"),
		EndDate:      s.EndDate.Format("2006-01-02"),
		CreatedBy:    s.CreatedBy,
		CancelReason: s.CancelReason,
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    s.UpdatedAt.Format(time.RFC3339),
	}
	if s.PublishedAt != nil {
		formatted := s.PublishedAt.Format(time.RFC3339)
		resp.PublishedAt = &formatted
	}
	return resp
}

type ListSchedulesResponse struct {
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
	Schedules  []ScheduleResponse `json:"schedules"`
}

// GenerateResult reports the outcome of a bulk generation or copy. Skipped
// items carry the conflict or error that excluded them.
type GenerateResult struct {
	Schedule     ScheduleResponse `json:"schedule"`
	CreatedCount int              `json:"created_count"`
	SkippedCount int              `json:"skipped_count"`
	Skipped      []SkippedItem    `json:"skipped,omitempty"`
}

type SkippedItem struct {
	EmployeeID string `json:"employee_id"`
	TemplateID string `json:"template_id"`
	Date       string `json:"date"`
	Reason     string `json:"reason"`
}
