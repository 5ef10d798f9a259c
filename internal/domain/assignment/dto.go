package assignment

import (
	"time"

	"github.com/classboard/backoffice-go/internal/pkg/validator"
)

type CreateAssignmentRequest struct {
	EmployeeID string  `json:"employee_id"`
	TemplateID string  `json:"template_id"`
	ScheduleID *string `json:"schedule_id,omitempty"`
	Date       string  `json:"date"` // YYYY-MM-DD
}

func (r *CreateAssignmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if validator.IsEmpty(r.TemplateID) {
		errs = append(errs, validator.ValidationError{
			Field:   "template_id",
			Message: "template_id is required",
		})
	}

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// BulkCreateAssignmentsRequest creates many assignments in one call. Items
// are validated and created independently; partial failure is reported per
// item, not rolled back as a whole, unless Atomic is set.
type BulkCreateAssignmentsRequest struct {
	Items  []CreateAssignmentRequest `json:"items"`
	Atomic bool                      `json:"atomic"`
}

func (r *BulkCreateAssignmentsRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.Items) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "items",
			Message: "items must not be empty",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// BulkItemResult is the per-item outcome of a bulk creation.
type BulkItemResult struct {
	Index      int                 `json:"index"`
	Success    bool                `json:"success"`
	Assignment *AssignmentResponse `json:"assignment,omitempty"`
	Error      string              `json:"error,omitempty"`
	Conflicts  []ConflictRef       `json:"conflicts,omitempty"`
}

type BulkCreateResponse struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Results   []BulkItemResult `json:"results"`
}

type CheckInRequest struct {
	ID       string  `json:"-"`
	Location *string `json:"location,omitempty"`
}

type CheckOutRequest struct {
	ID       string  `json:"-"`
	Location *string `json:"location,omitempty"`
}

type CancelAssignmentRequest struct {
	ID     string `json:"-"`
	Reason string `json:"reason"`
}

func (r *CancelAssignmentRequest) Validate() error {
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

type AssignmentFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	ScheduleID *string `json:"schedule_id,omitempty"`
	TemplateID *string `json:"template_id,omitempty"`
	Status     *string `json:"status,omitempty"`
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *AssignmentFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
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
			Message: "status must be one of: SCHEDULED, CHECKED_IN, CHECKED_OUT, COMPLETED, CANCELLED, NO_SHOW",
		})
	}

	if f.StartDate != nil && *f.StartDate != "" {
		if _, ok := validator.IsValidDate(*f.StartDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if _, ok := validator.IsValidDate(*f.EndDate); !ok {
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

type AssignmentResponse struct {
	ID               string  `json:"id"`
	EmployeeID       string  `json:"employee_id"`
	ScheduleID       *string `json:"schedule_id,omitempty"`
	TemplateID       string  `json:"template_id"`
	Date             string  `json:"date"`
	PlannedStart     string  `json:"planned_start"`
	PlannedEnd       string  `json:"planned_end"`
	Status           string  `json:"status"`
	CheckInTime      *string `json:"check_in_time,omitempty"`
	CheckInLocation  *string `json:"check_in_location,omitempty"`
	CheckOutTime     *string `json:"check_out_time,omitempty"`
	CheckOutLocation *string `json:"check_out_location,omitempty"`
	WorkedMinutes    *int    `json:"worked_minutes,omitempty"`
	IsOvertime       bool    `json:"is_overtime"`
	CancelReason     *string `json:"cancel_reason,omitempty"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

func ToResponse(a ShiftAssignment) AssignmentResponse {
	return AssignmentResponse{
		ID:               a.ID,
		EmployeeID:       a.EmployeeID,
		ScheduleID:       a.ScheduleID,
		TemplateID:       a.TemplateID,
		Date:             a.Date.Format("2006-01-02"),
		PlannedStart:     a.PlannedStart.Format(time.RFC3339),
		PlannedEnd:       a.PlannedEnd.Format(time.RFC3339),
		Status:           string(a.Status),
		CheckInTime:      timePtrToString(a.CheckInTime),
		CheckInLocation:  a.CheckInLocation,
		CheckOutTime:     timePtrToString(a.CheckOutTime),
		CheckOutLocation: a.CheckOutLocation,
		WorkedMinutes:    a.WorkedMinutes,
		IsOvertime:       a.IsOvertime,
		CancelReason:     a.CancelReason,
		CreatedAt:        a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        a.UpdatedAt.Format(time.RFC3339),
	}
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}

type ListAssignmentsResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Assignments []AssignmentResponse `json:"assignments"`
}

// ConflictCheckResult is the conflict detector's contract output.
type ConflictCheckResult struct {
	HasConflict bool          `json:"has_conflict"`
	Conflicts   []ConflictRef `json:"conflicts"`
}
