package swap

import (
	"time"

	"github.com/classboard/backoffice-go/internal/pkg/validator"
)

type CreateSwapRequest struct {
	RequesterAssignmentID string `json:"requester_assignment_id"`
	TargetAssignmentID    string `json:"target_assignment_id"`
	Reason                string `json:"reason"`
	Priority              string `json:"priority"`
	Emergency             bool   `json:"emergency"`
}

func (r *CreateSwapRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.RequesterAssignmentID) {
		errs = append(errs, validator.ValidationError{
			Field:   "requester_assignment_id",
			Message: "requester_assignment_id is required",
		})
	}
	if validator.IsEmpty(r.TargetAssignmentID) {
		errs = append(errs, validator.ValidationError{
			Field:   "target_assignment_id",
			Message: "target_assignment_id is required",
		})
	}
	if r.RequesterAssignmentID != "" && r.RequesterAssignmentID == r.TargetAssignmentID {
		errs = append(errs, validator.ValidationError{
			Field:   "target_assignment_id",
			Message: "target assignment must differ from the requester assignment",
		})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}
	if len(r.Reason) > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 1000 characters",
		})
	}
	if r.Priority == "" {
		r.Priority = string(PriorityMedium)
	}
	if !validator.IsInSlice(r.Priority, PriorityValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "priority",
			Message: "priority must be one of: LOW, MEDIUM, HIGH",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type RespondSwapRequest struct {
	ID     string `json:"-"`
	Accept bool   `json:"accept"`
	Reason string `json:"reason"`
}

func (r *RespondSwapRequest) Validate() error {
	var errs validator.ValidationErrors

	if !r.Accept && validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required when rejecting a swap",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type DecideSwapRequest struct {
	ID      string `json:"-"`
	Approve bool   `json:"approve"`
	Notes   string `json:"notes"`
}

func (r *DecideSwapRequest) Validate() error {
	var errs validator.ValidationErrors

	if !r.Approve && validator.IsEmpty(r.Notes) {
		errs = append(errs, validator.ValidationError{
			Field:   "notes",
			Message: "notes are required when declining a swap",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type SwapFilter struct {
	RequesterID      *string `json:"requester_id,omitempty"`
	TargetEmployeeID *string `json:"target_employee_id,omitempty"`
	Status           *string `json:"status,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *SwapFilter) Validate() error {
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
			Message: "status must be one of: PENDING, ACCEPTED, REJECTED, APPROVED, DECLINED, CANCELLED, EXPIRED",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type SwapResponse struct {
	ID                    string  `json:"id"`
	RequesterID           string  `json:"requester_id"`
	TargetEmployeeID      string  `json:"target_employee_id"`
	RequesterAssignmentID string  `json:"requester_assignment_id"`
	TargetAssignmentID    string  `json:"target_assignment_id"`
	Status                string  `json:"status"`
	Priority              string  `json:"priority"`
	Reason                string  `json:"reason"`
	Emergency             bool    `json:"emergency"`
	TargetReason          *string `json:"target_reason,omitempty"`
	TargetRespondedAt     *string `json:"target_responded_at,omitempty"`
	DecidedBy             *string `json:"decided_by,omitempty"`
	DecidedAt             *string `json:"decided_at,omitempty"`
	DecisionNotes         *string `json:"decision_notes,omitempty"`
	ExpiresAt             string  `json:"expires_at"`
	CreatedAt             string  `json:"created_at"`
	UpdatedAt             string  `json:"updated_at"`
}

func ToResponse(s SwapRequest) SwapResponse {
	resp := SwapResponse{
		ID:                    s.ID,
		RequesterID:           s.RequesterID,
		TargetEmployeeID:      s.TargetEmployeeID,
		RequesterAssignmentID: s.RequesterAssignmentID,
		TargetAssignmentID:    s.TargetAssignmentID,
		Status:                string(s.Status),
		Priority:              string(s.Priority),
		Reason:                s.Reason,
		Emergency:             s.Emergency,
		TargetReason:          s.TargetReason,
		DecidedBy:             s.DecidedBy,
		DecisionNotes:         s.DecisionNotes,
		ExpiresAt:             s.ExpiresAt.Format(time.RFC3339),
		CreatedAt:             s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             s.UpdatedAt.Format(time.RFC3339),
	}
	if s.TargetRespondedAt != nil {
		formatted := s.TargetRespondedAt.Format(time.RFC3339)
		resp.TargetRespondedAt = &formatted
	}
	if s.DecidedAt != nil {
		formatted := s.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &formatted
	}
	return resp
}

type ListSwapsResponse struct {
	TotalCount int64          `json:"total_count"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
	Swaps      []SwapResponse `json:"swaps"`
}
