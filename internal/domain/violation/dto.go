package violation

import (
	"time"

	"github.com/classboard/backoffice-go/internal/pkg/validator"
)

type ViolationFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Type       *string `json:"type,omitempty"`
	Status     *string `json:"status,omitempty"`
	StartDate  *string `json:"start_date,omitempty"`
	EndDate    *string `json:"end_date,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *ViolationFilter) Validate() error {
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

	if f.Type != nil && !validator.IsInSlice(*f.Type, TypeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: LATE, ABSENT, EARLY_LEAVE, NO_SHOW",
		})
	}

	if f.Status != nil && !validator.IsInSlice(*f.Status, StatusValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: OPEN, PENDING_EXPLANATION, PENDING_REVIEW, RESOLVED, ESCALATED",
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

type ResolveViolationRequest struct {
	ID    string `json:"-"`
	Notes string `json:"notes"`
}

func (r *ResolveViolationRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Notes) {
		errs = append(errs, validator.ValidationError{
			Field:   "notes",
			Message: "resolution notes are required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type EscalateViolationRequest struct {
	ID    string `json:"-"`
	Notes string `json:"notes"`
}

func (r *EscalateViolationRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Notes) {
		errs = append(errs, validator.ValidationError{
			Field:   "notes",
			Message: "escalation notes are required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ViolationResponse struct {
	ID              string  `json:"id"`
	AssignmentID    string  `json:"assignment_id"`
	EmployeeID      string  `json:"employee_id"`
	Type            string  `json:"type"`
	ViolationDate   string  `json:"violation_date"`
	Minutes         int     `json:"minutes"`
	Status          string  `json:"status"`
	DetectedAt      string  `json:"detected_at"`
	ResolvedAt      *string `json:"resolved_at,omitempty"`
	ResolvedBy      *string `json:"resolved_by,omitempty"`
	ResolutionNotes *string `json:"resolution_notes,omitempty"`
	EscalatedAt     *string `json:"escalated_at,omitempty"`
	EscalatedBy     *string `json:"escalated_by,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func ToResponse(v AttendanceViolation) ViolationResponse {
	resp := ViolationResponse{
		ID:              v.ID,
		AssignmentID:    v.AssignmentID,
		EmployeeID:      v.EmployeeID,
		Type:            string(v.Type),
		ViolationDate:   v.ViolationDate.Format("2006-01-02"),
		Minutes:         v.Minutes,
		Status:          string(v.Status),
		DetectedAt:      v.DetectedAt.Format(time.RFC3339),
		ResolvedBy:      v.ResolvedBy,
		ResolutionNotes: v.ResolutionNotes,
		EscalatedBy:     v.EscalatedBy,
		CreatedAt:       v.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       v.UpdatedAt.Format(time.RFC3339),
	}
	if v.ResolvedAt != nil {
		formatted := v.ResolvedAt.Format(time.RFC3339)
		resp.ResolvedAt = &formatted
	}
	if v.EscalatedAt != nil {
		formatted := v.EscalatedAt.Format(time.RFC3339)
		resp.EscalatedAt = &formatted
	}
	return resp
}

type ListViolationsResponse struct {
	TotalCount int64               `json:"total_count"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	TotalPages int                 `json:"total_pages"`
	Violations []ViolationResponse `json:"violations"`
}

// DetectionResult reports one violation sweep: how many assignments were
// inspected and which violations were created.
type DetectionResult struct {
	Inspected int                 `json:"inspected"`
	Created   []ViolationResponse `json:"created"`
	Skipped   int                 `json:"skipped"`
}

// ViolationStats aggregates an employee's violation history over a range.
type ViolationStats struct {
	EmployeeID   string         `json:"employee_id"`
	From         string         `json:"from"`
	To           string         `json:"to"`
	Total        int            `json:"total"`
	CountsByType map[string]int `json:"counts_by_type"`
}

type SubmitExplanationRequest struct {
	ViolationID     string `json:"-"`
	ExplanationText string `json:"explanation_text"`
}

func (r *SubmitExplanationRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ExplanationText) {
		errs = append(errs, validator.ValidationError{
			Field:   "explanation_text",
			Message: "explanation_text is required",
		})
	}
	if len(r.ExplanationText) > 2000 {
		errs = append(errs, validator.ValidationError{
			Field:   "explanation_text",
			Message: "explanation_text must not exceed 2000 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type UpdateExplanationRequest struct {
	ID              string `json:"-"`
	ExplanationText string `json:"explanation_text"`
}

func (r *UpdateExplanationRequest) Validate() error {
	req := SubmitExplanationRequest{ExplanationText: r.ExplanationText}
	return req.Validate()
}

type ReviewExplanationRequest struct {
	ID      string `json:"-"`
	Outcome string `json:"outcome"` // APPROVED, REJECTED or NEEDS_MORE_INFO
	Notes   string `json:"notes"`
}

func (r *ReviewExplanationRequest) Validate() error {
	var errs validator.ValidationErrors

	outcomes := []string{
		string(ExplanationApproved),
		string(ExplanationRejected),
		string(ExplanationNeedsMoreInfo),
	}
	if !validator.IsInSlice(r.Outcome, outcomes) {
		errs = append(errs, validator.ValidationError{
			Field:   "outcome",
			Message: "outcome must be one of: APPROVED, REJECTED, NEEDS_MORE_INFO",
		})
	}

	// Rejections and info requests must tell the employee why.
	if r.Outcome != string(ExplanationApproved) && validator.IsEmpty(r.Notes) {
		errs = append(errs, validator.ValidationError{
			Field:   "notes",
			Message: "notes are required for this outcome",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ExplanationResponse struct {
	ID              string             `json:"id"`
	ViolationID     string             `json:"violation_id"`
	SubmittedBy     string             `json:"submitted_by"`
	ExplanationText string             `json:"explanation_text"`
	SubmittedAt     string             `json:"submitted_at"`
	Status          string             `json:"status"`
	ReviewedBy      *string            `json:"reviewed_by,omitempty"`
	ReviewedAt      *string            `json:"reviewed_at,omitempty"`
	ReviewNotes     *string            `json:"review_notes,omitempty"`
	Evidence        []EvidenceResponse `json:"evidence,omitempty"`
}

func ExplanationToResponse(e ViolationExplanation) ExplanationResponse {
	resp := ExplanationResponse{
		ID:              e.ID,
		ViolationID:     e.ViolationID,
		SubmittedBy:     e.SubmittedBy,
		ExplanationText: e.ExplanationText,
		SubmittedAt:     e.SubmittedAt.Format(time.RFC3339),
		Status:          string(e.Status),
		ReviewedBy:      e.ReviewedBy,
		ReviewNotes:     e.ReviewNotes,
	}
	if e.ReviewedAt != nil {
		formatted := e.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &formatted
	}
	return resp
}

type AttachEvidenceRequest struct {
	ExplanationID string  `json:"-"`
	FileName      string  `json:"file_name"`
	EvidenceType  string  `json:"evidence_type"`
	Description   *string `json:"description,omitempty"`
	UploadIP      string  `json:"-"`
	Content       []byte  `json:"-"`
}

var evidenceTypes = []string{"DOCUMENT", "PHOTO", "MEDICAL_CERTIFICATE", "OTHER"}

func (r *AttachEvidenceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.FileName) {
		errs = append(errs, validator.ValidationError{
			Field:   "file_name",
			Message: "file_name is required",
		})
	}

	if !validator.IsInSlice(r.EvidenceType, evidenceTypes) {
		errs = append(errs, validator.ValidationError{
			Field:   "evidence_type",
			Message: "evidence_type must be one of: DOCUMENT, PHOTO, MEDICAL_CERTIFICATE, OTHER",
		})
	}

	if len(r.Content) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "content",
			Message: "file content must not be empty",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type EvidenceResponse struct {
	ID            string  `json:"id"`
	ExplanationID string  `json:"explanation_id"`
	FileName      string  `json:"file_name"`
	Description   *string `json:"description,omitempty"`
	EvidenceType  string  `json:"evidence_type"`
	UploadedAt    string  `json:"uploaded_at"`
	Verified      bool    `json:"verified"`
	VerifiedBy    *string `json:"verified_by,omitempty"`
	DownloadURL   string  `json:"download_url,omitempty"`
}

func EvidenceToResponse(e ExplanationEvidence, downloadURL string) EvidenceResponse {
	return EvidenceResponse{
		ID:            e.ID,
		ExplanationID: e.ExplanationID,
		FileName:      e.FileName,
		Description:   e.Description,
		EvidenceType:  e.EvidenceType,
		UploadedAt:    e.UploadedAt.Format(time.RFC3339),
		Verified:      e.Verified,
		VerifiedBy:    e.VerifiedBy,
		DownloadURL:   downloadURL,
	}
}
