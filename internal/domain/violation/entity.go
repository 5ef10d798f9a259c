package violation

import "time"

type Type string

const (
	TypeLate       Type = "LATE"
	TypeAbsent     Type = "ABSENT"
	TypeEarlyLeave Type = "EARLY_LEAVE"
	TypeNoShow     Type = "NO_SHOW"
)

var TypeValues = []string{
	string(TypeLate),
	string(TypeAbsent),
	string(TypeEarlyLeave),
	string(TypeNoShow),
}

type Status string

const (
	StatusOpen               Status = "OPEN"
	StatusPendingExplanation Status = "PENDING_EXPLANATION"
	StatusPendingReview      Status = "PENDING_REVIEW"
	StatusResolved           Status = "RESOLVED"
	StatusEscalated          Status = "ESCALATED"
)

var StatusValues = []string{
	string(StatusOpen),
	string(StatusPendingExplanation),
	string(StatusPendingReview),
	string(StatusResolved),
	string(StatusEscalated),
}

// AttendanceViolation records one rule breach detected on one assignment.
// The detector creates at most one violation per (assignment, type).
type AttendanceViolation struct {
	ID            string
	AssignmentID  string
	EmployeeID    string
	Type          Type
	ViolationDate time.Time

	// Minutes quantifies the breach: minutes late, minutes left early, or
	// the full planned window for an absence. Payroll charges this figure
	// while the violation is chargeable.
	Minutes int

	Status          Status
	DetectedAt      time.Time
	ResolvedAt      *time.Time
	ResolvedBy      *string
	ResolutionNotes *string
	EscalatedAt     *time.Time
	EscalatedBy     *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ExplanationStatus string

const (
	ExplanationSubmitted     ExplanationStatus = "SUBMITTED"
	ExplanationApproved      ExplanationStatus = "APPROVED"
	ExplanationRejected      ExplanationStatus = "REJECTED"
	ExplanationNeedsMoreInfo ExplanationStatus = "NEEDS_MORE_INFO"
)

var ExplanationStatusValues = []string{
	string(ExplanationSubmitted),
	string(ExplanationApproved),
	string(ExplanationRejected),
	string(ExplanationNeedsMoreInfo),
}

// Pending reports whether the explanation still awaits a review outcome.
func (s ExplanationStatus) Pending() bool {
	return s == ExplanationSubmitted || s == ExplanationNeedsMoreInfo
}

// ViolationExplanation is one employee account of a violation. A violation
// may accumulate several explanations over resubmission; only the latest is
// authoritative for payroll.
type ViolationExplanation struct {
	ID              string
	ViolationID     string
	SubmittedBy     string
	ExplanationText string
	SubmittedAt     time.Time
	Status          ExplanationStatus
	ReviewedBy      *string
	ReviewedAt      *time.Time
	ReviewNotes     *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExplanationEvidence is file metadata attached to an explanation. The
// bytes live in the file store; only metadata and a storage key are kept
// here.
type ExplanationEvidence struct {
	ID            string
	ExplanationID string
	FileName      string
	StorageKey    string
	Description   *string
	EvidenceType  string
	UploadedAt    time.Time
	UploadIP      string
	Verified      bool
	VerifiedBy    *string
	VerifiedAt    *time.Time
}

// Chargeable reports whether the violation still counts against payroll.
// Approved explanations and faultless resolutions clear the charge; a
// rejected latest explanation keeps it even after resolution.
func (v AttendanceViolation) Chargeable(latest *ViolationExplanation) bool {
	if latest != nil && latest.Status == ExplanationApproved {
		return false
	}
	switch v.Status {
	case StatusOpen, StatusPendingExplanation, StatusPendingReview, StatusEscalated:
		return true
	case StatusResolved:
		return latest != nil && latest.Status == ExplanationRejected
	default:
		return false
	}
}
