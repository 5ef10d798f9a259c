package violation

import (
	"context"
	"time"
)

// ViolationRepository defines data access for attendance violations.
type ViolationRepository interface {
	Create(ctx context.Context, v AttendanceViolation) (AttendanceViolation, error)

	GetByID(ctx context.Context, id string) (AttendanceViolation, error)

	// Update persists the violation iff its stored status still equals
	// expected (compare-and-swap).
	Update(ctx context.Context, v AttendanceViolation, expected Status) error

	// ExistsByAssignmentAndType reports whether a violation of this type was
	// already created for the assignment; the detector's idempotency check.
	ExistsByAssignmentAndType(ctx context.Context, assignmentID string, t Type) (bool, error)

	List(ctx context.Context, filter ViolationFilter) ([]AttendanceViolation, int64, error)

	// ListByEmployeeAndPeriod retrieves violations whose date falls in
	// [from,to] for the employee; the payroll deduction read set.
	ListByEmployeeAndPeriod(ctx context.Context, employeeID string, from, to time.Time) ([]AttendanceViolation, error)

	// FindOverdue retrieves violations awaiting an explanation since before
	// the cutoff.
	FindOverdue(ctx context.Context, cutoff time.Time) ([]AttendanceViolation, error)

	// CountByEmployeeAndType aggregates the employee's violation history;
	// used by the statistics queries.
	CountByEmployeeAndType(ctx context.Context, employeeID string, from, to time.Time) (map[Type]int, error)
}

// ExplanationRepository defines data access for violation explanations.
type ExplanationRepository interface {
	Create(ctx context.Context, e ViolationExplanation) (ViolationExplanation, error)

	GetByID(ctx context.Context, id string) (ViolationExplanation, error)

	Update(ctx context.Context, e ViolationExplanation) error

	Delete(ctx context.Context, id string) error

	ListByViolationID(ctx context.Context, violationID string) ([]ViolationExplanation, error)

	// GetLatestByViolationID returns the most recently submitted explanation
	// or ErrExplanationNotFound when none exists.
	GetLatestByViolationID(ctx context.Context, violationID string) (ViolationExplanation, error)

	// GetPendingByViolationID returns the explanation still awaiting review,
	// or ErrExplanationNotFound.
	GetPendingByViolationID(ctx context.Context, violationID string) (ViolationExplanation, error)
}

// EvidenceRepository defines data access for explanation evidence metadata.
type EvidenceRepository interface {
	Create(ctx context.Context, e ExplanationEvidence) (ExplanationEvidence, error)

	GetByID(ctx context.Context, id string) (ExplanationEvidence, error)

	Update(ctx context.Context, e ExplanationEvidence) error

	Delete(ctx context.Context, id string) error

	ListByExplanationID(ctx context.Context, explanationID string) ([]ExplanationEvidence, error)

	// DeleteByExplanationID removes all evidence owned by the explanation;
	// invoked by the explanation-delete cascade.
	DeleteByExplanationID(ctx context.Context, explanationID string) error
}
