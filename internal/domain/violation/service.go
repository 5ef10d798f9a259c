package violation

import (
	"context"
	"time"

	"github.com/classboard/backoffice-go/internal/domain/actor"
)

// ViolationService defines business logic for detecting and resolving
// attendance violations.
type ViolationService interface {
	// DetectViolations sweeps finished assignments dated in [from,to] and
	// creates missing violations. Idempotent: re-running never duplicates.
	DetectViolations(ctx context.Context, from, to time.Time) (DetectionResult, error)

	GetViolation(ctx context.Context, id string) (ViolationResponse, error)

	ListViolations(ctx context.Context, filter ViolationFilter) (ListViolationsResponse, error)

	// FindOverdue lists violations still awaiting an explanation daysSince
	// days after detection.
	FindOverdue(ctx context.Context, daysSince int, now time.Time) ([]ViolationResponse, error)

	// ResolveViolation manually resolves a violation with notes.
	ResolveViolation(ctx context.Context, caller actor.Actor, req ResolveViolationRequest) (ViolationResponse, error)

	// EscalateViolation marks a violation for senior review.
	EscalateViolation(ctx context.Context, caller actor.Actor, req EscalateViolationRequest) (ViolationResponse, error)

	// GetStatistics aggregates an employee's violation counts over a range.
	GetStatistics(ctx context.Context, employeeID string, from, to time.Time) (ViolationStats, error)
}

// ExplanationService defines the explanation and evidence workflow.
type ExplanationService interface {
	// SubmitExplanation files the employee's account of a violation they
	// own. Only one pending explanation may exist per violation.
	SubmitExplanation(ctx context.Context, caller actor.Actor, req SubmitExplanationRequest) (ExplanationResponse, error)

	// UpdateExplanation edits a not-yet-reviewed explanation's text.
	UpdateExplanation(ctx context.Context, caller actor.Actor, req UpdateExplanationRequest) (ExplanationResponse, error)

	// ReviewExplanation applies a reviewer outcome and moves the violation
	// accordingly: APPROVED resolves it, REJECTED keeps it chargeable,
	// NEEDS_MORE_INFO reopens the explanation round.
	ReviewExplanation(ctx context.Context, caller actor.Actor, req ReviewExplanationRequest) (ExplanationResponse, error)

	// DeleteExplanation removes a not-yet-reviewed explanation and cascades
	// to its evidence metadata and stored files.
	DeleteExplanation(ctx context.Context, caller actor.Actor, id string) error

	GetExplanation(ctx context.Context, id string) (ExplanationResponse, error)

	ListExplanations(ctx context.Context, violationID string) ([]ExplanationResponse, error)

	// AttachEvidence stores the file bytes outside the metadata write and
	// records the evidence row.
	AttachEvidence(ctx context.Context, caller actor.Actor, req AttachEvidenceRequest) (EvidenceResponse, error)

	// VerifyEvidence is a reviewer action independent of the explanation's
	// approval state.
	VerifyEvidence(ctx context.Context, caller actor.Actor, evidenceID string) (EvidenceResponse, error)

	// DeleteEvidence removes one evidence file and its metadata while the
	// owning explanation is still unreviewed.
	DeleteEvidence(ctx context.Context, caller actor.Actor, evidenceID string) error
}
