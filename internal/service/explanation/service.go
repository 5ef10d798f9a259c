package explanation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/violation"
	"github.com/classboard/backoffice-go/internal/pkg/storage"
)

const evidenceURLExpiry = 15 * time.Minute

type ExplanationServiceImpl struct {
	violationRepo   violation.ViolationRepository
	explanationRepo violation.ExplanationRepository
	evidenceRepo    violation.EvidenceRepository
	files           storage.FileStorage

	now func() time.Time
}

func NewExplanationService(
	violationRepo violation.ViolationRepository,
	explanationRepo violation.ExplanationRepository,
	evidenceRepo violation.EvidenceRepository,
	files storage.FileStorage,
	now func() time.Time,
) violation.ExplanationService {
	if now == nil {
		now = time.Now
	}
	return &ExplanationServiceImpl{
		violationRepo:   violationRepo,
		explanationRepo: explanationRepo,
		evidenceRepo:    evidenceRepo,
		files:           files,
		now:             now,
	}
}

// SubmitExplanation implements violation.ExplanationService. Only one
// pending explanation may exist per violation; a resubmission after
// NEEDS_MORE_INFO supersedes the pending round while history is kept.
func (s *ExplanationServiceImpl) SubmitExplanation(ctx context.Context, caller actor.Actor, req violation.SubmitExplanationRequest) (violation.ExplanationResponse, error) {
	if !caller.Can(actor.CapabilityExplanationSubmit) {
		return violation.ExplanationResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return violation.ExplanationResponse{}, err
	}

	v, err := s.violationRepo.GetByID(ctx, req.ViolationID)
	if err != nil {
		return violation.ExplanationResponse{}, err
	}
	if v.EmployeeID != caller.EmployeeID {
		return violation.ExplanationResponse{}, violation.ErrViolationNotOwned
	}
	if v.Status == violation.StatusResolved {
		return violation.ExplanationResponse{}, violation.ErrInvalidTransition
	}

	pending, err := s.explanationRepo.GetPendingByViolationID(ctx, req.ViolationID)
	if err != nil && !errors.Is(err, violation.ErrExplanationNotFound) {
		return violation.ExplanationResponse{}, err
	}
	if err == nil {
		// A SUBMITTED round is still under review; NEEDS_MORE_INFO invites
		// a replacement.
		if pending.Status == violation.ExplanationSubmitted {
			return violation.ExplanationResponse{}, violation.ErrExplanationPendingExist
		}
	}

	now := s.now().UTC()
	created, err := s.explanationRepo.Create(ctx, violation.ViolationExplanation{
		ViolationID:     req.ViolationID,
		SubmittedBy:     caller.EmployeeID,
		ExplanationText: req.ExplanationText,
		SubmittedAt:     now,
		Status:          violation.ExplanationSubmitted,
	})
	if err != nil {
		return violation.ExplanationResponse{}, err
	}

	if v.Status != violation.StatusPendingReview {
		prev := v.Status
		v.Status = violation.StatusPendingReview
		if err := s.violationRepo.Update(ctx, v, prev); err != nil {
			return violation.ExplanationResponse{}, err
		}
	}

	slog.Info("Violation explanation submitted",
		"explanation_id", created.ID,
		"violation_id", req.ViolationID,
		"employee_id", caller.EmployeeID)

	return violation.ExplanationToResponse(created), nil
}

// UpdateExplanation implements violation.ExplanationService.
func (s *ExplanationServiceImpl) UpdateExplanation(ctx context.Context, caller actor.Actor, req violation.UpdateExplanationRequest) (violation.ExplanationResponse, error) {
	if !caller.Can(actor.CapabilityExplanationSubmit) {
		return violation.ExplanationResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return violation.ExplanationResponse{}, err
	}

	e, err := s.explanationRepo.GetByID(ctx, req.ID)
	if err != nil {
		return violation.ExplanationResponse{}, err
	}
	if e.SubmittedBy != caller.EmployeeID {
		return violation.ExplanationResponse{}, violation.ErrExplanationNotOwned
	}
	if !e.Status.Pending() {
		return violation.ExplanationResponse{}, violation.ErrExplanationReviewed
	}

	e.ExplanationText = req.ExplanationText
	e.SubmittedAt = s.now().UTC()
	e.Status = violation.ExplanationSubmitted

	if err := s.explanationRepo.Update(ctx, e); err != nil {
		return violation.ExplanationResponse{}, err
	}

	return violation.ExplanationToResponse(e), nil
}

// ReviewExplanation implements violation.ExplanationService. The outcome
// drives the violation: APPROVED resolves it, REJECTED sends it back to
// PENDING_EXPLANATION still chargeable so the employee may submit a new
// account, NEEDS_MORE_INFO reopens the current round.
func (s *ExplanationServiceImpl) ReviewExplanation(ctx context.Context, caller actor.Actor, req violation.ReviewExplanationRequest) (violation.ExplanationResponse, error) {
	if !caller.Can(actor.CapabilityViolationReview) {
		return violation.ExplanationResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return violation.ExplanationResponse{}, err
	}

	e, err := s.explanationRepo.GetByID(ctx, req.ID)
	if err != nil {
		return violation.ExplanationResponse{}, err
	}
	if e.Status == violation.ExplanationApproved || e.Status == violation.ExplanationRejected {
		return violation.ExplanationResponse{}, violation.ErrExplanationReviewed
	}

	v, err := s.violationRepo.GetByID(ctx, e.ViolationID)
	if err != nil {
		return violation.ExplanationResponse{}, err
	}

	now := s.now().UTC()
	e.Status = violation.ExplanationStatus(req.Outcome)
	e.ReviewedBy = &caller.UserID
	e.ReviewedAt = &now
	if req.Notes != "" {
		e.ReviewNotes = &req.Notes
	}

	if err := s.explanationRepo.Update(ctx, e); err != nil {
		return violation.ExplanationResponse{}, err
	}

	prev := v.Status
	switch e.Status {
	case violation.ExplanationApproved:
		v.Status = violation.StatusResolved
		v.ResolvedAt = &now
		v.ResolvedBy = &caller.UserID
	case violation.ExplanationRejected:
		// The rejected round is closed, but the violation stays open and
		// chargeable until it is resolved or a later round is approved.
		v.Status = violation.StatusPendingExplanation
	case violation.ExplanationNeedsMoreInfo:
		v.Status = violation.StatusPendingExplanation
	}

	if v.Status != prev {
		if err := s.violationRepo.Update(ctx, v, prev); err != nil {
			return violation.ExplanationResponse{}, err
		}
	}

	slog.Info("Violation explanation reviewed",
		"explanation_id", e.ID,
		"violation_id", v.ID,
		"outcome", req.Outcome,
		"reviewed_by", caller.UserID)

	return violation.ExplanationToResponse(e), nil
}

// DeleteExplanation implements violation.ExplanationService. Evidence
// metadata and stored files are cascaded; file deletion failures are
// logged, not fatal, since metadata is the source of truth.
func (s *ExplanationServiceImpl) DeleteExplanation(ctx context.Context, caller actor.Actor, id string) error {
	if !caller.Can(actor.CapabilityExplanationSubmit) {
		return actor.ErrForbidden
	}

	e, err := s.explanationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if e.SubmittedBy != caller.EmployeeID {
		return violation.ErrExplanationNotOwned
	}
	if !e.Status.Pending() {
		return violation.ErrExplanationReviewed
	}

	evidence, err := s.evidenceRepo.ListByExplanationID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.evidenceRepo.DeleteByExplanationID(ctx, id); err != nil {
		return err
	}
	if err := s.explanationRepo.Delete(ctx, id); err != nil {
		return err
	}

	// File cleanup happens outside the metadata writes.
	for _, ev := range evidence {
		if err := s.files.Delete(ctx, ev.StorageKey); err != nil {
			slog.Error("Failed to delete evidence file",
				"evidence_id", ev.ID,
				"storage_key", ev.StorageKey,
				"error", err)
		}
	}

	return nil
}

// GetExplanation implements violation.ExplanationService.
func (s *ExplanationServiceImpl) GetExplanation(ctx context.Context, id string) (violation.ExplanationResponse, error) {
	e, err := s.explanationRepo.GetByID(ctx, id)
	if err != nil {
		return violation.ExplanationResponse{}, err
	}

	resp := violation.ExplanationToResponse(e)
	resp.Evidence, err = s.evidenceResponses(ctx, e.ID)
	if err != nil {
		return violation.ExplanationResponse{}, err
	}

	return resp, nil
}

// ListExplanations implements violation.ExplanationService.
func (s *ExplanationServiceImpl) ListExplanations(ctx context.Context, violationID string) ([]violation.ExplanationResponse, error) {
	explanations, err := s.explanationRepo.ListByViolationID(ctx, violationID)
	if err != nil {
		return nil, err
	}

	responses := make([]violation.ExplanationResponse, 0, len(explanations))
	for _, e := range explanations {
		resp := violation.ExplanationToResponse(e)
		resp.Evidence, err = s.evidenceResponses(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (s *ExplanationServiceImpl) evidenceResponses(ctx context.Context, explanationID string) ([]violation.EvidenceResponse, error) {
	evidence, err := s.evidenceRepo.ListByExplanationID(ctx, explanationID)
	if err != nil {
		return nil, err
	}

	responses := make([]violation.EvidenceResponse, 0, len(evidence))
	for _, ev := range evidence {
		url, err := s.files.GetURL(ctx, ev.StorageKey, evidenceURLExpiry)
		if err != nil {
			slog.Error("Failed to build evidence URL",
				"evidence_id", ev.ID,
				"error", err)
			url = ""
		}
		responses = append(responses, violation.EvidenceToResponse(ev, url))
	}
	return responses, nil
}

// AttachEvidence implements violation.ExplanationService. The bytes go to
// the file store first; the metadata row is only written once storage
// succeeded, so the store never holds orphan references.
func (s *ExplanationServiceImpl) AttachEvidence(ctx context.Context, caller actor.Actor, req violation.AttachEvidenceRequest) (violation.EvidenceResponse, error) {
	if !caller.Can(actor.CapabilityExplanationSubmit) {
		return violation.EvidenceResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return violation.EvidenceResponse{}, err
	}

	e, err := s.explanationRepo.GetByID(ctx, req.ExplanationID)
	if err != nil {
		return violation.EvidenceResponse{}, err
	}
	if e.SubmittedBy != caller.EmployeeID {
		return violation.EvidenceResponse{}, violation.ErrExplanationNotOwned
	}

	storageKey := fmt.Sprintf("evidence/%s/%s-%s", req.ExplanationID, uuid.NewString(), req.FileName)
	key, err := s.files.Upload(ctx, bytes.NewReader(req.Content), storageKey, "")
	if err != nil {
		return violation.EvidenceResponse{}, fmt.Errorf("failed to store evidence file: %w", err)
	}

	created, err := s.evidenceRepo.Create(ctx, violation.ExplanationEvidence{
		ExplanationID: req.ExplanationID,
		FileName:      req.FileName,
		StorageKey:    key,
		Description:   req.Description,
		EvidenceType:  req.EvidenceType,
		UploadedAt:    s.now().UTC(),
		UploadIP:      req.UploadIP,
	})
	if err != nil {
		// Best effort: don't leave the stored file orphaned.
		if delErr := s.files.Delete(ctx, key); delErr != nil {
			slog.Error("Failed to clean up orphaned evidence file",
				"storage_key", key,
				"error", delErr)
		}
		return violation.EvidenceResponse{}, err
	}

	url, err := s.files.GetURL(ctx, key, evidenceURLExpiry)
	if err != nil {
		url = ""
	}

	return violation.EvidenceToResponse(created, url), nil
}

// VerifyEvidence implements violation.ExplanationService.
func (s *ExplanationServiceImpl) VerifyEvidence(ctx context.Context, caller actor.Actor, evidenceID string) (violation.EvidenceResponse, error) {
	if !caller.Can(actor.CapabilityEvidenceVerify) {
		return violation.EvidenceResponse{}, actor.ErrForbidden
	}

	ev, err := s.evidenceRepo.GetByID(ctx, evidenceID)
	if err != nil {
		return violation.EvidenceResponse{}, err
	}

	now := s.now().UTC()
	ev.Verified = true
	ev.VerifiedBy = &caller.UserID
	ev.VerifiedAt = &now

	if err := s.evidenceRepo.Update(ctx, ev); err != nil {
		return violation.EvidenceResponse{}, err
	}

	url, err := s.files.GetURL(ctx, ev.StorageKey, evidenceURLExpiry)
	if err != nil {
		url = ""
	}

	return violation.EvidenceToResponse(ev, url), nil
}

// DeleteEvidence implements violation.ExplanationService.
func (s *ExplanationServiceImpl) DeleteEvidence(ctx context.Context, caller actor.Actor, evidenceID string) error {
	if !caller.Can(actor.CapabilityExplanationSubmit) {
		return actor.ErrForbidden
	}

	ev, err := s.evidenceRepo.GetByID(ctx, evidenceID)
	if err != nil {
		return err
	}

	e, err := s.explanationRepo.GetByID(ctx, ev.ExplanationID)
	if err != nil {
		return err
	}
	if e.SubmittedBy != caller.EmployeeID {
		return violation.ErrExplanationNotOwned
	}
	if !e.Status.Pending() {
		return violation.ErrExplanationReviewed
	}

	if err := s.evidenceRepo.Delete(ctx, evidenceID); err != nil {
		return err
	}

	if err := s.files.Delete(ctx, ev.StorageKey); err != nil {
		slog.Error("Failed to delete evidence file",
			"evidence_id", evidenceID,
			"storage_key", ev.StorageKey,
			"error", err)
	}

	return nil
}
