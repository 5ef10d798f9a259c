package explanation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/violation"
	"github.com/classboard/backoffice-go/internal/pkg/storage"
	"github.com/classboard/backoffice-go/internal/repository/memory"
)

var (
	employee = actor.Actor{
		UserID:       "user-emp-1",
		EmployeeID:   "emp-1",
		Capabilities: []actor.Capability{actor.CapabilityExplanationSubmit},
	}
	reviewer = actor.Actor{
		UserID:       "user-rev",
		Capabilities: []actor.Capability{actor.CapabilityViolationReview, actor.CapabilityEvidenceVerify},
	}
)

type fixture struct {
	svc           violation.ExplanationService
	violationRepo *memory.ViolationRepository
	evidenceRepo  *memory.EvidenceRepository
	files         *storage.MemoryStorage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	violationRepo := memory.NewViolationRepository()
	evidenceRepo := memory.NewEvidenceRepository()
	files := storage.NewMemoryStorage()
	now := func() time.Time { return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) }

	svc := NewExplanationService(violationRepo, memory.NewExplanationRepository(), evidenceRepo, files, now)

	return &fixture{svc: svc, violationRepo: violationRepo, evidenceRepo: evidenceRepo, files: files}
}

func (f *fixture) seedViolation(t *testing.T, employeeID string) violation.AttendanceViolation {
	t.Helper()
	created, err := f.violationRepo.Create(context.Background(), violation.AttendanceViolation{
		AssignmentID:  "asg-1",
		EmployeeID:    employeeID,
		Type:          violation.TypeLate,
		ViolationDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Minutes:       25,
		Status:        violation.StatusPendingExplanation,
		DetectedAt:    time.Date(2026, 3, 3, 2, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return created
}

func TestExplanationService_Submit_MovesViolationToPendingReview(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	v := f.seedViolation(t, "emp-1")

	submitted, err := f.svc.SubmitExplanation(ctx, employee, violation.SubmitExplanationRequest{
		ViolationID:     v.ID,
		ExplanationText: "bus strike, arrived as soon as possible",
	})
	require.NoError(t, err)
	assert.Equal(t, string(violation.ExplanationSubmitted), submitted.Status)
	assert.Equal(t, "emp-1", submitted.SubmittedBy)

	got, err := f.violationRepo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, violation.StatusPendingReview, got.Status)
}

func TestExplanationService_Submit_NotOwner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	v := f.seedViolation(t, "emp-2")

	_, err := f.svc.SubmitExplanation(ctx, employee, violation.SubmitExplanationRequest{
		ViolationID:     v.ID,
		ExplanationText: "not my violation",
	})
	assert.ErrorIs(t, err, violation.ErrViolationNotOwned)
}

func TestExplanationService_Submit_OnePendingRoundOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	v := f.seedViolation(t, "emp-1")

	_, err := f.svc.SubmitExplanation(ctx, employee, violation.SubmitExplanationRequest{
		ViolationID:     v.ID,
		ExplanationText: "first account",
	})
	require.NoError(t, err)

	_, err = f.svc.SubmitExplanation(ctx, employee, violation.SubmitExplanationRequest{
		ViolationID:     v.ID,
		ExplanationText: "second account while the first is still under review",
	})
	assert.ErrorIs(t, err, violation.ErrExplanationPendingExist)
}

func TestExplanationService_Review_ApprovedResolvesViolation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	v := f.seedViolation(t, "emp-1")

	submitted, err := f.svc.SubmitExplanation(ctx, employee, violation.SubmitExplanationRequest{
		ViolationID:     v.ID,
		ExplanationText: "bus strike",
	})
	require.NoError(t, err)

	reviewed, err := f.svc.ReviewExplanation(ctx, reviewer, violation.ReviewExplanationRequest{
		ID:      submitted.ID,
		Outcome: string(violation.ExplanationApproved),
	})
	require.NoError(t, err)
	assert.Equal(t, string(violation.ExplanationApproved), reviewed.Status)

	got, err := f.violationRepo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, violation.StatusResolved, got.Status)
	assert.False(t, got.Chargeable(&violation.ViolationExplanation{Status: violation.ExplanationApproved}))
}

func TestExplanationService_Review_RejectedKeepsCharge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	v := f.seedViolation(t, "emp-1")

	submitted, err := f.svc.SubmitExplanation(ctx, employee, violation.SubmitExplanationRequest{
		ViolationID:     v.ID,
		ExplanationText: "overslept",
	})
	require.NoError(t, err)

	_, err = f.svc.ReviewExplanation(ctx, reviewer, violation.ReviewExplanationRequest{
		ID:      submitted.ID,
		Outcome: string(violation.ExplanationRejected),
		Notes:   "no supporting evidence",
	})
	require.NoError(t, err)

	got, err := f.violationRepo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, violation.StatusPendingExplanation, got.Status)
	// A rejected latest explanation still charges payroll.
	assert.True(t, got.Chargeable(&violation.ViolationExplanation{Status: violation.ExplanationRejected}))
}

func TestExplanationService_Review_RejectedAllowsNewRound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	v := f.seedViolation(t, "emp-1")

	first, err := f.svc.SubmitExplanation(ctx, employee, violation.SubmitExplanationRequest{
		ViolationID:     v.ID,
		ExplanationText: "overslept",
	})
	require.NoError(t, err)

	_, err = f.svc.ReviewExplanation(ctx, reviewer, violation.ReviewExplanationRequest{
		ID:      first.ID,
		Outcome: string(violation.ExplanationRejected),
		Notes:   "no supporting evidence",
	})
	require.NoError(t, err)

	// The employee comes back with a better account; a fresh round opens.
	second, err := f.svc.SubmitExplanation(ctx, employee, violation.SubmitExplanationRequest{
		ViolationID:     v.ID,
		ExplanationText: "road closure on the commute, certificate attached",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	got, err := f.violationRepo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, violation.StatusPendingReview, got.Status)

	// Approving the second round finally resolves the violation and lifts
	// the charge.
	reviewed, err := f.svc.ReviewExplanation(ctx, reviewer, violation.ReviewExplanationRequest{
		ID:      second.ID,
		Outcome: string(violation.ExplanationApproved),
	})
	require.NoError(t, err)
	assert.Equal(t, string(violation.ExplanationApproved), reviewed.Status)

	got, err = f.violationRepo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, violation.StatusResolved, got.Status)
	assert.False(t, got.Chargeable(&violation.ViolationExplanation{Status: violation.ExplanationApproved}))
}

func TestExplanationService_Review_NeedsMoreInfoReopensRound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	v := f.seedViolation(t, "emp-1")

	submitted, err := f.svc.SubmitExplanation(ctx, employee, violation.SubmitExplanationRequest{
		ViolationID:     v.ID,
		ExplanationText: "medical appointment",
	})
	require.NoError(t, err)

	_, err = f.svc.ReviewExplanation(ctx, reviewer, violation.ReviewExplanationRequest{
		ID:      submitted.ID,
		Outcome: string(violation.ExplanationNeedsMoreInfo),
		Notes:   "please attach the appointment confirmation",
	})
	require.NoError(t, err)

	got, err := f.violationRepo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, violation.StatusPendingExplanation, got.Status)

	// A replacement submission is now allowed.
	_, err = f.svc.SubmitExplanation(ctx, employee, violation.SubmitExplanationRequest{
		ViolationID:     v.ID,
		ExplanationText: "medical appointment, confirmation attached",
	})
	assert.NoError(t, err)
}

func TestExplanationService_Review_NotesRequiredForRejection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	v := f.seedViolation(t, "emp-1")

	submitted, err := f.svc.SubmitExplanation(ctx, employee, violation.SubmitExplanationRequest{
		ViolationID:     v.ID,
		ExplanationText: "overslept",
	})
	require.NoError(t, err)

	_, err = f.svc.ReviewExplanation(ctx, reviewer, violation.ReviewExplanationRequest{
		ID:      submitted.ID,
		Outcome: string(violation.ExplanationRejected),
	})
	assert.Error(t, err)
}

func TestExplanationService_Update_OnlyPendingAndOwner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	v := f.seedViolation(t, "emp-1")

	submitted, err := f.svc.SubmitExplanation(ctx, employee, violation.SubmitExplanationRequest{
		ViolationID:     v.ID,
		ExplanationText: "initial text",
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateExplanation(ctx, employee, violation.UpdateExplanationRequest{
		ID:              submitted.ID,
		ExplanationText: "corrected text",
	})
	require.NoError(t, err)
	assert.Equal(t, "corrected text", updated.ExplanationText)

	_, err = f.svc.ReviewExplanation(ctx, reviewer, violation.ReviewExplanationRequest{
		ID:      submitted.ID,
		Outcome: string(violation.ExplanationApproved),
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateExplanation(ctx, employee, violation.UpdateExplanationRequest{
		ID:              submitted.ID,
		ExplanationText: "too late",
	})
	assert.ErrorIs(t, err, violation.ErrExplanationReviewed)
}

func TestExplanationService_AttachEvidence_StoresFileAndMetadata(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	v := f.seedViolation(t, "emp-1")

	submitted, err := f.svc.SubmitExplanation(ctx, employee, violation.SubmitExplanationRequest{
		ViolationID:     v.ID,
		ExplanationText: "medical appointment",
	})
	require.NoError(t, err)

	attached, err := f.svc.AttachEvidence(ctx, employee, violation.AttachEvidenceRequest{
		ExplanationID: submitted.ID,
		FileName:      "confirmation.pdf",
		EvidenceType:  "MEDICAL_CERTIFICATE",
		UploadIP:      "10.0.0.7",
		Content:       []byte("%PDF-1.4 appointment confirmation"),
	})
	require.NoError(t, err)

	assert.Equal(t, "confirmation.pdf", attached.FileName)
	assert.NotEmpty(t, attached.DownloadURL)
	assert.False(t, attached.Verified)

	stored, err := f.evidenceRepo.GetByID(ctx, attached.ID)
	require.NoError(t, err)
	exists, err := f.files.Exists(ctx, stored.StorageKey)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExplanationService_AttachEvidence_RejectsUnknownType(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	v := f.seedViolation(t, "emp-1")

	submitted, err := f.svc.SubmitExplanation(ctx, employee, violation.SubmitExplanationRequest{
		ViolationID:     v.ID,
		ExplanationText: "medical appointment",
	})
	require.NoError(t, err)

	_, err = f.svc.AttachEvidence(ctx, employee, violation.AttachEvidenceRequest{
		ExplanationID: submitted.ID,
		FileName:      "note.txt",
		EvidenceType:  "SCREENSHOT",
		Content:       []byte("hi"),
	})
	assert.Error(t, err)
}

func TestExplanationService_VerifyEvidence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	v := f.seedViolation(t, "emp-1")

	submitted, err := f.svc.SubmitExplanation(ctx, employee, violation.SubmitExplanationRequest{
		ViolationID:     v.ID,
		ExplanationText: "medical appointment",
	})
	require.NoError(t, err)

	attached, err := f.svc.AttachEvidence(ctx, employee, violation.AttachEvidenceRequest{
		ExplanationID: submitted.ID,
		FileName:      "confirmation.pdf",
		EvidenceType:  "DOCUMENT",
		Content:       []byte("doc"),
	})
	require.NoError(t, err)

	// The submitting employee cannot verify their own evidence.
	_, err = f.svc.VerifyEvidence(ctx, employee, attached.ID)
	assert.ErrorIs(t, err, actor.ErrForbidden)

	verified, err := f.svc.VerifyEvidence(ctx, reviewer, attached.ID)
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	require.NotNil(t, verified.VerifiedBy)
	assert.Equal(t, "user-rev", *verified.VerifiedBy)
}

func TestExplanationService_Delete_CascadesEvidence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	v := f.seedViolation(t, "emp-1")

	submitted, err := f.svc.SubmitExplanation(ctx, employee, violation.SubmitExplanationRequest{
		ViolationID:     v.ID,
		ExplanationText: "medical appointment",
	})
	require.NoError(t, err)

	attached, err := f.svc.AttachEvidence(ctx, employee, violation.AttachEvidenceRequest{
		ExplanationID: submitted.ID,
		FileName:      "confirmation.pdf",
		EvidenceType:  "DOCUMENT",
		Content:       []byte("doc"),
	})
	require.NoError(t, err)

	stored, err := f.evidenceRepo.GetByID(ctx, attached.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteExplanation(ctx, employee, submitted.ID))

	_, err = f.evidenceRepo.GetByID(ctx, attached.ID)
	assert.ErrorIs(t, err, violation.ErrEvidenceNotFound)

	exists, err := f.files.Exists(ctx, stored.StorageKey)
	require.NoError(t, err)
	assert.False(t, exists)
}
