package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/violation"
	"github.com/classboard/backoffice-go/internal/handler/http/response"
)

// maxEvidenceSize caps uploaded evidence files at 10 MB.
const maxEvidenceSize = 10 << 20

type ExplanationHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	ListByViolation(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Review(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	AttachEvidence(w http.ResponseWriter, r *http.Request)
	VerifyEvidence(w http.ResponseWriter, r *http.Request)
	DeleteEvidence(w http.ResponseWriter, r *http.Request)
}

type explanationHandlerImpl struct {
	explanationService violation.ExplanationService
}

func NewExplanationHandler(explanationService violation.ExplanationService) ExplanationHandler {
	return &explanationHandlerImpl{explanationService: explanationService}
}

// Submit files an explanation for the violation in the URL.
func (h *explanationHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	violationID := chi.URLParam(r, "id")
	if violationID == "" {
		response.BadRequest(w, "Violation ID is required", nil)
		return
	}

	var req violation.SubmitExplanationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ViolationID = violationID

	result, err := h.explanationService.SubmitExplanation(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Explanation submitted", result)
}

func (h *explanationHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Explanation ID is required", nil)
		return
	}

	result, err := h.explanationService.GetExplanation(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *explanationHandlerImpl) ListByViolation(w http.ResponseWriter, r *http.Request) {
	violationID := chi.URLParam(r, "id")
	if violationID == "" {
		response.BadRequest(w, "Violation ID is required", nil)
		return
	}

	result, err := h.explanationService.ListExplanations(r.Context(), violationID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *explanationHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Explanation ID is required", nil)
		return
	}

	var req violation.UpdateExplanationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.explanationService.UpdateExplanation(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *explanationHandlerImpl) Review(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Explanation ID is required", nil)
		return
	}

	var req violation.ReviewExplanationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.explanationService.ReviewExplanation(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Explanation reviewed", result)
}

func (h *explanationHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Explanation ID is required", nil)
		return
	}

	if err := h.explanationService.DeleteExplanation(r.Context(), caller, id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Explanation deleted", nil)
}

// AttachEvidence accepts a multipart form with the file under 'file' and
// the metadata fields as plain form values.
func (h *explanationHandlerImpl) AttachEvidence(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	explanationID := chi.URLParam(r, "id")
	if explanationID == "" {
		response.BadRequest(w, "Explanation ID is required", nil)
		return
	}

	if err := r.ParseMultipartForm(maxEvidenceSize); err != nil {
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "Evidence file is required", nil)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxEvidenceSize))
	if err != nil {
		response.BadRequest(w, "Failed to read evidence file", nil)
		return
	}

	req := violation.AttachEvidenceRequest{
		ExplanationID: explanationID,
		FileName:      fileHeader.Filename,
		EvidenceType:  r.FormValue("evidence_type"),
		Description:   optionalString(r.FormValue("description")),
		UploadIP:      r.RemoteAddr,
		Content:       content,
	}

	result, err := h.explanationService.AttachEvidence(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Evidence attached", result)
}

func (h *explanationHandlerImpl) VerifyEvidence(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	evidenceID := chi.URLParam(r, "evidenceID")
	if evidenceID == "" {
		response.BadRequest(w, "Evidence ID is required", nil)
		return
	}

	result, err := h.explanationService.VerifyEvidence(r.Context(), caller, evidenceID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Evidence verified", result)
}

func (h *explanationHandlerImpl) DeleteEvidence(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	evidenceID := chi.URLParam(r, "evidenceID")
	if evidenceID == "" {
		response.BadRequest(w, "Evidence ID is required", nil)
		return
	}

	if err := h.explanationService.DeleteEvidence(r.Context(), caller, evidenceID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Evidence deleted", nil)
}
