package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/template"
	"github.com/classboard/backoffice-go/internal/handler/http/response"
	"github.com/classboard/backoffice-go/internal/pkg/validator"
)

type TemplateHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Deactivate(w http.ResponseWriter, r *http.Request)
}

type templateHandlerImpl struct {
	templateService template.TemplateService
}

func NewTemplateHandler(templateService template.TemplateService) TemplateHandler {
	return &templateHandlerImpl{templateService: templateService}
}

func (h *templateHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req template.CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.templateService.CreateTemplate(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Shift template created", result)
}

func (h *templateHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Template ID is required", nil)
		return
	}

	result, err := h.templateService.GetTemplate(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List returns the catalog. With overlaps=HH:MM-HH:MM set, only active
// templates whose clock window overlaps the given one are returned.
func (h *templateHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if overlaps := query.Get("overlaps"); overlaps != "" {
		startStr, endStr, found := strings.Cut(overlaps, "-")
		start, startOK := validator.IsValidClockTime(startStr)
		end, endOK := validator.IsValidClockTime(endStr)
		if !found || !startOK || !endOK {
			response.BadRequest(w, "overlaps must be in HH:MM-HH:MM format", nil)
			return
		}

		result, err := h.templateService.ListOverlapping(r.Context(), start, end)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		response.Success(w, result)
		return
	}

	if query.Get("overtime_eligible") == "true" {
		result, err := h.templateService.ListOvertimeEligible(r.Context())
		if err != nil {
			response.HandleError(w, err)
			return
		}
		response.Success(w, result)
		return
	}

	activeOnly := query.Get("active_only") == "true"

	result, err := h.templateService.ListTemplates(r.Context(), activeOnly)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *templateHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Template ID is required", nil)
		return
	}

	var req template.UpdateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.templateService.UpdateTemplate(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *templateHandlerImpl) Deactivate(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Template ID is required", nil)
		return
	}

	if err := h.templateService.DeactivateTemplate(r.Context(), caller, id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Shift template deactivated", nil)
}
