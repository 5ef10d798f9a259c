package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/violation"
	"github.com/classboard/backoffice-go/internal/handler/http/response"
	"github.com/classboard/backoffice-go/internal/pkg/validator"
)

type ViolationHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	ListOverdue(w http.ResponseWriter, r *http.Request)
	Resolve(w http.ResponseWriter, r *http.Request)
	Escalate(w http.ResponseWriter, r *http.Request)
	Statistics(w http.ResponseWriter, r *http.Request)
}

type violationHandlerImpl struct {
	violationService violation.ViolationService

	violationSLADays int
}

func NewViolationHandler(violationService violation.ViolationService, violationSLADays int) ViolationHandler {
	return &violationHandlerImpl{
		violationService: violationService,
		violationSLADays: violationSLADays,
	}
}

func (h *violationHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Violation ID is required", nil)
		return
	}

	result, err := h.violationService.GetViolation(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *violationHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := violation.ViolationFilter{
		EmployeeID: optionalString(query.Get("employee_id")),
		Type:       optionalString(query.Get("type")),
		Status:     optionalString(query.Get("status")),
		StartDate:  optionalString(query.Get("start_date")),
		EndDate:    optionalString(query.Get("end_date")),
	}
	filter.Page, _ = strconv.Atoi(query.Get("page"))
	filter.Limit, _ = strconv.Atoi(query.Get("limit"))

	result, err := h.violationService.ListViolations(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Violations, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

// ListOverdue lists violations still awaiting an explanation past the SLA.
// A days query parameter overrides the configured default.
func (h *violationHandlerImpl) ListOverdue(w http.ResponseWriter, r *http.Request) {
	days := h.violationSLADays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.BadRequest(w, "days must be a non-negative number", nil)
			return
		}
		days = parsed
	}

	result, err := h.violationService.FindOverdue(r.Context(), days, time.Now().UTC())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *violationHandlerImpl) Resolve(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Violation ID is required", nil)
		return
	}

	var req violation.ResolveViolationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.violationService.ResolveViolation(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Violation resolved", result)
}

func (h *violationHandlerImpl) Escalate(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Violation ID is required", nil)
		return
	}

	var req violation.EscalateViolationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.violationService.EscalateViolation(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Violation escalated", result)
}

func (h *violationHandlerImpl) Statistics(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	employeeID := query.Get("employee_id")
	if employeeID == "" {
		response.BadRequest(w, "employee_id is required", nil)
		return
	}

	from, fromOK := validator.IsValidDate(query.Get("from"))
	to, toOK := validator.IsValidDate(query.Get("to"))
	if !fromOK || !toOK {
		response.BadRequest(w, "from and to must be in YYYY-MM-DD format", nil)
		return
	}

	result, err := h.violationService.GetStatistics(r.Context(), employeeID, from, to)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
