package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/assignment"
	"github.com/classboard/backoffice-go/internal/handler/http/response"
)

type AssignmentHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	BulkCreate(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
}

type assignmentHandlerImpl struct {
	assignmentService assignment.AssignmentService
}

func NewAssignmentHandler(assignmentService assignment.AssignmentService) AssignmentHandler {
	return &assignmentHandlerImpl{assignmentService: assignmentService}
}

func (h *assignmentHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req assignment.CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.assignmentService.CreateAssignment(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Shift assignment created", result)
}

func (h *assignmentHandlerImpl) BulkCreate(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req assignment.BulkCreateAssignmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.assignmentService.BulkCreateAssignments(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Bulk assignment creation finished", result)
}

func (h *assignmentHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Assignment ID is required", nil)
		return
	}

	result, err := h.assignmentService.GetAssignment(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *assignmentHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := assignment.AssignmentFilter{
		EmployeeID: optionalString(query.Get("employee_id")),
		ScheduleID: optionalString(query.Get("schedule_id")),
		TemplateID: optionalString(query.Get("template_id")),
		Status:     optionalString(query.Get("status")),
		StartDate:  optionalString(query.Get("start_date")),
		EndDate:    optionalString(query.Get("end_date")),
	}
	filter.Page, _ = strconv.Atoi(query.Get("page"))
	filter.Limit, _ = strconv.Atoi(query.Get("limit"))

	result, err := h.assignmentService.ListAssignments(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Assignments, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

func (h *assignmentHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Assignment ID is required", nil)
		return
	}

	// The body is optional; a bare check-in carries no location.
	var req assignment.CheckInRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body", nil)
			return
		}
	}
	req.ID = id

	result, err := h.assignmentService.CheckIn(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Checked in", result)
}

func (h *assignmentHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Assignment ID is required", nil)
		return
	}

	var req assignment.CheckOutRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body", nil)
			return
		}
	}
	req.ID = id

	result, err := h.assignmentService.CheckOut(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Checked out", result)
}

func (h *assignmentHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Assignment ID is required", nil)
		return
	}

	var req assignment.CancelAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.assignmentService.CancelAssignment(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Shift assignment cancelled", result)
}
