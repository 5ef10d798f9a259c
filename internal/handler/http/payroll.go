package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/payroll"
	"github.com/classboard/backoffice-go/internal/handler/http/response"
	"github.com/classboard/backoffice-go/internal/pkg/validator"
)

type PayrollHandler interface {
	Calculate(w http.ResponseWriter, r *http.Request)
	BulkCalculate(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Recalculate(w http.ResponseWriter, r *http.Request)
	Reset(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	MarkPaid(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	Validate(w http.ResponseWriter, r *http.Request)

	// Statistics
	PeriodSummary(w http.ResponseWriter, r *http.Request)
	DepartmentSummaries(w http.ResponseWriter, r *http.Request)
	TopEarners(w http.ResponseWriter, r *http.Request)
	Trend(w http.ResponseWriter, r *http.Request)
	ComparePeriods(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

func (h *payrollHandlerImpl) Calculate(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req payroll.CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.Calculate(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll calculated", result)
}

func (h *payrollHandlerImpl) BulkCalculate(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req payroll.BulkCalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.BulkCalculate(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Bulk payroll calculation finished", result)
}

func (h *payrollHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Payroll ID is required", nil)
		return
	}

	result, err := h.payrollService.GetPayroll(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := payroll.PayrollFilter{
		UserID: optionalString(query.Get("user_id")),
		Status: optionalString(query.Get("status")),
	}
	filter.Year = optionalInt(query.Get("year"))
	filter.Month = optionalInt(query.Get("month"))
	filter.Page, _ = strconv.Atoi(query.Get("page"))
	filter.Limit, _ = strconv.Atoi(query.Get("limit"))

	result, err := h.payrollService.ListPayrolls(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Payrolls, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

func (h *payrollHandlerImpl) Recalculate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Payroll recalculated", h.payrollService.Recalculate)
}

func (h *payrollHandlerImpl) Reset(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Payroll approval reset", h.payrollService.Reset)
}

func (h *payrollHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Payroll approved", h.payrollService.Approve)
}

func (h *payrollHandlerImpl) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Payroll marked as paid", h.payrollService.MarkPaid)
}

// transition handles the body-less lifecycle operations that only need the
// payroll ID and the caller.
func (h *payrollHandlerImpl) transition(
	w http.ResponseWriter,
	r *http.Request,
	message string,
	op func(ctx context.Context, caller actor.Actor, id string) (payroll.PayrollResponse, error),
) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Payroll ID is required", nil)
		return
	}

	result, err := op(r.Context(), caller, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, message, result)
}

func (h *payrollHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Payroll ID is required", nil)
		return
	}

	var req payroll.CancelPayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.payrollService.Cancel(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll cancelled", result)
}

func (h *payrollHandlerImpl) Validate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Payroll ID is required", nil)
		return
	}

	result, err := h.payrollService.Validate(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) PeriodSummary(w http.ResponseWriter, r *http.Request) {
	period, ok := periodFromQuery(w, r)
	if !ok {
		return
	}

	result, err := h.payrollService.PeriodSummary(r.Context(), period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) DepartmentSummaries(w http.ResponseWriter, r *http.Request) {
	period, ok := periodFromQuery(w, r)
	if !ok {
		return
	}

	result, err := h.payrollService.DepartmentSummaries(r.Context(), period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) TopEarners(w http.ResponseWriter, r *http.Request) {
	period, ok := periodFromQuery(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.payrollService.TopEarners(r.Context(), period, limit)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) Trend(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	fromYear, _ := strconv.Atoi(query.Get("from_year"))
	fromMonth, _ := strconv.Atoi(query.Get("from_month"))
	toYear, _ := strconv.Atoi(query.Get("to_year"))
	toMonth, _ := strconv.Atoi(query.Get("to_month"))

	if !validator.IsValidPeriod(fromYear, fromMonth) || !validator.IsValidPeriod(toYear, toMonth) {
		response.BadRequest(w, "from_year, from_month, to_year and to_month are required", nil)
		return
	}

	from := payroll.Period{Year: fromYear, Month: time.Month(fromMonth)}
	to := payroll.Period{Year: toYear, Month: time.Month(toMonth)}

	result, err := h.payrollService.Trend(r.Context(), from, to)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ComparePeriods(w http.ResponseWriter, r *http.Request) {
	period, ok := periodFromQuery(w, r)
	if !ok {
		return
	}

	result, err := h.payrollService.ComparePeriods(r.Context(), period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// periodFromQuery reads and validates the year and month query parameters.
func periodFromQuery(w http.ResponseWriter, r *http.Request) (payroll.Period, bool) {
	query := r.URL.Query()

	year, _ := strconv.Atoi(query.Get("year"))
	month, _ := strconv.Atoi(query.Get("month"))

	if !validator.IsValidPeriod(year, month) {
		response.BadRequest(w, "year and month query parameters are required", nil)
		return payroll.Period{}, false
	}

	return payroll.Period{Year: year, Month: time.Month(month)}, true
}

// optionalInt maps an empty or malformed query value to nil.
func optionalInt(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
