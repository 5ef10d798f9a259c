package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/swap"
	"github.com/classboard/backoffice-go/internal/handler/http/response"
)

type SwapHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Respond(w http.ResponseWriter, r *http.Request)
	Decide(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
}

type swapHandlerImpl struct {
	swapService swap.SwapService
}

func NewSwapHandler(swapService swap.SwapService) SwapHandler {
	return &swapHandlerImpl{swapService: swapService}
}

func (h *swapHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req swap.CreateSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.swapService.CreateSwapRequest(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Swap request created", result)
}

func (h *swapHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Swap request ID is required", nil)
		return
	}

	result, err := h.swapService.GetSwapRequest(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *swapHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := swap.SwapFilter{
		RequesterID:      optionalString(query.Get("requester_id")),
		TargetEmployeeID: optionalString(query.Get("target_employee_id")),
		Status:           optionalString(query.Get("status")),
	}
	filter.Page, _ = strconv.Atoi(query.Get("page"))
	filter.Limit, _ = strconv.Atoi(query.Get("limit"))

	result, err := h.swapService.ListSwapRequests(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Swaps, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

func (h *swapHandlerImpl) Respond(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Swap request ID is required", nil)
		return
	}

	var req swap.RespondSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.swapService.RespondToSwap(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Swap response recorded", result)
}

func (h *swapHandlerImpl) Decide(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Swap request ID is required", nil)
		return
	}

	var req swap.DecideSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.swapService.DecideSwap(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Swap decision recorded", result)
}

func (h *swapHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, err := actor.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Swap request ID is required", nil)
		return
	}

	result, err := h.swapService.CancelSwapRequest(r.Context(), caller, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Swap request cancelled", result)
}
