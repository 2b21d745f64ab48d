package handler

import (
	"encoding/json"
	"net/http"

	"stagedoor/internal/slots/service"
	httputil "stagedoor/pkg/http"
	"stagedoor/pkg/logger"
	"stagedoor/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type SlotHandler struct {
	service service.SlotService
	log     *logger.Logger
}

func NewSlotHandler(service service.SlotService, log *logger.Logger) *SlotHandler {
	return &SlotHandler{
		service: service,
		log:     log,
	}
}

func (h *SlotHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.SlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.Create(r.Context(), &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, req)
}

func (h *SlotHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	req, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, req)
}

func (h *SlotHandler) Transition(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var t model.SlotTransition
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	req, err := h.service.Transition(r.Context(), ps.ByName("id"), &t)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, req)
}

func (h *SlotHandler) GetPending(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reqs, total, err := h.service.GetPendingByVenue(r.Context(), r.URL.Query().Get("venue_id"), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, reqs, total, limit, offset)
}

func (h *SlotHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reqs, total, err := h.service.Search(r.Context(), query.Get("venue_id"), query.Get("event_id"), query.Get("status"), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, reqs, total, limit, offset)
}

func (h *SlotHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/slots", h.Create)
	router.GET("/api/v1/slots/pending", h.GetPending)
	router.GET("/api/v1/slots/search", h.Search)
	router.GET("/api/v1/slots/id/:id", h.GetByID)
	router.PATCH("/api/v1/slots/id/:id/transition", h.Transition)
}
