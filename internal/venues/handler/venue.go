package handler

import (
	"encoding/json"
	"net/http"

	"stagedoor/internal/venues/service"
	httputil "stagedoor/pkg/http"
	"stagedoor/pkg/logger"
	"stagedoor/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type VenueHandler struct {
	service service.VenueService
	log     *logger.Logger
}

func NewVenueHandler(service service.VenueService, log *logger.Logger) *VenueHandler {
	return &VenueHandler{
		service: service,
		log:     log,
	}
}

func (h *VenueHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var venue model.Venue
	if err := json.NewDecoder(r.Body).Decode(&venue); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.Create(r.Context(), &venue); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, venue)
}

func (h *VenueHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	venue, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, venue)
}

func (h *VenueHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	venues, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, venues, total, limit, offset)
}

func (h *VenueHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	venues, total, err := h.service.Search(r.Context(), query.Get("name"), query.Get("city"), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, venues, total, limit, offset)
}

func (h *VenueHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.VenueUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.Update(r.Context(), ps.ByName("id"), &updates); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *VenueHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *VenueHandler) CreateBlock(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var block model.VenueBlock
	if err := json.NewDecoder(r.Body).Decode(&block); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.CreateBlock(r.Context(), ps.ByName("id"), &block); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, block)
}

func (h *VenueHandler) GetBlocks(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()

	blocks, err := h.service.GetBlocks(r.Context(), ps.ByName("id"), query.Get("from"), query.Get("to"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, blocks)
}

func (h *VenueHandler) DeleteBlock(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.DeleteBlock(r.Context(), ps.ByName("id"), ps.ByName("blockId")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *VenueHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/venues", h.Create)
	router.GET("/api/v1/venues", h.GetAll)
	router.GET("/api/v1/venues/search", h.Search)
	router.GET("/api/v1/venues/id/:id", h.GetByID)
	router.PATCH("/api/v1/venues/id/:id", h.Update)
	router.DELETE("/api/v1/venues/id/:id", h.Delete)
	router.POST("/api/v1/venues/id/:id/blocks", h.CreateBlock)
	router.GET("/api/v1/venues/id/:id/blocks", h.GetBlocks)
	router.DELETE("/api/v1/venues/id/:id/blocks/:blockId", h.DeleteBlock)
}
