package handler

import (
	"net/http"
	"time"

	"stagedoor/internal/calendar/service"
	apperrors "stagedoor/pkg/errors"
	httputil "stagedoor/pkg/http"
	"stagedoor/pkg/interval"
	"stagedoor/pkg/logger"
	"stagedoor/pkg/sealer"

	"github.com/julienschmidt/httprouter"
)

type CalendarHandler struct {
	service service.CalendarService
	log     *logger.Logger
}

func NewCalendarHandler(service service.CalendarService, log *logger.Logger) *CalendarHandler {
	return &CalendarHandler{
		service: service,
		log:     log,
	}
}

func (h *CalendarHandler) GetCalendar(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	today := time.Now().UTC().Format(interval.DateLayout)
	days, err := h.service.GetCalendar(
		r.Context(),
		query.Get("venue_id"),
		query.Get("from"),
		query.Get("to"),
		query.Get("host_id"),
		today,
	)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, days)
}

func (h *CalendarHandler) GetAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	segments, err := h.service.GetAvailability(r.Context(), query.Get("venue_id"), query.Get("date"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, segments)
}

// ShareAvailability issues an opaque token for one venue day, so a host can
// hand out an availability link without exposing the venue ID.
func (h *CalendarHandler) ShareAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	venueID := query.Get("venue_id")
	date := query.Get("date")

	// Resolve first so tokens are only minted for real venue days.
	if _, err := h.service.GetAvailability(r.Context(), venueID, date); err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, err := sealer.CreateCalendarToken(venueID, date)
	if err != nil {
		h.log.Error("Failed to create calendar token", "venue_id", venueID, "error", err)
		httputil.WriteError(w, apperrors.Internal("Failed to create share token", err))
		return
	}

	httputil.WriteSuccess(w, map[string]string{"token": token, "date": date})
}

func (h *CalendarHandler) GetSharedAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	venueID, date, err := sealer.ParseCalendarToken(ps.ByName("token"))
	if err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Invalid share token"))
		return
	}

	segments, err := h.service.GetAvailability(r.Context(), venueID, date)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]any{"date": date, "segments": segments})
}

func (h *CalendarHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/calendar", h.GetCalendar)
	router.GET("/api/v1/calendar/availability", h.GetAvailability)
	router.GET("/api/v1/calendar/share", h.ShareAvailability)
	router.GET("/api/v1/calendar/shared/:token", h.GetSharedAvailability)
}
