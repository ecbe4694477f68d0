package andamento

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prevhub/processync/internal/auth"
	"github.com/prevhub/processync/internal/domain"
)

// Handler exposes the andamento read API. Every route requires an
// authenticated tenant in the request context.
type Handler struct {
	service *Service
}

// NewHTTPHandler creates the handler for the andamento routes.
func NewHTTPHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the read API on a chi subrouter.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleList)
	r.Get("/stats", h.handleStats)
	r.Get("/export", h.handleExport)
	r.Post("/seen", h.handleMarkAllSeen)
	r.Post("/{id}/seen", h.handleMarkSeen)
	return r
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.TenantIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing tenant"})
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.service.List(r.Context(), tenantID, filter, pageFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.TenantIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing tenant"})
		return
	}

	stats, err := h.service.Stats(r.Context(), tenantID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleMarkSeen(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.TenantIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing tenant"})
		return
	}

	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid entry id"})
		return
	}

	entry, err := h.service.MarkSeen(r.Context(), tenantID, entryID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

type markAllSeenPayload struct {
	Search         string `json:"search"`
	NewStatus      string `json:"new_status"`
	PreviousStatus string `json:"previous_status"`
	Seen           string `json:"seen"`
	Period         string `json:"period"`
}

func (h *Handler) handleMarkAllSeen(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.TenantIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing tenant"})
		return
	}

	var payload markAllSeenPayload
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	filter, err := buildFilter(payload.Search, payload.NewStatus, payload.PreviousStatus, payload.Seen, payload.Period)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	updated, err := h.service.MarkAllSeen(r.Context(), tenantID, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func filterFromQuery(r *http.Request) (domain.AndamentoFilter, error) {
	q := r.URL.Query()
	return buildFilter(
		q.Get("search"),
		q.Get("new_status"),
		q.Get("previous_status"),
		q.Get("seen"),
		q.Get("period"),
	)
}

func buildFilter(search, newStatus, previousStatus, seen, period string) (domain.AndamentoFilter, error) {
	seenState, err := domain.ParseSeenState(seen)
	if err != nil {
		return domain.AndamentoFilter{}, err
	}
	parsedPeriod, err := domain.ParsePeriod(period)
	if err != nil {
		return domain.AndamentoFilter{}, err
	}
	return domain.AndamentoFilter{
		Search:         search,
		NewStatus:      newStatus,
		PreviousStatus: previousStatus,
		SeenState:      seenState,
		Period:         parsedPeriod,
	}, nil
}

func pageFromQuery(r *http.Request) domain.Page {
	q := r.URL.Query()
	page := domain.Page{}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		page.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil {
		page.Offset = offset
	}
	return page
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case domain.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
