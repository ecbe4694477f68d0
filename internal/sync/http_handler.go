package sync

import (
	"encoding/json"
	"net/http"

	"github.com/prevhub/processync/internal/domain"
)

// Handler exposes the sync gateway as an HTTP endpoint for the browser
// extension.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with a POST endpoint.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

type syncPayload struct {
	Records []Record `json:"records"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload syncPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.service.Sync(r.Context(), r.Header.Get("X-Api-Key"), payload.Records)
	if err != nil {
		switch {
		case domain.IsAuth(err):
			writeJSON(w, http.StatusUnauthorized, domain.BatchResult{Results: []domain.RecordResult{}})
		case domain.IsConflict(err):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
