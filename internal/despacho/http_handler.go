package despacho

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/prevhub/processync/internal/auth"
	"github.com/prevhub/processync/internal/domain"
)

// Handler exposes despacho ingestion for the mailbox adapter. The adapter
// may authenticate with a tenant API key; when it cannot, the despacho is
// stored tenant-less and correlated by protocol alone.
type Handler struct {
	service  *Service
	resolver auth.TenantResolver
}

// NewHTTPHandler wraps the correlator with a POST endpoint.
func NewHTTPHandler(service *Service, resolver auth.TenantResolver) http.Handler {
	return &Handler{service: service, resolver: resolver}
}

type ingestPayload struct {
	SourceMessageID string `json:"source_message_id"`
	Protocol        string `json:"protocol"`
	Content         string `json:"content"`
	Service         string `json:"service"`
	ReceivedAt      string `json:"received_at"`
}

type ingestResponse struct {
	ID      uuid.UUID `json:"id"`
	Created bool      `json:"created"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload ingestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	input := IngestInput{
		SourceMessageID: payload.SourceMessageID,
		Protocol:        payload.Protocol,
		Content:         payload.Content,
		Service:         payload.Service,
	}

	if raw := payload.ReceivedAt; raw != "" {
		receivedAt, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "received_at must be RFC 3339"})
			return
		}
		input.ReceivedAt = receivedAt
	}

	// The key is a hint only: an unknown key stores the despacho without
	// a tenant rather than rejecting the notice.
	if apiKey := r.Header.Get("X-Api-Key"); apiKey != "" {
		if tenant, err := h.resolver.Resolve(r.Context(), apiKey); err == nil {
			id := tenant.ID
			input.TenantHint = &id
		}
	}

	stored, created, err := h.service.Ingest(r.Context(), input)
	if err != nil {
		if domain.IsValidation(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	writeJSON(w, status, ingestResponse{ID: stored.ID, Created: created})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
