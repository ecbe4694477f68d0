package domain

import (
	"time"

	"github.com/google/uuid"
)

// StatusHistoryEntry is one immutable status transition for a process.
// Entries are appended only when the incoming status differs from the
// stored one; the seen flag is the only field ever mutated afterwards,
// and once true it never goes back to false.
type StatusHistoryEntry struct {
	ID           uuid.UUID  `json:"id"`
	ProcessID    uuid.UUID  `json:"process_id"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	StatusBefore string     `json:"status_before"`
	StatusAfter  string     `json:"status_after"`
	OccurredAt   time.Time  `json:"occurred_at"`
	Seen         bool       `json:"seen"`
	SeenAt       *time.Time `json:"seen_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Andamento is a history entry enriched with its process and, when one
// correlates, a despacho. This is the unit the read API returns.
type Andamento struct {
	Entry    StatusHistoryEntry `json:"entry"`
	Process  Process            `json:"process"`
	Despacho *Despacho          `json:"despacho,omitempty"`
}

// AndamentoStats aggregates transition counts for the dashboard header.
type AndamentoStats struct {
	Today     int64 `json:"today"`
	ThisWeek  int64 `json:"this_week"`
	ThisMonth int64 `json:"this_month"`
	Unseen    int64 `json:"unseen"`
	Total     int64 `json:"total"`
}
