package domain

import (
	"time"

	"github.com/google/uuid"
)

// Process is the per-tenant record of a benefit-claim process observed on
// the government portal. Identity is (TenantID, Protocol); a resync with
// the same protocol updates the existing row.
type Process struct {
	ID              uuid.UUID  `json:"id"`
	TenantID        uuid.UUID  `json:"tenant_id"`
	Protocol        string     `json:"protocol"`
	Status          string     `json:"status"`
	PriorStatus     *string    `json:"prior_status,omitempty"`
	SubjectName     string     `json:"subject_name"`
	SubjectDocument string     `json:"subject_document"`
	Service         string     `json:"service"`
	ProtocoledAt    *time.Time `json:"protocoled_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Snapshot is one scraped observation of a process's current status, as
// uploaded by the browser extension.
type Snapshot struct {
	Protocol        string    `json:"protocol"`
	Status          string    `json:"status"`
	SubjectName     string    `json:"subject_name"`
	SubjectDocument string    `json:"subject_document"`
	Service         string    `json:"service"`
	AsOf            time.Time `json:"as_of"`
}

// UpsertResult describes what a snapshot upsert did to the process row.
type UpsertResult struct {
	Created        bool
	Transitioned   bool
	PreviousStatus *string
}
