package domain

import (
	"time"

	"github.com/google/uuid"
)

// Despacho is an official notice extracted from a received email, keyed by
// the source message id so the same email is never processed twice. The
// tenant is nullable: it may be resolved later than ingestion, or never.
// There is no stored relation to Process; correlation happens at read time
// by protocol match.
type Despacho struct {
	ID              uuid.UUID  `json:"id"`
	SourceMessageID string     `json:"source_message_id"`
	Protocol        string     `json:"protocol"`
	Content         string     `json:"content"`
	Service         *string    `json:"service,omitempty"`
	TenantID        *uuid.UUID `json:"tenant_id,omitempty"`
	ReceivedAt      time.Time  `json:"received_at"`
	CreatedAt       time.Time  `json:"created_at"`
}
