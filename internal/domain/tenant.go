package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents an isolated customer (law firm) owning its own
// processes and despachos.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
