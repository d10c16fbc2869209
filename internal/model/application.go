package model

import (
	"time"

	"github.com/google/uuid"
)

// Application is a logical log source. It is managed by the resource API
// outside this pipeline; the pipeline reads it only when source validation
// is enabled.
type Application struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}
