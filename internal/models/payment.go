package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment rows are written by the external payment pipeline; the core only reads them.
type Payment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	LeaseID    uuid.UUID `json:"lease" db:"lease_id"`
	PropertyID uuid.UUID `json:"property" db:"property_id"`
	Agent      uuid.UUID `json:"agent" db:"agent_id"`
	Amount     float64   `json:"amount" db:"amount"`
	Status     string    `json:"status" db:"status"`
	PaidAt     time.Time `json:"paidAt" db:"paid_at"`
}

// PaymentTotals is a sum of completed payments over a window.
type PaymentTotals struct {
	Total float64
	Count int
}
