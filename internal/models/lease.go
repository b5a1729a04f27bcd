package models

import (
	"time"

	"github.com/google/uuid"
)

// Lease terms are immutable once the lease is closed; only Status moves.
type Lease struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	PropertyID    uuid.UUID    `json:"property" db:"property_id"`
	UnitID        *uuid.UUID   `json:"unit,omitempty" db:"unit_id"`
	TenantUserID  uuid.UUID    `json:"tenant" db:"tenant_user_id"`
	StartDate     time.Time    `json:"startDate" db:"start_date"`
	EndDate       time.Time    `json:"endDate" db:"end_date"`
	RentAmount    float64      `json:"rentAmount" db:"rent_amount"`
	DepositAmount float64      `json:"depositAmount" db:"deposit_amount"`
	PaymentDueDay int          `json:"paymentDueDay" db:"payment_due_day"`
	Status        TenantStatus `json:"status" db:"status"`
	Agent         uuid.UUID    `json:"agent" db:"agent_id"`
	CreatedBy     uuid.UUID    `json:"createdBy" db:"created_by"`
	CreatedAt     time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time    `json:"updatedAt" db:"updated_at"`
}
