package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantStatus is shared by tenant records and their leases.
type TenantStatus string

const (
	TenantPending    TenantStatus = "pending"
	TenantActive     TenantStatus = "active"
	TenantExpired    TenantStatus = "expired"
	TenantTerminated TenantStatus = "terminated"
)

func (s TenantStatus) Valid() bool {
	switch s {
	case TenantPending, TenantActive, TenantExpired, TenantTerminated:
		return true
	}
	return false
}

// Closed reports whether no further transition is possible.
func (s TenantStatus) Closed() bool {
	return s == TenantExpired || s == TenantTerminated
}

// Tenant links a tenant user to a property (and optionally a unit) through a lease.
type Tenant struct {
	ID         uuid.UUID    `json:"id" db:"id"`
	UserID     uuid.UUID    `json:"user" db:"user_id"`
	PropertyID uuid.UUID    `json:"property" db:"property_id"`
	UnitID     *uuid.UUID   `json:"unit,omitempty" db:"unit_id"`
	LeaseID    uuid.UUID    `json:"lease" db:"lease_id"`
	Status     TenantStatus `json:"status" db:"status"`
	Agent      uuid.UUID    `json:"agent" db:"agent_id"`
	CreatedBy  uuid.UUID    `json:"createdBy" db:"created_by"`
	CreatedAt  time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time    `json:"updatedAt" db:"updated_at"`
}

func (t *Tenant) OwnerIDs() (uuid.UUID, uuid.UUID) {
	return t.Agent, t.CreatedBy
}

// TenantDetails is the read model returned by tenant listings.
type TenantDetails struct {
	Tenant
	User          *User  `json:"userDetails,omitempty"`
	Lease         *Lease `json:"leaseDetails,omitempty"`
	PropertyTitle string `json:"propertyTitle"`
}
