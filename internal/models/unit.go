package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UnitAvailability is narrower than Availability: a unit is never "unavailable".
type UnitAvailability string

const (
	UnitAvailable   UnitAvailability = "available"
	UnitOccupied    UnitAvailability = "occupied"
	UnitMaintenance UnitAvailability = "maintenance"
)

func ParseUnitAvailability(s string) (UnitAvailability, error) {
	a := UnitAvailability(s)
	switch a {
	case UnitAvailable, UnitOccupied, UnitMaintenance:
		return a, nil
	}
	return "", fmt.Errorf("unknown unit availability %q", s)
}

// Unit is a sub-leasable part of a multi-unit property. Units are only written
// through the property lifecycle.
type Unit struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	PropertyID   uuid.UUID        `json:"propertyId" db:"property_id"`
	Position     int              `json:"position" db:"position"`
	UnitNumber   string           `json:"unitNumber" db:"unit_number"`
	Floor        int              `json:"floor" db:"floor"`
	Bedrooms     int              `json:"bedrooms" db:"bedrooms"`
	Bathrooms    int              `json:"bathrooms" db:"bathrooms"`
	AreaSqFt     float64          `json:"areaSqFt" db:"area_sq_ft"`
	Rent         float64          `json:"rent" db:"rent"`
	Availability UnitAvailability `json:"availability" db:"availability"`
	Tenant       *uuid.UUID       `json:"tenant" db:"tenant_id"`
	LeaseStart   *time.Time       `json:"leaseStart,omitempty" db:"lease_start"`
	LeaseEnd     *time.Time       `json:"leaseEnd,omitempty" db:"lease_end"`
	CreatedAt    time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time        `json:"updatedAt" db:"updated_at"`
}

// UnitInput describes a unit to add to a property.
type UnitInput struct {
	UnitNumber string  `json:"unitNumber"`
	Floor      int     `json:"floor"`
	Bedrooms   int     `json:"bedrooms"`
	Bathrooms  int     `json:"bathrooms"`
	AreaSqFt   float64 `json:"areaSqFt"`
	Rent       float64 `json:"rent"`
}

// UnitPatch edits the descriptive fields of a unit, or toggles maintenance.
type UnitPatch struct {
	UnitNumber   *string  `json:"unitNumber"`
	Floor        *int     `json:"floor"`
	Bedrooms     *int     `json:"bedrooms"`
	Bathrooms    *int     `json:"bathrooms"`
	AreaSqFt     *float64 `json:"areaSqFt"`
	Rent         *float64 `json:"rent"`
	Availability *string  `json:"availability"`
}
