package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus is the approval axis of a property.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Availability is the occupancy axis of a property, independent of approval.
type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityOccupied    Availability = "occupied"
	AvailabilityMaintenance Availability = "maintenance"
	AvailabilityUnavailable Availability = "unavailable"
)

func ParseAvailability(s string) (Availability, error) {
	a := Availability(s)
	switch a {
	case AvailabilityAvailable, AvailabilityOccupied, AvailabilityMaintenance, AvailabilityUnavailable:
		return a, nil
	}
	return "", fmt.Errorf("unknown availability %q", s)
}

type PropertyType string

const (
	PropertyTypeApartment  PropertyType = "apartment"
	PropertyTypeHouse      PropertyType = "house"
	PropertyTypeVilla      PropertyType = "villa"
	PropertyTypeStudio     PropertyType = "studio"
	PropertyTypeCondo      PropertyType = "condo"
	PropertyTypeCommercial PropertyType = "commercial"
	PropertyTypeOffice     PropertyType = "office"
	PropertyTypeLand       PropertyType = "land"
)

func ParsePropertyType(s string) (PropertyType, error) {
	t := PropertyType(s)
	switch t {
	case PropertyTypeApartment, PropertyTypeHouse, PropertyTypeVilla, PropertyTypeStudio,
		PropertyTypeCondo, PropertyTypeCommercial, PropertyTypeOffice, PropertyTypeLand:
		return t, nil
	}
	return "", fmt.Errorf("unknown property type %q", s)
}

// RequiresSalePrice reports whether listings of this type are priced by sale price instead of rent.
func (t PropertyType) RequiresSalePrice() bool {
	return t == PropertyTypeLand
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type Property struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	Title           string         `json:"title" db:"title"`
	Description     string         `json:"description" db:"description"`
	PropertyType    PropertyType   `json:"propertyType" db:"property_type"`
	Address         Address        `json:"address" db:"-"`
	Bedrooms        int            `json:"bedrooms" db:"bedrooms"`
	Bathrooms       int            `json:"bathrooms" db:"bathrooms"`
	AreaSqFt        float64        `json:"areaSqFt" db:"area_sq_ft"`
	Rent            *float64       `json:"rent,omitempty" db:"rent"`
	Price           *float64       `json:"price,omitempty" db:"price"`
	Deposit         *float64       `json:"deposit,omitempty" db:"deposit"`
	Amenities       []string       `json:"amenities" db:"amenities"`
	Images          []string       `json:"images" db:"images"`
	Agent           uuid.UUID      `json:"agent" db:"agent_id"`
	CreatedBy       uuid.UUID      `json:"createdBy" db:"created_by"`
	CreatedByRole   Role           `json:"createdByRole" db:"created_by_role"`
	ApprovalStatus  ApprovalStatus `json:"approvalStatus" db:"approval_status"`
	Approved        bool           `json:"approved" db:"approved"`
	ApprovedBy      *uuid.UUID     `json:"approvedBy,omitempty" db:"approved_by"`
	ApprovedAt      *time.Time     `json:"approvedAt,omitempty" db:"approved_at"`
	RejectionReason *string        `json:"rejectionReason,omitempty" db:"rejection_reason"`
	Availability    Availability   `json:"availability" db:"availability"`
	HasUnits        bool           `json:"hasUnits" db:"has_units"`
	Capacity        int            `json:"capacity" db:"capacity"`
	OccupiedCount   int            `json:"occupiedCount" db:"occupied_count"`
	Units           []*Unit        `json:"units,omitempty" db:"-"`
	CreatedAt       time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time      `json:"updatedAt" db:"updated_at"`
}

// SetApprovalStatus keeps the derived Approved flag in step with the status.
func (p *Property) SetApprovalStatus(s ApprovalStatus) {
	p.ApprovalStatus = s
	p.Approved = s == ApprovalApproved
}

// AtCapacity reports whether the occupancy counter has reached capacity.
func (p *Property) AtCapacity() bool {
	return p.Capacity > 0 && p.OccupiedCount >= p.Capacity
}

// OwnerIDs implements the resolver's owned-resource contract.
func (p *Property) OwnerIDs() (uuid.UUID, uuid.UUID) {
	return p.Agent, p.CreatedBy
}

// PropertyPatch carries a partial update. Nil fields are left untouched.
type PropertyPatch struct {
	Title          *string         `json:"title"`
	Description    *string         `json:"description"`
	PropertyType   *string         `json:"propertyType"`
	Address        *Address        `json:"address"`
	Bedrooms       *int            `json:"bedrooms"`
	Bathrooms      *int            `json:"bathrooms"`
	AreaSqFt       *float64        `json:"areaSqFt"`
	Rent           *float64        `json:"rent"`
	Price          *float64        `json:"price"`
	Deposit        *float64        `json:"deposit"`
	Amenities      []string        `json:"amenities"`
	Capacity       *int            `json:"capacity"`
	Agent          *uuid.UUID      `json:"agent"`
	CreatedBy      *uuid.UUID      `json:"createdBy"`
	ApprovalStatus *ApprovalStatus `json:"approvalStatus"`
	Approved       *bool           `json:"approved"`
}

// StripPrivileged drops approval and ownership fields a non-admin may not set.
func (p *PropertyPatch) StripPrivileged() {
	p.Agent = nil
	p.CreatedBy = nil
	p.ApprovalStatus = nil
	p.Approved = nil
}

// PropertyFilter narrows property listings.
type PropertyFilter struct {
	City           string
	PropertyType   string
	Availability   string
	ApprovalStatus string
	MinRent        *float64
	MaxRent        *float64
	Limit          int
	Offset         int
}

// PropertyStats is a rollup of a scope's properties by both axes.
type PropertyStats struct {
	Total          int                    `json:"total"`
	ByApproval     map[ApprovalStatus]int `json:"byApproval"`
	ByAvailability map[Availability]int   `json:"byAvailability"`
}
