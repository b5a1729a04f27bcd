package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAgent    Role = "agent"
	RoleLandlord Role = "landlord"
	RoleEmployee Role = "employee"
	RoleTenant   Role = "tenant"
	RoleSeeker   Role = "seeker"
)

// ParseRole converts a raw string into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleLandlord, RoleEmployee, RoleTenant, RoleSeeker:
		return true
	}
	return false
}

// IsAgentTier reports whether the role owns properties and employees.
func (r Role) IsAgentTier() bool {
	return r == RoleAgent || r == RoleLandlord
}

// EmployeePermissions are capability flags only meaningful for employees.
type EmployeePermissions struct {
	CanCreateProperty bool `json:"canCreateProperty"`
	CanEditProperty   bool `json:"canEditProperty"`
	CanManageUnits    bool `json:"canManageUnits"`
	CanOnboardTenants bool `json:"canOnboardTenants"`
}

// FullEmployeePermissions is what agents grant new employees by default.
func FullEmployeePermissions() EmployeePermissions {
	return EmployeePermissions{
		CanCreateProperty: true,
		CanEditProperty:   true,
		CanManageUnits:    true,
		CanOnboardTenants: true,
	}
}

type User struct {
	ID                 uuid.UUID           `json:"id" db:"id"`
	Email              string              `json:"email" db:"email"`
	PasswordHash       string              `json:"-" db:"password_hash"`
	FirstName          string              `json:"firstName" db:"first_name"`
	LastName           string              `json:"lastName" db:"last_name"`
	Phone              *string             `json:"phone,omitempty" db:"phone"`
	Role               Role                `json:"role" db:"role"`
	CreatedBy          *uuid.UUID          `json:"createdBy,omitempty" db:"created_by"`
	ParentUser         *uuid.UUID          `json:"parentUser,omitempty" db:"parent_user"`
	Permissions        EmployeePermissions `json:"permissions" db:"permissions"`
	MustChangePassword bool                `json:"mustChangePassword" db:"must_change_password"`
	CreatedAt          time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time           `json:"updatedAt" db:"updated_at"`
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// AgentID returns the accountable agent for this account: itself for the agent tier,
// the provisioning agent for employees, nil otherwise.
func (u *User) AgentID() *uuid.UUID {
	switch {
	case u.Role.IsAgentTier():
		id := u.ID
		return &id
	case u.Role == RoleEmployee:
		if u.ParentUser != nil {
			return u.ParentUser
		}
		return u.CreatedBy
	}
	return nil
}

// Can reports whether an employee holds the given capability. Non-employees always pass;
// role gates are enforced separately.
func (u *User) Can(check func(EmployeePermissions) bool) bool {
	if u.Role != RoleEmployee {
		return true
	}
	return check(u.Permissions)
}
