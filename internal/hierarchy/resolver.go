// Package hierarchy translates the createdBy/parentUser back-references between users into
// the owner scopes every read and write is filtered by.
package hierarchy

import (
	"context"
	"errors"
	"fmt"

	"rentalhub/internal/models"

	"github.com/google/uuid"
)

var ErrMalformedActor = errors.New("malformed actor record")

// EmployeeLister is the slice of the identity store the resolver reads.
type EmployeeLister interface {
	ListEmployeeIDs(ctx context.Context, agentID uuid.UUID) ([]uuid.UUID, error)
}

// Owned is anything stamped with an accountable agent and a creator.
type Owned interface {
	OwnerIDs() (agent uuid.UUID, createdBy uuid.UUID)
}

// Scope is either unrestricted or the owner ids an actor may see.
type Scope struct {
	Unrestricted bool
	ActorID      uuid.UUID
	OwnedIDs     []uuid.UUID
	EmployeeIDs  []uuid.UUID
}

// Owners flattens the scope into a filter list. Nil means unrestricted.
func (s Scope) Owners() []uuid.UUID {
	if s.Unrestricted {
		return nil
	}
	owners := make([]uuid.UUID, 0, len(s.OwnedIDs)+len(s.EmployeeIDs))
	owners = append(owners, s.OwnedIDs...)
	return append(owners, s.EmployeeIDs...)
}

func (s Scope) Contains(id uuid.UUID) bool {
	if s.Unrestricted {
		return true
	}
	for _, owned := range s.OwnedIDs {
		if owned == id {
			return true
		}
	}
	for _, emp := range s.EmployeeIDs {
		if emp == id {
			return true
		}
	}
	return false
}

type Resolver interface {
	ResolveEmployeeIDs(ctx context.Context, agentID uuid.UUID) ([]uuid.UUID, error)
	ResolveVisibleOwners(ctx context.Context, actor *models.User) (Scope, error)
	AuthorizeAction(ctx context.Context, actor *models.User, resource Owned) (bool, error)
	CompanyScope(ctx context.Context, actor *models.User) (Scope, error)
}

// resolver queries the identity store on every call; membership changes as employees come and go.
type resolver struct {
	users EmployeeLister
}

func NewResolver(users EmployeeLister) Resolver {
	return &resolver{users: users}
}

func validateActor(actor *models.User) error {
	if actor == nil {
		return fmt.Errorf("%w: nil actor", ErrMalformedActor)
	}
	if actor.ID == uuid.Nil {
		return fmt.Errorf("%w: missing id", ErrMalformedActor)
	}
	if !actor.Role.Valid() {
		return fmt.Errorf("%w: role %q", ErrMalformedActor, actor.Role)
	}
	return nil
}

func (r *resolver) ResolveEmployeeIDs(ctx context.Context, agentID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := r.users.ListEmployeeIDs(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("resolve employees of %s: %w", agentID, err)
	}
	return ids, nil
}

func (r *resolver) ResolveVisibleOwners(ctx context.Context, actor *models.User) (Scope, error) {
	if err := validateActor(actor); err != nil {
		return Scope{}, err
	}

	switch actor.Role {
	case models.RoleAdmin:
		return Scope{Unrestricted: true, ActorID: actor.ID}, nil
	case models.RoleAgent, models.RoleLandlord:
		employees, err := r.ResolveEmployeeIDs(ctx, actor.ID)
		if err != nil {
			return Scope{}, err
		}
		return Scope{ActorID: actor.ID, OwnedIDs: []uuid.UUID{actor.ID}, EmployeeIDs: employees}, nil
	case models.RoleEmployee, models.RoleTenant, models.RoleSeeker:
		return Scope{ActorID: actor.ID, OwnedIDs: []uuid.UUID{actor.ID}}, nil
	}
	return Scope{}, fmt.Errorf("%w: role %q", ErrMalformedActor, actor.Role)
}

func (r *resolver) AuthorizeAction(ctx context.Context, actor *models.User, resource Owned) (bool, error) {
	scope, err := r.ResolveVisibleOwners(ctx, actor)
	if err != nil {
		return false, err
	}
	if scope.Unrestricted {
		return true, nil
	}
	agentID, createdBy := resource.OwnerIDs()
	return scope.Contains(agentID) || scope.Contains(createdBy), nil
}

// CompanyScope widens an employee to its agent's scope. Everyone else gets ResolveVisibleOwners.
func (r *resolver) CompanyScope(ctx context.Context, actor *models.User) (Scope, error) {
	if err := validateActor(actor); err != nil {
		return Scope{}, err
	}
	if actor.Role != models.RoleEmployee {
		return r.ResolveVisibleOwners(ctx, actor)
	}

	agentID := actor.AgentID()
	if agentID == nil {
		return Scope{ActorID: actor.ID, OwnedIDs: []uuid.UUID{actor.ID}}, nil
	}
	employees, err := r.ResolveEmployeeIDs(ctx, *agentID)
	if err != nil {
		return Scope{}, err
	}
	return Scope{ActorID: actor.ID, OwnedIDs: []uuid.UUID{*agentID}, EmployeeIDs: employees}, nil
}
