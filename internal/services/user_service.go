package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"rentalhub/internal/common"
	"rentalhub/internal/hierarchy"
	"rentalhub/internal/models"
	"rentalhub/internal/repositories"

	"github.com/google/uuid"
)

type CreateUserRequest struct {
	Email       string                      `json:"email"`
	FirstName   string                      `json:"firstName"`
	LastName    string                      `json:"lastName"`
	Phone       *string                     `json:"phone"`
	Role        string                      `json:"role"`
	CreatedBy   *uuid.UUID                  `json:"createdBy"`
	Permissions *models.EmployeePermissions `json:"permissions"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
}

type UserListFilter struct {
	Role   string
	Limit  int
	Offset int
}

type UserService interface {
	Create(ctx context.Context, actor *models.User, req CreateUserRequest) (*models.User, error)
	Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, actor *models.User, filter UserListFilter) ([]*models.User, error)
	UpdateProfile(ctx context.Context, actor *models.User, req UpdateProfileRequest) (*models.User, error)
	UpdatePermissions(ctx context.Context, actor *models.User, id uuid.UUID, perms models.EmployeePermissions) (*models.User, error)
	Delete(ctx context.Context, actor *models.User, id uuid.UUID) error
}

type userService struct {
	store    repositories.Store
	resolver hierarchy.Resolver
	notifier Notifier
	logger   *slog.Logger
}

func NewUserService(store repositories.Store, resolver hierarchy.Resolver, notifier Notifier, logger *slog.Logger) UserService {
	return &userService{store: store, resolver: resolver, notifier: notifier, logger: logger}
}

// provisionable lists which roles each tier may create.
var provisionable = map[models.Role][]models.Role{
	models.RoleAdmin:    {models.RoleAgent, models.RoleLandlord, models.RoleEmployee, models.RoleTenant},
	models.RoleAgent:    {models.RoleEmployee, models.RoleTenant},
	models.RoleLandlord: {models.RoleEmployee, models.RoleTenant},
	models.RoleEmployee: {models.RoleTenant},
}

func mayProvision(actor models.Role, target models.Role) bool {
	for _, r := range provisionable[actor] {
		if r == target {
			return true
		}
	}
	return false
}

func (s *userService) loadUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundError("User")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *userService) Create(ctx context.Context, actor *models.User, req CreateUserRequest) (*models.User, error) {
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, common.NewValidationError("role is invalid")
	}
	if !mayProvision(actor.Role, role) {
		return nil, common.NewAuthorizationError("A %s cannot create %s accounts", actor.Role, role)
	}
	if role == models.RoleTenant {
		if err := requirePermission(actor, canOnboardTenants, "create tenant accounts"); err != nil {
			return nil, err
		}
	}

	email := common.NormalizeEmail(req.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := common.ValidateRequiredString(req.FirstName, "firstName"); err != nil {
		return nil, err
	}

	user := &models.User{
		ID:                 uuid.New(),
		Email:              email,
		FirstName:          strings.TrimSpace(req.FirstName),
		LastName:           strings.TrimSpace(req.LastName),
		Phone:              req.Phone,
		Role:               role,
		CreatedBy:          &actor.ID,
		MustChangePassword: true,
	}

	if role == models.RoleEmployee {
		// an employee always hangs off an agent-tier account
		parent := actor
		if actor.Role == models.RoleAdmin {
			if req.CreatedBy == nil {
				return nil, common.NewValidationError("createdBy must name the agent this employee works for")
			}
			if parent, err = s.loadUser(ctx, *req.CreatedBy); err != nil {
				return nil, err
			}
			if !parent.Role.IsAgentTier() {
				return nil, common.NewValidationError("createdBy must reference an agent or landlord")
			}
		}
		user.CreatedBy = &parent.ID
		user.ParentUser = &parent.ID
		user.Permissions = models.FullEmployeePermissions()
		if req.Permissions != nil {
			user.Permissions = *req.Permissions
		}
	}

	tempPassword := GenerateTemporaryPassword()
	if user.PasswordHash, err = HashPassword(tempPassword); err != nil {
		return nil, fmt.Errorf("hash temporary password: %w", err)
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, common.NewConflictError("A user with this email already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user provisioned",
		slog.String("user_id", user.ID.String()),
		slog.String("role", string(role)),
		slog.String("created_by", actor.ID.String()),
	)
	notifyAfterCommit(ctx, s.notifier, s.logger, &models.Notification{
		Event:       models.EventAccountProvisioned,
		RecipientID: user.ID,
		Recipient:   user.Email,
		Subject:     "Your account has been created",
		Data: map[string]string{
			"role":              string(role),
			"temporaryPassword": tempPassword,
		},
	})
	return user, nil
}

// visible reports whether target falls inside what List would return for actor.
func (s *userService) visible(ctx context.Context, actor, target *models.User) (bool, error) {
	if actor.Role == models.RoleAdmin || actor.ID == target.ID {
		return true, nil
	}
	if target.CreatedBy == nil {
		return false, nil
	}
	if actor.Role == models.RoleEmployee {
		return *target.CreatedBy == actor.ID, nil
	}
	if !actor.Role.IsAgentTier() {
		return false, nil
	}
	scope, err := s.resolver.ResolveVisibleOwners(ctx, actor)
	if err != nil {
		return false, err
	}
	return scope.Contains(*target.CreatedBy), nil
}

func (s *userService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.User, error) {
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.visible(ctx, actor, user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NewAuthorizationError("You are not authorized to view this user")
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, actor *models.User, filter UserListFilter) ([]*models.User, error) {
	limit, offset, err := common.ValidatePaginationParams(filter.Limit, filter.Offset)
	if err != nil {
		return nil, common.NewValidationError("%s", err.Error())
	}
	q := repositories.UserFilter{Limit: limit, Offset: offset}
	if filter.Role != "" {
		if q.Role, err = models.ParseRole(filter.Role); err != nil {
			return nil, common.NewValidationError("role is invalid")
		}
	}

	switch {
	case actor.Role == models.RoleAdmin:
	case actor.Role.IsAgentTier():
		scope, err := s.resolver.ResolveVisibleOwners(ctx, actor)
		if err != nil {
			return nil, err
		}
		q.CreatedBy = scope.Owners()
		q.IDs = []uuid.UUID{actor.ID}
	case actor.Role == models.RoleEmployee:
		q.CreatedBy = []uuid.UUID{actor.ID}
		q.IDs = []uuid.UUID{actor.ID}
	default:
		q.IDs = []uuid.UUID{actor.ID}
	}

	users, err := s.store.Users().List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor *models.User, req UpdateProfileRequest) (*models.User, error) {
	user, err := s.loadUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		if err := common.ValidateRequiredString(*req.FirstName, "firstName"); err != nil {
			return nil, err
		}
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *userService) UpdatePermissions(ctx context.Context, actor *models.User, id uuid.UUID, perms models.EmployeePermissions) (*models.User, error) {
	if !actor.Role.IsAgentTier() && actor.Role != models.RoleAdmin {
		return nil, common.NewAuthorizationError("Only agents can change employee permissions")
	}
	employee, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if employee.Role != models.RoleEmployee {
		return nil, common.NewValidationError("permissions only apply to employee accounts")
	}
	if actor.Role != models.RoleAdmin {
		agentID := employee.AgentID()
		if agentID == nil || *agentID != actor.ID {
			return nil, common.NewAuthorizationError("You can only change permissions of your own employees")
		}
	}

	if err := s.store.Users().UpdatePermissions(ctx, id, perms); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundError("User")
		}
		return nil, fmt.Errorf("update permissions: %w", err)
	}
	employee.Permissions = perms
	s.logger.Info("employee permissions updated", slog.String("user_id", id.String()), slog.String("updated_by", actor.ID.String()))
	return employee, nil
}

func (s *userService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if actor.Role != models.RoleAdmin {
		return common.NewAuthorizationError("Only admins can delete users")
	}
	if actor.ID == id {
		return common.NewValidationError("you cannot delete your own account")
	}
	if _, err := s.loadUser(ctx, id); err != nil {
		return err
	}

	active, err := s.store.Tenants().HasActiveForUser(ctx, id)
	if err != nil {
		return fmt.Errorf("check tenancies: %w", err)
	}
	if active {
		return common.NewConflictError("User has active tenancies")
	}
	created, err := s.store.Users().CountCreated(ctx, id)
	if err != nil {
		return fmt.Errorf("count created users: %w", err)
	}
	if created > 0 {
		return common.NewConflictError("User still owns %d provisioned accounts", created)
	}
	owned, err := s.store.Properties().CountByAgent(ctx, id)
	if err != nil {
		return fmt.Errorf("count properties: %w", err)
	}
	if owned > 0 {
		return common.NewConflictError("User still owns %d properties", owned)
	}

	if err := s.store.Users().Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return common.NewNotFoundError("User")
		case errors.Is(err, repositories.ErrReferenced):
			return common.NewConflictError("User is still referenced by properties or leases")
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info("user deleted", slog.String("user_id", id.String()), slog.String("deleted_by", actor.ID.String()))
	return nil
}

// EnsureAdmin creates the bootstrap admin account unless the email is already registered.
// It reports whether an account was created.
func EnsureAdmin(ctx context.Context, users repositories.UserRepository, email, password, firstName string) (*models.User, bool, error) {
	email = common.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, false, err
	}
	if err := validatePassword(password); err != nil {
		return nil, false, err
	}

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != models.RoleAdmin {
			return nil, false, common.NewConflictError("%s is registered with role %s", email, existing.Role)
		}
		return existing, false, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, false, fmt.Errorf("look up admin: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}
	if firstName == "" {
		firstName = "Admin"
	}
	admin := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		Role:         models.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		return nil, false, fmt.Errorf("create admin: %w", err)
	}
	return admin, true, nil
}
