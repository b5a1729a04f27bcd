package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rentalhub/internal/caching"
	"rentalhub/internal/common"
	"rentalhub/internal/hierarchy"
	"rentalhub/internal/models"
	"rentalhub/internal/observability/metrics"
	"rentalhub/internal/repositories"

	"github.com/google/uuid"
)

const expiryBatchSize = 500

// NewTenantUser is the userData branch of onboarding.
type NewTenantUser struct {
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Phone     *string `json:"phone"`
}

type OnboardTenantRequest struct {
	UserID         *uuid.UUID
	UserData       *NewTenantUser
	PropertyID     uuid.UUID
	UnitID         *uuid.UUID
	LeaseStartDate time.Time
	LeaseEndDate   time.Time
	RentAmount     float64
	DepositAmount  float64
	PaymentDueDay  int
}

type TenantListFilter struct {
	Status     string
	PropertyID *uuid.UUID
	Limit      int
	Offset     int
}

type TenantService interface {
	Create(ctx context.Context, actor *models.User, req OnboardTenantRequest) (*models.TenantDetails, error)
	List(ctx context.Context, actor *models.User, filter TenantListFilter) ([]*models.TenantDetails, error)
	Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.TenantDetails, error)
	Terminate(ctx context.Context, actor *models.User, id uuid.UUID) error

	ExpireLeases(ctx context.Context, asOf time.Time) (int, error)
	RemindEndingLeases(ctx context.Context, now time.Time, within time.Duration) (int, error)
}

type tenantService struct {
	store    repositories.Store
	resolver hierarchy.Resolver
	cacheSvc caching.CacheService
	notifier Notifier
	logger   *slog.Logger
}

func NewTenantService(store repositories.Store, resolver hierarchy.Resolver, cacheSvc caching.CacheService,
	notifier Notifier, logger *slog.Logger) TenantService {
	return &tenantService{
		store:    store,
		resolver: resolver,
		cacheSvc: cacheSvc,
		notifier: notifier,
		logger:   logger,
	}
}

func canOnboardTenants(p models.EmployeePermissions) bool { return p.CanOnboardTenants }

func (s *tenantService) validateRequest(req *OnboardTenantRequest) error {
	if (req.UserID == nil) == (req.UserData == nil) {
		return common.NewValidationError("exactly one of userId or userData is required")
	}
	if req.UserData != nil {
		req.UserData.Email = common.NormalizeEmail(req.UserData.Email)
		if err := validateEmail(req.UserData.Email); err != nil {
			return err
		}
		if err := common.ValidateRequiredString(req.UserData.FirstName, "firstName"); err != nil {
			return err
		}
	}
	if req.PropertyID == uuid.Nil {
		return common.NewValidationError("property is required")
	}
	if req.LeaseStartDate.IsZero() || req.LeaseEndDate.IsZero() {
		return common.NewValidationError("leaseStartDate and leaseEndDate are required")
	}
	if err := common.ValidateDateRange(req.LeaseStartDate, req.LeaseEndDate); err != nil {
		return err
	}
	if req.RentAmount < 0 || req.DepositAmount < 0 {
		return common.NewValidationError("rent and deposit amounts cannot be negative")
	}
	if req.PaymentDueDay == 0 {
		req.PaymentDueDay = 1
	}
	if req.PaymentDueDay < 1 || req.PaymentDueDay > 28 {
		return common.NewValidationError("paymentDueDay must be between 1 and 28")
	}
	return nil
}

func (s *tenantService) Create(ctx context.Context, actor *models.User, req OnboardTenantRequest) (*models.TenantDetails, error) {
	details, err := s.onboard(ctx, actor, req)
	switch {
	case err == nil:
		metrics.ObserveOnboarding("success")
	case common.IsConflict(err):
		metrics.ObserveOnboarding("conflict")
	default:
		metrics.ObserveOnboarding("failed")
	}
	return details, err
}

func (s *tenantService) onboard(ctx context.Context, actor *models.User, req OnboardTenantRequest) (*models.TenantDetails, error) {
	if !hasRole(actor, models.RoleAgent, models.RoleLandlord, models.RoleEmployee, models.RoleAdmin) {
		return nil, common.NewAuthorizationError("Only agents, employees and admins can onboard tenants")
	}
	if err := requirePermission(actor, canOnboardTenants, "onboard tenants"); err != nil {
		return nil, err
	}
	if err := s.validateRequest(&req); err != nil {
		return nil, err
	}

	property, err := s.store.Properties().GetByID(ctx, req.PropertyID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundError("Property")
		}
		return nil, fmt.Errorf("load property: %w", err)
	}
	ok, err := s.resolver.AuthorizeAction(ctx, actor, property)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NewAuthorizationError("You are not authorized to onboard tenants for this property")
	}

	if property.Availability != models.AvailabilityAvailable || (!property.HasUnits && property.AtCapacity()) {
		return nil, common.NewConflictError("Property is not available")
	}
	if !property.Approved {
		return nil, common.NewConflictError("Property must be approved before tenants can be onboarded")
	}
	if property.HasUnits && req.UnitID == nil {
		return nil, common.NewValidationError("unitId is required for multi-unit properties")
	}
	if !property.HasUnits && req.UnitID != nil {
		return nil, common.NewValidationError("property has no units")
	}
	if req.RentAmount == 0 && property.Rent != nil {
		req.RentAmount = *property.Rent
	}
	if req.DepositAmount == 0 && property.Deposit != nil {
		req.DepositAmount = *property.Deposit
	}

	// bcrypt runs outside the transaction
	var tempPassword, tempHash string
	if req.UserData != nil {
		tempPassword = GenerateTemporaryPassword()
		if tempHash, err = HashPassword(tempPassword); err != nil {
			return nil, fmt.Errorf("hash temporary password: %w", err)
		}
	}

	details := &models.TenantDetails{PropertyTitle: property.Title}
	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		user, err := s.resolveTenantUser(ctx, tx, actor, req, tempHash)
		if err != nil {
			return err
		}

		active, err := tx.Tenants().HasActive(ctx, user.ID, property.ID)
		if err != nil {
			return fmt.Errorf("check active tenancy: %w", err)
		}
		if active {
			return common.NewConflictError("User already has an active tenancy for this property")
		}

		lease := &models.Lease{
			ID:            uuid.New(),
			PropertyID:    property.ID,
			UnitID:        req.UnitID,
			TenantUserID:  user.ID,
			StartDate:     req.LeaseStartDate,
			EndDate:       req.LeaseEndDate,
			RentAmount:    req.RentAmount,
			DepositAmount: req.DepositAmount,
			PaymentDueDay: req.PaymentDueDay,
			Status:        models.TenantActive,
			Agent:         property.Agent,
			CreatedBy:     actor.ID,
		}
		if err := tx.Leases().Create(ctx, lease); err != nil {
			return fmt.Errorf("create lease: %w", err)
		}

		tenant := models.Tenant{
			ID:         uuid.New(),
			UserID:     user.ID,
			PropertyID: property.ID,
			UnitID:     req.UnitID,
			LeaseID:    lease.ID,
			Status:     models.TenantActive,
			Agent:      property.Agent,
			CreatedBy:  actor.ID,
		}
		if err := tx.Tenants().Create(ctx, &tenant); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return common.NewConflictError("User already has an active tenancy for this property")
			}
			return fmt.Errorf("create tenant: %w", err)
		}

		if req.UnitID != nil {
			if err := occupyUnit(ctx, tx, property.ID, *req.UnitID, user.ID, req.LeaseStartDate, req.LeaseEndDate); err != nil {
				return err
			}
		} else {
			ok, err := tx.Properties().IncrementOccupancy(ctx, property.ID)
			if err != nil {
				return fmt.Errorf("increment occupancy: %w", err)
			}
			if !ok {
				return common.NewConflictError("Property is not available")
			}
			metrics.ObserveOccupancy("property_occupied")
		}

		details.Tenant = tenant
		details.User = user
		details.Lease = lease
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.cacheSvc.InvalidateProperty(ctx, property.ID); err != nil {
		s.logger.Warn("failed to invalidate property cache", slog.String("property_id", property.ID.String()), slog.String("error", err.Error()))
	}
	s.logger.Info("tenant onboarded",
		slog.String("tenant_id", details.ID.String()),
		slog.String("property_id", property.ID.String()),
		slog.String("onboarded_by", actor.ID.String()),
		slog.Bool("new_user", tempPassword != ""),
	)

	data := map[string]string{
		"propertyId": property.ID.String(),
		"title":      property.Title,
		"leaseStart": req.LeaseStartDate.Format("2006-01-02"),
		"leaseEnd":   req.LeaseEndDate.Format("2006-01-02"),
	}
	if tempPassword != "" {
		data["temporaryPassword"] = tempPassword
	}
	notifyAfterCommit(ctx, s.notifier, s.logger, &models.Notification{
		Event:       models.EventTenantOnboarded,
		RecipientID: details.User.ID,
		Recipient:   details.User.Email,
		Subject:     "Welcome to your new home",
		Data:        data,
	})
	return details, nil
}

// resolveTenantUser links an existing seeker or tenant, or creates a fresh tenant account.
func (s *tenantService) resolveTenantUser(ctx context.Context, tx repositories.Store, actor *models.User,
	req OnboardTenantRequest, passwordHash string) (*models.User, error) {
	if req.UserID != nil {
		user, err := tx.Users().GetByID(ctx, *req.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, common.NewNotFoundError("User")
			}
			return nil, fmt.Errorf("load user: %w", err)
		}
		switch user.Role {
		case models.RoleTenant:
		case models.RoleSeeker:
			if _, err := tx.Users().PromoteSeeker(ctx, user.ID); err != nil {
				return nil, fmt.Errorf("promote seeker: %w", err)
			}
			user.Role = models.RoleTenant
			s.logger.Info("seeker promoted to tenant", slog.String("user_id", user.ID.String()))
		default:
			return nil, common.NewValidationError("Only seekers or tenants can be onboarded as tenants")
		}
		return user, nil
	}

	exists, err := tx.Users().EmailExists(ctx, req.UserData.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, common.NewConflictError("A user with this email already exists")
	}
	user := &models.User{
		ID:                 uuid.New(),
		Email:              req.UserData.Email,
		PasswordHash:       passwordHash,
		FirstName:          strings.TrimSpace(req.UserData.FirstName),
		LastName:           strings.TrimSpace(req.UserData.LastName),
		Phone:              req.UserData.Phone,
		Role:               models.RoleTenant,
		CreatedBy:          &actor.ID,
		MustChangePassword: true,
	}
	if err := tx.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, common.NewConflictError("A user with this email already exists")
		}
		return nil, fmt.Errorf("create tenant user: %w", err)
	}
	return user, nil
}

func (s *tenantService) List(ctx context.Context, actor *models.User, filter TenantListFilter) ([]*models.TenantDetails, error) {
	if !hasRole(actor, models.RoleAgent, models.RoleLandlord, models.RoleEmployee, models.RoleAdmin) {
		return nil, common.NewAuthorizationError("Only agents, employees and admins can list tenants")
	}
	limit, offset, err := common.ValidatePaginationParams(filter.Limit, filter.Offset)
	if err != nil {
		return nil, common.NewValidationError("%s", err.Error())
	}
	status := models.TenantStatus(filter.Status)
	if status != "" && !status.Valid() {
		return nil, common.NewValidationError("status is invalid")
	}

	scope, err := s.resolver.ResolveVisibleOwners(ctx, actor)
	if err != nil {
		return nil, err
	}
	tenants, err := s.store.Tenants().List(ctx, repositories.TenantQuery{
		Owners:     scope.Owners(),
		Status:     status,
		PropertyID: filter.PropertyID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	if tenants == nil {
		tenants = []*models.TenantDetails{}
	}
	return tenants, nil
}

func (s *tenantService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.TenantDetails, error) {
	details, err := s.store.Tenants().GetDetails(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundError("Tenant")
		}
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	if details.UserID == actor.ID {
		return details, nil
	}
	ok, err := s.resolver.AuthorizeAction(ctx, actor, &details.Tenant)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NewAuthorizationError("You are not authorized to view this tenant")
	}
	return details, nil
}

func (s *tenantService) Terminate(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if !hasRole(actor, models.RoleAgent, models.RoleLandlord, models.RoleAdmin) {
		return common.NewAuthorizationError("Only agents and admins can remove tenants")
	}
	tenant, err := s.store.Tenants().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.NewNotFoundError("Tenant")
		}
		return fmt.Errorf("load tenant: %w", err)
	}
	ok, err := s.resolver.AuthorizeAction(ctx, actor, tenant)
	if err != nil {
		return err
	}
	if !ok {
		return common.NewAuthorizationError("You are not authorized to remove this tenant")
	}
	if tenant.Status.Closed() {
		return common.NewConflictError("Tenancy is already %s", tenant.Status)
	}

	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		return closeTenancy(ctx, tx, tenant, models.TenantTerminated)
	})
	if err != nil {
		return err
	}

	if err := s.cacheSvc.InvalidateProperty(ctx, tenant.PropertyID); err != nil {
		s.logger.Warn("failed to invalidate property cache", slog.String("error", err.Error()))
	}
	s.logger.Info("tenancy terminated", slog.String("tenant_id", id.String()), slog.String("terminated_by", actor.ID.String()))
	return nil
}

// closeTenancy moves tenant and lease to status and frees whatever the tenancy occupied.
func closeTenancy(ctx context.Context, tx repositories.Store, tenant *models.Tenant, status models.TenantStatus) error {
	ok, err := tx.Tenants().Close(ctx, tenant.ID, status)
	if err != nil {
		return fmt.Errorf("close tenant: %w", err)
	}
	if !ok {
		return common.NewConflictError("Tenancy is no longer active")
	}
	if _, err := tx.Leases().Close(ctx, tenant.LeaseID, status); err != nil {
		return fmt.Errorf("close lease: %w", err)
	}

	if tenant.UnitID != nil {
		unit, err := tx.Units().GetByID(ctx, tenant.PropertyID, *tenant.UnitID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("load unit: %w", err)
		}
		// the unit may have been re-let by hand since
		if unit.Tenant == nil || *unit.Tenant != tenant.UserID {
			return nil
		}
		return vacateUnit(ctx, tx, tenant.PropertyID, *tenant.UnitID)
	}

	released, err := tx.Properties().ReleaseOccupancy(ctx, tenant.PropertyID)
	if err != nil {
		return fmt.Errorf("release occupancy: %w", err)
	}
	if released {
		metrics.ObserveOccupancy("property_released")
	}
	return nil
}

func (s *tenantService) ExpireLeases(ctx context.Context, asOf time.Time) (int, error) {
	leases, err := s.store.Leases().ListExpired(ctx, asOf, expiryBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list expired leases: %w", err)
	}

	var (
		expired int
		errs    []error
	)
	for _, lease := range leases {
		var tenant *models.Tenant
		err := s.store.WithTx(ctx, func(tx repositories.Store) error {
			t, err := tx.Tenants().GetByLeaseID(ctx, lease.ID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					_, err = tx.Leases().Close(ctx, lease.ID, models.TenantExpired)
				}
				return err
			}
			if t.Status != models.TenantActive {
				_, err = tx.Leases().Close(ctx, lease.ID, models.TenantExpired)
				return err
			}
			tenant = t
			return closeTenancy(ctx, tx, t, models.TenantExpired)
		})
		if err != nil {
			if common.IsConflict(err) {
				continue
			}
			s.logger.Error("failed to expire lease", slog.String("lease_id", lease.ID.String()), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("lease %s: %w", lease.ID, err))
			continue
		}
		expired++

		if err := s.cacheSvc.InvalidateProperty(ctx, lease.PropertyID); err != nil {
			s.logger.Warn("failed to invalidate property cache", slog.String("error", err.Error()))
		}
		if tenant != nil {
			notifyAfterCommit(ctx, s.notifier, s.logger, &models.Notification{
				Event:       models.EventLeaseExpired,
				RecipientID: tenant.UserID,
				Subject:     "Your lease has ended",
				Data:        map[string]string{"leaseId": lease.ID.String(), "propertyId": lease.PropertyID.String()},
			})
		}
	}
	return expired, errors.Join(errs...)
}

func reminderKey(leaseID uuid.UUID) string {
	return "lease_reminder:" + leaseID.String()
}

func (s *tenantService) RemindEndingLeases(ctx context.Context, now time.Time, within time.Duration) (int, error) {
	leases, err := s.store.Leases().ListEndingBetween(ctx, now, now.Add(within))
	if err != nil {
		return 0, fmt.Errorf("list ending leases: %w", err)
	}

	sent := 0
	for _, lease := range leases {
		// one reminder per lease for as long as it can still be pending
		fresh, err := s.cacheSvc.SetIfAbsent(ctx, reminderKey(lease.ID), now.Format(time.RFC3339), within+24*time.Hour)
		if err != nil {
			s.logger.Warn("reminder de-duplication unavailable", slog.String("lease_id", lease.ID.String()), slog.String("error", err.Error()))
			continue
		}
		if !fresh {
			continue
		}
		notifyAfterCommit(ctx, s.notifier, s.logger, &models.Notification{
			Event:       models.EventLeaseEnding,
			RecipientID: lease.TenantUserID,
			Subject:     "Your lease is ending soon",
			Data: map[string]string{
				"leaseId":    lease.ID.String(),
				"propertyId": lease.PropertyID.String(),
				"endDate":    lease.EndDate.Format("2006-01-02"),
			},
		})
		sent++
	}
	return sent, nil
}
