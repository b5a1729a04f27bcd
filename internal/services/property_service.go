package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
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

const (
	publicCacheTTL   = 5 * time.Minute
	imageURLLifetime = time.Hour
)

type CreatePropertyInput struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	PropertyType string             `json:"propertyType"`
	Address      models.Address     `json:"address"`
	Bedrooms     int                `json:"bedrooms"`
	Bathrooms    int                `json:"bathrooms"`
	AreaSqFt     float64            `json:"areaSqFt"`
	Rent         *float64           `json:"rent"`
	Price        *float64           `json:"price"`
	Deposit      *float64           `json:"deposit"`
	Amenities    []string           `json:"amenities"`
	Capacity     *int               `json:"capacity"`
	Agent        *uuid.UUID         `json:"agent"`
	Units        []models.UnitInput `json:"units"`
}

type OccupyUnitInput struct {
	TenantID   uuid.UUID
	LeaseStart time.Time
	LeaseEnd   time.Time
}

type PropertyService interface {
	Create(ctx context.Context, actor *models.User, in CreatePropertyInput) (*models.Property, error)
	Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Property, error)
	ListPublic(ctx context.Context, filter models.PropertyFilter) ([]*models.Property, error)
	ListPending(ctx context.Context, actor *models.User, filter models.PropertyFilter) ([]*models.Property, error)
	ListMine(ctx context.Context, actor *models.User, filter models.PropertyFilter) ([]*models.Property, error)
	ListCompany(ctx context.Context, actor *models.User, filter models.PropertyFilter) ([]*models.Property, error)
	Stats(ctx context.Context, actor *models.User) (*models.PropertyStats, error)

	Approve(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Property, error)
	Reject(ctx context.Context, actor *models.User, id uuid.UUID, reason string) (*models.Property, error)
	Update(ctx context.Context, actor *models.User, id uuid.UUID, patch models.PropertyPatch) (*models.Property, error)
	Delete(ctx context.Context, actor *models.User, id uuid.UUID) error
	SetAvailability(ctx context.Context, actor *models.User, id uuid.UUID, availability string) (*models.Property, error)
	UploadImage(ctx context.Context, actor *models.User, id uuid.UUID, filename, contentType string, r io.Reader, size int64) (string, error)

	AddUnits(ctx context.Context, actor *models.User, id uuid.UUID, units []models.UnitInput) ([]*models.Unit, error)
	UpdateUnit(ctx context.Context, actor *models.User, id, unitID uuid.UUID, patch models.UnitPatch) (*models.Unit, error)
	DeleteUnit(ctx context.Context, actor *models.User, id, unitID uuid.UUID) error
	OccupyUnit(ctx context.Context, actor *models.User, id, unitID uuid.UUID, in OccupyUnitInput) (*models.Unit, error)
	VacateUnit(ctx context.Context, actor *models.User, id, unitID uuid.UUID) (*models.Unit, error)
}

type propertyService struct {
	store    repositories.Store
	resolver hierarchy.Resolver
	cacheSvc caching.CacheService
	images   ImageStore
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewPropertyService(store repositories.Store, resolver hierarchy.Resolver, cacheSvc caching.CacheService,
	images ImageStore, notifier Notifier, logger *slog.Logger) PropertyService {
	return &propertyService{
		store:    store,
		resolver: resolver,
		cacheSvc: cacheSvc,
		images:   images,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func hasRole(u *models.User, roles ...models.Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func canCreateProperty(p models.EmployeePermissions) bool { return p.CanCreateProperty }
func canEditProperty(p models.EmployeePermissions) bool   { return p.CanEditProperty }
func canManageUnits(p models.EmployeePermissions) bool    { return p.CanManageUnits }

func validatePricing(propertyType models.PropertyType, rent, price *float64) error {
	if propertyType.RequiresSalePrice() {
		if price == nil || *price <= 0 {
			return common.NewValidationError("Sale price is required for land properties")
		}
		return nil
	}
	if rent == nil || *rent <= 0 {
		return common.NewValidationError("Monthly rent is required")
	}
	return nil
}

func validateUnitInputs(units []models.UnitInput) error {
	seen := make(map[string]bool, len(units))
	for _, u := range units {
		number := strings.TrimSpace(u.UnitNumber)
		if number == "" {
			return common.NewValidationError("unitNumber is required for every unit")
		}
		if seen[number] {
			return common.NewValidationError("unit number %s is duplicated", number)
		}
		seen[number] = true
		if u.Rent < 0 {
			return common.NewValidationError("unit rent cannot be negative")
		}
	}
	return nil
}

func (s *propertyService) load(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	p, err := s.store.Properties().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundError("Property")
		}
		return nil, fmt.Errorf("load property: %w", err)
	}
	return p, nil
}

func (s *propertyService) authorize(ctx context.Context, actor *models.User, p *models.Property) error {
	ok, err := s.resolver.AuthorizeAction(ctx, actor, p)
	if err != nil {
		return err
	}
	if !ok {
		return common.NewAuthorizationError("You are not authorized to manage this property")
	}
	return nil
}

func requirePermission(actor *models.User, check func(models.EmployeePermissions) bool, action string) error {
	if !actor.Can(check) {
		return common.NewAuthorizationError("Your account is not permitted to %s", action)
	}
	return nil
}

// loadForWrite is the common gate of every mutation: existence, hierarchy, employee capability.
func (s *propertyService) loadForWrite(ctx context.Context, actor *models.User, id uuid.UUID,
	check func(models.EmployeePermissions) bool, action string) (*models.Property, error) {
	if hasRole(actor, models.RoleTenant, models.RoleSeeker) {
		return nil, common.NewAuthorizationError("Your role cannot %s", action)
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, p); err != nil {
		return nil, err
	}
	if err := requirePermission(actor, check, action); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *propertyService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cacheSvc.InvalidateProperty(ctx, id); err != nil {
		s.logger.Warn("failed to invalidate property cache", slog.String("property_id", id.String()), slog.String("error", err.Error()))
	}
}

// resolveAgent applies agent = data.agent ?? actor. Employees default to the agent that created them.
func (s *propertyService) resolveAgent(ctx context.Context, actor *models.User, requested *uuid.UUID) (uuid.UUID, error) {
	if requested == nil {
		if id := actor.AgentID(); id != nil {
			return *id, nil
		}
		return actor.ID, nil
	}

	if actor.Role == models.RoleAdmin {
		agent, err := s.store.Users().GetByID(ctx, *requested)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return uuid.Nil, common.NewValidationError("agent %s does not exist", requested)
			}
			return uuid.Nil, err
		}
		if !agent.Role.IsAgentTier() && agent.Role != models.RoleAdmin {
			return uuid.Nil, common.NewValidationError("agent must be an agent or landlord account")
		}
		return agent.ID, nil
	}

	if *requested == actor.ID {
		return actor.ID, nil
	}
	if own := actor.AgentID(); own != nil && *own == *requested {
		return *requested, nil
	}
	return uuid.Nil, common.NewAuthorizationError("You cannot list properties on behalf of another agent")
}

func (s *propertyService) Create(ctx context.Context, actor *models.User, in CreatePropertyInput) (*models.Property, error) {
	if !hasRole(actor, models.RoleAgent, models.RoleLandlord, models.RoleEmployee, models.RoleAdmin) {
		return nil, common.NewAuthorizationError("Only agents, employees and admins can create properties")
	}
	if err := requirePermission(actor, canCreateProperty, "create properties"); err != nil {
		return nil, err
	}

	if err := common.ValidateRequiredString(in.Title, "title"); err != nil {
		return nil, err
	}
	propertyType, err := models.ParsePropertyType(in.PropertyType)
	if err != nil {
		return nil, common.NewValidationError("propertyType is invalid")
	}
	if err := validatePricing(propertyType, in.Rent, in.Price); err != nil {
		return nil, err
	}
	if err := validateUnitInputs(in.Units); err != nil {
		return nil, err
	}
	capacity := 1
	if in.Capacity != nil {
		if *in.Capacity < 1 {
			return nil, common.NewValidationError("capacity must be at least 1")
		}
		capacity = *in.Capacity
	}

	agentID, err := s.resolveAgent(ctx, actor, in.Agent)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &models.Property{
		ID:            uuid.New(),
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		PropertyType:  propertyType,
		Address:       in.Address,
		Bedrooms:      in.Bedrooms,
		Bathrooms:     in.Bathrooms,
		AreaSqFt:      in.AreaSqFt,
		Rent:          in.Rent,
		Price:         in.Price,
		Deposit:       in.Deposit,
		Amenities:     in.Amenities,
		Images:        []string{},
		Agent:         agentID,
		CreatedBy:     actor.ID,
		CreatedByRole: actor.Role,
		Availability:  models.AvailabilityAvailable,
		HasUnits:      len(in.Units) > 0,
		Capacity:      capacity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if p.Amenities == nil {
		p.Amenities = []string{}
	}
	if p.HasUnits {
		p.Capacity = len(in.Units)
	}

	if actor.Role == models.RoleEmployee {
		p.SetApprovalStatus(models.ApprovalPending)
	} else {
		p.SetApprovalStatus(models.ApprovalApproved)
		p.ApprovedBy = &actor.ID
		p.ApprovedAt = &now
	}

	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		if err := tx.Properties().Create(ctx, p); err != nil {
			return fmt.Errorf("create property: %w", err)
		}
		for _, in := range in.Units {
			unit := newUnit(p.ID, in)
			if err := tx.Units().Create(ctx, unit); err != nil {
				return fmt.Errorf("create unit: %w", err)
			}
			p.Units = append(p.Units, unit)
		}
		if p.HasUnits {
			return tx.Properties().SyncUnitOccupancy(ctx, p.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, p.ID)
	s.logger.Info("property created",
		slog.String("property_id", p.ID.String()),
		slog.String("created_by", actor.ID.String()),
		slog.String("approval_status", string(p.ApprovalStatus)),
	)
	return p, nil
}

func newUnit(propertyID uuid.UUID, in models.UnitInput) *models.Unit {
	return &models.Unit{
		ID:           uuid.New(),
		PropertyID:   propertyID,
		UnitNumber:   strings.TrimSpace(in.UnitNumber),
		Floor:        in.Floor,
		Bedrooms:     in.Bedrooms,
		Bathrooms:    in.Bathrooms,
		AreaSqFt:     in.AreaSqFt,
		Rent:         in.Rent,
		Availability: models.UnitAvailable,
	}
}

// decorate attaches units and swaps image object keys for presigned URLs.
func (s *propertyService) decorate(ctx context.Context, properties ...*models.Property) error {
	if len(properties) == 0 {
		return nil
	}
	var withUnits []uuid.UUID
	for _, p := range properties {
		if p.HasUnits {
			withUnits = append(withUnits, p.ID)
		}
	}
	if len(withUnits) > 0 {
		units, err := s.store.Units().ListByProperties(ctx, withUnits)
		if err != nil {
			return fmt.Errorf("load units: %w", err)
		}
		for _, p := range properties {
			p.Units = units[p.ID]
		}
	}

	if s.images == nil {
		return nil
	}
	for _, p := range properties {
		for i, key := range p.Images {
			url, err := s.images.PresignedURL(ctx, key, imageURLLifetime)
			if err != nil {
				s.logger.Warn("failed to presign image", slog.String("key", key), slog.String("error", err.Error()))
				continue
			}
			p.Images[i] = url
		}
	}
	return nil
}

func (s *propertyService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Property, error) {
	if cached, err := s.cacheSvc.GetProperty(ctx, id); err == nil && cached != nil {
		return cached, nil
	}

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Approved {
		if actor == nil {
			return nil, common.NewNotFoundError("Property")
		}
		if err := s.authorize(ctx, actor, p); err != nil {
			return nil, err
		}
	}
	if err := s.decorate(ctx, p); err != nil {
		return nil, err
	}

	if p.Approved {
		if err := s.cacheSvc.SetProperty(ctx, p, publicCacheTTL); err != nil {
			s.logger.Warn("failed to cache property", slog.String("error", err.Error()))
		}
	}
	return p, nil
}

func normalizeFilter(filter models.PropertyFilter) (models.PropertyFilter, error) {
	limit, offset, err := common.ValidatePaginationParams(filter.Limit, filter.Offset)
	if err != nil {
		return filter, common.NewValidationError("%s", err.Error())
	}
	filter.Limit, filter.Offset = limit, offset
	if filter.Availability != "" {
		if _, err := models.ParseAvailability(filter.Availability); err != nil {
			return filter, common.NewValidationError("availability is invalid")
		}
	}
	if filter.PropertyType != "" {
		if _, err := models.ParsePropertyType(filter.PropertyType); err != nil {
			return filter, common.NewValidationError("propertyType is invalid")
		}
	}
	return filter, nil
}

func (s *propertyService) list(ctx context.Context, filter models.PropertyFilter, owners []uuid.UUID) ([]*models.Property, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	properties, err := s.store.Properties().List(ctx, repositories.PropertyQuery{PropertyFilter: filter, Owners: owners})
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	if err := s.decorate(ctx, properties...); err != nil {
		return nil, err
	}
	if properties == nil {
		properties = []*models.Property{}
	}
	return properties, nil
}

func (s *propertyService) ListPublic(ctx context.Context, filter models.PropertyFilter) ([]*models.Property, error) {
	filter.ApprovalStatus = string(models.ApprovalApproved)
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	if cached, err := s.cacheSvc.GetPropertyList(ctx, filter); err == nil && cached != nil {
		return cached, nil
	}

	properties, err := s.list(ctx, filter, nil)
	if err != nil {
		return nil, err
	}
	if err := s.cacheSvc.SetPropertyList(ctx, filter, properties, publicCacheTTL); err != nil {
		s.logger.Warn("failed to cache property listing", slog.String("error", err.Error()))
	}
	return properties, nil
}

func (s *propertyService) ListPending(ctx context.Context, actor *models.User, filter models.PropertyFilter) ([]*models.Property, error) {
	if !hasRole(actor, models.RoleAgent, models.RoleLandlord, models.RoleAdmin) {
		return nil, common.NewAuthorizationError("Only agents and admins can review pending properties")
	}
	scope, err := s.resolver.ResolveVisibleOwners(ctx, actor)
	if err != nil {
		return nil, err
	}
	filter.ApprovalStatus = string(models.ApprovalPending)
	return s.list(ctx, filter, scope.Owners())
}

func (s *propertyService) ListMine(ctx context.Context, actor *models.User, filter models.PropertyFilter) ([]*models.Property, error) {
	return s.list(ctx, filter, []uuid.UUID{actor.ID})
}

func (s *propertyService) ListCompany(ctx context.Context, actor *models.User, filter models.PropertyFilter) ([]*models.Property, error) {
	if !hasRole(actor, models.RoleAgent, models.RoleLandlord, models.RoleEmployee, models.RoleAdmin) {
		return nil, common.NewAuthorizationError("Company listings are limited to agents, employees and admins")
	}
	scope, err := s.resolver.CompanyScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, filter, scope.Owners())
}

func (s *propertyService) Stats(ctx context.Context, actor *models.User) (*models.PropertyStats, error) {
	scope, err := s.resolver.ResolveVisibleOwners(ctx, actor)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.Properties().Stats(ctx, scope.Owners())
	if err != nil {
		return nil, fmt.Errorf("property stats: %w", err)
	}
	return stats, nil
}

func (s *propertyService) Approve(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Property, error) {
	if !hasRole(actor, models.RoleAgent, models.RoleLandlord, models.RoleAdmin) {
		return nil, common.NewAuthorizationError("Only agents and admins can approve properties")
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, p); err != nil {
		return nil, err
	}
	if err := approvalConflict(p.ApprovalStatus, "approved"); err != nil {
		metrics.ObserveApproval("conflict")
		return nil, err
	}

	now := s.now().UTC()
	ok, err := s.store.Properties().Approve(ctx, id, actor.ID, now)
	if err != nil {
		return nil, fmt.Errorf("approve property: %w", err)
	}
	if !ok {
		// lost a race with another reviewer
		metrics.ObserveApproval("conflict")
		current, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, approvalConflict(current.ApprovalStatus, "approved")
	}

	p.SetApprovalStatus(models.ApprovalApproved)
	p.ApprovedBy = &actor.ID
	p.ApprovedAt = &now
	p.RejectionReason = nil

	metrics.ObserveApproval("approved")
	s.invalidate(ctx, id)
	s.logger.Info("property approved", slog.String("property_id", id.String()), slog.String("approved_by", actor.ID.String()))
	notifyAfterCommit(ctx, s.notifier, s.logger, &models.Notification{
		Event:       models.EventPropertyApproved,
		RecipientID: p.CreatedBy,
		Subject:     "Your property listing was approved",
		Data:        map[string]string{"propertyId": id.String(), "title": p.Title},
	})
	return p, nil
}

// approvalConflict explains why a property in status cannot move; nil means it is pending.
func approvalConflict(status models.ApprovalStatus, target string) error {
	switch status {
	case models.ApprovalPending:
		return nil
	case models.ApprovalApproved:
		return common.NewConflictError("Property is already approved")
	case models.ApprovalRejected:
		if target == "rejected" {
			return common.NewConflictError("Property is already rejected")
		}
		return common.NewConflictError("Rejected properties must be resubmitted before they can be %s", target)
	}
	return fmt.Errorf("unknown approval status %q", status)
}

func (s *propertyService) Reject(ctx context.Context, actor *models.User, id uuid.UUID, reason string) (*models.Property, error) {
	if !hasRole(actor, models.RoleAgent, models.RoleLandlord, models.RoleAdmin) {
		return nil, common.NewAuthorizationError("Only agents and admins can reject properties")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, common.NewValidationError("Rejection reason is required")
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, p); err != nil {
		return nil, err
	}
	if err := approvalConflict(p.ApprovalStatus, "rejected"); err != nil {
		metrics.ObserveApproval("conflict")
		return nil, err
	}

	ok, err := s.store.Properties().Reject(ctx, id, reason)
	if err != nil {
		return nil, fmt.Errorf("reject property: %w", err)
	}
	if !ok {
		metrics.ObserveApproval("conflict")
		current, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, approvalConflict(current.ApprovalStatus, "rejected")
	}

	p.SetApprovalStatus(models.ApprovalRejected)
	p.ApprovedBy = nil
	p.ApprovedAt = nil
	p.RejectionReason = &reason

	metrics.ObserveApproval("rejected")
	s.invalidate(ctx, id)
	notifyAfterCommit(ctx, s.notifier, s.logger, &models.Notification{
		Event:       models.EventPropertyRejected,
		RecipientID: p.CreatedBy,
		Subject:     "Your property listing was rejected",
		Data:        map[string]string{"propertyId": id.String(), "title": p.Title, "reason": reason},
	})
	return p, nil
}

func (s *propertyService) Update(ctx context.Context, actor *models.User, id uuid.UUID, patch models.PropertyPatch) (*models.Property, error) {
	p, err := s.loadForWrite(ctx, actor, id, canEditProperty, "edit properties")
	if err != nil {
		return nil, err
	}
	expected := p.ApprovalStatus
	isAdmin := actor.Role == models.RoleAdmin
	if !isAdmin {
		patch.StripPrivileged()
	}

	if patch.Title != nil {
		if err := common.ValidateRequiredString(*patch.Title, "title"); err != nil {
			return nil, err
		}
		p.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.PropertyType != nil {
		t, err := models.ParsePropertyType(*patch.PropertyType)
		if err != nil {
			return nil, common.NewValidationError("propertyType is invalid")
		}
		p.PropertyType = t
	}
	if patch.Address != nil {
		p.Address = *patch.Address
	}
	if patch.Bedrooms != nil {
		p.Bedrooms = *patch.Bedrooms
	}
	if patch.Bathrooms != nil {
		p.Bathrooms = *patch.Bathrooms
	}
	if patch.AreaSqFt != nil {
		p.AreaSqFt = *patch.AreaSqFt
	}
	if patch.Rent != nil {
		p.Rent = patch.Rent
	}
	if patch.Price != nil {
		p.Price = patch.Price
	}
	if patch.Deposit != nil {
		p.Deposit = patch.Deposit
	}
	if patch.Amenities != nil {
		p.Amenities = patch.Amenities
	}
	if patch.Capacity != nil {
		if p.HasUnits {
			return nil, common.NewValidationError("capacity of a multi-unit property follows its units")
		}
		if *patch.Capacity < 1 {
			return nil, common.NewValidationError("capacity must be at least 1")
		}
		p.Capacity = *patch.Capacity
	}
	if err := validatePricing(p.PropertyType, p.Rent, p.Price); err != nil {
		return nil, err
	}

	if isAdmin {
		if patch.Agent != nil {
			agentID, err := s.resolveAgent(ctx, actor, patch.Agent)
			if err != nil {
				return nil, err
			}
			p.Agent = agentID
		}
		if patch.CreatedBy != nil {
			p.CreatedBy = *patch.CreatedBy
		}
		status := patch.ApprovalStatus
		if status == nil && patch.Approved != nil {
			derived := models.ApprovalPending
			if *patch.Approved {
				derived = models.ApprovalApproved
			}
			status = &derived
		}
		if status != nil && *status != p.ApprovalStatus {
			if !status.Valid() {
				return nil, common.NewValidationError("approvalStatus is invalid")
			}
			s.forceApprovalStatus(p, *status, actor.ID)
		}
	}

	// edits by employees go back through review
	if actor.Role == models.RoleEmployee && p.ApprovalStatus != models.ApprovalPending {
		s.forceApprovalStatus(p, models.ApprovalPending, actor.ID)
	}

	ok, err := s.store.Properties().Update(ctx, p, expected)
	if err != nil {
		return nil, fmt.Errorf("update property: %w", err)
	}
	if !ok {
		current, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.ApprovalStatus != expected {
			return nil, common.NewConflictError("Property was reviewed while you were editing it, reload and retry")
		}
		return nil, common.NewConflictError("Capacity cannot be lower than the current occupancy")
	}

	s.invalidate(ctx, id)
	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *propertyService) forceApprovalStatus(p *models.Property, status models.ApprovalStatus, actorID uuid.UUID) {
	p.SetApprovalStatus(status)
	switch status {
	case models.ApprovalApproved:
		now := s.now().UTC()
		p.ApprovedBy = &actorID
		p.ApprovedAt = &now
		p.RejectionReason = nil
	case models.ApprovalPending:
		p.ApprovedBy = nil
		p.ApprovedAt = nil
		p.RejectionReason = nil
	case models.ApprovalRejected:
		p.ApprovedBy = nil
		p.ApprovedAt = nil
	}
}

func (s *propertyService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	p, err := s.loadForWrite(ctx, actor, id, canEditProperty, "delete properties")
	if err != nil {
		return err
	}
	if p.Availability == models.AvailabilityOccupied || p.OccupiedCount > 0 {
		return common.NewConflictError("Cannot delete an occupied property")
	}

	ok, err := s.store.Properties().DeleteIfVacant(ctx, id)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	if !ok {
		return common.NewConflictError("Cannot delete a property with active tenants")
	}

	if s.images != nil {
		for _, key := range p.Images {
			if err := s.images.Delete(ctx, key); err != nil {
				s.logger.Warn("failed to delete property image", slog.String("key", key), slog.String("error", err.Error()))
			}
		}
	}
	s.invalidate(ctx, id)
	s.logger.Info("property deleted", slog.String("property_id", id.String()), slog.String("deleted_by", actor.ID.String()))
	return nil
}

func (s *propertyService) SetAvailability(ctx context.Context, actor *models.User, id uuid.UUID, availability string) (*models.Property, error) {
	target, err := models.ParseAvailability(availability)
	if err != nil {
		return nil, common.NewValidationError("availability is invalid")
	}
	if target == models.AvailabilityOccupied {
		return nil, common.NewValidationError("occupied is set by tenant onboarding, not manually")
	}
	p, err := s.loadForWrite(ctx, actor, id, canEditProperty, "change property availability")
	if err != nil {
		return nil, err
	}

	ok, err := s.store.Properties().SetAvailability(ctx, id, target)
	if err != nil {
		return nil, fmt.Errorf("set availability: %w", err)
	}
	if !ok {
		return nil, common.NewConflictError("Property availability cannot change while it has occupants")
	}
	p.Availability = target
	s.invalidate(ctx, id)
	return p, nil
}

func (s *propertyService) UploadImage(ctx context.Context, actor *models.User, id uuid.UUID, filename, contentType string, r io.Reader, size int64) (string, error) {
	if s.images == nil {
		return "", fmt.Errorf("image storage is not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", common.NewValidationError("only image uploads are accepted")
	}
	if _, err := s.loadForWrite(ctx, actor, id, canEditProperty, "edit properties"); err != nil {
		return "", err
	}

	key := fmt.Sprintf("properties/%s/%s%s", id, uuid.NewString(), strings.ToLower(path.Ext(filename)))
	if err := s.images.Upload(ctx, key, r, size, contentType); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	if err := s.store.Properties().AddImage(ctx, id, key); err != nil {
		return "", fmt.Errorf("attach image: %w", err)
	}
	s.invalidate(ctx, id)

	return s.images.PresignedURL(ctx, key, imageURLLifetime)
}

func (s *propertyService) AddUnits(ctx context.Context, actor *models.User, id uuid.UUID, inputs []models.UnitInput) ([]*models.Unit, error) {
	if len(inputs) == 0 {
		return nil, common.NewValidationError("at least one unit is required")
	}
	if err := validateUnitInputs(inputs); err != nil {
		return nil, err
	}
	p, err := s.loadForWrite(ctx, actor, id, canManageUnits, "manage units")
	if err != nil {
		return nil, err
	}
	if !p.HasUnits && p.OccupiedCount > 0 {
		return nil, common.NewConflictError("Cannot split an occupied property into units")
	}

	var created []*models.Unit
	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		for _, in := range inputs {
			unit := newUnit(id, in)
			if err := tx.Units().Create(ctx, unit); err != nil {
				if errors.Is(err, repositories.ErrDuplicate) {
					return common.NewConflictError("Unit number %s already exists", unit.UnitNumber)
				}
				return fmt.Errorf("create unit: %w", err)
			}
			created = append(created, unit)
		}
		return tx.Properties().SyncUnitOccupancy(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return created, nil
}

func (s *propertyService) loadUnit(ctx context.Context, store repositories.Store, propertyID, unitID uuid.UUID) (*models.Unit, error) {
	unit, err := store.Units().GetByID(ctx, propertyID, unitID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundError("Unit")
		}
		return nil, fmt.Errorf("load unit: %w", err)
	}
	return unit, nil
}

func (s *propertyService) UpdateUnit(ctx context.Context, actor *models.User, id, unitID uuid.UUID, patch models.UnitPatch) (*models.Unit, error) {
	var maintenance *bool
	if patch.Availability != nil {
		target, err := models.ParseUnitAvailability(*patch.Availability)
		if err != nil {
			return nil, common.NewValidationError("availability is invalid")
		}
		if target == models.UnitOccupied {
			return nil, common.NewValidationError("Use the occupy operation to assign a tenant")
		}
		on := target == models.UnitMaintenance
		maintenance = &on
	}
	if _, err := s.loadForWrite(ctx, actor, id, canManageUnits, "manage units"); err != nil {
		return nil, err
	}

	var unit *models.Unit
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		var err error
		unit, err = s.loadUnit(ctx, tx, id, unitID)
		if err != nil {
			return err
		}
		if patch.UnitNumber != nil {
			if err := common.ValidateRequiredString(*patch.UnitNumber, "unitNumber"); err != nil {
				return err
			}
			unit.UnitNumber = strings.TrimSpace(*patch.UnitNumber)
		}
		if patch.Floor != nil {
			unit.Floor = *patch.Floor
		}
		if patch.Bedrooms != nil {
			unit.Bedrooms = *patch.Bedrooms
		}
		if patch.Bathrooms != nil {
			unit.Bathrooms = *patch.Bathrooms
		}
		if patch.AreaSqFt != nil {
			unit.AreaSqFt = *patch.AreaSqFt
		}
		if patch.Rent != nil {
			if *patch.Rent < 0 {
				return common.NewValidationError("unit rent cannot be negative")
			}
			unit.Rent = *patch.Rent
		}
		if err := tx.Units().UpdateDetails(ctx, unit); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return common.NewConflictError("Unit number %s already exists", unit.UnitNumber)
			}
			return fmt.Errorf("update unit: %w", err)
		}

		if maintenance != nil {
			ok, err := tx.Units().SetMaintenance(ctx, id, unitID, *maintenance)
			if err != nil {
				return fmt.Errorf("set unit availability: %w", err)
			}
			if !ok {
				return common.NewConflictError("Unit is occupied")
			}
			unit.Availability = models.UnitAvailable
			if *maintenance {
				unit.Availability = models.UnitMaintenance
			}
			return tx.Properties().SyncUnitOccupancy(ctx, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return unit, nil
}

func (s *propertyService) DeleteUnit(ctx context.Context, actor *models.User, id, unitID uuid.UUID) error {
	if _, err := s.loadForWrite(ctx, actor, id, canManageUnits, "manage units"); err != nil {
		return err
	}

	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		ok, err := tx.Units().DeleteIfVacant(ctx, id, unitID)
		if err != nil {
			return fmt.Errorf("delete unit: %w", err)
		}
		if !ok {
			if _, err := s.loadUnit(ctx, tx, id, unitID); err != nil {
				return err
			}
			return common.NewConflictError("Cannot delete an occupied unit")
		}
		return tx.Properties().SyncUnitOccupancy(ctx, id)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *propertyService) OccupyUnit(ctx context.Context, actor *models.User, id, unitID uuid.UUID, in OccupyUnitInput) (*models.Unit, error) {
	if in.TenantID == uuid.Nil {
		return nil, common.NewValidationError("tenantId is required")
	}
	if err := common.ValidateDateRange(in.LeaseStart, in.LeaseEnd); err != nil {
		return nil, err
	}
	if _, err := s.loadForWrite(ctx, actor, id, canManageUnits, "manage units"); err != nil {
		return nil, err
	}

	var unit *models.Unit
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		tenant, err := tx.Users().GetByID(ctx, in.TenantID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return common.NewNotFoundError("Tenant user")
			}
			return err
		}
		if tenant.Role != models.RoleTenant {
			return common.NewValidationError("tenantId must reference a tenant account")
		}
		if err := occupyUnit(ctx, tx, id, unitID, in.TenantID, in.LeaseStart, in.LeaseEnd); err != nil {
			return err
		}
		unit, err = s.loadUnit(ctx, tx, id, unitID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return unit, nil
}

func (s *propertyService) VacateUnit(ctx context.Context, actor *models.User, id, unitID uuid.UUID) (*models.Unit, error) {
	if _, err := s.loadForWrite(ctx, actor, id, canManageUnits, "manage units"); err != nil {
		return nil, err
	}

	var unit *models.Unit
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		tenancy, err := tx.Tenants().GetActiveByUnit(ctx, id, unitID)
		switch {
		case err == nil:
			// closing the holder's tenancy also frees the unit
			err = closeTenancy(ctx, tx, tenancy, models.TenantTerminated)
		case errors.Is(err, repositories.ErrNotFound):
			err = vacateUnit(ctx, tx, id, unitID)
		default:
			err = fmt.Errorf("load unit tenancy: %w", err)
		}
		if err != nil {
			return err
		}
		unit, err = s.loadUnit(ctx, tx, id, unitID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return unit, nil
}

// occupyUnit is the single writer of unit occupancy: a conditional transition from available,
// followed by a recount of the owning property. It must run inside a transaction.
func occupyUnit(ctx context.Context, tx repositories.Store, propertyID, unitID, tenantUserID uuid.UUID, start, end time.Time) error {
	ok, err := tx.Units().Occupy(ctx, propertyID, unitID, tenantUserID, start, end)
	if err != nil {
		return fmt.Errorf("occupy unit: %w", err)
	}
	if !ok {
		if _, err := tx.Units().GetByID(ctx, propertyID, unitID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return common.NewNotFoundError("Unit")
			}
			return err
		}
		return common.NewConflictError("Unit is not available")
	}
	if err := tx.Properties().SyncUnitOccupancy(ctx, propertyID); err != nil {
		return fmt.Errorf("sync property occupancy: %w", err)
	}
	metrics.ObserveOccupancy("unit_occupied")
	return nil
}

// vacateUnit resets any unit that is not already available and empty. Vacating such a unit
// succeeds without changes.
func vacateUnit(ctx context.Context, tx repositories.Store, propertyID, unitID uuid.UUID) error {
	ok, err := tx.Units().Vacate(ctx, propertyID, unitID)
	if err != nil {
		return fmt.Errorf("vacate unit: %w", err)
	}
	if !ok {
		if _, err := tx.Units().GetByID(ctx, propertyID, unitID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return common.NewNotFoundError("Unit")
			}
			return err
		}
		return nil
	}
	if err := tx.Properties().SyncUnitOccupancy(ctx, propertyID); err != nil {
		return fmt.Errorf("sync property occupancy: %w", err)
	}
	metrics.ObserveOccupancy("unit_vacated")
	return nil
}
