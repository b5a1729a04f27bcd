package services

import (
	"context"
	"io"
	"time"

	"rentalhub/internal/models"
	"rentalhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	PasswordCost = bcrypt.MinCost
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, mustChange bool) error {
	args := m.Called(ctx, id, hash, mustChange)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePermissions(ctx context.Context, id uuid.UUID, perms models.EmployeePermissions) error {
	args := m.Called(ctx, id, perms)
	return args.Error(0)
}

func (m *MockUserRepository) PromoteSeeker(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, filter repositories.UserFilter) ([]*models.User, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) ListEmployeeIDs(ctx context.Context, agentID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockUserRepository) CountCreated(ctx context.Context, creatorID uuid.UUID) (int, error) {
	args := m.Called(ctx, creatorID)
	return args.Int(0), args.Error(1)
}

type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) Create(ctx context.Context, property *models.Property) error {
	args := m.Called(ctx, property)
	return args.Error(0)
}

func (m *MockPropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyRepository) Update(ctx context.Context, property *models.Property, expected models.ApprovalStatus) (bool, error) {
	args := m.Called(ctx, property, expected)
	return args.Bool(0), args.Error(1)
}

func (m *MockPropertyRepository) List(ctx context.Context, q repositories.PropertyQuery) ([]*models.Property, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Property), args.Error(1)
}

func (m *MockPropertyRepository) Stats(ctx context.Context, owners []uuid.UUID) (*models.PropertyStats, error) {
	args := m.Called(ctx, owners)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PropertyStats), args.Error(1)
}

func (m *MockPropertyRepository) CountByAgent(ctx context.Context, agentID uuid.UUID) (int, error) {
	args := m.Called(ctx, agentID)
	return args.Int(0), args.Error(1)
}

func (m *MockPropertyRepository) CountByOwners(ctx context.Context, owners []uuid.UUID) (int, error) {
	args := m.Called(ctx, owners)
	return args.Int(0), args.Error(1)
}

func (m *MockPropertyRepository) Approve(ctx context.Context, id, approverID uuid.UUID, at time.Time) (bool, error) {
	args := m.Called(ctx, id, approverID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockPropertyRepository) Reject(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	args := m.Called(ctx, id, reason)
	return args.Bool(0), args.Error(1)
}

func (m *MockPropertyRepository) SetAvailability(ctx context.Context, id uuid.UUID, availability models.Availability) (bool, error) {
	args := m.Called(ctx, id, availability)
	return args.Bool(0), args.Error(1)
}

func (m *MockPropertyRepository) IncrementOccupancy(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPropertyRepository) ReleaseOccupancy(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPropertyRepository) SyncUnitOccupancy(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPropertyRepository) AddImage(ctx context.Context, id uuid.UUID, objectKey string) error {
	args := m.Called(ctx, id, objectKey)
	return args.Error(0)
}

func (m *MockPropertyRepository) DeleteIfVacant(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockUnitRepository struct {
	mock.Mock
}

func (m *MockUnitRepository) Create(ctx context.Context, unit *models.Unit) error {
	args := m.Called(ctx, unit)
	return args.Error(0)
}

func (m *MockUnitRepository) GetByID(ctx context.Context, propertyID, unitID uuid.UUID) (*models.Unit, error) {
	args := m.Called(ctx, propertyID, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Unit), args.Error(1)
}

func (m *MockUnitRepository) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*models.Unit, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Unit), args.Error(1)
}

func (m *MockUnitRepository) ListByProperties(ctx context.Context, propertyIDs []uuid.UUID) (map[uuid.UUID][]*models.Unit, error) {
	args := m.Called(ctx, propertyIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID][]*models.Unit), args.Error(1)
}

func (m *MockUnitRepository) UpdateDetails(ctx context.Context, unit *models.Unit) error {
	args := m.Called(ctx, unit)
	return args.Error(0)
}

func (m *MockUnitRepository) SetMaintenance(ctx context.Context, propertyID, unitID uuid.UUID, on bool) (bool, error) {
	args := m.Called(ctx, propertyID, unitID, on)
	return args.Bool(0), args.Error(1)
}

func (m *MockUnitRepository) Occupy(ctx context.Context, propertyID, unitID, tenantUserID uuid.UUID, start, end time.Time) (bool, error) {
	args := m.Called(ctx, propertyID, unitID, tenantUserID, start, end)
	return args.Bool(0), args.Error(1)
}

func (m *MockUnitRepository) Vacate(ctx context.Context, propertyID, unitID uuid.UUID) (bool, error) {
	args := m.Called(ctx, propertyID, unitID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUnitRepository) DeleteIfVacant(ctx context.Context, propertyID, unitID uuid.UUID) (bool, error) {
	args := m.Called(ctx, propertyID, unitID)
	return args.Bool(0), args.Error(1)
}

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetByLeaseID(ctx context.Context, leaseID uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, leaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetActiveByUnit(ctx context.Context, propertyID, unitID uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, propertyID, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetDetails(ctx context.Context, id uuid.UUID) (*models.TenantDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TenantDetails), args.Error(1)
}

func (m *MockTenantRepository) List(ctx context.Context, q repositories.TenantQuery) ([]*models.TenantDetails, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TenantDetails), args.Error(1)
}

func (m *MockTenantRepository) HasActive(ctx context.Context, userID, propertyID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, propertyID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTenantRepository) HasActiveForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTenantRepository) Close(ctx context.Context, id uuid.UUID, status models.TenantStatus) (bool, error) {
	args := m.Called(ctx, id, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockTenantRepository) CountActiveByOwners(ctx context.Context, owners []uuid.UUID) (int, error) {
	args := m.Called(ctx, owners)
	return args.Int(0), args.Error(1)
}

type MockLeaseRepository struct {
	mock.Mock
}

func (m *MockLeaseRepository) Create(ctx context.Context, lease *models.Lease) error {
	args := m.Called(ctx, lease)
	return args.Error(0)
}

func (m *MockLeaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Lease, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lease), args.Error(1)
}

func (m *MockLeaseRepository) Close(ctx context.Context, id uuid.UUID, status models.TenantStatus) (bool, error) {
	args := m.Called(ctx, id, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeaseRepository) ListExpired(ctx context.Context, asOf time.Time, limit int) ([]*models.Lease, error) {
	args := m.Called(ctx, asOf, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Lease), args.Error(1)
}

func (m *MockLeaseRepository) ListEndingBetween(ctx context.Context, from, to time.Time) ([]*models.Lease, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Lease), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) TotalsByAgent(ctx context.Context, from, to time.Time) (map[uuid.UUID]models.PaymentTotals, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]models.PaymentTotals), args.Error(1)
}

// fakeStore runs WithTx inline over the same mocks and records whether the last tx failed.
type fakeStore struct {
	users      *MockUserRepository
	properties *MockPropertyRepository
	units      *MockUnitRepository
	tenants    *MockTenantRepository
	leases     *MockLeaseRepository
	payments   *MockPaymentRepository

	txCount    int
	rolledBack bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      new(MockUserRepository),
		properties: new(MockPropertyRepository),
		units:      new(MockUnitRepository),
		tenants:    new(MockTenantRepository),
		leases:     new(MockLeaseRepository),
		payments:   new(MockPaymentRepository),
	}
}

func (s *fakeStore) Users() repositories.UserRepository           { return s.users }
func (s *fakeStore) Properties() repositories.PropertyRepository { return s.properties }
func (s *fakeStore) Units() repositories.UnitRepository           { return s.units }
func (s *fakeStore) Tenants() repositories.TenantRepository       { return s.tenants }
func (s *fakeStore) Leases() repositories.LeaseRepository         { return s.leases }
func (s *fakeStore) Payments() repositories.PaymentRepository     { return s.payments }

func (s *fakeStore) WithTx(ctx context.Context, fn func(repositories.Store) error) error {
	s.txCount++
	err := fn(s)
	s.rolledBack = err != nil
	return err
}

func (s *fakeStore) assertExpectations(t mock.TestingT) {
	s.users.AssertExpectations(t)
	s.properties.AssertExpectations(t)
	s.units.AssertExpectations(t)
	s.tenants.AssertExpectations(t)
	s.leases.AssertExpectations(t)
	s.payments.AssertExpectations(t)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetProperty(ctx context.Context, propertyID uuid.UUID) (*models.Property, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockCacheService) SetProperty(ctx context.Context, property *models.Property, ttl time.Duration) error {
	args := m.Called(ctx, property, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetPropertyList(ctx context.Context, filter models.PropertyFilter) ([]*models.Property, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Property), args.Error(1)
}

func (m *MockCacheService) SetPropertyList(ctx context.Context, filter models.PropertyFilter, properties []*models.Property, ttl time.Duration) error {
	args := m.Called(ctx, filter, properties, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateProperty(ctx context.Context, propertyID uuid.UUID) error {
	args := m.Called(ctx, propertyID)
	return args.Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) ResetRateLimit(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, notification *models.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, objectName, reader, size, contentType)
	return args.Error(0)
}

func (m *MockImageStore) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Delete(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

func (m *MockImageStore) EnsureBucket(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
