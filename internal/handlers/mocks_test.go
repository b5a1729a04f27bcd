package handlers

import (
	"context"
	"io"
	"time"

	"rentalhub/internal/jobs/background"
	"rentalhub/internal/models"
	"rentalhub/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req services.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenResponse), args.Error(1)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenResponse), args.Error(1)
}

func (m *MockAuthService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	return m.Called(ctx, userID, current, next).Error(0)
}

func (m *MockAuthService) GenerateTokens(ctx context.Context, user *models.User) (*models.TokenResponse, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenResponse), args.Error(1)
}

func (m *MockAuthService) ValidateToken(ctx context.Context, token string) (*services.TokenClaims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenClaims), args.Error(1)
}

func (m *MockAuthService) Keyfunc(token *jwt.Token) (interface{}, error) {
	args := m.Called(token)
	return args.Get(0), args.Error(1)
}

func (m *MockAuthService) LoadActor(ctx context.Context, claims *services.TokenClaims) (*models.User, error) {
	args := m.Called(ctx, claims)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Create(ctx context.Context, actor *models.User, req services.CreateUserRequest) (*models.User, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context, actor *models.User, filter services.UserListFilter) ([]*models.User, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, actor *models.User, req services.UpdateProfileRequest) (*models.User, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdatePermissions(ctx context.Context, actor *models.User, id uuid.UUID, perms models.EmployeePermissions) (*models.User, error) {
	args := m.Called(ctx, actor, id, perms)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) property(args mock.Arguments) (*models.Property, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) properties(args mock.Arguments) ([]*models.Property, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Property), args.Error(1)
}

func (m *MockPropertyService) unit(args mock.Arguments) (*models.Unit, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Unit), args.Error(1)
}

func (m *MockPropertyService) Create(ctx context.Context, actor *models.User, in services.CreatePropertyInput) (*models.Property, error) {
	return m.property(m.Called(ctx, actor, in))
}

func (m *MockPropertyService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Property, error) {
	return m.property(m.Called(ctx, actor, id))
}

func (m *MockPropertyService) ListPublic(ctx context.Context, filter models.PropertyFilter) ([]*models.Property, error) {
	return m.properties(m.Called(ctx, filter))
}

func (m *MockPropertyService) ListPending(ctx context.Context, actor *models.User, filter models.PropertyFilter) ([]*models.Property, error) {
	return m.properties(m.Called(ctx, actor, filter))
}

func (m *MockPropertyService) ListMine(ctx context.Context, actor *models.User, filter models.PropertyFilter) ([]*models.Property, error) {
	return m.properties(m.Called(ctx, actor, filter))
}

func (m *MockPropertyService) ListCompany(ctx context.Context, actor *models.User, filter models.PropertyFilter) ([]*models.Property, error) {
	return m.properties(m.Called(ctx, actor, filter))
}

func (m *MockPropertyService) Stats(ctx context.Context, actor *models.User) (*models.PropertyStats, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PropertyStats), args.Error(1)
}

func (m *MockPropertyService) Approve(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Property, error) {
	return m.property(m.Called(ctx, actor, id))
}

func (m *MockPropertyService) Reject(ctx context.Context, actor *models.User, id uuid.UUID, reason string) (*models.Property, error) {
	return m.property(m.Called(ctx, actor, id, reason))
}

func (m *MockPropertyService) Update(ctx context.Context, actor *models.User, id uuid.UUID, patch models.PropertyPatch) (*models.Property, error) {
	return m.property(m.Called(ctx, actor, id, patch))
}

func (m *MockPropertyService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockPropertyService) SetAvailability(ctx context.Context, actor *models.User, id uuid.UUID, availability string) (*models.Property, error) {
	return m.property(m.Called(ctx, actor, id, availability))
}

func (m *MockPropertyService) UploadImage(ctx context.Context, actor *models.User, id uuid.UUID, filename, contentType string, r io.Reader, size int64) (string, error) {
	args := m.Called(ctx, actor, id, filename, contentType, r, size)
	return args.String(0), args.Error(1)
}

func (m *MockPropertyService) AddUnits(ctx context.Context, actor *models.User, id uuid.UUID, units []models.UnitInput) ([]*models.Unit, error) {
	args := m.Called(ctx, actor, id, units)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Unit), args.Error(1)
}

func (m *MockPropertyService) UpdateUnit(ctx context.Context, actor *models.User, id, unitID uuid.UUID, patch models.UnitPatch) (*models.Unit, error) {
	return m.unit(m.Called(ctx, actor, id, unitID, patch))
}

func (m *MockPropertyService) DeleteUnit(ctx context.Context, actor *models.User, id, unitID uuid.UUID) error {
	return m.Called(ctx, actor, id, unitID).Error(0)
}

func (m *MockPropertyService) OccupyUnit(ctx context.Context, actor *models.User, id, unitID uuid.UUID, in services.OccupyUnitInput) (*models.Unit, error) {
	return m.unit(m.Called(ctx, actor, id, unitID, in))
}

func (m *MockPropertyService) VacateUnit(ctx context.Context, actor *models.User, id, unitID uuid.UUID) (*models.Unit, error) {
	return m.unit(m.Called(ctx, actor, id, unitID))
}

type MockTenantService struct {
	mock.Mock
}

func (m *MockTenantService) Create(ctx context.Context, actor *models.User, req services.OnboardTenantRequest) (*models.TenantDetails, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TenantDetails), args.Error(1)
}

func (m *MockTenantService) List(ctx context.Context, actor *models.User, filter services.TenantListFilter) ([]*models.TenantDetails, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TenantDetails), args.Error(1)
}

func (m *MockTenantService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.TenantDetails, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TenantDetails), args.Error(1)
}

func (m *MockTenantService) Terminate(ctx context.Context, actor *models.User, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockTenantService) ExpireLeases(ctx context.Context, asOf time.Time) (int, error) {
	args := m.Called(ctx, asOf)
	return args.Int(0), args.Error(1)
}

func (m *MockTenantService) RemindEndingLeases(ctx context.Context, now time.Time, within time.Duration) (int, error) {
	args := m.Called(ctx, now, within)
	return args.Int(0), args.Error(1)
}

type MockHierarchyReporter struct {
	mock.Mock
}

func (m *MockHierarchyReporter) ListAgents(ctx context.Context, actor *models.User) ([]*models.AgentSummary, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AgentSummary), args.Error(1)
}

func (m *MockHierarchyReporter) AgentHierarchy(ctx context.Context, actor *models.User, agentID uuid.UUID) (*models.AgentHierarchy, error) {
	args := m.Called(ctx, actor, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AgentHierarchy), args.Error(1)
}

func (m *MockHierarchyReporter) Billing(ctx context.Context, actor *models.User, from, to time.Time) (*models.BillingReport, error) {
	args := m.Called(ctx, actor, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BillingReport), args.Error(1)
}

type MockJobRunner struct {
	mock.Mock
}

func (m *MockJobRunner) RunNow(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *MockJobRunner) GetJobStatus() []background.JobStatus {
	return m.Called().Get(0).([]background.JobStatus)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error { return p.err }
