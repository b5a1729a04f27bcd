package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"rentalhub/internal/common"
	"rentalhub/internal/hierarchy"
	"rentalhub/internal/models"
	"rentalhub/internal/repositories"
	"rentalhub/testhelpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type TenantServiceTestSuite struct {
	suite.Suite
	store    *fakeStore
	cache    *MockCacheService
	notifier *MockNotifier
	service  TenantService
	ctx      context.Context

	admin    *models.User
	agent    *models.User
	agent2   *models.User
	employee *models.User
	seeker   *models.User
}

func (suite *TenantServiceTestSuite) SetupTest() {
	suite.store = newFakeStore()
	suite.cache = new(MockCacheService)
	suite.notifier = new(MockNotifier)
	suite.ctx = context.Background()
	suite.service = NewTenantService(suite.store, hierarchy.NewResolver(suite.store.users), suite.cache,
		suite.notifier, testhelpers.DiscardLogger())

	suite.admin = testhelpers.Admin()
	suite.agent = testhelpers.Agent()
	suite.agent2 = testhelpers.Agent()
	suite.employee = testhelpers.Employee(suite.agent)
	suite.seeker = testhelpers.Seeker()
}

func (suite *TenantServiceTestSuite) TearDownTest() {
	suite.store.assertExpectations(suite.T())
	suite.cache.AssertExpectations(suite.T())
	suite.notifier.AssertExpectations(suite.T())
}

func TestTenantServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TenantServiceTestSuite))
}

func (suite *TenantServiceTestSuite) expectAgentScope(agent *models.User, employees ...uuid.UUID) {
	if employees == nil {
		employees = []uuid.UUID{}
	}
	suite.store.users.On("ListEmployeeIDs", suite.ctx, agent.ID).Return(employees, nil)
}

func (suite *TenantServiceTestSuite) approvedProperty() *models.Property {
	p := testhelpers.Property(suite.agent, suite.agent, models.ApprovalApproved)
	suite.store.properties.On("GetByID", suite.ctx, p.ID).Return(p, nil)
	return p
}

func (suite *TenantServiceTestSuite) request(propertyID uuid.UUID) OnboardTenantRequest {
	return OnboardTenantRequest{
		PropertyID:     propertyID,
		LeaseStartDate: testhelpers.Date(2025, time.April, 1),
		LeaseEndDate:   testhelpers.Date(2026, time.March, 31),
	}
}

// expectPlacement mocks the happy path inside the onboarding transaction for an existing user.
func (suite *TenantServiceTestSuite) expectPlacement(user *models.User, p *models.Property) {
	suite.store.tenants.On("HasActive", suite.ctx, user.ID, p.ID).Return(false, nil).Once()
	suite.store.leases.On("Create", suite.ctx, mock.AnythingOfType("*models.Lease")).Return(nil).Once()
	suite.store.tenants.On("Create", suite.ctx, mock.AnythingOfType("*models.Tenant")).Return(nil).Once()
	suite.store.properties.On("IncrementOccupancy", suite.ctx, p.ID).Return(true, nil).Once()
	suite.cache.On("InvalidateProperty", suite.ctx, p.ID).Return(nil).Once()
	suite.notifier.On("Notify", suite.ctx, mock.MatchedBy(func(n *models.Notification) bool {
		return n.Event == models.EventTenantOnboarded && n.RecipientID == user.ID
	})).Return(nil).Once()
}

func (suite *TenantServiceTestSuite) TestCreate_OccupiedPropertyRejected() {
	p := suite.approvedProperty()
	p.OccupiedCount = 1
	p.Availability = models.AvailabilityOccupied
	suite.expectAgentScope(suite.agent)

	req := suite.request(p.ID)
	req.UserID = &suite.seeker.ID
	details, err := suite.service.Create(suite.ctx, suite.agent, req)

	assert.Nil(suite.T(), details)
	assert.True(suite.T(), common.IsConflict(err))
	assert.Equal(suite.T(), "Property is not available", err.Error())
	assert.Equal(suite.T(), 0, suite.store.txCount)
}

func (suite *TenantServiceTestSuite) TestCreate_PromotesSeekerOnce() {
	first := suite.approvedProperty()
	second := suite.approvedProperty()
	suite.expectAgentScope(suite.agent)
	suite.store.users.On("GetByID", suite.ctx, suite.seeker.ID).Return(suite.seeker, nil)
	suite.store.users.On("PromoteSeeker", suite.ctx, suite.seeker.ID).Return(true, nil).Once()
	suite.expectPlacement(suite.seeker, first)
	suite.expectPlacement(suite.seeker, second)

	req := suite.request(first.ID)
	req.UserID = &suite.seeker.ID
	details, err := suite.service.Create(suite.ctx, suite.agent, req)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.RoleTenant, details.User.Role)
	assert.Equal(suite.T(), models.TenantActive, details.Status)
	assert.Equal(suite.T(), suite.agent.ID, details.Agent)
	assert.Equal(suite.T(), 1200.0, details.Lease.RentAmount)
	assert.Equal(suite.T(), 1, details.Lease.PaymentDueDay)

	req.PropertyID = second.ID
	_, err = suite.service.Create(suite.ctx, suite.agent, req)
	require.NoError(suite.T(), err)

	suite.store.users.AssertNumberOfCalls(suite.T(), "PromoteSeeker", 1)
	assert.Equal(suite.T(), 2, suite.store.txCount)
}

func (suite *TenantServiceTestSuite) TestCreate_NewUserRolledBackWhenPropertyFillsUp() {
	p := suite.approvedProperty()
	suite.expectAgentScope(suite.agent)
	suite.store.users.On("EmailExists", suite.ctx, "new.tenant@example.com").Return(false, nil)
	suite.store.users.On("Create", suite.ctx, mock.AnythingOfType("*models.User")).Return(nil).Run(func(args mock.Arguments) {
		u := args.Get(1).(*models.User)
		assert.Equal(suite.T(), models.RoleTenant, u.Role)
		assert.True(suite.T(), u.MustChangePassword)
		assert.NotEmpty(suite.T(), u.PasswordHash)
		assert.Equal(suite.T(), suite.agent.ID, *u.CreatedBy)
	})
	suite.store.tenants.On("HasActive", suite.ctx, mock.Anything, p.ID).Return(false, nil)
	suite.store.leases.On("Create", suite.ctx, mock.AnythingOfType("*models.Lease")).Return(nil)
	suite.store.tenants.On("Create", suite.ctx, mock.AnythingOfType("*models.Tenant")).Return(nil)
	suite.store.properties.On("IncrementOccupancy", suite.ctx, p.ID).Return(false, nil)

	req := suite.request(p.ID)
	req.UserData = &NewTenantUser{Email: " New.Tenant@Example.com ", FirstName: "Nia"}
	_, err := suite.service.Create(suite.ctx, suite.agent, req)

	assert.True(suite.T(), common.IsConflict(err))
	assert.Equal(suite.T(), "Property is not available", err.Error())
	assert.True(suite.T(), suite.store.rolledBack)
	suite.notifier.AssertNotCalled(suite.T(), "Notify", mock.Anything, mock.Anything)
}

func (suite *TenantServiceTestSuite) TestCreate_NewUserSendsTemporaryPassword() {
	p := suite.approvedProperty()
	suite.expectAgentScope(suite.agent)
	suite.store.users.On("EmailExists", suite.ctx, "nia@example.com").Return(false, nil)
	suite.store.users.On("Create", suite.ctx, mock.AnythingOfType("*models.User")).Return(nil)
	suite.store.tenants.On("HasActive", suite.ctx, mock.Anything, p.ID).Return(false, nil)
	suite.store.leases.On("Create", suite.ctx, mock.AnythingOfType("*models.Lease")).Return(nil)
	suite.store.tenants.On("Create", suite.ctx, mock.AnythingOfType("*models.Tenant")).Return(nil)
	suite.store.properties.On("IncrementOccupancy", suite.ctx, p.ID).Return(true, nil)
	suite.cache.On("InvalidateProperty", suite.ctx, p.ID).Return(nil)
	suite.notifier.On("Notify", suite.ctx, mock.MatchedBy(func(n *models.Notification) bool {
		return n.Event == models.EventTenantOnboarded && n.Recipient == "nia@example.com" && n.Data["temporaryPassword"] != ""
	})).Return(nil)

	req := suite.request(p.ID)
	req.UserData = &NewTenantUser{Email: "nia@example.com", FirstName: "Nia"}
	req.RentAmount = 950
	details, err := suite.service.Create(suite.ctx, suite.agent, req)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 950.0, details.Lease.RentAmount)
	assert.Equal(suite.T(), p.Title, details.PropertyTitle)
}

func (suite *TenantServiceTestSuite) TestCreate_ExistingEmailConflict() {
	p := suite.approvedProperty()
	suite.expectAgentScope(suite.agent)
	suite.store.users.On("EmailExists", suite.ctx, "taken@example.com").Return(true, nil)

	req := suite.request(p.ID)
	req.UserData = &NewTenantUser{Email: "taken@example.com", FirstName: "Tom"}
	_, err := suite.service.Create(suite.ctx, suite.agent, req)

	assert.True(suite.T(), common.IsConflict(err))
	assert.Equal(suite.T(), "A user with this email already exists", err.Error())
	assert.True(suite.T(), suite.store.rolledBack)
}

func (suite *TenantServiceTestSuite) TestCreate_DuplicateActiveTenancy() {
	p := suite.approvedProperty()
	tenant := testhelpers.Tenant(suite.agent)
	suite.expectAgentScope(suite.agent)
	suite.store.users.On("GetByID", suite.ctx, tenant.ID).Return(tenant, nil)
	suite.store.tenants.On("HasActive", suite.ctx, tenant.ID, p.ID).Return(true, nil)

	req := suite.request(p.ID)
	req.UserID = &tenant.ID
	_, err := suite.service.Create(suite.ctx, suite.agent, req)

	assert.True(suite.T(), common.IsConflict(err))
	assert.Equal(suite.T(), "User already has an active tenancy for this property", err.Error())
}

func (suite *TenantServiceTestSuite) TestCreate_AgentCannotBecomeTenant() {
	p := suite.approvedProperty()
	suite.expectAgentScope(suite.agent)
	suite.store.users.On("GetByID", suite.ctx, suite.agent2.ID).Return(suite.agent2, nil)

	req := suite.request(p.ID)
	req.UserID = &suite.agent2.ID
	_, err := suite.service.Create(suite.ctx, suite.agent, req)

	assert.True(suite.T(), common.IsValidation(err))
}

func (suite *TenantServiceTestSuite) TestCreate_PendingPropertyRejected() {
	p := testhelpers.Property(suite.agent, suite.employee, models.ApprovalPending)
	suite.store.properties.On("GetByID", suite.ctx, p.ID).Return(p, nil)

	req := suite.request(p.ID)
	req.UserID = &suite.seeker.ID
	_, err := suite.service.Create(suite.ctx, suite.employee, req)

	assert.True(suite.T(), common.IsConflict(err))
	assert.Equal(suite.T(), "Property must be approved before tenants can be onboarded", err.Error())
}

func (suite *TenantServiceTestSuite) TestCreate_OtherAgentsPropertyForbidden() {
	p := suite.approvedProperty()
	suite.expectAgentScope(suite.agent2)

	req := suite.request(p.ID)
	req.UserID = &suite.seeker.ID
	_, err := suite.service.Create(suite.ctx, suite.agent2, req)

	assert.True(suite.T(), common.IsAuthorization(err))
}

func (suite *TenantServiceTestSuite) TestCreate_EmployeeNeedsOnboardPermission() {
	suite.employee.Permissions.CanOnboardTenants = false

	req := suite.request(uuid.New())
	req.UserID = &suite.seeker.ID
	_, err := suite.service.Create(suite.ctx, suite.employee, req)

	assert.True(suite.T(), common.IsAuthorization(err))
}

func (suite *TenantServiceTestSuite) TestCreate_SeekerCannotOnboard() {
	req := suite.request(uuid.New())
	req.UserID = &suite.seeker.ID
	_, err := suite.service.Create(suite.ctx, suite.seeker, req)

	assert.True(suite.T(), common.IsAuthorization(err))
}

func (suite *TenantServiceTestSuite) TestCreate_RequestValidation() {
	userID := uuid.New()
	cases := []struct {
		name   string
		mutate func(*OnboardTenantRequest)
	}{
		{"neither user source", func(r *OnboardTenantRequest) {}},
		{"both user sources", func(r *OnboardTenantRequest) {
			r.UserID = &userID
			r.UserData = &NewTenantUser{Email: "a@example.com", FirstName: "A"}
		}},
		{"end before start", func(r *OnboardTenantRequest) {
			r.UserID = &userID
			r.LeaseEndDate = r.LeaseStartDate.AddDate(0, 0, -1)
		}},
		{"negative rent", func(r *OnboardTenantRequest) {
			r.UserID = &userID
			r.RentAmount = -1
		}},
		{"due day out of range", func(r *OnboardTenantRequest) {
			r.UserID = &userID
			r.PaymentDueDay = 31
		}},
		{"bad email", func(r *OnboardTenantRequest) {
			r.UserData = &NewTenantUser{Email: "not-an-email", FirstName: "A"}
		}},
	}
	for _, tc := range cases {
		suite.Run(tc.name, func() {
			req := suite.request(uuid.New())
			tc.mutate(&req)
			_, err := suite.service.Create(suite.ctx, suite.agent, req)
			assert.True(suite.T(), common.IsValidation(err), "got %v", err)
		})
	}
}

func (suite *TenantServiceTestSuite) TestCreate_UnitPlacement() {
	p := suite.approvedProperty()
	units := testhelpers.MultiUnitProperty(p, 2)
	tenant := testhelpers.Tenant(suite.agent)
	req := suite.request(p.ID)
	req.UserID = &tenant.ID
	req.UnitID = &units[1].ID

	suite.expectAgentScope(suite.agent)
	suite.store.users.On("GetByID", suite.ctx, tenant.ID).Return(tenant, nil)
	suite.store.tenants.On("HasActive", suite.ctx, tenant.ID, p.ID).Return(false, nil)
	suite.store.leases.On("Create", suite.ctx, mock.AnythingOfType("*models.Lease")).Return(nil)
	suite.store.tenants.On("Create", suite.ctx, mock.AnythingOfType("*models.Tenant")).Return(nil)
	suite.store.units.On("Occupy", suite.ctx, p.ID, units[1].ID, tenant.ID, req.LeaseStartDate, req.LeaseEndDate).Return(true, nil)
	suite.store.properties.On("SyncUnitOccupancy", suite.ctx, p.ID).Return(nil)
	suite.cache.On("InvalidateProperty", suite.ctx, p.ID).Return(nil)
	suite.notifier.On("Notify", suite.ctx, mock.Anything).Return(nil)

	details, err := suite.service.Create(suite.ctx, suite.agent, req)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), units[1].ID, *details.UnitID)
	assert.Equal(suite.T(), units[1].ID, *details.Lease.UnitID)
	suite.store.properties.AssertNotCalled(suite.T(), "IncrementOccupancy", mock.Anything, mock.Anything)
}

func (suite *TenantServiceTestSuite) TestCreate_UnitTaken() {
	p := suite.approvedProperty()
	units := testhelpers.MultiUnitProperty(p, 1)
	tenant := testhelpers.Tenant(suite.agent)
	req := suite.request(p.ID)
	req.UserID = &tenant.ID
	req.UnitID = &units[0].ID

	suite.expectAgentScope(suite.agent)
	suite.store.users.On("GetByID", suite.ctx, tenant.ID).Return(tenant, nil)
	suite.store.tenants.On("HasActive", suite.ctx, tenant.ID, p.ID).Return(false, nil)
	suite.store.leases.On("Create", suite.ctx, mock.AnythingOfType("*models.Lease")).Return(nil)
	suite.store.tenants.On("Create", suite.ctx, mock.AnythingOfType("*models.Tenant")).Return(nil)
	suite.store.units.On("Occupy", suite.ctx, p.ID, units[0].ID, tenant.ID, req.LeaseStartDate, req.LeaseEndDate).Return(false, nil)
	suite.store.units.On("GetByID", suite.ctx, p.ID, units[0].ID).Return(units[0], nil)

	_, err := suite.service.Create(suite.ctx, suite.agent, req)

	assert.True(suite.T(), common.IsConflict(err))
	assert.Equal(suite.T(), "Unit is not available", err.Error())
	assert.True(suite.T(), suite.store.rolledBack)
}

func (suite *TenantServiceTestSuite) TestCreate_MultiUnitNeedsUnit() {
	p := suite.approvedProperty()
	testhelpers.MultiUnitProperty(p, 2)
	suite.expectAgentScope(suite.agent)

	req := suite.request(p.ID)
	req.UserID = &suite.seeker.ID
	_, err := suite.service.Create(suite.ctx, suite.agent, req)

	assert.True(suite.T(), common.IsValidation(err))
}

func (suite *TenantServiceTestSuite) tenancy(unitID *uuid.UUID) *models.Tenant {
	return &models.Tenant{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		PropertyID: uuid.New(),
		UnitID:     unitID,
		LeaseID:    uuid.New(),
		Status:     models.TenantActive,
		Agent:      suite.agent.ID,
		CreatedBy:  suite.employee.ID,
	}
}

func (suite *TenantServiceTestSuite) TestTerminate_ReleasesOccupancy() {
	t := suite.tenancy(nil)
	suite.store.tenants.On("GetByID", suite.ctx, t.ID).Return(t, nil)
	suite.expectAgentScope(suite.agent, suite.employee.ID)
	suite.store.tenants.On("Close", suite.ctx, t.ID, models.TenantTerminated).Return(true, nil)
	suite.store.leases.On("Close", suite.ctx, t.LeaseID, models.TenantTerminated).Return(true, nil)
	suite.store.properties.On("ReleaseOccupancy", suite.ctx, t.PropertyID).Return(true, nil)
	suite.cache.On("InvalidateProperty", suite.ctx, t.PropertyID).Return(nil)

	err := suite.service.Terminate(suite.ctx, suite.agent, t.ID)

	require.NoError(suite.T(), err)
	assert.False(suite.T(), suite.store.rolledBack)
}

func (suite *TenantServiceTestSuite) TestTerminate_VacatesUnitHeldByTenant() {
	unitID := uuid.New()
	t := suite.tenancy(&unitID)
	unit := &models.Unit{ID: unitID, PropertyID: t.PropertyID, Availability: models.UnitOccupied, Tenant: &t.UserID}
	suite.store.tenants.On("GetByID", suite.ctx, t.ID).Return(t, nil)
	suite.store.tenants.On("Close", suite.ctx, t.ID, models.TenantTerminated).Return(true, nil)
	suite.store.leases.On("Close", suite.ctx, t.LeaseID, models.TenantTerminated).Return(true, nil)
	suite.store.units.On("GetByID", suite.ctx, t.PropertyID, unitID).Return(unit, nil)
	suite.store.units.On("Vacate", suite.ctx, t.PropertyID, unitID).Return(true, nil)
	suite.store.properties.On("SyncUnitOccupancy", suite.ctx, t.PropertyID).Return(nil)
	suite.cache.On("InvalidateProperty", suite.ctx, t.PropertyID).Return(nil)

	err := suite.service.Terminate(suite.ctx, suite.admin, t.ID)

	require.NoError(suite.T(), err)
}

func (suite *TenantServiceTestSuite) TestTerminate_LeavesReletUnitAlone() {
	unitID := uuid.New()
	other := uuid.New()
	t := suite.tenancy(&unitID)
	unit := &models.Unit{ID: unitID, PropertyID: t.PropertyID, Availability: models.UnitOccupied, Tenant: &other}
	suite.store.tenants.On("GetByID", suite.ctx, t.ID).Return(t, nil)
	suite.store.tenants.On("Close", suite.ctx, t.ID, models.TenantTerminated).Return(true, nil)
	suite.store.leases.On("Close", suite.ctx, t.LeaseID, models.TenantTerminated).Return(true, nil)
	suite.store.units.On("GetByID", suite.ctx, t.PropertyID, unitID).Return(unit, nil)
	suite.cache.On("InvalidateProperty", suite.ctx, t.PropertyID).Return(nil)

	err := suite.service.Terminate(suite.ctx, suite.admin, t.ID)

	require.NoError(suite.T(), err)
	suite.store.units.AssertNotCalled(suite.T(), "Vacate", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TenantServiceTestSuite) TestTerminate_AlreadyClosed() {
	t := suite.tenancy(nil)
	t.Status = models.TenantExpired
	suite.store.tenants.On("GetByID", suite.ctx, t.ID).Return(t, nil)

	err := suite.service.Terminate(suite.ctx, suite.admin, t.ID)

	assert.True(suite.T(), common.IsConflict(err))
	assert.Equal(suite.T(), 0, suite.store.txCount)
}

func (suite *TenantServiceTestSuite) TestTerminate_EmployeeForbidden() {
	err := suite.service.Terminate(suite.ctx, suite.employee, uuid.New())

	assert.True(suite.T(), common.IsAuthorization(err))
}

func (suite *TenantServiceTestSuite) TestTerminate_NotFound() {
	id := uuid.New()
	suite.store.tenants.On("GetByID", suite.ctx, id).Return(nil, repositories.ErrNotFound)

	err := suite.service.Terminate(suite.ctx, suite.agent, id)

	assert.True(suite.T(), common.IsNotFound(err))
}

func (suite *TenantServiceTestSuite) TestExpireLeases() {
	asOf := fixedNow
	withTenant := &models.Lease{ID: uuid.New(), PropertyID: uuid.New(), Status: models.TenantActive}
	orphan := &models.Lease{ID: uuid.New(), PropertyID: uuid.New(), Status: models.TenantActive}
	t := suite.tenancy(nil)
	t.LeaseID = withTenant.ID
	t.PropertyID = withTenant.PropertyID

	suite.store.leases.On("ListExpired", suite.ctx, asOf, expiryBatchSize).Return([]*models.Lease{withTenant, orphan}, nil)
	suite.store.tenants.On("GetByLeaseID", suite.ctx, withTenant.ID).Return(t, nil)
	suite.store.tenants.On("Close", suite.ctx, t.ID, models.TenantExpired).Return(true, nil)
	suite.store.leases.On("Close", suite.ctx, withTenant.ID, models.TenantExpired).Return(true, nil)
	suite.store.properties.On("ReleaseOccupancy", suite.ctx, withTenant.PropertyID).Return(true, nil)
	suite.store.tenants.On("GetByLeaseID", suite.ctx, orphan.ID).Return(nil, repositories.ErrNotFound)
	suite.store.leases.On("Close", suite.ctx, orphan.ID, models.TenantExpired).Return(true, nil)
	suite.cache.On("InvalidateProperty", suite.ctx, withTenant.PropertyID).Return(nil)
	suite.cache.On("InvalidateProperty", suite.ctx, orphan.PropertyID).Return(nil)
	suite.notifier.On("Notify", suite.ctx, mock.MatchedBy(func(n *models.Notification) bool {
		return n.Event == models.EventLeaseExpired && n.RecipientID == t.UserID
	})).Return(nil).Once()

	n, err := suite.service.ExpireLeases(suite.ctx, asOf)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, n)
	assert.Equal(suite.T(), 2, suite.store.txCount)
}

func (suite *TenantServiceTestSuite) TestExpireLeases_ContinuesPastFailures() {
	broken := &models.Lease{ID: uuid.New(), PropertyID: uuid.New()}
	raced := &models.Lease{ID: uuid.New(), PropertyID: uuid.New()}
	t := suite.tenancy(nil)
	t.LeaseID = raced.ID

	suite.store.leases.On("ListExpired", suite.ctx, fixedNow, expiryBatchSize).Return([]*models.Lease{broken, raced}, nil)
	suite.store.tenants.On("GetByLeaseID", suite.ctx, broken.ID).Return(nil, errors.New("connection reset"))
	suite.store.tenants.On("GetByLeaseID", suite.ctx, raced.ID).Return(t, nil)
	suite.store.tenants.On("Close", suite.ctx, t.ID, models.TenantExpired).Return(false, nil)

	n, err := suite.service.ExpireLeases(suite.ctx, fixedNow)

	assert.Equal(suite.T(), 0, n)
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), broken.ID.String())
	assert.NotContains(suite.T(), err.Error(), raced.ID.String())
}

func (suite *TenantServiceTestSuite) TestRemindEndingLeases_OncePerLease() {
	within := 7 * 24 * time.Hour
	fresh := &models.Lease{ID: uuid.New(), TenantUserID: uuid.New(), EndDate: fixedNow.AddDate(0, 0, 3)}
	reminded := &models.Lease{ID: uuid.New(), TenantUserID: uuid.New(), EndDate: fixedNow.AddDate(0, 0, 5)}
	stamp := fixedNow.Format(time.RFC3339)

	suite.store.leases.On("ListEndingBetween", suite.ctx, fixedNow, fixedNow.Add(within)).Return([]*models.Lease{fresh, reminded}, nil)
	suite.cache.On("SetIfAbsent", suite.ctx, reminderKey(fresh.ID), stamp, within+24*time.Hour).Return(true, nil)
	suite.cache.On("SetIfAbsent", suite.ctx, reminderKey(reminded.ID), stamp, within+24*time.Hour).Return(false, nil)
	suite.notifier.On("Notify", suite.ctx, mock.MatchedBy(func(n *models.Notification) bool {
		return n.Event == models.EventLeaseEnding && n.RecipientID == fresh.TenantUserID && n.Data["endDate"] == "2025-03-13"
	})).Return(nil).Once()

	sent, err := suite.service.RemindEndingLeases(suite.ctx, fixedNow, within)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, sent)
}

func (suite *TenantServiceTestSuite) TestList_EmployeeSeesOwnTenants() {
	propertyID := uuid.New()
	expected := []*models.TenantDetails{{Tenant: *suite.tenancy(nil)}}
	suite.store.tenants.On("List", suite.ctx, repositories.TenantQuery{
		Owners:     []uuid.UUID{suite.employee.ID},
		Status:     models.TenantActive,
		PropertyID: &propertyID,
		Limit:      20,
	}).Return(expected, nil)

	tenants, err := suite.service.List(suite.ctx, suite.employee, TenantListFilter{Status: "active", PropertyID: &propertyID, Limit: 20})

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), expected, tenants)
}

func (suite *TenantServiceTestSuite) TestList_InvalidStatus() {
	_, err := suite.service.List(suite.ctx, suite.admin, TenantListFilter{Status: "evicted", Limit: 10})

	assert.True(suite.T(), common.IsValidation(err))
}

func (suite *TenantServiceTestSuite) TestGet_TenantSeesOwnRecord() {
	details := &models.TenantDetails{Tenant: *suite.tenancy(nil)}
	self := &models.User{ID: details.UserID, Role: models.RoleTenant}
	suite.store.tenants.On("GetDetails", suite.ctx, details.ID).Return(details, nil)

	got, err := suite.service.Get(suite.ctx, self, details.ID)

	require.NoError(suite.T(), err)
	assert.Same(suite.T(), details, got)
}

func (suite *TenantServiceTestSuite) TestGet_OtherTenantForbidden() {
	details := &models.TenantDetails{Tenant: *suite.tenancy(nil)}
	other := testhelpers.Tenant(suite.agent)
	suite.store.tenants.On("GetDetails", suite.ctx, details.ID).Return(details, nil)

	_, err := suite.service.Get(suite.ctx, other, details.ID)

	assert.True(suite.T(), common.IsAuthorization(err))
}
