package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"rentalhub/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type UnitRepoTestSuite struct {
	suite.Suite
	mock       pgxmock.PgxPoolIface
	repo       UnitRepository
	propertyID uuid.UUID
	unitID     uuid.UUID
	context    context.Context
}

func (suite *UnitRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewUnitRepo(mock)
	suite.propertyID = uuid.New()
	suite.unitID = uuid.New()
	suite.context = context.Background()
}

func (suite *UnitRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestUnitRepoTestSuite(t *testing.T) {
	suite.Run(t, new(UnitRepoTestSuite))
}

func (suite *UnitRepoTestSuite) TestCreate_AppendsPosition() {
	unit := &models.Unit{ID: suite.unitID, PropertyID: suite.propertyID, UnitNumber: "2B", Floor: 2, Rent: 1200}

	suite.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO property_units`)).
		WithArgs(unit.ID, unit.PropertyID, unit.UnitNumber, unit.Floor, unit.Bedrooms, unit.Bathrooms, unit.AreaSqFt, unit.Rent).
		WillReturnRows(pgxmock.NewRows([]string{"position"}).AddRow(3))

	err := suite.repo.Create(suite.context, unit)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, unit.Position)
	assert.Equal(suite.T(), models.UnitAvailable, unit.Availability)
}

func (suite *UnitRepoTestSuite) TestOccupy_OnlyWhenAvailable() {
	tenantID := uuid.New()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	suite.mock.ExpectExec(regexp.QuoteMeta(`WHERE property_id = $4 AND id = $5 AND availability = 'available'`)).
		WithArgs(tenantID, start, end, suite.propertyID, suite.unitID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(regexp.QuoteMeta(`WHERE property_id = $4 AND id = $5 AND availability = 'available'`)).
		WithArgs(tenantID, start, end, suite.propertyID, suite.unitID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := suite.repo.Occupy(suite.context, suite.propertyID, suite.unitID, tenantID, start, end)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), ok)

	ok, err = suite.repo.Occupy(suite.context, suite.propertyID, suite.unitID, tenantID, start, end)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}

func (suite *UnitRepoTestSuite) TestVacate_ClearsTenant() {
	suite.mock.ExpectExec(regexp.QuoteMeta(`SET availability = 'available', tenant_id = NULL, lease_start = NULL, lease_end = NULL`)).
		WithArgs(suite.propertyID, suite.unitID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := suite.repo.Vacate(suite.context, suite.propertyID, suite.unitID)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), ok)
}

func (suite *UnitRepoTestSuite) TestVacate_ResetsAnyUnitNotAvailable() {
	suite.mock.ExpectExec(regexp.QuoteMeta(`AND (availability <> 'available' OR tenant_id IS NOT NULL)`)).
		WithArgs(suite.propertyID, suite.unitID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := suite.repo.Vacate(suite.context, suite.propertyID, suite.unitID)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), ok)
}

func (suite *UnitRepoTestSuite) TestVacate_AlreadyVacantIsNoop() {
	suite.mock.ExpectExec(regexp.QuoteMeta(`UPDATE property_units`)).
		WithArgs(suite.propertyID, suite.unitID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := suite.repo.Vacate(suite.context, suite.propertyID, suite.unitID)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}

func (suite *UnitRepoTestSuite) TestSetMaintenance_RejectsOccupied() {
	suite.mock.ExpectExec(regexp.QuoteMeta(`AND availability <> 'occupied'`)).
		WithArgs(models.UnitMaintenance, suite.propertyID, suite.unitID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := suite.repo.SetMaintenance(suite.context, suite.propertyID, suite.unitID, true)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}

func (suite *UnitRepoTestSuite) TestDeleteIfVacant_Occupied() {
	suite.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM property_units`)).
		WithArgs(suite.propertyID, suite.unitID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	ok, err := suite.repo.DeleteIfVacant(suite.context, suite.propertyID, suite.unitID)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}
