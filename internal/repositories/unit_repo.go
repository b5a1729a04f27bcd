package repositories

import (
	"context"
	"time"

	"rentalhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UnitRepository persists the ordered unit rows of a multi-unit property.
type UnitRepository interface {
	Create(ctx context.Context, unit *models.Unit) error
	GetByID(ctx context.Context, propertyID, unitID uuid.UUID) (*models.Unit, error)
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*models.Unit, error)
	ListByProperties(ctx context.Context, propertyIDs []uuid.UUID) (map[uuid.UUID][]*models.Unit, error)
	UpdateDetails(ctx context.Context, unit *models.Unit) error
	SetMaintenance(ctx context.Context, propertyID, unitID uuid.UUID, on bool) (bool, error)
	Occupy(ctx context.Context, propertyID, unitID, tenantUserID uuid.UUID, start, end time.Time) (bool, error)
	Vacate(ctx context.Context, propertyID, unitID uuid.UUID) (bool, error)
	DeleteIfVacant(ctx context.Context, propertyID, unitID uuid.UUID) (bool, error)
}

type unitRepo struct {
	db DBTX
}

func NewUnitRepo(db DBTX) UnitRepository {
	return &unitRepo{db: db}
}

const unitColumns = `id, property_id, position, unit_number, floor, bedrooms, bathrooms, area_sq_ft, rent,
		availability, tenant_id, lease_start, lease_end, created_at, updated_at`

func scanUnit(row pgx.Row) (*models.Unit, error) {
	u := &models.Unit{}
	err := row.Scan(&u.ID, &u.PropertyID, &u.Position, &u.UnitNumber, &u.Floor, &u.Bedrooms, &u.Bathrooms,
		&u.AreaSqFt, &u.Rent, &u.Availability, &u.Tenant, &u.LeaseStart, &u.LeaseEnd, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

// Create appends the unit after the last existing position and fills unit.Position.
func (r *unitRepo) Create(ctx context.Context, unit *models.Unit) error {
	query := `
		INSERT INTO property_units (id, property_id, position, unit_number, floor, bedrooms, bathrooms,
			area_sq_ft, rent, availability, created_at, updated_at)
		VALUES ($1, $2,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM property_units WHERE property_id = $2),
			$3, $4, $5, $6, $7, $8, 'available', NOW(), NOW())
		RETURNING position
	`
	err := r.db.QueryRow(ctx, query, unit.ID, unit.PropertyID, unit.UnitNumber, unit.Floor, unit.Bedrooms,
		unit.Bathrooms, unit.AreaSqFt, unit.Rent).Scan(&unit.Position)
	if err != nil {
		return translate(err)
	}
	unit.Availability = models.UnitAvailable
	return nil
}

func (r *unitRepo) GetByID(ctx context.Context, propertyID, unitID uuid.UUID) (*models.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM property_units WHERE property_id = $1 AND id = $2`
	return scanUnit(r.db.QueryRow(ctx, query, propertyID, unitID))
}

func (r *unitRepo) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*models.Unit, error) {
	byProperty, err := r.ListByProperties(ctx, []uuid.UUID{propertyID})
	if err != nil {
		return nil, err
	}
	return byProperty[propertyID], nil
}

func (r *unitRepo) ListByProperties(ctx context.Context, propertyIDs []uuid.UUID) (map[uuid.UUID][]*models.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM property_units WHERE property_id = ANY($1) ORDER BY property_id, position`
	rows, err := r.db.Query(ctx, query, propertyIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units := make(map[uuid.UUID][]*models.Unit, len(propertyIDs))
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units[u.PropertyID] = append(units[u.PropertyID], u)
	}
	return units, rows.Err()
}

func (r *unitRepo) UpdateDetails(ctx context.Context, unit *models.Unit) error {
	query := `
		UPDATE property_units
		SET unit_number = $1, floor = $2, bedrooms = $3, bathrooms = $4, area_sq_ft = $5, rent = $6, updated_at = NOW()
		WHERE property_id = $7 AND id = $8
	`
	tag, err := r.db.Exec(ctx, query, unit.UnitNumber, unit.Floor, unit.Bedrooms, unit.Bathrooms, unit.AreaSqFt,
		unit.Rent, unit.PropertyID, unit.ID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetMaintenance toggles available <-> maintenance. False means the unit is occupied.
func (r *unitRepo) SetMaintenance(ctx context.Context, propertyID, unitID uuid.UUID, on bool) (bool, error) {
	target := models.UnitAvailable
	if on {
		target = models.UnitMaintenance
	}
	query := `
		UPDATE property_units
		SET availability = $1, updated_at = NOW()
		WHERE property_id = $2 AND id = $3 AND availability <> 'occupied'
	`
	tag, err := r.db.Exec(ctx, query, target, propertyID, unitID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Occupy assigns a tenant to an available unit. False means the unit was not available.
func (r *unitRepo) Occupy(ctx context.Context, propertyID, unitID, tenantUserID uuid.UUID, start, end time.Time) (bool, error) {
	query := `
		UPDATE property_units
		SET availability = 'occupied', tenant_id = $1, lease_start = $2, lease_end = $3, updated_at = NOW()
		WHERE property_id = $4 AND id = $5 AND availability = 'available'
	`
	tag, err := r.db.Exec(ctx, query, tenantUserID, start, end, propertyID, unitID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Vacate clears the tenant and lease window. False means the unit was already vacant.
func (r *unitRepo) Vacate(ctx context.Context, propertyID, unitID uuid.UUID) (bool, error) {
	query := `
		UPDATE property_units
		SET availability = 'available', tenant_id = NULL, lease_start = NULL, lease_end = NULL, updated_at = NOW()
		WHERE property_id = $1 AND id = $2 AND (availability <> 'available' OR tenant_id IS NOT NULL)
	`
	tag, err := r.db.Exec(ctx, query, propertyID, unitID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *unitRepo) DeleteIfVacant(ctx context.Context, propertyID, unitID uuid.UUID) (bool, error) {
	query := `DELETE FROM property_units WHERE property_id = $1 AND id = $2 AND availability <> 'occupied'`
	tag, err := r.db.Exec(ctx, query, propertyID, unitID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
