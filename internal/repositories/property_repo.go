package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rentalhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PropertyQuery is a listing filter plus the owner scope from the hierarchy resolver.
// A nil Owners slice means unrestricted.
type PropertyQuery struct {
	models.PropertyFilter
	Owners []uuid.UUID
}

type PropertyRepository interface {
	Create(ctx context.Context, property *models.Property) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	Update(ctx context.Context, property *models.Property, expected models.ApprovalStatus) (bool, error)
	List(ctx context.Context, q PropertyQuery) ([]*models.Property, error)
	Stats(ctx context.Context, owners []uuid.UUID) (*models.PropertyStats, error)
	CountByAgent(ctx context.Context, agentID uuid.UUID) (int, error)
	CountByOwners(ctx context.Context, owners []uuid.UUID) (int, error)

	Approve(ctx context.Context, id, approverID uuid.UUID, at time.Time) (bool, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	SetAvailability(ctx context.Context, id uuid.UUID, availability models.Availability) (bool, error)
	IncrementOccupancy(ctx context.Context, id uuid.UUID) (bool, error)
	ReleaseOccupancy(ctx context.Context, id uuid.UUID) (bool, error)
	SyncUnitOccupancy(ctx context.Context, id uuid.UUID) error
	AddImage(ctx context.Context, id uuid.UUID, objectKey string) error
	DeleteIfVacant(ctx context.Context, id uuid.UUID) (bool, error)
}

type propertyRepo struct {
	db DBTX
}

func NewPropertyRepo(db DBTX) PropertyRepository {
	return &propertyRepo{db: db}
}

const propertyColumns = `id, title, description, property_type, street, city, state, zip_code, country,
		bedrooms, bathrooms, area_sq_ft, rent, price, deposit, amenities, images,
		agent_id, created_by, created_by_role, approval_status, approved, approved_by, approved_at,
		rejection_reason, availability, has_units, capacity, occupied_count, created_at, updated_at`

func scanProperty(row pgx.Row) (*models.Property, error) {
	p := &models.Property{}
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.PropertyType,
		&p.Address.Street, &p.Address.City, &p.Address.State, &p.Address.ZipCode, &p.Address.Country,
		&p.Bedrooms, &p.Bathrooms, &p.AreaSqFt, &p.Rent, &p.Price, &p.Deposit, &p.Amenities, &p.Images,
		&p.Agent, &p.CreatedBy, &p.CreatedByRole, &p.ApprovalStatus, &p.Approved, &p.ApprovedBy, &p.ApprovedAt,
		&p.RejectionReason, &p.Availability, &p.HasUnits, &p.Capacity, &p.OccupiedCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

func (r *propertyRepo) Create(ctx context.Context, p *models.Property) error {
	query := `
		INSERT INTO properties (id, title, description, property_type, street, city, state, zip_code, country,
			bedrooms, bathrooms, area_sq_ft, rent, price, deposit, amenities, images,
			agent_id, created_by, created_by_role, approval_status, approved, approved_by, approved_at,
			availability, has_units, capacity, occupied_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, 0, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, p.ID, p.Title, p.Description, p.PropertyType,
		p.Address.Street, p.Address.City, p.Address.State, p.Address.ZipCode, p.Address.Country,
		p.Bedrooms, p.Bathrooms, p.AreaSqFt, p.Rent, p.Price, p.Deposit, p.Amenities, p.Images,
		p.Agent, p.CreatedBy, p.CreatedByRole, p.ApprovalStatus, p.Approved, p.ApprovedBy, p.ApprovedAt,
		p.Availability, p.HasUnits, p.Capacity)
	return translate(err)
}

func (r *propertyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`
	return scanProperty(r.db.QueryRow(ctx, query, id))
}

// Update writes the descriptive, ownership and approval columns. Occupancy columns are owned by the
// conditional transitions below. It reports false when the new capacity is below the current occupancy
// or the approval status is no longer expected.
func (r *propertyRepo) Update(ctx context.Context, p *models.Property, expected models.ApprovalStatus) (bool, error) {
	query := `
		UPDATE properties
		SET title = $1, description = $2, property_type = $3, street = $4, city = $5, state = $6,
			zip_code = $7, country = $8, bedrooms = $9, bathrooms = $10, area_sq_ft = $11,
			rent = $12, price = $13, deposit = $14, amenities = $15,
			agent_id = $16, created_by = $17, approval_status = $18, approved = $19,
			approved_by = $20, approved_at = $21, rejection_reason = $22,
			capacity = $23,
			availability = CASE
				WHEN availability = 'occupied' AND occupied_count < $23 THEN 'available'
				WHEN availability = 'available' AND $23 > 0 AND occupied_count >= $23 THEN 'occupied'
				ELSE availability
			END,
			updated_at = NOW()
		WHERE id = $24 AND occupied_count <= $23 AND approval_status = $25
	`
	tag, err := r.db.Exec(ctx, query, p.Title, p.Description, p.PropertyType, p.Address.Street, p.Address.City,
		p.Address.State, p.Address.ZipCode, p.Address.Country, p.Bedrooms, p.Bathrooms, p.AreaSqFt,
		p.Rent, p.Price, p.Deposit, p.Amenities,
		p.Agent, p.CreatedBy, p.ApprovalStatus, p.Approved, p.ApprovedBy, p.ApprovedAt, p.RejectionReason,
		p.Capacity, p.ID, expected)
	if err != nil {
		return false, translate(err)
	}
	return tag.RowsAffected() == 1, nil
}

func ownerClause(args []any, owners []uuid.UUID) ([]any, string) {
	args = append(args, owners)
	n := len(args)
	return args, fmt.Sprintf("(agent_id = ANY($%d) OR created_by = ANY($%d))", n, n)
}

func (r *propertyRepo) List(ctx context.Context, q PropertyQuery) ([]*models.Property, error) {
	var (
		conds []string
		args  []any
	)
	if q.Owners != nil {
		var clause string
		args, clause = ownerClause(args, q.Owners)
		conds = append(conds, clause)
	}
	if q.ApprovalStatus != "" {
		args = append(args, q.ApprovalStatus)
		conds = append(conds, fmt.Sprintf("approval_status = $%d", len(args)))
	}
	if q.Availability != "" {
		args = append(args, q.Availability)
		conds = append(conds, fmt.Sprintf("availability = $%d", len(args)))
	}
	if q.City != "" {
		args = append(args, q.City)
		conds = append(conds, fmt.Sprintf("LOWER(city) = LOWER($%d)", len(args)))
	}
	if q.PropertyType != "" {
		args = append(args, q.PropertyType)
		conds = append(conds, fmt.Sprintf("property_type = $%d", len(args)))
	}
	if q.MinRent != nil {
		args = append(args, *q.MinRent)
		conds = append(conds, fmt.Sprintf("rent >= $%d", len(args)))
	}
	if q.MaxRent != nil {
		args = append(args, *q.MaxRent)
		conds = append(conds, fmt.Sprintf("rent <= $%d", len(args)))
	}

	query := `SELECT ` + propertyColumns + ` FROM properties`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, q.Limit, q.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var properties []*models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

func (r *propertyRepo) Stats(ctx context.Context, owners []uuid.UUID) (*models.PropertyStats, error) {
	query := `SELECT approval_status, availability, COUNT(*) FROM properties`
	var args []any
	if owners != nil {
		var clause string
		args, clause = ownerClause(args, owners)
		query += ` WHERE ` + clause
	}
	query += ` GROUP BY approval_status, availability`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &models.PropertyStats{
		ByApproval:     map[models.ApprovalStatus]int{},
		ByAvailability: map[models.Availability]int{},
	}
	for rows.Next() {
		var (
			approval     models.ApprovalStatus
			availability models.Availability
			count        int
		)
		if err := rows.Scan(&approval, &availability, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		stats.ByApproval[approval] += count
		stats.ByAvailability[availability] += count
	}
	return stats, rows.Err()
}

func (r *propertyRepo) CountByAgent(ctx context.Context, agentID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM properties WHERE agent_id = $1`, agentID).Scan(&count)
	return count, err
}

// CountByOwners counts properties listed by or assigned to any of owners. Nil counts everything.
func (r *propertyRepo) CountByOwners(ctx context.Context, owners []uuid.UUID) (int, error) {
	var args []any
	query := `SELECT COUNT(*) FROM properties`
	if owners != nil {
		var clause string
		args, clause = ownerClause(args, owners)
		query += ` WHERE ` + clause
	}
	var count int
	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

// Approve moves a pending property to approved. False means it was not pending.
func (r *propertyRepo) Approve(ctx context.Context, id, approverID uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE properties
		SET approval_status = 'approved', approved = TRUE, approved_by = $1, approved_at = $2,
			rejection_reason = NULL, updated_at = NOW()
		WHERE id = $3 AND approval_status = 'pending'
	`
	tag, err := r.db.Exec(ctx, query, approverID, at, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Reject moves a pending property to rejected. False means it was not pending.
func (r *propertyRepo) Reject(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	query := `
		UPDATE properties
		SET approval_status = 'rejected', approved = FALSE, approved_by = NULL, approved_at = NULL,
			rejection_reason = $1, updated_at = NOW()
		WHERE id = $2 AND approval_status = 'pending'
	`
	tag, err := r.db.Exec(ctx, query, reason, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetAvailability applies a manual availability change. False means the property holds occupancy.
func (r *propertyRepo) SetAvailability(ctx context.Context, id uuid.UUID, availability models.Availability) (bool, error) {
	query := `
		UPDATE properties
		SET availability = $1, updated_at = NOW()
		WHERE id = $2 AND occupied_count = 0 AND availability <> 'occupied'
	`
	tag, err := r.db.Exec(ctx, query, availability, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// IncrementOccupancy takes one slot and flips the property to occupied when the last slot goes.
// False means the property was not available or already full.
func (r *propertyRepo) IncrementOccupancy(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE properties
		SET occupied_count = occupied_count + 1,
			availability = CASE WHEN occupied_count + 1 >= capacity THEN 'occupied' ELSE availability END,
			updated_at = NOW()
		WHERE id = $1 AND availability = 'available' AND occupied_count < capacity
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseOccupancy frees one slot. False means there was nothing to release.
func (r *propertyRepo) ReleaseOccupancy(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE properties
		SET occupied_count = occupied_count - 1,
			availability = CASE WHEN availability = 'occupied' THEN 'available' ELSE availability END,
			updated_at = NOW()
		WHERE id = $1 AND occupied_count > 0
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SyncUnitOccupancy recomputes capacity, occupancy and availability from the unit rows.
func (r *propertyRepo) SyncUnitOccupancy(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE properties p
		SET has_units = TRUE,
			capacity = u.total,
			occupied_count = u.occupied,
			availability = CASE
				WHEN p.availability IN ('maintenance', 'unavailable') THEN p.availability
				WHEN u.total > 0 AND u.occupied >= u.total THEN 'occupied'
				ELSE 'available'
			END,
			updated_at = NOW()
		FROM (
			SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE availability = 'occupied') AS occupied
			FROM property_units
			WHERE property_id = $1
		) u
		WHERE p.id = $1
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *propertyRepo) AddImage(ctx context.Context, id uuid.UUID, objectKey string) error {
	query := `UPDATE properties SET images = array_append(images, $1), updated_at = NOW() WHERE id = $2`
	tag, err := r.db.Exec(ctx, query, objectKey, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteIfVacant removes a property with no occupancy and no active tenants.
func (r *propertyRepo) DeleteIfVacant(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		DELETE FROM properties
		WHERE id = $1 AND availability <> 'occupied' AND occupied_count = 0
			AND NOT EXISTS (SELECT 1 FROM tenants WHERE property_id = $1 AND status = 'active')
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
