package repositories

import (
	"context"
	"fmt"
	"strings"

	"rentalhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TenantQuery filters tenant listings. A nil Owners slice means unrestricted.
type TenantQuery struct {
	Owners     []uuid.UUID
	Status     models.TenantStatus
	PropertyID *uuid.UUID
	Limit      int
	Offset     int
}

type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetByLeaseID(ctx context.Context, leaseID uuid.UUID) (*models.Tenant, error)
	GetActiveByUnit(ctx context.Context, propertyID, unitID uuid.UUID) (*models.Tenant, error)
	GetDetails(ctx context.Context, id uuid.UUID) (*models.TenantDetails, error)
	List(ctx context.Context, q TenantQuery) ([]*models.TenantDetails, error)
	HasActive(ctx context.Context, userID, propertyID uuid.UUID) (bool, error)
	HasActiveForUser(ctx context.Context, userID uuid.UUID) (bool, error)
	Close(ctx context.Context, id uuid.UUID, status models.TenantStatus) (bool, error)
	CountActiveByOwners(ctx context.Context, owners []uuid.UUID) (int, error)
}

type tenantRepo struct {
	db DBTX
}

func NewTenantRepo(db DBTX) TenantRepository {
	return &tenantRepo{db: db}
}

const tenantColumns = `id, user_id, property_id, unit_id, lease_id, status, agent_id, created_by, created_at, updated_at`

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	t := &models.Tenant{}
	err := row.Scan(&t.ID, &t.UserID, &t.PropertyID, &t.UnitID, &t.LeaseID, &t.Status, &t.Agent, &t.CreatedBy,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return t, nil
}

const tenantDetailsSelect = `
		SELECT t.id, t.user_id, t.property_id, t.unit_id, t.lease_id, t.status, t.agent_id, t.created_by,
			t.created_at, t.updated_at,
			u.email, u.first_name, u.last_name, u.phone, u.role,
			l.start_date, l.end_date, l.rent_amount, l.deposit_amount, l.payment_due_day, l.status,
			p.title
		FROM tenants t
		JOIN users u ON u.id = t.user_id
		JOIN leases l ON l.id = t.lease_id
		JOIN properties p ON p.id = t.property_id`

func scanTenantDetails(row pgx.Row) (*models.TenantDetails, error) {
	d := &models.TenantDetails{User: &models.User{}, Lease: &models.Lease{}}
	err := row.Scan(&d.ID, &d.UserID, &d.PropertyID, &d.UnitID, &d.LeaseID, &d.Status, &d.Agent, &d.CreatedBy,
		&d.CreatedAt, &d.UpdatedAt,
		&d.User.Email, &d.User.FirstName, &d.User.LastName, &d.User.Phone, &d.User.Role,
		&d.Lease.StartDate, &d.Lease.EndDate, &d.Lease.RentAmount, &d.Lease.DepositAmount, &d.Lease.PaymentDueDay,
		&d.Lease.Status,
		&d.PropertyTitle)
	if err != nil {
		return nil, translate(err)
	}
	d.User.ID = d.UserID
	d.Lease.ID = d.LeaseID
	d.Lease.PropertyID = d.PropertyID
	d.Lease.UnitID = d.UnitID
	d.Lease.TenantUserID = d.UserID
	d.Lease.Agent = d.Agent
	d.Lease.CreatedBy = d.CreatedBy
	return d, nil
}

func (r *tenantRepo) Create(ctx context.Context, t *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, user_id, property_id, unit_id, lease_id, status, agent_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, t.ID, t.UserID, t.PropertyID, t.UnitID, t.LeaseID, t.Status, t.Agent, t.CreatedBy)
	return translate(err)
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	return scanTenant(r.db.QueryRow(ctx, query, id))
}

func (r *tenantRepo) GetByLeaseID(ctx context.Context, leaseID uuid.UUID) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE lease_id = $1`
	return scanTenant(r.db.QueryRow(ctx, query, leaseID))
}

// GetActiveByUnit returns the active tenancy of whoever currently holds the unit.
func (r *tenantRepo) GetActiveByUnit(ctx context.Context, propertyID, unitID uuid.UUID) (*models.Tenant, error) {
	query := `
		SELECT t.id, t.user_id, t.property_id, t.unit_id, t.lease_id, t.status, t.agent_id, t.created_by,
			t.created_at, t.updated_at
		FROM tenants t
		JOIN property_units pu ON pu.id = t.unit_id AND pu.tenant_id = t.user_id
		WHERE t.property_id = $1 AND t.unit_id = $2 AND t.status = 'active'
		ORDER BY t.created_at DESC
		LIMIT 1
	`
	return scanTenant(r.db.QueryRow(ctx, query, propertyID, unitID))
}

func (r *tenantRepo) GetDetails(ctx context.Context, id uuid.UUID) (*models.TenantDetails, error) {
	return scanTenantDetails(r.db.QueryRow(ctx, tenantDetailsSelect+` WHERE t.id = $1`, id))
}

func (r *tenantRepo) List(ctx context.Context, q TenantQuery) ([]*models.TenantDetails, error) {
	var (
		conds []string
		args  []any
	)
	if q.Owners != nil {
		args = append(args, q.Owners)
		conds = append(conds, fmt.Sprintf("(t.agent_id = ANY($%d) OR t.created_by = ANY($%d))", len(args), len(args)))
	}
	if q.Status != "" {
		args = append(args, q.Status)
		conds = append(conds, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if q.PropertyID != nil {
		args = append(args, *q.PropertyID)
		conds = append(conds, fmt.Sprintf("t.property_id = $%d", len(args)))
	}

	query := tenantDetailsSelect
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, q.Limit, q.Offset)
	query += fmt.Sprintf(` ORDER BY t.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.TenantDetails
	for rows.Next() {
		d, err := scanTenantDetails(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, d)
	}
	return tenants, rows.Err()
}

func (r *tenantRepo) HasActive(ctx context.Context, userID, propertyID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM tenants WHERE user_id = $1 AND property_id = $2 AND status = 'active')`
	err := r.db.QueryRow(ctx, query, userID, propertyID).Scan(&exists)
	return exists, err
}

func (r *tenantRepo) HasActiveForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM tenants WHERE user_id = $1 AND status = 'active')`
	err := r.db.QueryRow(ctx, query, userID).Scan(&exists)
	return exists, err
}

// Close moves an active tenant record to a closed status. False means it was not active.
func (r *tenantRepo) Close(ctx context.Context, id uuid.UUID, status models.TenantStatus) (bool, error) {
	query := `UPDATE tenants SET status = $1, updated_at = NOW() WHERE id = $2 AND status = 'active'`
	tag, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CountActiveByOwners counts active tenancies whose agent or onboarding user is in owners.
// Nil counts everything.
func (r *tenantRepo) CountActiveByOwners(ctx context.Context, owners []uuid.UUID) (int, error) {
	var args []any
	query := `SELECT COUNT(*) FROM tenants WHERE status = 'active'`
	if owners != nil {
		args = append(args, owners)
		query += ` AND (agent_id = ANY($1) OR created_by = ANY($1))`
	}
	var count int
	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}
