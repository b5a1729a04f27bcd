package repositories

import (
	"context"
	"time"

	"rentalhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type LeaseRepository interface {
	Create(ctx context.Context, lease *models.Lease) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lease, error)
	Close(ctx context.Context, id uuid.UUID, status models.TenantStatus) (bool, error)
	ListExpired(ctx context.Context, asOf time.Time, limit int) ([]*models.Lease, error)
	ListEndingBetween(ctx context.Context, from, to time.Time) ([]*models.Lease, error)
}

type leaseRepo struct {
	db DBTX
}

func NewLeaseRepo(db DBTX) LeaseRepository {
	return &leaseRepo{db: db}
}

const leaseColumns = `id, property_id, unit_id, tenant_user_id, start_date, end_date, rent_amount, deposit_amount,
		payment_due_day, status, agent_id, created_by, created_at, updated_at`

func scanLease(row pgx.Row) (*models.Lease, error) {
	l := &models.Lease{}
	err := row.Scan(&l.ID, &l.PropertyID, &l.UnitID, &l.TenantUserID, &l.StartDate, &l.EndDate, &l.RentAmount,
		&l.DepositAmount, &l.PaymentDueDay, &l.Status, &l.Agent, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return l, nil
}

func (r *leaseRepo) Create(ctx context.Context, l *models.Lease) error {
	query := `
		INSERT INTO leases (id, property_id, unit_id, tenant_user_id, start_date, end_date, rent_amount,
			deposit_amount, payment_due_day, status, agent_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, l.ID, l.PropertyID, l.UnitID, l.TenantUserID, l.StartDate, l.EndDate,
		l.RentAmount, l.DepositAmount, l.PaymentDueDay, l.Status, l.Agent, l.CreatedBy)
	return translate(err)
}

func (r *leaseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Lease, error) {
	query := `SELECT ` + leaseColumns + ` FROM leases WHERE id = $1`
	return scanLease(r.db.QueryRow(ctx, query, id))
}

// Close is the only write a lease accepts after creation. False means it was not active.
func (r *leaseRepo) Close(ctx context.Context, id uuid.UUID, status models.TenantStatus) (bool, error) {
	query := `UPDATE leases SET status = $1, updated_at = NOW() WHERE id = $2 AND status = 'active'`
	tag, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *leaseRepo) ListExpired(ctx context.Context, asOf time.Time, limit int) ([]*models.Lease, error) {
	query := `SELECT ` + leaseColumns + ` FROM leases WHERE status = 'active' AND end_date < $1 ORDER BY end_date LIMIT $2`
	return r.list(ctx, query, asOf, limit)
}

func (r *leaseRepo) ListEndingBetween(ctx context.Context, from, to time.Time) ([]*models.Lease, error) {
	query := `SELECT ` + leaseColumns + ` FROM leases WHERE status = 'active' AND end_date >= $1 AND end_date < $2 ORDER BY end_date`
	return r.list(ctx, query, from, to)
}

func (r *leaseRepo) list(ctx context.Context, query string, args ...any) ([]*models.Lease, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leases []*models.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, err
		}
		leases = append(leases, l)
	}
	return leases, rows.Err()
}
