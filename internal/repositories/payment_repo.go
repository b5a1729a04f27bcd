package repositories

import (
	"context"
	"time"

	"rentalhub/internal/models"

	"github.com/google/uuid"
)

// PaymentRepository is read-only; rows are written by the payment pipeline.
type PaymentRepository interface {
	TotalsByAgent(ctx context.Context, from, to time.Time) (map[uuid.UUID]models.PaymentTotals, error)
}

type paymentRepo struct {
	db DBTX
}

func NewPaymentRepo(db DBTX) PaymentRepository {
	return &paymentRepo{db: db}
}

// TotalsByAgent sums completed payments with from <= paid_at < to, grouped by agent.
func (r *paymentRepo) TotalsByAgent(ctx context.Context, from, to time.Time) (map[uuid.UUID]models.PaymentTotals, error) {
	query := `
		SELECT agent_id, COALESCE(SUM(amount), 0)::float8, COUNT(*)
		FROM payments
		WHERE status = 'completed' AND paid_at >= $1 AND paid_at < $2
		GROUP BY agent_id
	`
	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := map[uuid.UUID]models.PaymentTotals{}
	for rows.Next() {
		var (
			agentID uuid.UUID
			t       models.PaymentTotals
		)
		if err := rows.Scan(&agentID, &t.Total, &t.Count); err != nil {
			return nil, err
		}
		totals[agentID] = t
	}
	return totals, rows.Err()
}
