package jobs

import (
	"context"
	"time"
)

// Job is one unit of scheduled work. Runs must be idempotent: a job only acts on records
// that still match its time window.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// LeaseSweeper is implemented by the tenant service.
type LeaseSweeper interface {
	ExpireLeases(ctx context.Context, asOf time.Time) (int, error)
	RemindEndingLeases(ctx context.Context, now time.Time, within time.Duration) (int, error)
}
