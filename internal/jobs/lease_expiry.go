package jobs

import (
	"context"
	"log/slog"
	"time"
)

// LeaseExpiryJob closes every active lease whose end date has passed and frees the occupancy it held.
type LeaseExpiryJob struct {
	tenants LeaseSweeper
	logger  *slog.Logger
	now     func() time.Time
}

func NewLeaseExpiryJob(tenants LeaseSweeper, logger *slog.Logger) *LeaseExpiryJob {
	return &LeaseExpiryJob{tenants: tenants, logger: logger, now: time.Now}
}

func (j *LeaseExpiryJob) Name() string { return "lease-expiry" }

func (j *LeaseExpiryJob) Run(ctx context.Context) error {
	asOf := j.now().UTC()
	expired, err := j.tenants.ExpireLeases(ctx, asOf)
	if expired > 0 {
		j.logger.Info("leases expired", slog.Int("count", expired), slog.Time("as_of", asOf))
	}
	return err
}
