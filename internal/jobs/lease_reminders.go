package jobs

import (
	"context"
	"log/slog"
	"time"
)

// LeaseReminderJob notifies tenants whose lease ends within the reminder window.
type LeaseReminderJob struct {
	tenants LeaseSweeper
	within  time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func NewLeaseReminderJob(tenants LeaseSweeper, reminderDays int, logger *slog.Logger) *LeaseReminderJob {
	if reminderDays <= 0 {
		reminderDays = 30
	}
	return &LeaseReminderJob{
		tenants: tenants,
		within:  time.Duration(reminderDays) * 24 * time.Hour,
		logger:  logger,
		now:     time.Now,
	}
}

func (j *LeaseReminderJob) Name() string { return "lease-reminders" }

func (j *LeaseReminderJob) Run(ctx context.Context) error {
	sent, err := j.tenants.RemindEndingLeases(ctx, j.now().UTC(), j.within)
	if err != nil {
		return err
	}
	if sent > 0 {
		j.logger.Info("lease reminders queued", slog.Int("count", sent))
	}
	return nil
}
