package background

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"rentalhub/internal/common"
	"rentalhub/internal/jobs"
	"rentalhub/internal/observability/metrics"

	"github.com/go-co-op/gocron/v2"
)

const jobTimeout = 5 * time.Minute

// JobStatus reports one registered job.
type JobStatus struct {
	Name    string     `json:"name"`
	LastRun *time.Time `json:"lastRun,omitempty"`
	NextRun *time.Time `json:"nextRun,omitempty"`
}

// JobScheduler runs the lease maintenance jobs on a fixed interval.
type JobScheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	interval  time.Duration
	runners   map[string]jobs.Job
	jobJobs   map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler registers every runner as a singleton duration job.
func NewJobScheduler(logger *slog.Logger, interval time.Duration, runners ...jobs.Job) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	if interval <= 0 {
		interval = time.Hour
	}

	js := &JobScheduler{
		scheduler: scheduler,
		logger:    logger,
		interval:  interval,
		runners:   make(map[string]jobs.Job, len(runners)),
		jobJobs:   make(map[string]gocron.Job, len(runners)),
	}
	if err := js.registerJobs(runners); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler", slog.Int("jobs", len(js.jobJobs)), slog.Duration("interval", js.interval))
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs(runners []jobs.Job) error {
	for _, runner := range runners {
		job, err := js.scheduler.NewJob(
			gocron.DurationJob(js.interval),
			gocron.NewTask(func() { js.execute(runner) }),
			gocron.WithName(runner.Name()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("register job %s: %w", runner.Name(), err)
		}
		js.runners[runner.Name()] = runner
		js.jobJobs[runner.Name()] = job
	}
	return nil
}

func (js *JobScheduler) execute(runner jobs.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	_ = js.run(ctx, runner)
}

func (js *JobScheduler) run(ctx context.Context, runner jobs.Job) error {
	start := time.Now()
	err := runner.Run(ctx)
	if err != nil {
		metrics.ObserveJobRun(runner.Name(), "failure")
		js.logger.Error("job failed", slog.String("job", runner.Name()), slog.String("error", err.Error()))
		return err
	}
	metrics.ObserveJobRun(runner.Name(), "success")
	js.logger.Debug("job finished", slog.String("job", runner.Name()), slog.Duration("took", time.Since(start)))
	return nil
}

// RunNow executes a registered job synchronously, outside its schedule.
func (js *JobScheduler) RunNow(ctx context.Context, name string) error {
	js.mu.RLock()
	runner, ok := js.runners[name]
	js.mu.RUnlock()
	if !ok {
		return common.NewNotFoundError("Job")
	}
	return js.run(ctx, runner)
}

// GetJobStatus lists registered jobs sorted by name.
func (js *JobScheduler) GetJobStatus() []JobStatus {
	js.mu.RLock()
	defer js.mu.RUnlock()

	out := make([]JobStatus, 0, len(js.jobJobs))
	for name, job := range js.jobJobs {
		status := JobStatus{Name: name}
		if last, err := job.LastRun(); err == nil && !last.IsZero() {
			status.LastRun = &last
		}
		if next, err := job.NextRun(); err == nil && !next.IsZero() {
			status.NextRun = &next
		}
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
