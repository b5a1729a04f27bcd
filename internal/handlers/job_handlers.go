package handlers

import (
	"context"
	"net/http"

	"rentalhub/internal/common"
	"rentalhub/internal/jobs/background"

	"github.com/labstack/echo/v4"
)

// JobRunner is implemented by background.JobScheduler.
type JobRunner interface {
	RunNow(ctx context.Context, name string) error
	GetJobStatus() []background.JobStatus
}

// JobHandlers lets admins inspect and trigger the scheduled jobs
type JobHandlers struct {
	runner JobRunner
}

func NewJobHandlers(runner JobRunner) *JobHandlers {
	return &JobHandlers{runner: runner}
}

func (h *JobHandlers) ListJobs(c echo.Context) error {
	return common.SendSuccess(c, http.StatusOK, h.runner.GetJobStatus())
}

// RunJob executes a job synchronously, e.g. POST /admin/jobs/lease-expiry/run
func (h *JobHandlers) RunJob(c echo.Context) error {
	name := c.Param("name")
	if err := h.runner.RunNow(c.Request().Context(), name); err != nil {
		return common.SendError(c, err)
	}
	return common.SendMessage(c, "Job "+name+" completed")
}
