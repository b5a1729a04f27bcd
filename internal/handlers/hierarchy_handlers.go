package handlers

import (
	"context"
	"net/http"
	"time"

	"rentalhub/internal/common"
	"rentalhub/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// HierarchyReporter is implemented by analytics.AnalyticsService.
type HierarchyReporter interface {
	ListAgents(ctx context.Context, actor *models.User) ([]*models.AgentSummary, error)
	AgentHierarchy(ctx context.Context, actor *models.User, agentID uuid.UUID) (*models.AgentHierarchy, error)
	Billing(ctx context.Context, actor *models.User, from, to time.Time) (*models.BillingReport, error)
}

// HierarchyHandlers serves the agent rollups and billing reports
type HierarchyHandlers struct {
	reports HierarchyReporter
}

func NewHierarchyHandlers(reports HierarchyReporter) *HierarchyHandlers {
	return &HierarchyHandlers{reports: reports}
}

func (h *HierarchyHandlers) ListAgents(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	agents, err := h.reports.ListAgents(c.Request().Context(), actor)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, agents)
}

func (h *HierarchyHandlers) GetAgent(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	agentID, err := pathUUID(c, "agentId", "agent ID")
	if err != nil {
		return common.SendError(c, err)
	}

	tree, err := h.reports.AgentHierarchy(c.Request().Context(), actor, agentID)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, tree)
}

// Billing reports collected rent and platform fees over ?from=&to=, defaulting to this month
// @Summary      Billing report
// @Tags         hierarchy
// @Produce      json
// @Param        from  query     string  false  "Start date (YYYY-MM-DD)"
// @Param        to    query     string  false  "End date, exclusive (YYYY-MM-DD)"
// @Success      200   {object}  common.Response
// @Router       /hierarchy/billing [get]
func (h *HierarchyHandlers) Billing(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var from, to time.Time
	var err error
	if v := c.QueryParam("from"); v != "" {
		if from, err = common.ParseDate(v, "from"); err != nil {
			return common.SendError(c, err)
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if to, err = common.ParseDate(v, "to"); err != nil {
			return common.SendError(c, err)
		}
	}

	report, err := h.reports.Billing(c.Request().Context(), actor, from, to)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, report)
}
