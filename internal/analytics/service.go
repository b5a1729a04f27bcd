package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"rentalhub/internal/caching"
	"rentalhub/internal/common"
	"rentalhub/internal/hierarchy"
	"rentalhub/internal/models"
	"rentalhub/internal/repositories"

	"github.com/google/uuid"
)

const (
	reportCacheTTL = 10 * time.Minute
	agentPageSize  = 1000
)

// AnalyticsService builds the read-only hierarchy and billing rollups.
type AnalyticsService struct {
	store          repositories.Store
	resolver       hierarchy.Resolver
	cacheService   caching.CacheService
	commissionRate float64
	logger         *slog.Logger
	now            func() time.Time
}

func NewAnalyticsService(store repositories.Store, resolver hierarchy.Resolver, cacheService caching.CacheService,
	commissionRate float64, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{
		store:          store,
		resolver:       resolver,
		cacheService:   cacheService,
		commissionRate: commissionRate,
		logger:         logger,
		now:            time.Now,
	}
}

// ListAgents returns every agent-tier account with its counts. Admin only.
func (a *AnalyticsService) ListAgents(ctx context.Context, actor *models.User) ([]*models.AgentSummary, error) {
	if actor.Role != models.RoleAdmin {
		return nil, common.NewAuthorizationError("Only admins can list agents")
	}
	agents, err := a.agents(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]*models.AgentSummary, 0, len(agents))
	for _, agent := range agents {
		counts, err := a.counts(ctx, agent)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, &models.AgentSummary{Agent: agent, Counts: counts})
	}
	return summaries, nil
}

// AgentHierarchy is visible to admins and to the agent itself.
func (a *AnalyticsService) AgentHierarchy(ctx context.Context, actor *models.User, agentID uuid.UUID) (*models.AgentHierarchy, error) {
	if actor.Role != models.RoleAdmin && actor.ID != agentID {
		return nil, common.NewAuthorizationError("You are not authorized to view this agent")
	}
	agent, err := a.store.Users().GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundError("Agent")
		}
		return nil, fmt.Errorf("load agent: %w", err)
	}
	if !agent.Role.IsAgentTier() {
		return nil, common.NewNotFoundError("Agent")
	}

	employees, err := a.store.Users().List(ctx, repositories.UserFilter{
		Role:      models.RoleEmployee,
		CreatedBy: []uuid.UUID{agentID},
		Limit:     agentPageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	if employees == nil {
		employees = []*models.User{}
	}
	counts, err := a.counts(ctx, agent)
	if err != nil {
		return nil, err
	}

	return &models.AgentHierarchy{Agent: agent, Employees: employees, Counts: counts}, nil
}

// Billing sums completed payments per agent over [from, to). Zero bounds default to the current month.
// Admins see every agent, agents see themselves.
func (a *AnalyticsService) Billing(ctx context.Context, actor *models.User, from, to time.Time) (*models.BillingReport, error) {
	var agents []*models.User
	switch {
	case actor.Role == models.RoleAdmin:
	case actor.Role.IsAgentTier():
		agents = []*models.User{actor}
	default:
		return nil, common.NewAuthorizationError("Only agents and admins can view billing")
	}

	from, to = a.billingRange(from, to)
	if !to.After(from) {
		return nil, common.NewValidationError("to must be after from")
	}

	scope := "all"
	if agents != nil {
		scope = actor.ID.String()
	}
	key := fmt.Sprintf("billing:%s:%d:%d", scope, from.Unix(), to.Unix())
	if cached := a.cachedReport(ctx, key); cached != nil {
		return cached, nil
	}

	if agents == nil {
		var err error
		if agents, err = a.agents(ctx); err != nil {
			return nil, err
		}
	}
	totals, err := a.store.Payments().TotalsByAgent(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("sum payments: %w", err)
	}

	report := &models.BillingReport{From: from, To: to, Agents: make([]*models.AgentBilling, 0, len(agents))}
	for _, agent := range agents {
		counts, err := a.counts(ctx, agent)
		if err != nil {
			return nil, err
		}
		t := totals[agent.ID]
		fee := roundCents(t.Total * a.commissionRate)
		report.Agents = append(report.Agents, &models.AgentBilling{
			AgentID:        agent.ID,
			AgentName:      agent.FullName(),
			TotalCollected: roundCents(t.Total),
			CommissionRate: a.commissionRate,
			PlatformFee:    fee,
			NetPayout:      roundCents(t.Total - fee),
			PaymentCount:   t.Count,
			Counts:         counts,
		})
		report.GrandTotal += t.Total
		report.PlatformFee += fee
	}
	report.GrandTotal = roundCents(report.GrandTotal)
	report.PlatformFee = roundCents(report.PlatformFee)

	a.cacheReport(ctx, key, report)
	return report, nil
}

func (a *AnalyticsService) billingRange(from, to time.Time) (time.Time, time.Time) {
	if from.IsZero() {
		now := a.now().UTC()
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = time.Date(from.Year(), from.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	}
	return from, to
}

func (a *AnalyticsService) agents(ctx context.Context) ([]*models.User, error) {
	var all []*models.User
	for _, role := range []models.Role{models.RoleAgent, models.RoleLandlord} {
		users, err := a.store.Users().List(ctx, repositories.UserFilter{Role: role, Limit: agentPageSize})
		if err != nil {
			return nil, fmt.Errorf("list %s accounts: %w", role, err)
		}
		all = append(all, users...)
	}
	return all, nil
}

// counts uses the same owner scope as the agent's own listings and stats.
func (a *AnalyticsService) counts(ctx context.Context, agent *models.User) (models.HierarchyCounts, error) {
	var counts models.HierarchyCounts
	scope, err := a.resolver.ResolveVisibleOwners(ctx, agent)
	if err != nil {
		return counts, err
	}
	counts.Employees = len(scope.EmployeeIDs)
	owners := scope.Owners()
	if counts.Properties, err = a.store.Properties().CountByOwners(ctx, owners); err != nil {
		return counts, fmt.Errorf("count properties: %w", err)
	}
	if counts.Tenants, err = a.store.Tenants().CountActiveByOwners(ctx, owners); err != nil {
		return counts, fmt.Errorf("count tenants: %w", err)
	}
	return counts, nil
}

func (a *AnalyticsService) cachedReport(ctx context.Context, key string) *models.BillingReport {
	raw, err := a.cacheService.GetString(ctx, key)
	if err != nil {
		a.logger.Warn("billing cache read failed", slog.String("error", err.Error()))
		return nil
	}
	if raw == "" {
		return nil
	}
	var report models.BillingReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil
	}
	return &report
}

func (a *AnalyticsService) cacheReport(ctx context.Context, key string, report *models.BillingReport) {
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := a.cacheService.SetString(ctx, key, string(raw), reportCacheTTL); err != nil {
		a.logger.Warn("billing cache write failed", slog.String("error", err.Error()))
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
