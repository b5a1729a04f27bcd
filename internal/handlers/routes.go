package handlers

import (
	"rentalhub/internal/middleware"
	"rentalhub/internal/models"

	"github.com/labstack/echo/v4"
)

// Handlers groups every route handler the API mounts. Jobs is optional.
type Handlers struct {
	Auth       *AuthHandlers
	Users      *UserHandlers
	Properties *PropertyHandlers
	Tenants    *TenantHandlers
	Hierarchy  *HierarchyHandlers
	Health     *HealthHandlers
	Jobs       *JobHandlers
}

// RegisterRoutes mounts the API on e. Everything except health, login/registration and public
// property browsing requires a bearer token.
func RegisterRoutes(e *echo.Echo, h *Handlers, auth middleware.TokenAuthenticator) {
	requireAuth := middleware.JWTMiddleware(auth)
	agentTier := middleware.RequireRoles(models.RoleAgent, models.RoleLandlord)
	reviewers := middleware.RequireRoles(models.RoleAgent, models.RoleLandlord, models.RoleAdmin)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	if h.Health != nil {
		e.GET("/health", h.Health.HealthCheck)
		e.GET("/health/ready", h.Health.ReadinessCheck)
	}

	authGroup := e.Group("/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.RefreshToken)
	authGroup.POST("/logout", h.Auth.Logout)
	authGroup.POST("/change-password", h.Auth.ChangePassword, requireAuth)

	e.GET("/me", h.Auth.Me, requireAuth)
	e.PATCH("/me", h.Auth.UpdateMe, requireAuth)

	users := e.Group("/users", requireAuth)
	users.POST("", h.Users.CreateUser)
	users.GET("", h.Users.ListUsers)
	users.GET("/:id", h.Users.GetUser)
	users.PATCH("/:id/permissions", h.Users.UpdatePermissions, agentTier)
	users.DELETE("/:id", h.Users.DeleteUser, adminOnly)

	properties := e.Group("/properties")
	properties.GET("", h.Properties.ListPublic)
	properties.GET("/:id", h.Properties.GetProperty, middleware.OptionalJWT(auth))
	properties.GET("/pending", h.Properties.ListPending, requireAuth, reviewers)
	properties.GET("/my-properties", h.Properties.ListMine, requireAuth)
	properties.GET("/company-properties", h.Properties.ListCompany, requireAuth)
	properties.GET("/stats", h.Properties.Stats, requireAuth)
	properties.POST("", h.Properties.CreateProperty, requireAuth,
		middleware.RequireRoles(models.RoleAgent, models.RoleLandlord, models.RoleEmployee, models.RoleAdmin))
	properties.PATCH("/:id", h.Properties.UpdateProperty, requireAuth)
	properties.DELETE("/:id", h.Properties.DeleteProperty, requireAuth)
	properties.PATCH("/:id/approve", h.Properties.Approve, requireAuth, reviewers)
	properties.PATCH("/:id/reject", h.Properties.Reject, requireAuth, reviewers)
	properties.PATCH("/:id/availability", h.Properties.SetAvailability, requireAuth)
	properties.POST("/:id/images", h.Properties.UploadImage, requireAuth)
	properties.POST("/:id/units", h.Properties.AddUnits, requireAuth)
	properties.PATCH("/:id/units/:unitId", h.Properties.UpdateUnit, requireAuth)
	properties.DELETE("/:id/units/:unitId", h.Properties.DeleteUnit, requireAuth)
	properties.PATCH("/:id/units/:unitId/occupy", h.Properties.OccupyUnit, requireAuth)
	properties.PATCH("/:id/units/:unitId/vacate", h.Properties.VacateUnit, requireAuth)

	tenants := e.Group("/tenants", requireAuth)
	tenants.POST("", h.Tenants.CreateTenant)
	tenants.GET("", h.Tenants.ListTenants)
	tenants.GET("/:id", h.Tenants.GetTenant)
	tenants.DELETE("/:id", h.Tenants.DeleteTenant, reviewers)

	hierarchy := e.Group("/hierarchy", requireAuth)
	hierarchy.GET("/agents", h.Hierarchy.ListAgents, adminOnly)
	hierarchy.GET("/agent/:agentId", h.Hierarchy.GetAgent, reviewers)
	hierarchy.GET("/billing", h.Hierarchy.Billing, reviewers)

	if h.Jobs != nil {
		jobs := e.Group("/admin/jobs", requireAuth, adminOnly)
		jobs.GET("", h.Jobs.ListJobs)
		jobs.POST("/:name/run", h.Jobs.RunJob)
	}
}
