package middleware

import (
	"net/http"

	"rentalhub/internal/common"
	"rentalhub/internal/models"

	"github.com/labstack/echo/v4"
)

// RequireRoles is the coarse role gate in front of a route. Hierarchy scoping stays in the services.
func RequireRoles(roles ...models.Role) echo.MiddlewareFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := common.GetActorFromContext(c.Request().Context())
			if !ok {
				return common.SendUnauthorizedError(c)
			}
			if _, ok := allowed[actor.Role]; !ok {
				return common.SendFailure(c, http.StatusForbidden, "Insufficient permissions")
			}
			return next(c)
		}
	}
}
