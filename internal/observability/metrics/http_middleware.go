package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// HTTPMetricsMiddleware instruments requests with Prometheus metrics. The route template is
// used as the path label to keep cardinality bounded.
func HTTPMetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			ObserveHTTPRequest(c.Request().Method, path, strconv.Itoa(c.Response().Status), time.Since(start))
			return nil
		}
	}
}
