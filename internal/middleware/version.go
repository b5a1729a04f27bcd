package middleware

import (
	"net/http"
	"strings"
	"time"

	"rentalhub/internal/common"

	"github.com/labstack/echo/v4"
)

// APIVersion represents API version information
type APIVersion struct {
	Version    string     `json:"version"`
	Status     string     `json:"status"` // "active", "deprecated"
	SunsetDate *time.Time `json:"sunsetDate,omitempty"`
	Message    string     `json:"message,omitempty"`
}

// VersionMiddleware stamps responses with the API and build version and rejects unknown
// Accept-Version requests.
type VersionMiddleware struct {
	build             string
	supportedVersions map[string]APIVersion
	defaultVersion    string
}

func NewVersionMiddleware(build string) *VersionMiddleware {
	return &VersionMiddleware{
		build: build,
		supportedVersions: map[string]APIVersion{
			"v1": {Version: "v1", Status: "active", Message: "Current stable API version"},
		},
		defaultVersion: "v1",
	}
}

func (vm *VersionMiddleware) Handler() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			version := vm.defaultVersion
			if requested := strings.TrimSpace(c.Request().Header.Get("Accept-Version")); requested != "" {
				if _, ok := vm.supportedVersions[requested]; !ok {
					return common.SendFailure(c, http.StatusNotFound, "Unsupported API version")
				}
				version = requested
			}

			h := c.Response().Header()
			h.Set("X-API-Version", version)
			h.Set("X-Build-Version", vm.build)
			if ver := vm.supportedVersions[version]; ver.Status == "deprecated" {
				h.Set("X-API-Deprecated", "true")
				if ver.SunsetDate != nil {
					h.Set("X-API-Sunset", ver.SunsetDate.Format(time.RFC3339))
				}
			}
			c.Set("api_version", version)
			return next(c)
		}
	}
}

// Versions lists every version still served.
func (vm *VersionMiddleware) Versions() []APIVersion {
	out := make([]APIVersion, 0, len(vm.supportedVersions))
	for _, v := range vm.supportedVersions {
		out = append(out, v)
	}
	return out
}
