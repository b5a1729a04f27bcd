package common

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rentalhub/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	RoleKey   contextKey = "role"
	ActorKey  contextKey = "actor"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// SendSuccess writes a success envelope
func SendSuccess(c echo.Context, code int, data any) error {
	return c.JSON(code, Response{Status: "success", Data: data})
}

// SendMessage writes a success envelope carrying only a message
func SendMessage(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, Response{Status: "success", Message: message})
}

// SendFailure writes an error envelope with the given status code
func SendFailure(c echo.Context, code int, message string) error {
	return c.JSON(code, Response{Status: "error", Message: message})
}

// SendValidationError sends a validation error response
func SendValidationError(c echo.Context, message string) error {
	return SendFailure(c, http.StatusBadRequest, message)
}

// SendUnauthorizedError sends an unauthorized error response
func SendUnauthorizedError(c echo.Context) error {
	return SendFailure(c, http.StatusUnauthorized, "Unauthorized access")
}

// SendError maps a service error onto the HTTP taxonomy. Fatal errors are logged
// and answered with a generic message.
func SendError(c echo.Context, err error) error {
	kind, ok := KindOf(err)
	if !ok {
		slog.Default().Error("request failed",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		return SendFailure(c, http.StatusInternalServerError, "Internal server error")
	}
	return SendFailure(c, StatusForKind(kind), err.Error())
}

func StatusForKind(kind ErrorKind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// WithActor stores the authenticated user on the context.
func WithActor(ctx context.Context, actor *models.User) context.Context {
	ctx = context.WithValue(ctx, ActorKey, actor)
	ctx = context.WithValue(ctx, UserIDKey, actor.ID)
	return context.WithValue(ctx, RoleKey, actor.Role)
}

// GetActorFromContext extracts the authenticated user from the request context
func GetActorFromContext(ctx context.Context) (*models.User, bool) {
	actor, ok := ctx.Value(ActorKey).(*models.User)
	return actor, ok && actor != nil
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// ValidateUUID validates UUID format with comprehensive checks
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, NewValidationError("%s is required", fieldName)
	}
	if len(idStr) != 36 {
		return uuid.Nil, NewValidationError("%s must be exactly 36 characters (including hyphens)", fieldName)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, NewValidationError("%s is not a valid id", fieldName)
	}
	return id, nil
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError("%s is required", fieldName)
	}
	return nil
}

// ValidatePositiveFloat validates positive float values with upper bounds
func ValidatePositiveFloat(value float64, fieldName string, maxValue float64) error {
	if value <= 0 {
		return NewValidationError("%s must be positive", fieldName)
	}
	if value > maxValue {
		return NewValidationError("%s cannot exceed %.2f", fieldName, maxValue)
	}
	return nil
}

// ParseDate accepts YYYY-MM-DD or RFC3339.
func ParseDate(value, fieldName string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, NewValidationError("%s is required", fieldName)
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, NewValidationError("%s must be in YYYY-MM-DD format", fieldName)
	}
	return t, nil
}

// ValidateDateRange validates date ranges to prevent abuse
func ValidateDateRange(startDate, endDate time.Time) error {
	if !endDate.After(startDate) {
		return NewValidationError("end date must be after start date")
	}
	if endDate.Sub(startDate) > time.Hour*24*365*10 {
		return NewValidationError("date range cannot exceed 10 years")
	}
	return nil
}

// ValidatePaginationParams validates pagination parameters
func ValidatePaginationParams(limit, offset int) (int, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	if offset > 1000000 {
		return 0, 0, NewValidationError("offset cannot exceed 1,000,000")
	}
	return limit, offset, nil
}

// SafeString safely handles string pointer operations
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
