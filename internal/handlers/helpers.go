package handlers

import (
	"strconv"

	"rentalhub/internal/common"
	"rentalhub/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// actorFrom returns the authenticated user. Routes behind JWTMiddleware always have one.
func actorFrom(c echo.Context) (*models.User, bool) {
	return common.GetActorFromContext(c.Request().Context())
}

func pathUUID(c echo.Context, param, field string) (uuid.UUID, error) {
	return common.ValidateUUID(c.Param(param), field)
}

// pagination reads limit/offset query params with the shared defaults.
func pagination(c echo.Context) (int, int, error) {
	limit, offset := 0, 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, common.NewValidationError("limit must be a number")
		}
		limit = n
	}
	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, common.NewValidationError("offset must be a number")
		}
		offset = n
	}
	return common.ValidatePaginationParams(limit, offset)
}

func optionalFloat(c echo.Context, name string) (*float64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, common.NewValidationError("%s must be a number", name)
	}
	return &f, nil
}

func optionalUUID(c echo.Context, name string) (*uuid.UUID, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	id, err := common.ValidateUUID(v, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
