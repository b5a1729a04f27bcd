package handlers

import (
	"net/http"

	"rentalhub/internal/common"
	"rentalhub/internal/models"
	"rentalhub/internal/services"

	"github.com/labstack/echo/v4"
)

// UserHandlers handles account provisioning and hierarchy-scoped user reads
type UserHandlers struct {
	userService services.UserService
}

func NewUserHandlers(userService services.UserService) *UserHandlers {
	return &UserHandlers{userService: userService}
}

// CreateUser provisions an account one tier below the caller
func (h *UserHandlers) CreateUser(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req services.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}

	user, err := h.userService.Create(c.Request().Context(), actor, req)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusCreated, user)
}

// ListUsers returns the users visible to the caller
func (h *UserHandlers) ListUsers(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, offset, err := pagination(c)
	if err != nil {
		return common.SendError(c, err)
	}
	users, err := h.userService.List(c.Request().Context(), actor, services.UserListFilter{
		Role:   c.QueryParam("role"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, map[string]any{
		"users":  users,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *UserHandlers) GetUser(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	id, err := pathUUID(c, "id", "user ID")
	if err != nil {
		return common.SendError(c, err)
	}
	user, err := h.userService.Get(c.Request().Context(), actor, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, user)
}

// UpdatePermissions replaces an employee's permission flags
func (h *UserHandlers) UpdatePermissions(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	id, err := pathUUID(c, "id", "user ID")
	if err != nil {
		return common.SendError(c, err)
	}
	var perms models.EmployeePermissions
	if err := c.Bind(&perms); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}

	user, err := h.userService.UpdatePermissions(c.Request().Context(), actor, id, perms)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, user)
}

func (h *UserHandlers) DeleteUser(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	id, err := pathUUID(c, "id", "user ID")
	if err != nil {
		return common.SendError(c, err)
	}
	if err := h.userService.Delete(c.Request().Context(), actor, id); err != nil {
		return common.SendError(c, err)
	}
	return common.SendMessage(c, "User deleted")
}
