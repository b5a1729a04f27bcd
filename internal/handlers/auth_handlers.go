package handlers

import (
	"errors"
	"net/http"

	"rentalhub/internal/common"
	"rentalhub/internal/models"
	"rentalhub/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles authentication and the caller's own profile
type AuthHandlers struct {
	authService services.AuthService
	userService services.UserService
}

func NewAuthHandlers(authService services.AuthService, userService services.UserService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		userService: userService,
	}
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest represents the change password payload
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Register handles seeker self-registration
// @Summary      Register
// @Description  Creates a seeker account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      services.RegisterRequest  true  "Account details"
// @Success      201      {object}  common.Response
// @Router       /auth/register [post]
func (h *AuthHandlers) Register(c echo.Context) error {
	var req services.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}

	user, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusCreated, user)
}

// Login handles user login with email and password
// @Summary      Login
// @Description  Authenticates a user and returns an access and refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "Login credentials"
// @Success      200      {object}  common.Response
// @Failure      401      {object}  common.Response
// @Router       /auth/login [post]
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}

	tokens, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return common.SendFailure(c, http.StatusUnauthorized, "Invalid email or password")
		}
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, tokens)
}

// RefreshToken exchanges a refresh token for a new token pair
func (h *AuthHandlers) RefreshToken(c echo.Context) error {
	var req models.RefreshTokenRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return common.SendValidationError(c, "refreshToken is required")
	}

	tokens, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return common.SendFailure(c, http.StatusUnauthorized, "Invalid or expired refresh token")
		}
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, tokens)
}

func (h *AuthHandlers) Logout(c echo.Context) error {
	var req models.RefreshTokenRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return common.SendValidationError(c, "refreshToken is required")
	}
	if err := h.authService.RevokeRefreshToken(c.Request().Context(), req.RefreshToken); err != nil {
		return common.SendError(c, err)
	}
	return common.SendMessage(c, "Logged out")
}

func (h *AuthHandlers) ChangePassword(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}
	if err := h.authService.ChangePassword(c.Request().Context(), actor.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return common.SendError(c, err)
	}
	return common.SendMessage(c, "Password changed")
}

// Me returns the authenticated user
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Param        Authorization  header    string  true  "Bearer JWT token"
// @Success      200            {object}  common.Response
// @Router       /me [get]
func (h *AuthHandlers) Me(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	return common.SendSuccess(c, http.StatusOK, actor)
}

// UpdateMe edits the caller's name and phone
func (h *AuthHandlers) UpdateMe(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req services.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}
	user, err := h.userService.UpdateProfile(c.Request().Context(), actor, req)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, user)
}
