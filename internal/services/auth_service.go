package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rentalhub/internal/caching"
	"rentalhub/internal/common"
	"rentalhub/internal/models"
	"rentalhub/internal/repositories"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	loginAttemptLimit  = 5
	loginAttemptWindow = 15 * time.Minute
)

var ErrInvalidToken = errors.New("invalid token")

// AuthService is the token issuer and credential verifier.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
	RevokeRefreshToken(ctx context.Context, refreshToken string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error

	GenerateTokens(ctx context.Context, user *models.User) (*models.TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
	Keyfunc(token *jwt.Token) (interface{}, error)
	LoadActor(ctx context.Context, claims *TokenClaims) (*models.User, error)
}

// TokenClaims represents JWT claims
type TokenClaims struct {
	UserID  string      `json:"user_id"`
	Role    models.Role `json:"role"`
	TokenID string      `json:"token_id"`
	jwt.RegisteredClaims
}

type RegisterRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Phone     *string `json:"phone"`
}

type AuthConfig struct {
	JWTSecret  string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// JWKS verifies RS/ES tokens issued by an external identity provider. Optional.
	JWKS *keyfunc.JWKS
}

type authService struct {
	users    repositories.UserRepository
	cacheSvc caching.CacheService
	cfg      AuthConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewAuthService(users repositories.UserRepository, cacheSvc caching.CacheService, cfg AuthConfig, logger *slog.Logger) AuthService {
	return &authService{
		users:    users,
		cacheSvc: cacheSvc,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// LoadJWKS fetches and keeps refreshing the key set at url.
func LoadJWKS(url string, logger *slog.Logger) (*keyfunc.JWKS, error) {
	return keyfunc.Get(url, keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Warn("jwks refresh failed", slog.String("error", err.Error()))
		},
	})
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	email := common.NormalizeEmail(req.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := common.ValidateRequiredString(req.FirstName, "firstName"); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        req.Phone,
		Role:         models.RoleSeeker,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, common.NewConflictError("a user with email %s already exists", email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	email = common.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.NewValidationError("email and password are required")
	}

	limitKey := "login:" + email
	limited, err := s.cacheSvc.IsRateLimited(ctx, limitKey, loginAttemptLimit, loginAttemptWindow)
	if err != nil {
		s.logger.Warn("login rate limit unavailable", slog.String("error", err.Error()))
	} else if limited {
		return nil, common.NewAuthorizationError("too many login attempts, try again later")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if err := s.cacheSvc.ResetRateLimit(ctx, limitKey); err != nil {
		s.logger.Warn("failed to reset login rate limit", slog.String("error", err.Error()))
	}
	return s.GenerateTokens(ctx, user)
}

// ErrInvalidCredentials is deliberately the same for unknown email and wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// GenerateTokens generates access and refresh tokens for a user
func (s *authService) GenerateTokens(ctx context.Context, user *models.User) (*models.TokenResponse, error) {
	now := s.now()
	tokenID := uuid.NewString()

	claims := TokenClaims{
		UserID:  user.ID.String(),
		Role:    user.Role,
		TokenID: tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{"rentalhub-api"},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessTokenString, err := accessToken.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	refreshToken, err := generateSecureToken()
	if err != nil {
		return nil, err
	}
	if err := s.cacheSvc.SetString(ctx, refreshKey(refreshToken), user.ID.String(), s.cfg.RefreshTTL); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken:        accessTokenString,
		TokenType:          "Bearer",
		ExpiresIn:          int(s.cfg.AccessTTL.Seconds()),
		RefreshToken:       refreshToken,
		UserID:             user.ID.String(),
		Role:               user.Role,
		TokenID:            tokenID,
		IssuedAt:           now,
		MustChangePassword: user.MustChangePassword,
	}, nil
}

// RefreshToken rotates a refresh token: the old one is consumed and a new pair issued.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	if refreshToken == "" {
		return nil, common.NewValidationError("refreshToken is required")
	}

	key := refreshKey(refreshToken)
	userIDStr, err := s.cacheSvc.GetString(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if userIDStr == "" {
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if err := s.cacheSvc.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return s.GenerateTokens(ctx, user)
}

func (s *authService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	return s.cacheSvc.Delete(ctx, refreshKey(refreshToken))
}

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.NewNotFoundError("User")
		}
		return err
	}
	if !CheckPassword(user.PasswordHash, current) {
		return common.NewValidationError("current password is incorrect")
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	if current == next {
		return common.NewValidationError("new password must differ from the current one")
	}

	hash, err := HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, userID, hash, false)
}

// ValidateToken validates JWT access token
func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	jwtToken, err := jwt.ParseWithClaims(token, &TokenClaims{}, s.Keyfunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := jwtToken.Claims.(*TokenClaims); ok && jwtToken.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// Keyfunc picks the HMAC secret for our own tokens and the JWKS for external ones.
func (s *authService) Keyfunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
		return []byte(s.cfg.JWTSecret), nil
	}
	if s.cfg.JWKS != nil {
		return s.cfg.JWKS.Keyfunc(token)
	}
	return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
}

// LoadActor resolves the token subject to a current user record, so role changes apply immediately.
func (s *authService) LoadActor(ctx context.Context, claims *TokenClaims) (*models.User, error) {
	subject := claims.Subject
	if subject == "" {
		subject = claims.UserID
	}
	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func refreshKey(token string) string {
	return "refresh_token:" + hashToken(token)
}

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// hashToken creates a SHA-256 hash of the token for storage
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
