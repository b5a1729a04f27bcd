package middleware

import (
	"context"
	"errors"
	"net/http"

	"rentalhub/internal/common"
	"rentalhub/internal/models"
	"rentalhub/internal/services"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// TokenAuthenticator is the part of the auth service the middleware needs.
type TokenAuthenticator interface {
	Keyfunc(token *jwt.Token) (interface{}, error)
	LoadActor(ctx context.Context, claims *services.TokenClaims) (*models.User, error)
}

// JWTMiddleware verifies the bearer token and puts the current user record on the request context.
func JWTMiddleware(auth TokenAuthenticator) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		KeyFunc: auth.Keyfunc,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(services.TokenClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return common.SendFailure(c, http.StatusUnauthorized, "Invalid or missing token")
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return common.SendUnauthorizedError(c)
			}
			claims, ok := token.Claims.(*services.TokenClaims)
			if !ok {
				return common.SendUnauthorizedError(c)
			}

			ctx := c.Request().Context()
			actor, err := auth.LoadActor(ctx, claims)
			if err != nil {
				if errors.Is(err, services.ErrInvalidToken) {
					return common.SendUnauthorizedError(c)
				}
				return common.SendError(c, err)
			}

			c.SetRequest(c.Request().WithContext(common.WithActor(ctx, actor)))
			return next(c)
		})
	}
}

// OptionalJWT attaches the actor when a valid bearer token is present and lets anonymous requests through.
func OptionalJWT(auth TokenAuthenticator) echo.MiddlewareFunc {
	strict := JWTMiddleware(auth)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withActor := strict(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return next(c)
			}
			return withActor(c)
		}
	}
}
