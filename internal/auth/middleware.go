package auth

import (
	"context"
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "taskmanager/internal/errors"
	"taskmanager/internal/model"
)

const (
	// ContextUserKey holds the authenticated *model.User in the echo context.
	ContextUserKey = "auth.user"
	// ContextTokenKey holds the raw bearer token in the echo context.
	ContextTokenKey = "auth.token"
)

// UserResolver resolves a bearer token to the user it was issued for.
type UserResolver interface {
	CurrentUser(ctx context.Context, token string) (*model.User, error)
}

// Middleware returns echo middleware that requires "Authorization: Bearer <token>"
// and stores the resolved user and the raw token in the context.
func Middleware(resolver UserResolver) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ContextKey:  ContextUserKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			user, err := resolver.CurrentUser(c.Request().Context(), token)
			if err != nil {
				return nil, err
			}
			c.Set(ContextTokenKey, token)
			return user, nil
		},
		ErrorHandler: handleAuthError,
	})
}

func handleAuthError(c echo.Context, err error) error {
	if errors.Is(err, apperrors.ErrTokenRevoked) || errors.Is(err, apperrors.ErrUnauthorized) {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	// a token was present but resolving it failed for a reason other than its validity
	var parseErr *echojwt.TokenParsingError
	if errors.As(err, &parseErr) {
		c.Logger().Errorf("resolve current user: %v", err)
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
		Error: "missing or malformed bearer token",
		Code:  "UNAUTHORIZED",
	})
}

// UserFromContext returns the authenticated user set by Middleware.
func UserFromContext(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(ContextUserKey).(*model.User)
	return user, ok && user != nil
}

// TokenFromContext returns the bearer token set by Middleware.
func TokenFromContext(c echo.Context) (string, bool) {
	token, ok := c.Get(ContextTokenKey).(string)
	return token, ok && token != ""
}
