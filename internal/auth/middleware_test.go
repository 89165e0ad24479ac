package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	apperrors "taskmanager/internal/errors"
	"taskmanager/internal/model"
)

type resolverFunc func(ctx context.Context, token string) (*model.User, error)

func (f resolverFunc) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	return f(ctx, token)
}

func newProtectedEcho(resolver UserResolver) *echo.Echo {
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		user, ok := UserFromContext(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		token, _ := TokenFromContext(c)
		return c.JSON(http.StatusOK, echo.Map{"id": user.ID, "token": token})
	}, Middleware(resolver))
	return e
}

func TestMiddleware(t *testing.T) {
	resolver := resolverFunc(func(_ context.Context, token string) (*model.User, error) {
		switch token {
		case "good":
			return &model.User{ID: 3}, nil
		case "revoked":
			return nil, apperrors.ErrTokenRevoked
		case "broken-db":
			return nil, errors.New("connection reset")
		default:
			return nil, apperrors.ErrUnauthorized
		}
	})
	e := newProtectedEcho(resolver)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid token", header: "Bearer good", wantStatus: http.StatusOK, wantBody: `"token":"good"`},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized, wantBody: "UNAUTHORIZED"},
		{name: "wrong scheme", header: "Basic good", wantStatus: http.StatusUnauthorized, wantBody: "UNAUTHORIZED"},
		{name: "invalid token", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantBody: "UNAUTHORIZED"},
		{name: "revoked token", header: "Bearer revoked", wantStatus: http.StatusUnauthorized, wantBody: "TOKEN_REVOKED"},
		{name: "lookup failure", header: "Bearer broken-db", wantStatus: http.StatusInternalServerError, wantBody: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}
