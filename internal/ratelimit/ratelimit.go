// Package ratelimit throttles requests per route and client address.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	apperrors "taskmanager/internal/errors"
)

// Limiter hands out rate limiting middleware. Counting is a fixed one-minute
// window per client address, started by the client's first request. Each call
// to Middleware counts separately, so attaching it to a route limits that
// route alone.
//
// The client address is c.RealIP(), so the echo instance must carry an
// IPExtractor that matches the deployment; see router.Register.
type Limiter struct {
	rate   limiter.Rate
	store  limiter.Store
	routes atomic.Int64
}

// New creates a limiter allowing perMinute requests per client address and route.
func New(perMinute int) *Limiter {
	return &Limiter{
		rate:  limiter.Rate{Period: time.Minute, Limit: int64(perMinute)},
		store: memory.NewStore(),
	}
}

// Middleware returns a limiter with its own counters keyed by the client's IP.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	window := &fixedWindow{
		limiter: limiter.New(l.store, l.rate),
		prefix:  "route" + strconv.FormatInt(l.routes.Add(1), 10) + ":",
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: window,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
				Error: "unable to identify client",
				Code:  "FORBIDDEN",
			})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			c.Response().Header().Set("Retry-After", strconv.Itoa(window.retryAfter(c.Request().Context(), identifier)))
			return echo.NewHTTPError(http.StatusTooManyRequests, apperrors.ErrorResponse{
				Error: "rate limit exceeded",
				Code:  "RATE_LIMITED",
			})
		},
	})
}

// fixedWindow adapts a limiter.Limiter to echo's middleware.RateLimiterStore.
type fixedWindow struct {
	limiter *limiter.Limiter
	prefix  string
}

// Allow counts the request and reports whether it is within the window's limit.
// Denied requests count too.
func (w *fixedWindow) Allow(identifier string) (bool, error) {
	res, err := w.limiter.Get(context.Background(), w.prefix+identifier)
	if err != nil {
		return false, err
	}
	return !res.Reached, nil
}

// retryAfter returns the whole seconds until identifier's window resets.
func (w *fixedWindow) retryAfter(ctx context.Context, identifier string) int {
	res, err := w.limiter.Peek(ctx, w.prefix+identifier)
	if err != nil {
		return int(w.limiter.Rate.Period / time.Second)
	}
	secs := res.Reset - time.Now().Unix()
	if secs < 1 {
		return 1
	}
	return int(secs)
}
