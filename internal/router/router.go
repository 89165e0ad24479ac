package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"taskmanager/internal/auth"
	"taskmanager/internal/handler"
	"taskmanager/internal/ratelimit"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	limiter *ratelimit.Limiter,
	resolver auth.UserResolver,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	taskHandler *handler.TaskHandler,
) {
	// Client addresses come from the socket unless the caller already chose
	// an extractor (TRUST_PROXY); forwarded headers are client-controlled.
	if e.IPExtractor == nil {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"message": "Hello, World!"})
	})

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	requireUser := auth.Middleware(resolver)

	// Public routes
	e.POST("/register", authHandler.Register, limiter.Middleware())
	e.POST("/login", authHandler.Login, limiter.Middleware())

	// Secured routes; the limiter runs before token resolution so rejected
	// clients never reach the database.
	e.POST("/logout", authHandler.Logout, limiter.Middleware(), requireUser)
	e.GET("/me", userHandler.Me, limiter.Middleware(), requireUser)

	tasks := e.Group("/tasks")
	createLimit, listLimit := limiter.Middleware(), limiter.Middleware()
	tasks.POST("/", taskHandler.CreateTask, createLimit, requireUser)
	tasks.POST("", taskHandler.CreateTask, createLimit, requireUser)
	tasks.GET("/", taskHandler.ListTasks, listLimit, requireUser)
	tasks.GET("", taskHandler.ListTasks, listLimit, requireUser)
	tasks.GET("/:id", taskHandler.GetTask, limiter.Middleware(), requireUser)
	tasks.PUT("/:id", taskHandler.UpdateTask, limiter.Middleware(), requireUser)
	tasks.DELETE("/:id", taskHandler.DeleteTask, limiter.Middleware(), requireUser)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
