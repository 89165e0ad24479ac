package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"taskmanager/docs"
	"taskmanager/internal/auth"
	"taskmanager/internal/cache"
	"taskmanager/internal/config"
	"taskmanager/internal/db"
	"taskmanager/internal/events"
	"taskmanager/internal/handler"
	"taskmanager/internal/ratelimit"
	"taskmanager/internal/repository"
	"taskmanager/internal/router"
	"taskmanager/internal/service"
)

// @title Task Manager API
// @version 1.0
// @description Per-user task management with JWT authentication and token revocation.
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(log.INFO)
	e.Use(middleware.RequestID())

	if err := cfg.Validate(); err != nil {
		e.Logger.Fatalf("config: %v", err)
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		e.Logger.Fatalf("database init: %v", err)
	}

	// Drop tables if RESET_DB environment variable is set
	if cfg.ResetDB {
		e.Logger.Warn("RESET_DB=true detected, dropping all tables...")
		if err := db.Reset(gormDB); err != nil {
			e.Logger.Warnf("failed to drop tables (may not exist): %v", err)
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		e.Logger.Fatalf("%v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if cacheClient.Enabled() {
		if err := cacheClient.Ping(context.Background()); err != nil {
			e.Logger.Warnf("redis unreachable at %s, revocations stay process-local until it recovers: %v", cfg.RedisAddr, err)
		}
	} else {
		e.Logger.Info("REDIS_ADDR not set, revoked tokens are kept in memory only")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.KafkaBroker != "" {
		publisher = events.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic, e.Logger)
		e.Logger.Infof("publishing task events to %s/%s", cfg.KafkaBroker, cfg.KafkaTopic)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	taskService := service.NewTaskService(taskRepo, publisher, e.Logger)

	if cfg.TrustProxy {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
		e.Logger.Info("TRUST_PROXY=true, client addresses taken from X-Forwarded-For")
	}

	// Register routes
	router.Register(
		e,
		ratelimit.New(cfg.RateLimitPerMinute),
		authService,
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(),
		handler.NewTaskHandler(taskService),
	)

	docs.SwaggerInfo.Host = swaggerHost(cfg)
	e.Logger.Infof("Swagger documentation available at: http://%s/swagger/index.html", docs.SwaggerInfo.Host)

	go func() {
		addr := ":" + cfg.ServerPort
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatalf("server start: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	e.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Errorf("server shutdown: %v", err)
	}
	if err := publisher.Close(); err != nil {
		e.Logger.Errorf("close event publisher: %v", err)
	}
	if err := cacheClient.Close(); err != nil {
		e.Logger.Errorf("close redis: %v", err)
	}
	if err := db.Close(gormDB); err != nil {
		e.Logger.Errorf("close database: %v", err)
	}
}

// swaggerHost strips any scheme from SWAGGER_HOST; swag wants a bare host.
func swaggerHost(cfg *config.Config) string {
	if cfg.SwaggerHost == "" {
		return "localhost:" + cfg.ServerPort
	}
	host := strings.TrimPrefix(cfg.SwaggerHost, "https://")
	return strings.TrimPrefix(host, "http://")
}
