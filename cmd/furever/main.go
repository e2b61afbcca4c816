package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/fureverhealth/fureverhealth/internal/app"
	"github.com/fureverhealth/fureverhealth/internal/appointments"
	"github.com/fureverhealth/fureverhealth/internal/auth"
	"github.com/fureverhealth/fureverhealth/internal/dashboard"
	"github.com/fureverhealth/fureverhealth/internal/observability"
	"github.com/fureverhealth/fureverhealth/internal/pets"
	"github.com/fureverhealth/fureverhealth/internal/rbac"
	"github.com/fureverhealth/fureverhealth/internal/roles"
	"github.com/fureverhealth/fureverhealth/internal/schedules"
	"github.com/fureverhealth/fureverhealth/internal/shared"
	"github.com/fureverhealth/fureverhealth/internal/staff"
	"github.com/fureverhealth/fureverhealth/internal/users"
	"github.com/fureverhealth/fureverhealth/internal/view"
	"github.com/fureverhealth/fureverhealth/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "furever_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	rbacRepo := rbac.NewRepository(dbpool)
	rbacService := rbac.NewService(rbacRepo, cfg.SuperRole)
	rbacMiddleware := rbac.Middleware{
		Service: rbacService,
		Logger:  logger,
		Denied:  metrics.CountAccessDenied,
	}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, rbacService)
	usersHandler := users.NewHandler(logger, usersService, rbacService, templates, csrfManager, sessionManager, rbacMiddleware)

	rolesHandler := roles.NewHandler(logger, rbacService, templates, csrfManager, sessionManager, rbacMiddleware)
	permissionsHandler := rbac.NewPermissionsHandler(logger, rbacService, templates, csrfManager, sessionManager, rbacMiddleware)

	petsRepo := pets.NewRepository(dbpool)
	petsService := pets.NewService(petsRepo)
	petsHandler := pets.NewHandler(logger, petsService, templates, csrfManager, sessionManager, rbacMiddleware)

	staffRepo := staff.NewRepository(dbpool)
	staffService := staff.NewService(staffRepo)
	staffHandler := staff.NewHandler(logger, staffService, templates, csrfManager, sessionManager, rbacMiddleware)

	schedulesRepo := schedules.NewRepository(dbpool)
	schedulesService := schedules.NewService(schedulesRepo)
	schedulesHandler := schedules.NewHandler(logger, schedulesService, staffService, templates, csrfManager, sessionManager, rbacMiddleware)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("asynq client unavailable", slog.Any("error", err))
	}
	var reminders appointments.ReminderEnqueuer
	if jobClient != nil {
		reminders = jobClient
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("asynq close", slog.Any("error", err))
			}
		}()
	}

	apptRepo := appointments.NewRepository(dbpool)
	apptService := appointments.NewService(apptRepo, reminders, logger)
	apptHandler := appointments.NewHandler(logger, apptService, petsService, staffService, templates, csrfManager, sessionManager, rbacMiddleware)

	dashboardService := dashboard.NewService(usersRepo, petsRepo, staffRepo, apptRepo)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, templates, csrfManager, rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		Templates:           templates,
		SessionManager:      sessionManager,
		CSRFManager:         csrfManager,
		RBACMiddleware:      rbacMiddleware,
		AuthHandler:         authHandler,
		DashboardHandler:    dashboardHandler,
		UsersHandler:        usersHandler,
		RolesHandler:        rolesHandler,
		PermissionsHandler:  permissionsHandler,
		PetsHandler:         petsHandler,
		StaffHandler:        staffHandler,
		SchedulesHandler:    schedulesHandler,
		AppointmentsHandler: apptHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
