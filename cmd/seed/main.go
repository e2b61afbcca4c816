package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fureverhealth/fureverhealth/internal/app"
	"github.com/fureverhealth/fureverhealth/internal/rbac"
	"github.com/fureverhealth/fureverhealth/internal/shared"
	"github.com/fureverhealth/fureverhealth/internal/users"
)

// Seeds the permission catalog, the baseline roles and the initial admin
// account. Safe to run repeatedly.
func main() {
	ctx := context.Background()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	rbacService := rbac.NewService(rbac.NewRepository(pool), cfg.SuperRole)
	usersService := users.NewService(users.NewRepository(pool), rbacService)

	allPermissions := make([]string, 0, len(shared.AllCapabilities()))
	for _, cap := range shared.AllCapabilities() {
		if _, err := rbacService.EnsurePermission(ctx, cap.String(), ""); err != nil {
			logger.Error("seed permission", slog.String("permission", cap.String()), slog.Any("error", err))
			os.Exit(1)
		}
		allPermissions = append(allPermissions, cap.String())
	}
	logger.Info("permissions seeded", slog.Int("count", len(allPermissions)))

	// The super role bypasses checks regardless, but the explicit grant keeps
	// its effective set intact if the bypass is later pointed at another role.
	seedRole(ctx, logger, rbacService, cfg.SuperRole, "Full access to every module", allPermissions)
	seedRole(ctx, logger, rbacService, "veterinarian", "Clinical staff access", []string{
		shared.CapDashboardView.String(),
		shared.CapPetsView.String(),
		shared.CapPetsEdit.String(),
		shared.CapAppointmentsView.String(),
		shared.CapAppointmentsCreate.String(),
		shared.CapAppointmentsEdit.String(),
		shared.CapSchedulesView.String(),
	})
	seedRole(ctx, logger, rbacService, "receptionist", "Front desk access", []string{
		shared.CapDashboardView.String(),
		shared.CapPetsView.String(),
		shared.CapPetsCreate.String(),
		shared.CapAppointmentsView.String(),
		shared.CapAppointmentsCreate.String(),
	})

	adminEmail := os.Getenv("SEED_ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@fureverhealth.local"
	}
	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "changeme123"
	}

	_, err = usersService.CreateUser(ctx, users.User{
		FirstName: "Clinic",
		LastName:  "Administrator",
		Email:     adminEmail,
		IsActive:  true,
	}, adminPassword, []string{cfg.SuperRole})
	switch {
	case errors.Is(err, users.ErrDuplicateEmail):
		logger.Info("admin account already present", slog.String("email", adminEmail))
	case err != nil:
		logger.Error("seed admin account", slog.Any("error", err))
		os.Exit(1)
	default:
		logger.Info("admin account created", slog.String("email", adminEmail))
	}

	logger.Info("seed complete")
}

func seedRole(ctx context.Context, logger *slog.Logger, svc *rbac.Service, name, description string, permissions []string) {
	_, err := svc.CreateRole(ctx, name, description, permissions)
	switch {
	case errors.Is(err, rbac.ErrDuplicateName):
		logger.Info("role already present", slog.String("role", name))
	case err != nil:
		logger.Error("seed role", slog.String("role", name), slog.Any("error", err))
		os.Exit(1)
	default:
		logger.Info("role created", slog.String("role", name))
	}
}
