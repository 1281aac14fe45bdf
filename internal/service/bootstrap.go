package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rosterhq/roster/internal/config"
	"github.com/rosterhq/roster/internal/model"
	"github.com/rosterhq/roster/internal/password"
)

// SuperAdminConfig describes the account EnsureSuperAdmin creates.
type SuperAdminConfig struct {
	AdminID  string
	Name     string
	Rank     string
	Area     string
	Password string
}

// DefaultSuperAdmin returns the built-in super-admin identity. The password
// is left empty; it must come from configuration.
func DefaultSuperAdmin() SuperAdminConfig {
	return SuperAdminConfig{
		AdminID: "superadmin",
		Name:    "Super Admin",
		Rank:    "Super Admin",
		Area:    "Admin Panel",
	}
}

// EnsureSuperAdmin creates the super-admin account if it does not exist yet.
// It is safe to call on every start: an existing account is left untouched,
// and losing a creation race to another process counts as existing. With no
// password configured nothing is created and a warning is logged.
func EnsureSuperAdmin(ctx context.Context, store AdminStore, hasher password.Hasher, cfg SuperAdminConfig, logger *slog.Logger) (bool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultSuperAdmin()
	if cfg.AdminID == "" {
		cfg.AdminID = def.AdminID
	}
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.Rank == "" {
		cfg.Rank = def.Rank
	}
	if cfg.Area == "" {
		cfg.Area = def.Area
	}

	_, err := store.GetAdminByAdminID(ctx, cfg.AdminID)
	if err == nil {
		logger.Debug("super admin present", "admin_id", cfg.AdminID)
		return false, nil
	}
	if !errors.Is(err, config.ErrNotFound) {
		return false, fmt.Errorf("look up super admin: %w", err)
	}

	if cfg.Password == "" {
		logger.Warn("super admin not created: no bootstrap password configured",
			"admin_id", cfg.AdminID,
			"hint", "set bootstrap.password or ROSTER_BOOTSTRAP_PASSWORD")
		return false, nil
	}

	hash, err := hasher.Hash(cfg.Password)
	if err != nil {
		return false, fmt.Errorf("hash super admin password: %w", err)
	}

	admin := &model.Admin{
		AdminID:         cfg.AdminID,
		Name:            cfg.Name,
		Rank:            cfg.Rank,
		AreaOfWorking:   cfg.Area,
		PasswordHash:    hash,
		PasswordChanged: true,
		FirstLogin:      false,
		IsActive:        true,
	}
	if err := store.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, config.ErrConflict) {
			return false, nil
		}
		return false, fmt.Errorf("create super admin: %w", err)
	}

	logger.Info("super admin created", "admin_id", cfg.AdminID)
	return true, nil
}
