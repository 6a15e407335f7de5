// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/ufarent/ufarent/internal/app/resources"
	adminstore "github.com/ufarent/ufarent/internal/app/store/admins"
	profilestore "github.com/ufarent/ufarent/internal/app/store/profiles"
	"github.com/ufarent/ufarent/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It loads
// the shared templates and bootstraps the superadmin account from config.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	if appCfg.SuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, appCfg, deps, logger); err != nil {
			return err
		}
	}
	return nil
}

// ensureSuperAdmin promotes (or lazily creates) the configured superadmin
// account. The superadmin tier is never granted through the user console,
// so this is the only path that assigns it.
func ensureSuperAdmin(ctx context.Context, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	profiles := profilestore.New(deps.MongoDatabase)
	admins := adminstore.New(deps.MongoDatabase)

	existing, err := profiles.GetByEmail(ctx, appCfg.SuperAdminEmail)
	if err != nil {
		return fmt.Errorf("superadmin lookup: %w", err)
	}

	if existing == nil {
		created, err := profiles.Create(ctx, models.Profile{
			Email:      appCfg.SuperAdminEmail,
			FullName:   "Superadmin",
			Role:       models.RoleSuperAdmin,
			AuthMethod: models.AuthMethodGoogle,
		})
		if err != nil {
			return fmt.Errorf("superadmin create: %w", err)
		}
		if err := admins.Add(ctx, created.ID); err != nil {
			return fmt.Errorf("superadmin marker: %w", err)
		}
		logger.Info("superadmin account created",
			zap.String("email", appCfg.SuperAdminEmail))
		return nil
	}

	if existing.Role != models.RoleSuperAdmin {
		if err := profiles.UpdateRole(ctx, existing.ID, models.RoleSuperAdmin); err != nil {
			return fmt.Errorf("superadmin promote: %w", err)
		}
		if err := admins.Add(ctx, existing.ID); err != nil {
			return fmt.Errorf("superadmin marker: %w", err)
		}
		logger.Info("superadmin account promoted",
			zap.String("email", appCfg.SuperAdminEmail),
			zap.String("previous_role", existing.Role))
	}
	return nil
}
