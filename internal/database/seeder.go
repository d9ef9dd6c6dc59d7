// server/internal/database/seeder.go
package database

import (
	"context"
	"errors"

	"equipment-requests-api-server/config"
	"equipment-requests-api-server/internal/auth"
	"equipment-requests-api-server/internal/models"

	"go.uber.org/zap"
)

// AccountStore is the part of UserRepository the seeder needs.
type AccountStore interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, user models.User) (models.User, error)
}

// SeedBootstrapAccount creates the first login account when no account exists.
func SeedBootstrapAccount(ctx context.Context, users AccountStore, cfg config.BootstrapConfig, logger *zap.Logger) error {
	if cfg.Email == "" || cfg.Password == "" {
		logger.Info("No bootstrap account configured. Seeding skipped.")
		return nil
	}
	if cfg.SharePointUserID <= 0 {
		return errors.New("bootstrap.sharePointUserID must be set together with bootstrap.email")
	}

	count, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Accounts already exist. Seeding skipped.")
		return nil
	}

	logger.Info("No accounts found. Seeding bootstrap account...", zap.String("email", cfg.Email))
	hashedPassword, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return err
	}

	name := cfg.Name
	if name == "" {
		name = cfg.Email
	}
	_, err = users.Create(ctx, models.User{
		Email:            cfg.Email,
		Name:             name,
		Password:         hashedPassword,
		SharePointUserID: cfg.SharePointUserID,
		Status:           models.UserActive,
	})
	if err != nil {
		return err
	}

	logger.Info("Bootstrap account seeded successfully.")
	return nil
}
