// Command createadmin provisions a back-office account or resets the
// password of an existing one.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"skybound/internal/config"
	"skybound/internal/database"
	"skybound/internal/logger"
	"skybound/internal/repository"
	"skybound/internal/service"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	var email, password string
	pflag.StringVar(&email, "email", "", "admin email address (required)")
	pflag.StringVar(&password, "password", "", "admin password, at least 8 characters (required)")
	pflag.Parse()

	if email == "" || password == "" {
		fmt.Fprintln(os.Stderr, "Error: --email and --password are required")
		pflag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()

	log, err := logger.New(cfg.Profile)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, cfg, log, email, password); err != nil {
		log.Fatal("Failed to provision admin", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, email, password string) error {
	db, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(db, log); err != nil {
		return err
	}

	admins := service.NewAdminService(
		repository.NewAdminUserRepository(db),
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessExpiry)*time.Minute,
	)

	user, created, err := admins.Provision(ctx, email, password)
	if err != nil {
		return err
	}

	if created {
		log.Info("Admin created", zap.String("email", user.Email), zap.String("id", user.ID.String()))
	} else {
		log.Info("Admin password reset", zap.String("email", user.Email))
	}
	return nil
}
