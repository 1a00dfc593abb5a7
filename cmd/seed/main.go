package main

import (
	"context"
	"flag"
	"time"

	"classsite/internal/auth"
	"classsite/internal/config"
	"classsite/internal/db"
	"classsite/internal/logging"
	"classsite/internal/repository"
	"classsite/internal/service"
)

// Seed migrates the schema and provisions the first admin account.
func main() {
	cfg := config.Load()

	account := flag.String("account", cfg.Auth.AdminAccount, "admin account name")
	password := flag.String("password", cfg.Auth.AdminDefaultPassword, "initial admin password")
	flag.Parse()

	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	log.Info("Starting seed script...")

	// Connect to database
	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Info("Connected to database")

	// Run migrations to ensure schema is up to date
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Info("Database migrations completed")

	users := service.NewUserService(
		repository.NewUserRepository(gormDB),
		repository.NewLoginAttemptRepository(gormDB),
		auth.NewBcryptHasher(0),
		log,
		cfg.Auth.PasswordMinLength,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := users.EnsureAdmin(ctx, *account, *password)
	if err != nil {
		log.Fatalf("Failed to provision admin: %v", err)
	}
	if !created {
		log.Info("An admin account already exists, nothing to do")
		return
	}
	log.WithField("account", *account).Info("Seed completed successfully")
}
