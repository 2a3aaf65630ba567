//go:build ignore

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/hugh/go-storefront/internal/admin"
	"github.com/hugh/go-storefront/internal/database"
	"github.com/hugh/go-storefront/pkg/config"
	"github.com/hugh/go-storefront/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env, "seed")

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" {
		email = "admin@example.com"
	}
	if password == "" {
		password = "admin123!"
	}

	// Bootstrapping publishes nothing.
	svc := admin.NewService(db, nil, logger, cfg.Tokens.InvitationTTL())
	user, err := svc.Bootstrap(context.Background(), admin.AdminInput{
		FirstName: envOr("ADMIN_FIRST_NAME", "Store"),
		LastName:  envOr("ADMIN_LAST_NAME", "Admin"),
		Email:     email,
		Password:  password,
	})
	if err != nil {
		if errors.Is(err, admin.ErrAdminExists) {
			fmt.Printf("Admin user already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create admin user: %v", err)
	}

	fmt.Printf("Admin user created successfully!\n")
	fmt.Printf("ID: %d\n", user.ID)
	fmt.Printf("Email: %s\n", user.Email)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
