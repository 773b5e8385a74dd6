package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/derebetadesse/pharmacloud-backend/internal/auth"
	"github.com/derebetadesse/pharmacloud-backend/internal/pharmacy"
	"github.com/derebetadesse/pharmacloud-backend/pkg/config"
	"github.com/derebetadesse/pharmacloud-backend/pkg/db"
	"github.com/derebetadesse/pharmacloud-backend/pkg/db/models"
	"github.com/derebetadesse/pharmacloud-backend/pkg/logger"
	"github.com/derebetadesse/pharmacloud-backend/pkg/security"
)

const apiKeyLength = 48

// Seeds one dashboard owner and one pharmacy so a fresh environment can
// accept period syncs without manual SQL. Safe to re-run; existing rows
// are left untouched.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	username := flag.String("owner", "admin", "dashboard owner username")
	externalID := flag.String("pharmacy", "pharmacy_1", "pharmacy external id")
	pharmacyName := flag.String("name", "Main Street Pharmacy", "pharmacy display name")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	ownerRepo := auth.NewRepository(dbClient.DB())
	pharmacyRepo := pharmacy.NewRepository(dbClient.DB())

	owner, err := ownerRepo.FindByUsername(ctx, *username)
	switch {
	case err == nil:
		logg.Info(ctx, fmt.Sprintf("owner %q already exists, skipping", *username))
	case errors.Is(err, gorm.ErrRecordNotFound):
		password := os.Getenv("PHARMACLOUD_SEED_PASSWORD")
		if password == "" {
			fmt.Fprintln(os.Stderr, "PHARMACLOUD_SEED_PASSWORD must be set to create the owner")
			os.Exit(1)
		}
		hash, err := security.HashSecret(password, cfg.Password)
		requireResource(ctx, logg, "password hash", err)

		owner, err = ownerRepo.Create(ctx, &models.Owner{
			Username:     *username,
			PasswordHash: hash,
			IsActive:     true,
		})
		if err != nil && db.IsUniqueViolation(err, "") {
			// Lost a race with a concurrent seed run; the row exists now.
			owner, err = ownerRepo.FindByUsername(ctx, *username)
		}
		requireResource(ctx, logg, "owner create", err)
		logg.Info(ctx, fmt.Sprintf("created owner %q", *username))
	default:
		requireResource(ctx, logg, "owner lookup", err)
	}

	_, err = pharmacyRepo.FindByExternalID(ctx, *externalID)
	switch {
	case err == nil:
		logg.Info(ctx, fmt.Sprintf("pharmacy %q already exists, skipping", *externalID))
	case errors.Is(err, gorm.ErrRecordNotFound):
		apiKey := os.Getenv("PHARMACLOUD_SEED_API_KEY")
		generated := false
		if apiKey == "" {
			apiKey, err = security.GenerateAPIKey(apiKeyLength)
			requireResource(ctx, logg, "api key generation", err)
			generated = true
		}
		hash, err := security.HashSecret(apiKey, cfg.Password)
		requireResource(ctx, logg, "api key hash", err)

		_, err = pharmacyRepo.Create(ctx, &models.Pharmacy{
			ExternalID: *externalID,
			Name:       *pharmacyName,
			APIKeyHash: hash,
			OwnerID:    owner.ID,
			IsActive:   true,
		})
		requireResource(ctx, logg, "pharmacy create", err)
		logg.Info(ctx, fmt.Sprintf("created pharmacy %q", *externalID))
		if generated {
			// The key is only recoverable here; the database stores a hash.
			fmt.Println("generated api key:", apiKey)
		}
	default:
		requireResource(ctx, logg, "pharmacy lookup", err)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
