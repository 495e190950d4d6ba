// cmd/seeder/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/coldemail-backend/internal/config"
	"github.com/unclebandit/coldemail-backend/internal/db"
	"github.com/unclebandit/coldemail-backend/internal/logger"
	"github.com/unclebandit/coldemail-backend/internal/model"
	"github.com/unclebandit/coldemail-backend/internal/repository"
	"github.com/unclebandit/coldemail-backend/internal/security"
)

const (
	demoEmail    = "demo@example.com"
	demoPassword = "demo-password"
)

func strPtr(s string) *string { return &s }

var demoProspects = []model.Prospect{
	{
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          "ada@analyticalengines.example",
		CompanyName:    "Analytical Engines",
		CompanyWebsite: strPtr("example.com"),
		JobTitle:       strPtr("Head of Engineering"),
	},
	{
		FirstName:      "Grace",
		LastName:       "Hopper",
		Email:          "grace@compilers.example",
		CompanyName:    "Compilers Inc",
		CompanyWebsite: strPtr("https://www.iana.org"),
		LinkedinURL:    strPtr("https://www.linkedin.com/in/grace-hopper"),
		JobTitle:       strPtr("CTO"),
	},
	{
		FirstName:   "Alan",
		LastName:    "Turing",
		Email:       "alan@enigma.example",
		CompanyName: "Enigma Labs",
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Invalid configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Database unavailable")
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn); err != nil {
		log.Fatal().Err(err).Msg("❌ Migration failed")
	}

	users := &repository.UserRepository{DB: conn}
	prospects := &repository.ProspectRepository{DB: conn}

	if err := seed(ctx, users, prospects); err != nil {
		log.Error().Err(err).Msg("❌ Seeding failed")
		os.Exit(1)
	}
	fmt.Println("Database seeding completed successfully!")
}

// seed is idempotent: existing rows are left alone.
func seed(ctx context.Context, users repository.UserRepositoryInterface, prospects repository.ProspectRepositoryInterface) error {
	user, err := users.GetByEmail(ctx, demoEmail)
	if err != nil {
		return fmt.Errorf("lookup demo user: %w", err)
	}
	if user == nil {
		hash, err := security.HashPassword(demoPassword)
		if err != nil {
			return err
		}
		user = &model.User{Email: demoEmail, HashedPassword: hash}
		if err := users.Create(ctx, user); err != nil {
			return fmt.Errorf("create demo user: %w", err)
		}
		fmt.Printf("Seeded user: %s (password %q)\n", demoEmail, demoPassword)
	}

	for _, p := range demoProspects {
		existing, err := prospects.GetByEmailForOwner(ctx, user.ID, p.Email)
		if err != nil {
			return fmt.Errorf("lookup prospect %s: %w", p.Email, err)
		}
		if existing != nil {
			continue
		}
		p.OwnerID = user.ID
		if err := prospects.Create(ctx, &p); err != nil {
			return fmt.Errorf("create prospect %s: %w", p.Email, err)
		}
		fmt.Printf("Seeded prospect: %s\n", p.Email)
	}
	return nil
}
