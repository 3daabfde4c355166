package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/parlorchat/functions/internal/config"
	"github.com/parlorchat/functions/internal/docstore"
	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed [dev|test|clean]",
	Short: "Seed the document store with development data",
	Long: `seed fills the message and device-token collections.

  dev   - realistic messages and device registrations (default)
  test  - minimal deterministic fixtures
  clean - drop all seeded collections (use with caution)`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"dev", "test", "clean"},
	RunE:      runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	mode := "dev"
	if len(args) > 0 {
		mode = args[0]
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Initialize(cfg.Log.Level, cfg.Log.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx := cmd.Context()

	docs, err := docstore.Connect(ctx, cfg.Mongo)
	if err != nil {
		return fmt.Errorf("failed to connect to document store: %w", err)
	}
	defer docs.Close(ctx)
	log.Println("✅ Document store connected")

	seeder := seed.NewSeeder(docs, cfg.S3.BaseURL)

	switch mode {
	case "dev":
		log.Println("🌱 Seeding development data...")
		if err := seeder.SeedDev(ctx); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
		log.Println("✅ Development data seeded successfully!")
	case "test":
		log.Println("🧪 Seeding test data...")
		if err := seeder.SeedTest(ctx); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
		log.Println("✅ Test data seeded successfully!")
	case "clean":
		log.Println("🧹 Cleaning seed data...")
		if err := seeder.Clean(ctx); err != nil {
			return fmt.Errorf("clean failed: %w", err)
		}
		log.Println("✅ Seed data cleaned successfully!")
	default:
		return fmt.Errorf("unknown mode %q (want dev, test, or clean)", mode)
	}

	return nil
}
