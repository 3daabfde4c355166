package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/parlorchat/functions/internal/config"
	"github.com/parlorchat/functions/internal/docstore"
	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/models"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}
	if err := logger.Initialize("warn", cfg.Log.File); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}

	ctx := context.Background()

	docs, err := docstore.Connect(ctx, cfg.Mongo)
	if err != nil {
		log.Fatalf("❌ Failed to connect to document store: %v", err)
	}
	defer docs.Close(ctx)

	fmt.Println("🔍 Verifying seed data...")
	fmt.Println()

	var messages []models.Message
	if err := docs.ListAll(ctx, docstore.CollectionMessages, &messages); err != nil {
		log.Fatalf("❌ Failed to list messages: %v", err)
	}

	var tokens []models.DeviceToken
	if err := docs.ListAll(ctx, docstore.CollectionDeviceTokens, &tokens); err != nil {
		log.Fatalf("❌ Failed to list device tokens: %v", err)
	}

	textOnly, withImage, moderated := 0, 0, 0
	for _, m := range messages {
		if m.HasImage() {
			withImage++
		} else {
			textOnly++
		}
		if m.Moderated {
			moderated++
		}
	}

	fmt.Println("📊 Record Counts:")
	fmt.Printf("  Messages:      %d (%d text-only, %d with image, %d moderated)\n",
		len(messages), textOnly, withImage, moderated)
	fmt.Printf("  Device Tokens: %d\n", len(tokens))
	fmt.Println()

	fmt.Println("📝 Sample Messages:")
	for i, m := range messages {
		if i >= 3 {
			break
		}
		text := m.Text
		if len(text) > 50 {
			text = text[:50] + "..."
		}
		if m.HasImage() {
			fmt.Printf("  - %s: %q [image: %s]\n", m.Name, text, m.ImageURL)
		} else {
			fmt.Printf("  - %s: %q\n", m.Name, text)
		}
	}
	fmt.Println()

	fmt.Println("✅ Seed data verification complete!")
}
