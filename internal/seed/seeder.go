// Package seed fills the document store with plausible development data:
// chat messages in a few shapes and a handful of device registrations.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"

	"github.com/parlorchat/functions/internal/docstore"
	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/models"
)

// Seeder handles document store seeding operations
type Seeder struct {
	client   *docstore.Client
	messages *docstore.MessageStore
	tokens   *docstore.TokenStore
	cdnBase  string
}

// NewSeeder creates a new seeder instance. cdnBase is the public base URL
// seeded image links point at.
func NewSeeder(client *docstore.Client, cdnBase string) *Seeder {
	// Seed random generator for varied results
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		client:   client,
		messages: docstore.NewMessageStore(client),
		tokens:   docstore.NewTokenStore(client),
		cdnBase:  strings.TrimSuffix(cdnBase, "/"),
	}
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev(ctx context.Context) error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating messages...")
	if err := s.seedMessages(ctx, 60); err != nil {
		return fmt.Errorf("failed to seed messages: %w", err)
	}

	log("Creating device tokens...")
	if err := s.seedTokens(ctx, 25); err != nil {
		return fmt.Errorf("failed to seed device tokens: %w", err)
	}

	return nil
}

// SeedTest seeds the test database with minimal deterministic data
func (s *Seeder) SeedTest(ctx context.Context) error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating test messages...")
	testMessages := []models.Message{
		{Name: "alice", Text: "Welcome to the general room"},
		{Name: "bob", Text: "anyone up for lunch?"},
		{
			Name:          "charlie",
			ProfilePicURL: "https://api.dicebear.com/7.x/avataaars/png?seed=charlie",
			ImageURL:      s.cdnBase + "/images/test-msg-1/sunset.png",
		},
	}
	for i := range testMessages {
		if _, err := s.messages.Add(ctx, &testMessages[i]); err != nil {
			return fmt.Errorf("failed to create test message: %w", err)
		}
	}

	log("Creating test device tokens...")
	for i := 1; i <= 3; i++ {
		if err := s.tokens.Register(ctx, fmt.Sprintf("test-token-%d", i)); err != nil {
			return fmt.Errorf("failed to register test token: %w", err)
		}
	}

	return nil
}

// Clean removes all seed data (use with caution!)
func (s *Seeder) Clean(ctx context.Context) error {
	if err := s.client.Collection(docstore.CollectionMessages).Drop(ctx); err != nil {
		return fmt.Errorf("failed to clean messages: %w", err)
	}
	if err := s.client.Collection(docstore.CollectionDeviceTokens).Drop(ctx); err != nil {
		return fmt.Errorf("failed to clean device tokens: %w", err)
	}
	return nil
}

// seedMessages creates chat messages in the shapes the pipeline sees: text
// only, text with an image, and image only.
func (s *Seeder) seedMessages(ctx context.Context, count int) error {
	created := 0
	for i := 0; i < count; i++ {
		name := gofakeit.Username()

		msg := models.Message{
			Name:          name,
			ProfilePicURL: fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", name),
		}

		// Roughly a quarter image-only, a quarter text with image
		roll := rand.Float32()
		if roll >= 0.25 {
			msg.Text = fakeChatLine()
		}
		if roll < 0.5 {
			msg.ImageURL = fmt.Sprintf("%s/images/%s/%s.png", s.cdnBase, gofakeit.UUID(), gofakeit.Word())
		}

		// A few accounts never set an avatar
		if rand.Float32() < 0.2 {
			msg.ProfilePicURL = ""
		}

		if _, err := s.messages.Add(ctx, &msg); err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		created++
	}

	logger.Log.Info("Created seed messages", zap.Int("count", created))
	return nil
}

// seedTokens registers fake device tokens shaped like FCM registration ids.
func (s *Seeder) seedTokens(ctx context.Context, count int) error {
	for i := 0; i < count; i++ {
		token := fmt.Sprintf("%s:APA91b%s", gofakeit.LetterN(11), gofakeit.LetterN(134))
		if err := s.tokens.Register(ctx, token); err != nil {
			return fmt.Errorf("failed to register token: %w", err)
		}
	}

	logger.Log.Info("Registered seed device tokens", zap.Int("count", count))
	return nil
}

// fakeChatLine produces short conversational text rather than prose.
func fakeChatLine() string {
	switch rand.Intn(3) {
	case 0:
		return gofakeit.Question()
	case 1:
		return gofakeit.Phrase()
	default:
		return gofakeit.Sentence(4 + rand.Intn(8))
	}
}
