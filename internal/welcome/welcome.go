// Package welcome greets newly created accounts with a bot-authored chat
// message.
package welcome

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/metrics"
	"github.com/parlorchat/functions/internal/models"
)

// Bot identity stamped on every welcome message.
const (
	BotName      = "Parlor Bot"
	BotAvatarURL = "/images/parlor-logo.png"
)

// AnonymousName stands in for accounts without a display name.
const AnonymousName = "Anonymous"

// MessageAppender appends one message to the chat. *docstore.MessageStore
// satisfies it.
type MessageAppender interface {
	Add(ctx context.Context, msg *models.Message) (string, error)
}

// Emitter posts a welcome message for each new account.
type Emitter struct {
	messages MessageAppender
}

// NewEmitter wires a welcome emitter.
func NewEmitter(messages MessageAppender) *Emitter {
	return &Emitter{messages: messages}
}

// HandleAccountCreated appends the welcome message for acct and returns the
// new message id. The store assigns the timestamp.
func (e *Emitter) HandleAccountCreated(ctx context.Context, acct models.Account) (string, error) {
	msg := &models.Message{
		Name:          BotName,
		ProfilePicURL: BotAvatarURL,
		Text:          Text(acct.DisplayName),
	}

	id, err := e.messages.Add(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("failed to append welcome message: %w", err)
	}

	metrics.Get().WelcomeMessagesTotal.Inc()
	logger.Log.Info("Welcome message posted",
		logger.WithMessageID(id),
		zap.String("uid", acct.UID))
	return id, nil
}

// Text renders the welcome line for a display name, falling back to
// "Anonymous" when the name is empty.
func Text(displayName string) string {
	if displayName == "" {
		displayName = AnonymousName
	}
	return fmt.Sprintf("%s signed in for the first time! Welcome!", displayName)
}
