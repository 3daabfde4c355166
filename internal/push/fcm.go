package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/parlorchat/functions/internal/config"
	"github.com/parlorchat/functions/internal/telemetry"
)

// FCM caps the number of tokens accepted by one multicast call.
const multicastLimit = 500

// FCMDispatcher sends notifications through Firebase Cloud Messaging.
type FCMDispatcher struct {
	client *messaging.Client
}

// Compile-time check that FCMDispatcher satisfies the Dispatcher interface
var _ Dispatcher = (*FCMDispatcher)(nil)

// NewFCMDispatcher creates a dispatcher. With an empty credentials file it
// falls back to application default credentials.
func NewFCMDispatcher(ctx context.Context, cfg config.FCMConfig) (*FCMDispatcher, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}

	return &FCMDispatcher{client: client}, nil
}

// SendToMany dispatches the payload to all tokens and returns one result per
// token, aligned with the input order. Tokens beyond the multicast limit are
// sent in additional calls transparently.
func (d *FCMDispatcher) SendToMany(ctx context.Context, tokens []string, payload Payload) ([]SendResult, error) {
	ctx, span := telemetry.TracePushCall(ctx, "send_multicast", len(tokens))
	defer span.End()

	results := make([]SendResult, 0, len(tokens))
	for _, chunk := range chunkTokens(tokens, multicastLimit) {
		resp, err := d.client.SendEachForMulticast(ctx, buildMulticast(chunk, payload))
		if err != nil {
			telemetry.RecordServiceError(span, err)
			return nil, fmt.Errorf("multicast send failed: %w", err)
		}
		results = append(results, mapBatch(chunk, resp)...)
	}

	telemetry.RecordServiceSuccess(span)
	return results, nil
}

// buildMulticast converts the payload into an FCM multicast message.
func buildMulticast(tokens []string, payload Payload) *messaging.MulticastMessage {
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
	}

	webpush := &messaging.WebpushConfig{}
	if payload.Icon != "" {
		webpush.Notification = &messaging.WebpushNotification{Icon: payload.Icon}
	}
	if payload.ClickAction != "" {
		webpush.FCMOptions = &messaging.WebpushFCMOptions{Link: payload.ClickAction}
	}
	if webpush.Notification != nil || webpush.FCMOptions != nil {
		msg.Webpush = webpush
	}

	return msg
}

// mapBatch aligns a batch response with the tokens that produced it.
func mapBatch(tokens []string, resp *messaging.BatchResponse) []SendResult {
	results := make([]SendResult, 0, len(tokens))
	for i, token := range tokens {
		if i >= len(resp.Responses) {
			break
		}

		sr := resp.Responses[i]
		if sr.Success {
			results = append(results, SendResult{Token: token})
			continue
		}
		results = append(results, SendResult{
			Token: token,
			Err:   sr.Error,
			Kind:  classifyError(sr.Error),
		})
	}
	return results
}

// classifyError maps an FCM error onto the error kinds cleanup cares about.
func classifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindNone
	case messaging.IsUnregistered(err):
		return ErrorKindUnregistered
	case errorutils.IsInvalidArgument(err):
		return ErrorKindInvalidToken
	default:
		return ErrorKindOther
	}
}

// chunkTokens splits tokens into slices of at most size.
func chunkTokens(tokens []string, size int) [][]string {
	if len(tokens) == 0 {
		return nil
	}

	var chunks [][]string
	for start := 0; start < len(tokens); start += size {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, tokens[start:end])
	}
	return chunks
}
