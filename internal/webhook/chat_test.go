package webhook

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorchat/functions/internal/models"
)

func TestHandleChatEventDispatchesFanout(t *testing.T) {
	f := newServerFixture("")

	body := []byte(`{
		"type": "message.created",
		"id": "evt-1",
		"message": {"id": "m1", "name": "maya", "text": "hello everyone"}
	}`)
	w := f.post("/webhooks/chat", body, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.notifier.Messages, 1)
	msg := f.notifier.Messages[0]
	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, "maya", msg.Name)
	assert.Equal(t, "hello everyone", msg.Text)
	assert.Empty(t, f.greeter.Accounts)
}

func TestHandleChatEventWelcomesNewUser(t *testing.T) {
	f := newServerFixture("")

	body := []byte(`{
		"type": "user.created",
		"id": "evt-2",
		"user": {"uid": "u42", "display_name": "Maya"}
	}`)
	w := f.post("/webhooks/chat", body, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.greeter.Accounts, 1)
	assert.Equal(t, "u42", f.greeter.Accounts[0].UID)
	assert.Equal(t, "Maya", f.greeter.Accounts[0].DisplayName)
	assert.Equal(t, "welcome-1", decodeBody(t, w)["message_id"])
	assert.Empty(t, f.notifier.Messages)
}

func TestHandleChatEventMalformedJSON(t *testing.T) {
	f := newServerFixture("")

	w := f.post("/webhooks/chat", []byte(`{"type": `), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "malformed_event", decodeBody(t, w)["error"])
}

func TestHandleChatEventMissingPayload(t *testing.T) {
	f := newServerFixture("")

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "message.created without message",
			body:    `{"type": "message.created", "id": "evt-3"}`,
			wantErr: "missing_message",
		},
		{
			name:    "user.created without user",
			body:    `{"type": "user.created", "id": "evt-4"}`,
			wantErr: "missing_user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.post("/webhooks/chat", []byte(tt.body), nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantErr, decodeBody(t, w)["error"])
		})
	}
}

func TestHandleChatEventUnknownTypeAcknowledged(t *testing.T) {
	f := newServerFixture("")

	body := []byte(`{"type": "channel.archived", "id": "evt-5"}`)
	w := f.post("/webhooks/chat", body, nil)

	// 2xx so the platform stops redelivering events we don't handle
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "ignored", decodeBody(t, w)["status"])
	assert.Empty(t, f.notifier.Messages)
	assert.Empty(t, f.greeter.Accounts)
}

func TestHandleChatEventDuplicateSkipped(t *testing.T) {
	f := newServerFixture("")

	body := []byte(`{
		"type": "message.created",
		"id": "evt-6",
		"message": {"id": "m6", "name": "maya", "text": "hi"}
	}`)

	first := f.post("/webhooks/chat", body, nil)
	second := f.post("/webhooks/chat", body, nil)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusAccepted, second.Code)
	assert.Equal(t, "duplicate", decodeBody(t, second)["status"])
	assert.Len(t, f.notifier.Messages, 1)
}

func TestHandleChatEventWithoutIDNeverDeduplicated(t *testing.T) {
	f := newServerFixture("")

	body := []byte(`{
		"type": "message.created",
		"message": {"id": "m7", "name": "maya", "text": "hi"}
	}`)

	f.post("/webhooks/chat", body, nil)
	f.post("/webhooks/chat", body, nil)

	assert.Len(t, f.notifier.Messages, 2)
}

func TestHandleChatEventFanoutFailureAllowsRetry(t *testing.T) {
	f := newServerFixture("")
	f.notifier.Err = errors.New("push service down")

	body := []byte(`{
		"type": "message.created",
		"id": "evt-8",
		"message": {"id": "m8", "name": "maya", "text": "hi"}
	}`)

	w := f.post("/webhooks/chat", body, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "fanout_failed", decodeBody(t, w)["error"])
	assert.Contains(t, f.guard.Forgotten, "chat:evt-8")

	// The platform's retry of the same delivery goes through
	f.notifier.Err = nil
	retry := f.post("/webhooks/chat", body, nil)
	assert.Equal(t, http.StatusOK, retry.Code)
	assert.Len(t, f.notifier.Messages, 2)
}

func TestHandleChatEventWelcomeFailure(t *testing.T) {
	f := newServerFixture("")
	f.greeter.Err = errors.New("store unavailable")

	body := []byte(`{
		"type": "user.created",
		"id": "evt-9",
		"user": {"uid": "u9"}
	}`)
	w := f.post("/webhooks/chat", body, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "welcome_failed", decodeBody(t, w)["error"])
	assert.Contains(t, f.guard.Forgotten, "chat:evt-9")
}

func TestChatDedupeKey(t *testing.T) {
	assert.Equal(t, "chat:evt-10", chatDedupeKey(&models.ChatEvent{ID: "evt-10"}))
	assert.Equal(t, "", chatDedupeKey(&models.ChatEvent{}))
}
