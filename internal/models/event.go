package models

// Chat event types the platform publishes.
const (
	EventMessageCreated = "message.created"
	EventUserCreated    = "user.created"
)

// ChatEvent is the envelope the chat platform emits for every change. The
// same JSON arrives whether delivery is a webhook POST or an SNS record; the
// payload field that is populated depends on the event type.
type ChatEvent struct {
	Type    string   `json:"type"`
	ID      string   `json:"id"`
	Message *Message `json:"message,omitempty"`
	User    *Account `json:"user,omitempty"`
}
