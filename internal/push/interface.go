// Package push delivers notification payloads to registered devices through
// Firebase Cloud Messaging.
package push

import "context"

// Payload is the notification content dispatched to every device.
type Payload struct {
	Title       string
	Body        string
	Icon        string
	ClickAction string
}

// ErrorKind classifies a per-token dispatch failure. Only the two "token
// gone" kinds trigger registration cleanup.
type ErrorKind int

const (
	ErrorKindNone ErrorKind = iota
	ErrorKindUnregistered
	ErrorKindInvalidToken
	ErrorKindOther
)

// String returns a stable label for logs and metrics.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNone:
		return "none"
	case ErrorKindUnregistered:
		return "unregistered"
	case ErrorKindInvalidToken:
		return "invalid_token"
	default:
		return "other"
	}
}

// TokenGone reports whether the failure means the registration is dead and
// its token record should be deleted.
func (k ErrorKind) TokenGone() bool {
	return k == ErrorKindUnregistered || k == ErrorKindInvalidToken
}

// SendResult is the outcome of dispatching to a single token.
type SendResult struct {
	Token string
	Err   error
	Kind  ErrorKind
}

// Success reports whether the dispatch to this token succeeded.
func (r SendResult) Success() bool {
	return r.Err == nil
}

// Dispatcher sends one payload to many tokens in a single batched call and
// reports one result per token, aligned with the input order.
type Dispatcher interface {
	SendToMany(ctx context.Context, tokens []string, payload Payload) ([]SendResult, error)
}
