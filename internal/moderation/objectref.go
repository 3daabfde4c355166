// Package moderation decides whether newly uploaded images must be blurred
// and records that decision on the owning message.
package moderation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedObjectPath indicates an object path that does not encode an
// owning message id.
var ErrMalformedObjectPath = errors.New("malformed object path")

// ObjectRef identifies one uploaded object and carries the message id encoded
// in its path.
type ObjectRef struct {
	Bucket    string
	Path      string
	MessageID string
}

// ParseObjectPath validates an object path of the form
// "<prefix>/<message id>/<file>" and extracts the owning message id from the
// second path segment.
func ParseObjectPath(bucket, objectPath string) (ObjectRef, error) {
	segments := strings.Split(objectPath, "/")
	if len(segments) < 2 {
		return ObjectRef{}, fmt.Errorf("%w: %q has no message id segment", ErrMalformedObjectPath, objectPath)
	}
	if segments[0] == "" || segments[1] == "" {
		return ObjectRef{}, fmt.Errorf("%w: %q has an empty segment", ErrMalformedObjectPath, objectPath)
	}

	return ObjectRef{
		Bucket:    bucket,
		Path:      objectPath,
		MessageID: segments[1],
	}, nil
}
