package models

import "time"

// Message is a single chat message document.
//
// Messages are created by clients posting to the chat collection, or by the
// welcome emitter when a new account signs in. The moderation flag means the
// referenced image was blurred, not that it was checked: images classified
// safe stay unmarked. It is mutated only by the moderation pipeline and
// transitions from false to true at most once. Messages are never deleted by
// this backend.
type Message struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	Name          string    `bson:"name" json:"name"`
	Text          string    `bson:"text,omitempty" json:"text,omitempty"`
	ProfilePicURL string    `bson:"profile_pic_url,omitempty" json:"profile_pic_url,omitempty"`
	ImageURL      string    `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Moderated     bool      `bson:"moderated" json:"moderated"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// HasText reports whether the message carries text (as opposed to image-only).
func (m *Message) HasText() bool {
	return m.Text != ""
}

// HasImage reports whether the message references an uploaded image.
func (m *Message) HasImage() bool {
	return m.ImageURL != ""
}
