package models

import "time"

// DeviceToken is a push-notification device registration. The opaque
// platform-issued token string doubles as the document key; registrations are
// created by clients and deleted by the notification fan-out when the push
// dispatcher reports them gone.
type DeviceToken struct {
	Token     string    `bson:"_id" json:"token"`
	CreatedAt time.Time `bson:"created_at,omitempty" json:"created_at,omitempty"`
}
