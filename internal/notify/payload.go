// Package notify fans one new chat message out to every registered device
// and prunes registrations the dispatcher reports as gone.
package notify

import (
	"fmt"

	"github.com/parlorchat/functions/internal/models"
	"github.com/parlorchat/functions/internal/push"
)

// PlaceholderIcon is shown for authors without a profile picture.
const PlaceholderIcon = "/images/profile_placeholder.png"

// maxBodyLength caps the notification body; longer text is cut to 97
// characters plus an ellipsis marker.
const maxBodyLength = 100

// BuildPayload derives the notification content for one new message.
func BuildPayload(msg *models.Message, appURL string) push.Payload {
	kind := "an image"
	if msg.HasText() {
		kind = "a message"
	}

	icon := msg.ProfilePicURL
	if icon == "" {
		icon = PlaceholderIcon
	}

	return push.Payload{
		Title:       fmt.Sprintf("%s posted %s", msg.Name, kind),
		Body:        truncateBody(msg.Text),
		Icon:        icon,
		ClickAction: appURL,
	}
}

// truncateBody caps text at 100 characters. Lengths are counted in runes so
// multi-byte text is never split mid-character.
func truncateBody(text string) string {
	runes := []rune(text)
	if len(runes) <= maxBodyLength {
		return text
	}
	return string(runes[:maxBodyLength-3]) + "..."
}
