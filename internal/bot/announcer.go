package bot

import (
	"github.com/user/anime-notify-bot/internal/model"
)

// Announcer adapts the Telegram client to the notification scheduler's
// delivery interface.
type Announcer struct {
	telegram *Client
}

// NewAnnouncer creates the airing notification delivery adapter
func NewAnnouncer(telegram *Client) *Announcer {
	return &Announcer{telegram: telegram}
}

// NotifyAiring composes and sends the weekly airing alert to the chat
// target, tagging the subscribed user. Sends the title picture when one is
// cached, falling back to plain markdown.
func (a *Announcer) NotifyAiring(groupID, userID int64, detail *model.AnimeDetail) error {
	text := FormatAiringNotification(userID, detail)

	if pictureURL := PictureURL(detail); pictureURL != "" {
		if err := a.telegram.SendPhoto(groupID, pictureURL, text); err == nil {
			return nil
		}
		// Photo delivery can fail on stale provider URLs; the text alert
		// still has to reach the chat.
	}
	return a.telegram.SendMarkdown(groupID, text)
}
