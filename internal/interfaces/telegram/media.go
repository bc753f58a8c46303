package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/relaydesk/relaybot/internal/domain/valueobject"
)

// ContentFromMessage classifies a Telegram message. Animations are checked
// before documents because the Bot API fills both fields for a GIF.
func ContentFromMessage(msg *tgbotapi.Message) valueobject.Content {
	switch {
	case msg == nil:
		return valueobject.UnsupportedContent()
	case msg.Text != "":
		return valueobject.NewTextContent(msg.Text)
	case len(msg.Photo) > 0:
		return valueobject.NewMediaContent(valueobject.KindPhoto, msg.Caption)
	case msg.Video != nil:
		return valueobject.NewMediaContent(valueobject.KindVideo, msg.Caption)
	case msg.Audio != nil:
		return valueobject.NewMediaContent(valueobject.KindAudio, msg.Caption)
	case msg.Voice != nil:
		return valueobject.NewMediaContent(valueobject.KindVoice, msg.Caption)
	case msg.Animation != nil:
		return valueobject.NewMediaContent(valueobject.KindAnimation, msg.Caption)
	case msg.Document != nil:
		return valueobject.NewDocumentContent(msg.Document.FileName, msg.Caption)
	case msg.Sticker != nil:
		return valueobject.NewStickerContent(msg.Sticker.Emoji)
	case msg.VideoNote != nil:
		return valueobject.NewMediaContent(valueobject.KindVideoNote, "")
	case msg.Location != nil:
		return valueobject.NewLocationContent(msg.Location.Latitude, msg.Location.Longitude)
	case msg.Contact != nil:
		return valueobject.NewContactContent(msg.Contact.FirstName)
	default:
		return valueobject.UnsupportedContent()
	}
}
