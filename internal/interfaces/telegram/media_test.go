package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestContentFromMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  *tgbotapi.Message
		want string
	}{
		{"text", &tgbotapi.Message{Text: "hello"}, "hello"},
		{"photo", &tgbotapi.Message{Photo: []tgbotapi.PhotoSize{{FileID: "a"}}, Caption: "receipt"}, "[Photo] receipt"},
		{"voice", &tgbotapi.Message{Voice: &tgbotapi.Voice{}}, "[Voice message]"},
		{"gif beats document", &tgbotapi.Message{
			Animation: &tgbotapi.Animation{},
			Document:  &tgbotapi.Document{FileName: "a.gif.mp4"},
		}, "[GIF]"},
		{"document", &tgbotapi.Message{Document: &tgbotapi.Document{FileName: "cv.pdf"}}, "[File: cv.pdf]"},
		{"sticker", &tgbotapi.Message{Sticker: &tgbotapi.Sticker{Emoji: "👍"}}, "[Sticker: 👍]"},
		{"video note", &tgbotapi.Message{VideoNote: &tgbotapi.VideoNote{}}, "[Video note]"},
		{"location", &tgbotapi.Message{Location: &tgbotapi.Location{Latitude: 24.7136, Longitude: 46.6753}}, "[Location: 24.7136, 46.6753]"},
		{"contact", &tgbotapi.Message{Contact: &tgbotapi.Contact{FirstName: "Sara"}}, "[Contact: Sara]"},
		{"poll", &tgbotapi.Message{Poll: &tgbotapi.Poll{}}, "[Unsupported message type]"},
		{"nil", nil, "[Unsupported message type]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentFromMessage(tt.msg).Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}
