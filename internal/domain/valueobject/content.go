package valueobject

import (
	"strconv"
	"strings"
)

// ContentKind 消息内容类型（封闭集合）
type ContentKind string

const (
	KindText        ContentKind = "text"
	KindPhoto       ContentKind = "photo"
	KindVideo       ContentKind = "video"
	KindAudio       ContentKind = "audio"
	KindVoice       ContentKind = "voice"
	KindDocument    ContentKind = "document"
	KindSticker     ContentKind = "sticker"
	KindAnimation   ContentKind = "animation"
	KindVideoNote   ContentKind = "video_note"
	KindLocation    ContentKind = "location"
	KindContact     ContentKind = "contact"
	KindUnsupported ContentKind = "unsupported"
)

// Content 消息内容值对象（不可变）
//
// Only the fields relevant to the kind are set. The original message is
// forwarded separately; Content is the plain-text view kept in history.
type Content struct {
	kind      ContentKind
	text      string
	caption   string
	fileName  string
	emoji     string
	latitude  float64
	longitude float64
	firstName string
}

// NewTextContent 创建文本内容
func NewTextContent(text string) Content {
	return Content{kind: KindText, text: text}
}

// NewMediaContent covers photo, video, audio, voice, animation and
// video_note, which only carry an optional caption.
func NewMediaContent(kind ContentKind, caption string) Content {
	return Content{kind: kind, caption: caption}
}

// NewDocumentContent 创建文件内容
func NewDocumentContent(fileName, caption string) Content {
	return Content{kind: KindDocument, fileName: fileName, caption: caption}
}

// NewStickerContent 创建贴纸内容
func NewStickerContent(emoji string) Content {
	return Content{kind: KindSticker, emoji: emoji}
}

// NewLocationContent 创建位置内容
func NewLocationContent(lat, lon float64) Content {
	return Content{kind: KindLocation, latitude: lat, longitude: lon}
}

// NewContactContent 创建联系人内容
func NewContactContent(firstName string) Content {
	return Content{kind: KindContact, firstName: firstName}
}

// UnsupportedContent is used for anything the classifier does not know.
func UnsupportedContent() Content {
	return Content{kind: KindUnsupported}
}

// Kind 返回内容类型
func (c Content) Kind() ContentKind {
	return c.kind
}

// Text returns the raw text for text content, "" otherwise.
func (c Content) Text() string {
	return c.text
}

// Caption 返回媒体说明
func (c Content) Caption() string {
	return c.caption
}

// IsText 判断是否为纯文本
func (c Content) IsText() bool {
	return c.kind == KindText
}

type formatter func(Content) string

func tagged(tag string) formatter {
	return func(c Content) string {
		return strings.TrimSpace(tag + " " + c.caption)
	}
}

var formatters = map[ContentKind]formatter{
	KindText:      func(c Content) string { return c.text },
	KindPhoto:     tagged("[Photo]"),
	KindVideo:     tagged("[Video]"),
	KindAudio:     tagged("[Audio]"),
	KindVoice:     func(Content) string { return "[Voice message]" },
	KindDocument:  func(c Content) string { return strings.TrimSpace("[File: " + c.fileName + "] " + c.caption) },
	KindSticker:   func(c Content) string { return "[Sticker: " + c.emoji + "]" },
	KindAnimation: tagged("[GIF]"),
	KindVideoNote: func(Content) string { return "[Video note]" },
	KindLocation: func(c Content) string {
		return "[Location: " + strconv.FormatFloat(c.latitude, 'f', -1, 64) + ", " +
			strconv.FormatFloat(c.longitude, 'f', -1, 64) + "]"
	},
	KindContact:     func(c Content) string { return "[Contact: " + c.firstName + "]" },
	KindUnsupported: func(Content) string { return "[Unsupported message type]" },
}

// Summary renders the human-readable line stored in history and shown to
// staff.
func (c Content) Summary() string {
	if f, ok := formatters[c.kind]; ok {
		return f(c)
	}
	return formatters[KindUnsupported](c)
}
