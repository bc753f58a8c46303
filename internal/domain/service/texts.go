package service

import "sync/atomic"

// Texts holds every user-facing string the relay sends.
type Texts struct {
	Welcome         string
	Confirmation    string
	Banned          string
	Unbanned        string
	StartButton     string
	ReplyHeader     string
	BroadcastHeader string
}

// DefaultTexts 默认文案
func DefaultTexts() Texts {
	return Texts{
		Welcome: "Welcome to the support desk bot.\n\n" +
			"Use it to send proof of subscription, report what you ran into, or share feedback and suggestions.\n\n" +
			"Send your message and we will get back to you as soon as possible 🫡",
		Confirmation:    "✅ Your message has been sent. We will reply as soon as possible.",
		Banned:          "You have been banned from using this bot ❌",
		Unbanned:        "Your ban has been lifted. Please do not repeat the previous mistakes!",
		StartButton:     "🚀 Start",
		ReplyHeader:     "📩 Reply from the team:",
		BroadcastHeader: "📢 Message from the team:",
	}
}

// WithDefaults fills empty fields from DefaultTexts.
func (t Texts) WithDefaults() Texts {
	d := DefaultTexts()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&t.Welcome, d.Welcome)
	fill(&t.Confirmation, d.Confirmation)
	fill(&t.Banned, d.Banned)
	fill(&t.Unbanned, d.Unbanned)
	fill(&t.StartButton, d.StartButton)
	fill(&t.ReplyHeader, d.ReplyHeader)
	fill(&t.BroadcastHeader, d.BroadcastHeader)
	return t
}

// TextCatalog is a concurrency-safe holder for the current texts. It is
// swapped wholesale when the config file changes.
type TextCatalog struct {
	current atomic.Pointer[Texts]
}

// NewTextCatalog 创建文案目录
func NewTextCatalog(t Texts) *TextCatalog {
	c := &TextCatalog{}
	c.Replace(t)
	return c
}

// Current 返回当前文案
func (c *TextCatalog) Current() Texts {
	return *c.current.Load()
}

// Replace 替换文案
func (c *TextCatalog) Replace(t Texts) {
	t = t.WithDefaults()
	c.current.Store(&t)
}
