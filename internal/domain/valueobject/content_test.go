package valueobject

import (
	"strings"
	"testing"
)

func TestContentSummary(t *testing.T) {
	tests := []struct {
		name    string
		content Content
		want    string
	}{
		{"text passthrough", NewTextContent("hello"), "hello"},
		{"photo with caption", NewMediaContent(KindPhoto, "look"), "[Photo] look"},
		{"photo without caption", NewMediaContent(KindPhoto, ""), "[Photo]"},
		{"video", NewMediaContent(KindVideo, "clip"), "[Video] clip"},
		{"audio", NewMediaContent(KindAudio, ""), "[Audio]"},
		{"voice ignores caption", NewMediaContent(KindVoice, "x"), "[Voice message]"},
		{"document", NewDocumentContent("report.pdf", "Q3"), "[File: report.pdf] Q3"},
		{"document no caption", NewDocumentContent("a.txt", ""), "[File: a.txt]"},
		{"sticker", NewStickerContent("😀"), "[Sticker: 😀]"},
		{"animation", NewMediaContent(KindAnimation, "lol"), "[GIF] lol"},
		{"video note", NewMediaContent(KindVideoNote, ""), "[Video note]"},
		{"location", NewLocationContent(24.7136, 46.6753), "[Location: 24.7136, 46.6753]"},
		{"contact", NewContactContent("Omar"), "[Contact: Omar]"},
		{"unsupported", UnsupportedContent(), "[Unsupported message type]"},
		{"zero value", Content{}, "[Unsupported message type]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.content.Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 100); got != "short" {
		t.Errorf("Truncate(short) = %q", got)
	}
	long := strings.Repeat("ب", 150)
	got := Truncate(long, 100)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	if n := len([]rune(strings.TrimSuffix(got, "..."))); n != 100 {
		t.Errorf("kept %d runes, want 100", n)
	}
}

func TestSplitFixed(t *testing.T) {
	s := strings.Repeat("a", 9000)
	chunks := SplitFixed(s, 4000)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if len(chunks[0]) != 4000 || len(chunks[1]) != 4000 || len(chunks[2]) != 1000 {
		t.Errorf("unexpected chunk sizes %d/%d/%d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
	if strings.Join(chunks, "") != s {
		t.Error("chunks do not reassemble to input")
	}
	if got := SplitFixed("", 4000); len(got) != 0 {
		t.Errorf("empty input produced %d chunks", len(got))
	}
}
