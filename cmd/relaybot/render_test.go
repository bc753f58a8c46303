package main

import (
	"strings"
	"testing"

	"github.com/relaydesk/relaybot/internal/application/usecase"
	"github.com/relaydesk/relaybot/internal/domain/entity"
)

func TestRenderSummary(t *testing.T) {
	out := renderSummary(&usecase.StatsSummary{
		TotalUsers:     12,
		DisplayUsers:   86,
		BannedUsers:    1,
		TotalMessages:  40,
		ActiveMappings: 7,
		LastUpdated:    "2026-03-01T09:30:00.000000",
	})
	for _, want := range []string{"Total users", "12", "86", "Active mappings", "2026-03-01T09:30:00.000000"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderUsers(t *testing.T) {
	if out := renderUsers(nil); !strings.Contains(out, "No users yet") {
		t.Errorf("empty list rendered as %q", out)
	}

	out := renderUsers([]usecase.UserView{
		{ID: 555, DisplayName: "Ali", Username: "ali", JoinDate: "2026-03-01T09:30:00.000000", IsBanned: true},
		{ID: 7, DisplayName: "Sara", Username: entity.NoUsername},
	})
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "555") || !strings.Contains(lines[1], "banned") {
		t.Errorf("banned user row = %q", lines[1])
	}
	if strings.Contains(lines[2], "banned") {
		t.Errorf("unbanned user tagged: %q", lines[2])
	}
}

func TestRenderActivity_FlattensAndTruncates(t *testing.T) {
	long := strings.Repeat("a", 100) + "\nsecond line"
	out := renderActivity([]usecase.ActivityView{
		{UserID: 1, Message: long, Type: entity.HistoryUserMessage, Timestamp: "2026-03-01T09:30:00.000000"},
	})
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("message newline leaked into output:\n%s", out)
	}
	if !strings.HasSuffix(lines[1], "...") {
		t.Errorf("long message not truncated: %q", lines[1])
	}

	if out := renderActivity(nil); !strings.Contains(out, "No recent activity") {
		t.Errorf("empty activity rendered as %q", out)
	}
}
