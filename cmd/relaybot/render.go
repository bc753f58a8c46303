package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/relaydesk/relaybot/internal/application/usecase"
	"github.com/relaydesk/relaybot/internal/domain/valueobject"
)

var (
	colorCyan   = lipgloss.Color("#00D7FF")
	colorGray   = lipgloss.Color("#6C6C6C")
	colorWhite  = lipgloss.Color("#FFFFFF")
	colorGreen  = lipgloss.Color("#00FF87")
	colorYellow = lipgloss.Color("#FFD75F")
	colorRed    = lipgloss.Color("#FF5F5F")

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorCyan).
			Padding(0, 2)
	titleStyle = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(colorGray).Width(18)
	valueStyle = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	bannedTag  = lipgloss.NewStyle().Foreground(colorRed).Render("banned")
	dimStyle   = lipgloss.NewStyle().Foreground(colorGray)
)

// activity previews are cut to keep one entry per line
const activityPreview = 60

func renderSummary(s *usecase.StatsSummary) string {
	rows := []struct {
		label string
		value int
	}{
		{"Total users", s.TotalUsers},
		{"Shown users", s.DisplayUsers},
		{"Banned users", s.BannedUsers},
		{"Total messages", s.TotalMessages},
		{"Active mappings", s.ActiveMappings},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("📊 Relay bot statistics"))
	b.WriteString("\n\n")
	for _, r := range rows {
		b.WriteString(labelStyle.Render(r.label))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%d", r.value)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Updated " + s.LastUpdated))
	return boxStyle.Render(b.String())
}

func renderUsers(users []usecase.UserView) string {
	if len(users) == 0 {
		return dimStyle.Render("No users yet")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("👥 Users (%d)", len(users))))
	b.WriteString("\n")
	for _, u := range users {
		line := fmt.Sprintf("%-14d %s %s %s",
			u.ID,
			valueStyle.Render(u.DisplayName),
			dimStyle.Render("@"+u.Username),
			dimStyle.Render(u.JoinDate),
		)
		if u.IsBanned {
			line += " " + bannedTag
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderActivity(items []usecase.ActivityView) string {
	if len(items) == 0 {
		return dimStyle.Render("No recent activity")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("🕒 Recent activity"))
	b.WriteString("\n")
	for _, a := range items {
		fmt.Fprintf(&b, "%s %-14d %s %s\n",
			dimStyle.Render(a.Timestamp),
			a.UserID,
			okStyle.Render(string(a.Type)),
			valueobject.Truncate(strings.ReplaceAll(a.Message, "\n", " "), activityPreview),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}
