package telegram

import (
	"context"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text    string
		name    string
		rawArgs string
		args    int
	}{
		{"/list", "list", "", 0},
		{"/ban 42 spam links", "ban", "42 spam links", 3},
		{"/ban@relay_bot 42", "ban", "42", 1},
		{"/all\nline one\nline two", "all", "line one\nline two", 4},
	}
	for _, tt := range tests {
		cmd := ParseCommand(tt.text)
		if cmd == nil {
			t.Fatalf("ParseCommand(%q) = nil", tt.text)
		}
		if cmd.Name != tt.name || cmd.RawArgs != tt.rawArgs || len(cmd.Args) != tt.args {
			t.Errorf("ParseCommand(%q) = %+v", tt.text, cmd)
		}
	}

	for _, text := range []string{"hello", "/", "/ x"} {
		if cmd := ParseCommand(text); cmd != nil {
			t.Errorf("ParseCommand(%q) = %+v, want nil", text, cmd)
		}
	}
}

func TestCommandRegistry(t *testing.T) {
	r := NewCommandRegistry()
	var called string
	r.Register("all", "broadcast", func(_ context.Context, cmd *Command) ([]string, error) {
		called = cmd.Name
		return []string{"ok"}, nil
	})
	r.Register("list", "count", func(context.Context, *Command) ([]string, error) { return nil, nil })
	r.Alias("broadcast", "all")

	replies, handled, err := r.Handle(context.Background(), &Command{Name: "Broadcast"})
	if err != nil || !handled || len(replies) != 1 || called != "Broadcast" {
		t.Fatalf("alias dispatch failed: %v %v %v %q", replies, handled, err, called)
	}

	if _, handled, _ := r.Handle(context.Background(), &Command{Name: "missing"}); handled {
		t.Fatal("unknown command reported as handled")
	}

	menu := r.Menu()
	if len(menu) != 2 || menu[0].Command != "all" || menu[1].Description != "count" {
		t.Fatalf("unexpected menu: %+v", menu)
	}
}

func TestRegisterStaffCommands(t *testing.T) {
	r := NewCommandRegistry()
	RegisterStaffCommands(r, &fakeStaff{})

	names := map[string]bool{}
	for _, c := range r.Menu() {
		names[c.Command] = true
	}
	for _, want := range []string{"all", "list", "ban", "unban", "banlist", "history", "delete", "commands"} {
		if !names[want] {
			t.Errorf("menu misses %s", want)
		}
	}
	if names["help"] || names["broadcast"] {
		t.Error("aliases must not appear in the menu")
	}
}
