package entity

import (
	"testing"
	"time"
)

func TestUserDisplayName(t *testing.T) {
	cases := []struct {
		name                  string
		username, first, last string
		want                  string
	}{
		{"full name", "ali", "Ali", "Hassan", "Ali Hassan"},
		{"first only", "ali", "Ali", "", "Ali"},
		{"username fallback", "ali", "", "", "ali"},
		{"id fallback", "", "", "", "User_555"},
		{"placeholder username is dropped", NoUsername, "", "", "User_555"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := NewUser(555, tc.username, tc.first, tc.last, time.Now())
			if err != nil {
				t.Fatalf("NewUser: %v", err)
			}
			if got := u.DisplayName(); got != tc.want {
				t.Errorf("DisplayName() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewUserRejectsZeroID(t *testing.T) {
	if _, err := NewUser(0, "x", "", "", time.Now()); err != ErrInvalidUserID {
		t.Fatalf("expected ErrInvalidUserID, got %v", err)
	}
}

func TestDisplayedUserCount(t *testing.T) {
	if got := DisplayedUserCount(0); got != 1200 {
		t.Errorf("DisplayedUserCount(0) = %d", got)
	}
	if got := DisplayedUserCount(7); got != 1207 {
		t.Errorf("DisplayedUserCount(7) = %d", got)
	}
}

func TestNewBanRecordSnapshots(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	unknown, err := NewBanRecord(42, nil, "", now)
	if err != nil {
		t.Fatalf("NewBanRecord: %v", err)
	}
	if unknown.Username != "Unknown" || unknown.DisplayName != "Unknown" {
		t.Errorf("unexpected snapshot for unknown user: %+v", unknown)
	}
	if unknown.Reason != DefaultBanReason {
		t.Errorf("Reason = %q", unknown.Reason)
	}

	u, _ := NewUser(42, "", "Sara", "", now)
	known, _ := NewBanRecord(42, u, "spam", now)
	if known.Username != NoUsername || known.DisplayName != "Sara" || known.Reason != "spam" {
		t.Errorf("unexpected snapshot: %+v", known)
	}
}

func TestBroadcastIDsSortChronologically(t *testing.T) {
	a := NewBroadcastRecord(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	b := NewBroadcastRecord(time.Date(2026, 3, 1, 9, 0, 0, 1000, time.UTC))
	if !(a.ID < b.ID) {
		t.Fatalf("expected %q < %q", a.ID, b.ID)
	}
	b.AddRecipient(1, 10)
	b.AddRecipient(2, 11)
	if len(b.Recipients) != 2 || b.Recipients[1].UserID != 2 {
		t.Errorf("recipients out of order: %+v", b.Recipients)
	}
}

func TestNewHistoryEntryValidatesType(t *testing.T) {
	if _, err := NewHistoryEntry("x", HistoryType("bogus"), time.Now()); err != ErrInvalidHistoryType {
		t.Fatalf("expected ErrInvalidHistoryType, got %v", err)
	}
	e, err := NewHistoryEntry("hello", HistoryUserMessage, time.Now())
	if err != nil || e.Type != HistoryUserMessage {
		t.Fatalf("unexpected entry %+v err=%v", e, err)
	}
}
