package entity

import "time"

// HistoryType 历史记录类型
type HistoryType string

const (
	HistoryUserMessage HistoryType = "user_message"
	HistoryAdminReply  HistoryType = "admin_reply"
)

// Valid reports whether t is one of the known history types.
func (t HistoryType) Valid() bool {
	return t == HistoryUserMessage || t == HistoryAdminReply
}

// HistoryEntry is one line of a user's conversation log. Entries are only
// ever appended.
type HistoryEntry struct {
	Message   string
	Type      HistoryType
	Timestamp time.Time
}

// NewHistoryEntry 创建历史记录
func NewHistoryEntry(message string, typ HistoryType, at time.Time) (HistoryEntry, error) {
	if !typ.Valid() {
		return HistoryEntry{}, ErrInvalidHistoryType
	}
	return HistoryEntry{Message: message, Type: typ, Timestamp: at}, nil
}
