package entity

import "time"

// BroadcastIDLayout formats broadcast ids. The layout is fixed width so ids
// sort chronologically as strings.
const BroadcastIDLayout = "2006-01-02T15:04:05.000000"

// Recipient is one delivery receipt of a broadcast.
type Recipient struct {
	UserID    int64
	MessageID int
}

// BroadcastRecord 广播记录
type BroadcastRecord struct {
	ID         string
	CreatedAt  time.Time
	Recipients []Recipient
}

// NewBroadcastRecord starts an empty record stamped with at.
func NewBroadcastRecord(at time.Time) *BroadcastRecord {
	return &BroadcastRecord{
		ID:         at.Format(BroadcastIDLayout),
		CreatedAt:  at,
		Recipients: make([]Recipient, 0),
	}
}

// AddRecipient appends a delivery receipt, keeping send order.
func (b *BroadcastRecord) AddRecipient(userID int64, messageID int) {
	b.Recipients = append(b.Recipients, Recipient{UserID: userID, MessageID: messageID})
}
