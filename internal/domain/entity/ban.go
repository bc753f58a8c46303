package entity

import "time"

// DefaultBanReason is used when /ban is given no reason.
const DefaultBanReason = "No reason provided"

// BanRecord marks a user as banned. A record exists iff the user is banned.
//
// Username and DisplayName are snapshots taken when the ban was issued.
type BanRecord struct {
	UserID      int64
	Username    string
	DisplayName string
	Reason      string
	BanDate     time.Time
}

// NewBanRecord builds a ban for userID. known may be nil when the user never
// contacted the bot; the snapshot fields then read "Unknown".
func NewBanRecord(userID int64, known *User, reason string, at time.Time) (*BanRecord, error) {
	if userID == 0 {
		return nil, ErrInvalidUserID
	}
	if reason == "" {
		reason = DefaultBanReason
	}

	rec := &BanRecord{
		UserID:      userID,
		Username:    "Unknown",
		DisplayName: "Unknown",
		Reason:      reason,
		BanDate:     at,
	}
	if known != nil {
		rec.Username = known.Handle()
		rec.DisplayName = known.DisplayName()
	}
	return rec, nil
}
