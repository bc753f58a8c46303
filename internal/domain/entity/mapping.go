package entity

// ForwardMapping links the copy of a user message forwarded into the staff
// chat back to the user who sent it.
type ForwardMapping struct {
	StaffMessageID int
	UserID         int64
}

// ReplyMapping links a staff reply to the message that was delivered to the
// user, so deleting the reply can also retract the delivered copy.
type ReplyMapping struct {
	StaffMessageID int
	UserID         int64
	MessageID      int
}
