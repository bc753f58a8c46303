package service

import "context"

// 领域事件类型
const (
	EventUserMessage      = "relay.user_message"
	EventUserBlocked      = "relay.user_blocked"
	EventForwardFailed    = "relay.forward_failed"
	EventStaffReply       = "relay.staff_reply"
	EventStaffReplyFailed = "relay.staff_reply_failed"
	EventUserBanned       = "moderation.user_banned"
	EventUserUnbanned     = "moderation.user_unbanned"
	EventBroadcastSent    = "broadcast.sent"
	EventBroadcastDeleted = "broadcast.deleted"
	EventMessageDeleted   = "moderation.message_deleted"
)

// EventEmitter publishes domain events. Emit must not block the caller.
type EventEmitter interface {
	Emit(ctx context.Context, eventType string, payload any)
}

// NopEmitter discards events.
type NopEmitter struct{}

// Emit 丢弃事件
func (NopEmitter) Emit(context.Context, string, any) {}

// UserMessagePayload 用户消息事件载荷
type UserMessagePayload struct {
	UserID    int64
	Kind      string
	Forwarded bool
}

// StaffReplyPayload 管理员回复事件载荷
type StaffReplyPayload struct {
	UserID int64
	Kind   string
}

// ModerationPayload 封禁/解封事件载荷
type ModerationPayload struct {
	UserID int64
	Reason string
}

// BroadcastPayload 广播事件载荷
type BroadcastPayload struct {
	BroadcastID string
	Succeeded   int
	Failed      int
}
