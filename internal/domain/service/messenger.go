package service

import (
	"context"
	"time"

	"github.com/relaydesk/relaybot/internal/domain/valueobject"
)

// Outgoing 待发送的消息
type Outgoing struct {
	ChatID    int64
	Text      string
	ReplyToID int
	// KeyboardButton attaches a persistent one-button reply keyboard when set.
	KeyboardButton string
}

// Messenger 消息平台端口
//
// Implementations return the id of the message created in the destination
// chat. Errors mean nothing was delivered.
type Messenger interface {
	// Send 发送文本消息
	Send(ctx context.Context, msg Outgoing) (int, error)

	// Forward copies an existing message verbatim into toChatID.
	Forward(ctx context.Context, toChatID, fromChatID int64, messageID int) (int, error)

	// Delete 删除消息
	Delete(ctx context.Context, chatID int64, messageID int) error
}

// Sender 消息发送者
type Sender struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// InboundMessage is a message a user sent to the bot in a private chat.
type InboundMessage struct {
	MessageID int
	ChatID    int64
	From      Sender
	Content   valueobject.Content
	Date      time.Time
}

// StaffReply is a staff chat message sent as a reply to another message.
type StaffReply struct {
	MessageID int
	ChatID    int64
	ReplyToID int
	Content   valueobject.Content
}
