package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/relaydesk/relaybot/internal/domain/entity"
	"github.com/relaydesk/relaybot/internal/domain/repository"
	apperrors "github.com/relaydesk/relaybot/pkg/errors"
)

// HeaderTimeLayout formats the date line of the staff header.
const HeaderTimeLayout = "2006-01-02 15:04:05"

const (
	replyDeliveredAck = "✅ Reply delivered to the user"
	replyFailedAck    = "❌ Failed to deliver reply: %s"
	adminReplyPrefix  = "Admin reply: "
)

// UserOutcome 用户消息处理结果
type UserOutcome int

const (
	UserBanned UserOutcome = iota
	UserRelayed
	UserRelayFailed
	UserWelcomed
)

// ReplyOutcome 管理员回复处理结果
type ReplyOutcome int

const (
	ReplyIgnored ReplyOutcome = iota
	ReplyNote
	ReplyUnmapped
	ReplyDelivered
	ReplyFailed
)

// RelayStores groups the repositories the relay touches.
type RelayStores struct {
	Users    repository.UserRepository
	History  repository.HistoryRepository
	Bans     repository.BanRepository
	Mappings repository.MappingRepository
}

// RelayEngine 消息中继领域服务
//
// 用户私聊消息转发到管理群；管理员对转发消息的回复再路由回原用户。
type RelayEngine struct {
	stores      RelayStores
	messenger   Messenger
	texts       *TextCatalog
	events      EventEmitter
	staffChatID int64
	logger      *zap.Logger
	now         func() time.Time
}

// NewRelayEngine 创建中继引擎
func NewRelayEngine(
	stores RelayStores,
	messenger Messenger,
	texts *TextCatalog,
	events EventEmitter,
	staffChatID int64,
	logger *zap.Logger,
) *RelayEngine {
	if events == nil {
		events = NopEmitter{}
	}
	return &RelayEngine{
		stores:      stores,
		messenger:   messenger,
		texts:       texts,
		events:      events,
		staffChatID: staffChatID,
		logger:      logger.With(zap.String("component", "relay")),
		now:         time.Now,
	}
}

// SetClock overrides the time source (for testing).
func (e *RelayEngine) SetClock(now func() time.Time) {
	e.now = now
}

// StaffChatID 返回管理群ID
func (e *RelayEngine) StaffChatID() int64 {
	return e.staffChatID
}

// IsStartButton reports whether text is the persistent start button label.
func (e *RelayEngine) IsStartButton(text string) bool {
	return text == e.texts.Current().StartButton
}

// Welcome answers /start: the user is recorded and receives the welcome
// text with the start keyboard attached. Banned users are welcomed too;
// the ban applies to what they send afterwards.
func (e *RelayEngine) Welcome(ctx context.Context, msg InboundMessage) (UserOutcome, error) {
	e.upsertUser(ctx, msg.From)

	texts := e.texts.Current()
	if _, err := e.messenger.Send(ctx, Outgoing{
		ChatID:         msg.ChatID,
		Text:           texts.Welcome,
		KeyboardButton: texts.StartButton,
	}); err != nil {
		return UserWelcomed, apperrors.NewUnavailableError("failed to send welcome", err)
	}
	return UserWelcomed, nil
}

// IngestUserMessage relays a private message into the staff chat.
//
// The user is always acknowledged unless banned, even when the staff chat
// could not be reached. The start button label is answered with Welcome
// instead of being relayed.
func (e *RelayEngine) IngestUserMessage(ctx context.Context, msg InboundMessage) (UserOutcome, error) {
	log := e.logger.With(zap.Int64("user_id", msg.From.ID), zap.Int("message_id", msg.MessageID))

	if e.isBanned(ctx, msg.From.ID) {
		return e.rejectBanned(ctx, msg)
	}
	if msg.Content.IsText() && e.IsStartButton(msg.Content.Text()) {
		return e.Welcome(ctx, msg)
	}

	user := e.upsertUser(ctx, msg.From)

	summary := msg.Content.Summary()
	entry, _ := entity.NewHistoryEntry(summary, entity.HistoryUserMessage, e.now())
	if err := e.stores.History.Append(ctx, msg.From.ID, entry); err != nil {
		log.Error("Failed to append history", zap.Error(err))
	}

	outcome := UserRelayed
	forwardedID, err := e.forwardToStaff(ctx, user, msg)
	if err != nil {
		outcome = UserRelayFailed
		log.Error("Failed to relay message to staff chat",
			zap.Int64("chat_id", e.staffChatID),
			zap.Error(err),
		)
		e.events.Emit(ctx, EventForwardFailed, UserMessagePayload{UserID: msg.From.ID, Kind: string(msg.Content.Kind())})
	} else {
		if err := e.stores.Mappings.SaveForward(ctx, entity.ForwardMapping{
			StaffMessageID: forwardedID,
			UserID:         msg.From.ID,
		}); err != nil {
			log.Error("Failed to save forward mapping", zap.Int("forwarded_id", forwardedID), zap.Error(err))
		}
		log.Info("Message relayed", zap.Int("forwarded_id", forwardedID))
	}

	e.events.Emit(ctx, EventUserMessage, UserMessagePayload{
		UserID:    msg.From.ID,
		Kind:      string(msg.Content.Kind()),
		Forwarded: outcome == UserRelayed,
	})

	if _, err := e.messenger.Send(ctx, Outgoing{
		ChatID: msg.ChatID,
		Text:   e.texts.Current().Confirmation,
	}); err != nil {
		return outcome, apperrors.NewUnavailableError("failed to confirm receipt", err)
	}
	return outcome, nil
}

// IngestStaffReply routes a staff reply back to the user whose forwarded
// message it answers. Staff get an inline acknowledgement either way.
func (e *RelayEngine) IngestStaffReply(ctx context.Context, reply StaffReply) (ReplyOutcome, error) {
	if reply.ChatID != e.staffChatID || reply.ReplyToID == 0 {
		return ReplyIgnored, nil
	}

	log := e.logger.With(zap.Int("message_id", reply.MessageID), zap.Int("reply_to", reply.ReplyToID))

	if reply.Content.IsText() && strings.HasPrefix(strings.TrimSpace(reply.Content.Text()), "@") {
		log.Debug("Internal note, not relayed")
		return ReplyNote, nil
	}

	userID, err := e.stores.Mappings.FindForward(ctx, reply.ReplyToID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			log.Error("Failed to look up forward mapping", zap.Error(err))
		}
		return ReplyUnmapped, nil
	}
	log = log.With(zap.Int64("user_id", userID))

	deliveredID, err := e.deliverReply(ctx, userID, reply)
	if err != nil {
		log.Warn("Failed to deliver staff reply", zap.Error(err))
		e.events.Emit(ctx, EventStaffReplyFailed, StaffReplyPayload{UserID: userID, Kind: string(reply.Content.Kind())})
		e.ackStaff(ctx, reply.MessageID, fmt.Sprintf(replyFailedAck, err.Error()))
		return ReplyFailed, apperrors.NewUnavailableError("failed to deliver reply", err)
	}

	if err := e.stores.Mappings.SaveReply(ctx, entity.ReplyMapping{
		StaffMessageID: reply.MessageID,
		UserID:         userID,
		MessageID:      deliveredID,
	}); err != nil {
		log.Error("Failed to save reply mapping", zap.Error(err))
	}

	entry, _ := entity.NewHistoryEntry(adminReplyPrefix+reply.Content.Summary(), entity.HistoryAdminReply, e.now())
	if err := e.stores.History.Append(ctx, userID, entry); err != nil {
		log.Error("Failed to append history", zap.Error(err))
	}

	e.events.Emit(ctx, EventStaffReply, StaffReplyPayload{UserID: userID, Kind: string(reply.Content.Kind())})
	e.ackStaff(ctx, reply.MessageID, replyDeliveredAck)
	log.Info("Staff reply delivered", zap.Int("delivered_id", deliveredID))
	return ReplyDelivered, nil
}

// StaffHeader renders the block sent ahead of each forwarded user message.
func StaffHeader(user *entity.User, at time.Time) string {
	var b strings.Builder
	b.WriteString("📩 New message from:\n")
	fmt.Fprintf(&b, "👤 Name: %s\n", user.DisplayName())
	fmt.Fprintf(&b, "🆔 Username: @%s\n", user.Handle())
	fmt.Fprintf(&b, "🔢 ID: %d\n", user.ID())
	fmt.Fprintf(&b, "📅 Date: %s", at.Format(HeaderTimeLayout))
	return b.String()
}

func (e *RelayEngine) forwardToStaff(ctx context.Context, user *entity.User, msg InboundMessage) (int, error) {
	if _, err := e.messenger.Send(ctx, Outgoing{
		ChatID: e.staffChatID,
		Text:   StaffHeader(user, e.now()),
	}); err != nil {
		return 0, fmt.Errorf("send header: %w", err)
	}

	id, err := e.messenger.Forward(ctx, e.staffChatID, msg.ChatID, msg.MessageID)
	if err != nil {
		return 0, fmt.Errorf("forward message: %w", err)
	}
	return id, nil
}

func (e *RelayEngine) deliverReply(ctx context.Context, userID int64, reply StaffReply) (int, error) {
	header := e.texts.Current().ReplyHeader

	if reply.Content.IsText() {
		return e.messenger.Send(ctx, Outgoing{
			ChatID: userID,
			Text:   header + "\n\n" + reply.Content.Text(),
		})
	}

	if _, err := e.messenger.Send(ctx, Outgoing{ChatID: userID, Text: header}); err != nil {
		return 0, err
	}
	return e.messenger.Forward(ctx, userID, reply.ChatID, reply.MessageID)
}

func (e *RelayEngine) ackStaff(ctx context.Context, replyTo int, text string) {
	if _, err := e.messenger.Send(ctx, Outgoing{
		ChatID:    e.staffChatID,
		Text:      text,
		ReplyToID: replyTo,
	}); err != nil {
		e.logger.Warn("Failed to acknowledge staff", zap.Int("message_id", replyTo), zap.Error(err))
	}
}

func (e *RelayEngine) isBanned(ctx context.Context, userID int64) bool {
	banned, err := e.stores.Bans.IsBanned(ctx, userID)
	if err != nil {
		e.logger.Error("Failed to check ban list", zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	return banned
}

func (e *RelayEngine) rejectBanned(ctx context.Context, msg InboundMessage) (UserOutcome, error) {
	e.events.Emit(ctx, EventUserBlocked, UserMessagePayload{UserID: msg.From.ID, Kind: string(msg.Content.Kind())})
	if _, err := e.messenger.Send(ctx, Outgoing{
		ChatID: msg.ChatID,
		Text:   e.texts.Current().Banned,
	}); err != nil {
		return UserBanned, apperrors.NewUnavailableError("failed to send ban notice", err)
	}
	return UserBanned, nil
}

// upsertUser records the sender. The returned user is always usable for
// rendering even if persisting it failed.
func (e *RelayEngine) upsertUser(ctx context.Context, from Sender) *entity.User {
	user, err := entity.NewUser(from.ID, from.Username, from.FirstName, from.LastName, e.now())
	if err != nil {
		e.logger.Warn("Invalid sender", zap.Int64("user_id", from.ID), zap.Error(err))
		user = entity.ReconstructUser(from.ID, from.Username, from.FirstName, from.LastName, e.now())
		return user
	}
	if err := e.stores.Users.Upsert(ctx, user); err != nil {
		e.logger.Error("Failed to upsert user", zap.Int64("user_id", from.ID), zap.Error(err))
	}
	return user
}
