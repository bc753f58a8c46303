package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/relaydesk/relaybot/internal/domain/entity"
	"github.com/relaydesk/relaybot/internal/domain/repository"
	"github.com/relaydesk/relaybot/internal/domain/service"
	"github.com/relaydesk/relaybot/internal/domain/valueobject"
	apperrors "github.com/relaydesk/relaybot/pkg/errors"
)

const (
	// MaxReplyLength is the size at which long listings are split.
	MaxReplyLength = 4000
	historyShown   = 10
	historyPreview = 100
)

const HelpText = `📋 Available commands:

/all <message> - send a message to every user
/list - show the user count
/ban <id> [reason] - ban a user
/unban <id> - lift a ban
/banlist - show banned users
/history <id> - show a user's message history
/delete - delete a message (reply to it)
/delete all - delete the latest broadcast
/commands - show this list

💡 /history also works as a reply to a forwarded message`

// Stores 命令用例依赖的仓储
type Stores struct {
	Users      repository.UserRepository
	History    repository.HistoryRepository
	Bans       repository.BanRepository
	Broadcasts repository.BroadcastRepository
	Mappings   repository.MappingRepository
}

// StaffCommandUseCase executes staff commands issued in the staff chat.
type StaffCommandUseCase struct {
	stores      Stores
	messenger   service.Messenger
	texts       *service.TextCatalog
	events      service.EventEmitter
	staffChatID int64
	limiter     *rate.Limiter
	logger      *zap.Logger
	now         func() time.Time
}

// NewStaffCommandUseCase 创建管理员命令用例
// ratePerSecond <= 0 disables broadcast pacing.
func NewStaffCommandUseCase(
	stores Stores,
	messenger service.Messenger,
	texts *service.TextCatalog,
	events service.EventEmitter,
	staffChatID int64,
	ratePerSecond float64,
	logger *zap.Logger,
) *StaffCommandUseCase {
	if events == nil {
		events = service.NopEmitter{}
	}
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &StaffCommandUseCase{
		stores:      stores,
		messenger:   messenger,
		texts:       texts,
		events:      events,
		staffChatID: staffChatID,
		limiter:     rate.NewLimiter(limit, 1),
		logger:      logger.With(zap.String("component", "staff_commands")),
		now:         time.Now,
	}
}

// SetClock overrides the time source (for testing).
func (uc *StaffCommandUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

// Execute runs one command and returns the replies for the staff chat in
// order. handled is false when the request came from another chat or names
// an unknown command; nothing is done in that case.
func (uc *StaffCommandUseCase) Execute(ctx context.Context, req CommandRequest) (replies []string, handled bool) {
	if req.ChatID != uc.staffChatID {
		return nil, false
	}

	cmd, err := ParseStaffCommand(req)
	if apperrors.IsNotFound(err) {
		return nil, false
	}
	if err != nil {
		return []string{"❌ " + apperrors.UserMessage(err)}, true
	}

	uc.logger.Info("Staff command",
		zap.String("command", strings.ToLower(req.Name)),
		zap.Int("message_id", req.MessageID),
	)

	replies, err = uc.run(ctx, cmd)
	if err != nil {
		uc.logger.Error("Staff command failed", zap.String("command", req.Name), zap.Error(err))
		return []string{"❌ " + apperrors.UserMessage(err)}, true
	}
	return replies, true
}

func (uc *StaffCommandUseCase) run(ctx context.Context, cmd StaffCommand) ([]string, error) {
	switch cmd.Kind {
	case CmdBroadcast:
		return uc.broadcast(ctx, cmd.Text)
	case CmdList:
		return uc.list(ctx)
	case CmdBan:
		return uc.ban(ctx, cmd.UserID, cmd.Reason)
	case CmdUnban:
		return uc.unban(ctx, cmd.UserID)
	case CmdBanList:
		return uc.banList(ctx)
	case CmdHistory:
		return uc.history(ctx, cmd)
	case CmdDeleteLatestBroadcast:
		return uc.deleteLatestBroadcast(ctx)
	case CmdDeleteMessage:
		return uc.deleteMessage(ctx, cmd.ReplyToID)
	case CmdHelp:
		return []string{HelpText}, nil
	default:
		return nil, apperrors.NewInternalError(fmt.Sprintf("unhandled command kind %d", cmd.Kind))
	}
}

func (uc *StaffCommandUseCase) broadcast(ctx context.Context, text string) ([]string, error) {
	users, err := uc.stores.Users.List(ctx)
	if err != nil {
		return nil, err
	}

	body := uc.texts.Current().BroadcastHeader + "\n\n" + text
	record := entity.NewBroadcastRecord(uc.now())
	failed := 0

	for i, u := range users {
		if err := uc.limiter.Wait(ctx); err != nil {
			failed += len(users) - i
			uc.logger.Warn("Broadcast interrupted", zap.Int("remaining", len(users)-i), zap.Error(err))
			break
		}
		msgID, err := uc.messenger.Send(ctx, service.Outgoing{ChatID: u.ID(), Text: body})
		if err != nil {
			failed++
			uc.logger.Warn("Broadcast delivery failed", zap.Int64("user_id", u.ID()), zap.Error(err))
			continue
		}
		record.AddRecipient(u.ID(), msgID)
	}

	if err := uc.stores.Broadcasts.Save(ctx, record); err != nil {
		return nil, err
	}

	succeeded := len(record.Recipients)
	uc.events.Emit(ctx, service.EventBroadcastSent, service.BroadcastPayload{
		BroadcastID: record.ID,
		Succeeded:   succeeded,
		Failed:      failed,
	})
	return []string{fmt.Sprintf("✅ Broadcast sent\nSucceeded: %d\nFailed: %d", succeeded, failed)}, nil
}

func (uc *StaffCommandUseCase) list(ctx context.Context) ([]string, error) {
	n, err := uc.stores.Users.Count(ctx)
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("👥 Users: %d", entity.DisplayedUserCount(n))}, nil
}

func (uc *StaffCommandUseCase) ban(ctx context.Context, userID int64, reason string) ([]string, error) {
	known, err := uc.stores.Users.FindByID(ctx, userID)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}

	record, err := entity.NewBanRecord(userID, known, reason, uc.now())
	if err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if err := uc.stores.Bans.Save(ctx, record); err != nil {
		return nil, err
	}

	uc.events.Emit(ctx, service.EventUserBanned, service.ModerationPayload{UserID: userID, Reason: record.Reason})
	return []string{fmt.Sprintf("✅ User %d has been banned", userID)}, nil
}

func (uc *StaffCommandUseCase) unban(ctx context.Context, userID int64) ([]string, error) {
	existed, err := uc.stores.Bans.Delete(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !existed {
		return []string{"❌ User is not banned"}, nil
	}

	uc.events.Emit(ctx, service.EventUserUnbanned, service.ModerationPayload{UserID: userID})

	if _, err := uc.messenger.Send(ctx, service.Outgoing{ChatID: userID, Text: uc.texts.Current().Unbanned}); err != nil {
		uc.logger.Warn("Failed to notify unbanned user", zap.Int64("user_id", userID), zap.Error(err))
	}
	return []string{fmt.Sprintf("✅ User %d has been unbanned", userID)}, nil
}

func (uc *StaffCommandUseCase) banList(ctx context.Context) ([]string, error) {
	bans, err := uc.stores.Bans.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(bans) == 0 {
		return []string{"📋 No banned users"}, nil
	}

	var b strings.Builder
	b.WriteString("🚫 Banned users:\n\n")
	for _, ban := range bans {
		fmt.Fprintf(&b, "👤 %s (@%s)\n", ban.DisplayName, ban.Username)
		fmt.Fprintf(&b, "🆔 %d\n", ban.UserID)
		fmt.Fprintf(&b, "📝 Reason: %s\n", ban.Reason)
		fmt.Fprintf(&b, "📅 Ban date: %s\n\n", ban.BanDate.Format("2006-01-02"))
	}
	return valueobject.SplitFixed(b.String(), MaxReplyLength), nil
}

func (uc *StaffCommandUseCase) history(ctx context.Context, cmd StaffCommand) ([]string, error) {
	userID := cmd.UserID
	if cmd.ReplyToID != 0 {
		id, err := uc.stores.Mappings.FindForward(ctx, cmd.ReplyToID)
		if apperrors.IsNotFound(err) {
			return nil, errHistoryUsage
		}
		if err != nil {
			return nil, err
		}
		userID = id
	}

	entries, err := uc.stores.History.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []string{"📋 No message history for this user"}, nil
	}

	name := "Unknown"
	if u, err := uc.stores.Users.FindByID(ctx, userID); err == nil {
		name = u.DisplayName()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 History of %s (%d):\n\n", name, userID)
	start := max(len(entries)-historyShown, 0)
	for _, e := range entries[start:] {
		fmt.Fprintf(&b, "📅 %s\n", e.Timestamp.Format(service.HeaderTimeLayout))
		fmt.Fprintf(&b, "📝 %s\n", valueobject.Truncate(e.Message, historyPreview))
		fmt.Fprintf(&b, "🏷️ %s\n\n", e.Type)
	}
	if start > 0 {
		fmt.Fprintf(&b, "... and %d more", start)
	}
	return []string{b.String()}, nil
}

func (uc *StaffCommandUseCase) deleteLatestBroadcast(ctx context.Context) ([]string, error) {
	record, err := uc.stores.Broadcasts.Latest(ctx)
	if apperrors.IsNotFound(err) {
		return []string{"❌ No broadcasts to delete"}, nil
	}
	if err != nil {
		return nil, err
	}

	deleted, failed := 0, 0
	for _, r := range record.Recipients {
		if err := uc.messenger.Delete(ctx, r.UserID, r.MessageID); err != nil {
			failed++
			uc.logger.Warn("Failed to delete broadcast copy",
				zap.Int64("user_id", r.UserID),
				zap.Int("message_id", r.MessageID),
				zap.Error(err),
			)
			continue
		}
		deleted++
	}

	if err := uc.stores.Broadcasts.Delete(ctx, record.ID); err != nil {
		return nil, err
	}

	uc.events.Emit(ctx, service.EventBroadcastDeleted, service.BroadcastPayload{
		BroadcastID: record.ID,
		Succeeded:   deleted,
		Failed:      failed,
	})
	return []string{fmt.Sprintf("✅ Latest broadcast deleted\nSucceeded: %d\nFailed: %d", deleted, failed)}, nil
}

func (uc *StaffCommandUseCase) deleteMessage(ctx context.Context, staffMessageID int) ([]string, error) {
	if err := uc.messenger.Delete(ctx, uc.staffChatID, staffMessageID); err != nil {
		return []string{"❌ Failed to delete message: " + err.Error()}, nil
	}
	uc.events.Emit(ctx, service.EventMessageDeleted, staffMessageID)

	reply, err := uc.stores.Mappings.FindReply(ctx, staffMessageID)
	if apperrors.IsNotFound(err) {
		return []string{"✅ Message deleted from the group"}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := uc.messenger.Delete(ctx, reply.UserID, reply.MessageID); err != nil {
		uc.logger.Warn("Failed to delete delivered reply",
			zap.Int64("user_id", reply.UserID),
			zap.Int("message_id", reply.MessageID),
			zap.Error(err),
		)
		return []string{"✅ Message deleted from the group (could not delete it from the user chat)"}, nil
	}
	if err := uc.stores.Mappings.DeleteReply(ctx, staffMessageID); err != nil {
		return nil, err
	}
	return []string{"✅ Message deleted from the group and the user chat"}, nil
}
