package telegram

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/relaydesk/relaybot/internal/domain/service"
	"github.com/relaydesk/relaybot/pkg/safego"
)

// Relay is the part of the relay engine the adapter drives.
type Relay interface {
	Welcome(ctx context.Context, msg service.InboundMessage) (service.UserOutcome, error)
	IngestUserMessage(ctx context.Context, msg service.InboundMessage) (service.UserOutcome, error)
	IngestStaffReply(ctx context.Context, reply service.StaffReply) (service.ReplyOutcome, error)
}

// Adapter Telegram 适配器
//
// Updates are handled one at a time in arrival order.
type Adapter struct {
	bot             *tgbotapi.BotAPI
	relay           Relay
	commandRegistry *CommandRegistry
	messenger       service.Messenger
	staffChatID     int64
	logger          *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewAdapter 创建 Telegram 适配器
func NewAdapter(
	bot *tgbotapi.BotAPI,
	relay Relay,
	registry *CommandRegistry,
	messenger service.Messenger,
	staffChatID int64,
	logger *zap.Logger,
) *Adapter {
	return &Adapter{
		bot:             bot,
		relay:           relay,
		commandRegistry: registry,
		messenger:       messenger,
		staffChatID:     staffChatID,
		logger:          logger.With(zap.String("component", "telegram")),
	}
}

// Start 启动适配器 (轮询模式)
func (a *Adapter) Start(ctx context.Context) error {
	if a.bot == nil {
		return fmt.Errorf("telegram adapter has no bot client")
	}

	if err := a.SetupBotCommands(); err != nil {
		a.logger.Warn("Failed to setup bot commands", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := a.bot.GetUpdatesChan(u)

	innerCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.mu.Lock()
	a.cancel = cancel
	a.done = done
	a.mu.Unlock()

	a.logger.Info("Starting Telegram polling")

	safego.Go(a.logger, "telegram-polling", func() {
		a.poll(innerCtx, updates, a.bot.StopReceivingUpdates, done)
	})

	return nil
}

// poll handles updates one at a time until ctx is cancelled or the channel
// closes. A panicking update is logged and skipped.
func (a *Adapter) poll(ctx context.Context, updates tgbotapi.UpdatesChannel, stopReceiving func(), done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			stopReceiving()
			a.logger.Info("Telegram adapter stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			safego.Run(a.logger, "telegram.update", func() {
				a.handleUpdate(ctx, update)
			})
		}
	}
}

// Stop cancels polling and waits for the in-flight update to finish.
func (a *Adapter) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// SetupBotCommands publishes the staff command menu, scoped to the staff
// chat so users never see it.
func (a *Adapter) SetupBotCommands() error {
	commands := a.commandRegistry.Menu()
	if len(commands) == 0 {
		return nil
	}

	config := tgbotapi.NewSetMyCommandsWithScope(tgbotapi.NewBotCommandScopeChat(a.staffChatID), commands...)
	if _, err := a.bot.Request(config); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}

	a.logger.Info("Bot commands menu configured", zap.Int("count", len(commands)))
	return nil
}

// handleUpdate 处理更新
func (a *Adapter) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}

	switch {
	case msg.Chat.IsPrivate():
		a.handlePrivate(ctx, msg)
	case msg.Chat.ID == a.staffChatID:
		a.handleStaff(ctx, msg)
	default:
		a.logger.Debug("Ignoring message from unrelated chat", zap.Int64("chat_id", msg.Chat.ID))
	}
}

func (a *Adapter) handlePrivate(ctx context.Context, msg *tgbotapi.Message) {
	inbound := service.InboundMessage{
		MessageID: msg.MessageID,
		ChatID:    msg.Chat.ID,
		From: service.Sender{
			ID:        msg.From.ID,
			Username:  msg.From.UserName,
			FirstName: msg.From.FirstName,
			LastName:  msg.From.LastName,
		},
		Content: ContentFromMessage(msg),
		Date:    msg.Time(),
	}

	var err error
	switch {
	case msg.IsCommand():
		if msg.Command() != "start" {
			return
		}
		_, err = a.relay.Welcome(ctx, inbound)
	default:
		_, err = a.relay.IngestUserMessage(ctx, inbound)
	}

	if err != nil {
		a.logger.Warn("Private message handling incomplete",
			zap.Int64("user_id", msg.From.ID),
			zap.Int("message_id", msg.MessageID),
			zap.Error(err),
		)
	}
}

func (a *Adapter) handleStaff(ctx context.Context, msg *tgbotapi.Message) {
	replyTo := 0
	if msg.ReplyToMessage != nil {
		replyTo = msg.ReplyToMessage.MessageID
	}

	if msg.IsCommand() {
		if cmd := ParseCommand(msg.Text); cmd != nil {
			cmd.ChatID = msg.Chat.ID
			cmd.UserID = msg.From.ID
			cmd.MessageID = msg.MessageID
			cmd.ReplyToID = replyTo
			a.handleCommand(ctx, cmd)
		}
		return
	}

	if replyTo == 0 {
		return
	}

	if _, err := a.relay.IngestStaffReply(ctx, service.StaffReply{
		MessageID: msg.MessageID,
		ChatID:    msg.Chat.ID,
		ReplyToID: replyTo,
		Content:   ContentFromMessage(msg),
	}); err != nil {
		a.logger.Warn("Staff reply not delivered", zap.Int("message_id", msg.MessageID), zap.Error(err))
	}
}

func (a *Adapter) handleCommand(ctx context.Context, cmd *Command) {
	replies, handled, err := a.commandRegistry.Handle(ctx, cmd)
	if err != nil {
		a.logger.Error("Failed to handle command", zap.String("command", cmd.Name), zap.Error(err))
		replies = []string{"❌ " + err.Error()}
	}
	if !handled {
		a.logger.Debug("Unknown command", zap.String("command", cmd.Name))
		return
	}

	for _, text := range replies {
		if _, err := a.messenger.Send(ctx, service.Outgoing{
			ChatID:    cmd.ChatID,
			Text:      text,
			ReplyToID: cmd.MessageID,
		}); err != nil {
			a.logger.Error("Failed to send command reply",
				zap.String("command", cmd.Name),
				zap.Int64("chat_id", cmd.ChatID),
				zap.Error(err),
			)
			return
		}
	}
}
