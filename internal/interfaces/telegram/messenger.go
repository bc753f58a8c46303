package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/relaydesk/relaybot/internal/domain/service"
	"github.com/relaydesk/relaybot/internal/infrastructure/config"
)

// botAPI is the slice of *tgbotapi.BotAPI the messenger needs.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// NewBot 创建并认证 Bot 客户端
func NewBot(cfg config.TelegramConfig, logger *zap.Logger) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	bot.Debug = cfg.Debug

	logger.Info("Telegram bot authorized", zap.String("username", bot.Self.UserName))
	return bot, nil
}

// BotMessenger implements service.Messenger on the Bot API.
type BotMessenger struct {
	bot botAPI
}

// NewBotMessenger 创建消息发送器
func NewBotMessenger(bot botAPI) *BotMessenger {
	return &BotMessenger{bot: bot}
}

// Send 发送文本消息
func (m *BotMessenger) Send(ctx context.Context, out service.Outgoing) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	msg := tgbotapi.NewMessage(out.ChatID, out.Text)
	if out.ReplyToID > 0 {
		msg.ReplyToMessageID = out.ReplyToID
	}
	if out.KeyboardButton != "" {
		keyboard := tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(out.KeyboardButton)),
		)
		keyboard.ResizeKeyboard = true
		msg.ReplyMarkup = keyboard
	}

	sent, err := m.bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send to %d: %w", out.ChatID, err)
	}
	return sent.MessageID, nil
}

// Forward 原样转发消息
func (m *BotMessenger) Forward(ctx context.Context, toChatID, fromChatID int64, messageID int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	sent, err := m.bot.Send(tgbotapi.NewForward(toChatID, fromChatID, messageID))
	if err != nil {
		return 0, fmt.Errorf("forward %d from %d to %d: %w", messageID, fromChatID, toChatID, err)
	}
	return sent.MessageID, nil
}

// Delete 删除消息
func (m *BotMessenger) Delete(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := m.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("delete %d in %d: %w", messageID, chatID, err)
	}
	return nil
}
