package telegram

import (
	"context"

	"github.com/relaydesk/relaybot/internal/application/usecase"
)

// StaffExecutor runs staff commands.
type StaffExecutor interface {
	Execute(ctx context.Context, req usecase.CommandRequest) ([]string, bool)
}

// RegisterStaffCommands 注册管理员命令
func RegisterStaffCommands(registry *CommandRegistry, staff StaffExecutor) {
	handler := func(ctx context.Context, cmd *Command) ([]string, error) {
		replies, _ := staff.Execute(ctx, usecase.CommandRequest{
			Name:      cmd.Name,
			Args:      cmd.RawArgs,
			ChatID:    cmd.ChatID,
			MessageID: cmd.MessageID,
			ReplyToID: cmd.ReplyToID,
		})
		return replies, nil
	}

	registry.Register("all", "📢 Broadcast to every user", handler)
	registry.Register("list", "👥 User count", handler)
	registry.Register("ban", "🚫 Ban a user", handler)
	registry.Register("unban", "✅ Lift a ban", handler)
	registry.Register("banlist", "📋 Banned users", handler)
	registry.Register("history", "🗂 Message history of a user", handler)
	registry.Register("delete", "🗑 Delete a message or the latest broadcast", handler)
	registry.Register("commands", "❓ Command list", handler)

	registry.Alias("broadcast", "all")
	registry.Alias("help", "commands")
}
