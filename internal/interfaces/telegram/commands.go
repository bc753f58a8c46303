package telegram

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Command Telegram 命令
type Command struct {
	Name      string   // 命令名 (不含 /)
	Args      []string // 参数列表
	RawArgs   string   // 原始参数字符串
	ChatID    int64
	UserID    int64
	MessageID int
	ReplyToID int
}

// CommandHandler returns the replies to post back into the chat, in order.
type CommandHandler func(ctx context.Context, cmd *Command) ([]string, error)

type registeredCommand struct {
	name        string
	description string
	handler     CommandHandler
}

// CommandRegistry 命令注册表
type CommandRegistry struct {
	handlers map[string]*registeredCommand
	order    []string
	aliases  map[string]string
	mu       sync.RWMutex
}

// NewCommandRegistry 创建命令注册表
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		handlers: make(map[string]*registeredCommand),
		aliases:  make(map[string]string),
	}
}

// Register 注册命令
func (r *CommandRegistry) Register(name, description string, handler CommandHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = strings.ToLower(name)
	if _, exists := r.handlers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.handlers[name] = &registeredCommand{name: name, description: description, handler: handler}
}

// Alias 注册命令别名
func (r *CommandRegistry) Alias(alias, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[strings.ToLower(alias)] = strings.ToLower(target)
}

// Handle 处理命令
func (r *CommandRegistry) Handle(ctx context.Context, cmd *Command) ([]string, bool, error) {
	r.mu.RLock()
	name := strings.ToLower(cmd.Name)
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	entry, exists := r.handlers[name]
	r.mu.RUnlock()

	if !exists {
		return nil, false, nil
	}

	replies, err := entry.handler(ctx, cmd)
	return replies, true, err
}

// Menu lists registered commands in registration order, aliases excluded.
func (r *CommandRegistry) Menu() []tgbotapi.BotCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()

	menu := make([]tgbotapi.BotCommand, 0, len(r.order))
	for _, name := range r.order {
		menu = append(menu, tgbotapi.BotCommand{
			Command:     name,
			Description: r.handlers[name].description,
		})
	}
	return menu
}

// ParseCommand 解析命令
func ParseCommand(text string) *Command {
	if !strings.HasPrefix(text, "/") {
		return nil
	}

	body := text[1:]
	cmdPart, rawArgs := body, ""
	if idx := strings.IndexAny(body, " \t\n"); idx != -1 {
		cmdPart, rawArgs = body[:idx], body[idx+1:]
	}

	// 移除 @ 后缀 (群组中的 /cmd@botname)
	if idx := strings.Index(cmdPart, "@"); idx != -1 {
		cmdPart = cmdPart[:idx]
	}
	if cmdPart == "" {
		return nil
	}

	return &Command{
		Name:    cmdPart,
		RawArgs: rawArgs,
		Args:    strings.Fields(rawArgs),
	}
}
