package usecase

import (
	"strconv"
	"strings"

	"github.com/relaydesk/relaybot/internal/domain/entity"
	apperrors "github.com/relaydesk/relaybot/pkg/errors"
)

// CommandKind 管理员命令类型
type CommandKind int

const (
	CmdBroadcast CommandKind = iota + 1
	CmdList
	CmdBan
	CmdUnban
	CmdBanList
	CmdHistory
	CmdDeleteLatestBroadcast
	CmdDeleteMessage
	CmdHelp
)

var commandNames = map[string]CommandKind{
	"all":       CmdBroadcast,
	"broadcast": CmdBroadcast,
	"list":      CmdList,
	"ban":       CmdBan,
	"unban":     CmdUnban,
	"banlist":   CmdBanList,
	"history":   CmdHistory,
	"delete":    CmdDeleteMessage,
	"commands":  CmdHelp,
	"help":      CmdHelp,
}

// CommandRequest is a staff command as received from the chat.
type CommandRequest struct {
	Name      string // without the leading slash or @bot suffix
	Args      string
	ChatID    int64
	MessageID int
	ReplyToID int
}

// StaffCommand is a parsed staff command. Only the fields relevant to Kind
// are set.
type StaffCommand struct {
	Kind      CommandKind
	Text      string
	UserID    int64
	Reason    string
	ReplyToID int
}

// ParseStaffCommand validates arity and argument types. Unknown names yield
// a NOT_FOUND error; malformed arguments an INVALID_INPUT error whose
// message is meant for the staff member.
func ParseStaffCommand(req CommandRequest) (StaffCommand, error) {
	kind, ok := commandNames[strings.ToLower(req.Name)]
	if !ok {
		return StaffCommand{}, apperrors.NewNotFoundError("unknown command: " + req.Name)
	}

	args := strings.TrimSpace(req.Args)
	fields := strings.Fields(args)
	cmd := StaffCommand{Kind: kind, ReplyToID: req.ReplyToID}

	switch kind {
	case CmdBroadcast:
		if args == "" {
			return cmd, apperrors.NewInvalidInputError("Usage: /all <message>")
		}
		cmd.Text = args

	case CmdBan:
		if len(fields) == 0 {
			return cmd, apperrors.NewInvalidInputError("Usage: /ban <user id> [reason]")
		}
		id, err := parseUserID(fields[0])
		if err != nil {
			return cmd, err
		}
		cmd.UserID = id
		cmd.Reason = entity.DefaultBanReason
		if len(fields) > 1 {
			cmd.Reason = strings.Join(fields[1:], " ")
		}

	case CmdUnban:
		if len(fields) == 0 {
			return cmd, apperrors.NewInvalidInputError("Usage: /unban <user id>")
		}
		id, err := parseUserID(fields[0])
		if err != nil {
			return cmd, err
		}
		cmd.UserID = id

	case CmdHistory:
		// 回复优先于参数；回复目标在执行时通过映射解析
		if req.ReplyToID != 0 {
			break
		}
		if len(fields) == 0 {
			return cmd, errHistoryUsage
		}
		id, err := parseUserID(fields[0])
		if err != nil {
			return cmd, err
		}
		cmd.UserID = id

	case CmdDeleteMessage:
		if len(fields) > 0 && strings.EqualFold(fields[0], "all") {
			cmd.Kind = CmdDeleteLatestBroadcast
			break
		}
		if req.ReplyToID == 0 {
			return cmd, apperrors.NewInvalidInputError("Reply to a message to delete it")
		}
	}

	return cmd, nil
}

var errHistoryUsage = apperrors.NewInvalidInputError("Usage: /history <user id>, or reply to a forwarded message")

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewInvalidInputError("User id must be a number")
	}
	return id, nil
}
