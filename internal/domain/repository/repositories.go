package repository

import (
	"context"

	"github.com/relaydesk/relaybot/internal/domain/entity"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	// Upsert 创建或覆盖用户
	Upsert(ctx context.Context, user *entity.User) error

	// FindByID returns a NOT_FOUND AppError for unknown users.
	FindByID(ctx context.Context, id int64) (*entity.User, error)

	// List 列出全部用户
	List(ctx context.Context) ([]*entity.User, error)

	// Count 统计用户数量
	Count(ctx context.Context) (int, error)
}

// HistoryRepository 历史记录仓储接口（只追加）
type HistoryRepository interface {
	// Append 追加历史记录
	Append(ctx context.Context, userID int64, entry entity.HistoryEntry) error

	// ListByUser returns entries in insertion order; empty when none.
	ListByUser(ctx context.Context, userID int64) ([]entity.HistoryEntry, error)

	// All returns every user's history keyed by user id.
	All(ctx context.Context) (map[int64][]entity.HistoryEntry, error)
}

// BanRepository 封禁仓储接口
type BanRepository interface {
	// Save creates or overwrites the user's ban.
	Save(ctx context.Context, ban *entity.BanRecord) error

	// Delete reports whether a ban existed.
	Delete(ctx context.Context, userID int64) (bool, error)

	// IsBanned 判断是否被封禁
	IsBanned(ctx context.Context, userID int64) (bool, error)

	// List 列出全部封禁记录
	List(ctx context.Context) ([]*entity.BanRecord, error)
}

// BroadcastRepository 广播仓储接口
type BroadcastRepository interface {
	// Save 保存广播记录
	Save(ctx context.Context, record *entity.BroadcastRecord) error

	// Latest returns the record with the greatest id, or NOT_FOUND.
	Latest(ctx context.Context) (*entity.BroadcastRecord, error)

	// Delete 删除广播记录
	Delete(ctx context.Context, id string) error
}

// MappingRepository stores forwarded-message and reply mappings.
type MappingRepository interface {
	// SaveForward 记录转发映射
	SaveForward(ctx context.Context, m entity.ForwardMapping) error

	// FindForward returns the user id behind a forwarded staff message, or
	// NOT_FOUND.
	FindForward(ctx context.Context, staffMessageID int) (int64, error)

	// CountForward 统计转发映射数量
	CountForward(ctx context.Context) (int, error)

	// SaveReply 记录回复映射
	SaveReply(ctx context.Context, m entity.ReplyMapping) error

	// FindReply returns NOT_FOUND when the staff message is not a relayed
	// reply.
	FindReply(ctx context.Context, staffMessageID int) (*entity.ReplyMapping, error)

	// DeleteReply 删除回复映射
	DeleteReply(ctx context.Context, staffMessageID int) error
}
