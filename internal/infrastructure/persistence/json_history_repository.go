package persistence

import (
	"context"

	"github.com/relaydesk/relaybot/internal/domain/entity"
	"github.com/relaydesk/relaybot/internal/domain/repository"
	"github.com/relaydesk/relaybot/pkg/errors"
)

type historyDoc struct {
	Message   string  `json:"message"`
	Timestamp docTime `json:"timestamp"`
	Type      string  `json:"type"`
}

// JSONHistoryRepository 基于 user_history.json 的历史仓储
type JSONHistoryRepository struct {
	store *DocumentStore
}

// NewJSONHistoryRepository 创建 JSON 历史仓储
func NewJSONHistoryRepository(store *DocumentStore) repository.HistoryRepository {
	return &JSONHistoryRepository{store: store}
}

// Append 追加历史记录
func (r *JSONHistoryRepository) Append(ctx context.Context, userID int64, entry entity.HistoryEntry) error {
	err := updateDoc(r.store, DomainHistory, func(doc map[string]lenientList[historyDoc]) (bool, error) {
		key := idKey(userID)
		doc[key] = append(doc[key], historyDoc{
			Message:   entry.Message,
			Timestamp: docTime{entry.Timestamp},
			Type:      string(entry.Type),
		})
		return true, nil
	})
	if err != nil {
		return errors.NewInternalErrorWithCause("failed to append history", err)
	}
	return nil
}

// ListByUser 查询用户历史
func (r *JSONHistoryRepository) ListByUser(ctx context.Context, userID int64) ([]entity.HistoryEntry, error) {
	doc := readDoc[lenientList[historyDoc]](r.store, DomainHistory)
	return toHistoryEntries(doc[idKey(userID)]), nil
}

// All 查询全部历史
func (r *JSONHistoryRepository) All(ctx context.Context) (map[int64][]entity.HistoryEntry, error) {
	doc := readDoc[lenientList[historyDoc]](r.store, DomainHistory)
	out := make(map[int64][]entity.HistoryEntry, len(doc))
	for key, entries := range doc {
		id, ok := parseIDKey(key)
		if !ok {
			continue
		}
		out[id] = toHistoryEntries(entries)
	}
	return out, nil
}

func toHistoryEntries(docs []historyDoc) []entity.HistoryEntry {
	entries := make([]entity.HistoryEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, entity.HistoryEntry{
			Message:   d.Message,
			Type:      entity.HistoryType(d.Type),
			Timestamp: d.Timestamp.Time,
		})
	}
	return entries
}
