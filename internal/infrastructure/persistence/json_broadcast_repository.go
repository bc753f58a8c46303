package persistence

import (
	"context"
	"time"

	"github.com/relaydesk/relaybot/internal/domain/entity"
	"github.com/relaydesk/relaybot/internal/domain/repository"
	"github.com/relaydesk/relaybot/pkg/errors"
)

type recipientDoc struct {
	UserID    int64 `json:"user_id,string"`
	MessageID int   `json:"message_id"`
}

type broadcastDoc struct {
	Recipients lenientList[recipientDoc] `json:"recipients"`
}

// JSONBroadcastRepository 基于 broadcast.json 的广播仓储
type JSONBroadcastRepository struct {
	store *DocumentStore
}

// NewJSONBroadcastRepository 创建 JSON 广播仓储
func NewJSONBroadcastRepository(store *DocumentStore) repository.BroadcastRepository {
	return &JSONBroadcastRepository{store: store}
}

// Save 保存广播记录
func (r *JSONBroadcastRepository) Save(ctx context.Context, record *entity.BroadcastRecord) error {
	recipients := make([]recipientDoc, 0, len(record.Recipients))
	for _, rc := range record.Recipients {
		recipients = append(recipients, recipientDoc{UserID: rc.UserID, MessageID: rc.MessageID})
	}

	err := updateDoc(r.store, DomainBroadcasts, func(doc map[string]broadcastDoc) (bool, error) {
		doc[record.ID] = broadcastDoc{Recipients: recipients}
		return true, nil
	})
	if err != nil {
		return errors.NewInternalErrorWithCause("failed to save broadcast", err)
	}
	return nil
}

// Latest 返回最近一次广播
func (r *JSONBroadcastRepository) Latest(ctx context.Context) (*entity.BroadcastRecord, error) {
	doc := readDoc[broadcastDoc](r.store, DomainBroadcasts)

	latest := ""
	for id := range doc {
		if id > latest {
			latest = id
		}
	}
	if latest == "" {
		return nil, errors.NewNotFoundError("no broadcasts")
	}

	record := &entity.BroadcastRecord{
		ID:         latest,
		Recipients: make([]entity.Recipient, 0, len(doc[latest].Recipients)),
	}
	if at, err := time.ParseInLocation(entity.BroadcastIDLayout, latest, time.Local); err == nil {
		record.CreatedAt = at
	}
	for _, rc := range doc[latest].Recipients {
		record.Recipients = append(record.Recipients, entity.Recipient{UserID: rc.UserID, MessageID: rc.MessageID})
	}
	return record, nil
}

// Delete 删除广播记录
func (r *JSONBroadcastRepository) Delete(ctx context.Context, id string) error {
	err := updateDoc(r.store, DomainBroadcasts, func(doc map[string]broadcastDoc) (bool, error) {
		if _, ok := doc[id]; !ok {
			return false, nil
		}
		delete(doc, id)
		return true, nil
	})
	if err != nil {
		return errors.NewInternalErrorWithCause("failed to delete broadcast", err)
	}
	return nil
}
