package persistence

import (
	"context"
	"sort"

	"github.com/relaydesk/relaybot/internal/domain/entity"
	"github.com/relaydesk/relaybot/internal/domain/repository"
	"github.com/relaydesk/relaybot/pkg/errors"
)

type banDoc struct {
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	Reason      string  `json:"reason"`
	BanDate     docTime `json:"ban_date"`
}

// JSONBanRepository 基于 banlist.json 的封禁仓储
type JSONBanRepository struct {
	store *DocumentStore
}

// NewJSONBanRepository 创建 JSON 封禁仓储
func NewJSONBanRepository(store *DocumentStore) repository.BanRepository {
	return &JSONBanRepository{store: store}
}

// Save 创建或覆盖封禁记录
func (r *JSONBanRepository) Save(ctx context.Context, ban *entity.BanRecord) error {
	err := updateDoc(r.store, DomainBans, func(doc map[string]banDoc) (bool, error) {
		doc[idKey(ban.UserID)] = banDoc{
			Username:    ban.Username,
			DisplayName: ban.DisplayName,
			Reason:      ban.Reason,
			BanDate:     docTime{ban.BanDate},
		}
		return true, nil
	})
	if err != nil {
		return errors.NewInternalErrorWithCause("failed to save ban", err)
	}
	return nil
}

// Delete 删除封禁记录
func (r *JSONBanRepository) Delete(ctx context.Context, userID int64) (bool, error) {
	existed := false
	err := updateDoc(r.store, DomainBans, func(doc map[string]banDoc) (bool, error) {
		key := idKey(userID)
		if _, ok := doc[key]; !ok {
			return false, nil
		}
		delete(doc, key)
		existed = true
		return true, nil
	})
	if err != nil {
		return false, errors.NewInternalErrorWithCause("failed to delete ban", err)
	}
	return existed, nil
}

// IsBanned 判断是否被封禁
func (r *JSONBanRepository) IsBanned(ctx context.Context, userID int64) (bool, error) {
	_, ok := readDoc[banDoc](r.store, DomainBans)[idKey(userID)]
	return ok, nil
}

// List returns bans oldest first.
func (r *JSONBanRepository) List(ctx context.Context) ([]*entity.BanRecord, error) {
	doc := readDoc[banDoc](r.store, DomainBans)
	bans := make([]*entity.BanRecord, 0, len(doc))
	for key, d := range doc {
		id, ok := parseIDKey(key)
		if !ok {
			continue
		}
		bans = append(bans, &entity.BanRecord{
			UserID:      id,
			Username:    d.Username,
			DisplayName: d.DisplayName,
			Reason:      d.Reason,
			BanDate:     d.BanDate.Time,
		})
	}
	sort.Slice(bans, func(i, j int) bool {
		if !bans[i].BanDate.Equal(bans[j].BanDate) {
			return bans[i].BanDate.Before(bans[j].BanDate)
		}
		return bans[i].UserID < bans[j].UserID
	})
	return bans, nil
}
