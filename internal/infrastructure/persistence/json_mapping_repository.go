package persistence

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/relaydesk/relaybot/internal/domain/entity"
	"github.com/relaydesk/relaybot/internal/domain/repository"
	"github.com/relaydesk/relaybot/pkg/errors"
)

// Key prefixes in message_mappings.json. Forward and reply mappings share
// the document.
const (
	forwardKeyPrefix = "msg_"
	replyKeyPrefix   = "reply_"
)

type replyDoc struct {
	UserID    int64 `json:"user_id"`
	MessageID int   `json:"message_id"`
}

// JSONMappingRepository 基于 message_mappings.json 的映射仓储
type JSONMappingRepository struct {
	store       *DocumentStore
	maxForwards int
}

// NewJSONMappingRepository creates the mapping repository. maxForwards > 0
// caps the number of forward mappings kept; the lowest message ids are
// evicted first.
func NewJSONMappingRepository(store *DocumentStore, maxForwards int) repository.MappingRepository {
	return &JSONMappingRepository{store: store, maxForwards: maxForwards}
}

// SaveForward 记录转发映射
func (r *JSONMappingRepository) SaveForward(ctx context.Context, m entity.ForwardMapping) error {
	raw, err := json.Marshal(m.UserID)
	if err != nil {
		return errors.NewInternalErrorWithCause("failed to encode mapping", err)
	}

	err = updateDoc(r.store, DomainMappings, func(doc map[string]json.RawMessage) (bool, error) {
		doc[forwardKey(m.StaffMessageID)] = raw
		r.evictForwards(doc)
		return true, nil
	})
	if err != nil {
		return errors.NewInternalErrorWithCause("failed to save forward mapping", err)
	}
	return nil
}

// FindForward 查询转发映射
func (r *JSONMappingRepository) FindForward(ctx context.Context, staffMessageID int) (int64, error) {
	raw, ok := readDoc[json.RawMessage](r.store, DomainMappings)[forwardKey(staffMessageID)]
	if !ok {
		return 0, errors.NewNotFoundError("forward mapping not found")
	}
	userID, err := decodeUserID(raw)
	if err != nil {
		return 0, errors.NewInternalErrorWithCause("corrupt forward mapping", err)
	}
	return userID, nil
}

// CountForward 统计转发映射数量
func (r *JSONMappingRepository) CountForward(ctx context.Context) (int, error) {
	n := 0
	for key := range readDoc[json.RawMessage](r.store, DomainMappings) {
		if strings.HasPrefix(key, forwardKeyPrefix) {
			n++
		}
	}
	return n, nil
}

// SaveReply 记录回复映射
func (r *JSONMappingRepository) SaveReply(ctx context.Context, m entity.ReplyMapping) error {
	raw, err := json.Marshal(replyDoc{UserID: m.UserID, MessageID: m.MessageID})
	if err != nil {
		return errors.NewInternalErrorWithCause("failed to encode mapping", err)
	}

	err = updateDoc(r.store, DomainMappings, func(doc map[string]json.RawMessage) (bool, error) {
		doc[replyKey(m.StaffMessageID)] = raw
		return true, nil
	})
	if err != nil {
		return errors.NewInternalErrorWithCause("failed to save reply mapping", err)
	}
	return nil
}

// FindReply 查询回复映射
func (r *JSONMappingRepository) FindReply(ctx context.Context, staffMessageID int) (*entity.ReplyMapping, error) {
	raw, ok := readDoc[json.RawMessage](r.store, DomainMappings)[replyKey(staffMessageID)]
	if !ok {
		return nil, errors.NewNotFoundError("reply mapping not found")
	}
	var d replyDoc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, errors.NewInternalErrorWithCause("corrupt reply mapping", err)
	}
	return &entity.ReplyMapping{
		StaffMessageID: staffMessageID,
		UserID:         d.UserID,
		MessageID:      d.MessageID,
	}, nil
}

// DeleteReply 删除回复映射
func (r *JSONMappingRepository) DeleteReply(ctx context.Context, staffMessageID int) error {
	err := updateDoc(r.store, DomainMappings, func(doc map[string]json.RawMessage) (bool, error) {
		key := replyKey(staffMessageID)
		if _, ok := doc[key]; !ok {
			return false, nil
		}
		delete(doc, key)
		return true, nil
	})
	if err != nil {
		return errors.NewInternalErrorWithCause("failed to delete reply mapping", err)
	}
	return nil
}

func (r *JSONMappingRepository) evictForwards(doc map[string]json.RawMessage) {
	if r.maxForwards <= 0 {
		return
	}

	ids := make([]int, 0, len(doc))
	for key := range doc {
		if id, ok := strings.CutPrefix(key, forwardKeyPrefix); ok {
			if n, err := strconv.Atoi(id); err == nil {
				ids = append(ids, n)
			}
		}
	}
	if len(ids) <= r.maxForwards {
		return
	}

	sort.Ints(ids)
	for _, id := range ids[:len(ids)-r.maxForwards] {
		delete(doc, forwardKey(id))
	}
}

// decodeUserID accepts both numeric and string-encoded ids.
func decodeUserID(raw json.RawMessage) (int64, error) {
	var id int64
	if err := json.Unmarshal(raw, &id); err == nil {
		return id, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}

func forwardKey(id int) string {
	return forwardKeyPrefix + strconv.Itoa(id)
}

func replyKey(id int) string {
	return replyKeyPrefix + strconv.Itoa(id)
}
