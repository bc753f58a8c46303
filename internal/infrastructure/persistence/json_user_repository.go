package persistence

import (
	"context"
	"sort"
	"strconv"

	"github.com/relaydesk/relaybot/internal/domain/entity"
	"github.com/relaydesk/relaybot/internal/domain/repository"
	"github.com/relaydesk/relaybot/pkg/errors"
)

type userDoc struct {
	Username    string  `json:"username"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	DisplayName string  `json:"display_name"`
	JoinDate    docTime `json:"join_date"`
}

// JSONUserRepository 基于 users.json 的用户仓储
type JSONUserRepository struct {
	store *DocumentStore
}

// NewJSONUserRepository 创建 JSON 用户仓储
func NewJSONUserRepository(store *DocumentStore) repository.UserRepository {
	return &JSONUserRepository{store: store}
}

// Upsert 创建或覆盖用户
func (r *JSONUserRepository) Upsert(ctx context.Context, user *entity.User) error {
	err := updateDoc(r.store, DomainUsers, func(doc map[string]userDoc) (bool, error) {
		doc[idKey(user.ID())] = userDoc{
			Username:    user.Handle(),
			FirstName:   user.FirstName(),
			LastName:    user.LastName(),
			DisplayName: user.DisplayName(),
			JoinDate:    docTime{user.JoinDate()},
		}
		return true, nil
	})
	if err != nil {
		return errors.NewInternalErrorWithCause("failed to save user", err)
	}
	return nil
}

// FindByID 根据ID查找用户
func (r *JSONUserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	doc := readDoc[userDoc](r.store, DomainUsers)
	d, ok := doc[idKey(id)]
	if !ok {
		return nil, errors.NewNotFoundError("user not found")
	}
	return d.toEntity(id), nil
}

// List returns users ordered by id.
func (r *JSONUserRepository) List(ctx context.Context) ([]*entity.User, error) {
	doc := readDoc[userDoc](r.store, DomainUsers)
	users := make([]*entity.User, 0, len(doc))
	for key, d := range doc {
		id, ok := parseIDKey(key)
		if !ok {
			continue
		}
		users = append(users, d.toEntity(id))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID() < users[j].ID() })
	return users, nil
}

// Count 统计用户数量
func (r *JSONUserRepository) Count(ctx context.Context) (int, error) {
	return len(readDoc[userDoc](r.store, DomainUsers)), nil
}

func (d userDoc) toEntity(id int64) *entity.User {
	return entity.ReconstructUser(id, d.Username, d.FirstName, d.LastName, d.JoinDate.Time)
}

func idKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseIDKey(key string) (int64, bool) {
	id, err := strconv.ParseInt(key, 10, 64)
	return id, err == nil
}
