package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/relaydesk/relaybot/internal/domain/entity"
	"github.com/relaydesk/relaybot/internal/domain/repository"
	"github.com/relaydesk/relaybot/internal/domain/valueobject"
)

// TimestampLayout is the wire format of every timestamp the stats API
// returns.
const TimestampLayout = "2006-01-02T15:04:05.000000"

const (
	recentPerUser = 5
	recentLimit   = 20
)

// StatsSummary 统计概览
type StatsSummary struct {
	TotalUsers     int    `json:"total_users"`
	DisplayUsers   int    `json:"display_users"`
	BannedUsers    int    `json:"banned_users"`
	TotalMessages  int    `json:"total_messages"`
	ActiveMappings int    `json:"active_mappings"`
	LastUpdated    string `json:"last_updated"`
}

// UserView 用户列表项
type UserView struct {
	ID          int64  `json:"id,string"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
	JoinDate    string `json:"join_date"`
	IsBanned    bool   `json:"is_banned"`
}

// ActivityView 最近活动项
type ActivityView struct {
	UserID    int64              `json:"user_id,string"`
	Message   string             `json:"message"`
	Type      entity.HistoryType `json:"type"`
	Timestamp string             `json:"timestamp"`

	at time.Time
}

// StatsStores is the read-only slice of the store the dashboard needs.
type StatsStores struct {
	Users    repository.UserRepository
	History  repository.HistoryRepository
	Bans     repository.BanRepository
	Mappings repository.MappingRepository
}

// StatsQuery aggregates dashboard data. It never writes.
type StatsQuery struct {
	stores StatsStores
	now    func() time.Time
}

// NewStatsQuery 创建统计查询
func NewStatsQuery(stores StatsStores) *StatsQuery {
	return &StatsQuery{stores: stores, now: time.Now}
}

// SetClock overrides the time source (for testing).
func (q *StatsQuery) SetClock(now func() time.Time) {
	q.now = now
}

// Summary 返回统计概览
func (q *StatsQuery) Summary(ctx context.Context) (*StatsSummary, error) {
	users, err := q.stores.Users.Count(ctx)
	if err != nil {
		return nil, err
	}
	bans, err := q.stores.Bans.List(ctx)
	if err != nil {
		return nil, err
	}
	history, err := q.stores.History.All(ctx)
	if err != nil {
		return nil, err
	}
	mappings, err := q.stores.Mappings.CountForward(ctx)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, entries := range history {
		total += len(entries)
	}

	return &StatsSummary{
		TotalUsers:     users,
		DisplayUsers:   entity.DisplayedUserCount(users),
		BannedUsers:    len(bans),
		TotalMessages:  total,
		ActiveMappings: mappings,
		LastUpdated:    q.now().Format(TimestampLayout),
	}, nil
}

// Users lists every user, newest join first.
func (q *StatsQuery) Users(ctx context.Context) ([]UserView, error) {
	users, err := q.stores.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	bans, err := q.stores.Bans.List(ctx)
	if err != nil {
		return nil, err
	}
	banned := make(map[int64]bool, len(bans))
	for _, b := range bans {
		banned[b.UserID] = true
	}

	sort.SliceStable(users, func(i, j int) bool {
		return users[i].JoinDate().After(users[j].JoinDate())
	})

	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, UserView{
			ID:          u.ID(),
			DisplayName: u.DisplayName(),
			Username:    u.Handle(),
			JoinDate:    u.JoinDate().Format(TimestampLayout),
			IsBanned:    banned[u.ID()],
		})
	}
	return out, nil
}

// RecentActivity merges the last few entries of every user and returns the
// newest ones first.
func (q *StatsQuery) RecentActivity(ctx context.Context) ([]ActivityView, error) {
	history, err := q.stores.History.All(ctx)
	if err != nil {
		return nil, err
	}

	var out []ActivityView
	for userID, entries := range history {
		start := max(len(entries)-recentPerUser, 0)
		for _, e := range entries[start:] {
			out = append(out, ActivityView{
				UserID:    userID,
				Message:   valueobject.Truncate(e.Message, historyPreview),
				Type:      e.Type,
				Timestamp: e.Timestamp.Format(TimestampLayout),
				at:        e.Timestamp,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].at.Equal(out[j].at) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].at.After(out[j].at)
	})
	if len(out) > recentLimit {
		out = out[:recentLimit]
	}
	if out == nil {
		out = []ActivityView{}
	}
	return out, nil
}
