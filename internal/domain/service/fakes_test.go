package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/relaydesk/relaybot/internal/domain/entity"
	apperrors "github.com/relaydesk/relaybot/pkg/errors"
)

// === in-memory repositories ===

type memStore struct {
	mu       sync.Mutex
	users    map[int64]*entity.User
	history  map[int64][]entity.HistoryEntry
	bans     map[int64]*entity.BanRecord
	forwards map[int]int64
	replies  map[int]entity.ReplyMapping
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int64]*entity.User),
		history:  make(map[int64][]entity.HistoryEntry),
		bans:     make(map[int64]*entity.BanRecord),
		forwards: make(map[int]int64),
		replies:  make(map[int]entity.ReplyMapping),
	}
}

func (s *memStore) stores() RelayStores {
	return RelayStores{Users: s, History: (*memHistory)(s), Bans: (*memBans)(s), Mappings: (*memMappings)(s)}
}

func (s *memStore) Upsert(_ context.Context, u *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID()] = u
	return nil
}

func (s *memStore) FindByID(_ context.Context, id int64) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("user not found")
	}
	return u, nil
}

func (s *memStore) List(context.Context) ([]*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (s *memStore) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

type memHistory memStore

func (h *memHistory) Append(_ context.Context, userID int64, e entity.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.history[userID] = append(h.history[userID], e)
	return nil
}

func (h *memHistory) ListByUser(_ context.Context, userID int64) ([]entity.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]entity.HistoryEntry(nil), h.history[userID]...), nil
}

func (h *memHistory) All(context.Context) (map[int64][]entity.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[int64][]entity.HistoryEntry, len(h.history))
	for k, v := range h.history {
		out[k] = append([]entity.HistoryEntry(nil), v...)
	}
	return out, nil
}

type memBans memStore

func (b *memBans) Save(_ context.Context, r *entity.BanRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bans[r.UserID] = r
	return nil
}

func (b *memBans) Delete(_ context.Context, userID int64) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.bans[userID]
	delete(b.bans, userID)
	return ok, nil
}

func (b *memBans) IsBanned(_ context.Context, userID int64) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.bans[userID]
	return ok, nil
}

func (b *memBans) List(context.Context) ([]*entity.BanRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*entity.BanRecord, 0, len(b.bans))
	for _, r := range b.bans {
		out = append(out, r)
	}
	return out, nil
}

type memMappings memStore

func (m *memMappings) SaveForward(_ context.Context, f entity.ForwardMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forwards[f.StaffMessageID] = f.UserID
	return nil
}

func (m *memMappings) FindForward(_ context.Context, id int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, ok := m.forwards[id]
	if !ok {
		return 0, apperrors.NewNotFoundError("no forward mapping")
	}
	return uid, nil
}

func (m *memMappings) CountForward(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.forwards), nil
}

func (m *memMappings) SaveReply(_ context.Context, r entity.ReplyMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[r.StaffMessageID] = r
	return nil
}

func (m *memMappings) FindReply(_ context.Context, id int) (*entity.ReplyMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.replies[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("no reply mapping")
	}
	return &r, nil
}

func (m *memMappings) DeleteReply(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.replies, id)
	return nil
}

// === messenger / events ===

type forwardCall struct {
	To, From  int64
	MessageID int
}

type fakeMessenger struct {
	mu       sync.Mutex
	nextID   int
	sent     []Outgoing
	forwards []forwardCall
	failSend map[int64]bool
	failFwd  bool
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{nextID: 1000, failSend: make(map[int64]bool)}
}

func (m *fakeMessenger) Send(_ context.Context, msg Outgoing) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSend[msg.ChatID] {
		return 0, errors.New("chat not found")
	}
	m.sent = append(m.sent, msg)
	m.nextID++
	return m.nextID, nil
}

func (m *fakeMessenger) Forward(_ context.Context, to, from int64, id int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFwd {
		return 0, errors.New("forbidden")
	}
	m.forwards = append(m.forwards, forwardCall{To: to, From: from, MessageID: id})
	m.nextID++
	return m.nextID, nil
}

func (m *fakeMessenger) Delete(context.Context, int64, int) error { return nil }

func (m *fakeMessenger) sentTo(chatID int64) []Outgoing {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Outgoing
	for _, s := range m.sent {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

type recordingEmitter struct {
	mu    sync.Mutex
	types []string
}

func (r *recordingEmitter) Emit(_ context.Context, eventType string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, eventType)
}

func (r *recordingEmitter) has(eventType string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.types {
		if t == eventType {
			return true
		}
	}
	return false
}
