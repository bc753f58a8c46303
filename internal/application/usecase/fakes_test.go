package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/relaydesk/relaybot/internal/domain/entity"
	"github.com/relaydesk/relaybot/internal/domain/service"
	"github.com/relaydesk/relaybot/internal/infrastructure/persistence"
)

const staffChat int64 = -100500

var t0 = time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local)

type deleteCall struct {
	ChatID    int64
	MessageID int
}

type fakeMessenger struct {
	mu         sync.Mutex
	nextID     int
	sent       []service.Outgoing
	deleted    []deleteCall
	failSend   map[int64]bool
	failDelete map[int64]bool
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		nextID:     500,
		failSend:   make(map[int64]bool),
		failDelete: make(map[int64]bool),
	}
}

func (m *fakeMessenger) Send(_ context.Context, msg service.Outgoing) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSend[msg.ChatID] {
		return 0, errors.New("bot was blocked by the user")
	}
	m.sent = append(m.sent, msg)
	m.nextID++
	return m.nextID, nil
}

func (m *fakeMessenger) Forward(context.Context, int64, int64, int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return m.nextID, nil
}

func (m *fakeMessenger) Delete(_ context.Context, chatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete[chatID] {
		return errors.New("message to delete not found")
	}
	m.deleted = append(m.deleted, deleteCall{ChatID: chatID, MessageID: messageID})
	return nil
}

func (m *fakeMessenger) sentTo(chatID int64) []service.Outgoing {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []service.Outgoing
	for _, s := range m.sent {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

type recordingEmitter struct {
	mu     sync.Mutex
	events map[string]any
}

func (r *recordingEmitter) Emit(_ context.Context, eventType string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = make(map[string]any)
	}
	r.events[eventType] = payload
}

func (r *recordingEmitter) get(eventType string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.events[eventType]
	return p, ok
}

type fixture struct {
	repos     *persistence.Repositories
	messenger *fakeMessenger
	events    *recordingEmitter
	uc        *StaffCommandUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos, err := persistence.NewJSONRepositories(t.TempDir(), 0, zap.NewNop())
	if err != nil {
		t.Fatalf("NewJSONRepositories: %v", err)
	}
	f := &fixture{
		repos:     repos,
		messenger: newFakeMessenger(),
		events:    &recordingEmitter{},
	}
	f.uc = NewStaffCommandUseCase(
		Stores{
			Users:      repos.Users,
			History:    repos.History,
			Bans:       repos.Bans,
			Broadcasts: repos.Broadcasts,
			Mappings:   repos.Mappings,
		},
		f.messenger,
		service.NewTextCatalog(service.DefaultTexts()),
		f.events,
		staffChat,
		0,
		zap.NewNop(),
	)
	f.uc.SetClock(func() time.Time { return t0 })
	return f
}

func (f *fixture) addUser(t *testing.T, id int64, first string, joined time.Time) {
	t.Helper()
	u, err := entity.NewUser(id, "", first, "", joined)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.repos.Users.Upsert(context.Background(), u); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) run(t *testing.T, req CommandRequest) []string {
	t.Helper()
	if req.ChatID == 0 {
		req.ChatID = staffChat
	}
	replies, handled := f.uc.Execute(context.Background(), req)
	if !handled {
		t.Fatalf("command %q not handled", req.Name)
	}
	return replies
}
