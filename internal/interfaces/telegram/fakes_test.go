package telegram

import (
	"context"
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/relaydesk/relaybot/internal/application/usecase"
	"github.com/relaydesk/relaybot/internal/domain/service"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	err      error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return tgbotapi.Message{}, b.err
	}
	b.sent = append(b.sent, c)
	return tgbotapi.Message{MessageID: 900 + len(b.sent)}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

type fakeRelay struct {
	welcomed []service.InboundMessage
	ingested []service.InboundMessage
	replies  []service.StaffReply
	panicOn  string
}

func (r *fakeRelay) Welcome(_ context.Context, msg service.InboundMessage) (service.UserOutcome, error) {
	r.welcomed = append(r.welcomed, msg)
	return service.UserWelcomed, nil
}

func (r *fakeRelay) IngestUserMessage(_ context.Context, msg service.InboundMessage) (service.UserOutcome, error) {
	if r.panicOn != "" && msg.Content.Text() == r.panicOn {
		panic("relay exploded")
	}
	r.ingested = append(r.ingested, msg)
	return service.UserRelayed, nil
}

func (r *fakeRelay) IngestStaffReply(_ context.Context, reply service.StaffReply) (service.ReplyOutcome, error) {
	r.replies = append(r.replies, reply)
	return service.ReplyDelivered, nil
}

type fakeStaff struct {
	requests []usecase.CommandRequest
	replies  []string
}

func (s *fakeStaff) Execute(_ context.Context, req usecase.CommandRequest) ([]string, bool) {
	s.requests = append(s.requests, req)
	return s.replies, true
}

type recordingMessenger struct {
	sent    []service.Outgoing
	failAll bool
}

func (m *recordingMessenger) Send(_ context.Context, out service.Outgoing) (int, error) {
	if m.failAll {
		return 0, errors.New("network down")
	}
	m.sent = append(m.sent, out)
	return len(m.sent), nil
}

func (m *recordingMessenger) Forward(context.Context, int64, int64, int) (int, error) { return 0, nil }

func (m *recordingMessenger) Delete(context.Context, int64, int) error { return nil }
