package monitoring

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/relaydesk/relaybot/internal/domain/service"
	"github.com/relaydesk/relaybot/internal/infrastructure/eventbus"
)

const namespace = "relaybot"

// RelayMetrics turns relay domain events into prometheus series.
type RelayMetrics struct {
	userMessages        *prometheus.CounterVec
	blockedMessages     prometheus.Counter
	staffReplies        *prometheus.CounterVec
	moderation          *prometheus.CounterVec
	broadcasts          prometheus.Counter
	broadcastDeliveries *prometheus.CounterVec
	deletions           *prometheus.CounterVec
	reg                 prometheus.Registerer
	logger              *zap.Logger
}

// NewRelayMetrics 创建并注册中继指标
func NewRelayMetrics(reg prometheus.Registerer, logger *zap.Logger) (*RelayMetrics, error) {
	m := &RelayMetrics{
		userMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "user_messages_total",
			Help:      "Private user messages received, by content kind and relay result.",
		}, []string{"kind", "result"}),
		blockedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocked_messages_total",
			Help:      "Messages rejected because the sender is banned.",
		}),
		staffReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "staff_replies_total",
			Help:      "Staff replies routed back to users, by content kind and result.",
		}, []string{"kind", "result"}),
		moderation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moderation_actions_total",
			Help:      "Ban and unban actions.",
		}, []string{"action"}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Broadcasts sent.",
		}),
		broadcastDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_deliveries_total",
			Help:      "Per-recipient broadcast deliveries, by result.",
		}, []string{"result"}),
		deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletions_total",
			Help:      "Retractions of broadcasts and single messages.",
		}, []string{"target"}),
		reg:    reg,
		logger: logger,
	}

	for _, c := range []prometheus.Collector{
		m.userMessages, m.blockedMessages, m.staffReplies, m.moderation,
		m.broadcasts, m.broadcastDeliveries, m.deletions,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Subscribe attaches the metrics to every event on the bus.
func (m *RelayMetrics) Subscribe(bus eventbus.Bus) {
	bus.Subscribe(eventbus.Wildcard, m.Handle)
}

// WatchQueue exports the bus's dropped-event count.
func (m *RelayMetrics) WatchQueue(q interface{ Dropped() uint64 }) error {
	return m.reg.Register(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Domain events discarded because the event queue was full.",
	}, func() float64 { return float64(q.Dropped()) }))
}

// Handle 处理单个事件
func (m *RelayMetrics) Handle(_ context.Context, event eventbus.Event) {
	switch event.Type {
	case service.EventUserMessage:
		if p, ok := event.Payload.(service.UserMessagePayload); ok {
			result := "forwarded"
			if !p.Forwarded {
				result = "failed"
			}
			m.userMessages.WithLabelValues(p.Kind, result).Inc()
		}
	case service.EventUserBlocked:
		m.blockedMessages.Inc()
	case service.EventStaffReply, service.EventStaffReplyFailed:
		if p, ok := event.Payload.(service.StaffReplyPayload); ok {
			result := "delivered"
			if event.Type == service.EventStaffReplyFailed {
				result = "failed"
			}
			m.staffReplies.WithLabelValues(p.Kind, result).Inc()
		}
	case service.EventUserBanned:
		m.moderation.WithLabelValues("ban").Inc()
	case service.EventUserUnbanned:
		m.moderation.WithLabelValues("unban").Inc()
	case service.EventBroadcastSent:
		m.broadcasts.Inc()
		if p, ok := event.Payload.(service.BroadcastPayload); ok {
			m.broadcastDeliveries.WithLabelValues("success").Add(float64(p.Succeeded))
			m.broadcastDeliveries.WithLabelValues("failed").Add(float64(p.Failed))
		}
	case service.EventBroadcastDeleted:
		m.deletions.WithLabelValues("broadcast").Inc()
	case service.EventMessageDeleted:
		m.deletions.WithLabelValues("message").Inc()
	default:
		m.logger.Debug("Unmetered event", zap.String("type", event.Type))
	}
}
