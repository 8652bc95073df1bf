package realtime

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

// UserChannel returns the per-user channel name for an account id.
func UserChannel(accountID int64) string {
	return fmt.Sprintf("user:%d", accountID)
}

// AdminStatsChannel receives operational stat snapshots.
const AdminStatsChannel = "admin-stats"

// Message is a single server-to-client frame.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Connection is one live client connection. Enqueue must never block; it
// reports false when the message could not be accepted.
type Connection interface {
	ID() string
	Enqueue(m Message) bool
}

// Hub owns channel membership for live connections. Membership is in-memory
// only; a process restart drops every connection and clients rejoin.
type Hub interface {
	Register(conn Connection)
	Join(connectionID string, channel string)
	Leave(connectionID string, channel string)
	Deliver(channel string, m Message)
	Broadcast(m Message)
	OnDisconnect(connectionID string)
}

var (
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_active_connections",
		Help: "Number of live realtime connections.",
	})
	deliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_delivered_messages_total",
		Help: "Messages enqueued to live connections.",
	}, []string{"event"})
	droppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "realtime_dropped_messages_total",
		Help: "Messages dropped because a connection could not accept them.",
	})
)

type hub struct {
	logger *logrus.Logger

	mu          sync.RWMutex
	connections map[string]Connection
	channels    map[string]map[string]struct{}
	memberships map[string]map[string]struct{}
}

func NewHub(logger *logrus.Logger) Hub {
	return &hub{
		logger:      logger,
		connections: make(map[string]Connection),
		channels:    make(map[string]map[string]struct{}),
		memberships: make(map[string]map[string]struct{}),
	}
}

// Register implements Hub.
func (h *hub) Register(conn Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.connections[conn.ID()]; exists {
		return
	}

	h.connections[conn.ID()] = conn
	h.memberships[conn.ID()] = make(map[string]struct{})
	activeConnections.Inc()
}

// Join implements Hub. Joining the same channel twice is a no-op.
func (h *hub) Join(connectionID string, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.connections[connectionID]; !exists {
		return
	}

	members, ok := h.channels[channel]
	if !ok {
		members = make(map[string]struct{})
		h.channels[channel] = members
	}
	members[connectionID] = struct{}{}
	h.memberships[connectionID][channel] = struct{}{}
}

// Leave implements Hub. Leaving a channel the connection is not in is a
// no-op.
func (h *hub) Leave(connectionID string, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeMembership(connectionID, channel)
}

func (h *hub) removeMembership(connectionID string, channel string) {
	if members, ok := h.channels[channel]; ok {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(h.channels, channel)
		}
	}
	if channels, ok := h.memberships[connectionID]; ok {
		delete(channels, channel)
	}
}

// Deliver implements Hub. Delivery is fire-and-forget: an empty channel is
// not an error, and a connection that cannot accept the message is skipped.
func (h *hub) Deliver(channel string, m Message) {
	h.mu.RLock()
	members := make([]Connection, 0, len(h.channels[channel]))
	for connectionID := range h.channels[channel] {
		if conn, ok := h.connections[connectionID]; ok {
			members = append(members, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range members {
		h.enqueue(conn, m)
	}
}

// Broadcast implements Hub. The message goes to every live connection
// regardless of channel membership.
func (h *hub) Broadcast(m Message) {
	h.mu.RLock()
	conns := make([]Connection, 0, len(h.connections))
	for _, conn := range h.connections {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		h.enqueue(conn, m)
	}
}

func (h *hub) enqueue(conn Connection, m Message) {
	if !conn.Enqueue(m) {
		droppedTotal.Inc()
		h.logger.WithFields(logrus.Fields{
			"object":       "realtime.hub",
			"connectionId": conn.ID(),
			"event":        m.Event,
		}).Warn("dropped message for slow connection")
		return
	}

	deliveredTotal.WithLabelValues(m.Event).Inc()
}

// OnDisconnect implements Hub. All memberships for the connection are removed
// atomically; calling it again for the same connection is a no-op.
func (h *hub) OnDisconnect(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.connections[connectionID]; !exists {
		return
	}

	for channel := range h.memberships[connectionID] {
		h.removeMembership(connectionID, channel)
	}
	delete(h.memberships, connectionID)
	delete(h.connections, connectionID)
	activeConnections.Dec()
}
