package realtime

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type fakeConn struct {
	id       string
	accept   bool
	messages []Message
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, accept: true}
}

func (c *fakeConn) ID() string {
	return c.id
}

func (c *fakeConn) Enqueue(m Message) bool {
	if !c.accept {
		return false
	}
	c.messages = append(c.messages, m)
	return true
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestHubDeliverOnlyReachesChannelMembers(t *testing.T) {
	h := NewHub(newTestLogger())

	alice := newFakeConn("conn-alice")
	bob := newFakeConn("conn-bob")

	h.Register(alice)
	h.Register(bob)
	h.Join(alice.ID(), UserChannel(1))
	h.Join(bob.ID(), UserChannel(2))

	h.Deliver(UserChannel(1), Message{Event: "notification", Payload: "for alice"})

	assert.Len(t, alice.messages, 1)
	assert.Empty(t, bob.messages, "message for another user's channel must not leak")
}

func TestHubDeliverFansOutToAllDevicesOfOneUser(t *testing.T) {
	h := NewHub(newTestLogger())

	phone := newFakeConn("conn-phone")
	laptop := newFakeConn("conn-laptop")

	h.Register(phone)
	h.Register(laptop)
	h.Join(phone.ID(), UserChannel(7))
	h.Join(laptop.ID(), UserChannel(7))

	h.Deliver(UserChannel(7), Message{Event: "notification", Payload: "hello"})

	assert.Len(t, phone.messages, 1)
	assert.Len(t, laptop.messages, 1)
}

func TestHubDeliverToEmptyChannelIsNoop(t *testing.T) {
	h := NewHub(newTestLogger())

	assert.NotPanics(t, func() {
		h.Deliver(AdminStatsChannel, Message{Event: "realtime-stats-update"})
	})
}

func TestHubJoinIsIdempotent(t *testing.T) {
	h := NewHub(newTestLogger())

	conn := newFakeConn("conn-1")
	h.Register(conn)
	h.Join(conn.ID(), UserChannel(1))
	h.Join(conn.ID(), UserChannel(1))
	h.Join(conn.ID(), UserChannel(1))

	h.Deliver(UserChannel(1), Message{Event: "notification"})

	assert.Len(t, conn.messages, 1, "double join must not cause duplicate delivery")
}

func TestHubJoinUnknownConnectionIsIgnored(t *testing.T) {
	h := NewHub(newTestLogger())

	h.Join("never-registered", UserChannel(1))

	assert.NotPanics(t, func() {
		h.Deliver(UserChannel(1), Message{Event: "notification"})
	})
}

func TestHubLeaveAndRepeatedLeave(t *testing.T) {
	h := NewHub(newTestLogger())

	conn := newFakeConn("conn-1")
	h.Register(conn)
	h.Join(conn.ID(), AdminStatsChannel)

	h.Leave(conn.ID(), AdminStatsChannel)
	h.Leave(conn.ID(), AdminStatsChannel)

	h.Deliver(AdminStatsChannel, Message{Event: "realtime-stats-update"})

	assert.Empty(t, conn.messages)
}

func TestHubBroadcastReachesEveryConnection(t *testing.T) {
	h := NewHub(newTestLogger())

	a := newFakeConn("conn-a")
	b := newFakeConn("conn-b")

	h.Register(a)
	h.Register(b)
	h.Join(a.ID(), UserChannel(1))

	h.Broadcast(Message{Event: "announcement", Payload: "maintenance tonight"})

	assert.Len(t, a.messages, 1)
	assert.Len(t, b.messages, 1, "broadcast must reach connections without any membership")
}

func TestHubOnDisconnectRemovesAllMemberships(t *testing.T) {
	h := NewHub(newTestLogger())

	conn := newFakeConn("conn-1")
	h.Register(conn)
	h.Join(conn.ID(), UserChannel(1))
	h.Join(conn.ID(), AdminStatsChannel)

	h.OnDisconnect(conn.ID())
	h.OnDisconnect(conn.ID())

	h.Deliver(UserChannel(1), Message{Event: "notification"})
	h.Deliver(AdminStatsChannel, Message{Event: "realtime-stats-update"})
	h.Broadcast(Message{Event: "announcement"})

	assert.Empty(t, conn.messages)
}

func TestHubSkipsConnectionThatCannotAccept(t *testing.T) {
	h := NewHub(newTestLogger())

	slow := newFakeConn("conn-slow")
	slow.accept = false
	healthy := newFakeConn("conn-healthy")

	h.Register(slow)
	h.Register(healthy)
	h.Join(slow.ID(), UserChannel(1))
	h.Join(healthy.ID(), UserChannel(1))

	h.Deliver(UserChannel(1), Message{Event: "notification"})

	assert.Empty(t, slow.messages)
	assert.Len(t, healthy.messages, 1, "a saturated connection must not block the others")
}
