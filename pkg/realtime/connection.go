package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

// ClientMessage is a frame received from the client.
type ClientMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// WSConnection adapts a gorilla websocket connection to the hub. Outbound
// frames go through a buffered channel so Deliver never blocks on a slow
// client.
type WSConnection struct {
	id        string
	logger    *logrus.Logger
	ws        *websocket.Conn
	send      chan Message
	done      chan struct{}
	closeOnce sync.Once
}

func NewWSConnection(id string, logger *logrus.Logger, ws *websocket.Conn) *WSConnection {
	return &WSConnection{
		id:     id,
		logger: logger,
		ws:     ws,
		send:   make(chan Message, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// ID implements Connection.
func (c *WSConnection) ID() string {
	return c.id
}

// Enqueue implements Connection. It never blocks; a full buffer or a closed
// connection drops the message.
func (c *WSConnection) Enqueue(m Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- m:
		return true
	default:
		return false
	}
}

// WritePump drains the send buffer onto the wire and keeps the connection
// alive with pings. It returns when the connection is closed.
func (c *WSConnection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case m := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(m); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// ReadPump reads client frames and hands them to onMessage. It returns when
// the peer disconnects; the caller is responsible for hub cleanup.
func (c *WSConnection) ReadPump(onMessage func(ClientMessage)) {
	defer c.Close()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.WithField("connectionId", c.id).WithError(err).Warn("websocket read failed")
			}
			return
		}

		var m ClientMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			c.logger.WithField("connectionId", c.id).WithError(err).Warn("malformed client frame")
			continue
		}

		onMessage(m)
	}
}

// Close releases the connection. Safe to call more than once.
func (c *WSConnection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}
