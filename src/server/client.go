package server

import (
	"errors"
	"sync"
	"time"

	"wealthpilot-market/src/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------
// WebSocket transport
//
// One wsClient per upgraded connection. All writes go through a single
// writer goroutine fed by a buffered channel; control pings use
// WriteControl, which gorilla allows concurrently with the writer.
// -----------------------------------------------------------------------------

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	sendQueueSize  = 64
)

var errSlowConsumer = errors.New("send queue full")
var errClosed = errors.New("connection closed")

// -----------------------------------------------------------------------------

type wsClient struct {
	conn      *websocket.Conn
	send      chan *models.MServerMessage
	done      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

func newWSClient(conn *websocket.Conn, log *zap.Logger) *wsClient {
	return &wsClient{
		conn:   conn,
		send:   make(chan *models.MServerMessage, sendQueueSize),
		done:   make(chan struct{}),
		logger: log,
	}
}

// -----------------------------------------------------------------------------

// Send queues a message for the writer goroutine. It never blocks: a
// full queue means the client is not keeping up, and the caller evicts
// it.
func (c *wsClient) Send(msg *models.MServerMessage) error {
	select {
	case <-c.done:
		return errClosed
	default:
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return errSlowConsumer
	}
}

// -----------------------------------------------------------------------------

func (c *wsClient) Ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// -----------------------------------------------------------------------------

func (c *wsClient) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
	return nil
}

// -----------------------------------------------------------------------------

// writePump drains the send queue onto the wire.
func (c *wsClient) writePump() {
	defer c.Close()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug("write failed", zap.Error(err))
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------

// readPump consumes inbound frames until the connection dies, then tears
// the registration down. Pongs feed the liveness flag.
func (c *wsClient) readPump(s *StreamServer, conn *Connection) {
	defer s.Registry.Drop(conn)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		s.Registry.MarkAlive(conn)
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("read failed", zap.Error(err))
			}
			return
		}
		s.Registry.MarkAlive(conn)
		s.handleClientMessage(conn, raw)
	}
}
