package relay

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"swiftcart/pkg/logger"
)

const (
	sendBufferSize = 256
	writeWait      = 10 * time.Second
)

// Conn wraps a single WebSocket connection. Writes go through the send
// channel so only the write pump touches the socket for data frames;
// ping control frames are written by the heartbeat sweep, which gorilla
// allows concurrently.
type Conn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}

	mu     sync.Mutex
	userID string

	alive     atomic.Bool
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn) *Conn {
	c := &Conn{
		ws:   ws,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
	c.alive.Store(true)
	ws.SetPongHandler(func(string) error {
		c.alive.Store(true)
		return nil
	})
	return c
}

// UserID returns the identity bound by IDENTIFY, or "" before that.
func (c *Conn) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Conn) setUserID(id string) {
	c.mu.Lock()
	c.userID = id
	c.mu.Unlock()
}

// Push queues an encoded frame for delivery. Frames are dropped when the
// peer cannot keep up or the connection is closing; a client recovers
// missed pushes through its next REST snapshot.
func (c *Conn) Push(frame []byte) {
	select {
	case <-c.done:
	case c.send <- frame:
	default:
		logger.Warn("Relay: send buffer full for user %q, dropping frame", c.UserID())
	}
}

func (c *Conn) writePump() {
	defer c.ws.Close()

	for {
		select {
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case frame := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
	}
}
