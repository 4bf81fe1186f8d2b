package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/butteredsaltedtoast/blitztactoe/internal/metrics"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second

	// pongWait is how long a connection may go silent before the read loop
	// gives up; pings go out at pingPeriod to keep healthy peers inside it.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound frames. Game messages are tiny.
	maxMessageSize = 1024

	// sendBufferSize is the per-connection outbound queue. Room broadcasts
	// enqueue without blocking and drop for connections that fall behind.
	sendBufferSize = 256
)

// Client wraps one WebSocket connection. The coordinator sees it only
// through the room.Conn interface: an ID, a non-blocking Send, and Close.
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan any
	done    chan struct{}
	once    sync.Once
	limiter rateLimiter
	log     zerolog.Logger
}

func newClient(conn *websocket.Conn, log zerolog.Logger) *Client {
	id := uuid.New().String()
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan any, sendBufferSize),
		done: make(chan struct{}),
		log:  log.With().Str("conn_id", id).Logger(),
	}
}

// ID returns the connection's identifier.
func (c *Client) ID() string { return c.id }

// Send enqueues an event for delivery, in enqueue order, at most once. It
// never blocks: a full queue or a closed connection drops the event and
// returns false.
func (c *Client) Send(event any) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- event:
		return true
	default:
		metrics.MessagesDropped.Inc()
		c.log.Warn().Msg("send queue full, dropping event")
		return false
	}
}

// Close shuts the connection down. Safe to call more than once and from any
// goroutine. The write pump flushes queued events, sends a close frame, and
// closes the socket, which also unblocks the read loop.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// writePump drains the send queue onto the socket and keeps the connection
// alive with periodic pings. One per connection; it owns all writes and the
// final socket close.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.flush()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case event := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				c.log.Debug().Err(err).Msg("write failed, closing connection")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// flush writes whatever is already queued, so events enqueued just before
// Close still reach the client.
func (c *Client) flush() {
	for {
		select {
		case event := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		default:
			return
		}
	}
}
