package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Client is one live websocket connection. Writes go through send and are performed
// by writePump only; gorilla connections allow a single concurrent writer.
type Client struct {
	info    ConnInfo
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	limiter *rate.Limiter

	// rooms is guarded by Hub.mu.
	rooms map[string]struct{}
}

func newClient(conn *websocket.Conn, info ConnInfo, buffer int, limiter *rate.Limiter) *Client {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Client{
		info:    info,
		conn:    conn,
		send:    make(chan []byte, buffer),
		done:    make(chan struct{}),
		limiter: limiter,
		rooms:   make(map[string]struct{}),
	}
}

// ID returns the connection id.
func (c *Client) ID() string { return c.info.ConnID }

// Info returns the connection snapshot.
func (c *Client) Info() ConnInfo { return c.info }

// enqueue queues payload without blocking. A full queue or closed client drops the message.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) writePump(pingPeriod, writeWait time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			if err := c.write(websocket.TextMessage, payload, writeWait); err != nil {
				log.Warn().Err(err).Str("conn_id", c.ID()).Str("tenant_id", c.info.TenantID).Msg("websocket write failed")
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil, writeWait); err != nil {
				c.close()
				return
			}
		case <-c.done:
			c.flush(writeWait)
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// flush writes whatever is still queued so a final notice reaches the client before close.
func (c *Client) flush(writeWait time.Duration) {
	for {
		select {
		case payload := <-c.send:
			if err := c.write(websocket.TextMessage, payload, writeWait); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) write(messageType int, payload []byte, writeWait time.Duration) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, payload)
}
