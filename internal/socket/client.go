package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chatsync/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 65536
	sendBufSize    = 256
)

// ErrTransportDisconnected is returned by Emit when no connection is up.
// No operation blocks waiting for reconnection.
var ErrTransportDisconnected = errors.New("transport disconnected")

// Handler is invoked synchronously on event arrival, in attachment order.
type Handler func(Envelope)

// Client manages one lazily-created, reusable connection to the push
// endpoint. Connect is idempotent; a registered user id is re-announced on
// every successful (re)connection so a restored connection resumes receiving
// that user's events without caller intervention. Connection failures surface
// only through disconnect handlers; the client performs no retry or backoff.
type Client struct {
	url    string
	dialer *websocket.Dialer

	hmu      sync.Mutex
	handlers map[EventType][]Handler

	mu       sync.Mutex
	conn     *websocket.Conn
	send     chan Envelope
	connDone chan struct{}
	userID   string

	wg sync.WaitGroup
}

func NewClient(url string) *Client {
	return &Client{
		url:      url,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		handlers: make(map[EventType][]Handler),
	}
}

// On attaches a handler for an event kind. Multiple handlers run in
// attachment order, synchronously on the reader goroutine.
func (c *Client) On(event EventType, h Handler) {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	c.handlers[event] = append(c.handlers[event], h)
}

// Connect dials the push endpoint. A no-op when already connected. On
// success the registered user id (if any) is re-sent before connect handlers
// fire.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("socket.Connect %s: %w", c.url, err)
	}

	c.mu.Lock()
	if c.conn != nil {
		// Lost a concurrent Connect race; keep the existing connection.
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	c.send = make(chan Envelope, sendBufSize)
	c.connDone = make(chan struct{})
	send, connDone, userID := c.send, c.connDone, c.userID
	c.mu.Unlock()

	c.wg.Add(2)
	go c.writePump(conn, send, connDone)
	go c.readPump(conn)

	// Re-registration happens on every connection, not only the first.
	if userID != "" {
		if err := c.emitRegister(userID); err != nil {
			logger.Errorf("socket register user=%s: %v", userID, err)
		}
	}
	c.dispatch(Envelope{Type: EventConnect})
	return nil
}

// Register announces the user whose events this connection should receive.
// The id is remembered and re-sent automatically on every reconnection.
func (c *Client) Register(userID string) error {
	c.mu.Lock()
	c.userID = userID
	connected := c.conn != nil
	c.mu.Unlock()
	if !connected {
		// Announced on the next successful connect.
		return nil
	}
	return c.emitRegister(userID)
}

func (c *Client) emitRegister(userID string) error {
	return c.Emit(EventRegister, RegisterPayload{UserID: userID})
}

// Emit queues an event for the push endpoint. Returns
// ErrTransportDisconnected when no connection is up.
func (c *Client) Emit(event EventType, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("socket.Emit marshal %s: %w", event, err)
		}
		raw = data
	}

	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return ErrTransportDisconnected
	}
	send, connDone := c.send, c.connDone
	c.mu.Unlock()

	select {
	case send <- Envelope{Type: event, Payload: raw}:
		return nil
	case <-connDone:
		return ErrTransportDisconnected
	}
}

// Close tears down the current connection, if any, and waits for the pump
// goroutines to exit. Disconnect handlers fire as part of the teardown.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	c.wg.Wait()
	return nil
}

// teardown detaches conn if it is still current and fires disconnect
// handlers exactly once per connection.
func (c *Client) teardown(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	close(c.connDone)
	c.mu.Unlock()

	conn.Close()
	c.dispatch(Envelope{Type: EventDisconnect})
}

func (c *Client) dispatch(env Envelope) {
	c.hmu.Lock()
	hs := make([]Handler, len(c.handlers[env.Type]))
	copy(hs, c.handlers[env.Type])
	c.hmu.Unlock()
	for _, h := range hs {
		h(env)
	}
}

// readPump reads frames and dispatches them until the connection errors.
func (c *Client) readPump(conn *websocket.Conn) {
	defer c.wg.Done()
	defer c.teardown(conn)

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Errorf("socket set read deadline: %v", err)
		return
	}
	conn.SetPingHandler(func(appData string) error {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return err
		}
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Errorf("socket read: %v", err)
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			logger.Errorf("socket unmarshal: %v", err)
			continue
		}
		if env.Type == "" {
			continue
		}
		c.dispatch(env)
	}
}

// writePump writes queued frames and keepalive pings until the connection
// goes away.
func (c *Client) writePump(conn *websocket.Conn, send chan Envelope, connDone chan struct{}) {
	defer c.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-connDone:
			if err := conn.WriteMessage(websocket.CloseMessage, nil); err != nil && err != websocket.ErrCloseSent {
				logger.Errorf("socket close message: %v", err)
			}
			return
		case env := <-send:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Errorf("socket set write deadline: %v", err)
				return
			}
			data, err := json.Marshal(env)
			if err != nil {
				logger.Errorf("socket marshal %s: %v", env.Type, err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Errorf("socket set write deadline: %v", err)
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
