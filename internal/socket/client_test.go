package socket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// testBackend is a minimal push endpoint: it accepts upgrades, collects
// client frames and can push frames or drop connections.
type testBackend struct {
	srv    *httptest.Server
	frames chan Envelope

	mu       sync.Mutex
	conns    []*websocket.Conn
	upgrades int
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	b := &testBackend{frames: make(chan Envelope, 32)}
	upgrader := websocket.Upgrader{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		b.mu.Lock()
		b.conns = append(b.conns, conn)
		b.upgrades++
		b.mu.Unlock()
		go func() {
			for {
				_, raw, err := conn.ReadMessage()
				if err != nil {
					return
				}
				var env Envelope
				if err := json.Unmarshal(raw, &env); err == nil {
					b.frames <- env
				}
			}
		}()
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *testBackend) url() string {
	return "ws" + strings.TrimPrefix(b.srv.URL, "http")
}

func (b *testBackend) upgradeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.upgrades
}

func (b *testBackend) dropConnections() {
	b.mu.Lock()
	conns := b.conns
	b.conns = nil
	b.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}

func (b *testBackend) push(t *testing.T, env Envelope) {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.conns) == 0 {
		t.Fatal("push: no connection")
	}
	conn := b.conns[len(b.conns)-1]
	if err := conn.WriteJSON(env); err != nil {
		t.Fatalf("push: %v", err)
	}
}

func waitFrame(t *testing.T, ch chan Envelope) Envelope {
	t.Helper()
	select {
	case env := <-ch:
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return Envelope{}
	}
}

func waitSignal(t *testing.T, ch chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestConnectIdempotent(t *testing.T) {
	b := newTestBackend(t)
	c := NewClient(b.url())
	defer c.Close()

	ctx := context.Background()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("second Connect: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if got := b.upgradeCount(); got != 1 {
		t.Fatalf("upgrades = %d, want 1", got)
	}
}

func TestRegisterOncePerConnect(t *testing.T) {
	b := newTestBackend(t)
	c := NewClient(b.url())
	defer c.Close()

	connected := make(chan struct{}, 4)
	disconnected := make(chan struct{}, 4)
	c.On(EventConnect, func(Envelope) { connected <- struct{}{} })
	c.On(EventDisconnect, func(Envelope) { disconnected <- struct{}{} })

	if err := c.Register("u1"); err != nil {
		t.Fatalf("Register before connect: %v", err)
	}
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitSignal(t, connected, "connect")

	env := waitFrame(t, b.frames)
	if env.Type != EventRegister {
		t.Fatalf("first frame = %s, want register", env.Type)
	}
	var reg RegisterPayload
	if err := json.Unmarshal(env.Payload, &reg); err != nil || reg.UserID != "u1" {
		t.Fatalf("register payload = %s (err %v), want userId u1", env.Payload, err)
	}

	// Dropped and restored connection: registration must repeat without
	// caller intervention beyond the reconnect itself.
	b.dropConnections()
	waitSignal(t, disconnected, "disconnect")

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	waitSignal(t, connected, "reconnect")

	env = waitFrame(t, b.frames)
	if env.Type != EventRegister {
		t.Fatalf("frame after reconnect = %s, want register", env.Type)
	}

	// Exactly one register per connect: nothing else queued.
	select {
	case extra := <-b.frames:
		t.Fatalf("unexpected extra frame %s", extra.Type)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestHandlersRunInAttachmentOrder(t *testing.T) {
	b := newTestBackend(t)
	c := NewClient(b.url())
	defer c.Close()

	var mu sync.Mutex
	var order []int
	done := make(chan struct{}, 1)
	for i := 1; i <= 3; i++ {
		i := i
		c.On(EventNotification, func(Envelope) {
			mu.Lock()
			order = append(order, i)
			last := len(order) == 3
			mu.Unlock()
			if last {
				done <- struct{}{}
			}
		})
	}

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	b.push(t, Envelope{Type: EventNotification, Payload: json.RawMessage(`{"id":"n1"}`)})
	waitSignal(t, done, "handlers")

	mu.Lock()
	defer mu.Unlock()
	for i, got := range order {
		if got != i+1 {
			t.Fatalf("handler order = %v, want [1 2 3]", order)
		}
	}
}

func TestEmitWhileDisconnected(t *testing.T) {
	c := NewClient("ws://localhost:1/ws")
	err := c.Emit(EventTyping, TypingPayload{ConversationID: "c1", UserID: "u1", IsTyping: true})
	if !errors.Is(err, ErrTransportDisconnected) {
		t.Fatalf("expected ErrTransportDisconnected, got %v", err)
	}
}

func TestEmitRoundTrip(t *testing.T) {
	b := newTestBackend(t)
	c := NewClient(b.url())
	defer c.Close()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Emit(EventTyping, TypingPayload{ConversationID: "c1", UserID: "u1", IsTyping: true}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	env := waitFrame(t, b.frames)
	if env.Type != EventTyping {
		t.Fatalf("frame type = %s, want typing", env.Type)
	}
	var p TypingPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.ConversationID != "c1" || p.UserID != "u1" || !p.IsTyping {
		t.Fatalf("payload = %+v", p)
	}
}

func TestCloseFiresDisconnect(t *testing.T) {
	b := newTestBackend(t)
	c := NewClient(b.url())

	disconnected := make(chan struct{}, 1)
	c.On(EventDisconnect, func(Envelope) { disconnected <- struct{}{} })

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	waitSignal(t, disconnected, "disconnect on close")
}
