package transport_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akobyansamvel/curs/internal/transport"
)

// wsServer is a minimal chat endpoint: it upgrades /ws/chat/<id>/, pushes
// frames handed to it and records everything the client sends.
type wsServer struct {
	*httptest.Server
	upgrades int32

	mu      sync.Mutex
	conns   []*websocket.Conn
	inbound [][]byte
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	ws := &wsServer{}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	ws.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		atomic.AddInt32(&ws.upgrades, 1)
		ws.mu.Lock()
		ws.conns = append(ws.conns, conn)
		ws.mu.Unlock()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			ws.mu.Lock()
			ws.inbound = append(ws.inbound, data)
			ws.mu.Unlock()
		}
	}))
	t.Cleanup(ws.Close)
	return ws
}

func (ws *wsServer) wsURL() string {
	return strings.Replace(ws.URL, "http://", "ws://", 1)
}

func (ws *wsServer) push(t *testing.T, frame string) {
	t.Helper()
	ws.mu.Lock()
	defer ws.mu.Unlock()
	require.NotEmpty(t, ws.conns, "no client connected yet")
	conn := ws.conns[len(ws.conns)-1]
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func (ws *wsServer) received() [][]byte {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	out := make([][]byte, len(ws.inbound))
	copy(out, ws.inbound)
	return out
}

func newTestClient(ws *wsServer) *transport.Client {
	c := transport.NewClient(ws.wsURL(), "test-token", zerolog.Nop())
	c.BaseDelay = 5 * time.Millisecond
	return c
}

func waitState(t *testing.T, c *transport.Client, want transport.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.State() == want
	}, 2*time.Second, 5*time.Millisecond, "state never reached %v", want)
}

// TestClientConnectDeliversFrames verifies the happy path: connect, receive a
// routed message frame on the registered handler.
func TestClientConnectDeliversFrames(t *testing.T) {
	// Arrange
	ws := newWSServer(t)
	client := newTestClient(ws)
	defer client.Disconnect()

	got := make(chan transport.Event, 1)
	client.On(transport.EventMessage, func(ev transport.Event) {
		got <- ev
	})

	// Act
	client.Connect(7)
	waitState(t, client, transport.StateOpen)
	ws.push(t, `{"type":"message","message":{"id":1,"content":"привет"}}`)

	// Assert
	select {
	case ev := <-got:
		assert.Equal(t, transport.EventMessage, ev.Kind)
		assert.Contains(t, string(ev.Data), "привет")
	case <-time.After(2 * time.Second):
		t.Fatal("frame never delivered")
	}
	assert.Equal(t, int64(7), client.RoomID())
}

// TestClientConnectIdempotent verifies that Connect on an already-open room
// does not open a second socket.
func TestClientConnectIdempotent(t *testing.T) {
	// Arrange
	ws := newWSServer(t)
	client := newTestClient(ws)
	defer client.Disconnect()

	// Act
	client.Connect(1)
	waitState(t, client, transport.StateOpen)
	client.Connect(1)
	client.Connect(1)

	// Assert - give any stray dial a moment to land
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ws.upgrades))
}

// TestClientConnectSwitchesRooms verifies that connecting to another room
// tears the old socket down and dials the new path.
func TestClientConnectSwitchesRooms(t *testing.T) {
	// Arrange
	ws := newWSServer(t)
	client := newTestClient(ws)
	defer client.Disconnect()

	// Act
	client.Connect(1)
	waitState(t, client, transport.StateOpen)
	client.Connect(2)
	waitState(t, client, transport.StateOpen)

	// Assert
	assert.Equal(t, int64(2), client.RoomID())
	assert.Equal(t, int32(2), atomic.LoadInt32(&ws.upgrades))
}

// TestClientReconnectBudget verifies the backoff policy: after the dial
// attempts are exhausted the client settles in disconnected and stops trying.
func TestClientReconnectBudget(t *testing.T) {
	// Arrange - a server that never upgrades
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	client := transport.NewClient(strings.Replace(srv.URL, "http://", "ws://", 1), "", zerolog.Nop())
	client.BaseDelay = time.Millisecond
	client.MaxAttempts = 5
	defer client.Disconnect()

	// Act
	client.Connect(1)
	waitState(t, client, transport.StateDisconnected)

	// Assert - the initial dial plus exactly MaxAttempts retries, no sixth
	attempts := atomic.LoadInt32(&hits)
	assert.Equal(t, int32(6), attempts)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, attempts, atomic.LoadInt32(&hits), "no dials after giving up")
}

// TestClientHandlerOrder verifies that handlers of one kind run in
// registration order.
func TestClientHandlerOrder(t *testing.T) {
	// Arrange
	ws := newWSServer(t)
	client := newTestClient(ws)
	defer client.Disconnect()

	var mu sync.Mutex
	var order []string
	done := make(chan struct{}, 1)
	client.On(transport.EventMessage, func(transport.Event) {
		mu.Lock()
		order = append(order, "first")
		mu.Unlock()
	})
	client.On(transport.EventMessage, func(transport.Event) {
		mu.Lock()
		order = append(order, "second")
		mu.Unlock()
		done <- struct{}{}
	})

	// Act
	client.Connect(1)
	waitState(t, client, transport.StateOpen)
	ws.push(t, `{"type":"message","content":"x"}`)

	// Assert
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handlers never ran")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second"}, order)
}

// TestClientOff verifies that an unregistered handler receives nothing while
// the remaining one still does.
func TestClientOff(t *testing.T) {
	// Arrange
	ws := newWSServer(t)
	client := newTestClient(ws)
	defer client.Disconnect()

	var removedRan atomic.Bool
	kept := make(chan struct{}, 1)
	id := client.On(transport.EventMessage, func(transport.Event) {
		removedRan.Store(true)
	})
	client.On(transport.EventMessage, func(transport.Event) {
		kept <- struct{}{}
	})

	// Act
	client.Off(transport.EventMessage, id)
	client.Connect(1)
	waitState(t, client, transport.StateOpen)
	ws.push(t, `{"type":"message","content":"x"}`)

	// Assert
	select {
	case <-kept:
	case <-time.After(2 * time.Second):
		t.Fatal("kept handler never ran")
	}
	assert.False(t, removedRan.Load())
}

// TestClientDisconnectDropsHandlers verifies that Disconnect unregisters
// everything: a later reconnect delivers no events to the old handlers.
func TestClientDisconnectDropsHandlers(t *testing.T) {
	// Arrange
	ws := newWSServer(t)
	client := newTestClient(ws)
	defer client.Disconnect()

	var oldRan atomic.Bool
	client.On(transport.EventMessage, func(transport.Event) {
		oldRan.Store(true)
	})
	client.Connect(1)
	waitState(t, client, transport.StateOpen)

	// Act
	client.Disconnect()
	assert.Equal(t, transport.StateDisconnected, client.State())

	fresh := make(chan struct{}, 1)
	client.On(transport.EventMessage, func(transport.Event) {
		fresh <- struct{}{}
	})
	client.Connect(1)
	waitState(t, client, transport.StateOpen)
	ws.push(t, `{"type":"message","content":"x"}`)

	// Assert
	select {
	case <-fresh:
	case <-time.After(2 * time.Second):
		t.Fatal("fresh handler never ran")
	}
	assert.False(t, oldRan.Load(), "handler survived Disconnect")
}

// TestClientSendWhileClosed verifies the documented no-op: Send on a closed
// channel reports false and nothing reaches the wire.
func TestClientSendWhileClosed(t *testing.T) {
	// Arrange
	ws := newWSServer(t)
	client := newTestClient(ws)

	// Act
	ok := client.SendMessage("в пустоту")

	// Assert
	assert.False(t, ok)
	assert.Empty(t, ws.received())
}

// TestClientSendMergesType verifies the outbound framing: the payload goes
// out with the kind merged in as "type".
func TestClientSendMergesType(t *testing.T) {
	// Arrange
	ws := newWSServer(t)
	client := newTestClient(ws)
	defer client.Disconnect()
	client.Connect(1)
	waitState(t, client, transport.StateOpen)

	// Act
	require.True(t, client.SendMessage("добрый вечер"))

	// Assert
	require.Eventually(t, func() bool {
		return len(ws.received()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	frame := string(ws.received()[0])
	assert.Contains(t, frame, `"type":"message"`)
	assert.Contains(t, frame, "добрый вечер")
}

// TestClientReconnectAfterDrop verifies that a dropped connection comes back
// on its own within the attempt budget.
func TestClientReconnectAfterDrop(t *testing.T) {
	// Arrange
	ws := newWSServer(t)
	client := newTestClient(ws)
	defer client.Disconnect()
	client.Connect(1)
	waitState(t, client, transport.StateOpen)

	// Act - the server kills the socket
	ws.mu.Lock()
	ws.conns[0].Close()
	ws.mu.Unlock()

	// Assert - a second upgrade happens and the channel is open again
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&ws.upgrades) == 2 && client.State() == transport.StateOpen
	}, 2*time.Second, 5*time.Millisecond)
}
