// Package transport owns the live websocket channel of a chat room: one
// connection per room, automatic reconnect with linear backoff and a named
// event subscription interface.
//
// The client never surfaces transport-level errors to its caller; a failed
// dial or a dropped connection moves it into the reconnecting state and, after
// the attempt budget is exhausted, into disconnected until Connect is called
// again (e.g. on view re-entry).
package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/akobyansamvel/curs/internal/config"
)

// State of the live channel.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// Event kinds delivered to handlers. Message frames carry the raw JSON of the
// inbound frame; lifecycle events carry no payload.
const (
	EventMessage = "message"
	EventTyping  = "typing"
	EventOpen    = "open"
	EventClose   = "close"
	EventError   = "error"
)

// Event is one inbound frame or lifecycle signal.
type Event struct {
	Kind string
	// Data is the full inbound frame for wire events, nil for lifecycle ones.
	Data json.RawMessage
}

// Handler receives events of the kind it was registered for, in arrival
// order, on the client's read goroutine. Handlers must not block.
type Handler func(Event)

// HandlerID identifies a registered handler for Off. Function values are not
// comparable in Go, so registration returns a token instead of matching the
// handler by identity.
type HandlerID uint64

type registration struct {
	id HandlerID
	fn Handler
}

// Client maintains at most one live connection per room. Construct one per
// active room view and pass it explicitly; there is no process-wide instance.
type Client struct {
	wsBaseURL string
	token     string
	log       zerolog.Logger

	// BaseDelay and MaxAttempts tune the reconnect policy. Defaults come
	// from the config package; tests shorten them.
	BaseDelay   time.Duration
	MaxAttempts int
	Dialer      *websocket.Dialer

	mu       sync.Mutex
	conn     *websocket.Conn
	roomID   int64
	state    State
	attempts int
	gen      uint64 // connection generation; stale pump callbacks are ignored
	handlers map[string][]registration
	nextID   HandlerID
	sendCh   chan []byte
	timer    *time.Timer
}

// NewClient returns a disconnected client. wsBaseURL is the scheme+host part,
// e.g. "ws://localhost:8080".
func NewClient(wsBaseURL, token string, log zerolog.Logger) *Client {
	return &Client{
		wsBaseURL:   wsBaseURL,
		token:       token,
		log:         log.With().Str("component", "transport").Logger(),
		BaseDelay:   config.ReconnectBaseDelay,
		MaxAttempts: config.MaxReconnectAttempts,
		Dialer:      websocket.DefaultDialer,
		handlers:    make(map[string][]registration),
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RoomID returns the room the client is attached to (0 when none).
func (c *Client) RoomID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// On registers a handler for the given event kind. Several handlers per kind
// are allowed; they run in registration order.
func (c *Client) On(kind string, h Handler) HandlerID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.handlers[kind] = append(c.handlers[kind], registration{id: id, fn: h})
	return id
}

// Off removes the handler registered under id for the given kind.
func (c *Client) Off(kind string, id HandlerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	regs := c.handlers[kind]
	for i, r := range regs {
		if r.id == id {
			c.handlers[kind] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// Connect attaches the client to roomID. A no-op when the connection to the
// same room is already open; otherwise any previous connection is torn down
// first. Dial failures never reach the caller — the client retries on its
// own and eventually settles in the disconnected state.
func (c *Client) Connect(roomID int64) {
	c.mu.Lock()
	if c.state == StateOpen && c.roomID == roomID {
		c.mu.Unlock()
		return
	}
	c.teardownLocked()
	c.roomID = roomID
	c.attempts = 0
	c.state = StateConnecting
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	go c.dial(gen, roomID)
}

// Disconnect closes the connection, drops every registered handler and resets
// the reconnect counter. Safe to call when already disconnected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	c.roomID = 0
	c.attempts = 0
	c.handlers = make(map[string][]registration)
	c.state = StateDisconnected
}

// Send delivers a frame of the given kind over the live channel. When the
// channel is not open the call is a documented no-op returning false: the
// caller is expected to have used the request path already, this channel is
// only the best-effort broadcast.
func (c *Client) Send(kind string, payload map[string]any) bool {
	frame := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		frame[k] = v
	}
	frame["type"] = kind

	data, err := json.Marshal(frame)
	if err != nil {
		c.log.Error().Err(err).Str("kind", kind).Msg("encode outbound frame")
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen || c.sendCh == nil {
		return false
	}
	select {
	case c.sendCh <- data:
		return true
	default:
		// Писатель не успевает — кадр отбрасываем, REST уже доставил.
		c.log.Warn().Str("kind", kind).Msg("send buffer full, frame dropped")
		return false
	}
}

// SendMessage broadcasts a chat message frame, mirroring the wire format the
// backend consumer expects.
func (c *Client) SendMessage(content string) bool {
	return c.Send(EventMessage, map[string]any{"content": content})
}

// SendTyping broadcasts a typing indicator.
func (c *Client) SendTyping() bool {
	return c.Send(EventTyping, map[string]any{})
}

// teardownLocked closes the current socket and pending reconnect timer.
// Callers hold c.mu. Bumping gen makes the old pumps' callbacks stale.
func (c *Client) teardownLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.sendCh = nil
}

func (c *Client) roomURL(roomID int64) string {
	return fmt.Sprintf("%s/ws/chat/%d/", c.wsBaseURL, roomID)
}

func (c *Client) dial(gen uint64, roomID int64) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := c.Dialer.Dial(c.roomURL(roomID), header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c.mu.Lock()
	if gen != c.gen {
		// Между dial и сейчас был Disconnect или новый Connect.
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}

	if err != nil {
		c.log.Warn().Err(err).Int64("room_id", roomID).Msg("websocket dial failed")
		c.scheduleReconnectLocked(roomID)
		c.mu.Unlock()
		c.emit(Event{Kind: EventError})
		return
	}

	c.conn = conn
	c.state = StateOpen
	c.attempts = 0
	c.sendCh = make(chan []byte, 256)
	sendCh := c.sendCh
	c.mu.Unlock()

	c.log.Info().Int64("room_id", roomID).Msg("websocket connected")
	c.emit(Event{Kind: EventOpen})

	go c.writePump(gen, conn, sendCh)
	c.readPump(gen, roomID, conn)
}

// scheduleReconnectLocked plans the next dial attempt after
// attempt_number × BaseDelay, giving up for good after MaxAttempts.
// Callers hold c.mu.
func (c *Client) scheduleReconnectLocked(roomID int64) {
	if c.attempts >= c.MaxAttempts {
		c.state = StateDisconnected
		c.log.Warn().Int64("room_id", roomID).
			Int("attempts", c.attempts).
			Msg("reconnect attempts exhausted, staying disconnected")
		return
	}
	c.attempts++
	c.state = StateReconnecting
	attempt := c.attempts
	gen := c.gen

	c.log.Info().Int64("room_id", roomID).
		Int("attempt", attempt).Int("max", c.MaxAttempts).
		Msg("scheduling reconnect")

	c.timer = time.AfterFunc(time.Duration(attempt)*c.BaseDelay, func() {
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		c.state = StateConnecting
		c.gen++
		next := c.gen
		c.mu.Unlock()
		c.dial(next, roomID)
	})
}

// emit delivers the event to the handlers registered for its kind, in
// registration order. The handler slice is copied under the lock so a
// handler may call Off without deadlocking.
func (c *Client) emit(ev Event) {
	c.mu.Lock()
	regs := make([]registration, len(c.handlers[ev.Kind]))
	copy(regs, c.handlers[ev.Kind])
	c.mu.Unlock()

	for _, r := range regs {
		r.fn(ev)
	}
}
