package chat_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akobyansamvel/curs/internal/chat"
	"github.com/akobyansamvel/curs/internal/models"
	"github.com/akobyansamvel/curs/internal/transport"
)

// fakeAPI is an in-memory MessageAPI: rooms keyed by id, SendMessage assigns
// identifiers sequentially.
type fakeAPI struct {
	mu      sync.Mutex
	rooms   map[int64]*models.ChatRoom
	history map[int64][]models.ChatMessage
	nextID  int64
	sendErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		rooms:   make(map[int64]*models.ChatRoom),
		history: make(map[int64][]models.ChatMessage),
		nextID:  100,
	}
}

func (f *fakeAPI) Room(ctx context.Context, id int64) (*models.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %d not found", id)
	}
	return room, nil
}

func (f *fakeAPI) RoomMessages(ctx context.Context, id int64) ([]models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ChatMessage, len(f.history[id]))
	copy(out, f.history[id])
	return out, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, roomID int64, content string) (*models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.nextID++
	id := f.nextID
	msg := models.ChatMessage{
		ID:        &id,
		RoomID:    roomID,
		Sender:    &alice,
		Content:   content,
		CreatedAt: time.Now(),
	}
	f.history[roomID] = append(f.history[roomID], msg)
	return &msg, nil
}

// fakeLive records handler registrations and lets tests push frames as if
// they arrived over the websocket.
type fakeLive struct {
	mu        sync.Mutex
	handlers  map[string][]transport.Handler
	nextID    transport.HandlerID
	connected int64
	sent      []map[string]any
}

func newFakeLive() *fakeLive {
	return &fakeLive{handlers: make(map[string][]transport.Handler)}
}

func (f *fakeLive) Connect(roomID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = roomID
}

func (f *fakeLive) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = 0
	f.handlers = make(map[string][]transport.Handler)
}

func (f *fakeLive) On(kind string, h transport.Handler) transport.HandlerID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.handlers[kind] = append(f.handlers[kind], h)
	return f.nextID
}

func (f *fakeLive) Send(kind string, payload map[string]any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connected == 0 {
		return false
	}
	f.sent = append(f.sent, payload)
	return true
}

func (f *fakeLive) State() transport.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connected != 0 {
		return transport.StateOpen
	}
	return transport.StateDisconnected
}

// push delivers a frame to every registered message handler.
func (f *fakeLive) push(t *testing.T, frame any) {
	f.pushKind(t, transport.EventMessage, frame)
}

func (f *fakeLive) pushKind(t *testing.T, kind string, frame any) {
	raw, err := json.Marshal(frame)
	require.NoError(t, err)

	f.mu.Lock()
	handlers := append([]transport.Handler(nil), f.handlers[kind]...)
	f.mu.Unlock()
	for _, h := range handlers {
		h(transport.Event{Kind: kind, Data: raw})
	}
}

func newTestSession(api *fakeAPI, live *fakeLive) *chat.Session {
	return chat.NewSession(api, live, alice, zerolog.Nop())
}

// TestSessionOpenLoadsHistory verifies that Open fetches the room and its
// history and connects the live channel.
func TestSessionOpenLoadsHistory(t *testing.T) {
	// Arrange
	api := newFakeAPI()
	api.rooms[1] = &models.ChatRoom{ID: 1, Participants: []models.UserRef{alice, boris}}
	api.history[1] = []models.ChatMessage{confirmed(1, boris, "привет", time.Now())}
	live := newFakeLive()
	session := newTestSession(api, live)

	// Act
	err := session.Open(context.Background(), 1)
	defer session.Close()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(1), live.connected)
	require.Len(t, session.Messages(), 1)
	assert.Equal(t, "привет", session.Messages()[0].Content)
}

// TestSessionOpenUnknownRoom verifies that a failed room fetch is fatal.
func TestSessionOpenUnknownRoom(t *testing.T) {
	// Arrange
	api := newFakeAPI()
	live := newFakeLive()
	session := newTestSession(api, live)

	// Act
	err := session.Open(context.Background(), 42)

	// Assert
	assert.Error(t, err)
	assert.Nil(t, session.Room())
}

// TestSessionSubmitOptimisticThenConfirmed verifies the send flow: the text
// is visible immediately and ends up confirmed once, with the live channel
// used best-effort.
func TestSessionSubmitOptimisticThenConfirmed(t *testing.T) {
	// Arrange
	api := newFakeAPI()
	api.rooms[1] = &models.ChatRoom{ID: 1}
	live := newFakeLive()
	session := newTestSession(api, live)
	require.NoError(t, session.Open(context.Background(), 1))
	defer session.Close()

	// Act
	sent, err := session.Submit(context.Background(), "пошли играть")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, sent.ID)
	msgs := session.Messages()
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].Pending)
	assert.Len(t, live.sent, 1)
}

// TestSessionSubmitEmpty verifies that blank input is rejected locally
// without touching the network.
func TestSessionSubmitEmpty(t *testing.T) {
	// Arrange
	api := newFakeAPI()
	api.rooms[1] = &models.ChatRoom{ID: 1}
	live := newFakeLive()
	session := newTestSession(api, live)
	require.NoError(t, session.Open(context.Background(), 1))
	defer session.Close()

	// Act
	_, err := session.Submit(context.Background(), "   \n\t")

	// Assert
	assert.ErrorIs(t, err, chat.ErrEmptyMessage)
	assert.Empty(t, session.Messages())
	assert.Empty(t, live.sent)
}

// TestSessionSubmitFailureKeepsPending verifies that a failed send leaves the
// optimistic entry visible as pending and surfaces the error.
func TestSessionSubmitFailureKeepsPending(t *testing.T) {
	// Arrange
	api := newFakeAPI()
	api.rooms[1] = &models.ChatRoom{ID: 1}
	api.sendErr = fmt.Errorf("connection refused")
	live := newFakeLive()
	session := newTestSession(api, live)
	require.NoError(t, session.Open(context.Background(), 1))
	defer session.Close()

	// Act
	_, err := session.Submit(context.Background(), "не дойдёт")

	// Assert
	assert.Error(t, err)
	msgs := session.Messages()
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Pending)
}

// TestSessionLiveFrameApplied verifies that a pushed frame in the nested
// framing shows up in the snapshot exactly once.
func TestSessionLiveFrameApplied(t *testing.T) {
	// Arrange
	api := newFakeAPI()
	api.rooms[1] = &models.ChatRoom{ID: 1}
	live := newFakeLive()
	session := newTestSession(api, live)
	require.NoError(t, session.Open(context.Background(), 1))
	defer session.Close()

	frame := map[string]any{
		"type":    "message",
		"message": confirmed(55, boris, "я тут", time.Now()),
	}

	// Act - the same frame arrives twice (reconnect replay)
	live.push(t, frame)
	live.push(t, frame)

	// Assert
	msgs := session.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(55), *msgs[0].ID)
}

// TestSessionRoomSwitchDropsOldEvents verifies that after switching rooms no
// event of the previous room reaches the new view.
func TestSessionRoomSwitchDropsOldEvents(t *testing.T) {
	// Arrange
	api := newFakeAPI()
	api.rooms[1] = &models.ChatRoom{ID: 1}
	api.rooms[2] = &models.ChatRoom{ID: 2}
	live := newFakeLive()
	session := newTestSession(api, live)
	require.NoError(t, session.Open(context.Background(), 1))

	oldHandlers := len(live.handlers[transport.EventMessage])
	require.Equal(t, 1, oldHandlers)

	// Act - switch; Disconnect drops the old room's handlers
	require.NoError(t, session.Open(context.Background(), 2))
	defer session.Close()
	live.push(t, map[string]any{
		"type":    "message",
		"message": confirmed(99, boris, "из другой комнаты", time.Now()),
	})

	// Assert - the frame went to the room-2 handler only; the view holds one
	// entry and the room is the new one
	assert.Equal(t, int64(2), session.Room().ID)
	assert.Len(t, live.handlers[transport.EventMessage], 1)
	assert.Len(t, session.Messages(), 1)
}

// TestSessionTypingDelivered verifies that a typing frame arriving after Open
// reaches the Typing channel: Open registers the handler itself, after its own
// teardown of the previous room has already dropped the old registrations.
func TestSessionTypingDelivered(t *testing.T) {
	// Arrange
	api := newFakeAPI()
	api.rooms[1] = &models.ChatRoom{ID: 1}
	live := newFakeLive()
	session := newTestSession(api, live)
	require.NoError(t, session.Open(context.Background(), 1))
	defer session.Close()

	// Act
	live.pushKind(t, transport.EventTyping, map[string]any{"type": "typing", "user": "boris"})

	// Assert
	select {
	case user := <-session.Typing():
		assert.Equal(t, "boris", user)
	case <-time.After(time.Second):
		t.Fatal("typing indicator not delivered")
	}
}

// TestSessionStaleHandlerAfterSwitch verifies that a message handler captured
// before a room switch cannot contaminate the new room's list when it fires
// late.
func TestSessionStaleHandlerAfterSwitch(t *testing.T) {
	// Arrange
	api := newFakeAPI()
	api.rooms[1] = &models.ChatRoom{ID: 1}
	api.rooms[2] = &models.ChatRoom{ID: 2}
	live := newFakeLive()
	session := newTestSession(api, live)
	require.NoError(t, session.Open(context.Background(), 1))
	stale := live.handlers[transport.EventMessage][0]

	// Act - the room switches while a room-1 frame is still in flight
	require.NoError(t, session.Open(context.Background(), 2))
	defer session.Close()
	raw, err := json.Marshal(map[string]any{
		"type":    "message",
		"message": confirmed(11, boris, "из прошлой комнаты", time.Now()),
	})
	require.NoError(t, err)
	stale(transport.Event{Kind: transport.EventMessage, Data: raw})

	// Assert
	assert.Empty(t, session.Messages())
}

// TestSessionForeignRoomFrameIgnored verifies that a frame carrying another
// room's identifier is dropped.
func TestSessionForeignRoomFrameIgnored(t *testing.T) {
	// Arrange
	api := newFakeAPI()
	api.rooms[1] = &models.ChatRoom{ID: 1}
	live := newFakeLive()
	session := newTestSession(api, live)
	require.NoError(t, session.Open(context.Background(), 1))
	defer session.Close()

	foreign := confirmed(12, boris, "не сюда", time.Now())
	foreign.RoomID = 99

	// Act
	live.push(t, map[string]any{"type": "message", "message": foreign})

	// Assert
	assert.Empty(t, session.Messages())
}

// TestSessionMalformedFrameIgnored verifies that garbage on the live channel
// is skipped without corrupting the list.
func TestSessionMalformedFrameIgnored(t *testing.T) {
	// Arrange
	api := newFakeAPI()
	api.rooms[1] = &models.ChatRoom{ID: 1}
	live := newFakeLive()
	session := newTestSession(api, live)
	require.NoError(t, session.Open(context.Background(), 1))
	defer session.Close()

	// Act
	f := live.handlers[transport.EventMessage][0]
	f(transport.Event{Kind: transport.EventMessage, Data: []byte("{not json")})

	// Assert
	assert.Empty(t, session.Messages())
}

// TestSessionPollHealsMissedMessage verifies the reliability fallback: a
// message the websocket missed arrives via the periodic re-fetch.
func TestSessionPollHealsMissedMessage(t *testing.T) {
	// Arrange
	api := newFakeAPI()
	api.rooms[1] = &models.ChatRoom{ID: 1}
	live := newFakeLive()
	session := newTestSession(api, live)
	session.PollInterval = 10 * time.Millisecond
	require.NoError(t, session.Open(context.Background(), 1))
	defer session.Close()

	// Act - the message appears on the server only
	api.mu.Lock()
	api.history[1] = append(api.history[1], confirmed(77, boris, "мимо сокета", time.Now()))
	api.mu.Unlock()

	// Assert
	require.Eventually(t, func() bool {
		return len(session.Messages()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(77), *session.Messages()[0].ID)
}
