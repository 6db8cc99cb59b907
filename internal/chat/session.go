package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/akobyansamvel/curs/internal/config"
	"github.com/akobyansamvel/curs/internal/models"
	"github.com/akobyansamvel/curs/internal/transport"
)

// ErrEmptyMessage is returned by Submit for blank input. No network call is
// made in that case.
var ErrEmptyMessage = errors.New("chat: empty message")

// MessageAPI is the request/response surface the session needs from the
// backend. Implemented by api.Client.
type MessageAPI interface {
	Room(ctx context.Context, id int64) (*models.ChatRoom, error)
	RoomMessages(ctx context.Context, id int64) ([]models.ChatMessage, error)
	SendMessage(ctx context.Context, roomID int64, content string) (*models.ChatMessage, error)
}

// LiveChannel is the live-push surface the session needs. Implemented by
// transport.Client.
type LiveChannel interface {
	Connect(roomID int64)
	Disconnect()
	On(kind string, h transport.Handler) transport.HandlerID
	Send(kind string, payload map[string]any) bool
	State() transport.State
}

// Session wires one room's store to its two delivery paths: the REST history
// (initial fetch plus a periodic re-fetch as reliability fallback) and the
// live channel. One session serves one room view at a time; Open on another
// room tears the previous one down completely before attaching, so no event
// of the old room can reach the new view.
type Session struct {
	api  MessageAPI
	live LiveChannel
	self models.UserRef
	log  zerolog.Logger

	// PollInterval is the re-fetch period, config.MessagePollInterval by
	// default.
	PollInterval time.Duration

	store   *Store
	room    *models.ChatRoom
	roomID  int64
	cancel  context.CancelFunc
	updates chan struct{}
	typing  chan string
}

// NewSession returns an idle session for the given authenticated user.
func NewSession(api MessageAPI, live LiveChannel, self models.UserRef, log zerolog.Logger) *Session {
	return &Session{
		api:          api,
		live:         live,
		self:         self,
		log:          log.With().Str("component", "chat").Logger(),
		PollInterval: config.MessagePollInterval,
		store:        NewStore(),
		updates:      make(chan struct{}, 1),
		typing:       make(chan string, 4),
	}
}

// Open attaches the session to a room: loads metadata and history, connects
// the live channel and starts the poll fallback. Any previously open room is
// closed first. A failed history fetch is not fatal — the list starts empty
// and self-heals on the next successful poll.
func (s *Session) Open(ctx context.Context, roomID int64) error {
	s.Close()

	room, err := s.api.Room(ctx, roomID)
	if err != nil {
		return fmt.Errorf("chat: load room %d: %w", roomID, err)
	}

	store := NewStore()
	s.store = store
	s.room = room
	s.roomID = roomID

	history, err := s.api.RoomMessages(ctx, roomID)
	if err != nil {
		s.log.Error().Err(err).Int64("room_id", roomID).Msg("history fetch failed")
	} else {
		store.ApplySnapshot(history)
	}

	// The handlers bind to this room's store, not to the session: an event
	// already in flight when the room switches lands in the abandoned store
	// and never reaches the new view.
	s.live.On(transport.EventMessage, func(ev transport.Event) {
		s.onLiveMessage(store, roomID, ev)
	})
	s.live.On(transport.EventTyping, s.onLiveTyping)
	s.live.Connect(roomID)

	pollCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.poll(pollCtx, roomID, store)

	s.notify()
	return nil
}

// Close stops the poller and disconnects the live channel, dropping its
// handlers. Safe to call on an idle session.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.live.Disconnect()
	s.room = nil
	s.roomID = 0
}

// Submit sends a message. Blank or whitespace-only text is rejected locally
// with ErrEmptyMessage. Otherwise an optimistic entry is inserted
// immediately, the message goes out over the request path and, best-effort,
// over the live channel. On a request failure the optimistic entry stays
// visible as pending and the error is returned for the UI notice; there is
// no automatic retry.
func (s *Session) Submit(ctx context.Context, text string) (models.ChatMessage, error) {
	content := strings.TrimSpace(text)
	if content == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	optimistic := s.store.AddOptimistic(s.self, content)
	s.notify()

	confirmed, err := s.api.SendMessage(ctx, s.roomID, content)
	if err != nil {
		s.log.Error().Err(err).Int64("room_id", s.roomID).Msg("send failed")
		return optimistic, fmt.Errorf("chat: send message: %w", err)
	}

	s.store.Confirm(optimistic.LocalToken, *confirmed)

	// Вторичная рассылка по живому каналу; при закрытом канале — no-op.
	s.live.Send(transport.EventMessage, map[string]any{"content": content})

	s.notify()
	return *confirmed, nil
}

// Messages returns the current reconciled snapshot.
func (s *Session) Messages() []models.ChatMessage {
	return s.store.Messages()
}

// Room returns the open room's metadata, nil when idle.
func (s *Session) Room() *models.ChatRoom {
	return s.room
}

// Self returns the authenticated user the session sends as.
func (s *Session) Self() models.UserRef {
	return s.self
}

// Updates signals after every change to the message list. The channel is
// buffered and never blocks the delivery paths; consumers re-read Messages
// on receive.
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

// Typing yields the display name of a peer typing in the open room.
// Indicators are ephemeral: with no reader they are dropped, never queued.
func (s *Session) Typing() <-chan string {
	return s.typing
}

// liveFrame mirrors the backend consumer's frame: new-style frames nest the
// message record, legacy ones inline the content.
type liveFrame struct {
	Type    string              `json:"type"`
	Message *models.ChatMessage `json:"message"`
	Content string              `json:"content"`
}

func (s *Session) onLiveMessage(store *Store, roomID int64, ev transport.Event) {
	var frame liveFrame
	if err := json.Unmarshal(ev.Data, &frame); err != nil {
		s.log.Warn().Err(err).Msg("malformed live frame, skipped")
		return
	}

	switch {
	case frame.Message != nil:
		if frame.Message.RoomID != 0 && frame.Message.RoomID != roomID {
			return
		}
		store.ApplyLive(*frame.Message)
	case frame.Content != "":
		store.ApplyLive(models.ChatMessage{
			RoomID:    roomID,
			Content:   frame.Content,
			CreatedAt: time.Now(),
		})
	default:
		return
	}
	s.notify()
}

func (s *Session) onLiveTyping(ev transport.Event) {
	var frame struct {
		User string `json:"user"`
	}
	if json.Unmarshal(ev.Data, &frame) != nil || frame.User == "" {
		return
	}
	select {
	case s.typing <- frame.User:
	default:
	}
}

// poll re-fetches the room history on a fixed interval. Failures only log:
// the list stays as-is and heals on the next successful fetch.
func (s *Session) poll(ctx context.Context, roomID int64, store *Store) {
	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msgs, err := s.api.RoomMessages(ctx, roomID)
			if err != nil {
				if ctx.Err() == nil {
					s.log.Warn().Err(err).Int64("room_id", roomID).Msg("poll fetch failed")
				}
				continue
			}
			store.ApplySnapshot(msgs)
			s.notify()
		}
	}
}

func (s *Session) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
