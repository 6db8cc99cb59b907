package models

import "time"

// ChatMessage is a single message in a room's displayed list.
//
// Messages that came from the server always carry a non-nil ID. A message
// created locally on submit (optimistic entry) has a nil ID and a LocalToken
// until the server-confirmed counterpart supersedes it.
type ChatMessage struct {
	// ID is the server-assigned identifier, unique within a room.
	// Nil for optimistic entries that are not confirmed yet.
	ID *int64 `json:"id,omitempty"`
	// RoomID is the identifier of the chat room the message belongs to.
	RoomID int64 `json:"room_id,omitempty"`
	// Sender is nil for system messages.
	Sender    *UserRef  `json:"sender,omitempty"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// LocalToken is the client-generated send attempt token (UUID) of an
	// optimistic entry. Never sent over the wire.
	LocalToken string `json:"-"`
	// Pending marks an optimistic entry that has no server confirmation yet.
	Pending bool `json:"-"`
}

// Confirmed reports whether the message has a server-assigned identifier.
func (m *ChatMessage) Confirmed() bool {
	return m.ID != nil
}

// ChatRoom is a conversation context: direct (two participants) or a group
// chat linked to an activity request.
type ChatRoom struct {
	ID               int64            `json:"id"`
	Participants     []UserRef        `json:"participants"`
	OtherParticipant *UserRef         `json:"other_participant,omitempty"`
	Request          *ActivityRequest `json:"request,omitempty"`
	LastMessage      *ChatMessage     `json:"last_message,omitempty"`
	UnreadCount      int              `json:"unread_count"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// IsDirect reports whether the room is a personal 1-on-1 chat
// (not linked to a request).
func (r *ChatRoom) IsDirect() bool {
	return r.Request == nil && len(r.Participants) <= 2
}

// Title returns the name the room is displayed under: the linked request's
// title for group chats, the other participant's name for direct ones.
func (r *ChatRoom) Title(selfID int64) string {
	if r.Request != nil {
		return r.Request.Title
	}
	if r.OtherParticipant != nil {
		return r.OtherParticipant.DisplayName()
	}
	for i := range r.Participants {
		if r.Participants[i].ID != selfID {
			return r.Participants[i].DisplayName()
		}
	}
	return "Чат"
}
