package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/akobyansamvel/curs/internal/models"
)

// Rooms lists the user's chat rooms, most recently updated first.
func (c *Client) Rooms(ctx context.Context) ([]models.ChatRoom, error) {
	return getList[models.ChatRoom](ctx, c, "/chat/rooms/")
}

// Room fetches one room's metadata.
func (c *Client) Room(ctx context.Context, id int64) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/chat/rooms/%d/", id), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// RoomMessages fetches the room's full history, oldest first. A response of
// an unexpected shape decodes to an empty list, not an error.
func (c *Client) RoomMessages(ctx context.Context, id int64) ([]models.ChatMessage, error) {
	return getList[models.ChatMessage](ctx, c, fmt.Sprintf("/chat/rooms/%d/messages/", id))
}

// SendMessage posts a message over the request path and returns the
// authoritative record with its server-assigned identifier.
func (c *Client) SendMessage(ctx context.Context, roomID int64, content string) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/chat/rooms/%d/send/", roomID), body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CreateDirectRoom returns the personal room with the given user, creating
// it on first contact.
func (c *Client) CreateDirectRoom(ctx context.Context, userID int64) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/chat/create/%d/", userID), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// CreateRequestRoom returns the group room of the given activity request,
// creating it when the caller is the first participant to open the chat.
func (c *Client) CreateRequestRoom(ctx context.Context, requestID int64) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/chat/create-request/%d/", requestID), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}
