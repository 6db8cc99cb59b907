package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/akobyansamvel/curs/internal/models"
)

// Notifications lists the user's notifications, newest first. When isRead is
// non-nil the list is filtered by read state.
func (c *Client) Notifications(ctx context.Context, isRead *bool) ([]models.Notification, error) {
	path := "/notifications/"
	if isRead != nil {
		path = fmt.Sprintf("%s?is_read=%t", path, *isRead)
	}
	return getList[models.Notification](ctx, c, path)
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/notifications/%d/read/", id), nil, nil)
}

// MarkAllNotificationsRead marks the whole feed as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/notifications/read-all/", nil, nil)
}

// UnreadNotifications returns the unread counter shown in the header.
func (c *Client) UnreadNotifications(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/notifications/unread-count/", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}
