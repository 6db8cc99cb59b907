package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/akobyansamvel/curs/internal/models"
)

// Me fetches the authenticated user's account.
func (c *Client) Me(ctx context.Context) (*models.Account, error) {
	var acc models.Account
	if err := c.do(ctx, http.MethodGet, "/profile/", nil, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// UserProfile fetches another user's public account.
func (c *Client) UserProfile(ctx context.Context, userID int64) (*models.Account, error) {
	var acc models.Account
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/profile/%d/", userID), nil, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// ProfileEdit is the profile update payload; nil fields stay unchanged.
type ProfileEdit struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	City      *string `json:"city,omitempty"`
	Bio       *string `json:"bio,omitempty"`
}

// UpdateProfile edits the authenticated user's profile.
func (c *Client) UpdateProfile(ctx context.Context, edit ProfileEdit) (*models.Account, error) {
	var acc models.Account
	if err := c.do(ctx, http.MethodPatch, "/profile/edit/", edit, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// Interests lists the user's activity interests.
func (c *Client) Interests(ctx context.Context) ([]models.Interest, error) {
	return getList[models.Interest](ctx, c, "/profile/interests/")
}

// AddInterest links an activity to the user's profile.
func (c *Client) AddInterest(ctx context.Context, activityID int64, level string) (*models.Interest, error) {
	var out models.Interest
	body := map[string]any{"activity_id": activityID, "level": level}
	if err := c.do(ctx, http.MethodPost, "/profile/interests/add/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteInterest removes an interest.
func (c *Client) DeleteInterest(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/profile/interests/%d/delete/", id), nil, nil)
}
