package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/akobyansamvel/curs/internal/models"
)

// Complaints lists complaints. Regular users see their own, moderators see
// everything.
func (c *Client) Complaints(ctx context.Context) ([]models.Complaint, error) {
	return getList[models.Complaint](ctx, c, "/moderation/complaints/")
}

// ComplaintDraft is the payload to file a complaint. Exactly one of UserID
// and RequestID should be set.
type ComplaintDraft struct {
	UserID        int64  `json:"reported_user,omitempty"`
	RequestID     int64  `json:"reported_request,omitempty"`
	ComplaintType string `json:"complaint_type"`
	Description   string `json:"description"`
}

// CreateComplaint files a complaint against a user or a request.
func (c *Client) CreateComplaint(ctx context.Context, draft ComplaintDraft) (*models.Complaint, error) {
	var out models.Complaint
	if err := c.do(ctx, http.MethodPost, "/moderation/complaints/create/", draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResolveComplaint sets a complaint's final status ("resolved" or
// "rejected") with a moderator comment. Moderators only.
func (c *Client) ResolveComplaint(ctx context.Context, id int64, status, comment string) (*models.Complaint, error) {
	var out models.Complaint
	body := map[string]string{"status": status, "moderator_comment": comment}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/moderation/complaints/%d/resolve/", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Bans lists issued bans. Moderators only.
func (c *Client) Bans(ctx context.Context) ([]models.Ban, error) {
	return getList[models.Ban](ctx, c, "/moderation/bans/")
}

// BanDraft is the payload to block a user.
type BanDraft struct {
	UserID  int64  `json:"user_id"`
	BanType string `json:"ban_type"` // "temporary" or "permanent"
	Reason  string `json:"reason"`
	// Days is the duration of a temporary ban.
	Days int `json:"days,omitempty"`
}

// CreateBan blocks a user. Moderators only.
func (c *Client) CreateBan(ctx context.Context, draft BanDraft) (*models.Ban, error) {
	var out models.Ban
	if err := c.do(ctx, http.MethodPost, "/moderation/bans/create/", draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ModerateRequest applies a moderator action ("approve", "reject", "delete")
// to a request.
func (c *Client) ModerateRequest(ctx context.Context, id int64, action string) error {
	body := map[string]string{"action": action}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/moderation/requests/%d/moderate/", id), body, nil)
}

// ModerateUser applies a moderator action to a user account.
func (c *Client) ModerateUser(ctx context.Context, id int64, action string) error {
	body := map[string]string{"action": action}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/moderation/users/%d/moderate/", id), body, nil)
}

// Statistics returns the moderation dashboard aggregates.
func (c *Client) Statistics(ctx context.Context) (*models.ModerationStats, error) {
	var out models.ModerationStats
	if err := c.do(ctx, http.MethodGet, "/requests/statistics/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CategoryDraft is the create/edit payload for category management.
type CategoryDraft struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	Icon string `json:"icon,omitempty"`
}

// CreateCategory adds a category. Moderators only.
func (c *Client) CreateCategory(ctx context.Context, draft CategoryDraft) (*models.Category, error) {
	var out models.Category
	if err := c.do(ctx, http.MethodPost, "/requests/categories/create/", draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCategory edits a category. Moderators only.
func (c *Client) UpdateCategory(ctx context.Context, id int64, draft CategoryDraft) (*models.Category, error) {
	var out models.Category
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/requests/categories/%d/edit/", id), draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCategory removes a category. Moderators only.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/requests/categories/%d/delete/", id), nil, nil)
}

// ActivityDraft is the create/edit payload for the activity catalog.
type ActivityDraft struct {
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	CategoryID int64  `json:"category_id"`
	Icon       string `json:"icon,omitempty"`
}

// CreateActivity adds a catalog activity. Moderators only.
func (c *Client) CreateActivity(ctx context.Context, draft ActivityDraft) (*models.Activity, error) {
	var out models.Activity
	if err := c.do(ctx, http.MethodPost, "/requests/activities/create/", draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteActivity removes a catalog activity. Moderators only.
func (c *Client) DeleteActivity(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/requests/activities/%d/delete/", id), nil, nil)
}
