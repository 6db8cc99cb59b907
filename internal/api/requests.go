package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/akobyansamvel/curs/internal/models"
)

// RequestListParams narrow a request listing. Zero values are omitted.
// A positive RadiusKM turns the listing into a nearby query around
// Latitude/Longitude.
type RequestListParams struct {
	CreatorID    int64
	CategorySlug string
	ActivityID   int64
	Search       string
	Status       string
	Latitude     float64
	Longitude    float64
	RadiusKM     float64
}

func (p RequestListParams) query() string {
	q := url.Values{}
	if p.CreatorID != 0 {
		q.Set("creator_id", strconv.FormatInt(p.CreatorID, 10))
	}
	if p.CategorySlug != "" {
		q.Set("category", p.CategorySlug)
	}
	if p.ActivityID != 0 {
		q.Set("activity_id", strconv.FormatInt(p.ActivityID, 10))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.RadiusKM > 0 {
		q.Set("latitude", strconv.FormatFloat(p.Latitude, 'f', -1, 64))
		q.Set("longitude", strconv.FormatFloat(p.Longitude, 'f', -1, 64))
		q.Set("radius", strconv.FormatFloat(p.RadiusKM, 'f', -1, 64))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// Requests lists activity requests, optionally filtered.
func (c *Client) Requests(ctx context.Context, params RequestListParams) ([]models.ActivityRequest, error) {
	return getList[models.ActivityRequest](ctx, c, "/requests/"+params.query())
}

// SearchRequests runs a free-text search over requests.
func (c *Client) SearchRequests(ctx context.Context, query string) ([]models.ActivityRequest, error) {
	q := url.Values{"q": []string{query}}
	return getList[models.ActivityRequest](ctx, c, "/requests/search/?"+q.Encode())
}

// MyRequests lists requests the user created.
func (c *Client) MyRequests(ctx context.Context) ([]models.ActivityRequest, error) {
	return getList[models.ActivityRequest](ctx, c, "/requests/my/")
}

// MyParticipations lists requests the user responded to.
func (c *Client) MyParticipations(ctx context.Context) ([]models.ActivityRequest, error) {
	return getList[models.ActivityRequest](ctx, c, "/requests/my/participations/")
}

// Request fetches one request by identifier.
func (c *Client) Request(ctx context.Context, id int64) (*models.ActivityRequest, error) {
	var req models.ActivityRequest
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/requests/%d/", id), nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// RequestDraft is the create/edit payload.
type RequestDraft struct {
	RequestType     string   `json:"request_type"`
	ActivityID      int64    `json:"activity_id"`
	Format          string   `json:"format"`
	Date            string   `json:"date"`
	Time            string   `json:"time,omitempty"`
	DateEnd         string   `json:"date_end,omitempty"`
	TimeEnd         string   `json:"time_end,omitempty"`
	LocationName    string   `json:"location_name"`
	Latitude        float64  `json:"latitude,omitempty"`
	Longitude       float64  `json:"longitude,omitempty"`
	Address         string   `json:"address,omitempty"`
	Level           string   `json:"level,omitempty"`
	MaxParticipants int      `json:"max_participants"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Requirements    string   `json:"requirements,omitempty"`
	Photos          []string `json:"photos,omitempty"`
	Visibility      string   `json:"visibility,omitempty"`
}

// CreateRequest publishes a new activity request.
func (c *Client) CreateRequest(ctx context.Context, draft RequestDraft) (*models.ActivityRequest, error) {
	var req models.ActivityRequest
	if err := c.do(ctx, http.MethodPost, "/requests/create/", draft, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// UpdateRequest edits an existing request the user owns.
func (c *Client) UpdateRequest(ctx context.Context, id int64, draft RequestDraft) (*models.ActivityRequest, error) {
	var req models.ActivityRequest
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/requests/%d/edit/", id), draft, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// DeleteRequest removes a request the user owns.
func (c *Client) DeleteRequest(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/requests/%d/delete/", id), nil, nil)
}

// Participate responds to a request.
func (c *Client) Participate(ctx context.Context, id int64) (*models.Participation, error) {
	var p models.Participation
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/requests/%d/participate/", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// RequestParticipations lists the responses to a request.
func (c *Client) RequestParticipations(ctx context.Context, id int64) ([]models.Participation, error) {
	return getList[models.Participation](ctx, c, fmt.Sprintf("/requests/%d/participations/", id))
}

// ExcludeParticipant removes a participant from the user's own request.
func (c *Client) ExcludeParticipant(ctx context.Context, requestID, participationID int64) error {
	path := fmt.Sprintf("/requests/%d/participations/%d/exclude/", requestID, participationID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// ToggleFavorite flips the favorite flag and reports the new state.
func (c *Client) ToggleFavorite(ctx context.Context, id int64) (bool, error) {
	var out struct {
		IsFavorite bool `json:"is_favorite"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/requests/%d/favorite/", id), nil, &out); err != nil {
		return false, err
	}
	return out.IsFavorite, nil
}

// Favorites lists the user's favorite requests.
func (c *Client) Favorites(ctx context.Context) ([]models.ActivityRequest, error) {
	return getList[models.ActivityRequest](ctx, c, "/requests/favorites/")
}

// Categories lists all activity categories.
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	return getList[models.Category](ctx, c, "/requests/categories/")
}

// Activities lists the activity catalog.
func (c *Client) Activities(ctx context.Context) ([]models.Activity, error) {
	return getList[models.Activity](ctx, c, "/requests/activities/")
}

// ReviewDraft is the payload for leaving a review after an activity.
type ReviewDraft struct {
	UserID  int64  `json:"user_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// CreateReview leaves a review for a participant of the given request.
func (c *Client) CreateReview(ctx context.Context, requestID int64, draft ReviewDraft) (*models.Review, error) {
	var review models.Review
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/requests/%d/reviews/", requestID), draft, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// UserReviews lists the reviews left for a user.
func (c *Client) UserReviews(ctx context.Context, userID int64) ([]models.Review, error) {
	return getList[models.Review](ctx, c, fmt.Sprintf("/requests/reviews/user/%d/", userID))
}
