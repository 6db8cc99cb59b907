package models

import "time"

// Complaint types accepted by the backend.
const (
	ComplaintSpam       = "spam"
	ComplaintContent    = "inappropriate_content"
	ComplaintFraud      = "fraud"
	ComplaintHarassment = "harassment"
	ComplaintOther      = "other"
)

// Complaint is a report filed against a user or a request.
type Complaint struct {
	ID               int64            `json:"id"`
	Complainant      *UserRef         `json:"complainant,omitempty"`
	ReportedUser     *UserRef         `json:"reported_user,omitempty"`
	ReportedRequest  *ActivityRequest `json:"reported_request,omitempty"`
	ComplaintType    string           `json:"complaint_type"`
	Description      string           `json:"description"`
	Status           string           `json:"status"` // "pending", "reviewed", "resolved", "rejected"
	Moderator        *UserRef         `json:"moderator,omitempty"`
	ModeratorComment string           `json:"moderator_comment,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Ban is a temporary or permanent block issued by a moderator.
type Ban struct {
	ID        int64      `json:"id"`
	User      UserRef    `json:"user"`
	BanType   string     `json:"ban_type"` // "temporary", "permanent"
	Reason    string     `json:"reason"`
	Moderator *UserRef   `json:"moderator,omitempty"`
	StartsAt  time.Time  `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	IsActive  bool       `json:"is_active"`
}

// ModerationStats is the aggregate view shown on the moderation dashboard.
type ModerationStats struct {
	TotalUsers        int `json:"total_users"`
	TotalRequests     int `json:"total_requests"`
	ActiveRequests    int `json:"active_requests"`
	PendingComplaints int `json:"pending_complaints"`
	ActiveBans        int `json:"active_bans"`
}
