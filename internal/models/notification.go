package models

import "time"

// Notification types pushed by the backend.
const (
	NotifyNewResponse = "new_response"
	NotifyApproved    = "participation_approved"
	NotifyRejected    = "participation_rejected"
	NotifyNearby      = "new_request_nearby"
	NotifyReminder    = "activity_reminder"
	NotifyCancelled   = "request_cancelled"
	NotifyRescheduled = "request_rescheduled"
	NotifyNewMessage  = "new_message"
	NotifyNewReview   = "new_review"
)

// Notification is a single entry of the user's notification feed.
type Notification struct {
	ID               int64     `json:"id"`
	NotificationType string    `json:"notification_type"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	IsRead           bool      `json:"is_read"`
	RelatedRequestID int64     `json:"related_request,omitempty"`
	RelatedUser      *UserRef  `json:"related_user,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
