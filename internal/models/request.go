package models

import "time"

// Request status values as stored by the backend.
const (
	StatusActive    = "active"
	StatusPending   = "pending"
	StatusFilled    = "filled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Category groups activities (спорт, развлечения...).
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Activity is a catalog entry (футбол, теннис...), always inside a category.
type Activity struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Category    *Category `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	IsActive    bool      `json:"is_active"`
}

// ActivityRequest is a user-created post seeking partners for an activity.
//
// Date is a calendar day in "2006-01-02" form and Time an optional
// time-of-day in "15:04" or "15:04:05" form, exactly as the backend
// serialises them. Parsing lives in the schedule package so every view
// applies the same cutoff rules.
type ActivityRequest struct {
	ID          int64     `json:"id"`
	Creator     *UserRef  `json:"creator,omitempty"`
	RequestType string    `json:"request_type,omitempty"`
	Activity    *Activity `json:"activity,omitempty"`
	Format      string    `json:"format,omitempty"`

	Date    string `json:"date"`
	Time    string `json:"time,omitempty"`
	DateEnd string `json:"date_end,omitempty"`
	TimeEnd string `json:"time_end,omitempty"`

	LocationName string  `json:"location_name,omitempty"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`
	Address      string  `json:"address,omitempty"`

	Level               string `json:"level,omitempty"`
	MaxParticipants     int    `json:"max_participants,omitempty"`
	CurrentParticipants int    `json:"current_participants"`
	ParticipationsCount int    `json:"participations_count"`

	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Requirements string   `json:"requirements,omitempty"`
	Photos       []string `json:"photos,omitempty"`

	Visibility      string    `json:"visibility,omitempty"`
	Status          string    `json:"status"`
	IsFavorite      bool      `json:"is_favorite"`
	IsParticipating bool      `json:"is_participating"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Participation is a user's response to a request.
type Participation struct {
	ID        int64     `json:"id"`
	User      UserRef   `json:"user"`
	RequestID int64     `json:"request_id,omitempty"`
	Status    string    `json:"status"` // "pending", "approved", "rejected"
	CreatedAt time.Time `json:"created_at"`
}
