package models

import "time"

// UserRef is the short user representation embedded in messages, rooms and
// requests.
type UserRef struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
}

// DisplayName returns the username, falling back to the first name.
func (u *UserRef) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return "Пользователь"
}

// User is the full account record returned by the profile endpoints.
type User struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email,omitempty"`
	FirstName        string    `json:"first_name,omitempty"`
	LastName         string    `json:"last_name,omitempty"`
	TelegramID       int64     `json:"telegram_id,omitempty"`
	PhoneVerified    bool      `json:"phone_verified"`
	TelegramVerified bool      `json:"telegram_verified"`
	IsModerator      bool      `json:"is_moderator"`
	CreatedAt        time.Time `json:"created_at"`
}

// Profile holds the editable part of an account.
type Profile struct {
	Photo             string         `json:"photo,omitempty"`
	City              string         `json:"city,omitempty"`
	Rating            float64        `json:"rating"`
	Bio               string         `json:"bio,omitempty"`
	AvailableSchedule map[string]any `json:"available_schedule,omitempty"`
}

// Account is the user+profile pair returned by /profile/ and the auth
// endpoints.
type Account struct {
	User    User    `json:"user"`
	Profile Profile `json:"profile"`
}

// Interest links a user to an activity with a proficiency level.
type Interest struct {
	ID       int64    `json:"id"`
	Activity Activity `json:"activity"`
	Level    string   `json:"level"`
}

// Review is a rating left for a user after a shared activity.
type Review struct {
	ID        int64     `json:"id"`
	Reviewer  UserRef   `json:"reviewer"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	RequestID int64     `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
