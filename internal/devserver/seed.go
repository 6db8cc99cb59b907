package devserver

import (
	"time"

	"github.com/akobyansamvel/curs/internal/models"
)

// SeedUser registers an account directly, bypassing the register endpoint.
func (s *Server) SeedUser(username, password string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := &models.User{
		ID:        s.allocID(),
		Username:  username,
		CreatedAt: time.Now(),
	}
	s.users[user.ID] = user
	s.passwords[username] = password
	s.profiles[user.ID] = &models.Profile{}
	return user
}

// SeedModerator registers an account with moderator rights.
func (s *Server) SeedModerator(username, password string) *models.User {
	user := s.SeedUser(username, password)
	s.mu.Lock()
	user.IsModerator = true
	s.mu.Unlock()
	return user
}

// TokenFor issues a signed token for a seeded account.
func (s *Server) TokenFor(user *models.User) string {
	token, err := s.issueToken(user)
	if err != nil {
		panic(err)
	}
	return token
}

// SeedTelegramCode registers a one-time login code for the user.
func (s *Server) SeedTelegramCode(code string, user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.telegramCodes[code] = user.ID
}

// SeedActivity adds a category/activity pair to the catalog.
func (s *Server) SeedActivity(categoryName, activityName string) *models.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	cat := &models.Category{ID: s.allocID(), Name: categoryName, CreatedAt: time.Now()}
	s.categories[cat.ID] = cat
	activity := &models.Activity{ID: s.allocID(), Name: activityName, Category: cat, IsActive: true}
	s.activities[activity.ID] = activity
	return activity
}

// SeedRequest publishes a request on behalf of creator.
func (s *Server) SeedRequest(creator *models.User, title, date, timeOfDay string) *models.ActivityRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := &models.ActivityRequest{
		ID:        s.allocID(),
		Creator:   userRef(creator),
		Title:     title,
		Date:      date,
		Time:      timeOfDay,
		Status:    models.StatusActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.requests[req.ID] = req
	return req
}

// SeedRequestAt publishes a request pinned to coordinates, for radius queries.
func (s *Server) SeedRequestAt(creator *models.User, title, date string, lat, lon float64) *models.ActivityRequest {
	req := s.SeedRequest(creator, title, date, "")
	s.mu.Lock()
	defer s.mu.Unlock()
	req.Latitude = lat
	req.Longitude = lon
	return req
}

// SeedFavorite puts a request into the user's favorites.
func (s *Server) SeedFavorite(user *models.User, req *models.ActivityRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.favorites[user.ID] == nil {
		s.favorites[user.ID] = make(map[int64]bool)
	}
	s.favorites[user.ID][req.ID] = true
}

// SeedRoom creates a chat room with the given participants.
func (s *Server) SeedRoom(users ...*models.User) *models.ChatRoom {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := &models.ChatRoom{
		ID:        s.allocID(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	for _, u := range users {
		room.Participants = append(room.Participants, *userRef(u))
	}
	s.rooms[room.ID] = room
	return room
}

// SeedMessage appends a confirmed message to a room's history.
func (s *Server) SeedMessage(room *models.ChatRoom, sender *models.User, content string) models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendMessageLocked(s.rooms[room.ID], sender, content)
}
