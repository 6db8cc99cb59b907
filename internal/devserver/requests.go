package devserver

import (
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akobyansamvel/curs/internal/models"
)

type requestDraft struct {
	RequestType     string   `json:"request_type"`
	ActivityID      int64    `json:"activity_id"`
	Format          string   `json:"format"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	DateEnd         string   `json:"date_end"`
	TimeEnd         string   `json:"time_end"`
	LocationName    string   `json:"location_name"`
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
	Address         string   `json:"address"`
	Level           string   `json:"level"`
	MaxParticipants int      `json:"max_participants"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Requirements    string   `json:"requirements"`
	Photos          []string `json:"photos"`
	Visibility      string   `json:"visibility"`
}

func (s *Server) handleRequestList(c *gin.Context) {
	creatorID, _ := strconv.ParseInt(c.Query("creator_id"), 10, 64)
	activityID, _ := strconv.ParseInt(c.Query("activity_id"), 10, 64)
	category := c.Query("category")
	search := strings.ToLower(c.Query("search"))
	status := c.Query("status")
	lat, _ := strconv.ParseFloat(c.Query("latitude"), 64)
	lon, _ := strconv.ParseFloat(c.Query("longitude"), 64)
	radius, _ := strconv.ParseFloat(c.Query("radius"), 64)

	user := currentUser(c)
	s.mu.Lock()
	out := make([]models.ActivityRequest, 0, len(s.requests))
	for _, req := range s.requests {
		if creatorID != 0 && (req.Creator == nil || req.Creator.ID != creatorID) {
			continue
		}
		if activityID != 0 && (req.Activity == nil || req.Activity.ID != activityID) {
			continue
		}
		if category != "" {
			if req.Activity == nil || req.Activity.Category == nil || req.Activity.Category.Slug != category {
				continue
			}
		}
		if status != "" && req.Status != status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(req.Title+" "+req.Description), search) {
			continue
		}
		if radius > 0 {
			// Заявки без координат в радиусный поиск не попадают.
			if req.Latitude == 0 && req.Longitude == 0 {
				continue
			}
			if distanceKM(lat, lon, req.Latitude, req.Longitude) > radius {
				continue
			}
		}
		out = append(out, s.viewRequestLocked(req, user))
	}
	s.mu.Unlock()

	sortRequests(out)
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleRequestSearch(c *gin.Context) {
	q := strings.ToLower(c.Query("q"))
	user := currentUser(c)

	s.mu.Lock()
	out := make([]models.ActivityRequest, 0)
	for _, req := range s.requests {
		haystack := strings.ToLower(req.Title + " " + req.Description + " " + req.LocationName)
		if q == "" || strings.Contains(haystack, q) {
			out = append(out, s.viewRequestLocked(req, user))
		}
	}
	s.mu.Unlock()

	sortRequests(out)
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleRequestCreate(c *gin.Context) {
	var draft requestDraft
	if err := c.ShouldBindJSON(&draft); err != nil || draft.Title == "" || draft.Date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Название и дата обязательны"})
		return
	}

	user := currentUser(c)
	s.mu.Lock()
	activity := s.activities[draft.ActivityID]
	req := &models.ActivityRequest{
		ID:              s.allocID(),
		Creator:         userRef(user),
		RequestType:     draft.RequestType,
		Activity:        activity,
		Format:          draft.Format,
		Date:            draft.Date,
		Time:            draft.Time,
		DateEnd:         draft.DateEnd,
		TimeEnd:         draft.TimeEnd,
		LocationName:    draft.LocationName,
		Latitude:        draft.Latitude,
		Longitude:       draft.Longitude,
		Address:         draft.Address,
		Level:           draft.Level,
		MaxParticipants: draft.MaxParticipants,
		Title:           draft.Title,
		Description:     draft.Description,
		Requirements:    draft.Requirements,
		Photos:          draft.Photos,
		Visibility:      draft.Visibility,
		Status:          models.StatusActive,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	s.requests[req.ID] = req
	view := s.viewRequestLocked(req, user)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, view)
}

func (s *Server) handleMyRequests(c *gin.Context) {
	user := currentUser(c)
	s.mu.Lock()
	out := make([]models.ActivityRequest, 0)
	for _, req := range s.requests {
		if req.Creator != nil && req.Creator.ID == user.ID {
			out = append(out, s.viewRequestLocked(req, user))
		}
	}
	s.mu.Unlock()
	sortRequests(out)
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleMyParticipations(c *gin.Context) {
	user := currentUser(c)
	s.mu.Lock()
	out := make([]models.ActivityRequest, 0)
	for reqID, parts := range s.participations {
		for _, p := range parts {
			if p.User.ID == user.ID && p.Status != "rejected" {
				if req, ok := s.requests[reqID]; ok {
					out = append(out, s.viewRequestLocked(req, user))
				}
				break
			}
		}
	}
	s.mu.Unlock()
	sortRequests(out)
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleFavorites(c *gin.Context) {
	user := currentUser(c)
	s.mu.Lock()
	out := make([]models.ActivityRequest, 0)
	for reqID := range s.favorites[user.ID] {
		if req, ok := s.requests[reqID]; ok {
			out = append(out, s.viewRequestLocked(req, user))
		}
	}
	s.mu.Unlock()
	sortRequests(out)
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleRequestDetail(c *gin.Context) {
	user := currentUser(c)
	s.mu.Lock()
	req, ok := s.requests[paramID(c)]
	var view models.ActivityRequest
	if ok {
		view = s.viewRequestLocked(req, user)
	}
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleRequestEdit(c *gin.Context) {
	var draft requestDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный запрос"})
		return
	}

	user := currentUser(c)
	s.mu.Lock()
	req, ok := s.requests[paramID(c)]
	if ok && (req.Creator == nil || req.Creator.ID != user.ID) {
		s.mu.Unlock()
		c.JSON(http.StatusForbidden, gin.H{"error": "Можно редактировать только свои заявки"})
		return
	}
	if ok {
		if draft.Title != "" {
			req.Title = draft.Title
		}
		if draft.Description != "" {
			req.Description = draft.Description
		}
		if draft.Date != "" {
			req.Date = draft.Date
		}
		if draft.Time != "" {
			req.Time = draft.Time
		}
		if draft.LocationName != "" {
			req.LocationName = draft.LocationName
		}
		if draft.MaxParticipants != 0 {
			req.MaxParticipants = draft.MaxParticipants
		}
		req.UpdatedAt = time.Now()
	}
	var view models.ActivityRequest
	if ok {
		view = s.viewRequestLocked(req, user)
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleRequestDelete(c *gin.Context) {
	user := currentUser(c)
	s.mu.Lock()
	req, ok := s.requests[paramID(c)]
	if ok && req.Creator != nil && req.Creator.ID == user.ID {
		delete(s.requests, req.ID)
		delete(s.participations, req.ID)
	} else if ok {
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Заявка удалена"})
}

func (s *Server) handleParticipate(c *gin.Context) {
	user := currentUser(c)
	s.mu.Lock()
	req, ok := s.requests[paramID(c)]
	if !ok {
		s.mu.Unlock()
		c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
		return
	}
	for _, p := range s.participations[req.ID] {
		if p.User.ID == user.ID {
			s.mu.Unlock()
			c.JSON(http.StatusBadRequest, gin.H{"error": "Вы уже откликнулись"})
			return
		}
	}
	part := &models.Participation{
		ID:        s.allocID(),
		User:      *userRef(user),
		RequestID: req.ID,
		Status:    "pending",
		CreatedAt: time.Now(),
	}
	s.participations[req.ID] = append(s.participations[req.ID], part)
	if req.Creator != nil {
		s.pushNotificationLocked(req.Creator.ID, &models.Notification{
			NotificationType: models.NotifyNewResponse,
			Title:            "Новый отклик",
			Message:          user.Username + " откликнулся на «" + req.Title + "»",
			RelatedRequestID: req.ID,
			RelatedUser:      userRef(user),
		})
	}
	s.mu.Unlock()

	c.JSON(http.StatusCreated, part)
}

func (s *Server) handleRequestParticipations(c *gin.Context) {
	s.mu.Lock()
	parts := s.participations[paramID(c)]
	out := make([]models.Participation, 0, len(parts))
	for _, p := range parts {
		out = append(out, *p)
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleExcludeParticipant(c *gin.Context) {
	pid, _ := strconv.ParseInt(c.Param("pid"), 10, 64)
	user := currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[paramID(c)]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
		return
	}
	if req.Creator == nil || req.Creator.ID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Исключать участников может только автор"})
		return
	}
	parts := s.participations[req.ID]
	for i, p := range parts {
		if p.ID == pid {
			s.participations[req.ID] = append(parts[:i], parts[i+1:]...)
			s.pushNotificationLocked(p.User.ID, &models.Notification{
				NotificationType: models.NotifyRejected,
				Title:            "Участие отклонено",
				Message:          "Вы исключены из «" + req.Title + "»",
				RelatedRequestID: req.ID,
			})
			c.JSON(http.StatusOK, gin.H{"message": "Участник исключён"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Отклик не найден"})
}

func (s *Server) handleToggleFavorite(c *gin.Context) {
	user := currentUser(c)
	id := paramID(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
		return
	}
	set := s.favorites[user.ID]
	if set == nil {
		set = make(map[int64]bool)
		s.favorites[user.ID] = set
	}
	if set[id] {
		delete(set, id)
	} else {
		set[id] = true
	}
	c.JSON(http.StatusOK, gin.H{"is_favorite": set[id]})
}

// --- catalog ---

func (s *Server) handleCategories(c *gin.Context) {
	s.mu.Lock()
	out := make([]models.Category, 0, len(s.categories))
	for _, cat := range s.categories {
		out = append(out, *cat)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCategoryCreate(c *gin.Context) {
	var draft struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
		Icon string `json:"icon"`
	}
	if err := c.ShouldBindJSON(&draft); err != nil || draft.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Название обязательно"})
		return
	}
	s.mu.Lock()
	cat := &models.Category{ID: s.allocID(), Name: draft.Name, Slug: draft.Slug, Icon: draft.Icon, CreatedAt: time.Now()}
	s.categories[cat.ID] = cat
	s.mu.Unlock()
	c.JSON(http.StatusCreated, cat)
}

func (s *Server) handleCategoryEdit(c *gin.Context) {
	var draft struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
		Icon string `json:"icon"`
	}
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный запрос"})
		return
	}
	s.mu.Lock()
	cat, ok := s.categories[paramID(c)]
	if ok {
		if draft.Name != "" {
			cat.Name = draft.Name
		}
		if draft.Slug != "" {
			cat.Slug = draft.Slug
		}
		if draft.Icon != "" {
			cat.Icon = draft.Icon
		}
	}
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Категория не найдена"})
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (s *Server) handleCategoryDelete(c *gin.Context) {
	s.mu.Lock()
	_, ok := s.categories[paramID(c)]
	delete(s.categories, paramID(c))
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Категория не найдена"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Категория удалена"})
}

func (s *Server) handleActivities(c *gin.Context) {
	s.mu.Lock()
	out := make([]models.Activity, 0, len(s.activities))
	for _, a := range s.activities {
		out = append(out, *a)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleActivityCreate(c *gin.Context) {
	var draft struct {
		Name        string `json:"name"`
		Slug        string `json:"slug"`
		CategoryID  int64  `json:"category_id"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&draft); err != nil || draft.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Название обязательно"})
		return
	}
	s.mu.Lock()
	activity := &models.Activity{
		ID:          s.allocID(),
		Name:        draft.Name,
		Slug:        draft.Slug,
		Category:    s.categories[draft.CategoryID],
		Description: draft.Description,
		IsActive:    true,
	}
	s.activities[activity.ID] = activity
	s.mu.Unlock()
	c.JSON(http.StatusCreated, activity)
}

func (s *Server) handleActivityDelete(c *gin.Context) {
	s.mu.Lock()
	_, ok := s.activities[paramID(c)]
	delete(s.activities, paramID(c))
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Активность не найдена"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Активность удалена"})
}

func (s *Server) handleStatistics(c *gin.Context) {
	s.mu.Lock()
	stats := models.ModerationStats{
		TotalUsers:    len(s.users),
		TotalRequests: len(s.requests),
	}
	for _, req := range s.requests {
		if req.Status == models.StatusActive {
			stats.ActiveRequests++
		}
	}
	for _, comp := range s.complaints {
		if comp.Status == "pending" {
			stats.PendingComplaints++
		}
	}
	for _, ban := range s.bans {
		if ban.IsActive {
			stats.ActiveBans++
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, stats)
}

// --- reviews ---

func (s *Server) handleReviewCreate(c *gin.Context) {
	var draft struct {
		UserID  int64  `json:"user_id"`
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&draft); err != nil || draft.Rating < 1 || draft.Rating > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Оценка должна быть от 1 до 5"})
		return
	}

	user := currentUser(c)
	s.mu.Lock()
	if _, ok := s.users[draft.UserID]; !ok {
		s.mu.Unlock()
		c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
		return
	}
	review := models.Review{
		ID:        s.allocID(),
		Reviewer:  *userRef(user),
		Rating:    draft.Rating,
		Comment:   draft.Comment,
		RequestID: paramID(c),
		CreatedAt: time.Now(),
	}
	s.reviews[draft.UserID] = append(s.reviews[draft.UserID], review)
	s.pushNotificationLocked(draft.UserID, &models.Notification{
		NotificationType: models.NotifyNewReview,
		Title:            "Новый отзыв",
		Message:          user.Username + " оставил вам отзыв",
		RelatedUser:      userRef(user),
	})
	s.mu.Unlock()

	c.JSON(http.StatusCreated, review)
}

func (s *Server) handleUserReviews(c *gin.Context) {
	s.mu.Lock()
	reviews := s.reviews[paramID(c)]
	out := make([]models.Review, len(reviews))
	copy(out, reviews)
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

// viewRequestLocked returns a copy with the per-viewer flags filled in.
// Caller holds s.mu.
func (s *Server) viewRequestLocked(req *models.ActivityRequest, viewer *models.User) models.ActivityRequest {
	view := *req
	view.ParticipationsCount = len(s.participations[req.ID])
	view.CurrentParticipants = view.ParticipationsCount
	view.IsFavorite = s.favorites[viewer.ID][req.ID]
	for _, p := range s.participations[req.ID] {
		if p.User.ID == viewer.ID {
			view.IsParticipating = true
			break
		}
	}
	return view
}

func sortRequests(list []models.ActivityRequest) {
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
}

// distanceKM is the haversine great-circle distance between two points.
func distanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKM = 6371.0
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(a))
}
