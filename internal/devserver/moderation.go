package devserver

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akobyansamvel/curs/internal/models"
)

// --- notifications ---

// pushNotificationLocked assigns the identifier and prepends the entry to the
// user's feed. Caller holds s.mu.
func (s *Server) pushNotificationLocked(userID int64, n *models.Notification) {
	n.ID = s.allocID()
	n.CreatedAt = time.Now()
	s.notifications[userID] = append(s.notifications[userID], n)
}

func (s *Server) handleNotificationList(c *gin.Context) {
	user := currentUser(c)
	var filter *bool
	if raw := c.Query("is_read"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err == nil {
			filter = &v
		}
	}

	s.mu.Lock()
	out := make([]models.Notification, 0, len(s.notifications[user.ID]))
	for _, n := range s.notifications[user.ID] {
		if filter != nil && n.IsRead != *filter {
			continue
		}
		out = append(out, *n)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleNotificationRead(c *gin.Context) {
	user := currentUser(c)
	id := paramID(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications[user.ID] {
		if n.ID == id {
			n.IsRead = true
			c.JSON(http.StatusOK, gin.H{"message": "Уведомление прочитано"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Уведомление не найдено"})
}

func (s *Server) handleNotificationReadAll(c *gin.Context) {
	user := currentUser(c)
	s.mu.Lock()
	for _, n := range s.notifications[user.ID] {
		n.IsRead = true
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "Все уведомления прочитаны"})
}

func (s *Server) handleUnreadCount(c *gin.Context) {
	user := currentUser(c)
	s.mu.Lock()
	count := 0
	for _, n := range s.notifications[user.ID] {
		if !n.IsRead {
			count++
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// --- moderation ---

func (s *Server) handleComplaintList(c *gin.Context) {
	user := currentUser(c)
	s.mu.Lock()
	out := make([]models.Complaint, 0)
	for _, comp := range s.complaints {
		if user.IsModerator || (comp.Complainant != nil && comp.Complainant.ID == user.ID) {
			out = append(out, *comp)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleComplaintCreate(c *gin.Context) {
	var draft struct {
		ReportedUser    int64  `json:"reported_user"`
		ReportedRequest int64  `json:"reported_request"`
		ComplaintType   string `json:"complaint_type"`
		Description     string `json:"description"`
	}
	if err := c.ShouldBindJSON(&draft); err != nil || draft.ComplaintType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Тип жалобы обязателен"})
		return
	}
	if (draft.ReportedUser == 0) == (draft.ReportedRequest == 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Укажите пользователя или заявку"})
		return
	}

	user := currentUser(c)
	s.mu.Lock()
	comp := &models.Complaint{
		ID:            s.allocID(),
		Complainant:   userRef(user),
		ComplaintType: draft.ComplaintType,
		Description:   draft.Description,
		Status:        "pending",
		CreatedAt:     time.Now(),
	}
	if draft.ReportedUser != 0 {
		reported, ok := s.users[draft.ReportedUser]
		if !ok {
			s.mu.Unlock()
			c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
			return
		}
		comp.ReportedUser = userRef(reported)
	}
	if draft.ReportedRequest != 0 {
		req, ok := s.requests[draft.ReportedRequest]
		if !ok {
			s.mu.Unlock()
			c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
			return
		}
		comp.ReportedRequest = req
	}
	s.complaints[comp.ID] = comp
	s.mu.Unlock()

	c.JSON(http.StatusCreated, comp)
}

func (s *Server) handleComplaintResolve(c *gin.Context) {
	var body struct {
		Status  string `json:"status"`
		Comment string `json:"moderator_comment"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || (body.Status != "resolved" && body.Status != "rejected") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Статус должен быть resolved или rejected"})
		return
	}

	user := currentUser(c)
	s.mu.Lock()
	comp, ok := s.complaints[paramID(c)]
	if ok {
		comp.Status = body.Status
		comp.Moderator = userRef(user)
		comp.ModeratorComment = body.Comment
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Жалоба не найдена"})
		return
	}
	c.JSON(http.StatusOK, comp)
}

func (s *Server) handleBanList(c *gin.Context) {
	s.mu.Lock()
	out := make([]models.Ban, 0, len(s.bans))
	for _, b := range s.bans {
		out = append(out, *b)
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleBanCreate(c *gin.Context) {
	var draft struct {
		UserID  int64  `json:"user_id"`
		BanType string `json:"ban_type"`
		Reason  string `json:"reason"`
		Days    int    `json:"days"`
	}
	if err := c.ShouldBindJSON(&draft); err != nil || draft.UserID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id обязателен"})
		return
	}

	moderator := currentUser(c)
	s.mu.Lock()
	target, ok := s.users[draft.UserID]
	if !ok {
		s.mu.Unlock()
		c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
		return
	}
	ban := &models.Ban{
		ID:        s.allocID(),
		User:      *userRef(target),
		BanType:   draft.BanType,
		Reason:    draft.Reason,
		Moderator: userRef(moderator),
		StartsAt:  time.Now(),
		IsActive:  true,
	}
	if draft.BanType == "temporary" && draft.Days > 0 {
		ends := ban.StartsAt.AddDate(0, 0, draft.Days)
		ban.EndsAt = &ends
	}
	s.bans = append(s.bans, ban)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, ban)
}

func (s *Server) handleModerateRequest(c *gin.Context) {
	var body struct {
		Action string `json:"action"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный запрос"})
		return
	}

	s.mu.Lock()
	req, ok := s.requests[paramID(c)]
	if ok {
		switch body.Action {
		case "approve":
			req.Status = models.StatusActive
		case "reject":
			req.Status = models.StatusCancelled
		case "delete":
			delete(s.requests, req.ID)
		}
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Действие применено"})
}

func (s *Server) handleModerateUser(c *gin.Context) {
	var body struct {
		Action string `json:"action"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный запрос"})
		return
	}

	s.mu.Lock()
	user, ok := s.users[paramID(c)]
	if ok {
		switch body.Action {
		case "make_moderator":
			user.IsModerator = true
		case "revoke_moderator":
			user.IsModerator = false
		}
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Действие применено"})
}
