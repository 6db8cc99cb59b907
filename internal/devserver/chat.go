package devserver

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/akobyansamvel/curs/internal/config"
	"github.com/akobyansamvel/curs/internal/models"
)

func (s *Server) handleRoomList(c *gin.Context) {
	user := currentUser(c)
	s.mu.Lock()
	out := make([]models.ChatRoom, 0)
	for _, room := range s.rooms {
		if !s.memberLocked(room, user.ID) {
			continue
		}
		out = append(out, s.viewRoomLocked(room, user.ID))
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleRoomDetail(c *gin.Context) {
	user := currentUser(c)
	s.mu.Lock()
	room, ok := s.rooms[paramID(c)]
	if ok && !s.memberLocked(room, user.ID) {
		ok = false
	}
	var view models.ChatRoom
	if ok {
		view = s.viewRoomLocked(room, user.ID)
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Комната не найдена"})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleRoomMessages(c *gin.Context) {
	user := currentUser(c)
	s.mu.Lock()
	room, ok := s.rooms[paramID(c)]
	if ok && !s.memberLocked(room, user.ID) {
		ok = false
	}
	var out []models.ChatMessage
	if ok {
		msgs := s.messages[room.ID]
		out = make([]models.ChatMessage, len(msgs))
		copy(out, msgs)
		// Чтение истории помечает входящие как прочитанные.
		for i := range s.messages[room.ID] {
			m := &s.messages[room.ID][i]
			if m.Sender == nil || m.Sender.ID != user.ID {
				m.IsRead = true
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Комната не найдена"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleSendMessage(c *gin.Context) {
	var body struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Сообщение не может быть пустым"})
		return
	}

	user := currentUser(c)
	s.mu.Lock()
	room, ok := s.rooms[paramID(c)]
	if ok && !s.memberLocked(room, user.ID) {
		ok = false
	}
	if !ok {
		s.mu.Unlock()
		c.JSON(http.StatusNotFound, gin.H{"error": "Комната не найдена"})
		return
	}
	msg := s.appendMessageLocked(room, user, body.Content)
	s.mu.Unlock()

	s.broadcast(room.ID, msg, nil)
	c.JSON(http.StatusCreated, msg)
}

func (s *Server) handleCreateDirectRoom(c *gin.Context) {
	user := currentUser(c)
	otherID := paramID(c)

	s.mu.Lock()
	other, ok := s.users[otherID]
	if !ok {
		s.mu.Unlock()
		c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
		return
	}
	for _, room := range s.rooms {
		if room.Request == nil && s.memberLocked(room, user.ID) && s.memberLocked(room, otherID) {
			view := s.viewRoomLocked(room, user.ID)
			s.mu.Unlock()
			c.JSON(http.StatusOK, view)
			return
		}
	}
	room := &models.ChatRoom{
		ID:           s.allocID(),
		Participants: []models.UserRef{*userRef(user), *userRef(other)},
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	s.rooms[room.ID] = room
	view := s.viewRoomLocked(room, user.ID)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, view)
}

func (s *Server) handleCreateRequestRoom(c *gin.Context) {
	user := currentUser(c)
	reqID := paramID(c)

	s.mu.Lock()
	req, ok := s.requests[reqID]
	if !ok {
		s.mu.Unlock()
		c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
		return
	}
	for _, room := range s.rooms {
		if room.Request != nil && room.Request.ID == reqID {
			if !s.memberLocked(room, user.ID) {
				room.Participants = append(room.Participants, *userRef(user))
			}
			view := s.viewRoomLocked(room, user.ID)
			s.mu.Unlock()
			c.JSON(http.StatusOK, view)
			return
		}
	}
	room := &models.ChatRoom{
		ID:           s.allocID(),
		Participants: []models.UserRef{*userRef(user)},
		Request:      req,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if req.Creator != nil && req.Creator.ID != user.ID {
		if creator, ok := s.users[req.Creator.ID]; ok {
			room.Participants = append(room.Participants, *userRef(creator))
		}
	}
	s.rooms[room.ID] = room
	view := s.viewRoomLocked(room, user.ID)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, view)
}

func (s *Server) memberLocked(room *models.ChatRoom, userID int64) bool {
	for i := range room.Participants {
		if room.Participants[i].ID == userID {
			return true
		}
	}
	return false
}

func (s *Server) viewRoomLocked(room *models.ChatRoom, viewerID int64) models.ChatRoom {
	view := *room
	msgs := s.messages[room.ID]
	if len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		view.LastMessage = &last
	}
	for i := range msgs {
		if !msgs[i].IsRead && (msgs[i].Sender == nil || msgs[i].Sender.ID != viewerID) {
			view.UnreadCount++
		}
	}
	for i := range room.Participants {
		if room.Participants[i].ID != viewerID {
			view.OtherParticipant = &room.Participants[i]
			break
		}
	}
	return view
}

func (s *Server) appendMessageLocked(room *models.ChatRoom, sender *models.User, content string) models.ChatMessage {
	id := s.allocID()
	msg := models.ChatMessage{
		ID:        &id,
		RoomID:    room.ID,
		Sender:    userRef(sender),
		Content:   content,
		CreatedAt: time.Now(),
	}
	s.messages[room.ID] = append(s.messages[room.ID], msg)
	room.UpdatedAt = msg.CreatedAt
	for i := range room.Participants {
		if room.Participants[i].ID != sender.ID {
			s.pushNotificationLocked(room.Participants[i].ID, &models.Notification{
				NotificationType: models.NotifyNewMessage,
				Title:            "Новое сообщение",
				Message:          sender.Username + ": " + content,
				RelatedUser:      userRef(sender),
			})
		}
	}
	return msg
}

// --- websocket ---

type roomSub struct {
	userID int64
	send   chan []byte
}

// broadcast delivers a confirmed message to every room subscriber in the
// consumer's framing. exclude skips the originating socket so clients that
// already applied the frame locally do not get it twice.
func (s *Server) broadcast(roomID int64, msg models.ChatMessage, exclude *roomSub) {
	frame, err := json.Marshal(gin.H{"type": "message", "message": msg})
	if err != nil {
		return
	}
	s.mu.Lock()
	for sub := range s.subs[roomID] {
		if sub == exclude {
			continue
		}
		select {
		case sub.send <- frame:
		default:
			// Медленный подписчик, кадр пропускается.
		}
	}
	s.mu.Unlock()
}

func (s *Server) broadcastTyping(roomID int64, username string, exclude *roomSub) {
	frame, _ := json.Marshal(gin.H{"type": "typing", "user": username})
	s.mu.Lock()
	for sub := range s.subs[roomID] {
		if sub != exclude {
			select {
			case sub.send <- frame:
			default:
			}
		}
	}
	s.mu.Unlock()
}

func (s *Server) handleChatSocket(c *gin.Context) {
	user := s.userFromToken(bearerToken(c))
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Недействительный токен"})
		return
	}
	roomID := paramID(c)
	s.mu.Lock()
	room, ok := s.rooms[roomID]
	if ok && !s.memberLocked(room, user.ID) {
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Комната не найдена"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	sub := &roomSub{userID: user.ID, send: make(chan []byte, 32)}
	s.mu.Lock()
	if s.subs[roomID] == nil {
		s.subs[roomID] = make(map[*roomSub]bool)
	}
	s.subs[roomID][sub] = true
	s.mu.Unlock()

	go s.writeSocket(conn, sub)
	s.readSocket(conn, sub, room, user)
}

func (s *Server) readSocket(conn *websocket.Conn, sub *roomSub, room *models.ChatRoom, user *models.User) {
	defer func() {
		s.mu.Lock()
		delete(s.subs[room.ID], sub)
		s.mu.Unlock()
		close(sub.send)
		conn.Close()
	}()

	conn.SetReadLimit(config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(config.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}
		switch frame.Type {
		case "message":
			if frame.Content == "" {
				continue
			}
			s.mu.Lock()
			msg := s.appendMessageLocked(room, user, frame.Content)
			s.mu.Unlock()
			// Отправитель тоже получает подтверждённый кадр.
			s.broadcast(room.ID, msg, nil)
		case "typing":
			s.broadcastTyping(room.ID, user.Username, sub)
		}
	}
}

func (s *Server) writeSocket(conn *websocket.Conn, sub *roomSub) {
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame, ok := <-sub.send:
			conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
