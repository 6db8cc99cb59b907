// Package devserver is an in-memory stand-in for the production backend. It
// serves the same REST routes and the same websocket chat endpoint, backed by
// plain maps, so the SDK and CLI can be developed and tested without a
// running backend.
package devserver

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/akobyansamvel/curs/internal/models"
)

// Server holds the whole in-memory world.
type Server struct {
	log      zerolog.Logger
	secret   []byte
	engine   *gin.Engine
	upgrader websocket.Upgrader

	mu             sync.Mutex
	nextID         int64
	users          map[int64]*models.User
	passwords      map[string]string
	profiles       map[int64]*models.Profile
	categories     map[int64]*models.Category
	activities     map[int64]*models.Activity
	requests       map[int64]*models.ActivityRequest
	favorites      map[int64]map[int64]bool
	participations map[int64][]*models.Participation
	rooms          map[int64]*models.ChatRoom
	messages       map[int64][]models.ChatMessage
	notifications  map[int64][]*models.Notification
	complaints     map[int64]*models.Complaint
	bans           []*models.Ban
	reviews        map[int64][]models.Review
	interests      map[int64][]*models.Interest
	telegramCodes  map[string]int64
	subs           map[int64]map[*roomSub]bool
}

// New returns a server signing tokens with secret.
func New(secret string, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		log:      log.With().Str("component", "devserver").Logger(),
		secret:   []byte(secret),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Локальный сервер, источник не проверяется.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		users:          make(map[int64]*models.User),
		passwords:      make(map[string]string),
		profiles:       make(map[int64]*models.Profile),
		categories:     make(map[int64]*models.Category),
		activities:     make(map[int64]*models.Activity),
		requests:       make(map[int64]*models.ActivityRequest),
		favorites:      make(map[int64]map[int64]bool),
		participations: make(map[int64][]*models.Participation),
		rooms:          make(map[int64]*models.ChatRoom),
		messages:       make(map[int64][]models.ChatMessage),
		notifications:  make(map[int64][]*models.Notification),
		complaints:     make(map[int64]*models.Complaint),
		reviews:        make(map[int64][]models.Review),
		interests:      make(map[int64][]*models.Interest),
		telegramCodes:  make(map[string]int64),
		subs:           make(map[int64]map[*roomSub]bool),
	}
	s.engine = s.buildRouter()
	return s
}

// Handler exposes the HTTP handler for httptest and cmd/devserver.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) buildRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/login/", s.handleLogin)
		auth.POST("/register/", s.handleRegister)
		auth.POST("/logout/", s.authorized(), s.handleLogout)
		auth.POST("/telegram/", s.handleTelegramAuth)

		profile := api.Group("/profile", s.authorized())
		profile.GET("/", s.handleMyProfile)
		profile.GET("/:id/", s.handleUserProfile)
		profile.PATCH("/edit/", s.handleProfileEdit)
		profile.POST("/connect-telegram/", s.handleConnectTelegram)
		profile.GET("/interests/", s.handleInterests)
		profile.POST("/interests/add/", s.handleInterestAdd)
		profile.DELETE("/interests/:id/delete/", s.handleInterestDelete)

		req := api.Group("/requests", s.authorized())
		req.GET("/", s.handleRequestList)
		req.GET("/search/", s.handleRequestSearch)
		req.POST("/create/", s.handleRequestCreate)
		req.GET("/my/", s.handleMyRequests)
		req.GET("/my/participations/", s.handleMyParticipations)
		req.GET("/favorites/", s.handleFavorites)
		req.GET("/categories/", s.handleCategories)
		req.POST("/categories/create/", s.moderator(), s.handleCategoryCreate)
		req.PATCH("/categories/:id/edit/", s.moderator(), s.handleCategoryEdit)
		req.DELETE("/categories/:id/delete/", s.moderator(), s.handleCategoryDelete)
		req.GET("/activities/", s.handleActivities)
		req.POST("/activities/create/", s.moderator(), s.handleActivityCreate)
		req.DELETE("/activities/:id/delete/", s.moderator(), s.handleActivityDelete)
		req.GET("/statistics/", s.moderator(), s.handleStatistics)
		req.GET("/:id/", s.handleRequestDetail)
		req.PATCH("/:id/edit/", s.handleRequestEdit)
		req.DELETE("/:id/delete/", s.handleRequestDelete)
		req.POST("/:id/participate/", s.handleParticipate)
		req.GET("/:id/participations/", s.handleRequestParticipations)
		req.POST("/:id/participations/:pid/exclude/", s.handleExcludeParticipant)
		req.POST("/:id/favorite/", s.handleToggleFavorite)
		req.POST("/:id/reviews/", s.handleReviewCreate)
		req.GET("/reviews/user/:id/", s.handleUserReviews)

		chat := api.Group("/chat", s.authorized())
		chat.GET("/rooms/", s.handleRoomList)
		chat.GET("/rooms/:id/", s.handleRoomDetail)
		chat.GET("/rooms/:id/messages/", s.handleRoomMessages)
		chat.POST("/rooms/:id/send/", s.handleSendMessage)
		chat.POST("/create/:id/", s.handleCreateDirectRoom)
		chat.POST("/create-request/:id/", s.handleCreateRequestRoom)

		notif := api.Group("/notifications", s.authorized())
		notif.GET("/", s.handleNotificationList)
		notif.POST("/:id/read/", s.handleNotificationRead)
		notif.POST("/read-all/", s.handleNotificationReadAll)
		notif.GET("/unread-count/", s.handleUnreadCount)

		mod := api.Group("/moderation", s.authorized())
		mod.GET("/complaints/", s.handleComplaintList)
		mod.POST("/complaints/create/", s.handleComplaintCreate)
		mod.POST("/complaints/:id/resolve/", s.moderator(), s.handleComplaintResolve)
		mod.GET("/bans/", s.moderator(), s.handleBanList)
		mod.POST("/bans/create/", s.moderator(), s.handleBanCreate)
		mod.POST("/requests/:id/moderate/", s.moderator(), s.handleModerateRequest)
		mod.POST("/users/:id/moderate/", s.moderator(), s.handleModerateUser)
	}

	// WebSocket живёт вне /api, как в оригинальном routing.
	r.GET("/ws/chat/:id/", s.handleChatSocket)

	return r
}

// --- auth ---

func (s *Server) issueToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":     user.Username,
		"user_id": user.ID,
		"exp":     time.Now().Add(72 * time.Hour).Unix(),
		"iss":     "curs-devserver",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Server) userFromToken(tokenString string) *models.User {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	id, ok := claims["user_id"].(float64)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[int64(id)]
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// Запасной вариант для websocket-клиентов без заголовков.
	return c.Query("token")
}

func (s *Server) authorized() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := s.userFromToken(bearerToken(c))
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Недействительный токен"})
			return
		}
		c.Set("user", user)
	}
}

func (s *Server) moderator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsModerator {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Требуются права модератора"})
		}
	}
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet("user").(*models.User)
}

func (s *Server) handleLogin(c *gin.Context) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный запрос"})
		return
	}

	s.mu.Lock()
	var user *models.User
	if s.passwords[creds.Username] == creds.Password && creds.Password != "" {
		for _, u := range s.users {
			if u.Username == creds.Username {
				user = u
				break
			}
		}
	}
	s.mu.Unlock()

	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверное имя пользователя или пароль"})
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось выдать токен"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user, "profile": s.profileOf(user.ID)})
}

func (s *Server) handleRegister(c *gin.Context) {
	var form struct {
		Username  string `json:"username"`
		Password  string `json:"password"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
	}
	if err := c.ShouldBindJSON(&form); err != nil || form.Username == "" || form.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Имя пользователя и пароль обязательны"})
		return
	}

	s.mu.Lock()
	if _, exists := s.passwords[form.Username]; exists {
		s.mu.Unlock()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Имя пользователя занято"})
		return
	}
	user := &models.User{
		ID:        s.allocID(),
		Username:  form.Username,
		Email:     form.Email,
		FirstName: form.FirstName,
		CreatedAt: time.Now(),
	}
	s.users[user.ID] = user
	s.passwords[form.Username] = form.Password
	s.profiles[user.ID] = &models.Profile{}
	s.mu.Unlock()

	token, err := s.issueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось выдать токен"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user, "profile": s.profileOf(user.ID)})
}

// handleTelegramAuth exchanges a one-time bot code for a token. The dev
// server has no bot, so any code registered via SeedTelegramCode works.
func (s *Server) handleTelegramAuth(c *gin.Context) {
	var form struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&form); err != nil || form.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Код обязателен"})
		return
	}

	s.mu.Lock()
	userID, ok := s.telegramCodes[form.Code]
	if ok {
		delete(s.telegramCodes, form.Code)
	}
	user := s.users[userID]
	s.mu.Unlock()

	if !ok || user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Недействительный код"})
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось выдать токен"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user, "profile": s.profileOf(user.ID)})
}

func (s *Server) handleConnectTelegram(c *gin.Context) {
	var body struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Код обязателен"})
		return
	}
	user := currentUser(c)
	s.mu.Lock()
	user.TelegramVerified = true
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "Telegram привязан"})
}

func (s *Server) handleLogout(c *gin.Context) {
	// Токены не хранятся на сервере; для разработки достаточно ответа.
	c.JSON(http.StatusOK, gin.H{"message": "Вы вышли из системы"})
}

// --- profile ---

func (s *Server) profileOf(userID int64) *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[userID]; ok {
		return p
	}
	p := &models.Profile{}
	s.profiles[userID] = p
	return p
}

func (s *Server) handleMyProfile(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, gin.H{"user": user, "profile": s.profileOf(user.ID)})
}

func (s *Server) handleUserProfile(c *gin.Context) {
	id := paramID(c)
	s.mu.Lock()
	user, ok := s.users[id]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "profile": s.profileOf(id)})
}

func (s *Server) handleProfileEdit(c *gin.Context) {
	var edit struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		City      *string `json:"city"`
		Bio       *string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&edit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный запрос"})
		return
	}

	user := currentUser(c)
	s.mu.Lock()
	profile := s.profiles[user.ID]
	if edit.FirstName != nil {
		user.FirstName = *edit.FirstName
	}
	if edit.LastName != nil {
		user.LastName = *edit.LastName
	}
	if edit.City != nil {
		profile.City = *edit.City
	}
	if edit.Bio != nil {
		profile.Bio = *edit.Bio
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"user": user, "profile": profile})
}

func (s *Server) handleInterests(c *gin.Context) {
	user := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Interest, 0, len(s.interests[user.ID]))
	out = append(out, s.interests[user.ID]...)
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleInterestAdd(c *gin.Context) {
	var body struct {
		ActivityID int64  `json:"activity_id"`
		Level      string `json:"level"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный запрос"})
		return
	}
	user := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	activity, ok := s.activities[body.ActivityID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Активность не найдена"})
		return
	}
	interest := &models.Interest{ID: s.allocID(), Activity: *activity, Level: body.Level}
	s.interests[user.ID] = append(s.interests[user.ID], interest)
	c.JSON(http.StatusCreated, interest)
}

func (s *Server) handleInterestDelete(c *gin.Context) {
	id := paramID(c)
	user := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.interests[user.ID]
	for i, interest := range list {
		if interest.ID == id {
			s.interests[user.ID] = append(list[:i], list[i+1:]...)
			c.JSON(http.StatusOK, gin.H{"message": "Интерес удалён"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Интерес не найден"})
}

// --- helpers ---

// allocID hands out identifiers. Callers hold s.mu (or own the server
// exclusively during seeding).
func (s *Server) allocID() int64 {
	s.nextID++
	return s.nextID
}

func paramID(c *gin.Context) int64 {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	return id
}

func userRef(u *models.User) *models.UserRef {
	if u == nil {
		return nil
	}
	return &models.UserRef{ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName}
}
