// Package sandbox is an in-memory SkillHub backend. It serves the same REST
// surface the client consumes and backs the end-to-end tests and the
// skillhub-sandbox binary.
package sandbox

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"skillhub/internal/apperrors"
	"skillhub/internal/models"
)

const (
	RequestIDHeader = "X-Request-ID"
	userContextKey  = "user"
)

type Server struct {
	cfg     Config
	store   *Store
	tokens  tokenIssuer
	limiter *limiter
	log     zerolog.Logger
	now     func() time.Time
}

func NewServer(cfg Config, store *Store, log zerolog.Logger) *Server {
	now := store.now
	return &Server{
		cfg:     cfg,
		store:   store,
		tokens:  tokenIssuer{secret: []byte(cfg.JWTSecret), ttl: cfg.TokenTTL, now: now},
		limiter: newLimiter(),
		log:     log,
		now:     now,
	}
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": s.now().UTC().Format(time.RFC3339)})
	})
	r.POST("/auth/login", s.login)
	r.GET("/courses", s.listCourses)
	r.GET("/course/:id", s.getCourse)

	api := r.Group("/", s.requireAuth(), s.writeLimit())
	{
		api.GET("/communities", s.listCommunities)
		api.GET("/communities/:id", s.getCommunity)
		api.GET("/communities/:id/posts", s.listPosts)
		api.PATCH("/communities/:id/join", s.joinCommunity)
		api.PATCH("/communities/:id/leave", s.leaveCommunity)
		api.PATCH("/communities/:id/promote", s.promoteMember)
		api.PATCH("/communities/:id/pin", s.pinPost(true))
		api.PATCH("/communities/:id/unpin", s.pinPost(false))
		api.PUT("/communities/:id", s.updateCommunity)

		api.POST("/posts", s.createPost)
		api.POST("/posts/:id/like", s.likePost)
		api.POST("/posts/:id/comment", s.commentOnPost)
		api.POST("/posts/:id/comment/:commentId/reply", s.replyToComment)

		api.POST("/report", s.submitReport)
		api.GET("/notifications/:id", s.listNotifications)
		api.PATCH("/notifications/:id/read", s.markNotificationRead)

		api.POST("/course/:id/enroll", s.enrollCourse)
		api.GET("/lessons/:courseId", s.listLessons)
		api.GET("/questions/:courseId", s.listQuestions)

		api.GET("/users", s.listUsers)
		api.GET("/user/:id", s.getUser)
		api.PATCH("/user/:id", s.updateUser)

		api.GET("/messages/:id", s.listMessages)
		api.POST("/messages", s.sendMessage)
	}

	admin := r.Group("/", s.requireAuth(), s.adminOnly(), s.writeLimit())
	{
		admin.POST("/course", s.createCourse)
		admin.PATCH("/course/:id", s.updateCourse)
		admin.DELETE("/course/:id", s.deleteCourse)
		admin.DELETE("/user/:id", s.deleteUser)

		admin.GET("/reports", s.listReports)
		admin.GET("/reports/:id", s.getReport)
		admin.PATCH("/reports/:id", s.updateReport)
		admin.DELETE("/report/:id", s.deleteReport)
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Next()

		ev := s.log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = s.log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(started)).
			Str("request_id", requestID).
			Msg("request")
	}
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := BearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			abortError(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := s.tokens.Parse(raw)
		if err != nil {
			abortError(c, http.StatusUnauthorized, "invalid token")
			return
		}
		// role comes from the store so demotions apply to live tokens
		user, err := s.store.User(claims.UserID)
		if err != nil {
			abortError(c, http.StatusUnauthorized, "unknown user")
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

func (s *Server) adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c).Role != models.RoleAdmin {
			abortError(c, http.StatusForbidden, "admin role required")
			return
		}
		c.Next()
	}
}

func (s *Server) writeLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			c.Next()
			return
		}
		now := s.now()
		res := s.limiter.Allow(currentUser(c).ID+":writes", s.cfg.WritesPerMinute, time.Minute, now)
		if res.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
		}
		if !res.Allowed {
			retryAfter := int(res.ResetAt.Sub(now).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			abortError(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) models.User {
	v, _ := c.Get(userContextKey)
	u, _ := v.(models.User)
	return u
}

func abortError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// fail maps a store error onto an HTTP status.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperrors.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrConflict):
		status = http.StatusConflict
	}
	abortError(c, status, err.Error())
}
