package sandbox

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"skillhub/internal/models"
	"skillhub/internal/validation"
)

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortError(c, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := validation.Struct(dst); err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// actingAs resolves the user id a request claims to act for. Only admins
// may act for someone else; an empty claim means the caller.
func actingAs(c *gin.Context, claimed string) (string, bool) {
	me := currentUser(c)
	claimed = strings.TrimSpace(claimed)
	if claimed == "" || claimed == me.ID {
		return me.ID, true
	}
	if me.Role == models.RoleAdmin {
		return claimed, true
	}
	abortError(c, http.StatusForbidden, "cannot act for another user")
	return "", false
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	user, err := s.store.Authenticate(req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Courses

func (s *Server) listCourses(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Courses())
}

func (s *Server) getCourse(c *gin.Context) {
	course, err := s.store.Course(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (s *Server) createCourse(c *gin.Context) {
	var f models.CourseFields
	if !bind(c, &f) {
		return
	}
	c.JSON(http.StatusCreated, s.store.CreateCourse(f))
}

func (s *Server) updateCourse(c *gin.Context) {
	var f models.CourseFields
	if !bind(c, &f) {
		return
	}
	course, err := s.store.UpdateCourse(c.Param("id"), f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (s *Server) deleteCourse(c *gin.Context) {
	if err := s.store.DeleteCourse(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "course deleted"})
}

type userRef struct {
	UserID string `json:"userId"`
}

func (s *Server) enrollCourse(c *gin.Context) {
	var req userRef
	if !bind(c, &req) {
		return
	}
	uid, ok := actingAs(c, req.UserID)
	if !ok {
		return
	}
	course, err := s.store.Enroll(c.Param("id"), uid)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (s *Server) listLessons(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Lessons(c.Param("courseId")))
}

func (s *Server) listQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Questions(c.Param("courseId")))
}

// Users

func (s *Server) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Users())
}

func (s *Server) getUser(c *gin.Context) {
	u, err := s.store.User(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type userUpdateRequest struct {
	Fullname string `json:"fullname" validate:"omitempty,notblank,max=100"`
	Role     string `json:"role" validate:"omitempty,oneof=student instructor admin"`
}

func (s *Server) updateUser(c *gin.Context) {
	var req userUpdateRequest
	if !bind(c, &req) {
		return
	}
	id, ok := actingAs(c, c.Param("id"))
	if !ok {
		return
	}
	if req.Role != "" && currentUser(c).Role != models.RoleAdmin {
		abortError(c, http.StatusForbidden, "admin role required")
		return
	}
	u, err := s.store.UpdateUser(id, strings.TrimSpace(req.Fullname), req.Role)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) deleteUser(c *gin.Context) {
	if err := s.store.DeleteUser(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

// Messages

func (s *Server) listMessages(c *gin.Context) {
	id, ok := actingAs(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.store.Messages(id))
}

type messageRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId" validate:"required"`
	Content    string `json:"content" validate:"required,notblank,max=5000"`
}

func (s *Server) sendMessage(c *gin.Context) {
	var req messageRequest
	if !bind(c, &req) {
		return
	}
	sender, ok := actingAs(c, req.SenderID)
	if !ok {
		return
	}
	m, err := s.store.SendMessage(sender, req.ReceiverID, strings.TrimSpace(req.Content))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// Notifications

func (s *Server) listNotifications(c *gin.Context) {
	id, ok := actingAs(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.store.Notifications(id))
}

func (s *Server) markNotificationRead(c *gin.Context) {
	n, err := s.store.MarkRead(c.Param("id"), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// Reports

type reportRequest struct {
	ReporterID  string `json:"reporterId"`
	Type        string `json:"type" validate:"required,oneof=abuse inappropriate bug"`
	Description string `json:"description" validate:"required,notblank,max=2000"`
	TargetType  string `json:"targetType" validate:"required,oneof=User Course Post Comment"`
	TargetID    string `json:"targetId" validate:"required"`
}

func (s *Server) submitReport(c *gin.Context) {
	var req reportRequest
	if !bind(c, &req) {
		return
	}
	reporter, ok := actingAs(c, req.ReporterID)
	if !ok {
		return
	}
	r := s.store.CreateReport(reporter, req.Type, strings.TrimSpace(req.Description), req.TargetType, req.TargetID)
	c.JSON(http.StatusCreated, r)
}

func (s *Server) listReports(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Reports())
}

func (s *Server) getReport(c *gin.Context) {
	r, err := s.store.Report(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

type reportStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending resolved"`
}

func (s *Server) updateReport(c *gin.Context) {
	var req reportStatusRequest
	if !bind(c, &req) {
		return
	}
	r, err := s.store.SetReportStatus(c.Param("id"), req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) deleteReport(c *gin.Context) {
	if err := s.store.DeleteReport(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "report deleted"})
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
