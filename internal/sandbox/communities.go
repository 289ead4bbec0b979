package sandbox

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"skillhub/internal/apperrors"
	"skillhub/internal/models"
)

var errNotMember = apperrors.NewForbiddenError("join the community first")

// canModerate reports whether the caller administers the community, either
// as its admin or as a platform admin.
func (s *Server) canModerate(c *gin.Context, communityID string) bool {
	me := currentUser(c)
	if me.Role == models.RoleAdmin {
		return true
	}
	role, err := s.store.CommunityRole(communityID, me.ID)
	if err != nil {
		fail(c, err)
		return false
	}
	if role != models.RoleAdmin {
		abortError(c, http.StatusForbidden, "community admin role required")
		return false
	}
	return true
}

func (s *Server) listCommunities(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Communities())
}

func (s *Server) getCommunity(c *gin.Context) {
	comm, err := s.store.Community(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comm)
}

func (s *Server) listPosts(c *gin.Context) {
	posts, err := s.store.Posts(c.Param("id"), c.Query("sort"), queryInt(c, "limit"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (s *Server) joinCommunity(c *gin.Context) {
	var req userRef
	if !bind(c, &req) {
		return
	}
	uid, ok := actingAs(c, req.UserID)
	if !ok {
		return
	}
	comm, err := s.store.Join(c.Param("id"), uid)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comm)
}

// leaveCommunity serves both a member leaving and an admin removing one.
func (s *Server) leaveCommunity(c *gin.Context) {
	var req userRef
	if !bind(c, &req) {
		return
	}
	id := c.Param("id")
	uid := strings.TrimSpace(req.UserID)
	if uid == "" {
		uid = currentUser(c).ID
	}
	if uid != currentUser(c).ID && !s.canModerate(c, id) {
		return
	}
	comm, err := s.store.Leave(id, uid)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comm)
}

func (s *Server) promoteMember(c *gin.Context) {
	var req userRef
	if !bind(c, &req) {
		return
	}
	id := c.Param("id")
	if !s.canModerate(c, id) {
		return
	}
	comm, err := s.store.Promote(id, req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comm)
}

type pinRequest struct {
	PostID string `json:"postId" validate:"required"`
}

func (s *Server) pinPost(pinned bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req pinRequest
		if !bind(c, &req) {
			return
		}
		id := c.Param("id")
		if !s.canModerate(c, id) {
			return
		}
		post, err := s.store.SetPinned(id, req.PostID, pinned)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, post)
	}
}

func (s *Server) updateCommunity(c *gin.Context) {
	var f models.CommunityFields
	if !bind(c, &f) {
		return
	}
	id := c.Param("id")
	if !s.canModerate(c, id) {
		return
	}
	f.Name = strings.TrimSpace(f.Name)
	comm, err := s.store.UpdateCommunity(id, f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comm)
}

// Posts

type postRequest struct {
	AuthorID    string `json:"authorId"`
	CommunityID string `json:"communityId" validate:"required"`
	Content     string `json:"content" validate:"required,notblank,max=10000"`
}

func (s *Server) createPost(c *gin.Context) {
	var req postRequest
	if !bind(c, &req) {
		return
	}
	author, ok := actingAs(c, req.AuthorID)
	if !ok {
		return
	}
	role, err := s.store.CommunityRole(req.CommunityID, author)
	if err != nil {
		fail(c, err)
		return
	}
	if role == "" {
		fail(c, errNotMember)
		return
	}
	post, err := s.store.CreatePost(author, req.CommunityID, strings.TrimSpace(req.Content))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (s *Server) likePost(c *gin.Context) {
	var req userRef
	if !bind(c, &req) {
		return
	}
	uid, ok := actingAs(c, req.UserID)
	if !ok {
		return
	}
	post, liked, err := s.store.ToggleLike(c.Param("id"), uid)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked, "post": post})
}

type commentRequest struct {
	UserID  string `json:"userId"`
	Content string `json:"content" validate:"required,notblank,max=5000"`
}

func (s *Server) commentOnPost(c *gin.Context) {
	var req commentRequest
	if !bind(c, &req) {
		return
	}
	uid, ok := actingAs(c, req.UserID)
	if !ok {
		return
	}
	post, err := s.store.AddComment(c.Param("id"), uid, strings.TrimSpace(req.Content))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (s *Server) replyToComment(c *gin.Context) {
	var req commentRequest
	if !bind(c, &req) {
		return
	}
	uid, ok := actingAs(c, req.UserID)
	if !ok {
		return
	}
	post, err := s.store.AddReply(c.Param("id"), c.Param("commentId"), uid, strings.TrimSpace(req.Content))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}
