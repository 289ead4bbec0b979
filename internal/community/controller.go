package community

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"skillhub/internal/apperrors"
	"skillhub/internal/models"
	"skillhub/internal/nav"
	"skillhub/internal/session"
	"skillhub/internal/skillhub"
	"skillhub/internal/toast"
	"skillhub/internal/validation"
)

// PostsPageSize is how many posts the first page of a feed holds.
const PostsPageSize = 50

var (
	// ErrNotLoaded is returned by mutations issued before any load succeeded.
	ErrNotLoaded = errors.New("community not loaded")
	// ErrSuperseded is returned by a load whose result was dropped because
	// a newer load started before it finished.
	ErrSuperseded = errors.New("community load superseded")
)

// API is the slice of the backend the feed talks to.
type API interface {
	GetCommunity(ctx context.Context, id string) (models.Community, error)
	ListCommunityPosts(ctx context.Context, id string, q skillhub.PostQuery) ([]models.Post, error)
	JoinCommunity(ctx context.Context, id, userID string) error
	LeaveCommunity(ctx context.Context, id, userID string) error
	PromoteMember(ctx context.Context, id, userID string) error
	PinPost(ctx context.Context, id, postID string) error
	UnpinPost(ctx context.Context, id, postID string) error
	UpdateCommunity(ctx context.Context, id string, fields models.CommunityFields) error
	CreatePost(ctx context.Context, p skillhub.NewPost) (models.Post, error)
	LikePost(ctx context.Context, postID, userID string) error
	CommentOnPost(ctx context.Context, postID, userID, content string) error
	ReplyToComment(ctx context.Context, postID, commentID, userID, content string) error
}

// Controller holds one community page: the community, its first page of
// posts and the user's unsent drafts. Every mutation goes to the server
// and is followed by a full reload; local copies are never patched.
type Controller struct {
	api     API
	sess    session.Session
	toaster toast.Toaster
	log     zerolog.Logger

	views *nav.Navigator

	mu            sync.Mutex
	id            string
	target        string
	community     *models.Community
	posts         []models.Post
	gen           uint64
	postDraft     string
	commentDrafts map[string]string
	replyDrafts   map[string]string
}

func NewController(api API, sess session.Session, toaster toast.Toaster, log zerolog.Logger) *Controller {
	if toaster == nil {
		toaster = toast.Discard{}
	}
	return &Controller{
		api:           api,
		sess:          sess,
		toaster:       toaster,
		log:           log.With().Str("component", "community").Logger(),
		views:         nav.New(),
		commentDrafts: map[string]string{},
		replyDrafts:   map[string]string{},
	}
}

// LoadCommunity fetches the community and its newest posts in parallel and
// replaces local state with both. On failure the previous state is kept.
// Loading a different community starts a new navigation, which cancels
// any load still in flight for the previous one.
func (c *Controller) LoadCommunity(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperrors.NewValidationError("community id is required")
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	if c.target != id {
		c.target = id
		ctx = c.views.Begin(ctx)
	}
	c.mu.Unlock()

	var (
		community models.Community
		posts     []models.Post
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		community, err = c.api.GetCommunity(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		posts, err = c.api.ListCommunityPosts(gctx, id, skillhub.PostQuery{Sort: "new", Limit: PostsPageSize})
		return err
	})
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.log.Debug().Str("community_id", id).Msg("dropping superseded load")
		return ErrSuperseded
	}
	if err != nil {
		c.log.Error().Err(err).Str("community_id", id).Msg("load community")
		return fmt.Errorf("load community %s: %w", id, err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	c.id = id
	c.community = &community
	c.posts = posts
	return nil
}

// Close cancels any load still in flight.
func (c *Controller) Close() {
	c.views.Close()
}

// Community returns the loaded community.
func (c *Controller) Community() (models.Community, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.community == nil {
		return models.Community{}, false
	}
	return *c.community, true
}

// Posts returns the loaded posts in server order.
func (c *Controller) Posts() []models.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Post(nil), c.posts...)
}

// Feed returns the loaded posts with pinned posts first.
func (c *Controller) Feed() []models.Post {
	posts := c.Posts()
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p.IsPinned {
			out = append(out, p)
		}
	}
	for _, p := range posts {
		if !p.IsPinned {
			out = append(out, p)
		}
	}
	return out
}

// IsMember reports whether the session user belongs to the community.
func (c *Controller) IsMember() bool {
	comm, ok := c.Community()
	return ok && IsMemberOf(comm, c.sess.UserID)
}

// CanModerate reports whether the session user gets admin controls: a
// community admin or a platform admin.
func (c *Controller) CanModerate() bool {
	if c.sess.IsAdmin() {
		return true
	}
	comm, ok := c.Community()
	return ok && IsAdminOf(comm, c.sess.UserID)
}

func (c *Controller) currentID() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.id == "" {
		return "", ErrNotLoaded
	}
	return c.id, nil
}

func (c *Controller) refresh(ctx context.Context) {
	id, err := c.currentID()
	if err != nil {
		return
	}
	// LoadCommunity logs its own failure; the mutation already succeeded.
	_ = c.LoadCommunity(ctx, id)
}

func (c *Controller) fail(err error, action, userMsg string) error {
	c.log.Error().Err(err).Str("action", action).Msg("community action failed")
	c.toaster.Error(userMsg)
	return err
}

func (c *Controller) requireModerator() error {
	if !c.CanModerate() {
		return apperrors.NewForbiddenError("only community admins can do that")
	}
	return nil
}

// Join adds userID to the community. Members are never re-joined.
func (c *Controller) Join(ctx context.Context, userID string) error {
	id, err := c.currentID()
	if err != nil {
		return err
	}
	if comm, ok := c.Community(); ok && IsMemberOf(comm, userID) {
		return nil
	}
	if err := c.api.JoinCommunity(ctx, id, userID); err != nil {
		return c.fail(err, "join", "Failed to join community")
	}
	c.refresh(ctx)
	c.toaster.Success("Joined community")
	return nil
}

func (c *Controller) Leave(ctx context.Context, userID string) error {
	id, err := c.currentID()
	if err != nil {
		return err
	}
	if err := c.api.LeaveCommunity(ctx, id, userID); err != nil {
		return c.fail(err, "leave", "Failed to leave community")
	}
	c.refresh(ctx)
	c.toaster.Success("Left community")
	return nil
}

func (c *Controller) SetPostDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.postDraft = text
}

func (c *Controller) PostDraft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.postDraft
}

// AddPost publishes content as the session user. Blank content is ignored.
func (c *Controller) AddPost(ctx context.Context, content string) error {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	id, err := c.currentID()
	if err != nil {
		return err
	}
	if _, err := c.api.CreatePost(ctx, skillhub.NewPost{
		AuthorID:    c.sess.UserID,
		CommunityID: id,
		Content:     content,
	}); err != nil {
		return c.fail(err, "post", "Failed to publish post")
	}
	c.SetPostDraft("")
	c.refresh(ctx)
	return nil
}

// Like toggles the session user's like; the server owns the toggle.
func (c *Controller) Like(ctx context.Context, postID string) error {
	if _, err := c.currentID(); err != nil {
		return err
	}
	if err := c.api.LikePost(ctx, postID, c.sess.UserID); err != nil {
		return c.fail(err, "like", "Failed to like post")
	}
	c.refresh(ctx)
	return nil
}

func (c *Controller) SetCommentDraft(postID, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commentDrafts[postID] = text
}

func (c *Controller) CommentDraft(postID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commentDrafts[postID]
}

func (c *Controller) AddComment(ctx context.Context, postID, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if _, err := c.currentID(); err != nil {
		return err
	}
	if err := c.api.CommentOnPost(ctx, postID, c.sess.UserID, text); err != nil {
		return c.fail(err, "comment", "Failed to add comment")
	}
	c.mu.Lock()
	delete(c.commentDrafts, postID)
	c.mu.Unlock()
	c.refresh(ctx)
	return nil
}

func (c *Controller) SetReplyDraft(commentID, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replyDrafts[commentID] = text
}

func (c *Controller) ReplyDraft(commentID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replyDrafts[commentID]
}

func (c *Controller) AddReply(ctx context.Context, postID, commentID, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if _, err := c.currentID(); err != nil {
		return err
	}
	if err := c.api.ReplyToComment(ctx, postID, commentID, c.sess.UserID, text); err != nil {
		return c.fail(err, "reply", "Failed to add reply")
	}
	c.mu.Lock()
	delete(c.replyDrafts, commentID)
	c.mu.Unlock()
	c.refresh(ctx)
	return nil
}

// PinToggle pins an unpinned post or unpins a pinned one.
func (c *Controller) PinToggle(ctx context.Context, postID string, currentlyPinned bool) error {
	id, err := c.currentID()
	if err != nil {
		return err
	}
	if err := c.requireModerator(); err != nil {
		return err
	}
	if currentlyPinned {
		err = c.api.UnpinPost(ctx, id, postID)
	} else {
		err = c.api.PinPost(ctx, id, postID)
	}
	if err != nil {
		return c.fail(err, "pin", "Failed to update pin")
	}
	c.refresh(ctx)
	return nil
}

// UpdateCommunity sends the full editable field set. Name is required.
func (c *Controller) UpdateCommunity(ctx context.Context, fields models.CommunityFields) error {
	id, err := c.currentID()
	if err != nil {
		return err
	}
	if err := c.requireModerator(); err != nil {
		return err
	}
	fields.Name = strings.TrimSpace(fields.Name)
	if err := validation.Struct(fields); err != nil {
		c.toaster.Error(err.Error())
		return err
	}
	if err := c.api.UpdateCommunity(ctx, id, fields); err != nil {
		return c.fail(err, "update", "Failed to update community")
	}
	c.refresh(ctx)
	c.toaster.Success("Community updated")
	return nil
}

func (c *Controller) PromoteMember(ctx context.Context, memberID string) error {
	id, err := c.currentID()
	if err != nil {
		return err
	}
	if err := c.requireModerator(); err != nil {
		return err
	}
	if err := c.api.PromoteMember(ctx, id, memberID); err != nil {
		return c.fail(err, "promote", "Failed to promote member")
	}
	c.refresh(ctx)
	c.toaster.Success("Member promoted to admin")
	return nil
}

// RemoveMember removes memberID through the leave endpoint.
func (c *Controller) RemoveMember(ctx context.Context, memberID string) error {
	id, err := c.currentID()
	if err != nil {
		return err
	}
	if err := c.requireModerator(); err != nil {
		return err
	}
	if err := c.api.LeaveCommunity(ctx, id, memberID); err != nil {
		return c.fail(err, "remove", "Failed to remove member")
	}
	c.refresh(ctx)
	c.toaster.Success("Member removed")
	return nil
}
