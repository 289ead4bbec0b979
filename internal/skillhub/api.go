// Package skillhub is the typed surface of the SkillHub REST backend: one
// method per endpoint the client consumes.
package skillhub

import (
	"context"
	"net/url"
	"strconv"

	"skillhub/internal/cli/client"
	"skillhub/internal/models"
)

type API struct {
	c *client.Client
}

func New(c *client.Client) *API {
	return &API{c: c}
}

func (a *API) Client() *client.Client {
	return a.c
}

func esc(id string) string {
	return url.PathEscape(id)
}

type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (a *API) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	err := a.c.Post(ctx, "/auth/login", map[string]string{"email": email, "password": password}, &out)
	return out, err
}

// Communities

func (a *API) ListCommunities(ctx context.Context) ([]models.Community, error) {
	var out []models.Community
	err := a.c.Get(ctx, "/communities", &out)
	return out, err
}

func (a *API) GetCommunity(ctx context.Context, id string) (models.Community, error) {
	var out models.Community
	err := a.c.Get(ctx, "/communities/"+esc(id), &out)
	return out, err
}

type PostQuery struct {
	Sort  string
	Limit int
}

func (a *API) ListCommunityPosts(ctx context.Context, id string, q PostQuery) ([]models.Post, error) {
	vals := url.Values{}
	if q.Sort != "" {
		vals.Set("sort", q.Sort)
	}
	if q.Limit > 0 {
		vals.Set("limit", strconv.Itoa(q.Limit))
	}
	path := "/communities/" + esc(id) + "/posts"
	if len(vals) > 0 {
		path += "?" + vals.Encode()
	}
	var out []models.Post
	err := a.c.Get(ctx, path, &out)
	return out, err
}

func (a *API) communityAction(ctx context.Context, id, action string, body any) error {
	return a.c.Patch(ctx, "/communities/"+esc(id)+"/"+action, body, nil)
}

func (a *API) JoinCommunity(ctx context.Context, id, userID string) error {
	return a.communityAction(ctx, id, "join", map[string]string{"userId": userID})
}

func (a *API) LeaveCommunity(ctx context.Context, id, userID string) error {
	return a.communityAction(ctx, id, "leave", map[string]string{"userId": userID})
}

func (a *API) PromoteMember(ctx context.Context, id, userID string) error {
	return a.communityAction(ctx, id, "promote", map[string]string{"userId": userID})
}

func (a *API) PinPost(ctx context.Context, id, postID string) error {
	return a.communityAction(ctx, id, "pin", map[string]string{"postId": postID})
}

func (a *API) UnpinPost(ctx context.Context, id, postID string) error {
	return a.communityAction(ctx, id, "unpin", map[string]string{"postId": postID})
}

func (a *API) UpdateCommunity(ctx context.Context, id string, fields models.CommunityFields) error {
	return a.c.Put(ctx, "/communities/"+esc(id), fields, nil)
}

// Posts

type NewPost struct {
	AuthorID    string `json:"authorId"`
	CommunityID string `json:"communityId"`
	Content     string `json:"content"`
}

func (a *API) CreatePost(ctx context.Context, p NewPost) (models.Post, error) {
	var out models.Post
	err := a.c.Post(ctx, "/posts", p, &out)
	return out, err
}

func (a *API) LikePost(ctx context.Context, postID, userID string) error {
	return a.c.Post(ctx, "/posts/"+esc(postID)+"/like", map[string]string{"userId": userID}, nil)
}

func (a *API) CommentOnPost(ctx context.Context, postID, userID, content string) error {
	return a.c.Post(ctx, "/posts/"+esc(postID)+"/comment", map[string]string{
		"userId":  userID,
		"content": content,
	}, nil)
}

func (a *API) ReplyToComment(ctx context.Context, postID, commentID, userID, content string) error {
	return a.c.Post(ctx, "/posts/"+esc(postID)+"/comment/"+esc(commentID)+"/reply", map[string]string{
		"userId":  userID,
		"content": content,
	}, nil)
}
