package community

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"skillhub/internal/apperrors"
	"skillhub/internal/logger"
	"skillhub/internal/models"
	"skillhub/internal/session"
	"skillhub/internal/skillhub"
	"skillhub/internal/toast"
)

type fakeAPI struct {
	mu        sync.Mutex
	community models.Community
	posts     []models.Post
	calls     []string
	queries   []skillhub.PostQuery
	fail      map[string]error
	// blockGet, when set, holds GetCommunity until it is closed.
	blockGet chan struct{}
	// holdID makes GetCommunity for that id wait for its context to end,
	// signalling held once it is waiting.
	holdID string
	held   chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		community: models.Community{
			ID:   "c1",
			Name: "Go Learners",
			Members: []models.Member{
				{UserID: models.NewRef("admin1"), Role: models.RoleAdmin},
				{UserID: models.NewRef("u1"), Role: models.RoleMember},
			},
		},
		posts: []models.Post{{ID: "p1", AuthorID: models.NewRef("u1"), CommunityID: "c1", Content: "hello"}},
		fail:  map[string]error{},
	}
}

func (f *fakeAPI) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.fail[call]
}

func (f *fakeAPI) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeAPI) GetCommunity(ctx context.Context, id string) (models.Community, error) {
	if f.blockGet != nil {
		<-f.blockGet
	}
	if id == f.holdID {
		close(f.held)
		<-ctx.Done()
		f.record("get")
		return models.Community{}, ctx.Err()
	}
	if err := f.record("get"); err != nil {
		return models.Community{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.community, nil
}

func (f *fakeAPI) ListCommunityPosts(ctx context.Context, id string, q skillhub.PostQuery) ([]models.Post, error) {
	if err := f.record("posts"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return append([]models.Post(nil), f.posts...), nil
}

func (f *fakeAPI) JoinCommunity(ctx context.Context, id, userID string) error {
	if err := f.record("join"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.community.Members = append(f.community.Members, models.Member{UserID: models.NewRef(userID), Role: models.RoleMember})
	return nil
}

func (f *fakeAPI) LeaveCommunity(ctx context.Context, id, userID string) error {
	if err := f.record("leave"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.community.Members[:0]
	for _, m := range f.community.Members {
		if models.IDToStr(m.UserID) != userID {
			kept = append(kept, m)
		}
	}
	f.community.Members = kept
	return nil
}

func (f *fakeAPI) PromoteMember(ctx context.Context, id, userID string) error {
	return f.record("promote")
}

func (f *fakeAPI) PinPost(ctx context.Context, id, postID string) error {
	if err := f.record("pin"); err != nil {
		return err
	}
	f.setPinned(postID, true)
	return nil
}

func (f *fakeAPI) UnpinPost(ctx context.Context, id, postID string) error {
	if err := f.record("unpin"); err != nil {
		return err
	}
	f.setPinned(postID, false)
	return nil
}

func (f *fakeAPI) setPinned(postID string, pinned bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		if f.posts[i].ID == postID {
			f.posts[i].IsPinned = pinned
		}
	}
}

func (f *fakeAPI) UpdateCommunity(ctx context.Context, id string, fields models.CommunityFields) error {
	if err := f.record("update"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.community.Name = fields.Name
	f.community.Description = fields.Description
	return nil
}

func (f *fakeAPI) CreatePost(ctx context.Context, p skillhub.NewPost) (models.Post, error) {
	if err := f.record("create"); err != nil {
		return models.Post{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	post := models.Post{ID: "p2", AuthorID: models.NewRef(p.AuthorID), CommunityID: p.CommunityID, Content: p.Content}
	f.posts = append([]models.Post{post}, f.posts...)
	return post, nil
}

func (f *fakeAPI) LikePost(ctx context.Context, postID, userID string) error {
	if err := f.record("like"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		if f.posts[i].ID == postID {
			f.posts[i].Likes = append(f.posts[i].Likes, models.NewRef(userID))
		}
	}
	return nil
}

func (f *fakeAPI) CommentOnPost(ctx context.Context, postID, userID, content string) error {
	if err := f.record("comment"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		if f.posts[i].ID == postID {
			f.posts[i].Comments = append(f.posts[i].Comments, models.Comment{ID: "cm1", AuthorID: models.NewRef(userID), Content: content})
		}
	}
	return nil
}

func (f *fakeAPI) ReplyToComment(ctx context.Context, postID, commentID, userID, content string) error {
	return f.record("reply")
}

func newController(t *testing.T, api *fakeAPI, userID, role string) (*Controller, *toast.Recorder) {
	t.Helper()
	rec := &toast.Recorder{}
	c := NewController(api, session.Session{Token: "t", UserID: userID, Role: role}, rec, logger.Nop())
	if err := c.LoadCommunity(context.Background(), "c1"); err != nil {
		t.Fatalf("initial load: %v", err)
	}
	return c, rec
}

func TestLoadCommunityFetchesNewestPage(t *testing.T) {
	api := newFakeAPI()
	c, _ := newController(t, api, "u1", "member")

	comm, ok := c.Community()
	if !ok || comm.Name != "Go Learners" {
		t.Fatalf("community not loaded: %+v", comm)
	}
	if len(c.Posts()) != 1 {
		t.Fatalf("expected 1 post, got %d", len(c.Posts()))
	}
	if q := api.queries[0]; q.Sort != "new" || q.Limit != 50 {
		t.Fatalf("unexpected post query: %+v", q)
	}
}

func TestLoadFailureKeepsPriorState(t *testing.T) {
	api := newFakeAPI()
	c, _ := newController(t, api, "u1", "member")

	api.fail["posts"] = errors.New("boom")
	api.community.Name = "Renamed"
	if err := c.LoadCommunity(context.Background(), "c1"); err == nil {
		t.Fatalf("expected load error")
	}
	comm, _ := c.Community()
	if comm.Name != "Go Learners" || len(c.Posts()) != 1 {
		t.Fatalf("prior state should survive a failed load: %+v", comm)
	}
}

func TestJoinIsSkippedForExistingMember(t *testing.T) {
	api := newFakeAPI()
	c, rec := newController(t, api, "u1", "member")

	if err := c.Join(context.Background(), "u1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if api.count("join") != 0 {
		t.Fatalf("join must not hit the server for an existing member")
	}
	if len(rec.All()) != 0 {
		t.Fatalf("no toast expected, got %+v", rec.All())
	}
}

func TestJoinRefreshesAndToasts(t *testing.T) {
	api := newFakeAPI()
	c, rec := newController(t, api, "u9", "member")

	if c.IsMember() {
		t.Fatalf("u9 should not be a member yet")
	}
	if err := c.Join(context.Background(), "u9"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if !c.IsMember() {
		t.Fatalf("refresh after join should show membership")
	}
	if api.count("get") != 2 {
		t.Fatalf("expected a reload after join, get calls = %d", api.count("get"))
	}
	if rec.Count(toast.LevelSuccess) != 1 {
		t.Fatalf("expected success toast, got %+v", rec.All())
	}
}

func TestJoinFailureToastsAndKeepsState(t *testing.T) {
	api := newFakeAPI()
	c, rec := newController(t, api, "u9", "member")

	api.fail["join"] = &apperrors.CustomError{Err: apperrors.ErrConflict, Message: "nope"}
	if err := c.Join(context.Background(), "u9"); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if c.IsMember() {
		t.Fatalf("membership must not change optimistically")
	}
	if rec.Count(toast.LevelError) != 1 {
		t.Fatalf("expected error toast, got %+v", rec.All())
	}
	if api.count("get") != 1 {
		t.Fatalf("failed join must not reload")
	}
}

func TestAddPostIgnoresBlankContent(t *testing.T) {
	api := newFakeAPI()
	c, _ := newController(t, api, "u1", "member")

	if err := c.AddPost(context.Background(), "   \n"); err != nil {
		t.Fatalf("blank post: %v", err)
	}
	if api.count("create") != 0 {
		t.Fatalf("blank post must not be sent")
	}

	c.SetPostDraft("first!")
	if err := c.AddPost(context.Background(), c.PostDraft()); err != nil {
		t.Fatalf("add post: %v", err)
	}
	if c.PostDraft() != "" {
		t.Fatalf("draft should be cleared after publishing")
	}
	if got := c.Posts(); len(got) != 2 || got[0].Content != "first!" {
		t.Fatalf("expected refreshed feed with new post, got %+v", got)
	}
}

func TestLikeAlwaysRefreshes(t *testing.T) {
	api := newFakeAPI()
	c, _ := newController(t, api, "u1", "member")

	if err := c.Like(context.Background(), "p1"); err != nil {
		t.Fatalf("like: %v", err)
	}
	if !c.Posts()[0].LikedBy("u1") {
		t.Fatalf("like should be visible after refresh")
	}
	if api.count("posts") != 2 {
		t.Fatalf("expected reload after like")
	}
}

func TestCommentDraftClearedOnlyOnSuccess(t *testing.T) {
	api := newFakeAPI()
	c, rec := newController(t, api, "u1", "member")

	c.SetCommentDraft("p1", "nice course!")
	api.fail["comment"] = errors.New("offline")
	if err := c.AddComment(context.Background(), "p1", c.CommentDraft("p1")); err == nil {
		t.Fatalf("expected error")
	}
	if c.CommentDraft("p1") != "nice course!" {
		t.Fatalf("draft must survive a failed comment")
	}
	if rec.Count(toast.LevelError) != 1 {
		t.Fatalf("expected error toast")
	}

	delete(api.fail, "comment")
	if err := c.AddComment(context.Background(), "p1", c.CommentDraft("p1")); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if c.CommentDraft("p1") != "" {
		t.Fatalf("draft should be cleared")
	}
	cm, ok := c.Posts()[0].Comment("cm1")
	if !ok || cm.Content != "nice course!" || models.IDToStr(cm.AuthorID) != "u1" {
		t.Fatalf("comment missing after refresh: %+v", c.Posts()[0].Comments)
	}
}

func TestReplyDraftClearedOnSuccess(t *testing.T) {
	api := newFakeAPI()
	c, _ := newController(t, api, "u1", "member")

	c.SetReplyDraft("cm1", "agreed")
	if err := c.AddReply(context.Background(), "p1", "cm1", c.ReplyDraft("cm1")); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if c.ReplyDraft("cm1") != "" || api.count("reply") != 1 {
		t.Fatalf("reply not sent or draft kept")
	}
}

func TestAdminActionsRequireAdmin(t *testing.T) {
	api := newFakeAPI()
	c, _ := newController(t, api, "u1", "member")
	ctx := context.Background()

	checks := map[string]error{
		"pin":     c.PinToggle(ctx, "p1", false),
		"update":  c.UpdateCommunity(ctx, models.CommunityFields{Name: "x"}),
		"promote": c.PromoteMember(ctx, "u1"),
		"remove":  c.RemoveMember(ctx, "u1"),
	}
	for name, err := range checks {
		if !errors.Is(err, apperrors.ErrForbidden) {
			t.Fatalf("%s: expected ErrForbidden, got %v", name, err)
		}
	}
	for _, call := range []string{"pin", "update", "promote", "leave"} {
		if api.count(call) != 0 {
			t.Fatalf("%s must not reach the server", call)
		}
	}
}

func TestPinToggleAndRemoveAsAdmin(t *testing.T) {
	api := newFakeAPI()
	c, rec := newController(t, api, "admin1", "member")
	ctx := context.Background()

	if err := c.PinToggle(ctx, "p1", false); err != nil {
		t.Fatalf("pin: %v", err)
	}
	if !c.Feed()[0].IsPinned {
		t.Fatalf("post should be pinned after refresh")
	}
	if err := c.PinToggle(ctx, "p1", true); err != nil {
		t.Fatalf("unpin: %v", err)
	}
	if api.count("pin") != 1 || api.count("unpin") != 1 {
		t.Fatalf("expected one pin and one unpin call: %v", api.calls)
	}

	if err := c.RemoveMember(ctx, "u1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	comm, _ := c.Community()
	if IsMemberOf(comm, "u1") {
		t.Fatalf("u1 should be removed")
	}
	if rec.Count(toast.LevelSuccess) != 1 {
		t.Fatalf("expected removal toast, got %+v", rec.All())
	}
}

func TestUpdateCommunityRequiresName(t *testing.T) {
	api := newFakeAPI()
	c, _ := newController(t, api, "admin1", "member")

	err := c.UpdateCommunity(context.Background(), models.CommunityFields{Name: "  ", Description: "d"})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if api.count("update") != 0 {
		t.Fatalf("invalid update must not be sent")
	}

	if err := c.UpdateCommunity(context.Background(), models.CommunityFields{Name: " Gophers ", Description: "d"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	comm, _ := c.Community()
	if comm.Name != "Gophers" {
		t.Fatalf("expected trimmed name after refresh, got %q", comm.Name)
	}
}

func TestPlatformAdminCanModerate(t *testing.T) {
	api := newFakeAPI()
	c, _ := newController(t, api, "staff", "admin")
	if err := c.PromoteMember(context.Background(), "u1"); err != nil {
		t.Fatalf("promote: %v", err)
	}
}

func TestMembershipHandlesPopulatedReferences(t *testing.T) {
	var comm models.Community
	raw := `{"_id":"c1","name":"n","members":[
		{"userId":{"_id":"665f1c2e9b1d4a0012345678","fullname":"Ada"},"role":"admin"},
		{"userId":"665f1c2e9b1d4a0012345679","role":"member"}]}`
	if err := json.Unmarshal([]byte(raw), &comm); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !IsAdminOf(comm, "665f1c2e9b1d4a0012345678") {
		t.Fatalf("populated admin not recognised")
	}
	if !IsMemberOf(comm, map[string]any{"_id": "665f1c2e9b1d4a0012345679"}) {
		t.Fatalf("bare member not recognised")
	}
	if IsAdminOf(comm, "665f1c2e9b1d4a0012345679") || IsMemberOf(comm, "") {
		t.Fatalf("unexpected membership result")
	}
	if AdminCount(comm) != 1 {
		t.Fatalf("admin count = %d", AdminCount(comm))
	}
}

func TestSupersededLoadIsDropped(t *testing.T) {
	api := newFakeAPI()
	c, _ := newController(t, api, "u1", "member")

	api.blockGet = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- c.LoadCommunity(context.Background(), "c1") }()

	// let the slow load start, then race a fresh one past it
	for api.count("posts") < 2 {
	}
	api.mu.Lock()
	api.community.Name = "fresh"
	api.mu.Unlock()
	fast := make(chan error, 1)
	go func() { fast <- c.LoadCommunity(context.Background(), "c1") }()
	for api.count("posts") < 3 {
	}
	close(api.blockGet)

	slowErr, fastErr := <-done, <-fast
	if fastErr != nil && slowErr != nil {
		t.Fatalf("one of the loads must win: slow=%v fast=%v", slowErr, fastErr)
	}
	if slowErr != nil && !errors.Is(slowErr, ErrSuperseded) {
		t.Fatalf("slow load error = %v, want ErrSuperseded", slowErr)
	}
	comm, _ := c.Community()
	if comm.Name != "fresh" {
		t.Fatalf("state should reflect the latest load, got %q", comm.Name)
	}
}

func TestFailedLoadOfAnotherCommunityKeepsCurrentOne(t *testing.T) {
	api := newFakeAPI()
	c, _ := newController(t, api, "u1", "member")

	api.fail["get"] = errors.New("not found")
	if err := c.LoadCommunity(context.Background(), "c2"); err == nil {
		t.Fatalf("expected load error")
	}
	delete(api.fail, "get")

	comm, ok := c.Community()
	if !ok || comm.ID != "c1" || len(c.Posts()) != 1 {
		t.Fatalf("c1 should still be loaded, got present=%v %+v", ok, comm)
	}
	before := len(api.calls)
	if err := c.Join(context.Background(), "u1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(api.calls) != before {
		t.Fatalf("join by an existing c1 member issued calls %v", api.calls[before:])
	}

	if err := c.Like(context.Background(), "p1"); err != nil {
		t.Fatalf("like: %v", err)
	}
	if got, _ := c.Community(); got.ID != "c1" {
		t.Fatalf("refresh after like should reload c1, got %q", got.ID)
	}
}

func TestNavigatingAwayCancelsInFlightLoad(t *testing.T) {
	api := newFakeAPI()
	c, _ := newController(t, api, "u1", "member")
	defer c.Close()

	api.holdID = "c2"
	api.held = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- c.LoadCommunity(context.Background(), "c2") }()
	<-api.held

	if err := c.LoadCommunity(context.Background(), "c1"); err != nil {
		t.Fatalf("load c1: %v", err)
	}
	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("cancelled load error = %v, want ErrSuperseded", err)
	}
	comm, ok := c.Community()
	if !ok || comm.ID != "c1" {
		t.Fatalf("cancelled load must not land, got %+v", comm)
	}
}

func TestMutationsBeforeLoadReturnErrNotLoaded(t *testing.T) {
	api := newFakeAPI()
	c := NewController(api, session.Session{Token: "t", UserID: "u1"}, nil, logger.Nop())
	defer c.Close()

	if err := c.Join(context.Background(), "u1"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("join before load: %v, want ErrNotLoaded", err)
	}
	if err := c.AddPost(context.Background(), "hi"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("post before load: %v, want ErrNotLoaded", err)
	}
	if len(api.calls) != 0 {
		t.Fatalf("no request expected, got %v", api.calls)
	}
}
