package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"skillhub/internal/apperrors"
	"skillhub/internal/cli/client"
	"skillhub/internal/logger"
	"skillhub/internal/models"
	"skillhub/internal/session"
	"skillhub/internal/skillhub"
	"skillhub/internal/toast"
	"skillhub/internal/validation"
)

type fakeAPI struct {
	courses  []models.Course
	users    []models.User
	lessons  []models.Lesson
	messages []models.Message
	calls    []string
	updates  map[string]skillhub.UserUpdate
	sent     []skillhub.NewMessage
}

func (f *fakeAPI) ListCourses(ctx context.Context) ([]models.Course, error) {
	f.calls = append(f.calls, "list-courses")
	return f.courses, nil
}

func (f *fakeAPI) GetCourse(ctx context.Context, id string) (models.Course, error) {
	for _, c := range f.courses {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Course{}, &client.APIError{Status: 404, Message: "not found"}
}

func (f *fakeAPI) CreateCourse(ctx context.Context, fields models.CourseFields) (models.Course, error) {
	f.calls = append(f.calls, "create-course")
	return models.Course{ID: "new", Title: fields.Title}, nil
}

func (f *fakeAPI) UpdateCourse(ctx context.Context, id string, fields models.CourseFields) error {
	f.calls = append(f.calls, "update-course")
	return nil
}

func (f *fakeAPI) DeleteCourse(ctx context.Context, id string) error {
	f.calls = append(f.calls, "delete-course")
	return nil
}

func (f *fakeAPI) EnrollCourse(ctx context.Context, id, userID string) error {
	f.calls = append(f.calls, "enroll:"+id+":"+userID)
	return nil
}

func (f *fakeAPI) ListUsers(ctx context.Context) ([]models.User, error) {
	return f.users, nil
}

func (f *fakeAPI) GetUser(ctx context.Context, id string) (models.User, error) {
	return models.User{}, &client.APIError{Status: 404}
}

func (f *fakeAPI) UpdateUser(ctx context.Context, id string, u skillhub.UserUpdate) error {
	if f.updates == nil {
		f.updates = map[string]skillhub.UserUpdate{}
	}
	f.updates[id] = u
	return nil
}

func (f *fakeAPI) DeleteUser(ctx context.Context, id string) error {
	f.calls = append(f.calls, "delete-user:"+id)
	return nil
}

func (f *fakeAPI) ListLessons(ctx context.Context, courseID string) ([]models.Lesson, error) {
	return f.lessons, nil
}

func (f *fakeAPI) ListMessages(ctx context.Context, userID string) ([]models.Message, error) {
	return f.messages, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, m skillhub.NewMessage) (models.Message, error) {
	f.sent = append(f.sent, m)
	return models.Message{ID: "m1", SenderID: models.NewRef(m.SenderID), ReceiverID: models.NewRef(m.ReceiverID), Content: m.Content}, nil
}

var (
	student = session.Session{Token: "t", UserID: "u1", Role: models.RoleStudent}
	admin   = session.Session{Token: "t", UserID: "a1", Role: models.RoleAdmin}
)

func TestEnrollSkipsEnrolledUser(t *testing.T) {
	api := &fakeAPI{}
	rec := &toast.Recorder{}
	c := NewCourses(api, student, rec, logger.Nop())

	enrolled := models.Course{ID: "c1", Title: "Go", EnrolledUsers: []models.Ref{models.NewRef("u1")}}
	if err := c.Enroll(context.Background(), enrolled); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if len(api.calls) != 0 {
		t.Fatalf("no request expected, got %v", api.calls)
	}

	if err := c.Enroll(context.Background(), models.Course{ID: "c2", Title: "Rust"}); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if len(api.calls) != 1 || api.calls[0] != "enroll:c2:u1" {
		t.Fatalf("calls = %v", api.calls)
	}
	if rec.Count(toast.LevelSuccess) != 1 {
		t.Fatalf("expected success toast")
	}
}

func TestGetCourseNotFound(t *testing.T) {
	c := NewCourses(&fakeAPI{}, student, nil, logger.Nop())
	_, err := c.Get(context.Background(), "missing")
	if !errors.Is(err, apperrors.ErrNotFound) || err.Error() != "Course not found" {
		t.Fatalf("expected not-found message, got %v", err)
	}
}

func TestCourseAdminActions(t *testing.T) {
	api := &fakeAPI{}
	ctx := context.Background()

	asStudent := NewCourses(api, student, nil, logger.Nop())
	if _, err := asStudent.Create(ctx, models.CourseFields{Title: "x", Description: "y"}); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := asStudent.Delete(ctx, "c1"); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	asAdmin := NewCourses(api, admin, nil, logger.Nop())
	_, err := asAdmin.Create(ctx, models.CourseFields{Title: "  ", Description: "d", Price: -1})
	var verrs *validation.Errors
	if !errors.As(err, &verrs) || !verrs.Has("title") || !verrs.Has("price") {
		t.Fatalf("expected title and price errors, got %v", err)
	}
	if len(api.calls) != 0 {
		t.Fatalf("invalid course must not be sent: %v", api.calls)
	}

	created, err := asAdmin.Create(ctx, models.CourseFields{Title: " Concurrency ", Description: "channels", Price: 10})
	if err != nil || created.Title != "Concurrency" {
		t.Fatalf("create: %v %+v", err, created)
	}
	if err := asAdmin.Update(ctx, "new", models.CourseFields{Title: "Concurrency 2", Description: "more"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := asAdmin.Delete(ctx, "new"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestSetRole(t *testing.T) {
	api := &fakeAPI{}
	ctx := context.Background()

	if err := NewUsers(api, student, nil, logger.Nop()).SetRole(ctx, "u2", "admin"); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	u := NewUsers(api, admin, nil, logger.Nop())
	if err := u.SetRole(ctx, "u2", "wizard"); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := u.SetRole(ctx, "a1", "student"); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("self demotion should be refused, got %v", err)
	}
	if err := u.SetRole(ctx, "u2", " Instructor "); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if api.updates["u2"].Role != "instructor" {
		t.Fatalf("updates = %+v", api.updates)
	}
	if err := u.Delete(ctx, "a1"); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("self delete should be refused")
	}
}

func TestLeaderboardRanksByPoints(t *testing.T) {
	users := []models.User{
		{ID: "u1", Fullname: "Carol", Points: 40},
		{ID: "u2", Fullname: "alice", Points: 90},
		{ID: "u3", Fullname: "Bob", Points: 40},
		{ID: "u4", Fullname: "Dan", Points: 5},
	}
	got := Leaderboard(users, 0)
	want := []struct {
		id   string
		rank int
	}{{"u2", 1}, {"u3", 2}, {"u1", 2}, {"u4", 4}}
	for i, w := range want {
		if got[i].UserID != w.id || got[i].Rank != w.rank {
			t.Fatalf("position %d: got %+v want %+v", i, got[i], w)
		}
	}
	if top := Leaderboard(users, 2); len(top) != 2 {
		t.Fatalf("limit not applied: %d", len(top))
	}
}

func TestLessonsSortedByOrder(t *testing.T) {
	api := &fakeAPI{lessons: []models.Lesson{{ID: "l2", Order: 2}, {ID: "l1", Order: 1}}}
	got, err := Lessons(context.Background(), api, "c1")
	if err != nil || got[0].ID != "l1" {
		t.Fatalf("lessons = %+v err=%v", got, err)
	}
}

func TestSendMessage(t *testing.T) {
	api := &fakeAPI{}
	ctx := context.Background()

	if _, sent, err := SendMessage(ctx, api, "u1", "u2", "  "); err != nil || sent {
		t.Fatalf("blank message should be a no-op: sent=%v err=%v", sent, err)
	}
	if len(api.sent) != 0 {
		t.Fatalf("blank message sent")
	}
	msg, sent, err := SendMessage(ctx, api, "u1", "u2", " hi ")
	if err != nil || !sent || msg.Content != "hi" {
		t.Fatalf("send: %+v %v %v", msg, sent, err)
	}
	if _, _, err := SendMessage(ctx, api, "u1", "", "hi"); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConversation(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	all := []models.Message{
		{ID: "3", SenderID: models.NewRef("u2"), ReceiverID: models.NewRef("u1"), CreatedAt: t0.Add(2 * time.Minute)},
		{ID: "1", SenderID: models.NewRef("u1"), ReceiverID: models.NewRef("u2"), CreatedAt: t0},
		{ID: "x", SenderID: models.NewRef("u3"), ReceiverID: models.NewRef("u1"), CreatedAt: t0},
	}
	got := Conversation(all, "u1", "u2")
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("conversation = %+v", got)
	}
}
