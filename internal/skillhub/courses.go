package skillhub

import (
	"context"

	"skillhub/internal/models"
)

func (a *API) ListCourses(ctx context.Context) ([]models.Course, error) {
	var out []models.Course
	err := a.c.Get(ctx, "/courses", &out)
	return out, err
}

func (a *API) GetCourse(ctx context.Context, id string) (models.Course, error) {
	var out models.Course
	err := a.c.Get(ctx, "/course/"+esc(id), &out)
	return out, err
}

func (a *API) CreateCourse(ctx context.Context, fields models.CourseFields) (models.Course, error) {
	var out models.Course
	err := a.c.Post(ctx, "/course", fields, &out)
	return out, err
}

func (a *API) UpdateCourse(ctx context.Context, id string, fields models.CourseFields) error {
	return a.c.Patch(ctx, "/course/"+esc(id), fields, nil)
}

func (a *API) DeleteCourse(ctx context.Context, id string) error {
	return a.c.Delete(ctx, "/course/"+esc(id), nil)
}

func (a *API) EnrollCourse(ctx context.Context, id, userID string) error {
	return a.c.Post(ctx, "/course/"+esc(id)+"/enroll", map[string]string{"userId": userID}, nil)
}

func (a *API) ListLessons(ctx context.Context, courseID string) ([]models.Lesson, error) {
	var out []models.Lesson
	err := a.c.Get(ctx, "/lessons/"+esc(courseID), &out)
	return out, err
}

func (a *API) ListQuestions(ctx context.Context, courseID string) ([]models.Question, error) {
	var out []models.Question
	err := a.c.Get(ctx, "/questions/"+esc(courseID), &out)
	return out, err
}

// Users

type UserUpdate struct {
	Fullname string `json:"fullname,omitempty"`
	Role     string `json:"role,omitempty"`
}

func (a *API) ListUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := a.c.Get(ctx, "/users", &out)
	return out, err
}

func (a *API) GetUser(ctx context.Context, id string) (models.User, error) {
	var out models.User
	err := a.c.Get(ctx, "/user/"+esc(id), &out)
	return out, err
}

func (a *API) UpdateUser(ctx context.Context, id string, u UserUpdate) error {
	return a.c.Patch(ctx, "/user/"+esc(id), u, nil)
}

func (a *API) DeleteUser(ctx context.Context, id string) error {
	return a.c.Delete(ctx, "/user/"+esc(id), nil)
}

// Messages

type NewMessage struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

func (a *API) ListMessages(ctx context.Context, userID string) ([]models.Message, error) {
	var out []models.Message
	err := a.c.Get(ctx, "/messages/"+esc(userID), &out)
	return out, err
}

func (a *API) SendMessage(ctx context.Context, m NewMessage) (models.Message, error) {
	var out models.Message
	err := a.c.Post(ctx, "/messages", m, &out)
	return out, err
}
