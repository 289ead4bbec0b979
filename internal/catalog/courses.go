// Package catalog holds the course, user, lesson, leaderboard and messaging
// views. Like the community feed, every mutation goes to the server first
// and the caller re-reads what it shows.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"skillhub/internal/apperrors"
	"skillhub/internal/models"
	"skillhub/internal/session"
	"skillhub/internal/toast"
	"skillhub/internal/validation"
)

type CourseAPI interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, id string) (models.Course, error)
	CreateCourse(ctx context.Context, fields models.CourseFields) (models.Course, error)
	UpdateCourse(ctx context.Context, id string, fields models.CourseFields) error
	DeleteCourse(ctx context.Context, id string) error
	EnrollCourse(ctx context.Context, id, userID string) error
}

type Courses struct {
	api     CourseAPI
	sess    session.Session
	toaster toast.Toaster
	log     zerolog.Logger
}

func NewCourses(api CourseAPI, sess session.Session, toaster toast.Toaster, log zerolog.Logger) *Courses {
	if toaster == nil {
		toaster = toast.Discard{}
	}
	return &Courses{api: api, sess: sess, toaster: toaster, log: log.With().Str("component", "courses").Logger()}
}

func (c *Courses) List(ctx context.Context) ([]models.Course, error) {
	courses, err := c.api.ListCourses(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("list courses")
		c.toaster.Error("Failed to load courses")
		return nil, err
	}
	return courses, nil
}

// Get loads one course. A missing course yields a not-found error whose
// message is fit for display.
func (c *Courses) Get(ctx context.Context, id string) (models.Course, error) {
	course, err := c.api.GetCourse(ctx, id)
	if err != nil {
		c.log.Error().Err(err).Str("course_id", id).Msg("get course")
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return models.Course{}, apperrors.NewNotFoundError("Course not found")
		}
		c.toaster.Error("Failed to load course")
		return models.Course{}, err
	}
	return course, nil
}

// Enroll signs the session user up for a course. Enrolled users are not
// re-enrolled.
func (c *Courses) Enroll(ctx context.Context, course models.Course) error {
	if !c.sess.Authenticated() {
		return apperrors.ErrNotConnected
	}
	if course.EnrolledBy(c.sess.UserID) {
		return nil
	}
	if err := c.api.EnrollCourse(ctx, course.ID, c.sess.UserID); err != nil {
		c.log.Error().Err(err).Str("course_id", course.ID).Msg("enroll")
		c.toaster.Error("Failed to enroll")
		return err
	}
	c.toaster.Success(fmt.Sprintf("Enrolled in %s", course.Title))
	return nil
}

func (c *Courses) requireAdmin() error {
	if !c.sess.IsAdmin() {
		return apperrors.NewForbiddenError("only admins can manage courses")
	}
	return nil
}

func normalizeCourse(f models.CourseFields) (models.CourseFields, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.Category = strings.TrimSpace(f.Category)
	f.Thumbnail = strings.TrimSpace(f.Thumbnail)
	if err := validation.Struct(f); err != nil {
		return f, err
	}
	return f, nil
}

func (c *Courses) Create(ctx context.Context, fields models.CourseFields) (models.Course, error) {
	if err := c.requireAdmin(); err != nil {
		return models.Course{}, err
	}
	fields, err := normalizeCourse(fields)
	if err != nil {
		c.toaster.Error(err.Error())
		return models.Course{}, err
	}
	created, err := c.api.CreateCourse(ctx, fields)
	if err != nil {
		c.log.Error().Err(err).Msg("create course")
		c.toaster.Error("Failed to create course")
		return models.Course{}, err
	}
	c.toaster.Success("Course created")
	return created, nil
}

func (c *Courses) Update(ctx context.Context, id string, fields models.CourseFields) error {
	if err := c.requireAdmin(); err != nil {
		return err
	}
	fields, err := normalizeCourse(fields)
	if err != nil {
		c.toaster.Error(err.Error())
		return err
	}
	if err := c.api.UpdateCourse(ctx, id, fields); err != nil {
		c.log.Error().Err(err).Str("course_id", id).Msg("update course")
		c.toaster.Error("Failed to update course")
		return err
	}
	c.toaster.Success("Course updated")
	return nil
}

func (c *Courses) Delete(ctx context.Context, id string) error {
	if err := c.requireAdmin(); err != nil {
		return err
	}
	if err := c.api.DeleteCourse(ctx, id); err != nil {
		c.log.Error().Err(err).Str("course_id", id).Msg("delete course")
		c.toaster.Error("Failed to delete course")
		return err
	}
	c.toaster.Success("Course deleted")
	return nil
}
