package catalog

import (
	"context"
	"sort"

	"skillhub/internal/models"
)

type LessonAPI interface {
	ListLessons(ctx context.Context, courseID string) ([]models.Lesson, error)
}

// Lessons returns a course's lessons in display order.
func Lessons(ctx context.Context, api LessonAPI, courseID string) ([]models.Lesson, error) {
	lessons, err := api.ListLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(lessons, func(i, j int) bool { return lessons[i].Order < lessons[j].Order })
	return lessons, nil
}
