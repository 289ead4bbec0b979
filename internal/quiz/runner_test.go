package quiz

import (
	"context"
	"errors"
	"testing"

	"skillhub/internal/models"
)

func sampleQuestions() []models.Question {
	return []models.Question{
		{ID: "q1", Text: "What does := do?", Points: 10, Options: []models.Option{
			{Text: "declares and assigns", IsCorrect: true},
			{Text: "compares"},
		}},
		{ID: "q2", Text: "Zero value of a map?", Points: 5, Options: []models.Option{
			{Text: "empty map"},
			{Text: "nil", IsCorrect: true},
		}},
		{ID: "q3", Text: "Is Go garbage collected?", Points: 3, Options: []models.Option{
			{Text: "yes", IsCorrect: true},
			{Text: "no"},
		}},
	}
}

func TestCorrectAnswerAddsExactlyQuestionPoints(t *testing.T) {
	var celebrated []int
	r := NewRunner(func(p int) { celebrated = append(celebrated, p) })
	r.Start(sampleQuestions())

	if err := r.Select(0); err != nil {
		t.Fatalf("select: %v", err)
	}
	res, err := r.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Correct || res.Awarded != 10 || r.Points() != 10 {
		t.Fatalf("expected +10, got %+v points=%d", res, r.Points())
	}
	if len(celebrated) != 1 || celebrated[0] != 10 {
		t.Fatalf("celebration not fired once: %v", celebrated)
	}
	if r.Index() != 1 {
		t.Fatalf("runner did not advance")
	}
}

func TestIncorrectAnswerLeavesPointsAndAdvances(t *testing.T) {
	celebrations := 0
	r := NewRunner(func(int) { celebrations++ })
	r.Start(sampleQuestions())

	_ = r.Select(1)
	res, err := r.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Correct || r.Points() != 0 || celebrations != 0 {
		t.Fatalf("incorrect answer scored: %+v points=%d", res, r.Points())
	}
	if q, _ := r.Current(); q.ID != "q2" {
		t.Fatalf("expected q2, got %s", q.ID)
	}
}

func TestSkipNeverScores(t *testing.T) {
	r := NewRunner(nil)
	r.Start(sampleQuestions())
	_ = r.Select(0)
	if err := r.Skip(); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if r.Points() != 0 {
		t.Fatalf("skip changed points")
	}
	// selection does not carry over to the next question
	if _, err := r.Submit(); !errors.Is(err, ErrNoAnswer) {
		t.Fatalf("expected ErrNoAnswer, got %v", err)
	}
}

func TestSubmitWithoutSelection(t *testing.T) {
	r := NewRunner(nil)
	r.Start(sampleQuestions())
	if _, err := r.Submit(); !errors.Is(err, ErrNoAnswer) {
		t.Fatalf("expected ErrNoAnswer, got %v", err)
	}
	if r.Index() != 0 {
		t.Fatalf("runner advanced without an answer")
	}
}

func TestFullRunCompletesWithTotal(t *testing.T) {
	r := NewRunner(nil)
	if r.State() != Idle {
		t.Fatalf("new runner should be idle")
	}
	r.Start(sampleQuestions())

	_ = r.Select(0)
	_, _ = r.Submit() // +10
	_ = r.Skip()
	_ = r.Select(0)
	_, _ = r.Submit() // +3

	if r.State() != Completed {
		t.Fatalf("state = %s", r.State())
	}
	if r.Points() != 13 {
		t.Fatalf("points = %d", r.Points())
	}
	if _, ok := r.Current(); ok {
		t.Fatalf("completed quiz has no current question")
	}
	if err := r.Skip(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func TestSelectOutOfRange(t *testing.T) {
	r := NewRunner(nil)
	r.Start(sampleQuestions())
	if err := r.Select(5); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex, got %v", err)
	}
}

func TestEmptyQuizCompletesImmediately(t *testing.T) {
	r := NewRunner(nil)
	r.Start(nil)
	if r.State() != Completed || r.Points() != 0 {
		t.Fatalf("empty quiz: state=%s points=%d", r.State(), r.Points())
	}
}

type fakeQuestions struct {
	course string
	err    error
}

func (f *fakeQuestions) ListQuestions(ctx context.Context, courseID string) ([]models.Question, error) {
	f.course = courseID
	return sampleQuestions(), f.err
}

func TestLoadStartsRunner(t *testing.T) {
	api := &fakeQuestions{}
	r := NewRunner(nil)
	if err := Load(context.Background(), api, "c1", r); err != nil {
		t.Fatalf("load: %v", err)
	}
	if api.course != "c1" || r.State() != ShowingQuestion || r.Total() != 3 {
		t.Fatalf("runner not started: course=%s state=%s", api.course, r.State())
	}

	api.err = errors.New("boom")
	r2 := NewRunner(nil)
	if err := Load(context.Background(), api, "c1", r2); err == nil || r2.State() != Idle {
		t.Fatalf("failed load should leave runner idle")
	}
}
