// Package quiz runs a course's question set one question at a time and
// keeps the learner's score.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"skillhub/internal/models"
)

type State int

const (
	Idle State = iota
	ShowingQuestion
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ShowingQuestion:
		return "showing_question"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	ErrNoAnswer     = errors.New("select an answer first")
	ErrNotRunning   = errors.New("quiz is not showing a question")
	ErrInvalidIndex = errors.New("option index out of range")
)

// Celebrator is notified with the points won on every correct answer.
type Celebrator func(points int)

// Result describes how a submitted answer was scored.
type Result struct {
	Correct bool
	Awarded int
}

// Runner is not persisted; a finished quiz only exposes its total.
type Runner struct {
	mu        sync.Mutex
	questions []models.Question
	index     int
	selected  int
	points    int
	state     State
	celebrate Celebrator
}

func NewRunner(celebrate Celebrator) *Runner {
	return &Runner{selected: -1, celebrate: celebrate}
}

// Start resets the runner onto the first question. An empty question set
// completes immediately.
func (r *Runner) Start(questions []models.Question) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions = append([]models.Question(nil), questions...)
	r.index = 0
	r.selected = -1
	r.points = 0
	r.state = ShowingQuestion
	if len(r.questions) == 0 {
		r.state = Completed
	}
}

func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) Points() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.points
}

// Index is the zero-based position of the current question.
func (r *Runner) Index() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index
}

func (r *Runner) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.questions)
}

// Current returns the question on screen.
func (r *Runner) Current() (models.Question, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != ShowingQuestion {
		return models.Question{}, false
	}
	return r.questions[r.index], true
}

func (r *Runner) Select(option int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != ShowingQuestion {
		return ErrNotRunning
	}
	if option < 0 || option >= len(r.questions[r.index].Options) {
		return ErrInvalidIndex
	}
	r.selected = option
	return nil
}

// Submit scores the selected option and moves on whether or not it was
// correct.
func (r *Runner) Submit() (Result, error) {
	r.mu.Lock()
	if r.state != ShowingQuestion {
		r.mu.Unlock()
		return Result{}, ErrNotRunning
	}
	if r.selected < 0 {
		r.mu.Unlock()
		return Result{}, ErrNoAnswer
	}
	q := r.questions[r.index]
	var res Result
	if q.Options[r.selected].IsCorrect {
		res = Result{Correct: true, Awarded: q.Points}
		r.points += q.Points
	}
	r.advance()
	celebrate := r.celebrate
	r.mu.Unlock()

	if res.Correct && celebrate != nil {
		celebrate(res.Awarded)
	}
	return res, nil
}

// Skip moves on without scoring.
func (r *Runner) Skip() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != ShowingQuestion {
		return ErrNotRunning
	}
	r.advance()
	return nil
}

func (r *Runner) advance() {
	r.selected = -1
	r.index++
	if r.index >= len(r.questions) {
		r.index = len(r.questions)
		r.state = Completed
	}
}

type API interface {
	ListQuestions(ctx context.Context, courseID string) ([]models.Question, error)
}

// Load fetches a course's questions and starts r on them.
func Load(ctx context.Context, api API, courseID string, r *Runner) error {
	qs, err := api.ListQuestions(ctx, courseID)
	if err != nil {
		return fmt.Errorf("load questions for course %s: %w", courseID, err)
	}
	r.Start(qs)
	return nil
}
