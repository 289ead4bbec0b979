package session

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// LearningTimeKey is the storage key of a per-course learning counter.
func LearningTimeKey(userID, courseID string) string {
	return "learningTime_" + userID + "_" + courseID
}

// LearningClock accumulates time spent on a course in whole seconds.
type LearningClock struct {
	st Storage
}

func NewLearningClock(st Storage) *LearningClock {
	return &LearningClock{st: st}
}

func (c *LearningClock) Get(ctx context.Context, userID, courseID string) (time.Duration, error) {
	raw, ok, err := c.st.Get(ctx, LearningTimeKey(userID, courseID))
	if err != nil || !ok {
		return 0, err
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// a corrupt counter restarts from zero rather than blocking the page
		return 0, nil
	}
	return time.Duration(secs) * time.Second, nil
}

// Add increases the counter by d (truncated to seconds) and returns the total.
func (c *LearningClock) Add(ctx context.Context, userID, courseID string, d time.Duration) (time.Duration, error) {
	if userID == "" || courseID == "" {
		return 0, fmt.Errorf("learning time needs user and course ids")
	}
	current, err := c.Get(ctx, userID, courseID)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		d = 0
	}
	total := current + d.Truncate(time.Second)
	if err := c.st.Set(ctx, LearningTimeKey(userID, courseID), strconv.FormatInt(int64(total/time.Second), 10)); err != nil {
		return 0, err
	}
	return total, nil
}
