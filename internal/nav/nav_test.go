package nav

import (
	"context"
	"errors"
	"testing"
)

func TestBeginCancelsPreviousNavigation(t *testing.T) {
	n := New()
	first := n.Begin(context.Background())
	second := n.Begin(context.Background())

	if !errors.Is(first.Err(), context.Canceled) {
		t.Fatalf("first navigation should be cancelled, got %v", first.Err())
	}
	if second.Err() != nil {
		t.Fatalf("current navigation should be live, got %v", second.Err())
	}
	if n.Seq() != 2 {
		t.Fatalf("seq = %d, want 2", n.Seq())
	}

	n.Close()
	if !errors.Is(second.Err(), context.Canceled) {
		t.Fatalf("Close should cancel the current navigation")
	}
}

func TestBeginFollowsCallerContext(t *testing.T) {
	n := New()
	defer n.Close()
	parent, cancel := context.WithCancel(context.Background())
	ctx := n.Begin(parent)

	cancel()
	if !errors.Is(ctx.Err(), context.Canceled) {
		t.Fatalf("navigation should end with its caller, got %v", ctx.Err())
	}
}
