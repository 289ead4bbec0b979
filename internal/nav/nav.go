// Package nav scopes in-flight requests to the view that issued them.
// Starting a navigation cancels the context of the previous one, so
// responses that arrive after the user moved on are aborted instead of
// resolving into stale state.
package nav

import (
	"context"
	"sync"
)

type Navigator struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	seq    uint64
}

func New() *Navigator {
	return &Navigator{}
}

// Begin cancels the current navigation and returns the context of a new
// one derived from ctx.
func (n *Navigator) Begin(ctx context.Context) context.Context {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.seq++
	return ctx
}

// Seq is the number of navigations started so far.
func (n *Navigator) Seq() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.seq
}

// Close cancels the current navigation.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
}
