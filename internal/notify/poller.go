// Package notify surfaces new server-side notifications as toasts by
// polling the backend on a fixed interval.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"skillhub/internal/models"
	"skillhub/internal/toast"
)

const DefaultInterval = 20 * time.Second

type API interface {
	ListNotifications(ctx context.Context, userID string) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

type Config struct {
	UserID   string
	Interval time.Duration
	Toaster  toast.Toaster
	Log      zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Poller delivers each notification at most once per mount, best effort.
// lastSeen lives in memory only, so anything created while no poller runs
// is never toasted.
type Poller struct {
	api      API
	userID   string
	interval time.Duration
	toaster  toast.Toaster
	log      zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// New creates a poller whose lastSeen starts at the current time.
func New(api API, cfg Config) *Poller {
	p := &Poller{
		api:      api,
		userID:   cfg.UserID,
		interval: cfg.Interval,
		toaster:  cfg.Toaster,
		log:      cfg.Log.With().Str("component", "notify").Logger(),
		now:      cfg.Now,
	}
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	if p.toaster == nil {
		p.toaster = toast.Discard{}
	}
	if p.now == nil {
		p.now = time.Now
	}
	p.lastSeen = p.now()
	return p
}

func (p *Poller) LastSeen() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSeen
}

// Run polls once immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	if _, err := p.Poll(ctx); err != nil && ctx.Err() == nil {
		p.log.Warn().Err(err).Msg("poll notifications")
	}
}

// Poll fetches the user's notifications once and toasts the ones created
// after lastSeen. It returns the toasted items. lastSeen only moves on a
// successful fetch.
func (p *Poller) Poll(ctx context.Context) ([]models.Notification, error) {
	items, err := p.api.ListNotifications(ctx, p.userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	p.mu.Lock()
	fresh := Fresh(items, p.lastSeen)
	p.lastSeen = p.now()
	p.mu.Unlock()

	for _, n := range fresh {
		p.toaster.Info(n.Message)
	}
	if len(fresh) > 0 {
		p.log.Debug().Int("count", len(fresh)).Msg("new notifications")
	}
	return fresh, nil
}

// MarkRead marks a single notification as read.
func (p *Poller) MarkRead(ctx context.Context, id string) error {
	if err := p.api.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	return nil
}

// Fresh returns the items created strictly after lastSeen, in input order.
func Fresh(items []models.Notification, lastSeen time.Time) []models.Notification {
	var out []models.Notification
	for _, n := range items {
		if n.CreatedAt.After(lastSeen) {
			out = append(out, n)
		}
	}
	return out
}

// Unread filters items down to the ones not yet marked read.
func Unread(items []models.Notification) []models.Notification {
	var out []models.Notification
	for _, n := range items {
		if !n.Read {
			out = append(out, n)
		}
	}
	return out
}
