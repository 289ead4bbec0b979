package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"skillhub/internal/notify"
	"skillhub/internal/toast"
)

func cmdNotifications(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return cmdNotificationsList(ctx, nil)
	}
	switch args[0] {
	case "list":
		return cmdNotificationsList(ctx, args[1:])
	case "read":
		return cmdNotificationsRead(ctx, args[1:])
	case "watch":
		return cmdNotificationsWatch(ctx, args[1:])
	default:
		return cmdNotificationsList(ctx, args)
	}
}

func cmdNotificationsList(ctx context.Context, args []string) error {
	fs := newFlagSet("notifications")
	unread := fs.Bool("unread", false, "Only unread notifications")
	out := addOutputFlags(fs)
	if _, err := parseInterspersedFlags(fs, args); err != nil {
		return err
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	items, err := a.api.ListNotifications(ctx, a.sess.UserID)
	if err != nil {
		return err
	}
	if *unread {
		items = notify.Unread(items)
	}
	payload, err := listPayload("notifications", items)
	if err != nil {
		return err
	}
	return out.print(a.cfg, payload)
}

func cmdNotificationsRead(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageErr("notifications read <notification-id>")
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	p := notify.New(a.api, notify.Config{UserID: a.sess.UserID, Log: a.log})
	if err := p.MarkRead(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("marked %s read\n", args[0])
	return nil
}

// cmdNotificationsWatch prints new notifications as they arrive until
// interrupted. Only items created after the watch started are shown.
func cmdNotificationsWatch(ctx context.Context, args []string) error {
	fs := newFlagSet("notifications watch")
	interval := fs.Duration("interval", 0, "Polling interval")
	if _, err := parseInterspersedFlags(fs, args); err != nil {
		return err
	}
	if *interval < 0 {
		return errors.New("invalid --interval")
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	every := *interval
	if every == 0 {
		every = a.cfg.PollInterval(notify.DefaultInterval)
	}
	p := notify.New(a.api, notify.Config{
		UserID:   a.sess.UserID,
		Interval: every,
		Toaster:  toast.NewConsole(os.Stdout),
		Log:      a.log,
	})
	a.log.Debug().Dur("interval", every).Msg("watching notifications")
	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
