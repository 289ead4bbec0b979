package main

import (
	"context"
	"fmt"
	"strings"

	"skillhub/internal/catalog"
)

func cmdUsers(ctx context.Context, args []string) error {
	const u = "users <list|show|role|delete>"
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return cmdUsersList(ctx, args)
	}
	switch args[0] {
	case "list":
		return cmdUsersList(ctx, args[1:])
	case "show":
		return cmdUsersShow(ctx, args[1:])
	case "role":
		if len(args) != 3 {
			return usageErr("users role <user-id> <student|instructor|admin>")
		}
		return withUsers(ctx, func(users *catalog.Users) error {
			return users.SetRole(ctx, args[1], args[2])
		})
	case "delete":
		if len(args) != 2 {
			return usageErr("users delete <user-id>")
		}
		return withUsers(ctx, func(users *catalog.Users) error {
			return users.Delete(ctx, args[1])
		})
	default:
		return usageErr(u)
	}
}

func withUsers(ctx context.Context, fn func(*catalog.Users) error) error {
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(catalog.NewUsers(a.api, a.sess, a.toast, a.log))
}

func cmdUsersList(ctx context.Context, args []string) error {
	fs := newFlagSet("users list")
	out := addOutputFlags(fs)
	if _, err := parseInterspersedFlags(fs, args); err != nil {
		return err
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	list, err := catalog.NewUsers(a.api, a.sess, a.toast, a.log).List(ctx)
	if err != nil {
		return err
	}
	payload, err := listPayload("users", list)
	if err != nil {
		return err
	}
	return out.print(a.cfg, payload)
}

func cmdUsersShow(ctx context.Context, args []string) error {
	fs := newFlagSet("users show")
	out := addOutputFlags(fs)
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) != 1 {
		return usageErr("users show <user-id>")
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	user, err := catalog.NewUsers(a.api, a.sess, a.toast, a.log).Get(ctx, positionals[0])
	if err != nil {
		return err
	}
	payload, err := itemPayload(user)
	if err != nil {
		return err
	}
	return out.print(a.cfg, payload)
}

func cmdLeaderboard(ctx context.Context, args []string) error {
	fs := newFlagSet("leaderboard")
	limit := fs.Int("limit", 10, "Number of entries (0 for all)")
	out := addOutputFlags(fs)
	if _, err := parseInterspersedFlags(fs, args); err != nil {
		return err
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	entries, err := catalog.NewUsers(a.api, a.sess, a.toast, a.log).Leaderboard(ctx, *limit)
	if err != nil {
		return err
	}
	payload, err := listPayload("leaderboard", entries)
	if err != nil {
		return err
	}
	return out.print(a.cfg, payload)
}

func cmdMessages(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "send" {
		return cmdMessagesSend(ctx, args[1:])
	}
	fs := newFlagSet("messages")
	out := addOutputFlags(fs)
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) > 1 {
		return usageErr("messages [peer-id]")
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	all, err := a.api.ListMessages(ctx, a.sess.UserID)
	if err != nil {
		return err
	}
	if len(positionals) == 1 {
		all = catalog.Conversation(all, a.sess.UserID, positionals[0])
	}
	payload, err := listPayload("messages", all)
	if err != nil {
		return err
	}
	return out.print(a.cfg, payload)
}

func cmdMessagesSend(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usageErr("messages send <peer-id> [content]")
	}
	content, err := resolveContent(args[1:])
	if err != nil {
		return err
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	msg, sent, err := catalog.SendMessage(ctx, a.api, a.sess.UserID, args[0], content)
	if err != nil {
		return err
	}
	if !sent {
		fmt.Println("nothing to send")
		return nil
	}
	fmt.Printf("sent %s\n", msg.ID)
	return nil
}
