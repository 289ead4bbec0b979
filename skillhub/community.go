package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"skillhub/internal/community"
	"skillhub/internal/models"
)

const communityUsage = "community <list|show|members|join|leave|post|like|comment|reply|pin|unpin|update|promote|remove>"

func cmdCommunity(ctx context.Context, args []string) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return cmdCommunityList(ctx, args)
	}
	switch args[0] {
	case "list":
		return cmdCommunityList(ctx, args[1:])
	case "show":
		return cmdCommunityShow(ctx, args[1:])
	case "members":
		return cmdCommunityMembers(ctx, args[1:])
	case "update":
		return cmdCommunityUpdate(ctx, args[1:])
	case "join", "leave":
		if len(args) != 2 {
			return usageErr("community " + args[0] + " <community-id>")
		}
		return withCommunity(ctx, args[1], func(a *app, c *community.Controller) error {
			if args[0] == "join" {
				if c.IsMember() {
					fmt.Println("already a member")
					return nil
				}
				return c.Join(ctx, a.sess.UserID)
			}
			return c.Leave(ctx, a.sess.UserID)
		})
	case "post":
		if len(args) < 2 {
			return usageErr("community post <community-id> [content]")
		}
		content, err := resolveContent(args[2:])
		if err != nil {
			return err
		}
		return withCommunity(ctx, args[1], func(_ *app, c *community.Controller) error {
			c.SetPostDraft(content)
			return c.AddPost(ctx, c.PostDraft())
		})
	case "like":
		if len(args) != 3 {
			return usageErr("community like <community-id> <post-id>")
		}
		return withCommunity(ctx, args[1], func(_ *app, c *community.Controller) error {
			return c.Like(ctx, args[2])
		})
	case "comment":
		if len(args) < 3 {
			return usageErr("community comment <community-id> <post-id> [content]")
		}
		content, err := resolveContent(args[3:])
		if err != nil {
			return err
		}
		return withCommunity(ctx, args[1], func(_ *app, c *community.Controller) error {
			c.SetCommentDraft(args[2], content)
			return c.AddComment(ctx, args[2], c.CommentDraft(args[2]))
		})
	case "reply":
		if len(args) < 4 {
			return usageErr("community reply <community-id> <post-id> <comment-id> [content]")
		}
		content, err := resolveContent(args[4:])
		if err != nil {
			return err
		}
		return withCommunity(ctx, args[1], func(_ *app, c *community.Controller) error {
			c.SetReplyDraft(args[3], content)
			return c.AddReply(ctx, args[2], args[3], c.ReplyDraft(args[3]))
		})
	case "pin", "unpin":
		if len(args) != 3 {
			return usageErr("community " + args[0] + " <community-id> <post-id>")
		}
		return withCommunity(ctx, args[1], func(_ *app, c *community.Controller) error {
			post, ok := findPost(c.Posts(), args[2])
			if !ok {
				return fmt.Errorf("post %s not found in community feed", args[2])
			}
			want := args[0] == "pin"
			if post.IsPinned == want {
				fmt.Printf("post already %sned\n", args[0])
				return nil
			}
			return c.PinToggle(ctx, post.ID, post.IsPinned)
		})
	case "promote", "remove":
		if len(args) != 3 {
			return usageErr("community " + args[0] + " <community-id> <user-id>")
		}
		return withCommunity(ctx, args[1], func(_ *app, c *community.Controller) error {
			if args[0] == "promote" {
				return c.PromoteMember(ctx, args[2])
			}
			return c.RemoveMember(ctx, args[2])
		})
	default:
		return usageErr(communityUsage)
	}
}

// withCommunity loads one community page and hands its controller to fn.
func withCommunity(ctx context.Context, id string, fn func(*app, *community.Controller) error) error {
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	c := community.NewController(a.api, a.sess, a.toast, a.log)
	defer c.Close()
	if err := c.LoadCommunity(ctx, id); err != nil {
		return err
	}
	return fn(a, c)
}

func findPost(posts []models.Post, id string) (models.Post, bool) {
	for _, p := range posts {
		if models.SameID(p.ID, id) {
			return p, true
		}
	}
	return models.Post{}, false
}

func cmdCommunityList(ctx context.Context, args []string) error {
	fs := newFlagSet("community list")
	out := addOutputFlags(fs)
	if _, err := parseInterspersedFlags(fs, args); err != nil {
		return err
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	list, err := a.api.ListCommunities(ctx)
	if err != nil {
		return err
	}
	payload, err := listPayload("communities", list)
	if err != nil {
		return err
	}
	return out.print(a.cfg, payload)
}

func cmdCommunityShow(ctx context.Context, args []string) error {
	fs := newFlagSet("community show")
	out := addOutputFlags(fs)
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) != 1 {
		return usageErr("community show <community-id>")
	}
	return withCommunity(ctx, positionals[0], func(a *app, c *community.Controller) error {
		comm, _ := c.Community()
		payload, err := listPayload("posts", c.Feed())
		if err != nil {
			return err
		}
		if payload["community"], err = itemPayload(comm); err != nil {
			return err
		}
		payload["member"] = c.IsMember()
		payload["moderator"] = c.CanModerate()
		return out.print(a.cfg, payload)
	})
}

func cmdCommunityMembers(ctx context.Context, args []string) error {
	fs := newFlagSet("community members")
	out := addOutputFlags(fs)
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) != 1 {
		return usageErr("community members <community-id>")
	}
	return withCommunity(ctx, positionals[0], func(a *app, c *community.Controller) error {
		comm, _ := c.Community()
		payload, err := listPayload("members", comm.Members)
		if err != nil {
			return err
		}
		return out.print(a.cfg, payload)
	})
}

func cmdCommunityUpdate(ctx context.Context, args []string) error {
	fs := newFlagSet("community update")
	name := fs.String("name", "", "Community name")
	description := fs.String("description", "", "Description")
	cover := fs.String("cover", "", "Cover image URL")
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) != 1 {
		return usageErr("community update <community-id> --name n [--description d] [--cover url]")
	}
	return withCommunity(ctx, positionals[0], func(_ *app, c *community.Controller) error {
		comm, _ := c.Community()
		fields := models.CommunityFields{Name: comm.Name, Description: comm.Description, CoverImage: comm.CoverImage}
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "name":
				fields.Name = *name
			case "description":
				fields.Description = *description
			case "cover":
				fields.CoverImage = *cover
			}
		})
		return c.UpdateCommunity(ctx, fields)
	})
}
