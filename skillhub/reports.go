package main

import (
	"context"
	"fmt"

	"skillhub/internal/report"
)

func cmdReport(ctx context.Context, args []string) error {
	const u = "report <submit|list|show|resolve|delete>"
	if len(args) == 0 {
		return usageErr(u)
	}
	switch args[0] {
	case "submit":
		return cmdReportSubmit(ctx, args[1:])
	case "list":
		return cmdReportList(ctx, args[1:])
	case "show":
		return cmdReportShow(ctx, args[1:])
	case "resolve", "delete":
		if len(args) != 2 {
			return usageErr("report " + args[0] + " <report-id>")
		}
		return withQueue(ctx, func(q *report.Admin) error {
			// load first so the queue holds the report being acted on
			if _, err := q.Get(ctx, args[1]); err != nil {
				return err
			}
			if args[0] == "resolve" {
				return q.Resolve(ctx, args[1])
			}
			return q.Delete(ctx, args[1])
		})
	default:
		return usageErr(u)
	}
}

func withQueue(ctx context.Context, fn func(*report.Admin) error) error {
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(report.NewAdmin(a.api, a.sess, a.toast, a.log, nil))
}

func cmdReportSubmit(ctx context.Context, args []string) error {
	fs := newFlagSet("report submit")
	kind := fs.String("type", "", "abuse|inappropriate|bug")
	targetType := fs.String("target-type", "", "User|Course|Post|Comment")
	target := fs.String("target", "", "Target id")
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	description, err := resolveContent(positionals)
	if err != nil {
		return err
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	form := report.NewForm(a.api, a.sess, a.toast, a.log)
	form.Open(*targetType, *target)
	form.SetType(*kind)
	form.SetDescription(description)
	created, err := form.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("report %s filed\n", created.ID)
	return nil
}

func cmdReportList(ctx context.Context, args []string) error {
	fs := newFlagSet("report list")
	out := addOutputFlags(fs)
	if _, err := parseInterspersedFlags(fs, args); err != nil {
		return err
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	list, err := report.NewAdmin(a.api, a.sess, a.toast, a.log, nil).List(ctx)
	if err != nil {
		return err
	}
	payload, err := listPayload("reports", list)
	if err != nil {
		return err
	}
	return out.print(a.cfg, payload)
}

func cmdReportShow(ctx context.Context, args []string) error {
	fs := newFlagSet("report show")
	out := addOutputFlags(fs)
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) != 1 {
		return usageErr("report show <report-id>")
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	r, err := report.NewAdmin(a.api, a.sess, a.toast, a.log, nil).Get(ctx, positionals[0])
	if err != nil {
		return err
	}
	payload, err := itemPayload(r)
	if err != nil {
		return err
	}
	payload["target"] = report.TargetLabel(r)
	return out.print(a.cfg, payload)
}
