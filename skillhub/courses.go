package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"skillhub/internal/catalog"
	"skillhub/internal/models"
	"skillhub/internal/quiz"
	"skillhub/internal/session"
)

func cmdCourses(ctx context.Context, args []string) error {
	const u = "courses <list|show|enroll|create|update|delete>"
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return cmdCoursesList(ctx, args)
	}
	switch args[0] {
	case "list":
		return cmdCoursesList(ctx, args[1:])
	case "show":
		return cmdCoursesShow(ctx, args[1:])
	case "enroll":
		return cmdCoursesEnroll(ctx, args[1:])
	case "create":
		return cmdCoursesCreate(ctx, args[1:])
	case "update":
		return cmdCoursesUpdate(ctx, args[1:])
	case "delete":
		return cmdCoursesDelete(ctx, args[1:])
	default:
		return usageErr(u)
	}
}

func cmdCoursesList(ctx context.Context, args []string) error {
	fs := newFlagSet("courses list")
	out := addOutputFlags(fs)
	if _, err := parseInterspersedFlags(fs, args); err != nil {
		return err
	}
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()
	list, err := catalog.NewCourses(a.api, a.sess, a.toast, a.log).List(ctx)
	if err != nil {
		return err
	}
	payload, err := listPayload("courses", list)
	if err != nil {
		return err
	}
	return out.print(a.cfg, payload)
}

func cmdCoursesShow(ctx context.Context, args []string) error {
	fs := newFlagSet("courses show")
	out := addOutputFlags(fs)
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) != 1 {
		return usageErr("courses show <course-id>")
	}
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()
	course, err := catalog.NewCourses(a.api, a.sess, a.toast, a.log).Get(ctx, positionals[0])
	if err != nil {
		return err
	}
	payload, err := itemPayload(course)
	if err != nil {
		return err
	}
	return out.print(a.cfg, payload)
}

func cmdCoursesEnroll(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageErr("courses enroll <course-id>")
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	courses := catalog.NewCourses(a.api, a.sess, a.toast, a.log)
	course, err := courses.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if course.EnrolledBy(a.sess.UserID) {
		fmt.Printf("already enrolled in %s\n", course.Title)
		return nil
	}
	return courses.Enroll(ctx, course)
}

type courseFlags struct {
	title, description, category, thumbnail *string
	price                                   *float64
}

func addCourseFlags(fs *flag.FlagSet) courseFlags {
	return courseFlags{
		title:       fs.String("title", "", "Course title"),
		description: fs.String("description", "", "Course description"),
		category:    fs.String("category", "", "Category"),
		thumbnail:   fs.String("thumbnail", "", "Thumbnail URL"),
		price:       fs.Float64("price", 0, "Price"),
	}
}

// apply overwrites the fields of f whose flags were given on the command line.
func (c courseFlags) apply(fs *flag.FlagSet, f models.CourseFields) models.CourseFields {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "title":
			f.Title = *c.title
		case "description":
			f.Description = *c.description
		case "category":
			f.Category = *c.category
		case "thumbnail":
			f.Thumbnail = *c.thumbnail
		case "price":
			f.Price = *c.price
		}
	})
	return f
}

func cmdCoursesCreate(ctx context.Context, args []string) error {
	fs := newFlagSet("courses create")
	cf := addCourseFlags(fs)
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) != 0 {
		return usageErr("courses create --title t --description d [--category c] [--price n] [--thumbnail url]")
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	created, err := catalog.NewCourses(a.api, a.sess, a.toast, a.log).Create(ctx, cf.apply(fs, models.CourseFields{}))
	if err != nil {
		return err
	}
	return printJSON(created)
}

func cmdCoursesUpdate(ctx context.Context, args []string) error {
	fs := newFlagSet("courses update")
	cf := addCourseFlags(fs)
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) != 1 {
		return usageErr("courses update <course-id> [--title t] [--description d] [--category c] [--price n] [--thumbnail url]")
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	courses := catalog.NewCourses(a.api, a.sess, a.toast, a.log)
	current, err := courses.Get(ctx, positionals[0])
	if err != nil {
		return err
	}
	fields := cf.apply(fs, models.CourseFields{
		Title:       current.Title,
		Description: current.Description,
		Category:    current.Category,
		Price:       current.Price,
		Thumbnail:   current.Thumbnail,
	})
	return courses.Update(ctx, current.ID, fields)
}

func cmdCoursesDelete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageErr("courses delete <course-id>")
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	return catalog.NewCourses(a.api, a.sess, a.toast, a.log).Delete(ctx, args[0])
}

func cmdLessons(ctx context.Context, args []string) error {
	fs := newFlagSet("lessons")
	out := addOutputFlags(fs)
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) != 1 {
		return usageErr("lessons <course-id>")
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	lessons, err := catalog.Lessons(ctx, a.api, positionals[0])
	if err != nil {
		return err
	}
	payload, err := listPayload("lessons", lessons)
	if err != nil {
		return err
	}
	return out.print(a.cfg, payload)
}

// cmdLearn reads or advances the local learning-time counter of a course.
func cmdLearn(ctx context.Context, args []string) error {
	fs := newFlagSet("learn")
	add := fs.Duration("add", 0, "Time to add, e.g. 15m")
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) != 1 || *add < 0 {
		return usageErr("learn <course-id> [--add 15m]")
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	sess, err := session.Require(a.ctx(ctx))
	if err != nil {
		return err
	}
	clock := session.NewLearningClock(a.local)
	var total time.Duration
	if *add > 0 {
		total, err = clock.Add(ctx, sess.UserID, positionals[0], *add)
	} else {
		total, err = clock.Get(ctx, sess.UserID, positionals[0])
	}
	if err != nil {
		return err
	}
	fmt.Printf("learning time: %s\n", total)
	return nil
}

// cmdQuiz runs a course quiz interactively on stdin. Answers are option
// numbers; "s" skips and "q" quits.
func cmdQuiz(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageErr("quiz <course-id>")
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	runner := quiz.NewRunner(func(points int) {
		a.toast.Success(fmt.Sprintf("Correct! +%d points", points))
	})
	if err := quiz.Load(ctx, a.api, args[0], runner); err != nil {
		return err
	}
	in := bufio.NewScanner(stdin)
	for runner.State() == quiz.ShowingQuestion {
		q, _ := runner.Current()
		fmt.Printf("\nQuestion %d/%d (%d pts): %s\n", runner.Index()+1, runner.Total(), q.Points, q.Text)
		for i, opt := range q.Options {
			fmt.Printf("  %d) %s\n", i+1, opt.Text)
		}
		fmt.Print("> ")
		if !in.Scan() {
			break
		}
		answer := strings.TrimSpace(in.Text())
		switch answer {
		case "q":
			fmt.Printf("quiz stopped: %d points\n", runner.Points())
			return nil
		case "s":
			if err := runner.Skip(); err != nil {
				return err
			}
			continue
		}
		n, err := strconv.Atoi(answer)
		if err == nil {
			err = runner.Select(n - 1)
		}
		if err != nil {
			fmt.Println("enter an option number, s to skip or q to quit")
			continue
		}
		if res, err := runner.Submit(); err != nil {
			return err
		} else if !res.Correct {
			fmt.Println("Incorrect")
		}
	}
	if err := in.Err(); err != nil {
		return err
	}
	if runner.State() != quiz.Completed {
		return errors.New("quiz aborted: input closed")
	}
	fmt.Printf("quiz complete: %d points\n", runner.Points())
	return nil
}
