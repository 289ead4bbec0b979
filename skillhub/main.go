package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	// a missing .env is fine; explicit env vars still win
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	args, verbose := extractBoolFlag(args, "verbose")
	configureLogging(verbose)
	if len(args) == 0 {
		return usage()
	}
	switch args[0] {
	case "login":
		return cmdLogin(ctx, args[1:])
	case "logout":
		return cmdLogout(ctx)
	case "status":
		return cmdStatus(ctx, args[1:])
	case "whoami":
		return cmdWhoAmI(ctx, args[1:])
	case "courses":
		return cmdCourses(ctx, args[1:])
	case "lessons":
		return cmdLessons(ctx, args[1:])
	case "learn":
		return cmdLearn(ctx, args[1:])
	case "quiz":
		return cmdQuiz(ctx, args[1:])
	case "users":
		return cmdUsers(ctx, args[1:])
	case "leaderboard":
		return cmdLeaderboard(ctx, args[1:])
	case "messages":
		return cmdMessages(ctx, args[1:])
	case "community", "communities":
		return cmdCommunity(ctx, args[1:])
	case "notifications":
		return cmdNotifications(ctx, args[1:])
	case "report", "reports":
		return cmdReport(ctx, args[1:])
	default:
		return usage()
	}
}

// extractBoolFlag removes --name (or --name=true|false) from anywhere in
// args and reports whether it was set.
func extractBoolFlag(args []string, name string) ([]string, bool) {
	out := make([]string, 0, len(args))
	set := false
	for i, arg := range args {
		trimmed := strings.TrimLeft(strings.TrimSpace(arg), "-")
		switch {
		case arg == "--":
			return append(out, args[i:]...), set
		case strings.HasPrefix(arg, "-") && trimmed == name:
			set = true
		case strings.HasPrefix(arg, "-") && strings.HasPrefix(trimmed, name+"="):
			set = strings.TrimPrefix(trimmed, name+"=") == "true"
		default:
			out = append(out, arg)
		}
	}
	return out, set
}

func usage() error {
	return errors.New(`usage:
  skillhub login <url> --email <email> [--password p] [--in-dir]
  skillhub logout
  skillhub status
  skillhub whoami
  skillhub courses list
  skillhub courses show <course-id>
  skillhub courses enroll <course-id>
  skillhub courses create --title t --description d [--category c] [--price n] [--thumbnail url]
  skillhub courses update <course-id> [--title t] [--description d] [--category c] [--price n] [--thumbnail url]
  skillhub courses delete <course-id>
  skillhub lessons <course-id>
  skillhub learn <course-id> [--add 15m]
  skillhub quiz <course-id>
  skillhub users list
  skillhub users show <user-id>
  skillhub users role <user-id> <student|instructor|admin>
  skillhub users delete <user-id>
  skillhub leaderboard [--limit n]
  skillhub messages [peer-id]
  skillhub messages send <peer-id> [content]
  skillhub community list
  skillhub community show <community-id>
  skillhub community members <community-id>
  skillhub community join <community-id>
  skillhub community leave <community-id>
  skillhub community post <community-id> [content]
  skillhub community like <community-id> <post-id>
  skillhub community comment <community-id> <post-id> [content]
  skillhub community reply <community-id> <post-id> <comment-id> [content]
  skillhub community pin <community-id> <post-id>
  skillhub community unpin <community-id> <post-id>
  skillhub community update <community-id> --name n [--description d] [--cover url]
  skillhub community promote <community-id> <user-id>
  skillhub community remove <community-id> <user-id>
  skillhub notifications [list] [--unread]
  skillhub notifications read <notification-id>
  skillhub notifications watch [--interval 20s]
  skillhub report submit --type abuse|inappropriate|bug --target-type User|Course|Post|Comment --target <id> [description]
  skillhub report list
  skillhub report show <report-id>
  skillhub report resolve <report-id>
  skillhub report delete <report-id>

global flags:
  --verbose        debug logging on stderr
  --format f       json|table|plain|md (list commands)
  --quiet          print identifiers only`)
}
