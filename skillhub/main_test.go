package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"skillhub/internal/cli/config"
	"skillhub/internal/logger"
	"skillhub/internal/sandbox"
)

func startSandbox(t *testing.T) string {
	t.Helper()
	seed, err := sandbox.LoadSeed("")
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	st, err := sandbox.NewStore(seed, 4, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	srv := httptest.NewServer(sandbox.NewServer(sandbox.DefaultConfig(), st, logger.Nop()).Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func setCLIEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvURL, "")
	t.Setenv(config.EnvStorage, "")
	t.Setenv(config.EnvLogLevel, "error")

	cwd := t.TempDir()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(cwd); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(prev)
	})

	origStdin, origStderr := stdin, stderr
	stderr = io.Discard
	t.Cleanup(func() {
		stdin, stderr = origStdin, origStderr
	})
	return home
}

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("create stdout pipe: %v", err)
	}

	os.Stdout = w
	runErr := fn()
	_ = w.Close()
	os.Stdout = orig

	out, readErr := io.ReadAll(r)
	_ = r.Close()
	if readErr != nil {
		t.Fatalf("read stdout: %v", readErr)
	}
	return string(out), runErr
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return captureStdout(t, func() error {
		return run(context.Background(), args)
	})
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("skillhub %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func loginAs(t *testing.T, baseURL, email, password string) {
	t.Helper()
	out := mustRun(t, "login", baseURL, "--email", email, "--password", password)
	if !strings.Contains(out, "logged in to "+baseURL) {
		t.Fatalf("unexpected login output: %q", out)
	}
}

func TestLoginPersistsSessionForLaterCommands(t *testing.T) {
	home := setCLIEnv(t)
	base := startSandbox(t)
	loginAs(t, base, "ada@skillhub.dev", "password")

	if _, err := os.Stat(filepath.Join(home, ".skillhub", "config.json")); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".skillhub", "storage.db")); err != nil {
		t.Fatalf("session storage not written: %v", err)
	}

	out := mustRun(t, "whoami", "--format", "json")
	var me map[string]any
	if err := json.Unmarshal([]byte(out), &me); err != nil {
		t.Fatalf("whoami output is not json: %v\n%s", err, out)
	}
	if me["fullname"] != "Ada Lovelace" || me["role"] != "student" {
		t.Fatalf("unexpected whoami: %v", me)
	}

	mustRun(t, "logout")
	_, err := runCLI(t, "whoami")
	if err == nil || !strings.Contains(err.Error(), "not connected") {
		t.Fatalf("expected not connected after logout, got %v", err)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	setCLIEnv(t)
	base := startSandbox(t)
	_, err := runCLI(t, "login", base, "--email", "ada@skillhub.dev", "--password", "nope")
	if err == nil || !strings.HasPrefix(err.Error(), "login:") {
		t.Fatalf("expected login error, got %v", err)
	}
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	setCLIEnv(t)
	base := startSandbox(t)
	stdin = strings.NewReader("password\n")
	out := mustRun(t, "login", base, "--email", "alan@skillhub.dev")
	if !strings.Contains(out, "Alan Turing (instructor)") {
		t.Fatalf("unexpected login output: %q", out)
	}
}

func TestCommandsRequireConnection(t *testing.T) {
	setCLIEnv(t)
	_, err := runCLI(t, "courses", "list")
	if err == nil || !strings.Contains(err.Error(), "not connected") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCourseListIsQuietFriendly(t *testing.T) {
	setCLIEnv(t)
	base := startSandbox(t)
	loginAs(t, base, "ada@skillhub.dev", "password")

	out := mustRun(t, "courses", "list", "--format", "table")
	if !strings.Contains(out, "Go Fundamentals\tAlan Turing") {
		t.Fatalf("course table missing populated instructor:\n%s", out)
	}
	ids := strings.Fields(mustRun(t, "courses", "--quiet"))
	if len(ids) != 1 {
		t.Fatalf("expected one course id, got %v", ids)
	}

	mustRun(t, "courses", "enroll", ids[0])
	out = mustRun(t, "courses", "enroll", ids[0])
	if !strings.Contains(out, "already enrolled") {
		t.Fatalf("second enroll should be a no-op, got %q", out)
	}

	lessons := mustRun(t, "lessons", ids[0], "--format", "plain")
	if !strings.Contains(lessons, "Hello, Go") {
		t.Fatalf("lessons missing: %q", lessons)
	}
}

func TestCourseAdminCommandsNeedAdmin(t *testing.T) {
	setCLIEnv(t)
	base := startSandbox(t)
	loginAs(t, base, "ada@skillhub.dev", "password")
	_, err := runCLI(t, "courses", "create", "--title", "Rust", "--description", "Borrowing")
	if err == nil || !strings.Contains(err.Error(), "only admins") {
		t.Fatalf("expected admin error, got %v", err)
	}

	loginAs(t, base, "admin@skillhub.dev", "admin123")
	out := mustRun(t, "courses", "create", "--title", "  Rust  ", "--description", "Borrowing", "--price", "19")
	var created map[string]any
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("create output: %v\n%s", err, out)
	}
	if created["title"] != "Rust" {
		t.Fatalf("title not trimmed: %v", created["title"])
	}
	id, _ := created["_id"].(string)
	mustRun(t, "courses", "update", id, "--category", "systems")
	show := mustRun(t, "courses", "show", id, "--format", "json")
	if !strings.Contains(show, `"category": "systems"`) || !strings.Contains(show, `"title": "Rust"`) {
		t.Fatalf("update lost fields:\n%s", show)
	}
	mustRun(t, "courses", "delete", id)
}

func TestCommunityCommandsRoundTrip(t *testing.T) {
	setCLIEnv(t)
	base := startSandbox(t)
	loginAs(t, base, "ada@skillhub.dev", "password")

	commID := strings.TrimSpace(mustRun(t, "community", "list", "--quiet"))
	postID := strings.TrimSpace(mustRun(t, "community", "show", commID, "--quiet"))
	if postID == "" || strings.Contains(postID, "\n") {
		t.Fatalf("expected one seeded post, got %q", postID)
	}

	mustRun(t, "community", "comment", commID, postID, "nice", "course!")
	mustRun(t, "community", "like", commID, postID)

	out := mustRun(t, "community", "show", commID, "--format", "json")
	var page struct {
		Posts []struct {
			Likes    []any `json:"likes"`
			Comments []struct {
				Content string `json:"content"`
			} `json:"comments"`
		} `json:"posts"`
		Member    bool `json:"member"`
		Moderator bool `json:"moderator"`
	}
	if err := json.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("show output: %v\n%s", err, out)
	}
	if !page.Member || page.Moderator {
		t.Fatalf("unexpected flags: member=%v moderator=%v", page.Member, page.Moderator)
	}
	if len(page.Posts[0].Likes) != 1 || len(page.Posts[0].Comments) != 1 || page.Posts[0].Comments[0].Content != "nice course!" {
		t.Fatalf("unexpected post state: %+v", page.Posts[0])
	}

	_, err := runCLI(t, "community", "pin", commID, postID)
	if err == nil || !strings.Contains(err.Error(), "community admin") {
		t.Fatalf("expected moderator error, got %v", err)
	}

	members := mustRun(t, "community", "members", commID, "--format", "plain")
	if !strings.Contains(members, "Ada Lovelace member") || !strings.Contains(members, "Alan Turing admin") {
		t.Fatalf("unexpected members:\n%s", members)
	}
}

func TestNotificationsAfterLike(t *testing.T) {
	setCLIEnv(t)
	base := startSandbox(t)
	loginAs(t, base, "ada@skillhub.dev", "password")
	commID := strings.TrimSpace(mustRun(t, "community", "list", "--quiet"))
	postID := strings.TrimSpace(mustRun(t, "community", "show", commID, "--quiet"))
	mustRun(t, "community", "like", commID, postID)

	loginAs(t, base, "alan@skillhub.dev", "password")
	out := mustRun(t, "notifications", "--unread", "--format", "plain")
	if !strings.Contains(out, "Ada Lovelace liked your post") {
		t.Fatalf("missing notification:\n%s", out)
	}
	id := strings.TrimSpace(mustRun(t, "notifications", "--quiet"))
	mustRun(t, "notifications", "read", id)
	if out := mustRun(t, "notifications", "list", "--unread", "--quiet"); strings.TrimSpace(out) != "" {
		t.Fatalf("notification still unread: %q", out)
	}
}

func TestReportSubmitAndResolve(t *testing.T) {
	setCLIEnv(t)
	base := startSandbox(t)
	loginAs(t, base, "ada@skillhub.dev", "password")
	courseID := strings.TrimSpace(mustRun(t, "courses", "--quiet"))

	_, err := runCLI(t, "report", "submit", "--type", "spam", "--target-type", "Course", "--target", courseID, "bad")
	if err == nil {
		t.Fatalf("expected validation error for unknown type")
	}
	mustRun(t, "report", "submit", "--type", "BUG", "--target-type", "Course", "--target", courseID, "video", "is", "broken")

	if _, err := runCLI(t, "report", "list"); err == nil {
		t.Fatalf("students must not list reports")
	}

	loginAs(t, base, "admin@skillhub.dev", "admin123")
	reportID := strings.TrimSpace(mustRun(t, "report", "list", "--quiet"))
	show := mustRun(t, "report", "show", reportID, "--format", "json")
	if !strings.Contains(show, `"target": "Go Fundamentals"`) {
		t.Fatalf("target label missing:\n%s", show)
	}
	mustRun(t, "report", "resolve", reportID)
	if out := mustRun(t, "report", "list", "--format", "plain"); !strings.Contains(out, "bug Course") {
		t.Fatalf("unexpected list:\n%s", out)
	}
	mustRun(t, "report", "delete", reportID)
	if out := mustRun(t, "report", "list", "--quiet"); strings.TrimSpace(out) != "" {
		t.Fatalf("report not deleted: %q", out)
	}
}

func TestQuizReadsAnswersFromStdin(t *testing.T) {
	setCLIEnv(t)
	base := startSandbox(t)
	loginAs(t, base, "ada@skillhub.dev", "password")
	courseID := strings.TrimSpace(mustRun(t, "courses", "--quiet"))

	var toasts bytes.Buffer
	stderr = &toasts
	stdin = strings.NewReader("7\n1\n2\n")
	out := mustRun(t, "quiz", courseID)
	if !strings.Contains(out, "enter an option number") {
		t.Fatalf("out-of-range answer not rejected:\n%s", out)
	}
	if !strings.Contains(out, "quiz complete: 15 points") {
		t.Fatalf("unexpected quiz output:\n%s", out)
	}
	if !strings.Contains(toasts.String(), "Correct! +10 points") {
		t.Fatalf("missing celebration toast: %q", toasts.String())
	}
}

func TestQuizSkipAndInputClosed(t *testing.T) {
	setCLIEnv(t)
	base := startSandbox(t)
	loginAs(t, base, "ada@skillhub.dev", "password")
	courseID := strings.TrimSpace(mustRun(t, "courses", "--quiet"))

	stdin = strings.NewReader("s\n")
	_, err := runCLI(t, "quiz", courseID)
	if err == nil || !strings.Contains(err.Error(), "input closed") {
		t.Fatalf("expected aborted quiz, got %v", err)
	}
}

func TestLearnAccumulatesLocally(t *testing.T) {
	setCLIEnv(t)
	base := startSandbox(t)
	loginAs(t, base, "ada@skillhub.dev", "password")
	courseID := strings.TrimSpace(mustRun(t, "courses", "--quiet"))

	if out := mustRun(t, "learn", courseID); out != "learning time: 0s\n" {
		t.Fatalf("unexpected initial time: %q", out)
	}
	mustRun(t, "learn", courseID, "--add", "15m")
	if out := mustRun(t, "learn", courseID, "--add", "30.5s"); out != "learning time: 15m30s\n" {
		t.Fatalf("unexpected total: %q", out)
	}
}

func TestLeaderboardAndMessages(t *testing.T) {
	setCLIEnv(t)
	base := startSandbox(t)
	loginAs(t, base, "ada@skillhub.dev", "password")

	board := mustRun(t, "leaderboard", "--limit", "2", "--format", "plain")
	lines := strings.Split(strings.TrimSpace(board), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "1 Ada Lovelace 120") || !strings.HasPrefix(lines[1], "2 Alan Turing 80") {
		t.Fatalf("unexpected leaderboard:\n%s", board)
	}

	var alanID string
	for _, line := range strings.Split(mustRun(t, "users", "--format", "plain"), "\n") {
		if strings.Contains(line, "Alan Turing") {
			alanID = strings.Fields(line)[0]
		}
	}
	if alanID == "" {
		t.Fatalf("alan not listed")
	}
	if out := mustRun(t, "messages", "send", alanID, "   "); out != "nothing to send\n" {
		t.Fatalf("blank message should be skipped, got %q", out)
	}
	mustRun(t, "messages", "send", alanID, "see", "you", "at", "office", "hours")
	conv := mustRun(t, "messages", alanID, "--format", "json")
	if !strings.Contains(conv, "see you at office hours") {
		t.Fatalf("conversation missing message:\n%s", conv)
	}
}

func TestLoginInDirWritesLocalConfig(t *testing.T) {
	home := setCLIEnv(t)
	base := startSandbox(t)
	mustRun(t, "login", base, "--email", "ada@skillhub.dev", "--password", "password", "--in-dir")

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if _, err := os.Stat(config.LocalPath(cwd)); err != nil {
		t.Fatalf("local config missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".skillhub", "config.json")); !os.IsNotExist(err) {
		t.Fatalf("home config should not be written, stat err=%v", err)
	}
	out := mustRun(t, "status")
	if !strings.Contains(out, `"logged_in": true`) || !strings.Contains(out, `"status": "ok"`) {
		t.Fatalf("unexpected status:\n%s", out)
	}
}

func TestExtractBoolFlag(t *testing.T) {
	args, set := extractBoolFlag([]string{"courses", "--verbose", "list", "--", "--verbose"}, "verbose")
	if !set {
		t.Fatalf("expected --verbose to be detected")
	}
	if strings.Join(args, " ") != "courses list -- --verbose" {
		t.Fatalf("unexpected args: %v", args)
	}
	if _, set := extractBoolFlag([]string{"--verbose=false"}, "verbose"); set {
		t.Fatalf("--verbose=false should not enable verbose")
	}
}
