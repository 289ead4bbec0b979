package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"skillhub/internal/apperrors"
	"skillhub/internal/cli/client"
	"skillhub/internal/cli/config"
	"skillhub/internal/cli/output"
	"skillhub/internal/logger"
	"skillhub/internal/session"
	"skillhub/internal/skillhub"
	"skillhub/internal/store"
	"skillhub/internal/toast"
)

var (
	errNotConnected = &apperrors.CustomError{Err: apperrors.ErrNotConnected, Message: "not connected. run: skillhub login <url> --email <email>"}
	errNotLoggedIn  = &apperrors.CustomError{Err: apperrors.ErrUnauthorized, Message: "not logged in. run: skillhub login <url> --email <email>"}
)

// Overridden in tests.
var (
	stdin  io.Reader = os.Stdin
	stderr io.Writer = os.Stderr
)

func configureLogging(verbose bool) {
	level := logger.ParseLevel(os.Getenv(config.EnvLogLevel))
	if verbose {
		level = logger.DebugLevel
	}
	logger.Configure(logger.Config{Level: level, Output: stderr})
}

// app is everything a command needs once the user is connected.
type app struct {
	cfg   *config.Config
	srv   config.Server
	local *store.LocalStorage
	sess  session.Session
	api   *skillhub.API
	log   zerolog.Logger
	toast toast.Toaster
}

// openApp loads config and the persisted session. With authed set it fails
// unless a session is present.
func openApp(ctx context.Context, authed bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	srv, ok := cfg.Default()
	if !ok {
		return nil, errNotConnected
	}
	local, err := store.OpenLocalStorage(cfg.StoragePath())
	if err != nil {
		return nil, fmt.Errorf("open local storage: %w", err)
	}
	sess, err := session.Load(ctx, local)
	if err != nil {
		_ = local.Close()
		return nil, err
	}
	if authed && !sess.Authenticated() {
		_ = local.Close()
		return nil, errNotLoggedIn
	}
	log := logger.Default()
	if sess.UserID != "" {
		log = log.With().Str("user_id", sess.UserID).Logger()
	}
	return &app{
		cfg:   cfg,
		srv:   srv,
		local: local,
		sess:  sess,
		api:   skillhub.New(client.New(srv.URL, sess.Token, client.WithLogger(log))),
		log:   log,
		toast: toast.NewConsole(stderr),
	}, nil
}

func (a *app) Close() {
	_ = a.local.Close()
}

// ctx carries the session for code that reads it from context.
func (a *app) ctx(parent context.Context) context.Context {
	return session.WithContext(parent, a.sess)
}

type outputFlags struct {
	format *string
	quiet  *bool
}

func addOutputFlags(fs *flag.FlagSet) outputFlags {
	return outputFlags{
		format: fs.String("format", "", "Output format: json|table|plain|md"),
		quiet:  fs.Bool("quiet", false, "Print identifiers only"),
	}
}

func (o outputFlags) print(cfg *config.Config, payload map[string]any) error {
	format := strings.TrimSpace(*o.format)
	if format == "" && cfg != nil {
		format = cfg.Preference(config.PrefDefaultFormat)
	}
	return output.Print(payload, format, *o.quiet)
}

// listPayload wraps v under key in its JSON shape so output can walk it.
func listPayload(key string, v any) (map[string]any, error) {
	var rows any
	if err := roundTrip(v, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []any{}
	}
	return map[string]any{key: rows}, nil
}

// itemPayload turns a single document into its JSON object form.
func itemPayload(v any) (map[string]any, error) {
	var obj map[string]any
	if err := roundTrip(v, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func roundTrip(in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

// resolveContent joins positional words into a message body, reading stdin
// when the only word is "-".
func resolveContent(words []string) (string, error) {
	if len(words) == 1 && words[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return strings.TrimSpace(strings.Join(words, " ")), nil
}

func parseInterspersedFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	positionals := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := strings.TrimSpace(args[i])
		if arg == "" {
			continue
		}
		if arg == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positionals = append(positionals, arg)
			continue
		}

		trimmed := strings.TrimLeft(arg, "-")
		if trimmed == "" {
			positionals = append(positionals, arg)
			continue
		}
		name := trimmed
		value := ""
		hasValue := false
		if idx := strings.Index(trimmed, "="); idx >= 0 {
			name = trimmed[:idx]
			value = trimmed[idx+1:]
			hasValue = true
		}

		f := fs.Lookup(name)
		if f == nil {
			return nil, fmt.Errorf("flag provided but not defined: -%s", name)
		}
		isBool := false
		if bf, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
			isBool = true
		}

		if !hasValue {
			if isBool {
				value = "true"
			} else {
				if i+1 >= len(args) {
					return nil, fmt.Errorf("flag needs an argument: -%s", name)
				}
				i++
				value = args[i]
			}
		}

		if err := fs.Set(name, value); err != nil {
			return nil, err
		}
	}
	return positionals, nil
}

// newFlagSet builds a flag set whose own error output is suppressed; run
// prints the returned error instead.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func usageErr(line string) error {
	return errors.New("usage: skillhub " + line)
}
