package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"golang.org/x/term"

	"skillhub/internal/cli/client"
	"skillhub/internal/cli/config"
	"skillhub/internal/logger"
	"skillhub/internal/session"
	"skillhub/internal/skillhub"
	"skillhub/internal/store"
)

func cmdLogin(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Password (prompted when omitted)")
	inDir := fs.Bool("in-dir", false, "Write config to ./.skillhub/config.json in current directory")
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positionals) != 1 || strings.TrimSpace(*email) == "" {
		return usageErr("login <url> --email <email> [--password p] [--in-dir]")
	}
	rawURL := strings.TrimSpace(positionals[0])
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	pw := *password
	if pw == "" {
		if pw, err = readPassword(); err != nil {
			return err
		}
	}

	log := logger.Default()
	cl := client.New(rawURL, "", client.WithLogger(log))
	var status map[string]any
	if err := cl.Get(ctx, "/status", &status); err != nil {
		return fmt.Errorf("validate server: %w", err)
	}
	res, err := skillhub.New(cl).Login(ctx, strings.TrimSpace(*email), pw)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	sess := session.Session{
		Token:    res.Token,
		UserID:   res.User.ID,
		Fullname: res.User.Fullname,
		Role:     res.User.Role,
	}
	// older backends return only the token
	if claims, err := session.FromToken(res.Token); err == nil {
		sess = sess.Merge(claims)
	} else {
		log.Debug().Err(err).Msg("token claims unreadable")
	}
	if !sess.Authenticated() {
		return errors.New("login response carried no user id")
	}

	var cfg *config.Config
	if *inDir {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg, err = config.LoadFromPath(config.LocalPath(cwd))
		if err != nil {
			return err
		}
	} else {
		cfg, err = config.Load()
		if err != nil {
			return err
		}
	}
	cfg.SetDefault(rawURL, strings.TrimSpace(*email))
	if err := config.Save(cfg); err != nil {
		return err
	}

	local, err := store.OpenLocalStorage(cfg.StoragePath())
	if err != nil {
		return fmt.Errorf("open local storage: %w", err)
	}
	defer local.Close()
	if err := session.Save(ctx, local, sess); err != nil {
		return err
	}
	fmt.Printf("logged in to %s as %s (%s)\n", rawURL, sess.Fullname, sess.Role)
	return nil
}

func readPassword() (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(stderr, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("missing --password")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func cmdLogout(ctx context.Context) error {
	a, err := openApp(ctx, false)
	if err != nil {
		if errors.Is(err, errNotConnected) {
			fmt.Println("no active connection")
			return nil
		}
		return err
	}
	defer a.Close()
	if err := session.Clear(ctx, a.local); err != nil {
		return err
	}
	a.cfg.ClearDefault()
	if err := config.Save(a.cfg); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func cmdStatus(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return usageErr("status")
	}
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()
	var status map[string]any
	if err := a.api.Client().Get(ctx, "/status", &status); err != nil {
		return err
	}
	return printJSON(map[string]any{
		"server":       a.srv.URL,
		"email":        a.srv.Email,
		"connected_at": a.srv.ConnectedAt,
		"config":       a.cfg.File(),
		"logged_in":    a.sess.Authenticated(),
		"status":       status,
	})
}

func cmdWhoAmI(ctx context.Context, args []string) error {
	fs := newFlagSet("whoami")
	out := addOutputFlags(fs)
	if _, err := parseInterspersedFlags(fs, args); err != nil {
		return err
	}
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()
	u, err := a.api.GetUser(ctx, a.sess.UserID)
	if err != nil {
		return err
	}
	payload, err := itemPayload(u)
	if err != nil {
		return err
	}
	return out.print(a.cfg, payload)
}
