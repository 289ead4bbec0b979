package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"skillhub/internal/logger"
	"skillhub/internal/sandbox"
)

const serverVersion = "0.1.0-dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "check-seed" {
		if err := runCheckSeed(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "check-seed failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var (
		configPath = flag.String("config", "", "path to YAML config file")
		addr       = flag.String("addr", "", "listen address (overrides config)")
		seedPath   = flag.String("seed", "", "path to YAML seed file (overrides config)")
	)
	flag.Parse()

	cfg, err := sandbox.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *seedPath != "" {
		cfg.SeedFile = *seedPath
	}

	log := logger.New(logger.Config{Level: logger.ParseLevel(cfg.LogLevel)}).
		With().Str("service", "skillhub-sandbox").Str("version", serverVersion).Logger()

	server, err := newHTTPServer(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build server")
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	log.Info().Str("addr", server.Addr).Msg("skillhub-sandbox listening")
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server error")
	}
	<-shutdownDone
}

func newHTTPServer(cfg sandbox.Config, log zerolog.Logger) (*http.Server, error) {
	seed, err := sandbox.LoadSeed(cfg.SeedFile)
	if err != nil {
		return nil, err
	}
	store, err := sandbox.NewStore(seed, cfg.BcryptCost, nil)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      sandbox.NewServer(cfg, store, log).Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, nil
}

// runCheckSeed loads a seed file and builds a store from it without
// serving, reporting what it contains.
func runCheckSeed(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("check-seed", flag.ContinueOnError)
	seedPath := fs.String("seed", "", "path to YAML seed file (default: built-in seed)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	seed, err := sandbox.LoadSeed(*seedPath)
	if err != nil {
		return err
	}
	store, err := sandbox.NewStore(seed, 4, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "users: %d\ncourses: %d\ncommunities: %d\n",
		len(store.Users()), len(store.Courses()), len(store.Communities()))
	return nil
}
