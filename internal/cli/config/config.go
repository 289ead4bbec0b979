package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	dirName  = ".skillhub"
	fileName = "config.json"
)

// Preference keys.
const (
	PrefDefaultFormat = "default_format"
	PrefPollInterval  = "poll_interval"
	PrefStoragePath   = "storage_path"
)

// Environment overrides.
const (
	EnvURL      = "SKILLHUB_URL"
	EnvLogLevel = "SKILLHUB_LOG_LEVEL"
	EnvStorage  = "SKILLHUB_STORAGE"
)

type Config struct {
	Version       int               `json:"version"`
	DefaultServer string            `json:"default_server"`
	Servers       map[string]Server `json:"servers"`
	Preferences   map[string]string `json:"preferences,omitempty"`

	path string
}

type Server struct {
	URL         string `json:"url"`
	Email       string `json:"email,omitempty"`
	ConnectedAt string `json:"connected_at"`
}

// Path returns the nearest ./.skillhub/config.json walking up from the
// working directory, or ~/.skillhub/config.json when none exists.
func Path() (string, error) {
	if wd, err := os.Getwd(); err == nil {
		if p, ok := findLocal(wd); ok {
			return p, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, dirName, fileName), nil
}

func findLocal(dir string) (string, bool) {
	for {
		p := filepath.Join(dir, dirName, fileName)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// LocalPath is where --in-dir writes: ./.skillhub/config.json under dir.
func LocalPath(dir string) string {
	return filepath.Join(dir, dirName, fileName)
}

func defaults() *Config {
	return &Config{
		Version:       1,
		DefaultServer: "main",
		Servers:       map[string]Server{},
		Preferences: map[string]string{
			PrefPollInterval: "20s",
		},
	}
}

func Load() (*Config, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(p)
}

func LoadFromPath(p string) (*Config, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c := defaults()
			c.path = p
			return c, nil
		}
		return nil, err
	}
	var c Config
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if c.Servers == nil {
		c.Servers = map[string]Server{}
	}
	if c.Preferences == nil {
		c.Preferences = map[string]string{}
	}
	if c.DefaultServer == "" {
		c.DefaultServer = "main"
	}
	if c.Version == 0 {
		c.Version = 1
	}
	c.path = p
	return &c, nil
}

// Save writes c back to the file it was loaded from.
func Save(c *Config) error {
	p := c.path
	if p == "" {
		var err error
		if p, err = Path(); err != nil {
			return err
		}
	}
	return SaveToPath(c, p)
}

func SaveToPath(c *Config, p string) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, append(b, '\n'), 0o600); err != nil {
		return err
	}
	c.path = p
	return nil
}

// File is the path c was loaded from or last saved to.
func (c *Config) File() string {
	return c.path
}

func (c *Config) SetDefault(url, email string) {
	if c.Servers == nil {
		c.Servers = map[string]Server{}
	}
	c.Servers["main"] = Server{
		URL:         strings.TrimRight(url, "/"),
		Email:       email,
		ConnectedAt: time.Now().UTC().Format(time.RFC3339),
	}
	c.DefaultServer = "main"
}

func (c *Config) ClearDefault() {
	delete(c.Servers, c.DefaultServer)
}

// Default returns the active server. SKILLHUB_URL replaces its URL, or
// stands in for it entirely when nothing is configured.
func (c *Config) Default() (Server, bool) {
	s, ok := c.Servers[c.DefaultServer]
	if env := strings.TrimSpace(os.Getenv(EnvURL)); env != "" {
		s.URL = strings.TrimRight(env, "/")
		ok = true
	}
	return s, ok
}

func (c *Config) Preference(key string) string {
	return strings.TrimSpace(c.Preferences[key])
}

// PollInterval parses poll_interval, falling back to def when unset or invalid.
func (c *Config) PollInterval(def time.Duration) time.Duration {
	d, err := time.ParseDuration(c.Preference(PrefPollInterval))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// StoragePath is the sqlite file backing the session. SKILLHUB_STORAGE wins
// over the storage_path preference; otherwise it sits beside the config file.
func (c *Config) StoragePath() string {
	if env := strings.TrimSpace(os.Getenv(EnvStorage)); env != "" {
		return env
	}
	if p := c.Preference(PrefStoragePath); p != "" {
		return p
	}
	dir := filepath.Dir(c.path)
	if c.path == "" {
		dir = dirName
	}
	return filepath.Join(dir, "storage.db")
}
