package sandbox

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config configures the sandbox backend. Every field can be overridden by
// the environment variable named in its env tag.
type Config struct {
	Addr            string        `yaml:"addr" env:"SANDBOX_ADDR"`
	JWTSecret       string        `yaml:"jwt_secret" env:"SANDBOX_JWT_SECRET"`
	TokenTTL        time.Duration `yaml:"token_ttl" env:"SANDBOX_TOKEN_TTL"`
	WritesPerMinute int           `yaml:"writes_per_minute" env:"SANDBOX_WRITES_PER_MINUTE"`
	BcryptCost      int           `yaml:"bcrypt_cost" env:"SANDBOX_BCRYPT_COST"`
	SeedFile        string        `yaml:"seed_file" env:"SANDBOX_SEED"`
	LogLevel        string        `yaml:"log_level" env:"SANDBOX_LOG_LEVEL"`
}

func DefaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1:5000",
		JWTSecret:       "skillhub-sandbox-secret",
		TokenTTL:        24 * time.Hour,
		WritesPerMinute: 120,
		BcryptCost:      10,
		LogLevel:        "info",
	}
}

// LoadConfig reads path (when it exists) over the defaults and then applies
// environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt_secret must not be empty")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	val := reflect.ValueOf(cfg).Elem()
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		key := typ.Field(i).Tag.Get("env")
		if key == "" {
			continue
		}
		raw, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		if err := setField(val.Field(i), raw); err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
	}
	return nil
}

func setField(field reflect.Value, raw string) error {
	switch {
	case field.Type() == reflect.TypeOf(time.Duration(0)):
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
	case field.Kind() == reflect.String:
		field.SetString(raw)
	case field.Kind() == reflect.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(n))
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}
