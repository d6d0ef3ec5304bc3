// Package config resolves client settings.
//
// Sources, lowest priority first:
//  1. Defaults
//  2. User config file ($XDG_CONFIG_HOME/todo/config.toml)
//  3. Project config file (./todo.toml), or the file given with --config instead of 2 and 3
//  4. .env in the working directory (never overrides real environment variables)
//  5. Environment variables (TODO_*)
//  6. Command line flags, applied by the caller
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/idilsaglam/todo/internal/api"
)

const (
	appDirName      = "todo"
	userFileName    = "config.toml"
	projectFileName = "todo.toml"
	dotEnvFileName  = ".env"
)

type Config struct {
	APIURL       string        `toml:"api_url"`
	Timeout      time.Duration `toml:"timeout"`
	BoolEncoding string        `toml:"bool_encoding"`
	Rate         float64       `toml:"rate"`
	Burst        int           `toml:"burst"`
	NoticeTTL    time.Duration `toml:"notice_ttl"`
	Theme        string        `toml:"theme"`
	LogFile      string        `toml:"log_file"`
	LogLevel     string        `toml:"log_level"`
	MetricsAddr  string        `toml:"metrics_addr"`
}

func Defaults() Config {
	return Config{
		APIURL:       api.DefaultBaseURL,
		BoolEncoding: string(api.BoolString),
		Burst:        1,
		NoticeTTL:    3 * time.Second,
		Theme:        "classic",
		LogLevel:     "info",
	}
}

// Load reads every source except flags. explicitFile, when set, replaces the
// user and project files and must exist.
func Load(explicitFile string) (Config, error) {
	cfg := Defaults()

	if explicitFile != "" {
		if err := decodeFile(&cfg, explicitFile); err != nil {
			return cfg, fmt.Errorf("config file %s: %w", explicitFile, err)
		}
	} else {
		for _, p := range []string{UserConfigFile(), projectFileName} {
			if p == "" {
				continue
			}
			if _, err := os.Stat(p); err != nil {
				continue
			}
			if err := decodeFile(&cfg, p); err != nil {
				return cfg, fmt.Errorf("config file %s: %w", p, err)
			}
		}
	}

	dotenv, err := readDotEnv(dotEnvFileName)
	if err != nil {
		return cfg, err
	}
	lookup := func(k string) (string, bool) {
		if v, ok := os.LookupEnv(k); ok {
			return v, true
		}
		v, ok := dotenv[k]
		return v, ok
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// UserConfigFile returns the per-user config path, or "" when no config dir is known.
func UserConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appDirName, userFileName)
}

func decodeFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, 0, len(undec))
		for _, k := range undec {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func readDotEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	m, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return m, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("TODO_API_URL", &cfg.APIURL)
	str("TODO_BOOL_ENCODING", &cfg.BoolEncoding)
	str("TODO_THEME", &cfg.Theme)
	str("TODO_LOG_FILE", &cfg.LogFile)
	str("TODO_LOG_LEVEL", &cfg.LogLevel)
	str("TODO_METRICS_ADDR", &cfg.MetricsAddr)

	if v, ok := lookup("TODO_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TODO_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if v, ok := lookup("TODO_NOTICE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TODO_NOTICE_TTL: %w", err)
		}
		cfg.NoticeTTL = d
	}
	if v, ok := lookup("TODO_RATE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TODO_RATE: %w", err)
		}
		cfg.Rate = f
	}
	if v, ok := lookup("TODO_BURST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TODO_BURST: %w", err)
		}
		cfg.Burst = n
	}
	return nil
}

// Validate checks values that would otherwise fail later and less clearly.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url: not an http(s) url: %q", c.APIURL)
	}
	if _, err := api.ParseBoolEncoding(c.BoolEncoding); err != nil {
		return fmt.Errorf("bool_encoding: %w", err)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout: must not be negative")
	}
	if c.NoticeTTL < 0 {
		return fmt.Errorf("notice_ttl: must not be negative")
	}
	if c.Rate < 0 {
		return fmt.Errorf("rate: must not be negative")
	}
	if c.Rate > 0 && c.Burst < 1 {
		return fmt.Errorf("burst: must be at least 1 when rate is set")
	}
	switch strings.ToLower(c.Theme) {
	case "classic", "neon", "mono":
	default:
		return fmt.Errorf("theme: unknown theme %q (want classic|neon|mono)", c.Theme)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level: unknown level %q", c.LogLevel)
	}
	return nil
}
