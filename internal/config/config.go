// Package config loads the service configuration from the environment (and an optional .env file).
// The resulting Config is passed explicitly to every component; nothing else reads the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider kinds.
const (
	ProviderHTTP   = "http"
	ProviderGemini = "gemini"
)

// Config holds every tunable of the API server.
type Config struct {
	Port       string
	DSN        string // empty means the in-memory store
	JWTSecret  string
	CORSOrigin string
	LogLevel   string

	Provider ProviderConfig
	Humanize HumanizeConfig

	RateLimitRPS   float64
	RateLimitBurst int

	// DotEnvLoaded is false when no .env file was found.
	DotEnvLoaded bool
}

// ProviderConfig describes the external humanization provider.
type ProviderConfig struct {
	Kind    string // http or gemini
	BaseURL string
	APIKey  string
	UserID  string
	Model   string
	RPS     float64 // outbound pacing, 0 disables

	GeminiAPIKey string
	GeminiModel  string
}

// HumanizeConfig holds the workflow policy.
type HumanizeConfig struct {
	LiveMode        bool
	PollMaxAttempts int
	PollDelay       time.Duration
	SimulateDelay   time.Duration
}

// HasCredentials reports whether the configured provider can actually be called.
// Without credentials the workflow is forced into simulated mode.
func (p ProviderConfig) HasCredentials() bool {
	switch p.Kind {
	case ProviderGemini:
		return p.GeminiAPIKey != ""
	default:
		return p.APIKey != "" && p.BaseURL != ""
	}
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:       "8080",
		CORSOrigin: "http://localhost:5173",
		LogLevel:   "info",
		Provider: ProviderConfig{
			Kind:        ProviderHTTP,
			Model:       "v11",
			RPS:         5,
			GeminiModel: "gemini-1.5-flash",
		},
		Humanize: HumanizeConfig{
			LiveMode:        false,
			PollMaxAttempts: 10,
			PollDelay:       1000 * time.Millisecond,
			SimulateDelay:   1100 * time.Millisecond,
		},
		RateLimitRPS:   2,
		RateLimitBurst: 5,
	}
}

// Load reads .env (if present) and then the process environment on top of Default().
// A missing .env is reported through DotEnvLoaded; a malformed one is an error.
func Load() (Config, error) {
	loaded, err := loadDotEnv(".env")
	if err != nil {
		return Config{}, err
	}
	cfg, err := FromLookup(os.LookupEnv)
	cfg.DotEnvLoaded = loaded
	return cfg, err
}

func loadDotEnv(path string) (bool, error) {
	err := godotenv.Load(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("config: %s: %w", path, err)
	}
}

// FromLookup builds a Config using the given lookup function (os.LookupEnv in production).
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var err error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if err != nil {
			return
		}
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			n, convErr := strconv.Atoi(strings.TrimSpace(v))
			if convErr != nil {
				err = fmt.Errorf("config: %s: %w", key, convErr)
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if err != nil {
			return
		}
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			f, convErr := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if convErr != nil {
				err = fmt.Errorf("config: %s: %w", key, convErr)
				return
			}
			*dst = f
		}
	}
	dur := func(key string, dst *time.Duration) {
		if err != nil {
			return
		}
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			d, convErr := time.ParseDuration(strings.TrimSpace(v))
			if convErr != nil {
				err = fmt.Errorf("config: %s: %w", key, convErr)
				return
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if err != nil {
			return
		}
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			b, convErr := strconv.ParseBool(strings.TrimSpace(v))
			if convErr != nil {
				err = fmt.Errorf("config: %s: %w", key, convErr)
				return
			}
			*dst = b
		}
	}

	str("PORT", &cfg.Port)
	str("DB_DSN_PRIMARY", &cfg.DSN)
	str("JWT_SECRET", &cfg.JWTSecret)
	str("CORS_ORIGIN", &cfg.CORSOrigin)
	str("LOG_LEVEL", &cfg.LogLevel)

	str("HUMANIZE_PROVIDER", &cfg.Provider.Kind)
	str("HUMANIZE_API_URL", &cfg.Provider.BaseURL)
	str("HUMANIZE_API_KEY", &cfg.Provider.APIKey)
	str("HUMANIZE_USER_ID", &cfg.Provider.UserID)
	str("HUMANIZE_MODEL", &cfg.Provider.Model)
	float("PROVIDER_RPS", &cfg.Provider.RPS)
	str("GEMINI_API_KEY", &cfg.Provider.GeminiAPIKey)
	str("GEMINI_MODEL", &cfg.Provider.GeminiModel)

	boolean("HUMANIZE_LIVE_MODE", &cfg.Humanize.LiveMode)
	num("POLL_MAX_ATTEMPTS", &cfg.Humanize.PollMaxAttempts)
	dur("POLL_DELAY", &cfg.Humanize.PollDelay)
	dur("SIMULATE_DELAY", &cfg.Humanize.SimulateDelay)

	float("RATE_LIMIT_RPS", &cfg.RateLimitRPS)
	num("RATE_LIMIT_BURST", &cfg.RateLimitBurst)

	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	switch c.Provider.Kind {
	case ProviderHTTP, ProviderGemini:
	default:
		return fmt.Errorf("config: unknown HUMANIZE_PROVIDER %q", c.Provider.Kind)
	}
	if c.Humanize.PollMaxAttempts <= 0 {
		return fmt.Errorf("config: POLL_MAX_ATTEMPTS must be positive")
	}
	if c.Humanize.PollDelay < 0 || c.Humanize.SimulateDelay < 0 {
		return fmt.Errorf("config: delays must not be negative")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET must not be empty")
	}
	return nil
}
