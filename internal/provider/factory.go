package provider

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/01moynul/humanize-golang/internal/config"
	"github.com/01moynul/humanize-golang/internal/humanize"
)

var errNoCredentials = errors.New("provider: missing credentials")

// Sweeper is implemented by providers holding job state in memory.
type Sweeper interface {
	Sweep(now time.Time) int
}

// New builds the configured provider. It returns errNoCredentials when the provider
// cannot be called; the caller then runs in simulated mode only.
func New(ctx context.Context, cfg config.ProviderConfig, logger *zap.Logger) (humanize.Provider, error) {
	if !cfg.HasCredentials() {
		return nil, errNoCredentials
	}
	switch cfg.Kind {
	case config.ProviderGemini:
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	default:
		return NewClient(HTTPConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			UserID:  cfg.UserID,
			Model:   cfg.Model,
			RPS:     cfg.RPS,
		}, logger), nil
	}
}

// IsNoCredentials reports whether err came from New for a provider without credentials.
func IsNoCredentials(err error) bool { return errors.Is(err, errNoCredentials) }
