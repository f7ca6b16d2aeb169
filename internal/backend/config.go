package backend

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/amandhiraj/financetracker/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// HTTP specific
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.Backend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.Backend)
	}

	return Config{
		Type:    backendType,
		BaseURL: appConfig.BackendURL,
		Timeout: appConfig.BackendTimeout,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case HTTPBackend:
		if c.BaseURL == "" {
			return fmt.Errorf("base URL is required for http backend")
		}
		u, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid base URL scheme %q", u.Scheme)
		}
		if c.Timeout < 0 {
			return fmt.Errorf("timeout must not be negative")
		}
	case MemoryBackend:
		// Memory backend doesn't require additional validation
	}

	return nil
}
