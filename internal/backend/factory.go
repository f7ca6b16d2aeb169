package backend

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case HTTPBackend:
		return f.createHTTPBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createHTTPBackend(config Config) (*BackendResult, error) {
	client, err := NewHTTPClient(config.BaseURL, config.Timeout, config.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize HTTP backend: %w", err)
	}

	f.logger.Info("Initialized HTTP backend",
		"base_url", client.BaseURL(),
		"timeout", client.Timeout())

	return &BackendResult{
		Backend: client,
		Cleanup: client.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	store := NewMemoryStore()

	f.logger.Warn("Initialized in-memory backend, data is lost on restart")

	return &BackendResult{
		Backend: store,
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}
