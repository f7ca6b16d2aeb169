package backend

import (
	"context"

	"github.com/amandhiraj/financetracker/internal/core"
)

// Ports for the finance tracker service.
type (
	Authenticator interface {
		// Register creates an account. A taken username yields ErrUsernameTaken.
		Register(ctx context.Context, username, password string) error
		// Login verifies credentials and returns the canonical username.
		Login(ctx context.Context, username, password string) (string, error)
	}

	TransactionLister interface {
		ListTransactions(ctx context.Context, user string) ([]core.Transaction, error)
	}

	// SummaryReader returns the aggregate computed by the service.
	SummaryReader interface {
		ReadSummary(ctx context.Context, user string) (core.Summary, error)
	}

	TransactionWriter interface {
		CreateTransaction(ctx context.Context, t core.Transaction) error
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id string) error
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Backend represents a unified backend interface that provides all necessary operations
type Backend interface {
	Authenticator
	TransactionLister
	SummaryReader
	TransactionWriter
	Pinger
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	HTTPBackend   BackendType = "http"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case HTTPBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
