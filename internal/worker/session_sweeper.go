// Package worker runs background jobs next to the web server.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amandhiraj/financetracker/internal/log"
)

// SessionStore is the storage the sweeper purges.
type SessionStore interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// SessionSweeper periodically deletes expired sessions.
type SessionSweeper struct {
	store    SessionStore
	interval time.Duration
	now      func() time.Time
}

func NewSessionSweeper(store SessionStore, interval time.Duration) *SessionSweeper {
	return &SessionSweeper{
		store:    store,
		interval: interval,
		now:      time.Now,
	}
}

// SweepOnce deletes sessions expired at the current time.
func (s *SessionSweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Expired sessions removed",
			log.FieldComponent, log.ComponentWorker,
			log.FieldOperation, log.OpSweep,
			log.FieldCount, n)
	}
	return n, nil
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *SessionSweeper) Run(ctx context.Context) {
	slog.InfoContext(ctx, "Session sweeper started", "interval", s.interval)

	if _, err := s.SweepOnce(ctx); err != nil {
		slog.ErrorContext(ctx, "Session sweep failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Session sweeper stopped", "reason", ctx.Err())
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "Session sweep failed", "error", err)
			}
		}
	}
}
