package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/amandhiraj/financetracker/internal/amqp"
	"github.com/amandhiraj/financetracker/internal/log"
)

// EventLogger writes transaction mutation events to the structured log,
// giving an audit trail of changes made through the web client.
type EventLogger struct {
	logger  *log.Logger
	handled atomic.Int64
}

func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{logger: logger.WithComponent(log.ComponentAMQP)}
}

// HandleTransactionEvent processes a single event consumed from AMQP.
func (l *EventLogger) HandleTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	switch ev.Type {
	case amqp.TransactionCreated, amqp.TransactionUpdated, amqp.TransactionDeleted:
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.User == "" {
		return fmt.Errorf("event %s without user", ev.Type)
	}

	fields := log.NewFields().
		WithUser(ev.User).
		WithTransaction(ev.TransactionID, ev.Category, ev.Amount, ev.Description)
	l.logger.InfoContext(ctx, "Transaction event",
		append(fields.ToSlice(), "type", ev.Type, slog.Time("occurred_at", ev.Timestamp))...)

	l.handled.Add(1)
	return nil
}

// Handled returns how many events were accepted.
func (l *EventLogger) Handled() int64 {
	return l.handled.Load()
}
