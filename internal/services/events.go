package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/amandhiraj/financetracker/internal/amqp"
)

// EditAmountMessage is shown when an edited amount is not a number.
const EditAmountMessage = "Please enter a valid number for the amount."

var (
	ErrNotConfirmed       = errors.New("deletion not confirmed")
	ErrNoSession          = errors.New("no active session")
	ErrUnknownTransaction = errors.New("transaction not in workspace")
	ErrRefresh            = errors.New("refresh after mutation failed")
)

// ValidationError rejects user input before any backend request is made.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

type EventKind string

const (
	EventTransactionsChanged EventKind = "transactions.changed"
	EventSummaryChanged      EventKind = "summary.changed"
	EventSessionChanged      EventKind = "session.changed"
	EventTransactionCreated  EventKind = "transaction.created"
	EventTransactionUpdated  EventKind = "transaction.updated"
	EventTransactionDeleted  EventKind = "transaction.deleted"
)

// Event is delivered to workspace subscribers after state changes.
type Event struct {
	Kind          EventKind
	User          string
	TransactionID string
	Epoch         uint64
}

// Publisher forwards mutation events to an external broker.
type Publisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}
