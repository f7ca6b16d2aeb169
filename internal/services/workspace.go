// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/amandhiraj/financetracker/internal/amqp"
	"github.com/amandhiraj/financetracker/internal/backend"
	"github.com/amandhiraj/financetracker/internal/core"
	"github.com/amandhiraj/financetracker/internal/log"
)

// Backend is the subset of the service the workspace talks to.
type Backend interface {
	backend.TransactionLister
	backend.SummaryReader
	backend.TransactionWriter
}

// Snapshot is a consistent copy of workspace state.
type Snapshot struct {
	User         string
	Transactions []core.Transaction
	Summary      core.Summary
	Epoch        uint64
}

// Groups returns the transactions grouped for display.
func (s Snapshot) Groups() []core.Group {
	return core.GroupByCategory(s.Transactions)
}

// Workspace holds one session's transaction list and summary. Both are
// replaced wholesale from the backend; nothing is aggregated locally.
//
// Every fetch captures the identity epoch when it is issued and commits only
// if the epoch is unchanged, so responses for a previous identity are dropped.
// Fetches are also numbered; a response older than the one already applied
// is dropped, so a slow read never overwrites a post-write refresh.
type Workspace struct {
	backend   Backend
	publisher Publisher
	metrics   *Metrics
	logger    *log.StructuredLogger

	mu      sync.RWMutex
	user    string
	epoch   uint64
	txs     []core.Transaction
	summary core.Summary
	seq     uint64
	txsSeq  uint64
	sumSeq  uint64

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int

	flight singleflight.Group
}

type Option func(*Workspace)

func WithPublisher(p Publisher) Option {
	return func(w *Workspace) { w.publisher = p }
}

func WithMetrics(m *Metrics) Option {
	return func(w *Workspace) { w.metrics = m }
}

func WithLogger(l *log.Logger) Option {
	return func(w *Workspace) { w.logger = log.NewStructuredLogger(l) }
}

func NewWorkspace(b Backend, opts ...Option) *Workspace {
	w := &Workspace{
		backend: b,
		metrics: &Metrics{},
		subs:    make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = log.NewStructuredLogger(log.New(log.Config{
			Handler:   slog.Default().Handler(),
			Component: log.ComponentWorkspace,
		}))
	}
	return w
}

// Subscribe registers fn for state change events and returns a function
// that removes it. fn is called synchronously and must not block.
func (w *Workspace) Subscribe(fn func(Event)) func() {
	w.subMu.Lock()
	defer w.subMu.Unlock()
	id := w.nextSub
	w.nextSub++
	w.subs[id] = fn
	return func() {
		w.subMu.Lock()
		delete(w.subs, id)
		w.subMu.Unlock()
	}
}

func (w *Workspace) notify(ev Event) {
	w.subMu.Lock()
	fns := make([]func(Event), 0, len(w.subs))
	for _, fn := range w.subs {
		fns = append(fns, fn)
	}
	w.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// User returns the bound identity, or "" when logged out.
func (w *Workspace) User() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.user
}

func (w *Workspace) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return Snapshot{
		User:         w.user,
		Transactions: append([]core.Transaction(nil), w.txs...),
		Summary:      w.summary,
		Epoch:        w.epoch,
	}
}

func (w *Workspace) identity() (string, uint64, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.user, w.epoch, w.user != ""
}

// issue captures the identity for a fetch and numbers it.
func (w *Workspace) issue() (user string, epoch, seq uint64, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seq++
	return w.user, w.epoch, w.seq, w.user != ""
}

// Bind sets the identity. A change of identity clears state, invalidates
// in-flight fetches and triggers a refresh; rebinding the same user is a no-op.
func (w *Workspace) Bind(ctx context.Context, user string) error {
	w.mu.Lock()
	if w.user == user {
		w.mu.Unlock()
		return nil
	}
	w.user = user
	w.epoch++
	w.txs = nil
	w.summary = core.Summary{}
	epoch := w.epoch
	w.mu.Unlock()

	w.notify(Event{Kind: EventSessionChanged, User: user, Epoch: epoch})
	if user == "" {
		return nil
	}
	return w.Refresh(ctx)
}

// Logout clears the list and resets the summary without fetching.
func (w *Workspace) Logout() {
	w.mu.Lock()
	w.user = ""
	w.epoch++
	w.txs = nil
	w.summary = core.Summary{}
	epoch := w.epoch
	w.mu.Unlock()

	w.notify(Event{Kind: EventSessionChanged, Epoch: epoch})
	w.notify(Event{Kind: EventTransactionsChanged, Epoch: epoch})
	w.notify(Event{Kind: EventSummaryChanged, Epoch: epoch})
}

// FetchTransactions replaces the list with the backend's. It does nothing
// when no identity is bound.
func (w *Workspace) FetchTransactions(ctx context.Context) error {
	user, epoch, seq, ok := w.issue()
	if !ok {
		return nil
	}

	txs, err := w.backend.ListTransactions(ctx, user)
	if err != nil {
		w.metrics.FetchErrors.Add(1)
		w.logger.LogError(ctx, "Failed to fetch transactions", err, log.OpList, log.NewFields().WithUser(user))
		return fmt.Errorf("fetch transactions: %w", err)
	}

	w.mu.Lock()
	if w.epoch != epoch {
		w.mu.Unlock()
		w.discard(ctx, log.OpList, user, epoch)
		return nil
	}
	if seq < w.txsSeq {
		w.mu.Unlock()
		w.discard(ctx, log.OpList, user, epoch)
		return nil
	}
	w.txs = txs
	w.txsSeq = seq
	w.mu.Unlock()

	w.notify(Event{Kind: EventTransactionsChanged, User: user, Epoch: epoch})
	return nil
}

// FetchSummary replaces the summary. On failure the previous values stay.
func (w *Workspace) FetchSummary(ctx context.Context) error {
	user, epoch, seq, ok := w.issue()
	if !ok {
		return nil
	}

	sum, err := w.backend.ReadSummary(ctx, user)
	if err != nil {
		w.metrics.FetchErrors.Add(1)
		w.logger.LogError(ctx, "Failed to fetch summary: "+backend.UserMessage(err, "request failed"), err, log.OpSummary, log.NewFields().WithUser(user))
		return fmt.Errorf("fetch summary: %w", err)
	}

	w.mu.Lock()
	if w.epoch != epoch {
		w.mu.Unlock()
		w.discard(ctx, log.OpSummary, user, epoch)
		return nil
	}
	if seq < w.sumSeq {
		w.mu.Unlock()
		w.discard(ctx, log.OpSummary, user, epoch)
		return nil
	}
	w.summary = sum
	w.sumSeq = seq
	w.mu.Unlock()

	w.notify(Event{Kind: EventSummaryChanged, User: user, Epoch: epoch})
	return nil
}

func (w *Workspace) discard(ctx context.Context, op, user string, epoch uint64) {
	w.metrics.StaleDiscards.Add(1)
	slog.DebugContext(ctx, "Discarded stale response",
		log.FieldComponent, log.ComponentWorkspace,
		log.FieldOperation, op,
		log.FieldUser, user,
		log.FieldEpoch, epoch)
}

// Refresh fetches transactions and summary concurrently. Concurrent calls
// for the same identity share one round trip.
func (w *Workspace) Refresh(ctx context.Context) error {
	user, epoch, ok := w.identity()
	if !ok {
		return nil
	}

	key := fmt.Sprintf("%s#%d", user, epoch)
	_, err, _ := w.flight.Do(key, func() (any, error) {
		return nil, w.fetchAll(ctx)
	})
	return err
}

// fetchAll runs both fetches without joining a shared flight. Writes use it
// so the refresh they trigger always starts after the write.
func (w *Workspace) fetchAll(ctx context.Context) error {
	w.metrics.Refreshes.Add(1)
	var g errgroup.Group
	g.Go(func() error { return w.FetchTransactions(ctx) })
	g.Go(func() error { return w.FetchSummary(ctx) })
	return g.Wait()
}

// AddTransaction creates t for the bound user and refreshes.
func (w *Workspace) AddTransaction(ctx context.Context, t core.Transaction) error {
	user, _, ok := w.identity()
	if !ok {
		return ErrNoSession
	}
	t.ID = ""
	t.User = user
	if t.Category == "" {
		t.Category = core.Income
	}
	if err := t.Validate(); err != nil {
		return &ValidationError{Field: "transaction", Message: err.Error(), Err: err}
	}

	if err := w.backend.CreateTransaction(ctx, t); err != nil {
		w.logger.LogError(ctx, "Failed to create transaction", err, log.OpCreate,
			log.NewFields().WithUser(user).WithTransaction("", t.Category.String(), t.Amount.Fixed(), t.Description))
		return fmt.Errorf("add transaction: %w", err)
	}

	return w.afterMutation(ctx, EventTransactionCreated, amqp.TransactionCreated, t)
}

// EditTransaction replaces amount and description of a listed transaction.
// amountInput must parse as a non-negative number; otherwise no request is made.
func (w *Workspace) EditTransaction(ctx context.Context, id, amountInput, description string) error {
	user, _, ok := w.identity()
	if !ok {
		return ErrNoSession
	}

	amount, err := core.ParseAmount(amountInput)
	if err != nil {
		return &ValidationError{Field: "amount", Message: EditAmountMessage, Err: err}
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return &ValidationError{Field: "description", Message: "Please enter a description.", Err: core.ErrEmptyDescription}
	}

	current, ok := w.lookup(id)
	if !ok {
		return fmt.Errorf("edit transaction %s: %w", id, ErrUnknownTransaction)
	}
	updated := current.WithEdit(amount, description)
	updated.User = user

	if err := w.backend.UpdateTransaction(ctx, updated); err != nil {
		w.logger.LogError(ctx, "Failed to update transaction", err, log.OpUpdate,
			log.NewFields().WithUser(user).WithTransaction(id, updated.Category.String(), updated.Amount.Fixed(), updated.Description))
		return fmt.Errorf("edit transaction: %w", err)
	}

	return w.afterMutation(ctx, EventTransactionUpdated, amqp.TransactionUpdated, updated)
}

// DeleteTransaction removes id once the user has confirmed. Without
// confirmation it returns ErrNotConfirmed and issues no request.
func (w *Workspace) DeleteTransaction(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	user, _, ok := w.identity()
	if !ok {
		return ErrNoSession
	}
	current, ok := w.lookup(id)
	if !ok {
		current = core.Transaction{ID: id, User: user}
	}

	if err := w.backend.DeleteTransaction(ctx, id); err != nil {
		w.logger.LogError(ctx, "Failed to delete transaction", err, log.OpDelete,
			log.NewFields().WithUser(user).WithTransaction(id, "", "", ""))
		return fmt.Errorf("delete transaction: %w", err)
	}

	return w.afterMutation(ctx, EventTransactionDeleted, amqp.TransactionDeleted, current)
}

// Transaction returns the listed transaction with id.
func (w *Workspace) Transaction(id string) (core.Transaction, bool) {
	return w.lookup(id)
}

func (w *Workspace) lookup(id string) (core.Transaction, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, t := range w.txs {
		if t.ID == id {
			return t, true
		}
	}
	return core.Transaction{}, false
}

func (w *Workspace) afterMutation(ctx context.Context, kind EventKind, typ amqp.EventType, t core.Transaction) error {
	w.metrics.Mutations.Add(1)
	user, epoch, _ := w.identity()

	w.logger.LogMutation(ctx, mutationOp(kind), user,
		log.NewFields().WithTransaction(t.ID, t.Category.String(), t.Amount.Fixed(), t.Description))

	w.publish(ctx, typ, t)
	w.notify(Event{Kind: kind, User: user, TransactionID: t.ID, Epoch: epoch})

	if _, _, ok := w.identity(); !ok {
		return nil
	}
	if err := w.fetchAll(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRefresh, err)
	}
	return nil
}

func (w *Workspace) publish(ctx context.Context, typ amqp.EventType, t core.Transaction) {
	if w.publisher == nil {
		return
	}
	ev := amqp.NewTransactionEvent(typ, t.ID, t.User)
	if typ != amqp.TransactionDeleted {
		ev.Amount = t.Amount.Fixed()
		ev.Category = t.Category.String()
		ev.Description = t.Description
	}
	if err := w.publisher.PublishTransactionEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldComponent, log.ComponentAMQP,
			"type", typ,
			log.FieldTransactionID, t.ID,
			log.FieldError, err)
	}
}

func mutationOp(kind EventKind) string {
	switch kind {
	case EventTransactionCreated:
		return log.OpCreate
	case EventTransactionUpdated:
		return log.OpUpdate
	default:
		return log.OpDelete
	}
}
