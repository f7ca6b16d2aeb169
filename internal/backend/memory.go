package backend

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/amandhiraj/financetracker/internal/core"
)

// MemoryStore is a process-local stand-in for the finance tracker
// service, used for development and tests.
type MemoryStore struct {
	mu    sync.Mutex
	cost  int
	users map[string][]byte
	items []core.Transaction
}

type MemoryOption func(*MemoryStore)

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) MemoryOption {
	return func(s *MemoryStore) { s.cost = cost }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		cost:  bcrypt.DefaultCost,
		users: make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Register(_ context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return &APIError{Status: http.StatusBadRequest, Message: "Username and password are required"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return &APIError{Status: http.StatusInternalServerError, Message: "Registration failed! Please try again."}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return &APIError{Status: http.StatusBadRequest, Message: "Username already exists", Err: ErrUsernameTaken}
	}
	s.users[username] = hash
	return nil
}

func (s *MemoryStore) Login(_ context.Context, username, password string) (string, error) {
	s.mu.Lock()
	hash, ok := s.users[strings.TrimSpace(username)]
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return "", &APIError{Status: http.StatusUnauthorized, Message: "Invalid username or password", Err: ErrUnauthorized}
	}
	return strings.TrimSpace(username), nil
}

// ListTransactions returns the user's transactions in insertion order.
func (s *MemoryStore) ListTransactions(_ context.Context, user string) ([]core.Transaction, error) {
	if user == "" {
		return nil, errUserRequired()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, t := range s.items {
		if t.User == user {
			out = append(out, t)
		}
	}
	return out, nil
}

// ReadSummary aggregates exactly the "income" and "expense" categories;
// other labels are listed but not counted.
func (s *MemoryStore) ReadSummary(_ context.Context, user string) (core.Summary, error) {
	if user == "" {
		return core.Summary{}, errUserRequired()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum core.Summary
	for _, t := range s.items {
		if t.User != user {
			continue
		}
		switch t.Category {
		case core.Income:
			sum.TotalIncome = core.NewMoney(sum.TotalIncome.Add(t.Amount.Decimal))
		case core.Expense:
			sum.TotalExpenses = core.NewMoney(sum.TotalExpenses.Add(t.Amount.Decimal))
		}
	}
	sum.Balance = core.NewMoney(sum.TotalIncome.Sub(sum.TotalExpenses.Decimal))
	return sum, nil
}

func (s *MemoryStore) CreateTransaction(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return &APIError{Status: http.StatusBadRequest, Message: "Failed to add transaction.", Err: err}
	}
	t.ID = uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, t)
	return nil
}

// UpdateTransaction replaces amount, category and description. The owner
// is never changed.
func (s *MemoryStore) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != t.ID {
			continue
		}
		s.items[i].Amount = t.Amount
		s.items[i].Category = t.Category
		s.items[i].Description = t.Description
		return nil
	}
	return errNoTransaction()
}

func (s *MemoryStore) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return errNoTransaction()
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func errUserRequired() error {
	return &APIError{Status: http.StatusBadRequest, Message: "User parameter is required"}
}

func errNoTransaction() error {
	return &APIError{Status: http.StatusNotFound, Message: "No transaction found with that ID.", Err: ErrNotFound}
}
