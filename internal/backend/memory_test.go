package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/amandhiraj/financetracker/internal/core"
)

func newTestStore() *MemoryStore {
	return NewMemoryStore(WithBcryptCost(bcrypt.MinCost))
}

func TestMemoryStore_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.Register(ctx, "alice", "secret"))
	assert.ErrorIs(t, s.Register(ctx, "alice", "other"), ErrUsernameTaken)

	user, err := s.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user)

	_, err = s.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Invalid username or password", UserMessage(err, ""))

	_, err = s.Login(ctx, "bob", "secret")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestMemoryStore_TransactionsAndSummary(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	add := func(user string, amount float64, cat core.Category, desc string) {
		t.Helper()
		require.NoError(t, s.CreateTransaction(ctx, core.Transaction{
			Amount:      core.MoneyFromFloat(amount),
			Category:    cat,
			Description: desc,
			User:        user,
		}))
	}
	add("alice", 1000, core.Income, "Salary")
	add("alice", 400, core.Expense, "Rent")
	add("bob", 5, core.Expense, "Snack")
	add("alice", 30, core.Category("gift"), "Flowers")

	txs, err := s.ListTransactions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "Salary", txs[0].Description)
	assert.NotEmpty(t, txs[0].ID)
	assert.NotEqual(t, txs[0].ID, txs[1].ID)

	sum, err := s.ReadSummary(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "$1000.00", core.FormatDollars(sum.TotalIncome))
	assert.Equal(t, "$400.00", core.FormatDollars(sum.TotalExpenses))
	assert.Equal(t, "$600.00", core.FormatDollars(sum.Balance))

	empty, err := s.ReadSummary(ctx, "carol")
	require.NoError(t, err)
	assert.True(t, empty.IsZero())

	_, err = s.ListTransactions(ctx, "")
	assert.Error(t, err)
}

func TestMemoryStore_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.CreateTransaction(ctx, core.Transaction{
		Amount: core.MoneyFromFloat(10), Category: core.Expense, Description: "Lunch", User: "alice",
	}))
	txs, _ := s.ListTransactions(ctx, "alice")
	tx := txs[0]

	edited := tx.WithEdit(core.MoneyFromFloat(12.5), "Brunch")
	edited.User = "mallory"
	require.NoError(t, s.UpdateTransaction(ctx, edited))

	txs, _ = s.ListTransactions(ctx, "alice")
	require.Len(t, txs, 1)
	assert.Equal(t, "Brunch", txs[0].Description)
	assert.Equal(t, "12.50", txs[0].Amount.Fixed())

	assert.ErrorIs(t, s.UpdateTransaction(ctx, core.Transaction{ID: "nope"}), ErrNotFound)

	require.NoError(t, s.DeleteTransaction(ctx, tx.ID))
	assert.ErrorIs(t, s.DeleteTransaction(ctx, tx.ID), ErrNotFound)

	txs, _ = s.ListTransactions(ctx, "alice")
	assert.Empty(t, txs)
}

func TestMemoryStore_RejectsInvalidTransaction(t *testing.T) {
	s := newTestStore()
	err := s.CreateTransaction(context.Background(), core.Transaction{
		Amount: core.MoneyFromFloat(-1), Category: core.Income, Description: "x", User: "alice",
	})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestFactory_CreateBackend(t *testing.T) {
	f := NewFactory(nil)

	res, err := f.CreateBackend(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, res.Backend)

	res, err = f.CreateBackend(context.Background(), Config{Type: HTTPBackend, BaseURL: "http://localhost:5000"})
	require.NoError(t, err)
	assert.IsType(t, &HTTPClient{}, res.Backend)
	require.NotNil(t, res.Cleanup)
	assert.NoError(t, res.Cleanup())

	_, err = f.CreateBackend(context.Background(), Config{Type: "postgres"})
	assert.Error(t, err)

	_, err = f.CreateBackend(context.Background(), Config{Type: HTTPBackend})
	assert.Error(t, err)
}
