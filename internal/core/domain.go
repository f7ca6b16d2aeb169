package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Income  Category = "income"
	Expense Category = "expense"
)

type (
	// Category is the transaction kind. It doubles as a free-form grouping
	// label, so values outside Income and Expense are kept as-is.
	Category string

	Money struct {
		decimal.Decimal
	}

	Transaction struct {
		ID          string
		Amount      Money
		Category    Category
		Description string
		User        string
	}

	// Summary is the backend-computed aggregate for one user.
	Summary struct {
		TotalIncome   Money
		TotalExpenses Money
		Balance       Money
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyUser        = errors.New("empty user")
)

// Categories returns the kinds offered by the entry form, default first.
func Categories() []Category {
	return []Category{Income, Expense}
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory maps form input onto a Category, falling back to Income.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case Expense:
		return Expense
	default:
		return Income
	}
}

func (m Money) Validate() error {
	if m.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(string(t.Category)) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if strings.TrimSpace(t.User) == "" {
		return ErrEmptyUser
	}
	return nil
}

// WithEdit returns a copy carrying the replaced amount and description.
// ID, category and owner are preserved.
func (t Transaction) WithEdit(amount Money, description string) Transaction {
	t.Amount = amount
	t.Description = description
	return t
}

// IsZero reports whether the summary holds no data.
func (s Summary) IsZero() bool {
	return s.TotalIncome.IsZero() && s.TotalExpenses.IsZero() && s.Balance.IsZero()
}
