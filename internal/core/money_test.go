package core

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0", "0", true},
		{"0.01", "0.01", true},
		{" 2.50 ", "2.5", true},
		{"1000", "1000", true},
		{"-1", "", false},
		{"abc", "", false},
		{"12abc", "", false},
		{"1.2.3", "", false},
		{"NaN", "", false},
		{"Inf", "", false},
		{"1e400", "", false},
		{"-1e400", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got.String(), err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got.String())
		}
	}
}

func TestFormatDollars(t *testing.T) {
	cases := []struct {
		in   Money
		want string
	}{
		{MoneyFromFloat(1000), "$1000.00"},
		{MoneyFromFloat(400), "$400.00"},
		{MoneyFromFloat(600), "$600.00"},
		{MoneyFromFloat(12.5), "$12.50"},
		{MoneyFromFloat(0.005), "$0.01"},
		{MoneyFromFloat(-200), "-$200.00"},
		{Money{}, "$0.00"},
	}
	for _, tc := range cases {
		if got := FormatDollars(tc.in); got != tc.want {
			t.Errorf("FormatDollars(%s) = %q, want %q", tc.in.String(), got, tc.want)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{Amount: MoneyFromFloat(5), Category: Expense, Description: "coffee", User: "alice"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	noDesc := valid
	noDesc.Description = "  "
	if err := noDesc.Validate(); err != ErrEmptyDescription {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}

	negative := valid
	negative.Amount = MoneyFromFloat(-1)
	if err := negative.Validate(); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	noUser := valid
	noUser.User = ""
	if err := noUser.Validate(); err != ErrEmptyUser {
		t.Fatalf("expected ErrEmptyUser, got %v", err)
	}

	long := valid
	long.Description = strings.Repeat("x", 500)
	if err := long.Validate(); err != nil {
		t.Fatalf("long description should be accepted, got %v", err)
	}
}

func TestWithEditKeepsIdentity(t *testing.T) {
	orig := Transaction{ID: "t1", Amount: MoneyFromFloat(5), Category: Expense, Description: "old", User: "alice"}
	got := orig.WithEdit(MoneyFromFloat(7.25), "new")
	if got.ID != "t1" || got.Category != Expense || got.User != "alice" {
		t.Fatalf("identity fields changed: %+v", got)
	}
	if got.Description != "new" || !got.Amount.Equal(decimal.RequireFromString("7.25")) {
		t.Fatalf("edit not applied: %+v", got)
	}
	if orig.Description != "old" {
		t.Fatalf("original mutated")
	}
}

func TestParseCategory(t *testing.T) {
	if ParseCategory("expense") != Expense || ParseCategory(" EXPENSE ") != Expense {
		t.Fatal("expected expense")
	}
	if ParseCategory("") != Income || ParseCategory("other") != Income {
		t.Fatal("expected income default")
	}
}
