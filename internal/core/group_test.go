package core

import "testing"

func tx(id string, cat Category) Transaction {
	return Transaction{ID: id, Category: cat, Amount: MoneyFromFloat(1), Description: id, User: "u"}
}

func TestGroupByCategoryPartitions(t *testing.T) {
	in := []Transaction{
		tx("1", Income),
		tx("2", Expense),
		tx("3", Income),
		tx("4", "gift"),
		tx("5", Expense),
	}
	groups := GroupByCategory(in)

	wantOrder := []Category{Income, Expense, "gift"}
	if len(groups) != len(wantOrder) {
		t.Fatalf("expected %d groups, got %d", len(wantOrder), len(groups))
	}
	seen := map[string]int{}
	for i, g := range groups {
		if g.Category != wantOrder[i] {
			t.Fatalf("group %d = %q, want %q", i, g.Category, wantOrder[i])
		}
		for _, tr := range g.Transactions {
			if tr.Category != g.Category {
				t.Fatalf("transaction %s in wrong group %q", tr.ID, g.Category)
			}
			seen[tr.ID]++
		}
	}
	for _, tr := range in {
		if seen[tr.ID] != 1 {
			t.Fatalf("transaction %s appears %d times", tr.ID, seen[tr.ID])
		}
	}

	// intra-group order follows input order
	inc := groups[0].Transactions
	if inc[0].ID != "1" || inc[1].ID != "3" {
		t.Fatalf("unexpected income order: %v, %v", inc[0].ID, inc[1].ID)
	}
	exp := groups[1].Transactions
	if exp[0].ID != "2" || exp[1].ID != "5" {
		t.Fatalf("unexpected expense order: %v, %v", exp[0].ID, exp[1].ID)
	}
}

func TestGroupByCategoryEmpty(t *testing.T) {
	if groups := GroupByCategory(nil); len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
	if groups := GroupByCategory([]Transaction{}); len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}
