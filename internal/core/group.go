package core

// Group is one rendered section of the transaction list.
type Group struct {
	Category     Category
	Transactions []Transaction
}

// GroupByCategory partitions transactions by category label.
//
// Groups appear in order of the first occurrence of their label and keep
// the input order inside each group. Every transaction lands in exactly one
// group. An empty input yields no groups.
func GroupByCategory(txs []Transaction) []Group {
	if len(txs) == 0 {
		return nil
	}
	index := make(map[Category]int)
	var groups []Group
	for _, t := range txs {
		i, ok := index[t.Category]
		if !ok {
			i = len(groups)
			index[t.Category] = i
			groups = append(groups, Group{Category: t.Category})
		}
		groups[i].Transactions = append(groups[i].Transactions, t)
	}
	return groups
}
