package http

import (
	"html/template"
	"strings"

	"github.com/amandhiraj/financetracker/internal/core"
)

// templateFuncs are available to every template.
var templateFuncs = template.FuncMap{
	"label": func(c core.Category) string {
		s := c.String()
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

type authPageView struct {
	Title    string
	Username string
	Error    string
}

type entryFormView struct {
	Amount      string
	Category    core.Category
	Description string
	Categories  []core.Category
	Error       string
}

// defaultEntryForm is the form after a successful submission: amount and
// description empty, category income.
func defaultEntryForm() entryFormView {
	return entryFormView{
		Category:   core.Income,
		Categories: core.Categories(),
	}
}

type summaryView struct {
	TotalIncome   string
	TotalExpenses string
	Balance       string
}

func newSummaryView(s core.Summary) summaryView {
	return summaryView{
		TotalIncome:   core.FormatDollars(s.TotalIncome),
		TotalExpenses: core.FormatDollars(s.TotalExpenses),
		Balance:       core.FormatDollars(s.Balance),
	}
}

type itemView struct {
	ID          string
	Description string
	Amount      string
}

type groupView struct {
	Category string
	Items    []itemView
}

type listView struct {
	Groups []groupView
}

func newListView(groups []core.Group) listView {
	v := listView{Groups: make([]groupView, 0, len(groups))}
	for _, g := range groups {
		gv := groupView{Category: g.Category.String()}
		for _, t := range g.Transactions {
			gv.Items = append(gv.Items, itemView{
				ID:          t.ID,
				Description: t.Description,
				Amount:      core.FormatDollars(t.Amount),
			})
		}
		v.Groups = append(v.Groups, gv)
	}
	return v
}

type workspacePageView struct {
	Title   string
	User    string
	Form    entryFormView
	Summary summaryView
	List    listView
}

type editDialogView struct {
	ID          string
	Amount      string
	Description string
	Error       string
}

type deleteDialogView struct {
	ID          string
	Description string
	Amount      string
}
