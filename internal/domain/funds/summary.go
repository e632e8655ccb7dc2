package funds

import "sort"

type CategorySummary struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Planned    Money  `json:"planned"`
	Spent      Money  `json:"spent"`
	Remaining  Money  `json:"remaining"`
}

type Summary struct {
	FundID        int64             `json:"fund_id"`
	Budget        Money             `json:"budget"`
	Income        Money             `json:"income"`
	Expense       Money             `json:"expense"`
	Balance       Money             `json:"balance"`
	Planned       Money             `json:"planned"`
	Unplanned     Money             `json:"unplanned"` // бюджет минус распределённое по статьям
	Uncategorised Money             `json:"uncategorised"`
	Categories    []CategorySummary `json:"categories"`
}

// Summarize сводит бюджет фонда: balance = budget + income - expense.
// Расход без статьи (или со статьёй чужого фонда) попадает в Uncategorised.
func Summarize(f Fund, cats []Category, txs []Transaction) Summary {
	s := Summary{FundID: f.ID, Budget: f.Budget, Categories: []CategorySummary{}}

	idx := map[int64]int{}
	for _, c := range cats {
		if c.FundID != f.ID {
			continue
		}
		idx[c.ID] = len(s.Categories)
		s.Categories = append(s.Categories, CategorySummary{CategoryID: c.ID, Name: c.Name, Planned: c.Planned})
		s.Planned = s.Planned.Add(c.Planned)
	}

	for _, t := range txs {
		if t.FundID != f.ID {
			continue
		}
		switch t.Kind {
		case KindIncome:
			s.Income = s.Income.Add(t.Amount)
		case KindExpense:
			s.Expense = s.Expense.Add(t.Amount)
			if t.CategoryID != nil {
				if i, ok := idx[*t.CategoryID]; ok {
					s.Categories[i].Spent = s.Categories[i].Spent.Add(t.Amount)
					continue
				}
			}
			s.Uncategorised = s.Uncategorised.Add(t.Amount)
		}
	}

	for i := range s.Categories {
		c := &s.Categories[i]
		c.Remaining = c.Planned.Sub(c.Spent)
	}
	sort.SliceStable(s.Categories, func(i, j int) bool { return s.Categories[i].Name < s.Categories[j].Name })

	s.Balance = s.Budget.Add(s.Income).Sub(s.Expense)
	s.Unplanned = s.Budget.Sub(s.Planned)
	return s
}
