// Package report builds period summaries and category distributions in a
// book's base currency.
package report

import (
	"context"
	"fmt"
	"sort"

	"conti/internal/core"
	"conti/internal/fx"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Aggregator struct {
	converter *fx.Converter
}

func NewAggregator(converter *fx.Converter) *Aggregator {
	return &Aggregator{converter: converter}
}

// Summary totals income and expense transactions of txs that fall in period.
// Any missing rate fails the whole summary with a *core.ConversionGapError.
func (a *Aggregator) Summary(ctx context.Context, book core.Book, period core.Period, txs []core.Transaction) (core.SummaryReport, error) {
	selected := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if (tx.Type == core.Income || tx.Type == core.Expense) && period.Contains(tx.Date) {
			selected = append(selected, tx)
		}
	}

	res, err := a.converter.Convert(ctx, book.BaseCurrency, period.End, selected)
	if err != nil {
		return core.SummaryReport{}, fmt.Errorf("convert summary: %w", err)
	}
	if err := res.Err(); err != nil {
		return core.SummaryReport{}, err
	}

	income, expense := decimal.Zero, decimal.Zero
	for _, c := range res.Converted {
		switch c.Type {
		case core.Income:
			income = income.Add(c.BaseAmount)
		case core.Expense:
			expense = expense.Add(c.BaseAmount)
		}
	}

	return core.SummaryReport{
		BaseCurrency: core.NormalizeCurrency(book.BaseCurrency),
		Period:       period,
		IncomeTotal:  income,
		ExpenseTotal: expense,
		NetTotal:     income.Sub(expense),
	}, nil
}

// CategoryDistribution groups the transactions of the type matching
// catType by category. Transactions without a category, or whose category
// is not among categories, are left out. Rows are ordered by descending
// absolute total.
func (a *Aggregator) CategoryDistribution(ctx context.Context, book core.Book, period core.Period, catType core.CategoryType, txs []core.Transaction, categories []core.Category) (core.CategoryDistribution, error) {
	names := make(map[uuid.UUID]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	want := catType.TransactionType()
	selected := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Type != want || tx.CategoryID == nil || !period.Contains(tx.Date) {
			continue
		}
		if _, ok := names[*tx.CategoryID]; !ok {
			continue
		}
		selected = append(selected, tx)
	}

	res, err := a.converter.Convert(ctx, book.BaseCurrency, period.End, selected)
	if err != nil {
		return core.CategoryDistribution{}, fmt.Errorf("convert distribution: %w", err)
	}
	if err := res.Err(); err != nil {
		return core.CategoryDistribution{}, err
	}

	converted := res.ByID()
	totals := make(map[uuid.UUID]decimal.Decimal)
	order := make([]uuid.UUID, 0)
	for _, tx := range selected {
		id := *tx.CategoryID
		if _, seen := totals[id]; !seen {
			order = append(order, id)
		}
		totals[id] = totals[id].Add(converted[tx.ID])
	}

	items := make([]core.CategoryTotal, 0, len(order))
	for _, id := range order {
		items = append(items, core.CategoryTotal{CategoryID: id, CategoryName: names[id], Total: totals[id]})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Total.Abs().GreaterThan(items[j].Total.Abs())
	})

	return core.CategoryDistribution{
		BaseCurrency: core.NormalizeCurrency(book.BaseCurrency),
		Period:       period,
		Type:         catType,
		Items:        items,
	}, nil
}
