package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"conti/internal/core"
	"conti/internal/fx"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type staticRates []core.ExchangeRate

func (s staticRates) ListRatesForConversion(_ context.Context, _ fx.RateQuery) ([]core.ExchangeRate, error) {
	return s, nil
}

var usdBook = core.Book{ID: uuid.New(), Name: "Home", BaseCurrency: "USD"}

func day(m time.Month, d int) time.Time {
	return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTx(typ core.TransactionType, amount, currency string, date time.Time, category *uuid.UUID) core.Transaction {
	return core.Transaction{
		ID:         uuid.New(),
		BookID:     usdBook.ID,
		Type:       typ,
		Amount:     dec(amount),
		Currency:   currency,
		Date:       date,
		CategoryID: category,
	}
}

func newAggregator(rates ...core.ExchangeRate) *Aggregator {
	return NewAggregator(fx.NewConverter(staticRates(rates)))
}

func eurUSD(value string, effective time.Time) core.ExchangeRate {
	return core.ExchangeRate{ID: uuid.New(), Base: "EUR", Quote: "USD", Rate: dec(value), EffectiveDate: effective, Source: "test"}
}

func TestMonthlySummaryConvertsToBaseCurrency(t *testing.T) {
	agg := newAggregator(eurUSD("1.2", day(time.January, 10)))
	txs := []core.Transaction{
		newTx(core.Income, "100", "EUR", day(time.January, 12), nil),
		newTx(core.Expense, "30", "USD", day(time.January, 15), nil),
		newTx(core.Transfer, "500", "USD", day(time.January, 16), nil),
		newTx(core.Expense, "999", "USD", day(time.February, 1), nil),
	}
	period, _ := core.MonthPeriod(2026, 1)

	got, err := agg.Summary(context.Background(), usdBook, period, txs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IncomeTotal.Equal(dec("120")) || !got.ExpenseTotal.Equal(dec("30")) || !got.NetTotal.Equal(dec("90")) {
		t.Fatalf("got income=%s expense=%s net=%s, want 120/30/90", got.IncomeTotal, got.ExpenseTotal, got.NetTotal)
	}
	if got.BaseCurrency != "USD" || got.Period != period {
		t.Fatalf("unexpected header %s %s", got.BaseCurrency, got.Period)
	}
}

func TestYearlySummaryMatchesMonthly(t *testing.T) {
	agg := newAggregator(eurUSD("1.2", day(time.January, 10)))
	txs := []core.Transaction{
		newTx(core.Income, "100", "EUR", day(time.January, 12), nil),
		newTx(core.Expense, "30", "USD", day(time.January, 15), nil),
	}

	got, err := agg.Summary(context.Background(), usdBook, core.YearPeriod(2026), txs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.NetTotal.Equal(dec("90")) {
		t.Fatalf("net = %s, want 90", got.NetTotal)
	}
}

func TestSummarySumsUnroundedConversions(t *testing.T) {
	agg := newAggregator(core.ExchangeRate{ID: uuid.New(), Base: "USD", Quote: "JPY", Rate: dec("3"), EffectiveDate: day(time.January, 1), Source: "test"})
	txs := []core.Transaction{
		newTx(core.Expense, "1", "JPY", day(time.January, 5), nil),
		newTx(core.Expense, "1", "JPY", day(time.January, 6), nil),
		newTx(core.Expense, "1", "JPY", day(time.January, 7), nil),
	}
	period, _ := core.MonthPeriod(2026, 1)

	got, err := agg.Summary(context.Background(), usdBook, period, txs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rounded := core.RoundAmount(got.ExpenseTotal); !rounded.Equal(dec("1")) {
		t.Fatalf("expense total %s rounds to %s, want 1.0000", got.ExpenseTotal, rounded)
	}
}

func TestSummaryRefundReducesExpenses(t *testing.T) {
	agg := newAggregator()
	txs := []core.Transaction{
		newTx(core.Expense, "80", "USD", day(time.March, 2), nil),
		newTx(core.Expense, "-20", "USD", day(time.March, 3), nil),
	}
	period, _ := core.MonthPeriod(2026, 3)

	got, err := agg.Summary(context.Background(), usdBook, period, txs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.ExpenseTotal.Equal(dec("60")) || !got.NetTotal.Equal(dec("-60")) {
		t.Fatalf("expense=%s net=%s, want 60/-60", got.ExpenseTotal, got.NetTotal)
	}
}

func TestSummaryFailsOnMissingRate(t *testing.T) {
	agg := newAggregator()
	txs := []core.Transaction{
		newTx(core.Income, "200", "GBP", day(time.January, 8), nil),
		newTx(core.Expense, "30", "USD", day(time.January, 15), nil),
	}
	period, _ := core.MonthPeriod(2026, 1)

	_, err := agg.Summary(context.Background(), usdBook, period, txs)
	var gap *core.ConversionGapError
	if !errors.As(err, &gap) {
		t.Fatalf("expected ConversionGapError, got %v", err)
	}
	if len(gap.Missing) != 1 || !strings.Contains(gap.Missing[0], "GBP->USD") || !strings.Contains(gap.Missing[0], "2026-01-08") {
		t.Fatalf("unexpected diagnostics %v", gap.Missing)
	}
}

func TestCategoryDistribution(t *testing.T) {
	food := core.Category{ID: uuid.New(), BookID: usdBook.ID, Name: "Food", Type: core.ExpenseCategory}
	travel := core.Category{ID: uuid.New(), BookID: usdBook.ID, Name: "Travel", Type: core.ExpenseCategory}
	returns := core.Category{ID: uuid.New(), BookID: usdBook.ID, Name: "Returns", Type: core.ExpenseCategory}
	salary := core.Category{ID: uuid.New(), BookID: usdBook.ID, Name: "Salary", Type: core.IncomeCategory}
	categories := []core.Category{food, travel, returns, salary}

	agg := newAggregator(core.ExchangeRate{ID: uuid.New(), Base: "USD", Quote: "JPY", Rate: dec("100"), EffectiveDate: day(time.January, 5)})
	txs := []core.Transaction{
		newTx(core.Expense, "1000", "JPY", day(time.January, 7), &food.ID),
		newTx(core.Expense, "20", "USD", day(time.January, 8), &travel.ID),
		newTx(core.Expense, "5", "USD", day(time.January, 9), &food.ID),
		newTx(core.Expense, "-50", "USD", day(time.January, 9), &returns.ID),
		newTx(core.Income, "900", "USD", day(time.January, 9), &salary.ID),
		newTx(core.Expense, "7", "USD", day(time.January, 9), nil),
	}
	period, _ := core.MonthPeriod(2026, 1)

	got, err := agg.CategoryDistribution(context.Background(), usdBook, period, core.ExpenseCategory, txs, categories)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		name  string
		total string
	}{
		{"Returns", "-50"},
		{"Travel", "20"},
		{"Food", "15"},
	}
	if len(got.Items) != len(want) {
		t.Fatalf("got %d rows, want %d: %+v", len(got.Items), len(want), got.Items)
	}
	for i, w := range want {
		if got.Items[i].CategoryName != w.name || !got.Items[i].Total.Equal(dec(w.total)) {
			t.Errorf("row %d = %s %s, want %s %s", i, got.Items[i].CategoryName, got.Items[i].Total, w.name, w.total)
		}
	}
	for i := 1; i < len(got.Items); i++ {
		if got.Items[i].Total.Abs().GreaterThan(got.Items[i-1].Total.Abs()) {
			t.Fatalf("rows not ordered by absolute total: %+v", got.Items)
		}
	}
	if got.Type != core.ExpenseCategory || got.BaseCurrency != "USD" {
		t.Fatalf("unexpected header %s %s", got.Type, got.BaseCurrency)
	}
}

func TestCategoryDistributionIncome(t *testing.T) {
	salary := core.Category{ID: uuid.New(), Name: "Salary", Type: core.IncomeCategory}
	agg := newAggregator()
	txs := []core.Transaction{
		newTx(core.Income, "900", "USD", day(time.May, 1), &salary.ID),
		newTx(core.Income, "100", "USD", day(time.June, 1), &salary.ID),
	}

	got, err := agg.CategoryDistribution(context.Background(), usdBook, core.YearPeriod(2026), core.IncomeCategory, txs, []core.Category{salary})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Items) != 1 || !got.Items[0].Total.Equal(dec("1000")) {
		t.Fatalf("unexpected rows %+v", got.Items)
	}
}

func TestCategoryDistributionFailsOnMissingRate(t *testing.T) {
	food := core.Category{ID: uuid.New(), Name: "Food", Type: core.ExpenseCategory}
	agg := newAggregator()
	txs := []core.Transaction{newTx(core.Expense, "10", "CHF", day(time.January, 3), &food.ID)}
	period, _ := core.MonthPeriod(2026, 1)

	_, err := agg.CategoryDistribution(context.Background(), usdBook, period, core.ExpenseCategory, txs, []core.Category{food})
	if !core.IsConversionGap(err) {
		t.Fatalf("expected conversion gap, got %v", err)
	}
}
