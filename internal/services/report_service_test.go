package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"conti/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (f *fixture) record(t *testing.T, in core.TransactionInput) core.Transaction {
	t.Helper()
	tx, err := f.svc.RecordTransaction(context.Background(), f.book.ID, in)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	return tx
}

func TestMonthlySummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reports := NewReportService(f.store, f.metrics)

	if _, err := f.svc.RecordRate(ctx, RateInput{Base: "EUR", Quote: "USD", Rate: decimal.RequireFromString("1.5"), EffectiveDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}); err != nil {
		t.Fatalf("record rate: %v", err)
	}
	f.record(t, f.expense("40"))
	f.record(t, core.TransactionInput{
		Type: core.Income, Date: time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
		Amount: decimal.NewFromInt(100), Currency: "EUR", AccountID: f.savings.ID, CategoryID: &f.salary.ID,
	})
	outside := f.expense("999")
	outside.Date = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	f.record(t, outside)

	rep, err := reports.MonthlySummary(ctx, f.book.ID, 2026, 1)
	if err != nil {
		t.Fatalf("monthly summary: %v", err)
	}
	if !rep.IncomeTotal.Equal(decimal.NewFromInt(150)) || !rep.ExpenseTotal.Equal(decimal.NewFromInt(40)) || !rep.NetTotal.Equal(decimal.NewFromInt(110)) {
		t.Fatalf("got income=%s expense=%s net=%s", rep.IncomeTotal, rep.ExpenseTotal, rep.NetTotal)
	}
	if got := f.metrics.Snapshot().Reports[ReportMonthly+"/ok"]; got != 1 {
		t.Fatalf("ok report counter = %v, want 1", got)
	}

	yearly, err := reports.YearlySummary(ctx, f.book.ID, 2026)
	if err != nil {
		t.Fatalf("yearly summary: %v", err)
	}
	if !yearly.ExpenseTotal.Equal(decimal.NewFromInt(1039)) {
		t.Fatalf("yearly expense = %s, want 1039", yearly.ExpenseTotal)
	}
}

func TestMonthlySummaryMissingRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reports := NewReportService(f.store, f.metrics)

	in := f.expense("10")
	in.Currency = "JPY"
	f.record(t, in)

	_, err := reports.MonthlySummary(ctx, f.book.ID, 2026, 1)
	var gap *core.ConversionGapError
	if !errors.As(err, &gap) || len(gap.Missing) != 1 {
		t.Fatalf("expected one missing rate, got %v", err)
	}
	snap := f.metrics.Snapshot()
	if snap.Reports[ReportMonthly+"/missing_rate"] != 1 || snap.MissingRates != 1 {
		t.Fatalf("gap not counted: %+v", snap)
	}
}

func TestReportValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reports := NewReportService(f.store, f.metrics)

	for _, month := range []int{0, 13} {
		_, err := reports.MonthlySummary(ctx, f.book.ID, 2026, month)
		var ve *core.ValidationError
		if !errors.As(err, &ve) || ve.Rule != "report_month" {
			t.Fatalf("month %d: expected report_month, got %v", month, err)
		}
	}
	if _, err := reports.CategoryDistribution(ctx, f.book.ID, 2026, nil, "Gift"); !core.IsValidation(err) {
		t.Fatalf("bad category type must be rejected, got %v", err)
	}
	if _, err := reports.YearlySummary(ctx, uuid.New(), 2026); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("unknown book must be not found, got %v", err)
	}
}

func TestCategoryDistribution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reports := NewReportService(f.store, f.metrics)

	rent, err := f.svc.CreateCategory(ctx, f.book.ID, CategoryInput{Name: "Rent", Type: core.ExpenseCategory})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	f.record(t, f.expense("30"))
	f.record(t, f.expense("15"))
	big := f.expense("800")
	big.CategoryID = &rent.ID
	f.record(t, big)
	refund := f.expense("5")
	refund.IsRefund = true
	f.record(t, refund)

	month := 1
	dist, err := reports.CategoryDistribution(ctx, f.book.ID, 2026, &month, core.ExpenseCategory)
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	if len(dist.Items) != 2 {
		t.Fatalf("items = %+v, want 2", dist.Items)
	}
	if dist.Items[0].CategoryName != "Rent" || !dist.Items[1].Total.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("unexpected rows %+v", dist.Items)
	}

	income, err := reports.CategoryDistribution(ctx, f.book.ID, 2026, nil, core.IncomeCategory)
	if err != nil || len(income.Items) != 0 {
		t.Fatalf("income distribution = %+v, %v", income, err)
	}
}
