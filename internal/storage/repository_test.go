package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"conti/internal/core"
	"conti/internal/fx"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger", "conti.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seedBook(t *testing.T, repo *SQLiteRepository) (core.Book, core.Account, core.Category) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	book := core.Book{ID: uuid.New(), Name: "Home", BaseCurrency: "USD", CreatedAt: now}
	acc := core.Account{ID: uuid.New(), BookID: book.ID, Name: "Checking", Type: core.Bank, Currency: "USD", CreatedAt: now}
	cat := core.Category{ID: uuid.New(), BookID: book.ID, Name: "Food", Type: core.ExpenseCategory}
	if err := repo.CreateBook(ctx, book); err != nil {
		t.Fatalf("create book: %v", err)
	}
	if err := repo.CreateAccount(ctx, acc); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := repo.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("create category: %v", err)
	}
	return book, acc, cat
}

func TestRepositoryMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conti.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		_ = repo.Close()
	}
}

func TestRepositoryBookAccountCategory(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	book, acc, cat := seedBook(t, repo)

	got, err := repo.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if got.Name != "Home" || got.BaseCurrency != "USD" || !got.CreatedAt.Equal(book.CreatedAt) {
		t.Fatalf("unexpected book %+v", got)
	}
	if _, err := repo.GetBook(ctx, uuid.New()); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if ok, err := repo.AccountExists(ctx, book.ID, acc.ID); err != nil || !ok {
		t.Fatalf("account lookup = %v, %v", ok, err)
	}
	if ok, _ := repo.AccountExists(ctx, uuid.New(), acc.ID); ok {
		t.Fatalf("account must be scoped to its book")
	}
	if ok, _ := repo.CategoryExists(ctx, book.ID, cat.ID); !ok {
		t.Fatalf("category should exist")
	}

	child := core.Category{ID: uuid.New(), BookID: book.ID, ParentID: &cat.ID, Name: "Groceries", Type: core.ExpenseCategory}
	if err := repo.CreateCategory(ctx, child); err != nil {
		t.Fatalf("create child: %v", err)
	}
	cats, err := repo.ListCategories(ctx, book.ID)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(cats) != 2 || cats[1].Name != "Groceries" || cats[1].ParentID == nil || *cats[1].ParentID != cat.ID {
		t.Fatalf("unexpected categories %+v", cats)
	}

	accounts, err := repo.ListAccounts(ctx, book.ID)
	if err != nil || len(accounts) != 1 || accounts[0].Type != core.Bank {
		t.Fatalf("unexpected accounts %+v, %v", accounts, err)
	}
}

func TestRepositoryTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	book, acc, cat := seedBook(t, repo)

	in := core.Transaction{
		ID:         uuid.New(),
		BookID:     book.ID,
		Type:       core.Expense,
		Date:       time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC),
		Amount:     decimal.RequireFromString("-12.3456"),
		Currency:   "EUR",
		AccountID:  acc.ID,
		CategoryID: &cat.ID,
		Note:       "returned shoes",
		IsRefund:   true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := repo.CreateTransaction(ctx, in); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetTransaction(ctx, book.ID, in.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Amount.Equal(in.Amount) || !got.Date.Equal(in.Date) || !got.IsRefund || got.Version != 1 {
		t.Fatalf("round trip mismatch %+v", got)
	}
	if got.CategoryID == nil || *got.CategoryID != cat.ID || got.ToAccountID != nil || got.MemberID != nil {
		t.Fatalf("optional references mismatch %+v", got)
	}

	in.Note = "partial refund"
	in.Amount = decimal.RequireFromString("-6")
	updated, err := repo.UpdateTransaction(ctx, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 2 || updated.Note != "partial refund" || !updated.Amount.Equal(decimal.NewFromInt(-6)) {
		t.Fatalf("unexpected update result %+v", updated)
	}

	in.ID = uuid.New()
	if _, err := repo.UpdateTransaction(ctx, in); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetTransaction(ctx, uuid.New(), updated.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another book, got %v", err)
	}
}

func TestRepositoryTransactionPeriods(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	book, acc, _ := seedBook(t, repo)

	dates := []time.Time{
		time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 31, 23, 59, 59, 999, time.UTC),
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		err := repo.CreateTransaction(ctx, core.Transaction{
			ID: uuid.New(), BookID: book.ID, Type: core.Income, Date: d,
			Amount: decimal.NewFromInt(1), Currency: "USD", AccountID: acc.ID, CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, err := repo.ListTransactions(ctx, book.ID)
	if err != nil || len(all) != 4 {
		t.Fatalf("list all = %d, %v", len(all), err)
	}
	if !all[0].Date.Equal(dates[3]) {
		t.Fatalf("expected newest first, got %s", all[0].Date)
	}

	jan, err := repo.ListTransactionsInPeriod(ctx, book.ID, dates[1], dates[3])
	if err != nil {
		t.Fatalf("list period: %v", err)
	}
	if len(jan) != 2 {
		t.Fatalf("January holds %d transactions, want 2", len(jan))
	}
}

func TestRepositoryRatesForConversion(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	d := func(day int) time.Time { return time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC) }

	rates := []core.ExchangeRate{
		{ID: uuid.New(), Base: "EUR", Quote: "USD", Rate: decimal.RequireFromString("1.2"), EffectiveDate: d(10), Source: "manual"},
		{ID: uuid.New(), Base: "USD", Quote: "JPY", Rate: decimal.RequireFromString("150.123456"), EffectiveDate: d(5), Source: "ecb"},
		{ID: uuid.New(), Base: "GBP", Quote: "EUR", Rate: decimal.RequireFromString("1.1"), EffectiveDate: d(5), Source: "manual"},
		{ID: uuid.New(), Base: "EUR", Quote: "USD", Rate: decimal.RequireFromString("1.3"), EffectiveDate: d(31), Source: "manual"},
	}
	for _, r := range rates {
		if err := repo.CreateRate(ctx, r); err != nil {
			t.Fatalf("create rate: %v", err)
		}
	}

	pool, err := repo.ListRatesForConversion(ctx, fx.RateQuery{Base: "USD", Currencies: []string{"EUR", "JPY"}, Before: d(31)})
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if len(pool) != 2 || pool[0].ID != rates[0].ID || pool[1].ID != rates[1].ID {
		t.Fatalf("unexpected pool %+v", pool)
	}
	if !pool[1].Rate.Equal(decimal.RequireFromString("150.123456")) || pool[1].Source != "ecb" {
		t.Fatalf("rate did not round trip: %+v", pool[1])
	}

	pair, err := repo.ListRates(ctx, "EUR", "USD")
	if err != nil || len(pair) != 2 {
		t.Fatalf("pair listing = %d, %v", len(pair), err)
	}
	all, _ := repo.ListRates(ctx, "", "")
	if len(all) != 4 {
		t.Fatalf("all rates = %d, want 4", len(all))
	}

	empty, err := repo.ListRatesForConversion(ctx, fx.RateQuery{Base: "USD", Before: d(31)})
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty currency list should yield no rates, got %d, %v", len(empty), err)
	}
}
