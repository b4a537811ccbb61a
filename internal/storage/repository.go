package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"conti/internal/core"
	"conti/internal/fx"
	"conti/internal/ports"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var _ ports.LedgerStore = (*SQLiteRepository)(nil)

// Fixed-width UTC layout so TEXT comparison orders like time.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func uuidPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time keeps sqlite away from SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateBook(ctx context.Context, b core.Book) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO books (id, name, base_currency, created_at) VALUES (?, ?, ?, ?)`,
		b.ID, b.Name, b.BaseCurrency, formatTime(b.CreatedAt))
	if err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetBook(ctx context.Context, id uuid.UUID) (core.Book, error) {
	var (
		b       core.Book
		created string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, base_currency, created_at FROM books WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.BaseCurrency, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Book{}, fmt.Errorf("book %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Book{}, fmt.Errorf("get book: %w", err)
	}
	if b.CreatedAt, err = parseTime(created); err != nil {
		return core.Book{}, err
	}
	return b, nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, book_id, name, type, currency, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.BookID, a.Name, string(a.Type), a.Currency, formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, bookID uuid.UUID) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, book_id, name, type, currency, created_at FROM accounts WHERE book_id = ? ORDER BY name`, bookID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var (
			a       core.Account
			typ     string
			created string
		)
		if err := rows.Scan(&a.ID, &a.BookID, &a.Name, &typ, &a.Currency, &created); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Type = core.AccountType(typ)
		if a.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AccountExists(ctx context.Context, bookID, accountID uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM accounts WHERE id = ? AND book_id = ?`, accountID, bookID)
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, book_id, parent_id, name, type) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.BookID, nullUUID(c.ParentID), c.Name, string(c.Type))
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, bookID uuid.UUID) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, book_id, parent_id, name, type FROM categories WHERE book_id = ? ORDER BY name`, bookID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c      core.Category
			parent uuid.NullUUID
			typ    string
		)
		if err := rows.Scan(&c.ID, &c.BookID, &parent, &c.Name, &typ); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.ParentID = uuidPtr(parent)
		c.Type = core.CategoryType(typ)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CategoryExists(ctx context.Context, bookID, categoryID uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM categories WHERE id = ? AND book_id = ?`, categoryID, bookID)
}

func (r *SQLiteRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup: %w", err)
	}
	return true, nil
}

const transactionColumns = `id, book_id, type, date_utc, amount, currency, account_id, to_account_id,
	category_id, member_id, note, is_refund, version, created_at`

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	if t.Version == 0 {
		t.Version = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.BookID, string(t.Type), formatTime(t.Date), t.Amount, t.Currency, t.AccountID,
		nullUUID(t.ToAccountID), nullUUID(t.CategoryID), nullUUID(t.MemberID),
		t.Note, t.IsRefund, t.Version, formatTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.DebugContext(ctx, "transaction stored",
		"id", t.ID,
		"book_id", t.BookID,
		"type", t.Type,
		"amount", t.Amount.String(),
		"currency", t.Currency)
	return nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE transactions SET type = ?, date_utc = ?, amount = ?, currency = ?, account_id = ?,
			to_account_id = ?, category_id = ?, member_id = ?, note = ?, is_refund = ?, version = version + 1
		 WHERE id = ? AND book_id = ?`,
		string(t.Type), formatTime(t.Date), t.Amount, t.Currency, t.AccountID,
		nullUUID(t.ToAccountID), nullUUID(t.CategoryID), nullUUID(t.MemberID), t.Note, t.IsRefund,
		t.ID, t.BookID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	} else if n == 0 {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, core.ErrNotFound)
	}

	updated, err := scanTransaction(tx.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, t.ID))
	if err != nil {
		return core.Transaction{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit update: %w", err)
	}
	return updated, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, bookID, id uuid.UUID) (core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND book_id = ?`, id, bookID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return t, err
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, bookID uuid.UUID) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE book_id = ?
		 ORDER BY date_utc DESC, created_at DESC`, bookID)
}

func (r *SQLiteRepository) ListTransactionsInPeriod(ctx context.Context, bookID uuid.UUID, start, end time.Time) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE book_id = ? AND date_utc >= ? AND date_utc < ?
		 ORDER BY date_utc DESC, created_at DESC`, bookID, formatTime(start), formatTime(end))
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                  core.Transaction
		typ, date, created string
		toAccount          uuid.NullUUID
		category           uuid.NullUUID
		member             uuid.NullUUID
	)
	err := row.Scan(&t.ID, &t.BookID, &typ, &date, &t.Amount, &t.Currency, &t.AccountID,
		&toAccount, &category, &member, &t.Note, &t.IsRefund, &t.Version, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, err
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Type = core.TransactionType(typ)
	t.ToAccountID = uuidPtr(toAccount)
	t.CategoryID = uuidPtr(category)
	t.MemberID = uuidPtr(member)
	if t.Date, err = parseTime(date); err != nil {
		return core.Transaction{}, err
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (r *SQLiteRepository) CreateRate(ctx context.Context, rate core.ExchangeRate) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO exchange_rates (id, base_currency, quote_currency, rate, effective_date_utc, source)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rate.ID, rate.Base, rate.Quote, rate.Rate, formatTime(rate.EffectiveDate), rate.Source)
	if err != nil {
		return fmt.Errorf("create rate: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListRates(ctx context.Context, base, quote string) ([]core.ExchangeRate, error) {
	query := `SELECT id, base_currency, quote_currency, rate, effective_date_utc, source FROM exchange_rates WHERE 1 = 1`
	var args []any
	if base != "" {
		query += ` AND base_currency = ?`
		args = append(args, base)
	}
	if quote != "" {
		query += ` AND quote_currency = ?`
		args = append(args, quote)
	}
	return r.queryRates(ctx, query+` ORDER BY seq`, args...)
}

// ListRatesForConversion returns the candidate pool in insertion order.
func (r *SQLiteRepository) ListRatesForConversion(ctx context.Context, q fx.RateQuery) ([]core.ExchangeRate, error) {
	if len(q.Currencies) == 0 {
		return nil, nil
	}
	in := strings.TrimSuffix(strings.Repeat("?, ", len(q.Currencies)), ", ")
	query := `SELECT id, base_currency, quote_currency, rate, effective_date_utc, source FROM exchange_rates
		WHERE effective_date_utc < ?
		  AND ((quote_currency = ? AND base_currency IN (` + in + `))
		    OR (base_currency = ? AND quote_currency IN (` + in + `)))
		ORDER BY seq`

	args := make([]any, 0, 3+2*len(q.Currencies))
	args = append(args, formatTime(q.Before), q.Base)
	for _, c := range q.Currencies {
		args = append(args, c)
	}
	args = append(args, q.Base)
	for _, c := range q.Currencies {
		args = append(args, c)
	}
	return r.queryRates(ctx, query, args...)
}

func (r *SQLiteRepository) queryRates(ctx context.Context, query string, args ...any) ([]core.ExchangeRate, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}
	defer rows.Close()

	var out []core.ExchangeRate
	for rows.Next() {
		var (
			rate      core.ExchangeRate
			effective string
		)
		if err := rows.Scan(&rate.ID, &rate.Base, &rate.Quote, &rate.Rate, &effective, &rate.Source); err != nil {
			return nil, fmt.Errorf("scan rate: %w", err)
		}
		if rate.EffectiveDate, err = parseTime(effective); err != nil {
			return nil, err
		}
		out = append(out, rate)
	}
	return out, rows.Err()
}
