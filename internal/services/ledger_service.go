package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/metrics"
	"conti/internal/ports"
	"conti/internal/rules"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultRateSource labels rates recorded without an explicit source.
const DefaultRateSource = "manual"

type (
	AccountInput struct {
		Name     string
		Type     core.AccountType
		Currency string
	}

	CategoryInput struct {
		Name     string
		Type     core.CategoryType
		ParentID *uuid.UUID
	}

	RateInput struct {
		Base          string
		Quote         string
		Rate          decimal.Decimal
		EffectiveDate time.Time
		Source        string
	}
)

// LedgerService owns the write path: books, accounts, categories,
// transactions and exchange rates.
type LedgerService struct {
	store     ports.LedgerStore
	engine    *rules.Engine
	publisher ports.TransactionPublisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewLedgerService wires the service. publisher and m may be nil.
func NewLedgerService(store ports.LedgerStore, publisher ports.TransactionPublisher, m *metrics.Metrics) *LedgerService {
	return &LedgerService{
		store:     store,
		engine:    rules.NewEngine(store),
		publisher: publisher,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func invalid(rule, msg string) error {
	return &core.ValidationError{Rule: rule, Message: msg}
}

func (s *LedgerService) CreateBook(ctx context.Context, name, baseCurrency string) (core.Book, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Book{}, invalid("book_name", "Book name is required.")
	}
	currency := core.NormalizeCurrency(baseCurrency)
	if currency == "" {
		currency = core.DefaultCurrency
	}
	if !core.IsCurrencyCode(currency) {
		return core.Book{}, invalid("book_currency", "Base currency must be a 3-letter code.")
	}

	book := core.Book{ID: uuid.New(), Name: name, BaseCurrency: currency, CreatedAt: s.now()}
	if err := s.store.CreateBook(ctx, book); err != nil {
		return core.Book{}, fmt.Errorf("create book: %w", err)
	}
	slog.InfoContext(ctx, "Book created", log.FieldBookID, book.ID, log.FieldCurrency, book.BaseCurrency)
	return book, nil
}

func (s *LedgerService) GetBook(ctx context.Context, bookID uuid.UUID) (core.Book, error) {
	return s.store.GetBook(ctx, bookID)
}

func (s *LedgerService) CreateAccount(ctx context.Context, bookID uuid.UUID, in AccountInput) (core.Account, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return core.Account{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return core.Account{}, invalid("account_name", "Account name is required.")
	}
	if !in.Type.IsValid() {
		return core.Account{}, invalid("account_type", "Account type is invalid.")
	}
	currency := core.NormalizeCurrency(in.Currency)
	if currency == "" {
		currency = book.BaseCurrency
	}
	if !core.IsCurrencyCode(currency) {
		return core.Account{}, invalid("account_currency", "Currency must be a 3-letter code.")
	}

	acc := core.Account{ID: uuid.New(), BookID: bookID, Name: name, Type: in.Type, Currency: currency, CreatedAt: s.now()}
	if err := s.store.CreateAccount(ctx, acc); err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	return acc, nil
}

func (s *LedgerService) ListAccounts(ctx context.Context, bookID uuid.UUID) ([]core.Account, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.store.ListAccounts(ctx, bookID)
}

func (s *LedgerService) CreateCategory(ctx context.Context, bookID uuid.UUID, in CategoryInput) (core.Category, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return core.Category{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return core.Category{}, invalid("category_name", "Category name is required.")
	}
	if !in.Type.IsValid() {
		return core.Category{}, invalid("category_type", "Category type must be Income or Expense.")
	}

	cat := core.Category{ID: uuid.New(), BookID: bookID, Name: name, Type: in.Type, ParentID: in.ParentID}
	if in.ParentID != nil {
		ok, err := s.store.CategoryExists(ctx, bookID, *in.ParentID)
		if err != nil {
			return core.Category{}, fmt.Errorf("lookup parent category: %w", err)
		}
		if !ok {
			return core.Category{}, invalid("category_parent", "Parent category does not exist in this book.")
		}
	}

	if err := s.store.CreateCategory(ctx, cat); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return cat, nil
}

func (s *LedgerService) ListCategories(ctx context.Context, bookID uuid.UUID) ([]core.Category, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.store.ListCategories(ctx, bookID)
}

// RecordTransaction validates, normalizes and stores a new transaction,
// then announces it. A failed announcement never fails the write.
func (s *LedgerService) RecordTransaction(ctx context.Context, bookID uuid.UUID, in core.TransactionInput) (core.Transaction, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return core.Transaction{}, err
	}

	tx, err := s.prepare(ctx, bookID, in)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.ID = uuid.New()
	tx.Version = 1
	tx.CreatedAt = s.now()

	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.metrics.IncRecorded(log.OpCreate, string(tx.Type))
	slog.InfoContext(ctx, "Transaction recorded",
		log.NewFields().WithTransaction(bookID.String(), tx.ID.String(), tx.Version).ToSlice()...)

	s.announce(ctx, tx)
	return tx, nil
}

// UpdateTransaction replaces a stored transaction under the same rules as
// RecordTransaction. A zero account id keeps the stored account.
func (s *LedgerService) UpdateTransaction(ctx context.Context, bookID, id uuid.UUID, in core.TransactionInput) (core.Transaction, error) {
	current, err := s.store.GetTransaction(ctx, bookID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if in.AccountID == uuid.Nil {
		in.AccountID = current.AccountID
	}

	tx, err := s.prepare(ctx, bookID, in)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.ID = id

	updated, err := s.store.UpdateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.metrics.IncRecorded(log.OpUpdate, string(updated.Type))
	slog.InfoContext(ctx, "Transaction updated",
		log.NewFields().WithTransaction(bookID.String(), id.String(), updated.Version).ToSlice()...)

	s.announce(ctx, updated)
	return updated, nil
}

func (s *LedgerService) prepare(ctx context.Context, bookID uuid.UUID, in core.TransactionInput) (core.Transaction, error) {
	tx, err := s.engine.Prepare(ctx, bookID, in)
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		s.metrics.IncRejection(ve.Rule)
		slog.InfoContext(ctx, "Transaction rejected", log.FieldBookID, bookID, log.FieldRule, ve.Rule)
	}
	return tx, err
}

func (s *LedgerService) announce(ctx context.Context, tx core.Transaction) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionRecorded(ctx, tx.BookID, tx.ID, tx.Version); err != nil {
		s.metrics.IncPublishError()
		slog.ErrorContext(ctx, "Failed to publish transaction recorded event",
			log.NewFields().
				WithTransaction(tx.BookID.String(), tx.ID.String(), tx.Version).
				WithOperation(log.OpPublish).
				WithError(err).
				ToSlice()...)
	}
}

func (s *LedgerService) GetTransaction(ctx context.Context, bookID, id uuid.UUID) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, bookID, id)
}

func (s *LedgerService) ListTransactions(ctx context.Context, bookID uuid.UUID) ([]core.Transaction, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.store.ListTransactions(ctx, bookID)
}

// RecordRate stores a new exchange rate. Rates are never updated in place;
// a correction is a newer rate for the same pair.
func (s *LedgerService) RecordRate(ctx context.Context, in RateInput) (core.ExchangeRate, error) {
	base := core.NormalizeCurrency(in.Base)
	quote := core.NormalizeCurrency(in.Quote)
	switch {
	case !core.IsCurrencyCode(base):
		return core.ExchangeRate{}, invalid("rate_base", "Base currency must be a 3-letter code.")
	case !core.IsCurrencyCode(quote):
		return core.ExchangeRate{}, invalid("rate_quote", "Quote currency must be a 3-letter code.")
	case base == quote:
		return core.ExchangeRate{}, invalid("rate_pair", "Base and quote currencies must differ.")
	case !in.Rate.IsPositive():
		return core.ExchangeRate{}, invalid("rate_value", "Rate must be greater than zero.")
	case in.EffectiveDate.IsZero():
		return core.ExchangeRate{}, invalid("rate_date", "Effective date is required.")
	}
	rate := core.RoundRate(in.Rate)
	if !rate.IsPositive() {
		return core.ExchangeRate{}, invalid("rate_value", "Rate must be greater than zero.")
	}
	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = DefaultRateSource
	}

	r := core.ExchangeRate{
		ID:            uuid.New(),
		Base:          base,
		Quote:         quote,
		Rate:          rate,
		EffectiveDate: in.EffectiveDate.UTC(),
		Source:        source,
	}
	if err := s.store.CreateRate(ctx, r); err != nil {
		return core.ExchangeRate{}, fmt.Errorf("create rate: %w", err)
	}
	slog.InfoContext(ctx, "Exchange rate recorded", "pair", base+"/"+quote, "rate", r.Rate.String(), "effective", r.EffectiveDate)
	return r, nil
}

func (s *LedgerService) ListRates(ctx context.Context, base, quote string) ([]core.ExchangeRate, error) {
	return s.store.ListRates(ctx, core.NormalizeCurrency(base), core.NormalizeCurrency(quote))
}
