package ports

import (
	"context"
	"time"

	"conti/internal/core"
	"conti/internal/fx"

	"github.com/google/uuid"
)

// Ports for outbound adapters.
type (
	BookStore interface {
		CreateBook(ctx context.Context, b core.Book) error
		GetBook(ctx context.Context, id uuid.UUID) (core.Book, error)
	}

	AccountStore interface {
		CreateAccount(ctx context.Context, a core.Account) error
		ListAccounts(ctx context.Context, bookID uuid.UUID) ([]core.Account, error)
		AccountExists(ctx context.Context, bookID, accountID uuid.UUID) (bool, error)
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) error
		ListCategories(ctx context.Context, bookID uuid.UUID) ([]core.Category, error)
		CategoryExists(ctx context.Context, bookID, categoryID uuid.UUID) (bool, error)
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) error
		// UpdateTransaction replaces a stored transaction and bumps its version.
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, bookID, id uuid.UUID) (core.Transaction, error)
		// ListTransactions returns a book's transactions, newest first.
		ListTransactions(ctx context.Context, bookID uuid.UUID) ([]core.Transaction, error)
		// ListTransactionsInPeriod returns transactions dated in [start, end).
		ListTransactionsInPeriod(ctx context.Context, bookID uuid.UUID, start, end time.Time) ([]core.Transaction, error)
	}

	// RateStore persists exchange rates. Rates are insert-only.
	RateStore interface {
		fx.RateSource
		CreateRate(ctx context.Context, r core.ExchangeRate) error
		// ListRates returns rates for the pair, any side empty meaning all.
		ListRates(ctx context.Context, base, quote string) ([]core.ExchangeRate, error)
	}

	// LedgerStore is everything the services need from a backend.
	LedgerStore interface {
		BookStore
		AccountStore
		CategoryStore
		TransactionStore
		RateStore
	}

	// TransactionPublisher announces stored transactions to other processes.
	TransactionPublisher interface {
		PublishTransactionRecorded(ctx context.Context, bookID, id uuid.UUID, version int64) error
	}

	// TransactionExporter copies a transaction to an external ledger.
	TransactionExporter interface {
		ExportTransaction(ctx context.Context, t core.Transaction) (ref string, err error)
	}
)
