package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"conti/internal/core"
	"conti/internal/fx"
	"conti/internal/ports"

	"github.com/google/uuid"
)

var _ ports.LedgerStore = (*Store)(nil)

// Store keeps a ledger in process memory. Records are copied in and out.
type Store struct {
	mu           sync.RWMutex
	books        map[uuid.UUID]core.Book
	accounts     map[uuid.UUID]core.Account
	categories   map[uuid.UUID]core.Category
	transactions map[uuid.UUID]core.Transaction
	rates        []core.ExchangeRate
}

func New() *Store {
	return &Store{
		books:        make(map[uuid.UUID]core.Book),
		accounts:     make(map[uuid.UUID]core.Account),
		categories:   make(map[uuid.UUID]core.Category),
		transactions: make(map[uuid.UUID]core.Transaction),
	}
}

func (s *Store) CreateBook(_ context.Context, b core.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[b.ID] = b
	return nil
}

func (s *Store) GetBook(_ context.Context, id uuid.UUID) (core.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	if !ok {
		return core.Book{}, fmt.Errorf("book %s: %w", id, core.ErrNotFound)
	}
	return b, nil
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
	return nil
}

func (s *Store) ListAccounts(_ context.Context, bookID uuid.UUID) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Account
	for _, a := range s.accounts {
		if a.BookID == bookID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) AccountExists(_ context.Context, bookID, accountID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	return ok && a.BookID == bookID, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return nil
}

func (s *Store) ListCategories(_ context.Context, bookID uuid.UUID) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.BookID == bookID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CategoryExists(_ context.Context, bookID, categoryID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[categoryID]
	return ok && c.BookID == bookID, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Version == 0 {
		t.Version = 1
	}
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.transactions[t.ID]
	if !ok || cur.BookID != t.BookID {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, core.ErrNotFound)
	}
	t.Version = cur.Version + 1
	t.CreatedAt = cur.CreatedAt
	s.transactions[t.ID] = t
	return t, nil
}

func (s *Store) GetTransaction(_ context.Context, bookID, id uuid.UUID) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok || t.BookID != bookID {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, bookID uuid.UUID) ([]core.Transaction, error) {
	return s.filterTransactions(bookID, func(core.Transaction) bool { return true }), nil
}

func (s *Store) ListTransactionsInPeriod(_ context.Context, bookID uuid.UUID, start, end time.Time) ([]core.Transaction, error) {
	return s.filterTransactions(bookID, func(t core.Transaction) bool {
		return !t.Date.Before(start) && t.Date.Before(end)
	}), nil
}

func (s *Store) filterTransactions(bookID uuid.UUID, keep func(core.Transaction) bool) []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.BookID == bookID && keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *Store) CreateRate(_ context.Context, r core.ExchangeRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates = append(s.rates, r)
	return nil
}

func (s *Store) ListRates(_ context.Context, base, quote string) ([]core.ExchangeRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.ExchangeRate
	for _, r := range s.rates {
		if (base == "" || r.Base == base) && (quote == "" || r.Quote == quote) {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListRatesForConversion returns rates in insertion order.
func (s *Store) ListRatesForConversion(_ context.Context, q fx.RateQuery) ([]core.ExchangeRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.ExchangeRate
	for _, r := range s.rates {
		if !r.EffectiveDate.Before(q.Before) {
			continue
		}
		if (slices.Contains(q.Currencies, r.Base) && r.Quote == q.Base) ||
			(r.Base == q.Base && slices.Contains(q.Currencies, r.Quote)) {
			out = append(out, r)
		}
	}
	return out, nil
}
