package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Expense             TransactionType = "Expense"
	Income              TransactionType = "Income"
	Transfer            TransactionType = "Transfer"
	BalanceAdjustment   TransactionType = "BalanceAdjustment"
	LiabilityAdjustment TransactionType = "LiabilityAdjustment"
)

const (
	IncomeCategory  CategoryType = "Income"
	ExpenseCategory CategoryType = "Expense"
)

const (
	Cash       AccountType = "Cash"
	Bank       AccountType = "Bank"
	CreditCard AccountType = "CreditCard"
	Investment AccountType = "Investment"
	Asset      AccountType = "Asset"
	Liability  AccountType = "Liability"
)

// DefaultCurrency is used for books and accounts created without one.
const DefaultCurrency = "USD"

type (
	TransactionType string
	CategoryType    string
	AccountType     string

	Book struct {
		ID           uuid.UUID
		Name         string
		BaseCurrency string
		CreatedAt    time.Time
	}

	Account struct {
		ID        uuid.UUID
		BookID    uuid.UUID
		Name      string
		Type      AccountType
		Currency  string
		CreatedAt time.Time
	}

	Category struct {
		ID       uuid.UUID
		BookID   uuid.UUID
		ParentID *uuid.UUID
		Name     string
		Type     CategoryType
	}

	// Transaction is a stored ledger entry. Amount is already normalized:
	// only a refunded expense carries a negative value.
	Transaction struct {
		ID          uuid.UUID
		BookID      uuid.UUID
		Type        TransactionType
		Date        time.Time
		Amount      decimal.Decimal
		Currency    string
		AccountID   uuid.UUID
		ToAccountID *uuid.UUID
		CategoryID  *uuid.UUID
		MemberID    *uuid.UUID
		Note        string
		IsRefund    bool
		Version     int64
		CreatedAt   time.Time
	}

	// TransactionInput is the caller payload before validation and normalization.
	TransactionInput struct {
		Type        TransactionType
		Date        time.Time
		Amount      decimal.Decimal
		Currency    string
		AccountID   uuid.UUID
		ToAccountID *uuid.UUID
		CategoryID  *uuid.UUID
		MemberID    *uuid.UUID
		Note        string
		IsRefund    bool
	}

	// ExchangeRate says 1 unit of Base is worth Rate units of Quote from
	// EffectiveDate on, until a later rate for the same pair supersedes it.
	ExchangeRate struct {
		ID            uuid.UUID
		Base          string
		Quote         string
		Rate          decimal.Decimal
		EffectiveDate time.Time
		Source        string
	}
)

func (t TransactionType) IsValid() bool {
	switch t {
	case Expense, Income, Transfer, BalanceAdjustment, LiabilityAdjustment:
		return true
	default:
		return false
	}
}

func (t CategoryType) IsValid() bool {
	return t == IncomeCategory || t == ExpenseCategory
}

// TransactionType maps a category type onto the transactions it classifies.
func (t CategoryType) TransactionType() TransactionType {
	if t == IncomeCategory {
		return Income
	}
	return Expense
}

func (t AccountType) IsValid() bool {
	switch t {
	case Cash, Bank, CreditCard, Investment, Asset, Liability:
		return true
	default:
		return false
	}
}

// ParseTransactionType accepts the canonical names case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	for _, t := range []TransactionType{Expense, Income, Transfer, BalanceAdjustment, LiabilityAdjustment} {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

func ParseCategoryType(s string) (CategoryType, error) {
	switch {
	case strings.EqualFold(strings.TrimSpace(s), string(IncomeCategory)):
		return IncomeCategory, nil
	case strings.EqualFold(strings.TrimSpace(s), string(ExpenseCategory)):
		return ExpenseCategory, nil
	}
	return "", fmt.Errorf("unknown category type %q", s)
}

// NormalizeCurrency trims and uppercases a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsCurrencyCode reports whether code is exactly three ASCII letters, any case.
func IsCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') {
			return false
		}
	}
	return true
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
