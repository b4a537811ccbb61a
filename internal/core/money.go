// Package core provides money parsing and handling utilities.
//
// Amounts are fixed-point decimals with four fractional digits, exchange
// rates carry six.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	AmountScale int32 = 4
	RateScale   int32 = 6
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a decimal string to an amount rounded to AmountScale.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional sign. Zero is accepted here; rejecting it is a validation rule.
//
// Examples:
//
//	ParseAmount("12.34")   -> 12.34
//	ParseAmount("-7,5")    -> -7.5
//	ParseAmount("1.00005") -> 1.0001
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return RoundAmount(d), nil
}

// RoundAmount rounds half away from zero to AmountScale digits.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}

func RoundRate(d decimal.Decimal) decimal.Decimal {
	return d.Round(RateScale)
}

// NormalizeAmount computes the stored amount: the absolute value, negated
// only for an expense flagged as refund.
func NormalizeAmount(t TransactionType, amount decimal.Decimal, isRefund bool) decimal.Decimal {
	normalized := RoundAmount(amount.Abs())
	if t == Expense && isRefund {
		return normalized.Neg()
	}
	return normalized
}
