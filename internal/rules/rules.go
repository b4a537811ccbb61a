package rules

import (
	"context"
	"slices"

	"conti/internal/core"

	"github.com/google/uuid"
)

// DefaultRules is the write-path rule list in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{"amount_non_zero", static(func(in core.TransactionInput) string {
			if core.RoundAmount(in.Amount).IsZero() {
				return "Amount must be non-zero."
			}
			return ""
		})},
		{"currency_code", static(func(in core.TransactionInput) string {
			if !core.IsCurrencyCode(in.Currency) {
				return "Currency code must be 3 letters."
			}
			return ""
		})},
		{"account_exists", func(ctx context.Context, dir Directory, bookID uuid.UUID, in core.TransactionInput) (string, error) {
			ok, err := dir.AccountExists(ctx, bookID, in.AccountID)
			if err != nil || ok {
				return "", err
			}
			return "Account not found.", nil
		}},

		{"transfer_destination_required", onlyFor(static(func(in core.TransactionInput) string {
			if in.ToAccountID == nil {
				return "Transfer requires a destination account."
			}
			return ""
		}), core.Transfer)},
		{"transfer_distinct_accounts", onlyFor(static(func(in core.TransactionInput) string {
			if *in.ToAccountID == in.AccountID {
				return "Transfer accounts must be different."
			}
			return ""
		}), core.Transfer)},
		{"transfer_destination_exists", onlyFor(func(ctx context.Context, dir Directory, bookID uuid.UUID, in core.TransactionInput) (string, error) {
			ok, err := dir.AccountExists(ctx, bookID, *in.ToAccountID)
			if err != nil || ok {
				return "", err
			}
			return "Destination account not found.", nil
		}, core.Transfer)},
		{"transfer_no_category", onlyFor(static(func(in core.TransactionInput) string {
			if in.CategoryID != nil {
				return "Transfer cannot have a category."
			}
			return ""
		}), core.Transfer)},
		{"transfer_no_refund", onlyFor(static(func(in core.TransactionInput) string {
			if in.IsRefund {
				return "Transfer cannot be a refund."
			}
			return ""
		}), core.Transfer)},

		{"category_required", onlyFor(static(func(in core.TransactionInput) string {
			if in.CategoryID == nil {
				return "Income and expense require a category."
			}
			return ""
		}), core.Income, core.Expense)},
		{"category_exists", onlyFor(func(ctx context.Context, dir Directory, bookID uuid.UUID, in core.TransactionInput) (string, error) {
			ok, err := dir.CategoryExists(ctx, bookID, *in.CategoryID)
			if err != nil || ok {
				return "", err
			}
			return "Category not found.", nil
		}, core.Income, core.Expense)},
		{"no_destination", onlyFor(static(func(in core.TransactionInput) string {
			if in.ToAccountID != nil {
				return "Income and expense cannot have a destination account."
			}
			return ""
		}), core.Income, core.Expense)},
		{"income_no_refund", onlyFor(static(func(in core.TransactionInput) string {
			if in.IsRefund {
				return "Income cannot be marked as refund."
			}
			return ""
		}), core.Income)},

		{"adjustment_detached", onlyFor(static(func(in core.TransactionInput) string {
			if in.CategoryID != nil || in.ToAccountID != nil {
				return "Balance adjustment cannot have category or destination account."
			}
			return ""
		}), core.BalanceAdjustment)},
		{"adjustment_no_refund", onlyFor(static(func(in core.TransactionInput) string {
			if in.IsRefund {
				return "Balance adjustment cannot be a refund."
			}
			return ""
		}), core.BalanceAdjustment)},
	}
}

// static lifts a check that needs no lookups.
func static(fn func(core.TransactionInput) string) Check {
	return func(_ context.Context, _ Directory, _ uuid.UUID, in core.TransactionInput) (string, error) {
		return fn(in), nil
	}
}

// onlyFor restricts check to the listed transaction types. Checks guarded
// this way may rely on earlier rules for the same types having passed.
func onlyFor(check Check, types ...core.TransactionType) Check {
	return func(ctx context.Context, dir Directory, bookID uuid.UUID, in core.TransactionInput) (string, error) {
		if !slices.Contains(types, in.Type) {
			return "", nil
		}
		return check(ctx, dir, bookID, in)
	}
}
