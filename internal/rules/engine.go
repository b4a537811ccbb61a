// Package rules validates transaction payloads against their declared type
// and computes the canonical stored record.
package rules

import (
	"context"
	"fmt"

	"conti/internal/core"

	"github.com/google/uuid"
)

// Directory answers existence questions about records of a book.
type Directory interface {
	AccountExists(ctx context.Context, bookID, accountID uuid.UUID) (bool, error)
	CategoryExists(ctx context.Context, bookID, categoryID uuid.UUID) (bool, error)
}

// Check inspects one payload. It returns a non-empty message on violation;
// err is reserved for lookup failures.
type Check func(ctx context.Context, dir Directory, bookID uuid.UUID, in core.TransactionInput) (string, error)

// Rule is a named check. Rules run in order and the first violation wins.
type Rule struct {
	Name  string
	Check Check
}

type Engine struct {
	dir   Directory
	rules []Rule
}

func NewEngine(dir Directory) *Engine {
	return &Engine{dir: dir, rules: DefaultRules()}
}

// Rules returns the ordered rule list the engine evaluates.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Validate returns a *core.ValidationError for the first violated rule.
func (e *Engine) Validate(ctx context.Context, bookID uuid.UUID, in core.TransactionInput) error {
	for _, r := range e.rules {
		msg, err := r.Check(ctx, e.dir, bookID, in)
		if err != nil {
			return fmt.Errorf("rule %s: %w", r.Name, err)
		}
		if msg != "" {
			return &core.ValidationError{Rule: r.Name, Message: msg}
		}
	}
	return nil
}

// Prepare validates in and builds the normalized record for storage. ID,
// version and creation time are left to the caller.
func (e *Engine) Prepare(ctx context.Context, bookID uuid.UUID, in core.TransactionInput) (core.Transaction, error) {
	if err := e.Validate(ctx, bookID, in); err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		BookID:      bookID,
		Type:        in.Type,
		Date:        in.Date.UTC(),
		Amount:      core.NormalizeAmount(in.Type, in.Amount, in.IsRefund),
		Currency:    core.NormalizeCurrency(in.Currency),
		AccountID:   in.AccountID,
		ToAccountID: in.ToAccountID,
		CategoryID:  in.CategoryID,
		MemberID:    in.MemberID,
		Note:        in.Note,
		IsRefund:    in.IsRefund,
	}, nil
}
